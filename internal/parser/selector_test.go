package parser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmarchetti/dimmi/internal/command"
)

// fakeExtractor is a canned-response strategy for exercising the selection
// and fallback policy in isolation.
type fakeExtractor struct {
	schema     *command.Schema
	err        error
	confidence float64
	canHandle  bool
	parseCalls int
}

func (f *fakeExtractor) Parse(_ context.Context, _ string) (*command.Schema, error) {
	f.parseCalls++
	return f.schema, f.err
}

func (f *fakeExtractor) Confidence(string) float64 { return f.confidence }
func (f *fakeExtractor) CanHandle() bool           { return f.canHandle }

func validCreateSchema(method command.Method) *command.Schema {
	date := time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)
	s := command.New("Crea riunione domani", method)
	s.Intent = command.IntentCreate
	s.Event.Title = "riunione"
	s.Time.StartDate = &date
	s.Confidence = 0.8
	s.IsValid = true
	return s
}

func emptySchema(method command.Method) *command.Schema {
	return command.New("testo", method)
}

func TestSelectParser(t *testing.T) {
	tests := []struct {
		name           string
		cfg            Config
		detConfidence  float64
		genCanHandle   bool
		noGenerative   bool
		expectedMethod command.Method
	}{
		{
			name:           "deterministic only ignores the generative path",
			cfg:            Config{DeterministicOnly: true},
			detConfidence:  0.1,
			genCanHandle:   true,
			expectedMethod: command.MethodRegex,
		},
		{
			name:           "no generative extractor configured",
			noGenerative:   true,
			detConfidence:  0.1,
			expectedMethod: command.MethodRegex,
		},
		{
			name:           "generative cannot handle",
			detConfidence:  0.1,
			genCanHandle:   false,
			expectedMethod: command.MethodRegex,
		},
		{
			name:           "low deterministic confidence goes generative",
			detConfidence:  0.4,
			genCanHandle:   true,
			expectedMethod: command.MethodLLM,
		},
		{
			name:           "confident deterministic still loses to a higher score",
			detConfidence:  0.7,
			genCanHandle:   true,
			expectedMethod: command.MethodLLM,
		},
		{
			name:           "preference keeps the deterministic path above threshold",
			cfg:            Config{PreferDeterministic: true},
			detConfidence:  0.7,
			genCanHandle:   true,
			expectedMethod: command.MethodRegex,
		},
		{
			name:           "deterministic wins when it outscores the generative path",
			detConfidence:  0.95,
			genCanHandle:   true,
			expectedMethod: command.MethodRegex,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det := &fakeExtractor{confidence: tt.detConfidence, canHandle: true}
			var gen Extractor
			if !tt.noGenerative {
				gen = &fakeExtractor{confidence: 0.9, canHandle: tt.genCanHandle}
			}

			_, method := NewSelector(det, gen, tt.cfg).SelectParser("testo")
			assert.Equal(t, tt.expectedMethod, method)
		})
	}
}

func TestUpdateConfig_MergesPatch(t *testing.T) {
	det := &fakeExtractor{confidence: 0.7, canHandle: true}
	gen := &fakeExtractor{confidence: 0.9, canHandle: true}
	s := NewSelector(det, gen, Config{FallbackEnabled: true})

	deterministicOnly := true
	s.UpdateConfig(ConfigPatch{DeterministicOnly: &deterministicOnly})

	cfg := s.snapshot()
	assert.True(t, cfg.DeterministicOnly)
	// Untouched fields keep their values, including the defaulted threshold.
	assert.True(t, cfg.FallbackEnabled)
	assert.Equal(t, 0.6, cfg.ConfidenceThreshold)

	_, method := s.SelectParser("testo")
	assert.Equal(t, command.MethodRegex, method)
}

func TestUpdateConfig_RejectsNonPositiveThreshold(t *testing.T) {
	s := NewSelector(&fakeExtractor{canHandle: true}, nil, Config{})

	bad := -0.5
	s.UpdateConfig(ConfigPatch{ConfidenceThreshold: &bad})
	assert.Equal(t, 0.6, s.snapshot().ConfidenceThreshold)

	good := 0.8
	s.UpdateConfig(ConfigPatch{ConfidenceThreshold: &good})
	assert.Equal(t, 0.8, s.snapshot().ConfidenceThreshold)
}

func TestParse_GenerativeSuccessSkipsFallback(t *testing.T) {
	det := &fakeExtractor{schema: validCreateSchema(command.MethodRegex), confidence: 0.3, canHandle: true}
	gen := &fakeExtractor{schema: validCreateSchema(command.MethodLLM), confidence: 0.9, canHandle: true}
	s := NewSelector(det, gen, Config{FallbackEnabled: true})

	schema := s.Parse(context.Background(), "Crea riunione domani")

	require.NotNil(t, schema)
	assert.Equal(t, command.MethodLLM, schema.Metadata.Method)
	// Only the scoring parse ran; no fallback followed the generative result.
	assert.Equal(t, 1, det.parseCalls)
}

func TestParse_FallsBackOnGenerativeError(t *testing.T) {
	det := &fakeExtractor{schema: validCreateSchema(command.MethodRegex), confidence: 0.3, canHandle: true}
	gen := &fakeExtractor{err: errors.New("backend unreachable"), confidence: 0.9, canHandle: true}
	s := NewSelector(det, gen, Config{FallbackEnabled: true})

	schema := s.Parse(context.Background(), "Crea riunione domani")

	require.NotNil(t, schema)
	assert.Equal(t, command.MethodRegex, schema.Metadata.Method)
	assert.Equal(t, command.IntentCreate, schema.Intent)
	// The fallback reuses the parse produced while scoring the strategies.
	assert.Equal(t, 1, det.parseCalls)
}

func TestParse_FallsBackOnMissingIntent(t *testing.T) {
	det := &fakeExtractor{schema: validCreateSchema(command.MethodRegex), confidence: 0.3, canHandle: true}
	gen := &fakeExtractor{schema: emptySchema(command.MethodLLM), confidence: 0.9, canHandle: true}
	s := NewSelector(det, gen, Config{FallbackEnabled: true})

	schema := s.Parse(context.Background(), "Crea riunione domani")

	require.NotNil(t, schema)
	assert.Equal(t, command.MethodRegex, schema.Metadata.Method)
	assert.Equal(t, command.IntentCreate, schema.Intent)
}

func TestParse_FallbackDisabledReturnsPrimary(t *testing.T) {
	det := &fakeExtractor{schema: validCreateSchema(command.MethodRegex), confidence: 0.3, canHandle: true}
	gen := &fakeExtractor{schema: emptySchema(command.MethodLLM), confidence: 0.9, canHandle: true}
	s := NewSelector(det, gen, Config{FallbackEnabled: false})

	schema := s.Parse(context.Background(), "Crea riunione domani")

	require.NotNil(t, schema)
	assert.Equal(t, command.MethodLLM, schema.Metadata.Method)
	assert.Equal(t, command.IntentNone, schema.Intent)
	assert.Equal(t, 1, det.parseCalls)
}

func TestParse_DeterministicWinnerParsesOnce(t *testing.T) {
	det := &fakeExtractor{schema: validCreateSchema(command.MethodRegex), confidence: 0.8, canHandle: true}
	gen := &fakeExtractor{schema: validCreateSchema(command.MethodLLM), confidence: 0.9, canHandle: true}
	s := NewSelector(det, gen, Config{PreferDeterministic: true, FallbackEnabled: true})

	schema := s.Parse(context.Background(), "Crea riunione domani")

	require.NotNil(t, schema)
	assert.Equal(t, command.MethodRegex, schema.Metadata.Method)
	assert.Equal(t, 1, det.parseCalls)
	assert.Zero(t, gen.parseCalls)
}

func TestParse_KeepsPrimaryWhenFallbackIsWorse(t *testing.T) {
	// Generative result has a usable intent but fails the completeness
	// check; the fallback found nothing better.
	partial := emptySchema(command.MethodLLM)
	partial.Intent = command.IntentCreate
	partial.Event.Title = "riunione"
	partial.Confidence = 0.9

	weak := emptySchema(command.MethodRegex)
	weak.Intent = command.IntentCreate
	weak.Confidence = 0.5

	det := &fakeExtractor{schema: weak, confidence: 0.3, canHandle: true}
	gen := &fakeExtractor{schema: partial, confidence: 0.9, canHandle: true}
	s := NewSelector(det, gen, Config{FallbackEnabled: true})

	schema := s.Parse(context.Background(), "Crea riunione")

	require.NotNil(t, schema)
	assert.Equal(t, command.MethodLLM, schema.Metadata.Method)
	assert.Equal(t, "riunione", schema.Event.Title)
}

func TestParse_ErrorWithoutFallbackYieldsDiagnosticSchema(t *testing.T) {
	det := &fakeExtractor{err: errors.New("rules exploded"), confidence: 1, canHandle: true}
	s := NewSelector(det, nil, Config{})

	schema := s.Parse(context.Background(), "Crea riunione domani")

	require.NotNil(t, schema)
	assert.Equal(t, command.IntentNone, schema.Intent)
	require.NotEmpty(t, schema.Metadata.Ambiguities)
	assert.Contains(t, schema.Metadata.Ambiguities[0], "rules exploded")
}
