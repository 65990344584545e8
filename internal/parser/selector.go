// Package parser wires the two extraction strategies together: a selector
// that picks one per request and falls back, and a facade that pairs the
// chosen extractor with validation.
package parser

import (
	"context"
	"fmt"
	"sync"

	"github.com/gmarchetti/dimmi/internal/command"
)

// Extractor is a strategy that converts raw text into a command schema.
type Extractor interface {
	Parse(ctx context.Context, text string) (*command.Schema, error)
	Confidence(text string) float64
	CanHandle() bool
}

// Config is the selector policy snapshot.
type Config struct {
	DeterministicOnly   bool
	PreferDeterministic bool
	FallbackEnabled     bool
	ConfidenceThreshold float64
}

// ConfigPatch is a partial configuration for hot updates; nil fields keep
// their current value.
type ConfigPatch struct {
	DeterministicOnly   *bool    `json:"deterministicOnly,omitempty"`
	PreferDeterministic *bool    `json:"preferDeterministic,omitempty"`
	FallbackEnabled     *bool    `json:"fallbackEnabled,omitempty"`
	ConfidenceThreshold *float64 `json:"confidenceThreshold,omitempty"`
}

// Selector chooses between the deterministic and generative extractors per
// request. It holds no state across calls beyond its configuration snapshot.
type Selector struct {
	mu            sync.RWMutex
	cfg           Config
	deterministic Extractor
	generative    Extractor
}

// NewSelector creates a selector. generative may be nil when no backend is
// configured.
func NewSelector(deterministic, generative Extractor, cfg Config) *Selector {
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = 0.6
	}
	return &Selector{
		cfg:           cfg,
		deterministic: deterministic,
		generative:    generative,
	}
}

func (s *Selector) snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// UpdateConfig merges a partial configuration into a fresh snapshot. Parses
// already in flight keep the snapshot they started with.
func (s *Selector) UpdateConfig(patch ConfigPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cfg
	if patch.DeterministicOnly != nil {
		next.DeterministicOnly = *patch.DeterministicOnly
	}
	if patch.PreferDeterministic != nil {
		next.PreferDeterministic = *patch.PreferDeterministic
	}
	if patch.FallbackEnabled != nil {
		next.FallbackEnabled = *patch.FallbackEnabled
	}
	if patch.ConfidenceThreshold != nil && *patch.ConfidenceThreshold > 0 {
		next.ConfidenceThreshold = *patch.ConfidenceThreshold
	}
	s.cfg = next
}

// SelectParser reports which extractor the policy would choose for this text
// without keeping the deterministic parse the scoring performs. Parse itself
// goes through parsePrimary, which reuses that parse.
func (s *Selector) SelectParser(text string) (Extractor, command.Method) {
	cfg := s.snapshot()

	if cfg.DeterministicOnly || s.generative == nil || !s.generative.CanHandle() {
		return s.deterministic, command.MethodRegex
	}
	if s.prefersDeterministic(cfg, s.deterministic.Confidence(text), s.generative.Confidence(text)) {
		return s.deterministic, command.MethodRegex
	}
	return s.generative, command.MethodLLM
}

func (s *Selector) prefersDeterministic(cfg Config, detScore, genScore float64) bool {
	return detScore >= cfg.ConfidenceThreshold && (detScore >= genScore || cfg.PreferDeterministic)
}

// Parse runs the selected extractor, falling back to the deterministic one
// when the generative attempt fails or produces no usable intent. It never
// returns nil.
func (s *Selector) Parse(ctx context.Context, text string) *command.Schema {
	cfg := s.snapshot()
	schema, method, detSchema, err := s.parsePrimary(ctx, text, cfg)

	if err != nil || schema == nil {
		reason := "extractor failed"
		if err != nil {
			reason = err.Error()
		}
		if method == command.MethodLLM && cfg.FallbackEnabled {
			if fb := s.fallback(ctx, text, detSchema); fb != nil {
				return fb
			}
		}
		schema = command.New(text, method)
		schema.AddAmbiguity(fmt.Sprintf("analysis error: %s", reason))
		return schema
	}

	if method == command.MethodLLM && cfg.FallbackEnabled &&
		(schema.Intent == command.IntentNone || !schema.SelfCheck()) {
		if fb := s.fallback(ctx, text, detSchema); fb != nil && fb.Intent != command.IntentNone {
			// Keep the primary result only when it had a usable intent and
			// the fallback does not improve on it.
			if schema.Intent == command.IntentNone || schema.Confidence <= fb.Confidence {
				return fb
			}
		}
	}

	return schema
}

// parsePrimary applies the selection policy and runs the chosen extractor.
// The deterministic confidence is the score its parse assigns, so the parse
// performed while scoring is kept: it becomes the result when the
// deterministic path wins and the fallback candidate when it loses.
func (s *Selector) parsePrimary(ctx context.Context, text string, cfg Config) (*command.Schema, command.Method, *command.Schema, error) {
	if cfg.DeterministicOnly || s.generative == nil || !s.generative.CanHandle() {
		schema, err := s.deterministic.Parse(ctx, text)
		return schema, command.MethodRegex, nil, err
	}

	detSchema, detErr := s.deterministic.Parse(ctx, text)
	detScore := 0.0
	if detErr == nil && detSchema != nil {
		detScore = detSchema.Confidence
	}
	if s.prefersDeterministic(cfg, detScore, s.generative.Confidence(text)) {
		return detSchema, command.MethodRegex, nil, detErr
	}

	schema, err := s.generative.Parse(ctx, text)
	if detErr != nil {
		detSchema = nil
	}
	return schema, command.MethodLLM, detSchema, err
}

func (s *Selector) fallback(ctx context.Context, text string, cached *command.Schema) *command.Schema {
	if cached != nil {
		return cached
	}
	schema, err := s.deterministic.Parse(ctx, text)
	if err != nil {
		return nil
	}
	return schema
}
