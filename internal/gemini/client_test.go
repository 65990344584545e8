package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name           string
		apiKey         string
		model          string
		temperature    float64
		expectedModel  string
		expectedTemp   float64
		expectedConfig bool
	}{
		{
			name:           "with all parameters",
			apiKey:         "test-api-key",
			model:          "gemini-1.5-pro",
			temperature:    0.5,
			expectedModel:  "gemini-1.5-pro",
			expectedTemp:   0.5,
			expectedConfig: true,
		},
		{
			name:           "empty model uses default",
			apiKey:         "test-api-key",
			model:          "",
			temperature:    0.3,
			expectedModel:  defaultModel,
			expectedTemp:   0.3,
			expectedConfig: true,
		},
		{
			name:           "zero temperature uses default",
			apiKey:         "test-api-key",
			model:          "gemini-1.5-flash",
			temperature:    0,
			expectedModel:  "gemini-1.5-flash",
			expectedTemp:   0.15,
			expectedConfig: true,
		},
		{
			name:           "empty api key",
			apiKey:         "",
			model:          "some-model",
			temperature:    0.2,
			expectedModel:  "some-model",
			expectedTemp:   0.2,
			expectedConfig: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(tt.apiKey, tt.model, tt.temperature)

			require.NotNil(t, client)
			assert.Equal(t, tt.expectedModel, client.model)
			assert.Equal(t, tt.expectedTemp, client.temperature)
			assert.Equal(t, tt.expectedConfig, client.IsConfigured())
		})
	}
}

func testClient(serverURL string) *Client {
	return &Client{
		apiKey:      "test-api-key",
		model:       "test-model",
		baseURL:     serverURL,
		temperature: 0.15,
		httpClient:  &http.Client{},
	}
}

func TestGenerate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Contains(t, r.URL.Path, "test-model")
		assert.Equal(t, "test-api-key", r.URL.Query().Get("key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		require.Len(t, req.Contents[0].Parts, 1)
		assert.Equal(t, "analizza questo", req.Contents[0].Parts[0].Text)
		assert.Equal(t, 0.15, req.GenerationConfig.Temperature)
		assert.Equal(t, 1024, req.GenerationConfig.MaxOutputTokens)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"intent\":\"create\"}"}]}}]}`))
	}))
	defer server.Close()

	text, err := testClient(server.URL).Generate(context.Background(), "analizza questo")

	require.NoError(t, err)
	assert.Equal(t, `{"intent":"create"}`, text)
}

func TestGenerate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).Generate(context.Background(), "test")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not valid")
}

func TestGenerate_NonJSONErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream unavailable"))
	}))
	defer server.Close()

	_, err := testClient(server.URL).Generate(context.Background(), "test")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestGenerate_EmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).Generate(context.Background(), "test")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "clean json",
			input:    `{"intent": "create"}`,
			expected: `{"intent": "create"}`,
		},
		{
			name:     "json in markdown fence",
			input:    "```json\n{\"intent\": \"create\"}\n```",
			expected: `{"intent": "create"}`,
		},
		{
			name:     "json with prose around it",
			input:    "Ecco l'analisi:\n{\"intent\": \"query\"}\nFine.",
			expected: `{"intent": "query"}`,
		},
		{
			name:     "nested objects",
			input:    `{"eventData": {"title": "riunione", "nested": {"deep": true}}}`,
			expected: `{"eventData": {"title": "riunione", "nested": {"deep": true}}}`,
		},
		{
			name:     "no json at all",
			input:    "non posso rispondere",
			expected: "non posso rispondere",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractJSON(tt.input))
		})
	}
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "trailing comma in object",
			input: `{"intent": "create", "confidence": 0.9,}`,
		},
		{
			name:  "trailing comma in array",
			input: `{"participants": ["Mario", "Luigi",]}`,
		},
		{
			name:  "unquoted keys",
			input: `{intent: "create", confidence: 0.9}`,
		},
		{
			name:  "both malformations",
			input: `{intent: "create", eventData: {title: "riunione",},}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repaired := repairJSON(tt.input)

			var decoded map[string]any
			require.NoError(t, json.Unmarshal([]byte(repaired), &decoded),
				"repaired output %q is still not valid JSON", repaired)
		})
	}

	t.Run("valid json is left alone", func(t *testing.T) {
		input := `{"intent": "create", "eventData": {"title": "riunione"}}`
		assert.Equal(t, input, repairJSON(input))
	})

	t.Run("arbitrary damage is not repaired", func(t *testing.T) {
		repaired := repairJSON(`{"intent": "create`)
		var decoded map[string]any
		assert.Error(t, json.Unmarshal([]byte(repaired), &decoded))
	})
}

func TestFindJSONBounds(t *testing.T) {
	assert.Equal(t, 0, findJSONStart(`{"a":1}`))
	assert.Equal(t, 7, findJSONStart("prefix {\"a\":1}"))
	assert.Equal(t, -1, findJSONStart("no braces"))

	text := `{"a": {"b": 2}} trailing`
	assert.Equal(t, strings.Index(text, "}}")+1, findJSONEnd(text, 0))
	assert.Equal(t, -1, findJSONEnd(`{"a": 1`, 0))
}
