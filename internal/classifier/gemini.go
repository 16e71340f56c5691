package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiClassifier calls the Generative Language API in JSON mode, with a
// response schema so the model cannot drift into free text.
type GeminiClassifier struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// NewGemini creates a classifier backed by the Gemini API. model may be
// empty to use the default.
func NewGemini(apiKey, model string) *GeminiClassifier {
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiClassifier{
		baseURL: "https://generativelanguage.googleapis.com",
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
	Role  string       `json:"role,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  map[string]interface{} `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// responseSchema mirrors the four-field contract so the API enforces shape
// server-side where supported.
var responseSchema = map[string]interface{}{
	"type": "OBJECT",
	"properties": map[string]interface{}{
		"categories": map[string]interface{}{
			"type":  "ARRAY",
			"items": map[string]interface{}{"type": "STRING"},
		},
		"title":   map[string]interface{}{"type": "STRING"},
		"summary": map[string]interface{}{"type": "STRING"},
		"tags": map[string]interface{}{
			"type":  "ARRAY",
			"items": map[string]interface{}{"type": "STRING"},
		},
	},
	"required": []string{"categories", "tags", "summary", "title"},
}

// Classify sends the note text for classification. Any transport, API or
// schema failure is returned as an error; callers decide the fallback.
func (g *GeminiClassifier) Classify(ctx context.Context, content string) (*Suggestion, error) {
	payload := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: systemInstruction}}},
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: "Content to analyze:\n---\n" + content}}},
		},
		GenerationConfig: map[string]interface{}{
			"responseMimeType": "application/json",
			"responseSchema":   responseSchema,
		},
	}

	body, _ := json.Marshal(payload)
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gemini error %d: %s", resp.StatusCode, string(b))
	}

	var result geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("gemini response decode failed: %w", err)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	return ParseSuggestion([]byte(result.Candidates[0].Content.Parts[0].Text))
}

// ParseSuggestion parses and validates the model's JSON output. A response
// missing any of the four fields, or with a wrongly-typed field, is a
// failure, not a partial success.
func ParseSuggestion(data []byte) (*Suggestion, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("suggestion is not a JSON object: %w", err)
	}

	var s Suggestion
	fields := []struct {
		key string
		dst interface{}
	}{
		{"categories", &s.Categories},
		{"title", &s.Title},
		{"summary", &s.Summary},
		{"tags", &s.Tags},
	}
	for _, f := range fields {
		v, ok := raw[f.key]
		if !ok {
			return nil, fmt.Errorf("suggestion is missing field %q", f.key)
		}
		if err := json.Unmarshal(v, f.dst); err != nil {
			return nil, fmt.Errorf("suggestion field %q has wrong type: %w", f.key, err)
		}
	}
	if s.Categories == nil || s.Tags == nil {
		return nil, fmt.Errorf("suggestion arrays must not be null")
	}

	s.normalize()
	return &s, nil
}
