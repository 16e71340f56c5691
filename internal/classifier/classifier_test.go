package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSuggestion(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *Suggestion
		wantErr bool
	}{
		{
			name:  "valid",
			input: `{"categories":["Personal","Shopping"],"title":"Grocery List","summary":"A simple list.","tags":["groceries"]}`,
			want: &Suggestion{
				Categories: []string{"Personal", "Shopping"},
				Title:      "Grocery List",
				Summary:    "A simple list.",
				Tags:       []string{"groceries"},
			},
		},
		{
			name:  "empty categories allowed",
			input: `{"categories":[],"title":"t","summary":"s","tags":[]}`,
			want: &Suggestion{
				Categories: []string{},
				Title:      "t",
				Summary:    "s",
				Tags:       []string{},
			},
		},
		{
			name:  "tags clamped to five and blanks dropped",
			input: `{"categories":["A"],"title":"t","summary":"s","tags":["one"," ","two","three","four","five","six"]}`,
			want: &Suggestion{
				Categories: []string{"A"},
				Title:      "t",
				Summary:    "s",
				Tags:       []string{"one", "two", "three", "four", "five"},
			},
		},
		{
			name:    "categories not an array",
			input:   `{"categories":"Personal","title":"t","summary":"s","tags":[]}`,
			wantErr: true,
		},
		{
			name:    "title not a string",
			input:   `{"categories":[],"title":42,"summary":"s","tags":[]}`,
			wantErr: true,
		},
		{
			name:    "missing tags",
			input:   `{"categories":[],"title":"t","summary":"s"}`,
			wantErr: true,
		},
		{
			name:    "null arrays rejected",
			input:   `{"categories":null,"title":"t","summary":"s","tags":null}`,
			wantErr: true,
		},
		{
			name:    "not an object",
			input:   `["just","an","array"]`,
			wantErr: true,
		},
		{
			name:    "not json at all",
			input:   `Sure! Here is the JSON you asked for:`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSuggestion([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func geminiReply(t *testing.T, w http.ResponseWriter, payload string) {
	t.Helper()
	resp := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{
				"parts": []map[string]string{{"text": payload}},
			}},
		},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		t.Fatalf("encode reply: %v", err)
	}
}

func TestGeminiClassify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req geminiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.SystemInstruction == nil || len(req.Contents) == 0 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		geminiReply(t, w, `{"categories":["Ideas"],"title":"An Idea","summary":"Something.","tags":["idea"]}`)
	}))
	defer srv.Close()

	g := NewGemini("test-key", "")
	g.baseURL = srv.URL

	got, err := g.Classify(context.Background(), "a note about an idea")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ideas"}, got.Categories)
	assert.Equal(t, "An Idea", got.Title)
	assert.Equal(t, []string{"idea"}, got.Tags)
}

func TestGeminiClassifyServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewGemini("test-key", "")
	g.baseURL = srv.URL

	_, err := g.Classify(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGeminiClassifyMalformedModelOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		geminiReply(t, w, `{"categories":"oops","title":"t","summary":"s","tags":[]}`)
	}))
	defer srv.Close()

	g := NewGemini("test-key", "")
	g.baseURL = srv.URL

	_, err := g.Classify(context.Background(), "anything")
	require.Error(t, err)
}

func TestGeminiClassifyNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	g := NewGemini("test-key", "")
	g.baseURL = srv.URL

	_, err := g.Classify(context.Background(), "anything")
	require.Error(t, err)
}
