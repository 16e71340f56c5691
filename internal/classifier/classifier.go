// Package classifier provides a pluggable interface for AI note
// classification providers.
package classifier

import (
	"context"
	"os"
	"strings"
)

// Suggestion is the structured classification result for a note.
type Suggestion struct {
	Categories []string `json:"categories"`
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	Tags       []string `json:"tags"`
}

// MaxTags caps the number of tags a suggestion may carry.
const MaxTags = 5

// Classifier infers a category path, title, summary and tags from note text.
type Classifier interface {
	Classify(ctx context.Context, content string) (*Suggestion, error)
}

// systemInstruction constrains the model to a single JSON object with
// exactly the four expected fields.
const systemInstruction = `You are an organizational assistant. Your task is to analyze the user's content and respond with a single, valid JSON object.

The JSON object must have the following structure:
{
  "categories": ["string", "string", ...],
  "title": "string",
  "summary": "string",
  "tags": ["string", "string", ...]
}

- "categories": Create a hierarchical path for the note. A single level is preferred unless a deeper hierarchy is obvious (e.g., ["Programming", "JavaScript"]). If unsure, use ["Uncategorized"].
- "title": A concise, context-aware item title reflecting the entry's core idea. If the content is a URL, this should be a human-readable title for the page.
- "summary": A brief, one or two-sentence summary capturing the key points of the content.
- "tags": Extract 1-5 relevant, concise, organizational tags from the content. Tags must be 1-2 words and non-redundant.

Do not include any other text, markdown formatting, or explanations outside of the JSON object.
`

// normalize trims a suggestion to the contract: blank tags and categories are
// dropped and tags are clamped to MaxTags.
func (s *Suggestion) normalize() {
	s.Categories = cleanList(s.Categories, len(s.Categories))
	s.Tags = cleanList(s.Tags, MaxTags)
}

func cleanList(in []string, max int) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
		if len(out) == max {
			break
		}
	}
	return out
}

// NewFromEnv creates a classifier from environment variables.
// STUFFMD_CLASSIFIER: "gemini" | "mock" | "" (gemini, or mock when
// DEV_MODE=true). GEMINI_API_KEY supplies the key for the gemini provider.
func NewFromEnv(apiKey string) Classifier {
	provider := os.Getenv("STUFFMD_CLASSIFIER")
	if provider == "" {
		if os.Getenv("DEV_MODE") == "true" {
			provider = "mock"
		} else {
			provider = "gemini"
		}
	}

	switch provider {
	case "mock":
		return NewMock()
	default:
		model := os.Getenv("STUFFMD_CLASSIFIER_MODEL")
		return NewGemini(apiKey, model)
	}
}
