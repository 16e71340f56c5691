package classifier

import "context"

// Mock returns a canned suggestion for local development, mirroring the
// shape a real provider produces.
type Mock struct{}

// NewMock creates a mock classifier.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Classify(ctx context.Context, content string) (*Suggestion, error) {
	return &Suggestion{
		Categories: []string{"Dev", "Test"},
		Title:      "Mock Note Title",
		Summary:    "This is a mock summary for development purposes, explaining what the note is about.",
		Tags:       []string{"mock-tag", "test"},
	}, nil
}
