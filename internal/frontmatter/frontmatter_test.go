package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		meta Metadata
		body string
	}{
		{
			name: "typical note",
			meta: Metadata{
				Tags:    []string{"groceries", "shopping"},
				Date:    "2024-07-29T11:00:00Z",
				Summary: "A simple grocery list.",
				Title:   "Grocery List",
			},
			body: "Milk, bread, eggs, and coffee.",
		},
		{
			name: "empty tags",
			meta: Metadata{
				Tags:    []string{},
				Date:    "2024-01-01T00:00:00Z",
				Summary: "N/A",
				Title:   "Untitled Note",
			},
			body: "just text",
		},
		{
			name: "multiline body",
			meta: Metadata{
				Tags:    []string{"ideas"},
				Date:    "2024-01-01T00:00:00Z",
				Summary: "Some ideas.",
				Title:   "Ideas",
			},
			body: "line one\nline two\n\nline four",
		},
		{
			name: "url body",
			meta: Metadata{
				Tags:    []string{"news", "cnn"},
				Date:    "2024-07-30T09:00:00Z",
				Summary: "A bookmark.",
				Title:   "CNN Homepage",
			},
			body: "https://www.cnn.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob := Encode(tt.meta, tt.body)
			meta, body := Decode(blob, Fallback{Name: "fallback.txt", Date: "1970-01-01T00:00:00Z"})
			assert.Equal(t, tt.meta, meta)
			assert.Equal(t, tt.body, body)
		})
	}
}

func TestDecodeNoFrontMatter(t *testing.T) {
	meta, body := Decode("plain text, no metadata block", Fallback{Name: "note.txt", Date: "2024-05-05T10:00:00Z"})
	assert.Equal(t, "plain text, no metadata block", body)
	assert.Empty(t, meta.Tags)
	assert.Equal(t, "2024-05-05T10:00:00Z", meta.Date)
	assert.Equal(t, "note.txt", meta.Title)
	assert.Equal(t, "N/A", meta.Summary)
}

func TestDecodeUnclosedBlock(t *testing.T) {
	blob := "---\ntitle: Broken\nno closing fence"
	meta, body := Decode(blob, Fallback{Name: "broken.txt", Date: "2024-05-05T10:00:00Z"})
	// The whole blob survives as body; nothing is discarded.
	assert.Equal(t, blob, body)
	assert.Equal(t, "broken.txt", meta.Title)
}

func TestDecodePartialFields(t *testing.T) {
	blob := "---\ntitle: Only A Title\n---\nthe body"
	meta, body := Decode(blob, Fallback{Name: "file.txt", Date: "2024-02-02T00:00:00Z"})
	require.Equal(t, "the body", body)
	assert.Equal(t, "Only A Title", meta.Title)
	assert.Equal(t, []string{}, meta.Tags)
	assert.Equal(t, "2024-02-02T00:00:00Z", meta.Date)
	assert.Equal(t, "N/A", meta.Summary)
}

func TestDecodeInvalidYAML(t *testing.T) {
	blob := "---\nkey: : value\n---\ncontent"
	_, body := Decode(blob, Fallback{Name: "f.txt", Date: "2024-01-01T00:00:00Z"})
	// Malformed blocks degrade to body text rather than losing the note.
	assert.Equal(t, blob, body)
}

func TestEncodeLayout(t *testing.T) {
	blob := Encode(Metadata{
		Tags:    []string{"a"},
		Date:    "2024-01-01T00:00:00Z",
		Summary: "s",
		Title:   "t",
	}, "body text")
	require.True(t, len(blob) > 0)
	assert.Contains(t, blob, "---\ntags:")
	assert.Contains(t, blob, "\n---\nbody text")
}
