// Package frontmatter encodes and decodes the YAML metadata block stored at
// the head of every note file.
package frontmatter

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// Metadata is the structured block embedded before a note body.
type Metadata struct {
	Tags    []string `yaml:"tags"`
	Date    string   `yaml:"date"`
	Summary string   `yaml:"summary"`
	Title   string   `yaml:"title"`
}

// Fallback supplies per-field defaults applied when a stored blob lacks a
// front-matter block or individual fields.
type Fallback struct {
	// Name is the stored filename, used as the default title.
	Name string
	// Date is the remote creation timestamp, used as the default date.
	Date string
}

// Encode wraps meta in a delimited YAML block followed by the raw body.
func Encode(meta Metadata, body string) string {
	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	// Metadata is a plain struct of strings and string slices; encoding
	// cannot fail.
	_ = enc.Encode(meta)
	enc.Close()
	buf.WriteString(delimiter + "\n")
	buf.WriteString(body)
	return buf.String()
}

// Decode splits a stored blob into its metadata and body. A blob without a
// leading delimiter pair, or with an unparsable block, is treated as pure
// body text with defaulted metadata; a note is never lost to a bad header.
func Decode(blob string, fallback Fallback) (Metadata, string) {
	meta, body, ok := split(blob)
	if !ok {
		meta = Metadata{}
		body = blob
	}

	if meta.Tags == nil {
		meta.Tags = []string{}
	}
	if meta.Date == "" {
		meta.Date = fallback.Date
	}
	if meta.Title == "" {
		meta.Title = fallback.Name
	}
	if meta.Summary == "" {
		meta.Summary = "N/A"
	}
	return meta, strings.TrimSpace(body)
}

func split(blob string) (Metadata, string, bool) {
	if !strings.HasPrefix(blob, delimiter+"\n") && !strings.HasPrefix(blob, delimiter+"\r\n") {
		return Metadata{}, "", false
	}

	rest := blob[len(delimiter):]
	idx := strings.Index(rest, "\n"+delimiter)
	if idx < 0 {
		// Opened but never closed; keep the whole blob as body.
		return Metadata{}, "", false
	}

	block := rest[:idx]
	body := rest[idx+1+len(delimiter):]

	var meta Metadata
	if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
		return Metadata{}, "", false
	}

	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimPrefix(body, "\r\n")
	return meta, body, true
}
