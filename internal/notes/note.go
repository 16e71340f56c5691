// Package notes implements the note synchronization pipeline: classifying
// raw input, encoding it as front-matter text files in the remote store, and
// rebuilding the note collection from a flat file/folder listing.
package notes

import (
	"regexp"
	"strings"
	"time"

	"github.com/stuffmd/backend/internal/adapter"
	"github.com/stuffmd/backend/internal/classifier"
)

// UncategorizedPath is the sentinel category path applied when
// classification yields nothing. A note's path is never empty.
var UncategorizedPath = []string{"Uncategorized"}

// Link points at the URL a note consists of, present only for bare-URL
// content.
type Link struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Note is a single user-authored entry with its derived classification
// metadata.
type Note struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Path    []string `json:"path"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	Date    string   `json:"date"`
	Title   string   `json:"title"`
	Summary string   `json:"summary,omitempty"`
	Link    *Link    `json:"link,omitempty"`
}

// PathKey returns the note's category path as a single slash-joined string.
func (n Note) PathKey() string {
	return strings.Join(n.Path, "/")
}

var urlPattern = regexp.MustCompile(`^https?://\S+$`)

// IsBareURL reports whether content is a single URL and nothing else.
func IsBareURL(content string) bool {
	return urlPattern.MatchString(content)
}

var nonWordPattern = regexp.MustCompile(`\W`)

// Filename derives a deterministic, unique storage name from the first few
// words of the content plus a compact timestamp.
func Filename(content string, now time.Time) string {
	words := strings.Fields(content)
	if len(words) > 5 {
		words = words[:5]
	}
	slug := nonWordPattern.ReplaceAllString(strings.Join(words, "_"), "")
	if slug == "" {
		slug = "note"
	}
	ts := strings.NewReplacer("-", "", ":", "", ".", "").Replace(now.UTC().Format("2006-01-02T15:04:05.000Z"))
	return slug + "_" + ts + adapter.NoteExt
}

// derived is the outcome of applying a classification suggestion (or its
// absence) to note content.
type derived struct {
	Path    []string
	Tags    []string
	Title   string
	Summary string
	Link    *Link
}

// applySuggestion is the single place fallback policy lives: create passes a
// nil prior and gets the degraded defaults, edit passes the pre-edit note
// and falls back to its values field by field. The link is recomputed from
// the content on every call.
func applySuggestion(content string, sug *classifier.Suggestion, prior *Note) derived {
	d := derived{}

	switch {
	case prior != nil:
		// Edits keep the note where it was filed.
		d.Path = prior.Path
	case sug != nil && len(sug.Categories) > 0:
		d.Path = sug.Categories
	default:
		d.Path = UncategorizedPath
	}

	switch {
	case sug != nil && len(sug.Tags) > 0:
		d.Tags = dedupeTags(sug.Tags)
	case prior != nil:
		d.Tags = prior.Tags
	default:
		d.Tags = []string{}
	}

	isLink := IsBareURL(content)

	switch {
	case sug != nil && sug.Title != "":
		d.Title = sug.Title
	case prior != nil:
		d.Title = prior.Title
	case isLink:
		d.Title = content
	default:
		d.Title = "Untitled Note"
	}

	switch {
	case sug != nil && sug.Summary != "":
		d.Summary = sug.Summary
	case prior != nil:
		d.Summary = prior.Summary
	default:
		d.Summary = "N/A"
	}

	if isLink {
		d.Link = &Link{URL: content, Title: d.Title}
	}
	return d
}

// dedupeTags keeps first occurrences, preserving order, clamped to the
// classifier contract.
func dedupeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
		if len(out) == classifier.MaxTags {
			break
		}
	}
	return out
}
