package notes

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stuffmd/backend/internal/adapter"
	"github.com/stuffmd/backend/internal/classifier"
	"github.com/stuffmd/backend/internal/frontmatter"
)

// DefaultRootFolderName is the reserved top-level folder scoping all app
// data inside the user's storage account.
const DefaultRootFolderName = "STUFF.md_DATA"

// ErrNoteNotFound is returned when an operation targets a note identity the
// collection does not hold.
var ErrNoteNotFound = errors.New("note not found")

// ErrClassification wraps classifier failures on the edit path, where they
// abort the operation instead of degrading it.
var ErrClassification = errors.New("classification failed")

// Service orchestrates the note lifecycle against one user's storage:
// classify, encode, store on the way in; list, resolve, decode on the way
// out. One Service per authenticated request.
type Service struct {
	storage    adapter.StorageAdapter
	classifier classifier.Classifier
	rootName   string
	memo       *adapter.PathMemo

	now func() time.Time
}

// NewService creates a Service. rootName may be empty to use the default
// app folder name.
func NewService(storage adapter.StorageAdapter, cls classifier.Classifier, rootName string) *Service {
	if rootName == "" {
		rootName = DefaultRootFolderName
	}
	return &Service{
		storage:    storage,
		classifier: cls,
		rootName:   rootName,
		memo:       adapter.NewPathMemo(),
		now:        time.Now,
	}
}

// Create classifies content, encodes it and stores it under its category
// folders. Classifier failure degrades to the Uncategorized fallback; only
// a storage failure fails the operation. The returned feedback string is
// the user-facing placement message.
func (s *Service) Create(ctx context.Context, content string) (*Note, string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, "", fmt.Errorf("note content is empty")
	}

	sug, err := s.classifier.Classify(ctx, trimmed)
	if err != nil {
		log.Printf("classification failed, saving uncategorized: %v", err)
		sug = nil
	}

	d := applySuggestion(trimmed, sug, nil)
	date := s.now().UTC().Format(time.RFC3339)
	blob := frontmatter.Encode(frontmatter.Metadata{
		Tags:    d.Tags,
		Date:    date,
		Summary: d.Summary,
		Title:   d.Title,
	}, trimmed)
	name := Filename(trimmed, s.now())

	rootID, err := s.storage.EnsureRootFolder(ctx, s.rootName)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve app folder: %w", err)
	}
	folderID, err := adapter.EnsureFolderPath(ctx, s.storage, rootID, d.Path, s.memo)
	if err != nil {
		return nil, "", err
	}
	created, err := s.storage.CreateFile(ctx, name, []byte(blob), folderID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to save note: %w", err)
	}

	note := &Note{
		ID:      created.ID,
		Name:    name,
		Path:    d.Path,
		Content: trimmed,
		Tags:    d.Tags,
		Date:    date,
		Title:   d.Title,
		Summary: d.Summary,
		Link:    d.Link,
	}

	feedback := "Saved to " + note.PathKey()
	if sug == nil {
		feedback = "AI failed. Saved to Uncategorized."
	}
	return note, feedback, nil
}

// List rebuilds the full note collection from the remote store. Files are
// processed concurrently; a single note's fetch or decode failure drops
// that note from the result, it never fails the listing. Results are
// ordered by date descending.
func (s *Service) List(ctx context.Context) ([]Note, error) {
	files, err := s.storage.ListAllFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	folders, err := s.storage.ListAllFolders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	rootID, err := s.storage.EnsureRootFolder(ctx, s.rootName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve app folder: %w", err)
	}

	idx := adapter.BuildFolderIndex(folders)

	results := make([]*Note, len(files))
	var wg sync.WaitGroup
	for i, f := range files {
		if !strings.HasSuffix(f.Name, adapter.NoteExt) {
			continue
		}
		wg.Add(1)
		go func(i int, f adapter.FileMetadata) {
			defer wg.Done()
			note, err := s.loadNote(ctx, f, idx, rootID)
			if err != nil {
				log.Printf("skipping note %s: %v", f.Name, err)
				return
			}
			results[i] = note
		}(i, f)
	}
	wg.Wait()

	notes := make([]Note, 0, len(results))
	for _, n := range results {
		if n != nil {
			notes = append(notes, *n)
		}
	}

	sort.SliceStable(notes, func(a, b int) bool {
		return noteTime(notes[a]).After(noteTime(notes[b]))
	})
	return notes, nil
}

// loadNote fetches and decodes one stored blob, reconstructing its category
// path from the folder index.
func (s *Service) loadNote(ctx context.Context, f adapter.FileMetadata, idx adapter.FolderIndex, rootID string) (*Note, error) {
	file, err := s.storage.GetFile(ctx, f.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}

	path, ok := idx.FolderPath(f, rootID)
	if !ok || len(path) == 0 {
		// Broken parent chain, or a file sitting directly in the app
		// root; either way the note survives as uncategorized.
		path = UncategorizedPath
	}

	meta, body := frontmatter.Decode(string(file.Content), frontmatter.Fallback{
		Name: f.Name,
		Date: f.CreatedTime.UTC().Format(time.RFC3339),
	})

	note := &Note{
		ID:      f.ID,
		Name:    f.Name,
		Path:    path,
		Content: body,
		Tags:    meta.Tags,
		Date:    meta.Date,
		Title:   meta.Title,
		Summary: meta.Summary,
	}
	if IsBareURL(body) {
		note.Link = &Link{URL: body, Title: note.Title}
	}
	return note, nil
}

func noteTime(n Note) time.Time {
	t, err := time.Parse(time.RFC3339, n.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Edit re-classifies a note's new content and overwrites the stored blob.
// Unlike Create, any failure restores the collection to the pre-edit
// snapshot and surfaces an error: edits are all-or-nothing.
func (s *Service) Edit(ctx context.Context, col *Collection, id, newContent string) (*Note, error) {
	trimmed := strings.TrimSpace(newContent)
	snapshot, ok := col.Get(id)
	if !ok {
		return nil, ErrNoteNotFound
	}

	// Optimistic local update while classification runs.
	pending := snapshot
	pending.Content = trimmed
	col.Replace(pending)

	sug, err := s.classifier.Classify(ctx, trimmed)
	if err != nil {
		col.Replace(snapshot)
		return nil, fmt.Errorf("%w: %v", ErrClassification, err)
	}

	d := applySuggestion(trimmed, sug, &snapshot)
	updated := snapshot
	updated.Content = trimmed
	updated.Tags = d.Tags
	updated.Title = d.Title
	updated.Summary = d.Summary
	updated.Link = d.Link

	blob := frontmatter.Encode(frontmatter.Metadata{
		Tags:    updated.Tags,
		Date:    updated.Date,
		Summary: updated.Summary,
		Title:   updated.Title,
	}, trimmed)

	if _, err := s.storage.SaveFile(ctx, id, []byte(blob)); err != nil {
		col.Replace(snapshot)
		return nil, fmt.Errorf("failed to update stored note: %w", err)
	}

	col.Replace(updated)
	return &updated, nil
}

// Delete removes the stored blob and drops the note from the collection.
func (s *Service) Delete(ctx context.Context, col *Collection, id string) error {
	if err := s.storage.DeleteFile(ctx, id); err != nil {
		return fmt.Errorf("failed to delete stored note: %w", err)
	}
	col.Remove(id)
	return nil
}
