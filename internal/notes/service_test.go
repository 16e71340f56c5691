package notes

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stuffmd/backend/internal/adapter"
	"github.com/stuffmd/backend/internal/adapter/memory"
	"github.com/stuffmd/backend/internal/classifier"
)

type stubClassifier struct {
	fn func(ctx context.Context, content string) (*classifier.Suggestion, error)
}

func (s stubClassifier) Classify(ctx context.Context, content string) (*classifier.Suggestion, error) {
	return s.fn(ctx, content)
}

func fixedSuggestion(sug *classifier.Suggestion) classifier.Classifier {
	return stubClassifier{fn: func(context.Context, string) (*classifier.Suggestion, error) {
		return sug, nil
	}}
}

func failingClassifier() classifier.Classifier {
	return stubClassifier{fn: func(context.Context, string) (*classifier.Suggestion, error) {
		return nil, errors.New("model unavailable")
	}}
}

func newTestService(cls classifier.Classifier) (*Service, *memory.MemoryAdapter) {
	storage := memory.NewMemoryAdapter(nil, "test-user")
	return NewService(storage, cls, ""), storage
}

func TestCreateWithClassification(t *testing.T) {
	ctx := context.Background()
	svc, storage := newTestService(fixedSuggestion(&classifier.Suggestion{
		Categories: []string{"Work", "Meetings"},
		Title:      "Team Sync",
		Summary:    "Weekly sync notes.",
		Tags:       []string{"work", "sync"},
	}))

	note, feedback, err := svc.Create(ctx, "  Discussed roadmap with the team.  ")
	require.NoError(t, err)
	assert.Equal(t, "Saved to Work/Meetings", feedback)
	assert.Equal(t, []string{"Work", "Meetings"}, note.Path)
	assert.Equal(t, "Discussed roadmap with the team.", note.Content)
	assert.Equal(t, "Team Sync", note.Title)
	assert.Equal(t, []string{"work", "sync"}, note.Tags)

	// Root, Work and Meetings folders materialized.
	folders, err := storage.ListAllFolders(ctx)
	require.NoError(t, err)
	assert.Len(t, folders, 3)

	// Stored blob carries front matter plus the trimmed content.
	f, err := storage.GetFile(ctx, note.ID)
	require.NoError(t, err)
	blob := string(f.Content)
	assert.True(t, strings.HasPrefix(blob, "---\n"))
	assert.Contains(t, blob, "title: Team Sync")
	assert.True(t, strings.HasSuffix(blob, "Discussed roadmap with the team."))

	// A second note in the same categories reuses the folders.
	_, _, err = svc.Create(ctx, "Another meeting note.")
	require.NoError(t, err)
	folders, err = storage.ListAllFolders(ctx)
	require.NoError(t, err)
	assert.Len(t, folders, 3)
}

func TestCreateDegradesOnClassifierFailure(t *testing.T) {
	ctx := context.Background()
	svc, storage := newTestService(failingClassifier())

	note, feedback, err := svc.Create(ctx, "Something worth keeping.")
	require.NoError(t, err)
	assert.Equal(t, "AI failed. Saved to Uncategorized.", feedback)
	assert.Equal(t, UncategorizedPath, note.Path)
	assert.Equal(t, []string{}, note.Tags)
	assert.Equal(t, "Untitled Note", note.Title)
	assert.Equal(t, "N/A", note.Summary)

	files, err := storage.ListAllFiles(ctx)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestCreateRejectsEmptyContent(t *testing.T) {
	svc, _ := newTestService(failingClassifier())
	_, _, err := svc.Create(context.Background(), "   \n  ")
	assert.Error(t, err)
}

func TestCreateBareURL(t *testing.T) {
	svc, _ := newTestService(failingClassifier())

	note, _, err := svc.Create(context.Background(), "https://example.com/read-later")
	require.NoError(t, err)
	require.NotNil(t, note.Link)
	assert.Equal(t, "https://example.com/read-later", note.Link.URL)
	assert.Equal(t, "https://example.com/read-later", note.Link.Title)
}

func TestListRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(fixedSuggestion(&classifier.Suggestion{
		Categories: []string{"Reading"},
		Title:      "A Title",
		Summary:    "A summary.",
		Tags:       []string{"books"},
	}))

	base := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	clock := base
	svc.now = func() time.Time { return clock }

	first, _, err := svc.Create(ctx, "First note body.")
	require.NoError(t, err)
	clock = base.Add(time.Hour)
	second, _, err := svc.Create(ctx, "Second note body.")
	require.NoError(t, err)

	got, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Newest first.
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)

	// Everything written at create time survives the round trip.
	assert.Equal(t, []string{"Reading"}, got[0].Path)
	assert.Equal(t, "Second note body.", got[0].Content)
	assert.Equal(t, "A Title", got[0].Title)
	assert.Equal(t, "A summary.", got[0].Summary)
	assert.Equal(t, []string{"books"}, got[0].Tags)
	assert.Equal(t, base.Add(time.Hour).Format(time.RFC3339), got[0].Date)
}

func TestListOrphanedFileFallsBackToUncategorized(t *testing.T) {
	ctx := context.Background()
	svc, storage := newTestService(failingClassifier())

	// A note whose parent folder chain never reaches the app root.
	orphanFolder, err := storage.CreateFolder(ctx, "Stray", "gone-folder-id")
	require.NoError(t, err)
	_, err = storage.CreateFile(ctx, "stray_note.txt", []byte("orphan body"), orphanFolder.ID)
	require.NoError(t, err)

	got, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, UncategorizedPath, got[0].Path)
	assert.Equal(t, "orphan body", got[0].Content)
}

func TestListDecodesRawFiles(t *testing.T) {
	ctx := context.Background()
	svc, storage := newTestService(failingClassifier())

	rootID, err := storage.EnsureRootFolder(ctx, DefaultRootFolderName)
	require.NoError(t, err)
	folder, err := storage.CreateFolder(ctx, "Imported", rootID)
	require.NoError(t, err)
	created, err := storage.CreateFile(ctx, "plain_note.txt", []byte("no front matter here"), folder.ID)
	require.NoError(t, err)

	got, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)

	// Missing metadata falls back to file facts.
	assert.Equal(t, "no front matter here", got[0].Content)
	assert.Equal(t, "plain_note.txt", got[0].Title)
	assert.Equal(t, []string{}, got[0].Tags)
	assert.Equal(t, created.CreatedTime.UTC().Format(time.RFC3339), got[0].Date)
	assert.Equal(t, []string{"Imported"}, got[0].Path)
}

func TestEditUpdatesStoreAndCollection(t *testing.T) {
	ctx := context.Background()
	svc, storage := newTestService(fixedSuggestion(&classifier.Suggestion{
		Categories: []string{"Work"},
		Title:      "Original",
		Summary:    "Original summary.",
		Tags:       []string{"one"},
	}))

	note, _, err := svc.Create(ctx, "original body")
	require.NoError(t, err)

	col := NewCollection()
	col.Insert(*note)

	svc.classifier = fixedSuggestion(&classifier.Suggestion{
		Categories: []string{"Personal"},
		Title:      "Rewritten",
		Summary:    "New summary.",
		Tags:       []string{"two"},
	})

	updated, err := svc.Edit(ctx, col, note.ID, "rewritten body")
	require.NoError(t, err)
	assert.Equal(t, "rewritten body", updated.Content)
	assert.Equal(t, "Rewritten", updated.Title)
	assert.Equal(t, []string{"two"}, updated.Tags)
	// The note stays filed where it was.
	assert.Equal(t, []string{"Work"}, updated.Path)
	// Creation date is preserved across edits.
	assert.Equal(t, note.Date, updated.Date)

	got, ok := col.Get(note.ID)
	require.True(t, ok)
	assert.Equal(t, "rewritten body", got.Content)

	f, err := storage.GetFile(ctx, note.ID)
	require.NoError(t, err)
	assert.Contains(t, string(f.Content), "title: Rewritten")
	assert.True(t, strings.HasSuffix(string(f.Content), "rewritten body"))
}

func TestEditRevertsOnClassifierFailure(t *testing.T) {
	ctx := context.Background()
	svc, storage := newTestService(fixedSuggestion(&classifier.Suggestion{
		Categories: []string{"Work"},
		Title:      "Original",
	}))

	note, _, err := svc.Create(ctx, "original body")
	require.NoError(t, err)
	col := NewCollection()
	col.Insert(*note)

	svc.classifier = failingClassifier()

	_, err = svc.Edit(ctx, col, note.ID, "rewritten body")
	require.ErrorIs(t, err, ErrClassification)

	// Collection restored to the pre-edit snapshot.
	got, ok := col.Get(note.ID)
	require.True(t, ok)
	assert.Equal(t, "original body", got.Content)

	// Stored blob untouched.
	f, err := storage.GetFile(ctx, note.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(f.Content), "original body"))
}

type saveFailingStorage struct {
	adapter.StorageAdapter
}

func (s saveFailingStorage) SaveFile(ctx context.Context, fileID string, content []byte) (*adapter.FileMetadata, error) {
	return nil, errors.New("write quota exceeded")
}

func TestEditRevertsOnStorageFailure(t *testing.T) {
	ctx := context.Background()
	svc, storage := newTestService(fixedSuggestion(&classifier.Suggestion{
		Categories: []string{"Work"},
		Title:      "Original",
	}))

	note, _, err := svc.Create(ctx, "original body")
	require.NoError(t, err)
	col := NewCollection()
	col.Insert(*note)

	svc.storage = saveFailingStorage{StorageAdapter: storage}

	_, err = svc.Edit(ctx, col, note.ID, "rewritten body")
	require.Error(t, err)

	got, ok := col.Get(note.ID)
	require.True(t, ok)
	assert.Equal(t, "original body", got.Content)
}

func TestEditUnknownNote(t *testing.T) {
	svc, _ := newTestService(failingClassifier())
	_, err := svc.Edit(context.Background(), NewCollection(), "nope", "body")
	assert.ErrorIs(t, err, ErrNoteNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc, storage := newTestService(failingClassifier())

	note, _, err := svc.Create(ctx, "short lived")
	require.NoError(t, err)
	col := NewCollection()
	col.Insert(*note)

	require.NoError(t, svc.Delete(ctx, col, note.ID))
	assert.Equal(t, 0, col.Len())

	_, err = storage.GetFile(ctx, note.ID)
	assert.ErrorIs(t, err, adapter.ErrNotFound)
}
