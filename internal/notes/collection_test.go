package notes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func seedCollection() *Collection {
	c := NewCollection()
	c.Hydrate([]Note{
		{ID: "1", Path: []string{"Work"}, Tags: []string{"go", "infra"}},
		{ID: "2", Path: []string{"Work", "Meetings"}, Tags: []string{"go"}},
		{ID: "3", Path: []string{"Personal"}, Tags: []string{}},
	})
	return c
}

func TestCollectionInsertFront(t *testing.T) {
	c := seedCollection()
	c.Insert(Note{ID: "4"})

	all := c.All()
	assert.Len(t, all, 4)
	assert.Equal(t, "4", all[0].ID)
}

func TestCollectionReplace(t *testing.T) {
	c := seedCollection()

	assert.True(t, c.Replace(Note{ID: "2", Title: "updated"}))
	got, ok := c.Get("2")
	assert.True(t, ok)
	assert.Equal(t, "updated", got.Title)

	assert.False(t, c.Replace(Note{ID: "missing"}))
}

func TestCollectionRemoveTag(t *testing.T) {
	c := seedCollection()

	got, ok := c.RemoveTag("1", "go")
	assert.True(t, ok)
	assert.Equal(t, []string{"infra"}, got.Tags)

	// Other notes keep their tags.
	other, _ := c.Get("2")
	assert.Equal(t, []string{"go"}, other.Tags)

	_, ok = c.RemoveTag("missing", "go")
	assert.False(t, ok)
}

func TestCollectionDeleteCategory(t *testing.T) {
	c := seedCollection()

	// Exact match only: "Work" must not remove "Work/Meetings".
	assert.Equal(t, 1, c.DeleteCategory("Work"))
	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("2")
	assert.True(t, ok)

	assert.Equal(t, 0, c.DeleteCategory("Nope"))
}

func TestCollectionFilterByTag(t *testing.T) {
	c := seedCollection()

	got := c.FilterByTag("go")
	if assert.Len(t, got, 2) {
		assert.Equal(t, "1", got[0].ID)
		assert.Equal(t, "2", got[1].ID)
	}
	assert.Empty(t, c.FilterByTag("nothing"))
}

func TestCollectionStorePerUser(t *testing.T) {
	s := NewCollectionStore()
	a := s.Get("alice")
	b := s.Get("bob")

	a.Insert(Note{ID: "1"})
	assert.Equal(t, 1, a.Len())
	assert.Equal(t, 0, b.Len())
	assert.Same(t, a, s.Get("alice"))
}
