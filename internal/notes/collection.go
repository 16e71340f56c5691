package notes

import (
	"sync"
)

// Collection is the in-memory cache of one user's notes, rebuilt from the
// remote store on listing and mutated locally by user actions. All methods
// are safe for concurrent use; no remote calls originate here.
type Collection struct {
	mu    sync.RWMutex
	notes []Note
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{}
}

// Hydrate replaces the collection's contents with a freshly reconstructed
// note list.
func (c *Collection) Hydrate(notes []Note) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notes = append([]Note(nil), notes...)
}

// All returns a copy of the notes in display order.
func (c *Collection) All() []Note {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Note(nil), c.notes...)
}

// Len reports the number of cached notes.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.notes)
}

// Insert places a newly created note at the front of the collection.
func (c *Collection) Insert(n Note) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notes = append([]Note{n}, c.notes...)
}

// Get looks up a note by ID.
func (c *Collection) Get(id string) (Note, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, n := range c.notes {
		if n.ID == id {
			return n, true
		}
	}
	return Note{}, false
}

// Replace swaps in a new version of a note, matched by ID. Overlapping
// edits resolve last-write-wins.
func (c *Collection) Replace(n Note) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.notes {
		if c.notes[i].ID == n.ID {
			c.notes[i] = n
			return true
		}
	}
	return false
}

// Remove drops a note by ID.
func (c *Collection) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.notes {
		if c.notes[i].ID == id {
			c.notes = append(c.notes[:i], c.notes[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveTag deletes an exact tag from a note's tag list and returns the
// updated note.
func (c *Collection) RemoveTag(id, tag string) (Note, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.notes {
		if c.notes[i].ID != id {
			continue
		}
		tags := make([]string, 0, len(c.notes[i].Tags))
		for _, t := range c.notes[i].Tags {
			if t != tag {
				tags = append(tags, t)
			}
		}
		c.notes[i].Tags = tags
		return c.notes[i], true
	}
	return Note{}, false
}

// DeleteCategory removes every note whose slash-joined path matches exactly,
// returning how many were removed.
func (c *Collection) DeleteCategory(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.notes[:0]
	deleted := 0
	for _, n := range c.notes {
		if n.PathKey() == path {
			deleted++
			continue
		}
		kept = append(kept, n)
	}
	c.notes = kept
	return deleted
}

// FilterByTag returns the notes carrying an exact tag, in display order.
func (c *Collection) FilterByTag(tag string) []Note {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Note
	for _, n := range c.notes {
		for _, t := range n.Tags {
			if t == tag {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

// CollectionStore hands out one Collection per user, creating it on first
// use. It is the only holder of client-visible note state.
type CollectionStore struct {
	mu          sync.Mutex
	collections map[string]*Collection
}

// NewCollectionStore returns an empty store.
func NewCollectionStore() *CollectionStore {
	return &CollectionStore{collections: make(map[string]*Collection)}
}

// Get returns the user's collection, creating an empty one if needed.
func (s *CollectionStore) Get(userID string) *Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[userID]
	if !ok {
		col = NewCollection()
		s.collections[userID] = col
	}
	return col
}
