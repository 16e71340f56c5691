package adapter

import (
	"context"
	"fmt"
	"sync"
)

// PathMemo caches already-resolved folder-path → ID mappings for one session.
// The remote store offers no transactional lookup-then-create, so two callers
// resolving the same brand-new path concurrently can still each create a
// folder; the memo narrows that window, it does not close it.
type PathMemo struct {
	mu  sync.Mutex
	ids map[string]string
}

// NewPathMemo returns an empty memo.
func NewPathMemo() *PathMemo {
	return &PathMemo{ids: make(map[string]string)}
}

func (m *PathMemo) get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.ids[key]
	return id, ok
}

func (m *PathMemo) put(key, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids[key] = id
}

// EnsureFolderPath resolves the folder for a category path under rootID,
// creating each missing segment in order. Each segment is a find-then-create
// step, so repeated saves into the same category reuse the existing folders.
// memo may be nil.
func EnsureFolderPath(ctx context.Context, s StorageAdapter, rootID string, path []string, memo *PathMemo) (string, error) {
	parentID := rootID
	key := ""
	for _, name := range path {
		key += "/" + name
		if memo != nil {
			if id, ok := memo.get(key); ok {
				parentID = id
				continue
			}
		}

		folder, err := s.FindFolder(ctx, name, parentID)
		if err != nil {
			return "", fmt.Errorf("failed to search for folder %q: %w", name, err)
		}
		if folder == nil {
			folder, err = s.CreateFolder(ctx, name, parentID)
			if err != nil {
				return "", fmt.Errorf("failed to create folder %q: %w", name, err)
			}
		}

		parentID = folder.ID
		if memo != nil {
			memo.put(key, parentID)
		}
	}
	return parentID, nil
}

// FolderIndex maps folder IDs to their name and first parent, for
// reconstructing a file's category path from a flat folder listing.
type FolderIndex map[string]FolderNode

// FolderNode is one entry of a FolderIndex.
type FolderNode struct {
	Name   string
	Parent string
}

// BuildFolderIndex builds a parent-pointer index from a folder listing.
func BuildFolderIndex(folders []FileMetadata) FolderIndex {
	idx := make(FolderIndex, len(folders))
	for _, f := range folders {
		var parent string
		if len(f.Parents) > 0 {
			parent = f.Parents[0]
		}
		idx[f.ID] = FolderNode{Name: f.Name, Parent: parent}
	}
	return idx
}

// FolderPath walks parent pointers upward from a file's parent folder and
// returns the category path root-to-leaf, stopping at (and excluding) the
// folder identified by rootID. Returns ok=false when the chain cannot be
// fully resolved, e.g. the file lives outside the app root or a parent link
// is broken.
func (idx FolderIndex) FolderPath(file FileMetadata, rootID string) ([]string, bool) {
	var path []string
	var cur string
	if len(file.Parents) > 0 {
		cur = file.Parents[0]
	}
	for cur != "" {
		if cur == rootID {
			return path, true
		}
		node, ok := idx[cur]
		if !ok {
			return nil, false
		}
		path = append([]string{node.Name}, path...)
		cur = node.Parent
	}
	return nil, false
}
