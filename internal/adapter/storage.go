package adapter

import (
	"context"
	"time"
)

// NoteExt is the extension carried by every stored note file.
const NoteExt = ".txt"

// FolderMIMEType marks folder objects in the remote store.
const FolderMIMEType = "application/vnd.google-apps.folder"

// NoteMIMEType is the content type used for note files.
const NoteMIMEType = "text/plain"

// FileMetadata describes a file or folder stored in the cloud storage.
type FileMetadata struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MIMEType     string    `json:"mimeType"`
	CreatedTime  time.Time `json:"createdTime"`
	ModifiedTime time.Time `json:"modifiedTime"`
	Parents      []string  `json:"parents,omitempty"`
}

// IsFolder reports whether the entry is a folder.
func (m FileMetadata) IsFolder() bool {
	return m.MIMEType == FolderMIMEType
}

// File represents a file with its content.
type File struct {
	FileMetadata
	Content []byte `json:"content"`
}

// StorageAdapter defines the interface for interacting with cloud storage
// services. This abstraction allows switching between different providers
// (e.g., Google Drive, in-memory dev store) without changing the sync engine.
type StorageAdapter interface {
	// EnsureRootFolder ensures the app's top-level folder exists and
	// returns its ID. Repeated calls must return the same folder.
	EnsureRootFolder(ctx context.Context, name string) (string, error)

	// FindFolder looks up a child folder by name under the given parent.
	// Returns (nil, nil) when no such folder exists.
	FindFolder(ctx context.Context, name, parentID string) (*FileMetadata, error)

	// CreateFolder creates a new folder under the given parent.
	CreateFolder(ctx context.Context, name, parentID string) (*FileMetadata, error)

	// CreateFile creates a new note file in the specified folder.
	CreateFile(ctx context.Context, name string, content []byte, folderID string) (*FileMetadata, error)

	// SaveFile overwrites an existing file's content (last writer wins).
	SaveFile(ctx context.Context, fileID string, content []byte) (*FileMetadata, error)

	// GetFile retrieves a file's content and metadata by its ID.
	GetFile(ctx context.Context, fileID string) (*File, error)

	// ListAllFiles lists every note file in the account, following
	// pagination until exhausted. A page failure fails the whole listing.
	ListAllFiles(ctx context.Context) ([]FileMetadata, error)

	// ListAllFolders lists every folder, following pagination until
	// exhausted. Used to reconstruct folder paths client-side.
	ListAllFolders(ctx context.Context) ([]FileMetadata, error)

	// DeleteFile deletes a file by its ID.
	DeleteFile(ctx context.Context, fileID string) error
}
