// Package googledrive implements adapter.StorageAdapter on top of the
// Google Drive v3 API.
package googledrive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stuffmd/backend/internal/adapter"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const metadataFields = "id, name, mimeType, createdTime, modifiedTime, parents"
const listFields = "nextPageToken, files(id, name, mimeType, createdTime, modifiedTime, parents)"

// DriveAdapter implements adapter.StorageAdapter for Google Drive.
type DriveAdapter struct {
	service *drive.Service
}

// NewDriveAdapter creates a new DriveAdapter. client must be an
// authenticated http.Client carrying the user's credentials.
func NewDriveAdapter(ctx context.Context, client *http.Client) (*DriveAdapter, error) {
	srv, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Drive client: %v", err)
	}
	return &DriveAdapter{service: srv}, nil
}

// escapeQuery escapes single quotes for embedding names in Drive queries.
func escapeQuery(s string) string {
	return strings.ReplaceAll(s, `'`, `\'`)
}

func toMetadata(f *drive.File) adapter.FileMetadata {
	created, _ := time.Parse(time.RFC3339, f.CreatedTime)
	modified, _ := time.Parse(time.RFC3339, f.ModifiedTime)
	return adapter.FileMetadata{
		ID:           f.Id,
		Name:         f.Name,
		MIMEType:     f.MimeType,
		CreatedTime:  created,
		ModifiedTime: modified,
		Parents:      f.Parents,
	}
}

// EnsureRootFolder ensures the app folder exists directly under the Drive
// root and returns its ID.
func (d *DriveAdapter) EnsureRootFolder(ctx context.Context, name string) (string, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and 'root' in parents and trashed = false",
		escapeQuery(name), adapter.FolderMIMEType)
	r, err := d.service.Files.List().Q(q).Fields("files(id)").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to search for app folder: %v", err)
	}
	if len(r.Files) > 0 {
		return r.Files[0].Id, nil
	}

	folder, err := d.CreateFolder(ctx, name, "root")
	if err != nil {
		return "", fmt.Errorf("unable to create app folder: %v", err)
	}
	return folder.ID, nil
}

// FindFolder looks up a child folder by name under the given parent.
func (d *DriveAdapter) FindFolder(ctx context.Context, name, parentID string) (*adapter.FileMetadata, error) {
	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and '%s' in parents and trashed = false",
		escapeQuery(name), adapter.FolderMIMEType, parentID)
	r, err := d.service.Files.List().Q(q).Fields(googleapi.Field(listFields)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to search for folder %q: %v", name, err)
	}
	if len(r.Files) == 0 {
		return nil, nil
	}
	meta := toMetadata(r.Files[0])
	return &meta, nil
}

// CreateFolder creates a new folder under the given parent.
func (d *DriveAdapter) CreateFolder(ctx context.Context, name, parentID string) (*adapter.FileMetadata, error) {
	if parentID == "" {
		parentID = "root"
	}
	f := &drive.File{
		Name:     name,
		MimeType: adapter.FolderMIMEType,
		Parents:  []string{parentID},
	}
	res, err := d.service.Files.Create(f).Fields(metadataFields).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to create folder %q: %v", name, err)
	}
	meta := toMetadata(res)
	return &meta, nil
}

// CreateFile uploads a new note file into the given folder. The client
// library sends the metadata and plain-text content as a multipart upload.
func (d *DriveAdapter) CreateFile(ctx context.Context, name string, content []byte, folderID string) (*adapter.FileMetadata, error) {
	f := &drive.File{
		Name:     name,
		MimeType: adapter.NoteMIMEType,
		Parents:  []string{folderID},
	}
	res, err := d.service.Files.Create(f).
		Media(bytes.NewReader(content), googleapi.ContentType(adapter.NoteMIMEType)).
		Fields(metadataFields).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("unable to create file %q: %v", name, err)
	}
	meta := toMetadata(res)
	return &meta, nil
}

// SaveFile overwrites an existing file's content.
func (d *DriveAdapter) SaveFile(ctx context.Context, fileID string, content []byte) (*adapter.FileMetadata, error) {
	res, err := d.service.Files.Update(fileID, &drive.File{}).
		Media(bytes.NewReader(content), googleapi.ContentType(adapter.NoteMIMEType)).
		Fields(metadataFields).
		Context(ctx).
		Do()
	if err != nil {
		if isNotFound(err) {
			return nil, adapter.ErrNotFound
		}
		return nil, fmt.Errorf("unable to update file: %v", err)
	}
	meta := toMetadata(res)
	return &meta, nil
}

// GetFile retrieves a file's metadata and downloads its content.
func (d *DriveAdapter) GetFile(ctx context.Context, fileID string) (*adapter.File, error) {
	f, err := d.service.Files.Get(fileID).Fields(metadataFields).Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return nil, adapter.ErrNotFound
		}
		return nil, fmt.Errorf("unable to get file metadata: %v", err)
	}

	var content []byte
	if f.MimeType != adapter.FolderMIMEType {
		resp, err := d.service.Files.Get(fileID).Context(ctx).Download()
		if err != nil {
			return nil, fmt.Errorf("unable to download file: %v", err)
		}
		defer resp.Body.Close()

		content, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("unable to read file content: %v", err)
		}
	}

	return &adapter.File{FileMetadata: toMetadata(f), Content: content}, nil
}

// ListAllFiles lists every note file in the account, following pagination
// until exhausted. A failed page fails the whole listing; a truncated
// result is never returned silently.
func (d *DriveAdapter) ListAllFiles(ctx context.Context) ([]adapter.FileMetadata, error) {
	q := fmt.Sprintf("mimeType = '%s' and trashed = false", adapter.NoteMIMEType)
	files, err := d.listAll(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("unable to list files: %v", err)
	}

	notes := files[:0]
	for _, f := range files {
		if strings.HasSuffix(f.Name, adapter.NoteExt) {
			notes = append(notes, f)
		}
	}
	return notes, nil
}

// ListAllFolders lists every folder, following pagination until exhausted.
func (d *DriveAdapter) ListAllFolders(ctx context.Context) ([]adapter.FileMetadata, error) {
	q := fmt.Sprintf("mimeType = '%s' and trashed = false", adapter.FolderMIMEType)
	folders, err := d.listAll(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("unable to list folders: %v", err)
	}
	return folders, nil
}

func (d *DriveAdapter) listAll(ctx context.Context, query string) ([]adapter.FileMetadata, error) {
	var out []adapter.FileMetadata
	pageToken := ""
	for {
		call := d.service.Files.List().
			Q(query).
			Spaces("drive").
			Fields(googleapi.Field(listFields)).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		r, err := call.Do()
		if err != nil {
			return nil, err
		}
		for _, f := range r.Files {
			out = append(out, toMetadata(f))
		}
		if r.NextPageToken == "" {
			return out, nil
		}
		pageToken = r.NextPageToken
	}
}

// DeleteFile deletes a file by its ID.
func (d *DriveAdapter) DeleteFile(ctx context.Context, fileID string) error {
	if err := d.service.Files.Delete(fileID).Context(ctx).Do(); err != nil {
		if isNotFound(err) {
			return adapter.ErrNotFound
		}
		return fmt.Errorf("unable to delete file: %v", err)
	}
	return nil
}

func isNotFound(err error) bool {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code == http.StatusNotFound
	}
	return false
}
