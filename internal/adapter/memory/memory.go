// Package memory implements adapter.StorageAdapter without Google Drive.
// With a nil DynamoDB client it is a plain in-memory map, used by tests;
// with a client it persists items to DynamoDB so dev-mode state survives
// restarts.
package memory

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/stuffmd/backend/internal/adapter"
)

const rootParent = "root"

func getTableName() *string {
	name := os.Getenv("FILE_STORE_TABLE")
	if name == "" {
		name = "FileStore"
	}
	return aws.String(name)
}

// FileItem is the DynamoDB row for one stored file or folder.
type FileItem struct {
	PK           string    `dynamodbav:"pk"`
	UserID       string    `dynamodbav:"user_id"`
	ID           string    `dynamodbav:"id"`
	Name         string    `dynamodbav:"name"`
	MIMEType     string    `dynamodbav:"mime_type"`
	CreatedTime  time.Time `dynamodbav:"created_time"`
	ModifiedTime time.Time `dynamodbav:"modified_time"`
	Parents      []string  `dynamodbav:"parents"`
	Content      []byte    `dynamodbav:"content"`
	TTL          int64     `dynamodbav:"ttl"`
}

// MemoryAdapter implements adapter.StorageAdapter over a map or DynamoDB.
type MemoryAdapter struct {
	client *dynamodb.Client
	userID string

	mu    sync.RWMutex
	files map[string]*adapter.File
}

// NewMemoryAdapter creates an adapter for one user. client may be nil for
// pure in-memory operation.
func NewMemoryAdapter(client *dynamodb.Client, userID string) *MemoryAdapter {
	return &MemoryAdapter{
		client: client,
		userID: userID,
		files:  make(map[string]*adapter.File),
	}
}

func (m *MemoryAdapter) EnsureRootFolder(ctx context.Context, name string) (string, error) {
	folders, err := m.ListAllFolders(ctx)
	if err != nil {
		return "", err
	}
	for _, f := range folders {
		if f.Name == name && hasParent(f.Parents, rootParent) {
			return f.ID, nil
		}
	}
	folder, err := m.CreateFolder(ctx, name, rootParent)
	if err != nil {
		return "", err
	}
	return folder.ID, nil
}

func (m *MemoryAdapter) FindFolder(ctx context.Context, name, parentID string) (*adapter.FileMetadata, error) {
	folders, err := m.ListAllFolders(ctx)
	if err != nil {
		return nil, err
	}
	for _, f := range folders {
		if f.Name == name && hasParent(f.Parents, parentID) {
			found := f
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MemoryAdapter) CreateFolder(ctx context.Context, name, parentID string) (*adapter.FileMetadata, error) {
	if parentID == "" {
		parentID = rootParent
	}
	now := time.Now()
	meta := adapter.FileMetadata{
		ID:           uuid.New().String(),
		Name:         name,
		MIMEType:     adapter.FolderMIMEType,
		CreatedTime:  now,
		ModifiedTime: now,
		Parents:      []string{parentID},
	}
	if m.client == nil {
		m.mu.Lock()
		m.files[meta.ID] = &adapter.File{FileMetadata: meta}
		m.mu.Unlock()
		return &meta, nil
	}
	if err := m.putItem(ctx, &adapter.File{FileMetadata: meta}); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (m *MemoryAdapter) CreateFile(ctx context.Context, name string, content []byte, folderID string) (*adapter.FileMetadata, error) {
	if folderID == "" {
		folderID = rootParent
	}
	now := time.Now()
	f := &adapter.File{
		FileMetadata: adapter.FileMetadata{
			ID:           uuid.New().String(),
			Name:         name,
			MIMEType:     adapter.NoteMIMEType,
			CreatedTime:  now,
			ModifiedTime: now,
			Parents:      []string{folderID},
		},
		Content: append([]byte(nil), content...),
	}
	if m.client == nil {
		m.mu.Lock()
		m.files[f.ID] = f
		m.mu.Unlock()
		meta := f.FileMetadata
		return &meta, nil
	}
	if err := m.putItem(ctx, f); err != nil {
		return nil, err
	}
	meta := f.FileMetadata
	return &meta, nil
}

func (m *MemoryAdapter) SaveFile(ctx context.Context, fileID string, content []byte) (*adapter.FileMetadata, error) {
	if m.client == nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		f, ok := m.files[fileID]
		if !ok {
			return nil, adapter.ErrNotFound
		}
		f.Content = append([]byte(nil), content...)
		f.ModifiedTime = time.Now()
		meta := f.FileMetadata
		return &meta, nil
	}

	f, err := m.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	f.Content = append([]byte(nil), content...)
	f.ModifiedTime = time.Now()
	if err := m.putItem(ctx, f); err != nil {
		return nil, err
	}
	meta := f.FileMetadata
	return &meta, nil
}

func (m *MemoryAdapter) GetFile(ctx context.Context, fileID string) (*adapter.File, error) {
	if m.client == nil {
		m.mu.RLock()
		defer m.mu.RUnlock()
		f, ok := m.files[fileID]
		if !ok {
			return nil, adapter.ErrNotFound
		}
		cp := *f
		cp.Content = append([]byte(nil), f.Content...)
		return &cp, nil
	}

	out, err := m.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: getTableName(),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: fileID},
		},
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, adapter.ErrNotFound
	}

	var item FileItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, err
	}
	return itemToFile(item), nil
}

func (m *MemoryAdapter) ListAllFiles(ctx context.Context) ([]adapter.FileMetadata, error) {
	all, err := m.listAll(ctx)
	if err != nil {
		return nil, err
	}
	var files []adapter.FileMetadata
	for _, f := range all {
		if !f.IsFolder() && strings.HasSuffix(f.Name, adapter.NoteExt) {
			files = append(files, f)
		}
	}
	return files, nil
}

func (m *MemoryAdapter) ListAllFolders(ctx context.Context) ([]adapter.FileMetadata, error) {
	all, err := m.listAll(ctx)
	if err != nil {
		return nil, err
	}
	var folders []adapter.FileMetadata
	for _, f := range all {
		if f.IsFolder() {
			folders = append(folders, f)
		}
	}
	return folders, nil
}

func (m *MemoryAdapter) DeleteFile(ctx context.Context, fileID string) error {
	if m.client == nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.files[fileID]; !ok {
			return adapter.ErrNotFound
		}
		delete(m.files, fileID)
		return nil
	}

	_, err := m.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: getTableName(),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: fileID},
		},
	})
	return err
}

func (m *MemoryAdapter) listAll(ctx context.Context) ([]adapter.FileMetadata, error) {
	if m.client == nil {
		m.mu.RLock()
		defer m.mu.RUnlock()
		out := make([]adapter.FileMetadata, 0, len(m.files))
		for _, f := range m.files {
			out = append(out, f.FileMetadata)
		}
		return out, nil
	}

	// Scan and filter per user; fine for dev-mode data volumes.
	var metas []adapter.FileMetadata
	var startKey map[string]types.AttributeValue
	for {
		out, err := m.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         getTableName(),
			FilterExpression:  aws.String("user_id = :uid"),
			ExclusiveStartKey: startKey,
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":uid": &types.AttributeValueMemberS{Value: m.userID},
			},
		})
		if err != nil {
			return nil, err
		}
		var items []FileItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
			return nil, err
		}
		for _, item := range items {
			metas = append(metas, itemToFile(item).FileMetadata)
		}
		if out.LastEvaluatedKey == nil {
			return metas, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

func (m *MemoryAdapter) putItem(ctx context.Context, f *adapter.File) error {
	item := FileItem{
		PK:           f.ID,
		UserID:       m.userID,
		ID:           f.ID,
		Name:         f.Name,
		MIMEType:     f.MIMEType,
		CreatedTime:  f.CreatedTime,
		ModifiedTime: f.ModifiedTime,
		Parents:      f.Parents,
		Content:      f.Content,
		TTL:          time.Now().Add(60 * time.Minute).Unix(),
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return err
	}
	if _, err := m.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: getTableName(),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("failed to persist item: %w", err)
	}
	return nil
}

func itemToFile(item FileItem) *adapter.File {
	return &adapter.File{
		FileMetadata: adapter.FileMetadata{
			ID:           item.ID,
			Name:         item.Name,
			MIMEType:     item.MIMEType,
			CreatedTime:  item.CreatedTime,
			ModifiedTime: item.ModifiedTime,
			Parents:      item.Parents,
		},
		Content: item.Content,
	}
}

func hasParent(parents []string, parentID string) bool {
	for _, p := range parents {
		if p == parentID {
			return true
		}
	}
	return false
}
