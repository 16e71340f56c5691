package memory

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/stuffmd/backend/internal/adapter"
)

// Provider implements adapter.StorageProvider for the memory backend.
// Adapters are cached per user so purely in-memory state survives across
// requests within one process.
type Provider struct {
	client *dynamodb.Client

	mu       sync.Mutex
	adapters map[string]*MemoryAdapter
}

// NewProvider creates a memory provider. client may be nil for pure
// in-memory adapters (tests).
func NewProvider(client *dynamodb.Client) *Provider {
	return &Provider{
		client:   client,
		adapters: make(map[string]*MemoryAdapter),
	}
}

// GetAdapter returns the MemoryAdapter scoped to the given user ID.
func (p *Provider) GetAdapter(ctx context.Context, userID string) (adapter.StorageAdapter, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.adapters[userID]
	if !ok {
		a = NewMemoryAdapter(p.client, userID)
		p.adapters[userID] = a
	}
	return a, nil
}
