package mocks

import (
	"context"
	"io"
	"sync"
)

// MockMediaStorage implements the service MediaStorage interface, keeping
// uploaded objects in memory.
type MockMediaStorage struct {
	UploadFn       func(ctx context.Context, key, contentType string, body io.Reader) error
	PresignedURLFn func(key string) (string, error)
	DeleteFn       func(ctx context.Context, key string) error

	mu      sync.Mutex
	Objects map[string][]byte
	Deleted []string
}

// NewMockMediaStorage creates a mock store with an empty object map.
func NewMockMediaStorage() *MockMediaStorage {
	return &MockMediaStorage{Objects: make(map[string][]byte)}
}

func (m *MockMediaStorage) Upload(ctx context.Context, key, contentType string, body io.Reader) error {
	if m.UploadFn != nil {
		return m.UploadFn(ctx, key, contentType, body)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[key] = data
	return nil
}

func (m *MockMediaStorage) PresignedURL(key string) (string, error) {
	if m.PresignedURLFn != nil {
		return m.PresignedURLFn(key)
	}
	return "https://media.test/" + key, nil
}

func (m *MockMediaStorage) Delete(ctx context.Context, key string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, key)
	m.Deleted = append(m.Deleted, key)
	return nil
}
