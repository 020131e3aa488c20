package objectclient

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/markdave123-py/storagegate/internal/core"
)

var errObjectMissing = errors.New("object does not exist")

// MemoryClient is an ObjectClient powered by a map, to be used for local runs
// and tests.
type MemoryClient struct {
	mu         sync.RWMutex
	objects    map[string][]byte
	bucket     string
	publicHost string
}

func NewMemoryClient(bucket, publicHost string) *MemoryClient {
	if publicHost == "" {
		publicHost = "localhost"
	}
	return &MemoryClient{
		objects:    make(map[string][]byte),
		bucket:     bucket,
		publicHost: publicHost,
	}
}

func (m *MemoryClient) UploadFile(_ context.Context, key string, data []byte, _ core.PutOptions) (string, error) {
	if key == "" {
		return "", core.NewStorageError(core.KindInvalidInput, "memory put", key, errEmptyKey)
	}
	m.mu.Lock()
	m.objects[key] = dup(data)
	m.mu.Unlock()
	return m.ObjectURL(key), nil
}

func (m *MemoryClient) GetFile(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	data, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, core.NewStorageError(core.KindNotFound, "memory get", key, errObjectMissing)
	}
	return dup(data), nil
}

func (m *MemoryClient) DeleteFile(_ context.Context, key string) error {
	if key == "" {
		return core.NewStorageError(core.KindInvalidInput, "memory delete", key, errEmptyKey)
	}
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryClient) ObjectURL(key string) string {
	return publicURL(m.bucket, m.publicHost, key)
}

func (m *MemoryClient) Ping(context.Context) error { return nil }

// keys lists stored keys in sorted order.
func (m *MemoryClient) keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func dup(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
