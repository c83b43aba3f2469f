package snapshot

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/starford/wanikanji/internal/checksum"
)

// Memory is an in-process Store. Values go through the same JSON encoding
// as FS, so a Get never aliases the inserted value.
type Memory struct {
	mu    sync.Mutex
	items map[string]memoryItem
}

type memoryItem struct {
	data      []byte
	updatedAt time.Time
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]memoryItem)}
}

// Insert replaces the snapshot under key.
func (m *Memory) Insert(key string, v any) error {
	if err := validKey(key); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("snapshot: encode %s: %w", key, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = memoryItem{data: data, updatedAt: time.Now()}
	return nil
}

// Get decodes the snapshot under key into v.
func (m *Memory) Get(key string, v any) (bool, error) {
	m.mu.Lock()
	item, ok := m.items[key]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(item.data, v); err != nil {
		return false, fmt.Errorf("snapshot: decode %s: %w", key, err)
	}
	return true, nil
}

// List returns metadata for every stored snapshot.
func (m *Memory) List() ([]Meta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Meta, 0, len(m.items))
	for key, item := range m.items {
		out = append(out, Meta{
			Key:       key,
			Checksum:  checksum.Sum(item.data),
			Size:      int64(len(item.data)),
			UpdatedAt: item.updatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
