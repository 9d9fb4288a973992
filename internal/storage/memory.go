package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a map-backed Store for tests and throwaway sessions.
// Failures can be injected per operation to exercise degraded paths.
type MemoryStore struct {
	mu      sync.RWMutex
	values  map[string]Entry
	audit   int64
	failGet error
	failPut error
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]Entry)}
}

// FailReads makes every subsequent Get return err (nil clears it).
func (m *MemoryStore) FailReads(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failGet = err
}

// FailWrites makes every subsequent Put and Delete return err (nil clears it).
func (m *MemoryStore) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPut = err
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.failGet != nil {
		return "", m.failGet
	}
	e, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return e.Value, nil
}

func (m *MemoryStore) Put(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failPut != nil {
		return m.failPut
	}
	m.values[key] = Entry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	m.audit++
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failPut != nil {
		return m.failPut
	}
	if _, ok := m.values[key]; !ok {
		return ErrNotFound
	}
	delete(m.values, key)
	m.audit++
	return nil
}

func (m *MemoryStore) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryStore) PurgeAll(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.values = make(map[string]Entry)
	m.audit++
	return nil
}

func (m *MemoryStore) GetStats(_ context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &Stats{
		TotalRecords: int64(len(m.values)),
		AuditEntries: m.audit,
		Keys:         []KeySize{},
	}
	for _, e := range m.values {
		stats.Keys = append(stats.Keys, KeySize{Key: e.Key, Bytes: int64(len(e.Value))})
		stats.TotalBytes += int64(len(e.Value))
		if e.UpdatedAt.After(stats.LastWrite) {
			stats.LastWrite = e.UpdatedAt
		}
	}
	sort.Slice(stats.Keys, func(i, j int) bool { return stats.Keys[i].Key < stats.Keys[j].Key })
	return stats, nil
}

func (m *MemoryStore) Close() error { return nil }

// String is used in debug logs.
func (m *MemoryStore) String() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fmt.Sprintf("memory(%d keys)", len(m.values))
}
