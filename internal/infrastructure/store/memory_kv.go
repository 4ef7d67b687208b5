// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// errWrongLastSequence matches the error text returned by the server for a stale revision.
var errWrongLastSequence = errors.New("nats: wrong last sequence")

// memoryEntry implements jetstream.KeyValueEntry
type memoryEntry struct {
	bucket   string
	key      string
	value    []byte
	revision uint64
	created  time.Time
}

func (e *memoryEntry) Key() string                     { return e.key }
func (e *memoryEntry) Value() []byte                   { return e.value }
func (e *memoryEntry) Revision() uint64                { return e.revision }
func (e *memoryEntry) Created() time.Time              { return e.created }
func (e *memoryEntry) Delta() uint64                   { return 0 }
func (e *memoryEntry) Operation() jetstream.KeyValueOp { return jetstream.KeyValuePut }
func (e *memoryEntry) Bucket() string                  { return e.bucket }

// memoryKeyLister implements jetstream.KeyLister
type memoryKeyLister struct {
	keys []string
}

func (l *memoryKeyLister) Keys() <-chan string {
	ch := make(chan string, len(l.keys))
	for _, key := range l.keys {
		ch <- key
	}
	close(ch)
	return ch
}

func (l *memoryKeyLister) Stop() error { return nil }

// MemoryKeyValue is an in-process INatsKeyValue. Revisions come from a
// bucket-wide sequence like a JetStream stream, so Update enforces the same
// compare-and-swap rules as the server. It backs the service in memory mode
// and the repository tests.
type MemoryKeyValue struct {
	// OnUpdate, when set, runs at the start of every Update call. Tests use
	// it to interleave a competing write between a read and its update.
	OnUpdate func(key string)

	bucket   string
	mu       sync.Mutex
	entries  map[string]*memoryEntry
	sequence uint64
}

// NewMemoryKeyValue creates an empty in-memory bucket.
func NewMemoryKeyValue(bucket string) *MemoryKeyValue {
	return &MemoryKeyValue{
		bucket:  bucket,
		entries: make(map[string]*memoryEntry),
	}
}

func (m *MemoryKeyValue) ListKeys(ctx context.Context, opts ...jetstream.WatchOpt) (jetstream.KeyLister, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.entries))
	for key := range m.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return &memoryKeyLister{keys: keys}, nil
}

func (m *MemoryKeyValue) Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, jetstream.ErrKeyNotFound
	}
	copied := *entry
	copied.value = append([]byte(nil), entry.value...)
	return &copied, nil
}

func (m *MemoryKeyValue) Put(ctx context.Context, key string, data []byte) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.store(key, data), nil
}

func (m *MemoryKeyValue) Update(ctx context.Context, key string, data []byte, expectedRevision uint64) (uint64, error) {
	if m.OnUpdate != nil {
		m.OnUpdate(key)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return 0, jetstream.ErrKeyNotFound
	}
	if entry.revision != expectedRevision {
		return 0, errWrongLastSequence
	}
	return m.store(key, data), nil
}

func (m *MemoryKeyValue) Delete(ctx context.Context, key string, opts ...jetstream.KVDeleteOpt) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[key]; !ok {
		return jetstream.ErrKeyNotFound
	}
	delete(m.entries, key)
	return nil
}

// Len returns the number of keys in the bucket.
func (m *MemoryKeyValue) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// store must be called with mu held.
func (m *MemoryKeyValue) store(key string, data []byte) uint64 {
	m.sequence++
	m.entries[key] = &memoryEntry{
		bucket:   m.bucket,
		key:      key,
		value:    append([]byte(nil), data...),
		revision: m.sequence,
		created:  time.Now(),
	}
	return m.sequence
}
