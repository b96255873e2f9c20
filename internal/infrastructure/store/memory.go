package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/returns/backend/internal/domain/shared"
)

// MemoryStore is the in-process Store. It backs tests and single-node
// deployments where Redis is not configured; cmd/server falls back to it
// when the Redis ping fails.
type MemoryStore struct {
	mu        sync.RWMutex
	data      map[string]map[string]json.RawMessage
	listeners map[string]map[int]func(Snapshot)
	nextID    int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:      make(map[string]map[string]json.RawMessage),
		listeners: make(map[string]map[int]func(Snapshot)),
	}
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.data[collection][id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return cloneRaw(doc), nil
}

func (s *MemoryStore) List(ctx context.Context, collection string) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(collection), nil
}

func (s *MemoryStore) Set(ctx context.Context, collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", collection, id, err)
	}

	s.mu.Lock()
	s.ensureCollection(collection)[id] = raw
	snap, fns := s.snapshotAndListenersLocked(collection)
	s.mu.Unlock()

	notify(fns, snap)
	return nil
}

func (s *MemoryStore) Patch(ctx context.Context, collection, id string, fields map[string]any) error {
	s.mu.Lock()
	current, ok := s.data[collection][id]
	if !ok {
		s.mu.Unlock()
		return shared.ErrNotFound
	}
	merged, err := mergeFields(current, fields)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.data[collection][id] = merged
	snap, fns := s.snapshotAndListenersLocked(collection)
	s.mu.Unlock()

	notify(fns, snap)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	if _, ok := s.data[collection][id]; !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.data[collection], id)
	snap, fns := s.snapshotAndListenersLocked(collection)
	s.mu.Unlock()

	notify(fns, snap)
	return nil
}

func (s *MemoryStore) AtomicUpdate(ctx context.Context, collection, id string, fn func(current json.RawMessage) (any, error)) error {
	// A single mutex means there is no contention window; one pass is
	// always enough.
	s.mu.Lock()
	current := s.data[collection][id]
	next, err := fn(cloneRaw(current))
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if next == nil {
		s.mu.Unlock()
		return nil
	}
	raw, err := json.Marshal(next)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("marshal %s/%s: %w", collection, id, err)
	}
	s.ensureCollection(collection)[id] = raw
	snap, fns := s.snapshotAndListenersLocked(collection)
	s.mu.Unlock()

	notify(fns, snap)
	return nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, collection string, fn func(Snapshot)) (Unsubscribe, error) {
	s.mu.Lock()
	if s.listeners[collection] == nil {
		s.listeners[collection] = make(map[int]func(Snapshot))
	}
	id := s.nextID
	s.nextID++
	s.listeners[collection][id] = fn
	snap := s.snapshotLocked(collection)
	s.mu.Unlock()

	// Initial snapshot, same contract as the remote store.
	fn(snap)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners[collection], id)
			s.mu.Unlock()
		})
	}, nil
}

func (s *MemoryStore) ensureCollection(collection string) map[string]json.RawMessage {
	if s.data[collection] == nil {
		s.data[collection] = make(map[string]json.RawMessage)
	}
	return s.data[collection]
}

func (s *MemoryStore) snapshotLocked(collection string) Snapshot {
	snap := make(Snapshot, len(s.data[collection]))
	for id, doc := range s.data[collection] {
		snap[id] = cloneRaw(doc)
	}
	return snap
}

func (s *MemoryStore) snapshotAndListenersLocked(collection string) (Snapshot, []func(Snapshot)) {
	fns := make([]func(Snapshot), 0, len(s.listeners[collection]))
	for _, fn := range s.listeners[collection] {
		fns = append(fns, fn)
	}
	return s.snapshotLocked(collection), fns
}

func notify(fns []func(Snapshot), snap Snapshot) {
	for _, fn := range fns {
		fn(snap)
	}
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}

// mergeFields applies a shallow merge-patch onto a JSON object. Nil values
// delete the field, matching the remote store's patch semantics.
func mergeFields(current json.RawMessage, fields map[string]any) (json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(current, &obj); err != nil {
		return nil, fmt.Errorf("patch target is not an object: %w", err)
	}
	for key, value := range fields {
		if value == nil {
			delete(obj, key)
			continue
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("marshal patch field %q: %w", key, err)
		}
		obj[key] = raw
	}
	return json.Marshal(obj)
}

var _ Store = (*MemoryStore)(nil)
