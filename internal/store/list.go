package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
)

// Keyed is implemented by entries of a PersistentList
type Keyed interface {
	Key() string
}

// PersistentList is an ordered, key-addressed collection written through to a Backend.
//
// Every mutation builds the next list, saves it, and only then replaces the
// in-memory copy, so a failed write leaves the previous state visible.
// Missing or corrupted stored data reads as an empty list.
type PersistentList[T Keyed] struct {
	mu        sync.Mutex
	backend   Backend
	namespace string
	loaded    bool
	items     []T
}

func NewPersistentList[T Keyed](backend Backend, namespace string) *PersistentList[T] {
	return &PersistentList[T]{
		backend:   backend,
		namespace: namespace,
	}
}

func (l *PersistentList[T]) Namespace() string {
	return l.namespace
}

// List returns a copy of the entries, rehydrating from the backend on first use
func (l *PersistentList[T]) List(ctx context.Context) []T {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(ctx); err != nil {
		log.Printf("list %s load error: %v \n", l.namespace, err)
		return []T{}
	}
	return l.snapshot()
}

// Find returns the entry stored under key
func (l *PersistentList[T]) Find(ctx context.Context, key string) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var zero T
	if err := l.ensureLoaded(ctx); err != nil {
		log.Printf("list %s load error: %v \n", l.namespace, err)
		return zero, false
	}
	if i := l.indexOf(key); i >= 0 {
		return l.items[i], true
	}
	return zero, false
}

// Upsert replaces the entry with the same key in place, or appends it
func (l *PersistentList[T]) Upsert(ctx context.Context, entry T) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(ctx); err != nil {
		return err
	}

	next := l.snapshot()
	if i := l.indexOf(entry.Key()); i >= 0 {
		next[i] = entry
	} else {
		next = append(next, entry)
	}
	return l.commit(ctx, next)
}

// RemoveByID drops every entry stored under key. Removing an absent key is a no-op.
func (l *PersistentList[T]) RemoveByID(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(ctx); err != nil {
		return err
	}

	next := make([]T, 0, len(l.items))
	for _, item := range l.items {
		if item.Key() != key {
			next = append(next, item)
		}
	}
	if len(next) == len(l.items) {
		return nil
	}
	return l.commit(ctx, next)
}

// Replace swaps the whole list
func (l *PersistentList[T]) Replace(ctx context.Context, entries []T) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := append([]T(nil), entries...)
	if next == nil {
		next = []T{}
	}
	return l.commit(ctx, next)
}

// Update computes the next list from the current one under the list lock,
// so concurrent read-modify-write callers never overwrite each other.
func (l *PersistentList[T]) Update(ctx context.Context, fn func(current []T) []T) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoaded(ctx); err != nil {
		return err
	}

	next := append([]T(nil), fn(l.snapshot())...)
	if next == nil {
		next = []T{}
	}
	return l.commit(ctx, next)
}

// Clear removes the namespace from the backend
func (l *PersistentList[T]) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.backend.Delete(ctx, l.namespace); err != nil {
		return fmt.Errorf("clear %s: %w", l.namespace, err)
	}
	l.items = []T{}
	l.loaded = true
	return nil
}

// Invalidate drops the in-memory copy so the next read goes to the backend
func (l *PersistentList[T]) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.loaded = false
	l.items = nil
}

func (l *PersistentList[T]) ensureLoaded(ctx context.Context) error {
	if l.loaded {
		return nil
	}

	data, err := l.backend.Load(ctx, l.namespace)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("load %s: %w", l.namespace, err)
	}

	items := []T{}
	if len(data) > 0 {
		if errDecode := json.Unmarshal(data, &items); errDecode != nil {
			log.Printf("list %s holds corrupted data, starting empty: %v \n", l.namespace, errDecode)
			items = []T{}
		}
	}

	l.items = items
	l.loaded = true
	return nil
}

func (l *PersistentList[T]) commit(ctx context.Context, next []T) error {
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", l.namespace, err)
	}
	if err := l.backend.Save(ctx, l.namespace, data); err != nil {
		return fmt.Errorf("save %s: %w", l.namespace, err)
	}
	l.items = next
	l.loaded = true
	return nil
}

func (l *PersistentList[T]) indexOf(key string) int {
	for i, item := range l.items {
		if item.Key() == key {
			return i
		}
	}
	return -1
}

func (l *PersistentList[T]) snapshot() []T {
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}
