// Package storage implements the in-memory document store backing the
// service, along with its snapshot persistence. Collections preserve
// insertion order and enforce id uniqueness on every mutating path.
package storage

import (
	"errors"
	"fmt"
	"sync"

	"pulselog/internal/model"
	"pulselog/pkg/metrics"
)

var (
	// ErrDuplicateID is returned when a record id already exists in a collection.
	ErrDuplicateID = errors.New("duplicate id")
	// ErrNotFound is returned when no record with the given id exists.
	ErrNotFound = errors.New("not found")
	// ErrInvalidUpdate is returned when an update attempts to change a record id.
	ErrInvalidUpdate = errors.New("record id is immutable")
)

// Record is anything a collection can hold.
type Record interface {
	RecordID() string
}

// Collection is a named, insertion-ordered set of records keyed by id.
// Reads return copies; callers mutate only through Add/Update/Delete/Replace.
// All operations are safe for concurrent use.
type Collection[T Record] struct {
	name string

	mu    sync.RWMutex
	items []T
	index map[string]int
}

// NewCollection constructs an empty collection with the given name.
func NewCollection[T Record](name string) *Collection[T] {
	return &Collection[T]{name: name, index: make(map[string]int)}
}

// Name returns the collection name used in the snapshot file.
func (c *Collection[T]) Name() string { return c.name }

// Len returns the number of records in the collection.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// List returns a copy of the collection in insertion order.
func (c *Collection[T]) List() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Get returns the record with the given id.
func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return c.items[idx], true
}

// Add appends a record. It fails with ErrDuplicateID when a record with the
// same id already exists, leaving the collection unchanged.
func (c *Collection[T]) Add(rec T) error {
	id := rec.RecordID()
	if id == "" {
		return fmt.Errorf("%s: record id must not be empty", c.name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.index[id]; exists {
		return fmt.Errorf("%s %q: %w", c.name, id, ErrDuplicateID)
	}
	c.index[id] = len(c.items)
	c.items = append(c.items, rec)
	metrics.StoreMutations.WithLabelValues(c.name, "add").Inc()
	return nil
}

// Update applies mutate to a copy of the record with the given id and stores
// the result. It fails with ErrNotFound when the id is absent and with
// ErrInvalidUpdate when the mutation changes the record id.
func (c *Collection[T]) Update(id string, mutate func(*T) error) (T, error) {
	var zero T

	c.mu.Lock()
	defer c.mu.Unlock()
	idx, ok := c.index[id]
	if !ok {
		return zero, fmt.Errorf("%s %q: %w", c.name, id, ErrNotFound)
	}
	rec := c.items[idx]
	if err := mutate(&rec); err != nil {
		return zero, err
	}
	if rec.RecordID() != id {
		return zero, fmt.Errorf("%s %q: %w", c.name, id, ErrInvalidUpdate)
	}
	c.items[idx] = rec
	metrics.StoreMutations.WithLabelValues(c.name, "update").Inc()
	return rec, nil
}

// Delete removes the record with the given id and reports whether one was
// removed. Absence is not an error; callers decide what it means.
func (c *Collection[T]) Delete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, ok := c.index[id]
	if !ok {
		return false
	}
	c.items = append(c.items[:idx], c.items[idx+1:]...)
	delete(c.index, id)
	for i := idx; i < len(c.items); i++ {
		c.index[c.items[i].RecordID()] = i
	}
	metrics.StoreMutations.WithLabelValues(c.name, "delete").Inc()
	return true
}

// Replace swaps the entire collection contents atomically. It fails with
// ErrDuplicateID when the replacement carries duplicate ids, leaving the
// collection unchanged.
func (c *Collection[T]) Replace(records []T) error {
	index := make(map[string]int, len(records))
	for i, rec := range records {
		id := rec.RecordID()
		if id == "" {
			return fmt.Errorf("%s: record id must not be empty", c.name)
		}
		if _, exists := index[id]; exists {
			return fmt.Errorf("%s %q: %w", c.name, id, ErrDuplicateID)
		}
		index[id] = i
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make([]T, len(records))
	copy(c.items, records)
	c.index = index
	metrics.StoreMutations.WithLabelValues(c.name, "replace").Inc()
	return nil
}

// Store owns the service's collections. It is constructed once at startup
// and handed to every component that needs it; there is no global instance.
type Store struct {
	path string

	Patients  *Collection[model.Patient]
	Samples   *Collection[model.Sample]
	AuditLogs *Collection[model.AuditLog]
}

// New constructs an empty store that persists to the given snapshot path.
func New(path string) *Store {
	return &Store{
		path:      path,
		Patients:  NewCollection[model.Patient]("patients"),
		Samples:   NewCollection[model.Sample]("samples"),
		AuditLogs: NewCollection[model.AuditLog]("auditLogs"),
	}
}
