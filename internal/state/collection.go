package state

import (
	"alcyxob/sports-academy/internal/domain"
	"alcyxob/sports-academy/internal/repository"
	"context"
	"fmt"
	"slices"
)

type idSetter interface {
	SetID(id string)
}

// Collection is one named, insertion-ordered list of records.
type Collection[T domain.Record] struct {
	store *Store
	name  string
	items []T
}

func newCollection[T domain.Record](store *Store, name string) *Collection[T] {
	return &Collection[T]{store: store, name: name, items: []T{}}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.name }

// All returns a copy of the records in insertion order.
func (c *Collection[T]) All() []T {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	return slices.Clone(c.items)
}

// Len returns the number of records.
func (c *Collection[T]) Len() int {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	return len(c.items)
}

// Get returns the record with id.
func (c *Collection[T]) Get(id string) (T, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	if i := c.index(id); i >= 0 {
		return c.items[i], nil
	}
	var zero T
	return zero, fmt.Errorf("%w: %s/%s", ErrRecordNotFound, c.name, id)
}

// Add appends item. A time-based id is assigned when item has none.
func (c *Collection[T]) Add(item T) (T, error) {
	if item.RecordID() == "" {
		setID(&item, domain.NewID())
	}
	if err := c.check(item); err != nil {
		return item, err
	}

	c.store.mu.Lock()
	if c.index(item.RecordID()) >= 0 {
		c.store.mu.Unlock()
		return item, fmt.Errorf("%w: %s/%s", ErrDuplicateID, c.name, item.RecordID())
	}
	next := make([]T, len(c.items), len(c.items)+1)
	copy(next, c.items)
	c.items = append(next, item)
	c.store.mu.Unlock()

	c.store.notify()
	return item, nil
}

// Update replaces the record that has item's id.
func (c *Collection[T]) Update(item T) (T, error) {
	if err := c.check(item); err != nil {
		return item, err
	}

	c.store.mu.Lock()
	i := c.index(item.RecordID())
	if i < 0 {
		c.store.mu.Unlock()
		return item, fmt.Errorf("%w: %s/%s", ErrRecordNotFound, c.name, item.RecordID())
	}
	next := slices.Clone(c.items)
	next[i] = item
	c.items = next
	c.store.mu.Unlock()

	c.store.notify()
	return item, nil
}

// Modify applies fn to a copy of the record with id and stores the result.
// Nothing is stored when fn returns an error.
func (c *Collection[T]) Modify(id string, fn func(*T) error) (T, error) {
	c.store.mu.Lock()
	i := c.index(id)
	if i < 0 {
		c.store.mu.Unlock()
		var zero T
		return zero, fmt.Errorf("%w: %s/%s", ErrRecordNotFound, c.name, id)
	}
	item := c.items[i]
	if err := fn(&item); err != nil {
		c.store.mu.Unlock()
		return c.items[i], err
	}
	if item.RecordID() != id {
		c.store.mu.Unlock()
		return c.items[i], fmt.Errorf("%w: id cannot change", ErrInvalidRecord)
	}
	if err := c.check(item); err != nil {
		c.store.mu.Unlock()
		return c.items[i], err
	}
	next := slices.Clone(c.items)
	next[i] = item
	c.items = next
	c.store.mu.Unlock()

	c.store.notify()
	return item, nil
}

// Remove drops the record with id and records a tombstone for the cloud.
func (c *Collection[T]) Remove(id string) (T, error) {
	c.store.mu.Lock()
	i := c.index(id)
	if i < 0 {
		c.store.mu.Unlock()
		var zero T
		return zero, fmt.Errorf("%w: %s/%s", ErrRecordNotFound, c.name, id)
	}
	removed := c.items[i]
	c.items = slices.Concat(c.items[:i], c.items[i+1:])
	c.store.tombstones = append(c.store.tombstones, Tombstone{Collection: c.name, ID: id})
	c.store.mu.Unlock()

	c.store.notify()
	return removed, nil
}

// Replace swaps the whole collection for items. Records that disappear get
// tombstones; items without an id are given one.
func (c *Collection[T]) Replace(items []T) error {
	next := slices.Clone(items)
	seen := make(map[string]struct{}, len(next))
	for i := range next {
		if next[i].RecordID() == "" {
			setID(&next[i], domain.NewID())
		}
		if err := c.check(next[i]); err != nil {
			return err
		}
		if _, dup := seen[next[i].RecordID()]; dup {
			return fmt.Errorf("%w: %s/%s", ErrDuplicateID, c.name, next[i].RecordID())
		}
		seen[next[i].RecordID()] = struct{}{}
	}
	if next == nil {
		next = []T{}
	}

	c.store.mu.Lock()
	for _, old := range c.items {
		if _, kept := seen[old.RecordID()]; !kept {
			c.store.tombstones = append(c.store.tombstones, Tombstone{Collection: c.name, ID: old.RecordID()})
		}
	}
	c.items = next
	c.store.mu.Unlock()

	c.store.notify()
	return nil
}

func (c *Collection[T]) check(item T) error {
	if err := c.store.validate.Struct(item); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRecord, c.name, err)
	}
	return nil
}

// index must be called with the store lock held.
func (c *Collection[T]) index(id string) int {
	return slices.IndexFunc(c.items, func(item T) bool { return item.RecordID() == id })
}

func (c *Collection[T]) records() []domain.Record {
	out := make([]domain.Record, len(c.items))
	for i, item := range c.items {
		out[i] = item
	}
	return out
}

func (c *Collection[T]) hydrate(ctx context.Context, local repository.LocalStore) {
	items := repository.LoadOr(ctx, local, c.name, []T{})
	if items == nil {
		items = []T{}
	}
	c.items = items
}

// has must be called with the store lock held.
func (c *Collection[T]) has(id string) bool { return c.index(id) >= 0 }

// promote must be called with the store lock held.
func (c *Collection[T]) promote(oldID, newID string) bool {
	i := c.index(oldID)
	if i < 0 || c.index(newID) >= 0 {
		return false
	}
	next := slices.Clone(c.items)
	setID(&next[i], newID)
	c.items = next
	return true
}

// pull merges the cloud copy into the collection. Records only the cloud
// has are appended; records on both sides take the cloud copy when its
// updatedAt is newer than the local one. Local-only records are kept and
// records with a pending delete are not brought back.
func (c *Collection[T]) pull(ctx context.Context, cloud repository.CloudStore) (MergeResult, error) {
	var remote []T
	if err := cloud.LoadAll(ctx, c.name, &remote); err != nil {
		return MergeResult{}, err
	}

	c.store.mu.Lock()
	defer c.store.mu.Unlock()

	deleted := make(map[string]struct{})
	for _, ts := range c.store.tombstones {
		if ts.Collection == c.name {
			deleted[ts.ID] = struct{}{}
		}
	}

	var res MergeResult
	next := slices.Clone(c.items)
	for _, r := range remote {
		if _, gone := deleted[r.RecordID()]; gone {
			continue
		}
		i := slices.IndexFunc(next, func(item T) bool { return item.RecordID() == r.RecordID() })
		if i < 0 {
			next = append(next, r)
			res.Added++
			continue
		}
		local, cloudAt := next[i].LastUpdated(), r.LastUpdated()
		if local != nil && cloudAt != nil && cloudAt.After(*local) {
			next[i] = r
			res.Replaced++
		}
	}
	c.items = next
	return res, nil
}

func setID[T any](item *T, id string) {
	if s, ok := any(item).(idSetter); ok {
		s.SetID(id)
	}
}
