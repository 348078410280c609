// Package state holds the canonical in-memory copy of the academy's
// collections. Every mutation replaces a collection's slice wholesale and
// notifies the registered change hooks.
package state

import (
	"alcyxob/sports-academy/internal/domain"
	"alcyxob/sports-academy/internal/repository"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var (
	ErrRecordNotFound    = errors.New("record not found")
	ErrDuplicateID       = errors.New("record id already exists")
	ErrInvalidRecord     = errors.New("invalid record")
	ErrUnknownCollection = errors.New("unknown collection")
)

// TombstonesKey is the local key the pending cloud deletes are kept under.
const TombstonesKey = "_tombstones"

// Tombstone remembers a removed record until the cloud delete went through.
type Tombstone struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
}

// CollectionSnapshot is the content of one collection at snapshot time.
type CollectionSnapshot struct {
	Name    string
	Records []domain.Record
}

// Snapshot is a consistent copy of every collection, in sync order.
type Snapshot []CollectionSnapshot

// Len returns the total number of records across collections.
func (s Snapshot) Len() int {
	n := 0
	for _, c := range s {
		n += len(c.Records)
	}
	return n
}

// MergeResult reports what a cloud pull changed in one collection.
type MergeResult struct {
	Added    int
	Replaced int
}

// collection is the type-erased view the store keeps of every Collection[T].
type collection interface {
	records() []domain.Record
	hydrate(ctx context.Context, local repository.LocalStore)
	promote(oldID, newID string) bool
	pull(ctx context.Context, cloud repository.CloudStore) (MergeResult, error)
	has(id string) bool
}

// Store owns the academy's collections.
type Store struct {
	mu         sync.RWMutex
	validate   *validator.Validate
	logger     *zap.Logger
	hooks      []func()
	tombstones []Tombstone

	students *Collection[domain.Student]
	trainers *Collection[domain.Trainer]
	sessions *Collection[domain.TrainingSession]
	finance  *Collection[domain.FinanceEntry]
	media    *Collection[domain.MediaPost]
	drills   *Collection[domain.Drill]
	notes    *Collection[domain.TrainerNote]

	byName map[string]collection
}

// New builds a store and hydrates every collection and the pending deletes
// from local. Missing or corrupt keys hydrate as empty.
func New(ctx context.Context, local repository.LocalStore, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		validate: validator.New(),
		logger:   logger.Named("state"),
	}
	s.students = newCollection[domain.Student](s, domain.CollectionStudents)
	s.trainers = newCollection[domain.Trainer](s, domain.CollectionTrainers)
	s.sessions = newCollection[domain.TrainingSession](s, domain.CollectionSessions)
	s.finance = newCollection[domain.FinanceEntry](s, domain.CollectionFinance)
	s.media = newCollection[domain.MediaPost](s, domain.CollectionMedia)
	s.drills = newCollection[domain.Drill](s, domain.CollectionDrills)
	s.notes = newCollection[domain.TrainerNote](s, domain.CollectionNotes)

	s.byName = map[string]collection{
		domain.CollectionStudents: s.students,
		domain.CollectionTrainers: s.trainers,
		domain.CollectionSessions: s.sessions,
		domain.CollectionFinance:  s.finance,
		domain.CollectionMedia:    s.media,
		domain.CollectionDrills:   s.drills,
		domain.CollectionNotes:    s.notes,
	}

	if local != nil {
		for _, name := range domain.Collections {
			s.byName[name].hydrate(ctx, local)
		}
		for _, ts := range repository.LoadOr(ctx, local, TombstonesKey, []Tombstone{}) {
			if _, known := s.byName[ts.Collection]; known && ts.ID != "" {
				s.tombstones = append(s.tombstones, ts)
			}
		}
	}
	s.logger.Info("state hydrated", zap.Int("records", s.Snapshot().Len()))
	return s
}

func (s *Store) Students() *Collection[domain.Student]         { return s.students }
func (s *Store) Trainers() *Collection[domain.Trainer]         { return s.trainers }
func (s *Store) Sessions() *Collection[domain.TrainingSession] { return s.sessions }
func (s *Store) Finance() *Collection[domain.FinanceEntry]     { return s.finance }
func (s *Store) Media() *Collection[domain.MediaPost]          { return s.media }
func (s *Store) Drills() *Collection[domain.Drill]             { return s.drills }
func (s *Store) Notes() *Collection[domain.TrainerNote]        { return s.notes }

// OnChange registers fn to run after every successful mutation. Hooks run
// outside the store lock and must not block.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

func (s *Store) notify() {
	s.mu.RLock()
	hooks := append([]func(){}, s.hooks...)
	s.mu.RUnlock()
	for _, fn := range hooks {
		fn()
	}
}

// Snapshot copies every collection under a single read lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(Snapshot, 0, len(domain.Collections))
	for _, name := range domain.Collections {
		snap = append(snap, CollectionSnapshot{Name: name, Records: s.byName[name].records()})
	}
	return snap
}

// Tombstones returns a copy of the pending cloud deletes.
func (s *Store) Tombstones() []Tombstone {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Tombstone{}, s.tombstones...)
}

// Contains reports whether collection name currently holds id.
func (s *Store) Contains(name, id string) bool {
	c, ok := s.byName[name]
	if !ok {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return c.has(id)
}

// TakeTombstones drains the removals recorded since the last call.
func (s *Store) TakeTombstones() []Tombstone {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.tombstones
	s.tombstones = nil
	return out
}

// RequeueTombstones puts back removals whose cloud delete failed.
func (s *Store) RequeueTombstones(ts []Tombstone) {
	if len(ts) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tombstones = append(ts, s.tombstones...)
}

// PromoteID replaces a pending-local id with the id the cloud assigned.
// It reports false when oldID is not pending-local, no longer present, or
// newID is already taken.
func (s *Store) PromoteID(name, oldID, newID string) bool {
	c, ok := s.byName[name]
	if !ok || !domain.IsPendingLocal(oldID) || domain.IsPendingLocal(newID) {
		return false
	}
	s.mu.Lock()
	promoted := c.promote(oldID, newID)
	s.mu.Unlock()
	if promoted {
		s.logger.Debug("promoted pending id", zap.String("collection", name), zap.String("from", oldID), zap.String("to", newID))
		s.notify()
	}
	return promoted
}

// Pull merges the cloud copy of collection name into the store.
func (s *Store) Pull(ctx context.Context, name string, cloud repository.CloudStore) (MergeResult, error) {
	c, ok := s.byName[name]
	if !ok {
		return MergeResult{}, fmt.Errorf("%w: %s", ErrUnknownCollection, name)
	}
	res, err := c.pull(ctx, cloud)
	if err != nil {
		return res, err
	}
	if res.Added > 0 || res.Replaced > 0 {
		s.notify()
	}
	return res, nil
}
