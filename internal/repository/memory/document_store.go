package memory

import (
	"alcyxob/sports-academy/internal/domain"
	"alcyxob/sports-academy/internal/repository"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DocumentStore implements repository.CloudStore in memory. It backs the
// "memory" cloud driver used for development and the sync tests.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]document // collection -> id -> document
	err  error

	upserts int
	deletes int
}

type document struct {
	fields    map[string]any
	createdAt time.Time
	updatedAt time.Time
}

var _ repository.CloudStore = (*DocumentStore)(nil)

// NewDocumentStore creates an empty in-memory cloud store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]map[string]document)}
}

// FailWith makes every following call return err. Pass nil to recover.
func (s *DocumentStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Upsert merges record into its document, creating one with a fresh id when
// the record id is pending-local.
func (s *DocumentStore) Upsert(ctx context.Context, collection string, record domain.Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fields, err := toFields(record)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	if s.err != nil {
		return "", s.err
	}

	docs, ok := s.docs[collection]
	if !ok {
		docs = make(map[string]document)
		s.docs[collection] = docs
	}
	now := time.Now().UTC()

	id := record.RecordID()
	if domain.IsPendingLocal(id) {
		id = uuid.NewString()
		docs[id] = document{fields: fields, createdAt: now, updatedAt: now}
		return id, nil
	}

	doc, exists := docs[id]
	if !exists {
		doc = document{fields: map[string]any{}, createdAt: now}
	}
	for k, v := range fields {
		doc.fields[k] = v
	}
	doc.updatedAt = now
	docs[id] = doc
	return id, nil
}

// LoadAll decodes every document of collection, oldest first, into out.
func (s *DocumentStore) LoadAll(ctx context.Context, collection string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	if s.err != nil {
		s.mu.RUnlock()
		return s.err
	}
	type entry struct {
		id  string
		doc document
	}
	entries := make([]entry, 0, len(s.docs[collection]))
	for id, doc := range s.docs[collection] {
		entries = append(entries, entry{id: id, doc: doc})
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].doc.createdAt.Equal(entries[j].doc.createdAt) {
			return entries[i].id < entries[j].id
		}
		return entries[i].doc.createdAt.Before(entries[j].doc.createdAt)
	})

	rows := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		row := make(map[string]any, len(e.doc.fields)+3)
		for k, v := range e.doc.fields {
			row[k] = v
		}
		row["id"] = e.id
		row["createdAt"] = e.doc.createdAt
		row["updatedAt"] = e.doc.updatedAt
		rows = append(rows, row)
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}
	return json.Unmarshal(raw, out)
}

// Delete removes a document. Pending-local ids never reach the store.
func (s *DocumentStore) Delete(ctx context.Context, collection, id string) error {
	if domain.IsPendingLocal(id) {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	if s.err != nil {
		return s.err
	}
	delete(s.docs[collection], id)
	return nil
}

// Get returns the stored fields of one document, for inspection.
func (s *DocumentStore) Get(collection, id string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[collection][id]
	if !ok {
		return nil, false
	}
	out := make(map[string]any, len(doc.fields))
	for k, v := range doc.fields {
		out[k] = v
	}
	return out, true
}

// Count returns the number of documents in collection.
func (s *DocumentStore) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs[collection])
}

// Calls returns how many upserts and deletes reached the store.
func (s *DocumentStore) Calls() (upserts, deletes int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.upserts, s.deletes
}

func toFields(record domain.Record) (map[string]any, error) {
	if record == nil {
		return nil, fmt.Errorf("record is nil")
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	delete(fields, "id")
	delete(fields, "createdAt")
	delete(fields, "updatedAt")
	return fields, nil
}
