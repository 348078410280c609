package repository

import (
	"alcyxob/sports-academy/internal/domain"
	"context"
)

// Error constants for repository layer
var (
	ErrCreateFailed = RepositoryError("create failed")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
	ErrDecodeFailed = RepositoryError("decode failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// LocalStore is the synchronous key/value medium the academy state is
// persisted to. Keys are namespaced by the implementation.
type LocalStore interface {
	// Load decodes the value stored under key into dst. It reports false when
	// the key was never written or its value could not be decoded, in which
	// case the contents of dst are unspecified.
	Load(ctx context.Context, key string, dst any) bool
	// Save JSON-encodes data and overwrites whatever key held before.
	Save(ctx context.Context, key string, data any) error
}

// LoadOr returns the value stored under key, or def when it is absent or corrupt.
func LoadOr[T any](ctx context.Context, store LocalStore, key string, def T) T {
	var out T
	if !store.Load(ctx, key, &out) {
		return def
	}
	return out
}

// CloudStore is the remote document database. Every call is keyed by
// (collection, id); there are no cross-collection transactions.
type CloudStore interface {
	// Upsert merges record into the document with the record's id, or creates
	// a new document when the id is pending-local. It returns the id the
	// document is stored under, or "" and an error when nothing was written.
	Upsert(ctx context.Context, collection string, record domain.Record) (string, error)
	// LoadAll decodes every document of collection into the slice out points to.
	LoadAll(ctx context.Context, collection string, out any) error
	// Delete removes a document. Pending-local ids succeed without a round trip.
	Delete(ctx context.Context, collection, id string) error
}
