package sqlite

import (
	"alcyxob/sports-academy/internal/repository"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

// DefaultKeyPrefix namespaces every key written by the academy.
const DefaultKeyPrefix = "academy_"

// KVStore implements repository.LocalStore on a single SQLite table holding
// one JSON payload per key.
type KVStore struct {
	db     *sql.DB
	prefix string
	path   string
	logger *zap.Logger
}

var _ repository.LocalStore = (*KVStore)(nil)

// Open creates (if needed) and opens the SQLite file at path.
func Open(path, prefix string, logger *zap.Logger) (*KVStore, error) {
	if path == "" {
		path = "academy.db"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection serialises writers; SQLite would lock anyway.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		updated_at TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}
	return &KVStore{db: db, prefix: prefix, path: path, logger: logger.Named("localstore")}, nil
}

func (s *KVStore) key(k string) string { return s.prefix + k }

// Load decodes the payload stored under key into dst.
func (s *KVStore) Load(ctx context.Context, key string, dst any) bool {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM kv WHERE key = ?`, s.key(key)).Scan(&payload)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("local read failed, using default", zap.String("key", s.key(key)), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		s.logger.Warn("corrupt local value, using default", zap.String("key", s.key(key)), zap.Error(err))
		return false
	}
	return true
}

// Save overwrites key with the JSON encoding of data.
func (s *KVStore) Save(ctx context.Context, key string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.put(ctx, key, payload); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// SaveRaw stores payload verbatim, without encoding it.
func (s *KVStore) SaveRaw(ctx context.Context, key string, payload []byte) error {
	return s.put(ctx, key, payload)
}

func (s *KVStore) put(ctx context.Context, key string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv(key, payload, updated_at) VALUES(?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		s.key(key), payload, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// Path returns the database file path.
func (s *KVStore) Path() string { return s.path }

// Close releases the database handle.
func (s *KVStore) Close() error { return s.db.Close() }
