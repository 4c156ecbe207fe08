package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"wedding-guestsync/internal/models"
)

// Collection names. Collections are independent namespaces; no
// cross-collection integrity is enforced.
const (
	CollectionRSVPs  = "pending_rsvps"
	CollectionPhotos = "pending_photos"
	CollectionCache  = "cache"
)

// DeadLetterCollection returns the collection holding items that
// exhausted their delivery attempts.
func DeadLetterCollection(collection string) string {
	return "dead_" + collection
}

const schemaVersion = 1

// ErrNotFound is returned by Get for an absent key
var ErrNotFound = errors.New("item not found")

// Store is the local persistent store: durable keyed collections
// backed by a SQLite file that survives agent restarts.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the store database under dataDir
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, models.StorageError("store.Open", fmt.Errorf("create data dir: %w", err))
	}

	dbPath := filepath.Join(dataDir, "guestsync.db")
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, models.StorageError("store.Open", fmt.Errorf("open database: %w", err))
	}

	// Single writer; WAL keeps readers from blocking on the drain loop.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, models.StorageError("store.Open", fmt.Errorf("enable WAL mode: %w", err))
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, models.StorageError("store.Open", fmt.Errorf("create tables: %w", err))
	}

	return &Store{db: db}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		collection TEXT NOT NULL,
		key TEXT NOT NULL,
		payload BLOB NOT NULL,
		created_at DATETIME NOT NULL,
		PRIMARY KEY (collection, key)
	);
	CREATE INDEX IF NOT EXISTS idx_items_collection ON items(collection);

	CREATE TABLE IF NOT EXISTS schema_info (
		version INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return err
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_info`).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		if _, err := db.Exec(`INSERT INTO schema_info (version) VALUES (?)`, schemaVersion); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// SchemaVersion returns the stored schema version marker
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, `SELECT version FROM schema_info`).Scan(&v); err != nil {
		return 0, models.StorageError("store.SchemaVersion", err)
	}
	return v, nil
}

// Put inserts or overwrites the item by key. It is a pure keyed
// upsert; business fields are not validated here.
func (s *Store) Put(ctx context.Context, collection, key string, payload []byte) error {
	query := `INSERT INTO items (collection, key, payload, created_at) VALUES (?, ?, ?, ?)
	          ON CONFLICT(collection, key) DO UPDATE SET payload = excluded.payload`
	if _, err := s.db.ExecContext(ctx, query, collection, key, payload, time.Now().UTC()); err != nil {
		return models.StorageError("store.Put", err)
	}
	return nil
}

// Get performs a point lookup. Returns ErrNotFound for an absent key.
func (s *Store) Get(ctx context.Context, collection, key string) ([]byte, error) {
	var payload []byte
	query := `SELECT payload FROM items WHERE collection = ? AND key = ?`
	err := s.db.QueryRowContext(ctx, query, collection, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, models.StorageError("store.Get", err)
	}
	return payload, nil
}

// Item is a stored entry with its key
type Item struct {
	Key     string
	Payload []byte
}

// GetAll returns every item in the collection in insertion order.
// Callers must not rely on FIFO ordering being preserved by every
// engine; the drain loop treats the returned order as authoritative
// for a single pass only.
func (s *Store) GetAll(ctx context.Context, collection string) ([]Item, error) {
	query := `SELECT key, payload FROM items WHERE collection = ? ORDER BY rowid`
	rows, err := s.db.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, models.StorageError("store.GetAll", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.Key, &it.Payload); err != nil {
			return nil, models.StorageError("store.GetAll", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, models.StorageError("store.GetAll", err)
	}
	return items, nil
}

// Delete removes an item by key. Deleting an absent key is a no-op.
func (s *Store) Delete(ctx context.Context, collection, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE collection = ? AND key = ?`, collection, key); err != nil {
		return models.StorageError("store.Delete", err)
	}
	return nil
}

// Count returns the number of items in the collection
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE collection = ?`, collection).Scan(&n); err != nil {
		return 0, models.StorageError("store.Count", err)
	}
	return n, nil
}
