// Package sqlite is a local inbox backed by a single SQLite table. Records
// move between collections the way pages move between databases.
package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/aktagon/inbox-sorter/internal/content"
	"github.com/aktagon/inbox-sorter/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id            TEXT PRIMARY KEY,
	collection    TEXT NOT NULL,
	display_name  TEXT NOT NULL DEFAULT '',
	link          TEXT NOT NULL DEFAULT '',
	file_url      TEXT NOT NULL DEFAULT '',
	file_name     TEXT NOT NULL DEFAULT '',
	platform_hint TEXT NOT NULL DEFAULT '',
	properties    TEXT,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_collection_created ON records(collection, created_at);
`

// timeLayout keeps timestamps fixed-width so they sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var _ store.Backend = (*Store)(nil)

// Record is a stored row: the source record plus its location and properties.
type Record struct {
	content.SourceRecord
	Collection string
	Properties content.Properties
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Store implements store.Backend over SQLite.
type Store struct {
	db      *sql.DB
	pending string

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// Open opens or creates the database at path and applies the schema.
// pending names the collection FetchNext reads from.
func Open(ctx context.Context, path, pending string) (*Store, error) {
	if pending == "" {
		return nil, errors.New("pending collection is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{
		db:      db,
		pending: pending,
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) newID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String()
}

// Add inserts rec into collection, assigning a ULID when rec.ID is empty.
func (s *Store) Add(ctx context.Context, collection string, rec content.SourceRecord) (content.SourceRecord, error) {
	if rec.ID == "" {
		rec.ID = s.newID()
	}
	var fileURL, fileName string
	if rec.File != nil {
		fileURL, fileName = rec.File.URL, rec.File.Name
	}
	ts := s.now().Format(timeLayout)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO records (id, collection, display_name, link, file_url, file_name, platform_hint, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, collection, rec.DisplayName, rec.Link, fileURL, fileName, rec.PlatformHint, ts, ts,
	)
	if err != nil {
		return content.SourceRecord{}, fmt.Errorf("insert record: %w", err)
	}
	return rec, nil
}

// FetchNext returns the oldest record in the pending collection.
func (s *Store) FetchNext(ctx context.Context) (*content.SourceRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM records WHERE collection = ? ORDER BY created_at, id LIMIT 1`, s.pending)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch next: %w", err)
	}
	return &rec.SourceRecord, nil
}

// Relocate moves the record into destinationID.
func (s *Store) Relocate(ctx context.Context, id, destinationID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE records SET collection = ?, updated_at = ? WHERE id = ?`,
		destinationID, s.now().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("relocate %s: %w", id, err)
	}
	return requireAffected(res, id)
}

// WriteProperties replaces the record's properties.
func (s *Store) WriteProperties(ctx context.Context, id string, props content.Properties) error {
	data, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("marshal properties: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE records SET properties = ?, updated_at = ? WHERE id = ?`,
		string(data), s.now().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("write properties %s: %w", id, err)
	}
	return requireAffected(res, id)
}

// Get returns one record by id.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+columns+` FROM records WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	return rec, nil
}

// List returns every record in collection, oldest first. An empty
// collection name lists all records.
func (s *Store) List(ctx context.Context, collection string) ([]*Record, error) {
	query := `SELECT ` + columns + ` FROM records`
	var args []any
	if collection != "" {
		query += ` WHERE collection = ?`
		args = append(args, collection)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

const columns = `id, collection, display_name, link, file_url, file_name, platform_hint, properties, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		rec                  Record
		fileURL, fileName    string
		props                sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&rec.ID, &rec.Collection, &rec.DisplayName, &rec.Link, &fileURL, &fileName,
		&rec.PlatformHint, &props, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if fileURL != "" {
		rec.File = &content.FileRef{URL: fileURL, Name: fileName}
	}
	if props.Valid && props.String != "" {
		if err := json.Unmarshal([]byte(props.String), &rec.Properties); err != nil {
			return nil, fmt.Errorf("decode properties: %w", err)
		}
	}
	rec.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	rec.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
	return &rec, nil
}

func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, store.ErrNotFound)
	}
	return nil
}
