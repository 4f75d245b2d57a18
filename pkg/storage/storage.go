// Package storage persists correspondence sessions in SQLite so a pick
// session can be resumed later.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"slicealign/pkg/correspondence"
)

// ErrNotFound is returned when no session has the requested id.
var ErrNotFound = errors.New("session not found")

// timeLayout has a fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store wraps SQLite-backed persistence for session snapshots.
type Store struct {
	DB *sql.DB
}

// Record describes a saved session without its payload.
type Record struct {
	ID        string
	Name      string
	Slices    int
	Points    int
	Computed  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New opens (or creates) the database at path and ensures schema.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{DB: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            slice_count INTEGER NOT NULL,
            point_count INTEGER NOT NULL,
            computed BOOLEAN NOT NULL DEFAULT FALSE,
            snapshot_json TEXT NOT NULL,
            created_at TEXT NOT NULL,
            updated_at TEXT NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.DB.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying DB.
func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

// Save inserts a snapshot under a fresh id and returns it.
func (s *Store) Save(ctx context.Context, name string, snap correspondence.Snapshot) (string, error) {
	id := uuid.NewString()
	if err := s.Put(ctx, id, name, snap); err != nil {
		return "", err
	}
	return id, nil
}

// Put stores snap under id, replacing any earlier version but keeping its
// creation time.
func (s *Store) Put(ctx context.Context, id, name string, snap correspondence.Snapshot) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("session id %q: %w", id, err)
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	now := time.Now().UTC().Format(timeLayout)
	_, err = s.DB.ExecContext(ctx, `INSERT INTO sessions (id, name, slice_count, point_count, computed, snapshot_json, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET name=excluded.name, slice_count=excluded.slice_count, point_count=excluded.point_count,
            computed=excluded.computed, snapshot_json=excluded.snapshot_json, updated_at=excluded.updated_at;`,
		id, name, len(snap.Slices), pointCount(snap), snap.Computed, string(payload), now, now)
	if err != nil {
		return fmt.Errorf("save session %s: %w", id, err)
	}
	return nil
}

// Load returns the snapshot saved under id.
func (s *Store) Load(ctx context.Context, id string) (correspondence.Snapshot, error) {
	var payload string
	err := s.DB.QueryRowContext(ctx, `SELECT snapshot_json FROM sessions WHERE id=?;`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return correspondence.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return correspondence.Snapshot{}, err
	}

	var snap correspondence.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return correspondence.Snapshot{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return snap, nil
}

// Get returns the record for id.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT id, name, slice_count, point_count, computed, created_at, updated_at FROM sessions WHERE id=?;`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, err
}

// List returns saved sessions, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, name, slice_count, point_count, computed, created_at, updated_at FROM sessions ORDER BY updated_at DESC, rowid DESC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Delete removes the session saved under id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM sessions WHERE id=?;`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var rec Record
	var created, updated string
	if err := row.Scan(&rec.ID, &rec.Name, &rec.Slices, &rec.Points, &rec.Computed, &created, &updated); err != nil {
		return Record{}, err
	}
	var err error
	if rec.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return Record{}, fmt.Errorf("session %s created_at: %w", rec.ID, err)
	}
	if rec.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return Record{}, fmt.Errorf("session %s updated_at: %w", rec.ID, err)
	}
	return rec, nil
}

func pointCount(snap correspondence.Snapshot) int {
	n := 0
	for _, sl := range snap.Slices {
		n += len(sl.Points)
	}
	return n
}
