package catalog

// Store keeps listings in SQLite. The database file is created on first use.

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/glebarez/go-sqlite"

	"github.com/comigor/bodi-go/internal/logger"
)

const schema = `CREATE TABLE IF NOT EXISTS listings (
    id TEXT PRIMARY KEY,
    position INTEGER NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    location TEXT NOT NULL,
    type TEXT NOT NULL DEFAULT '',
    price_minor INTEGER NOT NULL,
    media_refs TEXT NOT NULL DEFAULT '[]',
    verified INTEGER NOT NULL DEFAULT 0,
    safety_score REAL NOT NULL DEFAULT 0,
    amenities TEXT NOT NULL DEFAULT '[]'
);`

const selectColumns = `SELECT id, title, description, location, type, price_minor, media_refs, verified, safety_score, amenities FROM listings`

// Store is a SQLite-backed listing table. It implements Loader.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the database at path. Use ":memory:" for a
// throwaway store.
func OpenStore(path string) (*Store, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(10000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create listings table: %w", err)
	}
	logger.L.Info("sqlite catalog initialized", "path", path)
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Upsert inserts or replaces entries, keeping their relative order for List.
func (s *Store) Upsert(ctx context.Context, entries []Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := upsertTx(ctx, tx, entries); err != nil {
		return err
	}
	return tx.Commit()
}

// Replace makes entries the whole catalog: listings not in entries are
// deleted and List order follows entries. It runs in one transaction.
func (s *Store) Replace(ctx context.Context, entries []Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM listings;`); err != nil {
		return fmt.Errorf("clear listings: %w", err)
	}
	if err := upsertTx(ctx, tx, entries); err != nil {
		return err
	}
	return tx.Commit()
}

func upsertTx(ctx context.Context, tx *sql.Tx, entries []Entry) error {
	var next int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), -1) + 1 FROM listings;`).Scan(&next); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO listings
        (id, position, title, description, location, type, price_minor, media_refs, verified, safety_score, amenities)
        VALUES (?,?,?,?,?,?,?,?,?,?,?)
        ON CONFLICT(id) DO UPDATE SET
            title=excluded.title, description=excluded.description, location=excluded.location,
            type=excluded.type, price_minor=excluded.price_minor, media_refs=excluded.media_refs,
            verified=excluded.verified, safety_score=excluded.safety_score, amenities=excluded.amenities;`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, e := range entries {
		media, err := json.Marshal(nonNil(e.MediaRefs))
		if err != nil {
			return err
		}
		amenities, err := json.Marshal(nonNil(e.Amenities))
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, e.ID, next+i, e.Title, e.Description, e.Location, e.Type,
			e.PriceMinor, string(media), e.Verified, e.SafetyScore, string(amenities)); err != nil {
			return fmt.Errorf("upsert %s: %w", e.ID, err)
		}
	}
	return nil
}

// List returns the listings matching f in insertion order.
func (s *Store) List(ctx context.Context, f Filter) ([]Entry, error) {
	query := selectColumns + ` WHERE 1=1`
	var args []any
	if f.Location != "" {
		query += ` AND instr(lower(location), lower(?)) > 0`
		args = append(args, f.Location)
	}
	if f.MaxPriceMinor > 0 {
		query += ` AND price_minor <= ?`
		args = append(args, f.MaxPriceMinor)
	}
	if f.VerifiedOnly {
		query += ` AND verified = 1`
	}
	query += ` ORDER BY position ASC;`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Get returns one listing or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?;`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	return e, err
}

// Count returns the number of stored listings.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings;`).Scan(&n)
	return n, err
}

// Load implements Loader by listing everything.
func (s *Store) Load(ctx context.Context) ([]Entry, error) {
	return s.List(ctx, Filter{})
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(r scanner) (Entry, error) {
	var (
		e         Entry
		media     string
		amenities string
	)
	if err := r.Scan(&e.ID, &e.Title, &e.Description, &e.Location, &e.Type, &e.PriceMinor,
		&media, &e.Verified, &e.SafetyScore, &amenities); err != nil {
		return Entry{}, err
	}
	if err := json.Unmarshal([]byte(media), &e.MediaRefs); err != nil {
		return Entry{}, fmt.Errorf("decode media_refs for %s: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(amenities), &e.Amenities); err != nil {
		return Entry{}, fmt.Errorf("decode amenities for %s: %w", e.ID, err)
	}
	return e, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
