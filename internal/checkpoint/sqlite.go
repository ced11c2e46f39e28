// Package checkpoint persists per-location crawl progress so an interrupted
// crawl can resume where it stopped.
package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// Cursor is the saved pagination state of one (keyword, location) pair.
type Cursor struct {
	Keyword   string
	Location  string
	NextPage  int
	PageBound int
	Done      bool
	RunID     string
	UpdatedAt time.Time
}

// Store keeps cursors in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens the SQLite database at dsn and configures WAL mode.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "checkpoint: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "checkpoint: exec %s", pragma)
		}
	}
	return &Store{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS crawl_cursor (
	keyword    TEXT NOT NULL,
	location   TEXT NOT NULL,
	next_page  INTEGER NOT NULL DEFAULT 1,
	page_bound INTEGER NOT NULL DEFAULT 1,
	done       INTEGER NOT NULL DEFAULT 0,
	run_id     TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (keyword, location)
);
`

// Migrate creates the cursor table if needed.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "checkpoint: migrate")
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the cursor for keyword and location, or nil when none is saved.
func (s *Store) Load(ctx context.Context, keyword, location string) (*Cursor, error) {
	c := Cursor{Keyword: keyword, Location: location}
	var done int
	err := s.db.QueryRowContext(ctx,
		`SELECT next_page, page_bound, done, run_id, updated_at FROM crawl_cursor WHERE keyword = ? AND location = ?`,
		keyword, location,
	).Scan(&c.NextPage, &c.PageBound, &done, &c.RunID, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "checkpoint: load %s/%s", keyword, location)
	}
	c.Done = done != 0
	return &c, nil
}

// Save inserts or replaces the cursor.
func (s *Store) Save(ctx context.Context, c Cursor) error {
	done := 0
	if c.Done {
		done = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO crawl_cursor (keyword, location, next_page, page_bound, done, run_id, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (keyword, location) DO UPDATE SET
			next_page = excluded.next_page,
			page_bound = excluded.page_bound,
			done = excluded.done,
			run_id = excluded.run_id,
			updated_at = excluded.updated_at`,
		c.Keyword, c.Location, c.NextPage, c.PageBound, done, c.RunID, time.Now().UTC(),
	)
	return eris.Wrapf(err, "checkpoint: save %s/%s", c.Keyword, c.Location)
}

// Reset forgets every cursor saved for keyword.
func (s *Store) Reset(ctx context.Context, keyword string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM crawl_cursor WHERE keyword = ?`, keyword)
	if err != nil {
		return 0, eris.Wrapf(err, "checkpoint: reset %s", keyword)
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "checkpoint: rows affected")
}
