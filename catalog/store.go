package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/tsawler/piscan/model"
)

// ErrIndexWriteConflict is returned when a page commit stays blocked by
// another writer after a retry.
var ErrIndexWriteConflict = errors.New("catalog: write conflict")

const schema = `
CREATE TABLE IF NOT EXISTS books (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	archive_id TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS artifacts (
	id         TEXT PRIMARY KEY,
	value      INTEGER NOT NULL,
	book_id    TEXT NOT NULL,
	page_id    TEXT NOT NULL,
	x0         INTEGER NOT NULL,
	y0         INTEGER NOT NULL,
	x1         INTEGER NOT NULL,
	y1         INTEGER NOT NULL,
	crop_x0    INTEGER NOT NULL,
	crop_y0    INTEGER NOT NULL,
	crop_x1    INTEGER NOT NULL,
	crop_y1    INTEGER NOT NULL,
	form       TEXT NOT NULL,
	path       TEXT NOT NULL,
	width      INTEGER NOT NULL,
	height     INTEGER NOT NULL,
	confidence REAL NOT NULL,
	created_at TEXT NOT NULL,
	UNIQUE (book_id, page_id, x0, y0, x1, y1)
);

CREATE INDEX IF NOT EXISTS artifacts_value ON artifacts (value);

CREATE TABLE IF NOT EXISTS pages (
	book_id    TEXT NOT NULL,
	page_id    TEXT NOT NULL,
	spans      INTEGER NOT NULL,
	artifacts  INTEGER NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (book_id, page_id)
);
`

// conflictBackoff is the pause before retrying a blocked commit.
var conflictBackoff = 250 * time.Millisecond

// Store persists the catalog in a SQLite database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens or creates the catalog database at path.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("catalog.open", "path", path)

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: create schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// OpenExisting opens the catalog at path without creating it. A missing
// path fails with an error matching os.ErrNotExist.
func OpenExisting(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("catalog: %s is a directory", path)
	}
	return Open(ctx, path, logger)
}

// Close closes the database.
func (s *Store) Close() error {
	s.logger.Debug("catalog.close")
	return s.db.Close()
}

// PutBook records or updates a book's attribution details.
func (s *Store) PutBook(ctx context.Context, book model.Book) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO books (id, title, archive_id) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET title = excluded.title, archive_id = excluded.archive_id`,
		book.ID, book.Title, book.ArchiveID,
	)
	if err != nil {
		return fmt.Errorf("catalog: put book %s: %w", book.ID, err)
	}
	return nil
}

// Books returns the recorded books ordered by id.
func (s *Store) Books(ctx context.Context) ([]model.Book, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, archive_id FROM books ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list books: %w", err)
	}
	defer rows.Close()

	var books []model.Book
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.ArchiveID); err != nil {
			return nil, fmt.Errorf("catalog: scan book: %w", err)
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// PageCommit is everything recorded for one processed page.
type PageCommit struct {
	BookID    string
	PageID    string
	Spans     int
	Artifacts []model.TokenArtifact
}

// CommitPage writes a page's artifacts and its page record in a single
// transaction. Artifacts already present are ignored. It returns how many
// artifacts were new. A commit blocked by another writer is retried once;
// if it is still blocked the error matches ErrIndexWriteConflict.
func (s *Store) CommitPage(ctx context.Context, page PageCommit) (int, error) {
	var inserted int
	err := retryConflict(ctx, isBusy, func() error {
		n, err := s.commitPage(ctx, page)
		if err != nil && isBusy(err) {
			s.logger.Warn("catalog.commit.retry", "book", page.BookID, "page", page.PageID, "error", err)
		}
		inserted = n
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("catalog: commit %s/%s: %w", page.BookID, page.PageID, err)
	}
	return inserted, nil
}

func (s *Store) commitPage(ctx context.Context, page PageCommit) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO artifacts (
			id, value, book_id, page_id, x0, y0, x1, y1,
			crop_x0, crop_y0, crop_x1, crop_y1,
			form, path, width, height, confidence, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	inserted := 0
	for _, a := range page.Artifacts {
		res, err := stmt.ExecContext(ctx,
			a.ID.String(), a.Value, a.BookID, a.PageID,
			a.Source.Min.X, a.Source.Min.Y, a.Source.Max.X, a.Source.Max.Y,
			a.Crop.Min.X, a.Crop.Min.Y, a.Crop.Max.X, a.Crop.Max.Y,
			a.Form.String(), a.Path, a.Width, a.Height, a.Confidence, now,
		)
		if err != nil {
			return 0, err
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO pages (book_id, page_id, spans, artifacts, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (book_id, page_id) DO UPDATE
		SET spans = excluded.spans, artifacts = pages.artifacts + ?, updated_at = excluded.updated_at`,
		page.BookID, page.PageID, page.Spans, inserted, now, inserted,
	)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// retryConflict runs op and, if it fails with a conflict, runs it once more.
func retryConflict(ctx context.Context, conflict func(error) bool, op func() error) error {
	err := op()
	if err == nil || !conflict(err) {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(conflictBackoff):
	}

	err = op()
	if err != nil && conflict(err) {
		return fmt.Errorf("%w: %v", ErrIndexWriteConflict, err)
	}
	return err
}

// isBusy reports whether err is SQLITE_BUSY or SQLITE_LOCKED.
func isBusy(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	default:
		return false
	}
}

// PageCount returns the number of committed pages.
func (s *Store) PageCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("catalog: count pages: %w", err)
	}
	return n, nil
}

// Load reads every artifact into a new Index.
func (s *Store) Load(ctx context.Context) (*Index, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, value, book_id, page_id, x0, y0, x1, y1,
			crop_x0, crop_y0, crop_x1, crop_y1,
			form, path, width, height, confidence
		FROM artifacts
		ORDER BY book_id, page_id, y0, x0, y1, x1`)
	if err != nil {
		return nil, fmt.Errorf("catalog: load: %w", err)
	}
	defer rows.Close()

	index := NewIndex()
	for rows.Next() {
		var a model.TokenArtifact
		var id, form string
		var x0, y0, x1, y1, cx0, cy0, cx1, cy1 int
		err := rows.Scan(
			&id, &a.Value, &a.BookID, &a.PageID,
			&x0, &y0, &x1, &y1,
			&cx0, &cy0, &cx1, &cy1,
			&form, &a.Path, &a.Width, &a.Height, &a.Confidence,
		)
		if err != nil {
			return nil, fmt.Errorf("catalog: scan artifact: %w", err)
		}
		if a.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("catalog: artifact id %q: %w", id, err)
		}
		var ok bool
		if a.Form, ok = model.ParseForm(form); !ok {
			return nil, fmt.Errorf("catalog: artifact %s: unknown form %q", id, form)
		}
		a.Source = image.Rect(x0, y0, x1, y1)
		a.Crop = image.Rect(cx0, cy0, cx1, cy1)

		if _, err := index.Add(a); err != nil {
			return nil, fmt.Errorf("catalog: artifact %s: %w", id, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: load: %w", err)
	}

	s.logger.Debug("catalog.load", "artifacts", index.Len())
	return index, nil
}
