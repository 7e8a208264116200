package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/ProjectApnapan/apnapan-pulse/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS files (
	id          TEXT PRIMARY KEY,
	owner       TEXT NOT NULL,
	filename    TEXT NOT NULL,
	data        BLOB NOT NULL,
	size        INTEGER NOT NULL,
	uploaded_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
	school_id     TEXT PRIMARY KEY,
	password_hash TEXT NOT NULL,
	legacy_salt   TEXT NOT NULL DEFAULT '',
	email         TEXT NOT NULL,
	school_name   TEXT NOT NULL,
	logo_file     TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS feedback (
	id         TEXT PRIMARY KEY,
	text       TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_files_owner_name ON files(owner, filename, uploaded_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) StoreFile(ctx context.Context, owner, filename string, data []byte) (*model.StoredFile, error) {
	f := &model.StoredFile{
		ID:         uuid.New().String(),
		Owner:      owner,
		Filename:   filename,
		Data:       data,
		Size:       len(data),
		UploadedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO files (id, owner, filename, data, size, uploaded_at) VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, f.Owner, f.Filename, f.Data, f.Size, f.UploadedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert file %s", filename)
	}
	return f, nil
}

func (s *SQLiteStore) ListFiles(ctx context.Context, owner string) ([]model.FileEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT filename, size, uploaded_at FROM files WHERE owner = ? ORDER BY uploaded_at DESC, rowid DESC`,
		owner,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list files")
	}
	defer rows.Close() //nolint:errcheck

	var versions []model.FileEntry
	for rows.Next() {
		var e model.FileEntry
		if err := rows.Scan(&e.Filename, &e.Size, &e.UploadedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan file")
		}
		versions = append(versions, e)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate files")
	}
	return latestVersions(versions), nil
}

func (s *SQLiteStore) FetchFile(ctx context.Context, owner, filename string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM files WHERE owner = ? AND filename = ? ORDER BY uploaded_at DESC, rowid DESC LIMIT 1`,
		owner, filename,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "file %s", filename)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: fetch file %s", filename)
	}
	return data, nil
}

func (s *SQLiteStore) CreateAccount(ctx context.Context, acc model.Account) error {
	if acc.CreatedAt.IsZero() {
		acc.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (school_id, password_hash, legacy_salt, email, school_name, logo_file, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		acc.SchoolID, acc.PasswordHash, acc.LegacySalt, acc.Email, acc.SchoolName, acc.LogoFile, acc.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return eris.Wrapf(ErrDuplicate, "account %s", acc.SchoolID)
		}
		return eris.Wrapf(err, "sqlite: insert account %s", acc.SchoolID)
	}
	return nil
}

func (s *SQLiteStore) GetAccount(ctx context.Context, schoolID string) (*model.Account, error) {
	var a model.Account
	err := s.db.QueryRowContext(ctx,
		`SELECT school_id, password_hash, legacy_salt, email, school_name, logo_file, created_at
		 FROM accounts WHERE school_id = ?`,
		schoolID,
	).Scan(&a.SchoolID, &a.PasswordHash, &a.LegacySalt, &a.Email, &a.SchoolName, &a.LogoFile, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "account %s", schoolID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get account %s", schoolID)
	}
	return &a, nil
}

func (s *SQLiteStore) UpdatePassword(ctx context.Context, schoolID, hash string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET password_hash = ?, legacy_salt = '' WHERE school_id = ?`,
		hash, schoolID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update password %s", schoolID)
	}
	return checkRowsAffected(res, "account", schoolID)
}

func (s *SQLiteStore) AddFeedback(ctx context.Context, text string) (*model.Feedback, error) {
	fb := &model.Feedback{ID: uuid.New().String(), Text: text, CreatedAt: time.Now().UTC()}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback (id, text, created_at) VALUES (?, ?, ?)`,
		fb.ID, fb.Text, fb.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert feedback")
	}
	return fb, nil
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

// latestVersions keeps the first entry per filename from a newest-first
// list and counts the versions seen.
func latestVersions(newestFirst []model.FileEntry) []model.FileEntry {
	idx := make(map[string]int)
	var out []model.FileEntry
	for _, e := range newestFirst {
		if i, ok := idx[e.Filename]; ok {
			out[i].Versions++
			continue
		}
		e.Versions = 1
		idx[e.Filename] = len(out)
		out = append(out, e)
	}
	return out
}
