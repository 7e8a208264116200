package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/ProjectApnapan/apnapan-pulse/internal/model"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS files (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	owner       TEXT NOT NULL,
	filename    TEXT NOT NULL,
	data        BYTEA NOT NULL,
	size        INTEGER NOT NULL,
	uploaded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_files_owner_name ON files(owner, filename, uploaded_at DESC);

CREATE TABLE IF NOT EXISTS accounts (
	school_id     TEXT PRIMARY KEY,
	password_hash TEXT NOT NULL,
	legacy_salt   TEXT NOT NULL DEFAULT '',
	email         TEXT NOT NULL,
	school_name   TEXT NOT NULL,
	logo_file     TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS feedback (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	text       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) StoreFile(ctx context.Context, owner, filename string, data []byte) (*model.StoredFile, error) {
	f := &model.StoredFile{
		ID:         uuid.New().String(),
		Owner:      owner,
		Filename:   filename,
		Data:       data,
		Size:       len(data),
		UploadedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO files (id, owner, filename, data, size, uploaded_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		f.ID, f.Owner, f.Filename, f.Data, f.Size, f.UploadedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert file %s", filename)
	}
	return f, nil
}

func (s *PostgresStore) ListFiles(ctx context.Context, owner string) ([]model.FileEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT filename, size, uploaded_at, versions FROM (
			SELECT filename, size, uploaded_at,
			       count(*) OVER (PARTITION BY filename) AS versions,
			       row_number() OVER (PARTITION BY filename ORDER BY uploaded_at DESC) AS rn
			FROM files WHERE owner = $1
		) latest WHERE rn = 1 ORDER BY uploaded_at DESC`,
		owner,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list files")
	}
	defer rows.Close()

	var out []model.FileEntry
	for rows.Next() {
		var e model.FileEntry
		if err := rows.Scan(&e.Filename, &e.Size, &e.UploadedAt, &e.Versions); err != nil {
			return nil, eris.Wrap(err, "postgres: scan file")
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate files")
	}
	return out, nil
}

func (s *PostgresStore) FetchFile(ctx context.Context, owner, filename string) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM files WHERE owner = $1 AND filename = $2 ORDER BY uploaded_at DESC LIMIT 1`,
		owner, filename,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "file %s", filename)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: fetch file %s", filename)
	}
	return data, nil
}

func (s *PostgresStore) CreateAccount(ctx context.Context, acc model.Account) error {
	if acc.CreatedAt.IsZero() {
		acc.CreatedAt = time.Now().UTC()
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (school_id, password_hash, legacy_salt, email, school_name, logo_file, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (school_id) DO NOTHING`,
		acc.SchoolID, acc.PasswordHash, acc.LegacySalt, acc.Email, acc.SchoolName, acc.LogoFile, acc.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert account %s", acc.SchoolID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrDuplicate, "account %s", acc.SchoolID)
	}
	return nil
}

func (s *PostgresStore) GetAccount(ctx context.Context, schoolID string) (*model.Account, error) {
	var a model.Account
	err := s.pool.QueryRow(ctx,
		`SELECT school_id, password_hash, legacy_salt, email, school_name, logo_file, created_at
		 FROM accounts WHERE school_id = $1`,
		schoolID,
	).Scan(&a.SchoolID, &a.PasswordHash, &a.LegacySalt, &a.Email, &a.SchoolName, &a.LogoFile, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "account %s", schoolID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get account %s", schoolID)
	}
	return &a, nil
}

func (s *PostgresStore) UpdatePassword(ctx context.Context, schoolID, hash string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE accounts SET password_hash = $1, legacy_salt = '' WHERE school_id = $2`,
		hash, schoolID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update password %s", schoolID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "account %s", schoolID)
	}
	return nil
}

func (s *PostgresStore) AddFeedback(ctx context.Context, text string) (*model.Feedback, error) {
	fb := &model.Feedback{ID: uuid.New().String(), Text: text, CreatedAt: time.Now().UTC()}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO feedback (id, text, created_at) VALUES ($1, $2, $3)`,
		fb.ID, fb.Text, fb.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert feedback")
	}
	return fb, nil
}
