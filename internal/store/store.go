package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/ProjectApnapan/apnapan-pulse/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = eris.New("store: not found")

// ErrDuplicate is returned when a record with the same key already exists.
var ErrDuplicate = eris.New("store: duplicate key")

// FileStore keeps every uploaded file version per owner.
type FileStore interface {
	StoreFile(ctx context.Context, owner, filename string, data []byte) (*model.StoredFile, error)
	// ListFiles returns the latest version of each filename, newest first.
	ListFiles(ctx context.Context, owner string) ([]model.FileEntry, error)
	// FetchFile returns the newest version of filename or ErrNotFound.
	FetchFile(ctx context.Context, owner, filename string) ([]byte, error)
}

// AccountStore persists school accounts.
type AccountStore interface {
	CreateAccount(ctx context.Context, acc model.Account) error
	GetAccount(ctx context.Context, schoolID string) (*model.Account, error)
	UpdatePassword(ctx context.Context, schoolID, hash string) error
}

// FeedbackStore records user feedback.
type FeedbackStore interface {
	AddFeedback(ctx context.Context, text string) (*model.Feedback, error)
}

// Store defines the persistence interface for the dashboard.
type Store interface {
	FileStore
	AccountStore
	FeedbackStore

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the backend named by driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite":
		s, err := NewSQLite(dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := NewPostgres(ctx, dsn, nil)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, eris.Errorf("store: unknown driver %q", driver)
}
