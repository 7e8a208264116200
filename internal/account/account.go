// Package account manages school accounts: registration, login, password
// reset and the school details shown on reports.
package account

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ProjectApnapan/apnapan-pulse/internal/model"
	"github.com/ProjectApnapan/apnapan-pulse/internal/store"
)

// DefaultMinPasswordLength is used when the service is built without one.
const DefaultMinPasswordLength = 6

var (
	ErrPasswordTooShort = eris.New("account: password too short")
	ErrDuplicateID      = eris.New("account: school id already exists")
	ErrNotFound         = eris.New("account: school id not found")
	ErrInvalidPassword  = eris.New("account: invalid password")
	ErrEmailMismatch    = eris.New("account: email does not match")
	ErrMissingField     = eris.New("account: missing required field")
)

// CreateRequest carries the registration form.
type CreateRequest struct {
	SchoolID   string
	Password   string
	Email      string
	SchoolName string
	Logo       []byte
	LogoName   string
}

// Service implements account operations over an AccountStore. Logos go to
// the FileStore under the owning school's ID.
type Service struct {
	accounts  store.AccountStore
	files     store.FileStore
	minLength int
	cost      int
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithMinPasswordLength overrides DefaultMinPasswordLength.
func WithMinPasswordLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.minLength = n
		}
	}
}

// WithBcryptCost sets the bcrypt work factor. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// NewService returns a Service. files may be nil, in which case logos are
// not stored.
func NewService(accounts store.AccountStore, files store.FileStore, opts ...Option) *Service {
	s := &Service{
		accounts:  accounts,
		files:     files,
		minLength: DefaultMinPasswordLength,
		cost:      bcrypt.DefaultCost,
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// LogoFilename is the history name used for a school's logo.
func LogoFilename(schoolID, uploadName string) string {
	return "logo_" + schoolID + strings.ToLower(filepath.Ext(uploadName))
}

// Create registers a new school.
func (s *Service) Create(ctx context.Context, req CreateRequest) error {
	req.SchoolID = strings.TrimSpace(req.SchoolID)
	if req.SchoolID == "" || strings.TrimSpace(req.SchoolName) == "" {
		return ErrMissingField
	}
	if len(req.Password) < s.minLength {
		return eris.Wrapf(ErrPasswordTooShort, "minimum %d characters", s.minLength)
	}

	if _, err := s.accounts.GetAccount(ctx, req.SchoolID); err == nil {
		return ErrDuplicateID
	} else if !errors.Is(err, store.ErrNotFound) {
		return eris.Wrap(err, "account: lookup")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return eris.Wrap(err, "account: hash password")
	}

	acc := model.Account{
		SchoolID:     req.SchoolID,
		PasswordHash: string(hash),
		Email:        strings.TrimSpace(req.Email),
		SchoolName:   strings.TrimSpace(req.SchoolName),
		CreatedAt:    s.now().UTC(),
	}

	if len(req.Logo) > 0 && s.files != nil {
		name := LogoFilename(req.SchoolID, req.LogoName)
		if _, err := s.files.StoreFile(ctx, req.SchoolID, name, req.Logo); err != nil {
			return eris.Wrap(err, "account: save logo")
		}
		acc.LogoFile = name
	}

	if err := s.accounts.CreateAccount(ctx, acc); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return ErrDuplicateID
		}
		return eris.Wrap(err, "account: create")
	}
	zap.L().Info("account: created", zap.String("school_id", acc.SchoolID))
	return nil
}

// Login checks the password for schoolID. A wrong password yields
// (false, ErrInvalidPassword); an unknown school yields (false, ErrNotFound).
// Accounts still carrying a salted SHA-256 hash are moved to bcrypt on a
// successful login.
func (s *Service) Login(ctx context.Context, schoolID, password string) (bool, error) {
	acc, err := s.get(ctx, schoolID)
	if err != nil {
		return false, err
	}

	if acc.LegacySalt != "" {
		if !legacyMatch(acc.PasswordHash, acc.LegacySalt, password) {
			return false, ErrInvalidPassword
		}
		if err := s.setPassword(ctx, acc.SchoolID, password); err != nil {
			zap.L().Warn("account: upgrade legacy hash", zap.String("school_id", acc.SchoolID), zap.Error(err))
		}
		return true, nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)); err != nil {
		return false, ErrInvalidPassword
	}
	return true, nil
}

// VerifyReset confirms that email matches the one registered for schoolID.
// The comparison ignores case and surrounding space.
func (s *Service) VerifyReset(ctx context.Context, schoolID, email string) error {
	acc, err := s.get(ctx, schoolID)
	if err != nil {
		return err
	}
	if !strings.EqualFold(strings.TrimSpace(acc.Email), strings.TrimSpace(email)) {
		return ErrEmailMismatch
	}
	return nil
}

// ResetPassword replaces the password for schoolID.
func (s *Service) ResetPassword(ctx context.Context, schoolID, password string) error {
	if len(password) < s.minLength {
		return eris.Wrapf(ErrPasswordTooShort, "minimum %d characters", s.minLength)
	}
	if _, err := s.get(ctx, schoolID); err != nil {
		return err
	}
	if err := s.setPassword(ctx, schoolID, password); err != nil {
		return err
	}
	zap.L().Info("account: password reset", zap.String("school_id", schoolID))
	return nil
}

// SchoolDetails returns the display name and logo bytes for schoolID. A
// missing logo file is logged and returned as nil.
func (s *Service) SchoolDetails(ctx context.Context, schoolID string) (string, []byte, error) {
	acc, err := s.get(ctx, schoolID)
	if err != nil {
		return "", nil, err
	}
	if acc.LogoFile == "" || s.files == nil {
		return acc.SchoolName, nil, nil
	}
	logo, err := s.files.FetchFile(ctx, acc.SchoolID, acc.LogoFile)
	if err != nil {
		zap.L().Warn("account: fetch logo",
			zap.String("school_id", acc.SchoolID),
			zap.String("logo", acc.LogoFile),
			zap.Error(err),
		)
		return acc.SchoolName, nil, nil
	}
	return acc.SchoolName, logo, nil
}

func (s *Service) get(ctx context.Context, schoolID string) (*model.Account, error) {
	acc, err := s.accounts.GetAccount(ctx, strings.TrimSpace(schoolID))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "account: lookup")
	}
	return acc, nil
}

func (s *Service) setPassword(ctx context.Context, schoolID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return eris.Wrap(err, "account: hash password")
	}
	if err := s.accounts.UpdatePassword(ctx, schoolID, string(hash)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return eris.Wrap(err, "account: update password")
	}
	return nil
}

// legacyMatch verifies hex(sha256(salt || password)).
func legacyMatch(stored, salt, password string) bool {
	return subtle.ConstantTimeCompare([]byte(legacyHash(salt, password)), []byte(stored)) == 1
}

func legacyHash(salt, password string) string {
	sum := sha256.Sum256([]byte(salt + password))
	return hex.EncodeToString(sum[:])
}
