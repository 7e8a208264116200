// Package sheets keeps school accounts and feedback in a Google spreadsheet,
// one row per record.
package sheets

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/ProjectApnapan/apnapan-pulse/internal/model"
	"github.com/ProjectApnapan/apnapan-pulse/internal/resilience"
	"github.com/ProjectApnapan/apnapan-pulse/internal/store"
)

// Account sheet columns, in order.
const (
	colSchoolID = iota
	colHash
	colSalt
	colEmail
	colSchoolName
	colLogo
	colCreated
	numCols
)

const timeLayout = "2006-01-02 15:04:05"

// Config locates the spreadsheet and its tabs.
type Config struct {
	SpreadsheetID   string
	CredentialsFile string
	AccountSheet    string
	FeedbackSheet   string
	// Retry governs throttled or failed calls. Zero uses
	// resilience.DefaultPolicy.
	Retry resilience.Policy
}

// Client wraps the Sheets values API for one spreadsheet.
type Client struct {
	svc           *gsheets.Service
	spreadsheetID string
	accountSheet  string
	feedbackSheet string
	retry         resilience.Policy
}

// ClientOptions builds credentials from the given file, or from
// GOOGLE_APPLICATION_CREDENTIALS_JSON / GOOGLE_APPLICATION_CREDENTIALS.
func ClientOptions(credentialsFile string) []option.ClientOption {
	creds := strings.TrimSpace(credentialsFile)
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	}
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	opts := []option.ClientOption{option.WithScopes(gsheets.SpreadsheetsScope)}
	if creds == "" {
		return opts
	}
	if strings.HasPrefix(creds, "{") {
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	} else {
		opts = append(opts, option.WithCredentialsFile(creds))
	}
	return opts
}

// New creates a client. Extra options are appended after the credential
// options, so tests can point the client at a local endpoint.
func New(ctx context.Context, cfg Config, extra ...option.ClientOption) (*Client, error) {
	if cfg.SpreadsheetID == "" {
		return nil, eris.New("sheets: spreadsheet id is required")
	}
	opts := append(ClientOptions(cfg.CredentialsFile), extra...)
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "sheets: create service")
	}
	c := &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		accountSheet:  cfg.AccountSheet,
		feedbackSheet: cfg.FeedbackSheet,
		retry:         cfg.Retry,
	}
	if c.retry.MaxAttempts == 0 {
		c.retry = resilience.DefaultPolicy("sheets")
	}
	if c.accountSheet == "" {
		c.accountSheet = "Accounts"
	}
	if c.feedbackSheet == "" {
		c.feedbackSheet = "Feedback"
	}
	return c, nil
}

func (c *Client) readRows(ctx context.Context, rng string) ([][]string, error) {
	vr, err := resilience.Do(ctx, c.retry, func(ctx context.Context) (*gsheets.ValueRange, error) {
		return c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	})
	if err != nil {
		return nil, eris.Wrapf(err, "sheets: read %s", rng)
	}
	rows := make([][]string, len(vr.Values))
	for i, row := range vr.Values {
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = fmt.Sprint(v)
		}
		rows[i] = rec
	}
	return rows, nil
}

func (c *Client) appendRow(ctx context.Context, sheet string, row []any) error {
	vr := &gsheets.ValueRange{Values: [][]any{row}}
	_, err := resilience.Do(ctx, c.retry, func(ctx context.Context) (*gsheets.AppendValuesResponse, error) {
		return c.svc.Spreadsheets.Values.Append(c.spreadsheetID, sheet+"!A1", vr).
			ValueInputOption("RAW").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).
			Do()
	})
	return eris.Wrapf(err, "sheets: append to %s", sheet)
}

// AccountStore implements store.AccountStore on the account sheet. Row 1
// is a header.
type AccountStore struct {
	c *Client
}

// NewAccountStore returns an account store over c.
func NewAccountStore(c *Client) *AccountStore { return &AccountStore{c: c} }

var _ store.AccountStore = (*AccountStore)(nil)

// findRow returns the record and its 1-based sheet row for schoolID.
func (s *AccountStore) findRow(ctx context.Context, schoolID string) ([]string, int, error) {
	rows, err := s.c.readRows(ctx, fmt.Sprintf("%s!A:G", s.c.accountSheet))
	if err != nil {
		return nil, 0, err
	}
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		if row[colSchoolID] == schoolID {
			return row, i + 1, nil
		}
	}
	return nil, 0, nil
}

func (s *AccountStore) CreateAccount(ctx context.Context, acc model.Account) error {
	row, _, err := s.findRow(ctx, acc.SchoolID)
	if err != nil {
		return err
	}
	if row != nil {
		return eris.Wrapf(store.ErrDuplicate, "account %s", acc.SchoolID)
	}
	created := acc.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	rec := make([]any, numCols)
	rec[colSchoolID] = acc.SchoolID
	rec[colHash] = acc.PasswordHash
	rec[colSalt] = acc.LegacySalt
	rec[colEmail] = acc.Email
	rec[colSchoolName] = acc.SchoolName
	rec[colLogo] = acc.LogoFile
	rec[colCreated] = created.Format(timeLayout)
	if err := s.c.appendRow(ctx, s.c.accountSheet, rec); err != nil {
		return err
	}
	zap.L().Info("sheets: account created", zap.String("school_id", acc.SchoolID))
	return nil
}

func (s *AccountStore) GetAccount(ctx context.Context, schoolID string) (*model.Account, error) {
	row, _, err := s.findRow(ctx, schoolID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, eris.Wrapf(store.ErrNotFound, "account %s", schoolID)
	}
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	acc := &model.Account{
		SchoolID:     cell(colSchoolID),
		PasswordHash: cell(colHash),
		LegacySalt:   cell(colSalt),
		Email:        cell(colEmail),
		SchoolName:   cell(colSchoolName),
		LogoFile:     cell(colLogo),
	}
	if t, err := time.Parse(timeLayout, cell(colCreated)); err == nil {
		acc.CreatedAt = t
	}
	return acc, nil
}

func (s *AccountStore) UpdatePassword(ctx context.Context, schoolID, hash string) error {
	row, n, err := s.findRow(ctx, schoolID)
	if err != nil {
		return err
	}
	if row == nil {
		return eris.Wrapf(store.ErrNotFound, "account %s", schoolID)
	}
	rng := fmt.Sprintf("%s!B%d:C%d", s.c.accountSheet, n, n)
	vr := &gsheets.ValueRange{Values: [][]any{{hash, ""}}}
	_, err = resilience.Do(ctx, s.c.retry, func(ctx context.Context) (*gsheets.UpdateValuesResponse, error) {
		return s.c.svc.Spreadsheets.Values.Update(s.c.spreadsheetID, rng, vr).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
	})
	return eris.Wrapf(err, "sheets: update password %s", schoolID)
}

// FeedbackStore implements store.FeedbackStore on the feedback sheet.
type FeedbackStore struct {
	c   *Client
	now func() time.Time
}

// NewFeedbackStore returns a feedback store over c.
func NewFeedbackStore(c *Client) *FeedbackStore { return &FeedbackStore{c: c, now: time.Now} }

var _ store.FeedbackStore = (*FeedbackStore)(nil)

func (s *FeedbackStore) AddFeedback(ctx context.Context, text string) (*model.Feedback, error) {
	fb := &model.Feedback{Text: text, CreatedAt: s.now()}
	if err := s.c.appendRow(ctx, s.c.feedbackSheet, []any{fb.CreatedAt.Format(timeLayout), text}); err != nil {
		return nil, err
	}
	return fb, nil
}
