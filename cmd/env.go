package main

import (
	"context"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ProjectApnapan/apnapan-pulse/internal/account"
	"github.com/ProjectApnapan/apnapan-pulse/internal/config"
	"github.com/ProjectApnapan/apnapan-pulse/internal/session"
	"github.com/ProjectApnapan/apnapan-pulse/internal/sheets"
	"github.com/ProjectApnapan/apnapan-pulse/internal/store"
	"github.com/ProjectApnapan/apnapan-pulse/internal/survey"
)

// initStore opens and migrates the configured database.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// accountBackends returns the account and feedback stores. With the sheets
// backend both live in the spreadsheet; otherwise they share st.
func accountBackends(ctx context.Context, st store.Store) (store.AccountStore, store.FeedbackStore, error) {
	switch cfg.Accounts.Backend {
	case "", "store":
		return st, st, nil
	case "sheets":
		c, err := sheets.New(ctx, sheets.Config{
			SpreadsheetID:   cfg.Accounts.SpreadsheetID,
			CredentialsFile: cfg.Accounts.CredentialsFile,
			AccountSheet:    cfg.Accounts.AccountSheet,
			FeedbackSheet:   cfg.Accounts.FeedbackSheet,
		})
		if err != nil {
			return nil, nil, err
		}
		zap.L().Info("accounts backed by spreadsheet", zap.String("spreadsheet", cfg.Accounts.SpreadsheetID))
		return sheets.NewAccountStore(c), sheets.NewFeedbackStore(c), nil
	default:
		return nil, nil, eris.Errorf("unsupported accounts backend: %s", cfg.Accounts.Backend)
	}
}

// initAccounts builds the account service over the configured backend.
func initAccounts(ctx context.Context, st store.Store) (*account.Service, store.FeedbackStore, error) {
	accounts, feedback, err := accountBackends(ctx, st)
	if err != nil {
		return nil, nil, err
	}
	svc := account.NewService(accounts, st, account.WithMinPasswordLength(cfg.Auth.MinPasswordLength))
	return svc, feedback, nil
}

// initSessions returns the session store and a cleanup func.
func initSessions(ctx context.Context, sc config.SessionConfig) (session.Store, func(), error) {
	ttl := time.Duration(sc.TTLMinutes) * time.Minute
	switch sc.Backend {
	case "", "memory":
		return session.NewMemoryStore(ttl), func() {}, nil
	case "redis":
		rdb, err := session.Dial(ctx, sc.RedisAddr, sc.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return session.NewRedisStore(rdb, ttl), func() { _ = rdb.Close() }, nil
	default:
		return nil, nil, eris.Errorf("unsupported session backend: %s", sc.Backend)
	}
}

// newPipeline applies the survey overrides from config.
func newPipeline(sc config.SurveyConfig) *survey.Pipeline {
	var opts []survey.Option
	if len(sc.DemographicKeywords) > 0 {
		opts = append(opts, survey.WithDemographicKeywords(sc.DemographicKeywords))
	}
	if sc.KaashMarker != "" {
		opts = append(opts, survey.WithKaashMarker(sc.KaashMarker))
	}
	return survey.NewPipeline(opts...)
}

// brandLogo reads the configured report logo. A missing file is logged and
// the report is drawn without it.
func brandLogo(path string) []byte {
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		zap.L().Warn("report logo unavailable", zap.String("path", path), zap.Error(err))
		return nil
	}
	return b
}
