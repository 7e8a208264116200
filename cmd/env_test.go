package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ProjectApnapan/apnapan-pulse/internal/config"
	"github.com/ProjectApnapan/apnapan-pulse/internal/model"
	"github.com/ProjectApnapan/apnapan-pulse/internal/session"
)

func TestInitStore_SQLite(t *testing.T) {
	withConfig(t, &config.Config{Store: config.StoreConfig{
		Driver:      "sqlite",
		DatabaseURL: filepath.Join(t.TempDir(), "pulse.db"),
	}})
	ctx := context.Background()

	st, err := initStore(ctx)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	_, err = st.StoreFile(ctx, "S1", "survey.csv", []byte(sampleSurvey))
	require.NoError(t, err)
	files, err := st.ListFiles(ctx, "S1")
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestInitStore_UnknownDriver(t *testing.T) {
	withConfig(t, &config.Config{Store: config.StoreConfig{Driver: "mongo", DatabaseURL: "x"}})
	_, err := initStore(context.Background())
	assert.Error(t, err)
}

func TestInitAccounts_StoreBackend(t *testing.T) {
	withConfig(t, &config.Config{
		Store:    config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(t.TempDir(), "pulse.db")},
		Accounts: config.AccountsConfig{Backend: "store"},
		Auth:     config.AuthConfig{MinPasswordLength: 8},
	})
	ctx := context.Background()
	st, err := initStore(ctx)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck

	svc, feedback, err := initAccounts(ctx, st)
	require.NoError(t, err)
	assert.NotNil(t, feedback)
	assert.Error(t, svc.ResetPassword(ctx, "S1", "short"))

	cfg.Accounts.Backend = "ldap"
	_, _, err = initAccounts(ctx, st)
	assert.Error(t, err)
}

func TestInitSessions(t *testing.T) {
	ctx := context.Background()
	sessions, cleanup, err := initSessions(ctx, config.SessionConfig{Backend: "memory", TTLMinutes: 5})
	require.NoError(t, err)
	defer cleanup()
	require.NoError(t, sessions.Put(ctx, &session.State{SchoolID: "S1", UpdatedAt: time.Now()}))
	_, err = sessions.Get(ctx, "S1")
	assert.NoError(t, err)

	_, _, err = initSessions(ctx, config.SessionConfig{Backend: "etcd"})
	assert.Error(t, err)
}

func TestNewPipeline_AppliesOverrides(t *testing.T) {
	p := newPipeline(config.SurveyConfig{DemographicKeywords: []string{"caste"}, KaashMarker: "wish"})
	assert.NotNil(t, p)
	assert.NotNil(t, newPipeline(config.SurveyConfig{}))
}

func TestFormatFileList(t *testing.T) {
	var buf bytes.Buffer
	formatFileList(&buf, []model.FileEntry{
		{Filename: "survey.csv", Size: 120, Versions: 2, UploadedAt: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)},
	})
	out := buf.String()
	assert.Contains(t, out, "FILENAME")
	assert.Contains(t, out, "survey.csv")
	assert.Contains(t, out, "120")
}
