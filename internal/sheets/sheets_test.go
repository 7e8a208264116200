package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/ProjectApnapan/apnapan-pulse/internal/model"
	"github.com/ProjectApnapan/apnapan-pulse/internal/resilience"
	"github.com/ProjectApnapan/apnapan-pulse/internal/store"
)

// fakeSheets serves the subset of the Sheets values API the client uses.
type fakeSheets struct {
	mu     sync.Mutex
	sheets map[string][][]any
	// throttle answers this many requests with 429 first.
	throttle int
	requests int
}

var cellRange = regexp.MustCompile(`^[A-Z](\d+)`)

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	if f.throttle > 0 {
		f.throttle--
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded"}}`))
		return
	}

	i := strings.Index(r.URL.Path, "/values/")
	if i < 0 {
		http.NotFound(w, r)
		return
	}
	rng := r.URL.Path[i+len("/values/"):]
	appendCall := strings.HasSuffix(rng, ":append")
	rng = strings.TrimSuffix(rng, ":append")
	sheet, cells, _ := strings.Cut(rng, "!")

	switch {
	case r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{"range": rng, "values": f.sheets[sheet]})
	case r.Method == http.MethodPost && appendCall:
		var body struct{ Values [][]any }
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.sheets[sheet] = append(f.sheets[sheet], body.Values...)
		_ = json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sid"})
	case r.Method == http.MethodPut:
		var body struct{ Values [][]any }
		_ = json.NewDecoder(r.Body).Decode(&body)
		m := cellRange.FindStringSubmatch(cells)
		if m == nil {
			http.Error(w, "bad range", http.StatusBadRequest)
			return
		}
		n, _ := strconv.Atoi(m[1])
		row := f.sheets[sheet][n-1]
		copy(row[1:], body.Values[0])
		_ = json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sid"})
	default:
		http.Error(w, "unsupported", http.StatusBadRequest)
	}
}

func newTestClient(t *testing.T, f *fakeSheets) *Client {
	t.Helper()
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS_JSON", "")
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{
		SpreadsheetID: "sid",
		Retry:         resilience.Policy{MaxAttempts: 3, InitialBackoff: time.Millisecond},
	},
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	return c
}

func header() []any {
	return []any{"School ID", "Hash", "Salt", "Email", "School Name", "Logo", "Created"}
}

func TestAccountStore_CreateAndGet(t *testing.T) {
	f := &fakeSheets{sheets: map[string][][]any{"Accounts": {header()}}}
	s := NewAccountStore(newTestClient(t, f))
	ctx := context.Background()

	created := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, s.CreateAccount(ctx, model.Account{
		SchoolID:     "KV-7",
		PasswordHash: "$2a$hash",
		Email:        "kv7@school.in",
		SchoolName:   "Kendriya Vidyalaya 7",
		LogoFile:     "logo_KV-7.png",
		CreatedAt:    created,
	}))
	require.Len(t, f.sheets["Accounts"], 2)

	acc, err := s.GetAccount(ctx, "KV-7")
	require.NoError(t, err)
	assert.Equal(t, "$2a$hash", acc.PasswordHash)
	assert.Equal(t, "kv7@school.in", acc.Email)
	assert.Equal(t, "Kendriya Vidyalaya 7", acc.SchoolName)
	assert.Equal(t, "logo_KV-7.png", acc.LogoFile)
	assert.Equal(t, created, acc.CreatedAt)
}

func TestAccountStore_Duplicate(t *testing.T) {
	f := &fakeSheets{sheets: map[string][][]any{"Accounts": {
		header(),
		{"KV-7", "h", "", "a@b.c", "KV", "", ""},
	}}}
	s := NewAccountStore(newTestClient(t, f))

	err := s.CreateAccount(context.Background(), model.Account{SchoolID: "KV-7"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrDuplicate))
}

func TestAccountStore_ShortLegacyRow(t *testing.T) {
	f := &fakeSheets{sheets: map[string][][]any{"Accounts": {
		header(),
		{"OLD-1", "abcd", "salt", "old@school.in", "Old School"},
	}}}
	s := NewAccountStore(newTestClient(t, f))

	acc, err := s.GetAccount(context.Background(), "OLD-1")
	require.NoError(t, err)
	assert.Equal(t, "salt", acc.LegacySalt)
	assert.Empty(t, acc.LogoFile)
	assert.True(t, acc.CreatedAt.IsZero())
}

func TestAccountStore_UpdatePassword(t *testing.T) {
	f := &fakeSheets{sheets: map[string][][]any{"Accounts": {
		header(),
		{"A", "h1", "", "a@x", "A School", "", ""},
		{"B", "h2", "salt", "b@x", "B School", "", ""},
	}}}
	s := NewAccountStore(newTestClient(t, f))
	ctx := context.Background()

	require.NoError(t, s.UpdatePassword(ctx, "B", "new-hash"))
	acc, err := s.GetAccount(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, "new-hash", acc.PasswordHash)
	assert.Empty(t, acc.LegacySalt)

	err = s.UpdatePassword(ctx, "Z", "x")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestFeedbackStore_Append(t *testing.T) {
	f := &fakeSheets{sheets: map[string][][]any{}}
	s := NewFeedbackStore(newTestClient(t, f))
	s.now = func() time.Time { return time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC) }

	fb, err := s.AddFeedback(context.Background(), "More charts please")
	require.NoError(t, err)
	assert.Equal(t, "More charts please", fb.Text)
	require.Len(t, f.sheets["Feedback"], 1)
	assert.Equal(t, []any{"2025-01-01 12:00:00", "More charts please"}, f.sheets["Feedback"][0])
}

func TestAccountStore_RetriesThrottledReads(t *testing.T) {
	f := &fakeSheets{
		sheets:   map[string][][]any{"Accounts": {header(), {"A", "h", "", "a@x", "A School", "", ""}}},
		throttle: 2,
	}
	s := NewAccountStore(newTestClient(t, f))

	acc, err := s.GetAccount(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, "A School", acc.SchoolName)
	assert.Equal(t, 3, f.requests)
}

func TestAccountStore_GivesUpAfterRetries(t *testing.T) {
	f := &fakeSheets{sheets: map[string][][]any{}, throttle: 10}
	s := NewAccountStore(newTestClient(t, f))

	_, err := s.GetAccount(context.Background(), "A")
	require.Error(t, err)
	assert.False(t, errors.Is(err, store.ErrNotFound))
	assert.Equal(t, 3, f.requests)
}

func TestNew_RequiresSpreadsheet(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err)
}
