package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ProjectApnapan/apnapan-pulse/internal/account"
	"github.com/ProjectApnapan/apnapan-pulse/internal/auth"
	"github.com/ProjectApnapan/apnapan-pulse/internal/session"
	"github.com/ProjectApnapan/apnapan-pulse/internal/store"
	"github.com/ProjectApnapan/apnapan-pulse/internal/survey"
)

const surveyCSV = `Gender,Religion,Which grade are you in?,I feel safe at school,I feel respected by teachers
male,Hindu,Grade 8,Strongly Agree,Agree
female,Muslim,8th,Agree,Neutral
female,Hindu,Grade 9,Neutral,Disagree
male,Sikh,9,Agree,Strongly Agree
female,Hindu,Grade 10,Disagree,Neutral
`

type testEnv struct {
	handler  http.Handler
	sessions *session.MemoryStore
	store    *store.SQLiteStore
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	tokens, err := auth.NewIssuer("test-secret", time.Hour)
	require.NoError(t, err)
	sessions := session.NewMemoryStore(0)

	srv := New(Deps{
		Accounts: account.NewService(st, st, account.WithBcryptCost(bcrypt.MinCost)),
		Files:    st,
		Feedback: st,
		Sessions: sessions,
		Tokens:   tokens,
		Pipeline: survey.NewPipeline(),
	}, opts)
	return &testEnv{handler: srv.Router(), sessions: sessions, store: st}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) upload(t *testing.T, token, name, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) signup(t *testing.T, id, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/accounts", "", map[string]string{
		"school_id": id, "password": password, "email": id + "@school.in", "school_name": "School " + id,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/api/login", "", map[string]string{"school_id": id, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "School "+id, resp.SchoolName)
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t, Options{})
	rec := e.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestAccounts_CreateLogin(t *testing.T) {
	e := newTestEnv(t, Options{})
	e.signup(t, "S1", "secret1")

	rec := e.do(t, http.MethodPost, "/api/accounts", "", map[string]string{
		"school_id": "S1", "password": "another", "school_name": "Dup",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/accounts", "", map[string]string{
		"school_id": "S2", "password": "123", "school_name": "Short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/login", "", map[string]string{"school_id": "S1", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid password.", decode(t, rec)["error"])

	rec = e.do(t, http.MethodPost, "/api/login", "", map[string]string{"school_id": "nobody", "password": "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "School ID not found.", decode(t, rec)["error"])
}

func TestAccounts_MultipartWithLogo(t *testing.T) {
	e := newTestEnv(t, Options{})
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{"school_id": "L1", "password": "secret1", "school_name": "Logo School"} {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("logo", "crest.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("png-bytes"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/accounts", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	data, err := e.store.FetchFile(context.Background(), "L1", "logo_L1.png")
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestLogin_RateLimited(t *testing.T) {
	e := newTestEnv(t, Options{LoginRatePerMinute: 2})
	body := map[string]string{"school_id": "x", "password": "y"}
	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodPost, "/api/login", "", body).Code)
	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodPost, "/api/login", "", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, e.do(t, http.MethodPost, "/api/login", "", body).Code)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	e := newTestEnv(t, Options{})
	for _, path := range []string{"/api/files", "/api/results", "/api/report"} {
		assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, path, "", nil).Code, path)
		assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, path, "garbage", nil).Code, path)
	}
}

func TestPasswordReset(t *testing.T) {
	e := newTestEnv(t, Options{})
	e.signup(t, "R1", "old-pass")

	rec := e.do(t, http.MethodPost, "/api/password/verify", "", map[string]string{"school_id": "R1", "email": " R1@SCHOOL.in"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/password/verify", "", map[string]string{"school_id": "R1", "email": "x@y.z"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/password/verify", "", map[string]string{"school_id": "R9", "email": "x@y.z"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/password/reset", "", map[string]string{
		"school_id": "R1", "email": "x@y.z", "new_password": "new-pass",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/password/reset", "", map[string]string{
		"school_id": "R1", "email": "r1@school.in", "new_password": "new-pass",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/api/login", "", map[string]string{"school_id": "R1", "password": "new-pass"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUploadAndResults(t *testing.T) {
	e := newTestEnv(t, Options{})
	token := e.signup(t, "S1", "secret1")

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/api/results", token, nil).Code)

	rec := e.upload(t, token, "survey.csv", surveyCSV)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sum := decode(t, rec)
	assert.Equal(t, "survey.csv", sum["file_name"])
	assert.Equal(t, float64(5), sum["students"])
	assert.Equal(t, survey.Safety, sum["highest"])

	rec = e.do(t, http.MethodGet, "/api/results", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["preview"], 6)

	rec = e.do(t, http.MethodGet, "/api/results/matched", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["table"])

	rec = e.do(t, http.MethodGet, "/api/results/breakdown?construct=Safety&group=Gender", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	bd := decode(t, rec)
	assert.Equal(t, "I feel safe at school", bd["question"])
	assert.Len(t, bd["averages"], 2)

	rec = e.do(t, http.MethodGet, "/api/results/breakdown?construct=Safety&group=Caste", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/results/distribution?group=Religion", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Religion", decode(t, rec)["column"])

	rec = e.do(t, http.MethodGet, "/api/results/chart?kind=bar&construct=Safety&group=Grade", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	rec = e.do(t, http.MethodGet, "/api/results/chart?kind=pie&group=Health%20Condition", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/files", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	files := decode(t, rec)["files"].([]any)
	require.Len(t, files, 1)
	assert.Equal(t, "survey.csv", files[0].(map[string]any)["filename"])

	rec = e.do(t, http.MethodGet, "/api/files/survey.csv", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, surveyCSV, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/api/files/missing.csv", token, nil).Code)
}

func TestUpload_UnreadableKeepsSession(t *testing.T) {
	e := newTestEnv(t, Options{})
	token := e.signup(t, "S1", "secret1")

	require.Equal(t, http.StatusCreated, e.upload(t, token, "survey.csv", surveyCSV).Code)

	rec := e.upload(t, token, "broken.xlsx", "this is not a workbook")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["error"])

	rec = e.upload(t, token, "notes.docx", "whatever")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	st, err := e.sessions.Get(context.Background(), "S1")
	require.NoError(t, err)
	assert.Equal(t, "survey.csv", st.FileName)

	files, err := e.store.ListFiles(context.Background(), "S1")
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestAnalyzeStored(t *testing.T) {
	e := newTestEnv(t, Options{})
	token := e.signup(t, "S1", "secret1")
	require.Equal(t, http.StatusCreated, e.upload(t, token, "first.csv", surveyCSV).Code)
	require.Equal(t, http.StatusCreated, e.upload(t, token, "second.csv", "I feel safe\nAgree\n").Code)

	rec := e.do(t, http.MethodPost, "/api/files/first.csv/analyze", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "first.csv", decode(t, rec)["file_name"])

	st, err := e.sessions.Get(context.Background(), "S1")
	require.NoError(t, err)
	assert.Equal(t, "first.csv", st.FileName)
	assert.Equal(t, 5, st.Results.Students)

	rec = e.do(t, http.MethodPost, "/api/files/nope.csv/analyze", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionsAreScopedBySchool(t *testing.T) {
	e := newTestEnv(t, Options{})
	a := e.signup(t, "A", "secret1")
	b := e.signup(t, "B", "secret1")

	require.Equal(t, http.StatusCreated, e.upload(t, a, "survey.csv", surveyCSV).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/api/results", b, nil).Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/api/files/survey.csv", b, nil).Code)
}

func TestReports(t *testing.T) {
	e := newTestEnv(t, Options{ReportTitle: "Pulse"})
	token := e.signup(t, "S1", "secret1")
	require.Equal(t, http.StatusCreated, e.upload(t, token, "survey.csv", surveyCSV).Code)

	rec := e.do(t, http.MethodGet, "/api/report", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Apnapan_Report_School_S1.pdf")

	rec = e.do(t, http.MethodGet, "/api/report/charts?construct=Safety", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["charts"], 10)

	rec = e.do(t, http.MethodPost, "/api/report/custom", token, map[string]any{
		"construct": "Safety",
		"charts":    []string{"Gender Distribution", "Safety by Grade", "Gender Breakdown (Percentage)"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))

	rec = e.do(t, http.MethodPost, "/api/report/custom", token, map[string]any{
		"construct": "Safety", "charts": []string{"Pie of Everything"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/report/custom", token, map[string]any{"construct": "Safety"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFeedback(t *testing.T) {
	e := newTestEnv(t, Options{})
	rec := e.do(t, http.MethodPost, "/api/feedback", "", map[string]string{"text": "  Love the charts "})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Love the charts", decode(t, rec)["text"])

	rec = e.do(t, http.MethodPost, "/api/feedback", "", map[string]string{"text": " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFileSafe(t *testing.T) {
	assert.Equal(t, "St__Mary_s_School", fileSafe("St. Mary's School"))
}
