package wiki_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-wiki"
)

type testServerConfig struct{}

func (testServerConfig) GetAppName() string             { return "wiki-test" }
func (testServerConfig) GetReadTimeout() time.Duration  { return 0 }
func (testServerConfig) GetWriteTimeout() time.Duration { return 0 }
func (testServerConfig) GetIdleTimeout() time.Duration  { return 0 }
func (testServerConfig) GetBodyLimit() int              { return 0 }

type testPersistenceConfig struct {
	dsn string
}

func (c testPersistenceConfig) GetDSN() string       { return c.dsn }
func (c testPersistenceConfig) GetDebug() bool       { return false }
func (c testPersistenceConfig) GetMaxOpenConns() int { return 0 }

type testAuthConfig struct {
	contextKey string
}

func (testAuthConfig) GetSigningKey() string             { return testSigningKey }
func (testAuthConfig) GetSigningMethod() string          { return "HS256" }
func (testAuthConfig) GetTokenExpiration() time.Duration { return 0 }
func (testAuthConfig) GetIssuer() string                 { return "" }
func (c testAuthConfig) GetContextKey() string           { return c.contextKey }
func (testAuthConfig) GetTokenLookup() string            { return "header:Authorization" }
func (testAuthConfig) GetAuthScheme() string             { return "Bearer" }

// openTestDB opens a migrated sqlite database in a temp dir
func openTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "wiki.db")
	db, err := wiki.OpenDB(testPersistenceConfig{dsn: dsn}, wiki.NopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, wiki.Migrate(context.Background(), db))
	return db
}

type testStack struct {
	db     *bun.DB
	repo   wiki.RepositoryManager
	auth   *wiki.Authenticator
	tokens *wiki.TokenService
	clock  *clock
	app    *fiber.App
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	db := openTestDB(t)
	repo := wiki.NewRepositoryManager(db)
	repo.MustValidate()

	clk := newClock()
	tokens, err := wiki.NewTokenServiceFromConfig(testAuthConfig{})
	require.NoError(t, err)
	tokens.WithClock(clk.Now).WithLogger(wiki.NopLogger())

	auth := wiki.NewAuthenticator(repo.Users(), tokens).WithLogger(wiki.NopLogger())
	services := wiki.NewServices(repo, wiki.NopLogger())

	app := wiki.NewHTTPApp(testServerConfig{}, wiki.NopLogger())
	wiki.NewAPI(services, auth,
		wiki.WithUserControllerLogger(wiki.NopLogger()),
		wiki.WithUserControllerConfig(testAuthConfig{contextKey: "user"}),
	).Mount(app, repo)

	return &testStack{
		db:     db,
		repo:   repo,
		auth:   auth,
		tokens: tokens,
		clock:  clk,
		app:    app,
	}
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (r response) JSON(t *testing.T) map[string]any {
	t.Helper()
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(r.body, &out), string(r.body))
	return out
}

func (r response) List(t *testing.T) []map[string]any {
	t.Helper()
	out := []map[string]any{}
	require.NoError(t, json.Unmarshal(r.body, &out), string(r.body))
	return out
}

func (r response) Detail(t *testing.T) string {
	t.Helper()
	detail, _ := r.JSON(t)["detail"].(string)
	return detail
}

func (s *testStack) do(t *testing.T, req *http.Request) response {
	t.Helper()

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return response{status: resp.StatusCode, header: resp.Header, body: body}
}

func (s *testStack) doJSON(t *testing.T, method, path string, payload any, headers ...string) response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	return s.do(t, req)
}

func (s *testStack) doForm(t *testing.T, path string, form url.Values) response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(t, req)
}

func (s *testStack) signUp(t *testing.T, email, password string) map[string]any {
	t.Helper()

	res := s.doJSON(t, http.MethodPost, "/api/v1/user/create", map[string]any{
		"email":     email,
		"password":  password,
		"rpassword": password,
	})
	require.Equal(t, http.StatusCreated, res.status, string(res.body))
	return res.JSON(t)
}

func (s *testStack) signIn(t *testing.T, email, password string) string {
	t.Helper()

	res := s.doForm(t, "/api/v1/user/sign-in", url.Values{
		"username": {email},
		"password": {password},
	})
	require.Equal(t, http.StatusOK, res.status, string(res.body))
	token, _ := res.JSON(t)["access_token"].(string)
	require.NotEmpty(t, token)
	return token
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func strconvI(v int64) string { return strconv.FormatInt(v, 10) }
