package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"medimart/internal/config"
	"medimart/internal/domain"
	"medimart/internal/http/handlers"
	"medimart/internal/identity"
	applog "medimart/internal/log"
	"medimart/internal/repos"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testSecret = "handlers-test-secret"

type testApp struct {
	app   *fiber.App
	db    *sqlx.DB
	users *repos.UserRepo
	prods *repos.ProductRepo
	idp   *identity.HMACVerifier
	logs  *observer.ObservedLogs
}

func testConfig(t *testing.T) config.Config {
	cfg := config.Defaults()
	cfg.Env = "production"
	cfg.DBDSN = ":memory:"
	cfg.UploadDir = t.TempDir()
	cfg.RateLimitMax = 0
	cfg.Identity = config.IdentityConfig{HMACSecret: testSecret, ProjectID: "medimart-test"}
	return cfg
}

func newTestApp(t *testing.T, mutate ...func(*config.Config)) *testApp {
	t.Helper()
	cfg := testConfig(t)
	for _, m := range mutate {
		m(&cfg)
	}

	core, logs := observer.New(zapcore.InfoLevel)
	applog.SetLogger(zap.New(core))
	t.Cleanup(func() { applog.SetLogger(zap.NewNop()) })

	db, err := repos.OpenDB(cfg.DBDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	idp := identity.NewHMACVerifier(cfg.Identity.HMACSecret, cfg.Identity.ProjectID)
	deps := handlers.NewDeps(db, cfg, idp, nil)
	return &testApp{
		app:   handlers.NewApp(cfg, deps, nil),
		db:    db,
		users: repos.NewUserRepo(db),
		prods: repos.NewProductRepo(db),
		idp:   idp,
		logs:  logs,
	}
}

// user provisions a local account and returns it with a valid bearer token.
func (a *testApp) user(t *testing.T, uid, role string) (*domain.User, string) {
	t.Helper()
	u := &domain.User{FirebaseUID: uid, Username: uid, Email: uid + "@example.com", Role: role, IsActive: true}
	require.NoError(t, a.users.Create(context.Background(), u))
	return u, a.token(t, uid)
}

func (a *testApp) token(t *testing.T, uid string) string {
	t.Helper()
	tok, err := a.idp.Issue(uid, time.Minute)
	require.NoError(t, err)
	return tok
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func decode[T any](t *testing.T, b []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(b, &v), string(b))
	return v
}

// actions returns the logged action names, in order.
func actions(logs *observer.ObservedLogs) []string {
	var out []string
	for _, e := range logs.All() {
		out = append(out, e.Message)
	}
	return out
}
