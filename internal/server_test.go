package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twominute/twominute/internal/auth"
	"github.com/twominute/twominute/internal/config"
	"github.com/twominute/twominute/internal/event"
	"github.com/twominute/twominute/internal/eventbus"
	"github.com/twominute/twominute/internal/guardrail"
	"github.com/twominute/twominute/internal/plan"
	"github.com/twominute/twominute/internal/progress"
	"github.com/twominute/twominute/internal/task"
	taskrepo "github.com/twominute/twominute/internal/task/repositoryimpl"
	"github.com/twominute/twominute/internal/user"
	userrepo "github.com/twominute/twominute/internal/user/repositoryimpl"
	"github.com/twominute/twominute/pkg/clog"
	"github.com/twominute/twominute/pkg/storage"
)

// brokenStorage fails every listing, as an unreachable bucket would.
type brokenStorage struct {
	storage.Storage
}

func (brokenStorage) List(context.Context, string) ([]string, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func storeProbe(store storage.Storage) HealthProbe {
	return func(ctx context.Context) error {
		_, err := store.List(ctx, taskrepo.TasksPrefix)
		return err
	}
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return newTestHandlerWithStore(t, local)
}

func newTestHandlerWithStore(t *testing.T, local storage.Storage) http.Handler {
	t.Helper()
	bus := eventbus.New()
	issuer := auth.NewIssuer("test-secret", time.Hour)
	tasks := taskrepo.NewYAMLRepository(local)

	env := &config.Env{BaseEnv: config.BaseEnv{AllowedOrigins: []string{"*"}}}
	return NewServer(
		env,
		issuer,
		user.NewServer(userrepo.NewYAMLRepository(local), issuer),
		plan.NewServer(plan.NewService(guardrail.NewFilter(guardrail.DefaultRules()), nil), bus),
		task.NewServer(tasks, bus),
		progress.NewServer(tasks),
		event.NewServer(bus),
		storeProbe(local),
	).Handler()
}

func call(h http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_EndToEnd(t *testing.T) {
	h := newTestHandler(t)

	rec := call(h, http.MethodPost, "/api/register", "", `{"email":"ada@example.com","password":"secret1","name":"Ada"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(h, http.MethodPost, "/api/login", "", `{"email":"ada@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)

	rec = call(h, http.MethodPost, "/api/starter", login.Token, `{"task":"Study OS scheduling","badDay":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var p plan.Plan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "rule", p.Source)
	assert.Len(t, p.Steps, 1)

	rec = call(h, http.MethodPost, "/api/starter", login.Token, `{"task":"sudo rm -rf /"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"blocked":true,"error":"Blocked by guardrails"}`, rec.Body.String())

	rec = call(h, http.MethodPost, "/api/tasks", login.Token,
		`{"text":"Study OS scheduling","starter":"Open notes.","steps":["x"],"sprintLength":25,"mode":"Bad Day"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(h, http.MethodGet, "/api/progress", login.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary progress.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.Streak)
	assert.Equal(t, 1, summary.Completed)
}

func TestServer_Unauthenticated(t *testing.T) {
	h := newTestHandler(t)
	for _, target := range []string{"/api/tasks", "/api/progress", "/api/events"} {
		assert.Equal(t, http.StatusUnauthorized, call(h, http.MethodGet, target, "", "").Code, target)
	}
	assert.Equal(t, http.StatusUnauthorized, call(h, http.MethodPost, "/api/starter", "garbage", `{"task":"study"}`).Code)
}

func TestServer_HealthAndNotFound(t *testing.T) {
	h := newTestHandler(t)
	assert.Equal(t, http.StatusOK, call(h, http.MethodGet, "/health", "", "").Code)

	rec := call(h, http.MethodGet, "/api/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"not_found"`)
}

func checkHealth(h http.Handler, service string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/grpc.health.v1.Health/Check",
		strings.NewReader(`{"service":"`+service+`"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// captureLogs routes the default logger into a JSON buffer for one test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(clog.NewAttributesHandler(slog.NewJSONHandler(&buf, nil))))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestServer_GRPCHealthServing(t *testing.T) {
	logs := captureLogs(t)
	h := newTestHandler(t)

	rec := checkHealth(h, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"SERVING"`)

	rec = checkHealth(h, HealthService)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, logs.String())
}

func TestServer_GRPCHealthUnknownService(t *testing.T) {
	rec := checkHealth(newTestHandler(t), "billing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"not_found"`)
}

func TestServer_GRPCHealthStoreDown(t *testing.T) {
	logs := captureLogs(t)
	h := newTestHandlerWithStore(t, brokenStorage{})

	rec := checkHealth(h, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"unavailable"`)
	assert.Contains(t, rec.Body.String(), `"message":"storage unavailable"`)
	assert.NotContains(t, rec.Body.String(), "connection refused")

	line := logs.String()
	assert.Contains(t, line, `"procedure":"/grpc.health.v1.Health/Check"`)
	assert.Contains(t, line, `"code":"unavailable"`)
	assert.Contains(t, line, "connection refused")
}
