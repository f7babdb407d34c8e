package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlscope/internal/catalog"
	"sqlscope/internal/engine"
	"sqlscope/internal/middleware"
	"sqlscope/internal/query"
	"sqlscope/internal/transpile"
)

var testSecret = []byte("test-secret")

type fakeExecutor struct {
	sql  string
	args []any
	err  error
}

func (f *fakeExecutor) Query(_ context.Context, sql string, args []any) (*engine.Result, error) {
	f.sql, f.args = sql, args
	if f.err != nil {
		return nil, f.err
	}
	return &engine.Result{Columns: []string{"id"}, Rows: [][]any{{1}, {2}}}, nil
}

// unloadedCatalog serves no snapshot, so every table is unknown.
type unloadedCatalog struct{}

func (unloadedCatalog) Snapshot() *catalog.Catalog { return nil }

func newTestServer(t *testing.T, provider catalog.Provider, exec query.Executor) *httptest.Server {
	t.Helper()
	if provider == nil {
		cached := catalog.NewCached(catalog.StaticSource{
			{Name: "spans", TenantColumn: "project_id", Queryable: true},
		}, nil)
		require.NoError(t, cached.Refresh(context.Background()))
		provider = cached
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := query.NewService(transpile.New(transpile.Options{Logger: logger}), provider, exec, logger)

	srv := httptest.NewServer(NewRouter(RouterConfig{
		Handler:        NewHandler(svc, logger),
		JWTSecret:      testSecret,
		RateLimit:      middleware.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
		AllowedOrigins: []string{"*"},
		Logger:         logger,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, project, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if project != "" {
		tok, err := middleware.IssueToken(testSecret, project, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	var env map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func TestExecuteQuery_Success(t *testing.T) {
	exec := &fakeExecutor{}
	srv := newTestServer(t, nil, exec)

	resp, env := post(t, srv, "/v1/query", "123", `{"sqlQuery":"SELECT * FROM spans"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	assert.Equal(t, true, env["success"])
	assert.Equal(t, []any{"A limit of 100 was applied to the query for performance reasons. Add an explicit limit to see more results."}, env["warnings"])
	result := env["result"].(map[string]any)
	assert.Equal(t, []any{"id"}, result["columns"])
	assert.Len(t, result["rows"], 2)

	assert.Equal(t, `SELECT * FROM "spans" WHERE "spans"."project_id" = $1 LIMIT 100`, exec.sql)
	assert.Equal(t, []any{"123"}, exec.args)
}

func TestExecuteQuery_Failures(t *testing.T) {
	tests := []struct {
		name       string
		provider   catalog.Provider
		exec       *fakeExecutor
		project    string
		body       string
		wantStatus int
		wantError  string
	}{
		{"shape", nil, &fakeExecutor{}, "123", `{"sqlQuery":"DELETE FROM spans"}`, http.StatusBadRequest, "only SELECT"},
		{"multi_statement", nil, &fakeExecutor{}, "123", `{"sqlQuery":"SELECT * FROM spans; DROP TABLE spans;"}`, http.StatusBadRequest, "multiple statements"},
		{"catalog", nil, &fakeExecutor{}, "123", `{"sqlQuery":"SELECT * FROM secrets"}`, http.StatusBadRequest, "secrets"},
		{"syntax", nil, &fakeExecutor{}, "123", `{"sqlQuery":"SELEC 1"}`, http.StatusBadRequest, "syntax error"},
		{"empty", nil, &fakeExecutor{}, "123", `{"sqlQuery":""}`, http.StatusBadRequest, "empty"},
		{"execution", nil, &fakeExecutor{err: errors.New("Binder Error: column nope")}, "123", `{"sqlQuery":"SELECT nope FROM spans"}`, http.StatusBadRequest, "query execution failed"},
		{"timeout", nil, &fakeExecutor{err: fmt.Errorf("run: %w", context.DeadlineExceeded)}, "123", `{"sqlQuery":"SELECT 1"}`, http.StatusGatewayTimeout, "timed out"},
		{"unloaded_catalog", unloadedCatalog{}, &fakeExecutor{}, "123", `{"sqlQuery":"SELECT * FROM spans"}`, http.StatusBadRequest, "spans"},
		{"bad_json", nil, &fakeExecutor{}, "123", `{"sqlQuery":`, http.StatusBadRequest, "invalid request body"},
		{"unknown_field", nil, &fakeExecutor{}, "123", `{"sql":"SELECT 1"}`, http.StatusBadRequest, "invalid request body"},
		{"no_body", nil, &fakeExecutor{}, "123", ``, http.StatusBadRequest, "request body is required"},
		{"unauthenticated", nil, &fakeExecutor{}, "", `{"sqlQuery":"SELECT 1"}`, http.StatusUnauthorized, "unauthorized"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, tc.provider, tc.exec)
			resp, env := post(t, srv, "/v1/query", tc.project, tc.body)

			assert.Equal(t, tc.wantStatus, resp.StatusCode)
			assert.Equal(t, false, env["success"])
			assert.Nil(t, env["result"])
			assert.Nil(t, env["warnings"])
			assert.Contains(t, env["error"], tc.wantError)
		})
	}
}

type failingService struct{ err error }

func (f failingService) Execute(context.Context, string, string) (*query.Response, error) {
	return nil, f.err
}

func (f failingService) Validate(context.Context, string, string) (transpile.ValidationResult, error) {
	return transpile.NewValidationResult(nil, f.err), f.err
}

func TestInternalErrorIsHidden(t *testing.T) {
	internal := &transpile.InternalError{Message: "placeholder count mismatch"}
	srv := httptest.NewServer(NewRouter(RouterConfig{
		Handler:        NewHandler(failingService{err: internal}, slog.New(slog.NewTextHandler(io.Discard, nil))),
		JWTSecret:      testSecret,
		RateLimit:      middleware.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
		AllowedOrigins: []string{"*"},
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}))
	t.Cleanup(srv.Close)

	for _, path := range []string{"/v1/query", "/v1/query/validate"} {
		resp, env := post(t, srv, path, "123", `{"sqlQuery":"SELECT 1"}`)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode, path)
		assert.Equal(t, "internal error", env["error"], path)
	}
}

func TestValidateQuery(t *testing.T) {
	exec := &fakeExecutor{}
	srv := newTestServer(t, nil, exec)

	resp, env := post(t, srv, "/v1/query/validate", "123", `{"sqlQuery":"SELECT * FROM spans WHERE 1=1 OR 1=1 LIMIT 5"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, exec.sql, "validate never executes")

	assert.Equal(t, true, env["success"])
	assert.Equal(t, []any{}, env["warnings"])
	result := env["result"].(map[string]any)
	assert.Equal(t, true, result["valid"])
	assert.Equal(t, `SELECT * FROM "spans" WHERE (1 = 1 OR 1 = 1) AND "spans"."project_id" = $1 LIMIT 5`, result["sql"])
	assert.Equal(t, []any{map[string]any{"name": "project_id", "value": "123"}}, result["args"])
	assert.Nil(t, result["error"])

	resp, env = post(t, srv, "/v1/query/validate", "123", `{"sqlQuery":"SELECT * FROM secrets"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, env["error"], "secrets")
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil, &fakeExecutor{})
	resp, err := srv.Client().Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTPStatusFromError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&transpile.SyntaxError{Message: "x"}, http.StatusBadRequest},
		{&transpile.ShapeError{Message: "x"}, http.StatusBadRequest},
		{&transpile.CatalogError{Message: "x"}, http.StatusBadRequest},
		{&transpile.InternalError{Message: "x"}, http.StatusInternalServerError},
		{&query.ExecutionError{Err: errors.New("x")}, http.StatusBadRequest},
		{&query.ExecutionError{Err: context.DeadlineExceeded}, http.StatusGatewayTimeout},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, httpStatusFromError(tc.err), fmt.Sprintf("%T", tc.err))
	}
}
