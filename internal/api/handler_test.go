package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albinkc/databend/internal/config"
	"github.com/albinkc/databend/internal/engine"
	"github.com/albinkc/databend/internal/meta"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	db, err := meta.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, meta.RunMigrations(db))

	catalog := meta.NewCatalog(meta.NewSQLiteKV(db), meta.DefaultTenant)
	session, err := engine.NewSession(context.Background(), catalog, engine.NewStore())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		RateLimitRPS:       1000,
		RateLimitBurst:     1000,
		CORSAllowedOrigins: []string{"*"},
	}
	return NewHandler(session, logger).Router(cfg)
}

func postQuery(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Health(t *testing.T) {
	h := newTestRouter(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHandler_Query(t *testing.T) {
	h := newTestRouter(t)

	rec := postQuery(t, h, `{"sql": "CREATE TABLE t (a Int32, arr Array(Int8))"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var ddlResp queryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ddlResp))
	assert.Equal(t, "ddl", ddlResp.Kind)

	rec = postQuery(t, h, `{"sql": "INSERT INTO t VALUES (1, [1, 2])"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var insResp queryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &insResp))
	assert.Equal(t, "insert", insResp.Kind)

	rec = postQuery(t, h, `{"sql": "SELECT a, concat(arr, arr) FROM t"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp queryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "query", resp.Kind)
	assert.Equal(t, []string{"a", "concat(arr, arr)"}, resp.Columns)
	assert.Equal(t, []string{"Int32", "Array(Int8)"}, resp.Types)
	assert.Equal(t, [][]string{{"1", "[1,2,1,2]"}}, resp.Rows)
}

func TestHandler_QueryEmptyRows(t *testing.T) {
	h := newTestRouter(t)
	postQuery(t, h, `{"sql": "CREATE TABLE t (a Int32)"}`)

	rec := postQuery(t, h, `{"sql": "SELECT a FROM t"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	// rows must serialize as [] rather than null.
	assert.Contains(t, rec.Body.String(), `"rows":[]`)
}

func TestHandler_QueryErrors(t *testing.T) {
	h := newTestRouter(t)

	rec := postQuery(t, h, `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postQuery(t, h, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "sql is required")

	// Unparsable SQL is rejected before execution.
	rec = postQuery(t, h, `{"sql": "SELEC 1"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = postQuery(t, h, `{"sql": "SELECT a FROM missing"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var errResp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.Equal(t, http.StatusUnprocessableEntity, errResp.Code)
	assert.Contains(t, errResp.Message, "not found")
}

func TestHandler_RateLimit(t *testing.T) {
	db, err := meta.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, meta.RunMigrations(db))
	catalog := meta.NewCatalog(meta.NewSQLiteKV(db), meta.DefaultTenant)
	session, err := engine.NewSession(context.Background(), catalog, engine.NewStore())
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		RateLimitRPS:       0.001,
		RateLimitBurst:     1,
		CORSAllowedOrigins: []string{"*"},
	}
	h := NewHandler(session, logger).Router(cfg)

	var codes []int
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "10.1.1.1:1000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}
