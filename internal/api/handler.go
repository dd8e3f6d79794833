// Package api provides the HTTP surface of the query engine.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/albinkc/databend/internal/bendsql"
	"github.com/albinkc/databend/internal/config"
	"github.com/albinkc/databend/internal/engine"
	"github.com/albinkc/databend/internal/middleware"
	"github.com/albinkc/databend/internal/types"
)

// Handler serves SQL queries over HTTP against one engine session.
type Handler struct {
	// session is not safe for concurrent statements; requests serialize on mu.
	mu      sync.Mutex
	session *engine.Session
	logger  *slog.Logger
}

func NewHandler(session *engine.Session, logger *slog.Logger) *Handler {
	return &Handler{session: session, logger: logger}
}

// Router builds the chi router with the standard middleware chain.
func (h *Handler) Router(cfg *config.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
	}))

	r.Get("/healthz", h.handleHealth)
	r.Post("/v1/query", h.handleQuery)
	return r
}

type queryRequest struct {
	SQL string `json:"sql"`
}

type queryResponse struct {
	Kind    string     `json:"kind"`
	Columns []string   `json:"columns"`
	Types   []string   `json:"types"`
	Rows    [][]string `json:"rows"`
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SQL == "" {
		writeError(w, http.StatusBadRequest, "sql is required")
		return
	}

	stmt, err := bendsql.Parse(req.SQL)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	kind := bendsql.Classify(stmt)
	h.logger.Debug("statement accepted",
		"kind", kind,
		"tables", objectNames(bendsql.CollectTableNames(stmt)),
		"request_id", middleware.RequestIDFromContext(r.Context()),
	)

	h.mu.Lock()
	res, err := h.session.Execute(r.Context(), req.SQL)
	h.mu.Unlock()
	if err != nil {
		h.logger.Warn("query failed", "error", err, "request_id", middleware.RequestIDFromContext(r.Context()))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	resp := queryResponse{Kind: kind.String(), Columns: res.Columns, Rows: [][]string{}}
	for _, t := range res.Types {
		resp.Types = append(resp.Types, t.String())
	}
	for _, row := range res.Rows {
		out := make([]string, len(row))
		for c, d := range row {
			out[c] = types.Render(d)
		}
		resp.Rows = append(resp.Rows, out)
	}
	writeJSON(w, http.StatusOK, resp)
}

func objectNames(names []bendsql.ObjectName) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = n.String()
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Code: status, Message: msg})
}
