// Package api provides the HTTP surface for executing table commands.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/robert-radu/tablecmd/internal/command"
	"github.com/robert-radu/tablecmd/internal/middleware"
	"github.com/robert-radu/tablecmd/internal/sqlparse"
)

// Handler executes SQL statements posted to the API.
type Handler struct {
	executor *command.Executor
	logger   *slog.Logger
}

// NewHandler creates a Handler around an executor.
func NewHandler(executor *command.Executor, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{executor: executor, logger: logger}
}

// NewRouter builds the chi router with the standard middleware chain.
// limiter may be nil to serve without rate limiting.
func NewRouter(h *Handler, limiter *middleware.RateLimiter) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Recoverer)
	if limiter != nil {
		r.Use(limiter.Handler)
	}

	r.Get("/healthz", h.Health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/statements", h.ExecuteStatement)
	})
	return r
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// maxStatementBody caps the request body accepted by ExecuteStatement.
const maxStatementBody = 1 << 20

type statementRequest struct {
	SQL string `json:"sql"`
}

type statementResponse struct {
	Columns []columnJSON `json:"columns"`
	Rows    [][]any      `json:"rows"`
}

type columnJSON struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// ExecuteStatement parses and runs a single SQL statement.
func (h *Handler) ExecuteStatement(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxStatementBody)

	var req statementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.SQL == "" {
		writeError(w, http.StatusBadRequest, "sql is required")
		return
	}

	cmd, err := sqlparse.Parse(req.SQL)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.executor.Execute(r.Context(), cmd)
	if err != nil {
		h.logger.Warn("statement failed",
			"command", cmd.Name(),
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"error", err)
		writeError(w, httpStatusFromError(err), err.Error())
		return
	}

	resp := statementResponse{Rows: [][]any{}}
	if result.Schema != nil {
		for _, col := range result.Schema.Columns {
			resp.Columns = append(resp.Columns, columnJSON(col))
		}
	}
	for _, row := range result.Rows {
		resp.Rows = append(resp.Rows, row)
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorJSON{Code: status, Message: message})
}

type errorJSON struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
