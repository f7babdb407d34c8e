// Package api serves the tenant-scoped query endpoints over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"sqlscope/internal/middleware"
	"sqlscope/internal/query"
	"sqlscope/internal/transpile"
)

const maxBodyBytes = 1 << 20

// QueryService is what the handlers need from query.Service.
type QueryService interface {
	Execute(ctx context.Context, projectID, sqlQuery string) (*query.Response, error)
	Validate(ctx context.Context, projectID, sqlQuery string) (transpile.ValidationResult, error)
}

// QueryRequest is the body of both query endpoints.
type QueryRequest struct {
	SQLQuery string `json:"sqlQuery"`
}

// Envelope is the JSON shape of every query API response.
type Envelope struct {
	Success  bool     `json:"success"`
	Result   any      `json:"result"`
	Warnings []string `json:"warnings"`
	Error    string   `json:"error,omitempty"`
}

// Handler implements the HTTP endpoints.
type Handler struct {
	query  QueryService
	logger *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(svc QueryService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{query: svc, logger: logger}
}

// ExecuteQuery handles POST /v1/query.
func (h *Handler) ExecuteQuery(w http.ResponseWriter, r *http.Request) {
	projectID, req, ok := h.decode(w, r)
	if !ok {
		return
	}

	resp, err := h.query.Execute(r.Context(), projectID, req.SQLQuery)
	if err != nil {
		status := httpStatusFromError(err)
		writeFailure(w, status, publicMessage(err, status))
		return
	}
	warnings := resp.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Result: resp.Result, Warnings: warnings})
}

// ValidateQuery handles POST /v1/query/validate. It returns the
// ValidationResult without executing anything.
func (h *Handler) ValidateQuery(w http.ResponseWriter, r *http.Request) {
	projectID, req, ok := h.decode(w, r)
	if !ok {
		return
	}

	res, err := h.query.Validate(r.Context(), projectID, req.SQLQuery)
	if err != nil {
		status := httpStatusFromError(err)
		writeFailure(w, status, publicMessage(err, status))
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Result: res, Warnings: res.Warnings})
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (string, QueryRequest, bool) {
	var req QueryRequest
	projectID, ok := middleware.ProjectIDFromContext(r.Context())
	if !ok {
		writeFailure(w, http.StatusUnauthorized, "unauthorized: no project resolved for request")
		return "", req, false
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeFailure(w, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.Is(err, io.EOF):
			writeFailure(w, http.StatusBadRequest, "request body is required")
		default:
			writeFailure(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		}
		return "", req, false
	}
	return projectID, req, true
}

func writeFailure(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Envelope{Success: false, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
