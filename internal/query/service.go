// Package query runs tenant-scoped queries: it takes the current catalog
// snapshot, transpiles the user SQL for the caller's project and hands the
// result to an executor.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"sqlscope/internal/catalog"
	"sqlscope/internal/engine"
	"sqlscope/internal/middleware"
	"sqlscope/internal/transpile"
)

// Executor runs emitted SQL with its bind values.
type Executor interface {
	Query(ctx context.Context, sql string, args []any) (*engine.Result, error)
}

// ExecutionError reports that a scoped query failed inside the executor.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string { return "query execution failed: " + e.Err.Error() }

func (e *ExecutionError) Unwrap() error { return e.Err }

// Response is the outcome of a successful Execute.
type Response struct {
	Result   *engine.Result
	Warnings []string
}

// Service wires the transpiler to a catalog provider and an executor.
type Service struct {
	transpiler *transpile.Transpiler
	catalog    catalog.Provider
	exec       Executor
	logger     *slog.Logger
}

// NewService creates a Service. exec may be nil for a validate-only service.
func NewService(t *transpile.Transpiler, provider catalog.Provider, exec Executor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{transpiler: t, catalog: provider, exec: exec, logger: logger}
}

// Validate transpiles sqlQuery for projectID without executing it. The
// returned error is the one folded into the result, for status mapping.
func (s *Service) Validate(ctx context.Context, projectID, sqlQuery string) (transpile.ValidationResult, error) {
	start := time.Now()
	out, err := s.transpiler.Transpile(s.catalog.Snapshot(), sqlQuery, projectID)
	s.audit(ctx, "validate", projectID, sqlQuery, out, err, start)
	return transpile.NewValidationResult(out, err), err
}

// Execute transpiles sqlQuery for projectID and runs it. Rejections come back
// as the transpiler's typed errors; executor failures as *ExecutionError.
func (s *Service) Execute(ctx context.Context, projectID, sqlQuery string) (*Response, error) {
	start := time.Now()
	out, err := s.transpiler.Transpile(s.catalog.Snapshot(), sqlQuery, projectID)
	if err != nil {
		s.audit(ctx, "execute", projectID, sqlQuery, nil, err, start)
		return nil, err
	}
	if s.exec == nil {
		err := fmt.Errorf("no query executor configured")
		s.audit(ctx, "execute", projectID, sqlQuery, out, err, start)
		return nil, err
	}

	args := make([]any, len(out.Args))
	for i, a := range out.Args {
		args[i] = a.Value
	}
	result, err := s.exec.Query(ctx, out.SQL, args)
	if err != nil {
		err = &ExecutionError{Err: err}
		s.audit(ctx, "execute", projectID, sqlQuery, out, err, start)
		return nil, err
	}
	s.audit(ctx, "execute", projectID, sqlQuery, out, nil, start)
	return &Response{Result: result, Warnings: out.Warnings}, nil
}

func (s *Service) audit(ctx context.Context, action, projectID, sqlQuery string, out *transpile.Output, err error, start time.Time) {
	attrs := []any{
		"request_id", middleware.RequestIDFromContext(ctx),
		"action", action,
		"project_id", projectID,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if out != nil {
		attrs = append(attrs, "tables", out.Tables, "warnings", len(out.Warnings))
	}

	var execErr *ExecutionError
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "query allowed", attrs...)
	case errors.As(err, &execErr):
		s.logger.WarnContext(ctx, "query failed", append(attrs, "error", err)...)
	case transpile.IsRejection(err):
		s.logger.InfoContext(ctx, "query rejected", append(attrs, "kind", transpile.Kind(err), "error", err)...)
	default:
		s.logger.ErrorContext(ctx, "query errored", append(attrs, "kind", transpile.Kind(err), "error", err)...)
	}
	s.logger.DebugContext(ctx, "query text", "request_id", middleware.RequestIDFromContext(ctx), "sql", sqlQuery)
}
