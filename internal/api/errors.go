package api

import (
	"context"
	"errors"
	"net/http"

	"sqlscope/internal/query"
	"sqlscope/internal/transpile"
)

// httpStatusFromError maps query errors to HTTP status codes.
func httpStatusFromError(err error) int {
	var syntaxErr *transpile.SyntaxError
	var shapeErr *transpile.ShapeError
	var catalogErr *transpile.CatalogError
	var execErr *query.ExecutionError

	switch {
	case errors.As(err, &syntaxErr), errors.As(err, &shapeErr), errors.As(err, &catalogErr):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &execErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage hides internal error details from callers.
func publicMessage(err error, status int) string {
	if status == http.StatusInternalServerError {
		return "internal error"
	}
	if status == http.StatusGatewayTimeout {
		return "query timed out"
	}
	return err.Error()
}
