package transpile

import (
	"errors"
	"fmt"
)

// Fixed rejection reasons. Typed errors wrap these so callers can test
// them with errors.Is.
var (
	ErrEmptyQuery         = errors.New("query is empty")
	ErrMultiStatement     = errors.New("multiple statements are not allowed")
	ErrNotSelect          = errors.New("only SELECT queries are allowed")
	ErrNestedStatement    = errors.New("subqueries and CTEs must be SELECT queries")
	ErrSelectInto         = errors.New("SELECT INTO is not allowed")
	ErrLockingClause      = errors.New("locking clauses are not allowed")
	ErrParameterInInput   = errors.New("query parameters are not allowed")
	ErrTableFunction      = errors.New("table functions and file sources are not allowed in FROM")
	ErrFunctionNotAllowed = errors.New("function is not allowed")
)

// ErrorKind classifies a transpile failure.
type ErrorKind string

const (
	KindNone     ErrorKind = ""
	KindSyntax   ErrorKind = "syntax"
	KindShape    ErrorKind = "shape"
	KindCatalog  ErrorKind = "catalog"
	KindInternal ErrorKind = "internal"
)

// SyntaxError indicates the input is not parseable under the supported
// grammar.
type SyntaxError struct {
	Message string
	Pos     int // byte offset, -1 when not tied to a position
	Err     error
}

func (e *SyntaxError) Error() string { return e.Message }
func (e *SyntaxError) Unwrap() error { return e.Err }

// ShapeError indicates the input parsed but is not a single read-only query.
type ShapeError struct {
	Message string
	Err     error
}

func (e *ShapeError) Error() string { return e.Message }
func (e *ShapeError) Unwrap() error { return e.Err }

// CatalogError indicates a table reference outside the allow-list.
type CatalogError struct {
	Message string
	Table   string
}

func (e *CatalogError) Error() string { return e.Message }

// InternalError is an invariant violation inside the rewriter or emitter.
// It is never returned together with SQL.
type InternalError struct {
	Message string
	Err     error
}

func (e *InternalError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *InternalError) Unwrap() error { return e.Err }

func shapeError(reason error, format string, args ...any) *ShapeError {
	msg := reason.Error()
	if format != "" {
		msg = fmt.Sprintf(format, args...) + ": " + msg
	}
	return &ShapeError{Message: msg, Err: reason}
}

func internalError(err error, format string, args ...any) *InternalError {
	return &InternalError{Message: fmt.Sprintf(format, args...), Err: err}
}

// Kind reports which class of the taxonomy err belongs to. Errors that are
// not transpile errors are internal.
func Kind(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var (
		syntaxErr  *SyntaxError
		shapeErr   *ShapeError
		catalogErr *CatalogError
	)
	switch {
	case errors.As(err, &syntaxErr):
		return KindSyntax
	case errors.As(err, &shapeErr):
		return KindShape
	case errors.As(err, &catalogErr):
		return KindCatalog
	}
	return KindInternal
}

// IsRejection reports whether err is a client-side rejection rather than
// an internal failure.
func IsRejection(err error) bool {
	switch Kind(err) {
	case KindSyntax, KindShape, KindCatalog:
		return true
	}
	return false
}
