// Package transpile validates user-authored SQL and rewrites it into a
// tenant-scoped, row-capped, parameterized query.
//
// The pipeline is Parse, ValidateShape, CheckCatalog, ScopeToTenant,
// EnforceLimit and Emit. Each stage either hands a fresh tree to the next
// or stops the pipeline with a typed error; no stage mutates its input.
package transpile

import (
	"errors"
	"fmt"
	"log/slog"

	"sqlscope/internal/sqlparse"
)

// Options configures a Transpiler. Zero values select defaults.
type Options struct {
	DefaultLimit    uint64   // row cap for the outermost query, default 100
	MaxDepth        int      // parser nesting cap, default sqlparse.DefaultMaxDepth
	MaxQueryBytes   int      // input length cap, 0 for none
	DeniedFunctions []string // nil selects DefaultDeniedFunctions
	Logger          *slog.Logger

	// PanicOnInternal re-raises internal errors instead of returning them.
	PanicOnInternal bool
}

// Transpiler runs the validation and rewrite pipeline. It holds no
// per-call state and is safe for concurrent use.
type Transpiler struct {
	opts   Options
	denied map[string]bool
	logger *slog.Logger
}

// New creates a Transpiler.
func New(opts Options) *Transpiler {
	if opts.DefaultLimit == 0 {
		opts.DefaultLimit = DefaultLimit
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = sqlparse.DefaultMaxDepth
	}
	denied := opts.DeniedFunctions
	if denied == nil {
		denied = DefaultDeniedFunctions
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Transpiler{opts: opts, denied: denySet(denied), logger: logger}
}

// Output is a successful transpilation.
type Output struct {
	SQL      string
	Args     []BindArgument
	Warnings []string
	Tables   []string // base tables referenced, in first-use order
}

// ValidateAndTranspile runs Transpile and folds the outcome into a
// ValidationResult.
func (t *Transpiler) ValidateAndTranspile(catalog TableCatalog, rawSQL, tenantID string) ValidationResult {
	return NewValidationResult(t.Transpile(catalog, rawSQL, tenantID))
}

// Transpile validates rawSQL against catalog and rewrites it for
// tenantID. catalog is treated as an immutable snapshot for the call.
func (t *Transpiler) Transpile(catalog TableCatalog, rawSQL, tenantID string) (out *Output, err error) {
	defer func() {
		if r := recover(); r != nil {
			if t.opts.PanicOnInternal {
				panic(r)
			}
			t.logger.Error("transpile panicked", "panic", r)
			out, err = nil, internalError(fmt.Errorf("panic: %v", r), "transpile")
		}
	}()

	out, err = t.run(catalog, rawSQL, tenantID)
	if err != nil {
		out = nil
		if Kind(err) == KindInternal {
			t.logger.Error("transpile internal error", "error", err)
			if t.opts.PanicOnInternal {
				panic(err)
			}
		}
	}
	return out, err
}

func (t *Transpiler) run(catalog TableCatalog, rawSQL, tenantID string) (*Output, error) {
	switch {
	case catalog == nil:
		return nil, internalError(nil, "no table catalog")
	case tenantID == "":
		return nil, internalError(nil, "no tenant id")
	case t.opts.MaxQueryBytes > 0 && len(rawSQL) > t.opts.MaxQueryBytes:
		return nil, &SyntaxError{
			Message: fmt.Sprintf("query exceeds maximum length of %d bytes", t.opts.MaxQueryBytes),
			Pos:     t.opts.MaxQueryBytes,
		}
	}

	stmts, err := sqlparse.ParseWithDepth(rawSQL, t.opts.MaxDepth)
	if err != nil {
		return nil, syntaxError(err)
	}
	q, err := ValidateShape(stmts, t.denied)
	if err != nil {
		return nil, err
	}
	if err := CheckCatalog(q, catalog); err != nil {
		return nil, err
	}
	scoped, args, tables, err := ScopeToTenant(q, catalog, tenantID)
	if err != nil {
		return nil, err
	}

	var warnings []string
	limited, warning := EnforceLimit(scoped, t.opts.DefaultLimit)
	if warning != "" {
		warnings = append(warnings, warning)
	}

	sql, args, err := Emit(limited, args, t.opts.MaxDepth)
	if err != nil {
		return nil, err
	}
	return &Output{SQL: sql, Args: args, Warnings: warnings, Tables: tables}, nil
}

// syntaxError converts a parser failure into a SyntaxError.
func syntaxError(err error) error {
	if errors.Is(err, sqlparse.ErrEmpty) {
		return &SyntaxError{Message: ErrEmptyQuery.Error(), Pos: -1, Err: ErrEmptyQuery}
	}
	var perr *sqlparse.Error
	if errors.As(err, &perr) {
		return &SyntaxError{Message: perr.Error(), Pos: perr.Pos, Err: err}
	}
	return internalError(err, "parse")
}
