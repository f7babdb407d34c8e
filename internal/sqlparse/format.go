package sqlparse

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Binding is the argument collected for one numbered placeholder.
type Binding struct {
	Name  string
	Value string
}

// Format renders stmt as SQL. Identifiers are always double-quoted; every
// BindParam becomes a $N placeholder numbered in order of first appearance
// and the returned bindings list holds the value for $N at index N-1.
func Format(stmt *SelectStmt) (string, []Binding, error) {
	if stmt == nil {
		return "", nil, errors.New("format: nil statement")
	}
	f := &formatter{index: make(map[Binding]int)}
	f.formatSelectStmt(stmt)
	if f.err != nil {
		return "", nil, f.err
	}
	return f.buf.String(), f.bindings, nil
}

// formatter accumulates SQL text and bindings. The first error stops
// further output.
type formatter struct {
	buf      strings.Builder
	bindings []Binding
	index    map[Binding]int
	err      error
}

func (f *formatter) write(s string) {
	f.buf.WriteString(s)
}

func (f *formatter) fail(format string, args ...any) {
	if f.err == nil {
		f.err = fmt.Errorf("format: "+format, args...)
	}
}

// placeholder returns the $N text for b, minting a new number the first
// time a binding is seen.
func (f *formatter) placeholder(b Binding) string {
	n, ok := f.index[b]
	if !ok {
		f.bindings = append(f.bindings, b)
		n = len(f.bindings)
		f.index[b] = n
	}
	return "$" + strconv.Itoa(n)
}

// QuoteIdent double-quotes an identifier, doubling embedded quotes.
func QuoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// QuoteString single-quotes a string literal, doubling embedded quotes.
func QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (f *formatter) writeIdent(s string) {
	f.write(QuoteIdent(s))
}

func (f *formatter) writeIdentList(names []string) {
	f.write("(")
	for i, n := range names {
		if i > 0 {
			f.write(", ")
		}
		f.writeIdent(n)
	}
	f.write(")")
}

// commaSep calls fn for 0..n-1 with ", " between calls.
func (f *formatter) commaSep(n int, fn func(int)) {
	for i := range n {
		if i > 0 {
			f.write(", ")
		}
		fn(i)
	}
}
