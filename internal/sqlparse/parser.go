package sqlparse

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultMaxDepth bounds nesting of parentheses, subqueries and unary
// operator chains.
const DefaultMaxDepth = 64

// ErrEmpty is returned when the input holds no statement.
var ErrEmpty = errors.New("empty SQL")

// Error is a syntax error with the byte offset where parsing stopped.
type Error struct {
	Pos int
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s", e.Pos, e.Msg)
}

// bailout unwinds the parser on the first error.
type bailout struct{}

// Parser is a recursive-descent parser with a Pratt expression loop and
// three tokens of lookahead. It stops at the first error.
type Parser struct {
	lexer    *Lexer
	token    Token // current token
	peek     Token // lookahead token
	peek2    Token // second lookahead token
	depth    int
	maxDepth int
	err      *Error
}

// Parse parses sql into its statements using DefaultMaxDepth. Empty
// statements between semicolons are skipped; every other statement is
// returned so that callers can decide how to treat scripts.
func Parse(sql string) ([]Stmt, error) {
	return ParseWithDepth(sql, DefaultMaxDepth)
}

// ParseWithDepth is Parse with an explicit nesting limit.
func ParseWithDepth(sql string, maxDepth int) (stmts []Stmt, err error) {
	if strings.TrimSpace(sql) == "" {
		return nil, ErrEmpty
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	p := &Parser{lexer: NewLexer(sql), maxDepth: maxDepth}
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			stmts, err = nil, p.err
		}
	}()

	p.nextToken()
	p.nextToken()
	p.nextToken()

	for {
		for p.match(TOKEN_SEMICOLON) {
		}
		if p.check(TOKEN_EOF) {
			break
		}
		stmts = append(stmts, p.parseTopLevel())
		if !p.check(TOKEN_EOF) && !p.check(TOKEN_SEMICOLON) {
			p.addError(fmt.Sprintf("unexpected %s after end of statement", describe(p.token)))
		}
	}
	if len(stmts) == 0 {
		return nil, ErrEmpty
	}
	return stmts, nil
}

// statementKeywords are leading words of statements that are recognised
// only so they can be rejected by name.
var statementKeywords = map[string]bool{
	"abort": true, "alter": true, "analyze": true, "attach": true,
	"begin": true, "call": true, "checkpoint": true, "close": true,
	"cluster": true, "comment": true, "commit": true, "copy": true,
	"create": true, "deallocate": true, "declare": true, "delete": true,
	"describe": true, "detach": true, "discard": true, "do": true,
	"drop": true, "exec": true, "execute": true,
	"explain": true, "export": true, "grant": true, "import": true,
	"insert": true, "install": true, "listen": true, "load": true,
	"lock": true, "merge": true, "move": true, "notify": true,
	"pragma": true, "prepare": true, "reassign": true, "refresh": true,
	"reindex": true, "release": true, "rename": true, "replace": true,
	"reset": true, "revoke": true, "rollback": true, "savepoint": true,
	"security": true, "set": true, "show": true, "start": true,
	"summarize": true, "truncate": true, "unlisten": true, "update": true,
	"upsert": true, "use": true, "vacuum": true, "values": true,
}

func (p *Parser) isStatementKeyword() bool {
	return p.check(TOKEN_IDENT) && !p.token.Quoted && statementKeywords[p.token.Literal]
}

// parseTopLevel dispatches on the first token of a statement.
func (p *Parser) parseTopLevel() Stmt {
	switch {
	case p.check(TOKEN_SELECT), p.check(TOKEN_WITH), p.check(TOKEN_LPAREN):
		return p.parseSelectStatement()
	case p.check(TOKEN_END), p.isStatementKeyword():
		return p.parseUnsupported(false)
	}
	p.addError(fmt.Sprintf("unexpected %s at start of statement", describe(p.token)))
	return nil
}

// parseNestedStatement parses the body of a CTE or a FROM subquery. Other
// statement kinds are consumed up to the closing parenthesis.
func (p *Parser) parseNestedStatement() Stmt {
	switch {
	case p.check(TOKEN_SELECT), p.check(TOKEN_WITH), p.check(TOKEN_LPAREN):
		return p.parseSelectStatement()
	case p.isStatementKeyword():
		return p.parseUnsupported(true)
	}
	p.addError(fmt.Sprintf("expected a query, found %s", describe(p.token)))
	return nil
}

// parseUnsupported skips a statement it does not interpret. At top level
// it stops before the next semicolon; nested, it stops before the
// parenthesis that closes the enclosing subquery.
func (p *Parser) parseUnsupported(nested bool) *UnsupportedStmt {
	stmt := &UnsupportedStmt{Keyword: strings.ToUpper(p.token.Literal)}
	depth := 0
	for {
		switch p.token.Type {
		case TOKEN_EOF:
			if nested {
				p.addError("unterminated subquery")
			}
			return stmt
		case TOKEN_SEMICOLON:
			if nested {
				p.addError("unexpected ; inside subquery")
			}
			if depth == 0 {
				return stmt
			}
		case TOKEN_LPAREN:
			depth++
		case TOKEN_RPAREN:
			if depth == 0 {
				if nested {
					return stmt
				}
				p.addError("unbalanced parenthesis")
			}
			depth--
		}
		p.nextToken()
	}
}

// === Token Helpers ===

// nextToken advances to the next token. An illegal token becoming current
// is a syntax error.
func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.peek2
	p.peek2 = p.lexer.NextToken()
	if p.token.Type == TOKEN_ILLEGAL {
		msg := p.token.Literal
		if len(msg) == 1 {
			msg = fmt.Sprintf("unexpected character %q", msg)
		}
		p.addError(msg)
	}
}

func (p *Parser) check(t TokenType) bool {
	return p.token.Type == t
}

func (p *Parser) checkPeek(t TokenType) bool {
	return p.peek.Type == t
}

func (p *Parser) match(t TokenType) bool {
	if p.check(t) {
		p.nextToken()
		return true
	}
	return false
}

// checkSoft reports whether the current token is the given unquoted,
// non-reserved word.
func (p *Parser) checkSoft(word string) bool {
	return p.check(TOKEN_IDENT) && !p.token.Quoted && p.token.Literal == word
}

func (p *Parser) matchSoft(word string) bool {
	if p.checkSoft(word) {
		p.nextToken()
		return true
	}
	return false
}

func (p *Parser) expect(t TokenType) {
	if !p.match(t) {
		p.addError(fmt.Sprintf("expected %s, found %s", t, describe(p.token)))
	}
}

func (p *Parser) expectSoft(word string) {
	if !p.matchSoft(word) {
		p.addError(fmt.Sprintf("expected %s, found %s", strings.ToUpper(word), describe(p.token)))
	}
}

// parseIdent consumes an identifier and returns its text.
func (p *Parser) parseIdent(what string) string {
	if !p.check(TOKEN_IDENT) {
		p.addError(fmt.Sprintf("expected %s, found %s", what, describe(p.token)))
	}
	name := p.token.Literal
	p.nextToken()
	return name
}

// parseIdentList parses a parenthesized, comma-separated identifier list.
func (p *Parser) parseIdentList(what string) []string {
	p.expect(TOKEN_LPAREN)
	names := []string{p.parseIdent(what)}
	for p.match(TOKEN_COMMA) {
		names = append(names, p.parseIdent(what))
	}
	p.expect(TOKEN_RPAREN)
	return names
}

// addError records the error and aborts parsing.
func (p *Parser) addError(msg string) {
	if p.err == nil {
		p.err = &Error{Pos: p.token.Pos, Msg: msg}
	}
	panic(bailout{})
}

func (p *Parser) enter() {
	p.depth++
	if p.depth > p.maxDepth {
		p.addError(fmt.Sprintf("query exceeds maximum nesting depth of %d", p.maxDepth))
	}
}

func (p *Parser) leave() {
	p.depth--
}

// describe renders a token for error messages.
func describe(tok Token) string {
	switch tok.Type {
	case TOKEN_EOF:
		return "end of input"
	case TOKEN_IDENT:
		return fmt.Sprintf("identifier %q", tok.Literal)
	case TOKEN_NUMBER:
		return fmt.Sprintf("number %s", tok.Literal)
	case TOKEN_STRING:
		return "string literal"
	case TOKEN_PARAM:
		return fmt.Sprintf("parameter %s", tok.Literal)
	}
	if tok.Type.IsKeyword() {
		return strings.ToUpper(tok.Literal)
	}
	return fmt.Sprintf("%q", tok.Literal)
}
