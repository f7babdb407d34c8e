package sqlparse

import "strings"

// Lexer tokenizes SQL input. End of input is tracked by position, so a NUL
// byte inside the text is an illegal character rather than a terminator.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
}

// NewLexer returns a lexer positioned at the start of input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

// NextToken scans and returns the next token. At end of input it returns
// TOKEN_EOF forever.
func (l *Lexer) NextToken() Token {
	if msg, ok := l.skipWhitespaceAndComments(); !ok {
		return Token{Type: TOKEN_ILLEGAL, Literal: msg, Pos: l.pos}
	}

	start := l.pos
	if l.atEOF() {
		return Token{Type: TOKEN_EOF, Pos: start}
	}

	var tok Token
	switch l.ch {
	case '+':
		tok = Token{Type: TOKEN_PLUS, Literal: "+"}
	case '-':
		tok = Token{Type: TOKEN_MINUS, Literal: "-"}
	case '*':
		tok = Token{Type: TOKEN_STAR, Literal: "*"}
	case '/':
		tok = Token{Type: TOKEN_SLASH, Literal: "/"}
	case '%':
		tok = Token{Type: TOKEN_MOD, Literal: "%"}
	case '=':
		tok = Token{Type: TOKEN_EQ, Literal: "="}
	case '<':
		switch l.peekChar() {
		case '=':
			l.readChar()
			tok = Token{Type: TOKEN_LE, Literal: "<="}
		case '>':
			l.readChar()
			tok = Token{Type: TOKEN_NE, Literal: "<>"}
		default:
			tok = Token{Type: TOKEN_LT, Literal: "<"}
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: TOKEN_GE, Literal: ">="}
		} else {
			tok = Token{Type: TOKEN_GT, Literal: ">"}
		}
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = Token{Type: TOKEN_NE, Literal: "!="}
		} else {
			tok = Token{Type: TOKEN_ILLEGAL, Literal: "!"}
		}
	case '|':
		if l.peekChar() == '|' {
			l.readChar()
			tok = Token{Type: TOKEN_DPIPE, Literal: "||"}
		} else {
			tok = Token{Type: TOKEN_ILLEGAL, Literal: "|"}
		}
	case '.':
		if isDigit(l.peekChar()) {
			tok = Token{Type: TOKEN_NUMBER, Literal: l.readNumber(), Pos: start}
			return tok
		}
		tok = Token{Type: TOKEN_DOT, Literal: "."}
	case ',':
		tok = Token{Type: TOKEN_COMMA, Literal: ","}
	case ';':
		tok = Token{Type: TOKEN_SEMICOLON, Literal: ";"}
	case '(':
		tok = Token{Type: TOKEN_LPAREN, Literal: "("}
	case ')':
		tok = Token{Type: TOKEN_RPAREN, Literal: ")"}
	case ':':
		if l.peekChar() == ':' {
			l.readChar()
			tok = Token{Type: TOKEN_DCOLON, Literal: "::"}
		} else {
			tok = Token{Type: TOKEN_ILLEGAL, Literal: ":"}
		}
	case '?':
		tok = Token{Type: TOKEN_PARAM, Literal: "?"}
	case '$':
		if !isDigit(l.peekChar()) {
			tok = Token{Type: TOKEN_ILLEGAL, Literal: "$"}
			break
		}
		l.readChar() // skip $
		digits := l.pos
		for isDigit(l.ch) {
			l.readChar()
		}
		return Token{Type: TOKEN_PARAM, Literal: "$" + l.input[digits:l.pos], Pos: start}
	case '\'':
		s, ok := l.readDelimited('\'')
		if !ok {
			return Token{Type: TOKEN_ILLEGAL, Literal: "unterminated string literal", Pos: start}
		}
		return Token{Type: TOKEN_STRING, Literal: s, Pos: start}
	case '"':
		s, ok := l.readDelimited('"')
		if !ok {
			return Token{Type: TOKEN_ILLEGAL, Literal: "unterminated quoted identifier", Pos: start}
		}
		if s == "" {
			return Token{Type: TOKEN_ILLEGAL, Literal: "zero-length quoted identifier", Pos: start}
		}
		return Token{Type: TOKEN_IDENT, Literal: s, Quoted: true, Pos: start}
	default:
		switch {
		case isIdentStart(l.ch):
			word := l.readIdentifier()
			lower := strings.ToLower(word)
			return Token{Type: lookupKeyword(lower), Literal: lower, Pos: start}
		case isDigit(l.ch):
			return Token{Type: TOKEN_NUMBER, Literal: l.readNumber(), Pos: start}
		default:
			tok = Token{Type: TOKEN_ILLEGAL, Literal: string(l.ch)}
		}
	}

	tok.Pos = start
	l.readChar()
	return tok
}

// skipWhitespaceAndComments skips whitespace and SQL comments. It returns
// false with a message when a block comment is never closed.
func (l *Lexer) skipWhitespaceAndComments() (string, bool) {
	for !l.atEOF() {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' || l.ch == '\f':
			l.readChar()
		case l.ch == '-' && l.peekChar() == '-':
			for !l.atEOF() && l.ch != '\n' {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			if !l.skipBlockComment() {
				return "unterminated block comment", false
			}
		default:
			return "", true
		}
	}
	return "", true
}

// skipBlockComment consumes a /* ... */ comment. Nested comments are
// honoured the way PostgreSQL does.
func (l *Lexer) skipBlockComment() bool {
	depth := 0
	for !l.atEOF() {
		switch {
		case l.ch == '/' && l.peekChar() == '*':
			depth++
			l.readChar()
			l.readChar()
		case l.ch == '*' && l.peekChar() == '/':
			depth--
			l.readChar()
			l.readChar()
			if depth == 0 {
				return true
			}
		default:
			l.readChar()
		}
	}
	return false
}

// readDelimited reads a literal enclosed in quote, treating a doubled quote
// as an escaped quote character.
func (l *Lexer) readDelimited(quote byte) (string, bool) {
	l.readChar() // skip opening quote
	var result strings.Builder
	for !l.atEOF() {
		if l.ch == quote {
			if l.peekChar() == quote {
				result.WriteByte(quote)
				l.readChar()
				l.readChar()
				continue
			}
			l.readChar() // skip closing quote
			return result.String(), true
		}
		result.WriteByte(l.ch)
		l.readChar()
	}
	return "", false
}

func (l *Lexer) readIdentifier() string {
	start := l.pos
	for !l.atEOF() && isIdentPart(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readNumber consumes digits, an optional fraction and an optional exponent.
func (l *Lexer) readNumber() string {
	start := l.pos
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if (l.ch == 'e' || l.ch == 'E') && (isDigit(l.peekChar()) || l.peekChar() == '+' || l.peekChar() == '-') {
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return l.input[start:l.pos]
}

// isIdentStart accepts ASCII letters, underscore and any byte of a
// multi-byte UTF-8 sequence.
func isIdentStart(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch == '_' || ch >= 0x80
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '$'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
