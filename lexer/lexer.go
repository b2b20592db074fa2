// Package lexer implements the Lexer stage: source_text -> tokens.
package lexer

import (
	"fmt"
	"strconv"

	"github.com/package-register/tinyc/ctx"
	"github.com/package-register/tinyc/engine"
	"github.com/package-register/tinyc/errs"
	"github.com/package-register/tinyc/token"
)

const (
	sourceTextKey = "source_text"
	tokensKey     = "tokens"
)

type scanner struct {
	src    []byte
	pos    int
	line   int
	column int
}

func newScanner(src string) *scanner {
	return &scanner{src: []byte(src), line: 1, column: 1}
}

func (s *scanner) atEnd() bool { return s.pos >= len(s.src) }

func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) peekAt(offset int) byte {
	idx := s.pos + offset
	if idx >= len(s.src) {
		return 0
	}
	return s.src[idx]
}

func (s *scanner) advance() byte {
	c := s.src[s.pos]
	s.pos++
	if c == '\n' {
		s.line++
		s.column = 1
	} else {
		s.column++
	}
	return c
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// Lex scans src into a finished TokenStream, a report of the first Error
// token encountered (if any), and a boolean indicating whether any Error
// token was produced.
func Lex(src string) (*token.TokenStream, token.Token, bool) {
	s := newScanner(src)
	var tokens []token.Token
	var firstError token.Token
	hasError := false

	for {
		s.skipWhitespaceAndComments()
		if s.atEnd() {
			tokens = append(tokens, token.Token{Kind: token.EOF, Line: s.line, Column: s.column})
			break
		}

		startLine, startCol := s.line, s.column
		c := s.peek()

		switch {
		case isIdentStart(c):
			tokens = append(tokens, s.scanIdentifier(startLine, startCol))
		case isDigit(c):
			tokens = append(tokens, s.scanNumber(startLine, startCol))
		default:
			tok, ok := s.scanSymbol(startLine, startCol)
			tokens = append(tokens, tok)
			if !ok && !hasError {
				firstError = tok
				hasError = true
			}
		}
	}

	return token.NewTokenStream(tokens), firstError, hasError
}

func (s *scanner) skipWhitespaceAndComments() {
	for !s.atEnd() {
		c := s.peek()
		switch {
		case isSpace(c):
			s.advance()
		case c == '/' && s.peekAt(1) == '/':
			for !s.atEnd() && s.peek() != '\n' {
				s.advance()
			}
		case c == '/' && s.peekAt(1) == '*':
			s.advance()
			s.advance()
			for !s.atEnd() && !(s.peek() == '*' && s.peekAt(1) == '/') {
				s.advance()
			}
			if !s.atEnd() {
				s.advance()
				s.advance()
			}
		default:
			return
		}
	}
}

func (s *scanner) scanIdentifier(line, col int) token.Token {
	start := s.pos
	for !s.atEnd() && isIdentPart(s.peek()) {
		s.advance()
	}
	lexeme := string(s.src[start:s.pos])
	if kind, ok := token.Keywords[lexeme]; ok {
		return token.Token{Kind: kind, Lexeme: lexeme, Line: line, Column: col}
	}
	return token.Token{Kind: token.Identifier, Lexeme: lexeme, Line: line, Column: col}
}

func (s *scanner) scanNumber(line, col int) token.Token {
	start := s.pos
	for !s.atEnd() && isDigit(s.peek()) {
		s.advance()
	}
	lexeme := string(s.src[start:s.pos])
	value, _ := strconv.ParseInt(lexeme, 10, 64)
	return token.Token{Kind: token.IntLiteral, Lexeme: lexeme, NumericValue: value, Line: line, Column: col}
}

// twoCharSymbols must be checked before single-character symbols to honor
// longest-match.
var twoCharSymbols = map[string]token.Kind{
	"==": token.Eq,
	"!=": token.Ne,
	"<=": token.Le,
	">=": token.Ge,
	"&&": token.And,
	"||": token.Or,
}

var oneCharSymbols = map[byte]token.Kind{
	'+': token.Plus,
	'-': token.Minus,
	'*': token.Star,
	'/': token.Slash,
	'%': token.Percent,
	'<': token.Lt,
	'>': token.Gt,
	'!': token.Not,
	'=': token.Assign,
	';': token.Semicolon,
	':': token.Colon,
	',': token.Comma,
	'(': token.LParen,
	')': token.RParen,
	'{': token.LBrace,
	'}': token.RBrace,
}

func (s *scanner) scanSymbol(line, col int) (token.Token, bool) {
	two := string([]byte{s.peek(), s.peekAt(1)})
	if kind, ok := twoCharSymbols[two]; ok {
		s.advance()
		s.advance()
		return token.Token{Kind: kind, Lexeme: two, Line: line, Column: col}, true
	}

	c := s.peek()
	if kind, ok := oneCharSymbols[c]; ok {
		s.advance()
		return token.Token{Kind: kind, Lexeme: string(c), Line: line, Column: col}, true
	}

	s.advance()
	return token.Token{Kind: token.Error, Lexeme: string(c), Line: line, Column: col}, false
}

// Stage is the engine.Stage implementation wired into the compiler
// pipeline: it reads source_text and, on success, binds tokens.
type Stage struct{}

// New creates the Lexer stage.
func New() *Stage { return &Stage{} }

func (s *Stage) Name() string { return "lexer" }

func (s *Stage) Run(c *ctx.Context) engine.StageOutcome {
	v, err := c.Get(sourceTextKey)
	if err != nil {
		return engine.Failure(errs.NullInput, "source_text not bound in context")
	}
	src, ok := v.(string)
	if !ok {
		return engine.Failure(errs.InvalidInput, "source_text is not a string")
	}

	stream, firstError, hasError := Lex(src)
	if hasError {
		msg := fmt.Sprintf("unexpected character %q at line %d, column %d",
			firstError.Lexeme, firstError.Line, firstError.Column)
		return engine.Failure(errs.InvalidInput, msg)
	}

	if err := c.Set(tokensKey, stream, nil); err != nil {
		return engine.FromError(err)
	}
	return engine.Success()
}

var _ engine.Stage = (*Stage)(nil)
