package syntax

import (
	"fmt"
	"sort"
	"strings"
)

// TokenKind classifies lexer tokens. Literal nodes keep the TokenKind of the
// token they were built from.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenIdent
	TokenKeyword
	TokenPunct
	TokenInt
	TokenLong
	TokenFloat
	TokenDouble
	TokenHex
	TokenString
	TokenTrue
	TokenFalse
	TokenNull
	TokenInvalid
)

var tokenNames = [...]string{
	TokenEOF:     "EOF",
	TokenIdent:   "identifier",
	TokenKeyword: "keyword",
	TokenPunct:   "punctuation",
	TokenInt:     "int",
	TokenLong:    "long",
	TokenFloat:   "float",
	TokenDouble:  "double",
	TokenHex:     "hex",
	TokenString:  "string",
	TokenTrue:    "true",
	TokenFalse:   "false",
	TokenNull:    "null",
	TokenInvalid: "invalid",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenNames) {
		return tokenNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Keywords is the reserved word list of the language, sorted.
var Keywords = []string{
	"any",
	"as",
	"bool",
	"break",
	"byte",
	"continue",
	"double",
	"else",
	"extends",
	"false",
	"float",
	"for",
	"frigginClass",
	"frigginConstructor",
	"function",
	"global",
	"has",
	"if",
	"import",
	"in",
	"instanceof",
	"int",
	"long",
	"null",
	"operator",
	"return",
	"short",
	"static",
	"string",
	"this",
	"to",
	"true",
	"val",
	"var",
	"void",
	"while",
	"zenClass",
	"zenConstructor",
}

// IsKeyword reports whether s is reserved.
func IsKeyword(s string) bool {
	i := sort.SearchStrings(Keywords, s)
	return i < len(Keywords) && Keywords[i] == s
}

// Token is a lexeme with its position and byte offsets in the source.
type Token struct {
	Kind      TokenKind
	Text      string
	Start     Position
	End       Position
	Offset    int
	EndOffset int
}

// Is reports whether t is the keyword or punctuation s.
func (t Token) Is(s string) bool {
	return (t.Kind == TokenKeyword || t.Kind == TokenPunct) && t.Text == s
}

// puncts is ordered longest first so the lexer takes the longest match.
var puncts = []string{
	"...",
	"..", "&&", "||", "==", "!=", "<=", ">=",
	"+=", "-=", "*=", "/=", "%=", "~=", "&=", "|=", "^=",
	"+", "-", "*", "/", "%", "~", "&", "|", "^", "!", "<", ">", "=",
	"?", ":", ".", ",", ";", "(", ")", "[", "]", "{", "}", "$", "@",
}

type lexer struct {
	src    string
	off    int
	line   int
	col    int
	tokens []Token
	diags  []Diagnostic
}

// Lex splits src into tokens. The result always ends with a TokenEOF.
func Lex(src string) ([]Token, []Diagnostic) {
	lx := &lexer{src: src, line: 1}
	lx.run()
	return lx.tokens, lx.diags
}

func (lx *lexer) pos() Position { return Position{Line: lx.line, Column: lx.col} }

func (lx *lexer) peek(ahead int) byte {
	if lx.off+ahead < len(lx.src) {
		return lx.src[lx.off+ahead]
	}
	return 0
}

func (lx *lexer) advance(n int) {
	for i := 0; i < n && lx.off < len(lx.src); i++ {
		if lx.src[lx.off] == '\n' {
			lx.line++
			lx.col = 0
		} else {
			lx.col++
		}
		lx.off++
	}
}

func (lx *lexer) emit(kind TokenKind, start Position, startOff int) {
	lx.tokens = append(lx.tokens, Token{
		Kind:      kind,
		Text:      lx.src[startOff:lx.off],
		Start:     start,
		End:       lx.pos(),
		Offset:    startOff,
		EndOffset: lx.off,
	})
}

func (lx *lexer) run() {
	for {
		lx.skipTrivia()
		if lx.off >= len(lx.src) {
			p := lx.pos()
			lx.tokens = append(lx.tokens, Token{Kind: TokenEOF, Start: p, End: p, Offset: lx.off, EndOffset: lx.off})
			return
		}
		start, startOff := lx.pos(), lx.off
		c := lx.src[lx.off]
		switch {
		case isIdentStart(c):
			for lx.off < len(lx.src) && isIdentPart(lx.src[lx.off]) {
				lx.advance(1)
			}
			word := lx.src[startOff:lx.off]
			kind := TokenIdent
			switch {
			case word == "true":
				kind = TokenTrue
			case word == "false":
				kind = TokenFalse
			case word == "null":
				kind = TokenNull
			case IsKeyword(word):
				kind = TokenKeyword
			}
			lx.emit(kind, start, startOff)
		case isDigit(c):
			lx.emit(lx.number(), start, startOff)
		case c == '"' || c == '\'':
			lx.emit(lx.str(c, start), start, startOff)
		default:
			matched := false
			for _, p := range puncts {
				if strings.HasPrefix(lx.src[lx.off:], p) {
					lx.advance(len(p))
					lx.emit(TokenPunct, start, startOff)
					matched = true
					break
				}
			}
			if !matched {
				lx.advance(1)
				lx.emit(TokenInvalid, start, startOff)
				lx.diags = append(lx.diags, Diagnostic{
					Range:   Range{Start: start, End: lx.pos()},
					Message: fmt.Sprintf("unexpected character %q", c),
				})
			}
		}
	}
}

func (lx *lexer) skipTrivia() {
	for lx.off < len(lx.src) {
		c := lx.src[lx.off]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			lx.advance(1)
		case c == '#' || (c == '/' && lx.peek(1) == '/'):
			for lx.off < len(lx.src) && lx.src[lx.off] != '\n' {
				lx.advance(1)
			}
		case c == '/' && lx.peek(1) == '*':
			lx.advance(2)
			for lx.off < len(lx.src) && !(lx.src[lx.off] == '*' && lx.peek(1) == '/') {
				lx.advance(1)
			}
			lx.advance(2)
		default:
			return
		}
	}
}

func (lx *lexer) number() TokenKind {
	if lx.src[lx.off] == '0' && (lx.peek(1) == 'x' || lx.peek(1) == 'X') {
		lx.advance(2)
		for lx.off < len(lx.src) && isHexDigit(lx.src[lx.off]) {
			lx.advance(1)
		}
		return TokenHex
	}
	for lx.off < len(lx.src) && isDigit(lx.src[lx.off]) {
		lx.advance(1)
	}
	floating := false
	// "1..5" is a range, not a fraction.
	if lx.peek(0) == '.' && isDigit(lx.peek(1)) {
		floating = true
		lx.advance(1)
		for lx.off < len(lx.src) && isDigit(lx.src[lx.off]) {
			lx.advance(1)
		}
	}
	if c := lx.peek(0); c == 'e' || c == 'E' {
		n := 1
		if s := lx.peek(1); s == '+' || s == '-' {
			n = 2
		}
		if isDigit(lx.peek(n)) {
			floating = true
			lx.advance(n)
			for lx.off < len(lx.src) && isDigit(lx.src[lx.off]) {
				lx.advance(1)
			}
		}
	}
	switch lx.peek(0) {
	case 'l', 'L':
		if !floating {
			lx.advance(1)
			return TokenLong
		}
	case 'f', 'F':
		lx.advance(1)
		return TokenFloat
	case 'd', 'D':
		lx.advance(1)
		return TokenDouble
	}
	if floating {
		return TokenDouble
	}
	return TokenInt
}

func (lx *lexer) str(quote byte, start Position) TokenKind {
	lx.advance(1)
	for lx.off < len(lx.src) {
		c := lx.src[lx.off]
		switch {
		case c == '\\':
			lx.advance(2)
		case c == quote:
			lx.advance(1)
			return TokenString
		case c == '\n':
			lx.diags = append(lx.diags, Diagnostic{Range: Range{Start: start, End: lx.pos()}, Message: "unterminated string"})
			return TokenString
		default:
			lx.advance(1)
		}
	}
	lx.diags = append(lx.diags, Diagnostic{Range: Range{Start: start, End: lx.pos()}, Message: "unterminated string"})
	return TokenString
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
