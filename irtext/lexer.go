package irtext

import (
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes IR text.
type Lexer struct {
	source string
	pos    int
	line   int
	column int
	start  int
	tokens []Token
}

// NewLexer creates a new lexer for the given source.
func NewLexer(source string) *Lexer {
	// Estimate ~1 token per 5 characters of source.
	estTokens := len(source) / 5
	if estTokens < 16 {
		estTokens = 16
	}
	return &Lexer{
		source: source,
		line:   1,
		column: 1,
		tokens: make([]Token, 0, estTokens),
	}
}

// Tokenize returns all tokens from the source.
func (l *Lexer) Tokenize() ([]Token, error) {
	for !l.isAtEnd() {
		l.start = l.pos
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}

	l.tokens = append(l.tokens, Token{
		Kind:   TokenEOF,
		Line:   l.line,
		Column: l.column,
		Offset: l.pos,
	})

	return l.tokens, nil
}

func (l *Lexer) scanToken() error {
	startCol := l.column
	r := l.advance()

	switch r {
	case '(':
		l.addToken(TokenLeftParen, startCol)
	case ')':
		l.addToken(TokenRightParen, startCol)
	case '{':
		l.addToken(TokenLeftBrace, startCol)
	case '}':
		l.addToken(TokenRightBrace, startCol)
	case '<':
		l.addToken(TokenLess, startCol)
	case '>':
		l.addToken(TokenGreater, startCol)
	case ',':
		l.addToken(TokenComma, startCol)
	case ':':
		l.addToken(TokenColon, startCol)
	case '=':
		l.addToken(TokenEqual, startCol)
	case '@':
		l.addToken(TokenAt, startCol)
	case '%':
		if !isIdentChar(l.peek()) {
			return l.errorf(startCol, "expected value name after '%%'")
		}
		for isIdentChar(l.peek()) {
			l.advance()
		}
		l.addToken(TokenValue, startCol)
	case '-':
		switch {
		case l.match('>'):
			l.addToken(TokenArrow, startCol)
		case isDigit(l.peek()):
			l.number(startCol)
		default:
			return l.errorf(startCol, "unexpected character '-'")
		}
	case '/':
		if !l.match('/') {
			return l.errorf(startCol, "unexpected character '/'")
		}
		// Line comment
		for l.peek() != '\n' && !l.isAtEnd() {
			l.advance()
		}

	// Whitespace
	case ' ', '\r', '\t':
	case '\n':
		l.line++
		l.column = 1

	default:
		switch {
		case isDigit(r):
			l.number(startCol)
		case isAlpha(r) || r == '_':
			for isIdentChar(l.peek()) {
				l.advance()
			}
			l.addToken(TokenIdent, startCol)
		default:
			return l.errorf(startCol, "unexpected character %q", r)
		}
	}

	return nil
}

func (l *Lexer) number(startCol int) {
	for isDigit(l.peek()) {
		l.advance()
	}

	float := false
	if l.peek() == '.' && isDigit(l.peekNext()) {
		float = true
		l.advance() // consume '.'
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	// Look for exponent
	if l.peek() == 'e' || l.peek() == 'E' {
		float = true
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		for isDigit(l.peek()) {
			l.advance()
		}
	}

	switch l.peek() {
	case 'f', 'h':
		l.advance()
		float = true
	case 'i', 'u':
		if !float {
			l.advance()
		}
	}

	if float {
		l.addToken(TokenFloatLiteral, startCol)
	} else {
		l.addToken(TokenIntLiteral, startCol)
	}
}

func (l *Lexer) addToken(kind TokenKind, col int) {
	l.tokens = append(l.tokens, Token{
		Kind:   kind,
		Lexeme: l.source[l.start:l.pos],
		Line:   l.line,
		Column: col,
		Offset: l.start,
	})
}

func (l *Lexer) errorf(col int, format string, args ...any) error {
	tok := Token{Line: l.line, Column: col, Offset: l.start, Lexeme: l.source[l.start:l.pos]}
	return NewSourceErrorf(tok.span(), l.source, format, args...)
}

func (l *Lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.source[l.pos:])
	l.pos += size
	l.column++
	return r
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.source[l.pos:])
	return r
}

func (l *Lexer) peekNext() rune {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	_, size := utf8.DecodeRuneInString(l.source[l.pos:])
	r, _ := utf8.DecodeRuneInString(l.source[l.pos+size:])
	return r
}

func (l *Lexer) match(expected rune) bool {
	if l.isAtEnd() {
		return false
	}
	r, size := utf8.DecodeRuneInString(l.source[l.pos:])
	if r != expected {
		return false
	}
	l.pos += size
	l.column++
	return true
}

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isAlpha(r rune) bool {
	return unicode.IsLetter(r)
}

func isIdentChar(r rune) bool {
	return isAlpha(r) || isDigit(r) || r == '_'
}
