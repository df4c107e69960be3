package irtext

// TokenKind represents the type of token.
type TokenKind uint8

const (
	TokenEOF TokenKind = iota
	TokenError

	// Literals
	TokenIdent
	TokenValue // %name
	TokenIntLiteral
	TokenFloatLiteral

	// Punctuation
	TokenLeftParen  // (
	TokenRightParen // )
	TokenLeftBrace  // {
	TokenRightBrace // }
	TokenLess       // <
	TokenGreater    // >
	TokenComma      // ,
	TokenColon      // :
	TokenEqual      // =
	TokenAt         // @
	TokenArrow      // ->
)

// String returns the string representation of the token kind.
func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "EOF"
	case TokenError:
		return "Error"
	case TokenIdent:
		return "Ident"
	case TokenValue:
		return "Value"
	case TokenIntLiteral:
		return "IntLiteral"
	case TokenFloatLiteral:
		return "FloatLiteral"
	case TokenLeftParen:
		return "("
	case TokenRightParen:
		return ")"
	case TokenLeftBrace:
		return "{"
	case TokenRightBrace:
		return "}"
	case TokenLess:
		return "<"
	case TokenGreater:
		return ">"
	case TokenComma:
		return ","
	case TokenColon:
		return ":"
	case TokenEqual:
		return "="
	case TokenAt:
		return "@"
	case TokenArrow:
		return "->"
	default:
		return "Unknown"
	}
}

// Token represents a lexical token.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Line   int
	Column int
	Offset int
}

// Span represents a source code location span.
type Span struct {
	Start Position
	End   Position
}

// Position represents a position in source code.
type Position struct {
	Line   int
	Column int
	Offset int
}

// span returns the source span covered by the token.
func (t Token) span() Span {
	start := Position{Line: t.Line, Column: t.Column, Offset: t.Offset}
	end := start
	end.Column += len(t.Lexeme)
	end.Offset += len(t.Lexeme)
	return Span{Start: start, End: end}
}
