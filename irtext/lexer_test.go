package irtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexer(t *testing.T) {
	tokens, err := NewLexer("%x: vec4<f32> = construct 1.0f, -2i, 3u // done\n-> @").Tokenize()
	require.NoError(t, err)

	kinds := make([]TokenKind, len(tokens))
	lexemes := make([]string, len(tokens))
	for i, tok := range tokens {
		kinds[i] = tok.Kind
		lexemes[i] = tok.Lexeme
	}
	assert.Equal(t, []TokenKind{
		TokenValue, TokenColon, TokenIdent, TokenLess, TokenIdent, TokenGreater, TokenEqual,
		TokenIdent, TokenFloatLiteral, TokenComma, TokenIntLiteral, TokenComma, TokenIntLiteral,
		TokenArrow, TokenAt, TokenEOF,
	}, kinds)
	assert.Equal(t, []string{
		"%x", ":", "vec4", "<", "f32", ">", "=", "construct", "1.0f", ",", "-2i", ",", "3u", "->", "@", "",
	}, lexemes)

	arrow := tokens[13]
	assert.Equal(t, 2, arrow.Line)
	assert.Equal(t, 1, arrow.Column)
}

func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		src  string
		kind TokenKind
	}{
		{"1i", TokenIntLiteral},
		{"42u", TokenIntLiteral},
		{"7", TokenIntLiteral},
		{"1.5f", TokenFloatLiteral},
		{"0.25h", TokenFloatLiteral},
		{"1e10f", TokenFloatLiteral},
		{"3f", TokenFloatLiteral},
		{"-4.0f", TokenFloatLiteral},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			tokens, err := NewLexer(tt.src).Tokenize()
			require.NoError(t, err)
			require.Len(t, tokens, 2)
			assert.Equal(t, tt.kind, tokens[0].Kind)
			assert.Equal(t, tt.src, tokens[0].Lexeme)
		})
	}
}

func TestLexerErrors(t *testing.T) {
	_, err := NewLexer("% x").Tokenize()
	require.Error(t, err)
	assert.Equal(t, "1:1: expected value name after '%'", err.Error())

	_, err = NewLexer("a / b").Tokenize()
	require.Error(t, err)
	assert.Equal(t, "1:3: unexpected character '/'", err.Error())
}
