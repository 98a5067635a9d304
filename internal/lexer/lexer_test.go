package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metorex-lang/metorex/internal/token"
)

func lexAll(t *testing.T, src string) []token.Token {
	t.Helper()
	toks, err := New(src).AllTokens()
	require.NoError(t, err)
	return toks
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestNextToken_Operators(t *testing.T) {
	toks := lexAll(t, "+ - * / % = == != < > <= >= += -= *= /= -> => .. ... . : ;")
	want := []token.Kind{
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.ASSIGN, token.EQ, token.NOT_EQ, token.LT, token.GT, token.LE, token.GE,
		token.PLUS_ASSIGN, token.MINUS_ASSIGN, token.STAR_ASSIGN, token.SLASH_ASSIGN,
		token.ARROW, token.FATARROW, token.DOTDOT, token.DOTDOTDOT, token.DOT, token.COLON, token.SEMICOLON,
		token.EOF,
	}
	// "..", "..." and "." each lex as their own token (DOTDOT, DOTDOTDOT, DOT).
	assert.Equal(t, token.PLUS, toks[0].Kind)
	assert.Equal(t, token.EOF, toks[len(toks)-1].Kind)
	assert.Contains(t, kinds(toks), token.DOTDOTDOT)
	assert.Equal(t, want, kinds(toks))
}

func TestNextToken_NumbersAndDotMethodCall(t *testing.T) {
	toks := lexAll(t, "3.14 5 a.b")
	require.Len(t, toks, 6) // FLOAT INT IDENT DOT IDENT EOF (no trailing newline in the source)
	assert.Equal(t, token.FLOAT, toks[0].Kind)
	assert.InDelta(t, 3.14, toks[0].FloatVal, 1e-9)
	assert.Equal(t, token.INT, toks[1].Kind)
	assert.EqualValues(t, 5, toks[1].IntVal)
	assert.Equal(t, token.IDENT, toks[2].Kind)
	assert.Equal(t, token.DOT, toks[3].Kind)
	assert.Equal(t, token.IDENT, toks[4].Kind)
}

func TestNextToken_KeywordsAndIdents(t *testing.T) {
	toks := lexAll(t, "def class end self super has_key? push!")
	assert.Equal(t, token.DEF, toks[0].Kind)
	assert.Equal(t, token.CLASS, toks[1].Kind)
	assert.Equal(t, token.END, toks[2].Kind)
	assert.Equal(t, token.SELF, toks[3].Kind)
	assert.Equal(t, token.SUPER, toks[4].Kind)
	assert.Equal(t, token.IDENT, toks[5].Kind)
	assert.Equal(t, "has_key?", toks[5].Lexeme)
	assert.Equal(t, "push!", toks[6].Lexeme)
}

func TestNextToken_InstanceAndClassVars(t *testing.T) {
	toks := lexAll(t, "@name @@count")
	assert.Equal(t, token.INSTANCE_VAR, toks[0].Kind)
	assert.Equal(t, "name", toks[0].Lexeme)
	assert.Equal(t, token.CLASS_VAR, toks[1].Kind)
	assert.Equal(t, "count", toks[1].Lexeme)
}

func TestNextToken_Symbol(t *testing.T) {
	toks := lexAll(t, "attr_reader :a, :b")
	assert.Equal(t, token.ATTR_READER, toks[0].Kind)
	assert.Equal(t, token.SYMBOL, toks[1].Kind)
	assert.Equal(t, "a", toks[1].Lexeme)
	assert.Equal(t, token.COMMA, toks[2].Kind)
	assert.Equal(t, token.SYMBOL, toks[3].Kind)
	assert.Equal(t, "b", toks[3].Lexeme)
}

func TestNextToken_SingleQuotedStringNoEscapesExceptQuoteAndBackslash(t *testing.T) {
	toks := lexAll(t, `'it\'s \n raw'`)
	require.Equal(t, token.STRING, toks[0].Kind)
	assert.Equal(t, `it's \n raw`, toks[0].Lexeme)
}

func TestNextToken_DoubleQuotedStringEscapes(t *testing.T) {
	toks := lexAll(t, `"a\nb\t\"c\""`)
	require.Equal(t, token.STRING, toks[0].Kind)
	assert.Equal(t, "a\nb\t\"c\"", toks[0].Lexeme)
}

func TestNextToken_InterpolatedString(t *testing.T) {
	toks := lexAll(t, `"hello, #{name}!"`)
	require.Equal(t, token.INTERPOLATED_STRING, toks[0].Kind)
	require.Len(t, toks[0].Parts, 3)
	assert.Equal(t, "hello, ", toks[0].Parts[0].Text)
	assert.True(t, toks[0].Parts[1].IsExpr)
	assert.Equal(t, "name", toks[0].Parts[1].Text)
	assert.Equal(t, "!", toks[0].Parts[2].Text)
}

func TestNextToken_InterpolationBalancesNestedBraces(t *testing.T) {
	toks := lexAll(t, `"v=#{ {a: 1}.length }"`)
	require.Equal(t, token.INTERPOLATED_STRING, toks[0].Kind)
	require.Len(t, toks[0].Parts, 2)
	assert.True(t, toks[0].Parts[1].IsExpr)
	assert.Contains(t, toks[0].Parts[1].Text, "{a: 1}")
}

func TestNextToken_UnterminatedStringIsError(t *testing.T) {
	_, err := New(`"unterminated`).AllTokens()
	require.Error(t, err)
	var lexErr *Error
	require.ErrorAs(t, err, &lexErr)
	assert.Equal(t, 1, lexErr.Pos.Line)
}

func TestNextToken_UnknownCharacterIsError(t *testing.T) {
	_, err := New("`").AllTokens()
	require.Error(t, err)
}

func TestNextToken_CommentToEndOfLine(t *testing.T) {
	toks := lexAll(t, "x = 1 # comment here\ny")
	var sawComment bool
	for _, tok := range toks {
		if tok.Kind == token.COMMENT {
			sawComment = true
			assert.Equal(t, " comment here", tok.Lexeme)
		}
	}
	assert.True(t, sawComment)
}

func TestNextToken_TracksLineAndColumn(t *testing.T) {
	toks := lexAll(t, "a\nb")
	require.True(t, len(toks) >= 3)
	assert.Equal(t, 1, toks[0].Pos.Line)
	// toks[1] is NEWLINE on line 1, toks[2] is "b" on line 2.
	var foundLine2 bool
	for _, tok := range toks {
		if tok.Kind == token.IDENT && tok.Lexeme == "b" {
			foundLine2 = true
			assert.Equal(t, 2, tok.Pos.Line)
		}
	}
	assert.True(t, foundLine2)
}

// Round-trip property from spec.md §8: lexing -> displaying each token's
// Lexeme -> lexing again reproduces the same kind sequence, for every token
// except Comment/Newline/whitespace-sensitive forms.
func TestRoundTrip_KindsStableAcrossRelex(t *testing.T) {
	src := "def add(a, b)\n  a + b\nend\nx = [1, 2, 3]\ny = {a: 1, b: 2}\n"
	first := lexAll(t, src)

	var rebuilt string
	for _, tok := range first {
		if tok.Kind == token.EOF {
			continue
		}
		if tok.Kind == token.NEWLINE {
			rebuilt += "\n"
			continue
		}
		rebuilt += tok.Lexeme + " "
	}
	second := lexAll(t, rebuilt)

	firstKinds := filterOutComments(kinds(first))
	secondKinds := filterOutComments(kinds(second))
	assert.Equal(t, firstKinds, secondKinds)
}

func filterOutComments(ks []token.Kind) []token.Kind {
	out := make([]token.Kind, 0, len(ks))
	for _, k := range ks {
		if k != token.COMMENT {
			out = append(out, k)
		}
	}
	return out
}
