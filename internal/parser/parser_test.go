package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metorex-lang/metorex/internal/ast"
)

func parseProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	p, err := New(src)
	require.NoError(t, err)
	prog := p.ParseProgram()
	require.Empty(t, p.Errors(), "unexpected parse errors: %v", p.Errors())
	return prog
}

func TestParseClassDefWithSuperclassAndMethod(t *testing.T) {
	prog := parseProgram(t, `
class Dog < Animal
  def speak
    "woof"
  end
end
`)
	require.Len(t, prog.Statements, 1)
	cls, ok := prog.Statements[0].(*ast.ClassDef)
	require.True(t, ok)
	assert.Equal(t, "Dog", cls.Name)
	assert.Equal(t, "Animal", cls.Superclass)
	require.Len(t, cls.Body, 1)
	method, ok := cls.Body[0].(*ast.MethodDef)
	require.True(t, ok)
	assert.Equal(t, "speak", method.Name)
}

func TestParseTopLevelDefIsFunctionDef(t *testing.T) {
	prog := parseProgram(t, "def add(a, b)\n  a + b\nend\n")
	require.Len(t, prog.Statements, 1)
	_, ok := prog.Statements[0].(*ast.FunctionDef)
	assert.True(t, ok)
}

func TestParseIfElsifElse(t *testing.T) {
	prog := parseProgram(t, `
if x < 0
  y = 1
elsif x == 0
  y = 2
else
  y = 3
end
`)
	stmt, ok := prog.Statements[0].(*ast.IfStmt)
	require.True(t, ok)
	require.Len(t, stmt.Elsifs, 1)
	assert.NotNil(t, stmt.Else)
}

func TestParseWhileAndFor(t *testing.T) {
	prog := parseProgram(t, "while x < 10\n  x = x + 1\nend\nfor item in list\n  puts item\nend\n")
	require.Len(t, prog.Statements, 2)
	_, ok := prog.Statements[0].(*ast.WhileStmt)
	assert.True(t, ok)
	forStmt, ok := prog.Statements[1].(*ast.ForStmt)
	require.True(t, ok)
	assert.Equal(t, "item", forStmt.Var)
}

func TestParseBeginRescueElseEnsure(t *testing.T) {
	prog := parseProgram(t, `
begin
  risky
rescue ZeroDivisionError, TypeError => e
  handle(e)
else
  ok
ensure
  cleanup
end
`)
	stmt, ok := prog.Statements[0].(*ast.BeginStmt)
	require.True(t, ok)
	require.Len(t, stmt.Rescues, 1)
	assert.Equal(t, []string{"ZeroDivisionError", "TypeError"}, stmt.Rescues[0].ExceptionTypeNames)
	assert.Equal(t, "e", stmt.Rescues[0].BoundVarName)
	assert.NotNil(t, stmt.Else)
	assert.NotNil(t, stmt.Ensure)
}

func TestParseCaseWhenDesugarsToMatchStmt(t *testing.T) {
	prog := parseProgram(t, `
case value
when [first, *rest]
  puts first
when 0
  puts "zero"
else
  puts "other"
end
`)
	stmt, ok := prog.Statements[0].(*ast.MatchStmt)
	require.True(t, ok)
	require.Len(t, stmt.Cases, 3)
	_, isArrayPattern := stmt.Cases[0].Pattern.(ast.ArrayPattern)
	assert.True(t, isArrayPattern)
	_, isWildcard := stmt.Cases[2].Pattern.(ast.WildcardPattern)
	assert.True(t, isWildcard)
}

func TestParseAttrDeclarations(t *testing.T) {
	prog := parseProgram(t, "attr_accessor :name, :age\n")
	stmt, ok := prog.Statements[0].(*ast.AttrAccessorStmt)
	require.True(t, ok)
	assert.Equal(t, []string{"name", "age"}, stmt.Names)
}

func TestParseParenlessCall(t *testing.T) {
	prog := parseProgram(t, "puts 1, 2\n")
	es, ok := prog.Statements[0].(*ast.ExpressionStatement)
	require.True(t, ok)
	call, ok := es.Expr.(*ast.Call)
	require.True(t, ok)
	require.Len(t, call.Args, 2)
}

func TestParseDictLiteralWithColonAndFatArrow(t *testing.T) {
	prog := parseProgram(t, `x = {a: 1, "b" => 2}`)
	assign, ok := prog.Statements[0].(*ast.Assignment)
	require.True(t, ok)
	dict, ok := assign.Value.(*ast.DictLiteral)
	require.True(t, ok)
	require.Len(t, dict.Entries, 2)
}

func TestDictLiteralMissingColonSurfacesAsSyntaxError(t *testing.T) {
	p, err := New("x = {a 1}")
	require.NoError(t, err)
	p.ParseProgram()
	require.NotEmpty(t, p.Errors())
	assert.Contains(t, p.Errors()[0].Message, "dict literal")
}

func TestParseTrailingDoBlockOnCall(t *testing.T) {
	prog := parseProgram(t, "[1, 2, 3].each do |x|\n  puts x\nend\n")
	es, ok := prog.Statements[0].(*ast.ExpressionStatement)
	require.True(t, ok)
	call, ok := es.Expr.(*ast.MethodCall)
	require.True(t, ok)
	require.NotNil(t, call.TrailingBlock)
	require.Len(t, call.TrailingBlock.Parameters, 1)
	assert.Equal(t, "x", call.TrailingBlock.Parameters[0].Name)
}

func TestParseTrailingBraceBlockOnCall(t *testing.T) {
	prog := parseProgram(t, "arr.map { |x| x * 2 }\n")
	es, ok := prog.Statements[0].(*ast.ExpressionStatement)
	require.True(t, ok)
	call, ok := es.Expr.(*ast.MethodCall)
	require.True(t, ok)
	require.NotNil(t, call.TrailingBlock)
}

func TestParseInclusiveRange(t *testing.T) {
	prog := parseProgram(t, "r = 1..10\n")
	assign, ok := prog.Statements[0].(*ast.Assignment)
	require.True(t, ok)
	rng, ok := assign.Value.(*ast.RangeExpr)
	require.True(t, ok)
	assert.False(t, rng.Exclusive)
}

func TestParseExclusiveRange(t *testing.T) {
	prog := parseProgram(t, "r = 1...10\n")
	assign, ok := prog.Statements[0].(*ast.Assignment)
	require.True(t, ok)
	rng, ok := assign.Value.(*ast.RangeExpr)
	require.True(t, ok)
	assert.True(t, rng.Exclusive)
}

func TestParseCompoundAssignment(t *testing.T) {
	prog := parseProgram(t, "x += 1\n")
	assign, ok := prog.Statements[0].(*ast.Assignment)
	require.True(t, ok)
	assert.Equal(t, "+=", assign.Operator)
}

func TestParseIndexAssignment(t *testing.T) {
	prog := parseProgram(t, "a[0] = 5\n")
	assign, ok := prog.Statements[0].(*ast.Assignment)
	require.True(t, ok)
	_, ok = assign.Target.(*ast.IndexExpr)
	assert.True(t, ok)
}

func TestParsePrecedenceMultiplicationBeforeAddition(t *testing.T) {
	prog := parseProgram(t, "x = 1 + 2 * 3\n")
	assign := prog.Statements[0].(*ast.Assignment)
	bin := assign.Value.(*ast.BinaryOp)
	assert.Equal(t, "+", bin.Op)
	rightMul, ok := bin.Right.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "*", rightMul.Op)
}

func TestParseInterpolatedStringReparsesExpressionParts(t *testing.T) {
	prog := parseProgram(t, `x = "hello, #{name}!"`)
	assign := prog.Statements[0].(*ast.Assignment)
	lit, ok := assign.Value.(*ast.InterpolatedString)
	require.True(t, ok)
	require.Len(t, lit.Parts, 3)
	assert.Nil(t, lit.Parts[0].Expr)
	require.NotNil(t, lit.Parts[1].Expr)
	ident, ok := lit.Parts[1].Expr.(*ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "name", ident.Name)
}

func TestSynchronizeRecoversAfterErrorAtNextStatement(t *testing.T) {
	p, err := New("x = \ny = 2\n")
	require.NoError(t, err)
	prog := p.ParseProgram()
	require.NotEmpty(t, p.Errors())
	// The second statement should still be recovered after synchronization.
	var sawY bool
	for _, stmt := range prog.Statements {
		if assign, ok := stmt.(*ast.Assignment); ok {
			if ident, ok := assign.Target.(*ast.Identifier); ok && ident.Name == "y" {
				sawY = true
			}
		}
	}
	assert.True(t, sawY)
}

func TestParseLambdaExpression(t *testing.T) {
	prog := parseProgram(t, "square = lambda |n| n * n end\n")
	assign := prog.Statements[0].(*ast.Assignment)
	lam, ok := assign.Value.(*ast.Lambda)
	require.True(t, ok)
	require.Len(t, lam.Parameters, 1)
	assert.Equal(t, "n", lam.Parameters[0].Name)
}

func TestParseSuperWithParens(t *testing.T) {
	prog := parseProgram(t, "class Dog < Animal\n  def speak\n    super(1)\n  end\nend\n")
	cls := prog.Statements[0].(*ast.ClassDef)
	method := cls.Body[0].(*ast.MethodDef)
	es := method.Body[0].(*ast.ExpressionStatement)
	sup, ok := es.Expr.(*ast.SuperExpr)
	require.True(t, ok)
	assert.True(t, sup.HasParens)
	require.Len(t, sup.Args, 1)
}
