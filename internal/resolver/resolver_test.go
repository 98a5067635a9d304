package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metorex-lang/metorex/internal/parser"
)

func resolve(t *testing.T, src string) []Warning {
	t.Helper()
	p, err := parser.New(src)
	require.NoError(t, err)
	prog := p.ParseProgram()
	require.Empty(t, p.Errors(), "unexpected parse errors: %v", p.Errors())
	return Resolve(prog)
}

func TestResolveCleanProgramHasNoWarnings(t *testing.T) {
	warnings := resolve(t, `
x = 1
y = x + 1
puts y
`)
	assert.Empty(t, warnings)
}

func TestResolveFlagsUndefinedVariable(t *testing.T) {
	warnings := resolve(t, `puts undefined_name`)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "undefined_name")
}

func TestResolveHoistsTopLevelFunctionsAndClasses(t *testing.T) {
	warnings := resolve(t, `
def greet
  "hi"
end

class Greeter
end

greet
Greeter.new
`)
	assert.Empty(t, warnings)
}

func TestResolveMethodBoundaryCannotSeeOuterLocal(t *testing.T) {
	warnings := resolve(t, `
def outer
  local = 1
  def inner
    local
  end
end
`)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "local")
}

func TestResolveMethodBoundarySeesTopLevelLikeGlobal(t *testing.T) {
	warnings := resolve(t, `
shared = 10

def reader
  shared
end
`)
	assert.Empty(t, warnings)
}

func TestResolveIfBlockReassignmentIsNotAShadow(t *testing.T) {
	warnings := resolve(t, `
total = 0

if true
  total = 1
end
`)
	assert.Empty(t, warnings)
}

func TestResolveArrayPatternBindsElementNames(t *testing.T) {
	warnings := resolve(t, `
case [1, 2, 3]
when [first, *rest]
  puts first
  puts rest
end
`)
	assert.Empty(t, warnings)
}

func TestResolveLambdaParamsAreScoped(t *testing.T) {
	warnings := resolve(t, `
blk = lambda |x|
  x + 1
end
puts x
`)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "'x'")
}
