package evaluator

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metorex-lang/metorex/internal/parser"
)

// run lexes, parses, and evaluates src in a fresh Evaluator, failing the
// test on any parse error or uncaught exception.
func run(t *testing.T, src string) (Object, *bytes.Buffer) {
	t.Helper()
	p, err := parser.New(src)
	require.NoError(t, err)
	prog := p.ParseProgram()
	require.Empty(t, p.Errors(), "unexpected parse errors: %v", p.Errors())

	var out bytes.Buffer
	ev := New()
	ev.Out = &out
	val, sig := ev.Run(prog)
	if sig != nil && sig.Kind == SigException {
		exc := sig.Value.(*Exception)
		t.Fatalf("uncaught exception: %s: %s", exc.TypeName, exc.Message)
	}
	return val, &out
}

func runErr(t *testing.T, src string) *Exception {
	t.Helper()
	p, err := parser.New(src)
	require.NoError(t, err)
	prog := p.ParseProgram()
	require.Empty(t, p.Errors())

	ev := New()
	ev.Out = &bytes.Buffer{}
	_, sig := ev.Run(prog)
	require.NotNil(t, sig)
	require.Equal(t, SigException, sig.Kind)
	exc, ok := sig.Value.(*Exception)
	require.True(t, ok)
	return exc
}

func TestArithmeticIntPromotesToFloatOnDivision(t *testing.T) {
	val, _ := run(t, "4 / 2")
	assert.Equal(t, &Int{Value: 2}, val)

	val, _ = run(t, "1 / 2")
	f, ok := val.(*Float)
	require.True(t, ok)
	assert.InDelta(t, 0.5, f.Value, 1e-9)
}

func TestModuloFloorsTowardDivisorSign(t *testing.T) {
	val, _ := run(t, "-7 % 3")
	assert.Equal(t, &Int{Value: 2}, val)
}

func TestZeroDivisionRaises(t *testing.T) {
	exc := runErr(t, "1 / 0")
	assert.Equal(t, "ZeroDivisionError", exc.TypeName)
}

func TestStringInterpolation(t *testing.T) {
	val, _ := run(t, `
name = "world"
"hello #{name}!"
`)
	s, ok := val.(*String)
	require.True(t, ok)
	assert.Equal(t, "hello world!", s.Value)
}

func TestClassInstantiationAndMethodDispatch(t *testing.T) {
	val, _ := run(t, `
class Animal
  def initialize(name)
    @name = name
  end

  def speak
    "#{@name} makes a sound"
  end
end

class Dog < Animal
  def speak
    super() + ": woof"
  end
end

Dog.new("Rex").speak
`)
	s, ok := val.(*String)
	require.True(t, ok)
	assert.Equal(t, "Rex makes a sound: woof", s.Value)
}

func TestBlockCapturesSnapshotNotLiveReference(t *testing.T) {
	val, _ := run(t, `
x = 1
blk = lambda ||
  x
end
x = 2
blk.call
`)
	i, ok := val.(*Int)
	require.True(t, ok)
	assert.Equal(t, int64(1), i.Value)
}

func TestArrayEachPropagatesBreak(t *testing.T) {
	val, out := run(t, `
[1, 2, 3, 4].each do |x|
  if x == 3
    break
  end
  puts x
end
`)
	_, ok := val.(*Array)
	require.True(t, ok)
	assert.Equal(t, "1\n2\n", out.String())
}

func TestArrayMapAndSelect(t *testing.T) {
	val, _ := run(t, `
[1, 2, 3, 4].map do |x|
  x * 2
end.select do |x|
  x > 4
end
`)
	arr, ok := val.(*Array)
	require.True(t, ok)
	require.Len(t, arr.Elements, 2)
	assert.Equal(t, &Int{Value: 6}, arr.Elements[0])
	assert.Equal(t, &Int{Value: 8}, arr.Elements[1])
}

func TestArrayReduceWithInitialOnEmptyArrayReturnsInitial(t *testing.T) {
	val, _ := run(t, `
[].reduce(42) do |acc, x|
  acc + x
end
`)
	assert.Equal(t, &Int{Value: 42}, val)
}

func TestBeginRescueEnsure(t *testing.T) {
	val, out := run(t, `
begin
  raise "boom"
rescue RuntimeError => e
  puts e.message
ensure
  puts "cleanup"
end
`)
	_ = val
	assert.Equal(t, "boom\ncleanup\n", out.String())
}

func TestDictKeyCanonicalization(t *testing.T) {
	val, _ := run(t, `
h = {1 => "one", "two" => 2}
h[1]
`)
	s, ok := val.(*String)
	require.True(t, ok)
	assert.Equal(t, "one", s.Value)
}

func TestMatchCaseWithArrayPattern(t *testing.T) {
	val, _ := run(t, `
case [1, 2, 3]
when [first, *rest]
  first
end
`)
	assert.Equal(t, &Int{Value: 1}, val)
}

func TestNegativeArrayIndexReadRaisesIndexError(t *testing.T) {
	exc := runErr(t, `
a = [1, 2, 3]
a[-1]
`)
	assert.Equal(t, "IndexError", exc.TypeName)
}

func TestNegativeArrayIndexAssignmentWraps(t *testing.T) {
	val, _ := run(t, `
a = [1, 2, 3]
a[-1] = 9
a[2]
`)
	assert.Equal(t, &Int{Value: 9}, val)
}

func TestReturnInsideEachBubblesOutOfEnclosingMethod(t *testing.T) {
	val, _ := run(t, `
def first_even(arr)
  arr.each do |x|
    if x % 2 == 0
      return x
    end
  end
  nil
end

first_even([1, 3, 4, 5])
`)
	assert.Equal(t, &Int{Value: 4}, val)
}

func TestReturnInsideMapBubblesOutOfEnclosingMethod(t *testing.T) {
	val, _ := run(t, `
def bail_on_three(arr)
  arr.map do |x|
    if x == 3
      return "hit 3"
    end
    x * 10
  end
end

bail_on_three([1, 2, 3, 4])
`)
	s, ok := val.(*String)
	require.True(t, ok)
	assert.Equal(t, "hit 3", s.Value)
}
