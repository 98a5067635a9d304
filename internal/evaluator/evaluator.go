package evaluator

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/metorex-lang/metorex/internal/ast"
	"github.com/metorex-lang/metorex/internal/config"
)

// Evaluator is the tree-walking interpreter's top-level state: the global
// scope, the live call stack (for diagnostics), and the registry of
// built-in and user-defined classes reachable by name.
type Evaluator struct {
	Global       *Environment
	CallStack    []CallFrame
	MaxCallDepth int // ceiling on CallStack depth; 0 disables the check
	Out          io.Writer
	In           *bufio.Reader
	BaseDir      string          // directory require_relative resolves against
	loaded       map[string]bool // absolute paths already require_relative'd
}

// New builds an Evaluator with the built-in exception hierarchy and
// top-level native functions installed (spec.md §6, §4.7).
func New() *Evaluator {
	ev := &Evaluator{
		Global:       NewEnvironment(),
		MaxCallDepth: config.DefaultMaxCallDepth,
		Out:          os.Stdout,
		In:           bufio.NewReader(os.Stdin),
		loaded:       make(map[string]bool),
	}
	registerBuiltinClasses(ev)
	registerNativeFunctions(ev)
	return ev
}

// Run executes a parsed program in the global scope and returns its final
// value (the value of the last top-level statement) along with any
// uncaught Signal. Only SigException escapes: a top-level `return` ends
// the program with its value, and a top-level break/continue is surfaced
// as a RuntimeError.
func (ev *Evaluator) Run(prog *ast.Program) (Object, *Signal) {
	val, sig := ev.execBody(prog.Statements, ev.Global)
	if sig != nil {
		switch sig.Kind {
		case SigReturn:
			return sig.Value, nil
		case SigBreak, SigContinue:
			return NilValue, ev.newException("RuntimeError", "break/continue used outside a loop")
		}
	}
	return val, sig
}

// newException builds a Signal carrying a freshly-constructed Exception,
// annotated with the current call stack as its backtrace.
func (ev *Evaluator) newException(typeName, message string) *Signal {
	return ExceptionSignal(&Exception{
		TypeName:  typeName,
		Message:   message,
		Backtrace: ev.backtrace(),
	})
}

func (ev *Evaluator) backtrace() []string {
	frames := make([]string, 0, len(ev.CallStack))
	for i := len(ev.CallStack) - 1; i >= 0; i-- {
		f := ev.CallStack[i]
		frames = append(frames, fmt.Sprintf("at %d:%d (called %s)", f.Line, f.Col, f.Name))
	}
	return frames
}

// checkCallDepth guards against runaway recursion blowing the host Go
// stack: once CallStack reaches MaxCallDepth, raise a RuntimeError instead
// of crashing the process.
func (ev *Evaluator) checkCallDepth() *Signal {
	if ev.MaxCallDepth > 0 && len(ev.CallStack) >= ev.MaxCallDepth {
		return ev.newException("RuntimeError", "stack level too deep")
	}
	return nil
}

func (ev *Evaluator) pushCallFrame(name string, line, col int) {
	ev.CallStack = append(ev.CallStack, CallFrame{Name: name, Line: line, Col: col})
}

func (ev *Evaluator) popCallFrame() {
	if len(ev.CallStack) > 0 {
		ev.CallStack = ev.CallStack[:len(ev.CallStack)-1]
	}
}

// registerBuiltinClasses installs the Exception taxonomy of spec.md §6 as
// real Class objects in the global scope, and built-in type marker
// classes (Object, String, Array, ...) returned by `class` reflection and
// used as receivers of class-level natives such as Result.ok/Result.err.
// Native methods of built-in values are dispatched by Go type, not looked
// up on these classes.
func registerBuiltinClasses(ev *Evaluator) {
	objectClass := NewClass("Object", nil)
	ev.Global.Set("Object", objectClass)

	exceptionClass := NewClass("Exception", objectClass)
	ev.Global.Set("Exception", exceptionClass)

	for _, name := range []string{
		"RuntimeError", "TypeError", "ZeroDivisionError", "ArgumentError",
		"NoMethodError", "IndexError", "KeyError", "NameError", "UndefinedVariableError",
		"UndefinedDictKeyError",
	} {
		ev.Global.Set(name, NewClass(name, exceptionClass))
	}

	for _, name := range []string{
		"NilClass", "Bool", "Int", "Float", "String", "Symbol", "Array",
		"Hash", "Set", "Range", "Class", "Method", "Block", "NativeFunction",
		"Binding", "Result",
	} {
		ev.Global.Set(name, NewClass(name, objectClass))
	}
}

// exceptionClassByName resolves a rescue clause's named type (or an
// exception's own TypeName) to the registered Class, for superclass-chain
// matching.
func (ev *Evaluator) exceptionClassByName(name string) *Class {
	v, ok := ev.Global.Get(name)
	if !ok {
		return nil
	}
	c, _ := v.(*Class)
	return c
}

// isExceptionClass reports whether c descends from the built-in Exception
// class, used to decide whether `ClassName.new(...)`/`ClassName(...)`
// constructs an Exception value instead of an Instance.
func (ev *Evaluator) isExceptionClass(c *Class) bool {
	return c.IsSubclassOf("Exception")
}
