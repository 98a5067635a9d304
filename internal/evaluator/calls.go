package evaluator

import (
	"fmt"

	"github.com/metorex-lang/metorex/internal/ast"
)

// posLineCol extracts a (line, col) pair from any ast.Node for call-frame
// and error reporting (spec.md §4.5 "Stack frames").
func posLineCol(node ast.Node) (int, int) {
	if node == nil {
		return 0, 0
	}
	pos := node.Pos()
	return pos.Line, pos.Column
}

// evalArgs evaluates a call's positional arguments left-to-right and, if a
// trailing block is attached, evaluates it and appends it as the final
// argument (spec.md §4.5 "Call / MethodCall" steps 2-3).
func (ev *Evaluator) evalArgs(argExprs []ast.Expression, trailing *ast.Lambda, env *Environment) ([]Object, *Signal) {
	args := make([]Object, 0, len(argExprs)+1)
	for _, a := range argExprs {
		v, sig := ev.evalExpr(a, env)
		if sig != nil {
			return nil, sig
		}
		args = append(args, v)
	}
	if trailing != nil {
		blk, sig := ev.evalExpr(trailing, env)
		if sig != nil {
			return nil, sig
		}
		args = append(args, blk)
	}
	return args, nil
}

// evalCall implements a bare (possibly paren-less) call: `foo(a, b)`,
// `puts a, b`, or invocation of a value held in a local variable.
func (ev *Evaluator) evalCall(e *ast.Call, env *Environment) (Object, *Signal) {
	args, sig := ev.evalArgs(e.Args, e.TrailingBlock, env)
	if sig != nil {
		return NilValue, sig
	}

	if ident, ok := e.Callee.(*ast.Identifier); ok {
		callee, found := env.Get(ident.Name)
		if !found {
			return NilValue, ev.newException("NameError", "undefined method '"+ident.Name+"'")
		}
		return ev.invokeCallable(callee, args, e)
	}

	callee, sig := ev.evalExpr(e.Callee, env)
	if sig != nil {
		return callee, sig
	}
	return ev.invokeCallable(callee, args, e)
}

// invokeCallable dispatches a resolved callee value: a Method, a
// NativeFunction, a Class (construction), or a Block.
func (ev *Evaluator) invokeCallable(callee Object, args []Object, node ast.Node) (Object, *Signal) {
	switch c := callee.(type) {
	case *Method:
		return ev.invokeMethod(c, nil, args, node)
	case *NativeFunction:
		return ev.invokeNative(c, args, node)
	case *Class:
		return ev.instantiateClass(c, args, node)
	case *Block:
		return ev.invokeBlock(c, args, node)
	}
	return NilValue, ev.newException("NoMethodError", "'"+ClassNameOf(callee)+"' is not callable")
}

// evalMethodCall implements `receiver.method(args)` dispatch (spec.md
// §4.5 "Call / MethodCall" steps 1, 4-6).
func (ev *Evaluator) evalMethodCall(e *ast.MethodCall, env *Environment) (Object, *Signal) {
	recv, sig := ev.evalExpr(e.Receiver, env)
	if sig != nil {
		return recv, sig
	}
	args, sig := ev.evalArgs(e.Args, e.TrailingBlock, env)
	if sig != nil {
		return NilValue, sig
	}
	return ev.dispatchCall(recv, e.Method, args, e)
}

// dispatchCall resolves and invokes method on recv, in the order spec.md
// §4.5 step 4-5 prescribes: user-defined method (walking the superclass
// chain for Instances), then the built-in native method table, then
// method_missing, then UndefinedMethod.
func (ev *Evaluator) dispatchCall(recv Object, method string, args []Object, node ast.Node) (Object, *Signal) {
	if inst, ok := recv.(*Instance); ok {
		if m, _ := inst.Class.LookupMethod(method); m != nil {
			return ev.invokeMethod(m, inst, args, node)
		}
	}
	if cls, ok := recv.(*Class); ok {
		if method == "new" {
			return ev.instantiateClass(cls, args, node)
		}
	}

	if result, handled, sig := ev.callNativeMethod(recv, method, args, node); handled {
		return result, sig
	}

	if inst, ok := recv.(*Instance); ok {
		if mm, _ := inst.Class.LookupMethod("method_missing"); mm != nil {
			mmArgs := append([]Object{&String{Value: method}}, args...)
			return ev.invokeMethod(mm, inst, mmArgs, node)
		}
	}
	return NilValue, ev.newException("NoMethodError", "undefined method '"+method+"' for "+ClassNameOf(recv))
}

// evalSuper resolves the currently-executing method's name in its owner
// class's superclass and invokes it there (spec.md §4.5 "Super"). Walks
// from the class that *defined* the running method, never the receiver's
// dynamic class.
func (ev *Evaluator) evalSuper(e *ast.SuperExpr, env *Environment) (Object, *Signal) {
	self, sig := ev.currentSelf(env, e)
	if sig != nil {
		return self, sig
	}
	ownerVal, ok := env.Get("__defining_class__")
	if !ok {
		return NilValue, ev.newException("RuntimeError", "super called outside a method")
	}
	owner, _ := ownerVal.(*Class)
	if owner == nil || owner.Superclass == nil {
		return NilValue, ev.newException("RuntimeError", "no superclass method to call via super")
	}
	methodNameVal, _ := env.Get("__method_name__")
	methodName, _ := methodNameVal.(*String)
	if methodName == nil {
		return NilValue, ev.newException("RuntimeError", "super called outside a method")
	}
	m, _ := owner.Superclass.LookupMethod(methodName.Value)
	if m == nil {
		return NilValue, ev.newException("NoMethodError", "no superclass method '"+methodName.Value+"'")
	}

	var args []Object
	if e.HasParens || e.Args != nil {
		var sig *Signal
		args, sig = ev.evalArgs(e.Args, e.TrailingBlock, env)
		if sig != nil {
			return NilValue, sig
		}
	} else {
		argsVal, _ := env.Get("__args__")
		if arr, ok := argsVal.(*Array); ok {
			args = append([]Object{}, arr.Elements...)
		}
		if e.TrailingBlock != nil {
			blk, sig := ev.evalExpr(e.TrailingBlock, env)
			if sig != nil {
				return blk, sig
			}
			args = append(args, blk)
		}
	}
	return ev.invokeMethod(m, self, args, e)
}

// instantiateClass constructs a new Instance of c, invoking `initialize`
// if the class defines one (spec.md §4.5 "Calling a Class as a function").
// Exception subclasses construct an Exception value instead, since spec.md
// §3.4 models exceptions as a standalone Object variant, not an Instance.
func (ev *Evaluator) instantiateClass(c *Class, args []Object, node ast.Node) (Object, *Signal) {
	if ev.isExceptionClass(c) {
		msg := ""
		if len(args) > 0 {
			if s, ok := args[0].(*String); ok {
				msg = s.Value
			} else {
				msg = ToS(args[0])
			}
		}
		return &Exception{TypeName: c.Name, Message: msg, Backtrace: ev.backtrace()}, nil
	}
	inst := NewInstance(c)
	if init, _ := c.LookupMethod("initialize"); init != nil {
		_, sig := ev.invokeMethod(init, inst, args, node)
		if sig != nil {
			return NilValue, sig
		}
	} else if len(args) > 0 {
		return NilValue, ev.newException("ArgumentError", fmt.Sprintf("wrong number of arguments (given %d, expected 0)", len(args)))
	}
	return inst, nil
}

// checkArity implements spec.md §4.5's "Before execution, check arity
// equality" rule and §3.4's "Arity must match call-site argument count"
// for blocks: every positional param must be supplied, default and keyword
// params may be omitted, a variadic tail accepts any surplus, and with no
// variadic the argument count may not exceed the declared parameter count.
func checkArity(params []*ast.Parameter, n int) bool {
	required, max := 0, 0
	variadic := false
	for _, p := range params {
		switch p.Kind {
		case ast.ParamPositional:
			required++
			max++
		case ast.ParamDefault, ast.ParamKeyword:
			max++
		case ast.ParamVariadic:
			variadic = true
		}
	}
	if variadic {
		return n >= required
	}
	return n >= required && n <= max
}

// bindParams binds args into env following params' declared kinds:
// positional and keyword-with-default params consume one argument each (or
// fall back to their default expression), variadic collects the remainder
// into an Array.
func (ev *Evaluator) bindParams(env *Environment, params []*ast.Parameter, args []Object) *Signal {
	i := 0
	for _, p := range params {
		switch p.Kind {
		case ast.ParamVariadic:
			rest := append([]Object{}, args[i:]...)
			env.Set(p.Name, &Array{Elements: rest})
			i = len(args)
		case ast.ParamDefault, ast.ParamKeyword:
			if i < len(args) {
				env.Set(p.Name, args[i])
				i++
			} else if p.Default != nil {
				v, sig := ev.evalExpr(p.Default, env)
				if sig != nil {
					return sig
				}
				env.Set(p.Name, v)
			} else {
				env.Set(p.Name, NilValue)
			}
		default: // ParamPositional
			if i < len(args) {
				env.Set(p.Name, args[i])
				i++
			} else {
				env.Set(p.Name, NilValue)
			}
		}
	}
	return nil
}

// invokeMethod pushes a method-invocation scope (spec.md §4.5 "Invoking a
// method"): self bound, parameters bound in declaration order, body
// executed, last-expression-as-value on fallthrough. Methods do not close
// over their definition-site lexical scope — only self, params, and
// globals are visible, matching Ruby's own method semantics.
func (ev *Evaluator) invokeMethod(m *Method, self Object, args []Object, node ast.Node) (Object, *Signal) {
	if m.BoundReceiver != nil {
		self = m.BoundReceiver
	}
	if !checkArity(m.Parameters, len(args)) {
		return NilValue, ev.newException("ArgumentError", fmt.Sprintf("wrong number of arguments for '%s' (given %d)", m.Name, len(args)))
	}
	env := NewEnclosedEnvironment(ev.Global)
	if self != nil {
		env.Set("self", self)
	}
	owner := m.Owner
	if owner == nil {
		if inst, ok := self.(*Instance); ok {
			owner = inst.Class
		}
	}
	if owner != nil {
		env.Set("__current_class__", owner)
		env.Set("__defining_class__", owner)
	}
	env.Set("__method_name__", &String{Value: m.Name})
	env.Set("__args__", &Array{Elements: args})
	if sig := ev.bindParams(env, m.Parameters, args); sig != nil {
		return NilValue, sig
	}

	if sig := ev.checkCallDepth(); sig != nil {
		return NilValue, sig
	}
	line, col := posLineCol(node)
	ev.pushCallFrame(m.Name, line, col)
	defer ev.popCallFrame()

	val, sig := ev.execBody(m.Body, env)
	if sig != nil && sig.Kind == SigReturn {
		return sig.Value, nil
	}
	return val, sig
}

// invokeBlock pushes a block-invocation scope (spec.md §4.5 "Invoking a
// block"): captured variables from the closure snapshot are pre-populated
// before parameters are bound; no self rebinding occurs, so a block
// referencing `self`/`@x` sees whatever was captured at creation time.
// Unlike invokeMethod, a SigReturn here is NOT absorbed: spec.md §4.7
// requires a bare `return` inside an iterator's block (each/map/select/
// reduce/Range#each/String#each_char) to bubble all the way out of the
// enclosing method, not just end the block.
func (ev *Evaluator) invokeBlock(blk *Block, args []Object, node ast.Node) (Object, *Signal) {
	if !checkArity(blk.Parameters, len(args)) {
		return NilValue, ev.newException("ArgumentError", fmt.Sprintf("wrong number of block arguments (given %d)", len(args)))
	}
	env := NewEnclosedEnvironment(ev.Global)
	for name, v := range blk.Captured {
		env.Set(name, v)
	}
	if sig := ev.bindParams(env, blk.Parameters, args); sig != nil {
		return NilValue, sig
	}

	if sig := ev.checkCallDepth(); sig != nil {
		return NilValue, sig
	}
	line, col := posLineCol(node)
	ev.pushCallFrame("<block>", line, col)
	defer ev.popCallFrame()

	return ev.execBody(blk.Body, env)
}

// invokeNative calls a top-level native function such as puts/print/p/
// gets/require_relative (spec.md §9 resolution of the Method vs
// NativeFunction open question: both are invoked through this one path).
func (ev *Evaluator) invokeNative(fn *NativeFunction, args []Object, node ast.Node) (Object, *Signal) {
	var block *Block
	if n := len(args); n > 0 {
		if b, ok := args[n-1].(*Block); ok {
			block = b
		}
	}
	line, col := posLineCol(node)
	ev.pushCallFrame(fn.Name, line, col)
	defer ev.popCallFrame()
	return fn.Fn(ev, args, block)
}
