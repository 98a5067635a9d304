package evaluator

import (
	"fmt"
	"strings"

	"github.com/metorex-lang/metorex/internal/ast"
)

// evalExpr dispatches on the concrete expression type (spec.md §4.5) and
// returns the expression's value plus a propagating Signal, if any.
func (ev *Evaluator) evalExpr(expr ast.Expression, env *Environment) (Object, *Signal) {
	switch e := expr.(type) {
	case *ast.IntLiteral:
		return &Int{Value: e.Value}, nil

	case *ast.FloatLiteral:
		return &Float{Value: e.Value}, nil

	case *ast.StringLiteral:
		return &String{Value: e.Value}, nil

	case *ast.InterpolatedString:
		return ev.evalInterpolatedString(e, env)

	case *ast.BoolLiteral:
		return NativeBool(e.Value), nil

	case *ast.NilLiteral:
		return NilValue, nil

	case *ast.SymbolLiteral:
		return &Symbol{Name: e.Name}, nil

	case *ast.Identifier:
		return ev.evalIdentifier(e, env)

	case *ast.InstanceVariable:
		self, sig := ev.currentSelf(env, e)
		if sig != nil {
			return NilValue, sig
		}
		inst, ok := self.(*Instance)
		if !ok {
			return NilValue, ev.newException("RuntimeError", "instance variables require an instance context")
		}
		if v, ok := inst.InstanceVars[e.Name]; ok {
			return v, nil
		}
		return NilValue, nil

	case *ast.ClassVariable:
		class, sig := ev.currentClass(env, e)
		if sig != nil {
			return NilValue, sig
		}
		if v, owner := class.LookupClassVar(e.Name); owner != nil {
			return v, nil
		}
		return NilValue, nil

	case *ast.SelfExpr:
		return ev.currentSelf(env, e)

	case *ast.SuperExpr:
		return ev.evalSuper(e, env)

	case *ast.BinaryOp:
		left, sig := ev.evalExpr(e.Left, env)
		if sig != nil {
			return left, sig
		}
		right, sig := ev.evalExpr(e.Right, env)
		if sig != nil {
			return right, sig
		}
		return ev.applyBinaryOp(e.Op, left, right, e)

	case *ast.UnaryOp:
		operand, sig := ev.evalExpr(e.Operand, env)
		if sig != nil {
			return operand, sig
		}
		return ev.applyUnaryOp(e.Op, operand)

	case *ast.RangeExpr:
		start, sig := ev.evalExpr(e.Start, env)
		if sig != nil {
			return start, sig
		}
		end, sig := ev.evalExpr(e.End, env)
		if sig != nil {
			return end, sig
		}
		return &Range{Start: start, End: end, Exclusive: e.Exclusive}, nil

	case *ast.ArrayLiteral:
		elems := make([]Object, 0, len(e.Elements))
		for _, el := range e.Elements {
			v, sig := ev.evalExpr(el, env)
			if sig != nil {
				return v, sig
			}
			elems = append(elems, v)
		}
		return &Array{Elements: elems}, nil

	case *ast.DictLiteral:
		dict := NewDict()
		for _, entry := range e.Entries {
			k, sig := ev.evalExpr(entry.Key, env)
			if sig != nil {
				return k, sig
			}
			v, sig := ev.evalExpr(entry.Value, env)
			if sig != nil {
				return v, sig
			}
			canon, ok := canonicalKey(k)
			if !ok {
				return NilValue, ev.newException("TypeError", "dict key must be Nil, Bool, Int, Float, String, or Symbol, got "+ClassNameOf(k))
			}
			dict.Set(canon, k, v)
		}
		return dict, nil

	case *ast.IndexExpr:
		recv, sig := ev.evalExpr(e.Receiver, env)
		if sig != nil {
			return recv, sig
		}
		idx, sig := ev.evalExpr(e.Index, env)
		if sig != nil {
			return idx, sig
		}
		return ev.evalIndex(recv, idx, e)

	case *ast.Call:
		return ev.evalCall(e, env)

	case *ast.MethodCall:
		return ev.evalMethodCall(e, env)

	case *ast.Lambda:
		return &Block{Parameters: e.Parameters, Body: e.Body, Captured: env.Snapshot()}, nil

	case *ast.Grouped:
		return ev.evalExpr(e.Inner, env)
	}
	return NilValue, ev.newException("RuntimeError", fmt.Sprintf("unhandled expression %T", expr))
}

// evalInterpolatedString renders each Text part verbatim and each
// Expression part through to_s (spec.md §4.5 "Interpolated string").
func (ev *Evaluator) evalInterpolatedString(e *ast.InterpolatedString, env *Environment) (Object, *Signal) {
	var b strings.Builder
	for _, part := range e.Parts {
		if part.Expr == nil {
			b.WriteString(part.Text)
			continue
		}
		v, sig := ev.evalExpr(part.Expr, env)
		if sig != nil {
			return v, sig
		}
		b.WriteString(ToS(v))
	}
	return &String{Value: b.String()}, nil
}

// evalIdentifier implements spec.md §4.5 "Identifier": a Method or
// NativeFunction bound to a bare name auto-invokes with zero arguments
// (Ruby-style), matching SPEC_FULL.md's resolution of the
// Method/NativeFunction dispatch open question.
func (ev *Evaluator) evalIdentifier(e *ast.Identifier, env *Environment) (Object, *Signal) {
	v, ok := env.Get(e.Name)
	if !ok {
		return NilValue, ev.newException("NameError", "undefined variable or method '"+e.Name+"'")
	}
	switch callable := v.(type) {
	case *Method:
		return ev.invokeMethod(callable, nil, nil, e)
	case *NativeFunction:
		return ev.invokeNative(callable, nil, e)
	}
	return v, nil
}

func (ev *Evaluator) evalIndex(recv, idx Object, node ast.Node) (Object, *Signal) {
	switch r := recv.(type) {
	case *Array:
		i, ok := idx.(*Int)
		if !ok {
			return NilValue, ev.newException("TypeError", "array index must be an Int")
		}
		n := int(i.Value)
		if n < 0 || n >= len(r.Elements) {
			return NilValue, ev.newException("IndexError", fmt.Sprintf("index %d out of range for array of length %d", n, len(r.Elements)))
		}
		return r.Elements[n], nil
	case *Dict:
		canon, ok := canonicalKey(idx)
		if !ok {
			return NilValue, ev.newException("TypeError", "dict key must be Nil, Bool, Int, Float, String, or Symbol, got "+ClassNameOf(idx))
		}
		entry, ok := r.Entries[canon]
		if !ok {
			return NilValue, ev.newException("KeyError", "key not found: "+canon)
		}
		return entry.Value, nil
	case *String:
		i, ok := idx.(*Int)
		if !ok {
			return NilValue, ev.newException("TypeError", "string index must be an Int")
		}
		runes := []rune(r.Value)
		n := int(i.Value)
		if n < 0 || n >= len(runes) {
			return NilValue, ev.newException("IndexError", fmt.Sprintf("index %d out of range for string of length %d", n, len(runes)))
		}
		return &String{Value: string(runes[n])}, nil
	}
	return NilValue, ev.newException("TypeError", "cannot index a "+ClassNameOf(recv))
}
