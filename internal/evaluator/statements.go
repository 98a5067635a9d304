package evaluator

import (
	"fmt"

	"github.com/metorex-lang/metorex/internal/ast"
)

// execBody runs a statement sequence in env and implements "last
// expression as value" (spec.md §4.4/§9): when every statement runs to
// completion via Next, the returned value is that of the final statement;
// any Signal short-circuits the remaining statements and propagates.
func (ev *Evaluator) execBody(stmts []ast.Statement, env *Environment) (Object, *Signal) {
	var last Object = NilValue
	for _, stmt := range stmts {
		v, sig := ev.execStmt(stmt, env)
		if sig != nil {
			return v, sig
		}
		last = v
	}
	return last, nil
}

// execStmt dispatches on the concrete statement type (spec.md §4.4) and
// returns the statement's value (used only when it is the tail statement
// of a body) plus a propagating Signal, if any.
func (ev *Evaluator) execStmt(stmt ast.Statement, env *Environment) (Object, *Signal) {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		return ev.evalExpr(s.Expr, env)

	case *ast.Assignment:
		return ev.execAssignment(s, env)

	case *ast.FunctionDef:
		m := &Method{Name: s.Name, Parameters: s.Parameters, Body: s.Body, Pos: s}
		ev.Global.Set(s.Name, m)
		return m, nil

	case *ast.MethodDef:
		// Only reached if a MethodDef somehow executes outside a ClassDef
		// body; ClassDef handles MethodDef children directly.
		return NilValue, nil

	case *ast.ClassDef:
		return ev.execClassDef(s, env)

	case *ast.IfStmt:
		return ev.execIf(s, env)

	case *ast.UnlessStmt:
		return ev.execUnless(s, env)

	case *ast.WhileStmt:
		return ev.execWhile(s, env)

	case *ast.ForStmt:
		return ev.execFor(s, env)

	case *ast.ReturnStmt:
		var v Object = NilValue
		if s.Value != nil {
			var sig *Signal
			v, sig = ev.evalExpr(s.Value, env)
			if sig != nil {
				return v, sig
			}
		}
		return v, ReturnSignal(v)

	case *ast.BreakStmt:
		return NilValue, BreakSignal()

	case *ast.ContinueStmt:
		return NilValue, ContinueSignal()

	case *ast.BlockStmt:
		return ev.execBody(s.Body, NewEnclosedEnvironment(env))

	case *ast.BeginStmt:
		return ev.execBegin(s, env)

	case *ast.RaiseStmt:
		return ev.execRaise(s, env)

	case *ast.MatchStmt:
		return ev.execMatch(s, env)

	case *ast.AttrReaderStmt:
		ev.synthesizeAttrs(env, s.Names, true, false)
		return NilValue, nil

	case *ast.AttrWriterStmt:
		ev.synthesizeAttrs(env, s.Names, false, true)
		return NilValue, nil

	case *ast.AttrAccessorStmt:
		ev.synthesizeAttrs(env, s.Names, true, true)
		return NilValue, nil
	}
	return NilValue, ev.newException("RuntimeError", fmt.Sprintf("unhandled statement %T", stmt))
}

func (ev *Evaluator) execAssignment(s *ast.Assignment, env *Environment) (Object, *Signal) {
	value, sig := ev.evalExpr(s.Value, env)
	if sig != nil {
		return value, sig
	}
	if s.Operator != "=" {
		current, sig := ev.evalExpr(s.Target, env)
		if sig != nil {
			return current, sig
		}
		op := s.Operator[:len(s.Operator)-1] // "+=" -> "+"
		combined, sig := ev.applyBinaryOp(op, current, value, s)
		if sig != nil {
			return combined, sig
		}
		value = combined
	}
	return ev.assignTo(s.Target, value, env)
}

func (ev *Evaluator) assignTo(target ast.Expression, value Object, env *Environment) (Object, *Signal) {
	switch t := target.(type) {
	case *ast.Identifier:
		if !env.Update(t.Name, value) {
			env.Set(t.Name, value)
		}
		return value, nil

	case *ast.InstanceVariable:
		self, sig := ev.currentSelf(env, t)
		if sig != nil {
			return NilValue, sig
		}
		inst, ok := self.(*Instance)
		if !ok {
			return NilValue, ev.newException("RuntimeError", "instance variables require an instance context")
		}
		inst.InstanceVars[t.Name] = value
		return value, nil

	case *ast.ClassVariable:
		class, sig := ev.currentClass(env, t)
		if sig != nil {
			return NilValue, sig
		}
		if _, owner := class.LookupClassVar(t.Name); owner != nil {
			owner.ClassVars[t.Name] = value
		} else {
			class.ClassVars[t.Name] = value
		}
		return value, nil

	case *ast.IndexExpr:
		recv, sig := ev.evalExpr(t.Receiver, env)
		if sig != nil {
			return recv, sig
		}
		idx, sig := ev.evalExpr(t.Index, env)
		if sig != nil {
			return idx, sig
		}
		return ev.indexAssign(recv, idx, value, t)

	case *ast.MethodCall:
		// Setter-call assignment target: `obj.name = val` desugars to a
		// call to the `name=` method (attr_writer/attr_accessor synthesis).
		recv, sig := ev.evalExpr(t.Receiver, env)
		if sig != nil {
			return recv, sig
		}
		return ev.dispatchCall(recv, t.Method+"=", []Object{value}, t)
	}
	return NilValue, ev.newException("RuntimeError", "invalid assignment target")
}

func (ev *Evaluator) indexAssign(recv, idx, value Object, node ast.Node) (Object, *Signal) {
	switch r := recv.(type) {
	case *Array:
		i, ok := idx.(*Int)
		if !ok {
			return NilValue, ev.newException("TypeError", "array index must be an Int")
		}
		n := int(i.Value)
		if n < 0 {
			n += len(r.Elements)
		}
		if n < 0 {
			return NilValue, ev.newException("IndexError", "negative array index out of range")
		}
		for len(r.Elements) <= n {
			r.Elements = append(r.Elements, NilValue)
		}
		r.Elements[n] = value
		return value, nil
	case *Dict:
		key, ok := canonicalKey(idx)
		if !ok {
			return NilValue, ev.newException("TypeError", "dict key must be Nil, Bool, Int, Float, String, or Symbol")
		}
		r.Set(key, idx, value)
		return value, nil
	}
	return NilValue, ev.newException("TypeError", "cannot index-assign into a "+ClassNameOf(recv))
}

func (ev *Evaluator) execIf(s *ast.IfStmt, env *Environment) (Object, *Signal) {
	cond, sig := ev.evalExpr(s.Cond, env)
	if sig != nil {
		return cond, sig
	}
	if Truthy(cond) {
		return ev.execBody(s.Then, NewEnclosedEnvironment(env))
	}
	for _, branch := range s.Elsifs {
		c, sig := ev.evalExpr(branch.Cond, env)
		if sig != nil {
			return c, sig
		}
		if Truthy(c) {
			return ev.execBody(branch.Body, NewEnclosedEnvironment(env))
		}
	}
	if s.Else != nil {
		return ev.execBody(s.Else, NewEnclosedEnvironment(env))
	}
	return NilValue, nil
}

func (ev *Evaluator) execUnless(s *ast.UnlessStmt, env *Environment) (Object, *Signal) {
	cond, sig := ev.evalExpr(s.Cond, env)
	if sig != nil {
		return cond, sig
	}
	if !Truthy(cond) {
		return ev.execBody(s.Then, NewEnclosedEnvironment(env))
	}
	if s.Else != nil {
		return ev.execBody(s.Else, NewEnclosedEnvironment(env))
	}
	return NilValue, nil
}

func (ev *Evaluator) execWhile(s *ast.WhileStmt, env *Environment) (Object, *Signal) {
	for {
		cond, sig := ev.evalExpr(s.Cond, env)
		if sig != nil {
			return cond, sig
		}
		if !Truthy(cond) {
			return NilValue, nil
		}
		_, sig = ev.execBody(s.Body, NewEnclosedEnvironment(env))
		if sig != nil {
			switch sig.Kind {
			case SigBreak:
				return NilValue, nil
			case SigContinue:
				continue
			default:
				return NilValue, sig
			}
		}
	}
}

func (ev *Evaluator) execFor(s *ast.ForStmt, env *Environment) (Object, *Signal) {
	iterable, sig := ev.evalExpr(s.Iterable, env)
	if sig != nil {
		return iterable, sig
	}
	items, sig := ev.iterableElements(iterable, s)
	if sig != nil {
		return NilValue, sig
	}
	for _, item := range items {
		iterEnv := NewEnclosedEnvironment(env)
		iterEnv.Set(s.Var, item)
		_, sig := ev.execBody(s.Body, iterEnv)
		if sig != nil {
			switch sig.Kind {
			case SigBreak:
				return NilValue, nil
			case SigContinue:
				continue
			default:
				return NilValue, sig
			}
		}
	}
	return NilValue, nil
}

// iterableElements materializes the sequence a `for` loop walks, snapshot
// style: Arrays are cloned at loop start (spec.md §5), Ranges of two Ints
// expand inclusive/exclusive and reverse when start > end.
func (ev *Evaluator) iterableElements(obj Object, node ast.Node) ([]Object, *Signal) {
	switch o := obj.(type) {
	case *Array:
		items := make([]Object, len(o.Elements))
		copy(items, o.Elements)
		return items, nil
	case *Range:
		return ev.expandRange(o)
	}
	return nil, ev.newException("TypeError", "cannot iterate over a "+ClassNameOf(obj))
}

func (ev *Evaluator) expandRange(r *Range) ([]Object, *Signal) {
	start, ok1 := r.Start.(*Int)
	end, ok2 := r.End.(*Int)
	if !ok1 || !ok2 {
		return nil, ev.newException("TypeError", "range iteration requires Int endpoints")
	}
	var items []Object
	if start.Value <= end.Value {
		last := end.Value
		if r.Exclusive {
			last--
		}
		for v := start.Value; v <= last; v++ {
			items = append(items, &Int{Value: v})
		}
	} else {
		first := end.Value
		if r.Exclusive {
			first++
		}
		for v := start.Value; v >= first; v-- {
			items = append(items, &Int{Value: v})
		}
	}
	return items, nil
}

func (ev *Evaluator) execClassDef(s *ast.ClassDef, env *Environment) (Object, *Signal) {
	var super *Class
	if s.Superclass != "" {
		v, ok := ev.Global.Get(s.Superclass)
		if !ok {
			return NilValue, ev.newException("NameError", "undefined superclass "+s.Superclass)
		}
		super, ok = v.(*Class)
		if !ok {
			return NilValue, ev.newException("TypeError", s.Superclass+" is not a class")
		}
	} else {
		objectClass, _ := ev.Global.Get("Object")
		super, _ = objectClass.(*Class)
	}
	class := NewClass(s.Name, super)
	classEnv := NewEnclosedEnvironment(env)
	classEnv.Set("__current_class__", class)
	for _, member := range s.Body {
		switch m := member.(type) {
		case *ast.MethodDef:
			class.Methods[m.Name] = &Method{Name: m.Name, Parameters: m.Parameters, Body: m.Body, Owner: class, Pos: m}
		case *ast.AttrReaderStmt:
			ev.synthesizeClassAttrs(class, m.Names, true, false)
		case *ast.AttrWriterStmt:
			ev.synthesizeClassAttrs(class, m.Names, false, true)
		case *ast.AttrAccessorStmt:
			ev.synthesizeClassAttrs(class, m.Names, true, true)
		default:
			if _, sig := ev.execStmt(member, classEnv); sig != nil {
				return NilValue, sig
			}
		}
	}
	ev.Global.Set(s.Name, class)
	return class, nil
}

func (ev *Evaluator) synthesizeAttrs(env *Environment, names []string, reader, writer bool) {
	class, ok := env.Get("__current_class__")
	c, _ := class.(*Class)
	if !ok || c == nil {
		return
	}
	ev.synthesizeClassAttrs(c, names, reader, writer)
}

// synthesizeClassAttrs builds the reader/writer methods attr_reader/
// attr_writer/attr_accessor declare (spec.md §4.4 "ClassDef"): a reader
// returns @name, a writer assigns @name to its single argument.
func (ev *Evaluator) synthesizeClassAttrs(class *Class, names []string, reader, writer bool) {
	for _, name := range names {
		class.DeclaredInstanceVars[name] = true
		ivar := &ast.InstanceVariable{Name: name}
		if reader {
			class.Methods[name] = &Method{
				Name:  name,
				Owner: class,
				Body:  []ast.Statement{&ast.ExpressionStatement{Expr: ivar}},
			}
		}
		if writer {
			paramName := "value"
			class.Methods[name+"="] = &Method{
				Name:       name + "=",
				Owner:      class,
				Parameters: []*ast.Parameter{{Name: paramName, Kind: ast.ParamPositional}},
				Body: []ast.Statement{&ast.Assignment{
					Target:   ivar,
					Operator: "=",
					Value:    &ast.Identifier{Name: paramName},
				}},
			}
		}
	}
}

func (ev *Evaluator) execBegin(s *ast.BeginStmt, env *Environment) (Object, *Signal) {
	bodyEnv := NewEnclosedEnvironment(env)
	val, sig := ev.execBody(s.Body, bodyEnv)

	if sig != nil && sig.Kind == SigException {
		exc, _ := sig.Value.(*Exception)
		for _, rescue := range s.Rescues {
			if !ev.rescueMatches(rescue, exc) {
				continue
			}
			rescueEnv := NewEnclosedEnvironment(env)
			if rescue.BoundVarName != "" {
				rescueEnv.Set(rescue.BoundVarName, exc)
			}
			rescueEnv.Set("$!", exc)
			val, sig = ev.execBody(rescue.Body, rescueEnv)
			break
		}
	} else if sig == nil && s.Else != nil {
		val, sig = ev.execBody(s.Else, NewEnclosedEnvironment(env))
	}

	if s.Ensure != nil {
		ensureVal, ensureSig := ev.execBody(s.Ensure, NewEnclosedEnvironment(env))
		if ensureSig != nil {
			return ensureVal, ensureSig
		}
	}
	return val, sig
}

func (ev *Evaluator) rescueMatches(rescue *ast.RescueClause, exc *Exception) bool {
	if len(rescue.ExceptionTypeNames) == 0 {
		return true
	}
	for _, name := range rescue.ExceptionTypeNames {
		target := ev.exceptionClassByName(name)
		if target == nil {
			continue
		}
		actual := ev.exceptionClassByName(exc.TypeName)
		if actual != nil && actual.IsSubclassOf(target.Name) {
			return true
		}
		if exc.TypeName == name {
			return true
		}
	}
	return false
}

func (ev *Evaluator) execRaise(s *ast.RaiseStmt, env *Environment) (Object, *Signal) {
	if s.Expr == nil {
		if v, ok := env.Get("$!"); ok {
			if exc, ok := v.(*Exception); ok {
				return NilValue, ExceptionSignal(exc)
			}
		}
		return NilValue, ev.newException("RuntimeError", "no exception to re-raise")
	}
	v, sig := ev.evalExpr(s.Expr, env)
	if sig != nil {
		return v, sig
	}
	switch val := v.(type) {
	case *Exception:
		return NilValue, ExceptionSignal(val)
	case *String:
		return NilValue, ev.newException("RuntimeError", val.Value)
	case *Class:
		return NilValue, ExceptionSignal(&Exception{TypeName: val.Name, Backtrace: ev.backtrace()})
	}
	return NilValue, ev.newException("TypeError", "raise requires an Exception, String, or Class")
}

func (ev *Evaluator) execMatch(s *ast.MatchStmt, env *Environment) (Object, *Signal) {
	subject, sig := ev.evalExpr(s.Subject, env)
	if sig != nil {
		return subject, sig
	}
	for _, c := range s.Cases {
		caseEnv := NewEnclosedEnvironment(env)
		ok, sig := ev.matchPattern(c.Pattern, subject, caseEnv)
		if sig != nil {
			return NilValue, sig
		}
		if !ok {
			continue
		}
		if c.Guard != nil {
			g, sig := ev.evalExpr(c.Guard, caseEnv)
			if sig != nil {
				return g, sig
			}
			if !Truthy(g) {
				continue
			}
		}
		return ev.execBody(c.Body, caseEnv)
	}
	return NilValue, ev.newException("RuntimeError", fmt.Sprintf("no case matched value %s", ToS(subject)))
}

func (ev *Evaluator) currentSelf(env *Environment, node ast.Node) (Object, *Signal) {
	v, ok := env.Get("self")
	if !ok {
		return NilValue, ev.newException("RuntimeError", "no self in this context")
	}
	return v, nil
}

func (ev *Evaluator) currentClass(env *Environment, node ast.Node) (*Class, *Signal) {
	v, ok := env.Get("__current_class__")
	if !ok {
		return nil, ev.newException("RuntimeError", "no class context for class variable")
	}
	c, ok := v.(*Class)
	if !ok {
		return nil, ev.newException("RuntimeError", "no class context for class variable")
	}
	return c, nil
}
