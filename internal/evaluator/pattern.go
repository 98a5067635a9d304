package evaluator

import "github.com/metorex-lang/metorex/internal/ast"

// patternMatchEpsilon is used only for Float literal patterns in case/when
// matching; general Float equality uses the looser FloatEqualityEpsilon
// (spec.md §3.4 vs §4.4 are deliberately distinct epsilon contexts).
const patternMatchEpsilon = 2.220446049250313e-16 // float64 machine epsilon

// matchPattern implements spec.md §4.4's pattern-matching semantics,
// binding identifiers into env as a side effect when a match succeeds.
func (ev *Evaluator) matchPattern(pat ast.MatchPattern, value Object, env *Environment) (bool, *Signal) {
	switch p := pat.(type) {
	case ast.IntPattern:
		v, ok := value.(*Int)
		return ok && v.Value == p.Value, nil

	case ast.FloatPattern:
		v, ok := value.(*Float)
		if !ok {
			return false, nil
		}
		d := v.Value - p.Value
		if d < 0 {
			d = -d
		}
		return d < patternMatchEpsilon, nil

	case ast.StringPattern:
		v, ok := value.(*String)
		return ok && v.Value == p.Value, nil

	case ast.BoolPattern:
		v, ok := value.(*Bool)
		return ok && v.Value == p.Value, nil

	case ast.NilPattern:
		_, ok := value.(*Nil)
		return ok, nil

	case ast.IdentifierPattern:
		env.Set(p.Name, value)
		return true, nil

	case ast.WildcardPattern:
		return true, nil

	case ast.ArrayPattern:
		return ev.matchArrayPattern(p, value, env)

	case ast.ObjectPattern:
		return ev.matchObjectPattern(p, value, env)

	case ast.TypePattern:
		return false, ev.newException("RuntimeError", "type patterns are not supported: "+p.TypeName)
	}
	return false, nil
}

func (ev *Evaluator) matchArrayPattern(p ast.ArrayPattern, value Object, env *Environment) (bool, *Signal) {
	arr, ok := value.(*Array)
	if !ok {
		return false, nil
	}

	restIdx := -1
	for i, el := range p.Elements {
		if _, isRest := el.(ast.RestPattern); isRest {
			if restIdx != -1 {
				return false, ev.newException("RuntimeError", "array pattern may contain at most one rest element")
			}
			restIdx = i
		}
	}

	if restIdx == -1 {
		if len(arr.Elements) != len(p.Elements) {
			return false, nil
		}
		for i, el := range p.Elements {
			ok, sig := ev.matchPattern(el, arr.Elements[i], env)
			if sig != nil {
				return false, sig
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	}

	before := p.Elements[:restIdx]
	after := p.Elements[restIdx+1:]
	if len(arr.Elements) < len(before)+len(after) {
		return false, nil
	}
	for i, el := range before {
		ok, sig := ev.matchPattern(el, arr.Elements[i], env)
		if sig != nil {
			return false, sig
		}
		if !ok {
			return false, nil
		}
	}
	afterStart := len(arr.Elements) - len(after)
	for i, el := range after {
		ok, sig := ev.matchPattern(el, arr.Elements[afterStart+i], env)
		if sig != nil {
			return false, sig
		}
		if !ok {
			return false, nil
		}
	}
	restName := p.Elements[restIdx].(ast.RestPattern).Name
	if restName != "" && restName != "_" {
		middle := append([]Object{}, arr.Elements[len(before):afterStart]...)
		env.Set(restName, &Array{Elements: middle})
	}
	return true, nil
}

func (ev *Evaluator) matchObjectPattern(p ast.ObjectPattern, value Object, env *Environment) (bool, *Signal) {
	dict, ok := value.(*Dict)
	if !ok {
		return false, nil
	}
	for _, field := range p.Fields {
		entry, ok := dict.Entries[field.Key]
		if !ok {
			return false, nil
		}
		matched, sig := ev.matchPattern(field.Pattern, entry.Value, env)
		if sig != nil {
			return false, sig
		}
		if !matched {
			return false, nil
		}
	}
	return true, nil
}
