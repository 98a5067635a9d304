package evaluator

import "github.com/metorex-lang/metorex/internal/ast"

// applyBinaryOp implements spec.md §4.5's binary operator semantics.
func (ev *Evaluator) applyBinaryOp(op string, left, right Object, node ast.Node) (Object, *Signal) {
	switch op {
	case "==":
		return NativeBool(Equals(left, right)), nil
	case "!=":
		return NativeBool(!Equals(left, right)), nil
	case "<", ">", "<=", ">=":
		return ev.compare(op, left, right)
	case "+":
		return ev.add(left, right)
	case "-", "*", "/", "%":
		return ev.arith(op, left, right)
	}
	return NilValue, ev.newException("RuntimeError", "unknown operator "+op)
}

func asFloat(obj Object) (float64, bool) {
	switch o := obj.(type) {
	case *Int:
		return float64(o.Value), true
	case *Float:
		return o.Value, true
	}
	return 0, false
}

func (ev *Evaluator) compare(op string, left, right Object) (Object, *Signal) {
	lf, lok := asFloat(left)
	rf, rok := asFloat(right)
	if !lok || !rok {
		return NilValue, ev.newException("TypeError", "comparison requires numeric operands")
	}
	var result bool
	switch op {
	case "<":
		result = lf < rf
	case ">":
		result = lf > rf
	case "<=":
		result = lf <= rf
	case ">=":
		result = lf >= rf
	}
	return NativeBool(result), nil
}

func (ev *Evaluator) add(left, right Object) (Object, *Signal) {
	if ls, ok := left.(*String); ok {
		rs, ok := right.(*String)
		if !ok {
			return NilValue, ev.newException("TypeError", "cannot concatenate String with "+ClassNameOf(right))
		}
		return &String{Value: ls.Value + rs.Value}, nil
	}
	return ev.arith("+", left, right)
}

func (ev *Evaluator) arith(op string, left, right Object) (Object, *Signal) {
	li, lIsInt := left.(*Int)
	ri, rIsInt := right.(*Int)
	if lIsInt && rIsInt {
		switch op {
		case "+":
			return &Int{Value: li.Value + ri.Value}, nil
		case "-":
			return &Int{Value: li.Value - ri.Value}, nil
		case "*":
			return &Int{Value: li.Value * ri.Value}, nil
		case "/":
			if ri.Value == 0 {
				return NilValue, ev.newException("ZeroDivisionError", "division by zero")
			}
			if li.Value%ri.Value == 0 {
				return &Int{Value: li.Value / ri.Value}, nil
			}
			return &Float{Value: float64(li.Value) / float64(ri.Value)}, nil
		case "%":
			if ri.Value == 0 {
				return NilValue, ev.newException("ZeroDivisionError", "modulo by zero")
			}
			m := li.Value % ri.Value
			if (m < 0) != (ri.Value < 0) && m != 0 {
				m += ri.Value
			}
			return &Int{Value: m}, nil
		}
	}

	lf, lok := asFloat(left)
	rf, rok := asFloat(right)
	if !lok || !rok {
		return NilValue, ev.newException("TypeError", "arithmetic requires numeric operands, got "+ClassNameOf(left)+" and "+ClassNameOf(right))
	}
	switch op {
	case "+":
		return &Float{Value: lf + rf}, nil
	case "-":
		return &Float{Value: lf - rf}, nil
	case "*":
		return &Float{Value: lf * rf}, nil
	case "/":
		if rf == 0 {
			return NilValue, ev.newException("ZeroDivisionError", "division by zero")
		}
		return &Float{Value: lf / rf}, nil
	case "%":
		if rf == 0 {
			return NilValue, ev.newException("ZeroDivisionError", "modulo by zero")
		}
		m := lf - rf*float64(int64(lf/rf))
		return &Float{Value: m}, nil
	}
	return NilValue, ev.newException("RuntimeError", "unknown operator "+op)
}

func (ev *Evaluator) applyUnaryOp(op string, operand Object) (Object, *Signal) {
	switch op {
	case "+":
		switch operand.(type) {
		case *Int, *Float:
			return operand, nil
		}
		return NilValue, ev.newException("TypeError", "unary + requires a numeric operand")
	case "-":
		switch o := operand.(type) {
		case *Int:
			return &Int{Value: -o.Value}, nil
		case *Float:
			return &Float{Value: -o.Value}, nil
		}
		return NilValue, ev.newException("TypeError", "unary - requires a numeric operand")
	}
	return NilValue, ev.newException("RuntimeError", "unknown unary operator "+op)
}
