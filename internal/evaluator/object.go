// Package evaluator implements Metorex's tree-walking evaluator: the
// runtime value model (spec.md §3.4), the lexically-nested Environment
// (§3.5/§4.3), and the statement/expression dispatcher (§4.4/§4.5).
package evaluator

import "fmt"

// ObjectType tags the dynamic type of a runtime value.
type ObjectType string

const (
	NIL_OBJ       ObjectType = "Nil"
	BOOL_OBJ      ObjectType = "Bool"
	INT_OBJ       ObjectType = "Int"
	FLOAT_OBJ     ObjectType = "Float"
	STRING_OBJ    ObjectType = "String"
	SYMBOL_OBJ    ObjectType = "Symbol"
	ARRAY_OBJ     ObjectType = "Array"
	DICT_OBJ      ObjectType = "Dict"
	SET_OBJ       ObjectType = "Set"
	RANGE_OBJ     ObjectType = "Range"
	CLASS_OBJ     ObjectType = "Class"
	INSTANCE_OBJ  ObjectType = "Instance"
	METHOD_OBJ    ObjectType = "Method"
	BLOCK_OBJ     ObjectType = "Block"
	NATIVE_OBJ    ObjectType = "NativeFunction"
	EXCEPTION_OBJ ObjectType = "Exception"
	BINDING_OBJ   ObjectType = "Binding"
	RESULT_OBJ    ObjectType = "Result"
)

// Object is implemented by every Metorex runtime value (spec.md §3.4).
type Object interface {
	Type() ObjectType
	Inspect() string
}

// Nil is the single Nil value.
type Nil struct{}

func (*Nil) Type() ObjectType { return NIL_OBJ }
func (*Nil) Inspect() string  { return "nil" }

var NilValue = &Nil{}

// Bool wraps a boolean. True/False are interned singletons.
type Bool struct{ Value bool }

func (b *Bool) Type() ObjectType { return BOOL_OBJ }
func (b *Bool) Inspect() string {
	if b.Value {
		return "true"
	}
	return "false"
}

var (
	TrueValue  = &Bool{Value: true}
	FalseValue = &Bool{Value: false}
)

func NativeBool(v bool) *Bool {
	if v {
		return TrueValue
	}
	return FalseValue
}

type Int struct{ Value int64 }

func (i *Int) Type() ObjectType { return INT_OBJ }
func (i *Int) Inspect() string  { return fmt.Sprintf("%d", i.Value) }

type Float struct{ Value float64 }

func (f *Float) Type() ObjectType { return FLOAT_OBJ }
func (f *Float) Inspect() string  { return formatFloat(f.Value) }

// FloatEqualityEpsilon is used for general Float equality (§3.4: "Float
// equality uses |a-b|<1e-9"). Pattern-literal matching uses a distinct,
// tighter epsilon (see matchPattern in pattern.go).
const FloatEqualityEpsilon = 1e-9

func formatFloat(f float64) string {
	s := fmt.Sprintf("%g", f)
	for _, c := range s {
		if c == '.' || c == 'e' || c == 'E' {
			return s
		}
	}
	return s + ".0"
}

// String is immutable and shared by value; the Go string header already
// gives value semantics with no accidental aliasing risk.
type String struct{ Value string }

func (s *String) Type() ObjectType { return STRING_OBJ }
func (s *String) Inspect() string  { return fmt.Sprintf("%q", s.Value) }

type Symbol struct{ Name string }

func (s *Symbol) Type() ObjectType { return SYMBOL_OBJ }
func (s *Symbol) Inspect() string  { return ":" + s.Name }

// ToS renders the user-facing display form of a value (distinct from
// Inspect's debug form), used by string interpolation and puts/print.
func ToS(obj Object) string {
	switch o := obj.(type) {
	case *Nil:
		return ""
	case *Bool:
		return o.Inspect()
	case *Int:
		return o.Inspect()
	case *Float:
		return o.Inspect()
	case *String:
		return o.Value
	case *Symbol:
		return o.Name
	case *Array:
		return inspectArray(o)
	case *Dict:
		return inspectDict(o)
	case *Set:
		return inspectSet(o)
	case *Range:
		return inspectRange(o)
	case *Class:
		return o.Name
	case *Instance:
		return "#<" + o.Class.Name + ">"
	case *Method:
		return "#<Method: " + o.Name + ">"
	case *Block:
		return "#<Block>"
	case *NativeFunction:
		return "#<NativeFunction: " + o.Name + ">"
	case *Exception:
		return o.TypeName + ": " + o.Message
	case *Binding:
		return "#<Binding>"
	case *Result:
		return o.Inspect()
	default:
		return obj.Inspect()
	}
}

// Truthy implements spec.md §4.4's truthiness rule: only false and nil are
// falsy; everything else (0, 0.0, "", empty collections) is truthy.
func Truthy(obj Object) bool {
	switch o := obj.(type) {
	case *Nil:
		return false
	case *Bool:
		return o.Value
	default:
		return true
	}
}

// Equals implements the equality rules of spec.md §3.4.
func Equals(a, b Object) bool {
	switch av := a.(type) {
	case *Nil:
		_, ok := b.(*Nil)
		return ok
	case *Bool:
		bv, ok := b.(*Bool)
		return ok && av.Value == bv.Value
	case *Int:
		switch bv := b.(type) {
		case *Int:
			return av.Value == bv.Value
		case *Float:
			return floatsEqual(float64(av.Value), bv.Value)
		}
		return false
	case *Float:
		switch bv := b.(type) {
		case *Int:
			return floatsEqual(av.Value, float64(bv.Value))
		case *Float:
			return floatsEqual(av.Value, bv.Value)
		}
		return false
	case *String:
		bv, ok := b.(*String)
		return ok && av.Value == bv.Value
	case *Symbol:
		bv, ok := b.(*Symbol)
		return ok && av.Name == bv.Name
	case *Array:
		bv, ok := b.(*Array)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !Equals(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	case *Dict:
		bv, ok := b.(*Dict)
		if !ok || len(av.Order) != len(bv.Order) {
			return false
		}
		for _, k := range av.Order {
			bval, ok := bv.Entries[k]
			if !ok || !Equals(av.Entries[k].Value, bval.Value) {
				return false
			}
		}
		return true
	case *Set:
		bv, ok := b.(*Set)
		if !ok || len(av.Elements) != len(bv.Elements) {
			return false
		}
		for k := range av.Elements {
			if _, ok := bv.Elements[k]; !ok {
				return false
			}
		}
		return true
	case *Range:
		bv, ok := b.(*Range)
		return ok && av.Exclusive == bv.Exclusive && Equals(av.Start, bv.Start) && Equals(av.End, bv.End)
	default:
		// Class/Instance/Method/Block/Exception/Binding/Result compare by
		// identity (pointer equality), per spec.md §3.4.
		return a == b
	}
}

func floatsEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < FloatEqualityEpsilon
}

// ClassNameOf returns the built-in class name used for native method
// dispatch and for `class`/`respond_to?` reflection.
func ClassNameOf(obj Object) string {
	switch o := obj.(type) {
	case *Nil:
		return "NilClass"
	case *Bool:
		return "Bool"
	case *Int:
		return "Int"
	case *Float:
		return "Float"
	case *String:
		return "String"
	case *Symbol:
		return "Symbol"
	case *Array:
		return "Array"
	case *Dict:
		return "Hash"
	case *Set:
		return "Set"
	case *Range:
		return "Range"
	case *Instance:
		return o.Class.Name
	case *Class:
		return "Class"
	case *Method:
		return "Method"
	case *Block:
		return "Block"
	case *NativeFunction:
		return "NativeFunction"
	case *Exception:
		return o.TypeName
	case *Binding:
		return "Binding"
	case *Result:
		return "Result"
	}
	return "Object"
}
