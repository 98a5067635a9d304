package evaluator

import "github.com/metorex-lang/metorex/internal/ast"

// Class is a shared class object: name, optional superclass link, a method
// table, the set of instance-variable names declared via attr_* helpers,
// and per-class class-variable storage (spec.md §3.4).
type Class struct {
	Name                 string
	Superclass           *Class
	Methods              map[string]*Method
	DeclaredInstanceVars map[string]bool
	ClassVars            map[string]Object
}

func NewClass(name string, super *Class) *Class {
	return &Class{
		Name:                 name,
		Superclass:           super,
		Methods:              make(map[string]*Method),
		DeclaredInstanceVars: make(map[string]bool),
		ClassVars:            make(map[string]Object),
	}
}

func (*Class) Type() ObjectType { return CLASS_OBJ }
func (c *Class) Inspect() string { return "#<Class: " + c.Name + ">" }

// LookupMethod walks the superclass chain, most-derived first.
func (c *Class) LookupMethod(name string) (*Method, *Class) {
	for cur := c; cur != nil; cur = cur.Superclass {
		if m, ok := cur.Methods[name]; ok {
			return m, cur
		}
	}
	return nil, nil
}

// LookupClassVar walks the superclass chain looking for existing storage,
// falling back to the receiver class itself for assignment.
func (c *Class) LookupClassVar(name string) (Object, *Class) {
	for cur := c; cur != nil; cur = cur.Superclass {
		if v, ok := cur.ClassVars[name]; ok {
			return v, cur
		}
	}
	return nil, nil
}

// IsSubclassOf reports whether c is target or descends from it by name.
func (c *Class) IsSubclassOf(name string) bool {
	for cur := c; cur != nil; cur = cur.Superclass {
		if cur.Name == name {
			return true
		}
	}
	return false
}

// Instance is a shared, mutable record of a user-defined class.
type Instance struct {
	Class        *Class
	InstanceVars map[string]Object
}

func NewInstance(class *Class) *Instance {
	return &Instance{Class: class, InstanceVars: make(map[string]Object)}
}

func (*Instance) Type() ObjectType { return INSTANCE_OBJ }
func (i *Instance) Inspect() string { return "#<" + i.Class.Name + ">" }

// Method is a user-defined function or method (spec.md §3.4). Owner is nil
// for a top-level FunctionDef. BoundReceiver is set by `.bind`-style
// production of a pre-bound method value; invocation uses it instead of
// the call-site receiver when non-nil.
type Method struct {
	Name          string
	Parameters    []*ast.Parameter
	Body          []ast.Statement
	Owner         *Class
	BoundReceiver Object
	Pos           ast.Node
}

func (*Method) Type() ObjectType { return METHOD_OBJ }
func (m *Method) Inspect() string { return "#<Method: " + m.Name + ">" }

// Block is a closure: its captured environment is snapshotted by value at
// creation time (spec.md §4.3/§9 "block captures are snapshots, not
// box-and-share").
type Block struct {
	Parameters []*ast.Parameter
	Body       []ast.Statement
	Captured   map[string]Object
}

func (*Block) Type() ObjectType { return BLOCK_OBJ }
func (*Block) Inspect() string { return "#<Block>" }

// NativeFunction wraps a Go-implemented top-level function (puts, print,
// p, require_relative, ...), registered in the global scope exactly like a
// FunctionDef-produced Method so Identifier/Call dispatch treats both
// uniformly (spec.md §9, Open Question: unify Method/NativeFunction
// dispatch).
type NativeFunction struct {
	Name string
	Fn   func(ev *Evaluator, args []Object, block *Block) (Object, *Signal)
}

func (*NativeFunction) Type() ObjectType { return NATIVE_OBJ }
func (n *NativeFunction) Inspect() string { return "#<NativeFunction: " + n.Name + ">" }

// Exception is a standalone runtime value, not an Instance (spec.md §3.4
// lists Exception and Instance as distinct Object variants). TypeName
// drives rescue-clause matching against the class hierarchy registered in
// the evaluator's built-in exception classes.
type Exception struct {
	TypeName  string
	Message   string
	Cause     *Exception
	Location  *ast.Node
	Backtrace []string
}

func (*Exception) Type() ObjectType { return EXCEPTION_OBJ }
func (e *Exception) Inspect() string { return "#<" + e.TypeName + ": " + e.Message + ">" }

// Binding captures a snapshot of named variables, the value produced by a
// Block's `binding` native method.
type Binding struct {
	Vars map[string]Object
}

func (*Binding) Type() ObjectType { return BINDING_OBJ }
func (*Binding) Inspect() string { return "#<Binding>" }

// Result wraps Ok/Err around an Object (spec.md §3.4).
type Result struct {
	Ok    bool
	Value Object
}

func (*Result) Type() ObjectType { return RESULT_OBJ }
func (r *Result) Inspect() string {
	if r.Ok {
		return "Ok(" + r.Value.Inspect() + ")"
	}
	return "Err(" + r.Value.Inspect() + ")"
}
