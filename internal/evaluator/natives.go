package evaluator

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/metorex-lang/metorex/internal/ast"
	"github.com/metorex-lang/metorex/internal/fileloader"
	"github.com/metorex-lang/metorex/internal/parser"
)

// registerNativeFunctions installs the small top-level function surface as
// Object::NativeFunction values in the outermost scope (spec.md §9's
// resolution of the Method/NativeFunction dispatch open question:
// top-level `def`s and these natives share one Identifier/Call dispatch
// path). `lambda` is not registered here: the grammar already reserves it
// as an expression-starting keyword (token.LAMBDA), so it can never reach
// this table as a bare identifier call.
func registerNativeFunctions(ev *Evaluator) {
	register := func(name string, fn func(ev *Evaluator, args []Object, block *Block) (Object, *Signal)) {
		ev.Global.Set(name, &NativeFunction{Name: name, Fn: fn})
	}

	register("puts", nativePuts)
	register("print", nativePrint)
	register("p", nativeP)
	register("gets", nativeGets)
	register("require_relative", nativeRequireRelative)
}

func nativePuts(ev *Evaluator, args []Object, block *Block) (Object, *Signal) {
	if len(args) == 0 {
		fmt.Fprintln(ev.Out)
		return NilValue, nil
	}
	for _, a := range args {
		if arr, ok := a.(*Array); ok {
			for _, e := range arr.Elements {
				fmt.Fprintln(ev.Out, ToS(e))
			}
			continue
		}
		fmt.Fprintln(ev.Out, ToS(a))
	}
	return NilValue, nil
}

func nativePrint(ev *Evaluator, args []Object, block *Block) (Object, *Signal) {
	for _, a := range args {
		fmt.Fprint(ev.Out, ToS(a))
	}
	return NilValue, nil
}

func nativeP(ev *Evaluator, args []Object, block *Block) (Object, *Signal) {
	for _, a := range args {
		fmt.Fprintln(ev.Out, a.Inspect())
	}
	if len(args) == 1 {
		return args[0], nil
	}
	if len(args) == 0 {
		return NilValue, nil
	}
	return &Array{Elements: args}, nil
}

func nativeGets(ev *Evaluator, args []Object, block *Block) (Object, *Signal) {
	if ev.In == nil {
		return NilValue, nil
	}
	line, err := ev.In.ReadString('\n')
	if err != nil && line == "" {
		return NilValue, nil
	}
	return &String{Value: strings.TrimRight(line, "\r\n")}, nil
}

// nativeRequireRelative implements spec.md §6's file loader: resolve the
// target (literal path, then .rb, then .mx) and parse/execute it in the
// *same* global environment, so top-level defs become visible to the
// caller, guarding against re-entrant loads of the same resolved path
// (SPEC_FULL.md §2 "require_relative and multi-file programs").
func nativeRequireRelative(ev *Evaluator, args []Object, block *Block) (Object, *Signal) {
	if len(args) != 1 {
		return NilValue, ev.newException("ArgumentError", "require_relative expects exactly one String argument")
	}
	s, ok := args[0].(*String)
	if !ok {
		return NilValue, ev.newException("TypeError", "require_relative expects a String path")
	}
	resolved, err := fileloader.Resolve(s.Value, ev.BaseDir)
	if err != nil {
		return NilValue, ev.newException("RuntimeError", err.Error())
	}
	if ev.loaded[resolved] {
		return FalseValue, nil
	}
	ev.loaded[resolved] = true

	src, err := readSourceFile(resolved)
	if err != nil {
		return NilValue, ev.newException("RuntimeError", err.Error())
	}
	p, err := parser.New(src)
	if err != nil {
		return NilValue, ev.newException("SyntaxError", err.Error())
	}
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return NilValue, ev.newException("SyntaxError", errs[0].Error())
	}
	_, sig := ev.execBody(prog.Statements, ev.Global)
	if sig != nil {
		return NilValue, sig
	}
	return TrueValue, nil
}

// callNativeMethod implements spec.md §4.7's built-in native method table,
// dispatched after user-defined method lookup fails (spec.md §4.5 step 5).
// Returns handled=false when no native method matches, so the caller can
// fall through to method_missing/UndefinedMethod.
func (ev *Evaluator) callNativeMethod(recv Object, method string, args []Object, node ast.Node) (Object, bool, *Signal) {
	if obj, handled, sig := ev.callUniversalMethod(recv, method, args, node); handled {
		return obj, true, sig
	}

	switch r := recv.(type) {
	case *String:
		return ev.callStringMethod(r, method, args, node)
	case *Array:
		return ev.callArrayMethod(r, method, args, node)
	case *Dict:
		return ev.callHashMethod(r, method, args, node)
	case *Set:
		return ev.callSetMethod(r, method, args, node)
	case *Range:
		return ev.callRangeMethod(r, method, args, node)
	case *Float:
		return ev.callFloatMethod(r, method, args)
	case *Int:
		return ev.callIntMethod(r, method, args)
	case *Exception:
		return ev.callExceptionMethod(r, method, args)
	case *Block:
		return ev.callBlockMethod(r, method, args, node)
	case *Class:
		return ev.callClassMethod(r, method, args, node)
	case *Method:
		return ev.callMethodMethod(r, method, args)
	case *Result:
		return ev.callResultMethod(r, method, args)
	case *Binding:
		return ev.callBindingMethod(r, method, args)
	}
	return NilValue, false, nil
}

// --- Object (every receiver) ---

func (ev *Evaluator) callUniversalMethod(recv Object, method string, args []Object, node ast.Node) (Object, bool, *Signal) {
	switch method {
	case "to_s":
		return &String{Value: ToS(recv)}, true, nil
	case "class":
		return ev.classOf(recv), true, nil
	case "respond_to?":
		if len(args) != 1 {
			return NilValue, true, ev.newException("ArgumentError", "respond_to? expects one String argument")
		}
		name, ok := args[0].(*String)
		if !ok {
			return NilValue, true, ev.newException("TypeError", "respond_to? expects a String argument")
		}
		return NativeBool(ev.respondsTo(recv, name.Value, node)), true, nil
	}
	return NilValue, false, nil
}

func (ev *Evaluator) classOf(recv Object) Object {
	if inst, ok := recv.(*Instance); ok {
		return inst.Class
	}
	if c, ok := ev.Global.Get(ClassNameOf(recv)); ok {
		return c
	}
	return NilValue
}

func (ev *Evaluator) respondsTo(recv Object, name string, node ast.Node) bool {
	if inst, ok := recv.(*Instance); ok {
		if m, _ := inst.Class.LookupMethod(name); m != nil {
			return true
		}
	}
	_, handled, _ := ev.callNativeMethod(recv, name, nativeProbeArgs(name), node)
	return handled
}

// nativeProbeArgs supplies a plausible zero-value argument list for a
// respond_to? probe; native methods that validate argument count/type
// would otherwise reject a bare probe call, but callNativeMethod's type
// switch itself only needs to reach the `case method:` arm to report
// handled=true, so a best-effort empty/placeholder list is sufficient.
func nativeProbeArgs(name string) []Object {
	switch name {
	case "push", "append", "each", "map", "select", "filter", "each_char", "+", "[]", "has_key?", "key?", "include?":
		return []Object{NilValue}
	}
	return nil
}

// --- String ---

func (ev *Evaluator) callStringMethod(s *String, method string, args []Object, node ast.Node) (Object, bool, *Signal) {
	switch method {
	case "length":
		return &Int{Value: int64(len([]rune(s.Value)))}, true, nil
	case "upcase":
		return &String{Value: strings.ToUpper(s.Value)}, true, nil
	case "downcase":
		return &String{Value: strings.ToLower(s.Value)}, true, nil
	case "trim":
		return &String{Value: strings.TrimSpace(s.Value)}, true, nil
	case "reverse":
		runes := []rune(s.Value)
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return &String{Value: string(runes)}, true, nil
	case "chars":
		runes := []rune(s.Value)
		elems := make([]Object, len(runes))
		for i, r := range runes {
			elems[i] = &String{Value: string(r)}
		}
		return &Array{Elements: elems}, true, nil
	case "bytes":
		bs := []byte(s.Value)
		elems := make([]Object, len(bs))
		for i, b := range bs {
			elems[i] = &Int{Value: int64(b)}
		}
		return &Array{Elements: elems}, true, nil
	case "each_char":
		if len(args) != 1 {
			return NilValue, true, ev.newException("ArgumentError", "each_char expects a block")
		}
		blk, ok := args[0].(*Block)
		if !ok {
			return NilValue, true, ev.newException("TypeError", "each_char expects a block")
		}
		for _, r := range s.Value {
			v, sig := ev.invokeBlock(blk, []Object{&String{Value: string(r)}}, node)
			if sig != nil {
				switch sig.Kind {
				case SigBreak:
					return s, true, nil
				case SigContinue:
					continue
				default:
					return v, true, sig
				}
			}
		}
		return s, true, nil
	case "+":
		if len(args) != 1 {
			return NilValue, true, ev.newException("ArgumentError", "String#+ expects one argument")
		}
		other, ok := args[0].(*String)
		if !ok {
			return NilValue, true, ev.newException("TypeError", "cannot concatenate String with "+ClassNameOf(args[0]))
		}
		return &String{Value: s.Value + other.Value}, true, nil
	}
	return NilValue, false, nil
}

// --- Array ---

func (ev *Evaluator) callArrayMethod(a *Array, method string, args []Object, node ast.Node) (Object, bool, *Signal) {
	switch method {
	case "length", "size":
		return &Int{Value: int64(len(a.Elements))}, true, nil
	case "push", "append":
		a.Elements = append(a.Elements, args...)
		return a, true, nil
	case "pop":
		if len(a.Elements) == 0 {
			return NilValue, true, nil
		}
		last := a.Elements[len(a.Elements)-1]
		a.Elements = a.Elements[:len(a.Elements)-1]
		return last, true, nil
	case "[]":
		if len(args) != 1 {
			return NilValue, true, ev.newException("ArgumentError", "Array#[] expects one Int argument")
		}
		v, sig := ev.evalIndex(a, args[0], node)
		return v, true, sig
	case "each":
		return ev.arrayEach(a, args, node)
	case "map":
		return ev.arrayMap(a, args, node)
	case "select", "filter":
		return ev.arraySelect(a, args, node)
	case "reduce":
		return ev.arrayReduce(a, args, node)
	case "zip":
		return ev.arrayZip(a, args)
	case "transpose":
		return ev.arrayTranspose(a)
	}
	return NilValue, false, nil
}

func blockArg(ev *Evaluator, args []Object, method string) (*Block, *Signal) {
	if len(args) != 1 {
		return nil, ev.newException("ArgumentError", method+" expects exactly one block argument")
	}
	blk, ok := args[0].(*Block)
	if !ok {
		return nil, ev.newException("TypeError", method+" expects a block")
	}
	return blk, nil
}

// arrayEach propagates Break (stops, returns the receiver), Continue
// (advances), Return and Exception (both bubble) correctly, per spec.md
// §4.7's explicit warning against converting them into runtime errors.
func (ev *Evaluator) arrayEach(a *Array, args []Object, node ast.Node) (Object, bool, *Signal) {
	blk, sig := blockArg(ev, args, "each")
	if sig != nil {
		return NilValue, true, sig
	}
	for _, elem := range a.Elements {
		v, sig := ev.invokeBlock(blk, []Object{elem}, node)
		if sig != nil {
			switch sig.Kind {
			case SigBreak:
				return a, true, nil
			case SigContinue:
				continue
			default:
				return v, true, sig
			}
		}
	}
	return a, true, nil
}

// arrayMap converts Break into an early return with the elements mapped so
// far (spec.md §4.7); a bare Continue contributes nothing for that
// position (DESIGN.md's resolution: Continue never carries a value in
// this grammar, so it is treated like select's "skip" rather than
// inventing an unspecified nil-fill).
func (ev *Evaluator) arrayMap(a *Array, args []Object, node ast.Node) (Object, bool, *Signal) {
	blk, sig := blockArg(ev, args, "map")
	if sig != nil {
		return NilValue, true, sig
	}
	var out []Object
	for _, elem := range a.Elements {
		v, sig := ev.invokeBlock(blk, []Object{elem}, node)
		if sig != nil {
			switch sig.Kind {
			case SigBreak:
				return &Array{Elements: out}, true, nil
			case SigContinue:
				continue
			default:
				return v, true, sig
			}
		}
		out = append(out, v)
	}
	return &Array{Elements: out}, true, nil
}

func (ev *Evaluator) arraySelect(a *Array, args []Object, node ast.Node) (Object, bool, *Signal) {
	blk, sig := blockArg(ev, args, "select")
	if sig != nil {
		return NilValue, true, sig
	}
	var out []Object
	for _, elem := range a.Elements {
		v, sig := ev.invokeBlock(blk, []Object{elem}, node)
		if sig != nil {
			switch sig.Kind {
			case SigBreak:
				return &Array{Elements: out}, true, nil
			case SigContinue:
				continue
			default:
				return v, true, sig
			}
		}
		if Truthy(v) {
			out = append(out, elem)
		}
	}
	return &Array{Elements: out}, true, nil
}

func (ev *Evaluator) arrayReduce(a *Array, args []Object, node ast.Node) (Object, bool, *Signal) {
	var acc Object
	var blk *Block
	var startIdx int
	switch len(args) {
	case 1:
		b, ok := args[0].(*Block)
		if !ok {
			return NilValue, true, ev.newException("TypeError", "reduce expects a block")
		}
		blk = b
		if len(a.Elements) == 0 {
			return NilValue, true, nil
		}
		acc = a.Elements[0]
		startIdx = 1
	case 2:
		b, ok := args[1].(*Block)
		if !ok {
			return NilValue, true, ev.newException("TypeError", "reduce expects a block")
		}
		blk = b
		acc = args[0]
		if len(a.Elements) == 0 {
			// SPEC_FULL.md's resolved open question: an explicit initial
			// value survives an empty receiver instead of being discarded.
			return acc, true, nil
		}
		startIdx = 0
	default:
		return NilValue, true, ev.newException("ArgumentError", "reduce expects (block) or (initial, block)")
	}

	for _, elem := range a.Elements[startIdx:] {
		v, sig := ev.invokeBlock(blk, []Object{acc, elem}, node)
		if sig != nil {
			switch sig.Kind {
			case SigBreak:
				return acc, true, nil
			case SigContinue:
				continue
			default:
				return v, true, sig
			}
		}
		acc = v
	}
	return acc, true, nil
}

func (ev *Evaluator) arrayZip(a *Array, args []Object) (Object, bool, *Signal) {
	if len(args) == 0 {
		return NilValue, true, ev.newException("ArgumentError", "zip expects at least one Array argument")
	}
	others := make([]*Array, len(args))
	for i, arg := range args {
		other, ok := arg.(*Array)
		if !ok {
			return NilValue, true, ev.newException("TypeError", "zip expects Array arguments")
		}
		others[i] = other
	}
	rows := make([]Object, len(a.Elements))
	for i := range a.Elements {
		row := make([]Object, 0, len(others)+1)
		row = append(row, a.Elements[i])
		for _, other := range others {
			if i < len(other.Elements) {
				row = append(row, other.Elements[i])
			} else {
				row = append(row, NilValue)
			}
		}
		rows[i] = &Array{Elements: row}
	}
	return &Array{Elements: rows}, true, nil
}

func (ev *Evaluator) arrayTranspose(a *Array) (Object, bool, *Signal) {
	if len(a.Elements) == 0 {
		return &Array{}, true, nil
	}
	var width int
	rows := make([][]Object, len(a.Elements))
	for i, e := range a.Elements {
		row, ok := e.(*Array)
		if !ok {
			return NilValue, true, ev.newException("TypeError", "transpose requires an array of arrays")
		}
		rows[i] = row.Elements
		if i == 0 {
			width = len(row.Elements)
		} else if len(row.Elements) != width {
			return NilValue, true, ev.newException("RuntimeError", "transpose requires rows of equal length")
		}
	}
	cols := make([]Object, width)
	for c := 0; c < width; c++ {
		col := make([]Object, len(rows))
		for r := range rows {
			col[r] = rows[r][c]
		}
		cols[c] = &Array{Elements: col}
	}
	return &Array{Elements: cols}, true, nil
}

// --- Hash (Dict) ---

func (ev *Evaluator) callHashMethod(d *Dict, method string, args []Object, node ast.Node) (Object, bool, *Signal) {
	switch method {
	case "keys":
		elems := make([]Object, len(d.Order))
		for i, k := range d.Order {
			elems[i] = d.Entries[k].Key
		}
		return &Array{Elements: elems}, true, nil
	case "values":
		elems := make([]Object, len(d.Order))
		for i, k := range d.Order {
			elems[i] = d.Entries[k].Value
		}
		return &Array{Elements: elems}, true, nil
	case "has_key?", "key?":
		if len(args) != 1 {
			return NilValue, true, ev.newException("ArgumentError", method+" expects one argument")
		}
		canon, ok := canonicalKey(args[0])
		if !ok {
			return NativeBool(false), true, nil
		}
		_, exists := d.Entries[canon]
		return NativeBool(exists), true, nil
	case "entries", "to_a":
		elems := make([]Object, len(d.Order))
		for i, k := range d.Order {
			entry := d.Entries[k]
			elems[i] = &Array{Elements: []Object{entry.Key, entry.Value}}
		}
		return &Array{Elements: elems}, true, nil
	case "length", "size":
		return &Int{Value: int64(len(d.Order))}, true, nil
	case "[]":
		if len(args) != 1 {
			return NilValue, true, ev.newException("ArgumentError", "Hash#[] expects one argument")
		}
		v, sig := ev.evalIndex(d, args[0], node)
		return v, true, sig
	}
	return NilValue, false, nil
}

// --- Set ---

func (ev *Evaluator) callSetMethod(s *Set, method string, args []Object, node ast.Node) (Object, bool, *Signal) {
	switch method {
	case "length", "size":
		return &Int{Value: int64(len(s.Order))}, true, nil
	case "include?", "member?":
		if len(args) != 1 {
			return NilValue, true, ev.newException("ArgumentError", method+" expects one argument")
		}
		canon, ok := canonicalKey(args[0])
		if !ok {
			return NativeBool(false), true, nil
		}
		_, exists := s.Elements[canon]
		return NativeBool(exists), true, nil
	case "add":
		if len(args) != 1 {
			return NilValue, true, ev.newException("ArgumentError", "add expects one argument")
		}
		canon, ok := canonicalKey(args[0])
		if !ok {
			return NilValue, true, ev.newException("TypeError", "set element must be Nil, Bool, Int, Float, or String")
		}
		s.Add(canon, args[0])
		return s, true, nil
	case "to_a":
		elems := make([]Object, len(s.Order))
		for i, k := range s.Order {
			elems[i] = s.Elements[k]
		}
		return &Array{Elements: elems}, true, nil
	case "each":
		blk, sig := blockArg(ev, args, "each")
		if sig != nil {
			return NilValue, true, sig
		}
		for _, k := range s.Order {
			v, sig := ev.invokeBlock(blk, []Object{s.Elements[k]}, node)
			if sig != nil {
				switch sig.Kind {
				case SigBreak:
					return s, true, nil
				case SigContinue:
					continue
				default:
					return v, true, sig
				}
			}
		}
		return s, true, nil
	}
	return NilValue, false, nil
}

// --- Range ---

func (ev *Evaluator) callRangeMethod(r *Range, method string, args []Object, node ast.Node) (Object, bool, *Signal) {
	switch method {
	case "each":
		blk, sig := blockArg(ev, args, "each")
		if sig != nil {
			return NilValue, true, sig
		}
		items, sig := ev.expandRange(r)
		if sig != nil {
			return NilValue, true, sig
		}
		for _, elem := range items {
			v, sig := ev.invokeBlock(blk, []Object{elem}, node)
			if sig != nil {
				switch sig.Kind {
				case SigBreak:
					return r, true, nil
				case SigContinue:
					continue
				default:
					return v, true, sig
				}
			}
		}
		return r, true, nil
	case "map":
		blk, sig := blockArg(ev, args, "map")
		if sig != nil {
			return NilValue, true, sig
		}
		items, sig := ev.expandRange(r)
		if sig != nil {
			return NilValue, true, sig
		}
		var out []Object
		for _, elem := range items {
			v, sig := ev.invokeBlock(blk, []Object{elem}, node)
			if sig != nil {
				switch sig.Kind {
				case SigBreak:
					return &Array{Elements: out}, true, nil
				case SigContinue:
					continue
				default:
					return v, true, sig
				}
			}
			out = append(out, v)
		}
		return &Array{Elements: out}, true, nil
	case "to_a":
		items, sig := ev.expandRange(r)
		if sig != nil {
			return NilValue, true, sig
		}
		return &Array{Elements: items}, true, nil
	case "include?":
		if len(args) != 1 {
			return NilValue, true, ev.newException("ArgumentError", "include? expects one Int argument")
		}
		n, ok := args[0].(*Int)
		start, sok := r.Start.(*Int)
		end, eok := r.End.(*Int)
		if !ok || !sok || !eok {
			return NilValue, true, ev.newException("TypeError", "Range#include? requires an integer range and argument")
		}
		lo, hi := start.Value, end.Value
		if lo > hi {
			lo, hi = hi, lo
		}
		if r.Exclusive && end.Value == hi {
			hi--
		}
		return NativeBool(n.Value >= lo && n.Value <= hi), true, nil
	}
	return NilValue, false, nil
}

// --- Float / Int ---

func (ev *Evaluator) callFloatMethod(f *Float, method string, args []Object) (Object, bool, *Signal) {
	switch method {
	case "round":
		digits := 0
		if len(args) == 1 {
			n, ok := args[0].(*Int)
			if !ok || n.Value < 0 {
				return NilValue, true, ev.newException("TypeError", "round expects a non-negative Int")
			}
			digits = int(n.Value)
		} else if len(args) != 0 {
			return NilValue, true, ev.newException("ArgumentError", "round expects zero or one argument")
		}
		mult := math.Pow(10, float64(digits))
		rounded := math.Round(f.Value*mult) / mult
		if digits == 0 {
			return &Int{Value: int64(rounded)}, true, nil
		}
		return &Float{Value: rounded}, true, nil
	}
	return NilValue, false, nil
}

func (ev *Evaluator) callIntMethod(i *Int, method string, args []Object) (Object, bool, *Signal) {
	switch method {
	case "round":
		return i, true, nil
	}
	return NilValue, false, nil
}

// --- Exception ---

func (ev *Evaluator) callExceptionMethod(e *Exception, method string, args []Object) (Object, bool, *Signal) {
	switch method {
	case "message":
		return &String{Value: e.Message}, true, nil
	case "type", "exception_type":
		return &String{Value: e.TypeName}, true, nil
	case "exception_chain":
		var chain []Object
		for cur := e; cur != nil; cur = cur.Cause {
			chain = append(chain, &String{Value: cur.TypeName + ": " + cur.Message})
		}
		return &Array{Elements: chain}, true, nil
	}
	return NilValue, false, nil
}

// --- Block ---

func (ev *Evaluator) callBlockMethod(b *Block, method string, args []Object, node ast.Node) (Object, bool, *Signal) {
	switch method {
	case "call":
		v, sig := ev.invokeBlock(b, args, node)
		return v, true, sig
	case "binding":
		snapshot := make(map[string]Object, len(b.Captured))
		for k, v := range b.Captured {
			snapshot[k] = v
		}
		return &Binding{Vars: snapshot}, true, nil
	}
	return NilValue, false, nil
}

// --- Class ---

func (ev *Evaluator) callClassMethod(c *Class, method string, args []Object, node ast.Node) (Object, bool, *Signal) {
	switch method {
	case "new":
		v, sig := ev.instantiateClass(c, args, node)
		return v, true, sig
	case "name":
		return &String{Value: c.Name}, true, nil
	case "ok":
		if c.Name == "Result" {
			if len(args) != 1 {
				return NilValue, true, ev.newException("ArgumentError", "Result.ok expects one argument")
			}
			return &Result{Ok: true, Value: args[0]}, true, nil
		}
	case "err":
		if c.Name == "Result" {
			if len(args) != 1 {
				return NilValue, true, ev.newException("ArgumentError", "Result.err expects one argument")
			}
			return &Result{Ok: false, Value: args[0]}, true, nil
		}
	}
	return NilValue, false, nil
}

// --- Method ---

func (ev *Evaluator) callMethodMethod(m *Method, method string, args []Object) (Object, bool, *Signal) {
	switch method {
	case "name":
		return &String{Value: m.Name}, true, nil
	case "owner":
		if m.Owner == nil {
			return NilValue, true, nil
		}
		return m.Owner, true, nil
	case "source_location":
		if m.Pos == nil {
			return &String{Value: "<unknown>"}, true, nil
		}
		pos := m.Pos.Pos()
		return &String{Value: fmt.Sprintf("%d:%d", pos.Line, pos.Column)}, true, nil
	case "parameters":
		elems := make([]Object, len(m.Parameters))
		for i, p := range m.Parameters {
			elems[i] = &Symbol{Name: p.Name}
		}
		return &Array{Elements: elems}, true, nil
	}
	return NilValue, false, nil
}

// --- Result ---

func (ev *Evaluator) callResultMethod(r *Result, method string, args []Object) (Object, bool, *Signal) {
	switch method {
	case "ok?":
		return NativeBool(r.Ok), true, nil
	case "err?":
		return NativeBool(!r.Ok), true, nil
	case "unwrap":
		if r.Ok {
			return r.Value, true, nil
		}
		return NilValue, true, ev.newException("RuntimeError", "unwrap called on an Err("+ToS(r.Value)+")")
	case "unwrap_or":
		if r.Ok {
			return r.Value, true, nil
		}
		if len(args) != 1 {
			return NilValue, true, ev.newException("ArgumentError", "unwrap_or expects one argument")
		}
		return args[0], true, nil
	}
	return NilValue, false, nil
}

// --- Binding ---

func (ev *Evaluator) callBindingMethod(b *Binding, method string, args []Object) (Object, bool, *Signal) {
	switch method {
	case "get":
		if len(args) != 1 {
			return NilValue, true, ev.newException("ArgumentError", "Binding#get expects one String argument")
		}
		name, ok := args[0].(*String)
		if !ok {
			return NilValue, true, ev.newException("TypeError", "Binding#get expects a String argument")
		}
		if v, ok := b.Vars[name.Value]; ok {
			return v, true, nil
		}
		return NilValue, true, nil
	}
	return NilValue, false, nil
}

// readSourceFile reads a UTF-8 source file for require_relative.
func readSourceFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
