package evaluator

import "strings"

// Array is a shared, mutable, ordered sequence (spec.md §3.4). Shared
// mutation is modeled directly through Go's pointer/slice semantics: every
// Object reference to the same *Array observes the same backing slice.
type Array struct{ Elements []Object }

func (*Array) Type() ObjectType { return ARRAY_OBJ }
func (a *Array) Inspect() string { return inspectArray(a) }

func inspectArray(a *Array) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, e := range a.Elements {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.Inspect())
	}
	b.WriteByte(']')
	return b.String()
}

// dictEntry pairs a Dict's original (uncanonicalized) key with its value.
type dictEntry struct {
	Key   Object
	Value Object
}

// Dict is a shared, mutable hash keyed by the canonical string form of its
// keys (spec.md §4.6). Order preserves insertion order for keys/values/
// entries iteration, matching the teacher's ordered-map discipline.
type Dict struct {
	Entries map[string]dictEntry
	Order   []string
}

func NewDict() *Dict {
	return &Dict{Entries: make(map[string]dictEntry)}
}

func (*Dict) Type() ObjectType { return DICT_OBJ }
func (d *Dict) Inspect() string { return inspectDict(d) }

func inspectDict(d *Dict) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range d.Order {
		if i > 0 {
			b.WriteString(", ")
		}
		entry := d.Entries[k]
		b.WriteString(entry.Key.Inspect())
		b.WriteString(" => ")
		b.WriteString(entry.Value.Inspect())
	}
	b.WriteByte('}')
	return b.String()
}

// Set stores value under canonicalKey, appending the key to Order only
// when it was not already present.
func (d *Dict) Set(canonicalKey string, key, value Object) {
	if _, exists := d.Entries[canonicalKey]; !exists {
		d.Order = append(d.Order, canonicalKey)
	}
	d.Entries[canonicalKey] = dictEntry{Key: key, Value: value}
}

func (d *Dict) Delete(canonicalKey string) {
	if _, exists := d.Entries[canonicalKey]; !exists {
		return
	}
	delete(d.Entries, canonicalKey)
	for i, k := range d.Order {
		if k == canonicalKey {
			d.Order = append(d.Order[:i], d.Order[i+1:]...)
			break
		}
	}
}

// Set is a shared, mutable collection of elements deduplicated by canonical
// key (spec.md §3.4).
type Set struct {
	Elements map[string]Object
	Order    []string
}

func NewSet() *Set {
	return &Set{Elements: make(map[string]Object)}
}

func (*Set) Type() ObjectType { return SET_OBJ }
func (s *Set) Inspect() string { return inspectSet(s) }

func inspectSet(s *Set) string {
	var b strings.Builder
	b.WriteString("Set{")
	for i, k := range s.Order {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(s.Elements[k].Inspect())
	}
	b.WriteByte('}')
	return b.String()
}

func (s *Set) Add(canonicalKey string, value Object) {
	if _, exists := s.Elements[canonicalKey]; exists {
		return
	}
	s.Elements[canonicalKey] = value
	s.Order = append(s.Order, canonicalKey)
}

// Range is Int..Int / Int...Int (inclusive unless Exclusive), or more
// generally any two eagerly-evaluated endpoints; Int-ness is only required
// at iteration time (spec.md §4.5 "Range").
type Range struct {
	Start, End Object
	Exclusive  bool
}

func (*Range) Type() ObjectType { return RANGE_OBJ }
func (r *Range) Inspect() string { return inspectRange(r) }

func inspectRange(r *Range) string {
	op := ".."
	if r.Exclusive {
		op = "..."
	}
	return r.Start.Inspect() + op + r.End.Inspect()
}

// canonicalKey implements spec.md §4.6's dict/set key canonicalization.
// Returns ("", false) for a type that cannot be used as a key.
func canonicalKey(obj Object) (string, bool) {
	switch o := obj.(type) {
	case *Nil:
		return "nil", true
	case *Bool:
		if o.Value {
			return "true", true
		}
		return "false", true
	case *Int:
		return o.Inspect(), true
	case *Float:
		return o.Inspect(), true
	case *String:
		return o.Value, true
	case *Symbol:
		return o.Name, true
	}
	return "", false
}
