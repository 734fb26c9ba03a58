package wal

import "fmt"

// Kind indicates the runtime variant held by a [Value].
type Kind int

const (
	// KindInt represents a 64-bit signed integer.
	KindInt Kind = iota

	// KindFloat represents a 64-bit floating point number.
	KindFloat

	// KindString represents a string literal or computed string.
	KindString

	// KindBool represents a boolean.
	KindBool

	// KindSymbol represents a symbol reference (resolved or unresolved).
	KindSymbol

	// KindOperator represents a built-in operator tag, resolved by name
	// at dispatch time rather than carrying a closure.
	KindOperator

	// KindList represents an ordered sequence of Value.
	KindList

	// KindMapping represents a string-keyed mapping (WAL "array").
	KindMapping

	// KindClosure represents a captured environment, parameter list, and body.
	KindClosure

	// KindMacro represents a closure-shaped record applied at expansion time.
	KindMacro

	// KindUserOp represents a name bound to a host-registered callback.
	KindUserOp

	// KindUnquote represents an `(unquote expr)` marker, valid only inside
	// a quasiquote template.
	KindUnquote

	// KindUnquoteSplice represents an `(unquote-splice expr)` marker, valid
	// only inside a quasiquote template.
	KindUnquoteSplice

	// KindVirtualSignal represents a handle to a defsig-registered signal.
	KindVirtualSignal

	// KindNil represents the absence of a value, returned by forms such as
	// a case expression with no matching clause and no default.
	KindNil
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindSymbol:
		return "symbol"
	case KindOperator:
		return "operator"
	case KindList:
		return "list"
	case KindMapping:
		return "array"
	case KindClosure:
		return "closure"
	case KindMacro:
		return "macro"
	case KindUserOp:
		return "user-operator"
	case KindUnquote:
		return "unquote"
	case KindUnquoteSplice:
		return "unquote-splice"
	case KindVirtualSignal:
		return "virtual-signal"
	case KindNil:
		return "nil"
	default:
		return "unknown"
	}
}

// Mapping is a string-keyed, insertion-ordered collection of values, the
// runtime representation of WAL's "array" type.
type Mapping struct {
	keys   []string
	values map[string]Value
}

// NewMapping returns an empty Mapping.
func NewMapping() *Mapping {
	return &Mapping{values: make(map[string]Value)}
}

// Get returns the value bound to key and whether it was present.
func (m *Mapping) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Set inserts or overwrites the binding for key, preserving first-insertion
// order for iteration.
func (m *Mapping) Set(key string, v Value) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}

	m.values[key] = v
}

// Delete removes key, reporting whether it was present.
func (m *Mapping) Delete(key string) bool {
	if _, ok := m.values[key]; !ok {
		return false
	}

	delete(m.values, key)

	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}

	return true
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)

	return out
}

// Len reports the number of entries.
func (m *Mapping) Len() int { return len(m.keys) }

// Clone returns a shallow copy of the mapping.
func (m *Mapping) Clone() *Mapping {
	c := NewMapping()
	for _, k := range m.keys {
		c.Set(k, m.values[k])
	}

	return c
}

// Closure captures an environment, a parameter list, and a body expression.
// Macros share this shape (see [Value.Kind] KindMacro) but their body
// executes during the expand pass instead of at call time.
type Closure struct {
	Name       string // empty for anonymous closures
	Params     []Symbol
	Variadic   bool // true when Params is a single symbol bound to the arg list
	Body       []Value
	Env        *Environment
	Span       Span
}

// UserOp is a host-registered operator, invoked with the evaluator and the
// already-evaluated arguments.
type UserOp struct {
	Name     string
	Callback func(ev *Evaluator, args []Value) (Value, error)
}

// Value is a tagged union over every WAL runtime value. Exactly one group
// of fields is meaningful, selected by Kind.
type Value struct {
	Kind Kind

	Int    int64
	Float  float64
	Str    string
	Bool   bool
	Sym    Symbol
	Op     string // operator/unquote/unquote-splice/user-op name
	List   []Value
	Map    *Mapping
	Fn     *Closure
	UserFn *UserOp
	VSig   *VirtualSignal

	Span Span
}

// Nil is the canonical nil value.
var Nil = Value{Kind: KindNil}

// True and False are the canonical boolean values.
var (
	True  = Value{Kind: KindBool, Bool: true}
	False = Value{Kind: KindBool, Bool: false}
)

// Int returns an integer value.
func Int(n int64) Value { return Value{Kind: KindInt, Int: n} }

// Float returns a floating-point value.
func Float(f float64) Value { return Value{Kind: KindFloat, Float: f} }

// String returns a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Bool returns a boolean value.
func Bool(b bool) Value {
	if b {
		return True
	}

	return False
}

// List returns a list value.
func List(items ...Value) Value { return Value{Kind: KindList, List: items} }

// SymbolValue returns a value wrapping a symbol.
func SymbolValue(s Symbol) Value { return Value{Kind: KindSymbol, Sym: s} }

// Operator returns an operator-tag value.
func Operator(name string) Value { return Value{Kind: KindOperator, Op: name} }

// Truthy reports whether v counts as true in a boolean context. Only
// KindBool false and KindNil are falsey; everything else, including 0 and
// the empty string, is truthy (matching the reference implementation's
// Python-adjacent truthiness only where booleans are concerned).
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindNil:
		return false
	default:
		return true
	}
}

// Equal reports structural equality between two values. Lists and mappings
// compare element-wise; closures, macros, and user-operators compare by
// identity of their underlying pointer, matching reference-type semantics.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}

	switch v.Kind {
	case KindInt:
		return v.Int == o.Int
	case KindFloat:
		return v.Float == o.Float
	case KindString:
		return v.Str == o.Str
	case KindBool:
		return v.Bool == o.Bool
	case KindSymbol:
		return v.Sym.Name == o.Sym.Name
	case KindOperator, KindUnquote, KindUnquoteSplice:
		return v.Op == o.Op
	case KindUserOp:
		return v.UserFn == o.UserFn
	case KindList:
		if len(v.List) != len(o.List) {
			return false
		}

		for i := range v.List {
			if !v.List[i].Equal(o.List[i]) {
				return false
			}
		}

		return true
	case KindMapping:
		if v.Map == nil || o.Map == nil {
			return v.Map == o.Map
		}

		if v.Map.Len() != o.Map.Len() {
			return false
		}

		for _, k := range v.Map.Keys() {
			a, _ := v.Map.Get(k)
			b, ok := o.Map.Get(k)

			if !ok || !a.Equal(b) {
				return false
			}
		}

		return true
	case KindClosure, KindMacro:
		return v.Fn == o.Fn
	case KindVirtualSignal:
		return v.VSig == o.VSig
	case KindNil:
		return true
	default:
		return false
	}
}

// GoString implements fmt.GoStringer, used by debug-level logging.
func (v Value) GoString() string {
	return fmt.Sprintf("Value{Kind:%s}", v.Kind)
}
