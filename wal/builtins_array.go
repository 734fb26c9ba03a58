package wal

import "strings"

func init() {
	registerBuiltin("array", opArray)
	registerBuiltin("seta", opSeta)
	registerBuiltin("geta", opGeta)
	registerBuiltin("dela", opDela)
	registerBuiltin("mapa", opMapa)
}

// keyOf renders an evaluated key value as a Mapping key: ints and strings
// stringify plainly, matching core.py's '-'.join(map(str, ...)) convention
// used for seta/geta's composite-key form.
func keyOf(v Value) (string, bool) {
	switch v.Kind {
	case KindInt, KindString, KindSymbol:
		return formatValue(v), true
	default:
		return "", false
	}
}

// opArray constructs an array (string-keyed mapping) from (key value) pairs.
func opArray(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	m := NewMapping()

	for _, pair := range args {
		if pair.Kind != KindList || len(pair.List) != 2 {
			return Nil, newEvalError(ErrKindMismatch, span, "array: arguments must be (key value) pairs")
		}

		k, err := ev.Eval(env, pair.List[0])
		if err != nil {
			return Nil, err
		}

		key, ok := keyOf(k)
		if !ok {
			return Nil, newEvalError(ErrKindMismatch, span, "array: key must be int or string")
		}

		v, err := ev.Eval(env, pair.List[1])
		if err != nil {
			return Nil, err
		}

		m.Set(key, v)
	}

	return Value{Kind: KindMapping, Map: m, Span: span}, nil
}

func compositeKey(ev *Evaluator, env *Environment, keyExprs []Value, span Span) (string, error) {
	parts := make([]string, len(keyExprs))

	for i, expr := range keyExprs {
		v, err := ev.Eval(env, expr)
		if err != nil {
			return "", err
		}

		k, ok := keyOf(v)
		if !ok {
			return "", newEvalError(ErrKindMismatch, span, "key must be int, string, or symbol")
		}

		parts[i] = k
	}

	return strings.Join(parts, "-"), nil
}

// opSeta mutates an array binding in place: (seta name key+ value).
func opSeta(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) < 3 {
		return Nil, newEvalError(ErrArity, span, "seta: requires at least three arguments (seta name [key] value)")
	}

	array, err := ev.Eval(env, args[0])
	if err != nil {
		return Nil, err
	}

	if array.Kind != KindMapping {
		return Nil, newEvalError(ErrKindMismatch, span, "seta: must be applied on an array")
	}

	key, err := compositeKey(ev, env, args[1:len(args)-1], span)
	if err != nil {
		return Nil, err
	}

	value, err := ev.Eval(env, args[len(args)-1])
	if err != nil {
		return Nil, err
	}

	array.Map.Set(key, value)

	return array, nil
}

// opGeta reads a value out of an array, inserting a 0 default (core.py
// op_geta's side-effecting default) when the key is absent.
func opGeta(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) < 2 {
		return Nil, newEvalError(ErrArity, span, "geta: requires at least two arguments (geta array [key])")
	}

	array, err := ev.Eval(env, args[0])
	if err != nil {
		return Nil, err
	}

	if array.Kind != KindMapping {
		return Nil, newEvalError(ErrKindMismatch, span, "geta: first argument must be an array")
	}

	key, err := compositeKey(ev, env, args[1:], span)
	if err != nil {
		return Nil, err
	}

	if v, ok := array.Map.Get(key); ok {
		return v, nil
	}

	array.Map.Set(key, Int(0))

	return Int(0), nil
}

// opDela removes a key from an array (not present in the reference
// implementation; invented to give array's table of operations a
// delete counterpart to geta/seta).
func opDela(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) < 2 {
		return Nil, newEvalError(ErrArity, span, "dela: requires at least two arguments (dela array [key])")
	}

	array, err := ev.Eval(env, args[0])
	if err != nil {
		return Nil, err
	}

	if array.Kind != KindMapping {
		return Nil, newEvalError(ErrKindMismatch, span, "dela: first argument must be an array")
	}

	key, err := compositeKey(ev, env, args[1:], span)
	if err != nil {
		return Nil, err
	}

	return Bool(array.Map.Delete(key)), nil
}

func opMapa(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 2 {
		return Nil, newEvalError(ErrArity, span, "mapa: requires two arguments (mapa function array)")
	}

	arr, err := ev.Eval(env, args[1])
	if err != nil {
		return Nil, err
	}

	if arr.Kind != KindMapping {
		return Nil, newEvalError(ErrKindMismatch, span, "mapa: second argument must be an array")
	}

	out := make([]Value, 0, arr.Map.Len())

	for _, key := range arr.Map.Keys() {
		val, _ := arr.Map.Get(key)

		v, err := callOnElement(ev, env, args[0], []Value{String(key), val}, span)
		if err != nil {
			return Nil, err
		}

		out = append(out, v)
	}

	return List(out...), nil
}
