package wal

import "strings"

func init() {
	registerBuiltin("list", opListOf)
	registerBuiltin("first", opFirst)
	registerBuiltin("second", opSecond)
	registerBuiltin("last", opLast)
	registerBuiltin("rest", opRest)
	registerBuiltin("in", opIn)
	registerBuiltin("map", opMap)
	registerBuiltin("max", opMax)
	registerBuiltin("min", opMin)
	registerBuiltin("average", opAverage)
	registerBuiltin("zip", opZip)
	registerBuiltin("length", opLength)
	registerBuiltin("fold", opFold)
	registerBuiltin("range", opRange)
}

func opListOf(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	evaluated, err := evalArgs(ev, env, args)
	if err != nil {
		return Nil, err
	}

	return List(evaluated...), nil
}

func evalSingleList(ev *Evaluator, env *Environment, args []Value, span Span, name string) ([]Value, error) {
	if len(args) != 1 {
		return nil, newEvalError(ErrArity, span, "%s: expects exactly one argument", name)
	}

	v, err := ev.Eval(env, args[0])
	if err != nil {
		return nil, err
	}

	if v.Kind != KindList {
		return nil, newEvalError(ErrKindMismatch, span, "%s: argument must be a list", name)
	}

	return v.List, nil
}

func opFirst(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	items, err := evalSingleList(ev, env, args, span, "first")
	if err != nil {
		return Nil, err
	}

	if len(items) == 0 {
		return Nil, newEvalError(ErrKindMismatch, span, "first: argument must have length > 0")
	}

	return items[0], nil
}

func opSecond(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	items, err := evalSingleList(ev, env, args, span, "second")
	if err != nil {
		return Nil, err
	}

	if len(items) < 2 {
		return Nil, newEvalError(ErrKindMismatch, span, "second: argument must have length > 1")
	}

	return items[1], nil
}

func opLast(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	items, err := evalSingleList(ev, env, args, span, "last")
	if err != nil {
		return Nil, err
	}

	if len(items) == 0 {
		return Nil, newEvalError(ErrKindMismatch, span, "last: argument must have length > 0")
	}

	return items[len(items)-1], nil
}

func opRest(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	items, err := evalSingleList(ev, env, args, span, "rest")
	if err != nil {
		return Nil, err
	}

	if len(items) <= 1 {
		return List(), nil
	}

	return List(items[1:]...), nil
}

// opIn checks membership: (in v... list) or (in v... array), the array form
// joining the candidate values with "-" to form the lookup key (core.py
// op_in's `'-'.join(map(str, evaluated[:-1]))`).
func opIn(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) < 2 {
		return Nil, newEvalError(ErrArity, span, "in: expects at least 2 arguments (in value [list|array])")
	}

	evaluated, err := evalArgs(ev, env, args)
	if err != nil {
		return Nil, err
	}

	haystack := evaluated[len(evaluated)-1]
	needles := evaluated[:len(evaluated)-1]

	switch haystack.Kind {
	case KindList:
		for _, n := range needles {
			found := false

			for _, item := range haystack.List {
				if item.Equal(n) {
					found = true

					break
				}
			}

			if !found {
				return False, nil
			}
		}

		return True, nil

	case KindMapping:
		parts := make([]string, len(needles))
		for i, n := range needles {
			parts[i] = formatValue(n)
		}

		_, ok := haystack.Map.Get(strings.Join(parts, "-"))

		return Bool(ok), nil

	default:
		return Nil, newEvalError(ErrKindMismatch, span, "in: last argument must be a list or array")
	}
}

// quoted wraps v as a literal `(quote v)` AST node, so it can be passed as
// an already-evaluated "unevaluated argument" to ev.Eval / applyClosure
// without being re-interpreted as a call form (needed whenever v may itself
// be a KindList).
func quoted(v Value) Value {
	return List(SymbolValue(NewSymbol("quote")), v)
}

// callOnElement applies headExpr (either a raw builtin-operator symbol or
// an expression evaluating to a closure) to the already-evaluated args,
// mirroring core.py's map/fold dispatch: a literal operator symbol is
// invoked directly each call; anything else is evaluated once to a closure
// and applied via Apply.
func callOnElement(ev *Evaluator, env *Environment, headExpr Value, elements []Value, span Span) (Value, error) {
	if headExpr.Kind == KindSymbol {
		if _, ok := builtins[headExpr.Sym.Name]; ok {
			call := List(append([]Value{headExpr}, quotedSlice(elements)...)...)

			return ev.Eval(env, call)
		}
	}

	fn, err := ev.Eval(env, headExpr)
	if err != nil {
		return Nil, err
	}

	if fn.Kind != KindClosure {
		return Nil, newEvalError(ErrKindMismatch, span, "expected a function")
	}

	return ev.Apply(env, fn, quotedSlice(elements), span)
}

func quotedSlice(elements []Value) []Value {
	out := make([]Value, len(elements))
	for i, e := range elements {
		out[i] = quoted(e)
	}

	return out
}

func opMap(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 2 {
		return Nil, newEvalError(ErrArity, span, "map: expects two arguments")
	}

	seq, err := ev.Eval(env, args[1])
	if err != nil {
		return Nil, err
	}

	if seq.Kind != KindList {
		return Nil, newEvalError(ErrKindMismatch, span, "map: second argument must be a list")
	}

	out := make([]Value, len(seq.List))

	for i, element := range seq.List {
		v, err := callOnElement(ev, env, args[0], []Value{element}, span)
		if err != nil {
			return Nil, err
		}

		out[i] = v
	}

	return List(out...), nil
}

func opZip(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 2 {
		return Nil, newEvalError(ErrArity, span, "zip: expects two arguments (zip list list)")
	}

	evaluated, err := evalArgs(ev, env, args)
	if err != nil {
		return Nil, err
	}

	if evaluated[0].Kind != KindList || evaluated[1].Kind != KindList {
		return Nil, newEvalError(ErrKindMismatch, span, "zip: both arguments must be lists")
	}

	n := len(evaluated[0].List)
	if len(evaluated[1].List) < n {
		n = len(evaluated[1].List)
	}

	out := make([]Value, n)
	for i := 0; i < n; i++ {
		out[i] = List(evaluated[0].List[i], evaluated[1].List[i])
	}

	return List(out...), nil
}

func opMax(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	items, err := evalSingleList(ev, env, args, span, "max")
	if err != nil {
		return Nil, err
	}

	return extremum(items, span, "max", func(a, b float64) bool { return a > b })
}

func opMin(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	items, err := evalSingleList(ev, env, args, span, "min")
	if err != nil {
		return Nil, err
	}

	return extremum(items, span, "min", func(a, b float64) bool { return a < b })
}

func extremum(items []Value, span Span, name string, better func(a, b float64) bool) (Value, error) {
	if len(items) == 0 {
		return Nil, newEvalError(ErrKindMismatch, span, "%s: argument must have length > 0", name)
	}

	best := items[0]
	bestF, ok := asFloat64(best)
	if !ok {
		return Nil, newEvalError(ErrKindMismatch, span, "%s: elements must be numeric", name)
	}

	for _, v := range items[1:] {
		f, ok := asFloat64(v)
		if !ok {
			return Nil, newEvalError(ErrKindMismatch, span, "%s: elements must be numeric", name)
		}

		if better(f, bestF) {
			best, bestF = v, f
		}
	}

	return best, nil
}

func opAverage(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	items, err := evalSingleList(ev, env, args, span, "average")
	if err != nil {
		return Nil, err
	}

	if len(items) == 0 {
		return Nil, newEvalError(ErrKindMismatch, span, "average: argument must have length > 0")
	}

	var sum float64

	for _, v := range items {
		f, ok := asFloat64(v)
		if !ok {
			return Nil, newEvalError(ErrKindMismatch, span, "average: elements must be numeric")
		}

		sum += f
	}

	return Float(sum / float64(len(items))), nil
}

func opLength(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 1 {
		return Nil, newEvalError(ErrArity, span, "length: expects exactly one argument")
	}

	v, err := ev.Eval(env, args[0])
	if err != nil {
		return Nil, err
	}

	switch v.Kind {
	case KindList:
		return Int(int64(len(v.List))), nil
	case KindString:
		return Int(int64(len(v.Str))), nil
	default:
		return Nil, newEvalError(ErrKindMismatch, span, "length: argument must be a list or string")
	}
}

// opFold evaluates acc and data, then folds f across data's elements in
// order: (fold f acc data).
func opFold(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 3 {
		return Nil, newEvalError(ErrArity, span, "fold: expects 3 arguments (fold f acc data)")
	}

	rest, err := evalArgs(ev, env, args[1:])
	if err != nil {
		return Nil, err
	}

	acc, data := rest[0], rest[1]
	if data.Kind != KindList {
		return Nil, newEvalError(ErrKindMismatch, span, "fold: last argument must be a list")
	}

	for _, element := range data.List {
		v, err := callOnElement(ev, env, args[0], []Value{acc, element}, span)
		if err != nil {
			return Nil, err
		}

		acc = v
	}

	return acc, nil
}

// opRange mirrors Python's range(*args): one argument is (stop), two are
// (start stop), three are (start stop step).
func opRange(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) < 1 || len(args) > 3 {
		return Nil, newEvalError(ErrArity, span, "range: expects one to three arguments (range start:int end:int step:int)")
	}

	evaluated, err := evalArgs(ev, env, args)
	if err != nil {
		return Nil, err
	}

	ints := make([]int64, len(evaluated))
	for i, v := range evaluated {
		if v.Kind != KindInt {
			return Nil, newEvalError(ErrKindMismatch, span, "range: all arguments must be ints")
		}

		ints[i] = v.Int
	}

	var start, stop, step int64 = 0, 0, 1

	switch len(ints) {
	case 1:
		stop = ints[0]
	case 2:
		start, stop = ints[0], ints[1]
	case 3:
		start, stop, step = ints[0], ints[1], ints[2]
	}

	if step == 0 {
		return Nil, newEvalError(ErrDivideByZero, span, "range: step must not be zero")
	}

	var out []Value

	if step > 0 {
		for i := start; i < stop; i += step {
			out = append(out, Int(i))
		}
	} else {
		for i := start; i > stop; i += step {
			out = append(out, Int(i))
		}
	}

	return List(out...), nil
}
