package wal

import "math"

func init() {
	registerBuiltin("+", opAdd)
	registerBuiltin("-", opSub)
	registerBuiltin("*", opMul)
	registerBuiltin("/", opDiv)
	registerBuiltin("**", opExp)
	registerBuiltin("floor", opFloor)
	registerBuiltin("ceil", opCeil)
	registerBuiltin("round", opRound)
	registerBuiltin("mod", opMod)

	registerBuiltin("=", opEq)
	registerBuiltin("!=", opNeq)
	registerBuiltin(">", opGt)
	registerBuiltin("<", opLt)
	registerBuiltin(">=", opGe)
	registerBuiltin("<=", opLe)
	registerBuiltin("&&", opAnd)
	registerBuiltin("||", opOr)
	registerBuiltin("!", opNot)
}

// evalArgs evaluates every element of args in env, left to right.
func evalArgs(ev *Evaluator, env *Environment, args []Value) ([]Value, error) {
	out := make([]Value, len(args))

	for i, a := range args {
		v, err := ev.Eval(env, a)
		if err != nil {
			return nil, err
		}

		out[i] = v
	}

	return out, nil
}

func asFloat64(v Value) (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.Int), true
	case KindFloat:
		return v.Float, true
	default:
		return 0, false
	}
}

// opAdd implements spec.md 4.3: all-numeric sums; any string present
// concatenates (stringifying numbers); any list present concatenates
// (lists win over strings if both appear); `(+)` is 0.
func opAdd(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	evaluated, err := evalArgs(ev, env, args)
	if err != nil {
		return Nil, err
	}

	if len(evaluated) == 0 {
		return Int(0), nil
	}

	hasList := false
	hasString := false

	for _, v := range evaluated {
		switch v.Kind {
		case KindList:
			hasList = true
		case KindString:
			hasString = true
		}
	}

	if hasList {
		var out []Value

		for _, v := range evaluated {
			if v.Kind == KindList {
				out = append(out, v.List...)
			} else {
				out = append(out, v)
			}
		}

		return List(out...), nil
	}

	if hasString {
		var b []byte

		for _, v := range evaluated {
			b = append(b, []byte(formatValue(v))...)
		}

		return String(string(b)), nil
	}

	isFloat := false

	for _, v := range evaluated {
		if v.Kind == KindFloat {
			isFloat = true
		} else if v.Kind != KindInt {
			return Nil, newEvalError(ErrKindMismatch, span, "+: operand is not numeric: %s", v.Kind)
		}
	}

	if isFloat {
		sum := 0.0

		for _, v := range evaluated {
			f, _ := asFloat64(v)
			sum += f
		}

		return Float(sum), nil
	}

	var sum int64

	for _, v := range evaluated {
		sum += v.Int
	}

	return Int(sum), nil
}

func opSub(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	evaluated, err := evalArgs(ev, env, args)
	if err != nil {
		return Nil, err
	}

	if len(evaluated) == 0 {
		return Nil, newEvalError(ErrArity, span, "-: expects at least one argument")
	}

	if len(evaluated) == 1 {
		return negate(evaluated[0], span)
	}

	acc := evaluated[0]

	for _, v := range evaluated[1:] {
		acc, err = arith2(acc, v, span, "-",
			func(a, b int64) int64 { return a - b },
			func(a, b float64) float64 { return a - b })
		if err != nil {
			return Nil, err
		}
	}

	return acc, nil
}

func negate(v Value, span Span) (Value, error) {
	switch v.Kind {
	case KindInt:
		return Int(-v.Int), nil
	case KindFloat:
		return Float(-v.Float), nil
	default:
		return Nil, newEvalError(ErrKindMismatch, span, "-: operand is not numeric: %s", v.Kind)
	}
}

func opMul(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	evaluated, err := evalArgs(ev, env, args)
	if err != nil {
		return Nil, err
	}

	if len(evaluated) == 0 {
		return Int(1), nil
	}

	acc := evaluated[0]

	for _, v := range evaluated[1:] {
		acc, err = arith2(acc, v, span, "*",
			func(a, b int64) int64 { return a * b },
			func(a, b float64) float64 { return a * b })
		if err != nil {
			return Nil, err
		}
	}

	return acc, nil
}

// opDiv implements the division policy spec.md 9 open question (a)
// settles on: integer/integer divides exactly to integer, else float.
// Division by zero is always an error.
func opDiv(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	evaluated, err := evalArgs(ev, env, args)
	if err != nil {
		return Nil, err
	}

	if len(evaluated) != 2 {
		return Nil, newEvalError(ErrArity, span, "/: expects exactly two arguments")
	}

	a, b := evaluated[0], evaluated[1]

	if a.Kind == KindInt && b.Kind == KindInt {
		if b.Int == 0 {
			return Nil, newEvalError(ErrDivideByZero, span, "/: division by zero")
		}

		if a.Int%b.Int == 0 {
			return Int(a.Int / b.Int), nil
		}

		return Float(float64(a.Int) / float64(b.Int)), nil
	}

	af, aok := asFloat64(a)
	bf, bok := asFloat64(b)

	if !aok || !bok {
		return Nil, newEvalError(ErrKindMismatch, span, "/: operands must be numeric")
	}

	if bf == 0 {
		return Nil, newEvalError(ErrDivideByZero, span, "/: division by zero")
	}

	return Float(af / bf), nil
}

func opExp(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	evaluated, err := evalArgs(ev, env, args)
	if err != nil {
		return Nil, err
	}

	if len(evaluated) != 2 {
		return Nil, newEvalError(ErrArity, span, "**: expects exactly two arguments")
	}

	base, bok := asFloat64(evaluated[0])
	exp, eok := asFloat64(evaluated[1])

	if !bok || !eok {
		return Nil, newEvalError(ErrKindMismatch, span, "**: operands must be numeric")
	}

	if evaluated[0].Kind == KindInt && evaluated[1].Kind == KindInt {
		return Int(int64(math.Pow(base, exp))), nil
	}

	return Float(math.Pow(base, exp)), nil
}

func opFloor(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	v, err := one(ev, env, args, span, "floor")
	if err != nil {
		return Nil, err
	}

	f, ok := asFloat64(v)
	if !ok {
		return Nil, newEvalError(ErrKindMismatch, span, "floor: operand must be numeric")
	}

	return Int(int64(math.Floor(f))), nil
}

func opCeil(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	v, err := one(ev, env, args, span, "ceil")
	if err != nil {
		return Nil, err
	}

	f, ok := asFloat64(v)
	if !ok {
		return Nil, newEvalError(ErrKindMismatch, span, "ceil: operand must be numeric")
	}

	return Int(int64(math.Ceil(f))), nil
}

func opRound(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	v, err := one(ev, env, args, span, "round")
	if err != nil {
		return Nil, err
	}

	f, ok := asFloat64(v)
	if !ok {
		return Nil, newEvalError(ErrKindMismatch, span, "round: operand must be numeric")
	}

	return Int(int64(math.Round(f))), nil
}

func opMod(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	evaluated, err := evalArgs(ev, env, args)
	if err != nil {
		return Nil, err
	}

	if len(evaluated) != 2 {
		return Nil, newEvalError(ErrArity, span, "mod: expects exactly two arguments")
	}

	a, b := evaluated[0], evaluated[1]
	if a.Kind != KindInt || b.Kind != KindInt {
		return Nil, newEvalError(ErrKindMismatch, span, "mod: operands must be int")
	}

	if b.Int == 0 {
		return Nil, newEvalError(ErrDivideByZero, span, "mod: division by zero")
	}

	return Int(a.Int % b.Int), nil
}

func one(ev *Evaluator, env *Environment, args []Value, span Span, name string) (Value, error) {
	if len(args) != 1 {
		return Nil, newEvalError(ErrArity, span, "%s: expects exactly one argument", name)
	}

	return ev.Eval(env, args[0])
}

func arith2(a, b Value, span Span, name string, intOp func(int64, int64) int64, floatOp func(float64, float64) float64) (Value, error) {
	if a.Kind == KindInt && b.Kind == KindInt {
		return Int(intOp(a.Int, b.Int)), nil
	}

	af, aok := asFloat64(a)
	bf, bok := asFloat64(b)

	if !aok || !bok {
		return Nil, newEvalError(ErrKindMismatch, span, "%s: operands must be numeric", name)
	}

	return Float(floatOp(af, bf)), nil
}

// opEq/opNeq compare every evaluated argument for equality against the
// first (core.py op_eq: `all(e == evaluated[0] for e in evaluated)`).
func opEq(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	evaluated, err := evalArgs(ev, env, args)
	if err != nil {
		return Nil, err
	}

	if len(evaluated) < 2 {
		return Nil, newEvalError(ErrArity, span, "=: expects at least two arguments")
	}

	for _, v := range evaluated[1:] {
		if !v.Equal(evaluated[0]) {
			return False, nil
		}
	}

	return True, nil
}

func opNeq(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	v, err := opEq(ev, env, args, span)
	if err != nil {
		return Nil, err
	}

	return Bool(!v.Bool), nil
}

func compare2(ev *Evaluator, env *Environment, args []Value, span Span, name string, cmp func(float64, float64) bool) (Value, error) {
	evaluated, err := evalArgs(ev, env, args)
	if err != nil {
		return Nil, err
	}

	if len(evaluated) != 2 {
		return Nil, newEvalError(ErrArity, span, "%s: expects exactly two arguments", name)
	}

	af, aok := asFloat64(evaluated[0])
	bf, bok := asFloat64(evaluated[1])

	if !aok || !bok {
		return Nil, newEvalError(ErrKindMismatch, span, "%s: operands must be numeric", name)
	}

	return Bool(cmp(af, bf)), nil
}

func opGt(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	return compare2(ev, env, args, span, ">", func(a, b float64) bool { return a > b })
}

func opLt(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	return compare2(ev, env, args, span, "<", func(a, b float64) bool { return a < b })
}

func opGe(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	return compare2(ev, env, args, span, ">=", func(a, b float64) bool { return a >= b })
}

func opLe(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	return compare2(ev, env, args, span, "<=", func(a, b float64) bool { return a <= b })
}

// opAnd/opOr short-circuit on the unevaluated argument tail, each
// argument evaluated only as needed (core.py op_and/op_or).
func opAnd(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) == 0 {
		return Nil, newEvalError(ErrArity, span, "&&: expects at least one argument")
	}

	for _, a := range args {
		v, err := ev.Eval(env, a)
		if err != nil {
			return Nil, err
		}

		if !v.Truthy() {
			return False, nil
		}
	}

	return True, nil
}

func opOr(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) == 0 {
		return Nil, newEvalError(ErrArity, span, "||: expects at least one argument")
	}

	for _, a := range args {
		v, err := ev.Eval(env, a)
		if err != nil {
			return Nil, err
		}

		if v.Truthy() {
			return True, nil
		}
	}

	return False, nil
}

func opNot(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	evaluated, err := evalArgs(ev, env, args)
	if err != nil {
		return Nil, err
	}

	if len(evaluated) != 1 {
		return Nil, newEvalError(ErrArity, span, "!: expects exactly one argument")
	}

	return Bool(!evaluated[0].Truthy()), nil
}
