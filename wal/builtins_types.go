package wal

import (
	"strconv"
	"strings"
)

func init() {
	registerBuiltin("atom?", opIsAtom)
	registerBuiltin("symbol?", opIsSymbol)
	registerBuiltin("string?", opIsString)
	registerBuiltin("int?", opIsInt)
	registerBuiltin("list?", opIsListType)
	registerBuiltin("defined?", opIsDefined)
	registerBuiltin("convert/bin", opConvertBin)
	registerBuiltin("string->int", opStringToInt)
	registerBuiltin("string->symbol", opStringToSymbol)
	registerBuiltin("symbol->string", opSymbolToString)
	registerBuiltin("int->string", opIntToString)
	registerBuiltin("bits->sint", opBitsToSint)
}

func allMatch(ev *Evaluator, env *Environment, args []Value, pred func(Value) bool) (Value, error) {
	evaluated, err := evalArgs(ev, env, args)
	if err != nil {
		return Nil, err
	}

	for _, v := range evaluated {
		if !pred(v) {
			return False, nil
		}
	}

	return True, nil
}

func opIsAtom(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	return allMatch(ev, env, args, func(v Value) bool {
		switch v.Kind {
		case KindSymbol, KindOperator, KindString, KindInt:
			return true
		default:
			return false
		}
	})
}

func opIsSymbol(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	return allMatch(ev, env, args, func(v Value) bool { return v.Kind == KindSymbol })
}

func opIsString(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	return allMatch(ev, env, args, func(v Value) bool { return v.Kind == KindString })
}

func opIsInt(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	return allMatch(ev, env, args, func(v Value) bool { return v.Kind == KindInt })
}

func opIsListType(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	return allMatch(ev, env, args, func(v Value) bool { return v.Kind == KindList })
}

// opIsDefined reports whether every given symbol resolves somewhere in the
// environment chain, without triggering an undefined-symbol error
// (core.py's Environment.is_defined, exposed as the `defined?` operator).
func opIsDefined(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) == 0 {
		return Nil, newEvalError(ErrArity, span, "defined?: expects at least one symbol argument")
	}

	for _, a := range args {
		if a.Kind != KindSymbol {
			return Nil, newEvalError(ErrKindMismatch, span, "defined?: arguments must be symbols")
		}

		if env.IsDefined(a.Sym.Name) == nil {
			return False, nil
		}
	}

	return True, nil
}

// opConvertBin renders an integer as a binary string, zero-padded to an
// optional width: (convert/bin expr:int [width:int]).
func opConvertBin(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 1 && len(args) != 2 {
		return Nil, newEvalError(ErrArity, span, "convert/bin: expects one or two arguments (convert/bin expr:int width:int)")
	}

	evaluated, err := evalArgs(ev, env, args)
	if err != nil {
		return Nil, err
	}

	if evaluated[0].Kind != KindInt {
		return Nil, newEvalError(ErrKindMismatch, span, "convert/bin: first argument must be an int")
	}

	width := 0
	if len(evaluated) == 2 {
		if evaluated[1].Kind != KindInt {
			return Nil, newEvalError(ErrKindMismatch, span, "convert/bin: second argument must be an int")
		}

		width = int(evaluated[1].Int)
	}

	bits := strconv.FormatInt(evaluated[0].Int, 2)
	neg := false

	if evaluated[0].Int < 0 {
		neg = true
		bits = strconv.FormatInt(-evaluated[0].Int, 2)
	}

	if pad := width - len(bits) - btoi(neg); pad > 0 {
		bits = strings.Repeat("0", pad) + bits
	}

	if neg {
		bits = "-" + bits
	}

	return String(bits), nil
}

func btoi(b bool) int {
	if b {
		return 1
	}

	return 0
}

func opStringToInt(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 1 {
		return Nil, newEvalError(ErrArity, span, "string->int: expects exactly one argument")
	}

	v, err := ev.Eval(env, args[0])
	if err != nil {
		return Nil, err
	}

	switch v.Kind {
	case KindInt:
		return v, nil
	case KindString:
		n, perr := strconv.ParseInt(strings.TrimSpace(v.Str), 0, 64)
		if perr != nil {
			return Nil, newEvalError(ErrKindMismatch, span, "string->int: %v", perr)
		}

		return Int(n), nil
	default:
		return Nil, newEvalError(ErrKindMismatch, span, "string->int: argument must be a string or int")
	}
}

func opStringToSymbol(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 1 {
		return Nil, newEvalError(ErrArity, span, "string->symbol: expects exactly one argument")
	}

	v, err := ev.Eval(env, args[0])
	if err != nil {
		return Nil, err
	}

	if v.Kind != KindString {
		return Nil, newEvalError(ErrKindMismatch, span, "string->symbol: argument must be a string")
	}

	return SymbolValue(NewSymbolAt(v.Str, span)), nil
}

func opSymbolToString(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 1 {
		return Nil, newEvalError(ErrArity, span, "symbol->string: expects exactly one argument")
	}

	v, err := ev.Eval(env, args[0])
	if err != nil {
		return Nil, err
	}

	if v.Kind != KindSymbol {
		return Nil, newEvalError(ErrKindMismatch, span, "symbol->string: argument must evaluate to a symbol")
	}

	return String(v.Sym.Name), nil
}

func opIntToString(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 1 {
		return Nil, newEvalError(ErrArity, span, "int->string: expects exactly one argument")
	}

	v, err := ev.Eval(env, args[0])
	if err != nil {
		return Nil, err
	}

	if v.Kind != KindInt {
		return Nil, newEvalError(ErrKindMismatch, span, "int->string: argument must evaluate to an int")
	}

	return String(strconv.FormatInt(v.Int, 10)), nil
}

// opBitsToSint interprets a string of '0'/'1' characters as a two's
// complement integer, its width taken from the string's own length (no
// precedent in the reference implementation; invented from the operator's
// sole documented example, (bits->sint "1111") => -1).
func opBitsToSint(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 1 {
		return Nil, newEvalError(ErrArity, span, "bits->sint: expects exactly one argument")
	}

	v, err := ev.Eval(env, args[0])
	if err != nil {
		return Nil, err
	}

	if v.Kind != KindString || v.Str == "" {
		return Nil, newEvalError(ErrKindMismatch, span, "bits->sint: argument must be a non-empty bit string")
	}

	width := len(v.Str)

	u, perr := strconv.ParseUint(v.Str, 2, 64)
	if perr != nil {
		return Nil, newEvalError(ErrKindMismatch, span, "bits->sint: %v", perr)
	}

	raw := int64(u)

	if width < 64 && raw&(1<<(width-1)) != 0 {
		raw -= int64(1) << width
	}

	return Int(raw), nil
}
