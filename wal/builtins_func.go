package wal

import (
	"fmt"
	"sync/atomic"
)

func init() {
	registerBuiltin("fn", opFn)
	registerBuiltin("defmacro", opDefmacro)
	registerBuiltin("macroexpand", opMacroexpand)
	registerBuiltin("gensym", opGensym)
	registerBuiltin("quote", opQuote)
	registerBuiltin("quasiquote", opQuasiquote)
	registerBuiltin("unquote", opUnquoteBare)
	registerBuiltin("eval", opEval)
	registerBuiltin("parse", opParse)
}

// opFn builds a closure value capturing env: (fn (params...) body+).
func opFn(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) < 2 {
		return Nil, newEvalError(ErrArity, span, "fn: expects a parameter list and at least one body form")
	}

	params, variadic, err := parseParamList(args[0])
	if err != nil {
		return Nil, newEvalError(ErrKindMismatch, span, "fn: %v", err)
	}

	return Value{
		Kind: KindClosure,
		Fn: &Closure{
			Params:   params,
			Variadic: variadic,
			Body:     args[1:],
			Env:      env,
			Span:     span,
		},
		Span: span,
	}, nil
}

// opDefmacro defines a macro binding at eval time, mirroring
// expand.go's expandDefmacro so a macro introduced dynamically via
// `eval` (spec.md 4.3 "Macro" dispatch case) works the same as one
// expanded statically.
func opDefmacro(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) < 2 {
		return Nil, newEvalError(ErrArity, span, "defmacro: expects a name and a parameter list")
	}

	if args[0].Kind != KindSymbol {
		return Nil, newEvalError(ErrKindMismatch, span, "defmacro: first argument must be a symbol")
	}

	params, variadic, err := parseParamList(args[1])
	if err != nil {
		return Nil, newEvalError(ErrKindMismatch, span, "defmacro: %v", err)
	}

	macro := Value{
		Kind: KindMacro,
		Fn: &Closure{
			Name:     args[0].Sym.Name,
			Params:   params,
			Variadic: variadic,
			Body:     args[2:],
			Env:      env,
			Span:     span,
		},
		Span: span,
	}

	if err := env.Define(args[0].Sym.Name, macro); err != nil {
		_ = env.Write(args[0].Sym.Name, macro)
	}

	return macro, nil
}

// opMacroexpand runs the expand pass on its single (unevaluated)
// argument and returns the resulting tree as data.
func opMacroexpand(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 1 {
		return Nil, newEvalError(ErrArity, span, "macroexpand: expects exactly one argument")
	}

	return ev.Expand(env, args[0])
}

var gensymCounter int64

// opGensym returns a fresh, never-before-seen symbol, optionally prefixed.
func opGensym(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	prefix := "g"

	if len(args) == 1 {
		v, err := ev.Eval(env, args[0])
		if err != nil {
			return Nil, err
		}

		if v.Kind != KindString {
			return Nil, newEvalError(ErrKindMismatch, span, "gensym: argument must be a string")
		}

		prefix = v.Str
	} else if len(args) != 0 {
		return Nil, newEvalError(ErrArity, span, "gensym: expects zero or one argument")
	}

	n := atomic.AddInt64(&gensymCounter, 1)

	return SymbolValue(NewSymbol(fmt.Sprintf("%s#%d", prefix, n))), nil
}

func opQuote(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 1 {
		return Nil, newEvalError(ErrArity, span, "quote: expects exactly one argument")
	}

	return args[0], nil
}

func opQuasiquote(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 1 {
		return Nil, newEvalError(ErrArity, span, "quasiquote: expects exactly one argument")
	}

	return quasiquoteWalk(ev, env, args[0], 1)
}

// opUnquoteBare handles `unquote` encountered outside of any enclosing
// quasiquote (a malformed program): it is not itself a standalone form.
func opUnquoteBare(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	return Nil, newEvalError(ErrNotCallable, span, "unquote: only valid inside a quasiquote template")
}

// opEval evaluates its argument to produce a value, then evaluates that
// value again as code (core.py op_eval): `(eval (quote (+ 1 2)))` => 3.
func opEval(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 1 {
		return Nil, newEvalError(ErrArity, span, "eval: expects exactly one argument")
	}

	evaluated, err := ev.Eval(env, args[0])
	if err != nil {
		return Nil, err
	}

	expanded, err := ev.Expand(env, evaluated)
	if err != nil {
		return Nil, err
	}

	return ev.Eval(env, Resolve(Optimize(expanded)))
}

// opParse reads a string argument into a single expression value,
// without evaluating it (spec.md 6 embedding API analog for text -> AST).
func opParse(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 1 {
		return Nil, newEvalError(ErrArity, span, "parse: expects exactly one argument")
	}

	v, err := ev.Eval(env, args[0])
	if err != nil {
		return Nil, err
	}

	if v.Kind != KindString {
		return Nil, newEvalError(ErrKindMismatch, span, "parse: argument must be a string")
	}

	expr, err := ReadSexpr(v.Str)
	if err != nil {
		return Nil, newEvalError(ErrReadInput, span, "parse: %v", err)
	}

	return expr, nil
}
