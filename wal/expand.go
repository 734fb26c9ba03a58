package wal

// expander walks a raw tree recursing into macro call sites, grounded on
// the reference implementation's wal/passes.py `expand`.
type expander struct {
	ev       *Evaluator
	maxDepth int
}

// Expand runs the macro-expansion pass over expr in env, re-entering the
// evaluator to run macro bodies at expansion time. `quote` and
// `quasiquote` forms stop descent without being walked.
func (ev *Evaluator) Expand(env *Environment, expr Value) (Value, error) {
	e := &expander{ev: ev, maxDepth: ev.config.MaxExpansionDepth}

	return e.expand(env, expr, 0)
}

func (e *expander) expand(env *Environment, expr Value, depth int) (Value, error) {
	if depth > e.maxDepth {
		return Nil, ErrMaxDepthExceeded.With(attrName("macro expansion"))
	}

	if expr.Kind != KindList || len(expr.List) == 0 {
		return expr, nil
	}

	head := expr.List[0]

	if head.Kind == KindSymbol {
		switch head.Sym.Name {
		case "quote", "quasiquote":
			return expr, nil

		case "defmacro":
			return e.expandDefmacro(env, expr, depth)
		}

		if mv, err := env.Read(head.Sym.Name); err == nil && mv.Kind == KindMacro {
			result, err := e.applyMacro(env, mv, expr.List[1:])
			if err != nil {
				return Nil, err
			}

			return e.expand(env, result, depth+1)
		}
	}

	out := make([]Value, len(expr.List))

	for i, item := range expr.List {
		v, err := e.expand(env, item, depth)
		if err != nil {
			return Nil, err
		}

		out[i] = v
	}

	next := List(out...)
	next.Span = expr.Span

	return next, nil
}

// expandDefmacro registers the macro into env (so subsequent call sites in
// the same expansion resolve it) and returns the form unchanged so the
// evaluator also binds it at eval time.
func (e *expander) expandDefmacro(env *Environment, expr Value, depth int) (Value, error) {
	if len(expr.List) < 3 {
		return Nil, ErrArity.With(attrName("defmacro"))
	}

	nameVal := expr.List[1]
	if nameVal.Kind != KindSymbol {
		return Nil, ErrKindMismatch.With(attrName("defmacro name"))
	}

	params, variadic, err := parseParamList(expr.List[2])
	if err != nil {
		return Nil, err
	}

	macro := Value{
		Kind: KindMacro,
		Fn: &Closure{
			Name:     nameVal.Sym.Name,
			Params:   params,
			Variadic: variadic,
			Body:     expr.List[3:],
			Env:      env,
			Span:     expr.Span,
		},
		Span: expr.Span,
	}

	if env.IsDefined(nameVal.Sym.Name) != nil {
		_ = env.Write(nameVal.Sym.Name, macro)
	} else {
		_ = env.Define(nameVal.Sym.Name, macro)
	}

	return expr, nil
}

// applyMacro binds the macro's formal parameters to the unevaluated
// argument list and evaluates its body against the host evaluator,
// producing a new expression tree to be (recursively) expanded.
func (e *expander) applyMacro(env *Environment, macro Value, args []Value) (Value, error) {
	if macro.Fn == nil {
		return Nil, ErrNotCallable
	}

	callEnv := macro.Fn.Env.Child()

	if macro.Fn.Variadic {
		if len(macro.Fn.Params) != 1 {
			return Nil, ErrArity.With(attrName(macro.Fn.Name))
		}

		_ = callEnv.Define(macro.Fn.Params[0].Name, List(args...))
	} else {
		if len(args) != len(macro.Fn.Params) {
			return Nil, ErrArity.With(attrName(macro.Fn.Name))
		}

		for i, p := range macro.Fn.Params {
			_ = callEnv.Define(p.Name, args[i])
		}
	}

	var result Value

	for _, form := range macro.Fn.Body {
		v, err := e.ev.Eval(callEnv, form)
		if err != nil {
			return Nil, err
		}

		result = v
	}

	return result, nil
}

// parseParamList interprets a formal parameter list: either a single
// symbol (variadic, bound to the full argument list) or a list of
// symbols (positional).
func parseParamList(v Value) ([]Symbol, bool, error) {
	if v.Kind == KindSymbol {
		return []Symbol{v.Sym}, true, nil
	}

	if v.Kind != KindList {
		return nil, false, ErrKindMismatch.With(attrName("parameter list"))
	}

	params := make([]Symbol, 0, len(v.List))

	for _, p := range v.List {
		if p.Kind != KindSymbol {
			return nil, false, ErrKindMismatch.With(attrName("parameter"))
		}

		params = append(params, p.Sym)
	}

	return params, false, nil
}
