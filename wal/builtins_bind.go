package wal

func init() {
	registerBuiltin("define", opDefine)
	registerBuiltin("let", opLet)
	registerBuiltin("set", opSet)
	registerBuiltin("alias", opAlias)
	registerBuiltin("unalias", opUnalias)
}

// opDefine binds a new name in the current frame: (define name expr).
func opDefine(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 2 {
		return Nil, newEvalError(ErrArity, span, "define: expects exactly two arguments (define name expr)")
	}

	if args[0].Kind != KindSymbol {
		return Nil, newEvalError(ErrKindMismatch, span, "define: first argument must be a symbol")
	}

	v, err := ev.Eval(env, args[1])
	if err != nil {
		return Nil, err
	}

	if err := env.Define(args[0].Sym.Name, v); err != nil {
		return Nil, newEvalError(ErrAlreadyDefined, span, "define: %s already defined in this frame", args[0].Sym.Name)
	}

	return v, nil
}

// opLet binds every pair simultaneously in a fresh frame (all RHS
// expressions evaluated in the enclosing environment before any binding
// is visible), then evaluates the body sequentially in that frame,
// returning the last value (spec.md 4.3, 8 properties 7-8).
func opLet(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) < 2 {
		return Nil, newEvalError(ErrArity, span, "let: expects a binding list and at least one body form")
	}

	bindings := args[0]
	if bindings.Kind != KindList {
		return Nil, newEvalError(ErrKindMismatch, span, "let: first argument must be a list of (name expr) pairs")
	}

	names := make([]string, len(bindings.List))
	values := make([]Value, len(bindings.List))

	for i, pair := range bindings.List {
		if pair.Kind != KindList || len(pair.List) != 2 || pair.List[0].Kind != KindSymbol {
			return Nil, newEvalError(ErrKindMismatch, span, "let: each binding must be (name:symbol expr)")
		}

		v, err := ev.Eval(env, pair.List[1])
		if err != nil {
			return Nil, err
		}

		names[i] = pair.List[0].Sym.Name
		values[i] = v
	}

	child := env.Child()

	for i, name := range names {
		if err := child.Define(name, values[i]); err != nil {
			return Nil, newEvalError(ErrAlreadyDefined, span, "let: %s already bound", name)
		}
	}

	var result Value

	for _, form := range args[1:] {
		v, err := ev.Eval(child, form)
		if err != nil {
			return Nil, err
		}

		result = v
	}

	return result, nil
}

// opSet mutates the nearest existing binding for each (name expr) pair,
// evaluated left to right; writing to an unbound name is an error.
func opSet(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) == 0 {
		return Nil, newEvalError(ErrArity, span, "set: expects at least one (name expr) pair")
	}

	var result Value

	for _, pair := range args {
		if pair.Kind != KindList || len(pair.List) != 2 || pair.List[0].Kind != KindSymbol {
			return Nil, newEvalError(ErrKindMismatch, span, "set: arguments must be (name:symbol expr) pairs")
		}

		name := pair.List[0].Sym.Name

		v, err := ev.Eval(env, pair.List[1])
		if err != nil {
			return Nil, err
		}

		if err := env.Write(name, v); err != nil {
			return Nil, newEvalError(ErrWriteUnbound, span, "set: %s is unbound", name)
		}

		result = v
	}

	return result, nil
}

// opAlias registers name rewrites applied at symbol-lookup time only
// (core.py op_alias): (alias a b c d ...) makes `a` read as `b`, `c` as
// `d`, and so on.
func opAlias(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) == 0 || len(args)%2 != 0 {
		return Nil, newEvalError(ErrArity, span, "alias: expects an even, non-zero number of symbol arguments")
	}

	for i := 0; i < len(args); i += 2 {
		if args[i].Kind != KindSymbol || args[i+1].Kind != KindSymbol {
			return Nil, newEvalError(ErrKindMismatch, span, "alias: arguments must be symbols")
		}

		ev.aliases[args[i].Sym.Name] = args[i+1].Sym.Name
	}

	return Nil, nil
}

func opUnalias(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 1 || args[0].Kind != KindSymbol {
		return Nil, newEvalError(ErrArity, span, "unalias: expects exactly one symbol argument")
	}

	if _, ok := ev.aliases[args[0].Sym.Name]; !ok {
		return Nil, newEvalError(ErrUndefinedSymbol, span, "unalias: no alias %s known", args[0].Sym.Name)
	}

	delete(ev.aliases, args[0].Sym.Name)

	return Nil, nil
}
