package wal

func init() {
	registerBuiltin("if", opIf)
	registerBuiltin("case", opCase)
	registerBuiltin("do", opDo)
	registerBuiltin("while", opWhile)
}

func opIf(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 2 && len(args) != 3 {
		return Nil, newEvalError(ErrArity, span, "if: expects a condition, a then-clause, and an optional else-clause")
	}

	cond, err := ev.Eval(env, args[0])
	if err != nil {
		return Nil, err
	}

	if cond.Truthy() {
		return ev.Eval(env, args[1])
	}

	if len(args) == 3 {
		return ev.Eval(env, args[2])
	}

	return Nil, nil
}

// opCase evaluates the keyform once, then compares it by literal equality
// against each clause's head, `default` matching unconditionally.
// Duplicate keys (compared structurally, spec.md 9 open question (b)) are
// a duplicate-case-key error raised at evaluation time, not read time
// (spec.md 13: core.py evaluates clauses lazily).
func opCase(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) < 1 {
		return Nil, newEvalError(ErrArity, span, "case: expects a keyform and at least zero clauses")
	}

	keyform, err := ev.Eval(env, args[0])
	if err != nil {
		return Nil, err
	}

	clauses := args[1:]

	for i, clause := range clauses {
		if clause.Kind != KindList || len(clause.List) < 2 {
			return Nil, newEvalError(ErrKindMismatch, span, "case: each clause must be (key consequent+)")
		}

		for j := 0; j < i; j++ {
			if sameClauseKey(clauses[j].List[0], clause.List[0]) {
				return Nil, newEvalError(ErrDuplicateCase, span, "case: duplicate key %s", Format(clause.List[0]))
			}
		}
	}

	for _, clause := range clauses {
		key := clause.List[0]

		if key.Kind == KindSymbol && key.Sym.Name == "default" {
			return evalSequence(ev, env, clause.List[1:])
		}

		if key.Equal(keyform) {
			return evalSequence(ev, env, clause.List[1:])
		}
	}

	return Nil, nil
}

// sameClauseKey compares two raw (unevaluated) clause-head expressions
// structurally, the resolution spec.md 9 open question (b) settles on
// (vs. the reference implementation's string-ified comparison, which
// collides for distinct values that render alike).
func sameClauseKey(a, b Value) bool {
	return a.Equal(b)
}

func evalSequence(ev *Evaluator, env *Environment, forms []Value) (Value, error) {
	var result Value

	for _, form := range forms {
		v, err := ev.Eval(env, form)
		if err != nil {
			return Nil, err
		}

		result = v
	}

	return result, nil
}

func opDo(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) == 0 {
		return Nil, newEvalError(ErrArity, span, "do: expects at least one argument")
	}

	return evalSequence(ev, env, args)
}

func opWhile(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) < 2 {
		return Nil, newEvalError(ErrArity, span, "while: expects a condition and at least one body form")
	}

	cond := args[0]
	body := args[1:]

	var result Value

	for {
		c, err := ev.Eval(env, cond)
		if err != nil {
			return Nil, err
		}

		if !c.Truthy() {
			break
		}

		v, err := evalSequence(ev, env, body)
		if err != nil {
			return Nil, err
		}

		result = v
	}

	return result, nil
}
