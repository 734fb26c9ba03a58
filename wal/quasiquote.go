package wal

// quasiquoteWalk implements the quasiquote semantics of spec.md 4.3: walk
// the template; `(unquote expr)` evaluates expr and splices the single
// result in place; `(unquote-splice expr)` evaluates expr to a list and
// splices its elements in place; everything else is returned literally.
// Nested quasiquotes increase depth so unquote only fires at depth 1.
func quasiquoteWalk(ev *Evaluator, env *Environment, expr Value, depth int) (Value, error) {
	if expr.Kind != KindList || len(expr.List) == 0 {
		return expr, nil
	}

	head := expr.List[0]

	if head.Kind == KindSymbol {
		switch head.Sym.Name {
		case "unquote":
			if len(expr.List) != 2 {
				return Nil, newEvalError(ErrArity, expr.Span, "unquote: expects exactly one argument")
			}

			if depth == 1 {
				return ev.Eval(env, expr.List[1])
			}

			inner, err := quasiquoteWalk(ev, env, expr.List[1], depth-1)
			if err != nil {
				return Nil, err
			}

			return List(head, inner), nil

		case "quasiquote":
			if len(expr.List) != 2 {
				return Nil, newEvalError(ErrArity, expr.Span, "quasiquote: expects exactly one argument")
			}

			inner, err := quasiquoteWalk(ev, env, expr.List[1], depth+1)
			if err != nil {
				return Nil, err
			}

			return List(head, inner), nil
		}
	}

	var out []Value

	for _, item := range expr.List {
		if item.Kind == KindList && len(item.List) == 2 && item.List[0].Kind == KindSymbol &&
			item.List[0].Sym.Name == "unquote-splice" && depth == 1 {
			spliced, err := ev.Eval(env, item.List[1])
			if err != nil {
				return Nil, err
			}

			if spliced.Kind != KindList {
				return Nil, newEvalError(ErrKindMismatch, item.Span, "unquote-splice: argument must evaluate to a list")
			}

			out = append(out, spliced.List...)

			continue
		}

		v, err := quasiquoteWalk(ev, env, item, depth)
		if err != nil {
			return Nil, err
		}

		out = append(out, v)
	}

	next := List(out...)
	next.Span = expr.Span

	return next, nil
}
