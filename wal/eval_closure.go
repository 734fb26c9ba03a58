package wal

// applyClosure evaluates args in the caller's environment, binds them to
// the closure's formal parameters in a fresh child of the closure's
// captured environment, and evaluates the body sequentially, returning
// the last form's value (spec.md 4.3 "Closure", 3 "lexical closures").
// On error, the closure's name (if any) is pushed onto the backtrace.
func (ev *Evaluator) applyClosure(env *Environment, fn Value, args []Value, span Span) (Value, error) {
	if fn.Fn == nil {
		return Nil, newEvalError(ErrNotCallable, span, "closure has no body")
	}

	callEnv := fn.Fn.Env.Child()

	if fn.Fn.Variadic {
		if len(fn.Fn.Params) != 1 {
			return Nil, newEvalError(ErrArity, span, "%s: variadic closure must declare exactly one parameter", fn.Fn.Name)
		}

		rest := make([]Value, len(args))

		for i, a := range args {
			v, err := ev.Eval(env, a)
			if err != nil {
				return Nil, frameOf(err, fn.Fn.Name)
			}

			rest[i] = v
		}

		_ = callEnv.Define(fn.Fn.Params[0].Name, List(rest...))
	} else {
		if len(args) != len(fn.Fn.Params) {
			return Nil, newEvalError(ErrArity, span, "%s: expected %d argument(s), got %d", fn.Fn.Name, len(fn.Fn.Params), len(args))
		}

		for i, p := range fn.Fn.Params {
			v, err := ev.Eval(env, args[i])
			if err != nil {
				return Nil, frameOf(err, fn.Fn.Name)
			}

			_ = callEnv.Define(p.Name, v)
		}
	}

	var result Value

	for _, form := range fn.Fn.Body {
		v, err := ev.Eval(callEnv, form)
		if err != nil {
			return Nil, frameOf(err, fn.Fn.Name)
		}

		result = v
	}

	return result, nil
}

// frameOf appends name to err's backtrace if err is (or wraps) an
// EvaluationError, otherwise returns err unchanged.
func frameOf(err error, name string) error {
	if name == "" {
		return err
	}

	if ee, ok := err.(*EvaluationError); ok {
		return ee.WithFrame(name)
	}

	return err
}
