package wal

// resolver walks a tree annotating every Symbol occurrence with the
// number of lexical frames to walk outward at lookup time, grounded on
// wal/passes.py `resolve`. The scope stack mirrors, frame for frame,
// the Environment chain built at eval time: every push here corresponds
// to exactly one Environment.Child() call during evaluation of `let`/`fn`.
type resolver struct {
	scopes []map[string]bool
}

// Resolve runs the static resolution pass over expr, returning a new tree
// with KindSymbol nodes annotated with Steps wherever their binding site
// was found in the lexical scope stack. Unknown symbols (signals, or
// names bound only at runtime) are left unresolved.
func Resolve(expr Value) Value {
	r := &resolver{scopes: []map[string]bool{make(map[string]bool)}}

	return r.resolve(expr)
}

func (r *resolver) push(names ...string) {
	scope := make(map[string]bool, len(names))
	for _, n := range names {
		scope[n] = true
	}

	r.scopes = append(r.scopes, scope)
}

func (r *resolver) pop() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

func (r *resolver) define(name string) {
	r.scopes[len(r.scopes)-1][name] = true
}

// lookup returns the step count for name, or unresolvedSteps if not found
// in any scope frame.
func (r *resolver) lookup(name string) int {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if r.scopes[i][name] {
			return len(r.scopes) - 1 - i
		}
	}

	return unresolvedSteps
}

func (r *resolver) resolve(expr Value) Value {
	switch expr.Kind {
	case KindSymbol:
		steps := r.lookup(expr.Sym.Name)
		if steps == unresolvedSteps {
			return expr
		}

		next := expr
		next.Sym = expr.Sym.WithSteps(steps)

		return next

	case KindList:
		if len(expr.List) == 0 {
			return expr
		}

		head := expr.List[0]

		if head.Kind == KindSymbol {
			switch head.Sym.Name {
			case "quote", "quasiquote":
				return expr

			case "define":
				return r.resolveDefine(expr)

			case "defmacro":
				return r.resolveDefine(expr)

			case "let":
				return r.resolveLet(expr)

			case "fn":
				return r.resolveFn(expr)

			case "alias":
				return expr
			}
		}

		out := make([]Value, len(expr.List))

		for i, item := range expr.List {
			out[i] = r.resolve(item)
		}

		next := List(out...)
		next.Span = expr.Span

		return next

	default:
		return expr
	}
}

// resolveDefine handles both `define` and `defmacro`: the bound name is
// recorded in the *current* scope, and the value/body expressions are
// resolved in the current scope (so a define's own name is not in scope
// for its right-hand side, matching non-recursive `define`; recursive
// definitions work via `fn` capturing the enclosing frame at call time).
func (r *resolver) resolveDefine(expr Value) Value {
	if len(expr.List) < 2 || expr.List[1].Kind != KindSymbol {
		out := make([]Value, len(expr.List))
		for i, item := range expr.List {
			out[i] = r.resolve(item)
		}

		next := List(out...)
		next.Span = expr.Span

		return next
	}

	name := expr.List[1].Sym.Name

	out := make([]Value, len(expr.List))
	out[0] = expr.List[0]
	out[1] = expr.List[1]

	for i := 2; i < len(expr.List); i++ {
		out[i] = r.resolve(expr.List[i])
	}

	r.define(name)

	next := List(out...)
	next.Span = expr.Span

	return next
}

// resolveLet pushes a new scope with the bound names, resolves the body,
// then pops. Binding value expressions are resolved in the *enclosing*
// scope since `let` binds all pairs simultaneously (non-sequential).
func (r *resolver) resolveLet(expr Value) Value {
	if len(expr.List) < 2 || expr.List[1].Kind != KindList {
		return expr
	}

	bindings := expr.List[1].List

	names := make([]string, 0, len(bindings))
	resolvedBindings := make([]Value, len(bindings))

	for i, b := range bindings {
		if b.Kind != KindList || len(b.List) != 2 || b.List[0].Kind != KindSymbol {
			resolvedBindings[i] = b
			continue
		}

		names = append(names, b.List[0].Sym.Name)

		rb := List(b.List[0], r.resolve(b.List[1]))
		rb.Span = b.Span
		resolvedBindings[i] = rb
	}

	r.push(names...)
	defer r.pop()

	bindingsList := List(resolvedBindings...)
	bindingsList.Span = expr.List[1].Span

	out := make([]Value, len(expr.List))
	out[0] = expr.List[0]
	out[1] = bindingsList

	for i := 2; i < len(expr.List); i++ {
		out[i] = r.resolve(expr.List[i])
	}

	next := List(out...)
	next.Span = expr.Span

	return next
}

// resolveFn pushes a new scope with the formal parameter names, resolves
// the body, then pops.
func (r *resolver) resolveFn(expr Value) Value {
	if len(expr.List) < 2 {
		return expr
	}

	params, variadic, err := parseParamList(expr.List[1])
	if err != nil {
		return expr
	}

	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}

	_ = variadic

	r.push(names...)
	defer r.pop()

	out := make([]Value, len(expr.List))
	out[0] = expr.List[0]
	out[1] = expr.List[1]

	for i := 2; i < len(expr.List); i++ {
		out[i] = r.resolve(expr.List[i])
	}

	next := List(out...)
	next.Span = expr.Span

	return next
}
