package wal

// Optimize runs pure, semantics-preserving rewrites over expr (spec.md
// 4.2): literal folding of if/do/+/*/&&/||. Any failure to fold (a
// malformed form that doesn't actually match the optimizable shape)
// leaves expr unchanged, mirroring the reference implementation's
// try/finally fallback in wal/passes.py `optimize`.
func Optimize(expr Value) Value {
	optimized, ok := tryOptimize(expr)
	if !ok {
		return expr
	}

	return optimized
}

func tryOptimize(expr Value) (result Value, ok bool) {
	defer func() {
		if recover() != nil {
			result, ok = expr, false
		}
	}()

	if expr.Kind != KindList || len(expr.List) == 0 {
		return expr, true
	}

	head := expr.List[0]

	if head.Kind == KindSymbol && (head.Sym.Name == "quote" || head.Sym.Name == "quasiquote") {
		return expr, true
	}

	children := make([]Value, len(expr.List))

	for i, c := range expr.List {
		children[i] = Optimize(c)
	}

	if head.Kind != KindSymbol {
		next := List(children...)
		next.Span = expr.Span

		return next, true
	}

	switch head.Sym.Name {
	case "if":
		if len(children) >= 3 && isLiteral(children[1]) {
			if children[1].Truthy() {
				return children[2], true
			}

			if len(children) >= 4 {
				return children[3], true
			}

			return Nil, true
		}

	case "do":
		if len(children) == 2 {
			return children[1], true
		}

	case "+":
		return foldAdd(children[1:])

	case "*":
		return foldMul(children[1:])

	case "&&":
		return foldAnd(children[1:])

	case "||":
		return foldOr(children[1:])
	}

	next := List(children...)
	next.Span = expr.Span

	return next, true
}

func isLiteral(v Value) bool {
	switch v.Kind {
	case KindInt, KindFloat, KindString, KindBool, KindNil:
		return true
	default:
		return false
	}
}

func allLiteral(vs []Value) bool {
	for _, v := range vs {
		if !isLiteral(v) {
			return false
		}
	}

	return true
}

func foldAdd(args []Value) (Value, bool) {
	if len(args) == 1 {
		return args[0], true
	}

	if !allLiteral(args) || len(args) == 0 {
		return List(append([]Value{SymbolValue(NewSymbol("+"))}, args...)...), true
	}

	allNumeric := true

	for _, a := range args {
		if a.Kind != KindInt && a.Kind != KindFloat {
			allNumeric = false
			break
		}
	}

	if allNumeric {
		isFloat := false

		for _, a := range args {
			if a.Kind == KindFloat {
				isFloat = true
			}
		}

		if isFloat {
			var sum float64
			for _, a := range args {
				sum += asFloat(a)
			}

			return Float(sum), true
		}

		var sum int64
		for _, a := range args {
			sum += a.Int
		}

		return Int(sum), true
	}

	allString := true

	for _, a := range args {
		if a.Kind != KindString {
			allString = false
			break
		}
	}

	if allString {
		s := ""
		for _, a := range args {
			s += a.Str
		}

		return String(s), true
	}

	return List(append([]Value{SymbolValue(NewSymbol("+"))}, args...)...), true
}

func foldMul(args []Value) (Value, bool) {
	for _, a := range args {
		if isLiteral(a) && ((a.Kind == KindInt && a.Int == 0) || (a.Kind == KindFloat && a.Float == 0)) {
			return Int(0), true
		}
	}

	if !allLiteral(args) || len(args) == 0 {
		return List(append([]Value{SymbolValue(NewSymbol("*"))}, args...)...), true
	}

	isFloat := false

	for _, a := range args {
		if a.Kind == KindFloat {
			isFloat = true
		} else if a.Kind != KindInt {
			return List(append([]Value{SymbolValue(NewSymbol("*"))}, args...)...), true
		}
	}

	if isFloat {
		product := 1.0
		for _, a := range args {
			product *= asFloat(a)
		}

		return Float(product), true
	}

	var product int64 = 1
	for _, a := range args {
		product *= a.Int
	}

	return Int(product), true
}

func foldAnd(args []Value) (Value, bool) {
	if len(args) == 1 {
		return args[0], true
	}

	for _, a := range args {
		if isLiteral(a) && !a.Truthy() {
			return False, true
		}
	}

	if allLiteral(args) {
		return True, true
	}

	return List(append([]Value{SymbolValue(NewSymbol("&&"))}, args...)...), true
}

func foldOr(args []Value) (Value, bool) {
	if len(args) == 1 {
		return args[0], true
	}

	for _, a := range args {
		if isLiteral(a) && a.Truthy() {
			return True, true
		}
	}

	if allLiteral(args) {
		return False, true
	}

	return List(append([]Value{SymbolValue(NewSymbol("||"))}, args...)...), true
}

func asFloat(v Value) float64 {
	if v.Kind == KindFloat {
		return v.Float
	}

	return float64(v.Int)
}
