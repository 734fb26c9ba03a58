package wal

import (
	"fmt"

	"github.com/ardnew/wal/wal/trace"
)

func init() {
	registerBuiltin("load", opLoad)
	registerBuiltin("unload", opUnload)
	registerBuiltin("step", opStep)
	registerBuiltin("find", opFind)
	registerBuiltin("find/g", opFindG)
	registerBuiltin("whenever", opWhenever)
	registerBuiltin("fold/signal", opFoldSignal)
	registerBuiltin("reval", opReval)
	registerBuiltin("signal-width", opSignalWidth)
	registerBuiltin("sample-at", opSampleAt)
	registerBuiltin("slice", opSlice)
	registerBuiltin("defsig", opDefsig)
	registerBuiltin("new-trace", opNewTrace)
	registerBuiltin("dump-trace", opDumpTrace)
}

// EvalSignal implements trace.SignalEvaluator, the callback a VirtualSignal
// uses to compute its value on demand (spec.md 4.4, wal/trace/virtual.py).
// body is the resolved WAL expression stored by opDefsig.
func (ev *Evaluator) EvalSignal(body any) (trace.Value, error) {
	expr, ok := body.(Value)
	if !ok {
		return trace.Value{}, fmt.Errorf("virtual signal: invalid body")
	}

	v, err := ev.Eval(ev.Root, expr)
	if err != nil {
		return trace.Value{}, err
	}

	return toTraceValue(v), nil
}

func toTraceValue(v Value) trace.Value {
	switch v.Kind {
	case KindInt:
		return trace.IntValue(v.Int)
	case KindBool:
		if v.Bool {
			return trace.IntValue(1)
		}

		return trace.IntValue(0)
	case KindList:
		items := make([]string, len(v.List))
		for i, e := range v.List {
			items[i] = formatValue(e)
		}

		return trace.ListValue(items)
	default:
		return trace.StringValue(formatValue(v))
	}
}

func symbolOrStringName(v Value) (string, bool) {
	switch v.Kind {
	case KindSymbol:
		return v.Sym.Name, true
	case KindString:
		return v.Str, true
	default:
		return "", false
	}
}

func opLoad(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 2 {
		return Nil, newEvalError(ErrArity, span, "load: expects two arguments (load filename:str tid:str|symbol)")
	}

	filename, err := ev.Eval(env, args[0])
	if err != nil {
		return Nil, err
	}

	if filename.Kind != KindString {
		return Nil, newEvalError(ErrKindMismatch, span, "load: first argument must be a string")
	}

	tid, ok := symbolOrStringName(args[1])
	if !ok {
		return Nil, newEvalError(ErrKindMismatch, span, "load: second argument must be a string or symbol")
	}

	got, err := ev.Traces.Load(filename.Str, tid)
	if err != nil {
		return Nil, newEvalError(ErrKindMismatch, span, "load: %v", err)
	}

	return String(got), nil
}

func opUnload(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 1 {
		return Nil, newEvalError(ErrArity, span, "unload: expects exactly one argument (unload tid:str|symbol)")
	}

	tid, ok := symbolOrStringName(args[0])
	if !ok {
		return Nil, newEvalError(ErrKindMismatch, span, "unload: argument must be a string or symbol")
	}

	ev.Traces.Unload(tid)

	return Nil, nil
}

// opStep steps one, several, or all loaded traces, reporting true only if
// every stepped trace successfully advanced (core.py op_step).
func opStep(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if ev.Traces.Len() == 0 {
		return Nil, newEvalError(ErrKindMismatch, span, "step: no traces loaded")
	}

	if len(args) == 0 {
		ended := ev.Traces.Step(1, "")

		return Bool(len(ended) == 0), nil
	}

	if len(args) == 1 {
		v, err := ev.Eval(env, args[0])
		if err != nil {
			return Nil, err
		}

		if v.Kind == KindInt {
			ended := ev.Traces.Step(int(v.Int), "")

			return Bool(len(ended) == 0), nil
		}

		tid, ok := symbolOrStringName(args[0])
		if !ok {
			return Nil, newEvalError(ErrKindMismatch, span, "step: arguments must be strings or symbols")
		}

		ended := ev.Traces.Step(1, tid)

		return Bool(len(ended) == 0), nil
	}

	last, err := ev.Eval(env, args[len(args)-1])
	if err != nil {
		return Nil, err
	}

	if last.Kind != KindInt {
		return Nil, newEvalError(ErrKindMismatch, span, "step: last argument must be an int")
	}

	var ended []string

	for _, a := range args[:len(args)-1] {
		tid, ok := symbolOrStringName(a)
		if !ok {
			return Nil, newEvalError(ErrKindMismatch, span, "step: arguments must be strings or symbols")
		}

		ended = append(ended, ev.Traces.Step(int(last.Int), tid)...)
	}

	return Bool(len(ended) == 0), nil
}

// opFind steps every loaded trace independently from its start, collecting
// the sorted, deduplicated set of indices at which the condition holds
// (core.py op_find).
func opFind(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 1 {
		return Nil, newEvalError(ErrArity, span, "find: expects exactly one argument (find condition)")
	}

	ev.Traces.StoreIndices()
	defer ev.Traces.RestoreIndices()

	seen := map[int]bool{}
	var out []int

	for _, tid := range ev.Traces.TraceIDs() {
		tr := ev.Traces.Trace(tid)
		if tr == nil {
			continue
		}

		tr.Set(0)

		for {
			cond, err := ev.Eval(env, args[0])
			if err != nil {
				return Nil, err
			}

			if cond.Truthy() {
				if !seen[tr.Index()] {
					seen[tr.Index()] = true

					out = append(out, tr.Index())
				}
			}

			if !tr.Step(1) {
				break
			}
		}
	}

	sortInts(out)

	items := make([]Value, len(out))
	for i, n := range out {
		items[i] = Int(int64(n))
	}

	return List(items...), nil
}

func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// opFindG steps every loaded trace in lockstep, collecting the index map
// (or bare index, if a single trace) at which the condition holds
// (core.py op_find_g).
func opFindG(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 1 {
		return Nil, newEvalError(ErrArity, span, "find/g: expects exactly one argument (find/g condition)")
	}

	ev.Traces.StoreIndices()
	defer ev.Traces.RestoreIndices()

	var out []Value

	for {
		cond, err := ev.Eval(env, args[0])
		if err != nil {
			return Nil, err
		}

		if cond.Truthy() {
			indices := ev.Traces.Indices()

			if len(indices) > 1 {
				m := NewMapping()
				for tid, idx := range indices {
					m.Set(tid, Int(int64(idx)))
				}

				out = append(out, Value{Kind: KindMapping, Map: m})
			} else {
				for _, idx := range indices {
					out = append(out, Int(int64(idx)))
				}
			}
		}

		if ended := ev.Traces.Step(1, ""); len(ended) > 0 {
			break
		}
	}

	return List(out...), nil
}

// opWhenever steps every loaded trace in lockstep, evaluating body whenever
// condition holds, and returns the last such body value (core.py op_whenever).
func opWhenever(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) < 2 {
		return Nil, newEvalError(ErrArity, span, "whenever: expects a condition and at least one body form")
	}

	ev.Traces.StoreIndices()
	defer ev.Traces.RestoreIndices()

	var result Value

	for {
		cond, err := ev.Eval(env, args[0])
		if err != nil {
			return Nil, err
		}

		if cond.Truthy() {
			v, err := evalSequence(ev, env, args[1:])
			if err != nil {
				return Nil, err
			}

			result = v
		}

		if ended := ev.Traces.Step(1, ""); len(ended) > 0 {
			break
		}
	}

	return result, nil
}

// opFoldSignal steps every trace in lockstep, folding f over the sampled
// values of signal until stop holds or traces end (core.py op_fold_signal).
func opFoldSignal(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 4 {
		return Nil, newEvalError(ErrArity, span, "fold/signal: expects 4 arguments (fold/signal f acc stop signal)")
	}

	acc, err := ev.Eval(env, args[1])
	if err != nil {
		return Nil, err
	}

	stop, signal := args[2], args[3]

	ev.Traces.StoreIndices()
	defer ev.Traces.RestoreIndices()

	for {
		s, err := ev.Eval(env, stop)
		if err != nil {
			return Nil, err
		}

		if s.Truthy() {
			break
		}

		sample, err := ev.Eval(env, signal)
		if err != nil {
			return Nil, err
		}

		acc, err = callOnElement(ev, env, args[0], []Value{acc, sample}, span)
		if err != nil {
			return Nil, err
		}

		if ended := ev.Traces.Step(1, ""); len(ended) > 0 {
			break
		}
	}

	return acc, nil
}

// opReval steps every trace by offset, evaluates expr, then steps back,
// returning false instead of stepping if any trace would go out of range
// (core.py op_rel_eval, the desugared form of the reader's `name@time`).
func opReval(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 2 {
		return Nil, newEvalError(ErrArity, span, "reval: expects two arguments (reval expr offset)")
	}

	offsetVal, err := ev.Eval(env, args[1])
	if err != nil {
		return Nil, err
	}

	if offsetVal.Kind != KindInt {
		return Nil, newEvalError(ErrKindMismatch, span, "reval: second argument must evaluate to int")
	}

	offset := int(offsetVal.Int)

	for _, tid := range ev.Traces.TraceIDs() {
		tr := ev.Traces.Trace(tid)
		if tr == nil {
			continue
		}

		next := tr.Index() + offset
		if next < 0 || next > tr.MaxIndex() {
			return False, nil
		}
	}

	ev.Traces.StoreIndices()
	defer ev.Traces.RestoreIndices()

	ev.Traces.Step(offset, "")

	return ev.Eval(env, args[0])
}

func opSignalWidth(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 1 {
		return Nil, newEvalError(ErrArity, span, "signal-width: expects exactly one argument")
	}

	name, ok := symbolOrStringName(args[0])
	if !ok {
		v, err := ev.Eval(env, args[0])
		if err != nil {
			return Nil, err
		}

		name, ok = symbolOrStringName(v)
		if !ok {
			return Nil, newEvalError(ErrKindMismatch, span, "signal-width: argument must name a signal")
		}
	}

	w, err := ev.Traces.SignalWidth(name)
	if err != nil {
		return Nil, newEvalError(ErrUndefinedSymbol, span, "signal-width: %v", err)
	}

	return Int(int64(w)), nil
}

// opSampleAt restricts every loaded trace to the given subset of absolute
// indices (spec.md 4.4).
func opSampleAt(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 1 {
		return Nil, newEvalError(ErrArity, span, "sample-at: expects exactly one argument (sample-at indices:list)")
	}

	v, err := ev.Eval(env, args[0])
	if err != nil {
		return Nil, err
	}

	if v.Kind != KindList {
		return Nil, newEvalError(ErrKindMismatch, span, "sample-at: argument must be a list of ints")
	}

	indices := make([]int, len(v.List))

	for i, e := range v.List {
		if e.Kind != KindInt {
			return Nil, newEvalError(ErrKindMismatch, span, "sample-at: indices must be ints")
		}

		indices[i] = int(e.Int)
	}

	for _, tid := range ev.Traces.TraceIDs() {
		if tr := ev.Traces.Trace(tid); tr != nil {
			tr.SetSamplingPoints(indices)
		}
	}

	return Nil, nil
}

// opSlice implements bit-field extraction on ints and sub-ranging on
// strings/lists: (slice x index) or (slice x upper lower) (core.py op_slice).
func opSlice(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) < 2 || len(args) > 3 {
		return Nil, newEvalError(ErrArity, span, "slice: two or three arguments required (slice x high:int [low:int])")
	}

	evaluated, err := evalArgs(ev, env, args)
	if err != nil {
		return Nil, err
	}

	switch evaluated[0].Kind {
	case KindInt:
		if len(evaluated) == 2 {
			if evaluated[1].Kind != KindInt {
				return Nil, newEvalError(ErrKindMismatch, span, "slice: index must evaluate to int")
			}

			index := evaluated[1].Int

			return Int((evaluated[0].Int & (1 << uint(index))) >> uint(index)), nil
		}

		if evaluated[1].Kind != KindInt || evaluated[2].Kind != KindInt {
			return Nil, newEvalError(ErrKindMismatch, span, "slice: bounds must evaluate to int")
		}

		upper, lower := evaluated[1].Int, evaluated[2].Int
		mask := (int64(1)<<uint(upper-lower+1) - 1) << uint(lower)

		return Int((evaluated[0].Int & mask) >> uint(lower)), nil

	case KindString:
		return sliceIndexable(evaluated, span, len(evaluated[0].Str), func(lo, hi int) Value {
			if len(evaluated) == 2 {
				return String(string(evaluated[0].Str[lo]))
			}

			return String(evaluated[0].Str[lo:hi])
		})

	case KindList:
		return sliceIndexable(evaluated, span, len(evaluated[0].List), func(lo, hi int) Value {
			if len(evaluated) == 2 {
				return evaluated[0].List[lo]
			}

			return List(evaluated[0].List[lo:hi]...)
		})

	default:
		return Nil, newEvalError(ErrKindMismatch, span, "slice: first argument must evaluate to a number, string, or list")
	}
}

func sliceIndexable(evaluated []Value, span Span, n int, extract func(lo, hi int) Value) (Value, error) {
	if len(evaluated) == 2 {
		if evaluated[1].Kind != KindInt {
			return Nil, newEvalError(ErrKindMismatch, span, "slice: index must evaluate to int")
		}

		idx := int(evaluated[1].Int)
		if idx < 0 || idx >= n {
			return Nil, newEvalError(ErrBadIndex, span, "slice: index %d out of range", idx)
		}

		return extract(idx, 0), nil
	}

	if evaluated[1].Kind != KindInt || evaluated[2].Kind != KindInt {
		return Nil, newEvalError(ErrKindMismatch, span, "slice: bounds must evaluate to int")
	}

	upper, lower := int(evaluated[1].Int), int(evaluated[2].Int)
	if lower < 0 || upper > n || lower > upper {
		return Nil, newEvalError(ErrBadIndex, span, "slice: range [%d:%d] out of bounds", upper, lower)
	}

	return extract(lower, upper), nil
}

// opDefsig registers a computed signal under the current scope/group
// prefix, rewriting any nested resolve-scope/resolve-group forms into
// plain symbols qualified against that prefix at registration time
// (core.py op_defsig).
func opDefsig(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) < 2 {
		return Nil, newEvalError(ErrArity, span, "defsig: expects at least two arguments (defsig name body+)")
	}

	if args[0].Kind != KindSymbol {
		return Nil, newEvalError(ErrKindMismatch, span, "defsig: first argument must be a symbol")
	}

	scope := ev.scope
	scopeSep := ""
	if scope != "" {
		scopeSep = "."
	}

	group := ev.group
	if group != "" {
		scope = ""
		scopeSep = ""
	}

	name := scope + scopeSep + group + args[0].Sym.Name

	body := List(append([]Value{SymbolValue(NewSymbol("do"))}, resolveDefsigBody(args[1:], scope, group)...)...)

	if err := ev.Traces.AddVirtualSignal(name, body); err != nil {
		return Nil, newEvalError(ErrKindMismatch, span, "defsig: %v", err)
	}

	return Nil, nil
}

// resolveDefsigBody rewrites (resolve-scope x)/(resolve-group x) forms
// found anywhere in body into plain symbols qualified by scope/group, so a
// virtual signal's expression keeps meaning the same thing no matter what
// scope is active when it is later evaluated.
func resolveDefsigBody(body []Value, scope, group string) []Value {
	out := make([]Value, len(body))

	for i, expr := range body {
		out[i] = resolveDefsigExpr(expr, scope, group)
	}

	return out
}

func resolveDefsigExpr(expr Value, scope, group string) Value {
	if expr.Kind != KindList {
		return expr
	}

	if len(expr.List) == 2 && expr.List[0].Kind == KindSymbol && expr.List[1].Kind == KindSymbol {
		switch expr.List[0].Sym.Name {
		case "resolve-scope":
			return SymbolValue(NewSymbol(scope + expr.List[1].Sym.Name))
		case "resolve-group":
			return SymbolValue(NewSymbol(group + expr.List[1].Sym.Name))
		}
	}

	rewritten := make([]Value, len(expr.List))
	for i, e := range expr.List {
		rewritten[i] = resolveDefsigExpr(e, scope, group)
	}

	next := List(rewritten...)
	next.Span = expr.Span

	return next
}

// opNewTrace creates a purely computed trace with maxIndex+1 samples,
// written into via defsig/seta-style expressions (core.py op_new_trace).
func opNewTrace(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 2 {
		return Nil, newEvalError(ErrArity, span, "new-trace: expects two arguments (new-trace id:symbol max-index:int)")
	}

	if args[0].Kind != KindSymbol {
		return Nil, newEvalError(ErrKindMismatch, span, "new-trace: first argument must be a symbol")
	}

	maxIndex, err := ev.Eval(env, args[1])
	if err != nil {
		return Nil, err
	}

	if maxIndex.Kind != KindInt {
		return Nil, newEvalError(ErrKindMismatch, span, "new-trace: second argument must be an int")
	}

	tr := trace.NewVirtualTrace(args[0].Sym.Name, int(maxIndex.Int), ev.Traces)

	if err := ev.Traces.AddTrace(args[0].Sym.Name, tr); err != nil {
		return Nil, newEvalError(ErrKindMismatch, span, "new-trace: %v", err)
	}

	return Nil, nil
}

func opDumpTrace(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 1 || args[0].Kind != KindSymbol {
		return Nil, newEvalError(ErrArity, span, "dump-trace: expects exactly one symbol argument")
	}

	tr := ev.Traces.Trace(args[0].Sym.Name)
	if tr == nil {
		return Nil, newEvalError(ErrUndefinedSymbol, span, "dump-trace: unknown trace %s", args[0].Sym.Name)
	}

	if err := trace.DumpVCD(ev.Output(), tr); err != nil {
		return Nil, newEvalError(ErrKindMismatch, span, "dump-trace: %v", err)
	}

	return Nil, nil
}
