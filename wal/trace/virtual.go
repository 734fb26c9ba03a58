package trace

// SignalEvaluator evaluates a virtual signal's body expression, cast by
// the caller to whatever AST representation the host evaluator uses.
// Implemented by the wal package (see wal/builtins_trace.go) to avoid an
// import cycle between wal and wal/trace.
type SignalEvaluator interface {
	EvalSignal(body any) (Value, error)
}

// VirtualSignal is a named user expression evaluated on demand and cached
// per timestamp (spec.md 3, 4.4).
type VirtualSignal struct {
	Name string
	Body any

	eval  SignalEvaluator
	cache map[int64]Value
}

// NewVirtualSignal registers body (an opaque host-evaluator expression)
// under name, evaluated lazily via eval.
func NewVirtualSignal(name string, body any, eval SignalEvaluator) *VirtualSignal {
	return &VirtualSignal{
		Name:  name,
		Body:  body,
		eval:  eval,
		cache: make(map[int64]Value),
	}
}

// ValueAt returns the cached value for timestamp ts, computing and caching
// it on a miss.
func (vs *VirtualSignal) ValueAt(ts int64) (Value, error) {
	if v, ok := vs.cache[ts]; ok {
		return v, nil
	}

	v, err := vs.eval.EvalSignal(vs.Body)
	if err != nil {
		return Value{}, err
	}

	vs.cache[ts] = v

	return v, nil
}

// InvalidateUnlessIn drops every cache entry whose timestamp is not in
// the given surviving set, called after [Trace.SetSamplingPoints] narrows the
// reachable timestamps (spec.md 13).
func (vs *VirtualSignal) InvalidateUnlessIn(surviving []int64) {
	keep := make(map[int64]bool, len(surviving))
	for _, ts := range surviving {
		keep[ts] = true
	}

	for ts := range vs.cache {
		if !keep[ts] {
			delete(vs.cache, ts)
		}
	}
}
