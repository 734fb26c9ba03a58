package wal

import (
	"github.com/ardnew/wal/wal/trace"
	"github.com/spf13/afero"
)

// Host is the embedding surface external collaborators consume (spec.md
// 6): load/unload/step traces, eval or run expressions with named
// arguments bound for the call's duration, register host callbacks as
// WAL operators, and extend the require/eval-file search path. Grounded
// on core.py's Wal class, generalized from its single implicit Evaluator
// into an explicit struct so a host can run more than one.
type Host struct {
	ev *Evaluator
}

// NewHost constructs a Host with a fresh Evaluator, applying opts the
// same way [NewEvaluator] does.
func NewHost(opts ...Option) *Host {
	return &Host{ev: NewEvaluator(opts...)}
}

// Evaluator returns the underlying evaluator, for callers that need
// lower-level access than the Host methods expose.
func (h *Host) Evaluator() *Evaluator { return h.ev }

// Trace returns the trace container backing this host.
func (h *Host) Trace() *trace.Container { return h.ev.Traces }

// Load opens file and adds it to the trace container under tid,
// dispatching by extension to the VCD/FST/CSV backend (spec.md 6 load).
// If tid is empty, an id is generated automatically.
func (h *Host) Load(file, tid string) (string, error) {
	return h.ev.Traces.Load(file, tid)
}

// Unload removes the trace with id tid.
func (h *Host) Unload(tid string) {
	h.ev.Traces.Unload(tid)
}

// Step advances tid (or, if tid is empty, every loaded trace) by delta,
// returning the ids of any traces that could not step (spec.md 6 step).
func (h *Host) Step(delta int, tid string) []string {
	return h.ev.Traces.Step(delta, tid)
}

// bindArgs defines every name/value pair in env as top-level bindings,
// mirroring core.py's eval/run feeding **args into self.context for the
// duration of the call (spec.md 6: "Named arguments become top-level
// bindings for the duration of the call").
func bindArgs(env *Environment, args map[string]Value) error {
	for name, v := range args {
		if err := env.Define(name, v); err != nil {
			return err
		}
	}

	return nil
}

// Eval evaluates sexpr (already parsed) in a fresh child of the root
// environment, with args bound as top-level names for the call's
// duration (spec.md 6 eval). Using a child frame rather than the root
// itself means a call's bound args never leak into later calls, without
// needing core.py's explicit del-after-eval bookkeeping.
func (h *Host) Eval(sexpr Value, args map[string]Value) (Value, error) {
	env := h.ev.Root.Child()

	if err := bindArgs(env, args); err != nil {
		return Nil, err
	}

	v, err := h.ev.Eval(env, sexpr)
	if err != nil {
		h.ev.logEvalError("eval", err)
	}

	return v, err
}

// EvalString parses text as a single expression, then evaluates it the
// same way [Host.Eval] does (spec.md 6 eval-string).
func (h *Host) EvalString(text string, args map[string]Value) (Value, error) {
	sexpr, err := ReadSexpr(text)
	if err != nil {
		return Nil, err
	}

	return h.Eval(sexpr, args)
}

// Run resets the evaluator to a clean slate, then evaluates every form
// in sexprs in order against the root environment, binding args for the
// whole run (spec.md 6 run: "resets state first"). Returns the last
// form's value.
func (h *Host) Run(sexprs []Value, args map[string]Value) (Value, error) {
	h.ev.Reset()

	env := h.ev.Root

	if err := bindArgs(env, args); err != nil {
		return Nil, err
	}

	var result Value

	for _, expr := range sexprs {
		v, err := h.ev.Eval(env, expr)
		if err != nil {
			h.ev.logEvalError("run", err)

			return Nil, err
		}

		result = v
	}

	return result, nil
}

// RunFile reads, compiles, and runs every form in the file at path
// (spec.md 6 run-file), resetting state first the same way [Host.Run]
// does.
func (h *Host) RunFile(path string, args map[string]Value) (Value, error) {
	data, err := afero.ReadFile(h.ev.Traces.Fs(), path)
	if err != nil {
		return Nil, ErrReadInput.Wrap(err)
	}

	sexprs, err := h.ev.Compile(string(data))
	if err != nil {
		return Nil, err
	}

	return h.Run(sexprs, args)
}

// RegisterOperator installs a host-native callback as a WAL operator
// named name, invoked with the evaluator and already-evaluated arguments
// (spec.md 6 register-operator). Unlike a core builtinFunc, a registered
// operator cannot see unevaluated argument expressions: it is bound as
// an ordinary top-level value of kind KindUserOp, so `(name arg...)`
// evaluates every arg before the callback runs — the same contract
// core.py exposes to host-registered Operator callbacks.
func (h *Host) RegisterOperator(name string, fn func(ev *Evaluator, args []Value) (Value, error)) error {
	return h.ev.Root.Define(name, Value{
		Kind: KindUserOp,
		Op:   name,
		UserFn: &UserOp{
			Name:     name,
			Callback: fn,
		},
	})
}

// AppendLibraryPath adds dir to the end of the search path `require` and
// `eval-file` consult (spec.md 6 append-library-path).
func (h *Host) AppendLibraryPath(dir string) {
	h.ev.config.LibraryPaths = append(h.ev.config.LibraryPaths, dir)
}

// Reset returns the evaluator to a clean slate (spec.md 7: "The host may
// call reset to return to a clean slate").
func (h *Host) Reset() {
	h.ev.Reset()
}

// Decode reads a compiled-form (.wo) file written by [Host.Encode] and
// returns its expressions (spec.md 6 "Compiled form"). Grounded on
// core.py Wal.decode, which unpickles a post-expansion, post-optimization
// AST; this port uses encoding/gob instead of pickle, since the dump is
// declared opaque to every consumer but this package's own reader/writer
// pair.
func (h *Host) Decode(path string) ([]Value, error) {
	return decodeCompiled(h.ev.Traces.Fs(), path)
}

// Encode compiles source and writes the resulting post-expansion,
// post-optimization form tree to path as a .wo file.
func (h *Host) Encode(source, path string) error {
	exprs, err := h.ev.Compile(source)
	if err != nil {
		return err
	}

	return encodeCompiled(h.ev.Traces.Fs(), path, exprs)
}
