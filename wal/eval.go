package wal

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/ardnew/wal/log"
	"github.com/ardnew/wal/wal/trace"
)

// builtinFunc implements a core built-in operator. It receives the
// unevaluated argument tail directly from the call site's AST list, and
// decides for itself which arguments (if any) to evaluate — this is what
// lets `define`/`let`/`if`/`quote` coexist with `+`/`list` under one
// dispatch mechanism (spec.md 4.3: "Built-in operator: call its native
// implementation with (evaluator, tail)").
type builtinFunc func(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error)

// builtins is the core operator dispatch table, populated by init()
// functions across builtins_*.go.
var builtins = map[string]builtinFunc{}

func registerBuiltin(name string, fn builtinFunc) {
	builtins[name] = fn
}

// Evaluator is the tree-walking WAL evaluator: the environment chain, the
// trace container, scope/group/alias state, and the core dispatch loop
// all live here. Single-threaded and synchronous (spec.md 5).
type Evaluator struct {
	Root   *Environment
	Traces *trace.Container

	aliases    map[string]string
	scope      string
	group      string
	macroDepth int

	logger log.Logger
	config Config
	cache  *ParseCache
	out    io.Writer
}

// Option configures an Evaluator at construction time, mirroring the
// teacher's functional-options pattern (lang.Option).
type Option func(*Evaluator)

// WithLogger sets the structured logger used for trace-level diagnostics.
func WithLogger(l log.Logger) Option {
	return func(ev *Evaluator) { ev.logger = l }
}

// WithConfig sets the evaluator configuration.
func WithConfig(cfg Config) Option {
	return func(ev *Evaluator) { ev.config = cfg }
}

// WithOutput sets the writer `print`/`printf` emit to. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(ev *Evaluator) { ev.out = w }
}

// Output returns the writer `print`/`printf` emit to.
func (ev *Evaluator) Output() io.Writer {
	if ev.out == nil {
		return os.Stdout
	}

	return ev.out
}

// NewEvaluator constructs an Evaluator with default configuration,
// overridden by any provided options.
func NewEvaluator(opts ...Option) *Evaluator {
	ev := &Evaluator{
		Root:    NewEnvironment(),
		Traces:  trace.NewContainer(),
		aliases: make(map[string]string),
		config:  DefaultConfig(),
		logger:  DefaultLogger(),
	}

	for _, opt := range opts {
		opt(ev)
	}

	ev.Traces.SetEvaluator(ev)
	ev.defineGlobals()

	return ev
}

// defineGlobals installs the CS/CG/args globals the reference
// implementation resets on every `reset` call (wal/eval.py SEval.reset).
func (ev *Evaluator) defineGlobals() {
	_ = ev.Root.Define("CS", String(""))
	_ = ev.Root.Define("CG", String(""))
	_ = ev.Root.Define("args", List())
}

// Reset returns the evaluator to a clean slate: environments, aliases,
// macros, scope, group, and virtual signals are cleared, and every loaded
// trace is snapped back to index 0 (spec.md 5).
func (ev *Evaluator) Reset() {
	ev.Root = NewEnvironment()
	ev.aliases = make(map[string]string)
	ev.scope = ""
	ev.group = ""
	ev.defineGlobals()
	ev.Traces.ResetAll()
}

// Eval evaluates expr in env, the central recursive-descent dispatch of
// spec.md 4.3.
func (ev *Evaluator) Eval(env *Environment, expr Value) (Value, error) {
	switch expr.Kind {
	case KindSymbol:
		return ev.evalSymbol(env, expr)

	case KindList:
		return ev.evalList(env, expr)

	default:
		// Self-evaluating: integers, floats, strings, booleans, closures,
		// mappings, macros-as-values, user-ops, virtual signals, nil.
		return expr, nil
	}
}

func (ev *Evaluator) evalSymbol(env *Environment, expr Value) (Value, error) {
	name := expr.Sym.Name

	seen := map[string]bool{}
	for {
		if seen[name] {
			break
		}

		seen[name] = true

		if target, ok := ev.aliases[name]; ok {
			name = target
			continue
		}

		break
	}

	if expr.Sym.Resolved() {
		if v, ok := env.ReadSteps(name, expr.Sym.Steps); ok {
			return v, nil
		}
	}

	if v, err := env.Read(name); err == nil {
		return v, nil
	}

	if ev.Traces.Contains(ev.prefixed(name)) {
		v, err := ev.Traces.SignalValue(ev.prefixed(name), 0, ev.scope)
		if err != nil {
			return Nil, newEvalError(ErrUndefinedSymbol, expr.Sym.Span, "%s", name)
		}

		return fromTraceValue(v), nil
	}

	return Nil, newEvalError(ErrUndefinedSymbol, expr.Sym.Span, "%s", name)
}

// prefixed is a hook for scope-qualified signal lookup; bare names are
// looked up as-is, since scope application for `~name` forms happens at
// read time via resolve-scope, not here.
func (ev *Evaluator) prefixed(name string) string { return name }

func (ev *Evaluator) evalList(env *Environment, expr Value) (Value, error) {
	if len(expr.List) == 0 {
		return expr, nil
	}

	head := expr.List[0]
	tail := expr.List[1:]

	if head.Kind == KindSymbol {
		if fn, ok := builtins[head.Sym.Name]; ok {
			ev.logger.TraceContext(context.TODO(), "eval: builtin", slog.String("op", head.Sym.Name))

			return fn(ev, env, tail, expr.Span)
		}
	}

	headVal, err := ev.Eval(env, head)
	if err != nil {
		return Nil, err
	}

	return ev.Apply(env, headVal, tail, expr.Span)
}

// Apply invokes headVal as a function with the unevaluated argument
// expressions args, dispatching by headVal's runtime kind (spec.md 4.3).
func (ev *Evaluator) Apply(env *Environment, headVal Value, args []Value, span Span) (Value, error) {
	switch headVal.Kind {
	case KindClosure:
		return ev.applyClosure(env, headVal, args, span)

	case KindMacro:
		// macroDepth counts re-entry through Apply, not just recursion
		// within a single Expand call: a macro whose body invokes itself
		// by name re-enters here via Eval rather than expand(), so the
		// depth guard must live on the evaluator, not a fresh expander
		// per call (spec.md 9: "guard against non-terminating macros
		// with a bounded expansion depth").
		ev.macroDepth++

		if ev.macroDepth > ev.config.MaxExpansionDepth {
			ev.macroDepth--

			return Nil, ErrMaxDepthExceeded.With(attrName("macro expansion"))
		}

		e := &expander{ev: ev, maxDepth: ev.config.MaxExpansionDepth}

		expanded, err := e.applyMacro(env, headVal, args)

		ev.macroDepth--

		if err != nil {
			return Nil, err
		}

		return ev.Eval(env, expanded)

	case KindUserOp:
		evaluated := make([]Value, len(args))

		for i, a := range args {
			v, err := ev.Eval(env, a)
			if err != nil {
				return Nil, err
			}

			evaluated[i] = v
		}

		return headVal.UserFn.Callback(ev, evaluated)

	default:
		return Nil, newEvalError(ErrNotCallable, span, "%s is not callable", headVal.Kind)
	}
}
