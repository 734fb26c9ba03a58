package wal

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

func init() {
	registerBuiltin("exit", opExit)
	registerBuiltin("require", opRequire)
	registerBuiltin("eval-file", opEvalFile)
	registerBuiltin("repl", opRepl)
}

// ExitError is returned (never recovered internally) by the `exit`
// built-in so a hosting program can distinguish a requested shutdown from
// an evaluation failure (core.py's op_exit calls sys.exit directly; since
// an embedded Go evaluator cannot terminate its host process, `exit`
// signals this via a typed error instead).
type ExitError struct{ Code int }

func (e *ExitError) Error() string { return fmt.Sprintf("exit: requested exit code %d", e.Code) }

func opExit(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) > 1 {
		return Nil, newEvalError(ErrArity, span, "exit: expects none or one argument (exit return_code:int)")
	}

	if len(args) == 0 {
		return Nil, &ExitError{Code: 0}
	}

	code, err := ev.Eval(env, args[0])
	if err != nil {
		return Nil, err
	}

	if code.Kind != KindInt {
		return Nil, newEvalError(ErrKindMismatch, span, "exit: argument must evaluate to int")
	}

	return Nil, &ExitError{Code: int(code.Int)}
}

// opRequire loads and evaluates each named module (name.wal) from the
// configured library search path, evaluating its forms directly in the
// caller's environment (core.py op_require).
func opRequire(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) == 0 {
		return Nil, newEvalError(ErrArity, span, "require: expects at least one argument (require module:symbol+)")
	}

	for _, a := range args {
		if a.Kind != KindSymbol {
			return Nil, newEvalError(ErrKindMismatch, span, "require: all arguments must be symbols")
		}

		path, ok := ev.resolveLibrary(a.Sym.Name + ".wal")
		if !ok {
			return Nil, newEvalError(ErrUndefinedSymbol, span, "require: module %s not found", a.Sym.Name)
		}

		if err := ev.runFile(env, path); err != nil {
			return Nil, err
		}
	}

	return Nil, nil
}

// opEvalFile reads and evaluates every form in a WAL source file within
// the caller's environment, returning the last value (spec.md 6 RunFile).
func opEvalFile(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 1 {
		return Nil, newEvalError(ErrArity, span, "eval-file: expects exactly one argument (eval-file path:str)")
	}

	path, err := ev.Eval(env, args[0])
	if err != nil {
		return Nil, err
	}

	if path.Kind != KindString {
		return Nil, newEvalError(ErrKindMismatch, span, "eval-file: argument must be a string")
	}

	return ev.evalFileIn(env, path.Str)
}

// opRepl is a stub: the interactive shell is a host concern, not part of
// the embeddable evaluator, so invoking it from a script only logs a
// warning and returns nil.
func opRepl(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	ev.logger.Warn("repl: interactive shell is not available from an embedded evaluator")

	return Nil, nil
}

// resolveLibrary searches Config.LibraryPaths in order for name, returning
// the first match.
func (ev *Evaluator) resolveLibrary(name string) (string, bool) {
	for _, dir := range ev.config.LibraryPaths {
		candidate := filepath.Join(dir, name)

		if ev.fileExists(candidate) {
			return candidate, true
		}
	}

	if ev.fileExists(name) {
		return name, true
	}

	return "", false
}

func (ev *Evaluator) fileExists(path string) bool {
	_, err := ev.Traces.Fs().Stat(path)

	return err == nil
}

// runFile reads path via the configured filesystem and evaluates every
// top-level form into env.
func (ev *Evaluator) runFile(env *Environment, path string) error {
	_, err := ev.evalFileIn(env, path)

	return err
}

// evalFileIn reads, compiles, and evaluates every top-level form of path
// into env, returning the last form's value.
func (ev *Evaluator) evalFileIn(env *Environment, path string) (Value, error) {
	data, err := afero.ReadFile(ev.Traces.Fs(), path)
	if err != nil {
		return Nil, ErrReadInput.Wrap(err)
	}

	forms, err := ev.Compile(string(data))
	if err != nil {
		return Nil, err
	}

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
