package wal

import (
	"fmt"
	"log/slog"
	"strings"
)

func init() {
	registerBuiltin("print", opPrint)
	registerBuiltin("printf", opPrintf)
}

// opPrint evaluates every argument and writes their concatenation
// (formatValue, i.e. strings unquoted) to the evaluator's writer followed
// by a newline (core.py's op_print writes with sep='').
func opPrint(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	evaluated, err := evalArgs(ev, env, args)
	if err != nil {
		return Nil, err
	}

	var b strings.Builder
	for _, v := range evaluated {
		b.WriteString(formatValue(v))
	}

	ev.logger.Debug("print", slog.String("text", b.String()))
	fmt.Fprintln(ev.Output(), b.String())

	return Nil, nil
}

// opPrintf evaluates a format-string argument and the remaining
// arguments, then renders them through fmt.Sprintf. Go's fmt never
// returns an error on verb/argument mismatch; it instead embeds a
// "%!verb(...)" marker in the output, so that marker is detected here
// and surfaced as an evaluation error (spec.md 4.5: "printf format-string
// mismatches surface as an evaluation error wrapping the format-library
// message").
func opPrintf(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) == 0 {
		return Nil, newEvalError(ErrArity, span, "printf: expects at least a format string")
	}

	formatVal, err := ev.Eval(env, args[0])
	if err != nil {
		return Nil, err
	}

	if formatVal.Kind != KindString {
		return Nil, newEvalError(ErrKindMismatch, span, "printf: first argument must be a format string")
	}

	rest, err := evalArgs(ev, env, args[1:])
	if err != nil {
		return Nil, err
	}

	operands := make([]any, len(rest))
	for i, v := range rest {
		operands[i] = printfOperand(v)
	}

	out := fmt.Sprintf(formatVal.Str, operands...)

	if strings.Contains(out, "%!") {
		return Nil, newEvalError(ErrKindMismatch, span, "printf: format/argument mismatch: %s", out)
	}

	fmt.Fprint(ev.Output(), out)

	return Nil, nil
}

// printfOperand unwraps a Value to the native Go type fmt.Sprintf verbs
// expect, so that "%d"/"%s"/"%f"-style templates behave the way a WAL
// author used to Python's `%` operator would expect.
func printfOperand(v Value) any {
	switch v.Kind {
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindString:
		return v.Str
	case KindBool:
		return v.Bool
	default:
		return Format(v)
	}
}
