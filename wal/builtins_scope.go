package wal

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ardnew/wal/wal/trace"
)

// fromTraceValue converts a trace package lookup result into a wal.Value,
// the boundary the trace package's own doc comment on trace.Value
// delegates to this package.
func fromTraceValue(v trace.Value) Value {
	switch v.Kind {
	case trace.VInt:
		return Int(v.Int)
	case trace.VString:
		return String(v.Str)
	case trace.VList:
		items := make([]Value, len(v.List))
		for i, s := range v.List {
			items[i] = String(s)
		}

		return List(items...)
	default:
		return Nil
	}
}

func init() {
	registerBuiltin("in-scope", opInScope)
	registerBuiltin("all-scopes", opAllScopes)
	registerBuiltin("resolve-scope", opResolveScope)
	registerBuiltin("set-scope", opSetScope)
	registerBuiltin("unset-scope", opUnsetScope)
	registerBuiltin("groups", opGroups)
	registerBuiltin("in-group", opInGroup)
	registerBuiltin("in-groups", opInGroups)
	registerBuiltin("resolve-group", opResolveGroup)
}

func scopeOrSymbolName(ev *Evaluator, env *Environment, expr Value, span Span, name string) (string, error) {
	v, err := ev.Eval(env, expr)
	if err != nil {
		return "", err
	}

	switch v.Kind {
	case KindSymbol:
		return v.Sym.Name, nil
	case KindString:
		return v.Str, nil
	default:
		return "", newEvalError(ErrKindMismatch, span, "%s: argument must be a symbol or string", name)
	}
}

// opInScope evaluates expr with the current scope temporarily set, used
// so `~name` resolution (resolve-scope) addresses a concrete module
// instance (spec.md 4.3 "in-scope").
func opInScope(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 2 {
		return Nil, newEvalError(ErrArity, span, "in-scope: exactly two arguments required (in-scope scope:symbol expression)")
	}

	name, err := scopeOrSymbolName(ev, env, args[0], span, "in-scope")
	if err != nil {
		return Nil, err
	}

	prev := ev.scope
	ev.scope = name
	_ = ev.Root.Write("CS", String(ev.scope))

	res, err := ev.Eval(env, args[1])

	ev.scope = prev
	_ = ev.Root.Write("CS", String(ev.scope))

	return res, err
}

// opAllScopes evaluates expr once per known scope, collecting results.
func opAllScopes(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 1 {
		return Nil, newEvalError(ErrArity, span, "all-scopes: exactly one argument required")
	}

	prev := ev.scope
	var out []Value

	for _, scope := range ev.Traces.Scopes() {
		ev.scope = scope
		_ = ev.Root.Write("CS", String(scope))

		v, err := ev.Eval(env, args[0])
		if err != nil {
			ev.scope = prev
			_ = ev.Root.Write("CS", String(prev))

			return Nil, err
		}

		out = append(out, v)
	}

	ev.scope = prev
	_ = ev.Root.Write("CS", String(prev))

	return List(out...), nil
}

// opResolveScope reads a signal qualified by the current scope:
// CS + "." + name when CS names a real scope, else CS + name (group
// prefixes carry their own separator already).
func opResolveScope(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 1 || args[0].Kind != KindSymbol {
		return Nil, newEvalError(ErrArity, span, "resolve-scope: exactly one argument required (resolve-scope name:symbol)")
	}

	name := args[0].Sym.Name
	if target, ok := ev.aliases[name]; ok {
		name = target
	}

	qualified := ev.scope + name

	for _, s := range ev.Traces.Scopes() {
		if s == ev.scope {
			qualified = ev.scope + "." + name

			break
		}
	}

	if ev.Traces.Contains(qualified) {
		v, err := ev.Traces.SignalValue(qualified, 0, ev.scope)
		if err != nil {
			return Nil, newEvalError(ErrUndefinedSymbol, span, "resolve-scope: %s", qualified)
		}

		return fromTraceValue(v), nil
	}

	return Nil, newEvalError(ErrUndefinedSymbol, span, "resolve-scope: %s", qualified)
}

func opSetScope(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 1 || args[0].Kind != KindSymbol {
		return Nil, newEvalError(ErrArity, span, "set-scope: exactly one symbol argument required")
	}

	name := args[0].Sym.Name

	found := false
	for _, s := range ev.Traces.Scopes() {
		if s == name {
			found = true

			break
		}
	}

	if !found {
		return Nil, newEvalError(ErrKindMismatch, span, "set-scope: %s is not a valid scope", name)
	}

	ev.scope = name
	_ = ev.Root.Write("CS", String(name))

	return Nil, nil
}

func opUnsetScope(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 0 {
		return Nil, newEvalError(ErrArity, span, "unset-scope: expects no arguments")
	}

	ev.scope = ""
	_ = ev.Root.Write("CS", String(""))

	return Nil, nil
}

// opGroups finds every scope prefix whose first suffix pattern matches a
// known signal and whose remaining patterns also resolve, scoped to the
// current CS when one is set (core.py op_groups).
func opGroups(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) == 0 {
		return Nil, newEvalError(ErrArity, span, "groups: expects at least one argument (groups pat:str+)")
	}

	pats := make([]string, len(args))

	for i, a := range args {
		v, err := ev.Eval(env, a)
		if err != nil {
			return Nil, err
		}

		if v.Kind != KindString {
			return Nil, newEvalError(ErrKindMismatch, span, "groups: arguments must be strings")
		}

		pats[i] = v.Str
	}

	var re *regexp.Regexp
	if ev.scope != "" {
		re = regexp.MustCompile(regexp.QuoteMeta(ev.scope) + `\.[^.]+` + regexp.QuoteMeta(pats[0]))
	} else {
		re = regexp.MustCompile(`.*` + regexp.QuoteMeta(pats[0]))
	}

	prefixes := map[string]bool{}

	for _, s := range ev.Traces.Signals() {
		if re.MatchString(s) {
			prefixes[strings.TrimSuffix(s, pats[0])] = true
		}
	}

	var matched []string

	for pre := range prefixes {
		ok := true

		for _, post := range pats[1:] {
			if !ev.Traces.Contains(pre + post) {
				ok = false

				break
			}
		}

		if ok {
			matched = append(matched, pre)
		}
	}

	sort.Strings(matched)

	out := make([]Value, len(matched))
	for i, pre := range matched {
		out[i] = String(pre)
	}

	return List(out...), nil
}

// opInGroup evaluates expr with the current group (and derived scope
// prefix) temporarily set (core.py op_in_group).
func opInGroup(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 2 {
		return Nil, newEvalError(ErrArity, span, "in-group: exactly two arguments required (in-group group:symbol expression)")
	}

	name, err := scopeOrSymbolName(ev, env, args[0], span, "in-group")
	if err != nil {
		return Nil, err
	}

	prevGroup, prevScope := ev.group, ev.scope

	ev.group = name
	_ = ev.Root.Write("CG", String(name))

	if idx := strings.LastIndex(name, "."); idx != -1 {
		ev.scope = name[:idx+1]
	}

	_ = ev.Root.Write("CS", String(ev.scope))

	res, err := ev.Eval(env, args[1])

	ev.group, ev.scope = prevGroup, prevScope
	_ = ev.Root.Write("CG", String(prevGroup))
	_ = ev.Root.Write("CS", String(prevScope))

	return res, err
}

// opInGroups runs opInGroup once per element of a list of groups,
// returning only the last result (core.py op_in_groups).
func opInGroups(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 2 {
		return Nil, newEvalError(ErrArity, span, "in-groups: exactly two arguments required (in-groups groups:list expression)")
	}

	groups, err := ev.Eval(env, args[0])
	if err != nil {
		return Nil, err
	}

	if groups.Kind != KindList || len(groups.List) == 0 {
		return Nil, newEvalError(ErrKindMismatch, span, "in-groups: first argument must evaluate to a non-empty list")
	}

	var result Value

	for _, g := range groups.List {
		v, err := opInGroup(ev, env, []Value{quoted(g), args[1]}, span)
		if err != nil {
			return Nil, err
		}

		result = v
	}

	return result, nil
}

func opResolveGroup(ev *Evaluator, env *Environment, args []Value, span Span) (Value, error) {
	if len(args) != 1 || args[0].Kind != KindSymbol {
		return Nil, newEvalError(ErrArity, span, "resolve-group: exactly one argument required (resolve-group name:symbol)")
	}

	name := args[0].Sym.Name
	if target, ok := ev.aliases[name]; ok {
		name = target
	}

	qualified := ev.group + name

	if ev.Traces.Contains(qualified) {
		v, err := ev.Traces.SignalValue(qualified, 0, ev.scope)
		if err != nil {
			return Nil, newEvalError(ErrUndefinedSymbol, span, "resolve-group: %s", qualified)
		}

		return fromTraceValue(v), nil
	}

	return Nil, newEvalError(ErrUndefinedSymbol, span, "resolve-group: %s", qualified)
}
