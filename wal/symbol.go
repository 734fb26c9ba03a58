package wal

// Span records a source location for runtime diagnostics. Zero-valued
// spans are produced for trees built without a reader (e.g. quasiquote
// expansion at runtime) and are simply omitted when rendering errors.
type Span struct {
	File      string
	Line      int
	Column    int
	EndLine   int
	EndColumn int
}

// IsZero reports whether the span carries no location information.
func (s Span) IsZero() bool {
	return s.Line == 0 && s.Column == 0 && s.EndLine == 0 && s.EndColumn == 0
}

// unresolvedSteps marks a Symbol whose lexical depth has not been
// determined by the resolve pass (or never will be, e.g. signal names).
const unresolvedSteps = -1

// Symbol is a name with an optional statically resolved lexical depth.
// Steps is unresolvedSteps until the resolve pass annotates it; thereafter
// it counts the number of Environment frames to walk outward at lookup
// time (0 = innermost frame).
//
// Equality ignores Span: two symbols with the same Name and Steps are
// equal regardless of where they were read from.
type Symbol struct {
	Name  string
	Steps int
	Span  Span
}

// NewSymbol returns an unresolved symbol with the given name.
func NewSymbol(name string) Symbol {
	return Symbol{Name: name, Steps: unresolvedSteps}
}

// NewSymbolAt returns an unresolved symbol with the given name and span.
func NewSymbolAt(name string, span Span) Symbol {
	return Symbol{Name: name, Steps: unresolvedSteps, Span: span}
}

// Resolved reports whether the resolve pass has annotated this symbol with
// a lexical depth.
func (s Symbol) Resolved() bool { return s.Steps != unresolvedSteps }

// WithSteps returns a copy of s annotated with the given lexical depth.
func (s Symbol) WithSteps(steps int) Symbol {
	s.Steps = steps
	return s
}

// Equal reports name/steps equality, ignoring Span as required by spec.
func (s Symbol) Equal(o Symbol) bool {
	return s.Name == o.Name && s.Steps == o.Steps
}
