package wal

import "log/slog"

// Environment is a singly-linked chain of lexical frames. Each frame maps
// names to values; frames outlive every closure that captured them,
// satisfying the lifetime requirement in spec.md section 3.
type Environment struct {
	vars   map[string]Value
	parent *Environment
}

// NewEnvironment returns a fresh root frame with no parent.
func NewEnvironment() *Environment {
	return &Environment{vars: make(map[string]Value)}
}

// Child returns a new frame whose parent is e.
func (e *Environment) Child() *Environment {
	return &Environment{vars: make(map[string]Value), parent: e}
}

// Define binds name to value in this frame. It fails if name is already
// defined in this frame (not an ancestor).
func (e *Environment) Define(name string, value Value) error {
	if _, ok := e.vars[name]; ok {
		return ErrAlreadyDefined.With(attrName(name))
	}

	e.vars[name] = value

	return nil
}

// Undefine removes name from this frame. It fails if name is absent from
// this frame.
func (e *Environment) Undefine(name string) error {
	if _, ok := e.vars[name]; !ok {
		return ErrUndefinedSymbol.With(attrName(name))
	}

	delete(e.vars, name)

	return nil
}

// IsDefined searches the frame chain outward from e and returns the frame
// that owns name, or nil if unbound anywhere.
func (e *Environment) IsDefined(name string) *Environment {
	for fr := e; fr != nil; fr = fr.parent {
		if _, ok := fr.vars[name]; ok {
			return fr
		}
	}

	return nil
}

// Write mutates the nearest existing binding for name. It fails if name is
// unbound anywhere in the chain.
func (e *Environment) Write(name string, value Value) error {
	fr := e.IsDefined(name)
	if fr == nil {
		return ErrWriteUnbound.With(attrName(name))
	}

	fr.vars[name] = value

	return nil
}

// Read returns the nearest binding for name, failing if unbound.
func (e *Environment) Read(name string) (Value, error) {
	for fr := e; fr != nil; fr = fr.parent {
		if v, ok := fr.vars[name]; ok {
			return v, nil
		}
	}

	return Nil, ErrUndefinedSymbol.With(attrName(name))
}

// ReadSteps reads name by walking exactly steps frames outward, used by
// the fast path for resolved symbols. It falls back to nothing found if
// the chain is shorter than steps or the frame does not contain name.
func (e *Environment) ReadSteps(name string, steps int) (Value, bool) {
	fr := e
	for range steps {
		if fr == nil {
			return Nil, false
		}

		fr = fr.parent
	}

	if fr == nil {
		return Nil, false
	}

	v, ok := fr.vars[name]

	return v, ok
}

// WriteSteps mutates name after walking exactly steps frames outward.
func (e *Environment) WriteSteps(name string, steps int, value Value) bool {
	fr := e
	for range steps {
		if fr == nil {
			return false
		}

		fr = fr.parent
	}

	if fr == nil {
		return false
	}

	if _, ok := fr.vars[name]; !ok {
		return false
	}

	fr.vars[name] = value

	return true
}

func attrName(name string) slog.Attr {
	return slog.String("name", name)
}
