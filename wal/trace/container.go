package trace

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// Container holds every loaded trace, routing cross-trace queries and
// providing the transactional index snapshot stack the iteration
// combinators build on (spec.md 4.4).
type Container struct {
	fs     afero.Fs
	order  []string
	traces map[string]*Trace
	eval   SignalEvaluator

	snapshots []map[string]int
}

// NewContainer returns an empty container backed by the OS filesystem.
// Use [Container.SetFs] to substitute an in-memory filesystem for tests.
func NewContainer() *Container {
	return &Container{
		fs:     afero.NewOsFs(),
		traces: make(map[string]*Trace),
	}
}

// SetFs substitutes the filesystem used by Load, letting tests load
// traces from an in-memory afero.Fs instead of touching disk.
func (c *Container) SetFs(fs afero.Fs) { c.fs = fs }

// Fs returns the filesystem traces are loaded from, shared with `require`/
// `eval-file` so library scripts resolve against the same afero.Fs as
// trace files (spec.md 6).
func (c *Container) Fs() afero.Fs { return c.fs }

// SetEvaluator installs the callback used to evaluate virtual-signal
// bodies, called once by the wal package at evaluator construction.
func (c *Container) SetEvaluator(eval SignalEvaluator) { c.eval = eval }

// Len reports how many traces are loaded.
func (c *Container) Len() int { return len(c.order) }

// TraceIDs returns the loaded trace ids in load order.
func (c *Container) TraceIDs() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)

	return out
}

// Trace returns the trace with the given id, or nil.
func (c *Container) Trace(tid string) *Trace { return c.traces[tid] }

// autoTraceID returns "t<n>" for the n-th loaded trace, the convention the
// reference implementation uses when no explicit id is given.
func (c *Container) autoTraceID() string {
	return fmt.Sprintf("t%d", len(c.order))
}

// Load opens path, dispatching on its extension to the matching backend
// (spec.md 6). If tid is empty, an id is generated automatically.
func (c *Container) Load(path, tid string) (string, error) {
	if tid == "" {
		tid = c.autoTraceID()
	}

	if _, exists := c.traces[tid]; exists {
		return "", fmt.Errorf("trace: id %q already loaded", tid)
	}

	f, err := c.fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("trace: open %s: %w", path, err)
	}

	defer f.Close()

	var tr *Trace

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".vcd":
		tr, err = loadVCD(f, tid, path, c)

	case ".fst":
		tr, err = loadFST(f, tid, path, c)

	case ".csv":
		tr, err = loadCSV(f, tid, path, c)

	default:
		return "", fmt.Errorf("trace: unsupported extension %q", ext)
	}

	if err != nil {
		return "", err
	}

	c.traces[tid] = tr
	c.order = append(c.order, tid)

	return tid, nil
}

// Unload removes the trace with id tid.
func (c *Container) Unload(tid string) {
	delete(c.traces, tid)

	for i, id := range c.order {
		if id == tid {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// resolve splits name on ScopeSeparator when present, else dispatches to
// the single loaded trace, else errors (spec.md 4.4 Container).
func (c *Container) resolve(name string) (*Trace, string, error) {
	if tid, bare, ok := SplitCrossTrace(name); ok {
		tr, exists := c.traces[tid]
		if !exists {
			return nil, "", fmt.Errorf("trace: unknown trace id %q", tid)
		}

		return tr, bare, nil
	}

	if len(c.order) == 1 {
		return c.traces[c.order[0]], name, nil
	}

	return nil, "", fmt.Errorf("trace: %q is ambiguous across %d loaded traces", name, len(c.order))
}

// Contains reports whether name resolves to a known signal.
func (c *Container) Contains(name string) bool {
	tr, bare, err := c.resolve(name)
	if err != nil {
		return false
	}

	return tr.Contains(bare)
}

// SignalValue resolves and reads name at offset within scope.
func (c *Container) SignalValue(name string, offset int, scope string) (Value, error) {
	tr, bare, err := c.resolve(name)
	if err != nil {
		return Value{}, err
	}

	return tr.SignalValue(bare, offset, scope)
}

// SignalWidth resolves and reads the width of name.
func (c *Container) SignalWidth(name string) (int, error) {
	tr, bare, err := c.resolve(name)
	if err != nil {
		return 0, err
	}

	return tr.SignalWidth(bare)
}

// Step advances every loaded trace by delta, or just tid if non-empty.
// It returns the ids of any traces that could not step (out of range).
func (c *Container) Step(delta int, tid string) []string {
	var ended []string

	if tid != "" {
		if tr, ok := c.traces[tid]; ok && !tr.Step(delta) {
			ended = append(ended, tid)
		}

		return ended
	}

	for _, id := range c.order {
		if !c.traces[id].Step(delta) {
			ended = append(ended, id)
		}
	}

	return ended
}

// Indices returns a snapshot of every trace's current index, keyed by id.
func (c *Container) Indices() map[string]int {
	out := make(map[string]int, len(c.order))
	for _, id := range c.order {
		out[id] = c.traces[id].Index()
	}

	return out
}

// StoreIndices pushes the current index of every trace onto the snapshot
// stack, used by the iteration combinators for transactional restore.
func (c *Container) StoreIndices() {
	c.snapshots = append(c.snapshots, c.Indices())
}

// RestoreIndices pops the most recent snapshot and applies it.
func (c *Container) RestoreIndices() {
	if len(c.snapshots) == 0 {
		return
	}

	snap := c.snapshots[len(c.snapshots)-1]
	c.snapshots = c.snapshots[:len(c.snapshots)-1]

	for id, idx := range snap {
		if tr, ok := c.traces[id]; ok {
			tr.Set(idx)
		}
	}
}

// ResetAll snaps every loaded trace back to index 0, clears sampling
// restrictions, and clears the snapshot stack (spec.md 5 `reset`).
func (c *Container) ResetAll() {
	for _, id := range c.order {
		tr := c.traces[id]
		tr.timestamps = tr.allTimestamps
		tr.maxIndex = len(tr.allTimestamps) - 1
		tr.Set(0)
	}

	c.snapshots = nil
}

// Scopes returns the union of every loaded trace's scopes.
func (c *Container) Scopes() []string {
	var out []string

	for _, id := range c.order {
		out = append(out, c.traces[id].Scopes()...)
	}

	return out
}

// Signals returns every signal across every loaded trace, prefixed with
// "tid^" when more than one trace is loaded (spec.md 4.4).
func (c *Container) Signals() []string {
	var out []string

	multi := len(c.order) > 1

	for _, id := range c.order {
		for _, s := range c.traces[id].AllSignals() {
			if multi {
				s = id + ScopeSeparator + s
			}

			out = append(out, s)
		}
	}

	return out
}

// AddVirtualSignal registers a computed signal against the trace
// addressed by name (single-trace fast path, or "tid^name" routing).
func (c *Container) AddVirtualSignal(name string, body any) error {
	tr, bare, err := c.resolve(name)
	if err != nil {
		return err
	}

	tr.AddVirtualSignal(bare, NewVirtualSignal(bare, body, c.eval))

	return nil
}

// Groups finds every scope prefix P such that, for every pattern in pats,
// P+pattern is a known signal. Result is sorted lexicographically on the
// full prefix (spec.md 6, 8 property 12; test_eval_list.py).
func (c *Container) Groups(pats []string) []string {
	if len(pats) == 0 {
		return nil
	}

	candidates := map[string]bool{}

	for _, id := range c.order {
		for _, s := range c.traces[id].AllSignals() {
			if strings.HasSuffix(s, pats[0]) {
				candidates[strings.TrimSuffix(s, pats[0])] = true
			}
		}
	}

	var out []string

	for prefix := range candidates {
		ok := true

		for _, pat := range pats {
			if !c.hasSignalSuffix(prefix + pat) {
				ok = false
				break
			}
		}

		if ok {
			out = append(out, prefix)
		}
	}

	sort.Strings(out)

	return out
}

func (c *Container) hasSignalSuffix(name string) bool {
	for _, id := range c.order {
		for _, s := range c.traces[id].AllSignals() {
			if s == name {
				return true
			}
		}
	}

	return false
}
