package trace

import (
	"fmt"
	"strconv"
)

// memBackend is an in-memory, mutable Backend backing traces created with
// `new-trace`: signal values are written directly by the host (via
// SetSignal) rather than decoded from a file, grounded on the reference
// implementation's wal/trace/virtual.py TraceVirtual.
type memBackend struct {
	names []string
	seen  map[string]bool
	width map[string]int
	data  map[string][]string
	n     int
}

func newMemBackend(n int) *memBackend {
	return &memBackend{
		seen:  make(map[string]bool),
		width: make(map[string]int),
		data:  make(map[string][]string),
		n:     n,
	}
}

func (b *memBackend) RawSignals() []string { return append([]string(nil), b.names...) }
func (b *memBackend) Scopes() []string     { return nil }

func (b *memBackend) SignalWidth(name string) (int, error) {
	w, ok := b.width[name]
	if !ok {
		return 0, fmt.Errorf("new-trace: unknown signal %q", name)
	}

	return w, nil
}

func (b *memBackend) Contains(name string) bool { return b.seen[name] }

func (b *memBackend) AccessSignalData(name string, index int) (string, error) {
	values, ok := b.data[name]
	if !ok || index < 0 || index >= len(values) {
		return "x", nil
	}

	return values[index], nil
}

// SetSignal records value for name at index, creating the signal (with
// width inferred from value's bit length, minimum 1) on first write.
func (b *memBackend) SetSignal(name string, index int, value string) {
	if !b.seen[name] {
		b.seen[name] = true
		b.names = append(b.names, name)
		b.width[name] = 1
		b.data[name] = make([]string, b.n)

		for i := range b.data[name] {
			b.data[name][i] = "x"
		}
	}

	if w := len(value); w > b.width[name] {
		if _, err := strconv.ParseInt(value, 2, 64); err == nil {
			b.width[name] = w
		}
	}

	if index >= 0 && index < len(b.data[name]) {
		b.data[name][index] = value
	}
}

// NewVirtualTrace creates a purely computed trace of maxIndex+1 samples
// with timestamps 0..maxIndex, registered under tid (core.py op_new_trace).
func NewVirtualTrace(tid string, maxIndex int, c *Container) *Trace {
	n := maxIndex + 1
	if n < 1 {
		n = 1
	}

	ts := make([]int64, n)
	for i := range ts {
		ts[i] = int64(i)
	}

	return NewTrace(tid, "", newMemBackend(n), ts, c)
}

// SetSignal writes value into a trace created by NewVirtualTrace at the
// given absolute index. It is a no-op (silently ignored) on traces backed
// by a read-only format.
func (t *Trace) SetSignal(name string, index int, value string) {
	if mb, ok := t.backend.(*memBackend); ok {
		mb.SetSignal(name, index, value)
	}
}

// AddTrace registers an already-constructed trace (used by new-trace,
// where the trace has no file to load).
func (c *Container) AddTrace(tid string, tr *Trace) error {
	if _, exists := c.traces[tid]; exists {
		return fmt.Errorf("trace: id %q already loaded", tid)
	}

	c.traces[tid] = tr
	c.order = append(c.order, tid)

	return nil
}
