package trace

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// csvBackend decodes a trace recorded as a CSV table: a "Time [s]" column
// followed by one column per signal, values stored verbatim as strings.
// Grounded on wal/trace/csv.py TraceCsv.
type csvBackend struct {
	rawsignals []string
	columns    map[string][]string // name -> value per row
}

func (b *csvBackend) RawSignals() []string { return append([]string(nil), b.rawsignals...) }

// Scopes is always empty: CSV traces carry no module hierarchy.
func (b *csvBackend) Scopes() []string { return nil }

func (b *csvBackend) SignalWidth(name string) (int, error) {
	if _, ok := b.columns[name]; !ok {
		return 0, fmt.Errorf("csv: unknown signal %q", name)
	}

	// CSV carries no declared bit width; report the width implied by the
	// widest decimal value observed, defaulting to 1.
	width := 1

	for _, v := range b.columns[name] {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			if bits := bitLength(n); bits > width {
				width = bits
			}
		}
	}

	return width, nil
}

func (b *csvBackend) Contains(name string) bool {
	_, ok := b.columns[name]
	return ok
}

func (b *csvBackend) AccessSignalData(name string, index int) (string, error) {
	values, ok := b.columns[name]
	if !ok {
		return "", fmt.Errorf("csv: unknown signal %q", name)
	}

	if index < 0 || index >= len(values) {
		return "", fmt.Errorf("csv: index %d out of range for %q", index, name)
	}

	return values[index], nil
}

// loadCSV reads a header row ("Time [s]", then one column per signal)
// followed by one data row per sampled timestamp. Timestamps in seconds
// are converted to integer nanoseconds (spec.md 4.4, 6).
func loadCSV(r io.Reader, tid, filename string, c *Container) (*Trace, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	if len(header) == 0 {
		return nil, fmt.Errorf("csv: empty header")
	}

	timeCol := 0

	for i, h := range header {
		if isTimeColumn(h) {
			timeCol = i
			break
		}
	}

	b := &csvBackend{columns: make(map[string][]string, len(header)-1)}

	for i, h := range header {
		if i == timeCol {
			continue
		}

		name := SanitizeColumnName(strings.TrimSpace(h))
		b.rawsignals = append(b.rawsignals, name)
		b.columns[name] = nil
	}

	var timestamps []int64

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("csv: read row: %w", err)
		}

		for i, h := range header {
			if i >= len(row) {
				continue
			}

			if i == timeCol {
				timestamps = append(timestamps, secondsToNanos(row[i]))
				continue
			}

			name := SanitizeColumnName(strings.TrimSpace(h))
			b.columns[name] = append(b.columns[name], strings.TrimSpace(row[i]))
		}
	}

	if len(timestamps) == 0 {
		timestamps = []int64{0}
	}

	return NewTrace(tid, filename, b, timestamps, c), nil
}

func isTimeColumn(h string) bool {
	h = strings.ToLower(strings.TrimSpace(h))
	return h == "time [s]" || h == "time" || strings.HasPrefix(h, "time ")
}

func secondsToNanos(s string) int64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}

	return int64(f * 1e9)
}

func bitLength(n int64) int {
	if n < 0 {
		n = -n
	}

	bits := 1
	for n > 0 {
		bits++
		n >>= 1
	}

	return bits
}
