// Package trace implements the uniform waveform model described in
// spec.md section 4.4: VCD/FST/CSV backends behind one Trace interface,
// composed into a [Container] that routes cross-trace queries and
// snapshots indices for the iteration combinators.
package trace

import "strings"

// ScopeSeparator separates a trace id from a signal name in cross-trace
// queries, e.g. "t0^clk". Kept here (rather than only in wal.Config) since
// the trace package has no dependency on the wal package and needs its
// own copy for name routing.
const ScopeSeparator = "^"

// SpecialSignals are the synthetic per-trace names resolved without a
// backend lookup (spec.md 4.4).
var SpecialSignals = map[string]bool{
	"SIGNALS":       true,
	"LOCAL-SIGNALS": true,
	"INDEX":         true,
	"MAX-INDEX":     true,
	"TS":            true,
	"TRACE-NAME":    true,
	"TRACE-FILE":    true,
	"SCOPES":        true,
	"LOCAL-SCOPES":  true,
}

// NormalizeName strips a `[hi:lo]` vector-width suffix and rewrites a
// trailing `[n]` or `(n)` instance index to `<n>`, so bracketed indices
// don't collide with WAL's own bracket syntax (spec.md 3, 4.4, 6).
func NormalizeName(name string) string {
	name = stripSliceInfo(name)
	name = bracketToAngle(name)

	return name
}

// stripSliceInfo removes a trailing "[hi:lo]" vector-width annotation.
func stripSliceInfo(name string) string {
	open := strings.LastIndexByte(name, '[')
	if open < 0 {
		return name
	}

	close := strings.LastIndexByte(name, ']')
	if close != len(name)-1 || close < open {
		return name
	}

	body := name[open+1 : close]
	if !strings.Contains(body, ":") {
		return name
	}

	if !isAllDigitsOrColon(body) {
		return name
	}

	return name[:open]
}

// bracketToAngle rewrites a trailing "[n]" or "(n)" instance index to
// "<n>".
func bracketToAngle(name string) string {
	n := len(name)
	if n < 3 {
		return name
	}

	last := name[n-1]
	if last != ']' && last != ')' {
		return name
	}

	var open byte
	switch last {
	case ']':
		open = '['
	case ')':
		open = '('
	}

	idx := strings.LastIndexByte(name, rune(open))
	if idx < 0 {
		return name
	}

	body := name[idx+1 : n-1]
	if body == "" || !isAllDigits(body) {
		return name
	}

	return name[:idx] + "<" + body + ">"
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

func isAllDigitsOrColon(s string) bool {
	for _, r := range s {
		if r == ':' {
			continue
		}

		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

// SanitizeColumnName replaces spaces with underscores and normalizes
// bracket/paren indices, used by the CSV backend for header columns
// (spec.md 6).
func SanitizeColumnName(name string) string {
	name = strings.ReplaceAll(name, " ", "_")

	return NormalizeName(name)
}

// SplitCrossTrace splits a name containing ScopeSeparator into
// (trace-id, bare-name). ok is false if the separator is absent.
func SplitCrossTrace(name string) (tid, bare string, ok bool) {
	i := strings.Index(name, ScopeSeparator)
	if i < 0 {
		return "", name, false
	}

	return name[:i], name[i+len(ScopeSeparator):], true
}
