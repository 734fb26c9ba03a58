package wal

import (
	"strconv"
	"strings"
)

// Format renders v as WAL source text such that reading the result back
// reproduces an equal value (spec.md 8 property 1: read(print(read(P))) =
// read(P) up to span metadata).
func Format(v Value) string {
	var b strings.Builder

	writeValue(&b, v)

	return b.String()
}

func writeValue(b *strings.Builder, v Value) {
	switch v.Kind {
	case KindInt:
		b.WriteString(strconv.FormatInt(v.Int, 10))

	case KindFloat:
		b.WriteString(strconv.FormatFloat(v.Float, 'g', -1, 64))

	case KindString:
		b.WriteString(strconv.Quote(v.Str))

	case KindBool:
		if v.Bool {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}

	case KindSymbol:
		b.WriteString(v.Sym.Name)

	case KindOperator:
		b.WriteString(v.Op)

	case KindNil:
		b.WriteString("nil")

	case KindList:
		b.WriteByte('(')

		for i, item := range v.List {
			if i > 0 {
				b.WriteByte(' ')
			}

			writeValue(b, item)
		}

		b.WriteByte(')')

	case KindMapping:
		b.WriteString("(array")

		if v.Map != nil {
			for _, k := range v.Map.Keys() {
				val, _ := v.Map.Get(k)
				b.WriteString(" (")
				b.WriteString(strconv.Quote(k))
				b.WriteByte(' ')
				writeValue(b, val)
				b.WriteByte(')')
			}
		}

		b.WriteByte(')')

	case KindClosure:
		b.WriteString("(fn (")

		if v.Fn != nil {
			for i, p := range v.Fn.Params {
				if i > 0 {
					b.WriteByte(' ')
				}

				b.WriteString(p.Name)
			}
		}

		b.WriteString(") ...)")

	case KindMacro:
		b.WriteString("(defmacro ...)")

	case KindUserOp:
		b.WriteString("#<user-operator ")
		b.WriteString(v.Op)
		b.WriteByte('>')

	case KindUnquote:
		b.WriteByte(',')
		b.WriteString(v.Op)

	case KindUnquoteSplice:
		b.WriteString(",@")
		b.WriteString(v.Op)

	case KindVirtualSignal:
		b.WriteString("#<virtual-signal")

		if v.VSig != nil {
			b.WriteByte(' ')
			b.WriteString(v.VSig.Name)
		}

		b.WriteByte('>')

	default:
		b.WriteString("#<unknown>")
	}
}

// formatValue renders v the way `print`/string-concatenation stringify a
// non-string operand: strings pass through verbatim (no surrounding
// quotes), everything else uses Format (core.py's `str(sexpr)` analog via
// wal_str).
func formatValue(v Value) string {
	if v.Kind == KindString {
		return v.Str
	}

	return Format(v)
}
