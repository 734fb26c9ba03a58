package wal

import "testing"

// BenchmarkCompile_CacheEffect compares a cold Compile (new source every
// call, forcing a full read/expand/optimize/resolve pass) against a warm
// Compile hitting the memoized result, mirroring the teacher's
// BenchmarkEvaluateExpr_CacheEffect shape.
func BenchmarkCompile_CacheEffect(b *testing.B) {
	ev := NewEvaluator()

	b.Run("cold", func(b *testing.B) {
		ev.ClearCache()

		b.ReportAllocs()

		for i := 0; i < b.N; i++ {
			ev.ClearCache()

			if _, err := ev.Compile("(+ 1 2 3 4 5)"); err != nil {
				b.Fatalf("compile error: %v", err)
			}
		}
	})

	b.Run("warm", func(b *testing.B) {
		if _, err := ev.Compile("(+ 1 2 3 4 5)"); err != nil {
			b.Fatalf("compile error: %v", err)
		}

		b.ResetTimer()
		b.ReportAllocs()

		for i := 0; i < b.N; i++ {
			if _, err := ev.Compile("(+ 1 2 3 4 5)"); err != nil {
				b.Fatalf("compile error: %v", err)
			}
		}
	})
}

// BenchmarkCompile_VaryingSource rotates through a handful of distinct
// source strings, simulating a host that compiles more than one script.
func BenchmarkCompile_VaryingSource(b *testing.B) {
	ev := NewEvaluator()

	sources := []string{
		"(+ 1 2)",
		"(* 3 4)",
		"(list 1 2 3)",
		"(fn (x) (+ x 1))",
		"(fold + (range 1 10))",
	}

	for _, src := range sources {
		if _, err := ev.Compile(src); err != nil {
			b.Fatalf("warm error: %v", err)
		}
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		src := sources[i%len(sources)]
		if _, err := ev.Compile(src); err != nil {
			b.Fatalf("compile error: %v", err)
		}
	}
}
