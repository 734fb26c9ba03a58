package wal

import (
	"log/slog"
	"os"

	"github.com/ardnew/wal/log"
)

// DefaultLogger returns the logger an Evaluator uses when no [WithLogger]
// option is given: text format at info level, writing to stderr so
// `print`/`printf` output on stdout stays machine-parseable (log/doc.go's
// log.Make convention).
func DefaultLogger() log.Logger {
	return log.Make(os.Stderr, log.WithLevel(log.LevelInfo), log.WithFormat(log.FormatText))
}

// logEvalError logs an evaluation error at warn level with its kind and
// backtrace attached as structured fields, called at every top-level
// Host entry point so a host embedding the evaluator gets one consistent
// diagnostic line per failure regardless of which entry point it used.
func (ev *Evaluator) logEvalError(op string, err error) {
	if err == nil {
		return
	}

	var frames []string
	if ee, ok := err.(*EvaluationError); ok {
		frames = ee.Backtrace
	}

	ev.logger.Warn("eval error",
		slog.String("op", op),
		slog.String("error", err.Error()),
		slog.Any("backtrace", frames),
	)
}
