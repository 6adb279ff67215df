package store

import "github.com/charmbracelet/log"

// FailureHook observes failures the store swallows. It is called from the goroutine that hit the failure.
type FailureHook func(Failure)

// LogHook returns a [FailureHook] that writes failures to l.
//
// Updates for missing keys are expected during normal use and log at debug; everything else logs at warn.
func LogHook(l *log.Logger) FailureHook {
	return func(f Failure) {
		kv := []any{"op", f.Op, "kind", f.Kind.String(), "key", f.Key, "error", f.Err}
		if f.Kind == MissingKeyOnUpdate {
			l.Debug("patch dropped", kv...)
			return
		}
		l.Warn("record store failure", kv...)
	}
}

func discardFailures(Failure) {}
