package store

import "fmt"

var (
	ErrEmptyKey        = fmt.Errorf("record key must not be empty")
	ErrDeserialization = fmt.Errorf("persisted value is not a record")
	ErrSerialization   = fmt.Errorf("record could not be serialized")
	ErrDurableRead     = fmt.Errorf("durable read failed")
	ErrDurableWrite    = fmt.Errorf("durable write failed")
	ErrMissingKey      = fmt.Errorf("no record for key")
	ErrQuotaExceeded   = fmt.Errorf("storage quota exceeded")
	ErrUnsupported     = fmt.Errorf("operation not supported by medium")
)

// FailureKind classifies a swallowed failure.
type FailureKind int

const (
	DeserializationFailure FailureKind = iota
	DurableReadFailure
	DurableWriteFailure
	MissingKeyOnUpdate
)

func (k FailureKind) String() string {
	switch k {
	case DeserializationFailure:
		return "deserialization_failure"
	case DurableReadFailure:
		return "durable_read_failure"
	case DurableWriteFailure:
		return "durable_write_failure"
	case MissingKeyOnUpdate:
		return "missing_key_on_update"
	default:
		return ""
	}
}

// Failure describes an error the store absorbed instead of returning to a caller.
type Failure struct {
	Kind FailureKind
	Op   string // fetch, create or update
	Key  string // record key without prefix
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s %s %q: %v", f.Op, f.Kind, f.Key, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}
