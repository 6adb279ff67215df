package store

import (
	"encoding/json"
	"fmt"
)

// Record is the JSON object stored for one key.
type Record map[string]any

// Patch holds fields to shallow-merge into an existing [Record].
type Patch map[string]any

// DefaultFunc builds the record persisted the first time key is read.
type DefaultFunc func(key string) Record

// Merge returns a new record with the fields of r overwritten by those of p.
//
// Neither input is modified. Nested values are shared, not copied.
func (r Record) Merge(p Patch) Record {
	merged := make(Record, len(r)+len(p))
	for k, v := range r {
		merged[k] = v
	}
	for k, v := range p {
		merged[k] = v
	}
	return merged
}

// Clone returns a deep copy of r by round-tripping it through JSON.
func (r Record) Clone() (Record, error) {
	data, err := encodeRecord(r)
	if err != nil {
		return nil, err
	}
	return decodeRecord(data)
}

func encodeRecord(r Record) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return string(data), nil
}

// decodeRecord accepts only a JSON object; null, arrays and scalars are rejected.
func decodeRecord(data string) (Record, error) {
	var r Record
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeserialization, err)
	}
	if r == nil {
		return nil, fmt.Errorf("%w: null", ErrDeserialization)
	}
	return r, nil
}
