// package testing contains shared testing utilities
package testing

import (
	"errors"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
)

// Op is one recorded medium call.
type Op struct {
	Kind string // get, set or delete
	Key  string
}

func (o Op) String() string {
	return o.Kind + " " + o.Key
}

// MockMedium is an in-memory durable medium that records every call and can be told to fail.
//
// It satisfies store.Medium, store.Lister and store.Deleter without importing the store package.
type MockMedium struct {
	mu       sync.Mutex
	entries  map[string]string
	ops      []Op
	getErr   map[string]error
	setErr   map[string]error
	getDelay map[string]time.Duration
}

func NewMockMedium() *MockMedium {
	return &MockMedium{
		entries:  map[string]string{},
		getErr:   map[string]error{},
		setErr:   map[string]error{},
		getDelay: map[string]time.Duration{},
	}
}

func (m *MockMedium) Get(key string) (string, bool, error) {
	m.mu.Lock()
	m.ops = append(m.ops, Op{Kind: "get", Key: key})
	delay := m.getDelay[key]
	err := m.getErr[key]
	v, ok := m.entries[key]
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return "", false, err
	}
	return v, ok, nil
}

func (m *MockMedium) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ops = append(m.ops, Op{Kind: "set", Key: key})
	if err := m.setErr[key]; err != nil {
		return err
	}
	m.entries[key] = value
	return nil
}

func (m *MockMedium) Keys(prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := []string{}
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MockMedium) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ops = append(m.ops, Op{Kind: "delete", Key: key})
	if err := m.setErr[key]; err != nil {
		return err
	}
	delete(m.entries, key)
	return nil
}

// Put seeds a raw value without recording an op.
func (m *MockMedium) Put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
}

// Raw returns the stored value without recording an op.
func (m *MockMedium) Raw(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	return v, ok
}

// FailGet makes reads of key fail with err.
func (m *MockMedium) FailGet(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getErr[key] = err
}

// FailSet makes writes and deletes of key fail with err.
func (m *MockMedium) FailSet(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setErr[key] = err
}

// SlowGet delays reads of key by d.
func (m *MockMedium) SlowGet(key string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getDelay[key] = d
}

// Ops returns a copy of the recorded calls.
func (m *MockMedium) Ops() []Op {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Op(nil), m.ops...)
}

// Count returns how many calls of kind were made for key.
func (m *MockMedium) Count(kind, key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, op := range m.ops {
		if op.Kind == kind && op.Key == key {
			n++
		}
	}
	return n
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
