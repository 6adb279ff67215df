package store

import (
	"context"
	"errors"
	"strings"
)

// DefaultPrefix namespaces user records in the medium.
const DefaultPrefix = "user_db_"

// Options configures a [Store]. Zero values select defaults.
type Options struct {
	Prefix    string      // defaults to [DefaultPrefix]
	Latency   Latency     // defaults to [NoLatency]
	Defaults  DefaultFunc // defaults to an empty record
	OnFailure FailureHook // defaults to discarding failures
}

// Store reads and patches records in a [Medium] through a single serialized update queue.
//
// Independent stores over the same medium do not coordinate with each other.
type Store struct {
	medium    Medium
	prefix    string
	latency   Latency
	defaults  DefaultFunc
	onFailure FailureHook
	queue     *updateQueue
}

// New creates a [Store] over medium.
func New(medium Medium, opts Options) *Store {
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	if opts.Latency == nil {
		opts.Latency = NoLatency
	}
	if opts.Defaults == nil {
		opts.Defaults = func(string) Record { return Record{} }
	}
	if opts.OnFailure == nil {
		opts.OnFailure = discardFailures
	}

	return &Store{
		medium:    medium,
		prefix:    opts.Prefix,
		latency:   opts.Latency,
		defaults:  opts.Defaults,
		onFailure: opts.OnFailure,
		queue:     newUpdateQueue(),
	}
}

// Prefix returns the string prepended to every key in the medium.
func (s *Store) Prefix() string {
	return s.prefix
}

// FetchOrCreate returns the record for key, creating and persisting the default record if none exists.
//
// A persisted value that cannot be decoded counts as absent and is replaced by the default.
// The only errors are [ErrEmptyKey] and ctx.Err() if the caller stops waiting for a creation;
// the creation itself still completes.
func (s *Store) FetchOrCreate(ctx context.Context, key string) (Record, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	if r, ok := s.read("fetch", key); ok {
		return r, nil
	}

	var created Record
	done := s.queue.enqueue(func() {
		if r, ok := s.read("create", key); ok {
			created = r
			return
		}
		created = s.defaults(key)
		s.write("create", key, created)
		// Hand back what a later read would decode, not the caller-built value.
		if c, err := created.Clone(); err == nil {
			created = c
		}
	})

	select {
	case <-done:
		return created, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Submit enqueues patch for key and returns a channel closed once the patch has been persisted,
// or dropped because key has no record.
//
// Patches are applied in the order Submit is called, across all keys.
func (s *Store) Submit(key string, patch Patch) <-chan struct{} {
	if key == "" {
		done := make(chan struct{})
		close(done)
		return done
	}

	return s.queue.enqueue(func() {
		existing, ok := s.read("update", key)
		if !ok {
			s.onFailure(Failure{Kind: MissingKeyOnUpdate, Op: "update", Key: key, Err: ErrMissingKey})
			return
		}
		s.write("update", key, existing.Merge(patch))
	})
}

// Update submits patch for key and waits for it to be applied.
//
// It returns [ErrEmptyKey] or ctx.Err() when the caller stops waiting; the queued patch is never cancelled.
func (s *Store) Update(ctx context.Context, key string, patch Patch) error {
	if key == "" {
		return ErrEmptyKey
	}

	select {
	case <-s.Submit(key, patch):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Keys lists the keys with a persisted record, without the prefix.
//
// It returns [ErrUnsupported] when the medium cannot enumerate keys.
func (s *Store) Keys() ([]string, error) {
	lister, ok := s.medium.(Lister)
	if !ok {
		return nil, ErrUnsupported
	}

	s.latency.Wait()
	full, err := lister.Keys(s.prefix)
	if err != nil {
		return nil, errors.Join(ErrDurableRead, err)
	}

	keys := make([]string, 0, len(full))
	for _, k := range full {
		keys = append(keys, strings.TrimPrefix(k, s.prefix))
	}
	return keys, nil
}

// Delete removes the record for key. It is queued behind earlier patches so it never splits a
// read-modify-write cycle; a later read recreates the default record.
//
// It returns [ErrUnsupported] when the medium cannot delete, or the medium's error wrapped with [ErrDurableWrite].
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	deleter, ok := s.medium.(Deleter)
	if !ok {
		return ErrUnsupported
	}

	var err error
	done := s.queue.enqueue(func() {
		s.latency.Wait()
		if e := deleter.Delete(s.prefix + key); e != nil {
			err = errors.Join(ErrDurableWrite, e)
		}
	})

	select {
	case <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush waits until every task queued before the call has completed.
func (s *Store) Flush(ctx context.Context) error {
	select {
	case <-s.queue.enqueue(func() {}):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of queued tasks, including one being applied.
func (s *Store) Pending() int {
	return s.queue.pending()
}

// read fetches and decodes key. Any failure is reported and treated as absent.
func (s *Store) read(op, key string) (Record, bool) {
	s.latency.Wait()

	data, ok, err := s.medium.Get(s.prefix + key)
	if err != nil {
		s.onFailure(Failure{Kind: DurableReadFailure, Op: op, Key: key, Err: errors.Join(ErrDurableRead, err)})
		return nil, false
	}
	if !ok {
		return nil, false
	}

	r, err := decodeRecord(data)
	if err != nil {
		s.onFailure(Failure{Kind: DeserializationFailure, Op: op, Key: key, Err: err})
		return nil, false
	}
	return r, true
}

// write encodes and persists r. Failures are reported and the write is dropped.
func (s *Store) write(op, key string, r Record) {
	data, err := encodeRecord(r)
	if err != nil {
		s.onFailure(Failure{Kind: DurableWriteFailure, Op: op, Key: key, Err: err})
		return
	}

	s.latency.Wait()

	if err := s.medium.Set(s.prefix+key, data); err != nil {
		s.onFailure(Failure{Kind: DurableWriteFailure, Op: op, Key: key, Err: errors.Join(ErrDurableWrite, err)})
	}
}
