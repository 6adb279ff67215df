// Package store persists per-user records in a durable key-value [Medium] and serializes every mutation.
//
// # Records
//
// A [Record] is an opaque JSON object stored under prefix + key (for example "user_db_alice").
// Nothing is cached between operations: every read re-fetches from the medium and every write re-persists.
//
// # Operations
//
//  1. [Store.FetchOrCreate] : read a record, creating and persisting the default record on a miss
//  2. [Store.Submit] : enqueue a shallow-merge patch and receive a completion channel
//  3. [Store.Update] : submit a patch and wait for it
//  4. [Store.Delete] : queue removal of a record on media implementing [Deleter]
//  5. [Store.Flush] : wait for everything queued so far
//
// # Update Queue
//
// All patches, whatever their key, go through one FIFO owned by the [Store].
// The queue drains one task at a time (read, merge, write) so two read-modify-write
// cycles never overlap. A patch for a key with no record is dropped.
//
// The create path of [Store.FetchOrCreate] runs through the same queue as a
// create-if-absent task, so concurrent first reads of one key persist a single default record.
//
// # Failures
//
// Medium errors never reach the caller. They are reported to the [FailureHook]
// and the affected read or write is treated as a no-op. [LogHook] reports them through a charmbracelet logger.
//
// # Latency
//
// Every medium access waits on a [Latency] strategy first. Use [NoLatency] in tests,
// [FixedLatency] to model a network round-trip and [RateLatency] to model a throughput-limited backend.
package store
