// Package repositories implements the durable media user records are persisted in.
//
// Both implementations satisfy store.Medium and store.Lister:
//   - [EntryRepository] : SQLite table of key/value entries with an append-only write log
//   - [BoltMedium] : a single bbolt bucket for embedded single-file deployments
//
// Values are opaque strings; encoding and merging of records happen in the store package.
package repositories
