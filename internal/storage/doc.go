// Package storage defines the persistence boundary for the contract.
//
// The contract keeps its whole state under one key and replaces it on every
// mutation, so the boundary is a plain key-value store with two kinds of
// transaction: View for reads and Update for read-modify-write. An Update
// whose callback returns an error commits nothing.
//
// Implementations live in subpackages:
//   - memory: process-local map, used by tests and the scenario runner.
//   - bbolt: single-file BoltDB store, the default for the server.
//   - sqlite: SQLite table via modernc.org/sqlite.
//   - redis: networked store using optimistic WATCH/MULTI transactions.
//
// # Error Types
//
//   - ErrNotFound: Get on a key that was never set.
//   - ErrReadOnly: Set inside a View transaction.
package storage
