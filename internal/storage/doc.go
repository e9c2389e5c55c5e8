// Package storage holds the persistence pieces under the task store.
//
// It provides:
//   - Files, the byte-level document access used by the task list
//   - Store, an append-only audit log of executed commands (file or sqlite)
package storage
