// Package storage keeps the audit trail of batch runs: one record per row
// outcome, appended as the run progresses.
//
// Drivers:
//   - "file": JSON Lines appended to <path>
//   - "sqlite": SQLite database file (modernc.org/sqlite, no cgo)
//
// The trail is write-only from the sender's point of view; nothing here is read
// back to decide what to send.
package storage
