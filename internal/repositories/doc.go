// Package repositories implements SQLite persistence for run history.
//
// Key Implementations:
//   - [RunRepository] : run CRUD with soft deletes and mode/status/owner queries
//   - [RunRecorder] : adapter that lets tasks.IngestEngine write history as runs start and finish
//
// History is write-mostly: the ingest never reads it back, so re-running a library always searches again.
//
// Sequence numbers provide stable, human-readable ordering (e.g., run #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
