// Package models defines persistent entities for the itx run history.
//
//   - [Run] : one ingest run with its counts, status, and destination playlist
//
// Entities implement the [Model] interface providing ID, timestamps, validation, and soft delete support.
// The [Repository] interface defines standard CRUD operations for database access.
package models
