// Package tasks turns a library file into a populated catalog playlist with real-time progress reporting.
//
// # Run
//
// [IngestEngine.Run] performs one ingest:
//
//  1. Reads the library with [library.Load]; structural errors abort before any catalog call
//  2. Creates the destination playlist
//  3. Resolves the valid records with the [Resolver] for the run's [Mode]
//  4. Appends the resolved ids with a [Submitter], [PlaylistTrackLimit] ids per call
//
// Every run creates a new playlist, so repeating a run duplicates it.
//
// # Resolution Strategies
//
//   - [TrackStrategy] : one search per record, first result wins
//   - [AlbumStrategy] : one search per unique (Artist, Album) pair, then the full track list of each match
//
// A search without results is logged and reported in [Resolution.Unmatched]. Any other error ends the run.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Run History
//
// The optional [RunRecorder] interface is notified when a run starts and finishes.
// Recorder errors are logged and ignored so history never disrupts an ingest.
package tasks
