// package tasks implements the library ingest run.
//
// The core abstraction is IngestEngine, which loads a library file, resolves its records against a
// catalog and submits the matches to a new playlist. Runs emit progress updates via channels for
// non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/itx/internal/library"
	"github.com/desertthunder/itx/internal/services"
	"github.com/desertthunder/itx/internal/shared"
)

// RunOptions describes a single ingest run.
type RunOptions struct {
	Path        string // library XML file
	Owner       string // catalog user that owns the new playlist
	Playlist    string // playlist name
	Description string
	Public      bool
	Mode        Mode // empty means TrackMode
}

func (o RunOptions) validate() error {
	switch {
	case o.Path == "":
		return fmt.Errorf("%w: library path", shared.ErrMissingArgument)
	case o.Owner == "":
		return fmt.Errorf("%w: user", shared.ErrMissingArgument)
	case o.Playlist == "":
		return fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}
	return nil
}

// RunResult contains the counts and outcomes of an ingest run.
type RunResult struct {
	ID          string
	Options     RunOptions
	Playlist    *services.Playlist
	Total       int                  // track entries in the library
	Valid       int                  // records passed to the resolver
	Invalid     []library.Validation // records dropped by validation
	Searches    int
	IDs         []string // submitted catalog ids, in order
	Unmatched   []Unmatched
	AppendCalls int
	StartedAt   time.Time
	CompletedAt time.Time
}

// Duration reports how long the run took.
func (r *RunResult) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// RunRecorder persists run history. Implemented by repositories.RunRecorder.
type RunRecorder interface {
	// RunStarted is called once the library has been read, before any catalog call.
	RunStarted(ctx context.Context, result *RunResult) error
	// RunFinished is called with the final result and the error that ended the run, if any.
	RunFinished(ctx context.Context, result *RunResult, runErr error) error
}

// IngestEngine runs library ingests against a single catalog session.
type IngestEngine struct {
	catalog   services.Service
	recorder  RunRecorder
	logger    *log.Logger
	submitter Submitter
	now       func() time.Time
}

// NewIngestEngine creates an engine bound to catalog. A nil logger discards diagnostics.
func NewIngestEngine(catalog services.Service, logger *log.Logger) *IngestEngine {
	return &IngestEngine{
		catalog:   catalog,
		logger:    logger,
		submitter: Submitter{Size: PlaylistTrackLimit},
		now:       time.Now,
	}
}

// SetRunRecorder enables run history. Recorder failures are logged and never fail a run.
func (e *IngestEngine) SetRunRecorder(r RunRecorder) {
	e.recorder = r
}

// Inspect reads and validates a library without contacting the catalog.
func Inspect(path string, mode Mode) (*library.Library, []library.AlbumKey, error) {
	lib, err := library.Load(path)
	if err != nil {
		return nil, nil, err
	}

	var albums []library.AlbumKey
	if mode == AlbumMode {
		albums = library.UniqueAlbums(lib.Valid)
	}
	return lib, albums, nil
}

// Run performs an ingest: read the library, create the playlist, resolve records, then submit ids in chunks.
//
// The library is read before the playlist is created so that malformed input never leaves an empty playlist
// behind. The returned result is non-nil whenever the library was read, including when a later step fails.
func (e *IngestEngine) Run(ctx context.Context, opts RunOptions, progress chan<- ProgressUpdate) (*RunResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog service not initialized", shared.ErrServiceUnavailable)
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if opts.Mode == "" {
		opts.Mode = TrackMode
	}

	resolver, err := NewResolver(opts.Mode, e.logger)
	if err != nil {
		return nil, err
	}

	result := &RunResult{ID: shared.GenerateID(), Options: opts, StartedAt: e.now()}

	sendProgress(progress, loadingLibraryUpdate(opts.Path))
	lib, err := library.Load(opts.Path)
	if err != nil {
		return nil, err
	}

	result.Total = lib.Total
	result.Valid = len(lib.Valid)
	result.Invalid = lib.Invalid
	for _, v := range lib.Invalid {
		e.warn("skipping record", "record", v.Record(), "error", v.Err())
	}
	sendProgress(progress, loadedLibraryUpdate(lib))

	e.recordStart(ctx, result)
	err = e.run(ctx, opts, resolver, lib.Valid, result, progress)
	result.CompletedAt = e.now()
	e.recordFinish(ctx, result, err)

	return result, err
}

func (e *IngestEngine) run(ctx context.Context, opts RunOptions, resolver Resolver, records []library.Record, result *RunResult, progress chan<- ProgressUpdate) error {
	sendProgress(progress, createPlaylistUpdate(0, opts.Playlist))
	playlist, err := e.catalog.CreatePlaylist(ctx, opts.Owner, opts.Playlist, opts.Description, opts.Public)
	if err != nil {
		return fmt.Errorf("create playlist: %w", err)
	}
	result.Playlist = playlist
	sendProgress(progress, playlistCreatedUpdate(playlist))

	resolution, err := resolver.Resolve(ctx, e.catalog, records, progress)
	if err != nil {
		return err
	}
	result.Searches = resolution.Searches
	result.IDs = resolution.IDs
	result.Unmatched = resolution.Unmatched

	calls, err := e.submitter.Submit(ctx, e.catalog, playlist.ID, resolution.IDs, progress)
	result.AppendCalls = calls
	if err != nil {
		return fmt.Errorf("add tracks: %w", err)
	}
	return nil
}

func (e *IngestEngine) recordStart(ctx context.Context, result *RunResult) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.RunStarted(ctx, result); err != nil {
		e.warn("failed to record run start", "run", result.ID, "error", err)
	}
}

func (e *IngestEngine) recordFinish(ctx context.Context, result *RunResult, runErr error) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.RunFinished(context.WithoutCancel(ctx), result, runErr); err != nil {
		e.warn("failed to record run result", "run", result.ID, "error", err)
	}
}

func (e *IngestEngine) warn(msg string, keyvals ...any) {
	if e.logger != nil {
		e.logger.Warn(msg, keyvals...)
	}
}
