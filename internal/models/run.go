package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/itx/internal/shared"
)

// Run statuses
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run is a recorded ingest run.
type Run struct {
	id              string
	sequence        int
	sourcePath      string
	owner           string
	playlistName    string
	playlistID      string
	mode            string
	status          string
	recordsTotal    int
	recordsInvalid  int
	searches        int
	tracksMatched   int
	tracksUnmatched int
	appendCalls     int
	errorMessage    string
	startedAt       *time.Time
	completedAt     *time.Time
	createdAt       time.Time
	updatedAt       time.Time
	deletedAt       *time.Time
}

// NewRun creates a run in the running state.
func NewRun(sequence int, sourcePath, owner, playlistName, mode string) *Run {
	now := time.Now()
	return &Run{
		sequence:     sequence,
		sourcePath:   sourcePath,
		owner:        owner,
		playlistName: playlistName,
		mode:         mode,
		status:       RunStatusRunning,
		createdAt:    now,
		updatedAt:    now,
	}
}

func (r *Run) ID() string              { return r.id }
func (r *Run) Sequence() int           { return r.sequence }
func (r *Run) SourcePath() string      { return r.sourcePath }
func (r *Run) Owner() string           { return r.owner }
func (r *Run) PlaylistName() string    { return r.playlistName }
func (r *Run) PlaylistID() string      { return r.playlistID }
func (r *Run) Mode() string            { return r.mode }
func (r *Run) Status() string          { return r.status }
func (r *Run) RecordsTotal() int       { return r.recordsTotal }
func (r *Run) RecordsInvalid() int     { return r.recordsInvalid }
func (r *Run) Searches() int           { return r.searches }
func (r *Run) TracksMatched() int      { return r.tracksMatched }
func (r *Run) TracksUnmatched() int    { return r.tracksUnmatched }
func (r *Run) AppendCalls() int        { return r.appendCalls }
func (r *Run) ErrorMessage() string    { return r.errorMessage }
func (r *Run) StartedAt() *time.Time   { return r.startedAt }
func (r *Run) CompletedAt() *time.Time { return r.completedAt }
func (r *Run) CreatedAt() time.Time    { return r.createdAt }
func (r *Run) UpdatedAt() time.Time    { return r.updatedAt }
func (r *Run) DeletedAt() *time.Time   { return r.deletedAt }

func (r *Run) SetID(id string)                  { r.id = id }
func (r *Run) SetSequence(sequence int)         { r.sequence = sequence }
func (r *Run) SetPlaylistID(id string)          { r.playlistID = id }
func (r *Run) SetStatus(status string)          { r.status = status }
func (r *Run) SetErrorMessage(msg string)       { r.errorMessage = msg }
func (r *Run) SetStartedAt(t *time.Time)        { r.startedAt = t }
func (r *Run) SetCompletedAt(t *time.Time)      { r.completedAt = t }
func (r *Run) SetCreatedAt(t time.Time)         { r.createdAt = t }
func (r *Run) SetUpdatedAt(t time.Time)         { r.updatedAt = t }
func (r *Run) SetDeletedAt(t *time.Time)        { r.deletedAt = t }
func (r *Run) SetAppendCalls(calls int)         { r.appendCalls = calls }
func (r *Run) SetSearches(searches int)         { r.searches = searches }
func (r *Run) SetRecords(total, invalid int)    { r.recordsTotal, r.recordsInvalid = total, invalid }
func (r *Run) SetTracks(matched, unmatched int) { r.tracksMatched, r.tracksUnmatched = matched, unmatched }

// Complete marks the run finished at t, as failed when err is non-nil.
func (r *Run) Complete(t time.Time, err error) {
	r.completedAt = &t
	if err != nil {
		r.status = RunStatusFailed
		r.errorMessage = err.Error()
		return
	}
	r.status = RunStatusCompleted
	r.errorMessage = ""
}

// Duration returns the elapsed time of a finished run, or zero.
func (r *Run) Duration() time.Duration {
	if r.startedAt == nil || r.completedAt == nil {
		return 0
	}
	return r.completedAt.Sub(*r.startedAt)
}

// Validate checks required fields and count consistency.
func (r *Run) Validate() error {
	switch {
	case r.sourcePath == "":
		return fmt.Errorf("%w: source path is required", shared.ErrInvalidArgument)
	case r.owner == "":
		return fmt.Errorf("%w: owner is required", shared.ErrInvalidArgument)
	case r.playlistName == "":
		return fmt.Errorf("%w: playlist name is required", shared.ErrInvalidArgument)
	case r.mode != "track" && r.mode != "album":
		return fmt.Errorf("%w: invalid mode %q", shared.ErrInvalidArgument, r.mode)
	}

	switch r.status {
	case RunStatusRunning, RunStatusCompleted, RunStatusFailed:
	default:
		return fmt.Errorf("%w: invalid status %q", shared.ErrInvalidArgument, r.status)
	}

	if r.recordsInvalid < 0 || r.recordsInvalid > r.recordsTotal {
		return fmt.Errorf("%w: invalid records %d exceed total %d", shared.ErrInvalidArgument, r.recordsInvalid, r.recordsTotal)
	}
	if r.searches < 0 || r.tracksMatched < 0 || r.tracksUnmatched < 0 || r.appendCalls < 0 {
		return fmt.Errorf("%w: counts must not be negative", shared.ErrInvalidArgument)
	}
	return nil
}
