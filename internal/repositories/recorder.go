package repositories

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/itx/internal/models"
	"github.com/desertthunder/itx/internal/tasks"
)

var _ tasks.RunRecorder = (*RunRecorder)(nil)

// RunRecorder implements tasks.RunRecorder using RunRepository.
//
// A row is inserted in the running state when a run starts and updated with its counts and status when it finishes.
type RunRecorder struct {
	repo *RunRepository
	mu   sync.Mutex
	runs map[string]*models.Run
}

// NewRunRecorder creates a new RunRecorder with the given repository
func NewRunRecorder(repo *RunRepository) *RunRecorder {
	return &RunRecorder{repo: repo, runs: make(map[string]*models.Run)}
}

// RunStarted inserts a running row keyed by the run's id.
func (a *RunRecorder) RunStarted(ctx context.Context, result *tasks.RunResult) error {
	opts := result.Options
	run := models.NewRun(0, opts.Path, opts.Owner, opts.Playlist, string(opts.Mode))
	run.SetID(result.ID)
	started := result.StartedAt
	run.SetStartedAt(&started)
	run.SetRecords(result.Total, len(result.Invalid))

	if err := a.repo.Create(run); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	a.mu.Lock()
	a.runs[run.ID()] = run
	a.mu.Unlock()
	return nil
}

// RunFinished stores the final counts and marks the run completed or failed.
func (a *RunRecorder) RunFinished(ctx context.Context, result *tasks.RunResult, runErr error) error {
	a.mu.Lock()
	run, ok := a.runs[result.ID]
	delete(a.runs, result.ID)
	a.mu.Unlock()

	if !ok {
		var err error
		if run, err = a.repo.Get(result.ID); err != nil {
			return err
		}
	}

	if result.Playlist != nil {
		run.SetPlaylistID(result.Playlist.ID)
	}
	run.SetRecords(result.Total, len(result.Invalid))
	run.SetSearches(result.Searches)
	run.SetTracks(len(result.IDs), len(result.Unmatched))
	run.SetAppendCalls(result.AppendCalls)
	run.Complete(result.CompletedAt, runErr)

	if err := a.repo.Update(run); err != nil {
		return fmt.Errorf("failed to record run result: %w", err)
	}
	return nil
}
