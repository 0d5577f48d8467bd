package main

import (
	"context"
	"time"

	"github.com/desertthunder/itx/internal/models"
	"github.com/desertthunder/itx/internal/ui"
	"github.com/urfave/cli/v3"
)

// runView is the JSON shape of a history entry.
type runView struct {
	ID          string     `json:"id"`
	Sequence    int        `json:"sequence"`
	Source      string     `json:"source"`
	Owner       string     `json:"owner"`
	Playlist    string     `json:"playlist"`
	PlaylistID  string     `json:"playlist_id,omitempty"`
	Mode        string     `json:"mode"`
	Status      string     `json:"status"`
	Records     int        `json:"records"`
	Skipped     int        `json:"skipped"`
	Searches    int        `json:"searches"`
	Matched     int        `json:"matched"`
	NotFound    int        `json:"not_found"`
	AppendCalls int        `json:"append_calls"`
	Error       string     `json:"error,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func newRunView(run *models.Run) runView {
	return runView{
		ID:          run.ID(),
		Sequence:    run.Sequence(),
		Source:      run.SourcePath(),
		Owner:       run.Owner(),
		Playlist:    run.PlaylistName(),
		PlaylistID:  run.PlaylistID(),
		Mode:        run.Mode(),
		Status:      run.Status(),
		Records:     run.RecordsTotal(),
		Skipped:     run.RecordsInvalid(),
		Searches:    run.Searches(),
		Matched:     run.TracksMatched(),
		NotFound:    run.TracksUnmatched(),
		AppendCalls: run.AppendCalls(),
		Error:       run.ErrorMessage(),
		StartedAt:   run.StartedAt(),
		CompletedAt: run.CompletedAt(),
	}
}

// History lists recorded runs, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	return r.listHistory(map[string]any{
		"limit":  cmd.Int("limit"),
		"mode":   cmd.String("mode"),
		"status": cmd.String("status"),
	}, cmd.Bool("json"))
}

func (r *Runner) listHistory(criteria map[string]any, asJSON bool) error {
	repo, err := r.history()
	if err != nil {
		return err
	}

	runs, err := repo.List(criteria)
	if err != nil {
		return err
	}

	views := make([]runView, 0, len(runs))
	for _, run := range runs {
		views = append(views, newRunView(run))
	}

	if asJSON {
		return r.writeJSON(views, true)
	}

	if len(views) == 0 {
		r.writePlain("No runs recorded.\n")
		return nil
	}

	r.writePlain("Found %d runs:\n\n", len(views))
	for _, v := range views {
		r.writePlain("#%d %s → %s (%s)\n", v.Sequence, v.Source, v.Playlist, v.Mode)
		r.writePlain("   Status: %s\n", status(v.Status))
		if v.StartedAt != nil {
			r.writePlain("   Started: %s\n", v.StartedAt.Local().Format(time.DateTime))
		}
		r.writePlain("   Records: %d (%d skipped), matched %d, not found %d, %d add calls\n",
			v.Records, v.Skipped, v.Matched, v.NotFound, v.AppendCalls)
		if v.PlaylistID != "" {
			r.writePlain("   Playlist ID: %s\n", v.PlaylistID)
		}
		if v.Error != "" {
			r.writePlain("   Error: %s\n", ui.Error(v.Error))
		}
		r.writePlain("\n")
	}

	return nil
}

func status(s string) string {
	switch s {
	case models.RunStatusCompleted:
		return ui.Success(s)
	case models.RunStatusFailed:
		return ui.Error(s)
	default:
		return ui.Warning(s)
	}
}
