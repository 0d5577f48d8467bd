package models

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/itx/internal/shared"
)

func TestRun(t *testing.T) {
	t.Run("NewRun", func(t *testing.T) {
		run := NewRun(3, "Library.xml", "u1", "Imported", "track")

		if run.Status() != RunStatusRunning {
			t.Errorf("expected status running, got %s", run.Status())
		}
		if run.Sequence() != 3 || run.Owner() != "u1" || run.PlaylistName() != "Imported" {
			t.Errorf("unexpected run %+v", run)
		}
		if run.CreatedAt().IsZero() || !run.CreatedAt().Equal(run.UpdatedAt()) {
			t.Error("expected matching created and updated timestamps")
		}
		if err := run.Validate(); err != nil {
			t.Errorf("expected valid run, got %v", err)
		}
	})

	t.Run("Complete", func(t *testing.T) {
		start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

		run := NewRun(1, "Library.xml", "u1", "Imported", "album")
		run.SetStartedAt(&start)
		run.Complete(start.Add(2*time.Second), nil)

		if run.Status() != RunStatusCompleted || run.ErrorMessage() != "" {
			t.Errorf("unexpected completed run: %s %q", run.Status(), run.ErrorMessage())
		}
		if run.Duration() != 2*time.Second {
			t.Errorf("expected 2s, got %s", run.Duration())
		}

		run.Complete(start.Add(3*time.Second), errors.New("search failed"))
		if run.Status() != RunStatusFailed || run.ErrorMessage() != "search failed" {
			t.Errorf("unexpected failed run: %s %q", run.Status(), run.ErrorMessage())
		}
	})

	t.Run("Duration Without Timestamps", func(t *testing.T) {
		if d := NewRun(1, "a", "b", "c", "track").Duration(); d != 0 {
			t.Errorf("expected zero duration, got %s", d)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tests := []struct {
			name   string
			modify func(*Run)
		}{
			{"missing source", func(r *Run) { r.sourcePath = "" }},
			{"missing owner", func(r *Run) { r.owner = "" }},
			{"missing playlist", func(r *Run) { r.playlistName = "" }},
			{"unknown mode", func(r *Run) { r.mode = "artist" }},
			{"unknown status", func(r *Run) { r.SetStatus("paused") }},
			{"invalid exceeds total", func(r *Run) { r.SetRecords(2, 3) }},
			{"negative count", func(r *Run) { r.SetAppendCalls(-1) }},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				run := NewRun(1, "Library.xml", "u1", "Imported", "track")
				tt.modify(run)

				if err := run.Validate(); !errors.Is(err, shared.ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got %v", err)
				}
			})
		}
	})
}
