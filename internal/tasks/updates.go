package tasks

import (
	"fmt"

	"github.com/desertthunder/itx/internal/library"
	"github.com/desertthunder/itx/internal/services"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	LoadLibrary Phase = iota
	CreatePlaylist
	SearchTracks
	SearchAlbums
	ExpandAlbums
	SubmitTracks
)

func (p Phase) String() string {
	switch p {
	case LoadLibrary:
		return "load_library"
	case CreatePlaylist:
		return "create_playlist"
	case SearchTracks:
		return "search_tracks"
	case SearchAlbums:
		return "search_albums"
	case ExpandAlbums:
		return "expand_albums"
	case SubmitTracks:
		return "submit_tracks"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func loadingLibraryUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadLibrary,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Reading library %s...", path),
	}
}

func loadedLibraryUpdate(lib *library.Library) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadLibrary,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d tracks (%d valid, %d skipped)", lib.Total, len(lib.Valid), len(lib.Invalid)),
		Data:    lib,
	}
}

func createPlaylistUpdate(step int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    step,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist %s...", name),
	}
}

func playlistCreatedUpdate(pl *services.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", pl.Name, pl.ID),
		Data:    pl,
	}
}

func searchTrackUpdate(step, total int, r library.Record) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, r.Artist(), r.Name()),
	}
}

func searchAlbumUpdate(step, total int, key library.AlbumKey) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchAlbums,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, key),
	}
}

func expandAlbumUpdate(step, total int, key library.AlbumKey, tracks int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExpandAlbums,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s (%d tracks)", step, total, key, tracks),
	}
}

func notFoundUpdate(phase Phase, step, total int, u Unmatched) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ not found: %s", step, total, u.Query),
		Data:    u,
	}
}

func submitUpdate(step, total, size int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SubmitTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Adding %d tracks...", step, total, size),
	}
}
