package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/itx/internal/services"
	"github.com/desertthunder/itx/internal/shared"
)

// PlaylistTrackLimit is the most track ids one append call may carry.
const PlaylistTrackLimit = services.MaxTracksPerRequest

// Chunk splits ids into consecutive slices of at most size elements.
//
// Concatenating the chunks yields ids. Every chunk but the last has exactly size elements.
func Chunk(ids []string, size int) [][]string {
	if size <= 0 || len(ids) == 0 {
		return nil
	}

	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end:end])
	}
	return chunks
}

// Submitter appends ids to a playlist in ordered chunks.
type Submitter struct {
	Size int // chunk size; zero means [PlaylistTrackLimit]
}

// Submit appends ids to playlistID one chunk at a time and returns the number of calls made.
//
// The first failing call aborts; later chunks are not sent.
func (s Submitter) Submit(ctx context.Context, svc services.Service, playlistID string, ids []string, progress chan<- ProgressUpdate) (int, error) {
	size := s.Size
	if size == 0 {
		size = PlaylistTrackLimit
	}
	if size < 0 || size > PlaylistTrackLimit {
		return 0, fmt.Errorf("%w: chunk size %d outside 1..%d", shared.ErrInvalidArgument, size, PlaylistTrackLimit)
	}

	chunks := Chunk(ids, size)
	calls := 0
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return calls, err
		}

		sendProgress(progress, submitUpdate(i+1, len(chunks), len(chunk)))

		calls++
		if err := svc.AddTracks(ctx, playlistID, chunk); err != nil {
			return calls, fmt.Errorf("chunk %d of %d: %w", i+1, len(chunks), err)
		}
	}
	return calls, nil
}
