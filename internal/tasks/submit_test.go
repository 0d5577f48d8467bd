package tasks

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/desertthunder/itx/internal/shared"
	tu "github.com/desertthunder/itx/internal/testing"
)

func makeIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("id-%03d", i)
	}
	return ids
}

func TestChunk(t *testing.T) {
	for _, m := range []int{0, 1, 99, 100, 101, 199, 200, 250, 1000} {
		t.Run(fmt.Sprintf("%d ids", m), func(t *testing.T) {
			ids := makeIDs(m)
			chunks := Chunk(ids, 100)

			if want := (m + 99) / 100; len(chunks) != want {
				t.Errorf("expected %d chunks, got %d", want, len(chunks))
			}

			var joined []string
			for i, chunk := range chunks {
				if len(chunk) == 0 || len(chunk) > 100 {
					t.Errorf("chunk %d has %d ids", i, len(chunk))
				}
				if i < len(chunks)-1 && len(chunk) != 100 {
					t.Errorf("non-final chunk %d has %d ids", i, len(chunk))
				}
				joined = append(joined, chunk...)
			}

			if !slices.Equal(joined, ids) {
				t.Error("chunks do not reconstruct the input")
			}
		})
	}

	t.Run("Invalid Size", func(t *testing.T) {
		if chunks := Chunk(makeIDs(3), 0); chunks != nil {
			t.Errorf("expected nil, got %v", chunks)
		}
	})

	t.Run("Chunks Do Not Alias", func(t *testing.T) {
		ids := makeIDs(4)
		chunks := Chunk(ids, 2)
		_ = append(chunks[0], "extra")

		if ids[2] != "id-002" {
			t.Errorf("append to a chunk overwrote the input: %v", ids)
		}
	})
}

func TestSubmitter(t *testing.T) {
	ctx := context.Background()

	t.Run("250 IDs", func(t *testing.T) {
		catalog := &tu.MockService{}
		ids := makeIDs(250)

		calls, err := Submitter{}.Submit(ctx, catalog, "p1", ids, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if calls != 3 || len(catalog.AddCalls) != 3 {
			t.Fatalf("expected 3 calls, got %d", len(catalog.AddCalls))
		}
		for i, want := range []int{100, 100, 50} {
			if got := len(catalog.AddCalls[i]); got != want {
				t.Errorf("call %d: expected %d ids, got %d", i+1, want, got)
			}
		}
		if !slices.Equal(catalog.AddedIDs(), ids) {
			t.Error("submitted ids are out of order")
		}
	})

	t.Run("No IDs", func(t *testing.T) {
		catalog := &tu.MockService{}

		calls, err := Submitter{}.Submit(ctx, catalog, "p1", nil, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 0 || len(catalog.AddCalls) != 0 {
			t.Errorf("expected no calls, got %d", calls)
		}
	})

	t.Run("First Failure Aborts", func(t *testing.T) {
		catalog := &tu.MockService{AddErr: shared.ErrAPIRequest, AddErrAt: 2}

		calls, err := Submitter{}.Submit(ctx, catalog, "p1", makeIDs(350), nil)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		if calls != 2 || len(catalog.AddCalls) != 2 {
			t.Errorf("expected submission to stop after call 2, got %d", len(catalog.AddCalls))
		}
	})

	t.Run("Custom Size", func(t *testing.T) {
		catalog := &tu.MockService{}

		calls, err := Submitter{Size: 10}.Submit(ctx, catalog, "p1", makeIDs(25), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 3 {
			t.Errorf("expected 3 calls, got %d", calls)
		}
	})

	t.Run("Size Above Limit", func(t *testing.T) {
		_, err := Submitter{Size: PlaylistTrackLimit + 1}.Submit(ctx, &tu.MockService{}, "p1", makeIDs(1), nil)
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Progress", func(t *testing.T) {
		progress := make(chan ProgressUpdate, 10)

		if _, err := (Submitter{}).Submit(ctx, &tu.MockService{}, "p1", makeIDs(150), progress); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		close(progress)

		var steps []int
		for update := range progress {
			if update.Phase != SubmitTracks || update.Total != 2 {
				t.Errorf("unexpected update %+v", update)
			}
			steps = append(steps, update.Step)
		}
		if !slices.Equal(steps, []int{1, 2}) {
			t.Errorf("unexpected steps %v", steps)
		}
	})
}
