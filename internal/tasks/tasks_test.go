package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/desertthunder/itx/internal/library"
	"github.com/desertthunder/itx/internal/services"
	"github.com/desertthunder/itx/internal/shared"
	tu "github.com/desertthunder/itx/internal/testing"
)

// writeLibrary writes a library document holding one track entry per field list and returns its path.
//
// Each field list alternates keys and values.
func writeLibrary(t *testing.T, tracks ...[]string) string {
	t.Helper()

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<plist version="1.0"><dict><key>Major Version</key><integer>1</integer><key>Tracks</key><dict>`)
	for i, fields := range tracks {
		b.WriteString("<key>" + strconv.Itoa(i+1) + "</key><dict>")
		for j, field := range fields {
			if j%2 == 0 {
				b.WriteString("<key>" + field + "</key>")
			} else {
				b.WriteString("<string>" + field + "</string>")
			}
		}
		b.WriteString("</dict>")
	}
	b.WriteString(`</dict></dict></plist>`)

	path := filepath.Join(t.TempDir(), "Library.xml")
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatalf("write library: %v", err)
	}
	return path
}

func track(name, artist, album string) []string {
	return []string{"Name", name, "Artist", artist, "Album", album}
}

type recorderCall struct {
	event string
	err   error
}

type mockRecorder struct {
	calls []recorderCall
	err   error
}

func (m *mockRecorder) RunStarted(ctx context.Context, result *RunResult) error {
	m.calls = append(m.calls, recorderCall{event: "started"})
	return m.err
}

func (m *mockRecorder) RunFinished(ctx context.Context, result *RunResult, runErr error) error {
	m.calls = append(m.calls, recorderCall{event: "finished", err: runErr})
	return m.err
}

func TestIngestEngine_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("Track Mode Skips Incomplete Records", func(t *testing.T) {
		path := writeLibrary(t,
			track("One", "A", "X"),
			[]string{"Name", "Two", "Artist", "A"},
			track("Three", "B", "Y"),
		)
		catalog := &tu.MockService{Tracks: map[string][]services.Track{
			"artist:A track:One album:X":   {{ID: "t1"}},
			"artist:B track:Three album:Y": {{ID: "t3"}},
		}}

		result, err := NewIngestEngine(catalog, nil).Run(ctx, RunOptions{
			Path: path, Owner: "u1", Playlist: "Imported", Mode: TrackMode,
		}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.Total != 3 || result.Valid != 2 || len(result.Invalid) != 1 {
			t.Errorf("expected 3 total, 2 valid, 1 invalid, got %d/%d/%d", result.Total, result.Valid, len(result.Invalid))
		}
		if result.Invalid[0].Reason() != "missing Album" {
			t.Errorf("unexpected reason %q", result.Invalid[0].Reason())
		}
		if len(catalog.Queries) != 2 {
			t.Errorf("expected 2 searches, got %v", catalog.Queries)
		}
		for _, q := range catalog.Queries {
			if strings.Contains(q, "Two") {
				t.Errorf("incomplete record reached the resolver: %q", q)
			}
		}
		if len(catalog.AddCalls) != 1 || !slices.Equal(catalog.AddCalls[0], []string{"t1", "t3"}) {
			t.Errorf("expected one call with [t1 t3], got %v", catalog.AddCalls)
		}
		if result.AppendCalls != 1 {
			t.Errorf("expected 1 append call, got %d", result.AppendCalls)
		}

		if len(catalog.Created) != 1 {
			t.Fatalf("expected one playlist, got %d", len(catalog.Created))
		}
		pl := catalog.Created[0]
		if pl.Owner != "u1" || pl.Name != "Imported" || pl.Public {
			t.Errorf("unexpected playlist %+v", pl)
		}
		if result.Playlist.ID != pl.ID {
			t.Errorf("expected result playlist %s, got %s", pl.ID, result.Playlist.ID)
		}
	})

	t.Run("Album Mode", func(t *testing.T) {
		path := writeLibrary(t,
			track("One", "A", "X"),
			track("Two", "A", "X"),
			track("Uno", "B", "Y"),
			track("Three", "A", "X"),
			track("Dos", "B", "Y"),
		)
		catalog := &tu.MockService{
			Albums: map[string][]services.Album{
				"artist:A album:X": {{ID: "ax"}},
				"artist:B album:Y": {{ID: "ay"}},
			},
			AlbumTrackLists: map[string][]services.Track{
				"ax": {{ID: "x1"}, {ID: "x2"}},
				"ay": {{ID: "y1"}},
			},
		}

		result, err := NewIngestEngine(catalog, nil).Run(ctx, RunOptions{
			Path: path, Owner: "u1", Playlist: "Albums", Mode: AlbumMode,
		}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.Searches != 2 {
			t.Errorf("expected 2 album searches, got %d", result.Searches)
		}
		if !slices.Equal(catalog.AddedIDs(), []string{"x1", "x2", "y1"}) {
			t.Errorf("unexpected ids %v", catalog.AddedIDs())
		}
	})

	t.Run("Chunks Large Libraries", func(t *testing.T) {
		tracks := make([][]string, 250)
		results := map[string][]services.Track{}
		var want []string
		for i := range tracks {
			name := "Song" + strings.Repeat("x", i)
			tracks[i] = track(name, "A", "X")
			id := "t" + strings.Repeat("1", i+1)
			results["artist:A track:"+name+" album:X"] = []services.Track{{ID: id}}
			want = append(want, id)
		}
		catalog := &tu.MockService{Tracks: results}

		result, err := NewIngestEngine(catalog, nil).Run(ctx, RunOptions{
			Path: writeLibrary(t, tracks...), Owner: "u1", Playlist: "Big",
		}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.AppendCalls != 3 {
			t.Errorf("expected 3 append calls, got %d", result.AppendCalls)
		}
		if !slices.Equal(catalog.AddedIDs(), want) {
			t.Error("submitted ids are out of order")
		}
	})

	t.Run("Runs Are Not Idempotent", func(t *testing.T) {
		path := writeLibrary(t, track("One", "A", "X"))
		catalog := &tu.MockService{Tracks: map[string][]services.Track{
			"artist:A track:One album:X": {{ID: "t1"}},
		}}
		engine := NewIngestEngine(catalog, nil)
		opts := RunOptions{Path: path, Owner: "u1", Playlist: "Again"}

		first, err := engine.Run(ctx, opts, nil)
		if err != nil {
			t.Fatalf("first run: %v", err)
		}
		second, err := engine.Run(ctx, opts, nil)
		if err != nil {
			t.Fatalf("second run: %v", err)
		}

		if len(catalog.Created) != 2 || first.Playlist.ID == second.Playlist.ID {
			t.Errorf("expected two distinct playlists, got %v", catalog.Created)
		}
		if len(catalog.Queries) != 2 {
			t.Errorf("expected every record to be searched again, got %d searches", len(catalog.Queries))
		}
		if first.ID == second.ID {
			t.Error("expected distinct run ids")
		}
	})

	t.Run("Structural Errors Abort Before Catalog Calls", func(t *testing.T) {
		tests := []struct {
			name string
			path func(t *testing.T) string
			want error
		}{
			{
				name: "Uneven Pairs",
				path: func(t *testing.T) string {
					return writeLibrary(t, track("One", "A", "X"), []string{"Name", "Two", "Artist"})
				},
				want: shared.ErrUnevenPairs,
			},
			{
				name: "Missing Tracks Dict",
				path: func(t *testing.T) string {
					path := filepath.Join(t.TempDir(), "Library.xml")
					if err := os.WriteFile(path, []byte(`<plist><dict><key>Tracks</key></dict></plist>`), 0644); err != nil {
						t.Fatal(err)
					}
					return path
				},
				want: shared.ErrStructure,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				catalog := &tu.MockService{}

				result, err := NewIngestEngine(catalog, nil).Run(ctx, RunOptions{
					Path: tt.path(t), Owner: "u1", Playlist: "Broken",
				}, nil)
				if !errors.Is(err, tt.want) {
					t.Fatalf("expected %v, got %v", tt.want, err)
				}
				if result != nil {
					t.Error("expected nil result")
				}
				if len(catalog.Created) != 0 || len(catalog.Queries) != 0 {
					t.Error("expected no catalog calls")
				}
			})
		}
	})

	t.Run("Missing File", func(t *testing.T) {
		_, err := NewIngestEngine(&tu.MockService{}, nil).Run(ctx, RunOptions{
			Path: filepath.Join(t.TempDir(), "nope.xml"), Owner: "u1", Playlist: "P",
		}, nil)
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected os.ErrNotExist, got %v", err)
		}
	})

	t.Run("Missing Options", func(t *testing.T) {
		engine := NewIngestEngine(&tu.MockService{}, nil)
		for _, opts := range []RunOptions{
			{Owner: "u1", Playlist: "P"},
			{Path: "x.xml", Playlist: "P"},
			{Path: "x.xml", Owner: "u1"},
		} {
			if _, err := engine.Run(ctx, opts, nil); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("%+v: expected ErrMissingArgument, got %v", opts, err)
			}
		}
	})

	t.Run("Nil Catalog", func(t *testing.T) {
		_, err := NewIngestEngine(nil, nil).Run(ctx, RunOptions{}, nil)
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("Create Playlist Error", func(t *testing.T) {
		catalog := &tu.MockService{CreateErr: shared.ErrTokenExpired}

		result, err := NewIngestEngine(catalog, nil).Run(ctx, RunOptions{
			Path: writeLibrary(t, track("One", "A", "X")), Owner: "u1", Playlist: "P",
		}, nil)
		if !errors.Is(err, shared.ErrTokenExpired) {
			t.Fatalf("expected ErrTokenExpired, got %v", err)
		}
		if result == nil || result.Valid != 1 {
			t.Errorf("expected partial result, got %+v", result)
		}
		if len(catalog.Queries) != 0 {
			t.Error("expected no searches after playlist failure")
		}
	})

	t.Run("Search Error Stops Run", func(t *testing.T) {
		catalog := &tu.MockService{SearchErr: shared.ErrAPIRequest}

		_, err := NewIngestEngine(catalog, nil).Run(ctx, RunOptions{
			Path: writeLibrary(t, track("One", "A", "X"), track("Two", "A", "X")), Owner: "u1", Playlist: "P",
		}, nil)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		if len(catalog.AddCalls) != 0 {
			t.Error("expected no append calls")
		}
	})

	t.Run("Progress Phases", func(t *testing.T) {
		catalog := &tu.MockService{Tracks: map[string][]services.Track{
			"artist:A track:One album:X": {{ID: "t1"}},
		}}
		progress := make(chan ProgressUpdate, 20)

		if _, err := NewIngestEngine(catalog, nil).Run(ctx, RunOptions{
			Path: writeLibrary(t, track("One", "A", "X")), Owner: "u1", Playlist: "P",
		}, progress); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		close(progress)

		var phases []Phase
		for update := range progress {
			if len(phases) == 0 || phases[len(phases)-1] != update.Phase {
				phases = append(phases, update.Phase)
			}
		}

		want := []Phase{LoadLibrary, CreatePlaylist, SearchTracks, SubmitTracks}
		if !slices.Equal(phases, want) {
			t.Errorf("expected phases %v, got %v", want, phases)
		}
	})

	t.Run("Full Progress Channel Does Not Block", func(t *testing.T) {
		catalog := &tu.MockService{}
		progress := make(chan ProgressUpdate)

		if _, err := NewIngestEngine(catalog, nil).Run(ctx, RunOptions{
			Path: writeLibrary(t, track("One", "A", "X")), Owner: "u1", Playlist: "P",
		}, progress); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestIngestEngine_Recorder(t *testing.T) {
	ctx := context.Background()

	t.Run("Records Start And Finish", func(t *testing.T) {
		recorder := &mockRecorder{}
		engine := NewIngestEngine(&tu.MockService{}, nil)
		engine.SetRunRecorder(recorder)

		if _, err := engine.Run(ctx, RunOptions{
			Path: writeLibrary(t, track("One", "A", "X")), Owner: "u1", Playlist: "P",
		}, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(recorder.calls) != 2 || recorder.calls[0].event != "started" || recorder.calls[1].event != "finished" {
			t.Errorf("unexpected recorder calls %+v", recorder.calls)
		}
		if recorder.calls[1].err != nil {
			t.Errorf("expected nil run error, got %v", recorder.calls[1].err)
		}
	})

	t.Run("Records Failure", func(t *testing.T) {
		recorder := &mockRecorder{}
		engine := NewIngestEngine(&tu.MockService{CreateErr: shared.ErrAPIRequest}, nil)
		engine.SetRunRecorder(recorder)

		_, _ = engine.Run(ctx, RunOptions{
			Path: writeLibrary(t, track("One", "A", "X")), Owner: "u1", Playlist: "P",
		}, nil)

		if len(recorder.calls) != 2 || !errors.Is(recorder.calls[1].err, shared.ErrAPIRequest) {
			t.Errorf("unexpected recorder calls %+v", recorder.calls)
		}
	})

	t.Run("Recorder Errors Are Ignored", func(t *testing.T) {
		engine := NewIngestEngine(&tu.MockService{}, shared.NewLogger(&strings.Builder{}))
		engine.SetRunRecorder(&mockRecorder{err: errors.New("disk full")})

		if _, err := engine.Run(ctx, RunOptions{
			Path: writeLibrary(t, track("One", "A", "X")), Owner: "u1", Playlist: "P",
		}, nil); err != nil {
			t.Errorf("expected recorder failure to be ignored, got %v", err)
		}
	})
}

func TestIngestEngine_LogsSkippedRecords(t *testing.T) {
	path := writeLibrary(t,
		track("One", "A", "X"),
		[]string{"Name", "Two", "Artist", "A"},
	)

	var buf strings.Builder
	engine := NewIngestEngine(&tu.MockService{}, shared.NewLogger(&buf))
	if _, err := engine.Run(context.Background(), RunOptions{Path: path, Owner: "u1", Playlist: "P"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "skipping record") {
		t.Fatalf("expected skipped record at the default level, got %q", out)
	}
	if !strings.Contains(out, "Two") || !strings.Contains(out, "missing Album") {
		t.Errorf("expected record and reason in log line, got %q", out)
	}
}

func TestInspect(t *testing.T) {
	path := writeLibrary(t,
		track("One", "A", "X"),
		track("Two", "A", "X"),
		track("Uno", "B", "Y"),
	)

	lib, albums, err := Inspect(path, AlbumMode)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lib.Valid) != 3 {
		t.Errorf("expected 3 valid records, got %d", len(lib.Valid))
	}

	want := []library.AlbumKey{{Artist: "A", Album: "X"}, {Artist: "B", Album: "Y"}}
	if !slices.Equal(albums, want) {
		t.Errorf("expected %v, got %v", want, albums)
	}

	_, albums, _ = Inspect(path, TrackMode)
	if albums != nil {
		t.Errorf("expected no albums in track mode, got %v", albums)
	}
}
