// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/desertthunder/itx/internal/services"
)

// MockService is a stub catalog implementing [services.Service].
//
// Searches answer from the Tracks and Albums maps keyed by the exact query. Every call is recorded.
type MockService struct {
	Tracks          map[string][]services.Track
	Albums          map[string][]services.Album
	AlbumTrackLists map[string][]services.Track // keyed by album id

	AuthErr   error
	CreateErr error
	SearchErr error
	AddErr    error
	AddErrAt  int // 1-based append call that returns AddErr; 0 fails every call

	Credentials []map[string]string
	Created     []services.Playlist
	Queries     []string
	Expanded    []string
	AddCalls    [][]string
}

func (m *MockService) Name() string { return "mock" }

func (m *MockService) Authenticate(ctx context.Context, credentials map[string]string) error {
	m.Credentials = append(m.Credentials, credentials)
	return m.AuthErr
}

func (m *MockService) CreatePlaylist(ctx context.Context, owner, name, description string, public bool) (*services.Playlist, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	pl := services.Playlist{
		ID:     fmt.Sprintf("playlist-%d", len(m.Created)+1),
		Name:   name,
		Owner:  owner,
		Public: public,
	}
	m.Created = append(m.Created, pl)
	return &pl, nil
}

func (m *MockService) SearchTracks(ctx context.Context, query string) ([]services.Track, error) {
	m.Queries = append(m.Queries, query)
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	return m.Tracks[query], nil
}

func (m *MockService) SearchAlbums(ctx context.Context, query string) ([]services.Album, error) {
	m.Queries = append(m.Queries, query)
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	return m.Albums[query], nil
}

func (m *MockService) AlbumTracks(ctx context.Context, albumID string) ([]services.Track, error) {
	m.Expanded = append(m.Expanded, albumID)
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	return m.AlbumTrackLists[albumID], nil
}

func (m *MockService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) > services.MaxTracksPerRequest {
		return fmt.Errorf("mock: %d tracks in one call", len(trackIDs))
	}
	m.AddCalls = append(m.AddCalls, append([]string(nil), trackIDs...))
	if m.AddErr != nil && (m.AddErrAt == 0 || m.AddErrAt == len(m.AddCalls)) {
		return m.AddErr
	}
	return nil
}

// AddedIDs flattens every recorded append call in order.
func (m *MockService) AddedIDs() []string {
	var ids []string
	for _, call := range m.AddCalls {
		ids = append(ids, call...)
	}
	return ids
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
