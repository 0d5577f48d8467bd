// package services defines interface Service for the streaming catalog a library is ingested into
//
// Spotify
package services

import (
	"context"

	"golang.org/x/oauth2"
)

// MaxTracksPerRequest is the catalog's limit on track ids per append call.
const MaxTracksPerRequest = 100

// Service defines the catalog operations an ingest run consumes.
type Service interface {
	// Authenticate performs OAuth or API key authentication with the service.
	// Returns an error if authentication fails.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// CreatePlaylist creates a playlist owned by owner.
	CreatePlaylist(ctx context.Context, owner, name, description string, public bool) (*Playlist, error)

	// SearchTracks runs a free text track search and returns results in relevance order.
	SearchTracks(ctx context.Context, query string) ([]Track, error)

	// SearchAlbums runs a free text album search and returns results in relevance order.
	SearchAlbums(ctx context.Context, query string) ([]Album, error)

	// AlbumTracks returns every track of an album in catalog order.
	AlbumTracks(ctx context.Context, albumID string) ([]Track, error)

	// AddTracks appends at most [MaxTracksPerRequest] tracks to a playlist.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) error

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// OAuthService extends [Service] for providers authenticated through an authorization code flow.
type OAuthService interface {
	Service
	GetAuthURL(state string) string
	GetOAuthConfig() *oauth2.Config
	OAuthenticate(ctx context.Context, token *oauth2.Token) error
	CurrentUser(ctx context.Context) (*User, error)
}

// Playlist represents a catalog playlist.
type Playlist struct {
	ID     string
	Name   string
	Owner  string
	Public bool
	URL    string
}

// Track represents a catalog track.
type Track struct {
	ID     string
	Name   string
	Artist string
	Album  string
	URI    string
}

// Album represents a catalog album.
type Album struct {
	ID     string
	Name   string
	Artist string
}

// User is the account behind the current token.
type User struct {
	ID          string
	DisplayName string
}
