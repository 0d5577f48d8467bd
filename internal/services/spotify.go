// Spotify implementation of [Service]
//
// Requests go through github.com/zmb3/spotify/v2; see https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/desertthunder/itx/internal/shared"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	defaultRedirectURI = "http://127.0.0.1:3000/callback"
	defaultSearchLimit = 10
	albumPageSize      = 50
)

// SpotifyService implements the Service interface for Spotify API interactions.
type SpotifyService struct {
	config         *oauth2.Config
	token          *oauth2.Token
	client         *spotify.Client
	httpClient     *http.Client
	limiter        *rate.Limiter
	baseURL        string
	searchLimit    int
	onTokenRefresh func(*oauth2.Token)
	credentials    map[string]string
}

// SpotifyOption configures a [SpotifyService].
type SpotifyOption func(*SpotifyService)

// WithBaseURL points the client at a different Web API root (must end in "/").
func WithBaseURL(url string) SpotifyOption {
	return func(s *SpotifyService) { s.baseURL = url }
}

// WithRateLimit paces requests to rps per second. Zero or less disables pacing.
func WithRateLimit(rps float64) SpotifyOption {
	return func(s *SpotifyService) {
		if rps <= 0 {
			s.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithSearchLimit sets how many results a search asks for.
func WithSearchLimit(n int) SpotifyOption {
	return func(s *SpotifyService) {
		if n > 0 {
			s.searchLimit = n
		}
	}
}

// WithHTTPClient sets the base client used for token and API requests.
func WithHTTPClient(c *http.Client) SpotifyOption {
	return func(s *SpotifyService) { s.httpClient = c }
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string, opts ...SpotifyOption) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id in credentials", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret in credentials", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = defaultRedirectURI
	}

	s := &SpotifyService{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       []string{spotifyauth.ScopePlaylistModifyPrivate},
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyauth.AuthURL,
				TokenURL: spotifyauth.TokenURL,
			},
		},
		limiter:     rate.NewLimiter(rate.Inf, 1),
		searchLimit: defaultSearchLimit,
		credentials: credentials,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Authenticate performs OAuth2 authentication with Spotify.
//
// Expects either an "access_token" (optionally with "refresh_token" and an RFC 3339 "expiry") or an "auth_code".
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken := credentials["access_token"]; accessToken != "" || credentials["refresh_token"] != "" {
		token := &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: credentials["refresh_token"],
			TokenType:    credentials["token_type"],
		}
		if raw := credentials["expiry"]; raw != "" {
			expiry, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return fmt.Errorf("%w: invalid expiry %q", shared.ErrInvalidCredentials, raw)
			}
			token.Expiry = expiry
		}
		return s.OAuthenticate(ctx, token)
	}

	if authCode := credentials["auth_code"]; authCode != "" {
		token, err := s.config.Exchange(s.oauthContext(ctx), authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		return s.OAuthenticate(ctx, token)
	}

	return fmt.Errorf("%w: missing access_token or auth_code in credentials", shared.ErrMissingCredentials)
}

// OAuthenticate builds the API client around token. Expired tokens are refreshed on first use.
func (s *SpotifyService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: nil token", shared.ErrInvalidCredentials)
	}

	octx := s.oauthContext(ctx)
	source := &refreshableTokenSource{
		source:   s.config.TokenSource(octx, token),
		callback: s.onTokenRefresh,
	}

	var opts []spotify.ClientOption
	if s.baseURL != "" {
		opts = append(opts, spotify.WithBaseURL(s.baseURL))
	}

	s.token = token
	s.client = spotify.New(oauth2.NewClient(octx, source), opts...)
	return nil
}

func (s *SpotifyService) oauthContext(ctx context.Context) context.Context {
	if s.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig exposes the OAuth2 configuration for the callback handler.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// SetTokenRefreshCallback registers fn to receive every new token. Must be called before authenticating.
func (s *SpotifyService) SetTokenRefreshCallback(fn func(*oauth2.Token)) {
	s.onTokenRefresh = fn
}

// ready waits for the rate limiter and checks that the client exists.
func (s *SpotifyService) ready(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// CurrentUser returns the profile of the authenticated account.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*User, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	u, err := s.client.CurrentUser(ctx)
	if err != nil {
		return nil, apiError("current user", err)
	}
	return &User{ID: u.ID, DisplayName: u.DisplayName}, nil
}

// CreatePlaylist creates a playlist for owner.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, owner, name, description string, public bool) (*Playlist, error) {
	if owner == "" || name == "" {
		return nil, fmt.Errorf("%w: playlist owner and name are required", shared.ErrInvalidArgument)
	}
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	p, err := s.client.CreatePlaylistForUser(ctx, owner, name, description, public, false)
	if err != nil {
		return nil, apiError("create playlist", err)
	}

	return &Playlist{
		ID:     string(p.ID),
		Name:   p.Name,
		Owner:  p.Owner.ID,
		Public: p.IsPublic,
		URL:    p.ExternalURLs["spotify"],
	}, nil
}

// SearchTracks searches the catalog for tracks.
func (s *SpotifyService) SearchTracks(ctx context.Context, query string) ([]Track, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	res, err := s.client.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(s.searchLimit))
	if err != nil {
		return nil, apiError("search tracks", err)
	}
	if res.Tracks == nil {
		return nil, nil
	}

	tracks := make([]Track, 0, len(res.Tracks.Tracks))
	for _, t := range res.Tracks.Tracks {
		track := fromSimpleTrack(t.SimpleTrack)
		track.Album = t.Album.Name
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// SearchAlbums searches the catalog for albums.
func (s *SpotifyService) SearchAlbums(ctx context.Context, query string) ([]Album, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	res, err := s.client.Search(ctx, query, spotify.SearchTypeAlbum, spotify.Limit(s.searchLimit))
	if err != nil {
		return nil, apiError("search albums", err)
	}
	if res.Albums == nil {
		return nil, nil
	}

	albums := make([]Album, 0, len(res.Albums.Albums))
	for _, a := range res.Albums.Albums {
		album := Album{ID: string(a.ID), Name: a.Name}
		if len(a.Artists) > 0 {
			album.Artist = a.Artists[0].Name
		}
		albums = append(albums, album)
	}
	return albums, nil
}

// AlbumTracks returns all tracks of an album, following pagination.
func (s *SpotifyService) AlbumTracks(ctx context.Context, albumID string) ([]Track, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	page, err := s.client.GetAlbumTracks(ctx, spotify.ID(albumID), spotify.Limit(albumPageSize))
	if err != nil {
		return nil, apiError("album tracks", err)
	}

	var tracks []Track
	for {
		for _, t := range page.Tracks {
			tracks = append(tracks, fromSimpleTrack(t))
		}

		if err := s.ready(ctx); err != nil {
			return nil, err
		}
		err := s.client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, apiError("album tracks", err)
		}
	}

	return tracks, nil
}

// AddTracks appends trackIDs to a playlist in a single request.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) > MaxTracksPerRequest {
		return fmt.Errorf("%w: %d tracks exceeds the limit of %d per request",
			shared.ErrInvalidArgument, len(trackIDs), MaxTracksPerRequest)
	}
	if len(trackIDs) == 0 {
		return nil
	}
	if err := s.ready(ctx); err != nil {
		return err
	}

	ids := make([]spotify.ID, len(trackIDs))
	for i, id := range trackIDs {
		ids[i] = spotify.ID(id)
	}

	if _, err := s.client.AddTracksToPlaylist(ctx, spotify.ID(playlistID), ids...); err != nil {
		return apiError("add tracks", err)
	}
	return nil
}

func fromSimpleTrack(t spotify.SimpleTrack) Track {
	track := Track{ID: string(t.ID), Name: t.Name, URI: string(t.URI)}
	if len(t.Artists) > 0 {
		track.Artist = t.Artists[0].Name
	}
	return track
}

// apiError maps client errors onto the shared sentinels.
func apiError(op string, err error) error {
	var spErr spotify.Error
	if errors.As(err, &spErr) {
		if spErr.Status == http.StatusUnauthorized {
			return fmt.Errorf("%w: %s: %s", shared.ErrTokenExpired, op, spErr.Message)
		}
		return fmt.Errorf("%w: %s: status %d: %s", shared.ErrAPIRequest, op, spErr.Status, spErr.Message)
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: %s: token refresh failed: %v", shared.ErrTokenExpired, op, err)
	}

	return fmt.Errorf("%w: %s: %v", shared.ErrAPIRequest, op, err)
}

// refreshableTokenSource reports each new token to callback.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)
	mu       sync.Mutex
	last     string
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	changed := token.AccessToken != r.last
	r.last = token.AccessToken
	r.mu.Unlock()

	if changed && r.callback != nil {
		func() {
			defer func() { _ = recover() }()
			r.callback(token)
		}()
	}

	return token, nil
}
