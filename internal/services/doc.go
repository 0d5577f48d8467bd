// Package services defines the [Service] interface for the streaming catalog that library
// records are resolved against, and implements it for Spotify.
//
// # Spotify Implementation
//
// [SpotifyService] wraps the github.com/zmb3/spotify/v2 client. Authentication uses [oauth2]
// with the playlist-modify-private scope; the [oauth2.Client] refreshes expired tokens and a
// refreshableTokenSource reports new tokens through [SpotifyService.SetTokenRefreshCallback]
// so they can be written back to config.toml.
//
// Every request first waits on a [rate.Limiter]. The limiter only paces calls; failed
// requests are never retried.
//
// # OAuth Service Extension
//
// The [OAuthService] interface extends Service for OAuth providers. The CLI uses it to build
// the authorization URL, exchange the callback code and look up the current user.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrTokenExpired] : catalog answered 401 or the refresh failed
//   - [shared.ErrAPIRequest] : any other failed request
//   - [shared.ErrInvalidArgument] : more than [MaxTracksPerRequest] ids in one append
package services
