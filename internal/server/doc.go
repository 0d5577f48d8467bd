// Package server provides the short-lived HTTP server that completes the Spotify login.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [Middleware] wraps handlers in reverse order (last added executes first).
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback. It validates the state parameter,
// exchanges the code for tokens and sends the result through a channel. Only the first callback is processed.
//
// The auth command serves the handler with [Serve] on the host and port of the configured redirect URI,
// opens the browser and waits for the result.
package server
