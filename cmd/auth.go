package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/itx/internal/server"
	"github.com/desertthunder/itx/internal/services"
	"github.com/desertthunder/itx/internal/shared"
	"github.com/desertthunder/itx/internal/ui"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const authTimeout = 2 * time.Minute

// tokenWatcher is implemented by services that report refreshed tokens.
type tokenWatcher interface {
	SetTokenRefreshCallback(func(*oauth2.Token))
}

// Auth performs OAuth2 authentication flow for Spotify.
//
// Starts a local HTTP server, opens browser for user authorization, and exchanges auth code for tokens.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	srv, err := r.oauthService()
	if err != nil {
		return err
	}

	if err := r.reauthorize(ctx, srv, "authorization"); err != nil {
		return err
	}

	if user, err := srv.CurrentUser(ctx); err == nil {
		r.writePlain("✓ Authorized as %s (%s)\n", user.DisplayName, user.ID)
	}
	r.writePlain("\nYou can now use: itx run <path> <user> <playlist>\n")

	return nil
}

// AuthStatus reports whether the stored tokens are usable.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if !r.config.Credentials.Spotify.HasToken() {
		r.writePlain("%s\n", ui.Warning("Not authorized. Run: itx auth"))
		return nil
	}

	srv, err := r.oauthService()
	if err != nil {
		return err
	}
	r.watchTokens(srv)

	if err := srv.OAuthenticate(ctx, r.config.Credentials.Spotify.Token()); err != nil {
		return err
	}

	user, err := srv.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrTokenExpired) {
			r.writePlain("%s\n", ui.Warning("Stored token has expired. Run: itx auth"))
			return nil
		}
		return err
	}

	r.writePlain("%s\n", ui.Success(fmt.Sprintf("✓ Authorized as %s (%s)", user.DisplayName, user.ID)))
	return nil
}

// authorize authenticates the catalog with the stored token, running the browser flow when there is none.
func (r *Runner) authorize(ctx context.Context) error {
	srv, ok := r.catalog.(services.OAuthService)
	if !ok {
		return nil
	}
	r.watchTokens(srv)

	if !r.config.Credentials.Spotify.HasToken() {
		r.writePlain("→ No Spotify token stored in %s\n", r.configPath)
		return r.reauthorize(ctx, srv, "authorization")
	}

	return srv.OAuthenticate(ctx, r.config.Credentials.Spotify.Token())
}

// reauthorize runs the OAuth flow, saves the new token and authenticates srv with it.
func (r *Runner) reauthorize(ctx context.Context, srv services.OAuthService, prefix string) error {
	token, err := r.doOAuth(ctx, srv, prefix)
	if err != nil {
		return err
	}

	if err := r.saveToken(token); err != nil {
		return err
	}

	r.writePlainln("✓ Spotify %s successful", prefix)
	r.writePlain("✓ Tokens saved to %s\n", r.configPath)

	r.watchTokens(srv)
	if err := srv.OAuthenticate(ctx, r.config.Credentials.Spotify.Token()); err != nil {
		return fmt.Errorf("failed to authenticate with new tokens: %w", err)
	}
	return nil
}

// handleSpotifyAuthError reauthorizes when err is a token expiration error.
func (r *Runner) handleSpotifyAuthError(ctx context.Context, err error) error {
	if !errors.Is(err, shared.ErrTokenExpired) {
		return err
	}

	srv, ok := r.catalog.(services.OAuthService)
	if !ok {
		return fmt.Errorf("%w: catalog does not support reauthorization", err)
	}

	r.writePlainln("⚠ Authentication token expired. Starting reauthorization...")

	if reauthErr := r.reauthorize(ctx, srv, "reauthorization"); reauthErr != nil {
		return fmt.Errorf("reauthorization failed: %w", reauthErr)
	}

	r.writePlainln("✓ Successfully reauthenticated. Retrying run...")
	return nil
}

func (r *Runner) oauthService() (services.OAuthService, error) {
	svc, err := r.spotify()
	if err != nil {
		return nil, err
	}

	srv, ok := svc.(services.OAuthService)
	if !ok {
		return nil, fmt.Errorf("%w: %s does not support OAuth", shared.ErrInvalidArgument, svc.Name())
	}
	return srv, nil
}

// watchTokens persists tokens the service refreshes during a run.
func (r *Runner) watchTokens(srv services.Service) {
	w, ok := srv.(tokenWatcher)
	if !ok {
		return
	}

	w.SetTokenRefreshCallback(func(token *oauth2.Token) {
		if err := r.saveToken(token); err != nil {
			r.logger.Warn("failed to persist refreshed token", "error", err)
			return
		}
		r.logger.Debug("refreshed token saved", "path", r.configPath)
	})
}

func (r *Runner) saveToken(token *oauth2.Token) error {
	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}
	if r.configPath == "" {
		return nil
	}

	// r.config carries SPOTIFY_* overrides; only the token goes back to disk.
	onDisk, err := shared.LoadConfigOrDefault(r.configPath)
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	onDisk.Credentials.Spotify.Update(token)

	if err := shared.SaveConfig(r.configPath, onDisk); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, oauthSrv services.OAuthService, prefix string) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := oauthSrv.GetAuthURL(state)
	oauthConfig := oauthSrv.GetOAuthConfig()
	oauthHandler := server.NewOAuthHandler(oauthConfig, state)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(oauthHandler)

	serverAddr := r.callbackAddr(oauthConfig.RedirectURL)

	serverCtx, stop := context.WithCancel(ctx)
	defer stop()

	ready := make(chan string, 1)
	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server for %s at %v", prefix, serverAddr)
		serverErrors <- server.Serve(serverCtx, serverAddr, router, ready)
	}()

	select {
	case <-ready:
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	}

	r.writePlain("→ Opening browser for Spotify %s...\n", prefix)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(authTimeout)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	stop()
	if err := <-serverErrors; err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}

	return result.Token, nil
}

// callbackAddr returns the listen address: [server] host and port when set, else the redirect URL's host.
func (r *Runner) callbackAddr(redirectURL string) string {
	if r.config.Server.Host != "" && r.config.Server.Port > 0 {
		return fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	}
	return server.CallbackAddr(redirectURL)
}
