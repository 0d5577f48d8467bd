package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/itx/internal/formatter"
	"github.com/desertthunder/itx/internal/services"
	"github.com/desertthunder/itx/internal/shared"
	"github.com/desertthunder/itx/internal/tasks"
	"github.com/desertthunder/itx/internal/ui"
	"github.com/urfave/cli/v3"
)

const currentUser = "me"

// runArgs holds the parsed arguments of the run command.
type runArgs struct {
	opts        tasks.RunOptions
	report      string
	interactive bool
	json        bool
}

// Run creates a playlist from a library file.
//
// Authorizes with Spotify first (opening the browser when no token is stored), then hands off to the ingest engine.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	mode, err := r.mode(cmd)
	if err != nil {
		return err
	}

	args := runArgs{
		opts: tasks.RunOptions{
			Path:        cmd.StringArg("path"),
			Owner:       cmd.StringArg("user"),
			Playlist:    cmd.StringArg("playlist"),
			Description: cmd.String("description"),
			Public:      cmd.Bool("public"),
			Mode:        mode,
		},
		report:      cmd.String("report"),
		interactive: cmd.Bool("interactive"),
		json:        cmd.Bool("json"),
	}

	if args.opts.Path == "" || args.opts.Owner == "" || args.opts.Playlist == "" {
		return fmt.Errorf("%w: usage: itx run <path> <user> <playlist>", shared.ErrMissingArgument)
	}

	if _, err := r.spotify(); err != nil {
		return err
	}
	if err := r.authorize(ctx); err != nil {
		return err
	}

	return r.ingest(ctx, args)
}

// ingest runs the engine, prints the summary and writes the report.
//
// An expired token is only handled by reauthorizing and running again when no playlist was created yet.
func (r *Runner) ingest(ctx context.Context, args runArgs) error {
	r.enableHistory()

	owner, err := r.resolveOwner(ctx, args.opts.Owner)
	if err != nil {
		return err
	}
	args.opts.Owner = owner

	result, err := r.execute(ctx, args)
	if errors.Is(err, shared.ErrTokenExpired) && (result == nil || result.Playlist == nil) {
		if reauthErr := r.handleSpotifyAuthError(ctx, err); reauthErr != nil {
			return reauthErr
		}
		result, err = r.execute(ctx, args)
	}

	if result == nil {
		return err
	}

	summary := formatter.Summarize(result)
	if args.json {
		if jsonErr := r.writeJSON(summary, true); jsonErr != nil {
			return jsonErr
		}
	} else {
		r.printSummary(summary, err)
	}

	if args.report != "" {
		if reportErr := formatter.WriteReport(summary, args.report); reportErr != nil {
			r.logger.Error("failed to write report", "path", args.report, "error", reportErr)
		} else if !args.json {
			r.writePlain("%s\n", ui.Success("✓ Report written to "+args.report))
		}
	}

	return err
}

// execute runs the engine with either the console printer or the interactive view consuming progress.
func (r *Runner) execute(ctx context.Context, args runArgs) (*tasks.RunResult, error) {
	if args.interactive {
		logger, err := shared.NewFileLogger("./tmp/itx.log")
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		engine := r.newEngine(logger)

		title := fmt.Sprintf("%s → %s", args.opts.Path, args.opts.Playlist)
		return ui.RunInteractive(ctx, title, func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.RunResult, error) {
			return engine.Run(ctx, args.opts, progress)
		})
	}

	if args.json {
		return r.engine.Run(ctx, args.opts, nil)
	}

	progressChan := make(chan tasks.ProgressUpdate, 100)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ui.PrintProgress(r.output, progressChan)
	}()

	result, err := r.engine.Run(ctx, args.opts, progressChan)
	close(progressChan)
	<-done

	return result, err
}

// resolveOwner maps "me" to the id of the authorized user.
func (r *Runner) resolveOwner(ctx context.Context, owner string) (string, error) {
	if owner != currentUser {
		return owner, nil
	}

	srv, ok := r.catalog.(services.OAuthService)
	if !ok {
		return owner, nil
	}

	user, err := srv.CurrentUser(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to look up current user: %w", err)
	}
	return user.ID, nil
}

func (r *Runner) printSummary(s formatter.Summary, runErr error) {
	r.writePlain("\n")
	r.writePlainHeader("Run summary")
	r.writePlain("Playlist:   %s\n", s.Playlist)
	if s.PlaylistURL != "" {
		r.writePlain("URL:        %s\n", s.PlaylistURL)
	}
	r.writePlain("Mode:       %s\n", s.Mode)
	r.writePlain("Records:    %d (%d valid, %d skipped)\n", s.Records, s.Valid, s.Skipped)
	r.writePlain("Searches:   %d\n", s.Searches)
	r.writePlain("Matched:    %d tracks\n", s.Matched)
	r.writePlain("Not found:  %d\n", s.NotFound)
	r.writePlain("Requests:   %d add calls\n", s.AppendCalls)
	r.writePlain("Duration:   %s\n", s.Duration)

	if runErr != nil {
		r.writePlainln("%s", ui.Error("✗ Run failed: "+runErr.Error()))
		return
	}
	r.writePlainln("%s", ui.Success(fmt.Sprintf("✓ Added %d tracks to %s", s.Matched, s.Playlist)))
}

// inspectSummary is the JSON shape of the inspect command.
type inspectSummary struct {
	Path    string          `json:"path"`
	Mode    string          `json:"mode"`
	Records int             `json:"records"`
	Valid   int             `json:"valid"`
	Skipped []formatter.Row `json:"skipped,omitempty"`
	Albums  []string        `json:"albums,omitempty"`
}

// Inspect reads, validates and (in album mode) deduplicates a library file without calling Spotify.
func (r *Runner) Inspect(ctx context.Context, cmd *cli.Command) error {
	mode, err := r.mode(cmd)
	if err != nil {
		return err
	}
	return r.inspect(cmd.StringArg("path"), mode, cmd.Bool("json"))
}

func (r *Runner) inspect(path string, mode tasks.Mode, asJSON bool) error {
	if path == "" {
		return fmt.Errorf("%w: usage: itx inspect <path>", shared.ErrMissingArgument)
	}

	lib, albums, err := tasks.Inspect(path, mode)
	if err != nil {
		return err
	}

	s := inspectSummary{Path: path, Mode: string(mode), Records: lib.Total, Valid: len(lib.Valid)}
	for _, v := range lib.Invalid {
		rec := v.Record()
		s.Skipped = append(s.Skipped, formatter.Row{
			Kind:   formatter.KindSkipped,
			Artist: rec.Artist(),
			Album:  rec.Album(),
			Name:   rec.Name(),
			Detail: v.Reason(),
		})
	}
	for _, k := range albums {
		s.Albums = append(s.Albums, k.String())
	}

	if asJSON {
		return r.writeJSON(s, true)
	}

	r.writePlainHeader(path)
	r.writePlain("Track entries: %d\n", s.Records)
	r.writePlain("Valid:         %d\n", s.Valid)
	r.writePlain("Skipped:       %d\n", len(s.Skipped))
	if mode == tasks.AlbumMode {
		r.writePlain("Unique albums: %d\n", len(s.Albums))
	}

	if len(s.Skipped) > 0 {
		r.writePlainln("%s", ui.Warning("Skipped records:"))
		for _, row := range s.Skipped {
			r.writePlain("  %s  %s\n", describe(row), ui.Muted(row.Detail))
		}
	}

	if len(s.Albums) > 0 {
		r.writePlainln("%s", ui.Title("Albums:"))
		for i, a := range s.Albums {
			r.writePlain("%3d. %s\n", i+1, a)
		}
	}

	return nil
}

// mode returns the --mode flag, falling back to the configured default.
func (r *Runner) mode(cmd *cli.Command) (tasks.Mode, error) {
	value := cmd.String("mode")
	if value == "" {
		value = r.config.Ingest.Mode
	}
	return tasks.ParseMode(value)
}

func describe(row formatter.Row) string {
	parts := []string{}
	for _, p := range []string{row.Artist, row.Album, row.Name} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "(no metadata)"
	}
	return strings.Join(parts, " / ")
}
