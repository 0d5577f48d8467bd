package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/itx/internal/repositories"
	"github.com/desertthunder/itx/internal/services"
	"github.com/desertthunder/itx/internal/shared"
	"github.com/desertthunder/itx/internal/tasks"
	"github.com/urfave/cli/v3"
)

const requestTimeout = 30 * time.Second

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	catalog    services.Service
	recorder   tasks.RunRecorder
	db         *sql.DB
	logger     *log.Logger
	output     io.Writer
	engine     *tasks.IngestEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    services.Service
	DB         *sql.DB
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		db:         opts.DB,
		logger:     opts.Logger,
		output:     opts.Output,
	}
	r.setCatalog(opts.Catalog)
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		runCommand, inspectCommand, authCommand, setupCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before applies the global flags: log level and the config file, with SPOTIFY_* environment overrides.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	r.configPath = cmd.String("config")
	config, err := shared.LoadConfigOrDefault(r.configPath)
	if err != nil {
		return ctx, err
	}
	config.ApplyEnv()
	r.config = config

	return ctx, nil
}

// Close releases the history database, if one was opened.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Runner) setCatalog(svc services.Service) {
	r.catalog = svc
	r.engine = r.newEngine(shared.WithLogger(r.logger, "component", "ingest"))
}

func (r *Runner) newEngine(logger *log.Logger) *tasks.IngestEngine {
	engine := tasks.NewIngestEngine(r.catalog, logger)
	if r.recorder != nil {
		engine.SetRunRecorder(r.recorder)
	}
	return engine
}

// spotify returns the catalog service, creating it from config on first use.
func (r *Runner) spotify() (services.Service, error) {
	if r.catalog != nil {
		return r.catalog, nil
	}

	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	svc, err := services.NewSpotifyService(
		r.config.Credentials.Spotify.Map(),
		services.WithRateLimit(r.config.Catalog.RequestsPerSecond),
		services.WithSearchLimit(r.config.Catalog.SearchLimit),
		services.WithHTTPClient(&http.Client{Timeout: requestTimeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify service: %w", err)
	}

	r.setCatalog(svc)
	return svc, nil
}

// history opens the run history database and returns its repository.
func (r *Runner) history() (*repositories.RunRepository, error) {
	if r.db == nil {
		db, err := shared.OpenHistory(r.config.History)
		if err != nil {
			return nil, fmt.Errorf("failed to open history database: %w", err)
		}
		r.db = db
	}
	return repositories.NewRunRepository(r.db), nil
}

// enableHistory attaches a run recorder when [history] is enabled. Failures only disable recording.
func (r *Runner) enableHistory() {
	if !r.config.History.Enabled || r.recorder != nil {
		return
	}

	repo, err := r.history()
	if err != nil {
		r.logger.Warn("run history disabled", "error", err)
		return
	}

	r.recorder = repositories.NewRunRecorder(repo)
	r.engine.SetRunRecorder(r.recorder)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
