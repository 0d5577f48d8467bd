// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable debug logging",
		},
	}
}

func modeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "mode",
		Aliases: []string{"m"},
		Usage:   "Matching mode: track or album (defaults to [ingest] mode)",
	}
}

const runDescription = `Searches are never retried. The one exception: when the stored token has expired
before the playlist is created, itx reauthorizes once in the browser and starts the run again.`

// runCommand creates a playlist from a library file
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:        "run",
		Usage:       "Create a Spotify playlist from an iTunes library XML file",
		ArgsUsage:   "<path> <user> <playlist>",
		Description: runDescription,
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "path"},
			&cli.StringArg{Name: "user"},
			&cli.StringArg{Name: "playlist"},
		},
		Flags: []cli.Flag{
			modeFlag(),
			&cli.StringFlag{
				Name:  "description",
				Usage: "Playlist description",
			},
			&cli.BoolFlag{
				Name:  "public",
				Usage: "Create a public playlist",
			},
			&cli.StringFlag{
				Name:    "report",
				Aliases: []string{"r"},
				Usage:   "Write skipped and unmatched records to FILE (.csv, .md, .json or text)",
			},
			&cli.BoolFlag{
				Name:    "interactive",
				Aliases: []string{"i"},
				Usage:   "Show an interactive progress view",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the run summary as JSON",
			},
		},
		Action: r.Run,
	}
}

// inspectCommand summarizes a library file without network calls
func inspectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Show what a library file contains without contacting Spotify",
		ArgsUsage: "<path>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "path"},
		},
		Flags: []cli.Flag{
			modeFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Inspect,
	}
}

// authCommand handles Spotify authorization
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with Spotify using OAuth2 and store the tokens",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show the user the stored tokens belong to",
				Action: r.AuthStatus,
			},
		},
		Action: r.Auth,
	}
}

// setupCommand writes the config file and prepares the history database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage: "Create config.toml and run history database migrations",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "rollback",
				Usage: "Roll back the most recent history migration instead",
			},
		},
		Action: r.Setup,
	}
}

// historyCommand lists recorded runs
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded runs",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to show",
				Value: 20,
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "Only show runs in this mode",
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Only show runs with this status (running, completed, failed)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
	}
}
