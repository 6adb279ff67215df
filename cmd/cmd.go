// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand handles setup operations for the durable medium.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

// recordsCommand reads and patches user records through the serialized store.
func recordsCommand(r *Runner) *cli.Command {
	usernameArg := func() []cli.Argument {
		return []cli.Argument{&cli.StringArg{Name: "username"}}
	}

	return &cli.Command{
		Name:    "records",
		Aliases: []string{"rec"},
		Usage:   "Read and update user records",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Print a user's record, creating the default record on first read",
				Arguments: usernameArg(),
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.RecordsGet,
			},
			{
				Name:      "set",
				Usage:     "Merge field=value pairs into a user's record",
				UsageText: "airwaves records set <username> field=value [field=value...]\n\nPatches for users without a record are dropped.",
				Action:    r.RecordsSet,
			},
			{
				Name:      "points",
				Usage:     "Add to (or subtract from) a user's points",
				Arguments: usernameArg(),
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "add",
						Aliases:  []string{"a"},
						Usage:    "Points to add; negative values subtract",
						Required: true,
					},
				},
				Action: r.RecordsPoints,
			},
			{
				Name:      "favorite",
				Aliases:   []string{"fav"},
				Usage:     "Add or remove a favourite station",
				Arguments: usernameArg(),
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "station",
						Aliases:  []string{"s"},
						Usage:    "Station ID",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "remove",
						Usage: "Remove the station instead of adding it",
					},
				},
				Action: r.RecordsFavorite,
			},
			{
				Name:  "role",
				Usage: "Change a user's role (listener, station_manager, admin)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "username"},
					&cli.StringArg{Name: "role"},
				},
				Action: r.RecordsRole,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a user's record; the next read recreates the default",
				Arguments: usernameArg(),
				Action:    r.RecordsDelete,
			},
			{
				Name:  "list",
				Usage: "List usernames that have a record",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.RecordsList,
			},
			{
				Name:      "export",
				Usage:     "Export a user's record, or a leaderboard of all users with --all",
				Arguments: usernameArg(),
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (json, text, markdown, csv)",
						Value:   "text",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default: stdout)",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Export a CSV leaderboard of every stored user",
					},
				},
				Action: r.RecordsExport,
			},
		},
	}
}

// serveCommand runs the HTTP record API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the record API over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind (default from config)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (default from config)",
			},
		},
		Action: r.Serve,
	}
}
