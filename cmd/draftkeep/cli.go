package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/draftkeep/draftkeep/internal/config"
	"github.com/draftkeep/draftkeep/internal/errors"
	"github.com/draftkeep/draftkeep/internal/ops"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, _ *config.Config) *cli.App {
	app := &cli.App{
		Name:    "draftkeep",
		Usage:   "Inspect and manage persisted conversation drafts",
		Version: Version,
		Commands: []*cli.Command{
			listCmd(db),
			showCmd(db),
			deleteCmd(db),
			purgeCmd(db),
			countCmd(db),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// listCmd creates the list command.
func listCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List persisted drafts, newest first",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "all", Aliases: []string{"a"}, Usage: "Include drafts in a deletion grace period"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(db, ops.ListInput{
				IncludePending: c.Bool("all"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// showCmd creates the show command.
func showCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one draft, rich content included",
		ArgsUsage: "<context-key>",
		Action: func(c *cli.Context) error {
			output, err := ops.Inspect(db, ops.InspectInput{
				Key: c.Args().First(),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Permanently delete one draft",
		ArgsUsage: "<context-key>",
		Action: func(c *cli.Context) error {
			output, err := ops.Delete(db, ops.DeleteInput{
				Key: c.Args().First(),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// purgeCmd creates the purge command.
func purgeCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "Delete drafts whose deletion grace period has expired",
		Action: func(c *cli.Context) error {
			output, err := ops.Purge(db, ops.PurgeInput{
				Now: time.Now().UnixMilli(),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// countCmd creates the count command.
func countCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "count",
		Usage: "Summarize the draft store",
		Action: func(c *cli.Context) error {
			output, err := ops.Stats(db)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// outputJSON writes indented JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if dErr, ok := err.(*errors.DraftError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", dErr.Code, dErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
