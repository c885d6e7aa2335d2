package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

// App builds the consent-sync command tree.
func App() *cli.Command {
	return &cli.Command{
		Name:  "consent-sync",
		Usage: "Consent checkbox and batch subscribe bridge for the email marketing integration",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the HTTP hook bridge and the action workers",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "skip-migrate",
						Usage:   "Do not apply pending migrations on start",
						Sources: cli.EnvVars("SKIP_MIGRATE"),
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return runServe(ctx, c.Bool("skip-migrate"))
				},
			},
			{
				Name:  "migrate",
				Usage: "Apply pending database migrations and exit",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return runMigrate(ctx)
				},
			},
			{
				Name:  "batch",
				Usage: "Batch subscribe operations",
				Commands: []*cli.Command{
					{
						Name:  "start",
						Usage: "Queue a batch subscribe run on the shared queue",
						Action: func(ctx context.Context, _ *cli.Command) error {
							return runBatchStart(ctx)
						},
					},
				},
			},
		},
	}
}
