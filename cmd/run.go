package cmd

import (
	"context"
	"fmt"

	"github.com/shortfactory/shortfactory/internal/config"
	"github.com/shortfactory/shortfactory/internal/controller"
	"github.com/urfave/cli/v3"
)

func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Execute a single workflow and exit",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "topic",
				Aliases:  []string{"t"},
				Usage:    "Topic to generate a video for",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "PostgreSQL connection string (omit to run with in-memory persistence)",
				Sources: cli.EnvVars("SF_DATABASE_URL"),
			},
			&cli.BoolFlag{
				Name:  "skip-health-check",
				Usage: "Start the workflow without probing collaborating services first",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Load(cmd.String("config"))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			if v := cmd.String("database-url"); v != "" {
				cfg.Database.URL = v
			}
			if v := cmd.String("log-level"); v != "" {
				cfg.Logging.Level = v
			}

			return controller.RunOnce(ctx, cfg, cmd.String("topic"), cmd.Bool("skip-health-check"))
		},
	}
}
