package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/parlorchat/parlor/cmd/app/commands"
	"github.com/parlorchat/parlor/internal/app"
	"github.com/parlorchat/parlor/internal/config"
)

func getCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the HTTP server",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Run database migrations",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunMigrations(container.Logger(), cfg.DBDriver, cfg.DBConnectionString)
			},
		},
		{
			Name:  "create-master-key",
			Usage: "Generate a new master key for account field encryption",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "id",
					Aliases: []string{"i"},
					Value:   "",
					Usage:   "Master key ID (e.g., prod-master-key-2026)",
				},
				&cli.StringFlag{
					Name:    "kms-key-uri",
					Aliases: []string{"k"},
					Value:   "",
					Usage:   "Optional KMS key URI used to encrypt the master key before output",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunCreateMasterKey(
					ctx,
					container.KMSService(),
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("id"),
					cmd.String("kms-key-uri"),
				)
			},
		},
		{
			Name:  "clean-outbox-events",
			Usage: "Delete processed outbox events older than specified days",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:     "days",
					Aliases:  []string{"d"},
					Required: true,
					Usage:    "Delete processed events older than this many days",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				outboxUseCase, err := container.OutboxUseCase()
				if err != nil {
					return err
				}

				return commands.RunCleanOutboxEvents(
					ctx,
					outboxUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					int(cmd.Int("days")),
					cmd.String("format"),
				)
			},
		},
	}
}
