package main

import (
	"context"
	"log/slog"
	"os"

	"backoffice/internal/app/bootstrap"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// runApp builds the shared runtime and hands it to run until a signal
// arrives or run returns.
func runApp(cmd *cobra.Command, run func(context.Context, *bootstrap.App) error) {
	logger := commonRun()
	cfg := configFromCommand(cmd)

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	app, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
	runErr := run(ctx, app)
	if err := app.Close(); err != nil {
		logger.Warn("shutdown close failed", "component", programName, "error", err.Error())
	}
	if runErr != nil {
		slog.Error(runErr.Error())
		os.Exit(1)
	}
}

func apiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "api",
		Short: "Serve the leadership HTTP API",
		Run: func(cmd *cobra.Command, _ []string) {
			runApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				return app.RunAPI(ctx)
			})
		},
	}
}

func workerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Relay the outbox and run event consumers",
		Run: func(cmd *cobra.Command, _ []string) {
			runApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				return app.RunWorker(ctx)
			})
		},
	}
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the worker in one process",
		Run: func(cmd *cobra.Command, _ []string) {
			runApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				group, groupCtx := errgroup.WithContext(ctx)
				group.Go(func() error { return app.RunAPI(groupCtx) })
				group.Go(func() error { return app.RunWorker(groupCtx) })
				return group.Wait()
			})
		},
	}
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the leadership schema",
		Run: func(cmd *cobra.Command, _ []string) {
			logger := commonRun()
			cfg := configFromCommand(cmd)
			if err := bootstrap.Migrate(cmd.Context(), cfg, logger); err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
			logger.Info("migration complete", "component", programName)
		},
	}
}
