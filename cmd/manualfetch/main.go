// Command manualfetch runs ingestion jobs and maintenance tasks by hand.
//
// Usage:
//
//	manualfetch refresh teams
//	manualfetch refresh statistics --force
//	manualfetch refresh all
//	manualfetch migrate
//	manualfetch migrate --down 1
//	manualfetch positions QB WR
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"gridiron/ingestion/internal/app"
	"gridiron/ingestion/internal/config"
	"gridiron/ingestion/internal/ingest"
	"gridiron/ingestion/internal/models"
	"gridiron/ingestion/internal/repository"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	root := &cobra.Command{
		Use:           "manualfetch",
		Short:         "Run gridiron ingestion jobs by hand",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(refreshCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(positionsCmd())

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func refreshCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:       "refresh <class|all>",
		Short:     "Refresh one entity class, or all of them in order",
		Args:      cobra.ExactArgs(1),
		ValidArgs: append([]string{"all"}, ingest.Classes...),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(app.Options{Cache: true}, func(ctx context.Context, a *app.App) error {
				classes := []string{args[0]}
				if args[0] == "all" {
					classes = ingest.Classes
				}

				var errs []error
				for _, class := range classes {
					rep, err := a.Service.Run(ctx, class, force)
					if errors.Is(err, ingest.ErrUnknownClass) {
						return fmt.Errorf("%w (known: all, %s)", err, strings.Join(ingest.Classes, ", "))
					}
					fmt.Fprintln(cmd.OutOrStdout(), rep.Summary())
					if err != nil {
						errs = append(errs, fmt.Errorf("%s: %w", class, err))
					}
				}
				return errors.Join(errs...)
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Fetch even when stored data is fresh")
	return cmd
}

func migrateCmd() *cobra.Command {
	var down int
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations, or roll back with --down",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			db, err := repository.NewDatabase(ctx, app.DatabaseConfig(cfg))
			if err != nil {
				return err
			}
			defer db.Close()

			if down > 0 {
				return db.MigrateDown(down)
			}
			return db.Migrate()
		},
	}
	cmd.Flags().IntVar(&down, "down", 0, "Number of migrations to roll back")
	return cmd
}

func positionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "positions [code...]",
		Short: "Print stored players per position bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(app.Options{}, func(ctx context.Context, a *app.App) error {
				players, err := a.APIDeps().Players.List(ctx)
				if err != nil {
					return err
				}

				filter := make([]string, 0, len(args))
				for _, arg := range args {
					filter = append(filter, strings.ToUpper(arg))
				}
				buckets := models.GroupByPosition(players, filter)

				for _, code := range models.Positions {
					list, ok := buckets[code]
					if !ok {
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%-3s %d\n", code, len(list))
				}
				return nil
			})
		},
	}
}

func withApp(opts app.Options, fn func(ctx context.Context, a *app.App) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	opts.Migrate = cfg.RunMigrations
	a, err := app.New(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
