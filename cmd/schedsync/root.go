package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sevenhill/schedsync/internal/app"
	"github.com/sevenhill/schedsync/internal/config"
	"github.com/sevenhill/schedsync/internal/ics"
	"github.com/sevenhill/schedsync/internal/projector"
	"github.com/sevenhill/schedsync/internal/version"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "schedsync",
		Short:         "Weekly schedule synchronization engine",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newExportCommand())
	cmd.AddCommand(newVersionCommand())
	return cmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the schedule intake API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg.LogLevel)
			st, err := app.BuildStore(cfg)
			if err != nil {
				return err
			}
			application, err := app.New(cfg, st, nil, logger)
			if err != nil {
				return err
			}
			logger.Info("serving", "bind", cfg.BindAddress, "store", cfg.StoreBackend, "owner", cfg.OwnerID)
			return application.Run(cmd.Context())
		},
	}
}

func newExportCommand() *cobra.Command {
	var referenceFlag string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the owner's weekly schedule as iCalendar to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			st, err := app.BuildStore(cfg)
			if err != nil {
				return err
			}
			weekStart, err := projector.ParseWeekStart(cfg.WeekStart)
			if err != nil {
				return err
			}
			reference := time.Now()
			if referenceFlag != "" {
				reference, err = time.Parse(time.RFC3339, referenceFlag)
				if err != nil {
					return fmt.Errorf("parse --reference: %w", err)
				}
			}
			entries, err := st.List(cmd.Context(), cfg.OwnerID)
			if err != nil {
				return err
			}
			out, err := ics.Export(entries, reference, weekStart)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVar(&referenceFlag, "reference", "", "RFC 3339 reference date anchoring the exported week")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the schedsync version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Version)
		},
	}
}

func newLogger(level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(level)}))
}

func logLevel(v string) slog.Level {
	switch v {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
