package cli

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/perfbreak/go-pagetiming/pkg/errors"
	"github.com/perfbreak/go-pagetiming/pkg/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve breakdowns of a configured target over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.TargetURL == "" {
			return errors.NewValidationError("serve requires a probe target (probe.target or PAGETIMING_TARGET)")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s := server.New(cfg, slog.Default())
		if err := s.ListenAndServe(ctx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	},
}
