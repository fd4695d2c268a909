package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/momentum/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		if err := a.Config.RequireServer(); err != nil {
			return err
		}
		addr := a.Config.Addr
		if v, _ := cmd.Flags().GetString("addr"); v != "" {
			addr = v
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := api.New(api.Config{
			JWTSecret:  a.Config.JWTSecret,
			Background: ctx,
			Logger:     a.Logger.With("component", "api"),
			AccessLog:  true,
		}, api.Deps{
			Sessions:  a.Sessions,
			Practice:  a.Practice,
			Analytics: a.Analytics,
			Catalog:   a.Store,
			Accounts:  a.Store,
			History:   a.Store,
		})

		// Untimed sessions nobody submits would otherwise stay in memory.
		go a.Sessions.Sweep(ctx, time.Minute, 30*time.Minute)

		errc := make(chan error, 1)
		go func() { errc <- srv.Listen(addr) }()
		a.Logger.Info("listening", "addr", addr, "db", a.Config.DBPath)

		select {
		case err := <-errc:
			return fmt.Errorf("serve: %w", err)
		case <-ctx.Done():
		}

		a.Logger.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides MOMENTUM_ADDR, default :4000)")
}
