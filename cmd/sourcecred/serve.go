package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sourcecred/sourcecred-go/internal/api/server"
	"github.com/sourcecred/sourcecred-go/internal/ledger"
	"github.com/sourcecred/sourcecred-go/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin HTTP server over the instance ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Fail early on a corrupt ledger instead of serving errors.
		if _, _, err := openLedger(); err != nil {
			return err
		}

		storage := ledger.NewDiskStorage(cfg.LedgerPath())
		srv := server.New(server.Config{
			Debug:        cfg.Debug,
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
			IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		}, storage, clk)

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		sigCh := make(chan os.Signal, 2)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigCh:
			logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		case err := <-errCh:
			if err != nil {
				return err
			}
			return nil
		}

		// A second signal during graceful shutdown forces exit.
		go func() {
			<-sigCh
			fmt.Fprintln(os.Stderr, "fatal: forced shutdown")
			os.Exit(exitForced)
		}()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			os.Exit(exitForced)
		}
		logger.Info("Admin server stopped")
		return nil
	},
}
