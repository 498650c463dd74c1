package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/sourcecred/sourcecred-go/internal/clock"
	"github.com/sourcecred/sourcecred-go/internal/config"
	"github.com/sourcecred/sourcecred-go/internal/ledger"
	"github.com/sourcecred/sourcecred-go/internal/logger"
)

const (
	exitOK    = 0
	exitFatal = 1
	// exitForced reports a shutdown that did not complete cleanly.
	exitForced = 2
)

var (
	configFile string
	envPath    string

	// cfg is loaded by the root PersistentPreRunE before any command runs.
	cfg *config.InstanceConfig

	clk clock.Clock = clock.System{}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(exitFatal)
	}
	os.Exit(exitOK)
}

var rootCmd = &cobra.Command{
	Use:           "sourcecred",
	Short:         "Credit computation and grain distribution for open collaboration",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadInstanceConfig(configFile, envPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := logger.Initialize(logger.Config{
			Debug:           cfg.Debug,
			SentryDSN:       cfg.SentryDSN,
			BreadcrumbLevel: zapcore.InfoLevel,
			Tags:            map[string]string{"service": "sourcecred"},
		}); err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Flush(2 * time.Second)
	},
}

// openLedger reads and replays the instance's ledger from disk.
func openLedger() (*ledger.Ledger, ledger.DiskStorage, error) {
	storage := ledger.NewDiskStorage(cfg.LedgerPath())
	l, err := storage.Read(clk)
	if err != nil {
		return nil, storage, fmt.Errorf("opening ledger: %w", err)
	}
	return l, storage, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", "config/", "Path to environment files")

	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(credrankCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(grainCmd)
	rootCmd.AddCommand(grain2Cmd)
	rootCmd.AddCommand(goCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(siteCmd)
}
