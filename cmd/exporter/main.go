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
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	root := &cobra.Command{
		Use:          "exporter",
		Short:        "Curve gauge, governance and locker snapshot exporter",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	root.AddCommand(newGaugesCmd())
	root.AddCommand(newProposalsCmd())
	root.AddCommand(newWeeklyFeesCmd())
	root.AddCommand(newLockersCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the exporter version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// addCommonFlags registers the flags every job understands.
func addCommonFlags(cmd *cobra.Command) {
	cmd.Flags().String("data-dir", "./data", "output directory")
	cmd.Flags().Duration("http-timeout", 30*time.Second, "timeout for each REST request")
	cmd.Flags().String("pushgateway-url", "", "Prometheus Pushgateway URL, empty disables pushing")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
