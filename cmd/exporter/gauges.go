package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gaugeScope/internal/config"
	"gaugeScope/internal/metrics"
	"gaugeScope/internal/pipeline"
	"gaugeScope/internal/storage"
)

func newGaugesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gauges",
		Short: "Snapshot gauge weights and APYs into pools.json and per-gauge history",
		RunE:  runGauges,
	}

	addCommonFlags(cmd)
	cmd.Flags().StringSlice("rpc-urls", config.DefaultRPCURLs, "candidate RPC URLs, tried in order")
	cmd.Flags().Int("chunk-size", 50, "calls per multicall request")
	cmd.Flags().Uint64("week-seconds", 604800, "epoch length in seconds")
	cmd.Flags().String("endpoints-url", "", "endpoint discovery document URL")
	cmd.Flags().String("gauges-url", "", "gauge directory URL")
	cmd.Flags().String("price-url", "", "DefiLlama coins API base URL")
	cmd.Flags().String("images-url", "", "token image CDN base URL")
	cmd.Flags().String("gauge-controller", config.DefaultGaugeController, "gauge controller address")
	cmd.Flags().String("crv", config.DefaultCRV, "CRV token address")
	cmd.Flags().String("multicall", config.DefaultMulticall, "Multicall3 address")

	return cmd
}

func runGauges(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadGauges(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	logger.Info("gauges start",
		zap.Strings("rpc_urls", cfg.RPCURLs),
		zap.Int("chunk_size", cfg.ChunkSize),
		zap.String("data_dir", cfg.DataDir),
		zap.String("gauge_controller", cfg.GaugeController.Hex()),
	)

	run := metrics.NewRun("gauges")
	defer run.Push(cfg.PushgatewayURL, logger)

	if err := pipeline.NewGaugesRunner(cfg, storage.NewFileStorage(cfg.DataDir), logger, run).Run(ctx); err != nil {
		logger.Error("gauges failed", zap.Error(err))
		return err
	}
	return nil
}
