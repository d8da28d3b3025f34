package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gaugeScope/internal/config"
	"gaugeScope/internal/metrics"
	"gaugeScope/internal/pipeline"
	"gaugeScope/internal/storage"
)

func newProposalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proposals",
		Short: "Export governance votes into proposals.json",
		RunE:  runProposals,
	}
	addCommonFlags(cmd)
	cmd.Flags().String("subgraph-url", config.DefaultSubgraphURL, "voting subgraph URL")
	cmd.Flags().Int("first", 1000, "number of latest votes to export")
	return cmd
}

func runProposals(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadProposals(cfgFile, cmd.Flags())
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

	run := metrics.NewRun("proposals")
	defer run.Push(cfg.PushgatewayURL, logger)

	if err := pipeline.RunProposals(ctx, cfg, storage.NewFileStorage(cfg.DataDir), logger, run); err != nil {
		logger.Error("proposals failed", zap.Error(err))
		return err
	}
	return nil
}

func newWeeklyFeesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weekly-fees",
		Short: "Export the weekly fees table into weeklyFees.json",
		RunE:  runWeeklyFees,
	}
	addCommonFlags(cmd)
	cmd.Flags().String("fees-url", config.DefaultWeeklyFeesURL, "weekly fees API URL")
	return cmd
}

func runWeeklyFees(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadWeeklyFees(cfgFile, cmd.Flags())
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

	run := metrics.NewRun("weekly_fees")
	defer run.Push(cfg.PushgatewayURL, logger)

	if err := pipeline.RunWeeklyFees(ctx, cfg, storage.NewFileStorage(cfg.DataDir), logger, run); err != nil {
		logger.Error("weekly fees failed", zap.Error(err))
		return err
	}
	return nil
}

func newLockersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lockers",
		Short: "Export liquid locker balances and yields into lockers.json and lockers-yield.json",
		RunE:  runLockers,
	}
	addCommonFlags(cmd)
	cmd.Flags().StringSlice("rpc-urls", config.DefaultRPCURLs, "candidate RPC URLs, tried in order")
	cmd.Flags().Int("chunk-size", 50, "calls per multicall request")
	cmd.Flags().String("vecrv", config.DefaultVeCRV, "veCRV address")
	cmd.Flags().String("multicall", config.DefaultMulticall, "Multicall3 address")
	cmd.Flags().StringSlice("lockers", config.DefaultLockers, "lockers as name=address (comma-separated)")
	cmd.Flags().String("stakedao-locker", config.DefaultStakeDAOLocker, "Stake DAO CRV locker address")
	cmd.Flags().String("convex-utils", config.DefaultConvexUtils, "Convex utilities contract address")
	cmd.Flags().String("crv", config.DefaultCRV, "CRV token address")
	cmd.Flags().String("price-url", "", "DefiLlama coins API base URL")
	cmd.Flags().String("price-chain", "ethereum", "DefiLlama chain prefix")
	cmd.Flags().String("delegations-url", config.DefaultDelegationsURL, "Stake DAO delegation APRs JSON URL")
	cmd.Flags().String("delegations-key", config.DefaultDelegationsKey, "key of the sdCRV entry in the delegation APRs")
	cmd.Flags().String("yearn-pool-url", config.DefaultYearnPoolURL, "yields API URL of the yCRV pool")
	return cmd
}

func runLockers(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadLockers(cfgFile, cmd.Flags())
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

	run := metrics.NewRun("lockers")
	defer run.Push(cfg.PushgatewayURL, logger)

	if err := pipeline.RunLockers(ctx, cfg, storage.NewFileStorage(cfg.DataDir), logger, run); err != nil {
		logger.Error("lockers failed", zap.Error(err))
		return err
	}
	return nil
}
