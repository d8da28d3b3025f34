package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"gaugeScope/internal/chain"
	"gaugeScope/internal/config"
	"gaugeScope/internal/exporters"
	"gaugeScope/internal/metrics"
	"gaugeScope/internal/multicall"
	"gaugeScope/internal/oracle"
	"gaugeScope/internal/storage"
)

const (
	proposalsFile  = "proposals.json"
	weeklyFeesFile = "weeklyFees.json"
	lockersFile    = "lockers.json"
	yieldFile      = "lockers-yield.json"
)

// RunProposals exports the latest governance votes into sink. A nil sink
// writes to cfg.DataDir.
func RunProposals(ctx context.Context, cfg config.ProposalsConfig, sink storage.Storage, logger *zap.Logger, run *metrics.Run) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	sink = sinkOrDefault(sink, cfg.DataDir)
	votes, err := exporters.NewSubgraph(cfg.SubgraphURL, cfg.HTTPTimeout, logger).FetchVotes(ctx, cfg.First)
	if err != nil {
		return err
	}
	proposals, err := exporters.BuildProposals(votes)
	if err != nil {
		return err
	}
	if err := sink.Put(proposalsFile, proposals); err != nil {
		return fmt.Errorf("store proposals: %w", err)
	}
	finish(run, len(proposals))
	logger.Info("proposals exported", zap.Int("proposals", len(proposals)))
	return nil
}

// RunWeeklyFees copies the weekly fees table into sink.
func RunWeeklyFees(ctx context.Context, cfg config.WeeklyFeesConfig, sink storage.Storage, logger *zap.Logger, run *metrics.Run) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	sink = sinkOrDefault(sink, cfg.DataDir)
	table, err := exporters.NewFeesClient(cfg.FeesURL, cfg.HTTPTimeout, logger).FetchWeeklyFees(ctx)
	if err != nil {
		return err
	}
	if err := sink.Put(weeklyFeesFile, table); err != nil {
		return fmt.Errorf("store weekly fees: %w", err)
	}
	finish(run, 1)
	logger.Info("weekly fees exported")
	return nil
}

// RunLockers exports veCRV balances of the configured lockers, then the
// yield of each liquid locker. Like the gauge job it skips cleanly when no
// RPC endpoint is reachable.
func RunLockers(ctx context.Context, cfg config.LockersConfig, sink storage.Storage, logger *zap.Logger, run *metrics.Run) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	sink = sinkOrDefault(sink, cfg.DataDir)
	client, block, err := chain.DialFirst(ctx, cfg.RPCURLs, logger)
	if errors.Is(err, chain.ErrUnavailable) {
		logger.Warn("no rpc endpoint available, skipping run", zap.Strings("rpc_urls", cfg.RPCURLs))
		if run != nil {
			run.Skipped.Set(1)
		}
		return nil
	}
	if err != nil {
		return err
	}
	defer client.Close()

	plan, err := exporters.BuildLockersPlan(cfg.VeCRV, cfg.Lockers)
	if err != nil {
		return err
	}
	batcher := multicall.NewBatcher(multicall.Config{Address: cfg.Multicall, ChunkSize: cfg.ChunkSize}, client, logger)
	results, err := batcher.Execute(ctx, plan)
	if err != nil {
		return fmt.Errorf("execute lockers plan: %w", err)
	}
	pairs, err := multicall.Zip(plan, results)
	if err != nil {
		return err
	}
	balances, err := exporters.LockerBalances(pairs, cfg.Lockers)
	if err != nil {
		return err
	}
	if err := sink.Put(lockersFile, balances); err != nil {
		return fmt.Errorf("store lockers: %w", err)
	}
	logger.Info("lockers exported", zap.Int("lockers", len(balances)), zap.Uint64("block", block.Number))

	prices := oracle.NewDefiLlama(oracle.Options{
		BaseURL: cfg.PriceURL,
		Chain:   cfg.PriceChain,
		Timeout: cfg.HTTPTimeout,
	}, logger)
	collector := exporters.NewYieldCollector(exporters.YieldSources{
		StakeDAOLocker: cfg.StakeDAOLocker,
		ConvexUtils:    cfg.ConvexUtils,
		CRV:            cfg.CRV,
		DelegationsURL: cfg.DelegationsURL,
		DelegationsKey: cfg.DelegationsKey,
		YearnPoolURL:   cfg.YearnPoolURL,
	}, batcher, prices, cfg.HTTPTimeout, logger)
	yield, err := collector.Collect(ctx)
	if err != nil {
		return err
	}
	if err := sink.Put(yieldFile, yield); err != nil {
		return fmt.Errorf("store lockers yield: %w", err)
	}
	finish(run, len(balances)+1)
	logger.Info("lockers yield exported",
		zap.Float64("stakedao", yield.StakeDAO),
		zap.Float64("convex", yield.Convex),
		zap.Float64("yearn", yield.Yearn),
	)
	return nil
}

func sinkOrDefault(sink storage.Storage, dataDir string) storage.Storage {
	if sink == nil {
		return storage.NewFileStorage(dataDir)
	}
	return sink
}

func finish(run *metrics.Run, records int) {
	if run == nil {
		return
	}
	run.RecordsWritten.Set(float64(records))
	run.Succeeded()
}
