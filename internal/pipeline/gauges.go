package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"gaugeScope/internal/chain"
	"gaugeScope/internal/config"
	"gaugeScope/internal/curve"
	"gaugeScope/internal/gauge"
	"gaugeScope/internal/history"
	"gaugeScope/internal/images"
	"gaugeScope/internal/metrics"
	"gaugeScope/internal/model"
	"gaugeScope/internal/multicall"
	"gaugeScope/internal/oracle"
	"gaugeScope/internal/storage"
)

const poolsFile = "pools.json"

// GaugesRunner produces the pools snapshot and per-gauge history files.
type GaugesRunner struct {
	cfg     config.GaugesConfig
	storage storage.Storage
	logger  *zap.Logger
	metrics *metrics.Run
}

// NewGaugesRunner builds a GaugesRunner with its dependencies. A nil
// storageSink writes pools.json to cfg.DataDir.
func NewGaugesRunner(cfg config.GaugesConfig, storageSink storage.Storage, logger *zap.Logger, run *metrics.Run) *GaugesRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if run == nil {
		run = metrics.NewRun("gauges")
	}
	return &GaugesRunner{
		cfg:     cfg,
		storage: sinkOrDefault(storageSink, cfg.DataDir),
		logger:  logger,
		metrics: run,
	}
}

// Run executes one gauge snapshot. It returns nil without writing anything
// when no RPC endpoint is reachable.
func (r *GaugesRunner) Run(ctx context.Context) error {
	client, block, err := chain.DialFirst(ctx, r.cfg.RPCURLs, r.logger)
	if errors.Is(err, chain.ErrUnavailable) {
		r.logger.Warn("no rpc endpoint available, skipping run", zap.Strings("rpc_urls", r.cfg.RPCURLs))
		r.metrics.Skipped.Set(1)
		return nil
	}
	if err != nil {
		return err
	}
	defer client.Close()

	epoch := history.Epoch(block.Timestamp, r.cfg.WeekSeconds)
	r.logger.Info("run started",
		zap.String("rpc", client.URL()),
		zap.Uint64("block", block.Number),
		zap.Uint64("timestamp", block.Timestamp),
		zap.Uint64("epoch", epoch),
	)

	priceOracle := oracle.NewDefiLlama(oracle.Options{
		BaseURL: r.cfg.PriceURL,
		Chain:   r.cfg.PriceChain,
		Timeout: r.cfg.HTTPTimeout,
	}, r.logger)
	crv, err := priceOracle.Price(ctx, r.cfg.CRV.Hex())
	if err != nil {
		return fmt.Errorf("crv price: %w", err)
	}

	api := curve.NewClient(curve.Options{
		EndpointsURL: r.cfg.EndpointsURL,
		GaugesURL:    r.cfg.GaugesURL,
		Timeout:      r.cfg.HTTPTimeout,
	}, r.logger)
	endpoints, err := api.DiscoverEndpoints(ctx)
	if err != nil {
		return err
	}
	pools, err := api.FetchPools(ctx, endpoints.Pools)
	if err != nil {
		return err
	}
	baseApys, err := api.FetchBaseApys(ctx, endpoints.BaseApys)
	if err != nil {
		return err
	}
	gauges, err := api.FetchGauges(ctx)
	if err != nil {
		return err
	}

	plan, matches, err := gauge.BuildPlan(r.cfg.GaugeController, gauges, pools)
	if err != nil {
		return err
	}
	r.metrics.GaugesMatched.Set(float64(len(matches)))
	r.metrics.GaugesUnmatched.Set(float64(len(gauges) - len(matches)))
	r.logger.Info("call plan built",
		zap.Int("gauges", len(gauges)),
		zap.Int("matched", len(matches)),
		zap.Int("pools", len(pools)),
		zap.Int("calls", len(plan)),
	)

	batcher := multicall.NewBatcher(multicall.Config{
		Address:   r.cfg.Multicall,
		ChunkSize: r.cfg.ChunkSize,
	}, client, r.logger)
	results, err := batcher.Execute(ctx, plan)
	if err != nil {
		return fmt.Errorf("execute call plan: %w", err)
	}
	r.countResults(results)

	pairs, err := multicall.Zip(plan, results)
	if err != nil {
		return err
	}
	computed, err := gauge.Compute(pairs, matches, crv.Price)
	if err != nil {
		return fmt.Errorf("compute gauge weights: %w", err)
	}

	resolver := images.NewResolver(images.Options{
		BaseURL: r.cfg.ImagesURL,
		Timeout: r.cfg.HTTPTimeout,
	}, r.logger)
	histories := history.NewStore(filepath.Join(r.cfg.DataDir, "gauges"), r.logger)

	snapshots := make([]model.PoolSnapshot, 0, len(computed))
	for _, m := range computed {
		snapshots = append(snapshots, gauge.Snapshot(ctx, m, baseApys, resolver))

		if _, err := histories.Merge(m.Match.Pool.GaugeAddress, epoch, gauge.HistoryUpdate(m, block.Timestamp)); err != nil {
			return err
		}
		r.metrics.HistoryWrites.Inc()
	}

	if err := r.storage.Put(poolsFile, snapshots); err != nil {
		return fmt.Errorf("store pools: %w", err)
	}
	r.metrics.RecordsWritten.Set(float64(len(snapshots)))
	r.metrics.Succeeded()

	r.logger.Info("run complete",
		zap.Int("pools", len(snapshots)),
		zap.Int("images", resolver.Len()),
		zap.Uint64("epoch", epoch),
	)
	return nil
}

func (r *GaugesRunner) countResults(results []multicall.Result) {
	for _, res := range results {
		if res.OK() {
			r.metrics.Calls.WithLabelValues("ok").Inc()
		} else {
			r.metrics.Calls.WithLabelValues("failed").Inc()
		}
	}
}
