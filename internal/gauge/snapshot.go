package gauge

import (
	"context"
	"math/big"
	"strconv"

	"gaugeScope/internal/model"
)

// ImageResolver maps a token address to a display image URL.
type ImageResolver interface {
	Resolve(ctx context.Context, token string) string
}

// Snapshot assembles the published pools.json entry for computed metrics.
func Snapshot(ctx context.Context, m Metrics, baseApys map[string]model.BaseApy, images ImageResolver) model.PoolSnapshot {
	pool := m.Match.Pool
	gauge := m.Match.Gauge

	tokens := make([]model.SnapshotToken, 0, len(pool.Coins))
	for i, coin := range pool.Coins {
		token := model.SnapshotToken{
			ID:          i,
			Address:     coin.Address,
			Decimals:    parseDecimals(coin.Decimals),
			Symbol:      coin.Symbol,
			PoolBalance: coin.PoolBalance,
		}
		if coin.USDPrice != nil {
			token.USDPrice = *coin.USDPrice
		}
		if images != nil {
			token.Image = images.Resolve(ctx, coin.Address)
		}
		tokens = append(tokens, token)
	}

	snapshot := model.PoolSnapshot{
		ID:                  m.Match.Index,
		Name:                pool.DisplayName(),
		Address:             pool.Address,
		GaugeAddress:        pool.GaugeAddress,
		LPTokenAddress:      pool.LPTokenAddress,
		Tokens:              tokens,
		USDTotal:            pool.USDTotal,
		GaugeCrvApy:         m.PublishedApy,
		FutureGaugeCrvApy:   m.FutureApy,
		SideChain:           gauge.SideChain,
		WorkingSupply:       gauge.GaugeData.WorkingSupply.String(),
		GaugeRelativeWeight: gauge.GaugeController.GaugeRelativeWeight.String(),
		GetGaugeWeight:      bigString(m.FutureWeight),
		InflationRate:       m.InflationRate,
		IsKilled:            gauge.IsKilled,
		HasNoCrv:            gauge.HasNoCrv,
		LPTokenPrice:        gauge.LPTokenPrice,
		VirtualPrice:        pool.VirtualPrice.String(),
		LPTotalSupply:       bigString(m.LPSupply),
		GaugeTotalSupply:    bigString(m.GaugeSupply),
	}

	if base, ok := baseApys[model.AddressKey(pool.Address)]; ok {
		apy := &model.BaseApyRange{}
		if base.LatestDailyApyPcent != nil {
			apy.Daily = *base.LatestDailyApyPcent
		}
		if base.LatestWeeklyApyPcent != nil {
			apy.Weekly = *base.LatestWeeklyApyPcent
		}
		snapshot.BaseApy = apy
	}
	return snapshot
}

// HistoryUpdate projects the metrics onto the per-epoch history fields.
func HistoryUpdate(m Metrics, timestamp uint64) model.HistoryUpdate {
	return model.HistoryUpdate{
		NewWeight:         bigString(m.FutureWeight),
		NewPercentage:     m.Percentage,
		GaugeCrvApy:       m.PublishedApy,
		FutureGaugeCrvApy: m.FutureApy,
		InflationRate:     m.InflationRate,
		LPTotalSupply:     model.SupplySample{Timestamp: timestamp, TotalSupply: bigString(m.LPSupply)},
		GaugeTotalSupply:  model.SupplySample{Timestamp: timestamp, TotalSupply: bigString(m.GaugeSupply)},
	}
}

func parseDecimals(raw model.RawAmount) int {
	n, err := strconv.Atoi(raw.String())
	if err != nil {
		return 0
	}
	return n
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
