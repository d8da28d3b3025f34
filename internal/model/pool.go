package model

import "strings"

// Pool is the pool metadata published by a chain-sharded getPools endpoint.
type Pool struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Address        string     `json:"address"`
	GaugeAddress   string     `json:"gaugeAddress"`
	LPTokenAddress string     `json:"lpTokenAddress"`
	Coins          []Coin     `json:"coins"`
	USDTotal       float64    `json:"usdTotal"`
	VirtualPrice   RawAmount  `json:"virtualPrice"`
	GaugeCrvApy    []*float64 `json:"gaugeCrvApy"`
}

// Coin is a pool constituent.
type Coin struct {
	Address     string    `json:"address"`
	Decimals    RawAmount `json:"decimals"`
	USDPrice    *float64  `json:"usdPrice"`
	PoolBalance string    `json:"poolBalance"`
	Symbol      string    `json:"symbol"`
}

// DisplayName joins the coin symbols with "/".
func (p Pool) DisplayName() string {
	symbols := make([]string, 0, len(p.Coins))
	for _, coin := range p.Coins {
		symbols = append(symbols, coin.Symbol)
	}
	return strings.Join(symbols, "/")
}

// PublishedApy returns the previously published gauge APY range, or [0, 0]
// when it is absent or null.
func (p Pool) PublishedApy() [2]float64 {
	if len(p.GaugeCrvApy) < 2 || p.GaugeCrvApy[0] == nil || p.GaugeCrvApy[1] == nil {
		return [2]float64{0, 0}
	}
	return [2]float64{*p.GaugeCrvApy[0], *p.GaugeCrvApy[1]}
}

// BaseApy is the latest base (trading fee) yield of a pool.
type BaseApy struct {
	Address              string   `json:"address"`
	LatestDailyApyPcent  *float64 `json:"latestDailyApyPcent"`
	LatestWeeklyApyPcent *float64 `json:"latestWeeklyApyPcent"`
}

// AddressKey normalizes an address for use as a map key.
func AddressKey(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}
