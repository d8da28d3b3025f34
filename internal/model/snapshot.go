package model

// PoolSnapshot is one entry of pools.json.
type PoolSnapshot struct {
	ID                  int             `json:"id"`
	Name                string          `json:"name"`
	Address             string          `json:"address"`
	GaugeAddress        string          `json:"gaugeAddress"`
	LPTokenAddress      string          `json:"lpTokenAddress"`
	Tokens              []SnapshotToken `json:"tokens"`
	USDTotal            float64         `json:"usdTotal"`
	GaugeCrvApy         [2]float64      `json:"gaugeCrvApy"`
	FutureGaugeCrvApy   [2]float64      `json:"futureGaugeCrvApy"`
	BaseApy             *BaseApyRange   `json:"baseApy,omitempty"`
	SideChain           bool            `json:"side_chain"`
	WorkingSupply       string          `json:"working_supply"`
	GaugeRelativeWeight string          `json:"gauge_relative_weight"`
	GetGaugeWeight      string          `json:"get_gauge_weight"`
	InflationRate       string          `json:"inflation_rate"`
	IsKilled            bool            `json:"is_killed"`
	HasNoCrv            bool            `json:"hasNoCrv"`
	LPTokenPrice        float64         `json:"lpTokenPrice"`
	VirtualPrice        string          `json:"virtualPrice"`
	LPTotalSupply       string          `json:"lpTotalSupply"`
	GaugeTotalSupply    string          `json:"gaugeTotalSupply"`
}

// SnapshotToken is a pool coin as published in pools.json.
type SnapshotToken struct {
	ID          int     `json:"id"`
	Address     string  `json:"address"`
	Decimals    int     `json:"decimals"`
	Symbol      string  `json:"symbol"`
	USDPrice    float64 `json:"usdPrice"`
	PoolBalance string  `json:"poolBalance"`
	Image       string  `json:"image"`
}

// BaseApyRange is the daily/weekly base yield attached to a snapshot.
type BaseApyRange struct {
	Daily  float64 `json:"daily"`
	Weekly float64 `json:"weekly"`
}
