package model

// Gauge is an entry of the gauge directory.
type Gauge struct {
	Gauge           string          `json:"gauge"`
	Swap            string          `json:"swap"`
	SwapToken       string          `json:"swap_token"`
	SideChain       bool            `json:"side_chain"`
	IsKilled        bool            `json:"is_killed"`
	HasNoCrv        bool            `json:"hasNoCrv"`
	LPTokenPrice    float64         `json:"lpTokenPrice"`
	GaugeData       GaugeData       `json:"gauge_data"`
	GaugeController GaugeController `json:"gauge_controller"`
}

// GaugeData holds the gauge's staking state.
type GaugeData struct {
	WorkingSupply RawAmount `json:"working_supply"`
}

// GaugeController holds the controller's view of the gauge.
type GaugeController struct {
	GaugeRelativeWeight RawAmount `json:"gauge_relative_weight"`
	GetGaugeWeight      RawAmount `json:"get_gauge_weight"`
	InflationRate       RawAmount `json:"inflation_rate"`
}
