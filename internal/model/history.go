package model

// History maps a weekly epoch (unix seconds, as a JSON object key) to the
// gauge's record for that week.
type History map[string]*HistoryRecord

// HistoryRecord is the per-epoch state of a gauge.
type HistoryRecord struct {
	NewWeight         string         `json:"newWeight"`
	NewPercentage     float64        `json:"newPercentage"`
	GaugeCrvApy       [2]float64     `json:"gaugeCrvApy"`
	FutureGaugeCrvApy [2]float64     `json:"futureGaugeCrvApy"`
	InflationRate     string         `json:"inflation_rate"`
	LPTotalSupplys    []SupplySample `json:"lpTotalSupplys"`
	GaugeTotalSupplys []SupplySample `json:"gaugeTotalSupplys"`
}

// SupplySample is one point of a total-supply series.
type SupplySample struct {
	Timestamp   uint64 `json:"timestamp"`
	TotalSupply string `json:"totalSupply"`
}

// HistoryUpdate carries one run's values for a gauge's current epoch.
type HistoryUpdate struct {
	NewWeight         string
	NewPercentage     float64
	GaugeCrvApy       [2]float64
	FutureGaugeCrvApy [2]float64
	InflationRate     string
	LPTotalSupply     SupplySample
	GaugeTotalSupply  SupplySample
}
