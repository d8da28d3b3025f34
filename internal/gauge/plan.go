package gauge

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"gaugeScope/internal/model"
	"gaugeScope/internal/multicall"
)

// callsPerGauge is the number of plan entries each matched gauge adds:
// gauge weight, LP total supply, gauge total supply.
const callsPerGauge = 3

// Match is a gauge for which pool metadata was found.
type Match struct {
	Index int
	Gauge model.Gauge
	Pool  model.Pool
}

// BuildPlan builds the call plan: the controller's total weight first, then
// three calls per gauge that has pool metadata, in gauge order. Gauges
// without pool metadata are skipped.
func BuildPlan(controller common.Address, gauges []model.Gauge, pools map[string]model.Pool) (multicall.Plan, []Match, error) {
	ctrlABI, err := ControllerABI()
	if err != nil {
		return nil, nil, fmt.Errorf("parse controller abi: %w", err)
	}
	tokenABI, err := SupplyABI()
	if err != nil {
		return nil, nil, fmt.Errorf("parse erc20 abi: %w", err)
	}

	plan := make(multicall.Plan, 0, 1+callsPerGauge*len(gauges))
	plan.Add(controller, ctrlABI, methodTotalWeight)

	matches := make([]Match, 0, len(gauges))
	for i, gauge := range gauges {
		pool, ok := pools[model.AddressKey(gauge.Gauge)]
		if !ok {
			continue
		}

		gaugeAddr := common.HexToAddress(gauge.Gauge)
		plan.Add(controller, ctrlABI, methodGaugeWeight, gaugeAddr)
		plan.Add(common.HexToAddress(pool.LPTokenAddress), tokenABI, methodTotalSupply)
		plan.Add(gaugeAddr, tokenABI, methodTotalSupply)

		matches = append(matches, Match{Index: i, Gauge: gauge, Pool: pool})
	}
	return plan, matches, nil
}
