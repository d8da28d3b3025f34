package gauge

import (
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"

	"gaugeScope/internal/multicall"
)

const (
	secondsPerYear = 31536000
	// minBoostRatio is the share of the max APY earned without boost.
	minBoostRatio = 0.4
)

var (
	// ErrTotalWeightFailed is returned when the controller's total weight
	// call fails.
	ErrTotalWeightFailed = errors.New("get_total_weight call failed")
	// ErrZeroTotalWeight is returned when the de-scaled total weight is zero.
	ErrZeroTotalWeight = errors.New("total weight de-scales to zero")
	// ErrPlanMismatch is returned when a pair's call is not the method the
	// gauge plan layout expects at that position.
	ErrPlanMismatch = errors.New("pair does not match gauge plan layout")

	wad = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
)

// Metrics are the values computed for one matched gauge.
type Metrics struct {
	Match          Match
	FutureWeight   *big.Int
	RelativeWeight *big.Int
	Percentage     float64
	PublishedApy   [2]float64
	FutureApy      [2]float64
	InflationRate  string
	LPSupply       *big.Int
	GaugeSupply    *big.Int
}

// Compute consumes the zipped plan results. pairs[0] must be the total
// weight; every match then owns the next three pairs in plan order.
func Compute(pairs []multicall.Pair, matches []Match, tokenPrice float64) ([]Metrics, error) {
	if want := 1 + callsPerGauge*len(matches); len(pairs) != want {
		return nil, fmt.Errorf("%w: want %d pairs for %d gauges, got %d", multicall.ErrLengthMismatch, want, len(matches), len(pairs))
	}
	if err := expectMethod(pairs[0], methodTotalWeight); err != nil {
		return nil, err
	}

	totalWeight, ok := pairs[0].Result.Uint()
	if !ok {
		return nil, ErrTotalWeightFailed
	}
	divisor := DescaledTotalWeight(totalWeight)
	if divisor.Sign() == 0 {
		return nil, fmt.Errorf("%w: total weight %s", ErrZeroTotalWeight, totalWeight)
	}

	out := make([]Metrics, 0, len(matches))
	for i, match := range matches {
		base := 1 + callsPerGauge*i
		weightPair, lpPair, gaugePair := pairs[base], pairs[base+1], pairs[base+2]
		if err := expectMethod(weightPair, methodGaugeWeight); err != nil {
			return nil, err
		}
		if err := expectMethod(lpPair, methodTotalSupply); err != nil {
			return nil, err
		}
		if err := expectMethod(gaugePair, methodTotalSupply); err != nil {
			return nil, err
		}

		metrics, err := computeGauge(match, weightPair.Result.UintOrZero(), divisor, tokenPrice)
		if err != nil {
			return nil, fmt.Errorf("gauge %s: %w", match.Gauge.Gauge, err)
		}
		metrics.LPSupply = lpPair.Result.UintOrZero()
		metrics.GaugeSupply = gaugePair.Result.UintOrZero()
		out = append(out, metrics)
	}
	return out, nil
}

func computeGauge(match Match, futureWeight, divisor *big.Int, tokenPrice float64) (Metrics, error) {
	relative := RelativeWeight(futureWeight, divisor)

	inflationRaw, err := match.Gauge.GaugeController.InflationRate.BigInt()
	if err != nil {
		return Metrics{}, fmt.Errorf("inflation rate: %w", err)
	}
	workingRaw, err := match.Gauge.GaugeData.WorkingSupply.BigInt()
	if err != nil {
		return Metrics{}, fmt.Errorf("working supply: %w", err)
	}
	virtualRaw, err := match.Pool.VirtualPrice.BigInt()
	if err != nil {
		return Metrics{}, fmt.Errorf("virtual price: %w", err)
	}

	fraction := FormatUnits(relative)
	minApy, maxApy := ProjectApy(tokenPrice, FormatUnits(inflationRaw), fraction, FormatUnits(workingRaw), FormatUnits(virtualRaw))

	published := match.Pool.PublishedApy()
	if match.Gauge.IsKilled || match.Gauge.HasNoCrv {
		published = [2]float64{0, 0}
		minApy, maxApy = 0, 0
	}

	return Metrics{
		Match:          match,
		FutureWeight:   futureWeight,
		RelativeWeight: relative,
		Percentage:     fraction,
		PublishedApy:   published,
		FutureApy:      [2]float64{minApy, maxApy},
		InflationRate:  inflationRaw.String(),
	}, nil
}

// DescaledTotalWeight returns totalWeight / 1e18 / 1e18 with truncating
// division at each step.
func DescaledTotalWeight(totalWeight *big.Int) *big.Int {
	v := new(big.Int).Quo(totalWeight, wad)
	return v.Quo(v, wad)
}

// RelativeWeight returns futureWeight * 100 / divisor, truncated.
func RelativeWeight(futureWeight, divisor *big.Int) *big.Int {
	v := new(big.Int).Mul(futureWeight, big.NewInt(100))
	return v.Quo(v, divisor)
}

// ProjectApy returns the [min, max] emission APY range. Non-finite results
// are reported as zero.
func ProjectApy(tokenPrice, inflationRate, weightFraction, workingSupply, virtualPrice float64) (float64, float64) {
	maxApy := (tokenPrice * inflationRate * weightFraction * secondsPerYear) / (workingSupply * tokenPrice * virtualPrice)
	minApy := maxApy * minBoostRatio
	if math.IsNaN(maxApy) || math.IsInf(maxApy, 0) || math.IsNaN(minApy) || math.IsInf(minApy, 0) {
		return 0, 0
	}
	return minApy, maxApy
}

// FormatUnits converts an 18-decimal fixed-point integer to a float.
func FormatUnits(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	return decimal.NewFromBigInt(v, -18).InexactFloat64()
}

func expectMethod(pair multicall.Pair, method string) error {
	if pair.Call.Method != method {
		return fmt.Errorf("%w: expected %s, got %s", ErrPlanMismatch, method, pair.Call.Method)
	}
	return nil
}
