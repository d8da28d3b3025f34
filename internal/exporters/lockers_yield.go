package exporters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"gaugeScope/internal/multicall"
	"gaugeScope/internal/oracle"
)

const liquidGaugeABIJSON = `[
  {"inputs": [], "name": "strategy", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "gauge", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "reward_count", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "totalSupply", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "arg0", "type": "uint256"}], "name": "reward_tokens", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "arg0", "type": "address"}], "name": "reward_data", "outputs": [
    {"name": "token", "type": "address"},
    {"name": "distributor", "type": "address"},
    {"name": "period_finish", "type": "uint256"},
    {"name": "rate", "type": "uint256"},
    {"name": "last_update", "type": "uint256"},
    {"name": "integral", "type": "uint256"}
  ], "stateMutability": "view", "type": "function"}
]`

const convexUtilsABIJSON = `[
  {"inputs": [], "name": "mainRewardRates", "outputs": [
    {"name": "tokens", "type": "address[]"},
    {"name": "rates", "type": "uint256[]"},
    {"name": "groups", "type": "uint256[]"}
  ], "stateMutability": "view", "type": "function"},
  {"inputs": [
    {"name": "_rate", "type": "uint256"},
    {"name": "_priceOfReward", "type": "uint256"},
    {"name": "_priceOfDeposit", "type": "uint256"}
  ], "name": "apr", "outputs": [{"name": "_apr", "type": "uint256"}], "stateMutability": "pure", "type": "function"}
]`

const (
	rewardDataRateIndex = 3
	secondsPerYear      = 31536000
)

// ErrYieldCallFailed is returned when an on-chain read the yield depends on
// fails.
var ErrYieldCallFailed = errors.New("yield call failed")

type lazyABI struct {
	raw  string
	once sync.Once
	abi  abi.ABI
	err  error
}

func (l *lazyABI) get() (*abi.ABI, error) {
	l.once.Do(func() {
		l.abi, l.err = abi.JSON(strings.NewReader(l.raw))
	})
	return &l.abi, l.err
}

var (
	liquidGaugeABI = &lazyABI{raw: liquidGaugeABIJSON}
	convexUtilsABI = &lazyABI{raw: convexUtilsABIJSON}
)

// LiquidGaugeABI returns the ABI of the Stake DAO locker, strategy and
// liquidity gauge reads.
func LiquidGaugeABI() (*abi.ABI, error) {
	return liquidGaugeABI.get()
}

// ConvexUtilsABI returns the ABI of the Convex utilities contract.
func ConvexUtilsABI() (*abi.ABI, error) {
	return convexUtilsABI.get()
}

// CallExecutor runs a call plan and returns one result per call.
type CallExecutor interface {
	Execute(ctx context.Context, plan multicall.Plan) ([]multicall.Result, error)
}

// PriceSource returns the current price of a token.
type PriceSource interface {
	Price(ctx context.Context, token string) (oracle.TokenPrice, error)
}

// LockersYield is the content of lockers-yield.json, in percent.
type LockersYield struct {
	StakeDAO float64 `json:"stakedao"`
	Convex   float64 `json:"convex"`
	Yearn    float64 `json:"yearn"`
}

// YieldSources locates the contracts and feeds behind each locker yield.
type YieldSources struct {
	StakeDAOLocker common.Address
	ConvexUtils    common.Address
	CRV            common.Address
	DelegationsURL string
	DelegationsKey string
	YearnPoolURL   string
}

// YieldCollector computes the yield of each liquid locker.
type YieldCollector struct {
	sources YieldSources
	calls   CallExecutor
	prices  PriceSource
	client  *http.Client
	logger  *zap.Logger
}

// NewYieldCollector builds a YieldCollector.
func NewYieldCollector(sources YieldSources, calls CallExecutor, prices PriceSource, timeout time.Duration, logger *zap.Logger) *YieldCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YieldCollector{
		sources: sources,
		calls:   calls,
		prices:  prices,
		client:  newHTTPClient(timeout),
		logger:  logger.With(zap.String("component", "lockers_yield")),
	}
}

// Collect computes all three locker yields. Any failure aborts.
func (y *YieldCollector) Collect(ctx context.Context) (LockersYield, error) {
	var out LockersYield
	var err error
	if out.StakeDAO, err = y.StakeDAO(ctx); err != nil {
		return LockersYield{}, fmt.Errorf("stake dao yield: %w", err)
	}
	if out.Convex, err = y.Convex(ctx); err != nil {
		return LockersYield{}, fmt.Errorf("convex yield: %w", err)
	}
	if out.Yearn, err = y.Yearn(ctx); err != nil {
		return LockersYield{}, fmt.Errorf("yearn yield: %w", err)
	}
	return out, nil
}

// StakeDAO sums the reward APRs of the sdCRV liquidity gauge and adds the
// delegation bounty APR.
func (y *YieldCollector) StakeDAO(ctx context.Context) (float64, error) {
	gaugeABI, err := LiquidGaugeABI()
	if err != nil {
		return 0, fmt.Errorf("parse liquid gauge abi: %w", err)
	}

	var plan multicall.Plan
	plan.Add(y.sources.StakeDAOLocker, gaugeABI, "strategy")
	strategy, err := y.address(ctx, plan)
	if err != nil {
		return 0, err
	}

	plan = nil
	plan.Add(strategy, gaugeABI, "gauge")
	gauge, err := y.address(ctx, plan)
	if err != nil {
		return 0, err
	}

	plan = nil
	plan.Add(gauge, gaugeABI, "reward_count")
	plan.Add(gauge, gaugeABI, "totalSupply")
	pairs, err := y.execute(ctx, plan)
	if err != nil {
		return 0, err
	}
	count, ok := pairs[0].Result.Uint()
	if !ok || !count.IsInt64() {
		return 0, fmt.Errorf("reward count %v out of range", count)
	}
	totalSupply := pairs[1].Result.UintOrZero()

	plan = make(multicall.Plan, 0, count.Int64())
	for i := int64(0); i < count.Int64(); i++ {
		plan.Add(gauge, gaugeABI, "reward_tokens", big.NewInt(i))
	}
	pairs, err = y.execute(ctx, plan)
	if err != nil {
		return 0, err
	}
	tokens := make([]common.Address, 0, len(pairs))
	for _, pair := range pairs {
		token, err := firstAddress(pair)
		if err != nil {
			return 0, err
		}
		tokens = append(tokens, token)
	}

	plan = make(multicall.Plan, 0, len(tokens))
	for _, token := range tokens {
		plan.Add(gauge, gaugeABI, "reward_data", token)
	}
	pairs, err = y.execute(ctx, plan)
	if err != nil {
		return 0, err
	}

	crv, err := y.prices.Price(ctx, y.sources.CRV.Hex())
	if err != nil {
		return 0, fmt.Errorf("crv price: %w", err)
	}

	total := 0.0
	for i, token := range tokens {
		values := pairs[i].Result.Values()
		if len(values) <= rewardDataRateIndex {
			return 0, fmt.Errorf("reward_data %s: %d outputs", token.Hex(), len(values))
		}
		rate, ok := values[rewardDataRateIndex].(*big.Int)
		if !ok {
			return 0, fmt.Errorf("reward_data %s: rate is %T", token.Hex(), values[rewardDataRateIndex])
		}
		apr, err := RewardApr(y.tokenPrice(ctx, token), rate, crv.Price, totalSupply)
		if err != nil {
			return 0, fmt.Errorf("reward %s: %w", token.Hex(), err)
		}
		y.logger.Debug("stake dao reward", zap.String("token", token.Hex()), zap.Float64("apr", apr))
		total += apr
	}

	bounties, err := y.delegationApr(ctx)
	if err != nil {
		return 0, err
	}
	return total + bounties, nil
}

// Convex sums the APR of every main reward of the Convex utilities
// contract, priced through the oracle.
func (y *YieldCollector) Convex(ctx context.Context) (float64, error) {
	utilsABI, err := ConvexUtilsABI()
	if err != nil {
		return 0, fmt.Errorf("parse convex utils abi: %w", err)
	}

	var plan multicall.Plan
	plan.Add(y.sources.ConvexUtils, utilsABI, "mainRewardRates")
	pairs, err := y.execute(ctx, plan)
	if err != nil {
		return 0, err
	}
	values := pairs[0].Result.Values()
	if len(values) < 2 {
		return 0, fmt.Errorf("mainRewardRates: %d outputs", len(values))
	}
	tokens, ok := values[0].([]common.Address)
	if !ok {
		return 0, fmt.Errorf("mainRewardRates tokens are %T", values[0])
	}
	rates, ok := values[1].([]*big.Int)
	if !ok {
		return 0, fmt.Errorf("mainRewardRates rates are %T", values[1])
	}
	if len(tokens) != len(rates) {
		return 0, fmt.Errorf("%w: %d reward tokens, %d rates", multicall.ErrLengthMismatch, len(tokens), len(rates))
	}
	if len(tokens) == 0 {
		return 0, nil
	}

	plan = make(multicall.Plan, 0, len(tokens))
	for i, token := range tokens {
		price := toWei(y.tokenPrice(ctx, token).Price)
		plan.Add(y.sources.ConvexUtils, utilsABI, "apr", rates[i], price, price)
	}
	pairs, err = y.execute(ctx, plan)
	if err != nil {
		return 0, err
	}

	total := 0.0
	for _, pair := range pairs {
		total += ether(pair.Result.UintOrZero()) * 100
	}
	return total, nil
}

type yieldPoolsResponse struct {
	Data []struct {
		Apy float64 `json:"apy"`
	} `json:"data"`
}

// Yearn returns the APY of the yCRV pool from the yields API.
func (y *YieldCollector) Yearn(ctx context.Context) (float64, error) {
	var payload yieldPoolsResponse
	if err := doJSON(ctx, y.client, http.MethodGet, y.sources.YearnPoolURL, nil, &payload); err != nil {
		return 0, err
	}
	if len(payload.Data) == 0 {
		return 0, fmt.Errorf("yearn pool not found")
	}
	return payload.Data[0].Apy, nil
}

func (y *YieldCollector) delegationApr(ctx context.Context) (float64, error) {
	var aprs map[string]json.RawMessage
	if err := doJSON(ctx, y.client, http.MethodGet, y.sources.DelegationsURL, nil, &aprs); err != nil {
		return 0, err
	}
	raw, ok := aprs[y.sources.DelegationsKey]
	if !ok {
		return 0, fmt.Errorf("delegation apr %q not found", y.sources.DelegationsKey)
	}
	var apr float64
	if err := json.Unmarshal(raw, &apr); err != nil {
		return 0, fmt.Errorf("decode delegation apr %q: %w", y.sources.DelegationsKey, err)
	}
	return apr, nil
}

// tokenPrice falls back to a zero price with 18 decimals when the oracle
// has no quote, so an unpriced reward contributes nothing.
func (y *YieldCollector) tokenPrice(ctx context.Context, token common.Address) oracle.TokenPrice {
	price, err := y.prices.Price(ctx, token.Hex())
	if err != nil {
		y.logger.Warn("reward token price unavailable", zap.String("token", token.Hex()), zap.Error(err))
		return oracle.TokenPrice{Decimals: 18}
	}
	return price
}

// execute runs plan and requires every call to succeed.
func (y *YieldCollector) execute(ctx context.Context, plan multicall.Plan) ([]multicall.Pair, error) {
	results, err := y.calls.Execute(ctx, plan)
	if err != nil {
		return nil, err
	}
	pairs, err := multicall.Zip(plan, results)
	if err != nil {
		return nil, err
	}
	for _, pair := range pairs {
		if !pair.Result.OK() {
			return nil, fmt.Errorf("%w: %s on %s", ErrYieldCallFailed, pair.Call.Method, pair.Call.Target.Hex())
		}
	}
	return pairs, nil
}

func (y *YieldCollector) address(ctx context.Context, plan multicall.Plan) (common.Address, error) {
	pairs, err := y.execute(ctx, plan)
	if err != nil {
		return common.Address{}, err
	}
	return firstAddress(pairs[0])
}

func firstAddress(pair multicall.Pair) (common.Address, error) {
	values := pair.Result.Values()
	if len(values) == 0 {
		return common.Address{}, fmt.Errorf("%s: no output", pair.Call.Method)
	}
	addr, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%s: output is %T", pair.Call.Method, values[0])
	}
	return addr, nil
}

// RewardApr is the yearly percentage a gauge reward pays on CRV staked in
// the gauge. rate is reward tokens per second in token base units.
func RewardApr(token oracle.TokenPrice, rate *big.Int, crvPrice float64, totalSupply *big.Int) (float64, error) {
	staked := new(big.Int).Mul(toWei(crvPrice), totalSupply)
	if staked.Sign() == 0 {
		return 0, fmt.Errorf("staked value is zero")
	}
	perYear := new(big.Int).Mul(toWei(token.Price), rate)
	perYear.Mul(perYear, big.NewInt(secondsPerYear))
	perYear.Mul(perYear, wad)
	perYear.Quo(perYear, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(token.Decimals)), nil))

	ratio := new(big.Int).Mul(perYear, wad)
	ratio.Quo(ratio, staked)
	return ether(ratio) * 100, nil
}

var wad = big.NewInt(1e18)

func toWei(price float64) *big.Int {
	return decimal.NewFromFloat(price).Shift(18).Truncate(0).BigInt()
}
