package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
)

const (
	DefaultSubgraphURL   = "https://api.thegraph.com/subgraphs/name/curvefi/curvevoting4"
	DefaultWeeklyFeesURL = "https://api.curve.fi/api/getWeeklyFees"
	DefaultVeCRV         = "0x5f3b5DfEb7B28CDbD7FAba78963EE202a494e2A2"
)

// Yield sources of the lockers job.
const (
	DefaultStakeDAOLocker = "0x52f541764E6e90eeBc5c21Ff570De0e2D63766B6"
	DefaultConvexUtils    = "0xadd2F542f9FF06405Fabf8CaE4A74bD0FE29c673"
	DefaultDelegationsURL = "https://raw.githubusercontent.com/StakeDAO/bribes/main/delegationsAPRs.json"
	DefaultDelegationsKey = "sdcrv.eth"
	DefaultYearnPoolURL   = "https://yields.llama.fi/poolsEnriched?pool=320550a3-b7c4-4017-a5dd-f3ebed459470"
)

// DefaultLockers are the liquid lockers tracked by the lockers job, as
// name=address pairs.
var DefaultLockers = []string{
	"Stake DAO=" + DefaultStakeDAOLocker,
	"Convex=0x989AEb4d175e16225E39E87d0D97A3360524AD80",
	"Yearn=0xF147b8125d2ef93FB6965Db97D6746952a133934",
}

// ProposalsConfig holds configuration for the governance votes job.
type ProposalsConfig struct {
	Common
	SubgraphURL string
	First       int
}

// LoadProposals merges config file, environment variables, and flags into ProposalsConfig.
func LoadProposals(cfgFile string, flags *pflag.FlagSet) (ProposalsConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"subgraph-url": DefaultSubgraphURL,
		"first":        1000,
	})
	if err != nil {
		return ProposalsConfig{}, err
	}

	cfg := ProposalsConfig{
		Common:      loadCommon(v),
		SubgraphURL: v.GetString("subgraph-url"),
		First:       v.GetInt("first"),
	}
	if cfg.SubgraphURL == "" {
		return ProposalsConfig{}, fmt.Errorf("subgraph-url is required")
	}
	if cfg.First <= 0 {
		return ProposalsConfig{}, fmt.Errorf("first must be greater than zero")
	}
	return cfg, nil
}

// WeeklyFeesConfig holds configuration for the weekly fees job.
type WeeklyFeesConfig struct {
	Common
	FeesURL string
}

// LoadWeeklyFees merges config file, environment variables, and flags into WeeklyFeesConfig.
func LoadWeeklyFees(cfgFile string, flags *pflag.FlagSet) (WeeklyFeesConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"fees-url": DefaultWeeklyFeesURL,
	})
	if err != nil {
		return WeeklyFeesConfig{}, err
	}

	cfg := WeeklyFeesConfig{
		Common:  loadCommon(v),
		FeesURL: v.GetString("fees-url"),
	}
	if cfg.FeesURL == "" {
		return WeeklyFeesConfig{}, fmt.Errorf("fees-url is required")
	}
	return cfg, nil
}

// Locker is a named veCRV holder.
type Locker struct {
	Name    string
	Address common.Address
}

// LockersConfig holds configuration for the lockers job. The yield fields
// feed lockers-yield.json.
type LockersConfig struct {
	Common
	RPCURLs        []string
	ChunkSize      int
	VeCRV          common.Address
	Multicall      common.Address
	Lockers        []Locker
	StakeDAOLocker common.Address
	ConvexUtils    common.Address
	CRV            common.Address
	PriceURL       string
	PriceChain     string
	DelegationsURL string
	DelegationsKey string
	YearnPoolURL   string
}

// LoadLockers merges config file, environment variables, and flags into LockersConfig.
func LoadLockers(cfgFile string, flags *pflag.FlagSet) (LockersConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"rpc-urls":        DefaultRPCURLs,
		"chunk-size":      50,
		"vecrv":           DefaultVeCRV,
		"multicall":       DefaultMulticall,
		"lockers":         DefaultLockers,
		"stakedao-locker": DefaultStakeDAOLocker,
		"convex-utils":    DefaultConvexUtils,
		"crv":             DefaultCRV,
		"price-url":       "",
		"price-chain":     "ethereum",
		"delegations-url": DefaultDelegationsURL,
		"delegations-key": DefaultDelegationsKey,
		"yearn-pool-url":  DefaultYearnPoolURL,
	})
	if err != nil {
		return LockersConfig{}, err
	}

	cfg := LockersConfig{
		Common:         loadCommon(v),
		RPCURLs:        getStringSlice(v, "rpc-urls"),
		ChunkSize:      v.GetInt("chunk-size"),
		PriceURL:       v.GetString("price-url"),
		PriceChain:     v.GetString("price-chain"),
		DelegationsURL: v.GetString("delegations-url"),
		DelegationsKey: v.GetString("delegations-key"),
		YearnPoolURL:   v.GetString("yearn-pool-url"),
	}
	if len(cfg.RPCURLs) == 0 {
		return LockersConfig{}, fmt.Errorf("at least one rpc url is required")
	}
	if cfg.ChunkSize <= 0 {
		return LockersConfig{}, fmt.Errorf("chunk-size must be greater than zero")
	}
	if cfg.VeCRV, err = ParseAddress("vecrv", v.GetString("vecrv")); err != nil {
		return LockersConfig{}, err
	}
	if cfg.Multicall, err = ParseAddress("multicall", v.GetString("multicall")); err != nil {
		return LockersConfig{}, err
	}
	if cfg.Lockers, err = parseLockers(getStringSlice(v, "lockers")); err != nil {
		return LockersConfig{}, err
	}
	if cfg.StakeDAOLocker, err = ParseAddress("stakedao-locker", v.GetString("stakedao-locker")); err != nil {
		return LockersConfig{}, err
	}
	if cfg.ConvexUtils, err = ParseAddress("convex-utils", v.GetString("convex-utils")); err != nil {
		return LockersConfig{}, err
	}
	if cfg.CRV, err = ParseAddress("crv", v.GetString("crv")); err != nil {
		return LockersConfig{}, err
	}
	if cfg.DelegationsURL == "" || cfg.YearnPoolURL == "" {
		return LockersConfig{}, fmt.Errorf("delegations-url and yearn-pool-url are required")
	}
	return cfg, nil
}

func parseLockers(items []string) ([]Locker, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("at least one locker is required")
	}
	lockers := make([]Locker, 0, len(items))
	for _, item := range items {
		name, addr, ok := strings.Cut(item, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid locker %q, want name=address", item)
		}
		address, err := ParseAddress("locker", addr)
		if err != nil {
			return nil, err
		}
		lockers = append(lockers, Locker{Name: strings.TrimSpace(name), Address: address})
	}
	return lockers, nil
}
