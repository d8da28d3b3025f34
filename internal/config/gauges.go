package config

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
)

// Mainnet contract addresses used by the gauge job.
const (
	DefaultGaugeController = "0x2F50D538606Fa9EDD2B11E2446BEb18C9D5846bB"
	DefaultCRV             = "0xD533a949740bb3306d119CC777fa900bA034cd52"
	DefaultMulticall       = "0xcA11bde05977b3631167028862bE2a173976CA11"
)

// DefaultRPCURLs are tried in order until one answers.
var DefaultRPCURLs = []string{"https://eth.llamarpc.com", "https://rpc.ankr.com/eth"}

// GaugesConfig holds configuration for the gauge snapshot job.
type GaugesConfig struct {
	Common
	RPCURLs         []string
	ChunkSize       int
	WeekSeconds     uint64
	EndpointsURL    string
	GaugesURL       string
	PriceURL        string
	PriceChain      string
	ImagesURL       string
	GaugeController common.Address
	CRV             common.Address
	Multicall       common.Address
}

// LoadGauges merges config file, environment variables, and flags into GaugesConfig.
func LoadGauges(cfgFile string, flags *pflag.FlagSet) (GaugesConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"rpc-urls":         DefaultRPCURLs,
		"chunk-size":       50,
		"week-seconds":     uint64(604800),
		"endpoints-url":    "",
		"gauges-url":       "",
		"price-url":        "",
		"price-chain":      "ethereum",
		"images-url":       "",
		"gauge-controller": DefaultGaugeController,
		"crv":              DefaultCRV,
		"multicall":        DefaultMulticall,
	})
	if err != nil {
		return GaugesConfig{}, err
	}

	cfg := GaugesConfig{
		Common:       loadCommon(v),
		RPCURLs:      getStringSlice(v, "rpc-urls"),
		ChunkSize:    v.GetInt("chunk-size"),
		WeekSeconds:  v.GetUint64("week-seconds"),
		EndpointsURL: v.GetString("endpoints-url"),
		GaugesURL:    v.GetString("gauges-url"),
		PriceURL:     v.GetString("price-url"),
		PriceChain:   v.GetString("price-chain"),
		ImagesURL:    v.GetString("images-url"),
	}

	if len(cfg.RPCURLs) == 0 {
		return GaugesConfig{}, fmt.Errorf("at least one rpc url is required")
	}
	if cfg.ChunkSize <= 0 {
		return GaugesConfig{}, fmt.Errorf("chunk-size must be greater than zero")
	}
	if cfg.WeekSeconds == 0 {
		return GaugesConfig{}, fmt.Errorf("week-seconds must be greater than zero")
	}
	if cfg.GaugeController, err = ParseAddress("gauge-controller", v.GetString("gauge-controller")); err != nil {
		return GaugesConfig{}, err
	}
	if cfg.CRV, err = ParseAddress("crv", v.GetString("crv")); err != nil {
		return GaugesConfig{}, err
	}
	if cfg.Multicall, err = ParseAddress("multicall", v.GetString("multicall")); err != nil {
		return GaugesConfig{}, err
	}

	return cfg, nil
}
