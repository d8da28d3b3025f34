package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"gaugeScope/internal/config"
	"gaugeScope/internal/exporters"
	"gaugeScope/internal/metrics"
	"gaugeScope/internal/multicall"
)

var (
	convexLocker   = common.HexToAddress("0x989AEb4d175e16225E39E87d0D97A3360524AD80")
	sdStrategy     = common.HexToAddress("0x0000000000000000000000000000000000000a01")
	sdGauge        = common.HexToAddress("0x0000000000000000000000000000000000000a02")
	pricedReward   = common.HexToAddress("0x0000000000000000000000000000000000000101")
	unpricedReward = common.HexToAddress("0x0000000000000000000000000000000000000102")
)

// lockersChain answers veCRV balance reads for the Convex locker and the
// Stake DAO and Convex yield reads.
func lockersChain(t *testing.T) string {
	t.Helper()
	veABI, err := exporters.VotingEscrowABI()
	require.NoError(t, err)
	gaugeABI, err := exporters.LiquidGaugeABI()
	require.NoError(t, err)
	utilsABI, err := exporters.ConvexUtilsABI()
	require.NoError(t, err)

	wad := big.NewInt(1e18)
	respond := func(call multicall.Call3) multicall.Result3 {
		id, input := call.CallData[:4], call.CallData[4:]
		switch {
		case bytes.Equal(id, selectorOf(t, veABI, "balanceOf")):
			args, err := veABI.Methods["balanceOf"].Inputs.Unpack(input)
			if err != nil || args[0].(common.Address) != convexLocker {
				return multicall.Result3{}
			}
			return returnUint(t, veABI, "balanceOf", new(big.Int).Mul(big.NewInt(3), wad))
		case bytes.Equal(id, selectorOf(t, veABI, "locked")):
			args, err := veABI.Methods["locked"].Inputs.Unpack(input)
			if err != nil || args[0].(common.Address) != convexLocker {
				return multicall.Result3{}
			}
			return returnUint(t, veABI, "locked", new(big.Int).Mul(big.NewInt(4), wad), big.NewInt(1800000000))
		case bytes.Equal(id, selectorOf(t, gaugeABI, "strategy")):
			return returnUint(t, gaugeABI, "strategy", sdStrategy)
		case bytes.Equal(id, selectorOf(t, gaugeABI, "gauge")):
			return returnUint(t, gaugeABI, "gauge", sdGauge)
		case bytes.Equal(id, selectorOf(t, gaugeABI, "reward_count")):
			return returnUint(t, gaugeABI, "reward_count", big.NewInt(2))
		case bytes.Equal(id, selectorOf(t, gaugeABI, "totalSupply")):
			return returnUint(t, gaugeABI, "totalSupply", bigString(t, "1261440000000000000000000000"))
		case bytes.Equal(id, selectorOf(t, gaugeABI, "reward_tokens")):
			args, err := gaugeABI.Methods["reward_tokens"].Inputs.Unpack(input)
			if err != nil {
				return multicall.Result3{}
			}
			if args[0].(*big.Int).Int64() == 0 {
				return returnUint(t, gaugeABI, "reward_tokens", pricedReward)
			}
			return returnUint(t, gaugeABI, "reward_tokens", unpricedReward)
		case bytes.Equal(id, selectorOf(t, gaugeABI, "reward_data")):
			args, err := gaugeABI.Methods["reward_data"].Inputs.Unpack(input)
			if err != nil {
				return multicall.Result3{}
			}
			token := args[0].(common.Address)
			return returnUint(t, gaugeABI, "reward_data", token, sdStrategy,
				big.NewInt(1800000000), wad, big.NewInt(1700000000), big.NewInt(0))
		case bytes.Equal(id, selectorOf(t, utilsABI, "mainRewardRates")):
			return returnUint(t, utilsABI, "mainRewardRates",
				[]common.Address{pricedReward}, []*big.Int{big.NewInt(7)}, []*big.Int{big.NewInt(0)})
		case bytes.Equal(id, selectorOf(t, utilsABI, "apr")):
			args, err := utilsABI.Methods["apr"].Inputs.Unpack(input)
			if err != nil || args[0].(*big.Int).Int64() != 7 || args[1].(*big.Int).Cmp(new(big.Int).Mul(big.NewInt(2), wad)) != 0 {
				return multicall.Result3{}
			}
			return returnUint(t, utilsABI, "apr", big.NewInt(250000000000000000))
		}
		return multicall.Result3{}
	}
	_, rpcServer := newFakeChain(t, blockTimestamp, respond)
	return rpcServer.URL
}

func newYieldServer(t *testing.T, statuses map[string]int) string {
	t.Helper()
	crvRoute := "/prices/current/ethereum:" + config.DefaultCRV
	rewardRoute := "/prices/current/ethereum:" + pricedReward.Hex()
	rest := newRESTServer(t, map[string]string{
		crvRoute:               `{"coins":{"ethereum:` + config.DefaultCRV + `":{"price":0.5,"decimals":18}}}`,
		rewardRoute:            `{"coins":{"ethereum:` + pricedReward.Hex() + `":{"price":2,"decimals":18}}}`,
		"/delegationsAPRs.json": `{"sdcrv.eth":5.5,"sdbal.eth":1}`,
		"/poolsEnriched":        `{"status":"success","data":[{"pool":"320550a3","apy":3.2}]}`,
	}, statuses)
	return rest.URL
}

func lockersConfig(t *testing.T, rpcURL, restURL string) config.LockersConfig {
	t.Helper()
	return config.LockersConfig{
		Common:    config.Common{DataDir: t.TempDir(), HTTPTimeout: 5 * time.Second},
		RPCURLs:   []string{rpcURL},
		ChunkSize: 50,
		VeCRV:     common.HexToAddress(config.DefaultVeCRV),
		Multicall: common.HexToAddress(config.DefaultMulticall),
		Lockers: []config.Locker{
			{Name: "Stake DAO", Address: common.HexToAddress(config.DefaultStakeDAOLocker)},
			{Name: "Convex", Address: convexLocker},
		},
		StakeDAOLocker: common.HexToAddress(config.DefaultStakeDAOLocker),
		ConvexUtils:    common.HexToAddress(config.DefaultConvexUtils),
		CRV:            common.HexToAddress(config.DefaultCRV),
		PriceURL:       restURL,
		PriceChain:     "ethereum",
		DelegationsURL: restURL + "/delegationsAPRs.json",
		DelegationsKey: "sdcrv.eth",
		YearnPoolURL:   restURL + "/poolsEnriched?pool=320550a3",
	}
}

func TestRunLockers(t *testing.T) {
	cfg := lockersConfig(t, lockersChain(t), newYieldServer(t, nil))
	run := metrics.NewRun("lockers")
	require.NoError(t, RunLockers(context.Background(), cfg, nil, nil, run))

	data, err := os.ReadFile(filepath.Join(cfg.DataDir, "lockers.json"))
	require.NoError(t, err)
	require.JSONEq(t, `[
		{"name":"Stake DAO","veBalance":0,"crvLockedBalance":0},
		{"name":"Convex","veBalance":3,"crvLockedBalance":4}
	]`, string(data))

	data, err = os.ReadFile(filepath.Join(cfg.DataDir, "lockers-yield.json"))
	require.NoError(t, err)
	var yield exporters.LockersYield
	require.NoError(t, json.Unmarshal(data, &yield))
	// 10% from the priced reward, 0% from the unpriced one, 5.5% bounties.
	require.InDelta(t, 15.5, yield.StakeDAO, 1e-9)
	require.InDelta(t, 25.0, yield.Convex, 1e-9)
	require.Equal(t, 3.2, yield.Yearn)
	require.Equal(t, 3.0, testutil.ToFloat64(run.RecordsWritten))
}

func TestRunLockersWritesToInjectedStorage(t *testing.T) {
	cfg := lockersConfig(t, lockersChain(t), newYieldServer(t, nil))
	sink := newMemorySink()
	require.NoError(t, RunLockers(context.Background(), cfg, sink, nil, nil))

	_, ok := sink.get("lockers.json")
	require.True(t, ok)
	data, ok := sink.get("lockers-yield.json")
	require.True(t, ok)
	require.Contains(t, string(data), `"yearn":3.2`)

	entries, err := os.ReadDir(cfg.DataDir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestRunLockersYieldUpstreamError(t *testing.T) {
	cfg := lockersConfig(t, lockersChain(t), newYieldServer(t, map[string]int{"/poolsEnriched": http.StatusBadGateway}))
	err := RunLockers(context.Background(), cfg, nil, nil, nil)
	require.ErrorContains(t, err, "yearn yield")

	_, err = os.Stat(filepath.Join(cfg.DataDir, "lockers.json"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(cfg.DataDir, "lockers-yield.json"))
	require.True(t, os.IsNotExist(err))
}

func TestRunLockersSkipsWithoutRPC(t *testing.T) {
	dead := newRESTServer(t, nil, map[string]int{"/": http.StatusBadGateway})
	dataDir := filepath.Join(t.TempDir(), "data")
	cfg := config.LockersConfig{
		Common:  config.Common{DataDir: dataDir},
		RPCURLs: []string{dead.URL},
		Lockers: []config.Locker{{Name: "Convex"}},
	}
	require.NoError(t, RunLockers(context.Background(), cfg, nil, nil, nil))

	_, err := os.Stat(dataDir)
	require.True(t, os.IsNotExist(err))
}

func TestRunProposals(t *testing.T) {
	subgraph := newRESTServer(t, map[string]string{
		"/subgraphs/name/curvefi/curvevoting4": `{"data":{"votes":[
			{"voteNum":"7","metadata":"{\"text\":\"Raise A\"}","yea":"1000000000000000000","nay":"0",
			 "supportRequiredPct":"510000000000000000","minAcceptQuorum":"300000000000000000","votingPower":"2000000000000000000"}
		]}}`,
	}, nil)

	dataDir := t.TempDir()
	cfg := config.ProposalsConfig{
		Common:      config.Common{DataDir: dataDir, HTTPTimeout: 5 * time.Second},
		SubgraphURL: subgraph.URL + "/subgraphs/name/curvefi/curvevoting4",
		First:       1000,
	}
	require.NoError(t, RunProposals(context.Background(), cfg, nil, nil, nil))

	data, err := os.ReadFile(filepath.Join(dataDir, "proposals.json"))
	require.NoError(t, err)
	var proposals []exporters.Proposal
	require.NoError(t, json.Unmarshal(data, &proposals))
	require.Len(t, proposals, 1)
	require.Equal(t, "Raise A", proposals[0].Metadata)
	require.Equal(t, 100.0, proposals[0].Yea)
	require.True(t, proposals[0].HaveSupport)
	require.True(t, proposals[0].HaveQuorum)
}

func TestRunWeeklyFees(t *testing.T) {
	api := newRESTServer(t, map[string]string{
		"/api/getWeeklyFees": `{"data":{"weeklyFeesTable":[{"date":"Thu Nov 09 2023","rawFees":1.5}]}}`,
	}, nil)

	dataDir := t.TempDir()
	cfg := config.WeeklyFeesConfig{
		Common:  config.Common{DataDir: dataDir, HTTPTimeout: 5 * time.Second},
		FeesURL: api.URL + "/api/getWeeklyFees",
	}
	require.NoError(t, RunWeeklyFees(context.Background(), cfg, nil, nil, nil))

	data, err := os.ReadFile(filepath.Join(dataDir, "weeklyFees.json"))
	require.NoError(t, err)
	require.JSONEq(t, `[{"date":"Thu Nov 09 2023","rawFees":1.5}]`, string(data))
}

func TestRunWeeklyFeesUpstreamError(t *testing.T) {
	api := newRESTServer(t, nil, map[string]int{"/api/getWeeklyFees": http.StatusInternalServerError})
	dataDir := filepath.Join(t.TempDir(), "data")
	cfg := config.WeeklyFeesConfig{
		Common:  config.Common{DataDir: dataDir},
		FeesURL: api.URL + "/api/getWeeklyFees",
	}
	require.Error(t, RunWeeklyFees(context.Background(), cfg, nil, nil, nil))

	_, err := os.Stat(dataDir)
	require.True(t, os.IsNotExist(err))
}
