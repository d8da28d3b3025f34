package multicall

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

const testTokenABIJSON = `[
  {"inputs": [], "name": "totalSupply", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

// fakeMulticall answers aggregate3 requests. Each target returns its own
// last byte as total supply, unless listed in reverts.
type fakeMulticall struct {
	t       *testing.T
	token   abi.ABI
	reverts map[common.Address]bool
	garbage map[common.Address]bool
	batches []int
	err     error
}

func (f *fakeMulticall) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	mcABI, err := ABI()
	require.NoError(f.t, err)
	require.Equal(f.t, DefaultAddress, *msg.To)

	method := mcABI.Methods["aggregate3"]
	args, err := method.Inputs.Unpack(msg.Data[4:])
	require.NoError(f.t, err)
	calls := *abi.ConvertType(args[0], new([]Call3)).(*[]Call3)
	f.batches = append(f.batches, len(calls))

	out := make([]Result3, len(calls))
	for i, call := range calls {
		require.True(f.t, call.AllowFailure)
		switch {
		case f.reverts[call.Target]:
			out[i] = Result3{Success: false}
		case f.garbage[call.Target]:
			out[i] = Result3{Success: true, ReturnData: []byte{0x01}}
		default:
			ret, err := f.token.Methods["totalSupply"].Outputs.Pack(big.NewInt(int64(call.Target[19])))
			require.NoError(f.t, err)
			out[i] = Result3{Success: true, ReturnData: ret}
		}
	}
	return method.Outputs.Pack(out)
}

func newFake(t *testing.T) *fakeMulticall {
	token, err := abi.JSON(strings.NewReader(testTokenABIJSON))
	require.NoError(t, err)
	return &fakeMulticall{
		t:       t,
		token:   token,
		reverts: make(map[common.Address]bool),
		garbage: make(map[common.Address]bool),
	}
}

func targetAt(i int) common.Address {
	return common.BigToAddress(big.NewInt(int64(i)))
}

func TestExecutePreservesOrderAcrossChunks(t *testing.T) {
	fake := newFake(t)
	var plan Plan
	for i := 1; i <= 120; i++ {
		plan.Add(targetAt(i), &fake.token, "totalSupply")
	}

	results, err := NewBatcher(Config{}, fake, nil).Execute(context.Background(), plan)
	require.NoError(t, err)
	require.Equal(t, []int{50, 50, 20}, fake.batches)
	require.Len(t, results, len(plan))

	for i, res := range results {
		v, ok := res.Uint()
		require.True(t, ok, "call %d", i)
		require.Equal(t, int64(i+1), v.Int64())
	}
}

func TestExecuteTagsFailures(t *testing.T) {
	fake := newFake(t)
	fake.reverts[targetAt(2)] = true
	fake.garbage[targetAt(3)] = true

	var plan Plan
	for i := 1; i <= 4; i++ {
		plan.Add(targetAt(i), &fake.token, "totalSupply")
	}

	results, err := NewBatcher(Config{ChunkSize: 3}, fake, nil).Execute(context.Background(), plan)
	require.NoError(t, err)
	require.Equal(t, []int{3, 1}, fake.batches)

	require.True(t, results[0].OK())
	require.False(t, results[1].OK())
	require.False(t, results[2].OK())
	require.True(t, results[3].OK())
	require.Equal(t, int64(0), results[1].UintOrZero().Int64())
	require.Equal(t, int64(4), results[3].UintOrZero().Int64())
}

func TestExecuteTransportErrorIsFatal(t *testing.T) {
	fake := newFake(t)
	fake.err = errors.New("connection reset")

	var plan Plan
	plan.Add(targetAt(1), &fake.token, "totalSupply")

	_, err := NewBatcher(Config{}, fake, nil).Execute(context.Background(), plan)
	require.Error(t, err)
}

func TestExecuteEmptyPlan(t *testing.T) {
	fake := newFake(t)
	results, err := NewBatcher(Config{}, fake, nil).Execute(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, results)
	require.Empty(t, fake.batches)
}
