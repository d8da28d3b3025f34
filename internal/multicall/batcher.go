package multicall

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// DefaultChunkSize is the number of calls sent per aggregate3 request.
const DefaultChunkSize = 50

// Caller executes an eth_call.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Config controls batching.
type Config struct {
	Address   common.Address
	ChunkSize int
}

// Batcher executes call plans through Multicall3.
type Batcher struct {
	cfg    Config
	caller Caller
	logger *zap.Logger
}

// NewBatcher builds a Batcher.
func NewBatcher(cfg Config, caller Caller, logger *zap.Logger) *Batcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.Address == (common.Address{}) {
		cfg.Address = DefaultAddress
	}
	return &Batcher{cfg: cfg, caller: caller, logger: logger}
}

// Execute runs the plan chunk by chunk and returns one result per call, in
// plan order. Chunks are sent one after another, never concurrently.
func (b *Batcher) Execute(ctx context.Context, plan Plan) ([]Result, error) {
	if b.caller == nil {
		return nil, fmt.Errorf("caller is nil")
	}
	mcABI, err := ABI()
	if err != nil {
		return nil, fmt.Errorf("parse multicall abi: %w", err)
	}

	chunks, err := Chunk(plan, b.cfg.ChunkSize)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(plan))
	for i, chunk := range chunks {
		chunkResults, err := b.executeChunk(ctx, mcABI, chunk)
		if err != nil {
			return nil, fmt.Errorf("multicall chunk %d: %w", i, err)
		}
		results = append(results, chunkResults...)
	}

	if len(results) != len(plan) {
		return nil, fmt.Errorf("%w: %d calls, %d results", ErrLengthMismatch, len(plan), len(results))
	}

	b.logger.Debug("multicall complete", zap.Int("calls", len(plan)), zap.Int("chunks", len(chunks)))
	return results, nil
}

func (b *Batcher) executeChunk(ctx context.Context, mcABI abi.ABI, chunk Plan) ([]Result, error) {
	calls := make([]Call3, 0, len(chunk))
	for _, call := range chunk {
		data, err := call.pack()
		if err != nil {
			return nil, err
		}
		calls = append(calls, Call3{Target: call.Target, AllowFailure: true, CallData: data})
	}

	input, err := mcABI.Pack("aggregate3", calls)
	if err != nil {
		return nil, fmt.Errorf("pack aggregate3: %w", err)
	}

	to := b.cfg.Address
	resp, err := b.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("call aggregate3: %w", err)
	}

	values, err := mcABI.Unpack("aggregate3", resp)
	if err != nil {
		return nil, fmt.Errorf("unpack aggregate3: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("aggregate3 return size %d", len(values))
	}
	raw := *abi.ConvertType(values[0], new([]Result3)).(*[]Result3)
	if len(raw) != len(chunk) {
		return nil, fmt.Errorf("%w: %d calls, %d results", ErrLengthMismatch, len(chunk), len(raw))
	}

	results := make([]Result, len(chunk))
	for i, call := range chunk {
		results[i] = b.decode(call, raw[i])
	}
	return results, nil
}

func (b *Batcher) decode(call Call, raw Result3) Result {
	if !raw.Success {
		b.logger.Debug("call reverted", zap.String("target", call.Target.Hex()), zap.String("method", call.Method))
		return Failed()
	}
	values, err := call.ABI.Unpack(call.Method, raw.ReturnData)
	if err != nil {
		b.logger.Debug("unpack call result", zap.String("target", call.Target.Hex()), zap.String("method", call.Method), zap.Error(err))
		return Failed()
	}
	return Ok(values...)
}
