package chain

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// ErrUnavailable is returned when no candidate endpoint returns the latest block.
var ErrUnavailable = errors.New("no rpc endpoint available")

// DialFirst returns a client for the first candidate URL whose latest block
// can be fetched, along with that block.
func DialFirst(ctx context.Context, urls []string, logger *zap.Logger) (*Client, Block, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, url := range urls {
		client, err := NewClient(ctx, url)
		if err != nil {
			logger.Warn("dial rpc failed", zap.String("rpc", url), zap.Error(err))
			continue
		}

		block, err := client.LatestBlock(ctx)
		if err != nil {
			logger.Warn("rpc endpoint unavailable", zap.String("rpc", url), zap.Error(err))
			client.Close()
			continue
		}

		logger.Debug("rpc selected", zap.String("rpc", url), zap.Uint64("block", block.Number))
		return client, block, nil
	}

	return nil, Block{}, ErrUnavailable
}
