package exporters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// FeesClient reads the weekly fees table from the Curve API.
type FeesClient struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewFeesClient builds a weekly fees client.
func NewFeesClient(url string, timeout time.Duration, logger *zap.Logger) *FeesClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeesClient{url: url, client: newHTTPClient(timeout), logger: logger}
}

// FetchWeeklyFees returns data.weeklyFeesTable exactly as served.
func (c *FeesClient) FetchWeeklyFees(ctx context.Context) (json.RawMessage, error) {
	var resp struct {
		Data struct {
			WeeklyFeesTable json.RawMessage `json:"weeklyFeesTable"`
		} `json:"data"`
	}
	if err := doJSON(ctx, c.client, http.MethodGet, c.url, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch weekly fees: %w", err)
	}
	table := resp.Data.WeeklyFeesTable
	if len(table) == 0 || string(table) == "null" {
		return nil, fmt.Errorf("fetch weekly fees: weeklyFeesTable missing")
	}
	c.logger.Info("weekly fees fetched", zap.Int("bytes", len(table)))
	return table, nil
}
