package curve

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"gaugeScope/internal/model"
)

// FetchGauges returns the gauge directory in the order the API lists it.
func (c *Client) FetchGauges(ctx context.Context) ([]model.Gauge, error) {
	body, err := c.get(ctx, c.opts.GaugesURL)
	if err != nil {
		return nil, fmt.Errorf("fetch gauges: %w", err)
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode gauges: %w", err)
	}

	gauges, err := decodeOrderedGauges(envelope.Data)
	if err != nil {
		return nil, fmt.Errorf("decode gauges: %w", err)
	}
	c.logger.Info("gauges fetched", zap.Int("gauges", len(gauges)))
	return gauges, nil
}

// decodeOrderedGauges decodes a JSON object of gauges keeping key order.
func decodeOrderedGauges(data json.RawMessage) ([]model.Gauge, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	gauges := make([]model.Gauge, 0, 256)
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		var gauge model.Gauge
		if err := dec.Decode(&gauge); err != nil {
			return nil, err
		}
		if gauge.Gauge == "" {
			continue
		}
		gauges = append(gauges, gauge)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return gauges, nil
}
