package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://coins.llama.fi"

// TokenPrice is the oracle's current view of a token.
type TokenPrice struct {
	Price    float64
	Decimals int
}

// Options parameterise the DefiLlama client.
type Options struct {
	BaseURL string
	Chain   string
	Timeout time.Duration
}

// DefiLlama fetches current token prices from the DefiLlama coins API.
type DefiLlama struct {
	opts   Options
	client *http.Client
	logger *zap.Logger
}

// NewDefiLlama constructs a price oracle client.
func NewDefiLlama(opts Options, logger *zap.Logger) *DefiLlama {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Chain == "" {
		opts.Chain = "ethereum"
	}
	return &DefiLlama{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
		logger: logger.With(zap.String("component", "price_oracle")),
	}
}

type pricesResponse struct {
	Coins map[string]struct {
		Price    float64 `json:"price"`
		Decimals *int    `json:"decimals"`
		Symbol   string  `json:"symbol"`
	} `json:"coins"`
}

// Price returns the current USD price and decimals of token.
func (d *DefiLlama) Price(ctx context.Context, token string) (TokenPrice, error) {
	key := d.opts.Chain + ":" + token
	url := fmt.Sprintf("%s/prices/current/%s", d.opts.BaseURL, key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return TokenPrice{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return TokenPrice{}, fmt.Errorf("get price %s: %w", key, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return TokenPrice{}, fmt.Errorf("read price %s: %w", key, err)
	}
	if resp.StatusCode != http.StatusOK {
		return TokenPrice{}, fmt.Errorf("get price %s: unexpected status %d", key, resp.StatusCode)
	}

	var payload pricesResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return TokenPrice{}, fmt.Errorf("decode price %s: %w", key, err)
	}

	coin, ok := payload.Coins[key]
	if !ok {
		for k, v := range payload.Coins {
			if strings.EqualFold(k, key) {
				coin, ok = v, true
				break
			}
		}
	}
	if !ok {
		return TokenPrice{}, fmt.Errorf("price %s not found", key)
	}

	price := TokenPrice{Price: coin.Price, Decimals: 18}
	if coin.Decimals != nil {
		price.Decimals = *coin.Decimals
	}
	d.logger.Debug("price fetched", zap.String("token", key), zap.Float64("price", price.Price))
	return price, nil
}
