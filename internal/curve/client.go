package curve

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

const (
	defaultEndpointsURL = "https://raw.githubusercontent.com/curvefi/curve-api/11a52585949bb473b55b557527aecbf016723306/endpoints.md"
	defaultGaugesURL    = "https://api.curve.fi/api/getAllGauges"
	defaultUserAgent    = "gaugescope/1.0"
)

// Options parameterise the Curve API client.
type Options struct {
	EndpointsURL string
	GaugesURL    string
	Timeout      time.Duration
	UserAgent    string
}

// Client talks to the Curve REST API.
type Client struct {
	opts   Options
	client *http.Client
	logger *zap.Logger
}

// NewClient constructs a Curve API client.
func NewClient(opts Options, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.EndpointsURL == "" {
		opts.EndpointsURL = defaultEndpointsURL
	}
	if opts.GaugesURL == "" {
		opts.GaugesURL = defaultGaugesURL
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = defaultUserAgent
	}
	return &Client{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
		logger: logger.With(zap.String("component", "curve_api")),
	}
}

// get fetches url and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("get %s: unexpected status %d", url, resp.StatusCode)
	}
	return body, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	body, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
