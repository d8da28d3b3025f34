package curve

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gaugeScope/internal/model"
)

const poolsPathMarker = "/getPools/"

var urlPattern = regexp.MustCompile("https?://[^\\s)\\]\"'`<>]+")

// Endpoints lists the per-chain REST endpoints to aggregate.
type Endpoints struct {
	Pools    []string
	BaseApys []string
}

// DiscoverEndpoints scans the endpoints document for getPools URLs and
// derives one getBaseApys URL per chain.
func (c *Client) DiscoverEndpoints(ctx context.Context) (Endpoints, error) {
	body, err := c.get(ctx, c.opts.EndpointsURL)
	if err != nil {
		return Endpoints{}, fmt.Errorf("fetch endpoints document: %w", err)
	}
	endpoints := ParseEndpoints(string(body))
	c.logger.Info("endpoints discovered",
		zap.Int("pools", len(endpoints.Pools)),
		zap.Int("base_apys", len(endpoints.BaseApys)),
	)
	return endpoints, nil
}

// ParseEndpoints extracts getPools URLs from a document, in order of first
// appearance, and derives the matching getBaseApys URLs.
func ParseEndpoints(document string) Endpoints {
	var endpoints Endpoints
	seenPools := make(map[string]struct{})
	seenBase := make(map[string]struct{})

	for _, url := range urlPattern.FindAllString(document, -1) {
		idx := strings.Index(url, poolsPathMarker)
		if idx < 0 {
			continue
		}
		if _, ok := seenPools[url]; ok {
			continue
		}
		seenPools[url] = struct{}{}
		endpoints.Pools = append(endpoints.Pools, url)

		chain := strings.SplitN(url[idx+len(poolsPathMarker):], "/", 2)[0]
		if chain == "" {
			continue
		}
		baseURL := url[:idx] + "/getBaseApys/" + chain
		if _, ok := seenBase[baseURL]; ok {
			continue
		}
		seenBase[baseURL] = struct{}{}
		endpoints.BaseApys = append(endpoints.BaseApys, baseURL)
	}
	return endpoints
}

type poolsResponse struct {
	Data struct {
		PoolData []model.Pool `json:"poolData"`
	} `json:"data"`
}

type baseApysResponse struct {
	Data struct {
		BaseApys []model.BaseApy `json:"baseApys"`
	} `json:"data"`
}

// FetchPools fetches every pool endpoint concurrently and indexes pools by
// lower-cased gauge address. On collision the endpoint listed later wins.
func (c *Client) FetchPools(ctx context.Context, urls []string) (map[string]model.Pool, error) {
	responses := make([]poolsResponse, len(urls))
	if err := c.fanOut(ctx, urls, func(i int) interface{} { return &responses[i] }); err != nil {
		return nil, fmt.Errorf("fetch pools: %w", err)
	}

	pools := make(map[string]model.Pool)
	for _, resp := range responses {
		for _, pool := range resp.Data.PoolData {
			if pool.GaugeAddress == "" {
				continue
			}
			pools[model.AddressKey(pool.GaugeAddress)] = pool
		}
	}
	c.logger.Info("pools fetched", zap.Int("endpoints", len(urls)), zap.Int("gauged_pools", len(pools)))
	return pools, nil
}

// FetchBaseApys fetches every base APY endpoint concurrently and indexes
// entries by lower-cased swap address.
func (c *Client) FetchBaseApys(ctx context.Context, urls []string) (map[string]model.BaseApy, error) {
	responses := make([]baseApysResponse, len(urls))
	if err := c.fanOut(ctx, urls, func(i int) interface{} { return &responses[i] }); err != nil {
		return nil, fmt.Errorf("fetch base apys: %w", err)
	}

	apys := make(map[string]model.BaseApy)
	for _, resp := range responses {
		for _, apy := range resp.Data.BaseApys {
			if apy.Address == "" {
				continue
			}
			apys[model.AddressKey(apy.Address)] = apy
		}
	}
	c.logger.Info("base apys fetched", zap.Int("endpoints", len(urls)), zap.Int("pools", len(apys)))
	return apys, nil
}

// fanOut decodes every url into the slot returned by target(i). The first
// failure cancels the others and is returned.
func (c *Client) fanOut(ctx context.Context, urls []string, target func(i int) interface{}) error {
	group, ctx := errgroup.WithContext(ctx)
	for i, url := range urls {
		i, url := i, url
		group.Go(func() error {
			return c.getJSON(ctx, url, target(i))
		})
	}
	return group.Wait()
}
