package images

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBaseURL     = "https://cdn.jsdelivr.net/gh/curvefi/curve-assets/images/assets"
	defaultPlaceholder = "https://cdn.jsdelivr.net/gh/curvefi/curve-assets/images/assets/placeholder.png"
)

// Options parameterise the resolver.
type Options struct {
	BaseURL     string
	Placeholder string
	Timeout     time.Duration
}

// Resolver maps token addresses to image URLs. Each address is checked
// against the CDN once; later lookups reuse the first answer.
type Resolver struct {
	opts   Options
	client *http.Client
	logger *zap.Logger

	mu   sync.Mutex
	memo map[string]string
}

// NewResolver builds a resolver with an empty memo.
func NewResolver(opts Options, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Placeholder == "" {
		opts.Placeholder = defaultPlaceholder
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Resolver{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
		logger: logger.With(zap.String("component", "image_resolver")),
		memo:   make(map[string]string),
	}
}

// Resolve returns the CDN image for token, or the placeholder when the CDN
// has none or cannot be reached.
func (r *Resolver) Resolve(ctx context.Context, token string) string {
	key := strings.ToLower(strings.TrimSpace(token))
	if key == "" {
		return r.opts.Placeholder
	}

	r.mu.Lock()
	if url, ok := r.memo[key]; ok {
		r.mu.Unlock()
		return url
	}
	r.mu.Unlock()

	url := r.check(ctx, key)

	r.mu.Lock()
	r.memo[key] = url
	r.mu.Unlock()
	return url
}

// Len returns the number of memoized addresses.
func (r *Resolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.memo)
}

func (r *Resolver) check(ctx context.Context, key string) string {
	url := r.opts.BaseURL + "/" + key + ".png"
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return r.opts.Placeholder
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Debug("image check failed", zap.String("token", key), zap.Error(err))
		return r.opts.Placeholder
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return r.opts.Placeholder
	}
	return url
}
