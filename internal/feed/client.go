package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout      = 20 * time.Second
	defaultUserAgent    = "transit-board/1.0"
	maxResponseBodySize = 4 << 20
)

// Options configures a feed client.
type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// RateLimit caps requests per second; zero disables limiting.
	RateLimit float64
	Burst     int
	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
	UserAgent  string
}

type client struct {
	source    string
	baseURL   string
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
}

func newClient(source, defaultURL string, opts Options) client {
	c := client{
		source:    source,
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		http:      opts.HTTPClient,
		userAgent: opts.UserAgent,
	}
	if c.baseURL == "" {
		c.baseURL = defaultURL
	}
	if c.http == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		c.http = &http.Client{Timeout: timeout}
	}
	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c
}

// getJSON performs a GET and decodes a 2xx JSON body into out.
func (c *client) getJSON(ctx context.Context, u string, header http.Header, out interface{}) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %s rate limit: %w", ErrTransport, c.source, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("feed: build %s request: %w", c.source, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s request: %w", ErrTransport, c.source, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return fmt.Errorf("%w: read %s response: %w", ErrTransport, c.source, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return buildAPIError(c.source, resp.StatusCode, raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s response: %w", ErrParse, c.source, err)
	}
	return nil
}
