// Package zillow wraps the RapidAPI Zillow comps endpoint used as the
// comparable-sales evidence provider.
package zillow

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://zillow-com1.p.rapidapi.com"
	defaultHost    = "zillow-com1.p.rapidapi.com"
)

// Client fetches comparable sales for a subject property.
type Client interface {
	Comps(ctx context.Context, req CompsRequest) (*CompsResponse, error)
}

// CompsRequest identifies the subject property.
type CompsRequest struct {
	Address    string
	ListingID  string
	AssetClass string
}

// CompsResponse is the raw provider payload. Comp records are kept
// loosely typed; verification downstream decides what survives.
type CompsResponse struct {
	Comps []map[string]any `json:"comps"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outbound requests per second. RapidAPI free tiers
// throttle hard, so the default is conservative.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Zillow comps client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(2), 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Comps(ctx context.Context, req CompsRequest) (*CompsResponse, error) {
	if req.Address == "" {
		return nil, eris.New("zillow: address is required")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "zillow: rate limit wait")
	}

	q := url.Values{}
	q.Set("address", req.Address)
	if req.ListingID != "" {
		q.Set("mlsId", req.ListingID)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/propertyComps?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "zillow: create request")
	}
	httpReq.Header.Set("X-RapidAPI-Key", c.apiKey)
	httpReq.Header.Set("X-RapidAPI-Host", defaultHost)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "zillow: execute request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "zillow: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("zillow: unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var out CompsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "zillow: decode response")
	}
	return &out, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
