// Package marketdata provides quotes, price history, company profiles, and
// fundamental ratios for a ticker over the provider's JSON HTTP API.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/equity-research/internal/resilience"
)

const defaultBaseURL = "https://api.stockgrid.io/v1"

// ErrDataUnavailable indicates the provider has no data for the requested
// ticker. Stages treat this as a stage failure.
var ErrDataUnavailable = eris.New("marketdata: data unavailable")

// Client fetches market data for a ticker.
type Client interface {
	Quote(ctx context.Context, symbol string) (*Quote, error)
	Profile(ctx context.Context, symbol string) (*Profile, error)
	DailyHistory(ctx context.Context, symbol string, days int) (*History, error)
	Ratios(ctx context.Context, symbol string) (*Ratios, error)
}

// Quote is the provider's point-in-time quote.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	PreviousClose float64   `json:"previous_close"`
	MarketCap     float64   `json:"market_cap"`
	Volume        int64     `json:"volume"`
	Timestamp     time.Time `json:"timestamp"`
}

// Profile is the provider's company description record.
type Profile struct {
	Symbol      string `json:"symbol"`
	CompanyName string `json:"company_name"`
	Sector      string `json:"sector"`
	Industry    string `json:"industry"`
	Exchange    string `json:"exchange"`
	Description string `json:"description"`
}

// Bar is one day of OHLCV data.
type Bar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// History is a daily price series, oldest bar first.
type History struct {
	Symbol string `json:"symbol"`
	Bars   []Bar  `json:"bars"`
}

// Closes returns the closing prices in series order.
func (h *History) Closes() []float64 {
	closes := make([]float64, len(h.Bars))
	for i, b := range h.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Ratios holds fundamental ratios. Fields are nil when the provider does not
// report them for the ticker.
type Ratios struct {
	Symbol        string   `json:"symbol"`
	PERatio       *float64 `json:"pe_ratio"`
	PriceToBook   *float64 `json:"price_to_book"`
	DividendYield *float64 `json:"dividend_yield"`
	Beta          *float64 `json:"beta"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit caps outbound requests per second (free-tier API quota).
func WithRateLimit(rps float64, burst int) Option {
	return func(c *httpClient) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// WithRetryConfig overrides the default retry behavior.
func WithRetryConfig(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) { c.retry = cfg }
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates a market data API client.
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
		limiter: rate.NewLimiter(rate.Limit(5), 10),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Quote(ctx context.Context, symbol string) (*Quote, error) {
	var q Quote
	if err := c.get(ctx, "/quote/"+url.PathEscape(symbol), nil, &q); err != nil {
		return nil, eris.Wrapf(err, "marketdata: quote %s", symbol)
	}
	return &q, nil
}

func (c *httpClient) Profile(ctx context.Context, symbol string) (*Profile, error) {
	var p Profile
	if err := c.get(ctx, "/profile/"+url.PathEscape(symbol), nil, &p); err != nil {
		return nil, eris.Wrapf(err, "marketdata: profile %s", symbol)
	}
	return &p, nil
}

func (c *httpClient) DailyHistory(ctx context.Context, symbol string, days int) (*History, error) {
	query := url.Values{}
	if days > 0 {
		query.Set("days", fmt.Sprintf("%d", days))
	}
	var h History
	if err := c.get(ctx, "/history/"+url.PathEscape(symbol), query, &h); err != nil {
		return nil, eris.Wrapf(err, "marketdata: history %s", symbol)
	}
	return &h, nil
}

func (c *httpClient) Ratios(ctx context.Context, symbol string) (*Ratios, error) {
	var r Ratios
	if err := c.get(ctx, "/ratios/"+url.PathEscape(symbol), nil, &r); err != nil {
		return nil, eris.Wrapf(err, "marketdata: ratios %s", symbol)
	}
	return &r, nil
}

func (c *httpClient) get(ctx context.Context, path string, query url.Values, out any) error {
	return resilience.Do(ctx, c.retry, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		if query == nil {
			query = url.Values{}
		}
		query.Set("apikey", c.apiKey)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
		if err != nil {
			return eris.Wrap(err, "create request")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return eris.Wrap(err, "send request")
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return eris.Wrap(err, "read response")
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return ErrDataUnavailable
		case resilience.IsTransientHTTPStatus(resp.StatusCode):
			return resilience.NewTransientError(
				eris.Errorf("status %d: %s", resp.StatusCode, string(body)), resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return eris.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		}

		return eris.Wrap(json.Unmarshal(body, out), "unmarshal response")
	})
}
