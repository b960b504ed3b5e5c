// Package newswire fetches recent news articles for a ticker from the news
// provider's JSON HTTP API.
package newswire

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/equity-research/internal/resilience"
)

const defaultBaseURL = "https://api.newswire.dev/v1"

// ErrNoArticles indicates the provider returned no articles for the ticker.
var ErrNoArticles = eris.New("newswire: no articles")

// Client fetches news for a ticker.
type Client interface {
	Articles(ctx context.Context, symbol string, limit int) ([]Article, error)
}

// Article is a single news item as returned by the provider.
type Article struct {
	Title       string    `json:"title"`
	Publisher   string    `json:"publisher"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
}

type articlesResponse struct {
	Symbol   string    `json:"symbol"`
	Articles []Article `json:"articles"`
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

// WithRetryConfig overrides the default retry behavior.
func WithRetryConfig(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) { c.retry = cfg }
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	retry   resilience.RetryConfig
}

// NewClient creates a newswire API client.
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
		retry: resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Articles(ctx context.Context, symbol string, limit int) ([]Article, error) {
	query := url.Values{}
	query.Set("symbol", symbol)
	if limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", limit))
	}
	query.Set("api_key", c.apiKey)

	result, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*articlesResponse, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/news?"+query.Encode(), nil)
		if err != nil {
			return nil, eris.Wrap(err, "create request")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, eris.Wrap(err, "send request")
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "read response")
		}

		switch {
		case resilience.IsTransientHTTPStatus(resp.StatusCode):
			return nil, resilience.NewTransientError(
				eris.Errorf("status %d: %s", resp.StatusCode, string(body)), resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return nil, eris.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		}

		var ar articlesResponse
		if err := json.Unmarshal(body, &ar); err != nil {
			return nil, eris.Wrap(err, "unmarshal response")
		}
		return &ar, nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "newswire: articles %s", symbol)
	}
	if len(result.Articles) == 0 {
		return nil, eris.Wrapf(ErrNoArticles, "newswire: articles %s", symbol)
	}
	return result.Articles, nil
}
