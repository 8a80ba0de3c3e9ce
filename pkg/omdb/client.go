// Package omdb is a client for the OMDB film metadata API.
package omdb

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

const defaultBaseURL = "https://www.omdbapi.com"

// ErrNotFound is returned when OMDB has no record for the searched title.
var ErrNotFound = eris.New("omdb: title not found")

// Client looks up film metadata by title.
type Client interface {
	Lookup(ctx context.Context, title, year string) (*Film, error)
}

// Film is the OMDB record for one title. Field names follow the API's
// response keys; everything is a string on the wire, including ratings.
type Film struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Genre      string `json:"Genre"`
	Director   string `json:"Director"`
	Plot       string `json:"Plot"`
	IMDBRating string `json:"imdbRating"`

	Response string `json:"Response"`
	Error    string `json:"Error,omitempty"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default request rate of 10 per second.
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

// NewClient creates an OMDB API client.
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
		limiter: rate.NewLimiter(rate.Limit(10), 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Lookup(ctx context.Context, title, year string) (*Film, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "omdb: rate limit wait")
	}

	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("t", title)
	if year != "" {
		params.Set("y", year)
	}
	params.Set("plot", "full")
	params.Set("r", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "omdb: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "omdb: lookup %q", title)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "omdb: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("omdb: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var film Film
	if err := json.Unmarshal(body, &film); err != nil {
		return nil, eris.Wrap(err, "omdb: unmarshal response")
	}

	if film.Response == "False" {
		return nil, ErrNotFound
	}
	return &film, nil
}
