// Package socrata reads datasets from a Socrata Open Data API host such as
// data.sfgov.org. Queries use SoQL parameters ($select, $where, $order,
// $limit, $offset) against /resource/<dataset>.json endpoints.
package socrata

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/reelmap/locations-cli/internal/fetcher"
)

// Client queries a single Socrata host.
type Client struct {
	host     string
	appToken string
	fetcher  fetcher.Fetcher
}

// Option configures the client.
type Option func(*Client)

// WithAppToken sets the application token sent with every request.
// Unauthenticated requests share a throttled pool, so set one for bulk pulls.
func WithAppToken(token string) Option {
	return func(c *Client) {
		c.appToken = token
	}
}

// WithFetcher overrides the default HTTP fetcher.
func WithFetcher(f fetcher.Fetcher) Option {
	return func(c *Client) {
		c.fetcher = f
	}
}

// NewClient creates a client for the given Socrata host, e.g.
// "https://data.sfgov.org".
func NewClient(host string, opts ...Option) *Client {
	c := &Client{
		host: host,
		fetcher: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			Timeout: 60 * time.Second,
		}),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Query holds SoQL parameters for a resource read. Zero values are omitted
// from the request.
type Query struct {
	Select string
	Where  string
	Order  string
	Limit  int
	Offset int
}

func (q Query) values() url.Values {
	v := url.Values{}
	if q.Select != "" {
		v.Set("$select", q.Select)
	}
	if q.Where != "" {
		v.Set("$where", q.Where)
	}
	if q.Order != "" {
		v.Set("$order", q.Order)
	}
	if q.Limit > 0 {
		v.Set("$limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("$offset", strconv.Itoa(q.Offset))
	}
	return v
}

func (c *Client) resourceURL(dataset string, q Query) string {
	v := q.values()
	if c.appToken != "" {
		v.Set("$$app_token", c.appToken)
	}
	u := c.host + "/resource/" + dataset + ".json"
	if enc := v.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

// countRow matches the single-row response of a $select=COUNT(*) query.
// Socrata names the synthesized column COUNT.
type countRow struct {
	Count string `json:"COUNT"`
}

// Count returns the total row count of the dataset.
func (c *Client) Count(ctx context.Context, dataset string) (int, error) {
	rows, err := Rows[countRow](ctx, c, dataset, Query{Select: "COUNT(*)"})
	if err != nil {
		return 0, eris.Wrapf(err, "socrata: count %s", dataset)
	}
	if len(rows) == 0 {
		return 0, eris.Errorf("socrata: count %s: empty response", dataset)
	}
	n, err := strconv.Atoi(rows[0].Count)
	if err != nil {
		return 0, eris.Wrapf(err, "socrata: count %s: parse %q", dataset, rows[0].Count)
	}
	return n, nil
}

// Rows fetches one page of a dataset decoded into T.
func Rows[T any](ctx context.Context, c *Client, dataset string, q Query) ([]T, error) {
	body, err := c.fetcher.Download(ctx, c.resourceURL(dataset, q))
	if err != nil {
		return nil, eris.Wrapf(err, "socrata: fetch %s", dataset)
	}
	defer body.Close() //nolint:errcheck

	ch, errCh := fetcher.DecodeJSONArray[T](ctx, body)
	var out []T
	for rec := range ch {
		out = append(out, rec)
	}
	if err := <-errCh; err != nil {
		return nil, eris.Wrapf(err, "socrata: decode %s", dataset)
	}
	return out, nil
}
