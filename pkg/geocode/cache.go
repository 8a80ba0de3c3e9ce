package geocode

import (
	"context"
	"strings"
	"sync"
)

type cachedClient struct {
	inner Client
	mu    sync.Mutex
	memo  map[string]*Result
}

// Cached wraps c with in-memory query memoization so repeated queries cost
// one upstream request. Entries live for the process lifetime.
func Cached(c Client) Client {
	return &cachedClient{inner: c, memo: make(map[string]*Result)}
}

func (c *cachedClient) Geocode(ctx context.Context, query string) (*Result, error) {
	key := strings.ToLower(strings.TrimSpace(query))

	c.mu.Lock()
	if r, ok := c.memo[key]; ok {
		c.mu.Unlock()
		return r, nil
	}
	c.mu.Unlock()

	r, err := c.inner.Geocode(ctx, query)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.memo[key] = r
	c.mu.Unlock()
	return r, nil
}
