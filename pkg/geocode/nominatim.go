package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// sharedLimiter paces every client that does not override its limiter. The
// Nominatim usage policy allows at most 1 request per second per process.
var sharedLimiter = rate.NewLimiter(rate.Limit(1), 1)

// Option configures the client.
type Option func(*nominatim)

// WithBaseURL overrides the default Nominatim endpoint.
func WithBaseURL(u string) Option {
	return func(n *nominatim) {
		n.baseURL = u
	}
}

// WithUserAgent sets the User-Agent header. Nominatim requires clients to
// identify themselves.
func WithUserAgent(ua string) Option {
	return func(n *nominatim) {
		n.userAgent = ua
	}
}

// WithQuerySuffix appends a fixed suffix to every query, anchoring free-text
// searches to one city (e.g. ", San Francisco, CA").
func WithQuerySuffix(s string) Option {
	return func(n *nominatim) {
		n.querySuffix = s
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(n *nominatim) {
		n.http = hc
	}
}

// WithRateLimit replaces the shared process-wide limiter with a private one.
func WithRateLimit(rps float64) Option {
	return func(n *nominatim) {
		n.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

type nominatim struct {
	baseURL     string
	userAgent   string
	querySuffix string
	http        *http.Client
	limiter     *rate.Limiter
}

// NewClient creates a Nominatim-backed geocoding client.
func NewClient(opts ...Option) Client {
	n := &nominatim{
		baseURL:   defaultBaseURL,
		userAgent: "reelmap/1.0",
		http:      &http.Client{Timeout: 5 * time.Second},
		limiter:   sharedLimiter,
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// nominatimPlace is one entry of the /search JSON response. Coordinates
// arrive as strings.
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (n *nominatim) Geocode(ctx context.Context, query string) (*Result, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limit wait")
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("q", query+n.querySuffix)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: create request")
	}
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: search %q", query)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: nominatim returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read response")
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, eris.Wrap(err, "geocode: parse response")
	}
	if len(places) == 0 {
		return &Result{Matched: false}, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: parse lat %q", places[0].Lat)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, eris.Wrapf(err, "geocode: parse lon %q", places[0].Lon)
	}

	return &Result{
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: places[0].DisplayName,
		Matched:     true,
	}, nil
}
