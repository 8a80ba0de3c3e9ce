package landmarks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelmap/locations-cli/internal/fetcher"
	"github.com/reelmap/locations-cli/internal/model"
)

// memCache is an in-memory Cache for loader tests.
type memCache struct {
	records []model.LandmarkRecord
	saved   []model.LandmarkRecord
	loadErr error
	saveErr error
}

func (m *memCache) Load() ([]model.LandmarkRecord, bool, error) {
	if m.loadErr != nil {
		return nil, false, m.loadErr
	}
	return m.records, len(m.records) > 0, nil
}

func (m *memCache) Save(records []model.LandmarkRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = records
	return nil
}

func newPageServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(landmarkPage))
	}))
}

func TestLoaderCacheHitSkipsScrape(t *testing.T) {
	var hits atomic.Int32
	srv := newPageServer(t, &hits)
	defer srv.Close()

	cached := []model.LandmarkRecord{{Name: "coit tower", Address: "1 telegraph hill blvd"}}
	cache := &memCache{records: cached}
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: 5 * time.Second})
	loader := NewLoader(cache, NewScraper(f, srv.URL))

	records, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cached, records)
	assert.Equal(t, int32(0), hits.Load())
}

func TestLoaderCacheMissScrapesAndSaves(t *testing.T) {
	var hits atomic.Int32
	srv := newPageServer(t, &hits)
	defer srv.Close()

	cache := &memCache{}
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: 5 * time.Second})
	loader := NewLoader(cache, NewScraper(f, srv.URL))

	records, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, records, cache.saved)
}

func TestLoaderSaveFailureIsFatal(t *testing.T) {
	var hits atomic.Int32
	srv := newPageServer(t, &hits)
	defer srv.Close()

	cache := &memCache{saveErr: assert.AnError}
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: 5 * time.Second})
	loader := NewLoader(cache, NewScraper(f, srv.URL))

	_, err := loader.Load(context.Background())
	require.Error(t, err)
}

func TestLoaderCacheLoadFailureIsFatal(t *testing.T) {
	cache := &memCache{loadErr: assert.AnError}
	loader := NewLoader(cache, nil)

	_, err := loader.Load(context.Background())
	require.Error(t, err)
}
