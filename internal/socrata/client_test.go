package socrata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addressRow struct {
	StreetName string `json:"street_name"`
	Address    string `json:"address"`
}

func TestCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/resource/3mea-di5p.json", r.URL.Path)
		assert.Equal(t, "COUNT(*)", r.URL.Query().Get("$select"))
		w.Write([]byte(`[{"COUNT":"253022"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	n, err := c.Count(context.Background(), "3mea-di5p")
	require.NoError(t, err)
	assert.Equal(t, 253022, n)
}

func TestCount_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Count(context.Background(), "3mea-di5p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}

func TestCount_UnparseableCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"COUNT":"many"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Count(context.Background(), "3mea-di5p")
	require.Error(t, err)
}

func TestRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/resource/3mea-di5p.json", r.URL.Path)
		assert.Equal(t, "Address", q.Get("$order"))
		assert.Equal(t, "5000", q.Get("$limit"))
		assert.Equal(t, "10000", q.Get("$offset"))
		w.Write([]byte(`[{"street_name":"lombard","address":"900 lombard st"},` +
			`{"street_name":"taylor","address":"1100 taylor st"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	rows, err := Rows[addressRow](context.Background(), c, "3mea-di5p", Query{
		Order:  "Address",
		Limit:  5000,
		Offset: 10000,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "lombard", rows[0].StreetName)
	assert.Equal(t, "1100 taylor st", rows[1].Address)
}

func TestRows_AppToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-token", r.URL.Query().Get("$$app_token"))
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithAppToken("secret-token"))
	rows, err := Rows[addressRow](context.Background(), c, "yitu-d5am", Query{Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRows_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := Rows[addressRow](context.Background(), c, "missing", Query{})
	require.Error(t, err)
}

func TestQueryValues(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want string
	}{
		{
			name: "empty query omits everything",
			q:    Query{},
			want: "",
		},
		{
			name: "where and select",
			q:    Query{Select: "title,locations", Where: "release_year > '2000'"},
			want: "%24select=title%2Clocations&%24where=release_year+%3E+%272000%27",
		},
		{
			name: "paging",
			q:    Query{Limit: 5000, Offset: 15000, Order: "Address"},
			want: "%24limit=5000&%24offset=15000&%24order=Address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.values().Encode())
		})
	}
}
