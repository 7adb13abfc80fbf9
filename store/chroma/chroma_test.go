package chroma

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"doc_retrieval/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestToMatches_PreservesOrder(t *testing.T) {
	g := queryGroups{
		ids:   [][]string{{"c3", "c1", "c2"}},
		docs:  [][]*string{{ptr("revenue grew"), ptr("cloud segment"), ptr("risk factors")}},
		dists: [][]float32{{0.1, 0.2, 0.3}},
	}

	matches, err := toMatches(g, 3)
	require.NoError(t, err)
	assert.Equal(t, []store.Match{
		{ID: "c3", Document: "revenue grew", Distance: 0.1},
		{ID: "c1", Document: "cloud segment", Distance: 0.2},
		{ID: "c2", Document: "risk factors", Distance: 0.3},
	}, matches)
}

func TestToMatches_FewerThanKWithoutDistances(t *testing.T) {
	g := queryGroups{
		ids:  [][]string{{"a"}},
		docs: [][]*string{{ptr("only one")}},
	}

	matches, err := toMatches(g, 5)
	require.NoError(t, err)
	assert.Equal(t, []store.Match{{ID: "a", Document: "only one"}}, matches)
}

func TestToMatches_Empty(t *testing.T) {
	matches, err := toMatches(queryGroups{ids: [][]string{{}}, docs: [][]*string{{}}}, 5)
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestToMatches_Malformed(t *testing.T) {
	doc := ptr("text")
	tests := []struct {
		name string
		g    queryGroups
		k    int
	}{
		{"no result lists", queryGroups{}, 3},
		{"two result lists", queryGroups{
			ids:  [][]string{{"a"}, {"b"}},
			docs: [][]*string{{doc}, {doc}},
		}, 3},
		{"documents missing", queryGroups{ids: [][]string{{"a"}}}, 3},
		{"length mismatch", queryGroups{
			ids:  [][]string{{"a", "b"}},
			docs: [][]*string{{doc}},
		}, 3},
		{"null document", queryGroups{
			ids:  [][]string{{"a"}},
			docs: [][]*string{{nil}},
		}, 3},
		{"more than k", queryGroups{
			ids:  [][]string{{"a", "b"}},
			docs: [][]*string{{doc, doc}},
		}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := toMatches(tt.g, tt.k)
			assert.ErrorIs(t, err, store.ErrMalformedResult)
		})
	}
}

func TestOpen_ServerUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"starting up"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	_, err = Open(context.Background(), Config{
		Host:       host,
		Port:       port,
		Tenant:     "default_tenant",
		Database:   "default_database",
		Collection: "google_10k_2023",
		Timeout:    5 * time.Second,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chroma")
}

func TestOpen_Unreachable(t *testing.T) {
	_, err := Open(context.Background(), Config{
		Host:       "127.0.0.1",
		Port:       1,
		Tenant:     "default_tenant",
		Database:   "default_database",
		Collection: "x",
		Timeout:    time.Second,
	})
	require.Error(t, err)
}
