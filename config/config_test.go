package config

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unkn0wn-root/fetchcache/store/bigcache"
	"github.com/unkn0wn-root/fetchcache/store/local"
	"github.com/unkn0wn-root/fetchcache/store/redis"
	"github.com/unkn0wn-root/fetchcache/store/ristretto"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mem://", cfg.StoreURL)
	assert.Equal(t, 10*time.Second, cfg.TTL)
	assert.Equal(t, "count:", cfg.CounterPrefix)
	assert.Equal(t, "result:", cfg.ContentPrefix)
	assert.False(t, cfg.CollapseMisses)
	assert.Equal(t, 3, cfg.OriginRetries)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FETCHCACHE_STORE_URL", "redis://localhost:6379/1")
	t.Setenv("FETCHCACHE_TTL", "1m")
	t.Setenv("FETCHCACHE_COLLAPSE_MISSES", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "redis://localhost:6379/1", cfg.StoreURL)
	assert.Equal(t, time.Minute, cfg.TTL)
	assert.True(t, cfg.CollapseMisses)
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("FETCHCACHE_TTL", "soon")
	_, err := Load()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "parse env:"), "got %v", err)

	t.Setenv("FETCHCACHE_TTL", "0s")
	_, err = Load()
	assert.Error(t, err)
}

func TestOpenStoreSchemes(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	cases := []struct {
		url  string
		want any
	}{
		{"mem://", &local.Store{}},
		{"redis://" + mr.Addr() + "/0", &redis.Redis{}},
		{"ristretto://?max_cost=1048576", &ristretto.Store{}},
		{"bigcache://", &bigcache.Store{}},
	}
	for _, tc := range cases {
		cfg := Config{StoreURL: tc.url, TTL: 10 * time.Second}
		st, err := cfg.OpenStore(ctx)
		require.NoError(t, err, tc.url)
		assert.IsType(t, tc.want, st, tc.url)
		assert.NoError(t, st.Close(ctx))
	}
}

func TestOpenStoreErrors(t *testing.T) {
	ctx := context.Background()
	for _, u := range []string{
		"nope",
		"ftp://x",
		"ristretto://?max_cost=-1",
		"memcache://",
		"redis://127.0.0.1:1/0",
	} {
		_, err := Config{StoreURL: u, TTL: time.Second}.OpenStore(ctx)
		assert.Error(t, err, u)
	}
}

func TestNewFetcherEndToEnd(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	mr := miniredis.RunT(t)
	cfg := Config{
		StoreURL:      "redis://" + mr.Addr() + "/0",
		TTL:           10 * time.Second,
		CounterPrefix: "count:",
		OriginTimeout: 5 * time.Second,
		MaxBodyBytes:  1 << 10,
	}
	f, err := cfg.NewFetcher(ctx, nil, nil)
	require.NoError(t, err)
	defer f.Close(ctx)

	body, err := f.Fetch(ctx, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "hello", body)

	n, err := f.AccessCount(ctx, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := mr.Get("count:" + srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "1", got)
	assert.Equal(t, 10*time.Second, mr.TTL("result:"+srv.URL))
}
