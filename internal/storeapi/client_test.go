package storeapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storehours/internal/cache"
	"storehours/internal/events"
	"storehours/internal/hours"
)

const weeklyJSON = `[
	{"id": 1, "day_of_week": 0, "is_open": true, "start_time": "09:00", "end_time": "17:00"},
	{"id": 2, "day_of_week": 1, "is_open": false}
]`

func newTestServer(t *testing.T, hits *int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/store-times/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(hits, 1)
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(weeklyJSON))
	})
	mux.HandleFunc("/store-overrides/date/12/25", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"month": 12, "day": 25, "is_open": false}]`))
	})
	mux.HandleFunc("/store-overrides/date/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestStoreTimesRemote(t *testing.T) {
	var hits int64
	srv := newTestServer(t, &hits)
	client := NewClient(srv.URL, "user", "pass", cache.NewMemory())

	entries, source, err := client.StoreTimes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, source)
	require.Len(t, entries, 2)
	assert.Equal(t, hours.Open, entries[0].Open)
	assert.Equal(t, "09:00", entries[0].StartTime)
	assert.Equal(t, hours.Closed, entries[1].Open)
}

func TestStoreTimesRedisCache(t *testing.T) {
	var hits int64
	srv := newTestServer(t, &hits)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	client := NewClient(srv.URL, "user", "pass", cache.NewMemory())
	client.UseRedisCache(rdb, time.Minute)

	ctx := context.Background()
	_, source, err := client.StoreTimes(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, source)

	entries, source, err := client.StoreTimes(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceRedis, source)
	assert.Len(t, entries, 2)
	assert.EqualValues(t, 1, atomic.LoadInt64(&hits), "second call must not hit the backend")
}

func TestStoreTimesStaleFallback(t *testing.T) {
	var hits int64
	srv := newTestServer(t, &hits)
	local := cache.NewMemory()
	client := NewClient(srv.URL, "user", "pass", local)

	ctx := context.Background()
	_, _, err := client.StoreTimes(ctx)
	require.NoError(t, err)

	// Backend goes away; the local copy keeps serving.
	srv.Close()

	entries, source, err := client.StoreTimes(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceStale, source)
	assert.Len(t, entries, 2)
}

func TestStoreTimesNoFallbackFails(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "user", "pass", cache.NewMemory())

	_, _, err := client.StoreTimes(context.Background())
	assert.Error(t, err)
}

func TestOverrides(t *testing.T) {
	var hits int64
	srv := newTestServer(t, &hits)
	client := NewClient(srv.URL, "user", "pass", cache.NewMemory())

	ctx := context.Background()
	overrides, source, err := client.Overrides(ctx, 12, 25)
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, source)
	require.Len(t, overrides, 1)
	assert.Equal(t, hours.Closed, overrides[0].Open)
	assert.Equal(t, "12-25", overrides[0].Key())
}

func TestOverridesNotFoundMeansEmpty(t *testing.T) {
	var hits int64
	srv := newTestServer(t, &hits)
	client := NewClient(srv.URL, "user", "pass", cache.NewMemory())

	overrides, _, err := client.Overrides(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Empty(t, overrides)
}

func TestOverridesWindow(t *testing.T) {
	var hits int64
	srv := newTestServer(t, &hits)
	client := NewClient(srv.URL, "user", "pass", cache.NewMemory())

	window, err := client.OverridesWindow(context.Background(), [][2]int{{12, 24}, {12, 25}})
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Empty(t, window["12-24"])
	assert.Len(t, window["12-25"], 1)
}

func TestRefreshPublishesEvent(t *testing.T) {
	var hits int64
	srv := newTestServer(t, &hits)

	bus := events.NewBus()
	var refreshed int
	bus.Subscribe(events.TypeScheduleRefreshed, func(events.Event) { refreshed++ })

	client := NewClient(srv.URL, "user", "pass", cache.NewMemory())
	client.UseEventBus(bus)

	_, _, err := client.StoreTimes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, refreshed)
}
