// Package storeapi fetches the weekly schedule and date overrides from
// the remote store backend, with a Redis read-through cache and a local
// key-value fallback so the app stays usable offline.
package storeapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"storehours/internal/cache"
	"storehours/internal/events"
	"storehours/internal/hours"
	"storehours/internal/metrics"
)

// Source tells callers where a payload came from.
type Source string

const (
	SourceRemote Source = "remote"
	SourceRedis  Source = "redis"
	SourceStale  Source = "stale" // local copy served after a fetch failure
)

const (
	localKeyStoreTimes = "store_times"
	localKeyOverrides  = "store_overrides:" // + "{month}-{day}"
)

// Client calls the store-hours backend.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client

	local cache.Store
	bus   *events.Bus

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient constructs a client with Basic auth credentials and a local
// store for offline fallback.
func NewClient(baseURL, username, password string, local cache.Store) *Client {
	return &Client{
		baseURL:    baseURL,
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		local:      local,
	}
}

// UseRedisCache configures optional Redis caching for GET endpoints.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// UseEventBus makes the client announce successful remote refreshes.
func (c *Client) UseEventBus(bus *events.Bus) {
	c.bus = bus
}

// StoreTimes returns the weekly schedule snapshot. Lookup order: Redis,
// remote, then the local copy if the remote fetch fails. The snapshot
// is replaced wholesale on every successful refresh.
func (c *Client) StoreTimes(ctx context.Context) ([]hours.WeeklyEntry, Source, error) {
	endpoint := fmt.Sprintf("%s/store-times/", c.baseURL)
	cacheKey := "store_times"

	var entries []hours.WeeklyEntry
	if c.readRedis(ctx, cacheKey, &entries) {
		metrics.IncScheduleFetch("store_times", string(SourceRedis))
		return entries, SourceRedis, nil
	}

	if err := c.doGet(ctx, endpoint, &entries); err != nil {
		if c.readLocal(ctx, localKeyStoreTimes, &entries) {
			metrics.IncScheduleFetch("store_times", string(SourceStale))
			return entries, SourceStale, nil
		}
		return nil, "", fmt.Errorf("fetch store times: %w", err)
	}

	c.writeRedis(ctx, cacheKey, entries)
	c.writeLocal(ctx, localKeyStoreTimes, entries)
	c.publishRefresh("store_times")
	metrics.IncScheduleFetch("store_times", string(SourceRemote))
	return entries, SourceRemote, nil
}

// Overrides returns the date-specific exceptions for (month, day),
// cached under the "{month}-{day}" key. A 404 from the backend means no
// overrides and is cached as an empty list.
func (c *Client) Overrides(ctx context.Context, month, day int) ([]hours.Override, Source, error) {
	endpoint := fmt.Sprintf("%s/store-overrides/date/%d/%d", c.baseURL, month, day)
	dateKey := fmt.Sprintf("%d-%d", month, day)
	cacheKey := "store_overrides:" + dateKey

	var overrides []hours.Override
	if c.readRedis(ctx, cacheKey, &overrides) {
		metrics.IncScheduleFetch("store_overrides", string(SourceRedis))
		return overrides, SourceRedis, nil
	}

	if err := c.doGet(ctx, endpoint, &overrides); err != nil {
		if c.readLocal(ctx, localKeyOverrides+dateKey, &overrides) {
			metrics.IncScheduleFetch("store_overrides", string(SourceStale))
			return overrides, SourceStale, nil
		}
		return nil, "", fmt.Errorf("fetch overrides %s: %w", dateKey, err)
	}
	if overrides == nil {
		overrides = []hours.Override{}
	}

	c.writeRedis(ctx, cacheKey, overrides)
	c.writeLocal(ctx, localKeyOverrides+dateKey, overrides)
	c.publishRefresh("store_overrides")
	metrics.IncScheduleFetch("store_overrides", string(SourceRemote))
	return overrides, SourceRemote, nil
}

// OverridesWindow bulk-fetches overrides for every (month, day) pair,
// merged into a map keyed by "{month}-{day}". Per-date failures fall
// back to empty lists so one bad date does not sink the window.
func (c *Client) OverridesWindow(ctx context.Context, dates [][2]int) (map[string][]hours.Override, error) {
	out := make(map[string][]hours.Override, len(dates))
	for _, d := range dates {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		overrides, _, err := c.Overrides(ctx, d[0], d[1])
		if err != nil {
			overrides = []hours.Override{}
		}
		out[fmt.Sprintf("%d-%d", d[0], d[1])] = overrides
	}
	return out, nil
}

func (c *Client) readRedis(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), out) == nil
}

func (c *Client) writeRedis(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func (c *Client) readLocal(ctx context.Context, key string, out any) bool {
	if c.local == nil {
		return false
	}
	data, err := c.local.Get(ctx, key)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

func (c *Client) writeLocal(ctx context.Context, key string, val any) {
	if c.local == nil {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.local.Set(ctx, key, data)
}

func (c *Client) publishRefresh(what string) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(events.Event{Type: events.TypeScheduleRefreshed, Payload: []byte(what)})
}

func (c *Client) doGet(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.basicAuth())
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// No data for this resource; callers treat it as empty.
		return nil
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) basicAuth() string {
	credentials := fmt.Sprintf("%s:%s", c.username, c.password)
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials))
}
