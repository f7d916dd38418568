package router

import (
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/attraction-registry/internal/config"
	"github.com/iliyamo/attraction-registry/internal/middleware"
	"github.com/iliyamo/attraction-registry/internal/model"
)

func withRedisCache(t *testing.T) func(*Options) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	cfg := config.CacheConfig{
		Enabled:     true,
		Methods:     map[string]bool{http.MethodGet: true},
		TTL:         time.Minute,
		KeyStrategy: "route_query",
		Prefix:      "test:cache",
	}
	return func(o *Options) {
		o.Cache = middleware.NewRedisCache(cfg, rdb)
		o.Invalidate = middleware.NewCacheInvalidator(cfg, rdb)
	}
}

func TestCachedReadsAreInvalidatedByWrites(t *testing.T) {
	api := setupTestAPI(t, 0, withRedisCache(t))

	rec := api.doJSON(http.MethodGet, "/attractions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	rec = api.doJSON(http.MethodGet, "/attractions", "")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Len(t, decode[[]model.Attraction](t, rec), 5)

	assert.Equal(t, "MISS", api.doJSON(http.MethodGet, "/attractions/1", "").Header().Get("X-Cache"))
	assert.Equal(t, "MISS", api.doJSON(http.MethodGet, "/attractions/2", "").Header().Get("X-Cache"))

	require.Equal(t, http.StatusCreated, api.doJSON(http.MethodPost, "/attractions", `{"name":"X"}`).Code)

	rec = api.doJSON(http.MethodGet, "/attractions", "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Len(t, decode[[]model.Attraction](t, rec), 6)
}

func TestFailedWritesKeepCache(t *testing.T) {
	api := setupTestAPI(t, 0, withRedisCache(t))

	api.doJSON(http.MethodGet, "/attractions", "")
	require.Equal(t, http.StatusNotFound, api.doJSON(http.MethodDelete, "/attractions/999", "").Code)

	assert.Equal(t, "HIT", api.doJSON(http.MethodGet, "/attractions", "").Header().Get("X-Cache"))
}

func TestNotFoundIsNotCached(t *testing.T) {
	api := setupTestAPI(t, 0, withRedisCache(t))

	api.doJSON(http.MethodGet, "/attractions/6", "")
	api.doJSON(http.MethodPost, "/attractions", `{"name":"X"}`)

	rec := api.doJSON(http.MethodGet, "/attractions/6", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "X", decode[model.Attraction](t, rec).Fields["name"])
}
