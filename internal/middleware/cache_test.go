package middleware

import (
    "bytes"
    "context"
    "log"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/attraction-registry/internal/config"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
    t.Helper()
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { _ = rdb.Close() })
    return mr, rdb
}

func testCacheConfig() config.CacheConfig {
    return config.CacheConfig{
        Enabled:     true,
        Methods:     map[string]bool{http.MethodGet: true},
        TTL:         time.Minute,
        KeyStrategy: "route_query",
        Prefix:      "test:cache",
    }
}

func serve(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
    return rec
}

func TestCacheKeyFrom_DistinguishesPathsAndQueries(t *testing.T) {
    e := echo.New()
    cfg := testCacheConfig()
    key := func(target string) string {
        c := e.NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())
        c.SetPath("/attractions/:id")
        return cacheKeyFrom(cfg, c)
    }

    assert.True(t, strings.HasPrefix(key("/attractions/1"), "test:cache:"))
    assert.NotEqual(t, key("/attractions/1"), key("/attractions/2"))
    assert.NotEqual(t, key("/attractions/1"), key("/attractions/1?x=1"))
    assert.Equal(t, key("/attractions/1"), key("/attractions/1"))

    cfg.KeyStrategy = "route"
    assert.Equal(t, key("/attractions/1"), key("/attractions/1?x=1"))
}

func TestEncodeDecodePayload(t *testing.T) {
    hdr := http.Header{"Content-Type": {"application/json"}}
    bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"id":1}`))
    require.NoError(t, err)

    status, gotHdr, body, ok := decodePayload(bs)
    require.True(t, ok)
    assert.Equal(t, http.StatusOK, status)
    assert.Equal(t, hdr, gotHdr)
    assert.Equal(t, `{"id":1}`, string(body))

    _, _, _, ok = decodePayload([]byte{0, 1})
    assert.False(t, ok)
}

func TestNewRedisCache_HitAndMiss(t *testing.T) {
    _, rdb := newTestRedis(t)
    calls := 0
    e := echo.New()
    e.GET("/attractions", func(c echo.Context) error {
        calls++
        return c.JSON(http.StatusOK, []int{calls})
    }, NewRedisCache(testCacheConfig(), rdb))

    first := serve(e, http.MethodGet, "/attractions")
    second := serve(e, http.MethodGet, "/attractions")

    assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
    assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
    assert.Equal(t, first.Body.String(), second.Body.String())
    assert.Contains(t, second.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
    assert.Equal(t, 1, calls)
}

func TestNewRedisCache_SkipsOversizedBodies(t *testing.T) {
    _, rdb := newTestRedis(t)
    cfg := testCacheConfig()
    cfg.MaxBodyBytes = 8
    e := echo.New()
    e.GET("/big", func(c echo.Context) error {
        return c.String(http.StatusOK, string(bytes.Repeat([]byte("x"), 64)))
    }, NewRedisCache(cfg, rdb))

    serve(e, http.MethodGet, "/big")
    rec := serve(e, http.MethodGet, "/big")

    assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
    assert.Len(t, rec.Body.String(), 64)
}

func TestNewRedisCache_DisabledPassesThrough(t *testing.T) {
    cfg := testCacheConfig()
    cfg.Enabled = false
    e := echo.New()
    e.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, NewRedisCache(cfg, nil))

    rec := serve(e, http.MethodGet, "/x")

    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestNewCacheInvalidator(t *testing.T) {
    mr, rdb := newTestRedis(t)
    require.NoError(t, mr.Set("test:cache:a", "1"))
    require.NoError(t, mr.Set("test:cache:b", "2"))
    require.NoError(t, mr.Set("other:key", "3"))

    e := echo.New()
    e.Logger.SetOutput(&bytes.Buffer{})
    inv := NewCacheInvalidator(testCacheConfig(), rdb)
    e.POST("/fail", func(c echo.Context) error { return echo.ErrNotFound }, inv)
    e.POST("/bad", func(c echo.Context) error { return c.NoContent(http.StatusBadRequest) }, inv)
    e.POST("/ok", func(c echo.Context) error { return c.NoContent(http.StatusCreated) }, inv)

    serve(e, http.MethodPost, "/fail")
    serve(e, http.MethodPost, "/bad")
    assert.True(t, mr.Exists("test:cache:a"))

    serve(e, http.MethodPost, "/ok")
    assert.False(t, mr.Exists("test:cache:a"))
    assert.False(t, mr.Exists("test:cache:b"))
    assert.True(t, mr.Exists("other:key"))
}

func TestNewRedisCache_InvalidationDuringHandlerIsNotStored(t *testing.T) {
    mr, rdb := newTestRedis(t)
    cfg := testCacheConfig()
    e := echo.New()
    e.Logger.SetOutput(&bytes.Buffer{})
    inv := NewCacheInvalidator(cfg, rdb)
    e.POST("/attractions", func(c echo.Context) error { return c.NoContent(http.StatusCreated) }, inv)

    version := 0
    e.GET("/attractions", func(c echo.Context) error {
        err := c.JSON(http.StatusOK, []int{version})
        // A write completes after this read but before the cache stores it.
        if version == 0 {
            version++
            require.Equal(t, http.StatusCreated, serve(e, http.MethodPost, "/attractions").Code)
        }
        return err
    }, NewRedisCache(cfg, rdb))

    first := serve(e, http.MethodGet, "/attractions")
    assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
    assert.Equal(t, "[0]", strings.TrimSpace(first.Body.String()))
    for _, k := range mr.Keys() {
        assert.False(t, strings.HasPrefix(k, cfg.Prefix+":"), "stale entry %s stored", k)
    }

    second := serve(e, http.MethodGet, "/attractions")
    assert.Equal(t, "MISS", second.Header().Get("X-Cache"))
    assert.Equal(t, "[1]", strings.TrimSpace(second.Body.String()))

    third := serve(e, http.MethodGet, "/attractions")
    assert.Equal(t, "HIT", third.Header().Get("X-Cache"))
    assert.Equal(t, "[1]", strings.TrimSpace(third.Body.String()))
}

func TestStoreIfCurrent(t *testing.T) {
    mr, rdb := newTestRedis(t)
    ctx := context.Background()

    stored, err := storeIfCurrent(ctx, rdb, "g", 0, "k", []byte("v"), time.Minute)
    require.NoError(t, err)
    assert.True(t, stored)
    assert.True(t, mr.Exists("k"))

    require.NoError(t, rdb.Incr(ctx, "g").Err())
    stored, err = storeIfCurrent(ctx, rdb, "g", 0, "k2", []byte("v"), time.Minute)
    require.NoError(t, err)
    assert.False(t, stored)
    assert.False(t, mr.Exists("k2"))
}

func TestNewCacheInvalidator_KeepsGeneration(t *testing.T) {
    mr, rdb := newTestRedis(t)
    e := echo.New()
    e.Logger.SetOutput(&bytes.Buffer{})
    e.POST("/ok", func(c echo.Context) error { return c.NoContent(http.StatusCreated) }, NewCacheInvalidator(testCacheConfig(), rdb))

    serve(e, http.MethodPost, "/ok")
    serve(e, http.MethodPost, "/ok")

    got, err := mr.Get(generationKey("test:cache"))
    require.NoError(t, err)
    assert.Equal(t, "2", got)
}

func TestPurgePrefix_Empty(t *testing.T) {
    _, rdb := newTestRedis(t)

    n, err := purgePrefix(context.Background(), rdb, "nothing")

    require.NoError(t, err)
    assert.Zero(t, n)
}

func TestRequestLogger(t *testing.T) {
    var buf bytes.Buffer
    e := echo.New()
    e.Use(RequestLogger(log.New(&buf, "", 0)))
    e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
    e.GET("/fail", func(c echo.Context) error { return echo.NewHTTPError(http.StatusTeapot, "short and stout") })

    serve(e, http.MethodGet, "/ok")
    rec := serve(e, http.MethodGet, "/fail")

    assert.Equal(t, http.StatusTeapot, rec.Code)
    out := buf.String()
    assert.Contains(t, out, "method=GET uri=/ok status=200")
    assert.Contains(t, out, "uri=/fail status=418")
    assert.Contains(t, out, "short and stout")
}
