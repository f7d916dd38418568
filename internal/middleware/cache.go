package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/binary"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/attraction-registry/internal/config"
)

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
    size   int64
    limit  int64
}
func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }
func (cw *captureWriter) Write(b []byte) (int, error) {
    cw.size += int64(len(b))
    if cw.limit <= 0 || cw.size <= cw.limit {
        cw.buf.Write(b)
    }
    return cw.ResponseWriter.Write(b)
}

// Build a stable cache key honoring prefix/strategy.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
    r := c.Request()
    method := r.Method
    route := r.URL.Path // concrete path, so /attractions/1 and /attractions/2 differ
    query := r.URL.RawQuery

    parts := []string{cfg.Prefix}
    switch strings.ToLower(cfg.KeyStrategy) {
    case "route":
        parts = append(parts, "route", route)
    case "method_route":
        parts = append(parts, "method", method, "route", route)
    case "method_route_query":
        parts = append(parts, "method", method, "route", route, "q", query)
    default: // "route_query"
        parts = append(parts, "route", route, "q", query)
    }

    tail := strings.Join(parts[1:], ":")
    sum := sha1.Sum([]byte(tail))
    return fmt.Sprintf("%s:%x", parts[0], sum[:])
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
    hdrJSON, err := json.Marshal(header)
    if err != nil {
        return nil, err
    }
    total := 4 + 4 + len(hdrJSON) + len(body)
    out := make([]byte, total)
    binary.BigEndian.PutUint32(out[0:4], uint32(status))
    binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
    copy(out[8:8+len(hdrJSON)], hdrJSON)
    copy(out[8+len(hdrJSON):], body)
    return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
    if len(bs) < 8 {
        return 0, nil, nil, false
    }
    status = int(binary.BigEndian.Uint32(bs[0:4]))
    hlen := int(binary.BigEndian.Uint32(bs[4:8]))
    if 8+hlen > len(bs) || hlen < 0 {
        return 0, nil, nil, false
    }
    var hdr http.Header
    if hlen > 0 {
        if err := json.Unmarshal(bs[8:8+hlen], &hdr); err != nil {
            return 0, nil, nil, false
        }
    } else {
        hdr = make(http.Header)
    }
    body = bs[8+hlen:]
    return status, hdr, body, true
}

// NewRedisCache serves repeated reads from Redis.  Headers are stored with the
// body so a hit is byte-for-byte the response that was cached.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    ttl := cfg.TTL
    if ttl <= 0 { ttl = 5 * time.Minute } // sane default longer TTL

    maxBody := int64(cfg.MaxBodyBytes)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
                return next(c)
            }

            ctx := c.Request().Context()
            key := cacheKeyFrom(cfg, c)

            // Try get from Redis
            if bs, err := rdb.Get(ctx, key).Bytes(); err == nil && len(bs) >= 8 {
                if status, hdr, body, ok := decodePayload(bs); ok {
                    // Restore headers (except hop-by-hop)
                    for k, vals := range hdr {
                        // X-Cache will be set below; skip Content-Length (Echo will handle) and the old request id
                        if strings.EqualFold(k, "Content-Length") || strings.EqualFold(k, echo.HeaderXRequestID) { continue }
                        for _, v := range vals {
                            c.Response().Header().Add(k, v)
                        }
                    }
                    c.Response().Header().Set("X-Cache", "HIT")
                    c.Response().WriteHeader(status)
                    if len(body) > 0 {
                        _, _ = c.Response().Write(body)
                    }
                    return nil
                }
            }

            // Miss: note the generation before the handler reads anything, so
            // an invalidation that lands while it runs is detected below.
            genKey := generationKey(cfg.Prefix)
            gen, genErr := rdb.Get(ctx, genKey).Int64()
            if errors.Is(genErr, redis.Nil) {
                gen, genErr = 0, nil
            }

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }

            if genErr == nil && cw.status == http.StatusOK && (maxBody <= 0 || cw.size <= maxBody) {
                // Copy headers from response
                hdr := make(http.Header, len(c.Response().Header()))
                for k, vals := range c.Response().Header() {
                    vv := make([]string, len(vals))
                    copy(vv, vals)
                    hdr[k] = vv
                }
                body := cw.buf.Bytes()
                if payload, err := encodePayload(cw.status, hdr, body); err == nil {
                    if _, err := storeIfCurrent(context.Background(), rdb, genKey, gen, key, payload, ttl); err != nil {
                        c.Logger().Warnf("[cache] store %s failed: %v", key, err)
                    }
                }
            }
            return nil
        }
    }
}

// NewCacheInvalidator drops every entry under cfg.Prefix after a mutating
// request succeeds, so the next read sees the new state.  It bumps the
// generation first so reads already in flight do not store what they saw.
// Failed requests (status >= 400) leave the cache alone.
func NewCacheInvalidator(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if err := next(c); err != nil {
                return err
            }
            if c.Response().Status >= http.StatusBadRequest {
                return nil
            }
            if err := rdb.Incr(context.Background(), generationKey(cfg.Prefix)).Err(); err != nil {
                c.Logger().Warnf("[cache] bump generation for %s failed: %v", cfg.Prefix, err)
            }
            if n, err := purgePrefix(context.Background(), rdb, cfg.Prefix); err != nil {
                c.Logger().Warnf("[cache] purge %s failed: %v", cfg.Prefix, err)
            } else if n > 0 {
                c.Logger().Debugf("[cache] purged %d entries under %s", n, cfg.Prefix)
            }
            return nil
        }
    }
}

// generationKey counts invalidations under prefix.  It lies outside prefix:*
// so purges leave it in place.
func generationKey(prefix string) string { return prefix + "-generation" }

// storeIfCurrent writes payload under key only while the generation is still
// gen.  WATCH makes an invalidation between the check and the write abort it.
func storeIfCurrent(ctx context.Context, rdb *redis.Client, genKey string, gen int64, key string, payload []byte, ttl time.Duration) (bool, error) {
    stored := false
    err := rdb.Watch(ctx, func(tx *redis.Tx) error {
        cur, err := tx.Get(ctx, genKey).Int64()
        if err != nil && !errors.Is(err, redis.Nil) {
            return err
        }
        if cur != gen {
            return nil
        }
        _, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
            pipe.SetEx(ctx, key, payload, ttl)
            return nil
        })
        stored = err == nil
        return err
    }, genKey)
    if errors.Is(err, redis.TxFailedErr) {
        return false, nil
    }
    return stored, err
}

// purgePrefix deletes all keys matching prefix:* and returns how many were
// removed.
func purgePrefix(ctx context.Context, rdb *redis.Client, prefix string) (int64, error) {
    var keys []string
    iter := rdb.Scan(ctx, 0, prefix+":*", 100).Iterator()
    for iter.Next(ctx) {
        keys = append(keys, iter.Val())
    }
    if err := iter.Err(); err != nil {
        return 0, err
    }
    if len(keys) == 0 {
        return 0, nil
    }
    return rdb.Del(ctx, keys...).Result()
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }
