package restblog

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const skipCacheKey = "cache_skip"

// CacheKeyGenerator defines a function to generate a cache key from the request
type CacheKeyGenerator func(c *gin.Context) string

// TagGenerator defines a function to generate tags for the cache entry
type TagGenerator func(c *gin.Context) []string

type cacheWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *cacheWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *cacheWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// DefaultKeyGenerator generates a key based on the request URL and query parameters
func DefaultKeyGenerator(c *gin.Context) string {
	hash := sha256.Sum256([]byte(c.Request.URL.String()))
	return hex.EncodeToString(hash[:])
}

// SkipCache keeps the current response out of the cache, e.g. when a
// handler degraded to a fallback page after an error.
func SkipCache(c *gin.Context) {
	c.Set(skipCacheKey, true)
}

// CacheMiddleware serves GET responses from service and stores successful
// ones for duration. A nil service disables caching.
func CacheMiddleware(service CacheService, duration time.Duration, tagGen TagGenerator, keyGen CacheKeyGenerator) gin.HandlerFunc {
	if keyGen == nil {
		keyGen = DefaultKeyGenerator
	}

	return func(c *gin.Context) {
		if service == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := keyGen(c)

		cachedData, err := service.Get(c.Request.Context(), key)
		if err == nil && cachedData != nil {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, http.DetectContentType(cachedData), cachedData)
			c.Abort()
			return
		}

		tags := []string{}
		if tagGen != nil {
			tags = tagGen(c)
		}
		var generation int64
		if len(tags) > 0 {
			if generation, err = service.Generation(c.Request.Context(), tags...); err != nil {
				slog.WarnContext(c.Request.Context(), "cache generation read failed", slog.String("error", err.Error()))
				SkipCache(c)
			}
		}

		c.Header("X-Cache", "MISS")
		writer := &cacheWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = writer

		c.Next()

		if c.Writer.Status() != http.StatusOK || c.GetBool(skipCacheKey) {
			return
		}
		// best effort, the response is already on the wire
		ctx := context.WithoutCancel(c.Request.Context())
		if !unchanged(ctx, service, tags, generation) {
			return
		}
		if err := service.Set(ctx, key, writer.body.Bytes(), tags, duration); err != nil {
			slog.WarnContext(ctx, "cache write failed", slog.String("error", err.Error()))
			return
		}
		// an Invalidate that raced the Set may have run before the entry existed
		if !unchanged(ctx, service, tags, generation) {
			if err := service.Delete(ctx, key); err != nil {
				slog.WarnContext(ctx, "cache evict failed", slog.String("error", err.Error()))
			}
		}
	}
}

// unchanged reports whether none of tags was invalidated since generation
// was read. Untagged entries are never invalidated.
func unchanged(ctx context.Context, service CacheService, tags []string, generation int64) bool {
	if len(tags) == 0 {
		return true
	}
	current, err := service.Generation(ctx, tags...)
	return err == nil && current == generation
}
