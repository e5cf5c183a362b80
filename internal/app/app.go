// Package app wires configuration, storage and controllers into a Server.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klass-lk/restblog"
	"github.com/klass-lk/restblog/internal/config"
	"github.com/klass-lk/restblog/internal/controller"
	"github.com/klass-lk/restblog/internal/repository"
	"github.com/klass-lk/restblog/internal/service"
	"github.com/klass-lk/restblog/internal/view"
	"github.com/klass-lk/restblog/internal/weather"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	MetricsPath = "/metrics"
	StaticPath  = "/public"
)

// Build returns a ready to start server. The database client is
// disconnected by the server's shutdown hooks.
func Build(cfg *config.Config, db *mongo.Database) (*restblog.Server, error) {
	server := restblog.New()
	if cfg.LambdaRuntime {
		server.SetRuntime(restblog.RuntimeLambda)
	}
	server.OnShutdown(func(ctx context.Context) error {
		return db.Client().Disconnect(ctx)
	})

	server.WithPoweredBy(cfg.PoweredBy)
	if err := server.WithTrustedProxies(cfg.Proxies()); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	if origins := cfg.Origins(); origins == nil {
		server.DefaultCORS()
	} else {
		server.CustomCORS(origins,
			[]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			[]string{"Origin", "Content-Type", "Accept"},
			12*time.Hour,
		)
	}
	server.WithMetrics(restblog.NewMetrics(), MetricsPath)

	tmpl, err := view.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	server.WithTemplates(tmpl)
	server.WithStatic(StaticPath, view.Static())

	cache, err := newCache(cfg, db, server)
	if err != nil {
		return nil, err
	}

	var cacheMiddleware []gin.HandlerFunc
	if cache != nil {
		tagGen := func(c *gin.Context) []string {
			return []string{service.PostsCacheTag}
		}
		cacheMiddleware = append(cacheMiddleware, restblog.CacheMiddleware(cache, cfg.CacheTTL, tagGen, nil))
	}

	postService := service.NewPostService(repository.NewPostRepository(db), cache)
	weatherClient := weather.NewClient(cfg.WeatherBaseURL, cfg.WeatherAPIKey, cfg.WeatherTimeout)

	server.RegisterController("", controller.NewHomeController())
	server.RegisterController("/blogs", controller.NewPostController(postService, cacheMiddleware...))
	server.RegisterController("/weather", controller.NewWeatherController(weatherClient))
	server.NoRoute(controller.NewEchoController(cfg.EchoUnmatched).Unmatched)

	return server, nil
}

// newCache returns nil when caching is disabled. The result is kept as the
// interface type so a disabled cache stays a true nil.
func newCache(cfg *config.Config, db *mongo.Database, server *restblog.Server) (restblog.CacheService, error) {
	switch cfg.CacheBackend {
	case config.CacheBackendMongo:
		slog.Info("page cache enabled", slog.String("backend", "mongo"), slog.Duration("ttl", cfg.CacheTTL))
		return restblog.NewMongoCacheService(
			restblog.NewMongoRepository[restblog.CacheEntry](db),
			restblog.NewMongoRepository[restblog.CacheGeneration](db),
		), nil
	case config.CacheBackendRedis:
		client, err := restblog.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		server.OnShutdown(func(context.Context) error {
			return client.Close()
		})
		slog.Info("page cache enabled", slog.String("backend", "redis"), slog.Duration("ttl", cfg.CacheTTL))
		return restblog.NewRedisCacheService(client), nil
	default:
		return nil, nil
	}
}
