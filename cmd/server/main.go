package main // Entry point package

import (
	"context"   // context cancels the consumer and bounds shutdown
	"errors"    // errors separates a clean close from a listen failure
	"log"       // Logging library
	"net/http"  // http.ErrServerClosed
	"os"        // os.Stdout for the logger
	"os/signal" // signal triggers graceful shutdown
	"syscall"   // SIGTERM

	"github.com/redis/go-redis/v9" // Redis client type for the optional cache

	"github.com/iliyamo/attraction-registry/internal/config"     // Internal config loader
	"github.com/iliyamo/attraction-registry/internal/handler"    // HTTP handlers
	"github.com/iliyamo/attraction-registry/internal/middleware" // Redis response cache
	"github.com/iliyamo/attraction-registry/internal/queue"      // change event consumer
	"github.com/iliyamo/attraction-registry/internal/repository" // in-memory registry
	"github.com/iliyamo/attraction-registry/internal/router"     // Internal router setup
	"github.com/iliyamo/attraction-registry/internal/service"    // change event publisher
)

func main() {
	cfg := config.Load() // Load .env.local/.env and environment config
	logger := log.New(os.Stdout, "attractions ", log.LstdFlags|log.Lmicroseconds)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional Redis response cache; without a reachable server reads are not cached.
	cacheCfg := config.LoadCacheConfig()
	var rdb *redis.Client
	if cacheCfg.Enabled {
		if rdb = config.NewRedisClient(config.LoadRedisConfig()); rdb == nil {
			logger.Printf("redis unreachable, response cache disabled")
		} else {
			defer rdb.Close()
		}
	}

	// Optional change events over RabbitMQ.
	eventsCfg := config.LoadEventsConfig()
	if eventsCfg.ConsumerEnabled {
		go func() {
			if err := queue.StartAttractionConsumer(ctx, eventsCfg); err != nil && !errors.Is(err, context.Canceled) {
				logger.Printf("attraction consumer stopped: %v", err)
			}
		}()
	}

	events := service.NewAsyncPublisher(service.NewEventPublisher(eventsCfg), eventsCfg.Buffer, eventsCfg.PublishTimeout)

	repo := repository.NewSeededAttractionRepo() // state lives only as long as the process
	e := router.New(router.Options{
		Config:      cfg,
		Logger:      logger,
		Health:      handler.NewHealthHandler(cfg.Mode),
		Attractions: handler.NewAttractionHandler(repo, events, cfg.ListDelay),
		Cache:       middleware.NewRedisCache(cacheCfg, rdb),
		Invalidate:  middleware.NewCacheInvalidator(cacheCfg, rdb),
	})

	addr := ":" + cfg.Port
	go func() {
		logger.Printf("listening on http://localhost%s (env=%s, mode=%s, no database: state resets on restart)", addr, cfg.Env, cfg.Mode)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("could not listen: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Println("server is shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Printf("server forced to shutdown: %v", err)
	}
	if err := events.Close(shutdownCtx); err != nil {
		logger.Printf("pending change events dropped: %v", err)
	}
	logger.Println("server stopped")
}
