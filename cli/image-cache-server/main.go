package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/terrycain/image-cache-server/pkg/cache"
	"github.com/terrycain/image-cache-server/pkg/config"
	"github.com/terrycain/image-cache-server/pkg/gateway"
	"github.com/terrycain/image-cache-server/pkg/metrics"
	"github.com/terrycain/image-cache-server/pkg/utils/logging"
	"github.com/terrycain/image-cache-server/pkg/web"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	logging.SetupLogging(cfg.EffectiveLogLevel(), cfg.LogFormat)
	// Enable uuid rand pool for better performance
	uuid.EnableRandPool()

	storeGateway, err := gateway.GetGateway(cfg.Backend, cfg.StoreOptions())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initiate store gateway")
	}
	log.Info().Str("backend", storeGateway.Type()).Str("bucket", cfg.Bucket).Msg("Using object store")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := cache.NewStore(storeGateway, cfg.EffectiveRefreshTimeout())
	scheduler := cache.NewScheduler(store, cfg.RefreshInterval)
	scheduler.Start()

	withMetrics := cfg.MetricsListenAddress != ""
	if withMetrics {
		go metrics.Server(ctx, cfg.MetricsListenAddress)
	}

	handlers := web.Handlers{
		Cache: store,
		Debug: cfg.Debug,
	}
	router := web.GetRouter(handlers, web.RouterOptions{
		AllowedOrigin:   cfg.AllowedOrigin,
		RateLimit:       cfg.RateLimit,
		RateLimitWindow: cfg.RateLimitWindow,
		WithMetrics:     withMetrics,
	})

	server := &http.Server{
		Addr:              cfg.ListenAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Failed to shut down HTTP server cleanly")
		}
	}()

	log.Info().Msgf("Listening on %s", cfg.ListenAddress())
	if err = server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Failed HTTP server loop")
	}

	<-scheduler.Stop().Done()
	store.Wait()
	log.Info().Msg("Stopped")
}
