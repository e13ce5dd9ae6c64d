package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AstreaTSS/basic-discord-html-viewer/pkg/auth"
	"github.com/AstreaTSS/basic-discord-html-viewer/pkg/backoff"
	"github.com/AstreaTSS/basic-discord-html-viewer/pkg/logger"
	natspkg "github.com/AstreaTSS/basic-discord-html-viewer/pkg/nats"
	"github.com/AstreaTSS/basic-discord-html-viewer/pkg/redis"
	"github.com/AstreaTSS/basic-discord-html-viewer/relay/internal/api"
	"github.com/AstreaTSS/basic-discord-html-viewer/relay/internal/config"
	"github.com/AstreaTSS/basic-discord-html-viewer/relay/internal/proxy"

	_ "github.com/AstreaTSS/basic-discord-html-viewer/relay/docs"
)

// @title Discord HTML Relay API
// @version 1.0
// @description Same-origin relay that serves Discord CDN HTML attachments

// @host localhost:8000
// @BasePath /
// @schemes http https

// @securityDefinitions.basic BasicAuth

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("Failed to load config: %v", err)
	}

	logger.SetLevel(cfg.LogLevel)
	logger.SetFormat(cfg.LogFormat)
	logger.Log.Info("Starting Discord HTML relay")

	httpClient := proxy.NewHTTPClient(proxy.ClientOptions{
		Timeout:         cfg.FetchTimeout,
		FollowRedirects: cfg.FollowRedirects,
	})
	defer httpClient.CloseIdleConnections()

	fetcher := proxy.NewFetcher(httpClient, cfg.MaxContentBytes)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stats := connectRedis(ctx, cfg)
	if stats != nil {
		defer stats.Close()
	}

	events := connectNATS(ctx, cfg)
	if events != nil {
		defer events.Close()
	}

	var statsStore api.StatsStore
	if stats != nil {
		statsStore = stats
	}
	var publisher api.EventPublisher
	if events != nil {
		publisher = events
	}

	handler := api.NewHandler(fetcher, statsStore, publisher)
	router := api.SetupRouter(handler, auth.Credentials{
		Username: cfg.AdminUsername,
		Password: cfg.AdminPassword,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Infof("Relay listening on port %s", cfg.Port)
		logger.Log.Infof("Swagger docs available at http://localhost:%s/swagger/index.html", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited")
}

// connectRedis returns nil when Redis is disabled or unreachable; the relay
// runs without counters in that case.
func connectRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if !cfg.RedisEnabled {
		return nil
	}

	var client *redis.Client
	err := backoff.Retry(ctx, backoff.New(500*time.Millisecond, 5*time.Second, 2.0), cfg.SinkConnectAttempts, func() error {
		c, err := redis.NewClient(ctx, redis.Config{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Enabled:  true,
		})
		if err != nil {
			logger.Log.Warnf("Redis connection attempt failed: %v", err)
			return err
		}
		client = c
		return nil
	})
	if err != nil {
		logger.Log.Errorf("Continuing without Redis stats: %v", err)
		return nil
	}
	return client
}

func connectNATS(ctx context.Context, cfg *config.Config) *natspkg.Client {
	if !cfg.NATSEnabled {
		return nil
	}

	client := natspkg.NewClient(natspkg.Config{
		URLs:          cfg.NATSURLs,
		Token:         cfg.NATSToken,
		Subject:       cfg.NATSSubject,
		MaxReconnect:  -1,
		ReconnectWait: 2 * time.Second,
		Enabled:       true,
	})

	err := backoff.Retry(ctx, backoff.New(500*time.Millisecond, 5*time.Second, 2.0), cfg.SinkConnectAttempts, func() error {
		if err := client.Connect(); err != nil {
			logger.Log.Warnf("NATS connection attempt failed: %v", err)
			return err
		}
		return nil
	})
	if err != nil {
		logger.Log.Errorf("Continuing without NATS events: %v", err)
		return nil
	}
	return client
}
