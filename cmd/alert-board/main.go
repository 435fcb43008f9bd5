package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mr1hm/go-community-alerts/internal/api"
	"github.com/mr1hm/go-community-alerts/internal/archive"
	"github.com/mr1hm/go-community-alerts/internal/board"
	"github.com/mr1hm/go-community-alerts/internal/broadcast"
	"github.com/mr1hm/go-community-alerts/internal/config"
	internalgrpc "github.com/mr1hm/go-community-alerts/internal/grpc"
	"github.com/mr1hm/go-community-alerts/internal/locate"
	"github.com/mr1hm/go-community-alerts/internal/logging"
	"github.com/mr1hm/go-community-alerts/internal/metrics"
	"github.com/mr1hm/go-community-alerts/internal/models"
	"github.com/mr1hm/go-community-alerts/internal/repository"
	"github.com/mr1hm/go-community-alerts/internal/seed"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	clock := clockwork.NewRealClock()

	alerts, err := loadSeed(cfg, clock.Now())
	if err != nil {
		logging.Fatalf("Failed to load seed alerts: %v", err)
	}
	store := board.New(board.WithSeed(alerts), board.WithClock(clock))
	slog.Info("board ready", "alerts", store.Len())

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New(prometheus.DefaultRegisterer)
	unsubscribeMetrics := store.Subscribe(m.Observer(store))
	defer unsubscribeMetrics()

	// Broadcaster for SSE and WebSocket clients
	broadcaster := broadcast.NewBroadcaster(cfg.Stream.BufferSize)
	unsubscribeStream := store.Subscribe(broadcaster.Observer())

	archiver := archive.NewArchiver(cfg, store, db)
	archiver.Start(ctx)

	locator, closeLocator, err := newLocator(cfg)
	if err != nil {
		logging.Fatalf("Failed to initialize locator: %v", err)
	}
	defer closeLocator()

	grpcServer := internalgrpc.NewServer(store, broadcaster, m)
	go func() {
		grpcAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.GRPC.Port)
		if err := grpcServer.Start(grpcAddr); err != nil {
			logging.Fatalf("gRPC server error: %v", err)
		}
	}()

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(api.RequestIDMiddleware())
	router.Use(api.LoggingMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", api.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", api.RequestIDHeader},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimitRPS))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handler := api.NewHandler(store, broadcaster, archiver, locator, m)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	// Close streams first so neither server is held open by long-lived connections
	unsubscribeStream()
	broadcaster.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
	grpcServer.Stop()

	archiver.Stop()
	cancel()

	slog.Info("shutdown complete")
}

func loadSeed(cfg *config.Config, now time.Time) ([]models.Alert, error) {
	if !cfg.Board.SeedEnabled {
		return nil, nil
	}
	if cfg.Board.SeedFile != "" {
		return seed.LoadFile(cfg.Board.SeedFile, now)
	}
	return seed.Default(now)
}

func newLocator(cfg *config.Config) (locate.Locator, func(), error) {
	if cfg.Locate.GeoIPPath == "" {
		slog.Info("location lookup disabled")
		return locate.Unavailable{}, func() {}, nil
	}

	geo, err := locate.OpenGeoIP(cfg.Locate.GeoIPPath)
	if err != nil {
		return nil, nil, err
	}
	cached, err := locate.NewCached(geo, cfg.Locate.CacheSize)
	if err != nil {
		geo.Close()
		return nil, nil, err
	}

	closeFn := func() {
		if err := geo.Close(); err != nil {
			slog.Error("failed to close geoip database", "error", err)
		}
	}
	return cached, closeFn, nil
}
