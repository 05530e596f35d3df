package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cryptodash/internal/auth"
	"cryptodash/internal/cache"
	"cryptodash/internal/coingecko"
	"cryptodash/internal/config"
	"cryptodash/internal/database"
	"cryptodash/internal/defillama"
	"cryptodash/internal/handlers"
	"cryptodash/internal/portfolio"
	"cryptodash/internal/realtime"
	"cryptodash/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to an optional YAML config file")
	flag.Parse()

	logger := logrus.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}
	setupLogger(logger, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		logger.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()
	logger.Infof("using %s storage", db.DriverName())

	store := portfolio.NewStore(database.New(db, logger), logger)
	if err := store.Load(ctx, cfg.SeedDefaults); err != nil {
		logger.Fatalf("load portfolio: %v", err)
	}

	var priceCache cache.Cache = cache.NewMemory(time.Now)
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, logger)
		if err != nil {
			logger.Warnf("redis unavailable, using in-memory cache: %v", err)
		} else {
			defer rc.Close()
			priceCache = rc
		}
	}

	authenticator, err := auth.New(cfg.DashboardPassword, cfg.Secrets(), cfg.SessionTTL, cfg.LoginFailureDelay)
	if err != nil {
		logger.Fatalf("auth setup: %v", err)
	}

	gecko := coingecko.NewClient(cfg.CoinGeckoURL, cfg.HTTPTimeout)
	mapping := service.NewMappingUpdater(gecko, time.Now, logger)
	prices := service.NewPriceGateway(gecko, defillama.NewClient(cfg.DefiLlamaURL, cfg.HTTPTimeout),
		priceCache, cfg.PriceCacheTTL, cfg.MetricsCacheTTL, mapping.Lookup, logger)
	hub := realtime.NewHub(logger)
	refresher := service.NewRefresher(store, prices, hub, time.Now, logger)
	refresher.Start(ctx, cfg.RefreshInterval)

	gin.SetMode(gin.ReleaseMode)
	h := handlers.NewHandler(handlers.Deps{
		Auth:      authenticator,
		Cookies:   auth.Cookies{Secure: cfg.CookieSecure},
		Store:     store,
		Prices:    prices,
		Mapping:   mapping,
		Refresher: refresher,
		Hub:       hub,
		WebDir:    cfg.WebDir,
		Log:       logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}

func setupLogger(logger *logrus.Logger, cfg *config.Config) {
	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warnf("unknown log level %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
}
