package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/mmudassar1/codesistensy-ecommerce/internal/cache"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/config"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/cookies"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/db"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/events"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/handlers"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/logging"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/metrics"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/repo"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/service"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/session"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/storage"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/tokens"
	httpserver "github.com/mmudassar1/codesistensy-ecommerce/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel, os.Stdout).With("app", "shop")
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DBDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis url: %v", err)
	}
	rdb := redis.NewClient(redisOpts)

	codec, err := tokens.NewCodec(cfg.JWTAccessSecret, cfg.JWTRefreshSecret,
		tokens.WithTTL(config.AccessTokenTTL, config.RefreshTokenTTL))
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	var images storage.ObjectStore = storage.Disabled{}
	if cfg.S3.Enabled() {
		s3ctx, s3cancel := context.WithTimeout(context.Background(), 10*time.Second)
		s3Store, err := storage.NewS3(s3ctx, cfg.S3)
		s3cancel()
		if err != nil {
			log.Fatalf("s3 init: %v", err)
		}
		images = s3Store
	} else {
		logger.Warn("object storage disabled, product images will be rejected")
	}

	publisher := events.FromBrokers(cfg.KafkaBrokers)
	if len(cfg.KafkaBrokers) == 0 {
		logger.Warn("kafka brokers not configured, domain events are dropped")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewCollector(reg)

	r := repo.New(gdb)
	sessions := session.NewStore(rdb, config.RefreshTokenTTL)

	auth := &service.AuthService{
		Users:    r,
		Sessions: sessions,
		Tokens:   codec,
		Events:   publisher,
		Metrics:  rec,
	}

	e := httpserver.New(&httpserver.Deps{
		AuthHandler: &handlers.AuthHandler{
			Svc:     auth,
			Cookies: cookies.NewTransport(cfg.CookieSecure, codec.AccessTTL(), codec.RefreshTTL()),
		},
		ProductHandler: &handlers.ProductHandler{Svc: &service.ProductService{
			Repo:    r,
			Cache:   cache.NewJSON(rdb),
			Images:  images,
			Events:  publisher,
			Metrics: rec,
		}},
		CouponHandler: &handlers.CouponHandler{Svc: &service.CouponService{Repo: r}},
		CartHandler:   &handlers.CartHandler{Svc: &service.CartService{Repo: r}},
		HealthHandler: &handlers.HealthHandler{Checks: map[string]handlers.Pinger{
			"database": r,
			"redis":    sessions,
		}},
		Authenticator: auth,
		Logger:        logger,
		Metrics:       rec,
		Gatherer:      reg,
		AuthRateLimit: cfg.AuthRateLimit,
	})
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	go func() {
		logger.Info("server starting", "addr", cfg.ServerAddr, "env", cfg.Env)
		if err := e.Start(cfg.ServerAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo shutdown", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Error("kafka close", "error", err)
	}
	if err := rdb.Close(); err != nil {
		logger.Error("redis close", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db close", "error", err)
	}
	logger.Info("server stopped")
}
