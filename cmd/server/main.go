package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"secretlink/internal/app"
	"secretlink/internal/config"
	"secretlink/internal/domain"
	"secretlink/internal/logger"
	"secretlink/internal/receipt"
	"secretlink/internal/service"
	"secretlink/internal/utility"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg config.Config, zlog *zap.Logger) error {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return err
	}
	opt.PoolSize = cfg.RedisPoolSize
	opt.MinIdleConns = cfg.RedisMinIdle
	opt.DialTimeout = cfg.RedisDialTimeout
	opt.ReadTimeout = cfg.RedisReadTimeout
	opt.WriteTimeout = cfg.RedisWriteTimeout
	opt.PoolTimeout = cfg.RedisPoolTimeout

	rdb := redis.NewClient(opt)
	defer rdb.Close()

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return err
	}

	crypto, err := utility.NewCrypto(cfg.MasterKey, cfg.KeySalt, utility.DefaultCryptoConfig())
	if err != nil {
		return err
	}

	dispatcher := receipt.NewHTTPDispatcher(receipt.Config{
		WebhookBaseURL: cfg.ReceiptWebhookBaseURL,
		EmailEndpoint:  cfg.ReceiptEmailEndpoint,
		SMSEndpoint:    cfg.ReceiptSMSEndpoint,
		APIKey:         cfg.ReceiptAPIKey,
	}, zlog)

	svc := service.New(
		domain.NewRedisRepository(rdb),
		domain.NewRedisStatsRepository(rdb),
		crypto,
		dispatcher,
		zlog,
	)

	handler := app.NewHandler(svc, zlog)
	router := app.NewRouter(handler, app.RouterConfig{
		RequireHTTPS: cfg.RequireHTTPS,
		RateLimiter:  app.NewRateLimiter(rdb, app.DefaultRateLimitConfig(), zlog),
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	zlog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
