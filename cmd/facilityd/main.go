package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"facility-monitor-backend/config"
	"facility-monitor-backend/internal/api"
	"facility-monitor-backend/internal/climate"
	"facility-monitor-backend/internal/db"
	"facility-monitor-backend/internal/devices"
	"facility-monitor-backend/internal/logger"
	"facility-monitor-backend/internal/notification"
	"facility-monitor-backend/internal/scheduler"
	"facility-monitor-backend/internal/store"
	"facility-monitor-backend/internal/timetrack"
	"facility-monitor-backend/internal/token"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}

	zlog, err := logger.New(cfg.Logging.Level, cfg.Logging.Format, "facilityd")
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()
	zlog.Info("configuration loaded", zap.String("path", configPath))

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		zlog.Fatal("failed to initialize database", zap.Error(err))
	}
	zlog.Info("database initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)

	var webpushOptions *webpush.Options
	var pushPool *notification.PushPool
	if cfg.Push.Enabled {
		if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
			zlog.Fatal("push is enabled but VAPID keys are not configured")
		}
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pushPool = notification.NewPushPool(cfg.Push.PoolSize, appStore, webpushOptions, zlog)
		pushPool.Start(ctx)
	}

	var mailer notification.Mailer
	if cfg.Mail.Enabled {
		mailer = notification.NewSMTPMailer(cfg.Mail)
	}

	dispatcher := notification.NewDispatcher(appStore, mailer, pushPool, cfg.Server.BaseURL, cfg.Mail.MaxAttempts, zlog)
	tokens := token.NewManager(appStore, zlog)
	timeTracking := timetrack.NewService(appStore, zlog)
	deviceSvc := devices.NewService(appStore, dispatcher,
		time.Duration(cfg.Scheduler.HeartbeatTimeoutMinutes)*time.Minute, zlog)
	checker := climate.NewChecker(appStore,
		time.Duration(cfg.Warnings.StaleAfterMinutes)*time.Minute, zlog)
	warningMachine := climate.NewMachine(appStore, tokens, dispatcher, timeTracking, cfg.Warnings, zlog)

	sched := scheduler.New(zlog)
	sched.Every("connection-watchdog", cfg.Scheduler.WatchdogInterval, func(ctx context.Context) {
		if err := deviceSvc.CheckConnections(ctx); err != nil {
			zlog.Error("connection watchdog failed", zap.Error(err))
		}
	})
	sched.Every("token-gc", cfg.Scheduler.TokenGCInterval, func(ctx context.Context) {
		if _, err := tokens.PurgeConsumed(ctx, cfg.Scheduler.TokenGrace); err != nil {
			zlog.Error("token garbage collection failed", zap.Error(err))
		}
	})
	sched.DailyAt("time-record-rollover", 0, 0, func(ctx context.Context) {
		if err := timeTracking.Rollover(ctx); err != nil {
			zlog.Error("time record rollover failed", zap.Error(err))
		}
	})
	sched.Start(ctx)

	handler := api.NewHandler(appStore, deviceSvc, checker, warningMachine, timeTracking, webpushOptions, zlog)
	router := api.NewRouter(cfg, handler)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		zlog.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	zlog.Info("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal("HTTP server shutdown failed", zap.Error(err))
	}

	sched.Stop()
	cancel()
	zlog.Info("server gracefully stopped")
}
