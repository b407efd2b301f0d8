// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/config"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/database"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/i18n"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/router"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/services"
)

func newLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if cfg.IsProduction() {
		log.SetFormatter(&logrus.JSONFormatter{})
		log.SetLevel(logrus.InfoLevel)
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

// openStore selects the key/value backend. The audit log uses the database
// whenever the postgres backend is configured.
func openStore(ctx context.Context, cfg *config.Config, log *logrus.Logger) (services.KeyValueStore, *gorm.DB, func(), error) {
	switch cfg.Storage.Backend {
	case "postgres":
		db, err := database.Initialize(cfg.Database, log)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := database.RunMigrations(db, log); err != nil {
			database.Close(db, log)
			return nil, nil, nil, err
		}
		return services.NewGormStore(db), db, func() { database.Close(db, log) }, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.WithField("addr", cfg.Redis.Addr()).Info("Redis connection established")
		return services.NewRedisStore(client, cfg.Storage.KeyPrefix), nil, func() { client.Close() }, nil
	}

	log.Warn("Using in-memory storage, sessions and payments are lost on restart")
	return services.NewMemoryStore(), nil, func() {}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	log := newLogger(cfg)

	if err := i18n.Initialize(cfg.I18n.DefaultLocale); err != nil {
		log.WithError(err).Fatal("Failed to initialize i18n")
	}

	ctx := context.Background()
	store, db, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to open storage")
	}
	defer closeStore()

	svc, err := router.BuildServices(cfg, store, db, log, services.NewMetrics())
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize services")
	}
	if err := svc.Ledger.Load(ctx); err != nil {
		log.WithError(err).Fatal("Failed to load payment verifications")
	}
	log.WithField("records", svc.Ledger.Len()).Info("Payment verifications loaded")

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Initialize(svc),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.WithField("addr", srv.Addr).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	log.Info("Server exited")
}
