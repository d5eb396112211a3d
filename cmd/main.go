package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/oksasatya/triptrop-api/config"
	"github.com/oksasatya/triptrop-api/internal/application"
	"github.com/oksasatya/triptrop-api/internal/container"
	"github.com/oksasatya/triptrop-api/internal/infrastructure/gemini"
	"github.com/oksasatya/triptrop-api/internal/infrastructure/oauth"
	pginfra "github.com/oksasatya/triptrop-api/internal/infrastructure/postgres"
	"github.com/oksasatya/triptrop-api/internal/infrastructure/secrets"
	"github.com/oksasatya/triptrop-api/internal/router"
	"github.com/oksasatya/triptrop-api/pkg/helpers"
	"github.com/oksasatya/triptrop-api/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()

	// Secrets missing from the environment are read from Secret Manager
	if cfg.GoogleCloudProject != "" {
		sm, err := secrets.NewManager(ctx, cfg.GoogleCloudProject, logger)
		if err != nil {
			logger.WithError(err).Warn("secret manager unavailable; using environment only")
		} else {
			sm.Fill(ctx, &cfg.GeminiAPIKey, "GEMINI_API_KEY")
			sm.Fill(ctx, &cfg.GoogleClientSecret, "GOOGLE_CLIENT_SECRET")
			sm.Fill(ctx, &cfg.JWTAccessSecret, "JWT_ACCESS_SECRET")
			_ = sm.Close()
		}
	}
	if cfg.JWTAccessSecret == "" {
		logger.Fatal("JWT_ACCESS_SECRET is not set in the environment or Secret Manager")
	}

	// Postgres
	pool, err := pginfra.NewPool(ctx, pginfra.PoolOptions{
		DSN:              cfg.PostgresDSN(),
		AppName:          cfg.AppName,
		MaxConns:         cfg.DBMaxConns,
		MinConns:         cfg.DBMinConns,
		MaxConnLife:      cfg.DBMaxConnLife,
		StatementTimeout: cfg.DBStmtTimeout,
	})
	if err != nil {
		logger.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := runMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		logger.Fatalf("migration failed: %v", err)
	}

	// Redis
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("redis unreachable; profile cache disabled")
		_ = rdb.Close()
		rdb = nil
	} else {
		defer func() { _ = rdb.Close() }()
	}

	c := &container.Container{
		Config:      cfg,
		Logger:      logger,
		Users:       pginfra.NewUserRepository(pool),
		Itineraries: pginfra.NewItineraryRepository(pool),
		History:     pginfra.NewSearchHistoryRepository(pool),
		Redis:       rdb,
		JWT:         helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.AccessTTL),
		Cookies:     helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure),
	}

	// Elasticsearch (optional)
	es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		logger.WithError(err).Warn("elasticsearch disabled")
	} else if es != nil {
		ictx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := helpers.EnsureESIndex(ictx, es, cfg.ESItinerariesIndex, application.ItineraryIndexMapping); err != nil {
			logger.WithError(err).Warn("itinerary index not ready; search may miss documents")
		}
		cancel()
		c.ES = es
	}

	// GCS (optional, itinerary export)
	if cfg.GCSBucket != "" {
		gcsClient, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			logger.WithError(err).Warn("gcs disabled; itinerary export unavailable")
		} else {
			defer func() { _ = gcsClient.Close() }()
			c.GCS = gcsClient
		}
	}

	// RabbitMQ (optional, welcome emails)
	if cfg.MailSendEnabled && cfg.RabbitMQURL != "" {
		q, err := helpers.NewRabbitQueue(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq unavailable; welcome emails disabled")
		} else {
			defer q.Close()
			c.Jobs = q
		}
	}

	// Google login
	google, err := oauth.NewGoogleClient(oauth.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURI,
	}, logger)
	if err != nil {
		logger.Fatalf("google oauth: %v", err)
	}
	c.Identity = google

	// Gemini (optional; generation degrades without it)
	if cfg.GeminiAPIKey != "" {
		gen, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.WithError(err).Warn("gemini disabled")
		} else {
			c.Generator = gen
		}
	} else {
		logger.Warn("GEMINI_API_KEY not set; itinerary generation will return degraded content")
	}

	r := router.NewEngine(c)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}

func runMigrations(dsn string, migrationsDir string, logger *logrus.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.Info("running migrations...")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
