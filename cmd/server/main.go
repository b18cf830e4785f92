package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/foxfolio/portfolio-api/internal/api"
	"github.com/foxfolio/portfolio-api/internal/config"
	"github.com/foxfolio/portfolio-api/internal/mailer"
	"github.com/foxfolio/portfolio-api/internal/mailing"
	"github.com/foxfolio/portfolio-api/internal/metrics"
	"github.com/foxfolio/portfolio-api/internal/pkg/dedupe"
	"github.com/foxfolio/portfolio-api/internal/pkg/distlock"
	"github.com/foxfolio/portfolio-api/internal/pkg/logger"
	"github.com/foxfolio/portfolio-api/internal/repository/postgres"
	"github.com/foxfolio/portfolio-api/internal/service/auth"
	"github.com/foxfolio/portfolio-api/internal/service/credential"
	"github.com/foxfolio/portfolio-api/internal/service/engagement"
	"github.com/foxfolio/portfolio-api/internal/service/notify"
	"github.com/foxfolio/portfolio-api/internal/service/visitor"
	"github.com/foxfolio/portfolio-api/internal/storage"
)

func main() {
	if err := run(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/config.yaml"
	}
	cfg, err := config.LoadFromEnv(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))
	logger.SetRedactPII(cfg.Log.Redact())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	db, err := postgres.Open(cfg.Database.URL, postgres.PoolConfig{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database connected")

	redisClient := openRedis(ctx, cfg.Redis.URL)
	if redisClient != nil {
		defer redisClient.Close()
	}

	if cfg.Database.MigrateOnStartup {
		if err := migrate(ctx, db, redisClient); err != nil {
			return err
		}
	}

	m := metrics.New()

	transport, err := mailer.New(ctx, mailer.Options{
		Transport: cfg.Mail.Transport,
		From:      cfg.Mail.From,
		FromName:  cfg.Mail.FromName,
		SMTP: mailer.SMTPConfig{
			Host:     cfg.Mail.SMTP.Host,
			Port:     cfg.Mail.SMTP.Port,
			Username: cfg.Mail.SMTP.Username,
			Password: cfg.Mail.SMTP.Password,
			Security: cfg.Mail.SMTP.Security,
			Timeout:  cfg.Mail.SMTP.Timeout(),
		},
		SES: mailer.SESConfig{
			Region:           cfg.Mail.SES.Region,
			AccessKey:        cfg.Mail.SES.AccessKey,
			SecretKey:        cfg.Mail.SES.SecretKey,
			ConfigurationSet: cfg.Mail.SES.ConfigurationSet,
		},
	})
	if err != nil {
		return fmt.Errorf("mail transport: %w", err)
	}
	logger.Info("mail transport ready", "transport", transport.Name())

	visitors := visitor.NewService(postgres.NewVisitorRepo(db))
	creds := credential.NewStore(postgres.NewCredentialRepo(db))
	authSvc := auth.NewService(postgres.NewPrincipalRepo(db), creds, cfg.Auth.TokenLifetime())
	authSvc.OnRejection(func(r auth.Rejection) { m.AuthRejected(string(r)) })

	content := postgres.NewContentRepo(db)
	deps := engagement.Deps{
		Visitors:   visitors,
		Content:    content,
		Stats:      content,
		Dispatcher: notify.NewDispatcher(transport, m),
		Composer: mailing.NewComposer(mailing.NewEngine(), mailing.Profile{
			SiteName:   cfg.Site.Name,
			OwnerEmail: cfg.Mail.OwnerEmail,
		}),
		OwnerEmail: cfg.Mail.OwnerEmail,
		Observer:   m,
	}
	if redisClient != nil {
		deps.Gate = dedupe.NewWindow(redisClient, cfg.RateLimit.VisitWindow())
	}

	health := api.NewHealthChecker().
		Add("database", db, true, 3*time.Second, time.Second)
	if redisClient != nil {
		health.Add("redis", api.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}), false, 2*time.Second, 500*time.Millisecond)
	}

	if cfg.Archive.S3Bucket != "" {
		archive, err := storage.NewS3Archive(ctx, cfg.Archive.S3Bucket, cfg.Archive.S3Region, cfg.Archive.S3Prefix)
		if err != nil {
			logger.Warn("broadcast archive disabled", "error", err)
		} else {
			deps.Archive = archive
			health.Add("archive", api.PingFunc(archive.Ping), false, 3*time.Second, 0)
			logger.Info("broadcast archive enabled", "bucket", cfg.Archive.S3Bucket)
		}
	}

	opts := api.RouteOptions{
		CORSOrigins:    cfg.Server.CORSOrigins,
		RequestTimeout: cfg.Server.RequestTimeout(),
		Health:         health,
		Metrics:        m.Handler(),
	}
	if cfg.RateLimit.Enabled {
		opts.Limiter = api.NewRateLimiter(ctx, api.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
			OnLimited:         m.RateLimited.Inc,
		})
	}

	server := api.NewServer(api.NewHandlers(authSvc, engagement.NewService(deps)), authSvc, opts)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
		logger.Info("starting server", "addr", addr)
		if err := server.ListenAndServe(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-done:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("server stopped")
	return nil
}

// openRedis returns nil when url is empty or the server does not answer.
// Redis is optional: without it visit alerts are not deduplicated and
// migrations lock through Postgres.
func openRedis(ctx context.Context, url string) *redis.Client {
	if url == "" {
		logger.Info("redis not configured")
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		opts = &redis.Options{Addr: url}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, continuing without it", "error", err)
		client.Close()
		return nil
	}
	logger.Info("redis connected")
	return client
}

// migrate applies pending migrations while holding a cluster-wide lock so
// that replicas starting together do not race.
func migrate(ctx context.Context, db *sql.DB, redisClient *redis.Client) error {
	lock := distlock.NewLock(redisClient, db, "migrate", 5*time.Minute)
	err := distlock.WithLock(ctx, lock, 2*time.Minute, 2*time.Second, func() error {
		return postgres.Migrate(ctx, db)
	})
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("migrations applied")
	return nil
}
