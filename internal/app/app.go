package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kohakume/livegate/internal/cdn"
	"github.com/kohakume/livegate/internal/config"
	"github.com/kohakume/livegate/internal/mailer"
	"github.com/kohakume/livegate/internal/payments"
	"github.com/kohakume/livegate/internal/postgres"
	"github.com/kohakume/livegate/internal/redis"
	postgresrepo "github.com/kohakume/livegate/internal/repository/postgres"
	redisrepo "github.com/kohakume/livegate/internal/repository/redis"
	"github.com/kohakume/livegate/internal/service"
	"github.com/kohakume/livegate/internal/service/access"
	"github.com/kohakume/livegate/internal/service/auth"
	"github.com/kohakume/livegate/internal/service/checkout"
	"github.com/kohakume/livegate/internal/service/webhook"
	"github.com/kohakume/livegate/internal/token"
	httpgin "github.com/kohakume/livegate/internal/transport/http/gin"
)

type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	pgxPool, err := postgres.New(context.Background(), postgres.Config{
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		Name:     cfg.Postgres.Name,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		SSLMode:  cfg.Postgres.SSLMode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize postgres: %w", err)
	}

	rdb, err := redis.New(context.Background(), redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}

	store := postgresrepo.NewStore(pgxPool)
	cache := redisrepo.New(rdb)
	limiter := redisrepo.NewSlidingWindowLimiter(rdb, "checkout", 10, 1*time.Minute)
	idem := redisrepo.NewIdempotencyStore(rdb, 24*time.Hour)

	codec := token.NewCodec(
		cfg.Token.Secret,
		cfg.Token.AccessTTL,
		cfg.Token.SessionTTL,
		cfg.Token.AdminTTL,
	)

	stripeClient := payments.NewClient(cfg.Stripe.SecretKey)

	var (
		m  webhook.Mailer
		rm auth.ResetMailer
	)
	if cfg.SMTP.Host != "" {
		smtpMailer := mailer.NewSMTP(mailer.Config{
			Host:      cfg.SMTP.Host,
			Port:      cfg.SMTP.Port,
			Username:  cfg.SMTP.Username,
			Password:  cfg.SMTP.Password,
			From:      cfg.SMTP.From,
			PublicURL: cfg.App.PublicURL,
		})
		m = smtpMailer
		rm = smtpMailer
	} else {
		logger.Warn("SMTP not configured, confirmation and reset emails disabled")
	}

	var signer access.URLSigner
	if cfg.CloudFront.KeyPairID != "" {
		s, err := cdn.New(cfg.CloudFront.KeyPairID, []byte(cfg.CloudFront.PrivateKey))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize cloudfront signer: %w", err)
		}
		signer = s
	} else {
		logger.Warn("CloudFront not configured, stream URLs served unsigned")
	}

	services := service.NewServices(service.Deps{
		Store:       store,
		Cache:       cache,
		Idem:        idem,
		Limiter:     limiter,
		Codec:       codec,
		Stripe:      stripeClient,
		Mailer:      m,
		ResetMailer: rm,
		Signer:      signer,
		Log:         logger,
	}, service.Config{
		Checkout: checkout.Config{PublicURL: cfg.App.PublicURL},
		SignTTL:  time.Hour,
	})

	router := httpgin.NewRouter(services, codec, httpgin.RouterConfig{
		WebhookSecret:  cfg.Stripe.WebhookSecret,
		AllowedOrigins: []string{cfg.App.PublicURL},
	}, logger)

	return &App{
		cfg:    cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler: router,
		},
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("HTTP server listening", "host", a.cfg.Server.Host, "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(ctx)
	})

	return g.Wait()
}
