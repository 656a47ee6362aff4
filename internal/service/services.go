package service

import (
	"log/slog"
	"time"

	"github.com/kohakume/livegate/internal/payments"
	postgres "github.com/kohakume/livegate/internal/repository/postgres"
	redis "github.com/kohakume/livegate/internal/repository/redis"
	"github.com/kohakume/livegate/internal/service/access"
	"github.com/kohakume/livegate/internal/service/admin"
	"github.com/kohakume/livegate/internal/service/auth"
	"github.com/kohakume/livegate/internal/service/catalog"
	"github.com/kohakume/livegate/internal/service/checkout"
	"github.com/kohakume/livegate/internal/service/purchases"
	"github.com/kohakume/livegate/internal/service/webhook"
	"github.com/kohakume/livegate/internal/token"
)

type Services struct {
	Catalog   *catalog.Service
	Checkout  *checkout.Service
	Webhook   *webhook.Service
	Access    *access.Service
	Auth      *auth.Service
	Purchases *purchases.Service
	Admin     *admin.Service
}

type Config struct {
	Catalog  catalog.Config
	Checkout checkout.Config
	SignTTL  time.Duration
}

// Deps carries the shared infrastructure the services are built on. Mailer,
// ResetMailer, Signer, Idem and Limiter may be nil; the features they back
// degrade gracefully without them.
type Deps struct {
	Store       *postgres.Store
	Cache       *redis.Cache
	Idem        *redis.IdempotencyStore
	Limiter     *redis.SlidingWindowLimiter
	Codec       *token.Codec
	Stripe      *payments.Client
	Mailer      webhook.Mailer
	ResetMailer auth.ResetMailer
	Signer      access.URLSigner
	Log         *slog.Logger
}

func NewServices(d Deps, cfg Config) *Services {
	var dedup webhook.Deduper
	if d.Idem != nil {
		dedup = d.Idem
	}

	var limiter checkout.Limiter
	if d.Limiter != nil {
		limiter = d.Limiter
	}

	return &Services{
		Catalog: catalog.New(d.Store, d.Cache, cfg.Catalog),
		Checkout: checkout.New(
			d.Store.Events(),
			d.Store.Tickets(),
			d.Stripe,
			limiter,
			cfg.Checkout,
		),
		Webhook: webhook.New(
			d.Store.Purchases(),
			d.Codec,
			d.Mailer,
			dedup,
			redis.KeyWebhookEvent,
			d.Log,
		),
		Access: access.New(
			d.Codec,
			d.Store.Events(),
			d.Store.Purchases(),
			d.Signer,
			cfg.SignTTL,
			d.Log,
		),
		Auth:      auth.New(d.Store.Users(), d.Store.Admins(), d.Codec, d.ResetMailer, d.Log),
		Purchases: purchases.New(d.Store),
		Admin:     admin.New(d.Store, d.Cache),
	}
}
