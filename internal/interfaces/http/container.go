package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bookwell-inc/bookwell/internal/application/availability"
	"github.com/bookwell-inc/bookwell/internal/application/identity"
	"github.com/bookwell-inc/bookwell/internal/application/reconciliation"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/stripe"
	"github.com/bookwell-inc/bookwell/internal/interfaces/bootstrap"
	"github.com/bookwell-inc/bookwell/internal/interfaces/http/handlers"
	"github.com/bookwell-inc/bookwell/internal/interfaces/http/middleware"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
)

// Container holds the use cases and handlers of the HTTP process, wired over
// the runtime's repositories and signal dispatcher.
type Container struct {
	engine         *gin.Engine
	log            logger.Interface
	allowedOrigins []string

	webhookHandler      *handlers.WebhookHandler
	availabilityHandler *handlers.AvailabilityHandler
	clientHandler       *handlers.ClientHandler

	// nil when rate limiting is disabled or Redis is absent
	rateLimiter *middleware.RateLimiter
}

// NewContainer creates a new Container with all dependencies wired together.
func NewContainer(rt *bootstrap.Runtime, repos *bootstrap.Repositories, signals *bootstrap.Signals) *Container {
	cfg := rt.Config
	log := rt.Log

	engine := availability.NewEngine(repos.Bookings, log.Named("availability"))
	guard := availability.NewGuard(repos.TxManager, repos.Professionals, repos.Bookings, engine, log.Named("availability"))
	resolver := identity.NewResolver(repos.Clients, repos.PendingLinks, repos.Bookings, cfg.Booking.PlaceholderName, log.Named("identity"))

	fetcher := stripe.NewSubscriptionFetcher(stripe.FetcherConfig{
		SecretKey:   cfg.Stripe.SecretKey,
		MaxAttempts: cfg.Stripe.FetchMaxAttempts,
	}, log.Named("stripe"))

	reconciler := reconciliation.NewReconciler(reconciliation.Dependencies{
		TxManager:     repos.TxManager,
		Resolver:      resolver,
		Reserver:      guard,
		Clients:       repos.Clients,
		Bookings:      repos.Bookings,
		Payments:      repos.Payments,
		Subscriptions: repos.Subscriptions,
		Services:      repos.Services,
		Fetcher:       fetcher,
		Publisher:     signals.Dispatcher,
	}, log.Named("reconciler"))
	ingestUC := reconciliation.NewIngestWebhookUseCase(
		repos.WebhookEvents,
		stripe.NewRouter(reconciler, log.Named("stripe")),
		log.Named("webhook"),
	)

	var decisionCache availability.DecisionCache
	if signals.Cache != nil {
		decisionCache = signals.Cache
	}
	checkUC := availability.NewCheckAvailabilityUseCase(repos.Professionals, engine, decisionCache, log.Named("availability"))
	linkUC := identity.NewLinkUserUseCase(repos.TxManager, repos.Clients, repos.PendingLinks, resolver)

	c := &Container{
		engine:              gin.New(),
		log:                 log,
		allowedOrigins:      cfg.Server.AllowedOrigins,
		webhookHandler:      handlers.NewWebhookHandler(stripe.NewVerifier(cfg.Stripe.WebhookSecret), ingestUC, log.Named("webhook")),
		availabilityHandler: handlers.NewAvailabilityHandler(checkUC, log),
		clientHandler:       handlers.NewClientHandler(linkUC, log),
	}
	if rt.Redis != nil && cfg.Server.RateLimitPerMinute > 0 {
		c.rateLimiter = middleware.NewRateLimiter(rt.Redis, cfg.Server.RateLimitPerMinute, time.Minute, log)
	}
	return c
}
