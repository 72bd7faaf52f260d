package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	stripeapi "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"github.com/bookwell-inc/bookwell/internal/application/reconciliation"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
)

const (
	defaultFetchAttempts   = 3
	defaultInitialInterval = 200 * time.Millisecond
	defaultMaxInterval     = 2 * time.Second
)

type FetcherConfig struct {
	SecretKey       string
	MaxAttempts     int
	InitialInterval time.Duration
	// Backends overrides the Stripe API endpoints. Nil uses the defaults.
	Backends *stripeapi.Backends
}

// SubscriptionFetcher reads subscriptions through the Stripe API, retrying
// rate limits, server errors and network failures with exponential backoff.
type SubscriptionFetcher struct {
	api             *client.API
	maxAttempts     int
	initialInterval time.Duration
	logger          logger.Interface
}

func NewSubscriptionFetcher(cfg FetcherConfig, logger logger.Interface) *SubscriptionFetcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultFetchAttempts
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = defaultInitialInterval
	}
	return &SubscriptionFetcher{
		api:             client.New(cfg.SecretKey, cfg.Backends),
		maxAttempts:     cfg.MaxAttempts,
		initialInterval: cfg.InitialInterval,
		logger:          logger,
	}
}

// FetchSubscription implements reconciliation.SubscriptionFetcher.
func (f *SubscriptionFetcher) FetchSubscription(ctx context.Context, subscriptionID string) (*reconciliation.SubscriptionSnapshot, error) {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = f.initialInterval
	expBackoff.MaxInterval = defaultMaxInterval
	expBackoff.Reset()

	var lastErr error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		params := &stripeapi.SubscriptionParams{}
		params.Context = ctx

		sub, err := f.api.Subscriptions.Get(subscriptionID, params)
		if err == nil {
			return snapshotFromSubscription(sub), nil
		}
		if isNotFound(err) {
			return nil, fmt.Errorf("%s: %w", subscriptionID, reconciliation.ErrSubscriptionNotFound)
		}
		if !isRetryable(err) {
			return nil, fmt.Errorf("failed to fetch subscription %s: %w", subscriptionID, err)
		}
		lastErr = err

		if attempt == f.maxAttempts {
			break
		}
		delay := expBackoff.NextBackOff()
		if delay == backoff.Stop {
			break
		}
		f.logger.Warnw("subscription fetch failed, retrying",
			"subscription_id", subscriptionID,
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, fmt.Errorf("failed to fetch subscription %s after %d attempts: %w", subscriptionID, f.maxAttempts, lastErr)
}

func isNotFound(err error) bool {
	var stripeErr *stripeapi.Error
	return errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound
}

// isRetryable treats client errors other than 429 as permanent.
func isRetryable(err error) bool {
	var stripeErr *stripeapi.Error
	if !errors.As(err, &stripeErr) {
		return true
	}
	code := stripeErr.HTTPStatusCode
	if code == http.StatusTooManyRequests {
		return true
	}
	return code == 0 || code >= http.StatusInternalServerError
}
