package reconciliation

import (
	"context"
	"fmt"

	"github.com/bookwell-inc/bookwell/internal/domain/subscription"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
)

// HandleSubscriptionUpdated overwrites the local subscription with the
// provider's state. Unknown subscriptions are skipped.
func (r *Reconciler) HandleSubscriptionUpdated(ctx context.Context, snapshot SubscriptionSnapshot) (Result, error) {
	return r.syncSubscription(ctx, "subscription.updated", snapshot)
}

// HandleSubscriptionDeleted records the final provider state of a
// subscription that ended.
func (r *Reconciler) HandleSubscriptionDeleted(ctx context.Context, snapshot SubscriptionSnapshot) (Result, error) {
	if snapshot.Status == "" {
		snapshot.Status = subscription.StatusCanceled
	}
	return r.syncSubscription(ctx, "subscription.deleted", snapshot)
}

func (r *Reconciler) syncSubscription(ctx context.Context, kind string, snapshot SubscriptionSnapshot) (Result, error) {
	log := r.logger.With(
		"event_kind", kind,
		"subscription_id", snapshot.ID,
		"provider_status", snapshot.Status,
	)

	return r.run(ctx, log, func(ctx context.Context, u *unit) (Result, error) {
		sub, res, err := r.loadSubscription(ctx, log, snapshot.ID)
		if err != nil || res != nil {
			return derefResult(res), err
		}

		previous := sub.Status()
		if sub.ApplyProviderState(snapshot.ProviderState()) {
			u.emit(subscriptionSignal(sub, previous))
		}
		if err := r.subscriptions.Update(ctx, sub); err != nil {
			return Result{}, fmt.Errorf("failed to update subscription: %w", err)
		}
		log.Infow("subscription synchronized", "previous_status", previous, "status", sub.Status())
		return applied("subscription synchronized"), nil
	})
}

func (r *Reconciler) loadSubscription(ctx context.Context, log logger.Interface, externalID string) (*subscription.Subscription, *Result, error) {
	if externalID == "" {
		res := skipped("event carries no subscription")
		return nil, &res, nil
	}
	sub, err := r.subscriptions.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up subscription: %w", err)
	}
	if sub == nil {
		log.Warnw("event skipped: subscription not found")
		res := skipped("subscription not found")
		return nil, &res, nil
	}
	return sub, nil, nil
}
