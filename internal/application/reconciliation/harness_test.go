package reconciliation_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bookwell-inc/bookwell/internal/application/availability"
	"github.com/bookwell-inc/bookwell/internal/application/identity"
	"github.com/bookwell-inc/bookwell/internal/application/reconciliation"
	"github.com/bookwell-inc/bookwell/internal/domain/catalog"
	"github.com/bookwell-inc/bookwell/internal/domain/shared/events"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/persistence/testutil"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

func (p *recordingPublisher) Publish(e events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) PublishAll(list []events.DomainEvent) error {
	for _, e := range list {
		_ = p.Publish(e)
	}
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.GetEventType()
	}
	return out
}

type stubFetcher struct {
	snapshots map[string]*reconciliation.SubscriptionSnapshot
	err       error
	calls     int
}

func (f *stubFetcher) FetchSubscription(_ context.Context, id string) (*reconciliation.SubscriptionSnapshot, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.snapshots[id], nil
}

type harness struct {
	store        *testutil.Store
	reconciler   *reconciliation.Reconciler
	publisher    *recordingPublisher
	fetcher      *stubFetcher
	professional *catalog.Professional
	service      *catalog.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := testutil.NewStore(t)
	log := logger.NewNop()

	engine := availability.NewEngine(store.Bookings, log)
	guard := availability.NewGuard(store.TxManager, store.Professionals, store.Bookings, engine, log)
	resolver := identity.NewResolver(store.Clients, store.PendingLinks, store.Bookings, "", log)
	publisher := &recordingPublisher{}
	fetcher := &stubFetcher{snapshots: map[string]*reconciliation.SubscriptionSnapshot{}}

	r := reconciliation.NewReconciler(reconciliation.Dependencies{
		TxManager:     store.TxManager,
		Resolver:      resolver,
		Reserver:      guard,
		Clients:       store.Clients,
		Bookings:      store.Bookings,
		Payments:      store.Payments,
		Subscriptions: store.Subscriptions,
		Services:      store.Services,
		Fetcher:       fetcher,
		Publisher:     publisher,
	}, log)

	pro := store.SeedProfessional(t, "Bruna", nil)
	svc := store.SeedService(t, pro.ID(), 30)
	require.NotNil(t, svc)

	return &harness{
		store:        store,
		reconciler:   r,
		publisher:    publisher,
		fetcher:      fetcher,
		professional: pro,
		service:      svc,
	}
}

func (h *harness) metadata(date string) map[string]string {
	return map[string]string{
		"professionalId": h.professional.ID(),
		"serviceId":      h.service.ID(),
		"date":           date,
	}
}
