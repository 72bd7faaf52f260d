// Package testutil opens migrated in-memory databases for tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bookwell-inc/bookwell/internal/domain/catalog"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/persistence/models"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/repository"
	"github.com/bookwell-inc/bookwell/internal/shared/db"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
)

var dbSeq atomic.Int64

// NewTestDB returns a private in-memory SQLite database with every model
// migrated. A single connection serializes transactions the way row locks
// would on MySQL.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:bookwell_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, gdb.AutoMigrate(models.All()...))
	return gdb
}

// Store bundles the repositories over one test database.
type Store struct {
	DB            *gorm.DB
	TxManager     *db.TransactionManager
	Clients       *repository.ClientRepository
	PendingLinks  *repository.PendingLinkRepository
	Professionals *repository.ProfessionalRepository
	Services      *repository.ServiceRepository
	Bookings      *repository.BookingRepository
	Payments      *repository.PaymentRepository
	Subscriptions *repository.SubscriptionRepository
	WebhookEvents *repository.WebhookEventRepository
}

func NewStore(t testing.TB) *Store {
	t.Helper()
	gdb := NewTestDB(t)
	return &Store{
		DB:            gdb,
		TxManager:     db.NewTransactionManager(gdb),
		Clients:       repository.NewClientRepository(gdb),
		PendingLinks:  repository.NewPendingLinkRepository(gdb),
		Professionals: repository.NewProfessionalRepository(gdb),
		Services:      repository.NewServiceRepository(gdb),
		Bookings:      repository.NewBookingRepository(gdb, logger.NewNop()),
		Payments:      repository.NewPaymentRepository(gdb),
		Subscriptions: repository.NewSubscriptionRepository(gdb),
		WebhookEvents: repository.NewWebhookEventRepository(gdb),
	}
}

// AllWeek is a schedule open around the clock every day.
func AllWeek() catalog.WeeklySchedule {
	s := catalog.WeeklySchedule{}
	for d := time.Sunday; d <= time.Saturday; d++ {
		s[d] = []catalog.TimeRange{{Start: "00:00", End: "24:00"}}
	}
	return s
}

// SeedProfessional stores a professional with the given schedule, or an
// always-open one when schedule is nil.
func (s *Store) SeedProfessional(t testing.TB, name string, schedule catalog.WeeklySchedule) *catalog.Professional {
	t.Helper()
	if schedule == nil {
		schedule = AllWeek()
	}
	p, err := catalog.NewProfessional(name, schedule)
	require.NoError(t, err)
	require.NoError(t, s.Professionals.Create(t.Context(), p))
	return p
}

// SeedService stores a service of the given length for professionalID.
func (s *Store) SeedService(t testing.TB, professionalID string, durationMinutes int) *catalog.Service {
	t.Helper()
	svc, err := catalog.NewService(professionalID, "Consulta", durationMinutes, 15000, "brl")
	require.NoError(t, err)
	require.NoError(t, s.Services.Create(t.Context(), svc))
	return svc
}
