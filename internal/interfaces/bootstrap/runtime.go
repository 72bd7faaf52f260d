// Package bootstrap builds the process runtime shared by the CLI commands:
// configuration, logging, database, Redis and the repositories over them.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/bookwell-inc/bookwell/internal/infrastructure/config"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/database"
	"github.com/bookwell-inc/bookwell/internal/infrastructure/repository"
	"github.com/bookwell-inc/bookwell/internal/shared/biztime"
	"github.com/bookwell-inc/bookwell/internal/shared/db"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
)

// Runtime owns the long-lived connections of one process.
type Runtime struct {
	Config *config.Config
	Log    logger.Interface
	DB     *gorm.DB
	Redis  *redis.Client
}

// EnvVar overrides the --env flag of every command.
const EnvVar = "BOOKWELL_ENV"

// Load reads configuration for env and initializes logging and the business
// timezone. No connections are opened.
func Load(env string) (*Runtime, error) {
	if fromEnv := os.Getenv(EnvVar); fromEnv != "" {
		env = fromEnv
	}

	cfg, err := config.Load(ModeFor(env))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger, cfg.Server.IsDebug()); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := biztime.Init(cfg.Server.Timezone); err != nil {
		return nil, fmt.Errorf("failed to initialize business timezone: %w", err)
	}

	return &Runtime{Config: cfg, Log: logger.NewLogger()}, nil
}

// ModeFor maps a deployment environment name to a gin mode.
func ModeFor(env string) string {
	switch env {
	case "production", "prod", "release":
		return "release"
	case "test", "testing":
		return "test"
	default:
		return "debug"
	}
}

// OpenDatabase connects the process-wide database.
func (r *Runtime) OpenDatabase() error {
	if err := database.Init(&r.Config.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	r.DB = database.Get()
	return nil
}

// OpenRedis connects to Redis and verifies the connection.
func (r *Runtime) OpenRedis(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:     r.Config.Redis.GetAddr(),
		Password: r.Config.Redis.Password,
		DB:       r.Config.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	r.Redis = client
	r.Log.Infow("redis connection established", "address", r.Config.Redis.GetAddr())
	return nil
}

// Close releases every connection that was opened.
func (r *Runtime) Close() error {
	var errs []error
	if r.Redis != nil {
		errs = append(errs, r.Redis.Close())
	}
	if r.DB != nil {
		errs = append(errs, database.Close())
	}
	return errors.Join(errs...)
}

// Repositories bundles the gorm repositories over the runtime database.
type Repositories struct {
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

func NewRepositories(gdb *gorm.DB, log logger.Interface) *Repositories {
	return &Repositories{
		TxManager:     db.NewTransactionManager(gdb),
		Clients:       repository.NewClientRepository(gdb),
		PendingLinks:  repository.NewPendingLinkRepository(gdb),
		Professionals: repository.NewProfessionalRepository(gdb),
		Services:      repository.NewServiceRepository(gdb),
		Bookings:      repository.NewBookingRepository(gdb, log.Named("booking-repository")),
		Payments:      repository.NewPaymentRepository(gdb),
		Subscriptions: repository.NewSubscriptionRepository(gdb),
		WebhookEvents: repository.NewWebhookEventRepository(gdb),
	}
}
