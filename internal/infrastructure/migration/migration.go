package migration

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/bookwell-inc/bookwell/internal/shared/config"
	"github.com/bookwell-inc/bookwell/internal/shared/logger"
)

// DefaultScriptsPath is where `migrate create` writes new scripts.
const DefaultScriptsPath = "./internal/infrastructure/migration/scripts"

// Manager runs the strategy chosen for a database.
type Manager struct {
	strategy Strategy
	logger   logger.Interface
}

// NewManager selects the versioned goose scripts for MySQL and SQLite files.
// An in-memory SQLite database is auto-migrated from the models instead.
func NewManager(cfg *config.DatabaseConfig, log logger.Interface) *Manager {
	if cfg.IsSQLite() && isInMemory(cfg.SQLitePath) {
		return NewManagerWithStrategy(NewAutoMigrateStrategy(log), log)
	}
	return NewManagerWithStrategy(NewGooseStrategy(DialectFor(cfg), DefaultScriptsPath, log), log)
}

func NewManagerWithStrategy(strategy Strategy, log logger.Interface) *Manager {
	return &Manager{
		strategy: strategy,
		logger:   log.With("component", "migration.manager"),
	}
}

// Migrate executes the configured migration strategy
func (m *Manager) Migrate(db *gorm.DB) error {
	m.logger.Infow("starting database migration", "strategy", m.strategy.GetName())

	if err := m.strategy.Migrate(db); err != nil {
		m.logger.Errorw("migration failed", "strategy", m.strategy.GetName(), "error", err)
		return fmt.Errorf("migration failed with strategy %s: %w", m.strategy.GetName(), err)
	}

	m.logger.Infow("database migration completed successfully", "strategy", m.strategy.GetName())
	return nil
}

// GetStrategy returns the current migration strategy
func (m *Manager) GetStrategy() Strategy {
	return m.strategy
}

// DialectFor maps the configured driver to its goose dialect.
func DialectFor(cfg *config.DatabaseConfig) string {
	if cfg.IsSQLite() {
		return "sqlite3"
	}
	return "mysql"
}

func isInMemory(path string) bool {
	return path == "" || path == ":memory:" || strings.Contains(path, "mode=memory")
}
