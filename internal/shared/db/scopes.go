package db

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ForUpdate locks the selected rows until the surrounding transaction ends.
// Dialects without row locks (SQLite) ignore the clause.
func ForUpdate() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
}

// ForShare takes a shared lock on the selected rows. A locking read returns
// the latest committed version, not the transaction's snapshot.
func ForShare() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Clauses(clause.Locking{Strength: "SHARE"})
	}
}

// StatusIn filters on the status column.
func StatusIn(statuses ...string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("status IN ?", statuses)
	}
}

// OverlapsInterval keeps rows whose half-open [starts_at, ends_at) interval
// intersects [start, end).
func OverlapsInterval(start, end time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("starts_at < ? AND ends_at > ?", end.UTC(), start.UTC())
	}
}
