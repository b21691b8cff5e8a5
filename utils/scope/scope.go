package scope

import (
	"time"

	"gorm.io/gorm"
)

// ActiveAt returns a GORM scope that hides soft-deleted records as of the
// given instant. A record is visible while its deletion timestamp is null or
// still in the future, so scheduled deletions stay listed until they lapse.
// Compose it with any base query:
//
//	db.Scopes(scope.ActiveAt(now)).Where("role = ?", "student").Find(&users)
func ActiveAt(now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("deleted_at IS NULL OR deleted_at > ?", now)
	}
}

// Active is ActiveAt evaluated at the current time.
func Active(db *gorm.DB) *gorm.DB {
	return ActiveAt(time.Now())(db)
}
