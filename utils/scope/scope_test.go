package scope

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type record struct {
	ID        uint `gorm:"primaryKey"`
	Name      string
	Role      string
	DeletedAt *time.Time
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&record{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func TestActiveAt(t *testing.T) {
	db := setupDB(t)
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	require.NoError(t, db.Create(&[]record{
		{Name: "live", Role: "student"},
		{Name: "scheduled", Role: "student", DeletedAt: &future},
		{Name: "gone", Role: "student", DeletedAt: &past},
	}).Error)

	var names []string
	require.NoError(t, db.Model(&record{}).
		Scopes(ActiveAt(now)).
		Order("id").
		Pluck("name", &names).Error)

	assert.Equal(t, []string{"live", "scheduled"}, names,
		"future-scheduled deletions stay visible until the timestamp lapses")
}

func TestActiveAtComposesWithFilters(t *testing.T) {
	db := setupDB(t)
	now := time.Now()
	past := now.Add(-time.Minute)

	require.NoError(t, db.Create(&[]record{
		{Name: "keep", Role: "lecturer"},
		{Name: "wrong-role", Role: "student"},
		{Name: "deleted-lecturer", Role: "lecturer", DeletedAt: &past},
	}).Error)

	var names []string
	require.NoError(t, db.Model(&record{}).
		Scopes(ActiveAt(now)).
		Where("role = ?", "lecturer").
		Pluck("name", &names).Error)

	assert.Equal(t, []string{"keep"}, names)
}

func TestActiveAtBoundary(t *testing.T) {
	db := setupDB(t)
	now := time.Now().Truncate(time.Second)

	require.NoError(t, db.Create(&record{Name: "exact", DeletedAt: &now}).Error)

	var count int64
	require.NoError(t, db.Model(&record{}).Scopes(ActiveAt(now)).Count(&count).Error)
	assert.Zero(t, count, "a deletion timestamp equal to now is already in effect")
}
