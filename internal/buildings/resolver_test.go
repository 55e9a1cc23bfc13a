package buildings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"condo-tracker/internal/database"
	"condo-tracker/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// In-memory sqlite lives per connection
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Neighborhood{},
		&models.Building{},
		&models.Listing{},
		&models.HistoricalSale{},
	))
	require.NoError(t, database.SeedNeighborhoods(db))

	return db
}

func TestResolveReturnsNilWithoutNameOrAddress(t *testing.T) {
	r := NewResolver(newTestDB(t))

	id, err := r.Resolve("", "", "Downtown")
	require.NoError(t, err)
	assert.Nil(t, id)
}

func TestResolveCreatesBuildingOnFirstSighting(t *testing.T) {
	db := newTestDB(t)
	r := NewResolver(db)

	id, err := r.Resolve("The Falls", "707 Courtney St", "Downtown")
	require.NoError(t, err)
	require.NotNil(t, id)

	var building models.Building
	require.NoError(t, db.First(&building, *id).Error)
	assert.Equal(t, "The Falls", building.Name)
	assert.Equal(t, "707 Courtney St", building.Address)
	assert.Equal(t, "Victoria", building.City)
	require.NotNil(t, building.NeighborhoodID)

	var neighborhood models.Neighborhood
	require.NoError(t, db.First(&neighborhood, *building.NeighborhoodID).Error)
	assert.Equal(t, "Downtown", neighborhood.Name)
}

func TestResolveIsDeterministicByName(t *testing.T) {
	r := NewResolver(newTestDB(t))

	first, err := r.Resolve("The Falls", "707 Courtney St", "")
	require.NoError(t, err)

	// Same name with a different address resolves to the same building
	second, err := r.Resolve("The Falls", "999 Other St", "")
	require.NoError(t, err)
	assert.Equal(t, *first, *second)
}

func TestResolveFallsBackToAddress(t *testing.T) {
	r := NewResolver(newTestDB(t))

	first, err := r.Resolve("The Falls", "707 Courtney St", "")
	require.NoError(t, err)

	second, err := r.Resolve("", "707 Courtney St", "")
	require.NoError(t, err)
	assert.Equal(t, *first, *second)
}

func TestResolveDefaultsAddressFromName(t *testing.T) {
	db := newTestDB(t)
	r := NewResolver(db)

	id, err := r.Resolve("Shoal Point", "", "")
	require.NoError(t, err)
	require.NotNil(t, id)

	var building models.Building
	require.NoError(t, db.First(&building, *id).Error)
	assert.Equal(t, "Shoal Point", building.Name)
	assert.Equal(t, "Shoal Point", building.Address)
}

func TestResolveUnknownNeighborhoodIsNull(t *testing.T) {
	db := newTestDB(t)
	r := NewResolver(db)

	id, err := r.Resolve("The Juliet", "", "Atlantis")
	require.NoError(t, err)
	require.NotNil(t, id)

	var building models.Building
	require.NoError(t, db.First(&building, *id).Error)
	assert.Nil(t, building.NeighborhoodID)
}

func TestResolveReSelectsWhenDefaultedNameCollides(t *testing.T) {
	db := newTestDB(t)
	r := NewResolver(db)

	// A building whose name happens to equal an address offered later
	seeded, err := r.Resolve("707 Courtney St", "1002 Douglas St", "")
	require.NoError(t, err)
	require.NotNil(t, seeded)

	// Address lookup misses, the create defaults name from the address and
	// hits the name unique index; the existing row wins.
	id, err := r.Resolve("", "707 Courtney St", "")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, *seeded, *id)

	var count int64
	require.NoError(t, db.Model(&models.Building{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestResolveNeverEditsExistingBuilding(t *testing.T) {
	db := newTestDB(t)
	r := NewResolver(db)

	first, err := r.Resolve("Mermaid Wharf", "409 Swift St", "Downtown")
	require.NoError(t, err)

	_, err = r.Resolve("Mermaid Wharf", "Elsewhere", "James Bay")
	require.NoError(t, err)

	var building models.Building
	require.NoError(t, db.First(&building, *first).Error)
	assert.Equal(t, "409 Swift St", building.Address)

	var neighborhood models.Neighborhood
	require.NoError(t, db.First(&neighborhood, *building.NeighborhoodID).Error)
	assert.Equal(t, "Downtown", neighborhood.Name)
}
