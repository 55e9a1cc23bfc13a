package sales

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"condo-tracker/internal/buildings"
	"condo-tracker/internal/database"
	"condo-tracker/internal/models"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
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
		&models.HistoricalSale{},
		&models.SalePhoto{},
	))
	require.NoError(t, database.SeedNeighborhoods(db))

	return NewService(db, buildings.NewResolver(db)), db
}

func TestImportCSVIsolatesBadRows(t *testing.T) {
	svc, db := newTestService(t)

	csv := `building_name,sale_price,sale_date,square_feet
The Falls,550000,2024-03-15,850
Shoal Point,not-a-price,2024-04-01,1100
The Promontory,"$612,000",2024-05-20,900
`

	result := svc.ImportCSV(csv)

	assert.True(t, result.Success)
	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Row 3")
	assert.Contains(t, result.Errors[0], "Invalid sale_price 'not-a-price'")

	var count int64
	db.Model(&models.HistoricalSale{}).Count(&count)
	assert.Equal(t, int64(2), count)

	// Currency formatting is stripped
	var sale models.HistoricalSale
	require.NoError(t, db.Where("sale_price = ?", 612000.0).First(&sale).Error)
	assert.Equal(t, models.DataSourceCSV, sale.DataSource)
}

func TestImportCSVRejectsMissingColumns(t *testing.T) {
	svc, _ := newTestService(t)

	result := svc.ImportCSV("building_name,price\nThe Falls,100\n")

	assert.False(t, result.Success)
	assert.Equal(t, 0, result.TotalRows)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Missing required columns")
	assert.Contains(t, result.Errors[0], "sale_price")
	assert.Contains(t, result.Errors[0], "sale_date")
}

func TestImportCSVRejectsEmptyContent(t *testing.T) {
	svc, _ := newTestService(t)

	result := svc.ImportCSV("")

	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "CSV has no headers", result.Errors[0])
}

func TestImportCSVAcceptsMultipleDateFormats(t *testing.T) {
	svc, db := newTestService(t)

	csv := `building_name,sale_price,sale_date
A,100000,2024-01-15
B,200000,03/20/2024
C,300000,04-25-2024
D,400000,31/12/2024
E,500000,January 5 2024
`

	result := svc.ImportCSV(csv)

	assert.Equal(t, 4, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Row 6")
	assert.Contains(t, result.Errors[0], "Invalid date format")

	var sale models.HistoricalSale
	require.NoError(t, db.Where("sale_price = ?", 200000.0).First(&sale).Error)
	assert.Equal(t, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC), sale.SaleDate.UTC())
}

func TestImportCSVResolvesBuildingsOnce(t *testing.T) {
	svc, db := newTestService(t)

	csv := `building_name,sale_price,sale_date
The Falls,550000,2024-03-15
The Falls,575000,2024-06-15
`

	result := svc.ImportCSV(csv)
	assert.Equal(t, 2, result.Imported)

	var buildingCount int64
	db.Model(&models.Building{}).Where("name = ?", "The Falls").Count(&buildingCount)
	assert.Equal(t, int64(1), buildingCount)
}

func TestCreateSaleRequiresBuilding(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateSale(SaleRecord{
		SalePrice: 500000,
		SaleDate:  time.Now(),
	})
	assert.Error(t, err)
}

func TestListSalesFiltersByBuilding(t *testing.T) {
	svc, db := newTestService(t)

	_, err := svc.CreateSale(SaleRecord{
		BuildingName: "The Falls",
		SalePrice:    550000,
		SaleDate:     time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, err = svc.CreateSale(SaleRecord{
		BuildingName: "Shoal Point",
		SalePrice:    900000,
		SaleDate:     time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	var building models.Building
	require.NoError(t, db.Where("name = ?", "The Falls").First(&building).Error)

	list, err := svc.ListSales(SaleFilters{BuildingID: &building.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
	require.Len(t, list.Sales, 1)
	assert.Equal(t, 550000.0, list.Sales[0].SalePrice)
	assert.Equal(t, "The Falls", list.Sales[0].BuildingName)
}
