package sales

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"condo-tracker/internal/logger"
	"condo-tracker/internal/models"
)

// requiredColumns must all be present in the CSV header; their absence fails
// the whole batch before any row is processed.
var requiredColumns = []string{"building_name", "sale_price", "sale_date"}

// saleDateLayouts are tried in order for each row's sale_date
var saleDateLayouts = []string{
	"2006-01-02", // ISO
	"01/02/2006", // US slash
	"02/01/2006", // day-first slash
	"01-02-2006", // US dash
}

// ImportResult summarizes a CSV import batch
type ImportResult struct {
	Success   bool     `json:"success"`
	TotalRows int      `json:"total_rows"`
	Imported  int      `json:"imported"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors"`
}

// ImportCSV imports historical sales from CSV content. Each row is validated
// and persisted independently: a bad row is recorded as an error and skipped
// without affecting any other row. Row numbers in errors count the header as
// row 1.
func (s *Service) ImportCSV(csvContent string) *ImportResult {
	result := &ImportResult{Success: true, Errors: []string{}}

	reader := csv.NewReader(strings.NewReader(csvContent))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		result.Success = false
		result.Errors = append(result.Errors, "CSV has no headers")
		return result
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, required := range requiredColumns {
		if _, ok := columns[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		result.Success = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("Missing required columns: %s", strings.Join(missing, ", ")))
		return result
	}

	// Header is row 1; data rows start at 2
	for rowNum := 2; ; rowNum++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.TotalRows++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			result.Skipped++
			continue
		}

		result.TotalRows++

		field := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		rawPrice := field("sale_price")
		priceStr := strings.NewReplacer(",", "", "$", "").Replace(rawPrice)
		salePrice, err := strconv.ParseFloat(priceStr, 64)
		if err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Row %d: Invalid sale_price '%s'", rowNum, rawPrice))
			result.Skipped++
			continue
		}

		rawDate := field("sale_date")
		saleDate, ok := parseSaleDate(rawDate)
		if !ok {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Row %d: Invalid date format '%s'", rowNum, rawDate))
			result.Skipped++
			continue
		}

		rec := SaleRecord{
			BuildingName: field("building_name"),
			Address:      field("address"),
			Neighborhood: field("neighborhood"),
			UnitNumber:   field("unit_number"),
			SalePrice:    salePrice,
			SaleDate:     saleDate,
			Bedrooms:     parseOptionalInt(field("bedrooms")),
			Bathrooms:    parseOptionalFloat(field("bathrooms")),
			SquareFeet:   parseOptionalInt(field("square_feet")),
			PropertyType: field("property_type"),
			DaysOnMarket: parseOptionalInt(field("days_on_market")),
			Notes:        field("notes"),
			DataSource:   models.DataSourceCSV,
		}

		if _, err := s.CreateSale(rec); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			result.Skipped++
			continue
		}

		result.Imported++
	}

	logger.Info("CSV import finished",
		zap.Int("total_rows", result.TotalRows),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped))

	return result
}

// parseSaleDate tries the accepted date layouts in order
func parseSaleDate(value string) (time.Time, bool) {
	for _, layout := range saleDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseOptionalInt parses an integer field, tolerating decimal notation.
// Blank or unparseable values yield nil.
func parseOptionalInt(value string) *int {
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	n := int(f)
	return &n
}

// parseOptionalFloat parses a float field; blank or unparseable yields nil
func parseOptionalFloat(value string) *float64 {
	if value == "" {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &f
}
