package buildings

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"condo-tracker/internal/models"
)

// Resolver resolves a (name, address, neighborhood) tuple to a canonical
// building id, creating the building on first sighting. Buildings are
// deduplicated by name first, then address; the resolver never edits an
// existing building.
type Resolver struct {
	db *gorm.DB
}

// NewResolver creates a new building resolver
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// Resolve resolves against the resolver's own connection.
func (r *Resolver) Resolve(name, address, neighborhood string) (*uint, error) {
	return r.ResolveTx(r.db, name, address, neighborhood)
}

// ResolveTx resolves within the caller's transaction. Returns nil (and no
// error) when both name and address are absent: no building can be
// associated.
func (r *Resolver) ResolveTx(tx *gorm.DB, name, address, neighborhood string) (*uint, error) {
	if name == "" && address == "" {
		return nil, nil
	}

	// Try to find existing building by name
	if name != "" {
		var existing models.Building
		err := tx.Select("id").Where("name = ?", name).First(&existing).Error
		if err == nil {
			return &existing.ID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to look up building by name: %w", err)
		}
	}

	// Fall back to address match
	if address != "" {
		var existing models.Building
		err := tx.Select("id").Where("address = ?", address).First(&existing).Error
		if err == nil {
			return &existing.ID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to look up building by address: %w", err)
		}
	}

	// Neighborhood is lookup-only; absence yields a null reference
	var neighborhoodID *uint
	if neighborhood != "" {
		var n models.Neighborhood
		err := tx.Select("id").Where("name = ?", neighborhood).First(&n).Error
		if err == nil {
			neighborhoodID = &n.ID
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to look up neighborhood: %w", err)
		}
	}

	// Name and address default to each other so both are set on create
	buildingAddress := address
	if buildingAddress == "" {
		buildingAddress = name
	}
	buildingName := name
	if buildingName == "" {
		buildingName = buildingAddress
	}

	building := models.Building{
		Name:           buildingName,
		Address:        buildingAddress,
		City:           "Victoria",
		NeighborhoodID: neighborhoodID,
	}

	if err := tx.Create(&building).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a create race on the name unique index; the winner's row
			// is the canonical one.
			var existing models.Building
			if err := tx.Select("id").Where("name = ?", buildingName).First(&existing).Error; err != nil {
				return nil, fmt.Errorf("failed to re-select building after duplicate: %w", err)
			}
			return &existing.ID, nil
		}
		return nil, fmt.Errorf("failed to create building: %w", err)
	}

	return &building.ID, nil
}
