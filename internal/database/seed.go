package database

import (
	"errors"

	"gorm.io/gorm"

	"condo-tracker/internal/models"
)

// victoriaNeighborhoods is the fixed neighborhood list pre-populated at schema
// init. Neighborhoods are lookup-only: the tracker never creates them at
// runtime.
var victoriaNeighborhoods = []models.Neighborhood{
	{Name: "Downtown", City: "Victoria", Description: "Central business district with high-rise condos, shopping, and entertainment"},
	{Name: "Harris Green", City: "Victoria", Description: "Dense residential area just north of downtown, highly walkable"},
	{Name: "Chinatown", City: "Victoria", Description: "Historic district with character buildings and mixed-use developments"},
	{Name: "James Bay", City: "Victoria", Description: "Waterfront neighborhood near Beacon Hill Park and the Inner Harbour"},
	{Name: "Fairfield", City: "Victoria", Description: "Residential neighborhood with Cook Street Village, family-friendly"},
	{Name: "Fernwood", City: "Victoria", Description: "Arts and culture district with character homes and community vibe"},
	{Name: "Victoria West", City: "Victoria", Description: "Formerly industrial area now converted to modern waterfront condos"},
	{Name: "Songhees", City: "Victoria", Description: "Upscale waterfront condo community with marina access"},
	{Name: "Esquimalt", City: "Victoria", Description: "West of downtown, more affordable options, naval base nearby"},
	{Name: "Oak Bay", City: "Victoria", Description: "Upscale residential area, distinct municipality with village center"},
	{Name: "Saanich East", City: "Victoria", Description: "Suburban area east of Victoria, family-oriented with good schools"},
	{Name: "Saanich West", City: "Victoria", Description: "Suburban area near University of Victoria, student housing"},
	{Name: "View Royal", City: "Victoria", Description: "Westshore area with newer developments and nature access"},
	{Name: "Langford", City: "Victoria", Description: "Fast-growing Westshore community with new condo developments"},
	{Name: "Colwood", City: "Victoria", Description: "Westshore area near Royal Roads University, mix of old and new"},
}

// SeedNeighborhoods inserts the fixed neighborhood list, skipping any that
// already exist.
func SeedNeighborhoods(db *gorm.DB) error {
	for _, n := range victoriaNeighborhoods {
		if err := db.Create(&n).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				continue
			}
			return err
		}
	}
	return nil
}
