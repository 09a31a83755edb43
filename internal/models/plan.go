package models

import (
	"time"

	"gorm.io/datatypes"
)

// Plan represents a subscription plan configuration.
type Plan struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name        string  `gorm:"type:varchar(255);not null"`            // Plan name.
	Tier        string  `gorm:"type:text;not null;default:'free'"`     // Tier granted by the plan.
	MonthPrice  float64 `gorm:"type:decimal(10,2);not null;default:0"` // Monthly price.
	Description string  `gorm:"type:text"`                             // Plan description.

	LimitOverrides datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"` // Optional per-category limit overrides.

	SortOrder int  `gorm:"not null;default:0"`     // Display ordering weight.
	IsEnabled bool `gorm:"not null;default:true"`  // Whether the plan is active.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
