package models

import "time"

// User represents an end-user account stored in the database.
type User struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Username string `gorm:"type:text;not null;uniqueIndex"` // Unique login name.
	Email    string `gorm:"type:text;uniqueIndex"`          // Email address.

	PlanID *uint64 `gorm:"index"`             // Active plan ID.
	Plan   *Plan   `gorm:"foreignKey:PlanID"` // Active plan.

	Tier               string     `gorm:"type:text;not null;default:'free'"` // Subscription tier name.
	SubscriptionEndsAt *time.Time `gorm:"index"`                             // Paid tier expiry; nil for free.

	Active   bool `gorm:"not null;default:true"`  // Whether the user can submit work.
	Disabled bool `gorm:"not null;default:false"` // Explicit disable flag.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
