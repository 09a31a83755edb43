package db

import (
	"errors"
	"fmt"

	"github.com/shortsforge/ShortsForgeGuard/internal/models"
	"gorm.io/gorm"
)

// Migrate runs database migrations for the current dialect.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	if errAutoMigrate := conn.AutoMigrate(
		&models.Admin{},
		&models.Plan{},
		&models.User{},
		&models.Setting{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}
	return ensureDefaultPlans(conn)
}

// ensureDefaultPlans seeds one plan per paid tier when the table is empty.
func ensureDefaultPlans(conn *gorm.DB) error {
	var count int64
	if errCount := conn.Model(&models.Plan{}).Count(&count).Error; errCount != nil {
		return fmt.Errorf("db: count plans: %w", errCount)
	}
	if count > 0 {
		return nil
	}
	seed := []models.Plan{
		{Name: "Premium", Tier: "premium", SortOrder: 1, IsEnabled: true, LimitOverrides: []byte(`{}`)},
		{Name: "Pro", Tier: "pro", SortOrder: 2, IsEnabled: true, LimitOverrides: []byte(`{}`)},
	}
	for i := range seed {
		if errCreate := conn.Create(&seed[i]).Error; errCreate != nil {
			if errors.Is(errCreate, gorm.ErrDuplicatedKey) {
				continue
			}
			return fmt.Errorf("db: seed plan %s: %w", seed[i].Name, errCreate)
		}
	}
	return nil
}
