package app

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shortsforge/ShortsForgeGuard/internal/models"
	"github.com/shortsforge/ShortsForgeGuard/internal/security"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if errMigrate := db.AutoMigrate(&models.Admin{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return db
}

func TestHasAdminInitialized(t *testing.T) {
	db := openTestDB(t)

	initialized, err := HasAdminInitialized(db)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if initialized {
		t.Fatalf("expected empty table to report uninitialized")
	}

	if errCreate := CreateAdminUserWithConn(db, "root", "hunter22"); errCreate != nil {
		t.Fatalf("create admin: %v", errCreate)
	}
	initialized, err = HasAdminInitialized(db)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !initialized {
		t.Fatalf("expected initialized after admin creation")
	}
}

func TestCreateAdminUserValidation(t *testing.T) {
	db := openTestDB(t)

	if errCreate := CreateAdminUserWithConn(db, "", "hunter22"); errCreate == nil {
		t.Fatalf("expected error for empty username")
	}
	if errCreate := CreateAdminUserWithConn(db, "root", "short"); errCreate == nil {
		t.Fatalf("expected error for short password")
	}
}

func TestEnsureDefaultAdminFromEnv(t *testing.T) {
	db := openTestDB(t)
	t.Setenv(EnvAdminUsername, "seeded-admin")
	t.Setenv(EnvAdminPassword, "hunter22")

	if errEnsure := EnsureDefaultAdmin(db); errEnsure != nil {
		t.Fatalf("ensure default admin: %v", errEnsure)
	}

	var admin models.Admin
	if errFind := db.Where("username = ?", "seeded-admin").First(&admin).Error; errFind != nil {
		t.Fatalf("find seeded admin: %v", errFind)
	}
	if !admin.Active {
		t.Fatalf("expected seeded admin active")
	}
	if !security.CheckPassword(admin.Password, "hunter22") {
		t.Fatalf("expected stored hash to verify")
	}

	// second run is a no-op, it must not duplicate the account
	if errEnsure := EnsureDefaultAdmin(db); errEnsure != nil {
		t.Fatalf("ensure default admin again: %v", errEnsure)
	}
	var count int64
	if errCount := db.Model(&models.Admin{}).Count(&count).Error; errCount != nil {
		t.Fatalf("count admins: %v", errCount)
	}
	if count != 1 {
		t.Fatalf("expected 1 admin, got %d", count)
	}
}

func TestEnsureDefaultAdminWithoutEnvIsNoop(t *testing.T) {
	db := openTestDB(t)
	t.Setenv(EnvAdminUsername, "")
	t.Setenv(EnvAdminPassword, "")

	if errEnsure := EnsureDefaultAdmin(db); errEnsure != nil {
		t.Fatalf("expected no error, got %v", errEnsure)
	}
	initialized, err := HasAdminInitialized(db)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if initialized {
		t.Fatalf("expected no admin seeded without env vars")
	}
}
