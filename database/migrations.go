package database

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cookiq/account"
	"cookiq/models"
)

func RunMigrations(db *gorm.DB) error {
	zap.S().Info("Running database migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.BlogPost{},
		&models.Comment{},
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		zap.S().Errorf("Error running migrations: %v", err)
		return err
	}

	zap.S().Info("Migrations completed successfully")
	return nil
}

// SeedAdmin makes sure an ADMIN account exists for email. An existing account
// whose stored password is not a bcrypt hash gets it re-hashed.
func SeedAdmin(db *gorm.DB, email, password string) error {
	if email == "" || password == "" {
		zap.S().Warn("admin credentials not set, skipping admin seed")
		return nil
	}

	var admin models.User
	err := db.Where("email = ?", email).First(&admin).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, err := account.HashPassword(password)
		if err != nil {
			return err
		}
		admin = models.User{
			ID:           uuid.NewString(),
			FullName:     "Administrator",
			Email:        email,
			PasswordHash: hash,
			Roles:        models.RoleAdmin,
			CreatedAt:    time.Now(),
		}
		if err := db.Create(&admin).Error; err != nil {
			return err
		}
		zap.L().Info("admin account created", zap.String("email", email))
		return nil
	case err != nil:
		return err
	}

	if strings.HasPrefix(admin.PasswordHash, "$2a$") {
		return nil
	}
	hash, err := account.HashPassword(password)
	if err != nil {
		return err
	}
	zap.L().Warn("admin password re-hashed", zap.String("email", email))
	return db.Model(&admin).Updates(map[string]interface{}{
		"password_hash": hash,
		"roles":         models.RoleAdmin,
	}).Error
}
