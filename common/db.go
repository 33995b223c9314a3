package common

import (
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectDb opens the sqlite file at path. It returns nil when path is empty
// or the database cannot be opened.
func ConnectDb(path string) *gorm.DB {
	if path == "" {
		zap.S().Warn("sqlite path not set")
		return nil
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		zap.S().Errorf("error opening sqlite db %s: %v", path, err)
		return nil
	}
	zap.S().Infof("opened sqlite db at: %s", path)
	return db
}

// ConnectAnalyticsDb opens the separate analytics database. Analytics is
// disabled when it is not configured.
func ConnectAnalyticsDb(path string) *gorm.DB {
	if path == "" {
		zap.S().Info("analytics_db not set - analytics will be disabled")
		return nil
	}
	return ConnectDb(path)
}
