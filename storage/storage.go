// Package storage is the storefront's durable key-value store. It survives
// restarts and only ever holds the bearer credential and the cached user
// record.
package storage

import (
	"errors"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Fixed keys.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

type Setting struct {
	Key   string `gorm:"column:name;primary_key"`
	Value string `gorm:"type:text"`
}

type Storage struct {
	db *gorm.DB
}

// Open opens (or creates) the sqlite file at path.
func Open(path string) (*Storage, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// single writer, and keeps ":memory:" databases on one connection
	sqlDB.SetMaxOpenConns(1)
	return New(db)
}

// New wraps an existing gorm handle.
func New(db *gorm.DB) (*Storage, error) {
	if err := db.AutoMigrate(&Setting{}); err != nil {
		return nil, err
	}
	return &Storage{db: db}, nil
}

func (s *Storage) Get(key string) (string, bool) {
	var setting Setting
	err := s.db.Where("name = ?", key).First(&setting).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			zap.L().Warn("storage read failed", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	return setting.Value, true
}

func (s *Storage) Set(key, value string) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&Setting{Key: key, Value: value}).Error
}

func (s *Storage) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.db.Where("name IN ?", keys).Delete(&Setting{}).Error
}

func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
