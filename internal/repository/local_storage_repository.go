// internal/repository/local_storage_repository.go
//go:generate mockery --name LocalStorageRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"

	"vjezbajmo/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LocalStorageRepository is a device-scoped key-value store. It backs progress
// of anonymous devices, one document per key.
type LocalStorageRepository interface {
	Get(ctx context.Context, db *gorm.DB, deviceID, key string) (string, error)
	Put(ctx context.Context, db *gorm.DB, deviceID, key, value string) error
	Delete(ctx context.Context, db *gorm.DB, deviceID, key string) error
}

type gormLocalStorageRepository struct{}

func NewGormLocalStorageRepository() LocalStorageRepository {
	return &gormLocalStorageRepository{}
}

func (r *gormLocalStorageRepository) Get(ctx context.Context, db *gorm.DB, deviceID, key string) (string, error) {
	var item model.LocalStorageItem
	result := db.WithContext(ctx).Where("device_id = ? AND key = ?", deviceID, key).First(&item)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", model.ErrNotFound
		}
		return "", fmt.Errorf("gormLocalStorageRepository.Get: %w", result.Error)
	}
	return item.Value, nil
}

func (r *gormLocalStorageRepository) Put(ctx context.Context, db *gorm.DB, deviceID, key, value string) error {
	item := model.LocalStorageItem{DeviceID: deviceID, Key: key, Value: value}
	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "device_id"}, {Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&item)
	if result.Error != nil {
		return fmt.Errorf("gormLocalStorageRepository.Put: %w", result.Error)
	}
	return nil
}

func (r *gormLocalStorageRepository) Delete(ctx context.Context, db *gorm.DB, deviceID, key string) error {
	result := db.WithContext(ctx).
		Where("device_id = ? AND key = ?", deviceID, key).
		Delete(&model.LocalStorageItem{})
	if result.Error != nil {
		return fmt.Errorf("gormLocalStorageRepository.Delete: %w", result.Error)
	}
	return nil
}
