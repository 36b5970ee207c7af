package model

import "time"

// LocalStorageItem is one key of a device's private key-value store.
type LocalStorageItem struct {
	DeviceID  string    `gorm:"type:varchar(128);primaryKey"`
	Key       string    `gorm:"type:varchar(255);primaryKey"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (LocalStorageItem) TableName() string {
	return "local_storage"
}
