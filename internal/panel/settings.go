package panel

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"minihost-license/internal/model"
)

// Setting keys used by the license gate.
const (
	SettingLicenseServerURL = "license_server_url"
	SettingLicenseKey       = "license_key"
)

// Settings is the panel's key/value settings table.
type Settings struct {
	db *gorm.DB
}

func NewSettings(db *gorm.DB) *Settings {
	return &Settings{db: db}
}

// Get returns the stored value and whether the key exists.
func (s *Settings) Get(ctx context.Context, key string) (string, bool, error) {
	var setting model.Setting
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return setting.Value, true, nil
}

// Set creates or replaces a setting.
func (s *Settings) Set(ctx context.Context, key, value string) error {
	setting := model.Setting{Key: key, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// SetLicense stores the license server URL and key in one transaction.
func (s *Settings) SetLicense(ctx context.Context, serverURL, licenseKey string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txs := &Settings{db: tx}
		if err := txs.Set(ctx, SettingLicenseServerURL, serverURL); err != nil {
			return err
		}
		return txs.Set(ctx, SettingLicenseKey, licenseKey)
	})
}
