// Package store persists licenses and their activations.
package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"minihost-license/internal/model"
)

// Store is the license persistence contract used by the license service.
type Store interface {
	UpsertLicense(ctx context.Context, key string, maxActivations int) error
	RevokeLicense(ctx context.Context, key string) error
	GetLicense(ctx context.Context, key string) (model.License, error)
	RecordActivationIfNew(ctx context.Context, key, machineID string) (bool, error)
	CountActivations(ctx context.Context, key string) (int64, error)
}

// Ledger serializes work on a single license key.
type Ledger interface {
	Store
	// Atomic runs fn as one unit of work for key. fn must only use the
	// Store it is given and must not call Atomic itself.
	Atomic(ctx context.Context, key string, fn func(Store) error) error
}

// GormStore implements Ledger on top of gorm.
type GormStore struct {
	db    *gorm.DB
	locks *keyLocks
	now   func() time.Time
}

// New returns a store backed by db. The schema must already be migrated.
func New(db *gorm.DB) *GormStore {
	return &GormStore{
		db:    db,
		locks: newKeyLocks(),
		now:   time.Now,
	}
}

// Atomic holds the in-process lock for key, opens a transaction and takes
// a row lock on the license (Postgres; sqlite already serializes writers)
// before handing a transaction-bound store to fn. Other keys are not blocked
// by the in-process lock.
func (s *GormStore) Atomic(ctx context.Context, key string, fn func(Store) error) error {
	release := s.locks.lock(key)
	defer release()

	var fnErr error
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked []model.License
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("key = ?", key).Limit(1).Find(&locked).Error; err != nil {
			return storageErr("lock license", err)
		}
		fnErr = fn(&GormStore{db: tx, locks: s.locks, now: s.now})
		return fnErr
	})
	if err != nil && fnErr == nil {
		// begin or commit failed
		return storageErr("transaction", err)
	}
	return err
}

// UpsertLicense creates key as active or, when it exists, overwrites the
// ceiling and forces it back to active. created_at is preserved.
func (s *GormStore) UpsertLicense(ctx context.Context, key string, maxActivations int) error {
	now := s.now()
	license := model.License{
		Key:            key,
		Status:         model.StatusActive,
		MaxActivations: maxActivations,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":          model.StatusActive,
			"max_activations": maxActivations,
			"updated_at":      now,
		}),
	}).Create(&license).Error
	return storageErr("upsert license", err)
}

// RevokeLicense marks key revoked. Unknown keys are ignored.
func (s *GormStore) RevokeLicense(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).Model(&model.License{}).
		Where("key = ?", key).
		Updates(map[string]interface{}{
			"status":     model.StatusRevoked,
			"updated_at": s.now(),
		}).Error
	return storageErr("revoke license", err)
}

func (s *GormStore) GetLicense(ctx context.Context, key string) (model.License, error) {
	var license model.License
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&license).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.License{}, ErrNotFound
	}
	if err != nil {
		return model.License{}, storageErr("get license", err)
	}
	return license, nil
}

// RecordActivationIfNew inserts (key, machineID) unless it is already
// recorded and reports whether a row was created.
func (s *GormStore) RecordActivationIfNew(ctx context.Context, key, machineID string) (bool, error) {
	activation := model.Activation{
		LicenseKey: key,
		MachineID:  machineID,
		CreatedAt:  s.now(),
	}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&activation)
	if result.Error != nil {
		return false, storageErr("record activation", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (s *GormStore) CountActivations(ctx context.Context, key string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Activation{}).
		Where("license_key = ?", key).
		Count(&count).Error
	if err != nil {
		return 0, storageErr("count activations", err)
	}
	return count, nil
}

// ListActivations returns the activations of key, oldest first.
func (s *GormStore) ListActivations(ctx context.Context, key string) ([]model.Activation, error) {
	var activations []model.Activation
	err := s.db.WithContext(ctx).
		Where("license_key = ?", key).
		Order("created_at ASC, id ASC").
		Find(&activations).Error
	if err != nil {
		return nil, storageErr("list activations", err)
	}
	return activations, nil
}

// ListLicenses returns every license with its activation count.
func (s *GormStore) ListLicenses(ctx context.Context) ([]model.LicenseSummary, error) {
	var licenses []model.License
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&licenses).Error; err != nil {
		return nil, storageErr("list licenses", err)
	}

	var counts []struct {
		LicenseKey string
		Count      int64
	}
	if err := s.db.WithContext(ctx).Model(&model.Activation{}).
		Select("license_key, count(*) as count").
		Group("license_key").
		Scan(&counts).Error; err != nil {
		return nil, storageErr("count activations", err)
	}
	byKey := make(map[string]int64, len(counts))
	for _, c := range counts {
		byKey[c.LicenseKey] = c.Count
	}

	out := make([]model.LicenseSummary, 0, len(licenses))
	for _, l := range licenses {
		out = append(out, model.LicenseSummary{License: l, Activations: byKey[l.Key]})
	}
	return out, nil
}
