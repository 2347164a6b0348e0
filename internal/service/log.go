package service

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"minihost-license/internal/model"
)

// AuditLog writes the admin operation log and the validation log.
type AuditLog struct {
	db *gorm.DB
}

func NewAuditLog(db *gorm.DB) *AuditLog {
	return &AuditLog{db: db}
}

// LogOperation records an admin action against target.
func (a *AuditLog) LogOperation(ctx context.Context, action, target, result, ip string, details interface{}) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return err
	}

	entry := &model.OperationLog{
		Action:    action,
		Target:    target,
		Result:    result,
		IPAddress: ip,
		Details:   string(detailsJSON),
		CreatedAt: time.Now(),
	}
	return a.db.WithContext(ctx).Create(entry).Error
}

// LogValidation records one validate call.
func (a *AuditLog) LogValidation(ctx context.Context, key, machineID string, res Result, ip, userAgent string) error {
	entry := &model.ValidationLog{
		LicenseKey: key,
		MachineID:  machineID,
		Valid:      res.Valid,
		Message:    res.Message,
		IPAddress:  ip,
		UserAgent:  userAgent,
		CreatedAt:  time.Now(),
	}
	return a.db.WithContext(ctx).Create(entry).Error
}

// GetOperationLogs returns one page of the operation log, newest first.
func (a *AuditLog) GetOperationLogs(ctx context.Context, page, pageSize int) ([]model.OperationLog, int64, error) {
	var logs []model.OperationLog
	var total int64

	db := a.db.WithContext(ctx)

	// total
	if err := db.Model(&model.OperationLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// page
	offset := (page - 1) * pageSize
	if err := db.Order("created_at DESC, id DESC").Offset(offset).Limit(pageSize).Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

// GetValidationLogs returns the most recent validations of key.
func (a *AuditLog) GetValidationLogs(ctx context.Context, key string, limit int) ([]model.ValidationLog, error) {
	var logs []model.ValidationLog
	err := a.db.WithContext(ctx).
		Where("license_key = ?", key).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
