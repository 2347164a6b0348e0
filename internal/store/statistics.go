package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"minihost-license/internal/model"
)

// Statistics aggregates license totals and the validation traffic
// recorded between from and to.
func (s *GormStore) Statistics(ctx context.Context, from, to time.Time) (model.LicenseStatistics, error) {
	db := s.db.WithContext(ctx)
	stats := model.LicenseStatistics{
		From:            from,
		To:              to,
		ChecksByMessage: make(map[string]int64),
		DailyUsage:      make([]model.DailyUsage, 0),
	}

	// license totals
	if err := db.Model(&model.License{}).Count(&stats.TotalLicenses).Error; err != nil {
		return stats, storageErr("count licenses", err)
	}
	if err := db.Model(&model.License{}).Where("status = ?", model.StatusActive).Count(&stats.ActiveLicenses).Error; err != nil {
		return stats, storageErr("count active licenses", err)
	}
	if err := db.Model(&model.License{}).Where("status = ?", model.StatusRevoked).Count(&stats.RevokedLicenses).Error; err != nil {
		return stats, storageErr("count revoked licenses", err)
	}
	if err := db.Model(&model.Activation{}).Count(&stats.TotalActivations).Error; err != nil {
		return stats, storageErr("count activations", err)
	}

	// validation traffic in the window
	window := db.Model(&model.ValidationLog{}).Where("created_at BETWEEN ? AND ?", from, to)
	if err := window.Session(&gorm.Session{}).Count(&stats.TotalChecks).Error; err != nil {
		return stats, storageErr("count checks", err)
	}
	if err := window.Session(&gorm.Session{}).Where("valid = ?", false).Count(&stats.FailedChecks).Error; err != nil {
		return stats, storageErr("count failed checks", err)
	}

	var byMessage []struct {
		Message string
		Count   int64
	}
	if err := window.Session(&gorm.Session{}).
		Select("message, count(*) as count").
		Group("message").
		Scan(&byMessage).Error; err != nil {
		return stats, storageErr("group checks by message", err)
	}
	for _, m := range byMessage {
		stats.ChecksByMessage[m.Message] = m.Count
	}

	day := dayExpr(s.db)
	if err := window.Session(&gorm.Session{}).
		Select(day + " as date, COUNT(*) as total_checks, " +
			"SUM(CASE WHEN valid THEN 1 ELSE 0 END) as valid_checks, " +
			"COUNT(DISTINCT license_key) as distinct_keys").
		Group(day).
		Order("date ASC").
		Scan(&stats.DailyUsage).Error; err != nil {
		return stats, storageErr("daily usage", err)
	}
	return stats, nil
}

// dayExpr renders created_at as YYYY-MM-DD text.
func dayExpr(db *gorm.DB) string {
	if db.Dialector.Name() == "postgres" {
		return "TO_CHAR(created_at, 'YYYY-MM-DD')"
	}
	return "DATE(created_at)"
}
