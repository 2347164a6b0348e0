package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLicenseStatisticsHelpers(t *testing.T) {
	stats := &LicenseStatistics{
		TotalChecks:     4,
		FailedChecks:    1,
		ChecksByMessage: map[string]int64{"license active": 3, "license revoked": 1},
		DailyUsage:      []DailyUsage{{Date: "2026-10-01", TotalChecks: 4}},
	}

	assert.InDelta(t, 0.75, stats.GetSuccessRate(), 0.0001)
	assert.Equal(t, int64(3), stats.GetChecksByMessage("license active"))
	assert.Equal(t, int64(0), stats.GetChecksByMessage("license not found"))

	day := stats.GetDailyUsageByDate(time.Date(2026, 10, 1, 15, 0, 0, 0, time.UTC))
	if assert.NotNil(t, day) {
		assert.Equal(t, 4, day.TotalChecks)
	}
	assert.Nil(t, stats.GetDailyUsageByDate(time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC)))
}

func TestSuccessRateWithoutChecks(t *testing.T) {
	assert.Zero(t, (&LicenseStatistics{}).GetSuccessRate())
}

func TestLicenseIsActive(t *testing.T) {
	assert.True(t, License{Status: StatusActive}.IsActive())
	assert.False(t, License{Status: StatusRevoked}.IsActive())
}
