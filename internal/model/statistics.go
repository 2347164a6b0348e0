package model

import "time"

// DailyUsage is one day of validation traffic.
type DailyUsage struct {
	Date         string `json:"date"`
	TotalChecks  int    `json:"total_checks"`
	ValidChecks  int    `json:"valid_checks"`
	DistinctKeys int    `json:"distinct_keys"`
}

// LicenseStatistics aggregates license and validation counters.
type LicenseStatistics struct {
	From             time.Time        `json:"from"`
	To               time.Time        `json:"to"`
	TotalLicenses    int64            `json:"total_licenses"`
	ActiveLicenses   int64            `json:"active_licenses"`
	RevokedLicenses  int64            `json:"revoked_licenses"`
	TotalActivations int64            `json:"total_activations"`
	TotalChecks      int64            `json:"total_checks"`
	FailedChecks     int64            `json:"failed_checks"`
	ChecksByMessage  map[string]int64 `json:"checks_by_message"`
	DailyUsage       []DailyUsage     `json:"daily_usage"`
}

// GetSuccessRate returns the share of validations in the window that passed.
func (ls *LicenseStatistics) GetSuccessRate() float64 {
	if ls.TotalChecks == 0 {
		return 0
	}
	return float64(ls.TotalChecks-ls.FailedChecks) / float64(ls.TotalChecks)
}

// GetChecksByMessage returns how many validations ended with message.
func (ls *LicenseStatistics) GetChecksByMessage(message string) int64 {
	if count, ok := ls.ChecksByMessage[message]; ok {
		return count
	}
	return 0
}

// GetDailyUsageByDate returns the bucket for date, or nil.
func (ls *LicenseStatistics) GetDailyUsageByDate(date time.Time) *DailyUsage {
	day := date.Format("2006-01-02")
	for i := range ls.DailyUsage {
		if ls.DailyUsage[i].Date == day {
			return &ls.DailyUsage[i]
		}
	}
	return nil
}
