package model

import "time"

// ValidationLog records one validate call and its outcome.
type ValidationLog struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	LicenseKey string    `json:"license_key" gorm:"index"`
	MachineID  string    `json:"machine_id"`
	Valid      bool      `json:"valid"`
	Message    string    `json:"message"`
	IPAddress  string    `json:"ip_address"`
	UserAgent  string    `json:"user_agent"`
	CreatedAt  time.Time `json:"created_at" gorm:"index"`
}
