package model

import "time"

// License statuses.
const (
	StatusActive  = "active"
	StatusRevoked = "revoked"
)

type License struct {
	Key            string    `json:"license_key" gorm:"primaryKey"`
	Status         string    `json:"status" gorm:"not null;default:active"`
	MaxActivations int       `json:"max_activations" gorm:"not null;default:1"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// IsActive reports whether validation may record activations against l.
func (l License) IsActive() bool {
	return l.Status == StatusActive
}

// Activation binds a license to one machine. The pair is unique.
type Activation struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	LicenseKey string    `json:"license_key" gorm:"not null;uniqueIndex:idx_activation_license_machine"`
	MachineID  string    `json:"machine_id" gorm:"not null;uniqueIndex:idx_activation_license_machine"`
	CreatedAt  time.Time `json:"created_at"`
}

// LicenseSummary is a license together with its recorded activation count.
type LicenseSummary struct {
	License
	Activations int64 `json:"activations"`
}
