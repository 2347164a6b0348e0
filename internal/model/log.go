package model

import "time"

// OperationLog is the audit trail of admin operations.
type OperationLog struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Action    string    `json:"action"`
	Target    string    `json:"target" gorm:"index"`
	Result    string    `json:"result"`
	IPAddress string    `json:"ip_address"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}
