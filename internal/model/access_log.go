package model

import (
	"time"
)

// Access log actions and outcomes
const (
	ActionOpenGate = "OPEN_GATE"

	AccessStatusSuccess         = "SUCCESS"
	AccessStatusDeniedNoPayment = "DENIED_NO_PAYMENT"
)

// AccessLog is an append-only record of gate-open attempts. Rows are never
// updated or deleted.
type AccessLog struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"type:varchar(64);index"`
	Action    string    `json:"action" gorm:"type:varchar(30)"`
	Status    string    `json:"status" gorm:"type:varchar(30)"`
	CreatedAt time.Time `json:"created_at"`
}
