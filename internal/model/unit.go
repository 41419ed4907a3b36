package model

import (
	"time"
)

// Unit occupancy states
const (
	UnitStatusVacant   = "vacant"
	UnitStatusOccupied = "occupied"
)

// Unit represents a rentable storage container. PriceMonthly is stored in
// the smallest currency unit (grosze), matching what the payment processor
// reports.
type Unit struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"type:varchar(100)"`
	PriceMonthly int64     `json:"price_monthly"`
	Status       string    `json:"status" gorm:"type:varchar(20);default:vacant"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
