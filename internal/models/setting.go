package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Setting is the single-row store profile shown on receipts and the customer UI.
type Setting struct {
	ID                uint            `gorm:"primaryKey"`
	StoreName         string          `gorm:"size:150;not null"`
	Address           string          `gorm:"size:255"`
	Phone             string          `gorm:"size:30"`
	TaxID             string          `gorm:"size:30"`
	PromptPayID       string          `gorm:"size:30"`
	ServiceChargeRate decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	UpdatedAt         time.Time
}
