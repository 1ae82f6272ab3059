package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BillStatus string

const (
	BillOpen      BillStatus = "OPEN"
	BillPaid      BillStatus = "PAID"
	BillCancelled BillStatus = "CANCELLED"
)

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "CASH"
	PaymentQR       PaymentMethod = "QR"
	PaymentTransfer PaymentMethod = "TRANSFER"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentQR, PaymentTransfer:
		return true
	}
	return false
}

type Bill struct {
	ID            string `gorm:"size:36;primaryKey"`
	TableID       uint   `gorm:"not null;index"`
	Table         Table
	TotalPrice    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	PaymentMethod PaymentMethod   `gorm:"size:20"`
	Status        BillStatus      `gorm:"size:20;not null;default:'OPEN';index"`
	ClosedAt      *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Orders []Order
}

func (b *Bill) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}
