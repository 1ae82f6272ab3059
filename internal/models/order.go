package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderOpen      OrderStatus = "OPEN"
	OrderCompleted OrderStatus = "COMPLETED"
	OrderCancelled OrderStatus = "CANCELLED"
)

type OrderItemStatus string

const (
	ItemPending   OrderItemStatus = "PENDING"
	ItemCooking   OrderItemStatus = "COOKING"
	ItemReady     OrderItemStatus = "READY"
	ItemServed    OrderItemStatus = "SERVED"
	ItemCompleted OrderItemStatus = "COMPLETED"
	ItemCancelled OrderItemStatus = "CANCELLED"
)

func (s OrderItemStatus) Valid() bool {
	switch s {
	case ItemPending, ItemCooking, ItemReady, ItemServed, ItemCompleted, ItemCancelled:
		return true
	}
	return false
}

type Order struct {
	ID         uint `gorm:"primaryKey"`
	TableID    uint `gorm:"not null;index"`
	Table      Table
	BillID     *string         `gorm:"size:36;index"`
	Status     OrderStatus     `gorm:"size:20;not null;default:'OPEN'"`
	TotalPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Items []OrderItem
}

type OrderItem struct {
	ID        uint `gorm:"primaryKey"`
	OrderID   uint `gorm:"not null;index"`
	MenuID    uint `gorm:"not null;index"`
	Menu      Menu
	Quantity  int             `gorm:"not null"`
	Note      string          `gorm:"size:255"`
	Status    OrderItemStatus `gorm:"size:20;not null;default:'PENDING'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
