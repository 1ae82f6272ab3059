package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Category struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;not null;unique"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Menus []Menu
}

type Menu struct {
	ID            uint            `gorm:"primaryKey"`
	NameTH        string          `gorm:"size:150;not null"`
	// EN-name uniqueness is enforced in the handlers over non-deleted rows
	// only; a column-level unique index would also cover soft-deleted rows
	// and block re-adding a removed dish.
	NameEN        string          `gorm:"size:150;not null;index"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CategoryID    uint            `gorm:"not null;index"`
	Category      Category
	Description   string `gorm:"type:text"`
	ImageURL      string `gorm:"size:500"`
	IsRecommended bool   `gorm:"not null;default:false"`
	IsAvailable   bool   `gorm:"not null;default:true"`
	IsVisible     bool   `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}
