package models

import "time"

type Table struct {
	ID             uint   `gorm:"primaryKey"`
	Name           string `gorm:"size:50;not null;unique"`
	QRCode         string `gorm:"size:255"`
	IsOccupied     bool   `gorm:"not null;default:false"`
	IsAvailable    bool   `gorm:"not null;default:true"`
	IsCallingStaff bool   `gorm:"not null;default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
