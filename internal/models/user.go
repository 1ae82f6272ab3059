package models

import "time"

type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleStaff   UserRole = "STAFF"
	RoleKitchen UserRole = "KITCHEN"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleKitchen:
		return true
	}
	return false
}

type User struct {
	ID           uint     `gorm:"primaryKey"`
	Username     string   `gorm:"size:50;uniqueIndex;not null"`
	PasswordHash string   `gorm:"size:255;not null"`
	Role         UserRole `gorm:"size:20;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	RefreshTokens []RefreshToken
}

type RefreshToken struct {
	Token     string `gorm:"size:64;primaryKey"`
	UserID    uint   `gorm:"not null;index"`
	User      User
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
}
