package auth

import (
	"errors"
	"time"

	"tableserve-backend/internal/apperr"
	"tableserve-backend/internal/config"
	"tableserve-backend/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserDTO struct {
	ID       uint            `json:"id"`
	Username string          `json:"username"`
	Role     models.UserRole `json:"role"`
}

func ToUserDTO(u *models.User) UserDTO {
	return UserDTO{ID: u.ID, Username: u.Username, Role: u.Role}
}

type LoginResult struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	User         UserDTO `json:"user"`
}

type Service struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{db: db, cfg: cfg}
}

// Login authenticates by username/password. Unknown username and wrong
// password both return the same generic unauthorized error.
func (s *Service) Login(username, password string) (*LoginResult, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized("invalid credentials")
		}
		return nil, apperr.Internal("login failed", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.Unauthorized("invalid credentials")
	}

	accessToken, err := GenerateAccessToken(s.cfg.JWTSecret, s.cfg.AccessTokenTTL, &user)
	if err != nil {
		return nil, apperr.Internal("token generation failed", err)
	}

	refresh := models.RefreshToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.cfg.RefreshTokenTTL),
	}
	if err := s.db.Create(&refresh).Error; err != nil {
		return nil, apperr.Internal("refresh token persist failed", err)
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refresh.Token,
		User:         ToUserDTO(&user),
	}, nil
}

// Refresh validates the stored refresh token and mints a new access token.
// Expired tokens are removed as soon as they are seen.
func (s *Service) Refresh(token string) (string, error) {
	var stored models.RefreshToken
	if err := s.db.Preload("User").Where("token = ?", token).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperr.Unauthorized("invalid refresh token")
		}
		return "", apperr.Internal("refresh lookup failed", err)
	}

	if time.Now().After(stored.ExpiresAt) {
		s.db.Delete(&models.RefreshToken{}, "token = ?", token)
		return "", apperr.Unauthorized("refresh token expired")
	}

	accessToken, err := GenerateAccessToken(s.cfg.JWTSecret, s.cfg.AccessTokenTTL, &stored.User)
	if err != nil {
		return "", apperr.Internal("token generation failed", err)
	}
	return accessToken, nil
}

// Logout revokes the stored refresh token. Unknown tokens are a no-op.
func (s *Service) Logout(token string) error {
	if err := s.db.Delete(&models.RefreshToken{}, "token = ?", token).Error; err != nil {
		return apperr.Internal("logout failed", err)
	}
	return nil
}

// IsStaffToken backs the websocket handshake: any valid token for an
// ADMIN, STAFF or KITCHEN user grants the staff room.
func (s *Service) IsStaffToken(token string) bool {
	claims, err := ParseToken(s.cfg.JWTSecret, token)
	if err != nil {
		return false
	}
	return claims.Role.Valid()
}
