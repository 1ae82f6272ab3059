package auth

import (
	"strings"

	"tableserve-backend/internal/apperr"
	"tableserve-backend/internal/httpx"
	"tableserve-backend/internal/models"
	"tableserve-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type LoginRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// POST /api/auth/login
func LoginHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body LoginRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		body.Username = strings.TrimSpace(body.Username)

		result, err := svc.Login(body.Username, body.Password)
		if err != nil {
			return err
		}
		return httpx.Success(c, fiber.StatusOK, result)
	}
}

// POST /api/auth/refresh
func RefreshHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RefreshRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}

		accessToken, err := svc.Refresh(body.RefreshToken)
		if err != nil {
			return err
		}
		return httpx.Success(c, fiber.StatusOK, fiber.Map{"access_token": accessToken})
	}
}

// POST /api/auth/logout
func LogoutHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RefreshRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		if err := svc.Logout(body.RefreshToken); err != nil {
			return err
		}
		return httpx.Message(c, fiber.StatusOK, "logged out")
	}
}

// GET /api/auth/me
func MeHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals(CtxUserIDKey).(uint)
		if !ok {
			return apperr.Unauthorized("missing user claim")
		}

		var user models.User
		if err := db.First(&user, userID).Error; err != nil {
			return apperr.NotFound("user not found")
		}
		return httpx.Success(c, fiber.StatusOK, ToUserDTO(&user))
	}
}
