package user

import (
	"errors"
	"strings"

	"tableserve-backend/internal/apperr"
	"tableserve-backend/internal/auth"
	"tableserve-backend/internal/httpx"
	"tableserve-backend/internal/models"
	"tableserve-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=ADMIN STAFF KITCHEN"`
}

type UpdateUserRequest struct {
	Password *string `json:"password" validate:"omitempty,min=6"`
	Role     *string `json:"role" validate:"omitempty,oneof=ADMIN STAFF KITCHEN"`
}

// GET /api/users
func ListHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var users []models.User
		if err := db.Order("username asc").Find(&users).Error; err != nil {
			return apperr.Internal("failed to list users", err)
		}

		res := make([]auth.UserDTO, 0, len(users))
		for i := range users {
			res = append(res, auth.ToUserDTO(&users[i]))
		}
		return httpx.Success(c, fiber.StatusOK, res)
	}
}

// POST /api/users
func CreateHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateUserRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		body.Username = strings.TrimSpace(body.Username)

		var count int64
		db.Model(&models.User{}).Where("username = ?", body.Username).Count(&count)
		if count > 0 {
			return apperr.Conflict("username already exists")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return apperr.Internal("password hashing failed", err)
		}

		user := models.User{
			Username:     body.Username,
			PasswordHash: string(hash),
			Role:         models.UserRole(body.Role),
		}
		if err := db.Create(&user).Error; err != nil {
			return apperr.Internal("failed to create user", err)
		}

		return httpx.Success(c, fiber.StatusCreated, auth.ToUserDTO(&user))
	}
}

// PUT /api/users/:id
func UpdateHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var user models.User
		if err := db.First(&user, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("user not found")
			}
			return apperr.Internal("failed to load user", err)
		}

		var body UpdateUserRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}

		if body.Password != nil {
			hash, err := bcrypt.GenerateFromPassword([]byte(*body.Password), bcrypt.DefaultCost)
			if err != nil {
				return apperr.Internal("password hashing failed", err)
			}
			user.PasswordHash = string(hash)
		}
		if body.Role != nil {
			user.Role = models.UserRole(*body.Role)
		}

		if err := db.Save(&user).Error; err != nil {
			return apperr.Internal("failed to update user", err)
		}
		return httpx.Success(c, fiber.StatusOK, auth.ToUserDTO(&user))
	}
}

// DELETE /api/users/:id
func DeleteHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var user models.User
		if err := db.First(&user, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("user not found")
			}
			return apperr.Internal("failed to load user", err)
		}

		callerID, _ := c.Locals(auth.CtxUserIDKey).(uint)
		if callerID == user.ID {
			return apperr.Conflict("cannot delete your own account")
		}

		if err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(&models.RefreshToken{}, "user_id = ?", user.ID).Error; err != nil {
				return err
			}
			return tx.Delete(&user).Error
		}); err != nil {
			return apperr.Internal("failed to delete user", err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
