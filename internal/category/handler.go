package category

import (
	"errors"
	"strings"

	"tableserve-backend/internal/apperr"
	"tableserve-backend/internal/httpx"
	"tableserve-backend/internal/models"
	"tableserve-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CategoryResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

type UpdateCategoryRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=100"`
}

// GET /api/categories
func ListHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var categories []models.Category
		if err := db.Order("name asc").Find(&categories).Error; err != nil {
			return apperr.Internal("failed to list categories", err)
		}

		res := make([]CategoryResponse, 0, len(categories))
		for _, cat := range categories {
			res = append(res, CategoryResponse{ID: cat.ID, Name: cat.Name})
		}
		return httpx.Success(c, fiber.StatusOK, res)
	}
}

// POST /api/categories
func CreateHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCategoryRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		body.Name = strings.TrimSpace(body.Name)

		var count int64
		db.Model(&models.Category{}).Where("name = ?", body.Name).Count(&count)
		if count > 0 {
			return apperr.Conflict("category name already exists")
		}

		cat := models.Category{Name: body.Name}
		if err := db.Create(&cat).Error; err != nil {
			return apperr.Internal("failed to create category", err)
		}

		return httpx.Success(c, fiber.StatusCreated, CategoryResponse{ID: cat.ID, Name: cat.Name})
	}
}

// PUT /api/categories/:id
func UpdateHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var cat models.Category
		if err := db.First(&cat, "id = ?", c.Params("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("category not found")
			}
			return apperr.Internal("failed to load category", err)
		}

		var body UpdateCategoryRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return apperr.Validation("validation failed", apperr.FieldError{Field: "name", Message: "cannot be empty"})
			}
			if name != cat.Name {
				var count int64
				db.Model(&models.Category{}).Where("name = ? AND id <> ?", name, cat.ID).Count(&count)
				if count > 0 {
					return apperr.Conflict("category name already exists")
				}
				cat.Name = name
			}
		}

		if err := db.Save(&cat).Error; err != nil {
			return apperr.Internal("failed to update category", err)
		}
		return httpx.Success(c, fiber.StatusOK, CategoryResponse{ID: cat.ID, Name: cat.Name})
	}
}

// DELETE /api/categories/:id
func DeleteHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var cat models.Category
		if err := db.First(&cat, "id = ?", c.Params("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("category not found")
			}
			return apperr.Internal("failed to load category", err)
		}

		// soft-deleted menus do not block deletion
		var count int64
		db.Model(&models.Menu{}).Where("category_id = ?", cat.ID).Count(&count)
		if count > 0 {
			return apperr.Conflict("category still has menus")
		}

		if err := db.Delete(&cat).Error; err != nil {
			return apperr.Internal("failed to delete category", err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
