package menu

import (
	"errors"
	"strings"

	"tableserve-backend/internal/apperr"
	"tableserve-backend/internal/httpx"
	"tableserve-backend/internal/models"
	"tableserve-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MenuResponse struct {
	ID            uint            `json:"id"`
	NameTH        string          `json:"name_th"`
	NameEN        string          `json:"name_en"`
	Price         decimal.Decimal `json:"price"`
	CategoryID    uint            `json:"category_id"`
	CategoryName  string          `json:"category_name,omitempty"`
	Description   string          `json:"description"`
	ImageURL      string          `json:"image_url"`
	IsRecommended bool            `json:"is_recommended"`
	IsAvailable   bool            `json:"is_available"`
	IsVisible     bool            `json:"is_visible"`
}

type CreateMenuRequest struct {
	NameTH        string `json:"name_th" validate:"required,min=1,max=150"`
	NameEN        string `json:"name_en" validate:"required,min=1,max=150"`
	Price         string `json:"price" validate:"required"`
	CategoryID    uint   `json:"category_id" validate:"required"`
	Description   string `json:"description"`
	ImageURL      string `json:"image_url"`
	IsRecommended bool   `json:"is_recommended"`
}

type UpdateMenuRequest struct {
	NameTH        *string `json:"name_th" validate:"omitempty,min=1,max=150"`
	NameEN        *string `json:"name_en" validate:"omitempty,min=1,max=150"`
	Price         *string `json:"price"`
	CategoryID    *uint   `json:"category_id"`
	Description   *string `json:"description"`
	ImageURL      *string `json:"image_url"`
	IsRecommended *bool   `json:"is_recommended"`
	IsAvailable   *bool   `json:"is_available"`
	IsVisible     *bool   `json:"is_visible"`
}

func toResponse(m *models.Menu) MenuResponse {
	res := MenuResponse{
		ID:            m.ID,
		NameTH:        m.NameTH,
		NameEN:        m.NameEN,
		Price:         m.Price,
		CategoryID:    m.CategoryID,
		Description:   m.Description,
		ImageURL:      m.ImageURL,
		IsRecommended: m.IsRecommended,
		IsAvailable:   m.IsAvailable,
		IsVisible:     m.IsVisible,
	}
	if m.Category.ID != 0 {
		res.CategoryName = m.Category.Name
	}
	return res
}

// parsePrice coerces the string price the admin frontend sends ("120.50")
// into a non-negative decimal.
func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, apperr.Validation("validation failed",
			apperr.FieldError{Field: "price", Message: "must be a decimal number"})
	}
	if price.IsNegative() {
		return decimal.Zero, apperr.Validation("validation failed",
			apperr.FieldError{Field: "price", Message: "must not be negative"})
	}
	return price, nil
}

// GET /api/menus (admin: everything non-deleted)
func ListHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := db.Preload("Category").Order("name_en asc")
		if cid := c.Query("category_id"); cid != "" {
			q = q.Where("category_id = ?", cid)
		}

		var menus []models.Menu
		if err := q.Find(&menus).Error; err != nil {
			return apperr.Internal("failed to list menus", err)
		}

		res := make([]MenuResponse, 0, len(menus))
		for i := range menus {
			res = append(res, toResponse(&menus[i]))
		}
		return httpx.Success(c, fiber.StatusOK, res)
	}
}

type MenuGroup struct {
	CategoryID   uint           `json:"category_id"`
	CategoryName string         `json:"category_name"`
	Menus        []MenuResponse `json:"menus"`
}

// GET /api/menus/visible (public, customer ordering page) — visible menus
// grouped by category.
func VisibleHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var categories []models.Category
		if err := db.Order("name asc").Find(&categories).Error; err != nil {
			return apperr.Internal("failed to list categories", err)
		}

		var menus []models.Menu
		if err := db.Where("is_visible = ?", true).Order("name_en asc").Find(&menus).Error; err != nil {
			return apperr.Internal("failed to list menus", err)
		}

		byCategory := make(map[uint][]MenuResponse)
		for i := range menus {
			byCategory[menus[i].CategoryID] = append(byCategory[menus[i].CategoryID], toResponse(&menus[i]))
		}

		groups := make([]MenuGroup, 0, len(categories))
		for _, cat := range categories {
			items := byCategory[cat.ID]
			if len(items) == 0 {
				continue
			}
			groups = append(groups, MenuGroup{
				CategoryID:   cat.ID,
				CategoryName: cat.Name,
				Menus:        items,
			})
		}
		return httpx.Success(c, fiber.StatusOK, groups)
	}
}

// GET /api/menus/:id
func GetHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var m models.Menu
		if err := db.Preload("Category").First(&m, "id = ?", c.Params("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("menu not found")
			}
			return apperr.Internal("failed to load menu", err)
		}
		return httpx.Success(c, fiber.StatusOK, toResponse(&m))
	}
}

// POST /api/menus
func CreateHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateMenuRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		body.NameEN = strings.TrimSpace(body.NameEN)
		body.NameTH = strings.TrimSpace(body.NameTH)

		price, err := parsePrice(body.Price)
		if err != nil {
			return err
		}

		var catCount int64
		db.Model(&models.Category{}).Where("id = ?", body.CategoryID).Count(&catCount)
		if catCount == 0 {
			return apperr.NotFound("category not found")
		}

		var nameCount int64
		db.Model(&models.Menu{}).Where("name_en = ?", body.NameEN).Count(&nameCount)
		if nameCount > 0 {
			return apperr.Conflict("menu name already exists")
		}

		m := models.Menu{
			NameTH:        body.NameTH,
			NameEN:        body.NameEN,
			Price:         price,
			CategoryID:    body.CategoryID,
			Description:   body.Description,
			ImageURL:      body.ImageURL,
			IsRecommended: body.IsRecommended,
			IsAvailable:   true,
			IsVisible:     true,
		}
		if err := db.Create(&m).Error; err != nil {
			return apperr.Internal("failed to create menu", err)
		}
		return httpx.Success(c, fiber.StatusCreated, toResponse(&m))
	}
}

// PUT /api/menus/:id
func UpdateHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var m models.Menu
		if err := db.First(&m, "id = ?", c.Params("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("menu not found")
			}
			return apperr.Internal("failed to load menu", err)
		}

		var body UpdateMenuRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}

		if body.NameEN != nil {
			name := strings.TrimSpace(*body.NameEN)
			if name != m.NameEN {
				var count int64
				db.Model(&models.Menu{}).Where("name_en = ? AND id <> ?", name, m.ID).Count(&count)
				if count > 0 {
					return apperr.Conflict("menu name already exists")
				}
				m.NameEN = name
			}
		}
		if body.NameTH != nil {
			m.NameTH = strings.TrimSpace(*body.NameTH)
		}
		if body.Price != nil {
			price, err := parsePrice(*body.Price)
			if err != nil {
				return err
			}
			m.Price = price
		}
		if body.CategoryID != nil {
			var count int64
			db.Model(&models.Category{}).Where("id = ?", *body.CategoryID).Count(&count)
			if count == 0 {
				return apperr.NotFound("category not found")
			}
			m.CategoryID = *body.CategoryID
		}
		if body.Description != nil {
			m.Description = *body.Description
		}
		if body.ImageURL != nil {
			m.ImageURL = *body.ImageURL
		}
		if body.IsRecommended != nil {
			m.IsRecommended = *body.IsRecommended
		}
		if body.IsAvailable != nil {
			m.IsAvailable = *body.IsAvailable
		}
		if body.IsVisible != nil {
			m.IsVisible = *body.IsVisible
		}

		if err := db.Save(&m).Error; err != nil {
			return apperr.Internal("failed to update menu", err)
		}
		return httpx.Success(c, fiber.StatusOK, toResponse(&m))
	}
}

// DELETE /api/menus/:id — soft delete, historical order items keep the row.
func DeleteHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var m models.Menu
		if err := db.First(&m, "id = ?", c.Params("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("menu not found")
			}
			return apperr.Internal("failed to load menu", err)
		}

		if err := db.Delete(&m).Error; err != nil {
			return apperr.Internal("failed to delete menu", err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
