package settings

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

type SettingResponse struct {
	StoreName         string          `json:"store_name"`
	Address           string          `json:"address"`
	Phone             string          `json:"phone"`
	TaxID             string          `json:"tax_id"`
	PromptPayID       string          `json:"promptpay_id"`
	ServiceChargeRate decimal.Decimal `json:"service_charge_rate"`
}

type UpdateSettingRequest struct {
	StoreName         *string `json:"store_name" validate:"omitempty,min=1,max=150"`
	Address           *string `json:"address" validate:"omitempty,max=255"`
	Phone             *string `json:"phone" validate:"omitempty,max=30"`
	TaxID             *string `json:"tax_id" validate:"omitempty,max=30"`
	PromptPayID       *string `json:"promptpay_id" validate:"omitempty,max=30"`
	ServiceChargeRate *string `json:"service_charge_rate"`
}

func toResponse(s *models.Setting) SettingResponse {
	return SettingResponse{
		StoreName:         s.StoreName,
		Address:           s.Address,
		Phone:             s.Phone,
		TaxID:             s.TaxID,
		PromptPayID:       s.PromptPayID,
		ServiceChargeRate: s.ServiceChargeRate,
	}
}

func load(db *gorm.DB) (*models.Setting, error) {
	var s models.Setting
	err := db.First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s = models.Setting{StoreName: "My Restaurant", ServiceChargeRate: decimal.Zero}
		if err := db.Create(&s).Error; err != nil {
			return nil, apperr.Internal("failed to seed settings", err)
		}
		return &s, nil
	}
	if err != nil {
		return nil, apperr.Internal("failed to load settings", err)
	}
	return &s, nil
}

// GET /api/settings (public, shown on receipts and the customer page)
func GetHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := load(db)
		if err != nil {
			return err
		}
		return httpx.Success(c, fiber.StatusOK, toResponse(s))
	}
}

// PUT /api/settings (admin)
func UpdateHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := load(db)
		if err != nil {
			return err
		}

		var body UpdateSettingRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}

		if body.StoreName != nil {
			name := strings.TrimSpace(*body.StoreName)
			if name == "" {
				return apperr.Validation("validation failed",
					apperr.FieldError{Field: "store_name", Message: "cannot be empty"})
			}
			s.StoreName = name
		}
		if body.Address != nil {
			s.Address = *body.Address
		}
		if body.Phone != nil {
			s.Phone = *body.Phone
		}
		if body.TaxID != nil {
			s.TaxID = *body.TaxID
		}
		if body.PromptPayID != nil {
			s.PromptPayID = *body.PromptPayID
		}
		if body.ServiceChargeRate != nil {
			rate, err := decimal.NewFromString(strings.TrimSpace(*body.ServiceChargeRate))
			if err != nil || rate.IsNegative() {
				return apperr.Validation("validation failed",
					apperr.FieldError{Field: "service_charge_rate", Message: "must be a non-negative decimal"})
			}
			s.ServiceChargeRate = rate
		}

		if err := db.Save(s).Error; err != nil {
			return apperr.Internal("failed to update settings", err)
		}
		return httpx.Success(c, fiber.StatusOK, toResponse(s))
	}
}
