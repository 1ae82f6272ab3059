package analytics

import (
	"time"

	"tableserve-backend/internal/apperr"
	"tableserve-backend/internal/httpx"
	"tableserve-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DailySalesResponse struct {
	Date       string          `json:"date"`
	Revenue    decimal.Decimal `json:"revenue"`
	BillCount  int64           `json:"bill_count"`
	OrderCount int64           `json:"order_count"`
}

type TopMenuItem struct {
	MenuID   uint   `json:"menu_id"`
	NameTH   string `json:"name_th"`
	NameEN   string `json:"name_en"`
	Quantity int64  `json:"quantity"`
}

// GET /api/analytics/sales/daily?date=2026-08-29
func DailySalesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dateStr := c.Query("date")
		day := time.Now()
		if dateStr != "" {
			parsed, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return apperr.Validation("validation failed",
					apperr.FieldError{Field: "date", Message: "must be YYYY-MM-DD"})
			}
			day = parsed
		}

		loc := time.Now().Location()
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
		end := start.AddDate(0, 0, 1)

		type row struct {
			Total decimal.Decimal `gorm:"column:total"`
			Count int64           `gorm:"column:count"`
		}
		var r row
		if err := db.Model(&models.Bill{}).
			Select("COALESCE(SUM(total_price), 0) as total, COUNT(*) as count").
			Where("status = ? AND closed_at >= ? AND closed_at < ?", models.BillPaid, start, end).
			Scan(&r).Error; err != nil {
			return apperr.Internal("failed to compute daily sales", err)
		}

		var orderCount int64
		if err := db.Model(&models.Order{}).
			Where("created_at >= ? AND created_at < ?", start, end).
			Count(&orderCount).Error; err != nil {
			return apperr.Internal("failed to count orders", err)
		}

		return httpx.Success(c, fiber.StatusOK, DailySalesResponse{
			Date:       start.Format("2006-01-02"),
			Revenue:    r.Total,
			BillCount:  r.Count,
			OrderCount: orderCount,
		})
	}
}

// GET /api/analytics/menus/top?limit=10 — menus ranked by non-cancelled
// ordered quantity.
func TopMenusHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 10)
		if limit < 1 || limit > 50 {
			limit = 10
		}

		var rows []TopMenuItem
		if err := db.Model(&models.OrderItem{}).
			Select("order_items.menu_id as menu_id, menus.name_th as name_th, menus.name_en as name_en, SUM(order_items.quantity) as quantity").
			Joins("JOIN menus ON menus.id = order_items.menu_id").
			Where("order_items.status <> ?", models.ItemCancelled).
			Group("order_items.menu_id, menus.name_th, menus.name_en").
			Order("quantity desc").
			Limit(limit).
			Scan(&rows).Error; err != nil {
			return apperr.Internal("failed to rank menus", err)
		}

		return httpx.Success(c, fiber.StatusOK, rows)
	}
}
