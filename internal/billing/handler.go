package billing

import (
	"errors"

	"tableserve-backend/internal/apperr"
	"tableserve-backend/internal/config"
	"tableserve-backend/internal/httpx"
	"tableserve-backend/internal/models"
	"tableserve-backend/internal/realtime"
	"tableserve-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CheckoutRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required,oneof=CASH QR TRANSFER"`
}

type BillResponse struct {
	ID            string          `json:"id"`
	TableID       uint            `json:"table_id"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Status        string          `json:"status"`
	CreatedAt     string          `json:"created_at"`
	ClosedAt      *string         `json:"closed_at"`
}

func toResponse(b *models.Bill) BillResponse {
	res := BillResponse{
		ID:            b.ID,
		TableID:       b.TableID,
		TotalPrice:    b.TotalPrice,
		PaymentMethod: string(b.PaymentMethod),
		Status:        string(b.Status),
		CreatedAt:     b.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if b.ClosedAt != nil {
		closed := b.ClosedAt.Format("2006-01-02 15:04:05")
		res.ClosedAt = &closed
	}
	return res
}

// GET /api/tables/:id/bill (public, customer bill view)
func GetTableBillHandler(svc *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return apperr.Validation("validation failed",
				apperr.FieldError{Field: "id", Message: "must be a positive integer"})
		}

		preview, err := svc.GetTableBill(uint(id))
		if err != nil {
			return err
		}
		return httpx.Success(c, fiber.StatusOK, preview)
	}
}

// POST /api/tables/:id/checkout (staff/admin)
func CheckoutHandler(svc *Service, hub *realtime.Hub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return apperr.Validation("validation failed",
				apperr.FieldError{Field: "id", Message: "must be a positive integer"})
		}

		var body CheckoutRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}

		bill, err := svc.Checkout(uint(id), models.PaymentMethod(body.PaymentMethod))
		if err != nil {
			return err
		}

		hub.Broadcast(realtime.EventTableUpdated, fiber.Map{
			"id":          bill.TableID,
			"is_occupied": false,
		}, realtime.RoomStaff, realtime.TableRoom(bill.TableID))

		return httpx.Success(c, fiber.StatusOK, fiber.Map{
			"message": "checkout complete",
			"bill":    toResponse(bill),
		})
	}
}

// GET /api/bills?status=&table_id= (admin/staff bill history)
func ListHandler(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := httpx.ParsePagination(c, cfg.DefaultPageSize, cfg.MaxPageSize)

		q := db.Order("created_at desc")
		if status := c.Query("status"); status != "" {
			q = q.Where("status = ?", status)
		}
		if tid := c.Query("table_id"); tid != "" {
			q = q.Where("table_id = ?", tid)
		}

		var bills []models.Bill
		if err := q.Limit(p.Limit).Offset(p.Offset()).Find(&bills).Error; err != nil {
			return apperr.Internal("failed to list bills", err)
		}

		res := make([]BillResponse, 0, len(bills))
		for i := range bills {
			res = append(res, toResponse(&bills[i]))
		}
		return httpx.Success(c, fiber.StatusOK, res)
	}
}

// GET /api/bills/:id — bill detail with its order lines.
func GetHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var bill models.Bill
		err := db.Preload("Orders.Items.Menu", unscoped).
			First(&bill, "id = ?", c.Params("id")).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("bill not found")
			}
			return apperr.Internal("failed to load bill", err)
		}

		items, total := flatten(&bill)
		return httpx.Success(c, fiber.StatusOK, fiber.Map{
			"bill":         toResponse(&bill),
			"items":        items,
			"total_amount": total,
		})
	}
}
