package order

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

type CreateOrderRequest struct {
	TableID uint               `json:"table_id" validate:"required"`
	Items   []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type OrderItemRequest struct {
	MenuID   uint   `json:"menu_id" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gte=1"`
	Note     string `json:"note" validate:"max=255"`
}

type UpdateItemStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type OrderItemResponse struct {
	ID       uint            `json:"id"`
	MenuID   uint            `json:"menu_id"`
	NameTH   string          `json:"name_th"`
	NameEN   string          `json:"name_en"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Note     string          `json:"note"`
	Status   string          `json:"status"`
}

type OrderResponse struct {
	ID         uint                `json:"id"`
	TableID    uint                `json:"table_id"`
	BillID     *string             `json:"bill_id"`
	Status     string              `json:"status"`
	TotalPrice decimal.Decimal     `json:"total_price"`
	CreatedAt  string              `json:"created_at"`
	Items      []OrderItemResponse `json:"items"`
}

func toItemResponse(it *models.OrderItem) OrderItemResponse {
	return OrderItemResponse{
		ID:       it.ID,
		MenuID:   it.MenuID,
		NameTH:   it.Menu.NameTH,
		NameEN:   it.Menu.NameEN,
		Price:    it.Menu.Price,
		Quantity: it.Quantity,
		Note:     it.Note,
		Status:   string(it.Status),
	}
}

func toResponse(o *models.Order) OrderResponse {
	res := OrderResponse{
		ID:         o.ID,
		TableID:    o.TableID,
		BillID:     o.BillID,
		Status:     string(o.Status),
		TotalPrice: o.TotalPrice,
		CreatedAt:  o.CreatedAt.Format("2006-01-02 15:04:05"),
		Items:      make([]OrderItemResponse, 0, len(o.Items)),
	}
	for i := range o.Items {
		res.Items = append(res.Items, toItemResponse(&o.Items[i]))
	}
	return res
}

// POST /api/orders (public, customer ordering page)
func CreateHandler(svc *Service, hub *realtime.Hub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateOrderRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}

		items := make([]NewOrderItem, 0, len(body.Items))
		for _, it := range body.Items {
			items = append(items, NewOrderItem{MenuID: it.MenuID, Quantity: it.Quantity, Note: it.Note})
		}

		created, err := svc.Create(body.TableID, items)
		if err != nil {
			return err
		}

		res := toResponse(created)
		hub.Broadcast(realtime.EventNewOrder, res,
			realtime.RoomStaff, realtime.TableRoom(created.TableID))
		return httpx.Success(c, fiber.StatusCreated, res)
	}
}

// GET /api/orders?status=&table_id= (staff/kitchen)
func ListHandler(db *gorm.DB, cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := httpx.ParsePagination(c, cfg.DefaultPageSize, cfg.MaxPageSize)

		q := db.Preload("Items.Menu").Order("created_at desc")
		if status := c.Query("status"); status != "" {
			q = q.Where("status = ?", status)
		}
		if tid := c.Query("table_id"); tid != "" {
			q = q.Where("table_id = ?", tid)
		}

		var orders []models.Order
		if err := q.Limit(p.Limit).Offset(p.Offset()).Find(&orders).Error; err != nil {
			return apperr.Internal("failed to list orders", err)
		}

		res := make([]OrderResponse, 0, len(orders))
		for i := range orders {
			res = append(res, toResponse(&orders[i]))
		}
		return httpx.Success(c, fiber.StatusOK, res)
	}
}

// GET /api/orders/:id
func GetHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var o models.Order
		if err := db.Preload("Items.Menu").First(&o, "id = ?", c.Params("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("order not found")
			}
			return apperr.Internal("failed to load order", err)
		}
		return httpx.Success(c, fiber.StatusOK, toResponse(&o))
	}
}

// PATCH /api/orders/items/:id/status (staff/kitchen)
func UpdateItemStatusHandler(svc *Service, db *gorm.DB, hub *realtime.Hub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id < 1 {
			return apperr.Validation("validation failed",
				apperr.FieldError{Field: "id", Message: "must be a positive integer"})
		}

		var body UpdateItemStatusRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}

		item, err := svc.UpdateItemStatus(uint(id), models.OrderItemStatus(body.Status))
		if err != nil {
			return err
		}

		var o models.Order
		if err := db.First(&o, item.OrderID).Error; err != nil {
			return apperr.Internal("failed to load order", err)
		}

		res := toItemResponse(item)
		hub.Broadcast(realtime.EventOrderStatusUpdated, fiber.Map{
			"order_id":     o.ID,
			"order_status": o.Status,
			"table_id":     o.TableID,
			"item":         res,
		}, realtime.RoomStaff, realtime.TableRoom(o.TableID))

		return httpx.Success(c, fiber.StatusOK, res)
	}
}
