package order

import (
	"errors"
	"fmt"
	"time"

	"tableserve-backend/internal/apperr"
	"tableserve-backend/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

type NewOrderItem struct {
	MenuID   uint
	Quantity int
	Note     string
}

// Create submits a customer order: it finds or opens the table's OPEN bill,
// marks the table occupied and creates the order with PENDING items, all in
// one transaction.
func (s *Service) Create(tableID uint, items []NewOrderItem) (*models.Order, error) {
	if len(items) == 0 {
		return nil, apperr.Validation("validation failed",
			apperr.FieldError{Field: "items", Message: "must contain at least one item"})
	}

	var tbl models.Table
	if err := s.db.First(&tbl, "id = ?", tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("table not found")
		}
		return nil, apperr.Internal("failed to load table", err)
	}
	if !tbl.IsAvailable {
		return nil, apperr.Conflict("table is not available")
	}

	menuIDs := make([]uint, 0, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			return nil, apperr.Validation("validation failed",
				apperr.FieldError{Field: "quantity", Message: "must be at least 1"})
		}
		menuIDs = append(menuIDs, it.MenuID)
	}

	var menus []models.Menu
	if err := s.db.Where("id IN ?", menuIDs).Find(&menus).Error; err != nil {
		return nil, apperr.Internal("failed to load menus", err)
	}
	menuByID := make(map[uint]models.Menu, len(menus))
	for _, m := range menus {
		menuByID[m.ID] = m
	}
	for _, it := range items {
		m, ok := menuByID[it.MenuID]
		if !ok {
			return nil, apperr.NotFound(fmt.Sprintf("menu %d not found", it.MenuID))
		}
		if !m.IsAvailable || !m.IsVisible {
			return nil, apperr.Conflict(fmt.Sprintf("menu %q is not available", m.NameEN))
		}
	}

	total := decimal.Zero
	orderItems := make([]models.OrderItem, 0, len(items))
	for _, it := range items {
		m := menuByID[it.MenuID]
		total = total.Add(m.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		orderItems = append(orderItems, models.OrderItem{
			MenuID:   it.MenuID,
			Quantity: it.Quantity,
			Note:     it.Note,
			Status:   models.ItemPending,
		})
	}

	var created models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Lock the table row first: two concurrent first orders would
		// otherwise both miss the OPEN bill lookup and each open one.
		// sqlite has no FOR UPDATE; its single-writer model already
		// serializes.
		locked := tx
		if tx.Dialector.Name() == "postgres" {
			locked = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := locked.First(&tbl, "id = ?", tableID).Error; err != nil {
			return err
		}

		var bill models.Bill
		err := tx.Where("table_id = ? AND status = ?", tableID, models.BillOpen).First(&bill).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			bill = models.Bill{TableID: tableID, Status: models.BillOpen, TotalPrice: decimal.Zero}
			if err := tx.Create(&bill).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		if !tbl.IsOccupied {
			if err := tx.Model(&models.Table{}).Where("id = ?", tableID).
				Update("is_occupied", true).Error; err != nil {
				return err
			}
		}

		created = models.Order{
			TableID:    tableID,
			BillID:     &bill.ID,
			Status:     models.OrderOpen,
			TotalPrice: total,
			Items:      orderItems,
		}
		return tx.Create(&created).Error
	})
	if err != nil {
		return nil, apperr.Internal("failed to create order", err)
	}

	if err := s.db.Preload("Items.Menu").First(&created, created.ID).Error; err != nil {
		return nil, apperr.Internal("failed to reload order", err)
	}
	return &created, nil
}

// UpdateItemStatus validates the requested transition against the formal
// transition table and refreshes the parent order's status afterwards.
func (s *Service) UpdateItemStatus(itemID uint, next models.OrderItemStatus) (*models.OrderItem, error) {
	if !next.Valid() {
		return nil, apperr.Validation("validation failed",
			apperr.FieldError{Field: "status", Message: "unknown status"})
	}

	var item models.OrderItem
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, "id = ?", itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("order item not found")
			}
			return apperr.Internal("failed to load order item", err)
		}

		if !CanTransition(item.Status, next) {
			return apperr.Conflict(fmt.Sprintf("cannot change status from %s to %s", item.Status, next))
		}

		item.Status = next
		if err := tx.Save(&item).Error; err != nil {
			return apperr.Internal("failed to update order item", err)
		}
		return s.refreshOrderStatus(tx, item.OrderID)
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.Preload("Menu").First(&item, item.ID).Error; err != nil {
		return nil, apperr.Internal("failed to reload order item", err)
	}
	return &item, nil
}

// refreshOrderStatus closes the order once every item reached a terminal
// status: CANCELLED when all items were cancelled, COMPLETED otherwise.
func (s *Service) refreshOrderStatus(tx *gorm.DB, orderID uint) error {
	var items []models.OrderItem
	if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return apperr.Internal("failed to load order items", err)
	}

	allCancelled := true
	for _, it := range items {
		switch it.Status {
		case models.ItemCompleted:
			allCancelled = false
		case models.ItemCancelled:
		default:
			return nil // still in progress
		}
	}

	status := models.OrderCompleted
	if allCancelled {
		status = models.OrderCancelled
	}
	if err := tx.Model(&models.Order{}).Where("id = ?", orderID).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}).Error; err != nil {
		return apperr.Internal("failed to update order status", err)
	}
	return nil
}
