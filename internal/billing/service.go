package billing

import (
	"errors"
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

type BillItem struct {
	ID       uint            `json:"id"`
	OrderID  uint            `json:"order_id"`
	MenuID   uint            `json:"menu_id"`
	NameTH   string          `json:"name_th"`
	NameEN   string          `json:"name_en"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Status   string          `json:"status"`
}

// BillPreview is what the customer and staff bill views render. With no open
// bill it degrades to the zero shape (nil bill id, empty items, zero total)
// so the frontend needs no special empty-cart branch.
type BillPreview struct {
	BillID      *string         `json:"bill_id"`
	TableID     uint            `json:"table_id"`
	Items       []BillItem      `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// GetTableBill returns the table's open bill with every item flattened
// across its orders. Cancelled items stay in the list for transparency but
// never contribute to the total.
func (s *Service) GetTableBill(tableID uint) (*BillPreview, error) {
	var count int64
	if err := s.db.Model(&models.Table{}).Where("id = ?", tableID).Count(&count).Error; err != nil {
		return nil, apperr.Internal("failed to load table", err)
	}
	if count == 0 {
		return nil, apperr.NotFound("table not found")
	}

	var bill models.Bill
	err := s.db.Preload("Orders.Items.Menu", unscoped).
		Where("table_id = ? AND status = ?", tableID, models.BillOpen).
		First(&bill).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &BillPreview{
			BillID:      nil,
			TableID:     tableID,
			Items:       []BillItem{},
			TotalAmount: decimal.Zero,
		}, nil
	}
	if err != nil {
		return nil, apperr.Internal("failed to load bill", err)
	}

	items, total := flatten(&bill)
	return &BillPreview{
		BillID:      &bill.ID,
		TableID:     tableID,
		Items:       items,
		TotalAmount: total,
	}, nil
}

// Checkout closes the table's open bill and frees the table in a single
// transaction. The bill row is locked for update so two concurrent checkout
// calls serialize; the loser no longer sees an OPEN bill and gets NotFound.
func (s *Service) Checkout(tableID uint, method models.PaymentMethod) (*models.Bill, error) {
	if !method.Valid() {
		return nil, apperr.Validation("validation failed",
			apperr.FieldError{Field: "payment_method", Message: "must be one of: CASH QR TRANSFER"})
	}

	var bill models.Bill
	err := s.db.Transaction(func(tx *gorm.DB) error {
		q := tx.Where("table_id = ? AND status = ?", tableID, models.BillOpen)
		if tx.Dialector.Name() == "postgres" {
			// sqlite has no FOR UPDATE; its single-writer model already serializes
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		err := q.First(&bill).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Active bill not found")
		}
		if err != nil {
			return apperr.Internal("failed to load bill", err)
		}

		if err := tx.Preload("Items.Menu", unscoped).Where("bill_id = ?", bill.ID).Find(&bill.Orders).Error; err != nil {
			return apperr.Internal("failed to load bill orders", err)
		}

		_, total := flatten(&bill)
		now := time.Now()

		bill.Status = models.BillPaid
		bill.TotalPrice = total
		bill.PaymentMethod = method
		bill.ClosedAt = &now
		if err := tx.Save(&bill).Error; err != nil {
			return apperr.Internal("failed to close bill", err)
		}

		if err := tx.Model(&models.Table{}).Where("id = ?", tableID).Updates(map[string]interface{}{
			"is_occupied":      false,
			"is_calling_staff": false,
		}).Error; err != nil {
			return apperr.Internal("failed to reset table", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

// unscoped keeps soft-deleted menus visible on historical bill lines.
func unscoped(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}

// flatten collects every order item on the bill and sums price*quantity over
// the non-cancelled ones.
func flatten(bill *models.Bill) ([]BillItem, decimal.Decimal) {
	items := []BillItem{}
	total := decimal.Zero
	for _, order := range bill.Orders {
		for _, it := range order.Items {
			items = append(items, BillItem{
				ID:       it.ID,
				OrderID:  it.OrderID,
				MenuID:   it.MenuID,
				NameTH:   it.Menu.NameTH,
				NameEN:   it.Menu.NameEN,
				Price:    it.Menu.Price,
				Quantity: it.Quantity,
				Status:   string(it.Status),
			})
			if it.Status != models.ItemCancelled {
				total = total.Add(it.Menu.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
			}
		}
	}
	return items, total
}
