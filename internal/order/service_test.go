package order

import (
	"sync"
	"testing"

	"tableserve-backend/internal/database"
	"tableserve-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

func seed(t *testing.T, db *gorm.DB) (*models.Table, *models.Menu) {
	t.Helper()
	tbl := models.Table{Name: "T1", IsAvailable: true}
	require.NoError(t, db.Create(&tbl).Error)

	cat := models.Category{Name: "Mains"}
	require.NoError(t, db.Create(&cat).Error)

	m := models.Menu{
		NameTH:      "ผัดไทย",
		NameEN:      "Pad Thai",
		Price:       decimal.RequireFromString("50.00"),
		CategoryID:  cat.ID,
		IsAvailable: true,
		IsVisible:   true,
	}
	require.NoError(t, db.Create(&m).Error)
	return &tbl, &m
}

func TestCreateOpensBillAndOccupiesTable(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	tbl, m := seed(t, db)

	created, err := svc.Create(tbl.ID, []NewOrderItem{{MenuID: m.ID, Quantity: 2, Note: "no peanuts"}})
	require.NoError(t, err)

	require.NotNil(t, created.BillID)
	assert.Equal(t, models.OrderOpen, created.Status)
	assert.True(t, created.TotalPrice.Equal(decimal.RequireFromString("100.00")), "got %s", created.TotalPrice)
	require.Len(t, created.Items, 1)
	assert.Equal(t, models.ItemPending, created.Items[0].Status)
	assert.Equal(t, "no peanuts", created.Items[0].Note)

	var bill models.Bill
	require.NoError(t, db.First(&bill, "id = ?", *created.BillID).Error)
	assert.Equal(t, models.BillOpen, bill.Status)
	assert.Equal(t, tbl.ID, bill.TableID)

	var reloaded models.Table
	require.NoError(t, db.First(&reloaded, tbl.ID).Error)
	assert.True(t, reloaded.IsOccupied)
}

func TestCreateReusesOpenBill(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	tbl, m := seed(t, db)

	first, err := svc.Create(tbl.ID, []NewOrderItem{{MenuID: m.ID, Quantity: 1}})
	require.NoError(t, err)
	second, err := svc.Create(tbl.ID, []NewOrderItem{{MenuID: m.ID, Quantity: 3}})
	require.NoError(t, err)

	assert.Equal(t, *first.BillID, *second.BillID)

	var billCount int64
	db.Model(&models.Bill{}).Count(&billCount)
	assert.EqualValues(t, 1, billCount)
}

func TestConcurrentFirstOrdersShareOneBill(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	tbl, m := seed(t, db)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(tbl.ID, []NewOrderItem{{MenuID: m.ID, Quantity: 1}})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "order %d", i)
	}

	var openBills int64
	db.Model(&models.Bill{}).Where("table_id = ? AND status = ?", tbl.ID, models.BillOpen).Count(&openBills)
	assert.EqualValues(t, 1, openBills)

	var orderCount int64
	db.Model(&models.Order{}).Count(&orderCount)
	assert.EqualValues(t, 4, orderCount)
}

func TestCreateRejectsBadInput(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	tbl, m := seed(t, db)

	_, err := svc.Create(tbl.ID, nil)
	assert.Error(t, err, "empty item list")

	_, err = svc.Create(tbl.ID, []NewOrderItem{{MenuID: m.ID, Quantity: 0}})
	assert.Error(t, err, "zero quantity")

	_, err = svc.Create(999, []NewOrderItem{{MenuID: m.ID, Quantity: 1}})
	assert.Error(t, err, "unknown table")

	_, err = svc.Create(tbl.ID, []NewOrderItem{{MenuID: 999, Quantity: 1}})
	assert.Error(t, err, "unknown menu")

	require.NoError(t, db.Model(m).Update("is_available", false).Error)
	_, err = svc.Create(tbl.ID, []NewOrderItem{{MenuID: m.ID, Quantity: 1}})
	assert.Error(t, err, "unavailable menu")
}

func TestUpdateItemStatusFollowsTransitions(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	tbl, m := seed(t, db)

	created, err := svc.Create(tbl.ID, []NewOrderItem{{MenuID: m.ID, Quantity: 1}})
	require.NoError(t, err)
	itemID := created.Items[0].ID

	// kitchen advances through the normal flow
	for _, next := range []models.OrderItemStatus{
		models.ItemCooking, models.ItemReady, models.ItemServed, models.ItemCompleted,
	} {
		item, err := svc.UpdateItemStatus(itemID, next)
		require.NoError(t, err, "to %s", next)
		assert.Equal(t, next, item.Status)
	}

	// terminal state rejects anything further
	_, err = svc.UpdateItemStatus(itemID, models.ItemCancelled)
	assert.Error(t, err)
}

func TestUpdateItemStatusRejectsSkips(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	tbl, m := seed(t, db)

	created, err := svc.Create(tbl.ID, []NewOrderItem{{MenuID: m.ID, Quantity: 1}})
	require.NoError(t, err)

	_, err = svc.UpdateItemStatus(created.Items[0].ID, models.ItemServed)
	require.Error(t, err)

	_, err = svc.UpdateItemStatus(created.Items[0].ID, models.OrderItemStatus("BURNED"))
	require.Error(t, err)

	_, err = svc.UpdateItemStatus(999, models.ItemCooking)
	require.Error(t, err)
}

func TestOrderAutoCompletion(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	tbl, m := seed(t, db)

	created, err := svc.Create(tbl.ID, []NewOrderItem{
		{MenuID: m.ID, Quantity: 1},
		{MenuID: m.ID, Quantity: 2},
	})
	require.NoError(t, err)

	first, second := created.Items[0].ID, created.Items[1].ID

	// first item runs the full flow, second is cancelled
	for _, next := range []models.OrderItemStatus{
		models.ItemCooking, models.ItemReady, models.ItemServed, models.ItemCompleted,
	} {
		_, err := svc.UpdateItemStatus(first, next)
		require.NoError(t, err)
	}

	var o models.Order
	require.NoError(t, db.First(&o, created.ID).Error)
	assert.Equal(t, models.OrderOpen, o.Status, "second item still pending")

	_, err = svc.UpdateItemStatus(second, models.ItemCancelled)
	require.NoError(t, err)

	require.NoError(t, db.First(&o, created.ID).Error)
	assert.Equal(t, models.OrderCompleted, o.Status)
}

func TestOrderAllCancelled(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	tbl, m := seed(t, db)

	created, err := svc.Create(tbl.ID, []NewOrderItem{{MenuID: m.ID, Quantity: 1}})
	require.NoError(t, err)

	_, err = svc.UpdateItemStatus(created.Items[0].ID, models.ItemCancelled)
	require.NoError(t, err)

	var o models.Order
	require.NoError(t, db.First(&o, created.ID).Error)
	assert.Equal(t, models.OrderCancelled, o.Status)
}
