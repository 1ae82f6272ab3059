package menu

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tableserve-backend/internal/database"
	"tableserve-backend/internal/httpx"
	"tableserve-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	app := fiber.New(fiber.Config{ErrorHandler: httpx.ErrorHandler(log)})
	app.Post("/menus", CreateHandler(db))
	app.Put("/menus/:id", UpdateHandler(db))
	app.Delete("/menus/:id", DeleteHandler(db))
	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func seedCategory(t *testing.T, db *gorm.DB, name string) models.Category {
	t.Helper()
	cat := models.Category{Name: name}
	require.NoError(t, db.Create(&cat).Error)
	return cat
}

func TestCreateMenuDuplicateName(t *testing.T) {
	app, db := newTestApp(t)
	cat := seedCategory(t, db, "Noodles")

	body := fmt.Sprintf(`{"name_th":"ผัดไทย","name_en":"Pad Thai","price":"80.00","category_id":%d}`, cat.ID)
	resp := doJSON(t, app, http.MethodPost, "/menus", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/menus", body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "CONFLICT", out["code"])
}

func TestRecreateMenuAfterSoftDelete(t *testing.T) {
	app, db := newTestApp(t)
	cat := seedCategory(t, db, "Noodles")

	body := fmt.Sprintf(`{"name_th":"ผัดไทย","name_en":"Pad Thai","price":"80.00","category_id":%d}`, cat.ID)
	resp := doJSON(t, app, http.MethodPost, "/menus", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var first models.Menu
	require.NoError(t, db.First(&first, "name_en = ?", "Pad Thai").Error)

	resp = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/menus/%d", first.ID), "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// the dish comes back later at a new price; the soft-deleted row must not
	// block the insert
	body = fmt.Sprintf(`{"name_th":"ผัดไทย","name_en":"Pad Thai","price":"90.00","category_id":%d}`, cat.ID)
	resp = doJSON(t, app, http.MethodPost, "/menus", body)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var active []models.Menu
	require.NoError(t, db.Where("name_en = ?", "Pad Thai").Find(&active).Error)
	require.Len(t, active, 1)
	assert.NotEqual(t, first.ID, active[0].ID)
	assert.Equal(t, "90", active[0].Price.StringFixed(0))
}

func TestRenameMenuToSoftDeletedName(t *testing.T) {
	app, db := newTestApp(t)
	cat := seedCategory(t, db, "Noodles")

	old := models.Menu{NameTH: "ผัดไทย", NameEN: "Pad Thai", CategoryID: cat.ID, IsAvailable: true, IsVisible: true}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Delete(&old).Error)

	m := models.Menu{NameTH: "ผัดซีอิ๊ว", NameEN: "Pad See Ew", CategoryID: cat.ID, IsAvailable: true, IsVisible: true}
	require.NoError(t, db.Create(&m).Error)

	resp := doJSON(t, app, http.MethodPut, fmt.Sprintf("/menus/%d", m.ID), `{"name_en":"Pad Thai"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Menu
	require.NoError(t, db.First(&updated, m.ID).Error)
	assert.Equal(t, "Pad Thai", updated.NameEN)
}
