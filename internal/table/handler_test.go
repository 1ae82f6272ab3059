package table

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
	"tableserve-backend/internal/realtime"

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
	hub := realtime.NewHub(log)

	app := fiber.New(fiber.Config{ErrorHandler: httpx.ErrorHandler(log)})
	app.Get("/tables", ListHandler(db))
	app.Post("/tables", CreateHandler(db))
	app.Put("/tables/:id", UpdateHandler(db, hub))
	app.Delete("/tables/:id", DeleteHandler(db))
	app.Post("/tables/:id/call-staff", CallStaffHandler(db, hub))
	app.Post("/tables/:id/resolve-call", ResolveCallHandler(db, hub))
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

func TestCreateTableGeneratesQRCode(t *testing.T) {
	app, db := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/tables", `{"name":"A1"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var tbl models.Table
	require.NoError(t, db.First(&tbl, "name = ?", "A1").Error)
	assert.Equal(t, fmt.Sprintf("tableserve://table/%d", tbl.ID), tbl.QRCode)
	assert.True(t, tbl.IsAvailable)
	assert.False(t, tbl.IsOccupied)
}

func TestCreateTableDuplicateName(t *testing.T) {
	app, _ := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/tables", `{"name":"A1"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPost, "/tables", `{"name":"A1"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// case differs, so no conflict
	resp = doJSON(t, app, http.MethodPost, "/tables", `{"name":"a1"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestDeleteOccupiedTable(t *testing.T) {
	app, db := newTestApp(t)

	tbl := models.Table{Name: "A1", IsAvailable: true, IsOccupied: true}
	require.NoError(t, db.Create(&tbl).Error)

	resp := doJSON(t, app, http.MethodDelete, fmt.Sprintf("/tables/%d", tbl.ID), "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	require.NoError(t, db.Model(&tbl).Update("is_occupied", false).Error)
	resp = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/tables/%d", tbl.ID), "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestCallStaffFlow(t *testing.T) {
	app, db := newTestApp(t)

	tbl := models.Table{Name: "A1", IsAvailable: true}
	require.NoError(t, db.Create(&tbl).Error)

	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/tables/%d/call-staff", tbl.ID), "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var reloaded models.Table
	require.NoError(t, db.First(&reloaded, tbl.ID).Error)
	assert.True(t, reloaded.IsCallingStaff)

	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/tables/%d/resolve-call", tbl.ID), "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, db.First(&reloaded, tbl.ID).Error)
	assert.False(t, reloaded.IsCallingStaff)
}

func TestListTables(t *testing.T) {
	app, db := newTestApp(t)

	require.NoError(t, db.Create(&models.Table{Name: "B2", IsAvailable: true}).Error)
	require.NoError(t, db.Create(&models.Table{Name: "A1", IsAvailable: true}).Error)

	resp := doJSON(t, app, http.MethodGet, "/tables", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status string          `json:"status"`
		Data   []TableResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "success", body.Status)
	require.Len(t, body.Data, 2)
	assert.Equal(t, "A1", body.Data[0].Name, "sorted by name")
}
