package table

import (
	"errors"
	"fmt"
	"strings"

	"tableserve-backend/internal/apperr"
	"tableserve-backend/internal/httpx"
	"tableserve-backend/internal/models"
	"tableserve-backend/internal/realtime"
	"tableserve-backend/internal/validation"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type TableResponse struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	QRCode         string `json:"qr_code"`
	IsOccupied     bool   `json:"is_occupied"`
	IsAvailable    bool   `json:"is_available"`
	IsCallingStaff bool   `json:"is_calling_staff"`
}

type CreateTableRequest struct {
	Name string `json:"name" validate:"required,min=1,max=50"`
}

type UpdateTableRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=50"`
	IsAvailable *bool   `json:"is_available"`
}

func toResponse(t *models.Table) TableResponse {
	return TableResponse{
		ID:             t.ID,
		Name:           t.Name,
		QRCode:         t.QRCode,
		IsOccupied:     t.IsOccupied,
		IsAvailable:    t.IsAvailable,
		IsCallingStaff: t.IsCallingStaff,
	}
}

// GET /api/tables
func ListHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var tables []models.Table
		if err := db.Order("name asc").Find(&tables).Error; err != nil {
			return apperr.Internal("failed to list tables", err)
		}

		res := make([]TableResponse, 0, len(tables))
		for i := range tables {
			res = append(res, toResponse(&tables[i]))
		}
		return httpx.Success(c, fiber.StatusOK, res)
	}
}

// GET /api/tables/:id
func GetHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tbl, err := find(db, c.Params("id"))
		if err != nil {
			return err
		}
		return httpx.Success(c, fiber.StatusOK, toResponse(tbl))
	}
}

// POST /api/tables
func CreateHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateTableRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}
		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return apperr.Validation("validation failed", apperr.FieldError{Field: "name", Message: "is required"})
		}

		var count int64
		db.Model(&models.Table{}).Where("name = ?", body.Name).Count(&count)
		if count > 0 {
			return apperr.Conflict("table name already exists")
		}

		tbl := models.Table{
			Name:        body.Name,
			IsAvailable: true,
		}
		// The QR payload carries the table id, which only exists after the
		// insert, so both writes run in one transaction.
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&tbl).Error; err != nil {
				return err
			}
			tbl.QRCode = fmt.Sprintf("tableserve://table/%d", tbl.ID)
			return tx.Model(&tbl).Update("qr_code", tbl.QRCode).Error
		})
		if err != nil {
			return apperr.Internal("failed to create table", err)
		}

		return httpx.Success(c, fiber.StatusCreated, toResponse(&tbl))
	}
}

// PUT /api/tables/:id
func UpdateHandler(db *gorm.DB, hub *realtime.Hub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tbl, err := find(db, c.Params("id"))
		if err != nil {
			return err
		}

		var body UpdateTableRequest
		if err := validation.ParseBody(c, &body); err != nil {
			return err
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return apperr.Validation("validation failed", apperr.FieldError{Field: "name", Message: "cannot be empty"})
			}
			if name != tbl.Name {
				var count int64
				db.Model(&models.Table{}).Where("name = ? AND id <> ?", name, tbl.ID).Count(&count)
				if count > 0 {
					return apperr.Conflict("table name already exists")
				}
				tbl.Name = name
			}
		}
		if body.IsAvailable != nil {
			tbl.IsAvailable = *body.IsAvailable
		}

		if err := db.Save(tbl).Error; err != nil {
			return apperr.Internal("failed to update table", err)
		}

		hub.Broadcast(realtime.EventTableUpdated, toResponse(tbl),
			realtime.RoomStaff, realtime.TableRoom(tbl.ID))
		return httpx.Success(c, fiber.StatusOK, toResponse(tbl))
	}
}

// DELETE /api/tables/:id
func DeleteHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tbl, err := find(db, c.Params("id"))
		if err != nil {
			return err
		}

		if tbl.IsOccupied {
			return apperr.Conflict("cannot delete an occupied table")
		}

		if err := db.Delete(tbl).Error; err != nil {
			return apperr.Internal("failed to delete table", err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/tables/:id/call-staff (public, customer page)
func CallStaffHandler(db *gorm.DB, hub *realtime.Hub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tbl, err := find(db, c.Params("id"))
		if err != nil {
			return err
		}

		if !tbl.IsCallingStaff {
			if err := db.Model(tbl).Update("is_calling_staff", true).Error; err != nil {
				return apperr.Internal("failed to flag table", err)
			}
			tbl.IsCallingStaff = true
		}

		hub.Broadcast(realtime.EventStaffCalled, fiber.Map{
			"id":               tbl.ID,
			"name":             tbl.Name,
			"is_calling_staff": true,
		}, realtime.RoomStaff)

		return httpx.Message(c, fiber.StatusOK, "staff notified")
	}
}

// POST /api/tables/:id/resolve-call
func ResolveCallHandler(db *gorm.DB, hub *realtime.Hub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tbl, err := find(db, c.Params("id"))
		if err != nil {
			return err
		}

		if err := db.Model(tbl).Update("is_calling_staff", false).Error; err != nil {
			return apperr.Internal("failed to clear call flag", err)
		}
		tbl.IsCallingStaff = false

		hub.Broadcast(realtime.EventTableUpdated, toResponse(tbl),
			realtime.RoomStaff, realtime.TableRoom(tbl.ID))
		return httpx.Message(c, fiber.StatusOK, "call resolved")
	}
}

func find(db *gorm.DB, id string) (*models.Table, error) {
	var tbl models.Table
	if err := db.First(&tbl, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("table not found")
		}
		return nil, apperr.Internal("failed to load table", err)
	}
	return &tbl, nil
}
