package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/jinzhu/copier"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/booking"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// TableInventory is the part of booking.Inventory the HTTP layer uses.
type TableInventory interface {
	List(ctx context.Context, f model.TableFilter) ([]model.Table, error)
	Get(ctx context.Context, id uint64) (*model.Table, error)
	Create(ctx context.Context, t *model.Table) error
	Update(ctx context.Context, id uint64, u booking.TableUpdate) (*model.Table, error)
	SetStatus(ctx context.Context, id uint64, status model.TableStatus) (*model.Table, error)
	Delete(ctx context.Context, id uint64) error
}

// CacheInvalidator drops cached table listings after a change.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// TableHandler serves public table browsing and staff table management.
type TableHandler struct {
	Inv   TableInventory
	Cache CacheInvalidator // may be nil
}

func NewTableHandler(inv TableInventory, cache CacheInvalidator) *TableHandler {
	return &TableHandler{Inv: inv, Cache: cache}
}

type createTableReq struct {
	Number uint32 `json:"number" validate:"required,gt=0"`
	Seats  uint32 `json:"seats" validate:"required,gt=0"`
	Type   string `json:"type" validate:"omitempty,oneof=standard vip window terrace"`
	Status string `json:"status" validate:"omitempty,oneof=available reserved unavailable"`
}

type updateTableReq struct {
	Number *uint32 `json:"number" validate:"omitempty,gt=0"`
	Seats  *uint32 `json:"seats" validate:"omitempty,gt=0"`
	Type   *string `json:"type" validate:"omitempty,oneof=standard vip window terrace"`
	Status *string `json:"status" validate:"omitempty,oneof=available reserved unavailable"`
}

type setStatusReq struct {
	Status string `json:"status" validate:"required"`
}

func (h *TableHandler) invalidate(c echo.Context) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.Invalidate(c.Request().Context()); err != nil {
		log.Printf("handler: invalidate table cache: %v", err)
	}
}

// List returns tables, optionally filtered by type, seats and status.
func (h *TableHandler) List(c echo.Context) error {
	f := model.TableFilter{
		Type:   model.TableType(c.QueryParam("type")),
		Status: model.TableStatus(c.QueryParam("status")),
	}
	if f.Type != "" && !f.Type.Valid() {
		return respondError(c, booking.ErrInvalidTableType)
	}
	if f.Status != "" && !f.Status.Valid() {
		return respondError(c, booking.ErrInvalidTableStatus)
	}
	if s := c.QueryParam("seats"); s != "" {
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seats"})
		}
		f.Seats = uint32(n)
	}
	items, err := h.Inv.List(c.Request().Context(), f)
	if err != nil {
		return respondError(c, err)
	}
	if items == nil {
		items = []model.Table{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get returns one table.
func (h *TableHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	t, err := h.Inv.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Create adds a table (staff only).
func (h *TableHandler) Create(c echo.Context) error {
	var req createTableReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	var t model.Table
	if err := copier.Copy(&t, &req); err != nil {
		return respondError(c, err)
	}
	if err := h.Inv.Create(c.Request().Context(), &t); err != nil {
		return respondError(c, err)
	}
	h.invalidate(c)
	return c.JSON(http.StatusCreated, t)
}

// Update changes any of number, seats, type and status (staff only).
func (h *TableHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateTableReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	u := booking.TableUpdate{Number: req.Number, Seats: req.Seats}
	if req.Type != nil {
		tt := model.TableType(*req.Type)
		u.Type = &tt
	}
	if req.Status != nil {
		st := model.TableStatus(*req.Status)
		u.Status = &st
	}
	t, err := h.Inv.Update(c.Request().Context(), id, u)
	if err != nil {
		return respondError(c, err)
	}
	h.invalidate(c)
	return c.JSON(http.StatusOK, t)
}

// SetStatus changes only the availability flag (staff only).
func (h *TableHandler) SetStatus(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req setStatusReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	t, err := h.Inv.SetStatus(c.Request().Context(), id, model.TableStatus(req.Status))
	if err != nil {
		return respondError(c, err)
	}
	h.invalidate(c)
	return c.JSON(http.StatusOK, t)
}

// Delete removes a table without active reservations (staff only).
func (h *TableHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Inv.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	h.invalidate(c)
	return c.NoContent(http.StatusNoContent)
}
