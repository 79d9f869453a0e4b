package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/booking"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// ReservationService is the part of booking.Service the HTTP layer uses.
type ReservationService interface {
	Create(ctx context.Context, req booking.CreateRequest) (*model.Reservation, error)
	Get(ctx context.Context, actor booking.Actor, id uint64) (*model.Reservation, error)
	List(ctx context.Context, actor booking.Actor, f model.ReservationFilter) ([]model.Reservation, error)
	Update(ctx context.Context, actor booking.Actor, id uint64, upd booking.UpdateRequest) (*model.Reservation, error)
	Cancel(ctx context.Context, actor booking.Actor, id uint64) (*model.Reservation, error)
	Confirm(ctx context.Context, token string) (*model.Reservation, error)
}

// ReservationHandler exposes reservation endpoints.
type ReservationHandler struct {
	Svc ReservationService
}

func NewReservationHandler(svc ReservationService) *ReservationHandler {
	return &ReservationHandler{Svc: svc}
}

type createReservationReq struct {
	TableID  uint64 `json:"table_id" validate:"required"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Time     string `json:"time" validate:"required"`
	Duration int    `json:"duration" validate:"required,gt=0,max=1440"`
}

type updateReservationReq struct {
	Date     *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time     *string `json:"time"`
	Duration *int    `json:"duration" validate:"omitempty,gt=0,max=1440"`
}

// Create books a table for the caller.
func (h *ReservationHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createReservationReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	r, err := h.Svc.Create(ctx, booking.CreateRequest{
		UserID:   uid,
		TableID:  req.TableID,
		Date:     req.Date,
		Time:     req.Time,
		Duration: req.Duration,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

// List returns the caller's reservations, or all of them for staff.
// Optional query filters: date, table_id, status.
func (h *ReservationHandler) List(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	f := model.ReservationFilter{
		Date:   c.QueryParam("date"),
		Status: model.ReservationStatus(c.QueryParam("status")),
	}
	if f.Date != "" {
		if _, err := time.Parse(model.DateLayout, f.Date); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
		}
	}
	if f.Status != "" && !f.Status.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be pending, confirmed or cancelled"})
	}
	if s := c.QueryParam("table_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table_id"})
		}
		f.TableID = id
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	items, err := h.Svc.List(ctx, actor, f)
	if err != nil {
		return respondError(c, err)
	}
	if items == nil {
		items = []model.Reservation{}
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get returns one reservation.
func (h *ReservationHandler) Get(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	r, err := h.Svc.Get(c.Request().Context(), actor, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// Update reschedules a reservation.  Omitted fields keep their value.
func (h *ReservationHandler) Update(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateReservationReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	if req.Date == nil && req.Time == nil && req.Duration == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "nothing to update"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	r, err := h.Svc.Update(ctx, actor, id, booking.UpdateRequest{Date: req.Date, Time: req.Time, Duration: req.Duration})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// Cancel cancels a reservation.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	r, err := h.Svc.Cancel(c.Request().Context(), actor, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// Confirm is public: the token in the path is the credential.
func (h *ReservationHandler) Confirm(c echo.Context) error {
	r, err := h.Svc.Confirm(c.Request().Context(), c.Param("token"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "reservation confirmed", "reservation": r})
}
