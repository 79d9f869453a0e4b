package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/restaurant-table-reservation/internal/handler"
	"github.com/iliyamo/restaurant-table-reservation/internal/middleware"
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// RegisterTables mounts the table inventory.  Browsing is public and
// served through the response cache; mutations require the STAFF role.
func RegisterTables(e *echo.Echo, h *handler.TableHandler, cache *middleware.ResponseCache, jwtSecret string) {
	pub := e.Group("/v1/tables", cache.Middleware())
	pub.GET("", h.List)
	pub.GET("/:id", h.Get)

	staff := e.Group(
		"/v1/tables",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleStaff),
	)
	staff.POST("", h.Create)
	staff.PATCH("/:id", h.Update)
	staff.PATCH("/:id/status", h.SetStatus)
	staff.DELETE("/:id", h.Delete)
}
