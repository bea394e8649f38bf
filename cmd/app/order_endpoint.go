package main

import (
	"net/http"

	"github.com/topsucces-code/mientior-backend/internal/middleware"
	"github.com/topsucces-code/mientior-backend/internal/services"

	"github.com/labstack/echo/v4"
)

// registerOrderRoutes mounts order tracking.
//
//	GET /orders                -> the signed-in customer's order history
//	GET /orders/:orderNumber   -> look an order up by its customer-facing number
func registerOrderRoutes(g *echo.Group, os *services.OrderService) {
	p := g.Group("/orders")

	// history is strictly authenticated; tracking by number stays open so a
	// guest can follow their order from the confirmation mail
	p.GET("", func(c echo.Context) error {
		claims := middleware.GetClaims(c)
		if claims == nil {
			return serviceFailure(c, services.ErrAuthRequired)
		}
		orders, err := os.ListForUser(c.Request().Context(), claims.UserID)
		if err != nil {
			return serviceFailure(c, err)
		}
		return c.JSON(http.StatusOK, orders)
	}, middleware.JWTMiddleware())

	p.GET("/:orderNumber", func(c echo.Context) error {
		order, err := os.GetByNumber(c.Request().Context(), c.Param("orderNumber"))
		if err != nil {
			return serviceFailure(c, err)
		}
		return c.JSON(http.StatusOK, order)
	})
}
