package main

import (
	"errors"
	"net/http"

	"github.com/topsucces-code/mientior-backend/internal/middleware"
	"github.com/topsucces-code/mientior-backend/internal/services"

	"github.com/labstack/echo/v4"
)

// registerPaymentRoutes mounts payment initiation and the gateway webhook.
func registerPaymentRoutes(g *echo.Group, ps *services.PaymentService) {
	p := g.Group("/payments")

	// ============================
	// MIDTRANS NOTIFICATION
	// (NO JWT, must be public)
	// ============================
	p.POST("/notifications", func(c echo.Context) error {
		var payload map[string]interface{}
		if err := c.Bind(&payload); err != nil {
			// unparseable payloads are acknowledged so the gateway stops
			// redelivering them
			return c.JSON(http.StatusOK, echo.Map{"status": "ignored", "reason": "invalid payload"})
		}

		if err := ps.HandleGatewayNotification(c.Request().Context(), payload); err != nil {
			var validationErr *services.ValidationError
			if errors.As(err, &validationErr) {
				// bad signature or unknown reference: retrying will never help
				return c.JSON(http.StatusOK, echo.Map{"status": "ignored", "reason": err.Error()})
			}
			// transient failure: a non-2xx makes midtrans redeliver
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "notification processing failed"})
		}

		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	// ============================
	// PAYMENT INITIATION
	// (guest orders are payable without credentials; owned orders
	// require their owner's token)
	// ============================
	p.POST("/:orderId", func(c echo.Context) error {
		claims := middleware.TryGetClaimsFromAuthHeader(c)
		var userID *int64
		if claims != nil {
			userID = &claims.UserID
		}

		redirectURL, token, err := ps.CreateGatewayPayment(c.Request().Context(), c.Param("orderId"), userID)
		if err != nil {
			return serviceFailure(c, err)
		}

		return c.JSON(http.StatusOK, echo.Map{
			"redirect_url": redirectURL,
			"token":        token,
		})
	})
}
