package main

import (
	"net/http"

	"github.com/topsucces-code/mientior-backend/internal/middleware"
	"github.com/topsucces-code/mientior-backend/internal/model"
	"github.com/topsucces-code/mientior-backend/internal/services"

	"github.com/labstack/echo/v4"
)

// request payloads
type checkoutRequest struct {
	Items           []model.CartLine `json:"items" validate:"required,min=1,dive"`
	ShippingAddress *model.Address   `json:"shippingAddress" validate:"required"`
	BillingAddress  *model.Address   `json:"billingAddress,omitempty"`
	ShippingOption  string           `json:"shippingOption" validate:"required"`
	Gateway         string           `json:"gateway,omitempty"`
	Email           string           `json:"email,omitempty" validate:"omitempty,email"`
	PromoCode       string           `json:"promoCode,omitempty"`
	OrderID         string           `json:"orderId,omitempty"`
}

type quoteRequest struct {
	Items          []model.CartLine `json:"items" validate:"required,min=1,dive"`
	ShippingOption string           `json:"shippingOption" validate:"required"`
	PromoCode      string           `json:"promoCode,omitempty"`
}

type checkoutResponse struct {
	Success     bool               `json:"success"`
	OrderID     string             `json:"orderId"`
	OrderNumber string             `json:"orderNumber"`
	Totals      *model.OrderTotals `json:"totals"`
	Provisional bool               `json:"provisional"`
}

type quoteResponse struct {
	Success bool               `json:"success"`
	Totals  *model.OrderTotals `json:"totals"`
}

// registerCheckoutRoutes mounts the checkout contract.
//
// Public (optional bearer token):
//
//	POST /checkout        -> price the cart and create/update a provisional order
//	POST /checkout/quote  -> price the cart only, nothing is persisted
func registerCheckoutRoutes(g *echo.Group, os *services.OrderService, cs *services.CheckoutService) {
	g.POST("/checkout", func(c echo.Context) error {
		req := new(checkoutRequest)
		if err := c.Bind(req); err != nil {
			return bindFailure(c)
		}
		if err := c.Validate(req); err != nil {
			return validateFailure(c, err)
		}

		// checkout accepts both guests and logged-in users
		claims := middleware.TryGetClaimsFromAuthHeader(c)
		var userID *int64
		if claims != nil {
			userID = &claims.UserID
		}

		res, err := os.Initialize(c.Request().Context(), services.InitializeOrderRequest{
			Lines:           req.Items,
			ShippingAddress: req.ShippingAddress,
			BillingAddress:  req.BillingAddress,
			ShippingOption:  req.ShippingOption,
			PromoCode:       req.PromoCode,
			Gateway:         req.Gateway,
			ContactEmail:    req.Email,
			UserID:          userID,
			ExistingOrderID: req.OrderID,
		})
		if err != nil {
			return serviceFailure(c, err)
		}

		return c.JSON(http.StatusOK, checkoutResponse{
			Success:     true,
			OrderID:     res.OrderID,
			OrderNumber: res.OrderNumber,
			Totals:      res.Totals,
			Provisional: res.Provisional,
		})
	})

	g.POST("/checkout/quote", func(c echo.Context) error {
		req := new(quoteRequest)
		if err := c.Bind(req); err != nil {
			return bindFailure(c)
		}
		if err := c.Validate(req); err != nil {
			return validateFailure(c, err)
		}

		totals, err := cs.ComputeOrderTotals(c.Request().Context(), req.Items, req.ShippingOption, req.PromoCode)
		if err != nil {
			return serviceFailure(c, err)
		}
		return c.JSON(http.StatusOK, quoteResponse{Success: true, Totals: totals})
	})
}
