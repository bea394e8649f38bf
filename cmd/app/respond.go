package main

import (
	"errors"
	"net/http"

	"github.com/topsucces-code/mientior-backend/internal/services"

	"github.com/labstack/echo/v4"
)

// failureResponse is the error shape every endpoint returns. ErrorKind is
// stable and machine-matchable; Error is for humans.
type failureResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	ErrorKind string `json:"errorKind"`
}

func failJSON(c echo.Context, status int, kind, msg string) error {
	return c.JSON(status, failureResponse{Success: false, Error: msg, ErrorKind: kind})
}

// serviceFailure translates the services error taxonomy to HTTP. Store
// failures deliberately surface a generic message; the service layer already
// logged the details.
func serviceFailure(c echo.Context, err error) error {
	var (
		validationErr *services.ValidationError
		stockErr      *services.InsufficientStockError
		promoErr      *services.PromotionInvalidError
		shippingErr   *services.InvalidShippingOptionError
		productErr    *services.ProductNotFoundError
		orderErr      *services.OrderNotFoundError
		storeErr      *services.StoreUnavailableError
	)

	switch {
	case errors.As(err, &validationErr):
		return failJSON(c, http.StatusBadRequest, "ValidationError", err.Error())
	case errors.As(err, &stockErr):
		return failJSON(c, http.StatusBadRequest, "StockInsufficient", err.Error())
	case errors.As(err, &promoErr):
		return failJSON(c, http.StatusBadRequest, "PromotionInvalid", err.Error())
	case errors.As(err, &shippingErr):
		return failJSON(c, http.StatusBadRequest, "InvalidShippingOption", err.Error())
	case errors.As(err, &productErr):
		return failJSON(c, http.StatusNotFound, "ProductNotFound", err.Error())
	case errors.As(err, &orderErr):
		return failJSON(c, http.StatusNotFound, "OrderNotFound", err.Error())
	case errors.Is(err, services.ErrAuthRequired):
		return failJSON(c, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, services.ErrNotOrderOwner):
		return failJSON(c, http.StatusForbidden, "Forbidden", err.Error())
	case errors.As(err, &storeErr):
		return failJSON(c, http.StatusInternalServerError, "StoreUnavailable", "temporary problem, please try again")
	default:
		return failJSON(c, http.StatusInternalServerError, "StoreUnavailable", "temporary problem, please try again")
	}
}

func bindFailure(c echo.Context) error {
	return failJSON(c, http.StatusBadRequest, "ValidationError", "invalid request body")
}

func validateFailure(c echo.Context, err error) error {
	return failJSON(c, http.StatusBadRequest, "ValidationError", err.Error())
}
