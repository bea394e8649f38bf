package services

import (
	"errors"
	"fmt"
)

// ErrAuthRequired is returned when guest checkout is disabled and the caller
// presented no credentials.
var ErrAuthRequired = errors.New("authentication required")

// ErrNotOrderOwner is returned when an authenticated caller touches an order
// that belongs to someone else.
var ErrNotOrderOwner = errors.New("order belongs to another user")

// ValidationError reports malformed or missing request input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// InsufficientStockError rejects a cart line whose requested quantity exceeds
// the stock known at the time of the check.
type InsufficientStockError struct {
	ProductID string
	VariantID *string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	if e.VariantID != nil {
		return fmt.Sprintf("insufficient stock for product %s variant %s: requested %d, available %d",
			e.ProductID, *e.VariantID, e.Requested, e.Available)
	}
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// ProductNotFoundError names the cart line that referenced a missing product
// or variant.
type ProductNotFoundError struct {
	ProductID string
	VariantID string
}

func (e *ProductNotFoundError) Error() string {
	if e.VariantID != "" {
		return fmt.Sprintf("variant %s of product %s not found", e.VariantID, e.ProductID)
	}
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// Rejection reasons carried by PromotionInvalidError.
const (
	PromoReasonNotFound     = "not-found"
	PromoReasonExpired      = "expired"
	PromoReasonBelowMinimum = "below-minimum"
	PromoReasonExhausted    = "exhausted"
)

// PromotionInvalidError reports why a promo code cannot be applied.
type PromotionInvalidError struct {
	Code   string
	Reason string
}

func (e *PromotionInvalidError) Error() string {
	return fmt.Sprintf("promotion %s rejected: %s", e.Code, e.Reason)
}

type InvalidShippingOptionError struct {
	Option string
}

func (e *InvalidShippingOptionError) Error() string {
	return fmt.Sprintf("unknown shipping option %q", e.Option)
}

type OrderNotFoundError struct {
	OrderID string
}

func (e *OrderNotFoundError) Error() string {
	return fmt.Sprintf("order %s not found", e.OrderID)
}

// StoreUnavailableError wraps a data-store failure. Checkout is safe to retry
// with the same order id because provisional writes are idempotent.
type StoreUnavailableError struct {
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return "store unavailable: " + e.Err.Error()
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}
