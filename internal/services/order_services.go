package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/topsucces-code/mientior-backend/internal/model"
	"github.com/topsucces-code/mientior-backend/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderStore is the slice of OrderRepository the provisional order flow
// needs.
type OrderStore interface {
	GetByID(ctx context.Context, orderID string) (*model.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*model.Order, error)
	ListByUserID(ctx context.Context, userID int64) ([]*model.Order, error)
	Create(ctx context.Context, o *model.Order) error
	UpdateProvisional(ctx context.Context, o *model.Order) error
}

// InitializeOrderRequest is everything checkout submits. ExistingOrderID set
// means the customer went back and changed something; the same row is
// updated in place.
type InitializeOrderRequest struct {
	Lines           []model.CartLine
	ShippingAddress *model.Address
	BillingAddress  *model.Address
	ShippingOption  string
	PromoCode       string
	Gateway         string
	ContactEmail    string
	UserID          *int64
	ExistingOrderID string
}

type InitializeOrderResult struct {
	OrderID     string             `json:"orderId"`
	OrderNumber string             `json:"orderNumber"`
	Totals      *model.OrderTotals `json:"totals"`
	Provisional bool               `json:"provisional"`
}

type OrderService struct {
	Repo          OrderStore
	Checkout      *CheckoutService
	GuestCheckout bool
	NumberPrefix  string
	Logger        *zap.Logger
}

func NewOrderService(r OrderStore, checkout *CheckoutService, guestCheckout bool, numberPrefix string, logger *zap.Logger) *OrderService {
	return &OrderService{
		Repo:          r,
		Checkout:      checkout,
		GuestCheckout: guestCheckout,
		NumberPrefix:  numberPrefix,
		Logger:        logger,
	}
}

// Initialize prices the cart and persists it as a provisional Pending order.
// Nothing is reserved: totals are recomputed server-side, the admission
// stock check runs inside ComputeOrderTotals, and stock is only decremented
// later when payment settles. With ExistingOrderID set the call is an
// idempotent re-submit that keeps the order id and number stable.
func (s *OrderService) Initialize(ctx context.Context, req InitializeOrderRequest) (*InitializeOrderResult, error) {
	if req.ShippingAddress == nil {
		return nil, &ValidationError{Field: "shippingAddress", Message: "shipping address is required"}
	}
	if req.UserID == nil {
		if !s.GuestCheckout {
			return nil, ErrAuthRequired
		}
		if strings.TrimSpace(req.ContactEmail) == "" {
			return nil, &ValidationError{Field: "email", Message: "guest checkout requires a contact email"}
		}
	}

	totals, err := s.Checkout.ComputeOrderTotals(ctx, req.Lines, req.ShippingOption, req.PromoCode)
	if err != nil {
		return nil, err
	}

	// re-submit for an existing provisional order
	if req.ExistingOrderID != "" {
		order, err := s.Repo.GetByID(ctx, req.ExistingOrderID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, &OrderNotFoundError{OrderID: req.ExistingOrderID}
			}
			return nil, &StoreUnavailableError{Err: err}
		}
		if order.OrderStatus != model.OrderStatusPending {
			return nil, &ValidationError{Field: "orderId", Message: "order can no longer be modified"}
		}
		if order.UserID != nil && (req.UserID == nil || *req.UserID != *order.UserID) {
			return nil, ErrNotOrderOwner
		}

		applyRequest(order, req, totals)
		if err := s.Repo.UpdateProvisional(ctx, order); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, &OrderNotFoundError{OrderID: req.ExistingOrderID}
			}
			s.logStoreFailure("provisional order update failed", order.OrderID, req, err)
			return nil, &StoreUnavailableError{Err: err}
		}

		s.Logger.Info("provisional order updated",
			zap.String("orderId", order.OrderID),
			zap.String("orderNumber", order.OrderNumber),
			zap.Int64("totalCents", totals.TotalCents))
		return &InitializeOrderResult{
			OrderID:     order.OrderID,
			OrderNumber: order.OrderNumber,
			Totals:      totals,
			Provisional: false,
		}, nil
	}

	order := &model.Order{
		OrderID:       uuid.NewString(),
		OrderNumber:   s.newOrderNumber(),
		OrderStatus:   model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusPending,
	}
	applyRequest(order, req, totals)

	if err := s.Repo.Create(ctx, order); err != nil {
		s.logStoreFailure("provisional order create failed", order.OrderID, req, err)
		return nil, &StoreUnavailableError{Err: err}
	}

	s.Logger.Info("provisional order created",
		zap.String("orderId", order.OrderID),
		zap.String("orderNumber", order.OrderNumber),
		zap.Int64("totalCents", totals.TotalCents))
	return &InitializeOrderResult{
		OrderID:     order.OrderID,
		OrderNumber: order.OrderNumber,
		Totals:      totals,
		Provisional: true,
	}, nil
}

// GetByNumber returns the order behind a customer-facing reference.
func (s *OrderService) GetByNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	if strings.TrimSpace(orderNumber) == "" {
		return nil, &ValidationError{Field: "orderNumber", Message: "order number is required"}
	}
	order, err := s.Repo.GetByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &OrderNotFoundError{OrderID: orderNumber}
		}
		return nil, &StoreUnavailableError{Err: err}
	}
	return order, nil
}

// ListForUser returns the authenticated customer's order history, newest
// first.
func (s *OrderService) ListForUser(ctx context.Context, userID int64) ([]*model.Order, error) {
	orders, err := s.Repo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, &StoreUnavailableError{Err: err}
	}
	return orders, nil
}

// logStoreFailure records everything needed to replay a failed write by hand:
// the order id, the cart as submitted and the promo code.
func (s *OrderService) logStoreFailure(msg, orderID string, req InitializeOrderRequest, err error) {
	s.Logger.Error(msg,
		zap.String("orderId", orderID),
		zap.Any("cart", req.Lines),
		zap.String("promoCode", req.PromoCode),
		zap.Error(err))
}

func applyRequest(order *model.Order, req InitializeOrderRequest, totals *model.OrderTotals) {
	order.UserID = req.UserID
	order.GuestEmail = nil
	if req.UserID == nil && req.ContactEmail != "" {
		email := strings.TrimSpace(req.ContactEmail)
		order.GuestEmail = &email
	}
	order.Gateway = req.Gateway
	order.CouponCode = nil
	if totals.PromoCode != "" {
		// stored casing from the resolver; the redemption counter joins the
		// promotions table on this column
		code := totals.PromoCode
		order.CouponCode = &code
	}
	order.ShippingOption = req.ShippingOption
	order.Totals = *totals
	order.Items = totals.Lines
	order.ShippingAddress = *req.ShippingAddress
	order.BillingAddress = req.BillingAddress
}

// newOrderNumber builds the reference printed on confirmations and sent to
// the gateway: prefix, UTC date, then an uppercase uuid fragment. Generated
// once at creation and never regenerated.
func (s *OrderService) newOrderNumber() string {
	frag := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("%s-%s-%s", s.NumberPrefix, time.Now().UTC().Format("20060102"), frag)
}
