package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	mt "github.com/topsucces-code/mientior-backend/external/midtrans"
	"github.com/topsucces-code/mientior-backend/internal/model"
	"github.com/topsucces-code/mientior-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentOrderStore is the slice of OrderRepository the payment flow needs.
type PaymentOrderStore interface {
	GetByID(ctx context.Context, orderID string) (*model.Order, error)
	FinalizePaid(ctx context.Context, orderID, provider, providerRef string, payload []byte) error
	MarkCancelled(ctx context.Context, orderID string, payload []byte) error
}

// PaymentStore is the slice of PaymentRepository the payment flow needs.
type PaymentStore interface {
	CreatePending(ctx context.Context, orderID string, amountCents int64, provider, providerRef string, payload []byte) (int64, error)
	GetPendingByOrderID(ctx context.Context, orderID string) (*model.Payment, error)
	GetByProviderRef(ctx context.Context, providerRef string) (*model.Payment, error)
	MarkSuperseded(ctx context.Context, paymentID int64) error
}

// PaymentGateway opens a hosted payment session for an order.
type PaymentGateway interface {
	CreateTransaction(ctx context.Context, orderRef string, amountCents int64, customerEmail string) (redirectURL, token string, err error)
}

type PaymentService struct {
	PaymentRepo PaymentStore
	OrderRepo   PaymentOrderStore
	Gateway     PaymentGateway
	ServerKey   string
	Logger      *zap.Logger
}

func NewPaymentService(pr PaymentStore, or PaymentOrderStore, gateway PaymentGateway, serverKey string, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		PaymentRepo: pr,
		OrderRepo:   or,
		Gateway:     gateway,
		ServerKey:   serverKey,
		Logger:      logger,
	}
}

// gatewaySession is what we persist from a created transaction so a retry
// can resume the same hosted page.
type gatewaySession struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// CreateGatewayPayment opens (or resumes) the hosted payment session for a
// pending order. Guest orders carry no user id and may be paid without
// credentials; orders that belong to a user are only payable by that user.
func (s *PaymentService) CreateGatewayPayment(ctx context.Context, orderID string, userID *int64) (string, string, error) {
	order, err := s.OrderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", "", &OrderNotFoundError{OrderID: orderID}
		}
		return "", "", &StoreUnavailableError{Err: err}
	}

	if order.UserID != nil && (userID == nil || *userID != *order.UserID) {
		return "", "", ErrNotOrderOwner
	}
	if order.OrderStatus != model.OrderStatusPending || order.PaymentStatus != model.PaymentStatusPending {
		return "", "", &ValidationError{Field: "orderId", Message: "order cannot be paid"}
	}

	// resume an open attempt instead of opening a second one; an attempt
	// priced before a checkout re-submit no longer matches the order and is
	// retired so it can never settle the new total
	existing, err := s.PaymentRepo.GetPendingByOrderID(ctx, order.OrderID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", "", &StoreUnavailableError{Err: err}
	}
	if existing != nil && existing.AmountCents == order.Totals.TotalCents {
		var stored gatewaySession
		if jsonErr := json.Unmarshal(existing.ProviderPayload, &stored); jsonErr == nil && stored.RedirectURL != "" {
			return stored.RedirectURL, stored.Token, nil
		}
		return "", "", &ValidationError{Field: "orderId", Message: "payment already exists for this order"}
	}
	if existing != nil {
		if err := s.PaymentRepo.MarkSuperseded(ctx, existing.PaymentID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return "", "", &StoreUnavailableError{Err: err}
		}
		s.Logger.Info("stale payment session superseded",
			zap.String("orderId", order.OrderID),
			zap.Int64("sessionAmountCents", existing.AmountCents),
			zap.Int64("orderAmountCents", order.Totals.TotalCents))
	}

	var email string
	if order.GuestEmail != nil {
		email = *order.GuestEmail
	}

	externalRef := fmt.Sprintf("PAY-%s-%s", order.OrderNumber, uuid.NewString()[:8])
	redirectURL, token, err := s.Gateway.CreateTransaction(ctx, externalRef, order.Totals.TotalCents, email)
	if err != nil {
		return "", "", fmt.Errorf("create gateway transaction: %w", err)
	}

	payload, err := json.Marshal(gatewaySession{Token: token, RedirectURL: redirectURL})
	if err != nil {
		return "", "", err
	}
	if _, err := s.PaymentRepo.CreatePending(ctx, order.OrderID, order.Totals.TotalCents, "midtrans", externalRef, payload); err != nil {
		return "", "", &StoreUnavailableError{Err: err}
	}

	s.Logger.Info("payment session created",
		zap.String("orderId", order.OrderID),
		zap.String("providerRef", externalRef),
		zap.Int64("amountCents", order.Totals.TotalCents))
	return redirectURL, token, nil
}

// HandleGatewayNotification processes a signed status notification from the
// gateway. Payloads that can never be applied (bad signature, unknown
// reference, amount mismatch, settlement of a cancelled order) come back as
// *ValidationError so the endpoint can acknowledge without a retry storm;
// anything transient is returned raw so the gateway retries.
func (s *PaymentService) HandleGatewayNotification(ctx context.Context, payload map[string]interface{}) error {
	orderRef, ok := payload["order_id"].(string)
	if !ok || orderRef == "" {
		return &ValidationError{Field: "order_id", Message: "missing order reference"}
	}

	statusCode, _ := payload["status_code"].(string)
	grossAmount, _ := payload["gross_amount"].(string)
	signature, _ := payload["signature_key"].(string)

	if !mt.VerifySignature(orderRef, statusCode, grossAmount, signature, s.ServerKey) {
		return &ValidationError{Field: "signature_key", Message: "invalid signature"}
	}

	payment, err := s.PaymentRepo.GetByProviderRef(ctx, orderRef)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &ValidationError{Field: "order_id", Message: "unknown payment reference"}
		}
		return err
	}

	order, err := s.OrderRepo.GetByID(ctx, payment.OrderID)
	if err != nil {
		return err
	}
	if order.OrderStatus == model.OrderStatusPaid {
		// replayed notification, already processed
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	transactionStatus, _ := payload["transaction_status"].(string)
	fraudStatus, _ := payload["fraud_status"].(string)

	switch transactionStatus {

	case "settlement":
		return s.finalize(ctx, order, payment, orderRef, grossAmount, raw)

	case "capture":
		if fraudStatus == "accept" {
			return s.finalize(ctx, order, payment, orderRef, grossAmount, raw)
		}
		return nil

	case "expire", "cancel", "deny":
		if payment.PaymentStatus != model.PaymentStatusPending {
			// the expiry of a retired attempt says nothing about the order
			return nil
		}
		if err := s.OrderRepo.MarkCancelled(ctx, order.OrderID, raw); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		s.Logger.Info("payment cancelled by gateway",
			zap.String("orderId", order.OrderID),
			zap.String("transactionStatus", transactionStatus))
		return nil
	}

	return nil
}

// finalize marks the order paid once the money side checks out: the attempt
// must still be the order's active one and gateway, session and order must
// agree on the amount. A settlement that fails these checks can never become
// valid, so it is logged for manual review and acknowledged as a
// *ValidationError instead of being redelivered forever.
func (s *PaymentService) finalize(ctx context.Context, order *model.Order, payment *model.Payment, providerRef, grossAmount string, payload []byte) error {
	if order.OrderStatus == model.OrderStatusCancelled {
		// expiry raced the customer's payment; the money needs a refund, not
		// a finalized order
		s.Logger.Error("settlement arrived for a cancelled order",
			zap.String("orderId", order.OrderID),
			zap.String("providerRef", providerRef))
		return &ValidationError{Field: "order_id", Message: "order is cancelled"}
	}
	if payment.PaymentStatus != model.PaymentStatusPending {
		s.Logger.Error("settlement arrived on a retired payment session",
			zap.String("orderId", order.OrderID),
			zap.String("providerRef", providerRef),
			zap.String("paymentStatus", payment.PaymentStatus))
		return &ValidationError{Field: "order_id", Message: "payment attempt is no longer active"}
	}

	grossCents, err := grossAmountCents(grossAmount)
	if err != nil {
		return &ValidationError{Field: "gross_amount", Message: "unreadable amount"}
	}
	if grossCents != payment.AmountCents || payment.AmountCents != order.Totals.TotalCents {
		s.Logger.Error("settled amount does not match the order",
			zap.String("orderId", order.OrderID),
			zap.String("providerRef", providerRef),
			zap.Int64("grossCents", grossCents),
			zap.Int64("sessionAmountCents", payment.AmountCents),
			zap.Int64("orderAmountCents", order.Totals.TotalCents))
		return &ValidationError{Field: "gross_amount", Message: "amount does not match the order"}
	}

	if err := s.OrderRepo.FinalizePaid(ctx, order.OrderID, "midtrans", providerRef, payload); err != nil {
		switch {
		case errors.Is(err, repository.ErrStockConflict):
			// stock ran out between checkout and settlement; the order stays
			// Pending and the returned error makes the gateway redeliver
			s.Logger.Error("payment settled but stock ran out",
				zap.String("orderId", order.OrderID), zap.Error(err))
		case errors.Is(err, repository.ErrNotFound):
			// the order left Pending between the check above and the update
			s.Logger.Error("settlement raced a concurrent status change",
				zap.String("orderId", order.OrderID),
				zap.String("providerRef", providerRef))
			return &ValidationError{Field: "order_id", Message: "order is no longer pending"}
		}
		return err
	}
	s.Logger.Info("payment finalized", zap.String("orderId", order.OrderID))
	return nil
}

// grossAmountCents parses the notification's gross_amount field. Sessions are
// opened with integer cent amounts, so the echoed value must be a whole
// number.
func grossAmountCents(raw string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("fractional gross amount %q", raw)
	}
	return d.IntPart(), nil
}
