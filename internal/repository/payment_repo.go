package repository

import (
	"context"
	"errors"

	"github.com/topsucces-code/mientior-backend/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type PaymentRepository struct {
	DB DB
}

func NewPaymentRepository(db DB) *PaymentRepository {
	return &PaymentRepository{DB: db}
}

// CreatePending records a new payment attempt against an order.
func (r *PaymentRepository) CreatePending(
	ctx context.Context,
	orderID string,
	amountCents int64,
	provider string,
	providerRef string,
	payload []byte,
) (int64, error) {

	var paymentID int64
	q := `
		INSERT INTO payments
			(orderid, amountpaid, paymentstatus, paymentprovider, providerref, providerpayload, createdat)
		VALUES
			($1, $2, 'Pending', $3, $4, $5, NOW())
		RETURNING paymentid
	`
	err := r.DB.QueryRow(
		ctx, q,
		orderID, DecimalFromCents(amountCents), provider, providerRef, payload,
	).Scan(&paymentID)

	return paymentID, err
}

// GetPendingByOrderID returns the open payment attempt for an order, or
// ErrNotFound when there is none.
func (r *PaymentRepository) GetPendingByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	q := `
		SELECT paymentid, orderid, amountpaid, paymentstatus,
		       paymentprovider, providerref, providerpayload,
		       createdat, paidat
		FROM payments
		WHERE orderid=$1 AND paymentstatus='Pending'
		ORDER BY paymentid DESC
		LIMIT 1
	`
	return r.scanOne(ctx, q, orderID)
}

// MarkSuperseded retires an open payment attempt whose session no longer
// matches its order. The row and its payload stay around so a late
// notification for that reference can still be looked up.
func (r *PaymentRepository) MarkSuperseded(ctx context.Context, paymentID int64) error {
	tag, err := r.DB.Exec(ctx, `
		UPDATE payments
		SET paymentstatus='Superseded'
		WHERE paymentid=$1 AND paymentstatus='Pending'
	`, paymentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByProviderRef resolves a gateway notification back to the payment row it
// was created for.
func (r *PaymentRepository) GetByProviderRef(ctx context.Context, providerRef string) (*model.Payment, error) {
	q := `
		SELECT paymentid, orderid, amountpaid, paymentstatus,
		       paymentprovider, providerref, providerpayload,
		       createdat, paidat
		FROM payments
		WHERE providerref=$1
		ORDER BY paymentid DESC
		LIMIT 1
	`
	return r.scanOne(ctx, q, providerRef)
}

func (r *PaymentRepository) scanOne(ctx context.Context, query string, arg any) (*model.Payment, error) {
	var (
		p      model.Payment
		amount decimal.Decimal
	)
	err := r.DB.QueryRow(ctx, query, arg).Scan(
		&p.PaymentID,
		&p.OrderID,
		&amount,
		&p.PaymentStatus,
		&p.PaymentProvider,
		&p.ProviderRef,
		&p.ProviderPayload,
		&p.CreatedAt,
		&p.PaidAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.AmountCents = CentsFromDecimal(amount)
	return &p, nil
}
