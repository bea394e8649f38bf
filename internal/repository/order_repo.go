package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/topsucces-code/mientior-backend/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

type OrderRepository struct {
	DB DB
}

func NewOrderRepository(db DB) *OrderRepository {
	return &OrderRepository{DB: db}
}

// Create inserts a provisional order and its items in one transaction.
func (r *OrderRepository) Create(ctx context.Context, o *model.Order) error {
	shipAddr, billAddr, err := marshalAddresses(o)
	if err != nil {
		return err
	}

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO orders
			(orderid, ordernumber, userid, guestemail, orderstatus, paymentstatus,
			 gateway, couponcode, shippingoption,
			 subtotal, discount, shippingcost, tax, totalprice,
			 shippingaddress, billingaddress)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err = tx.Exec(ctx, query,
		o.OrderID, o.OrderNumber, o.UserID, o.GuestEmail, o.OrderStatus, o.PaymentStatus,
		o.Gateway, o.CouponCode, o.ShippingOption,
		DecimalFromCents(o.Totals.SubtotalCents), DecimalFromCents(o.Totals.DiscountCents),
		DecimalFromCents(o.Totals.ShippingCostCents), DecimalFromCents(o.Totals.TaxCents),
		DecimalFromCents(o.Totals.TotalCents),
		shipAddr, billAddr)
	if err != nil {
		return err
	}

	if err := insertItems(ctx, tx, o.OrderID, o.Items); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// UpdateProvisional replaces the mutable part of a pending order: totals,
// addresses, shipping choice, coupon and items. Identity columns
// (ordernumber, created_at) are never touched, which is what keeps checkout
// retries idempotent.
func (r *OrderRepository) UpdateProvisional(ctx context.Context, o *model.Order) error {
	shipAddr, billAddr, err := marshalAddresses(o)
	if err != nil {
		return err
	}

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE orders
		SET userid=$2, guestemail=$3, gateway=$4, couponcode=$5, shippingoption=$6,
		    subtotal=$7, discount=$8, shippingcost=$9, tax=$10, totalprice=$11,
		    shippingaddress=$12, billingaddress=$13, updated_at=NOW()
		WHERE orderid=$1 AND orderstatus='Pending'
	`
	tag, err := tx.Exec(ctx, query,
		o.OrderID, o.UserID, o.GuestEmail, o.Gateway, o.CouponCode, o.ShippingOption,
		DecimalFromCents(o.Totals.SubtotalCents), DecimalFromCents(o.Totals.DiscountCents),
		DecimalFromCents(o.Totals.ShippingCostCents), DecimalFromCents(o.Totals.TaxCents),
		DecimalFromCents(o.Totals.TotalCents),
		shipAddr, billAddr)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM orderitems WHERE orderid=$1`, o.OrderID); err != nil {
		return err
	}
	if err := insertItems(ctx, tx, o.OrderID, o.Items); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *OrderRepository) GetByID(ctx context.Context, orderID string) (*model.Order, error) {
	if !validUUID(orderID) {
		return nil, ErrNotFound
	}
	return r.getBy(ctx, `orderid=$1`, orderID)
}

func (r *OrderRepository) GetByNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	return r.getBy(ctx, `ordernumber=$1`, orderNumber)
}

// ListByUserID returns every order belonging to a user, newest first.
func (r *OrderRepository) ListByUserID(ctx context.Context, userID int64) ([]*model.Order, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT orderid FROM orders WHERE userid=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	orders := make([]*model.Order, 0, len(ids))
	for _, id := range ids {
		o, err := r.getBy(ctx, `orderid=$1`, id)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (r *OrderRepository) getBy(ctx context.Context, where string, arg any) (*model.Order, error) {
	var (
		o                                        model.Order
		subtotal, discount, shipping, tax, total decimal.Decimal
		shipAddr, billAddr                       []byte
	)
	query := `
		SELECT orderid, ordernumber, userid, guestemail, orderstatus, paymentstatus,
		       gateway, couponcode, shippingoption,
		       subtotal, discount, shippingcost, tax, totalprice,
		       shippingaddress, billingaddress, created_at, updated_at
		FROM orders
		WHERE ` + where
	if err := r.DB.QueryRow(ctx, query, arg).Scan(
		&o.OrderID, &o.OrderNumber, &o.UserID, &o.GuestEmail, &o.OrderStatus, &o.PaymentStatus,
		&o.Gateway, &o.CouponCode, &o.ShippingOption,
		&subtotal, &discount, &shipping, &tax, &total,
		&shipAddr, &billAddr, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	o.Totals = model.OrderTotals{
		SubtotalCents:     CentsFromDecimal(subtotal),
		DiscountCents:     CentsFromDecimal(discount),
		ShippingCostCents: CentsFromDecimal(shipping),
		TaxCents:          CentsFromDecimal(tax),
		TotalCents:        CentsFromDecimal(total),
	}
	if o.CouponCode != nil {
		o.Totals.PromoCode = *o.CouponCode
	}
	if err := json.Unmarshal(shipAddr, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("decode shipping address: %w", err)
	}
	if len(billAddr) > 0 {
		var b model.Address
		if err := json.Unmarshal(billAddr, &b); err != nil {
			return nil, fmt.Errorf("decode billing address: %w", err)
		}
		o.BillingAddress = &b
	}

	items, err := r.loadItems(ctx, o.OrderID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	o.Totals.Lines = items
	return &o, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, orderID string) ([]model.PricedLine, error) {
	query := `
		SELECT productid, variantid, name, quantity, priceatpurchase, stockatpurchase
		FROM orderitems
		WHERE orderid=$1
		ORDER BY orderitemid
	`
	rows, err := r.DB.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.PricedLine
	for rows.Next() {
		var (
			it    model.PricedLine
			price decimal.Decimal
		)
		if err := rows.Scan(&it.ProductID, &it.VariantID, &it.Name, &it.Quantity, &price, &it.AvailableStock); err != nil {
			return nil, err
		}
		it.UnitPriceCents = CentsFromDecimal(price)
		it.LineSubtotalCents = it.UnitPriceCents * int64(it.Quantity)
		items = append(items, it)
	}
	return items, rows.Err()
}

// FinalizePaid applies the whole payment confirmation in one transaction:
// stock is taken with a conditional decrement per line, the coupon redemption
// is counted, the payment row and the order are marked Paid. A decrement that
// matches no row aborts everything with ErrStockConflict and the order stays
// Pending.
func (r *OrderRepository) FinalizePaid(ctx context.Context, orderID, provider, providerRef string, payload []byte) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	type stockLine struct {
		productID string
		variantID *string
		quantity  int
	}
	var lines []stockLine

	rows, err := tx.Query(ctx, `SELECT productid, variantid, quantity FROM orderitems WHERE orderid=$1`, orderID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var l stockLine
		if err := rows.Scan(&l.productID, &l.variantID, &l.quantity); err != nil {
			rows.Close()
			return err
		}
		lines = append(lines, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for _, l := range lines {
		var tag pgconn.CommandTag
		if l.variantID != nil {
			tag, err = tx.Exec(ctx,
				`UPDATE productvariants SET stock = stock - $2 WHERE variantid=$1 AND stock >= $2`,
				*l.variantID, l.quantity)
		} else {
			tag, err = tx.Exec(ctx,
				`UPDATE products SET stock = stock - $2 WHERE productid=$1 AND stock >= $2`,
				l.productID, l.quantity)
		}
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: product %s", ErrStockConflict, l.productID)
		}
	}

	// The redemption is counted only now that the payment actually settled.
	if _, err := tx.Exec(ctx, `
		UPDATE promotions p
		SET usagecount = p.usagecount + 1
		FROM orders o
		WHERE o.orderid=$1 AND p.code = o.couponcode
	`, orderID); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE payments
		SET paymentstatus='Paid', paymentprovider=$2, providerref=$3, providerpayload=$4, paidat=NOW()
		WHERE orderid=$1 AND paymentstatus='Pending'
	`, orderID, provider, providerRef, payload); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE orders
		SET orderstatus='Paid', paymentstatus='Paid', updated_at=NOW()
		WHERE orderid=$1 AND orderstatus='Pending'
	`, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

// MarkCancelled moves a pending order to Cancelled/Failed after the gateway
// reported expiry, cancellation or denial. Stock was never taken for a
// pending order, so there is nothing to give back.
func (r *OrderRepository) MarkCancelled(ctx context.Context, orderID string, payload []byte) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE payments
		SET paymentstatus='Failed', providerpayload=$2
		WHERE orderid=$1 AND paymentstatus='Pending'
	`, orderID, payload); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE orders
		SET orderstatus='Cancelled', paymentstatus='Failed', updated_at=NOW()
		WHERE orderid=$1 AND orderstatus='Pending'
	`, orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

func insertItems(ctx context.Context, tx pgx.Tx, orderID string, items []model.PricedLine) error {
	query := `
		INSERT INTO orderitems (orderid, productid, variantid, name, quantity, priceatpurchase, stockatpurchase)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, it := range items {
		if _, err := tx.Exec(ctx, query,
			orderID, it.ProductID, it.VariantID, it.Name, it.Quantity,
			DecimalFromCents(it.UnitPriceCents), it.AvailableStock); err != nil {
			return err
		}
	}
	return nil
}

func marshalAddresses(o *model.Order) (shipAddr, billAddr []byte, err error) {
	shipAddr, err = json.Marshal(o.ShippingAddress)
	if err != nil {
		return nil, nil, fmt.Errorf("encode shipping address: %w", err)
	}
	if o.BillingAddress != nil {
		billAddr, err = json.Marshal(o.BillingAddress)
		if err != nil {
			return nil, nil, fmt.Errorf("encode billing address: %w", err)
		}
	}
	return shipAddr, billAddr, nil
}
