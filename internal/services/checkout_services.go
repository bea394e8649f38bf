package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/topsucces-code/mientior-backend/internal/model"
	"github.com/topsucces-code/mientior-backend/internal/repository"
)

// CatalogReader is the slice of CatalogRepository the pricing engine needs.
type CatalogReader interface {
	GetProduct(ctx context.Context, productID string) (*model.ProductSnapshot, error)
	GetVariant(ctx context.Context, variantID string) (*model.VariantSnapshot, error)
}

// PromotionResolver validates a promo code against a subtotal.
type PromotionResolver interface {
	Resolve(ctx context.Context, code string, subtotalCents int64) (*model.PromotionDescriptor, error)
}

// CheckoutService owns totals computation. It reads the catalog and never
// writes anything: stock is only checked here, not reserved.
type CheckoutService struct {
	Catalog    CatalogReader
	Promotions PromotionResolver
	Shipping   *ShippingRates
	TaxRateBps int64
}

func NewCheckoutService(catalog CatalogReader, promotions PromotionResolver, shipping *ShippingRates, taxRateBps int64) *CheckoutService {
	return &CheckoutService{
		Catalog:    catalog,
		Promotions: promotions,
		Shipping:   shipping,
		TaxRateBps: taxRateBps,
	}
}

// ComputeOrderTotals re-prices the submitted cart against the catalog and
// returns the authoritative breakdown. Client-claimed prices are discarded.
// Steps run in a fixed order: validate lines, price them, apply the
// promotion to the subtotal, price shipping against the pre-discount
// subtotal, then tax the discounted subtotal. The first failing line aborts
// the whole computation.
func (s *CheckoutService) ComputeOrderTotals(ctx context.Context, lines []model.CartLine, shippingOptionID, promoCode string) (*model.OrderTotals, error) {
	if len(lines) == 0 {
		return nil, &ValidationError{Field: "items", Message: "cart is empty"}
	}
	opt, ok := s.Shipping.Get(shippingOptionID)
	if !ok {
		return nil, &InvalidShippingOptionError{Option: shippingOptionID}
	}

	priced := make([]model.PricedLine, 0, len(lines))
	var subtotal int64
	for _, line := range lines {
		if line.ProductID == "" {
			return nil, &ValidationError{Field: "productId", Message: "product id is required"}
		}
		if line.Quantity <= 0 {
			return nil, &ValidationError{
				Field:   "quantity",
				Message: fmt.Sprintf("quantity for product %s must be a positive integer", line.ProductID),
			}
		}

		product, err := s.Catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, &ProductNotFoundError{ProductID: line.ProductID}
			}
			return nil, &StoreUnavailableError{Err: err}
		}

		available := product.Stock
		if line.VariantID != nil && *line.VariantID != "" {
			variant, err := s.Catalog.GetVariant(ctx, *line.VariantID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return nil, &ProductNotFoundError{ProductID: line.ProductID, VariantID: *line.VariantID}
				}
				return nil, &StoreUnavailableError{Err: err}
			}
			if variant.ProductID != product.ProductID {
				return nil, &ProductNotFoundError{ProductID: line.ProductID, VariantID: *line.VariantID}
			}
			available = variant.Stock
		}

		// optimistic admission check; the hard guarantee is the conditional
		// decrement at payment confirmation
		if line.Quantity > available {
			return nil, &InsufficientStockError{
				ProductID: line.ProductID,
				VariantID: line.VariantID,
				Requested: line.Quantity,
				Available: available,
			}
		}

		lineSubtotal := product.PriceCents * int64(line.Quantity)
		priced = append(priced, model.PricedLine{
			ProductID:         product.ProductID,
			VariantID:         line.VariantID,
			Name:              product.Name,
			Quantity:          line.Quantity,
			UnitPriceCents:    product.PriceCents,
			LineSubtotalCents: lineSubtotal,
			AvailableStock:    available,
		})
		subtotal += lineSubtotal
	}

	var discount int64
	var appliedCode string
	if promoCode != "" {
		desc, err := s.Promotions.Resolve(ctx, promoCode, subtotal)
		if err != nil {
			return nil, err
		}
		discount = discountFor(desc, subtotal)
		// the descriptor carries the stored casing, not the shopper's input
		appliedCode = desc.Code
	}

	// free shipping keys off the subtotal before any discount
	shippingCost := s.Shipping.CostFor(opt, subtotal)

	taxable := subtotal - discount
	tax := roundDiv(taxable*s.TaxRateBps, 10000)
	total := subtotal - discount + shippingCost + tax

	return &model.OrderTotals{
		SubtotalCents:     subtotal,
		DiscountCents:     discount,
		ShippingCostCents: shippingCost,
		TaxCents:          tax,
		TotalCents:        total,
		PromoCode:         appliedCode,
		Lines:             priced,
	}, nil
}

// discountFor applies a descriptor to the pre-tax, pre-shipping subtotal.
// Fixed amounts are capped at the subtotal so a total can never go negative.
func discountFor(p *model.PromotionDescriptor, subtotalCents int64) int64 {
	switch p.Kind {
	case model.PromotionPercentage:
		return roundDiv(subtotalCents*p.Value, 100)
	case model.PromotionFixedAmount:
		if p.Value < 0 {
			return 0
		}
		if p.Value > subtotalCents {
			return subtotalCents
		}
		return p.Value
	default:
		return 0
	}
}

// roundDiv divides num by den rounding half away from zero. Operands are
// non-negative on every call path; plain truncation would systematically
// under-collect tax.
func roundDiv(num, den int64) int64 {
	return (num + den/2) / den
}
