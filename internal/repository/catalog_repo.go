package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/topsucces-code/mientior-backend/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type CatalogRepository struct {
	DB DB
}

func NewCatalogRepository(db DB) *CatalogRepository {
	return &CatalogRepository{DB: db}
}

// GetProduct loads the pricing snapshot for one live product.
func (r *CatalogRepository) GetProduct(ctx context.Context, productID string) (*model.ProductSnapshot, error) {
	if !validUUID(productID) {
		return nil, ErrNotFound
	}
	var (
		p     model.ProductSnapshot
		price decimal.Decimal
	)
	query := `
		SELECT productid, name, price, stock, processingdays
		FROM products
		WHERE productid=$1 AND deleted_at IS NULL
	`
	if err := r.DB.
		QueryRow(ctx, query, productID).
		Scan(&p.ProductID, &p.Name, &price, &p.Stock, &p.ProcessingDays); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.PriceCents = CentsFromDecimal(price)
	return &p, nil
}

// GetVariant loads one variant row. The caller is expected to check that the
// variant actually belongs to the product it was submitted with.
func (r *CatalogRepository) GetVariant(ctx context.Context, variantID string) (*model.VariantSnapshot, error) {
	if !validUUID(variantID) {
		return nil, ErrNotFound
	}
	var (
		v     model.VariantSnapshot
		attrs []byte
	)
	query := `
		SELECT variantid, productid, sku, stock, attributes
		FROM productvariants
		WHERE variantid=$1
	`
	if err := r.DB.
		QueryRow(ctx, query, variantID).
		Scan(&v.VariantID, &v.ProductID, &v.SKU, &v.Stock, &attrs); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &v.Attributes); err != nil {
			return nil, fmt.Errorf("decode variant attributes: %w", err)
		}
	}
	return &v, nil
}
