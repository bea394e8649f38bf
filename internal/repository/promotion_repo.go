package repository

import (
	"context"
	"errors"

	"github.com/topsucces-code/mientior-backend/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type PromotionRepository struct {
	DB DB
}

func NewPromotionRepository(db DB) *PromotionRepository {
	return &PromotionRepository{DB: db}
}

// GetByCode looks a promo code up case-insensitively. Value is normalized to
// the integer unit the pricing engine computes with: whole percent for
// percentage promotions, cents for fixed amounts.
func (r *PromotionRepository) GetByCode(ctx context.Context, code string) (*model.Promotion, error) {
	var (
		p           model.Promotion
		value       decimal.Decimal
		minSubtotal decimal.NullDecimal
	)
	query := `
		SELECT promotionid, code, kind, value, minsubtotal, expiresat, usagelimit, usagecount
		FROM promotions
		WHERE UPPER(code)=UPPER($1)
	`
	if err := r.DB.
		QueryRow(ctx, query, code).
		Scan(&p.PromotionID, &p.Code, &p.Kind, &value, &minSubtotal, &p.ExpiresAt, &p.UsageLimit, &p.UsageCount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	switch p.Kind {
	case model.PromotionPercentage:
		p.Value = value.Round(0).IntPart()
	default:
		p.Value = CentsFromDecimal(value)
	}
	if minSubtotal.Valid {
		p.MinSubtotalCents = CentsFromDecimal(minSubtotal.Decimal)
	}
	return &p, nil
}
