package services

import (
	"context"
	"errors"
	"time"

	"github.com/topsucces-code/mientior-backend/internal/model"
	"github.com/topsucces-code/mientior-backend/internal/repository"
)

// PromotionStore is the slice of PromotionRepository the resolver needs.
type PromotionStore interface {
	GetByCode(ctx context.Context, code string) (*model.Promotion, error)
}

type PromotionService struct {
	Repo PromotionStore
}

func NewPromotionService(r PromotionStore) *PromotionService {
	return &PromotionService{Repo: r}
}

// Resolve validates a promo code against the current pre-discount subtotal
// and returns the descriptor to apply. Every rejection is a
// *PromotionInvalidError carrying a machine-readable reason; checks run in a
// fixed order so the storefront always shows the same message for the same
// state.
func (s *PromotionService) Resolve(ctx context.Context, code string, subtotalCents int64) (*model.PromotionDescriptor, error) {
	promo, err := s.Repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &PromotionInvalidError{Code: code, Reason: PromoReasonNotFound}
		}
		return nil, &StoreUnavailableError{Err: err}
	}

	if promo.ExpiresAt != nil && time.Now().After(*promo.ExpiresAt) {
		return nil, &PromotionInvalidError{Code: code, Reason: PromoReasonExpired}
	}
	if promo.UsageLimit != nil && promo.UsageCount >= *promo.UsageLimit {
		return nil, &PromotionInvalidError{Code: code, Reason: PromoReasonExhausted}
	}
	if promo.MinSubtotalCents > 0 && subtotalCents < promo.MinSubtotalCents {
		return nil, &PromotionInvalidError{Code: code, Reason: PromoReasonBelowMinimum}
	}

	value := promo.Value
	if promo.Kind == model.PromotionPercentage {
		// a misconfigured row must not distort totals
		if value < 0 {
			value = 0
		}
		if value > 100 {
			value = 100
		}
	}

	return &model.PromotionDescriptor{
		Code:             promo.Code,
		Kind:             promo.Kind,
		Value:            value,
		MinSubtotalCents: promo.MinSubtotalCents,
	}, nil
}
