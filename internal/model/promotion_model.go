package model

import "time"

type PromotionKind string

const (
	PromotionPercentage  PromotionKind = "percentage"
	PromotionFixedAmount PromotionKind = "fixed_amount"
)

// PromotionDescriptor is a promo code that already passed validation and is
// ready to apply. Value is whole percent for percentage promotions and cents
// for fixed_amount ones.
type PromotionDescriptor struct {
	Code             string        `json:"code"`
	Kind             PromotionKind `json:"kind"`
	Value            int64         `json:"value"`
	MinSubtotalCents int64         `json:"minSubtotalCents,omitempty"`
}

// Promotion is a row in the promotions table.
type Promotion struct {
	PromotionID      string        `json:"promotionId"`
	Code             string        `json:"code"`
	Kind             PromotionKind `json:"kind"`
	Value            int64         `json:"value"`
	MinSubtotalCents int64         `json:"minSubtotalCents,omitempty"`
	ExpiresAt        *time.Time    `json:"expiresAt,omitempty"`
	UsageLimit       *int          `json:"usageLimit,omitempty"`
	UsageCount       int           `json:"usageCount"`
}
