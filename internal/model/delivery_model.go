package model

import "time"

// DeliveryEstimate is one shipping option's projected delivery window for a
// product. Dates are day-granular UTC.
type DeliveryEstimate struct {
	ShippingOption string    `json:"shippingOption"`
	MinDate        time.Time `json:"minDate"`
	MaxDate        time.Time `json:"maxDate"`
	ProcessingDays int       `json:"processingDays"`
	IsBackordered  bool      `json:"isBackordered"`
}

// DeliveryEstimateResult wraps the estimates for one product/variant with
// cache provenance. Cached is never stored; it is set per response.
type DeliveryEstimateResult struct {
	ProductID string             `json:"productId"`
	VariantID *string            `json:"variantId,omitempty"`
	Estimates []DeliveryEstimate `json:"estimates"`
	Cached    bool               `json:"cached"`
}
