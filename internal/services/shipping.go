package services

// Shipping option ids accepted at checkout.
const (
	ShippingStandard  = "standard"
	ShippingExpress   = "express"
	ShippingOvernight = "overnight"
	ShippingPickup    = "pickup"
)

// ShippingOption is one rate in the static shipping table.
type ShippingOption struct {
	ID             string `json:"id"`
	Label          string `json:"label"`
	PriceCents     int64  `json:"priceCents"`
	MinTransitDays int    `json:"minTransitDays"`
	MaxTransitDays int    `json:"maxTransitDays"`
}

// ShippingRates holds the shipping table plus the free-shipping threshold.
// The table is compiled in; rates change rarely enough that a deploy is fine.
type ShippingRates struct {
	options   []ShippingOption
	threshold int64
}

func NewShippingRates(freeShippingThresholdCents int64) *ShippingRates {
	return &ShippingRates{
		options: []ShippingOption{
			{ID: ShippingStandard, Label: "Standard", PriceCents: 500, MinTransitDays: 3, MaxTransitDays: 7},
			{ID: ShippingExpress, Label: "Express", PriceCents: 1200, MinTransitDays: 2, MaxTransitDays: 3},
			{ID: ShippingOvernight, Label: "Overnight", PriceCents: 2500, MinTransitDays: 1, MaxTransitDays: 1},
			{ID: ShippingPickup, Label: "Store pickup", PriceCents: 0, MinTransitDays: 0, MaxTransitDays: 0},
		},
		threshold: freeShippingThresholdCents,
	}
}

func (t *ShippingRates) Get(id string) (ShippingOption, bool) {
	for _, opt := range t.options {
		if opt.ID == id {
			return opt, true
		}
	}
	return ShippingOption{}, false
}

func (t *ShippingRates) Options() []ShippingOption {
	out := make([]ShippingOption, len(t.options))
	copy(out, t.options)
	return out
}

// CostFor prices the chosen option against the pre-discount subtotal. Free
// shipping waives the standard rate only; expedited options always charge
// list price.
func (t *ShippingRates) CostFor(opt ShippingOption, subtotalCents int64) int64 {
	if opt.ID == ShippingStandard && t.threshold > 0 && subtotalCents >= t.threshold {
		return 0
	}
	return opt.PriceCents
}
