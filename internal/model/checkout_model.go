package model

// CartLine is one line of the cart as submitted by the storefront. Only the
// ids and the quantity are trusted; any price the client claims is discarded
// and replaced by the catalog price read server-side.
type CartLine struct {
	ProductID string  `json:"productId" validate:"required"`
	VariantID *string `json:"variantId,omitempty"`
	Quantity  int     `json:"quantity" validate:"required,gt=0"`
	UnitPrice int64   `json:"unitPrice,omitempty"`
}

// PricedLine is the server-priced replacement for a CartLine. AvailableStock
// is the stock observed when the line was priced; the line only exists if
// Quantity fit inside it.
type PricedLine struct {
	ProductID         string  `json:"productId"`
	VariantID         *string `json:"variantId,omitempty"`
	Name              string  `json:"name"`
	Quantity          int     `json:"quantity"`
	UnitPriceCents    int64   `json:"unitPriceCents"`
	LineSubtotalCents int64   `json:"lineSubtotalCents"`
	AvailableStock    int     `json:"availableStock"`
}

// OrderTotals is the authoritative totals breakdown for a checkout. All
// amounts are integer cents and total is always
// subtotal - discount + shipping + tax. PromoCode is the applied promotion in
// its stored casing, empty when no promotion applied.
type OrderTotals struct {
	SubtotalCents     int64        `json:"subtotalCents"`
	DiscountCents     int64        `json:"discountCents"`
	ShippingCostCents int64        `json:"shippingCostCents"`
	TaxCents          int64        `json:"taxCents"`
	TotalCents        int64        `json:"totalCents"`
	PromoCode         string       `json:"promoCode,omitempty"`
	Lines             []PricedLine `json:"lines"`
}
