package model

// ProductSnapshot is the slice of a products row the pricing and delivery
// paths need. Price is integer cents; the NUMERIC column is converted at the
// repository boundary and nowhere else.
type ProductSnapshot struct {
	ProductID      string `json:"productId"`
	Name           string `json:"name"`
	PriceCents     int64  `json:"priceCents"`
	Stock          int    `json:"stock"`
	ProcessingDays int    `json:"processingDays"`
}

// VariantSnapshot is one row of productvariants. A variant tracks its own
// stock; price always comes from the parent product.
type VariantSnapshot struct {
	VariantID  string            `json:"variantId"`
	ProductID  string            `json:"productId"`
	SKU        string            `json:"sku"`
	Stock      int               `json:"stock"`
	Attributes map[string]string `json:"attributes,omitempty"`
}
