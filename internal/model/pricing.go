package model

// Price-range derivation methods.
const (
	MethodPricePerArea  = "price-per-area"
	MethodRawClosePrice = "raw-close-price"
)

// Deal-quality verdicts.
const (
	DealUndervalued = "Undervalued"
	DealOverpriced  = "Overpriced"
	DealFair        = "Fair"
)

// CompStats holds percentile statistics over the usable comparable sales.
type CompStats struct {
	P25 float64 `json:"p25"`
	P50 float64 `json:"p50"`
	P75 float64 `json:"p75"`
	N   int     `json:"n"`
}

// PriceRange is the derived price band for a subject property.
// Low <= Mid <= High always holds; a range is never produced from fewer
// than three usable comparables.
type PriceRange struct {
	Low    int    `json:"low"`
	Mid    int    `json:"mid"`
	High   int    `json:"high"`
	Method string `json:"method"`
}
