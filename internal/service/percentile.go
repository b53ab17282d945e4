package service

import (
	"math"
	"sort"

	"github.com/lakeshore-labs/compscout/internal/model"
)

// minUsableComps is the smallest sample a price band may be derived from.
// Fewer usable comps is not an error, just a reportable "no stable range".
const minUsableComps = 3

// percentile returns the p-th percentile of sorted ascending values using
// linear interpolation at index (n-1)*p.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := float64(n-1) * p
	lo := math.Floor(idx)
	hi := math.Ceil(idx)
	if lo == hi {
		return sorted[int(idx)]
	}
	frac := idx - lo
	return sorted[int(lo)]*(1-frac) + sorted[int(hi)]*frac
}

// usableClosePrices collects strictly positive close prices, sorted.
func usableClosePrices(comps []model.Listing) []float64 {
	var prices []float64
	for _, c := range comps {
		if c.ClosePrice > 0 {
			prices = append(prices, c.ClosePrice)
		}
	}
	sort.Float64s(prices)
	return prices
}

// usablePricePerArea collects close-price/area ratios for comps with both a
// positive close price and a positive area, sorted.
func usablePricePerArea(comps []model.Listing) []float64 {
	var ratios []float64
	for _, c := range comps {
		if c.ClosePrice > 0 && c.Sqft > 0 {
			ratios = append(ratios, c.ClosePrice/c.Sqft)
		}
	}
	sort.Float64s(ratios)
	return ratios
}

// computeStats returns percentile statistics over the usable close prices,
// or nil when the sample is too small.
func computeStats(comps []model.Listing) *model.CompStats {
	prices := usableClosePrices(comps)
	if len(prices) < minUsableComps {
		return nil
	}
	return &model.CompStats{
		P25: percentile(prices, 0.25),
		P50: percentile(prices, 0.50),
		P75: percentile(prices, 0.75),
		N:   len(prices),
	}
}

// computeRange derives the price band for a subject. When the subject's
// area is known and at least three price-per-area ratios exist, the band is
// the ratio percentiles scaled by the subject's area; otherwise it falls
// back to raw close-price percentiles. Returns nil when neither sample
// reaches three usable values.
func computeRange(subject *model.Listing, comps []model.Listing) *model.PriceRange {
	if subject != nil && subject.Sqft > 0 {
		if ratios := usablePricePerArea(comps); len(ratios) >= minUsableComps {
			return &model.PriceRange{
				Low:    int(percentile(ratios, 0.25) * subject.Sqft),
				Mid:    int(percentile(ratios, 0.50) * subject.Sqft),
				High:   int(percentile(ratios, 0.75) * subject.Sqft),
				Method: model.MethodPricePerArea,
			}
		}
	}

	prices := usableClosePrices(comps)
	if len(prices) < minUsableComps {
		return nil
	}
	return &model.PriceRange{
		Low:    int(percentile(prices, 0.25)),
		Mid:    int(percentile(prices, 0.50)),
		High:   int(percentile(prices, 0.75)),
		Method: model.MethodRawClosePrice,
	}
}

// dealVerdict classifies an actively listed subject against its computed
// band. The midpoint-distance ratio is still computed for fair deals, but
// both of its branches collapse to the same verdict; that matches the
// shipped product behavior and stays until product says otherwise.
func dealVerdict(subject *model.Listing, pr *model.PriceRange) string {
	if subject == nil || pr == nil {
		return ""
	}
	if subject.Status != model.StatusActive || subject.ListPrice <= 0 {
		return ""
	}

	list := subject.ListPrice
	switch {
	case list < float64(pr.Low):
		return model.DealUndervalued
	case list > float64(pr.High):
		return model.DealOverpriced
	}

	ratio := math.Abs(list-float64(pr.Mid)) / float64(pr.Mid)
	if ratio < 0.05 {
		return model.DealFair
	}
	return model.DealFair
}
