package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/lakeshore-labs/compscout/internal/model"
)

// RESO Web API field names used in catalog filters.
const (
	FieldListingKey   = "ListingKey"
	FieldAddress      = "UnparsedAddress"
	FieldCity         = "City"
	FieldCounty       = "CountyOrParish"
	FieldState        = "StateOrProvince"
	FieldZip          = "PostalCode"
	FieldListPrice    = "ListPrice"
	FieldClosePrice   = "ClosePrice"
	FieldBeds         = "BedroomsTotal"
	FieldBaths        = "BathroomsTotalInteger"
	FieldLivingArea   = "LivingArea"
	FieldPropertyType = "PropertyType"
	FieldStatus       = "StandardStatus"
	FieldCloseDate    = "CloseDate"
	FieldModified     = "ModificationTimestamp"
	FieldMLSArea      = "MLSAreaMajor"
)

// Catalog property types.
const (
	TypeResidential = "Residential"
	TypeIncome      = "Residential Income"
	TypeCommercial  = "Commercial Sale"
	TypeLease       = "Residential Lease"
)

// Counties is the fixed allowlist every returned listing must belong to.
var Counties = []string{"Erie", "Crawford", "Warren"}

// Escape doubles embedded single quotes so a value is safe inside an
// OData string literal.
func Escape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// Eq builds an equality predicate: Field eq 'value'.
func Eq(field, value string) string {
	return fmt.Sprintf("%s eq '%s'", field, Escape(value))
}

// Contains builds a case-insensitive substring predicate.
func Contains(field, value string) string {
	return fmt.Sprintf("contains(tolower(%s), '%s')", field, Escape(strings.ToLower(value)))
}

// Ge and Le build numeric range predicates.
func Ge(field string, n int) string { return fmt.Sprintf("%s ge %d", field, n) }
func Le(field string, n int) string { return fmt.Sprintf("%s le %d", field, n) }

// DateGe builds a date lower-bound predicate in the catalog's ISO format.
func DateGe(field string, t time.Time) string {
	return fmt.Sprintf("%s ge %s", field, t.UTC().Format("2006-01-02T15:04:05Z"))
}

// OrGroup wraps predicates in a parenthesized OR sub-expression.
func OrGroup(preds ...string) string {
	if len(preds) == 1 {
		return preds[0]
	}
	return "(" + strings.Join(preds, " or ") + ")"
}

// And joins predicates with " and ", skipping empty ones.
func And(preds ...string) string {
	parts := make([]string, 0, len(preds))
	for _, p := range preds {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " and ")
}

// CountyClause restricts results to the fixed county allowlist.
func CountyClause() string {
	preds := make([]string, len(Counties))
	for i, c := range Counties {
		preds[i] = Eq(FieldCounty, c)
	}
	return OrGroup(preds...)
}

// LocationClause matches a free location term against city, county, and
// street address.
func LocationClause(term string) string {
	return OrGroup(
		Contains(FieldCity, term),
		Contains(FieldCounty, term),
		Contains(FieldAddress, term),
	)
}

// AreaNumClause matches a numeric MLS area against values like "5 - Fairview"
// without a plain substring match, which would also hit "15 - ...". It uses
// startswith plus a lexicographic range [prefix, nextPrefix).
func AreaNumClause(n int) string {
	prefix := fmt.Sprintf("%d ", n)
	next := nextPrefix(prefix)
	return OrGroup(
		fmt.Sprintf("startswith(%s, '%s')", FieldMLSArea, Escape(prefix)),
		fmt.Sprintf("(%s ge '%s' and %s lt '%s')", FieldMLSArea, Escape(prefix), FieldMLSArea, Escape(next)),
	)
}

// nextPrefix returns the smallest string lexicographically greater than
// every string with the given prefix.
func nextPrefix(prefix string) string {
	b := []byte(prefix)
	b[len(b)-1]++
	return string(b)
}

// PriceField returns the field price comparisons run against: list price
// for active/pending statuses, close price once a sale has closed.
func PriceField(status string) string {
	if status == model.StatusClosed {
		return FieldClosePrice
	}
	return FieldListPrice
}

// FilterParts is a search filter decomposed into the pieces the relaxation
// ladder drops independently.
type FilterParts struct {
	Base []string // always-on predicates

	Geo  string // location OR-clause, "" when no location
	Area string // MLS area clause, "" when none

	PropertyType     string // property-type clause, "" when none
	PropertyTypeSoft bool   // type is a role preference, not user-explicit
	IncomeExplicit   bool   // user explicitly asked for income/multi-family
}

// Compose joins the parts into one AND-ed filter, optionally dropping the
// property-type clause and/or the MLS area clause.
func (p FilterParts) Compose(dropType, dropArea bool) string {
	preds := append([]string{}, p.Base...)
	if p.Geo != "" {
		preds = append(preds, p.Geo)
	}
	if p.Area != "" && !dropArea {
		preds = append(preds, p.Area)
	}
	if p.PropertyType != "" && !dropType {
		preds = append(preds, p.PropertyType)
	}
	return And(preds...)
}

// BuildSearchFilter turns a search intent plus the caller's role into
// filter parts. The role contributes only a soft property-type preference;
// explicit intent signals always win.
func BuildSearchFilter(intent model.SearchIntent, role string, now time.Time) FilterParts {
	parts := FilterParts{}
	parts.Base = append(parts.Base, CountyClause())

	parts.Base = append(parts.Base, Eq(FieldStatus, intent.Status))

	priceField := PriceField(intent.Status)
	if intent.PriceMin != nil {
		parts.Base = append(parts.Base, Ge(priceField, *intent.PriceMin))
	}
	if intent.PriceMax != nil {
		parts.Base = append(parts.Base, Le(priceField, *intent.PriceMax))
	}
	if intent.BedsMin != nil {
		parts.Base = append(parts.Base, Ge(FieldBeds, *intent.BedsMin))
	}
	if intent.Zip != nil {
		parts.Base = append(parts.Base, Eq(FieldZip, *intent.Zip))
	}
	if intent.SoldWithinDays != nil && intent.Status == model.StatusClosed {
		parts.Base = append(parts.Base, DateGe(FieldCloseDate, now.AddDate(0, 0, -*intent.SoldWithinDays)))
	}

	if intent.Location != nil {
		parts.Geo = LocationClause(*intent.Location)
	}
	if intent.MLSArea != nil {
		parts.Area = Eq(FieldMLSArea, *intent.MLSArea)
	} else if intent.MLSAreaNum != nil {
		parts.Area = AreaNumClause(*intent.MLSAreaNum)
	}

	switch {
	case intent.WantLease:
		parts.PropertyType = Eq(FieldPropertyType, TypeLease)
	case intent.WantCommercial:
		parts.PropertyType = Eq(FieldPropertyType, TypeCommercial)
	case intent.WantIncome:
		parts.PropertyType = Eq(FieldPropertyType, TypeIncome)
		parts.IncomeExplicit = true
	case intent.WantResidential:
		parts.PropertyType = Eq(FieldPropertyType, TypeResidential)
	case role == "investor":
		parts.PropertyType = Eq(FieldPropertyType, TypeIncome)
		parts.PropertyTypeSoft = true
	case role == "buyer" || role == "seller" || role == "realtor":
		parts.PropertyType = Eq(FieldPropertyType, TypeResidential)
		parts.PropertyTypeSoft = true
	}

	return parts
}
