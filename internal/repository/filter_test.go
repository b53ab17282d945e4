package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakeshore-labs/compscout/internal/model"
)

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

func TestEscape(t *testing.T) {
	assert.Equal(t, "o''brien", Escape("o'brien"))
	assert.Equal(t, "it''''s", Escape("it''s"))
	assert.Equal(t, "plain", Escape("plain"))
}

func TestPredicates(t *testing.T) {
	assert.Equal(t, "City eq 'Erie'", Eq(FieldCity, "Erie"))
	assert.Equal(t, "contains(tolower(City), 'o''brien')", Contains(FieldCity, "O'Brien"))
	assert.Equal(t, "ListPrice ge 100000", Ge(FieldListPrice, 100000))
	assert.Equal(t, "ListPrice le 250000", Le(FieldListPrice, 250000))

	ts := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, "CloseDate ge 2026-01-15T10:30:00Z", DateGe(FieldCloseDate, ts))
}

func TestOrGroupAndAnd(t *testing.T) {
	assert.Equal(t, "a", OrGroup("a"), "single predicate stays bare")
	assert.Equal(t, "(a or b)", OrGroup("a", "b"))
	assert.Equal(t, "a and b", And("a", "", "b"), "empty predicates are skipped")
}

func TestCountyClause(t *testing.T) {
	clause := CountyClause()
	assert.Equal(t, "(CountyOrParish eq 'Erie' or CountyOrParish eq 'Crawford' or CountyOrParish eq 'Warren')", clause)
}

func TestAreaNumClause(t *testing.T) {
	clause := AreaNumClause(5)
	assert.Contains(t, clause, "startswith(MLSAreaMajor, '5 ')")
	assert.Contains(t, clause, "MLSAreaMajor ge '5 '")
	assert.Contains(t, clause, "MLSAreaMajor lt '5!'")
	// the trailing space keeps "5 - Fairview" in and "15 - Harborcreek" out
	assert.NotContains(t, clause, "'15")
}

func TestPriceField(t *testing.T) {
	assert.Equal(t, FieldClosePrice, PriceField(model.StatusClosed))
	assert.Equal(t, FieldListPrice, PriceField(model.StatusActive))
	assert.Equal(t, FieldListPrice, PriceField(model.StatusPending))
}

func TestCompose_DropsIndependently(t *testing.T) {
	parts := FilterParts{
		Base:         []string{"base1", "base2"},
		Geo:          "geo",
		Area:         "area",
		PropertyType: "ptype",
	}

	assert.Equal(t, "base1 and base2 and geo and area and ptype", parts.Compose(false, false))
	assert.Equal(t, "base1 and base2 and geo and area", parts.Compose(true, false))
	assert.Equal(t, "base1 and base2 and geo and ptype", parts.Compose(false, true))
	assert.Equal(t, "base1 and base2 and geo", parts.Compose(true, true))
}

func TestBuildSearchFilter_FullIntent(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	intent := model.SearchIntent{
		Status:         model.StatusClosed,
		PriceMin:       intPtr(100000),
		PriceMax:       intPtr(250000),
		BedsMin:        intPtr(3),
		Zip:            strPtr("16501"),
		Location:       strPtr("erie"),
		SoldWithinDays: intPtr(90),
	}

	parts := BuildSearchFilter(intent, "", now)
	filter := parts.Compose(false, false)

	assert.Contains(t, filter, CountyClause())
	assert.Contains(t, filter, "StandardStatus eq 'Closed'")
	assert.Contains(t, filter, "ClosePrice ge 100000")
	assert.Contains(t, filter, "ClosePrice le 250000")
	assert.Contains(t, filter, "BedroomsTotal ge 3")
	assert.Contains(t, filter, "PostalCode eq '16501'")
	assert.Contains(t, filter, "CloseDate ge 2026-03-03T00:00:00Z")
	assert.Contains(t, filter, "contains(tolower(City), 'erie')")
	assert.NotContains(t, filter, "ListPrice")
}

func TestBuildSearchFilter_SoldWindowIgnoredWhenNotClosed(t *testing.T) {
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	intent := model.SearchIntent{Status: model.StatusActive, SoldWithinDays: intPtr(90)}

	filter := BuildSearchFilter(intent, "", now).Compose(false, false)
	assert.NotContains(t, filter, "CloseDate")
}

func TestBuildSearchFilter_ExplicitTypeBeatsRole(t *testing.T) {
	intent := model.SearchIntent{Status: model.StatusActive, WantIncome: true}
	parts := BuildSearchFilter(intent, "buyer", time.Now())

	assert.Equal(t, Eq(FieldPropertyType, TypeIncome), parts.PropertyType)
	assert.True(t, parts.IncomeExplicit)
	assert.False(t, parts.PropertyTypeSoft)
}

func TestBuildSearchFilter_RolePreferences(t *testing.T) {
	intent := model.SearchIntent{Status: model.StatusActive}

	investor := BuildSearchFilter(intent, "investor", time.Now())
	assert.Equal(t, Eq(FieldPropertyType, TypeIncome), investor.PropertyType)
	assert.True(t, investor.PropertyTypeSoft)

	buyer := BuildSearchFilter(intent, "buyer", time.Now())
	assert.Equal(t, Eq(FieldPropertyType, TypeResidential), buyer.PropertyType)
	assert.True(t, buyer.PropertyTypeSoft)

	none := BuildSearchFilter(intent, "", time.Now())
	assert.Empty(t, none.PropertyType)
}

func TestBuildSearchFilter_LeaseWinsOverOtherTypes(t *testing.T) {
	intent := model.SearchIntent{Status: model.StatusActive, WantLease: true, WantIncome: true}
	parts := BuildSearchFilter(intent, "", time.Now())

	assert.Equal(t, Eq(FieldPropertyType, TypeLease), parts.PropertyType)
	assert.False(t, parts.IncomeExplicit)
}

func TestBuildSearchFilter_MLSAreaVariants(t *testing.T) {
	named := model.SearchIntent{Status: model.StatusActive, MLSArea: strPtr("Erie Northeast")}
	parts := BuildSearchFilter(named, "", time.Now())
	assert.Equal(t, "MLSAreaMajor eq 'Erie Northeast'", parts.Area)

	numeric := model.SearchIntent{Status: model.StatusActive, MLSAreaNum: intPtr(5)}
	parts = BuildSearchFilter(numeric, "", time.Now())
	require.NotEmpty(t, parts.Area)
	assert.Contains(t, parts.Area, "startswith(MLSAreaMajor, '5 ')")
}
