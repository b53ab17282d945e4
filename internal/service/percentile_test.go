package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakeshore-labs/compscout/internal/model"
)

func TestPercentile(t *testing.T) {
	values := []float64{10, 20, 30, 40}

	assert.Equal(t, 25.0, percentile(values, 0.5), "interpolated at index 1.5")
	assert.Equal(t, 10.0, percentile(values, 0))
	assert.Equal(t, 40.0, percentile(values, 1))
	assert.InDelta(t, 17.5, percentile(values, 0.25), 1e-9)

	assert.Equal(t, 30.0, percentile([]float64{10, 30, 50}, 0.5), "exact index")
	assert.Equal(t, 0.0, percentile(nil, 0.5))
}

func closedComp(price, sqft float64) model.Listing {
	return model.Listing{Status: model.StatusClosed, ClosePrice: price, Sqft: sqft}
}

func TestComputeRange_InsufficientData(t *testing.T) {
	subject := &model.Listing{Sqft: 1500}

	assert.Nil(t, computeRange(subject, nil))
	assert.Nil(t, computeRange(subject, []model.Listing{closedComp(200000, 1400), closedComp(220000, 1500)}))

	// zero close prices are not usable
	comps := []model.Listing{
		closedComp(0, 1400), closedComp(0, 1500), closedComp(0, 1600),
	}
	assert.Nil(t, computeRange(subject, comps))
}

func TestComputeRange_PricePerArea(t *testing.T) {
	subject := &model.Listing{Sqft: 1000}
	comps := []model.Listing{
		closedComp(100000, 1000), // 100/sqft
		closedComp(300000, 1500), // 200/sqft
		closedComp(450000, 1500), // 300/sqft
	}

	pr := computeRange(subject, comps)
	require.NotNil(t, pr)
	assert.Equal(t, model.MethodPricePerArea, pr.Method)
	assert.Equal(t, 150000, pr.Low)
	assert.Equal(t, 200000, pr.Mid)
	assert.Equal(t, 250000, pr.High)
	assert.LessOrEqual(t, pr.Low, pr.Mid)
	assert.LessOrEqual(t, pr.Mid, pr.High)
}

func TestComputeRange_FallsBackToRawPrices(t *testing.T) {
	// subject area unknown: raw close-price percentiles
	subject := &model.Listing{}
	comps := []model.Listing{
		closedComp(200000, 0),
		closedComp(250000, 0),
		closedComp(300000, 0),
	}

	pr := computeRange(subject, comps)
	require.NotNil(t, pr)
	assert.Equal(t, model.MethodRawClosePrice, pr.Method)
	assert.Equal(t, 225000, pr.Low)
	assert.Equal(t, 250000, pr.Mid)
	assert.Equal(t, 275000, pr.High)
}

func TestComputeRange_AreaKnownButRatiosSparse(t *testing.T) {
	// only two comps carry an area: the adjusted method cannot be used,
	// but four usable close prices still produce a raw band
	subject := &model.Listing{Sqft: 1200}
	comps := []model.Listing{
		closedComp(200000, 1200),
		closedComp(240000, 1300),
		closedComp(260000, 0),
		closedComp(280000, 0),
	}

	pr := computeRange(subject, comps)
	require.NotNil(t, pr)
	assert.Equal(t, model.MethodRawClosePrice, pr.Method)
}

func TestComputeStats(t *testing.T) {
	comps := []model.Listing{
		closedComp(10, 0), closedComp(20, 0), closedComp(30, 0), closedComp(40, 0),
	}
	stats := computeStats(comps)
	require.NotNil(t, stats)
	assert.Equal(t, 4, stats.N)
	assert.Equal(t, 25.0, stats.P50)

	assert.Nil(t, computeStats(comps[:2]))
}

func TestDealVerdict(t *testing.T) {
	pr := &model.PriceRange{Low: 200000, Mid: 250000, High: 300000, Method: model.MethodRawClosePrice}

	active := func(list float64) *model.Listing {
		return &model.Listing{Status: model.StatusActive, ListPrice: list}
	}

	assert.Equal(t, model.DealUndervalued, dealVerdict(active(180000), pr))
	assert.Equal(t, model.DealOverpriced, dealVerdict(active(320000), pr))
	assert.Equal(t, model.DealFair, dealVerdict(active(250000), pr))
	// far from the midpoint but inside the band still collapses to fair
	assert.Equal(t, model.DealFair, dealVerdict(active(205000), pr))

	assert.Empty(t, dealVerdict(nil, pr))
	assert.Empty(t, dealVerdict(active(250000), nil))
	assert.Empty(t, dealVerdict(&model.Listing{Status: model.StatusClosed, ListPrice: 250000}, pr))
	assert.Empty(t, dealVerdict(&model.Listing{Status: model.StatusActive}, pr))
}
