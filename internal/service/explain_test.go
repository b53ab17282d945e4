package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lakeshore-labs/compscout/internal/model"
)

func TestBuildPricingTrail_Order(t *testing.T) {
	a := NewAssembler(nil, zap.NewNop())

	subject := &model.Listing{Address: "123 Main St", City: "Erie", Status: model.StatusActive}
	stats := &model.CompStats{P25: 200000, P50: 250000, P75: 300000, N: 8}
	pr := &model.PriceRange{Low: 200000, Mid: 250000, High: 300000, Method: model.MethodRawClosePrice}

	trail := a.BuildPricingTrail(subject, stats, pr, model.DealFair,
		[]string{NoteWidenedWindow}, []string{"Comparable sales are weighted by recency."})

	require.Len(t, trail, 6)
	assert.Contains(t, trail[0], "123 Main St")
	assert.Contains(t, trail[1], "8 comparable closed sales")
	assert.Equal(t, NoteWidenedWindow, trail[2])
	assert.Contains(t, trail[3], "$200000 - $300000")
	assert.Contains(t, trail[4], "fair deal")
	assert.Contains(t, trail[5], "weighted by recency")
}

func TestBuildPricingTrail_MarketLevelNoRange(t *testing.T) {
	a := NewAssembler(nil, zap.NewNop())

	trail := a.BuildPricingTrail(nil, nil, nil, "", []string{NoteSparseComps}, nil)

	require.Len(t, trail, 3)
	assert.Contains(t, trail[0], "market level")
	assert.Equal(t, NoteSparseComps, trail[1])
	assert.Contains(t, trail[2], "Could not compute a stable price range")
}

func TestBuildPricingTrail_CapsNotes(t *testing.T) {
	a := NewAssembler(nil, zap.NewNop())

	notes := []string{"n1", "n2", "n3", "n4", "n5"}
	trail := a.BuildPricingTrail(nil, nil, nil, "", notes, nil)

	assert.Contains(t, trail, "n3")
	assert.NotContains(t, trail, "n4")
}

func TestBuildPricingTrail_PerAreaMethodSentence(t *testing.T) {
	a := NewAssembler(nil, zap.NewNop())

	pr := &model.PriceRange{Low: 150000, Mid: 200000, High: 250000, Method: model.MethodPricePerArea}
	trail := a.BuildPricingTrail(nil, nil, pr, "", nil, nil)

	assert.Contains(t, trail[1], "price per square foot")
}

func TestFetchMethodology_NilClient(t *testing.T) {
	a := NewAssembler(nil, zap.NewNop())
	assert.Nil(t, a.FetchMethodology(context.Background(), "anything"))
}
