package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lakeshore-labs/compscout/internal/model"
	"github.com/lakeshore-labs/compscout/internal/repository"
)

// fakeCompSource answers catalog queries through a caller-supplied respond
// function. Locked because the engine issues window fetches concurrently.
type fakeCompSource struct {
	mu      sync.Mutex
	respond func(q repository.PropertyQuery) []model.Listing
	byKey   map[string]*model.Listing
	queries []repository.PropertyQuery
}

func (f *fakeCompSource) Query(_ context.Context, q repository.PropertyQuery) ([]model.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.respond == nil {
		return nil, nil
	}
	return f.respond(q), nil
}

func (f *fakeCompSource) GetByKey(_ context.Context, key string) (*model.Listing, error) {
	return f.byKey[key], nil
}

func testEngine(source CompSource) *PricingEngine {
	e := NewPricingEngine(source, 50, zap.NewNop())
	e.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return e
}

func TestResolveSubject_ByKey(t *testing.T) {
	want := &model.Listing{ID: "key-1"}
	fake := &fakeCompSource{byKey: map[string]*model.Listing{"key-1": want}}
	e := testEngine(fake)

	got, err := e.ResolveSubject(context.Background(), "key-1", model.AddressParts{})
	require.NoError(t, err)
	assert.Same(t, want, got)
	assert.Empty(t, fake.queries, "key lookup must not run the address ladder")
}

func TestResolveSubject_AddressLadder(t *testing.T) {
	parts := ResolveAddress("123 Main St, Erie, PA 16501")
	fake := &fakeCompSource{respond: func(q repository.PropertyQuery) []model.Listing {
		// only the relaxed street-only rung matches
		if strings.Contains(q.Filter, "PostalCode") {
			return nil
		}
		return rows("newest", "older")
	}}
	e := testEngine(fake)

	got, err := e.ResolveSubject(context.Background(), "", parts)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "newest", got.ID, "most recently modified row wins")
	assert.Greater(t, len(fake.queries), 1)
}

func TestResolveSubject_NoMatchIsNotAnError(t *testing.T) {
	parts := ResolveAddress("123 Main St, Erie, PA 16501")
	e := testEngine(&fakeCompSource{})

	got, err := e.ResolveSubject(context.Background(), "", parts)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSubjectFilters_Ladder(t *testing.T) {
	parts := ResolveAddress("123 Main Street, Erie, PA 16501")
	filters := subjectFilters(parts)
	require.Len(t, filters, 3)

	assert.Contains(t, filters[0], "123 main")
	assert.Contains(t, filters[0], "erie")
	assert.Contains(t, filters[0], "16501")
	assert.Contains(t, filters[1], "123 main")
	assert.NotContains(t, filters[1], "16501")
	assert.Contains(t, filters[2], "123 main street")
}

func TestFindComps_WidensWindow(t *testing.T) {
	subject := &model.Listing{Status: model.StatusActive, ListPrice: 200000, Beds: 3}
	scope := CompScope{County: "Erie", City: "erie", Zip: "16501"}

	fake := &fakeCompSource{respond: func(q repository.PropertyQuery) []model.Listing {
		if strings.Contains(q.Filter, "2025-09-01") { // 6-month window
			return []model.Listing{closedComp(210000, 0), closedComp(190000, 0)}
		}
		return []model.Listing{closedComp(210000, 0), closedComp(190000, 0), closedComp(205000, 0)}
	}}
	e := testEngine(fake)

	comps, notes, err := e.FindComps(context.Background(), subject, scope, false)
	require.NoError(t, err)
	assert.Len(t, comps, 3)
	assert.Equal(t, []string{NoteWidenedWindow}, notes)
}

func TestFindComps_MarketLevelDropsZip(t *testing.T) {
	scope := CompScope{County: "Erie", City: "erie", Zip: "16501"}

	fake := &fakeCompSource{respond: func(q repository.PropertyQuery) []model.Listing {
		if strings.Contains(q.Filter, "16501") {
			return nil
		}
		return []model.Listing{closedComp(150000, 0), closedComp(160000, 0), closedComp(170000, 0)}
	}}
	e := testEngine(fake)

	comps, notes, err := e.FindComps(context.Background(), nil, scope, true)
	require.NoError(t, err)
	assert.Len(t, comps, 3)
	assert.Contains(t, notes, NoteDroppedZip)
	assert.NotContains(t, notes, NoteCountyOnly)
}

func TestFindComps_SparseAddsNote(t *testing.T) {
	scope := CompScope{County: "Erie"}
	fake := &fakeCompSource{respond: func(repository.PropertyQuery) []model.Listing {
		return []model.Listing{closedComp(150000, 0)}
	}}
	e := testEngine(fake)

	comps, notes, err := e.FindComps(context.Background(), nil, scope, false)
	require.NoError(t, err)
	assert.Len(t, comps, 1, "whatever was found is still returned")
	assert.Contains(t, notes, NoteSparseComps)
}

func TestStageFilter_SubjectConstraints(t *testing.T) {
	subject := &model.Listing{
		Status:       model.StatusActive,
		ListPrice:    200000,
		Beds:         3,
		PropertyType: "Residential",
	}
	e := testEngine(&fakeCompSource{})

	filter := e.stageFilter(subject, CompScope{County: "Erie", Zip: "16501"}, compStage{months: 6, priceBand: true})

	assert.Contains(t, filter, "StandardStatus eq 'Closed'")
	assert.Contains(t, filter, "CloseDate ge 2025-09-01T00:00:00Z")
	assert.Contains(t, filter, "CountyOrParish eq 'Erie'")
	assert.Contains(t, filter, "PostalCode eq '16501'")
	assert.Contains(t, filter, "BedroomsTotal ge 2")
	assert.Contains(t, filter, "BedroomsTotal le 4")
	assert.Contains(t, filter, "PropertyType eq 'Residential'")
	assert.Contains(t, filter, "ClosePrice ge 120000")
	assert.Contains(t, filter, "ClosePrice le 280000")
}

func TestSubjectPriceBasis(t *testing.T) {
	assert.Equal(t, 180000.0, subjectPriceBasis(&model.Listing{
		Status: model.StatusClosed, ClosePrice: 180000, ListPrice: 190000,
	}))
	assert.Equal(t, 190000.0, subjectPriceBasis(&model.Listing{
		Status: model.StatusActive, ListPrice: 190000,
	}))
}
