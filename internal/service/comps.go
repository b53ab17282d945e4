package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lakeshore-labs/compscout/internal/model"
	"github.com/lakeshore-labs/compscout/internal/repository"
)

// CompSource is the slice of the catalog the pricing engine needs.
type CompSource interface {
	Query(ctx context.Context, q repository.PropertyQuery) ([]model.Listing, error)
	GetByKey(ctx context.Context, key string) (*model.Listing, error)
}

// CompScope is the geographic scope comparable sales are pulled from.
type CompScope struct {
	County string
	City   string
	Zip    string
}

// PricingEngine resolves subject properties and assembles comparable-sale
// sets, widening the net in a fixed order until enough usable comps exist.
type PricingEngine struct {
	source  CompSource
	logger  *zap.Logger
	pageCap int
	now     func() time.Time
}

// NewPricingEngine creates a comps pricing engine.
func NewPricingEngine(source CompSource, pageCap int, logger *zap.Logger) *PricingEngine {
	return &PricingEngine{source: source, pageCap: pageCap, logger: logger, now: time.Now}
}

// ResolveSubject finds the subject property. A supplied listing key is
// fetched directly; otherwise address-matching filters are tried in
// decreasing specificity, preferring the most recently modified row when
// several match. A nil listing with nil error means no subject exists and
// the caller should fall back to the market-level path.
func (e *PricingEngine) ResolveSubject(ctx context.Context, subjectID string, parts model.AddressParts) (*model.Listing, error) {
	if subjectID != "" {
		return e.source.GetByKey(ctx, subjectID)
	}

	for _, filter := range subjectFilters(parts) {
		rows, err := e.source.Query(ctx, repository.PropertyQuery{
			Filter:      filter,
			OrderBy:     repository.FieldModified + " desc",
			Top:         5,
			ExpandMedia: true,
		})
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			return &rows[0], nil
		}
	}
	return nil, nil
}

// subjectFilters builds the address-match ladder: street number+name
// scoped by city and zip, then street number+name alone, then the whole
// compact street query as a bare substring.
func subjectFilters(parts model.AddressParts) []string {
	var filters []string

	streetTerm := ""
	if parts.StreetNumber != "" && parts.StreetNameToken != "" {
		streetTerm = parts.StreetNumber + " " + parts.StreetNameToken
	}

	if streetTerm != "" {
		preds := []string{repository.Contains(repository.FieldAddress, streetTerm)}
		if parts.CityToken != "" {
			preds = append(preds, repository.Contains(repository.FieldCity, parts.CityToken))
		}
		if parts.Zip != "" {
			preds = append(preds, repository.Eq(repository.FieldZip, parts.Zip))
		}
		if len(preds) > 1 {
			filters = append(filters, repository.And(preds...))
		}
		filters = append(filters, repository.Contains(repository.FieldAddress, streetTerm))
	}
	if parts.StreetQuery != "" && parts.StreetQuery != streetTerm {
		filters = append(filters, repository.Contains(repository.FieldAddress, parts.StreetQuery))
	}
	return filters
}

// FindSubjectCandidates returns address matches for disambiguation.
func (e *PricingEngine) FindSubjectCandidates(ctx context.Context, query string, top int) ([]model.Listing, error) {
	parts := ResolveAddress(query)
	seen := map[string]struct{}{}
	var out []model.Listing
	for _, filter := range subjectFilters(parts) {
		rows, err := e.source.Query(ctx, repository.PropertyQuery{
			Filter:  filter,
			OrderBy: repository.FieldModified + " desc",
			Top:     top,
		})
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			if _, ok := seen[row.ID]; ok {
				continue
			}
			seen[row.ID] = struct{}{}
			out = append(out, row)
		}
		if len(out) >= top {
			return out[:top], nil
		}
	}
	return out, nil
}

// compStage is one rung of the widening ladder.
type compStage struct {
	months     int
	priceBand  bool
	dropZip    bool
	countyOnly bool
	note       string
}

// Widening notes surfaced in the reasoning trail.
const (
	NoteWidenedWindow  = "Widened the comparable-sales window from 6 to 12 months"
	NoteDroppedBand    = "Removed the price band to find more comparable sales"
	NoteDroppedZip     = "Expanded beyond the subject zip code to the surrounding city and county"
	NoteCountyOnly     = "Expanded to county-level comparable sales"
	NoteSparseComps    = "Not enough comparable sales to compute a stable price range"
	NoteMarketFallback = "No exact subject match found; using market-level comparables for the area"
)

// FindComps walks the widening ladder and stops at the first stage with at
// least three usable comps. marketLevel enables the geographic widening
// stages used when no subject property was matched. The returned notes
// record every widening that was applied.
func (e *PricingEngine) FindComps(ctx context.Context, subject *model.Listing, scope CompScope, marketLevel bool) ([]model.Listing, []string, error) {
	stages := []compStage{
		{months: 6, priceBand: true},
		{months: 12, priceBand: true, note: NoteWidenedWindow},
		{months: 12, priceBand: false, note: NoteDroppedBand},
	}
	if marketLevel {
		stages = append(stages,
			compStage{months: 12, dropZip: true, note: NoteDroppedZip},
			compStage{months: 12, dropZip: true, countyOnly: true, note: NoteCountyOnly},
		)
	}

	// The 6- and 12-month windows are independent fetches; issue them
	// together so the common widening path costs one round trip.
	prefetched, err := e.prefetch(ctx, subject, scope, stages[:2])
	if err != nil {
		return nil, nil, err
	}

	var notes []string
	var comps []model.Listing
	for i, stage := range stages {
		if stage.note != "" {
			notes = append(notes, stage.note)
		}
		rows := prefetched[i]
		if rows == nil {
			rows, err = e.fetchStage(ctx, subject, scope, stage)
			if err != nil {
				return nil, nil, err
			}
		}
		comps = rows
		if len(usableClosePrices(comps)) >= minUsableComps {
			return comps, notes, nil
		}
	}

	notes = append(notes, NoteSparseComps)
	return comps, notes, nil
}

// prefetch runs the first ladder stages concurrently, bounded to two
// upstream calls in flight.
func (e *PricingEngine) prefetch(ctx context.Context, subject *model.Listing, scope CompScope, stages []compStage) (map[int][]model.Listing, error) {
	results := make([]([]model.Listing), len(stages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(2)
	for i, stage := range stages {
		i, stage := i, stage
		g.Go(func() error {
			rows, err := e.fetchStage(gctx, subject, scope, stage)
			if err != nil {
				return err
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make(map[int][]model.Listing, len(stages))
	for i, rows := range results {
		out[i] = rows
	}
	return out, nil
}

func (e *PricingEngine) fetchStage(ctx context.Context, subject *model.Listing, scope CompScope, stage compStage) ([]model.Listing, error) {
	rows, err := e.source.Query(ctx, repository.PropertyQuery{
		Filter:  e.stageFilter(subject, scope, stage),
		OrderBy: repository.FieldCloseDate + " desc",
		Top:     e.pageCap,
	})
	if err != nil {
		return nil, fmt.Errorf("comp fetch failed: %w", err)
	}
	return rows, nil
}

// stageFilter builds one stage's catalog filter: closed sales inside the
// stage's window, scoped geographically, and when a subject exists,
// constrained to beds +/-1, the same property type, and a 0.6x-1.4x price
// band around the subject's price.
func (e *PricingEngine) stageFilter(subject *model.Listing, scope CompScope, stage compStage) string {
	preds := []string{
		repository.CountyClause(),
		repository.Eq(repository.FieldStatus, model.StatusClosed),
		repository.DateGe(repository.FieldCloseDate, e.now().AddDate(0, -stage.months, 0)),
	}

	if scope.County != "" {
		preds = append(preds, repository.Eq(repository.FieldCounty, scope.County))
	}
	if !stage.countyOnly {
		var geo []string
		if scope.City != "" {
			geo = append(geo, repository.Contains(repository.FieldCity, scope.City))
		}
		if scope.Zip != "" && !stage.dropZip {
			geo = append(geo, repository.Eq(repository.FieldZip, scope.Zip))
		}
		if len(geo) > 0 {
			preds = append(preds, repository.OrGroup(geo...))
		}
	}

	if subject != nil {
		if subject.Beds > 0 {
			preds = append(preds,
				repository.Ge(repository.FieldBeds, subject.Beds-1),
				repository.Le(repository.FieldBeds, subject.Beds+1))
		}
		if subject.PropertyType != "" {
			preds = append(preds, repository.Eq(repository.FieldPropertyType, subject.PropertyType))
		}
		if stage.priceBand {
			if basis := subjectPriceBasis(subject); basis > 0 {
				preds = append(preds,
					repository.Ge(repository.FieldClosePrice, int(basis*0.6)),
					repository.Le(repository.FieldClosePrice, int(basis*1.4)))
			}
		}
	}
	return repository.And(preds...)
}

// subjectPriceBasis is the price the comp band is anchored to: the close
// price for a sold subject, the list price otherwise.
func subjectPriceBasis(subject *model.Listing) float64 {
	if subject.Status == model.StatusClosed && subject.ClosePrice > 0 {
		return subject.ClosePrice
	}
	return subject.ListPrice
}
