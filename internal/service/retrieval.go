package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/lakeshore-labs/compscout/internal/model"
	"github.com/lakeshore-labs/compscout/internal/repository"
)

// Relaxation notes surfaced to callers. Silent relaxation is a contract
// violation: every dropped constraint must show up in the reasoning trail.
const (
	NoteDroppedTypePreference = "Relaxed search: removed the property-type preference to find more matches"
	NoteDroppedArea           = "Relaxed search: removed the MLS area constraint to find nearby matches"
	NoteDroppedIncome         = "Relaxed search: no income/multi-family matches found, showing other property types"
)

// Retriever executes one catalog fetch for an attempt's filter.
type Retriever interface {
	Fetch(ctx context.Context, filter string, top int) ([]model.Listing, error)
}

// catalogRetriever adapts the catalog source to per-attempt fetches,
// newest listings first.
type catalogRetriever struct {
	source CompSource
}

// NewCatalogRetriever wraps a catalog source as a Retriever.
func NewCatalogRetriever(source CompSource) Retriever {
	return &catalogRetriever{source: source}
}

func (r *catalogRetriever) Fetch(ctx context.Context, filter string, top int) ([]model.Listing, error) {
	return r.source.Query(ctx, repository.PropertyQuery{
		Filter:      filter,
		OrderBy:     repository.FieldModified + " desc",
		Top:         top,
		ExpandMedia: true,
	})
}

// attemptPlan pairs an attempt with the filter used for its top-up fetch,
// when the attempt still carries a soft property-type preference.
type attemptPlan struct {
	model.RetrievalAttempt
	topUpFilter string
}

// Orchestrator walks an ordered ladder of retrieval attempts, accepting the
// first attempt that yields results. Attempts run sequentially: each one is
// only needed if the previous came back empty.
type Orchestrator struct {
	retriever Retriever
	logger    *zap.Logger
	pageCap   int
}

// NewOrchestrator creates a retrieval orchestrator.
func NewOrchestrator(retriever Retriever, pageCap int, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{retriever: retriever, pageCap: pageCap, logger: logger}
}

// buildAttempts derives the relaxation ladder from decomposed filter parts:
// the full filter first, then variants with the soft type preference
// dropped, the MLS area dropped, then both, and as a flagged last resort an
// explicit income request dropped.
func buildAttempts(parts repository.FilterParts) []attemptPlan {
	attempts := []attemptPlan{{
		RetrievalAttempt: model.RetrievalAttempt{
			Label:                 "primary",
			Filter:                parts.Compose(false, false),
			RolePreferenceApplied: parts.PropertyTypeSoft,
		},
	}}
	if parts.PropertyTypeSoft {
		attempts[0].topUpFilter = parts.Compose(true, false)
		attempts = append(attempts, attemptPlan{
			RetrievalAttempt: model.RetrievalAttempt{
				Label:  "no-type-preference",
				Filter: parts.Compose(true, false),
				Notes:  []string{NoteDroppedTypePreference},
			},
		})
	}
	if parts.Area != "" {
		attempts = append(attempts, attemptPlan{
			RetrievalAttempt: model.RetrievalAttempt{
				Label:                 "no-area",
				Filter:                parts.Compose(false, true),
				Notes:                 []string{NoteDroppedArea},
				RolePreferenceApplied: parts.PropertyTypeSoft,
			},
		})
		if parts.PropertyTypeSoft {
			attempts[len(attempts)-1].topUpFilter = parts.Compose(true, true)
			attempts = append(attempts, attemptPlan{
				RetrievalAttempt: model.RetrievalAttempt{
					Label:  "no-area-no-type",
					Filter: parts.Compose(true, true),
					Notes:  []string{NoteDroppedTypePreference, NoteDroppedArea},
				},
			})
		}
	}
	if parts.IncomeExplicit {
		relaxed := parts
		relaxed.PropertyType = ""
		notes := []string{NoteDroppedIncome}
		if parts.Area != "" {
			notes = append(notes, NoteDroppedArea)
		}
		attempts = append(attempts, attemptPlan{
			RetrievalAttempt: model.RetrievalAttempt{
				Label:  "no-income-type",
				Filter: relaxed.Compose(false, parts.Area != ""),
				Notes:  notes,
			},
		})
	}
	return attempts
}

// Run executes the ladder and returns the accepted attempt plus its
// listings. The first attempt with at least one result wins; when every
// attempt is empty the last one is returned with no results.
func (o *Orchestrator) Run(ctx context.Context, parts repository.FilterParts) (model.RetrievalAttempt, []model.Listing, error) {
	attempts := buildAttempts(parts)

	var chosen attemptPlan
	var listings []model.Listing
	for _, attempt := range attempts {
		rows, err := o.retriever.Fetch(ctx, attempt.Filter, o.pageCap)
		if err != nil {
			return model.RetrievalAttempt{}, nil, err
		}
		chosen, listings = attempt, rows
		if len(rows) > 0 {
			o.logger.Debug("retrieval attempt accepted",
				zap.String("label", attempt.Label), zap.Int("results", len(rows)))
			break
		}
		o.logger.Debug("retrieval attempt empty", zap.String("label", attempt.Label))
	}

	listings, err := o.topUp(ctx, chosen, listings)
	if err != nil {
		return model.RetrievalAttempt{}, nil, err
	}
	return chosen.RetrievalAttempt, listings, nil
}

// topUp pads an under-filled page accepted under a soft type preference
// with results from the same filter minus the preference. Only new ids are
// merged; original ordering is preserved and the page cap is never
// exceeded.
func (o *Orchestrator) topUp(ctx context.Context, chosen attemptPlan, listings []model.Listing) ([]model.Listing, error) {
	if !chosen.RolePreferenceApplied || chosen.topUpFilter == "" || len(listings) == 0 || len(listings) >= o.pageCap {
		return listings, nil
	}

	extra, err := o.retriever.Fetch(ctx, chosen.topUpFilter, o.pageCap)
	if err != nil {
		return nil, err
	}

	merged := model.DedupeListings(append(listings, extra...))
	if len(merged) > o.pageCap {
		merged = merged[:o.pageCap]
	}
	return merged, nil
}
