package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lakeshore-labs/compscout/internal/model"
	"github.com/lakeshore-labs/compscout/internal/repository"
)

// maxSubjectCandidates caps /pricing/subjects disambiguation results.
const maxSubjectCandidates = 10

// PricingService prices a subject property (or a market area) from
// comparable closed sales.
type PricingService struct {
	engine    *PricingEngine
	assembler *Assembler
	source    CompSource
	pageCap   int
	logger    *zap.Logger
}

// NewPricingService creates the pricing service.
func NewPricingService(engine *PricingEngine, assembler *Assembler, source CompSource, pageCap int, logger *zap.Logger) *PricingService {
	return &PricingService{
		engine:    engine,
		assembler: assembler,
		source:    source,
		pageCap:   pageCap,
		logger:    logger,
	}
}

// Price resolves the subject, gathers comps, and derives the price band
// and deal verdict. The methodology fetch runs concurrently with comp
// retrieval; it is never essential.
func (s *PricingService) Price(ctx context.Context, req *model.PricingRequest) (*model.PricingResponse, error) {
	parts := ResolveAddress(req.Address)

	subject, err := s.engine.ResolveSubject(ctx, req.SubjectID, parts)
	if err != nil {
		return nil, err
	}

	scope := buildScope(subject, parts, req)

	var notes []string
	marketLevel := subject == nil
	if marketLevel {
		notes = append(notes, NoteMarketFallback)
	}

	var comps []model.Listing
	var compNotes []string
	var methodology []string

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(2)
	g.Go(func() error {
		var err error
		comps, compNotes, err = s.engine.FindComps(gctx, subject, scope, marketLevel)
		return err
	})
	g.Go(func() error {
		methodology = s.assembler.FetchMethodology(gctx, "comparable sales price range methodology")
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	notes = append(notes, compNotes...)

	stats := computeStats(comps)
	pr := computeRange(subject, comps)
	verdict := dealVerdict(subject, pr)

	return &model.PricingResponse{
		PriceRange:  pr,
		CompStats:   stats,
		DealQuality: verdict,
		Subject:     subject,
		Listings:    comps,
		Reasoning:   s.assembler.BuildPricingTrail(subject, stats, pr, verdict, notes, methodology),
	}, nil
}

// Subjects returns candidate subject matches for disambiguation.
func (s *PricingService) Subjects(ctx context.Context, query string) (*model.SubjectsResponse, error) {
	candidates, err := s.engine.FindSubjectCandidates(ctx, query, maxSubjectCandidates)
	if err != nil {
		return nil, err
	}
	return &model.SubjectsResponse{Subjects: candidates}, nil
}

// Nearby returns active and pending listings around the subject address.
func (s *PricingService) Nearby(ctx context.Context, req *model.PricingRequest) (*model.NearbyResponse, error) {
	parts := ResolveAddress(req.Address)

	subject, err := s.engine.ResolveSubject(ctx, req.SubjectID, parts)
	if err != nil {
		return nil, err
	}
	scope := buildScope(subject, parts, req)

	preds := []string{
		repository.CountyClause(),
		repository.OrGroup(
			repository.Eq(repository.FieldStatus, model.StatusActive),
			repository.Eq(repository.FieldStatus, model.StatusPending),
		),
	}
	if scope.County != "" {
		preds = append(preds, repository.Eq(repository.FieldCounty, scope.County))
	}
	var geo []string
	if scope.City != "" {
		geo = append(geo, repository.Contains(repository.FieldCity, scope.City))
	}
	if scope.Zip != "" {
		geo = append(geo, repository.Eq(repository.FieldZip, scope.Zip))
	}
	if len(geo) > 0 {
		preds = append(preds, repository.OrGroup(geo...))
	}

	listings, err := s.source.Query(ctx, repository.PropertyQuery{
		Filter:      repository.And(preds...),
		OrderBy:     repository.FieldModified + " desc",
		Top:         s.pageCap,
		ExpandMedia: true,
	})
	if err != nil {
		return nil, err
	}

	resp := &model.NearbyResponse{Listings: listings}
	if subject != nil {
		resp.Reasoning = []string{"Showing active and pending listings around " + subject.Address + "."}
	}
	return resp, nil
}

// buildScope derives the comp scope from the resolved subject when one
// exists, else from the address tokens and explicit request fields.
func buildScope(subject *model.Listing, parts model.AddressParts, req *model.PricingRequest) CompScope {
	if subject != nil {
		return CompScope{County: subject.County, City: subject.City, Zip: subject.Zip}
	}
	scope := CompScope{County: req.County, City: parts.CityToken, Zip: req.Zip}
	if scope.Zip == "" {
		scope.Zip = parts.Zip
	}
	return scope
}
