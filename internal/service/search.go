package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/lakeshore-labs/compscout/internal/explain"
	"github.com/lakeshore-labs/compscout/internal/model"
	"github.com/lakeshore-labs/compscout/internal/repository"
)

// SearchService turns a free-text query into catalog listings plus a
// reasoning trail.
type SearchService struct {
	interpreter  *Interpreter
	orchestrator *Orchestrator
	explainer    *explain.Client
	logger       *zap.Logger
}

// NewSearchService creates the search service.
func NewSearchService(interpreter *Interpreter, orchestrator *Orchestrator, explainer *explain.Client, logger *zap.Logger) *SearchService {
	return &SearchService{
		interpreter:  interpreter,
		orchestrator: orchestrator,
		explainer:    explainer,
		logger:       logger,
	}
}

// Search interprets the query, runs the relaxation ladder, and asks the
// explanation collaborator for prose. Explanation failures degrade the
// response rather than failing it.
func (s *SearchService) Search(ctx context.Context, req *model.SearchRequest) (*model.SearchResponse, error) {
	start := time.Now()

	intent := s.interpreter.Parse(req.Query)
	parts := repository.BuildSearchFilter(intent, req.Role, time.Now())

	attempt, listings, err := s.orchestrator.Run(ctx, parts)
	if err != nil {
		return nil, err
	}

	resp := &model.SearchResponse{
		Listings:  listings,
		Reasoning: attempt.Notes,
		Intent:    &intent,
		Attempt:   attempt.Label,
	}

	if s.explainer.Enabled() {
		answer, err := s.explainer.Explain(ctx, &explain.ExplainRequest{
			Query:          req.Query,
			Role:           req.Role,
			Listings:       listings,
			RetrievalNotes: attempt.Notes,
			Attempt:        attempt.Label,
		})
		if err != nil {
			s.logger.Warn("explanation fetch failed, returning listings only", zap.Error(err))
		} else {
			resp.Answer = answer.Answer
			resp.Reasoning = append(resp.Reasoning, answer.Reasoning...)
		}
	}

	resp.Took = time.Since(start).Milliseconds()
	return resp, nil
}
