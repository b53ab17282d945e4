package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lakeshore-labs/compscout/internal/explain"
	"github.com/lakeshore-labs/compscout/internal/model"
)

// maxTrailNotes caps how many relaxation notes appear in a trail.
const maxTrailNotes = 3

// maxMethodologyChunks caps the methodology excerpts appended to a trail.
const maxMethodologyChunks = 3

// Assembler builds the user-facing reasoning trail from retrieval notes,
// comp statistics, and methodology snippets fetched from the explanation
// collaborator. A failed snippet fetch degrades the trail, never the
// request.
type Assembler struct {
	client *explain.Client
	logger *zap.Logger
}

// NewAssembler creates an explanation assembler.
func NewAssembler(client *explain.Client, logger *zap.Logger) *Assembler {
	return &Assembler{client: client, logger: logger}
}

// FetchMethodology pulls up to three short methodology excerpts. Errors
// are logged and swallowed: this fetch is never essential.
func (a *Assembler) FetchMethodology(ctx context.Context, query string) []string {
	if a.client == nil || !a.client.Enabled() {
		return nil
	}
	chunks, err := a.client.SearchChunks(ctx, query, maxMethodologyChunks, "cma")
	if err != nil {
		a.logger.Warn("methodology fetch failed, omitting excerpts", zap.Error(err))
		return nil
	}
	if len(chunks) > maxMethodologyChunks {
		chunks = chunks[:maxMethodologyChunks]
	}
	return chunks
}

// BuildPricingTrail assembles the pricing reasoning trail in its fixed
// order: subject summary, window/comp-count summary, relaxation notes,
// price-range sentence, deal sentence, methodology excerpts.
func (a *Assembler) BuildPricingTrail(
	subject *model.Listing,
	stats *model.CompStats,
	pr *model.PriceRange,
	verdict string,
	notes []string,
	methodology []string,
) []string {
	var trail []string

	if subject != nil {
		trail = append(trail, fmt.Sprintf("Subject property: %s (%s, %s).",
			subject.Address, subject.City, subject.Status))
	} else {
		trail = append(trail, "No exact subject match; pricing at the market level for the requested area.")
	}

	if stats != nil {
		trail = append(trail, fmt.Sprintf("Based on %d comparable closed sales.", stats.N))
	}

	if len(notes) > maxTrailNotes {
		notes = notes[:maxTrailNotes]
	}
	trail = append(trail, notes...)

	if pr != nil {
		method := "raw close prices"
		if pr.Method == model.MethodPricePerArea {
			method = "price per square foot scaled to the subject's size"
		}
		trail = append(trail, fmt.Sprintf("Estimated range $%d - $%d (midpoint $%d), derived from %s.",
			pr.Low, pr.High, pr.Mid, method))
	} else {
		trail = append(trail, "Could not compute a stable price range from the available sales.")
	}

	switch verdict {
	case model.DealUndervalued:
		trail = append(trail, "The asking price sits below the comparable range: potentially undervalued.")
	case model.DealOverpriced:
		trail = append(trail, "The asking price sits above the comparable range: potentially overpriced.")
	case model.DealFair:
		trail = append(trail, "The asking price falls within the comparable range: a fair deal.")
	}

	trail = append(trail, methodology...)
	return trail
}
