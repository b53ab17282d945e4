package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lakeshore-labs/compscout/internal/model"
	"github.com/lakeshore-labs/compscout/internal/repository"
)

// SearchRunner is the slice of the search service the handler needs.
type SearchRunner interface {
	Search(ctx context.Context, req *model.SearchRequest) (*model.SearchResponse, error)
}

// SearchHandler handles POST /search.
type SearchHandler struct {
	service SearchRunner
	logger  *zap.Logger
}

// NewSearchHandler creates a search handler.
func NewSearchHandler(service SearchRunner, logger *zap.Logger) *SearchHandler {
	return &SearchHandler{service: service, logger: logger}
}

// Search handles POST /search.
func (h *SearchHandler) Search(c *gin.Context) {
	var req model.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErrorMessage(&req)})
		return
	}

	resp, err := h.service.Search(c.Request.Context(), &req)
	if err != nil {
		respondUpstreamError(c, h.logger, "search", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// bindErrorMessage names the search request field that failed binding. The
// partially bound struct tells the two cases apart: a missing query versus a
// role outside the allowed set.
func bindErrorMessage(req *model.SearchRequest) string {
	if req.Query == "" {
		return "query is required"
	}
	return "role must be one of buyer, seller, investor, realtor"
}

// respondUpstreamError maps service failures to a generic 500 body. The
// real cause stays in the server log; upstream URLs and credentials never
// reach the client.
func respondUpstreamError(c *gin.Context, logger *zap.Logger, op string, err error) {
	if errors.Is(err, repository.ErrUpstream) {
		logger.Error("upstream failure", zap.String("op", op), zap.Error(err))
	} else {
		logger.Error("request failed", zap.String("op", op), zap.Error(err))
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "the property catalog is temporarily unavailable"})
}
