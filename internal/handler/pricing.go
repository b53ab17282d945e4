package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lakeshore-labs/compscout/internal/model"
)

// PricingRunner is the slice of the pricing service the handlers need.
type PricingRunner interface {
	Price(ctx context.Context, req *model.PricingRequest) (*model.PricingResponse, error)
	Subjects(ctx context.Context, query string) (*model.SubjectsResponse, error)
	Nearby(ctx context.Context, req *model.PricingRequest) (*model.NearbyResponse, error)
}

// PricingHandler handles POST /pricing, /pricing/subjects, and /nearby.
type PricingHandler struct {
	service PricingRunner
	logger  *zap.Logger
}

// NewPricingHandler creates a pricing handler.
func NewPricingHandler(service PricingRunner, logger *zap.Logger) *PricingHandler {
	return &PricingHandler{service: service, logger: logger}
}

// Price handles POST /pricing.
func (h *PricingHandler) Price(c *gin.Context) {
	var req model.PricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address is required"})
		return
	}

	resp, err := h.service.Price(c.Request.Context(), &req)
	if err != nil {
		respondUpstreamError(c, h.logger, "pricing", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Subjects handles POST /pricing/subjects.
func (h *PricingHandler) Subjects(c *gin.Context) {
	var req model.SubjectsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required and must be at least 4 characters"})
		return
	}

	resp, err := h.service.Subjects(c.Request.Context(), req.Query)
	if err != nil {
		respondUpstreamError(c, h.logger, "subjects", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Nearby handles POST /nearby.
func (h *PricingHandler) Nearby(c *gin.Context) {
	var req model.PricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "address is required"})
		return
	}

	resp, err := h.service.Nearby(c.Request.Context(), &req)
	if err != nil {
		respondUpstreamError(c, h.logger, "nearby", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
