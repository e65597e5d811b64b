package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mohammedbabelly/zakah-calculator/internal/logger"
	"github.com/mohammedbabelly/zakah-calculator/internal/models"
)

// goldPriceCacheControl lets browsers and CDNs reuse a quote for one refresh interval.
const goldPriceCacheControl = "public, max-age=900"

// GoldPriceResolver resolves the live gold price.
type GoldPriceResolver interface {
	Resolve(ctx context.Context) (*models.GoldPriceQuote, error)
}

// GoldPriceHandler serves the live gold price straight from the source chain.
type GoldPriceHandler struct {
	resolver GoldPriceResolver
}

// NewGoldPriceHandler creates a new GoldPriceHandler
func NewGoldPriceHandler(resolver GoldPriceResolver) *GoldPriceHandler {
	return &GoldPriceHandler{resolver: resolver}
}

// GoldPriceResponse is the live gold price in USD per gram.
type GoldPriceResponse struct {
	PricePerGramUSD float64 `json:"pricePerGramUSD" example:"92.41"`
	Source          string  `json:"source" example:"goldprice.org"`
	Timestamp       string  `json:"timestamp" example:"2025-03-01T12:00:00Z"`
}

// GoldPriceErrorResponse is returned when no source produced a price.
type GoldPriceErrorResponse struct {
	Error string `json:"error" example:"Unable to fetch gold price"`
}

// GetGoldPrice handles the live gold price lookup
// @Summary     Live gold price
// @Description Resolve the gold price per gram in USD from the first working upstream source
// @Tags        gold
// @Produce     json
// @Success     200 {object} GoldPriceResponse "Gold price"
// @Failure     502 {object} GoldPriceErrorResponse "All sources failed"
// @Router      /gold-price [get]
func (h *GoldPriceHandler) GetGoldPrice(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Cache-Control", goldPriceCacheControl)

	quote, err := h.resolver.Resolve(c.Request.Context())
	if err != nil {
		logger.Get().Warnw("gold price unavailable", "error", err.Error())
		c.JSON(http.StatusBadGateway, GoldPriceErrorResponse{Error: "Unable to fetch gold price"})
		return
	}

	c.JSON(http.StatusOK, GoldPriceResponse{
		PricePerGramUSD: quote.PricePerGram.InexactFloat64(),
		Source:          quote.SourceID,
		Timestamp:       quote.ObservedAt.Time.UTC().Format(time.RFC3339Nano),
	})
}
