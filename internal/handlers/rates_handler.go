package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/mohammedbabelly/zakah-calculator/internal/aggregator"
	apperrors "github.com/mohammedbabelly/zakah-calculator/internal/errors"
	"github.com/mohammedbabelly/zakah-calculator/internal/models"
)

// RatesService is the aggregator surface used by the HTTP layer.
type RatesService interface {
	Snapshot() aggregator.Snapshot
	FetchAll(ctx context.Context) aggregator.Snapshot
	SetManualRates(ctx context.Context, pricePerGram decimal.Decimal, rates map[models.Currency]decimal.Decimal) (aggregator.Snapshot, error)
}

// RatesHandler handles rate inspection, refresh and manual entry.
type RatesHandler struct {
	rates RatesService
}

// NewRatesHandler creates a new RatesHandler
func NewRatesHandler(rates RatesService) *RatesHandler {
	return &RatesHandler{rates: rates}
}

// ManualRatesRequest is the manual entry form. Values may be JSON numbers
// or numeric strings.
type ManualRatesRequest struct {
	GoldPricePerGram json.RawMessage            `json:"goldPricePerGram" binding:"required" swaggertype:"string" example:"92.5"`
	Rates            map[string]json.RawMessage `json:"rates" swaggertype:"object,string" example:"EUR:0.92,SYP:13000"`
}

// GetRates handles the retrieval of the current rates
// @Summary     Current rates
// @Description Get the fetch status, gold price and exchange rate table currently in use
// @Tags        rates
// @Produce     json
// @Success     200 {object} aggregator.Snapshot "Current rates"
// @Router      /v1/rates [get]
func (h *RatesHandler) GetRates(c *gin.Context) {
	c.JSON(http.StatusOK, h.rates.Snapshot())
}

// RefreshRates handles an explicit retry of the live fetch
// @Summary     Refresh rates
// @Description Fetch the gold price and exchange rates now. Replaces manual values on success.
// @Tags        rates
// @Produce     json
// @Success     200 {object} aggregator.Snapshot "Rates after the fetch"
// @Failure     429 {object} ErrorResponse "Too many requests"
// @Router      /v1/rates/refresh [post]
func (h *RatesHandler) RefreshRates(c *gin.Context) {
	c.JSON(http.StatusOK, h.rates.FetchAll(c.Request.Context()))
}

// SetManualRates handles manual entry of the gold price and exchange rates
// @Summary     Enter rates manually
// @Description Install a user-entered gold price and rate table. Invalid per-currency values are dropped; USD is always 1.
// @Tags        rates
// @Accept      json
// @Produce     json
// @Param       request body ManualRatesRequest true "Manual rates"
// @Success     200 {object} aggregator.Snapshot "Installed rates"
// @Failure     400 {object} ErrorResponse "Invalid gold price"
// @Router      /v1/rates/manual [put]
func (h *RatesHandler) SetManualRates(c *gin.Context) {
	var req ManualRatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	price, ok := parseDecimal(req.GoldPricePerGram)
	if !ok || !price.IsPositive() {
		respondWithError(c, apperrors.ErrInvalidManualRates)
		return
	}

	rates := make(map[models.Currency]decimal.Decimal, len(req.Rates))
	for code, raw := range req.Rates {
		cur, ok := models.ParseCurrency(code)
		if !ok {
			continue
		}
		if r, ok := parseDecimal(raw); ok && r.IsPositive() {
			rates[cur] = r
		}
	}

	snap, err := h.rates.SetManualRates(c.Request.Context(), price, rates)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// parseDecimal accepts a JSON number or a numeric string.
func parseDecimal(raw json.RawMessage) (decimal.Decimal, bool) {
	if len(raw) == 0 || string(raw) == "null" || string(raw) == `""` {
		return decimal.Zero, false
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(raw); err != nil {
		return decimal.Zero, false
	}
	return d, true
}
