package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/mohammedbabelly/zakah-calculator/internal/errors"
	"github.com/mohammedbabelly/zakah-calculator/internal/models"
	"github.com/mohammedbabelly/zakah-calculator/internal/valuation"
)

// ZakahHandler values declared holdings against the current rates.
type ZakahHandler struct {
	rates RatesService
}

// NewZakahHandler creates a new ZakahHandler
func NewZakahHandler(rates RatesService) *ZakahHandler {
	return &ZakahHandler{rates: rates}
}

// AssetRequest is one declared holding.
type AssetRequest struct {
	Type        string          `json:"type" binding:"required,asset_type" example:"gold"`
	Karat       int             `json:"karat,omitempty" binding:"required_if=Type gold,omitempty,karat" example:"21"`
	WeightGrams decimal.Decimal `json:"weightGrams" swaggertype:"string" example:"100"`
	Currency    string          `json:"currency,omitempty" binding:"required_if=Type currency,omitempty,zakah_currency" example:"SYP"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"string" example:"1000000"`
}

// CalculateRequest is the list of holdings to value.
type CalculateRequest struct {
	Assets []AssetRequest `json:"assets" binding:"dive"`
}

// CalculateResponse carries the result, or null when there is nothing to
// value or no rates are available yet.
type CalculateResponse struct {
	Result *models.ZakahResult `json:"result"`
	Status models.FetchStatus  `json:"status" example:"success"`
}

// Calculate handles the zakah calculation
// @Summary     Calculate zakah
// @Description Value gold and currency holdings in USD, compare them to the nisab and compute the 2.5% zakah
// @Tags        zakah
// @Accept      json
// @Produce     json
// @Param       request body CalculateRequest true "Holdings"
// @Success     200 {object} CalculateResponse "Calculation result"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /v1/zakah/calculate [post]
func (h *ZakahHandler) Calculate(c *gin.Context) {
	var req CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	assets := make([]models.Asset, 0, len(req.Assets))
	for i, a := range req.Assets {
		asset, err := a.toAsset()
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("assets[%d]: %v", i, err)))
			return
		}
		assets = append(assets, asset)
	}

	snap := h.rates.Snapshot()
	result, _ := valuation.Compute(assets, snap.ExchangeRates, snap.GoldPrice)

	c.JSON(http.StatusOK, CalculateResponse{Result: result, Status: snap.Status})
}

func (a AssetRequest) toAsset() (models.Asset, error) {
	switch models.AssetKind(a.Type) {
	case models.AssetKindGold:
		g, err := models.NewGoldHolding(models.Karat(a.Karat), a.WeightGrams)
		if err != nil {
			return nil, err
		}
		return g, nil
	case models.AssetKindCurrency:
		cur, _ := models.ParseCurrency(a.Currency)
		h, err := models.NewCurrencyHolding(cur, a.Amount)
		if err != nil {
			return nil, err
		}
		return h, nil
	default:
		return nil, fmt.Errorf("%w: unknown asset type %q", models.ErrInvalidAsset, a.Type)
	}
}
