package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mohammedbabelly/zakah-calculator/internal/aggregator"
	"github.com/mohammedbabelly/zakah-calculator/internal/cache"
	"github.com/mohammedbabelly/zakah-calculator/internal/middleware"
	"github.com/mohammedbabelly/zakah-calculator/internal/models"
	"github.com/mohammedbabelly/zakah-calculator/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

type stubResolver struct{}

func (stubResolver) Resolve(context.Context) (*models.GoldPriceQuote, error) {
	return &models.GoldPriceQuote{
		PricePerGram: decimal.NewFromInt(80),
		SourceID:     "goldprice.org",
		ObservedAt:   models.ObservedAtTime(time.Now().UTC()),
	}, nil
}

type stubFetcher struct{}

func (stubFetcher) Fetch(context.Context) (*models.ExchangeRateTable, error) {
	return &models.ExchangeRateTable{
		Base: models.CurrencyUSD,
		Rates: map[models.Currency]decimal.Decimal{
			models.CurrencyUSD: decimal.NewFromInt(1),
			models.CurrencyEUR: decimal.RequireFromString("0.92"),
		},
		ObservedAt: models.ObservedAtTime(time.Now().UTC()),
	}, nil
}

func setupServer(t *testing.T, refreshRate string) *gin.Engine {
	t.Helper()
	log := zap.NewNop().Sugar()
	agg := aggregator.New(stubResolver{}, stubFetcher{}, cache.NewRateCache(cache.NewMemoryStore(), log), nil, nil, log, aggregator.Options{})

	l, err := middleware.NewRateLimiter(refreshRate)
	require.NoError(t, err)
	return newRouter(stubResolver{}, agg, l)
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://client.test")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestRouter_Health(t *testing.T) {
	r := setupServer(t, "10-M")

	rec := do(r, http.MethodGet, "/api/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_RefreshThenCalculate(t *testing.T) {
	r := setupServer(t, "10-M")

	rec := do(r, http.MethodGet, "/api/v1/rates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "idle", decode(t, rec)["status"])

	rec = do(r, http.MethodPost, "/api/v1/rates/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode(t, rec)
	assert.Equal(t, "success", snap["status"])
	assert.Equal(t, false, snap["manual"])

	rec = do(r, http.MethodPost, "/api/v1/zakah/calculate",
		`{"assets":[{"type":"gold","karat":21,"weightGrams":100}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode(t, rec)["result"].(map[string]interface{})
	assert.True(t, decimal.RequireFromString(result["zakahAmount"].(string)).Equal(decimal.NewFromInt(175)))
	assert.Equal(t, true, result["isAboveNisab"])
}

func TestRouter_ManualRates(t *testing.T) {
	r := setupServer(t, "10-M")

	rec := do(r, http.MethodPut, "/api/v1/rates/manual", `{"goldPricePerGram": 100, "rates": {"EUR": "0.9"}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(r, http.MethodGet, "/api/v1/rates", "")
	snap := decode(t, rec)
	assert.Equal(t, true, snap["manual"])
	gold := snap["goldPrice"].(map[string]interface{})
	assert.Equal(t, "manual", gold["source"])
	assert.Equal(t, "manual", gold["observedAt"])

	rec = do(r, http.MethodPut, "/api/v1/rates/manual", `{"goldPricePerGram": 0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_RefreshIsRateLimited(t *testing.T) {
	r := setupServer(t, "2-M")

	for i := 0; i < 2; i++ {
		rec := do(r, http.MethodPost, "/api/v1/rates/refresh", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := do(r, http.MethodPost, "/api/v1/rates/refresh", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	errObj := decode(t, rec)["error"].(map[string]interface{})
	assert.Equal(t, "TOO_MANY_REQUESTS", errObj["code"])

	// Other routes are not limited.
	rec = do(r, http.MethodGet, "/api/v1/rates", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_GoldPriceAndDocs(t *testing.T) {
	r := setupServer(t, "10-M")

	rec := do(r, http.MethodGet, "/api/gold-price", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, 80.0, body["pricePerGramUSD"])
	assert.Equal(t, "public, max-age=900", rec.Header().Get("Cache-Control"))

	rec = do(r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(r, http.MethodGet, "/swagger/doc.json", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Zakah Calculator API")
}
