package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/mohammedbabelly/zakah-calculator/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %v", code, errObj["code"])
	}
}

// assertDecimalField checks a decimal encoded as a JSON string or number.
func assertDecimalField(t *testing.T, obj map[string]interface{}, field, want string) {
	t.Helper()
	var got decimal.Decimal
	var err error
	switch v := obj[field].(type) {
	case string:
		got, err = decimal.NewFromString(v)
	case float64:
		got = decimal.NewFromFloat(v)
	default:
		t.Fatalf("field %q: unexpected value %v", field, obj[field])
	}
	if err != nil {
		t.Fatalf("field %q: %v", field, err)
	}
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Errorf("field %q: expected %s, got %s", field, want, got)
	}
}
