package testutil

import (
	"errors"
	"testing"

	apperrors "github.com/mohammedbabelly/zakah-calculator/internal/errors"
)

// AssertAppError checks that err carries want's code and HTTP status
// somewhere in its chain.
func AssertAppError(t *testing.T, err error, want *apperrors.AppError) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %s, got nil", want.Code)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected %s, got %T: %v", want.Code, err, err)
	}

	if appErr.Code != want.Code || appErr.StatusCode != want.StatusCode {
		t.Errorf("expected %s (%d), got %s (%d): %s", want.Code, want.StatusCode, appErr.Code, appErr.StatusCode, appErr.Message)
	}
}
