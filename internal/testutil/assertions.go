package testutil

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	apperrors "brandnft/internal/errors"
)

// AssertAppError fails the test unless err unwraps to an *AppError carrying
// code. The matched error is returned for further checks.
func AssertAppError(t *testing.T, err error, code string) *apperrors.AppError {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %s, got nil", code)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError with code %s, got %T: %v", code, err, err)
	}
	if appErr.Code != code {
		t.Errorf("expected %s, got %s (%s)", code, appErr.Code, appErr.Message)
	}
	return appErr
}

// AssertNoError stops the test on any error.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertDecimal compares amounts numerically, so "0.10" equals "0.1". Every
// fractional digit counts.
func AssertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()

	if !decimal.RequireFromString(want).Equal(got) {
		t.Errorf("expected amount %s, got %s", want, got.String())
	}
}
