package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestQuotaExceededErrorMatchesSentinel(t *testing.T) {
	err := &QuotaExceededError{Limit: 3}

	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatal("QuotaExceededError must match ErrQuotaExceeded")
	}

	wrapped := fmt.Errorf("login: %w", err)
	var qe *QuotaExceededError
	if !errors.As(wrapped, &qe) {
		t.Fatal("expected As to unwrap QuotaExceededError")
	}
	if qe.Limit != 3 {
		t.Fatalf("expected limit 3, got %d", qe.Limit)
	}
}

func TestQuotaExceededErrorMessageCarriesLimit(t *testing.T) {
	err := &QuotaExceededError{Limit: 1}
	want := "maximum of 1 simultaneous connections reached"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}
