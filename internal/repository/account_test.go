package repository

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"example.com/payment-planner/backend/internal/models"
)

// TestValidateSnapshot проверяет отсечение испорченных данных счета.
func TestValidateSnapshot(t *testing.T) {
	valid := AccountSnapshot{
		Account:         models.Account{ID: uuid.New()},
		BalanceCents:    100000,
		LimitCents:      500000,
		AprPct:          24.99,
		MinPaymentCents: 4000,
	}
	if err := validateSnapshot(valid); err != nil {
		t.Fatalf("expected valid snapshot, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*AccountSnapshot)
	}{
		{"negative balance", func(s *AccountSnapshot) { s.BalanceCents = -1 }},
		{"negative limit", func(s *AccountSnapshot) { s.LimitCents = -1 }},
		{"negative apr", func(s *AccountSnapshot) { s.AprPct = -0.1 }},
		{"negative min payment", func(s *AccountSnapshot) { s.MinPaymentCents = -1 }},
	}

	for _, tc := range cases {
		snapshot := valid
		tc.mutate(&snapshot)

		err := validateSnapshot(snapshot)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !errors.Is(err, ErrInvalid) {
			t.Fatalf("%s: expected ErrInvalid, got %v", tc.name, err)
		}
	}
}
