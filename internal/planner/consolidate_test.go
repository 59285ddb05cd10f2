package planner

import (
	"reflect"
	"testing"

	"github.com/google/uuid"
)

// TestConsolidateMergesByAccount проверяет слияние записей одного счета.
func TestConsolidateMergesByAccount(t *testing.T) {
	accountA := uuid.New()
	accountB := uuid.New()

	entries := []Entry{
		{AccountID: accountA, AmountCents: 2500, Rationale: "Minimum payment required", Priority: 1},
		{AccountID: accountB, AmountCents: 1000, Rationale: "Minimum payment required", Priority: 1},
		{AccountID: accountA, AmountCents: 7500, Rationale: "AZEO: Drive to $0 balance", WillReportZero: true, Priority: 3},
	}

	merged := Consolidate(entries)
	if len(merged) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(merged))
	}

	first := merged[0]
	if first.AccountID != accountA {
		t.Fatalf("expected account A first, got %s", first.AccountID)
	}
	if first.AmountCents != 10000 {
		t.Fatalf("expected merged amount 10000, got %d", first.AmountCents)
	}
	if first.Rationale != "Minimum payment required + AZEO: Drive to $0 balance" {
		t.Fatalf("unexpected rationale: %s", first.Rationale)
	}
	if !first.WillReportZero {
		t.Fatal("expected flag to survive the merge")
	}
	if first.Priority != 1 {
		t.Fatalf("expected the most urgent priority, got %d", first.Priority)
	}
}

// TestConsolidateOrdersByPriority проверяет порядок по приоритету со стабильными ничьими.
func TestConsolidateOrdersByPriority(t *testing.T) {
	urgent := uuid.New()
	laterA := uuid.New()
	laterB := uuid.New()

	entries := []Entry{
		{AccountID: laterA, AmountCents: 100, Rationale: "a", Priority: 5},
		{AccountID: laterB, AmountCents: 200, Rationale: "b", Priority: 5},
		{AccountID: urgent, AmountCents: 300, Rationale: "c", Priority: 2},
	}

	merged := Consolidate(entries)
	if merged[0].AccountID != urgent {
		t.Fatalf("expected the urgent entry first, got %s", merged[0].AccountID)
	}
	if merged[1].AccountID != laterA || merged[2].AccountID != laterB {
		t.Fatal("expected ties to keep first-merge order")
	}
}

// TestConsolidateIdempotent проверяет идемпотентность повторной консолидации.
func TestConsolidateIdempotent(t *testing.T) {
	entries := []Entry{
		{AccountID: uuid.New(), AmountCents: 2500, Rationale: "Minimum payment required", Priority: 1},
		{AccountID: uuid.New(), AmountCents: 4200, Rationale: "Fix over-limit status", Priority: 2},
	}

	once := Consolidate(entries)
	twice := Consolidate(once)

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("expected idempotent consolidation, got %v then %v", once, twice)
	}
}

// TestConsolidateEmpty проверяет консолидацию пустого списка.
func TestConsolidateEmpty(t *testing.T) {
	if merged := Consolidate(nil); len(merged) != 0 {
		t.Fatalf("expected empty result, got %d entries", len(merged))
	}
}
