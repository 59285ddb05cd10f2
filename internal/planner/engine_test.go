package planner

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"example.com/payment-planner/backend/internal/models"
)

type testAccount struct {
	name    string
	kind    string
	accType models.AccountType
	balance int64
	limit   int64
	apr     float64
	minPay  int64
	close   *time.Time
	due     *time.Time
}

func buildAccount(tc testAccount) Account {
	return Account{
		ID:              uuid.New(),
		Type:            tc.accType,
		DisplayName:     tc.name,
		InstitutionKind: tc.kind,
		BalanceCents:    tc.balance,
		LimitCents:      tc.limit,
		AprPct:          tc.apr,
		MinPaymentCents: tc.minPay,
		CloseDate:       tc.close,
		DueDate:         tc.due,
	}
}

func datePtr(year int, month time.Month, day int) *time.Time {
	value := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &value
}

// TestGeneratePlanSingleCard проверяет план для единственной карты-репортера.
func TestGeneratePlanSingleCard(t *testing.T) {
	card := buildAccount(testAccount{
		name:    "Chase Freedom",
		kind:    "CHASE",
		accType: models.AccountTypeCard,
		balance: 50000,
		limit:   100000,
		apr:     20,
		minPay:  2500,
	})

	engine := NewEngine(DefaultConfig())
	plan, err := engine.GeneratePlan([]Account{card}, 50000, 1, 2026)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Minimum $25 plus reporter paydown to $30; the last $5 is below the
	// avalanche materiality floor and stays unallocated.
	if plan.TotalAllocatedCents != 49500 {
		t.Fatalf("expected 49500 allocated, got %d", plan.TotalAllocatedCents)
	}
	if plan.RemainingCents != 500 {
		t.Fatalf("expected 500 remaining, got %d", plan.RemainingCents)
	}

	if len(plan.Allocations) != 1 {
		t.Fatalf("expected one consolidated entry, got %d", len(plan.Allocations))
	}

	entry := plan.Allocations[0]
	if entry.AccountID != card.ID {
		t.Fatalf("unexpected account id: %s", entry.AccountID)
	}
	if entry.AmountCents != 49500 {
		t.Fatalf("expected entry amount 49500, got %d", entry.AmountCents)
	}
	if entry.Priority != 1 {
		t.Fatalf("expected priority 1 after consolidation, got %d", entry.Priority)
	}
	if entry.WillReportZero {
		t.Fatal("reporter card must not report zero")
	}
	if entry.Rationale != "Minimum payment required + AZEO: Optimize reporter balance to ~$30" {
		t.Fatalf("unexpected rationale: %s", entry.Rationale)
	}

	if plan.Strategy != StrategyLabel {
		t.Fatalf("unexpected strategy: %s", plan.Strategy)
	}
}

// TestGeneratePlanOverLimit проверяет исправление превышения лимита и выплату не-репортера.
func TestGeneratePlanOverLimit(t *testing.T) {
	overLimit := buildAccount(testAccount{
		name:    "Mission Lane",
		kind:    "MISSIONLANE",
		accType: models.AccountTypeCard,
		balance: 100000,
		limit:   90000,
		apr:     25,
		minPay:  3000,
	})
	reporter := buildAccount(testAccount{
		name:    "Capital One",
		kind:    "CAPITALONE",
		accType: models.AccountTypeCard,
		balance: 20000,
		limit:   100000,
		apr:     15,
		minPay:  1000,
	})

	engine := NewEngine(DefaultConfig())
	plan, err := engine.GeneratePlan([]Account{overLimit, reporter}, 30000, 1, 2026)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if plan.TotalAllocatedCents != 30000 {
		t.Fatalf("expected full budget allocated, got %d", plan.TotalAllocatedCents)
	}
	if plan.RemainingCents != 0 {
		t.Fatalf("expected 0 remaining, got %d", plan.RemainingCents)
	}

	if len(plan.Allocations) != 2 {
		t.Fatalf("expected two consolidated entries, got %d", len(plan.Allocations))
	}

	// Minimums $40, over-limit fix $110 (excess $100 + $10 buffer), and the
	// remaining $150 drives the non-reporter toward zero.
	first := plan.Allocations[0]
	if first.AccountID != overLimit.ID {
		t.Fatalf("expected over-limit account first, got %s", first.AccountID)
	}
	if first.AmountCents != 29000 {
		t.Fatalf("expected 29000 for over-limit account, got %d", first.AmountCents)
	}

	second := plan.Allocations[1]
	if second.AccountID != reporter.ID {
		t.Fatalf("expected reporter second, got %s", second.AccountID)
	}
	if second.AmountCents != 1000 {
		t.Fatalf("expected 1000 for reporter, got %d", second.AmountCents)
	}
}

// TestGeneratePlanInsufficientBudget проверяет типизированную ошибку нехватки бюджета.
func TestGeneratePlanInsufficientBudget(t *testing.T) {
	accounts := []Account{
		buildAccount(testAccount{name: "Card A", accType: models.AccountTypeCard, balance: 30000, limit: 50000, minPay: 3000}),
		buildAccount(testAccount{name: "Loan B", accType: models.AccountTypeLoan, balance: 500000, minPay: 2000}),
	}

	engine := NewEngine(DefaultConfig())
	_, err := engine.GeneratePlan(accounts, 1000, 1, 2026)
	if err == nil {
		t.Fatal("expected insufficient budget error")
	}

	var budgetErr *InsufficientBudgetError
	if !errors.As(err, &budgetErr) {
		t.Fatalf("expected InsufficientBudgetError, got %T", err)
	}

	if budgetErr.ShortfallCents() != 4000 {
		t.Fatalf("expected shortfall 4000, got %d", budgetErr.ShortfallCents())
	}
}

// TestGeneratePlanNoAccounts проверяет пустой план при отсутствии счетов.
func TestGeneratePlanNoAccounts(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	plan, err := engine.GeneratePlan(nil, 123456, 3, 2026)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if plan.TotalAllocatedCents != 0 {
		t.Fatalf("expected nothing allocated, got %d", plan.TotalAllocatedCents)
	}
	if plan.RemainingCents != 123456 {
		t.Fatalf("expected full budget remaining, got %d", plan.RemainingCents)
	}
	if len(plan.Allocations) != 0 {
		t.Fatalf("expected no allocations, got %d", len(plan.Allocations))
	}
	if plan.Strategy != StrategyNoAccounts {
		t.Fatalf("unexpected strategy: %s", plan.Strategy)
	}
	if len(plan.Objectives) != 1 {
		t.Fatalf("expected one objective note, got %d", len(plan.Objectives))
	}
}

// TestGeneratePlanBudgetInvariant проверяет точность арифметики распределения.
func TestGeneratePlanBudgetInvariant(t *testing.T) {
	accounts := []Account{
		buildAccount(testAccount{name: "Card A", kind: "CHASE", accType: models.AccountTypeCard, balance: 84211, limit: 100000, apr: 23.99, minPay: 3500, close: datePtr(2026, 2, 14)}),
		buildAccount(testAccount{name: "Card B", kind: "LOCALCU", accType: models.AccountTypeCard, balance: 31700, limit: 30000, apr: 27.5, minPay: 1200, close: datePtr(2026, 2, 3)}),
		buildAccount(testAccount{name: "Auto Loan", kind: "TOYOTA", accType: models.AccountTypeLoan, balance: 1250000, apr: 6.25, minPay: 28900}),
		buildAccount(testAccount{name: "Checking LOC", kind: "LOCALCU", accType: models.AccountTypeBank, balance: 5000, apr: 12, minPay: 0}),
	}

	engine := NewEngine(DefaultConfig())
	plan, err := engine.GeneratePlan(accounts, 120077, 2, 2026)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if plan.TotalAllocatedCents+plan.RemainingCents != plan.TotalBudgetCents {
		t.Fatalf("allocated %d + remaining %d != budget %d",
			plan.TotalAllocatedCents, plan.RemainingCents, plan.TotalBudgetCents)
	}
	if plan.RemainingCents < 0 {
		t.Fatalf("remaining must be non-negative, got %d", plan.RemainingCents)
	}

	seen := make(map[uuid.UUID]bool)
	var entryTotal int64
	for _, entry := range plan.Allocations {
		if seen[entry.AccountID] {
			t.Fatalf("account %s appears twice after consolidation", entry.AccountID)
		}
		seen[entry.AccountID] = true

		if entry.AmountCents <= 0 {
			t.Fatalf("entry amount must be positive, got %d", entry.AmountCents)
		}
		entryTotal += entry.AmountCents
	}

	if entryTotal != plan.TotalAllocatedCents {
		t.Fatalf("entries sum to %d, plan reports %d", entryTotal, plan.TotalAllocatedCents)
	}
}

// TestChooseReporterPreferredIssuer проверяет приоритет предпочтительных банков.
func TestChooseReporterPreferredIssuer(t *testing.T) {
	small := buildAccount(testAccount{name: "Apple Card", kind: "APPLE", accType: models.AccountTypeCard, balance: 100, limit: 50000})
	big := buildAccount(testAccount{name: "Credit Union", kind: "LOCALCU", accType: models.AccountTypeCard, balance: 100, limit: 2000000})

	engine := NewEngine(DefaultConfig())

	reporter := engine.chooseReporter([]Account{big, small})
	if reporter == nil {
		t.Fatal("expected a reporter")
	}
	if reporter.ID != small.ID {
		t.Fatalf("expected preferred issuer to win, got %s", reporter.DisplayName)
	}
}

// TestChooseReporterHighestLimit проверяет выбор по лимиту внутри одного уровня.
func TestChooseReporterHighestLimit(t *testing.T) {
	low := buildAccount(testAccount{name: "Card Low", kind: "LOCALCU", accType: models.AccountTypeCard, balance: 100, limit: 30000})
	high := buildAccount(testAccount{name: "Card High", kind: "REGIONAL", accType: models.AccountTypeCard, balance: 100, limit: 90000})

	engine := NewEngine(DefaultConfig())

	reporter := engine.chooseReporter([]Account{low, high})
	if reporter == nil {
		t.Fatal("expected a reporter")
	}
	if reporter.ID != high.ID {
		t.Fatalf("expected highest limit to win, got %s", reporter.DisplayName)
	}

	// Same list, repeated runs: the same reporter every time.
	for i := 0; i < 5; i++ {
		again := engine.chooseReporter([]Account{low, high})
		if again == nil || again.ID != reporter.ID {
			t.Fatal("reporter selection must be deterministic")
		}
	}
}

// TestChooseReporterNoCandidates проверяет отсутствие репортера без подходящих карт.
func TestChooseReporterNoCandidates(t *testing.T) {
	noLimit := buildAccount(testAccount{name: "Charge Card", kind: "AMEX", accType: models.AccountTypeCard, balance: 100, limit: 0})

	engine := NewEngine(DefaultConfig())
	if reporter := engine.chooseReporter([]Account{noLimit}); reporter != nil {
		t.Fatalf("expected no reporter, got %s", reporter.DisplayName)
	}
	if reporter := engine.chooseReporter(nil); reporter != nil {
		t.Fatal("expected no reporter for empty list")
	}
}

// TestPayByDate проверяет расчет даты платежа от даты закрытия выписки.
func TestPayByDate(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	if payBy := engine.payByDate(nil); payBy != nil {
		t.Fatalf("expected flexible pay-by without close date, got %v", payBy)
	}

	closeDate := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	payBy := engine.payByDate(&closeDate)
	if payBy == nil {
		t.Fatal("expected pay-by date")
	}

	want := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	if !payBy.Equal(want) {
		t.Fatalf("expected %s, got %s", want, payBy)
	}
}

// TestGeneratePlanAvalancheFloor проверяет пропуск мелких платежей в методе лавины.
func TestGeneratePlanAvalancheFloor(t *testing.T) {
	tiny := buildAccount(testAccount{name: "Store Card", kind: "SYNCHRONY", accType: models.AccountTypeBank, balance: 800, apr: 29.99})
	loan := buildAccount(testAccount{name: "Loan", kind: "SOFI", accType: models.AccountTypeLoan, balance: 500000, apr: 9.5})

	engine := NewEngine(DefaultConfig())
	plan, err := engine.GeneratePlan([]Account{tiny, loan}, 40000, 4, 2026)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The $8 balance is below the materiality floor even though its APR is
	// the highest; the loan absorbs the whole budget instead.
	if len(plan.Allocations) != 1 {
		t.Fatalf("expected one allocation, got %d", len(plan.Allocations))
	}
	if plan.Allocations[0].AccountID != loan.ID {
		t.Fatalf("expected loan allocation, got %s", plan.Allocations[0].AccountID)
	}
	if plan.Allocations[0].AmountCents != 40000 {
		t.Fatalf("expected 40000, got %d", plan.Allocations[0].AmountCents)
	}
}

// TestGeneratePlanWillReportZero проверяет флаг нулевого баланса у не-репортеров.
func TestGeneratePlanWillReportZero(t *testing.T) {
	payoff := buildAccount(testAccount{name: "Card A", kind: "LOCALCU", accType: models.AccountTypeCard, balance: 10000, limit: 50000, apr: 24, minPay: 2500})
	starved := buildAccount(testAccount{name: "Card B", kind: "REGIONAL", accType: models.AccountTypeCard, balance: 90000, limit: 60000, apr: 18, minPay: 2500})
	reporter := buildAccount(testAccount{name: "Chase", kind: "CHASE", accType: models.AccountTypeCard, balance: 2000, limit: 100000, apr: 20, minPay: 0})

	// Budget covers minimums, the over-limit fix on Card B, and the full
	// payoff of Card A, but only part of Card B's remaining balance.
	engine := NewEngine(DefaultConfig())
	plan, err := engine.GeneratePlan([]Account{payoff, starved, reporter}, 60000, 5, 2026)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byID := make(map[uuid.UUID]Entry)
	for _, entry := range plan.Allocations {
		byID[entry.AccountID] = entry
	}

	full, ok := byID[payoff.ID]
	if !ok {
		t.Fatal("expected allocation for Card A")
	}
	if !full.WillReportZero {
		t.Fatal("Card A paid to its reserved minimum must report zero")
	}

	partial, ok := byID[starved.ID]
	if !ok {
		t.Fatal("expected allocation for Card B")
	}
	if partial.WillReportZero {
		t.Fatal("partially paid card must not report zero")
	}
}

// TestGeneratePlanMalformedAccount проверяет отказ на испорченном снимке.
func TestGeneratePlanMalformedAccount(t *testing.T) {
	bad := buildAccount(testAccount{name: "Broken", accType: models.AccountTypeCard, balance: -100, limit: 1000})

	engine := NewEngine(DefaultConfig())
	if _, err := engine.GeneratePlan([]Account{bad}, 10000, 1, 2026); err == nil {
		t.Fatal("expected error for negative balance")
	}
}
