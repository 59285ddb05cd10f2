package handlers

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"example.com/payment-planner/backend/internal/models"
	"example.com/payment-planner/backend/internal/repository"
)

func dashboardSnapshot(name string, accountType models.AccountType, balance, limit int64) repository.AccountSnapshot {
	return repository.AccountSnapshot{
		Account: models.Account{
			ID:          uuid.New(),
			Type:        accountType,
			DisplayName: name,
		},
		InstitutionName: "Chase",
		InstitutionKind: "CHASE",
		BalanceCents:    balance,
		LimitCents:      limit,
	}
}

// TestBuildDashboardTotals проверяет суммы и utilization по картам.
func TestBuildDashboardTotals(t *testing.T) {
	snapshots := []repository.AccountSnapshot{
		dashboardSnapshot("Card A", models.AccountTypeCard, 25000, 100000),
		dashboardSnapshot("Card B", models.AccountTypeCard, 0, 50000),
		dashboardSnapshot("Car loan", models.AccountTypeLoan, 500000, 0),
	}

	response := buildDashboard(snapshots, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	if response.TotalBalanceCents != 525000 {
		t.Fatalf("expected total balance 525000, got %d", response.TotalBalanceCents)
	}
	if response.TotalLimitCents != 150000 {
		t.Fatalf("expected total limit 150000, got %d", response.TotalLimitCents)
	}
	if response.CardsWithBalance != 1 {
		t.Fatalf("expected 1 card with balance, got %d", response.CardsWithBalance)
	}

	// Кредит не должен попадать в utilization.
	if response.UtilizationPct == nil {
		t.Fatal("expected utilization to be set")
	}
	want := float64(25000) / float64(150000) * 100
	if *response.UtilizationPct != want {
		t.Fatalf("expected utilization %.4f, got %.4f", want, *response.UtilizationPct)
	}
}

// TestBuildDashboardAlerts проверяет алерты о перелимите и высокой utilization.
func TestBuildDashboardAlerts(t *testing.T) {
	snapshots := []repository.AccountSnapshot{
		dashboardSnapshot("Over", models.AccountTypeCard, 110000, 100000),
		dashboardSnapshot("High", models.AccountTypeCard, 40000, 100000),
		dashboardSnapshot("Low", models.AccountTypeCard, 1000, 100000),
	}
	now := time.Now()
	for i := range snapshots {
		snapshots[i].CloseDate = &now
	}

	response := buildDashboard(snapshots, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	var danger, warning int
	for _, alert := range response.Alerts {
		switch alert.Level {
		case models.AlertLevelDanger:
			danger++
		case models.AlertLevelWarning:
			warning++
		}
	}

	if danger != 1 {
		t.Fatalf("expected 1 danger alert, got %d", danger)
	}
	if warning != 1 {
		t.Fatalf("expected 1 warning alert, got %d", warning)
	}
}

// TestBuildDashboardNextDates проверяет выбор ближайших дат.
func TestBuildDashboardNextDates(t *testing.T) {
	near := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	far := time.Date(2026, 3, 25, 0, 0, 0, 0, time.UTC)

	first := dashboardSnapshot("A", models.AccountTypeCard, 1000, 100000)
	first.DueDate = &far
	first.CloseDate = &far
	second := dashboardSnapshot("B", models.AccountTypeCard, 1000, 100000)
	second.DueDate = &near
	second.CloseDate = &near

	response := buildDashboard([]repository.AccountSnapshot{first, second}, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	if response.NextDueDate == nil || *response.NextDueDate != "2026-03-10" {
		t.Fatalf("expected next due 2026-03-10, got %v", response.NextDueDate)
	}
	if response.NextCloseDate == nil || *response.NextCloseDate != "2026-03-10" {
		t.Fatalf("expected next close 2026-03-10, got %v", response.NextCloseDate)
	}
}

// TestBuildDashboardDueSoonAlert проверяет предупреждение о близком платеже.
func TestBuildDashboardDueSoonAlert(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	soon := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	far := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)

	first := dashboardSnapshot("Soon", models.AccountTypeCard, 10000, 100000)
	first.DueDate = &soon
	first.MinPaymentCents = 2500
	first.CloseDate = &soon
	second := dashboardSnapshot("Later", models.AccountTypeCard, 10000, 100000)
	second.DueDate = &far
	second.MinPaymentCents = 2500
	second.CloseDate = &far

	response := buildDashboard([]repository.AccountSnapshot{first, second}, now)

	var dueAlerts int
	for _, alert := range response.Alerts {
		if alert.Level == models.AlertLevelWarning {
			dueAlerts++
		}
	}
	if dueAlerts != 1 {
		t.Fatalf("expected 1 due-soon warning, got %d", dueAlerts)
	}
}

// TestBuildDashboardEmpty проверяет сводку без счетов.
func TestBuildDashboardEmpty(t *testing.T) {
	response := buildDashboard(nil, time.Now())

	if response.TotalBalanceCents != 0 {
		t.Fatalf("expected zero balance, got %d", response.TotalBalanceCents)
	}
	if response.UtilizationPct != nil {
		t.Fatal("expected no utilization without limits")
	}
	if len(response.Accounts) != 0 || len(response.Alerts) != 0 {
		t.Fatal("expected empty accounts and alerts")
	}
}
