package planner

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"example.com/payment-planner/backend/internal/models"
)

const (
	StrategyLabel      = "AZEO + Avalanche"
	StrategyNoAccounts = "No accounts available"

	priorityMinPayment = 1
	priorityOverLimit  = 2
	priorityPayoff     = 3
	priorityReporter   = 4
	priorityAvalanche  = 5

	rationaleMinPayment = "Minimum payment required"
	rationaleOverLimit  = "Fix over-limit status"
	rationalePayoff     = "AZEO: Drive to $0 balance"
)

// Account — снимок счета на момент расчета. Движок его не изменяет.
type Account struct {
	ID              uuid.UUID
	Type            models.AccountType
	DisplayName     string
	InstitutionKind string
	BalanceCents    int64
	LimitCents      int64
	AprPct          float64
	MinPaymentCents int64
	DueDate         *time.Time
	CloseDate       *time.Time
}

// Entry — одна строка плана платежей.
type Entry struct {
	AccountID      uuid.UUID  `json:"account_id"`
	AmountCents    int64      `json:"amount_cents"`
	Rationale      string     `json:"rationale"`
	DueBy          *time.Time `json:"due_by,omitempty"`
	WillReportZero bool       `json:"will_report_zero"`
	Priority       int        `json:"priority"`
}

// Plan — результат распределения бюджета.
type Plan struct {
	TotalBudgetCents    int64    `json:"total_budget_cents"`
	TotalAllocatedCents int64    `json:"total_allocated_cents"`
	RemainingCents      int64    `json:"remaining_cents"`
	Allocations         []Entry  `json:"allocations"`
	Strategy            string   `json:"strategy"`
	Objectives          []string `json:"objectives"`
}

// Config — настройки движка. Значения по умолчанию см. DefaultConfig.
type Config struct {
	OverLimitBufferCents int64
	ReporterTargetCents  int64
	ReporterTriggerCents int64
	AvalancheFloorCents  int64
	PayByLeadDays        int
	PreferredIssuerKinds []string
}

// DefaultConfig возвращает настройки движка по умолчанию.
func DefaultConfig() Config {
	return Config{
		OverLimitBufferCents: 1000,
		ReporterTargetCents:  3000,
		ReporterTriggerCents: 5000,
		AvalancheFloorCents:  1000,
		PayByLeadDays:        5,
		PreferredIssuerKinds: []string{"CHASE", "CAPITALONE", "APPLE"},
	}
}

// InsufficientBudgetError — бюджет не покрывает сумму минимальных платежей.
type InsufficientBudgetError struct {
	BudgetCents   int64
	RequiredCents int64
}

func (e *InsufficientBudgetError) Error() string {
	return fmt.Sprintf("budget %s is insufficient for minimum payments %s",
		dollars(e.BudgetCents), dollars(e.RequiredCents))
}

// ShortfallCents возвращает недостающую сумму в центах.
func (e *InsufficientBudgetError) ShortfallCents() int64 {
	return e.RequiredCents - e.BudgetCents
}

func dollars(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	if cents%100 == 0 {
		return fmt.Sprintf("%s$%d", sign, cents/100)
	}

	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

func formatApr(aprPct float64) string {
	return strconv.FormatFloat(aprPct, 'f', -1, 64)
}
