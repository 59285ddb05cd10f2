package planner

import (
	"fmt"
	"sort"
	"time"

	"example.com/payment-planner/backend/internal/models"
)

// Engine распределяет месячный бюджет по счетам: минимальные платежи,
// исправление превышения лимита, AZEO и метод лавины.
type Engine struct {
	cfg Config
}

// NewEngine создает движок; нулевые поля конфигурации заменяются значениями по умолчанию.
func NewEngine(cfg Config) *Engine {
	defaults := DefaultConfig()

	if cfg.OverLimitBufferCents <= 0 {
		cfg.OverLimitBufferCents = defaults.OverLimitBufferCents
	}
	if cfg.ReporterTargetCents <= 0 {
		cfg.ReporterTargetCents = defaults.ReporterTargetCents
	}
	if cfg.ReporterTriggerCents <= 0 {
		cfg.ReporterTriggerCents = defaults.ReporterTriggerCents
	}
	if cfg.AvalancheFloorCents <= 0 {
		cfg.AvalancheFloorCents = defaults.AvalancheFloorCents
	}
	if cfg.PayByLeadDays <= 0 {
		cfg.PayByLeadDays = defaults.PayByLeadDays
	}
	if len(cfg.PreferredIssuerKinds) == 0 {
		cfg.PreferredIssuerKinds = defaults.PreferredIssuerKinds
	}

	return &Engine{cfg: cfg}
}

// GeneratePlan строит план платежей на месяц. Месяц и год используются
// только для маркировки запроса; арифметика дат опирается на даты закрытия выписок.
func (e *Engine) GeneratePlan(accounts []Account, budgetCents int64, targetMonth, targetYear int) (Plan, error) {
	if err := validateAccounts(accounts); err != nil {
		return Plan{}, err
	}

	if len(accounts) == 0 {
		return Plan{
			TotalBudgetCents: budgetCents,
			RemainingCents:   budgetCents,
			Allocations:      []Entry{},
			Strategy:         StrategyNoAccounts,
			Objectives:       []string{"Import statements or add accounts to generate a plan"},
		}, nil
	}

	var entries []Entry
	var objectives []string
	remaining := budgetCents

	// Stage 1: reserve minimum payments.
	var totalMin int64
	for _, account := range accounts {
		totalMin += account.MinPaymentCents
	}

	if totalMin > budgetCents {
		return Plan{}, &InsufficientBudgetError{BudgetCents: budgetCents, RequiredCents: totalMin}
	}

	for _, account := range accounts {
		if account.MinPaymentCents > 0 {
			entries = append(entries, Entry{
				AccountID:   account.ID,
				AmountCents: account.MinPaymentCents,
				Rationale:   rationaleMinPayment,
				DueBy:       account.DueDate,
				Priority:    priorityMinPayment,
			})
		}
	}

	remaining -= totalMin
	objectives = append(objectives, fmt.Sprintf("Reserved %s for minimum payments", dollars(totalMin)))

	// Stage 2: fix over-limit cards, input order.
	for _, account := range accounts {
		if account.Type != models.AccountTypeCard || account.LimitCents <= 0 || account.BalanceCents <= account.LimitCents {
			continue
		}

		excess := account.BalanceCents - account.LimitCents
		amount := minCents(excess+e.cfg.OverLimitBufferCents, remaining)
		if amount <= 0 {
			continue
		}

		entries = append(entries, Entry{
			AccountID:   account.ID,
			AmountCents: amount,
			Rationale:   rationaleOverLimit,
			DueBy:       e.payByDate(account.CloseDate),
			Priority:    priorityOverLimit,
		})
		remaining -= amount
		objectives = append(objectives, fmt.Sprintf("Fixed over-limit on %s", account.DisplayName))
	}

	// Stage 3: choose the reporter card.
	cards := cardsWithBalance(accounts)
	reporter := e.chooseReporter(cards)
	if reporter != nil {
		objectives = append(objectives, fmt.Sprintf("Selected %s as reporter card", reporter.DisplayName))
	}

	// Stage 4: drive non-reporter cards to the reserved minimum.
	nonReporters := make([]Account, 0, len(cards))
	for _, card := range cards {
		if reporter != nil && card.ID == reporter.ID {
			continue
		}
		nonReporters = append(nonReporters, card)
	}
	sortByAprDesc(nonReporters)

	for _, card := range nonReporters {
		payoff := card.BalanceCents - card.MinPaymentCents
		amount := minCents(payoff, remaining)
		if amount <= 0 {
			continue
		}

		willReportZero := amount == payoff
		entries = append(entries, Entry{
			AccountID:      card.ID,
			AmountCents:    amount,
			Rationale:      rationalePayoff,
			DueBy:          e.payByDate(card.CloseDate),
			WillReportZero: willReportZero,
			Priority:       priorityPayoff,
		})
		remaining -= amount

		if willReportZero {
			objectives = append(objectives, fmt.Sprintf("%s will report $0", card.DisplayName))
		}
	}

	// Stage 5: pay the reporter down to a small nonzero balance.
	if reporter != nil && remaining > 0 {
		if reporter.BalanceCents > e.cfg.ReporterTargetCents+e.cfg.ReporterTriggerCents {
			amount := minCents(reporter.BalanceCents-e.cfg.ReporterTargetCents, remaining)
			entries = append(entries, Entry{
				AccountID:   reporter.ID,
				AmountCents: amount,
				Rationale:   fmt.Sprintf("AZEO: Optimize reporter balance to ~%s", dollars(e.cfg.ReporterTargetCents)),
				DueBy:       e.payByDate(reporter.CloseDate),
				Priority:    priorityReporter,
			})
			remaining -= amount
			objectives = append(objectives, "Optimized reporter card balance")
		}
	}

	// Stage 6: avalanche the rest by APR.
	avalanche := accountsWithBalance(accounts)
	sortByAprDesc(avalanche)

	for _, account := range avalanche {
		if remaining <= 0 {
			break
		}

		amount := minCents(account.BalanceCents, remaining)
		if amount <= e.cfg.AvalancheFloorCents {
			continue
		}

		entries = append(entries, Entry{
			AccountID:   account.ID,
			AmountCents: amount,
			Rationale:   fmt.Sprintf("Avalanche: Highest APR (%s%%)", formatApr(account.AprPct)),
			DueBy:       e.payByDate(account.CloseDate),
			Priority:    priorityAvalanche,
		})
		remaining -= amount
		objectives = append(objectives, "Applied avalanche method")
	}

	return Plan{
		TotalBudgetCents:    budgetCents,
		TotalAllocatedCents: budgetCents - remaining,
		RemainingCents:      remaining,
		Allocations:         Consolidate(entries),
		Strategy:            StrategyLabel,
		Objectives:          objectives,
	}, nil
}

// chooseReporter выбирает карту-репортер: сначала предпочтительные банки,
// затем карта с большим лимитом. Сортировка стабильная, выбор детерминирован.
func (e *Engine) chooseReporter(cards []Account) *Account {
	candidates := make([]Account, 0, len(cards))
	for _, card := range cards {
		if card.LimitCents > 0 {
			candidates = append(candidates, card)
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		preferredI := e.isPreferredIssuer(candidates[i].InstitutionKind)
		preferredJ := e.isPreferredIssuer(candidates[j].InstitutionKind)
		if preferredI != preferredJ {
			return preferredI
		}

		return candidates[i].LimitCents > candidates[j].LimitCents
	})

	reporter := candidates[0]
	return &reporter
}

func (e *Engine) isPreferredIssuer(kind string) bool {
	for _, preferred := range e.cfg.PreferredIssuerKinds {
		if kind == preferred {
			return true
		}
	}

	return false
}

// payByDate возвращает дату платежа: за PayByLeadDays дней до закрытия выписки.
func (e *Engine) payByDate(closeDate *time.Time) *time.Time {
	if closeDate == nil {
		return nil
	}

	payBy := closeDate.AddDate(0, 0, -e.cfg.PayByLeadDays)
	return &payBy
}

func validateAccounts(accounts []Account) error {
	for _, account := range accounts {
		if account.BalanceCents < 0 {
			return fmt.Errorf("account %s: negative balance", account.ID)
		}
		if account.LimitCents < 0 {
			return fmt.Errorf("account %s: negative limit", account.ID)
		}
		if account.AprPct < 0 {
			return fmt.Errorf("account %s: negative apr", account.ID)
		}
		if account.MinPaymentCents < 0 {
			return fmt.Errorf("account %s: negative minimum payment", account.ID)
		}
	}

	return nil
}

func cardsWithBalance(accounts []Account) []Account {
	cards := make([]Account, 0, len(accounts))
	for _, account := range accounts {
		if account.Type == models.AccountTypeCard && account.BalanceCents > 0 {
			cards = append(cards, account)
		}
	}

	return cards
}

func accountsWithBalance(accounts []Account) []Account {
	out := make([]Account, 0, len(accounts))
	for _, account := range accounts {
		if account.BalanceCents > 0 {
			out = append(out, account)
		}
	}

	return out
}

func sortByAprDesc(accounts []Account) {
	sort.SliceStable(accounts, func(i, j int) bool {
		return accounts[i].AprPct > accounts[j].AprPct
	})
}

func minCents(a, b int64) int64 {
	if a < b {
		return a
	}

	return b
}
