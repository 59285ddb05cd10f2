package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/payment-planner/backend/internal/auth"
	"example.com/payment-planner/backend/internal/models"
	"example.com/payment-planner/backend/internal/repository"
)

type DashboardHandler struct {
	Accounts *repository.AccountRepository
}

// NewDashboardHandler создает обработчик сводки по счетам.
func NewDashboardHandler(accounts *repository.AccountRepository) *DashboardHandler {
	return &DashboardHandler{Accounts: accounts}
}

type DashboardAccount struct {
	ID              uuid.UUID          `json:"id"`
	DisplayName     string             `json:"display_name"`
	InstitutionName string             `json:"institution_name"`
	Type            models.AccountType `json:"type"`
	BalanceCents    int64              `json:"balance_cents"`
	LimitCents      int64              `json:"limit_cents,omitempty"`
	UtilizationPct  *float64           `json:"utilization_pct,omitempty"`
	AprPct          float64            `json:"apr_pct"`
	MinPaymentCents int64              `json:"min_payment_cents"`
	DueDate         *string            `json:"due_date,omitempty"`
	CloseDate       *string            `json:"close_date,omitempty"`
}

type DashboardAlert struct {
	Level   models.AlertLevel `json:"level"`
	Message string            `json:"message"`
}

type DashboardResponse struct {
	TotalBalanceCents int64              `json:"total_balance_cents"`
	TotalLimitCents   int64              `json:"total_limit_cents"`
	UtilizationPct    *float64           `json:"utilization_pct,omitempty"`
	CardsWithBalance  int                `json:"cards_with_balance"`
	NextDueDate       *string            `json:"next_due_date,omitempty"`
	NextCloseDate     *string            `json:"next_close_date,omitempty"`
	Accounts          []DashboardAccount `json:"accounts"`
	Alerts            []DashboardAlert   `json:"alerts"`
}

// Overview возвращает сводку по счетам: балансы, utilization и алерты.
func (h *DashboardHandler) Overview(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	snapshots, err := h.Accounts.Snapshot(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrInvalid) {
			return badRequest(c, "account data is malformed")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, buildDashboard(snapshots, time.Now().UTC()))
}

func buildDashboard(snapshots []repository.AccountSnapshot, now time.Time) DashboardResponse {
	response := DashboardResponse{
		Accounts: make([]DashboardAccount, 0, len(snapshots)),
		Alerts:   []DashboardAlert{},
	}

	var nextDue, nextClose *time.Time
	var cardBalanceCents int64
	for _, snapshot := range snapshots {
		account := DashboardAccount{
			ID:              snapshot.Account.ID,
			DisplayName:     snapshot.Account.DisplayName,
			InstitutionName: snapshot.InstitutionName,
			Type:            snapshot.Account.Type,
			BalanceCents:    snapshot.BalanceCents,
			LimitCents:      snapshot.LimitCents,
			AprPct:          snapshot.AprPct,
			MinPaymentCents: snapshot.MinPaymentCents,
		}

		if snapshot.DueDate != nil {
			formatted := snapshot.DueDate.Format(dateLayout)
			account.DueDate = &formatted
			if nextDue == nil || snapshot.DueDate.Before(*nextDue) {
				nextDue = snapshot.DueDate
			}

			daysLeft := int(snapshot.DueDate.Sub(now).Hours() / 24)
			if snapshot.MinPaymentCents > 0 && !snapshot.DueDate.Before(now) && daysLeft <= 7 {
				response.Alerts = append(response.Alerts, DashboardAlert{
					Level:   models.AlertLevelWarning,
					Message: fmt.Sprintf("%s minimum payment is due by %s", snapshot.Account.DisplayName, formatted),
				})
			}
		}
		if snapshot.CloseDate != nil {
			formatted := snapshot.CloseDate.Format(dateLayout)
			account.CloseDate = &formatted
			if nextClose == nil || snapshot.CloseDate.Before(*nextClose) {
				nextClose = snapshot.CloseDate
			}
		}

		response.TotalBalanceCents += snapshot.BalanceCents

		if snapshot.Account.Type == models.AccountTypeCard {
			cardBalanceCents += snapshot.BalanceCents
		}

		if snapshot.Account.Type == models.AccountTypeCard && snapshot.LimitCents > 0 {
			response.TotalLimitCents += snapshot.LimitCents

			utilization := float64(snapshot.BalanceCents) / float64(snapshot.LimitCents) * 100
			account.UtilizationPct = &utilization

			switch {
			case snapshot.BalanceCents > snapshot.LimitCents:
				response.Alerts = append(response.Alerts, DashboardAlert{
					Level:   models.AlertLevelDanger,
					Message: fmt.Sprintf("%s is over its credit limit", snapshot.Account.DisplayName),
				})
			case utilization >= 30:
				response.Alerts = append(response.Alerts, DashboardAlert{
					Level:   models.AlertLevelWarning,
					Message: fmt.Sprintf("%s utilization is %.0f%%", snapshot.Account.DisplayName, utilization),
				})
			}
		}

		if snapshot.Account.Type == models.AccountTypeCard && snapshot.BalanceCents > 0 {
			response.CardsWithBalance++
		}
		if snapshot.Account.Type == models.AccountTypeCard && snapshot.CloseDate == nil {
			response.Alerts = append(response.Alerts, DashboardAlert{
				Level:   models.AlertLevelInfo,
				Message: fmt.Sprintf("%s has no statement yet", snapshot.Account.DisplayName),
			})
		}

		response.Accounts = append(response.Accounts, account)
	}

	// Общая utilization считается только по картам.
	if response.TotalLimitCents > 0 {
		utilization := float64(cardBalanceCents) / float64(response.TotalLimitCents) * 100
		response.UtilizationPct = &utilization
	}
	if nextDue != nil {
		formatted := nextDue.Format(dateLayout)
		response.NextDueDate = &formatted
	}
	if nextClose != nil {
		formatted := nextClose.Format(dateLayout)
		response.NextCloseDate = &formatted
	}

	return response
}
