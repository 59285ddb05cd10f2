package handlers

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/payment-planner/backend/internal/auth"
	"example.com/payment-planner/backend/internal/cache"
	"example.com/payment-planner/backend/internal/notifications"
	"example.com/payment-planner/backend/internal/planner"
	"example.com/payment-planner/backend/internal/repository"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = time.RFC3339
)

type PlanHandler struct {
	Accounts *repository.AccountRepository
	Engine   *planner.Engine
	Cache    cache.Cache
	CacheTTL time.Duration
	Notifier *notifications.Hub
}

// NewPlanHandler создает обработчик планов платежей.
func NewPlanHandler(accounts *repository.AccountRepository, engine *planner.Engine, planCache cache.Cache, cacheTTL time.Duration, notifier *notifications.Hub) *PlanHandler {
	return &PlanHandler{
		Accounts: accounts,
		Engine:   engine,
		Cache:    planCache,
		CacheTTL: cacheTTL,
		Notifier: notifier,
	}
}

type AllocationResponse struct {
	AccountID      uuid.UUID `json:"account_id"`
	AccountName    string    `json:"account_name"`
	AmountCents    int64     `json:"amount_cents"`
	Rationale      string    `json:"rationale"`
	DueBy          *string   `json:"due_by,omitempty"`
	WillReportZero bool      `json:"will_report_zero"`
	Priority       int       `json:"priority"`
}

type PlanResponse struct {
	Month               int                  `json:"month"`
	Year                int                  `json:"year"`
	TotalBudgetCents    int64                `json:"total_budget_cents"`
	TotalAllocatedCents int64                `json:"total_allocated_cents"`
	RemainingCents      int64                `json:"remaining_cents"`
	Allocations         []AllocationResponse `json:"allocations"`
	Strategy            string               `json:"strategy"`
	Objectives          []string             `json:"objectives"`
	GeneratedAt         string               `json:"generated_at"`
}

// Suggest рассчитывает план платежей на месяц по текущим выпискам.
func (h *PlanHandler) Suggest(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	budgetCents, month, year, err := parsePlanParams(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx := c.Request().Context()
	cacheKey := planCacheKey(userID, month, year, budgetCents)

	if h.Cache != nil {
		if cached, hit := h.Cache.Get(ctx, cacheKey); hit {
			var response PlanResponse
			if err := json.Unmarshal([]byte(cached), &response); err == nil {
				return c.JSON(http.StatusOK, response)
			}
		}
	}

	response, err := h.buildPlan(ctx, userID, budgetCents, month, year)
	if err != nil {
		var insufficient *planner.InsufficientBudgetError
		if errors.As(err, &insufficient) {
			return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{
				"error":           "budget below minimum payments",
				"budget_cents":    insufficient.BudgetCents,
				"required_cents":  insufficient.RequiredCents,
				"shortfall_cents": insufficient.ShortfallCents(),
			})
		}
		if errors.Is(err, repository.ErrInvalid) {
			return badRequest(c, "account data is malformed")
		}
		return serverError(c)
	}

	if h.Cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := h.Cache.Set(ctx, cacheKey, string(payload), h.CacheTTL); err != nil {
				slog.Warn("plan cache write failed", "error", err)
			}
		}
	}

	if h.Notifier != nil {
		h.Notifier.Publish(userID, notifications.PlanGenerated(month, year, response.TotalAllocatedCents))
	}

	return c.JSON(http.StatusOK, response)
}

// ExportCSV выгружает план платежей в CSV-файл.
func (h *PlanHandler) ExportCSV(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	budgetCents, month, year, err := parsePlanParams(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	response, err := h.buildPlan(c.Request().Context(), userID, budgetCents, month, year)
	if err != nil {
		var insufficient *planner.InsufficientBudgetError
		if errors.As(err, &insufficient) {
			return badRequest(c, insufficient.Error())
		}
		if errors.Is(err, repository.ErrInvalid) {
			return badRequest(c, "account data is malformed")
		}
		return serverError(c)
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writePlanCSV(writer, response); err != nil {
		return serverError(c)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return serverError(c)
	}

	filename := fmt.Sprintf("plan-%04d-%02d.csv", year, month)
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=\""+filename+"\"")
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *PlanHandler) buildPlan(ctx context.Context, userID uuid.UUID, budgetCents int64, month, year int) (PlanResponse, error) {
	snapshots, err := h.Accounts.Snapshot(ctx, userID)
	if err != nil {
		return PlanResponse{}, err
	}

	accounts := make([]planner.Account, 0, len(snapshots))
	names := make(map[uuid.UUID]string, len(snapshots))
	for _, snapshot := range snapshots {
		accounts = append(accounts, planner.Account{
			ID:              snapshot.Account.ID,
			Type:            snapshot.Account.Type,
			DisplayName:     snapshot.Account.DisplayName,
			InstitutionKind: snapshot.InstitutionKind,
			BalanceCents:    snapshot.BalanceCents,
			LimitCents:      snapshot.LimitCents,
			AprPct:          snapshot.AprPct,
			MinPaymentCents: snapshot.MinPaymentCents,
			DueDate:         snapshot.DueDate,
			CloseDate:       snapshot.CloseDate,
		})
		names[snapshot.Account.ID] = snapshot.Account.DisplayName
	}

	plan, err := h.Engine.GeneratePlan(accounts, budgetCents, month, year)
	if err != nil {
		return PlanResponse{}, err
	}

	allocations := make([]AllocationResponse, 0, len(plan.Allocations))
	for _, entry := range plan.Allocations {
		item := AllocationResponse{
			AccountID:      entry.AccountID,
			AccountName:    names[entry.AccountID],
			AmountCents:    entry.AmountCents,
			Rationale:      entry.Rationale,
			WillReportZero: entry.WillReportZero,
			Priority:       entry.Priority,
		}
		if entry.DueBy != nil {
			formatted := entry.DueBy.Format(dateLayout)
			item.DueBy = &formatted
		}
		allocations = append(allocations, item)
	}

	return PlanResponse{
		Month:               month,
		Year:                year,
		TotalBudgetCents:    plan.TotalBudgetCents,
		TotalAllocatedCents: plan.TotalAllocatedCents,
		RemainingCents:      plan.RemainingCents,
		Allocations:         allocations,
		Strategy:            plan.Strategy,
		Objectives:          plan.Objectives,
		GeneratedAt:         time.Now().UTC().Format(timeLayout),
	}, nil
}

func parsePlanParams(c echo.Context) (int64, int, int, error) {
	budgetRaw := strings.TrimSpace(c.QueryParam("budget_cents"))
	if budgetRaw == "" {
		return 0, 0, 0, errors.New("budget_cents is required")
	}
	budgetCents, err := strconv.ParseInt(budgetRaw, 10, 64)
	if err != nil || budgetCents <= 0 {
		return 0, 0, 0, errors.New("invalid budget_cents")
	}

	now := time.Now().UTC()
	month := int(now.Month())
	year := now.Year()

	if raw := strings.TrimSpace(c.QueryParam("month")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 12 {
			return 0, 0, 0, errors.New("invalid month")
		}
		month = parsed
	}
	if raw := strings.TrimSpace(c.QueryParam("year")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 2000 || parsed > 2100 {
			return 0, 0, 0, errors.New("invalid year")
		}
		year = parsed
	}

	return budgetCents, month, year, nil
}

func planCacheKey(userID uuid.UUID, month, year int, budgetCents int64) string {
	return fmt.Sprintf("plan:%s:%04d-%02d:%d", userID, year, month, budgetCents)
}

// planCachePrefix — префикс всех ключей плана пользователя, для инвалидации.
func planCachePrefix(userID uuid.UUID) string {
	return "plan:" + userID.String() + ":"
}

func writePlanCSV(writer *csv.Writer, response PlanResponse) error {
	header := []string{
		"account_id",
		"account_name",
		"amount_cents",
		"rationale",
		"due_by",
		"will_report_zero",
		"priority",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, allocation := range response.Allocations {
		dueBy := ""
		if allocation.DueBy != nil {
			dueBy = *allocation.DueBy
		}
		record := []string{
			allocation.AccountID.String(),
			allocation.AccountName,
			formatInt64(allocation.AmountCents),
			allocation.Rationale,
			dueBy,
			formatBool(allocation.WillReportZero),
			formatInt(allocation.Priority),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return nil
}

func formatInt64(value int64) string {
	return strconv.FormatInt(value, 10)
}

func formatInt(value int) string {
	return strconv.Itoa(value)
}

func formatBool(value bool) string {
	if value {
		return "true"
	}
	return "false"
}
