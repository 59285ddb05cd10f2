package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/payment-planner/backend/internal/auth"
	"example.com/payment-planner/backend/internal/cache"
	"example.com/payment-planner/backend/internal/models"
	"example.com/payment-planner/backend/internal/notifications"
	"example.com/payment-planner/backend/internal/parser"
	"example.com/payment-planner/backend/internal/repository"
)

type StatementHandler struct {
	Statements *repository.StatementRepository
	Parser     *parser.Service
	Model      string
	Cache      cache.Cache
	Notifier   *notifications.Hub
}

// NewStatementHandler создает обработчик выписок.
func NewStatementHandler(statements *repository.StatementRepository, parserService *parser.Service, model string, planCache cache.Cache, notifier *notifications.Hub) *StatementHandler {
	return &StatementHandler{
		Statements: statements,
		Parser:     parserService,
		Model:      model,
		Cache:      planCache,
		Notifier:   notifier,
	}
}

type IngestStatementRequest struct {
	PeriodStart     string   `json:"period_start" validate:"required"`
	PeriodEnd       string   `json:"period_end" validate:"required"`
	CloseDate       string   `json:"close_date" validate:"required"`
	DueDate         *string  `json:"due_date"`
	NewBalanceCents int64    `json:"new_balance_cents" validate:"gte=0"`
	MinPaymentCents int64    `json:"min_payment_cents" validate:"gte=0"`
	AprPct          *float64 `json:"apr_pct" validate:"omitempty,gte=0"`
	LimitCents      *int64   `json:"limit_cents" validate:"omitempty,gt=0"`
	ParsedBy        *string  `json:"parsed_by"`
}

type ParseStatementRequest struct {
	Text string `json:"text" validate:"required"`
}

// List возвращает выписки счета.
func (h *StatementHandler) List(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid account id")
	}

	statements, err := h.Statements.ListByAccount(c.Request().Context(), userID, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "account not found")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, map[string][]models.Statement{"statements": statements})
}

// Ingest сохраняет выписку по счету и сбрасывает кэш планов.
func (h *StatementHandler) Ingest(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid account id")
	}

	var req IngestStatementRequest
	if err = c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err = c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	input, err := buildStatementInput(accountID, req)
	if err != nil {
		return badRequest(c, err.Error())
	}

	statement, err := h.Statements.Ingest(c.Request().Context(), userID, input)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "account not found")
		}
		if errors.Is(err, repository.ErrInvalid) {
			return badRequest(c, "invalid statement data")
		}
		return serverError(c)
	}

	h.invalidatePlans(c, userID)
	if h.Notifier != nil {
		h.Notifier.Publish(userID, notifications.StatementIngested(accountID, statement.NewBalanceCents))
	}

	return c.JSON(http.StatusCreated, statement)
}

// Parse извлекает структурированные данные из текста выписки.
func (h *StatementHandler) Parse(c echo.Context) error {
	if _, ok := auth.UserIDFromContext(c); !ok {
		return unauthorized(c)
	}

	if h.Parser == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "statement parsing is not configured"})
	}

	var req ParseStatementRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	parsed, _, err := h.Parser.ParseStatement(c.Request().Context(), req.Text)
	if err != nil {
		slog.Warn("statement parse failed", "error", err)
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "failed to parse statement"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"statement": parsed,
		"parsed_by": h.Model,
	})
}

// ParseAndIngest разбирает текст выписки и сразу сохраняет результат.
func (h *StatementHandler) ParseAndIngest(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid account id")
	}

	if h.Parser == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "statement parsing is not configured"})
	}

	var req ParseStatementRequest
	if err = c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err = c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	parsed, _, err := h.Parser.ParseStatement(c.Request().Context(), req.Text)
	if err != nil {
		slog.Warn("statement parse failed", "error", err)
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "failed to parse statement"})
	}

	input := repository.StatementInput{
		AccountID:       accountID,
		PeriodStart:     parsed.PeriodStart,
		PeriodEnd:       parsed.PeriodEnd,
		CloseDate:       parsed.CloseDate,
		DueDate:         parsed.DueDate,
		NewBalanceCents: parsed.NewBalanceCents,
		ParsedBy:        &h.Model,
		LimitCents:      parsed.CreditLimitCents,
	}
	if parsed.MinPaymentCents != nil {
		input.MinPaymentCents = *parsed.MinPaymentCents
	}
	if apr := purchaseApr(parsed.Aprs); apr != nil {
		input.AprPct = apr
	}

	statement, err := h.Statements.Ingest(c.Request().Context(), userID, input)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "account not found")
		}
		if errors.Is(err, repository.ErrInvalid) {
			return badRequest(c, "invalid statement data")
		}
		return serverError(c)
	}

	h.invalidatePlans(c, userID)
	if h.Notifier != nil {
		h.Notifier.Publish(userID, notifications.StatementIngested(accountID, statement.NewBalanceCents))
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"statement": statement,
		"parsed":    parsed,
	})
}

func (h *StatementHandler) invalidatePlans(c echo.Context, userID uuid.UUID) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.DeletePrefix(c.Request().Context(), planCachePrefix(userID)); err != nil {
		slog.Warn("plan cache invalidation failed", "error", err)
	}
}

func buildStatementInput(accountID uuid.UUID, req IngestStatementRequest) (repository.StatementInput, error) {
	periodStart, err := time.Parse(dateLayout, strings.TrimSpace(req.PeriodStart))
	if err != nil {
		return repository.StatementInput{}, errors.New("invalid period_start format")
	}
	periodEnd, err := time.Parse(dateLayout, strings.TrimSpace(req.PeriodEnd))
	if err != nil {
		return repository.StatementInput{}, errors.New("invalid period_end format")
	}
	closeDate, err := time.Parse(dateLayout, strings.TrimSpace(req.CloseDate))
	if err != nil {
		return repository.StatementInput{}, errors.New("invalid close_date format")
	}

	if !periodStart.Before(periodEnd) {
		return repository.StatementInput{}, errors.New("period_end must be after period_start")
	}
	if closeDate.Before(periodEnd) {
		return repository.StatementInput{}, errors.New("close_date must be at or after period_end")
	}

	var dueDate *time.Time
	if req.DueDate != nil {
		parsed, err := time.Parse(dateLayout, strings.TrimSpace(*req.DueDate))
		if err != nil {
			return repository.StatementInput{}, errors.New("invalid due_date format")
		}
		if !parsed.After(closeDate) {
			return repository.StatementInput{}, errors.New("due_date must be after close_date")
		}
		dueDate = &parsed
	}

	if req.MinPaymentCents > req.NewBalanceCents {
		return repository.StatementInput{}, errors.New("min_payment_cents exceeds new_balance_cents")
	}

	return repository.StatementInput{
		AccountID:       accountID,
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
		CloseDate:       closeDate,
		DueDate:         dueDate,
		NewBalanceCents: req.NewBalanceCents,
		MinPaymentCents: req.MinPaymentCents,
		ParsedBy:        req.ParsedBy,
		AprPct:          req.AprPct,
		LimitCents:      req.LimitCents,
	}, nil
}

// purchaseApr выбирает ставку по покупкам, если она есть, иначе первую.
func purchaseApr(aprs []parser.Apr) *float64 {
	if len(aprs) == 0 {
		return nil
	}
	for _, apr := range aprs {
		if strings.EqualFold(apr.Type, "purchase") {
			value := apr.AprPct
			return &value
		}
	}
	value := aprs[0].AprPct
	return &value
}
