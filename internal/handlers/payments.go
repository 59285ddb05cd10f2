package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/payment-planner/backend/internal/auth"
	"example.com/payment-planner/backend/internal/cache"
	"example.com/payment-planner/backend/internal/models"
	"example.com/payment-planner/backend/internal/notifications"
	"example.com/payment-planner/backend/internal/repository"
)

type PaymentHandler struct {
	Transactions *repository.TransactionRepository
	Cache        cache.Cache
	Notifier     *notifications.Hub
}

// NewPaymentHandler создает обработчик отметок о платежах.
func NewPaymentHandler(transactions *repository.TransactionRepository, planCache cache.Cache, notifier *notifications.Hub) *PaymentHandler {
	return &PaymentHandler{Transactions: transactions, Cache: planCache, Notifier: notifier}
}

type MarkPaymentRequest struct {
	AccountID string `json:"account_id" validate:"required"`
	Month     int    `json:"month" validate:"required,min=1,max=12"`
	Year      int    `json:"year" validate:"required,min=2000,max=2100"`
}

// Mark фиксирует, что платеж по счету за месяц выполнен.
func (h *PaymentHandler) Mark(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req MarkPaymentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		return badRequest(c, "invalid account_id")
	}

	transaction, err := h.Transactions.MarkPayment(c.Request().Context(), userID, accountID, req.Month, req.Year)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "account not found")
		}
		return serverError(c)
	}

	if h.Cache != nil {
		if err := h.Cache.DeletePrefix(c.Request().Context(), planCachePrefix(userID)); err != nil {
			slog.Warn("plan cache invalidation failed", "error", err)
		}
	}
	if h.Notifier != nil {
		h.Notifier.Publish(userID, notifications.PaymentMarked(accountID, req.Month, req.Year))
	}

	return c.JSON(http.StatusCreated, transaction)
}

// History возвращает последние операции по счету.
func (h *PaymentHandler) History(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid account id")
	}

	limit, _, err := parsePagination(c, 50, 200)
	if err != nil {
		return badRequest(c, err.Error())
	}

	transactions, err := h.Transactions.ListByAccount(c.Request().Context(), userID, accountID, limit)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "account not found")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, map[string][]models.Transaction{"transactions": transactions})
}
