package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/payment-planner/backend/internal/auth"
	"example.com/payment-planner/backend/internal/models"
	"example.com/payment-planner/backend/internal/repository"
)

type AccountHandler struct {
	Accounts     *repository.AccountRepository
	Institutions *repository.InstitutionRepository
}

// NewAccountHandler создает обработчик счетов.
func NewAccountHandler(accounts *repository.AccountRepository, institutions *repository.InstitutionRepository) *AccountHandler {
	return &AccountHandler{Accounts: accounts, Institutions: institutions}
}

type CreateAccountRequest struct {
	InstitutionID    string  `json:"institution_id" validate:"required"`
	Type             string  `json:"type" validate:"required,oneof=CARD BANK LOAN"`
	DisplayName      string  `json:"display_name" validate:"required,max=200"`
	Last4            *string `json:"last4" validate:"omitempty,len=4"`
	Currency         string  `json:"currency" validate:"omitempty,len=3"`
	CreditLimitCents *int64  `json:"credit_limit_cents" validate:"omitempty,gt=0"`
	OpenedAt         *string `json:"opened_at"`
}

type UpdateAccountRequest struct {
	DisplayName      string  `json:"display_name" validate:"required,max=200"`
	Last4            *string `json:"last4" validate:"omitempty,len=4"`
	CreditLimitCents *int64  `json:"credit_limit_cents" validate:"omitempty,gt=0"`
}

// Create добавляет счет в учреждении пользователя.
func (h *AccountHandler) Create(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req CreateAccountRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	institutionID, err := uuid.Parse(req.InstitutionID)
	if err != nil {
		return badRequest(c, "invalid institution_id")
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		return badRequest(c, "display_name is required")
	}

	// Учреждение должно принадлежать пользователю.
	if _, err := h.Institutions.GetByID(c.Request().Context(), userID, institutionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "institution not found")
		}
		return serverError(c)
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}

	var openedAt *time.Time
	if req.OpenedAt != nil {
		parsed, err := time.Parse(dateLayout, strings.TrimSpace(*req.OpenedAt))
		if err != nil {
			return badRequest(c, "invalid opened_at format")
		}
		openedAt = &parsed
	}

	account, err := h.Accounts.Create(c.Request().Context(), userID, repository.AccountInput{
		InstitutionID:    institutionID,
		Type:             models.AccountType(req.Type),
		DisplayName:      displayName,
		Last4:            req.Last4,
		Currency:         currency,
		CreditLimitCents: req.CreditLimitCents,
		OpenedAt:         openedAt,
	})
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusCreated, account)
}

// List возвращает счета пользователя.
func (h *AccountHandler) List(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	accounts, err := h.Accounts.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, map[string][]models.Account{"accounts": accounts})
}

// Get возвращает счет по идентификатору.
func (h *AccountHandler) Get(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid account id")
	}

	account, err := h.Accounts.GetByID(c.Request().Context(), userID, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "account not found")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, account)
}

// Update обновляет данные счета.
func (h *AccountHandler) Update(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid account id")
	}

	var req UpdateAccountRequest
	if err = c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err = c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		return badRequest(c, "display_name is required")
	}

	account, err := h.Accounts.Update(c.Request().Context(), userID, accountID, displayName, req.Last4, req.CreditLimitCents)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "account not found")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, account)
}

// Delete удаляет счет пользователя.
func (h *AccountHandler) Delete(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid account id")
	}

	if err := h.Accounts.Delete(c.Request().Context(), userID, accountID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "account not found")
		}
		return serverError(c)
	}

	return c.NoContent(http.StatusNoContent)
}
