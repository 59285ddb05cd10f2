package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"example.com/payment-planner/backend/internal/auth"
	"example.com/payment-planner/backend/internal/models"
	"example.com/payment-planner/backend/internal/repository"
)

type InstitutionHandler struct {
	Institutions *repository.InstitutionRepository
}

// NewInstitutionHandler создает обработчик финансовых учреждений.
func NewInstitutionHandler(institutions *repository.InstitutionRepository) *InstitutionHandler {
	return &InstitutionHandler{Institutions: institutions}
}

type CreateInstitutionRequest struct {
	Name    string  `json:"name" validate:"required,max=200"`
	Kind    string  `json:"kind" validate:"required,max=50"`
	Website *string `json:"website" validate:"omitempty,url"`
}

// Create добавляет учреждение пользователя.
func (h *InstitutionHandler) Create(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req CreateInstitutionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return badRequest(c, "name is required")
	}

	// Kind нормализуется в верхний регистр, как в снимке для движка.
	kind := strings.ToUpper(strings.TrimSpace(req.Kind))
	if kind == "" {
		return badRequest(c, "kind is required")
	}

	institution, err := h.Institutions.Create(c.Request().Context(), userID, name, kind, req.Website)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return conflict(c, "institution already exists")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusCreated, institution)
}

// List возвращает учреждения пользователя.
func (h *InstitutionHandler) List(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	institutions, err := h.Institutions.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusOK, map[string][]models.Institution{"institutions": institutions})
}

// Get возвращает учреждение по идентификатору.
func (h *InstitutionHandler) Get(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	institutionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid institution id")
	}

	institution, err := h.Institutions.GetByID(c.Request().Context(), userID, institutionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "institution not found")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, institution)
}
