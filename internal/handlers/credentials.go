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
	"example.com/payment-planner/backend/internal/vault"
)

type CredentialHandler struct {
	Credentials  *repository.CredentialRepository
	Institutions *repository.InstitutionRepository
	Vault        *vault.Vault
}

// NewCredentialHandler создает обработчик хранилища учетных данных.
func NewCredentialHandler(credentials *repository.CredentialRepository, institutions *repository.InstitutionRepository, secretVault *vault.Vault) *CredentialHandler {
	return &CredentialHandler{Credentials: credentials, Institutions: institutions, Vault: secretVault}
}

type UnlockVaultRequest struct {
	Passcode string `json:"passcode" validate:"required,min=8"`
}

type CreateCredentialRequest struct {
	InstitutionID string `json:"institution_id" validate:"required"`
	Username      string `json:"username" validate:"required,max=200"`
	Secret        string `json:"secret" validate:"required"`
}

type CredentialResponse struct {
	ID            uuid.UUID `json:"id"`
	InstitutionID uuid.UUID `json:"institution_id"`
	Username      string    `json:"username"`
	CreatedAt     string    `json:"created_at"`
	AccessedAt    *string   `json:"accessed_at,omitempty"`
}

type RevealCredentialResponse struct {
	CredentialResponse
	Secret string `json:"secret"`
}

// Unlock открывает хранилище секретов на время работы процесса.
func (h *CredentialHandler) Unlock(c echo.Context) error {
	if _, ok := auth.UserIDFromContext(c); !ok {
		return unauthorized(c)
	}

	var req UnlockVaultRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	if err := h.Vault.Unlock(req.Passcode); err != nil {
		return badRequest(c, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]bool{"unlocked": true})
}

// Lock закрывает хранилище секретов.
func (h *CredentialHandler) Lock(c echo.Context) error {
	if _, ok := auth.UserIDFromContext(c); !ok {
		return unauthorized(c)
	}

	h.Vault.Lock()
	return c.JSON(http.StatusOK, map[string]bool{"unlocked": false})
}

// Status возвращает состояние хранилища.
func (h *CredentialHandler) Status(c echo.Context) error {
	if _, ok := auth.UserIDFromContext(c); !ok {
		return unauthorized(c)
	}

	return c.JSON(http.StatusOK, map[string]bool{"unlocked": h.Vault.IsUnlocked()})
}

// Create шифрует и сохраняет учетные данные учреждения.
func (h *CredentialHandler) Create(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req CreateCredentialRequest
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

	username := strings.TrimSpace(req.Username)
	if username == "" {
		return badRequest(c, "username is required")
	}

	if _, err := h.Institutions.GetByID(c.Request().Context(), userID, institutionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "institution not found")
		}
		return serverError(c)
	}

	encrypted, err := h.Vault.Encrypt(req.Secret)
	if err != nil {
		if errors.Is(err, vault.ErrLocked) {
			return vaultLocked(c)
		}
		return serverError(c)
	}

	credential, err := h.Credentials.Create(c.Request().Context(), userID, institutionID, username, encrypted)
	if err != nil {
		return serverError(c)
	}

	return c.JSON(http.StatusCreated, toCredentialResponse(credential))
}

// List возвращает сохраненные учетные данные без секретов.
func (h *CredentialHandler) List(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	credentials, err := h.Credentials.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return serverError(c)
	}

	response := make([]CredentialResponse, 0, len(credentials))
	for _, credential := range credentials {
		response = append(response, toCredentialResponse(credential))
	}

	return c.JSON(http.StatusOK, map[string][]CredentialResponse{"credentials": response})
}

// Reveal расшифровывает секрет. Требует открытого хранилища.
func (h *CredentialHandler) Reveal(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	credentialID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid credential id")
	}

	credential, err := h.Credentials.GetByID(c.Request().Context(), userID, credentialID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "credential not found")
		}
		return serverError(c)
	}

	secret, err := h.Vault.Decrypt(credential.EncryptedSecret)
	if err != nil {
		if errors.Is(err, vault.ErrLocked) {
			return vaultLocked(c)
		}
		if errors.Is(err, vault.ErrDecrypt) {
			return badRequest(c, "wrong passcode or corrupted secret")
		}
		return serverError(c)
	}

	return c.JSON(http.StatusOK, RevealCredentialResponse{
		CredentialResponse: toCredentialResponse(credential),
		Secret:             secret,
	})
}

// Delete удаляет учетные данные.
func (h *CredentialHandler) Delete(c echo.Context) error {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	credentialID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return badRequest(c, "invalid credential id")
	}

	if err := h.Credentials.Delete(c.Request().Context(), userID, credentialID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(c, "credential not found")
		}
		return serverError(c)
	}

	return c.NoContent(http.StatusNoContent)
}

func toCredentialResponse(credential models.Credential) CredentialResponse {
	response := CredentialResponse{
		ID:            credential.ID,
		InstitutionID: credential.InstitutionID,
		Username:      credential.Username,
		CreatedAt:     credential.CreatedAt.Format(timeLayout),
	}
	if credential.AccessedAt != nil {
		formatted := credential.AccessedAt.Format(timeLayout)
		response.AccessedAt = &formatted
	}
	return response
}

func vaultLocked(c echo.Context) error {
	return c.JSON(http.StatusLocked, map[string]string{"error": "vault is locked"})
}
