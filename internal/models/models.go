package models

import (
	"time"

	"github.com/google/uuid"
)

type AccountType string

type AlertLevel string

const (
	AccountTypeCard AccountType = "CARD"
	AccountTypeBank AccountType = "BANK"
	AccountTypeLoan AccountType = "LOAN"

	AlertLevelInfo    AlertLevel = "info"
	AlertLevelWarning AlertLevel = "warning"
	AlertLevelDanger  AlertLevel = "danger"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         *string   `json:"name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Institution struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Website   *string   `json:"website,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Account struct {
	ID               uuid.UUID   `json:"id"`
	UserID           uuid.UUID   `json:"user_id"`
	InstitutionID    uuid.UUID   `json:"institution_id"`
	Type             AccountType `json:"type"`
	DisplayName      string      `json:"display_name"`
	Last4            *string     `json:"last4,omitempty"`
	Currency         string      `json:"currency"`
	CreditLimitCents *int64      `json:"credit_limit_cents,omitempty"`
	OpenedAt         *time.Time  `json:"opened_at,omitempty"`
	ClosedAt         *time.Time  `json:"closed_at,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

type Statement struct {
	ID              uuid.UUID  `json:"id"`
	AccountID       uuid.UUID  `json:"account_id"`
	PeriodStart     time.Time  `json:"period_start"`
	PeriodEnd       time.Time  `json:"period_end"`
	CloseDate       time.Time  `json:"close_date"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	NewBalanceCents int64      `json:"new_balance_cents"`
	MinPaymentCents int64      `json:"min_payment_cents"`
	ParsedBy        *string    `json:"parsed_by,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type AprChange struct {
	ID        uuid.UUID `json:"id"`
	AccountID uuid.UUID `json:"account_id"`
	AprPct    float64   `json:"apr_pct"`
	Effective time.Time `json:"effective"`
	CreatedAt time.Time `json:"created_at"`
}

type LimitChange struct {
	ID         uuid.UUID `json:"id"`
	AccountID  uuid.UUID `json:"account_id"`
	LimitCents int64     `json:"limit_cents"`
	Effective  time.Time `json:"effective"`
	CreatedAt  time.Time `json:"created_at"`
}

type Transaction struct {
	ID          uuid.UUID `json:"id"`
	AccountID   uuid.UUID `json:"account_id"`
	PostedAt    time.Time `json:"posted_at"`
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
}

type Credential struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	InstitutionID   uuid.UUID  `json:"institution_id"`
	Username        string     `json:"username"`
	EncryptedSecret string     `json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
	AccessedAt      *time.Time `json:"accessed_at,omitempty"`
}

type RefreshToken struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	TokenHash  string     `json:"-"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedAt  time.Time  `json:"created_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	ReplacedBy *uuid.UUID `json:"replaced_by,omitempty"`
}
