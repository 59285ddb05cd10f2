package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/payment-planner/backend/internal/models"
)

type AccountRepository struct {
	db *pgxpool.Pool
}

type AccountInput struct {
	InstitutionID    uuid.UUID
	Type             models.AccountType
	DisplayName      string
	Last4            *string
	Currency         string
	CreditLimitCents *int64
	OpenedAt         *time.Time
}

// AccountSnapshot — счет вместе с последней выпиской, лимитом и ставкой.
// Это вход движка планирования, собранный одним запросом.
type AccountSnapshot struct {
	Account         models.Account
	InstitutionName string
	InstitutionKind string
	BalanceCents    int64
	LimitCents      int64
	AprPct          float64
	MinPaymentCents int64
	DueDate         *time.Time
	CloseDate       *time.Time
}

// NewAccountRepository создает репозиторий счетов.
func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create создает счет пользователя.
func (r *AccountRepository) Create(ctx context.Context, userID uuid.UUID, input AccountInput) (models.Account, error) {
	var account models.Account

	err := r.db.QueryRow(ctx,
		`INSERT INTO accounts (user_id, institution_id, type, display_name, last4, currency, credit_limit_cents, opened_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, user_id, institution_id, type, display_name, last4, currency, credit_limit_cents, opened_at, closed_at, created_at, updated_at`,
		userID, input.InstitutionID, input.Type, input.DisplayName, input.Last4, input.Currency, input.CreditLimitCents, input.OpenedAt,
	).Scan(
		&account.ID, &account.UserID, &account.InstitutionID, &account.Type, &account.DisplayName,
		&account.Last4, &account.Currency, &account.CreditLimitCents, &account.OpenedAt, &account.ClosedAt,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return account, ErrInvalid
		}
		return account, err
	}

	return account, nil
}

// ListByUser возвращает счета пользователя.
func (r *AccountRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Account, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, institution_id, type, display_name, last4, currency, credit_limit_cents, opened_at, closed_at, created_at, updated_at
		 FROM accounts
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]models.Account, 0)
	for rows.Next() {
		var account models.Account
		if err := rows.Scan(
			&account.ID, &account.UserID, &account.InstitutionID, &account.Type, &account.DisplayName,
			&account.Last4, &account.Currency, &account.CreditLimitCents, &account.OpenedAt, &account.ClosedAt,
			&account.CreatedAt, &account.UpdatedAt,
		); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return accounts, nil
}

// GetByID возвращает счет пользователя по идентификатору.
func (r *AccountRepository) GetByID(ctx context.Context, userID, accountID uuid.UUID) (models.Account, error) {
	var account models.Account

	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, institution_id, type, display_name, last4, currency, credit_limit_cents, opened_at, closed_at, created_at, updated_at
		 FROM accounts
		 WHERE id = $1 AND user_id = $2`,
		accountID, userID,
	).Scan(
		&account.ID, &account.UserID, &account.InstitutionID, &account.Type, &account.DisplayName,
		&account.Last4, &account.Currency, &account.CreditLimitCents, &account.OpenedAt, &account.ClosedAt,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return account, ErrNotFound
	}
	if err != nil {
		return account, err
	}

	return account, nil
}

// Update изменяет название, лимит и last4 счета.
func (r *AccountRepository) Update(ctx context.Context, userID, accountID uuid.UUID, displayName string, last4 *string, creditLimitCents *int64) (models.Account, error) {
	var account models.Account

	err := r.db.QueryRow(ctx,
		`UPDATE accounts
		 SET display_name = $1, last4 = $2, credit_limit_cents = $3, updated_at = NOW()
		 WHERE id = $4 AND user_id = $5
		 RETURNING id, user_id, institution_id, type, display_name, last4, currency, credit_limit_cents, opened_at, closed_at, created_at, updated_at`,
		displayName, last4, creditLimitCents, accountID, userID,
	).Scan(
		&account.ID, &account.UserID, &account.InstitutionID, &account.Type, &account.DisplayName,
		&account.Last4, &account.Currency, &account.CreditLimitCents, &account.OpenedAt, &account.ClosedAt,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return account, ErrNotFound
	}
	if err != nil {
		return account, err
	}

	return account, nil
}

// Delete удаляет счет вместе с его выписками и историей.
func (r *AccountRepository) Delete(ctx context.Context, userID, accountID uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM accounts WHERE id = $1 AND user_id = $2`,
		accountID, userID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Snapshot собирает счета пользователя с последней выпиской, последним
// известным лимитом и последней ставкой. Балансы берутся из выписки,
// лимит — из истории лимитов с откатом к лимиту счета.
func (r *AccountRepository) Snapshot(ctx context.Context, userID uuid.UUID) ([]AccountSnapshot, error) {
	rows, err := r.db.Query(ctx,
		`SELECT a.id, a.user_id, a.institution_id, a.type, a.display_name, a.last4, a.currency,
		        a.credit_limit_cents, a.opened_at, a.closed_at, a.created_at, a.updated_at,
		        i.name, i.kind,
		        s.close_date, s.due_date, s.new_balance_cents, s.min_payment_cents,
		        l.limit_cents, apr.apr_pct
		 FROM accounts a
		 JOIN institutions i ON i.id = a.institution_id
		 LEFT JOIN LATERAL (
		     SELECT close_date, due_date, new_balance_cents, min_payment_cents
		     FROM statements
		     WHERE account_id = a.id
		     ORDER BY close_date DESC
		     LIMIT 1
		 ) s ON TRUE
		 LEFT JOIN LATERAL (
		     SELECT limit_cents
		     FROM limit_history
		     WHERE account_id = a.id
		     ORDER BY effective DESC
		     LIMIT 1
		 ) l ON TRUE
		 LEFT JOIN LATERAL (
		     SELECT apr_pct
		     FROM apr_history
		     WHERE account_id = a.id
		     ORDER BY effective DESC
		     LIMIT 1
		 ) apr ON TRUE
		 WHERE a.user_id = $1
		 ORDER BY a.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshots := make([]AccountSnapshot, 0)
	for rows.Next() {
		var snapshot AccountSnapshot
		var closeDate, dueDate *time.Time
		var balanceCents, minPaymentCents, limitCents *int64
		var aprPct *float64

		if err := rows.Scan(
			&snapshot.Account.ID, &snapshot.Account.UserID, &snapshot.Account.InstitutionID,
			&snapshot.Account.Type, &snapshot.Account.DisplayName, &snapshot.Account.Last4,
			&snapshot.Account.Currency, &snapshot.Account.CreditLimitCents, &snapshot.Account.OpenedAt,
			&snapshot.Account.ClosedAt, &snapshot.Account.CreatedAt, &snapshot.Account.UpdatedAt,
			&snapshot.InstitutionName, &snapshot.InstitutionKind,
			&closeDate, &dueDate, &balanceCents, &minPaymentCents,
			&limitCents, &aprPct,
		); err != nil {
			return nil, err
		}

		if balanceCents != nil {
			snapshot.BalanceCents = *balanceCents
		}
		if minPaymentCents != nil {
			snapshot.MinPaymentCents = *minPaymentCents
		}
		if limitCents != nil {
			snapshot.LimitCents = *limitCents
		} else if snapshot.Account.CreditLimitCents != nil {
			snapshot.LimitCents = *snapshot.Account.CreditLimitCents
		}
		if aprPct != nil {
			snapshot.AprPct = *aprPct
		}
		snapshot.CloseDate = closeDate
		snapshot.DueDate = dueDate

		if err := validateSnapshot(snapshot); err != nil {
			return nil, err
		}

		snapshots = append(snapshots, snapshot)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return snapshots, nil
}

// validateSnapshot отсекает испорченные данные до передачи в движок.
func validateSnapshot(snapshot AccountSnapshot) error {
	if snapshot.BalanceCents < 0 {
		return fmt.Errorf("%w: account %s has negative balance", ErrInvalid, snapshot.Account.ID)
	}
	if snapshot.LimitCents < 0 {
		return fmt.Errorf("%w: account %s has negative limit", ErrInvalid, snapshot.Account.ID)
	}
	if snapshot.AprPct < 0 {
		return fmt.Errorf("%w: account %s has negative apr", ErrInvalid, snapshot.Account.ID)
	}
	if snapshot.MinPaymentCents < 0 {
		return fmt.Errorf("%w: account %s has negative minimum payment", ErrInvalid, snapshot.Account.ID)
	}

	return nil
}
