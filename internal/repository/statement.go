package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/payment-planner/backend/internal/models"
)

type StatementRepository struct {
	db *pgxpool.Pool
}

type StatementInput struct {
	AccountID       uuid.UUID
	PeriodStart     time.Time
	PeriodEnd       time.Time
	CloseDate       time.Time
	DueDate         *time.Time
	NewBalanceCents int64
	MinPaymentCents int64
	ParsedBy        *string
	AprPct          *float64
	LimitCents      *int64
}

// NewStatementRepository создает репозиторий выписок.
func NewStatementRepository(db *pgxpool.Pool) *StatementRepository {
	return &StatementRepository{db: db}
}

// ListByAccount возвращает выписки счета, новые первыми.
func (r *StatementRepository) ListByAccount(ctx context.Context, userID, accountID uuid.UUID) ([]models.Statement, error) {
	rows, err := r.db.Query(ctx,
		`SELECT s.id, s.account_id, s.period_start, s.period_end, s.close_date, s.due_date,
		        s.new_balance_cents, s.min_payment_cents, s.parsed_by, s.created_at
		 FROM statements s
		 JOIN accounts a ON a.id = s.account_id
		 WHERE s.account_id = $1 AND a.user_id = $2
		 ORDER BY s.close_date DESC`,
		accountID, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	statements := make([]models.Statement, 0)
	for rows.Next() {
		var statement models.Statement
		if err := rows.Scan(
			&statement.ID, &statement.AccountID, &statement.PeriodStart, &statement.PeriodEnd,
			&statement.CloseDate, &statement.DueDate, &statement.NewBalanceCents,
			&statement.MinPaymentCents, &statement.ParsedBy, &statement.CreatedAt,
		); err != nil {
			return nil, err
		}
		statements = append(statements, statement)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return statements, nil
}

// Ingest сохраняет выписку и, если переданы, новые значения ставки и лимита.
// Все записи создаются в одной транзакции.
func (r *StatementRepository) Ingest(ctx context.Context, userID uuid.UUID, input StatementInput) (models.Statement, error) {
	var statement models.Statement

	if input.NewBalanceCents < 0 || input.MinPaymentCents < 0 {
		return statement, ErrInvalid
	}
	if input.AprPct != nil && *input.AprPct < 0 {
		return statement, ErrInvalid
	}
	if input.LimitCents != nil && *input.LimitCents < 0 {
		return statement, ErrInvalid
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return statement, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var owner uuid.UUID
	err = tx.QueryRow(ctx, `SELECT user_id FROM accounts WHERE id = $1`, input.AccountID).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return statement, ErrNotFound
	}
	if err != nil {
		return statement, err
	}
	if owner != userID {
		return statement, ErrNotFound
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO statements (account_id, period_start, period_end, close_date, due_date, new_balance_cents, min_payment_cents, parsed_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, account_id, period_start, period_end, close_date, due_date, new_balance_cents, min_payment_cents, parsed_by, created_at`,
		input.AccountID, input.PeriodStart, input.PeriodEnd, input.CloseDate, input.DueDate,
		input.NewBalanceCents, input.MinPaymentCents, input.ParsedBy,
	).Scan(
		&statement.ID, &statement.AccountID, &statement.PeriodStart, &statement.PeriodEnd,
		&statement.CloseDate, &statement.DueDate, &statement.NewBalanceCents,
		&statement.MinPaymentCents, &statement.ParsedBy, &statement.CreatedAt,
	)
	if err != nil {
		return statement, err
	}

	if input.AprPct != nil {
		_, err = tx.Exec(ctx,
			`INSERT INTO apr_history (id, account_id, apr_pct, effective)
			 VALUES ($1, $2, $3, $4)`,
			uuid.New(), input.AccountID, *input.AprPct, input.CloseDate,
		)
		if err != nil {
			return statement, err
		}
	}

	if input.LimitCents != nil {
		_, err = tx.Exec(ctx,
			`INSERT INTO limit_history (id, account_id, limit_cents, effective)
			 VALUES ($1, $2, $3, $4)`,
			uuid.New(), input.AccountID, *input.LimitCents, input.CloseDate,
		)
		if err != nil {
			return statement, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return statement, err
	}

	return statement, nil
}
