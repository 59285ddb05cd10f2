package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/payment-planner/backend/internal/models"
)

type TransactionRepository struct {
	db *pgxpool.Pool
}

// NewTransactionRepository создает репозиторий транзакций.
func NewTransactionRepository(db *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// MarkPayment фиксирует факт ручного платежа по счету за указанный месяц.
// Сумма не сохраняется, запись отмечает только исполнение платежа.
func (r *TransactionRepository) MarkPayment(ctx context.Context, userID, accountID uuid.UUID, month, year int) (models.Transaction, error) {
	var transaction models.Transaction

	var owner uuid.UUID
	err := r.db.QueryRow(ctx, `SELECT user_id FROM accounts WHERE id = $1`, accountID).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return transaction, ErrNotFound
	}
	if err != nil {
		return transaction, err
	}
	if owner != userID {
		return transaction, ErrNotFound
	}

	description := fmt.Sprintf("Payment marked as executed for %04d-%02d", year, month)
	err = r.db.QueryRow(ctx,
		`INSERT INTO transactions (account_id, posted_at, description, amount_cents, source)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, account_id, posted_at, description, amount_cents, source, created_at`,
		accountID, time.Now().UTC(), description, int64(0), "manual",
	).Scan(
		&transaction.ID, &transaction.AccountID, &transaction.PostedAt,
		&transaction.Description, &transaction.AmountCents, &transaction.Source, &transaction.CreatedAt,
	)
	if err != nil {
		return transaction, err
	}

	return transaction, nil
}

// ListByAccount возвращает транзакции счета, новые первыми.
func (r *TransactionRepository) ListByAccount(ctx context.Context, userID, accountID uuid.UUID, limit int) ([]models.Transaction, error) {
	rows, err := r.db.Query(ctx,
		`SELECT t.id, t.account_id, t.posted_at, t.description, t.amount_cents, t.source, t.created_at
		 FROM transactions t
		 JOIN accounts a ON a.id = t.account_id
		 WHERE t.account_id = $1 AND a.user_id = $2
		 ORDER BY t.posted_at DESC
		 LIMIT $3`,
		accountID, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]models.Transaction, 0)
	for rows.Next() {
		var transaction models.Transaction
		if err := rows.Scan(
			&transaction.ID, &transaction.AccountID, &transaction.PostedAt,
			&transaction.Description, &transaction.AmountCents, &transaction.Source, &transaction.CreatedAt,
		); err != nil {
			return nil, err
		}
		transactions = append(transactions, transaction)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return transactions, nil
}
