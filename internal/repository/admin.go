package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AdminRepository struct {
	db *pgxpool.Pool
}

type AdminUser struct {
	ID        uuid.UUID
	Email     string
	Name      *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type TableCount struct {
	Table string
	Rows  int
}

type DailyCount struct {
	Day   time.Time
	Count int
}

type UsageStats struct {
	Users           int
	Accounts        int
	Statements      int
	StatementsByDay []DailyCount
}

// adminTables — таблицы, видимые в админке. Фиксированный список,
// имена не приходят из запроса.
var adminTables = []string{"users", "institutions", "accounts", "statements", "apr_history", "limit_history", "transactions", "credentials"}

// NewAdminRepository создает репозиторий для админских запросов.
func NewAdminRepository(db *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{db: db}
}

// ListUsers возвращает список пользователей с пагинацией.
func (r *AdminRepository) ListUsers(ctx context.Context, limit, offset int) ([]AdminUser, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, email, name, created_at, updated_at
		 FROM users
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]AdminUser, 0)
	for rows.Next() {
		var user AdminUser
		var name *string
		if err := rows.Scan(&user.ID, &user.Email, &name, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		user.Name = name
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

// CountUsers возвращает общее количество пользователей.
func (r *AdminRepository) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// TableCounts возвращает количество строк в основных таблицах.
func (r *AdminRepository) TableCounts(ctx context.Context) ([]TableCount, error) {
	counts := make([]TableCount, 0, len(adminTables))
	for _, table := range adminTables {
		var count int
		if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM `+table).Scan(&count); err != nil {
			return nil, err
		}
		counts = append(counts, TableCount{Table: table, Rows: count})
	}

	return counts, nil
}

// Usage возвращает сводную статистику использования сервиса.
func (r *AdminRepository) Usage(ctx context.Context) (UsageStats, error) {
	var stats UsageStats

	err := r.db.QueryRow(ctx,
		`SELECT
		   (SELECT COUNT(*) FROM users),
		   (SELECT COUNT(*) FROM accounts),
		   (SELECT COUNT(*) FROM statements)`,
	).Scan(&stats.Users, &stats.Accounts, &stats.Statements)
	if err != nil {
		return stats, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT DATE_TRUNC('day', created_at) AS day, COUNT(*)
		 FROM statements
		 WHERE created_at >= NOW() - INTERVAL '30 days'
		 GROUP BY day
		 ORDER BY day`,
	)
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	for rows.Next() {
		var item DailyCount
		if err := rows.Scan(&item.Day, &item.Count); err != nil {
			return stats, err
		}
		stats.StatementsByDay = append(stats.StatementsByDay, item)
	}

	if err := rows.Err(); err != nil {
		return stats, err
	}

	return stats, nil
}
