package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/payment-planner/backend/internal/models"
)

type InstitutionRepository struct {
	db *pgxpool.Pool
}

// NewInstitutionRepository создает репозиторий банков.
func NewInstitutionRepository(db *pgxpool.Pool) *InstitutionRepository {
	return &InstitutionRepository{db: db}
}

// Create создает банк пользователя. Kind уникален в пределах пользователя.
func (r *InstitutionRepository) Create(ctx context.Context, userID uuid.UUID, name, kind string, website *string) (models.Institution, error) {
	var institution models.Institution

	err := r.db.QueryRow(ctx,
		`INSERT INTO institutions (user_id, name, kind, website)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, user_id, name, kind, website, created_at`,
		userID, name, kind, website,
	).Scan(&institution.ID, &institution.UserID, &institution.Name, &institution.Kind, &institution.Website, &institution.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return institution, ErrConflict
		}
		return institution, err
	}

	return institution, nil
}

// ListByUser возвращает банки пользователя.
func (r *InstitutionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Institution, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, name, kind, website, created_at
		 FROM institutions
		 WHERE user_id = $1
		 ORDER BY name`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	institutions := make([]models.Institution, 0)
	for rows.Next() {
		var institution models.Institution
		if err := rows.Scan(&institution.ID, &institution.UserID, &institution.Name, &institution.Kind, &institution.Website, &institution.CreatedAt); err != nil {
			return nil, err
		}
		institutions = append(institutions, institution)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return institutions, nil
}

// GetByID возвращает банк пользователя по идентификатору.
func (r *InstitutionRepository) GetByID(ctx context.Context, userID, institutionID uuid.UUID) (models.Institution, error) {
	var institution models.Institution

	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, name, kind, website, created_at
		 FROM institutions
		 WHERE id = $1 AND user_id = $2`,
		institutionID, userID,
	).Scan(&institution.ID, &institution.UserID, &institution.Name, &institution.Kind, &institution.Website, &institution.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return institution, ErrNotFound
	}
	if err != nil {
		return institution, err
	}

	return institution, nil
}
