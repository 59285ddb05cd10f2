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

type CredentialRepository struct {
	db *pgxpool.Pool
}

// NewCredentialRepository создает репозиторий учетных данных банков.
func NewCredentialRepository(db *pgxpool.Pool) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Create сохраняет зашифрованные учетные данные для банка.
func (r *CredentialRepository) Create(ctx context.Context, userID, institutionID uuid.UUID, username, encryptedSecret string) (models.Credential, error) {
	var credential models.Credential

	err := r.db.QueryRow(ctx,
		`INSERT INTO credentials (user_id, institution_id, username, encrypted_secret)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, user_id, institution_id, username, encrypted_secret, created_at, accessed_at`,
		userID, institutionID, username, encryptedSecret,
	).Scan(
		&credential.ID, &credential.UserID, &credential.InstitutionID,
		&credential.Username, &credential.EncryptedSecret, &credential.CreatedAt, &credential.AccessedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return credential, ErrConflict
			case "23503":
				return credential, ErrInvalid
			}
		}
		return credential, err
	}

	return credential, nil
}

// ListByUser возвращает учетные данные пользователя без расшифровки.
func (r *CredentialRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Credential, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, institution_id, username, encrypted_secret, created_at, accessed_at
		 FROM credentials
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	credentials := make([]models.Credential, 0)
	for rows.Next() {
		var credential models.Credential
		if err := rows.Scan(
			&credential.ID, &credential.UserID, &credential.InstitutionID,
			&credential.Username, &credential.EncryptedSecret, &credential.CreatedAt, &credential.AccessedAt,
		); err != nil {
			return nil, err
		}
		credentials = append(credentials, credential)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return credentials, nil
}

// GetByID возвращает учетные данные и отмечает время доступа.
func (r *CredentialRepository) GetByID(ctx context.Context, userID, credentialID uuid.UUID) (models.Credential, error) {
	var credential models.Credential

	err := r.db.QueryRow(ctx,
		`UPDATE credentials
		 SET accessed_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING id, user_id, institution_id, username, encrypted_secret, created_at, accessed_at`,
		credentialID, userID,
	).Scan(
		&credential.ID, &credential.UserID, &credential.InstitutionID,
		&credential.Username, &credential.EncryptedSecret, &credential.CreatedAt, &credential.AccessedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return credential, ErrNotFound
	}
	if err != nil {
		return credential, err
	}

	return credential, nil
}

// Delete удаляет учетные данные пользователя.
func (r *CredentialRepository) Delete(ctx context.Context, userID, credentialID uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM credentials WHERE id = $1 AND user_id = $2`,
		credentialID, userID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
