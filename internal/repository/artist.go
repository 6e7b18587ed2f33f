package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/gosoundstore/catalog-module/internal/domain/model"
)

// ArtistRepository — интерфейс доступа к таблице artists.
type ArtistRepository interface {
	// Create создаёт профиль исполнителя.
	Create(ctx context.Context, a *model.Artist) error
	// GetByID возвращает исполнителя по UUID.
	GetByID(ctx context.Context, id string) (*model.Artist, error)
	// GetByUserID возвращает исполнителя по UUID владеющего пользователя.
	GetByUserID(ctx context.Context, userID string) (*model.Artist, error)
	// SetVerified изменяет флаг верификации.
	// Используется внешним процессом модерации и тестами.
	SetVerified(ctx context.Context, id string, verified bool) error
	// DeleteByUserID удаляет профиль исполнителя пользователя.
	DeleteByUserID(ctx context.Context, userID string) error
}

// artistRepo — реализация ArtistRepository.
type artistRepo struct {
	db DBTX
}

// NewArtistRepository создаёт репозиторий исполнителей.
func NewArtistRepository(db DBTX) ArtistRepository {
	return &artistRepo{db: db}
}

const artistColumns = `id, user_id, name, bio, verified, created_at, updated_at`

// scanArtist сканирует строку результата в модель Artist.
func scanArtist(row pgx.Row) (*model.Artist, error) {
	a := &model.Artist{}
	err := row.Scan(
		&a.ID, &a.UserID, &a.Name, &a.Bio, &a.Verified, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

func (r *artistRepo) Create(ctx context.Context, a *model.Artist) error {
	query := `
		INSERT INTO artists (id, user_id, name, bio, verified)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		a.ID, a.UserID, a.Name, a.Bio, a.Verified,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: у пользователя уже есть профиль исполнителя", ErrConflict)
		}
		return fmt.Errorf("ошибка создания исполнителя: %w", err)
	}
	return nil
}

func (r *artistRepo) GetByID(ctx context.Context, id string) (*model.Artist, error) {
	query := fmt.Sprintf(`SELECT %s FROM artists WHERE id = $1`, artistColumns)
	a, err := scanArtist(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения исполнителя: %w", err)
	}
	return a, nil
}

func (r *artistRepo) GetByUserID(ctx context.Context, userID string) (*model.Artist, error) {
	query := fmt.Sprintf(`SELECT %s FROM artists WHERE user_id = $1`, artistColumns)
	a, err := scanArtist(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения исполнителя по user_id: %w", err)
	}
	return a, nil
}

func (r *artistRepo) SetVerified(ctx context.Context, id string, verified bool) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE artists SET verified = $2, updated_at = now() WHERE id = $1`,
		id, verified,
	)
	if err != nil {
		return fmt.Errorf("ошибка изменения верификации: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *artistRepo) DeleteByUserID(ctx context.Context, userID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM artists WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("ошибка удаления исполнителя: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
