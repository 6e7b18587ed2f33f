package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bigkaa/gosoundstore/catalog-module/internal/domain/model"
)

// AlbumRepository — интерфейс доступа к таблицам albums и album_tracks.
type AlbumRepository interface {
	// Create создаёт альбом.
	Create(ctx context.Context, a *model.Album) error
	// GetOwned возвращает альбом, принадлежащий указанному исполнителю.
	// Отсутствие альбома и чужой альбом неразличимы: оба — ErrNotFound.
	GetOwned(ctx context.Context, albumID, artistID string) (*model.Album, error)
	// GetByID возвращает альбом по UUID.
	GetByID(ctx context.Context, id string) (*model.Album, error)
	// LinkTrack добавляет трек в альбом со следующим порядковым номером.
	LinkTrack(ctx context.Context, at *model.AlbumTrack) error
	// RecomputeTotalDuration пересчитывает и сохраняет производный агрегат
	// total_duration как сумму длительностей всех привязанных треков.
	// Возвращает новое значение.
	RecomputeTotalDuration(ctx context.Context, albumID string) (int, error)
}

// albumRepo — реализация AlbumRepository.
type albumRepo struct {
	db DBTX
}

// NewAlbumRepository создаёт репозиторий альбомов.
func NewAlbumRepository(db DBTX) AlbumRepository {
	return &albumRepo{db: db}
}

const albumColumns = `id, artist_id, title, total_duration, created_at, updated_at`

// scanAlbum сканирует строку результата в модель Album.
func scanAlbum(row pgx.Row) (*model.Album, error) {
	a := &model.Album{}
	err := row.Scan(
		&a.ID, &a.ArtistID, &a.Title, &a.TotalDuration, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

func (r *albumRepo) Create(ctx context.Context, a *model.Album) error {
	query := `
		INSERT INTO albums (id, artist_id, title, total_duration)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		a.ID, a.ArtistID, a.Title, a.TotalDuration,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ошибка создания альбома: %w", err)
	}
	return nil
}

func (r *albumRepo) GetOwned(ctx context.Context, albumID, artistID string) (*model.Album, error) {
	query := fmt.Sprintf(`SELECT %s FROM albums WHERE id = $1 AND artist_id = $2`, albumColumns)
	a, err := scanAlbum(r.db.QueryRow(ctx, query, albumID, artistID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения альбома: %w", err)
	}
	return a, nil
}

func (r *albumRepo) GetByID(ctx context.Context, id string) (*model.Album, error) {
	query := fmt.Sprintf(`SELECT %s FROM albums WHERE id = $1`, albumColumns)
	a, err := scanAlbum(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения альбома: %w", err)
	}
	return a, nil
}

func (r *albumRepo) LinkTrack(ctx context.Context, at *model.AlbumTrack) error {
	// Порядковый номер — следующий за текущим количеством треков альбома
	query := `
		INSERT INTO album_tracks (id, album_id, track_id, track_number, disc_number)
		VALUES ($1, $2, $3,
			(SELECT COUNT(*) + 1 FROM album_tracks WHERE album_id = $2),
			$4)
		RETURNING track_number, created_at`

	err := r.db.QueryRow(ctx, query,
		at.ID, at.AlbumID, at.TrackID, at.DiscNumber,
	).Scan(&at.TrackNumber, &at.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: трек уже привязан к альбому", ErrConflict)
		}
		return fmt.Errorf("ошибка привязки трека к альбому: %w", err)
	}
	return nil
}

func (r *albumRepo) RecomputeTotalDuration(ctx context.Context, albumID string) (int, error) {
	query := `
		UPDATE albums
		SET total_duration = (
			SELECT COALESCE(SUM(t.duration), 0)
			FROM album_tracks at
			JOIN tracks t ON t.id = at.track_id
			WHERE at.album_id = $1
		),
		updated_at = now()
		WHERE id = $1
		RETURNING total_duration`

	var total int
	err := r.db.QueryRow(ctx, query, albumID).Scan(&total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("ошибка пересчёта длительности альбома: %w", err)
	}
	return total, nil
}
