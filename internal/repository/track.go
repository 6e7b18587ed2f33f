package repository

import (
	"context"
	"fmt"

	"github.com/bigkaa/gosoundstore/catalog-module/internal/domain/model"
)

// TrackRepository — интерфейс доступа к таблицам tracks и track_files.
// TrackFile создаётся только вместе с треком при загрузке, поэтому
// отдельного репозитория для него нет.
type TrackRepository interface {
	// Create создаёт трек.
	Create(ctx context.Context, t *model.Track) error
	// CreateFile создаёт файловый вариант трека.
	CreateFile(ctx context.Context, f *model.TrackFile) error
	// ListByArtist возвращает треки исполнителя по убыванию времени создания,
	// с прикреплёнными файловыми вариантами.
	ListByArtist(ctx context.Context, artistID string) ([]*model.Track, error)
}

// trackRepo — реализация TrackRepository.
type trackRepo struct {
	db DBTX
}

// NewTrackRepository создаёт репозиторий треков.
func NewTrackRepository(db DBTX) TrackRepository {
	return &trackRepo{db: db}
}

func (r *trackRepo) Create(ctx context.Context, t *model.Track) error {
	query := `
		INSERT INTO tracks (id, artist_id, title, genre, duration, ai_status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		t.ID, t.ArtistID, t.Title, t.Genre, t.Duration, t.AIStatus,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ошибка создания трека: %w", err)
	}
	return nil
}

func (r *trackRepo) CreateFile(ctx context.Context, f *model.TrackFile) error {
	query := `
		INSERT INTO track_files (id, track_id, format, bitrate, file_url, file_path, mime_type, file_size)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		f.ID, f.TrackID, f.Format, f.Bitrate, f.FileURL, f.FilePath, f.MimeType, f.FileSize,
	).Scan(&f.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка создания файла трека: %w", err)
	}
	return nil
}

func (r *trackRepo) ListByArtist(ctx context.Context, artistID string) ([]*model.Track, error) {
	query := `
		SELECT id, artist_id, title, genre, duration, ai_status, created_at, updated_at
		FROM tracks
		WHERE artist_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, artistID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка треков: %w", err)
	}
	defer rows.Close()

	var tracks []*model.Track
	byID := make(map[string]*model.Track)
	for rows.Next() {
		t := &model.Track{}
		if err := rows.Scan(
			&t.ID, &t.ArtistID, &t.Title, &t.Genre, &t.Duration, &t.AIStatus,
			&t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования трека: %w", err)
		}
		tracks = append(tracks, t)
		byID[t.ID] = t
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(tracks) == 0 {
		return tracks, nil
	}

	// Прикрепляем файловые варианты одним запросом
	fileQuery := `
		SELECT f.id, f.track_id, f.format, f.bitrate, f.file_url, f.file_path, f.mime_type, f.file_size, f.created_at
		FROM track_files f
		JOIN tracks t ON t.id = f.track_id
		WHERE t.artist_id = $1
		ORDER BY f.created_at`

	fileRows, err := r.db.Query(ctx, fileQuery, artistID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения файлов треков: %w", err)
	}
	defer fileRows.Close()

	for fileRows.Next() {
		f := &model.TrackFile{}
		if err := fileRows.Scan(
			&f.ID, &f.TrackID, &f.Format, &f.Bitrate, &f.FileURL, &f.FilePath,
			&f.MimeType, &f.FileSize, &f.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования файла трека: %w", err)
		}
		if t, ok := byID[f.TrackID]; ok {
			t.Files = append(t.Files, f)
		}
	}
	return tracks, fileRows.Err()
}
