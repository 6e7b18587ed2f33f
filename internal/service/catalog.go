// catalog.go — сервис загрузки треков в каталог.
//
// Поток загрузки:
//  1. Авторизация: верифицированный исполнитель
//  2. Валидация аудио-payload
//  3. Проверка владения альбомом (если указан albumId)
//  4. Сохранение байтов в blob-хранилище
//  5. Одна транзакция: трек + файл + привязка к альбому + пересчёт
//     total_duration
//
// Blob-хранилище и PostgreSQL не покрываются общей транзакцией:
// blob пишется первым, чтобы строки каталога никогда не ссылались
// на отсутствующий объект. Осиротевший blob при сбое шага 5 —
// допустимое состояние, вычищается отдельным обслуживанием.
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/gosoundstore/catalog-module/internal/blobstore"
	"github.com/bigkaa/gosoundstore/catalog-module/internal/domain/model"
	"github.com/bigkaa/gosoundstore/catalog-module/internal/repository"
)

// defaultBitrate — битрейт загруженного файла.
// Фактический битрейт источника не анализируется.
const defaultBitrate = 128

// IngestParams — параметры загрузки трека.
type IngestParams struct {
	// Title — название трека
	Title string
	// Genre — жанр
	Genre string
	// Duration — длительность в секундах (>= 0)
	Duration int
	// AlbumID — UUID альбома для привязки (опционально)
	AlbumID *string
}

// AudioPayload — загружаемый аудиофайл.
type AudioPayload struct {
	// Reader — поток байтов файла
	Reader io.Reader
	// OriginalFilename — оригинальное имя файла
	OriginalFilename string
	// ContentType — заявленный MIME-тип
	ContentType string
	// Size — размер в байтах (ограничение сверху — на транспортном уровне)
	Size int64
}

// IngestResult — результат загрузки трека.
type IngestResult struct {
	// Track — созданный трек с файловым вариантом
	Track *model.Track
	// StorageRef — ссылка на объект в blob-хранилище
	StorageRef blobstore.Reference
}

// CatalogService — сервис загрузки и выборки треков.
type CatalogService struct {
	authz  *AuthzService
	tracks repository.TrackRepository
	uow    repository.UnitOfWork
	blobs  blobstore.Store
	cache  *TrackListCache
	logger *slog.Logger
	// now подменяется в тестах для детерминированных ключей
	now func() time.Time
}

// NewCatalogService создаёт сервис каталога.
func NewCatalogService(
	authz *AuthzService,
	tracks repository.TrackRepository,
	uow repository.UnitOfWork,
	blobs blobstore.Store,
	cache *TrackListCache,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		authz:  authz,
		tracks: tracks,
		uow:    uow,
		blobs:  blobs,
		cache:  cache,
		logger: logger.With(slog.String("component", "catalog_service")),
		now:    time.Now,
	}
}

// IngestTrack загружает трек верифицированного исполнителя:
// сохраняет байты в blob-хранилище, создаёт записи каталога и,
// при привязке к альбому, пересчитывает производный агрегат
// total_duration.
func (s *CatalogService) IngestTrack(ctx context.Context, userID string, params IngestParams, payload AudioPayload) (*IngestResult, error) {
	// 1. Авторизация
	artist, err := s.authz.RequireVerifiedArtist(ctx, userID)
	if err != nil {
		return nil, err
	}

	// 2. Валидация payload
	if payload.Reader == nil {
		return nil, fmt.Errorf("%w: аудиофайл не передан", ErrValidation)
	}
	if !strings.HasPrefix(payload.ContentType, "audio/") {
		return nil, fmt.Errorf("%w: загружаемый файл должен быть аудиофайлом", ErrValidation)
	}
	if params.Title == "" {
		return nil, fmt.Errorf("%w: название трека обязательно", ErrValidation)
	}
	if params.Duration < 0 {
		return nil, fmt.Errorf("%w: длительность не может быть отрицательной", ErrValidation)
	}

	// 3. Владение альбомом
	if params.AlbumID != nil {
		if _, err := s.authz.RequireOwnedAlbum(ctx, artist.ID, *params.AlbumID); err != nil {
			return nil, err
		}
	}

	// 4. Blob — первым: строки каталога никогда не ссылаются
	// на отсутствующий объект
	key := blobstore.ObjectKey(artist.ID, s.now().UnixMilli(), payload.OriginalFilename)
	ref, err := s.blobs.Put(ctx, key, payload.Reader, payload.ContentType, payload.Size)
	if err != nil {
		s.logger.Error("Ошибка записи в blob-хранилище",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	// 5. Строки каталога — одной транзакцией
	track := &model.Track{
		ID:       uuid.New().String(),
		ArtistID: artist.ID,
		Title:    params.Title,
		Genre:    params.Genre,
		Duration: params.Duration,
		AIStatus: model.AIStatusPending,
	}
	file := &model.TrackFile{
		ID:       uuid.New().String(),
		TrackID:  track.ID,
		Format:   formatFromMimeType(payload.ContentType),
		Bitrate:  defaultBitrate,
		FileURL:  ref.URL,
		FilePath: ref.Key,
		MimeType: payload.ContentType,
		FileSize: payload.Size,
	}

	err = s.uow.RunInTx(ctx, func(tx repository.DBTX) error {
		trackRepo := repository.NewTrackRepository(tx)
		if err := trackRepo.Create(ctx, track); err != nil {
			return err
		}
		if err := trackRepo.CreateFile(ctx, file); err != nil {
			return err
		}
		if params.AlbumID != nil {
			albumRepo := repository.NewAlbumRepository(tx)
			link := &model.AlbumTrack{
				ID:         uuid.New().String(),
				AlbumID:    *params.AlbumID,
				TrackID:    track.ID,
				DiscNumber: 1,
			}
			if err := albumRepo.LinkTrack(ctx, link); err != nil {
				return err
			}
			if _, err := albumRepo.RecomputeTotalDuration(ctx, *params.AlbumID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// Blob уже записан — осиротевший объект допустим,
		// синхронной компенсации нет
		s.logger.Error("Ошибка записи строк каталога, blob осиротел",
			slog.String("key", ref.Key),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("сохранение трека в каталог: %w", err)
	}

	track.Files = []*model.TrackFile{file}
	s.cache.Invalidate(artist.ID)

	s.logger.Info("Трек загружен",
		slog.String("track_id", track.ID),
		slog.String("artist_id", artist.ID),
		slog.String("key", ref.Key),
		slog.Int64("size", payload.Size),
	)

	return &IngestResult{Track: track, StorageRef: ref}, nil
}

// ListArtistTracks возвращает треки исполнителя по убыванию времени
// создания, с файловыми вариантами. Верификация не требуется —
// достаточно профиля исполнителя. Список кэшируется по artistID.
func (s *CatalogService) ListArtistTracks(ctx context.Context, userID string) ([]*model.Track, error) {
	artist, err := s.authz.RequireArtist(ctx, userID)
	if err != nil {
		return nil, err
	}

	if tracks, ok := s.cache.Get(artist.ID); ok {
		return tracks, nil
	}

	tracks, err := s.tracks.ListByArtist(ctx, artist.ID)
	if err != nil {
		return nil, fmt.Errorf("получение треков исполнителя: %w", err)
	}

	s.cache.Set(artist.ID, tracks)
	return tracks, nil
}

// formatFromMimeType определяет формат кодирования по MIME-типу:
// ogg → OGG, aac/mp4 → AAC, иначе OGG.
func formatFromMimeType(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "ogg"):
		return model.FormatOGG
	case strings.Contains(mimeType, "aac"), strings.Contains(mimeType, "mp4"):
		return model.FormatAAC
	default:
		return model.FormatOGG
	}
}
