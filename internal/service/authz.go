// authz.go — шлюз авторизации: предикаты без побочных эффектов,
// используемые сервисами учётных записей и каталога.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bigkaa/gosoundstore/catalog-module/internal/domain/model"
	"github.com/bigkaa/gosoundstore/catalog-module/internal/repository"
)

// AuthzService — проверки прав доступа.
type AuthzService struct {
	artists repository.ArtistRepository
	albums  repository.AlbumRepository
	logger  *slog.Logger
}

// NewAuthzService создаёт шлюз авторизации.
func NewAuthzService(
	artists repository.ArtistRepository,
	albums repository.AlbumRepository,
	logger *slog.Logger,
) *AuthzService {
	return &AuthzService{
		artists: artists,
		albums:  albums,
		logger:  logger.With(slog.String("component", "authz_service")),
	}
}

// RequireArtist возвращает профиль исполнителя пользователя
// или ErrNotArtist, если профиля нет.
func (s *AuthzService) RequireArtist(ctx context.Context, userID string) (*model.Artist, error) {
	artist, err := s.artists.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotArtist
		}
		return nil, fmt.Errorf("получение исполнителя: %w", err)
	}
	return artist, nil
}

// RequireVerifiedArtist — как RequireArtist, плюс требование
// пройденной верификации (ErrNotVerified).
func (s *AuthzService) RequireVerifiedArtist(ctx context.Context, userID string) (*model.Artist, error) {
	artist, err := s.RequireArtist(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !artist.Verified {
		return nil, ErrNotVerified
	}
	return artist, nil
}

// RequireOwnedAlbum возвращает альбом, принадлежащий исполнителю.
// Отсутствие альбома и чужой альбом дают одинаковый ErrNotFound,
// чтобы не раскрывать существование чужих альбомов.
func (s *AuthzService) RequireOwnedAlbum(ctx context.Context, artistID, albumID string) (*model.Album, error) {
	album, err := s.albums.GetOwned(ctx, albumID, artistID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: альбом не найден или не принадлежит исполнителю", ErrNotFound)
		}
		return nil, fmt.Errorf("получение альбома: %w", err)
	}
	return album, nil
}
