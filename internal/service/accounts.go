// Пакет service — бизнес-логика Catalog Module.
// accounts.go — сервис учётных записей: регистрация (атомарно с профилем
// исполнителя), чтение/обновление/удаление профиля, аутентификация.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/gosoundstore/catalog-module/internal/auth"
	"github.com/bigkaa/gosoundstore/catalog-module/internal/domain/model"
	"github.com/bigkaa/gosoundstore/catalog-module/internal/repository"
)

// defaultSubscriptionTier — тариф новой учётной записи.
const defaultSubscriptionTier = "free"

// ArtistView — безопасное представление профиля исполнителя.
type ArtistView struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Bio      *string `json:"bio,omitempty"`
	Verified bool    `json:"verified"`
}

// AccountView — безопасное представление учётной записи (без хэша пароля).
type AccountView struct {
	ID               string      `json:"id"`
	Email            string      `json:"email"`
	Username         string      `json:"username"`
	SubscriptionTier string      `json:"subscriptionTier"`
	IsArtist         bool        `json:"isArtist"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
	Artist           *ArtistView `json:"artist,omitempty"`
}

// RegisterArtistParams — данные профиля исполнителя при регистрации.
type RegisterArtistParams struct {
	// Name — отображаемое имя исполнителя
	Name string
	// Bio — биография (опционально)
	Bio *string
}

// RegisterParams — параметры регистрации.
type RegisterParams struct {
	Email    string
	Username string
	Password string
	// Artist — если задан, атомарно с учётной записью создаётся
	// профиль исполнителя (verified=false)
	Artist *RegisterArtistParams
}

// UpdateParams — параметры обновления профиля.
// Обновлять разрешено только username и email; хотя бы одно поле обязательно.
type UpdateParams struct {
	Username *string
	Email    *string
}

// AccountService — сервис учётных записей.
type AccountService struct {
	users   repository.UserRepository
	artists repository.ArtistRepository
	uow     repository.UnitOfWork
	tokens  *auth.TokenIssuer
	logger  *slog.Logger
}

// NewAccountService создаёт сервис учётных записей.
func NewAccountService(
	users repository.UserRepository,
	artists repository.ArtistRepository,
	uow repository.UnitOfWork,
	tokens *auth.TokenIssuer,
	logger *slog.Logger,
) *AccountService {
	return &AccountService{
		users:   users,
		artists: artists,
		uow:     uow,
		tokens:  tokens,
		logger:  logger.With(slog.String("component", "account_service")),
	}
}

// Register создаёт учётную запись и, при наличии данных исполнителя,
// профиль исполнителя — в одной транзакции. Либо обе записи фиксируются,
// либо ни одной.
func (s *AccountService) Register(ctx context.Context, params RegisterParams) (*AccountView, error) {
	if params.Email == "" || params.Username == "" || params.Password == "" {
		return nil, fmt.Errorf("%w: email, username и password обязательны", ErrValidation)
	}
	if params.Artist != nil && params.Artist.Name == "" {
		return nil, fmt.Errorf("%w: имя исполнителя обязательно", ErrValidation)
	}

	// Предварительная проверка занятости одним запросом.
	// Авторитетный источник — уникальные ограничения БД: гонка между
	// проверкой и вставкой закрывается на уровне хранилища.
	exists, err := s.users.ExistsByEmailOrUsername(ctx, params.Email, params.Username)
	if err != nil {
		return nil, fmt.Errorf("проверка занятости email/username: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: пользователь с таким email или username уже существует", ErrConflict)
	}

	passwordHash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, fmt.Errorf("хэширование пароля: %w", err)
	}

	user := &model.User{
		ID:               uuid.New().String(),
		Email:            params.Email,
		Username:         params.Username,
		PasswordHash:     passwordHash,
		SubscriptionTier: defaultSubscriptionTier,
		IsArtist:         params.Artist != nil,
	}

	var artist *model.Artist
	err = s.uow.RunInTx(ctx, func(tx repository.DBTX) error {
		if err := repository.NewUserRepository(tx).Create(ctx, user); err != nil {
			return err
		}
		if params.Artist != nil {
			artist = &model.Artist{
				ID:     uuid.New().String(),
				UserID: user.ID,
				Name:   params.Artist.Name,
				Bio:    params.Artist.Bio,
			}
			if err := repository.NewArtistRepository(tx).Create(ctx, artist); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// Гонка уникальности — единственный класс, пробрасываемый как Conflict
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: пользователь с таким email или username уже существует", ErrConflict)
		}
		s.logger.Error("Ошибка регистрации пользователя",
			slog.String("email", params.Email),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("регистрация пользователя: %w", err)
	}

	s.logger.Info("Пользователь зарегистрирован",
		slog.String("user_id", user.ID),
		slog.Bool("is_artist", user.IsArtist),
	)

	return accountView(user, artist), nil
}

// Get возвращает учётную запись с профилем исполнителя (если есть).
func (s *AccountService) Get(ctx context.Context, id string) (*AccountView, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: пользователь", ErrNotFound)
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return accountView(user, s.artistOrNil(ctx, user)), nil
}

// Update обновляет username и/или email учётной записи.
// Требуется хотя бы одно поле; занятость изменяемых полей
// проверяется повторно перед применением.
func (s *AccountService) Update(ctx context.Context, id string, params UpdateParams) (*AccountView, error) {
	if params.Username == nil && params.Email == nil {
		return nil, fmt.Errorf("%w: укажите хотя бы одно из полей username, email", ErrValidation)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: пользователь", ErrNotFound)
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}

	if params.Email != nil && *params.Email != user.Email {
		taken, err := s.users.EmailTaken(ctx, *params.Email, id)
		if err != nil {
			return nil, fmt.Errorf("проверка email: %w", err)
		}
		if taken {
			return nil, fmt.Errorf("%w: email уже занят", ErrConflict)
		}
	}
	if params.Username != nil && *params.Username != user.Username {
		taken, err := s.users.UsernameTaken(ctx, *params.Username, id)
		if err != nil {
			return nil, fmt.Errorf("проверка username: %w", err)
		}
		if taken {
			return nil, fmt.Errorf("%w: username уже занят", ErrConflict)
		}
	}

	if err := s.users.UpdateProfile(ctx, id, params.Username, params.Email); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: email или username уже занят", ErrConflict)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: пользователь", ErrNotFound)
		}
		return nil, fmt.Errorf("обновление пользователя: %w", err)
	}

	return s.Get(ctx, id)
}

// Delete удаляет учётную запись и связанный профиль исполнителя
// в одной транзакции: сначала исполнитель, затем пользователь.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: пользователь", ErrNotFound)
		}
		return fmt.Errorf("получение пользователя: %w", err)
	}

	err = s.uow.RunInTx(ctx, func(tx repository.DBTX) error {
		if user.IsArtist {
			if err := repository.NewArtistRepository(tx).DeleteByUserID(ctx, user.ID); err != nil {
				return err
			}
		}
		return repository.NewUserRepository(tx).Delete(ctx, user.ID)
	})
	if err != nil {
		s.logger.Error("Ошибка удаления пользователя",
			slog.String("user_id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("удаление пользователя: %w", err)
	}

	s.logger.Info("Пользователь удалён", slog.String("user_id", id))
	return nil
}

// Login аутентифицирует пользователя и выпускает bearer-токен.
// Неизвестный email и неверный пароль неразличимы для вызывающего.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, *AccountView, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrUnauthorized
		}
		return "", nil, fmt.Errorf("поиск пользователя: %w", err)
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return "", nil, ErrUnauthorized
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.IsArtist)
	if err != nil {
		return "", nil, fmt.Errorf("выпуск токена: %w", err)
	}

	s.logger.Info("Пользователь вошёл в систему", slog.String("user_id", user.ID))
	return token, accountView(user, s.artistOrNil(ctx, user)), nil
}

// artistOrNil возвращает профиль исполнителя пользователя или nil.
func (s *AccountService) artistOrNil(ctx context.Context, user *model.User) *model.Artist {
	if !user.IsArtist {
		return nil
	}
	artist, err := s.artists.GetByUserID(ctx, user.ID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("Ошибка получения профиля исполнителя",
				slog.String("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
		return nil
	}
	return artist
}

// accountView строит безопасное представление: хэш пароля не копируется.
func accountView(user *model.User, artist *model.Artist) *AccountView {
	view := &AccountView{
		ID:               user.ID,
		Email:            user.Email,
		Username:         user.Username,
		SubscriptionTier: user.SubscriptionTier,
		IsArtist:         user.IsArtist,
		CreatedAt:        user.CreatedAt,
		UpdatedAt:        user.UpdatedAt,
	}
	if artist != nil {
		view.Artist = &ArtistView{
			ID:       artist.ID,
			Name:     artist.Name,
			Bio:      artist.Bio,
			Verified: artist.Verified,
		}
	}
	return view
}
