// Пакет model — доменные модели Catalog Module.
package model

import "time"

// User — учётная запись пользователя.
// Хранится в таблице users.
type User struct {
	// ID — UUID пользователя
	ID string
	// Email — адрес электронной почты (глобально уникален)
	Email string
	// Username — имя пользователя (глобально уникально)
	Username string
	// PasswordHash — bcrypt-хэш пароля (никогда не отдаётся наружу)
	PasswordHash string
	// SubscriptionTier — тариф подписки (free, premium)
	SubscriptionTier string
	// IsArtist — true тогда и только тогда, когда на пользователя
	// ссылается строка artists
	IsArtist bool
	// CreatedAt — время создания записи
	CreatedAt time.Time
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time
}

// Artist — профиль исполнителя, связанный 1:1 с User.
// Хранится в таблице artists.
type Artist struct {
	// ID — UUID исполнителя
	ID string
	// UserID — UUID владеющего пользователя (уникален)
	UserID string
	// Name — отображаемое имя исполнителя
	Name string
	// Bio — биография (опционально)
	Bio *string
	// Verified — прошёл ли исполнитель модерацию.
	// Устанавливается внешним процессом модерации, не этим сервисом.
	Verified bool
	// CreatedAt — время создания записи
	CreatedAt time.Time
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time
}
