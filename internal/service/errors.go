// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrNotFound — ресурс не найден либо не принадлежит вызывающему
	// (оба случая неразличимы, чтобы не раскрывать существование чужих ресурсов).
	ErrNotFound = errors.New("ресурс не найден")
	// ErrConflict — конфликт уникальности (email или username уже занят).
	ErrConflict = errors.New("конфликт — ресурс уже существует")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrUnauthorized — неверные учётные данные или невалидный токен.
	// Единое сообщение для неизвестного email и неверного пароля.
	ErrUnauthorized = errors.New("неверный email или пароль")
	// ErrNotArtist — пользователь не зарегистрирован как исполнитель.
	ErrNotArtist = errors.New("пользователь не является исполнителем")
	// ErrNotVerified — исполнитель не прошёл верификацию.
	ErrNotVerified = errors.New("загружать треки могут только верифицированные исполнители")
	// ErrStorage — сбой blob-хранилища.
	ErrStorage = errors.New("blob-хранилище недоступно")
)
