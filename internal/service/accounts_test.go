package service

import (
	"context"
	"errors"
	"testing"
)

// TestRegister_Listener — регистрация слушателя без профиля исполнителя.
func TestRegister_Listener(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	view, err := env.accounts.Register(ctx, RegisterParams{
		Email:    "listener@example.com",
		Username: "listener",
		Password: "secret-password1",
	})
	if err != nil {
		t.Fatalf("Register() ошибка: %v", err)
	}
	if view.IsArtist {
		t.Error("IsArtist = true для слушателя")
	}
	if view.Artist != nil {
		t.Error("Artist != nil для слушателя")
	}
	if view.SubscriptionTier != "free" {
		t.Errorf("SubscriptionTier = %q, ожидается free", view.SubscriptionTier)
	}

	// Хэш пароля не должен попадать в представление ни в каком виде:
	// повторное чтение подтверждает сохранение записи
	got, err := env.accounts.Get(ctx, view.ID)
	if err != nil {
		t.Fatalf("Get() ошибка: %v", err)
	}
	if got.Email != "listener@example.com" {
		t.Errorf("Email = %q", got.Email)
	}
}

// TestRegister_ArtistAtomic — регистрация исполнителя создаёт
// учётную запись и профиль атомарно, профиль не верифицирован.
func TestRegister_ArtistAtomic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	bio := "Играю на терменвоксе"
	view, err := env.accounts.Register(ctx, RegisterParams{
		Email:    "artist@example.com",
		Username: "artist",
		Password: "secret-password1",
		Artist:   &RegisterArtistParams{Name: "Терменвокс", Bio: &bio},
	})
	if err != nil {
		t.Fatalf("Register() ошибка: %v", err)
	}
	if !view.IsArtist {
		t.Error("IsArtist = false для исполнителя")
	}
	if view.Artist == nil {
		t.Fatal("Artist = nil для исполнителя")
	}
	if view.Artist.Verified {
		t.Error("Verified = true сразу после регистрации")
	}
	if view.Artist.Name != "Терменвокс" {
		t.Errorf("Artist.Name = %q", view.Artist.Name)
	}

	if n := env.countRows(t, "users"); n != 1 {
		t.Errorf("users: %d строк, ожидается 1", n)
	}
	if n := env.countRows(t, "artists"); n != 1 {
		t.Errorf("artists: %d строк, ожидается 1", n)
	}
}

// TestRegister_Conflict — повторная регистрация с занятым email
// или username даёт ErrConflict и не оставляет строк.
func TestRegister_Conflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.accounts.Register(ctx, RegisterParams{
		Email:    "taken@example.com",
		Username: "taken",
		Password: "secret-password1",
	}); err != nil {
		t.Fatalf("Register() ошибка: %v", err)
	}

	cases := []struct {
		name     string
		email    string
		username string
	}{
		{"занятый email", "taken@example.com", "other"},
		{"занятый username", "other@example.com", "taken"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.accounts.Register(ctx, RegisterParams{
				Email:    tc.email,
				Username: tc.username,
				Password: "secret-password1",
				Artist:   &RegisterArtistParams{Name: "Дубль"},
			})
			if !errors.Is(err, ErrConflict) {
				t.Fatalf("ожидается ErrConflict, получено: %v", err)
			}
		})
	}

	// Ни учётных записей, ни профилей исполнителей не добавилось
	if n := env.countRows(t, "users"); n != 1 {
		t.Errorf("users: %d строк, ожидается 1", n)
	}
	if n := env.countRows(t, "artists"); n != 0 {
		t.Errorf("artists: %d строк, ожидается 0", n)
	}
}

// TestRegister_Validation — пустые обязательные поля.
func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.accounts.Register(ctx, RegisterParams{Email: "a@b.c"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ожидается ErrValidation, получено: %v", err)
	}

	_, err = env.accounts.Register(ctx, RegisterParams{
		Email:    "a@b.c",
		Username: "a",
		Password: "secret-password1",
		Artist:   &RegisterArtistParams{},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ожидается ErrValidation для пустого имени исполнителя, получено: %v", err)
	}
}

// TestLogin — успешный вход возвращает токен с корректными claims;
// неизвестный email и неверный пароль дают одну и ту же ошибку.
func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	view, err := env.accounts.Register(ctx, RegisterParams{
		Email:    "login@example.com",
		Username: "login",
		Password: "secret-password1",
		Artist:   &RegisterArtistParams{Name: "Логин"},
	})
	if err != nil {
		t.Fatalf("Register() ошибка: %v", err)
	}

	token, got, err := env.accounts.Login(ctx, "login@example.com", "secret-password1")
	if err != nil {
		t.Fatalf("Login() ошибка: %v", err)
	}
	if got.ID != view.ID {
		t.Errorf("ID = %q, ожидается %q", got.ID, view.ID)
	}

	claims, err := env.tokens.Verify(token)
	if err != nil {
		t.Fatalf("Verify() ошибка: %v", err)
	}
	if claims.Subject != view.ID {
		t.Errorf("claims.sub = %q, ожидается %q", claims.Subject, view.ID)
	}
	if claims.Email != "login@example.com" {
		t.Errorf("claims.email = %q", claims.Email)
	}
	if !claims.IsArtist {
		t.Error("claims.isArtist = false для исполнителя")
	}

	// Неизвестный email и неверный пароль неразличимы
	_, _, errUnknown := env.accounts.Login(ctx, "nobody@example.com", "secret-password1")
	_, _, errWrongPass := env.accounts.Login(ctx, "login@example.com", "wrong-password1")
	if !errors.Is(errUnknown, ErrUnauthorized) {
		t.Fatalf("неизвестный email: ожидается ErrUnauthorized, получено: %v", errUnknown)
	}
	if !errors.Is(errWrongPass, ErrUnauthorized) {
		t.Fatalf("неверный пароль: ожидается ErrUnauthorized, получено: %v", errWrongPass)
	}
	if errUnknown.Error() != errWrongPass.Error() {
		t.Errorf("сообщения различаются: %q vs %q", errUnknown, errWrongPass)
	}
}

// TestUpdate — обновление профиля: частичное, конфликтное, пустое.
func TestUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.accounts.Register(ctx, RegisterParams{
		Email:    "first@example.com",
		Username: "first",
		Password: "secret-password1",
	})
	if err != nil {
		t.Fatalf("Register() ошибка: %v", err)
	}
	if _, err := env.accounts.Register(ctx, RegisterParams{
		Email:    "second@example.com",
		Username: "second",
		Password: "secret-password1",
	}); err != nil {
		t.Fatalf("Register() ошибка: %v", err)
	}

	// Пустое обновление
	if _, err := env.accounts.Update(ctx, first.ID, UpdateParams{}); !errors.Is(err, ErrValidation) {
		t.Fatalf("ожидается ErrValidation, получено: %v", err)
	}

	// Частичное обновление username
	newName := "renamed"
	got, err := env.accounts.Update(ctx, first.ID, UpdateParams{Username: &newName})
	if err != nil {
		t.Fatalf("Update() ошибка: %v", err)
	}
	if got.Username != "renamed" {
		t.Errorf("Username = %q", got.Username)
	}
	if got.Email != "first@example.com" {
		t.Errorf("Email изменился: %q", got.Email)
	}

	// Конфликт с чужим email
	takenEmail := "second@example.com"
	if _, err := env.accounts.Update(ctx, first.ID, UpdateParams{Email: &takenEmail}); !errors.Is(err, ErrConflict) {
		t.Fatalf("ожидается ErrConflict, получено: %v", err)
	}

	// Обновление несуществующего пользователя
	ghost := "00000000-0000-0000-0000-000000000000"
	if _, err := env.accounts.Update(ctx, ghost, UpdateParams{Username: &newName}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ожидается ErrNotFound, получено: %v", err)
	}
}

// TestDelete — удаление исполнителя убирает и профиль, и учётную запись.
func TestDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	view, err := env.accounts.Register(ctx, RegisterParams{
		Email:    "gone@example.com",
		Username: "gone",
		Password: "secret-password1",
		Artist:   &RegisterArtistParams{Name: "Уходящий"},
	})
	if err != nil {
		t.Fatalf("Register() ошибка: %v", err)
	}

	if err := env.accounts.Delete(ctx, view.ID); err != nil {
		t.Fatalf("Delete() ошибка: %v", err)
	}
	if n := env.countRows(t, "users"); n != 0 {
		t.Errorf("users: %d строк, ожидается 0", n)
	}
	if n := env.countRows(t, "artists"); n != 0 {
		t.Errorf("artists: %d строк, ожидается 0", n)
	}

	if err := env.accounts.Delete(ctx, view.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("повторное удаление: ожидается ErrNotFound, получено: %v", err)
	}
}
