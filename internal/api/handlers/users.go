// users.go — обработчики /api/v1/users endpoints.
// Регистрация, вход, получение/обновление/удаление собственной учётной записи.
package handlers

import (
	"encoding/json"
	"net/http"
	"unicode"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/gosoundstore/catalog-module/internal/api/errors"
	"github.com/bigkaa/gosoundstore/catalog-module/internal/api/middleware"
	"github.com/bigkaa/gosoundstore/catalog-module/internal/service"
)

// minPasswordLength — минимальная длина пароля.
const minPasswordLength = 8

// registerArtistRequest — данные профиля исполнителя при регистрации.
type registerArtistRequest struct {
	Name string  `json:"name"`
	Bio  *string `json:"bio,omitempty"`
}

// registerRequest — тело запроса регистрации.
type registerRequest struct {
	Email    string                 `json:"email"`
	Username string                 `json:"username"`
	Password string                 `json:"password"`
	Artist   *registerArtistRequest `json:"artist,omitempty"`
}

// loginRequest — тело запроса входа.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse — ответ на успешный вход.
type loginResponse struct {
	Token string               `json:"token"`
	User  *service.AccountView `json:"user"`
}

// updateRequest — тело запроса обновления профиля.
type updateRequest struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
}

// Register — POST /api/v1/users.
// Создаёт учётную запись; с блоком artist — атомарно с профилем исполнителя.
// Публичный endpoint, JWT не требуется.
func (h *APIHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	if msg := validatePassword(req.Password); msg != "" {
		apierrors.ValidationError(w, msg)
		return
	}

	params := service.RegisterParams{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	}
	if req.Artist != nil {
		params.Artist = &service.RegisterArtistParams{
			Name: req.Artist.Name,
			Bio:  req.Artist.Bio,
		}
	}

	view, err := h.accounts.Register(r.Context(), params)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

// Login — POST /api/v1/users/login.
// Аутентифицирует пользователя, устанавливает сессионную cookie
// и возвращает токен для bearer-клиентов.
// Публичный endpoint, JWT не требуется.
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		apierrors.ValidationError(w, "email и password обязательны")
		return
	}

	token, view, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.setSessionCookie(w, token, int(h.cfg.JWTTTL.Seconds()))
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: view})
}

// Logout — POST /api/v1/users/logout.
// Сбрасывает сессионную cookie. Сам токен остаётся валидным до истечения TTL.
func (h *APIHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.setSessionCookie(w, "", -1)
	w.WriteHeader(http.StatusNoContent)
}

// GetUser — GET /api/v1/users/{id}.
// Возвращает собственную учётную запись с профилем исполнителя.
func (h *APIHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireSelf(w, r)
	if !ok {
		return
	}

	view, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// UpdateUser — PATCH /api/v1/users/{id}.
// Обновляет username и/или email собственной учётной записи.
func (h *APIHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireSelf(w, r)
	if !ok {
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	view, err := h.accounts.Update(r.Context(), id, service.UpdateParams{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// DeleteUser — DELETE /api/v1/users/{id}.
// Удаляет собственную учётную запись вместе с профилем исполнителя
// и сбрасывает сессионную cookie.
func (h *APIHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requireSelf(w, r)
	if !ok {
		return
	}

	if err := h.accounts.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.setSessionCookie(w, "", -1)
	w.WriteHeader(http.StatusNoContent)
}

// requireSelf извлекает {id} из пути и проверяет совпадение с sub токена.
// Операции над чужими учётными записями запрещены.
func (h *APIHandler) requireSelf(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	subject := middleware.SubjectFromContext(r.Context())
	if subject == "" {
		apierrors.Unauthorized(w, "Требуется аутентификация")
		return "", false
	}
	if id != subject {
		apierrors.Forbidden(w, "Операции разрешены только над собственной учётной записью")
		return "", false
	}
	return id, true
}

// setSessionCookie устанавливает или сбрасывает сессионную cookie.
// maxAge < 0 удаляет cookie.
func (h *APIHandler) setSessionCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// validatePassword проверяет политику пароля: минимум 8 символов,
// хотя бы одна буква и одна цифра. Возвращает сообщение об ошибке
// или пустую строку.
func validatePassword(password string) string {
	if len(password) < minPasswordLength {
		return "Пароль должен содержать не менее 8 символов"
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return "Пароль должен содержать хотя бы одну букву и одну цифру"
	}
	return ""
}
