// auth.go — JWT middleware для аутентификации Catalog Module.
// Токены выпускает и проверяет сам сервис (HS256, internal/auth):
// внешнего Identity Provider в контуре нет.
//
// Токен извлекается из носителей в порядке, заданном CM_TOKEN_LOOKUP:
//   - session — HTTP-only cookie (имя — CM_SESSION_COOKIE)
//   - bearer  — заголовок Authorization: Bearer <token>
//
// Берётся первый носитель, в котором токен присутствует; невалидный
// токен из первого носителя не маскируется валидным из второго.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/bigkaa/gosoundstore/catalog-module/internal/api/errors"
	"github.com/bigkaa/gosoundstore/catalog-module/internal/auth"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

// ContextKeyClaims — извлечённые claims в контексте запроса.
const ContextKeyClaims contextKey = "jwt_claims"

// Имена носителей токена в CM_TOKEN_LOOKUP.
const (
	LookupSession = "session"
	LookupBearer  = "bearer"
)

// JWTAuth — middleware аутентификации по самоподписанным JWT.
type JWTAuth struct {
	tokens      *auth.TokenIssuer
	lookupOrder []string
	cookieName  string
	logger      *slog.Logger
}

// NewJWTAuth создаёт JWT middleware.
// lookupOrder — порядок носителей токена (значения session, bearer).
// cookieName — имя сессионной cookie (CM_SESSION_COOKIE).
func NewJWTAuth(tokens *auth.TokenIssuer, lookupOrder []string, cookieName string, logger *slog.Logger) *JWTAuth {
	return &JWTAuth{
		tokens:      tokens,
		lookupOrder: lookupOrder,
		cookieName:  cookieName,
		logger:      logger.With(slog.String("component", "jwt_auth")),
	}
}

// extractToken возвращает токен из первого носителя, где он присутствует.
// Пустая строка — токен не найден ни в одном носителе.
func (j *JWTAuth) extractToken(r *http.Request) string {
	for _, carrier := range j.lookupOrder {
		switch carrier {
		case LookupSession:
			if cookie, err := r.Cookie(j.cookieName); err == nil && cookie.Value != "" {
				return cookie.Value
			}
		case LookupBearer:
			header := r.Header.Get("Authorization")
			if header == "" {
				continue
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && parts[1] != "" {
				return parts[1]
			}
		}
	}
	return ""
}

// Middleware возвращает HTTP middleware для JWT-аутентификации.
// Извлекает токен из сконфигурированных носителей, проверяет подпись
// и срок действия, помещает claims в контекст запроса.
func (j *JWTAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := j.extractToken(r)
			if tokenString == "" {
				apierrors.Unauthorized(w, "Требуется аутентификация: токен не найден")
				return
			}

			claims, err := j.tokens.Verify(tokenString)
			if err != nil {
				j.logger.Debug("JWT валидация не пройдена",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				apierrors.Unauthorized(w, "Невалидный или просроченный токен")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// --- Context helpers ---

// ClaimsFromContext извлекает claims из контекста запроса.
// Возвращает nil, если claims не найдены.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(ContextKeyClaims).(*auth.Claims)
	return claims
}

// SubjectFromContext извлекает sub (UUID пользователя) из контекста запроса.
// Возвращает пустую строку, если claims не найдены.
func SubjectFromContext(ctx context.Context) string {
	claims := ClaimsFromContext(ctx)
	if claims == nil {
		return ""
	}
	return claims.Subject
}
