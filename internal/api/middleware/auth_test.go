package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bigkaa/gosoundstore/catalog-module/internal/auth"
)

const testCookieName = "session"

// newTestAuth создаёт issuer и middleware с указанным порядком носителей.
func newTestAuth(t *testing.T, ttl time.Duration, lookupOrder ...string) (*auth.TokenIssuer, *JWTAuth) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := auth.NewTokenIssuer("test-secret", ttl)
	return tokens, NewJWTAuth(tokens, lookupOrder, testCookieName, logger)
}

// echoSubject — handler, отвечающий sub из контекста.
func echoSubject() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(SubjectFromContext(r.Context())))
	})
}

func TestJWTAuth_BearerToken(t *testing.T) {
	tokens, jwtAuth := newTestAuth(t, time.Hour, LookupSession, LookupBearer)

	token, err := tokens.Issue("user-1", "u@example.com", false)
	if err != nil {
		t.Fatalf("Issue() ошибка: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tracks/my", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	jwtAuth.Middleware()(echoSubject()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, ожидается 200; body: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "user-1" {
		t.Errorf("sub = %q, ожидается user-1", rec.Body.String())
	}
}

func TestJWTAuth_SessionCookie(t *testing.T) {
	tokens, jwtAuth := newTestAuth(t, time.Hour, LookupSession, LookupBearer)

	token, err := tokens.Issue("user-2", "u2@example.com", true)
	if err != nil {
		t.Fatalf("Issue() ошибка: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tracks/my", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: token})
	rec := httptest.NewRecorder()

	jwtAuth.Middleware()(echoSubject()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, ожидается 200", rec.Code)
	}
	if rec.Body.String() != "user-2" {
		t.Errorf("sub = %q, ожидается user-2", rec.Body.String())
	}
}

// TestJWTAuth_CarrierOrder — при наличии токена в обоих носителях
// берётся первый в сконфигурированном порядке; невалидный токен
// из первого носителя не маскируется валидным из второго.
func TestJWTAuth_CarrierOrder(t *testing.T) {
	tokens, jwtAuth := newTestAuth(t, time.Hour, LookupSession, LookupBearer)

	cookieToken, err := tokens.Issue("from-cookie", "c@example.com", false)
	if err != nil {
		t.Fatalf("Issue() ошибка: %v", err)
	}
	bearerToken, err := tokens.Issue("from-bearer", "b@example.com", false)
	if err != nil {
		t.Fatalf("Issue() ошибка: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: cookieToken})
	req.Header.Set("Authorization", "Bearer "+bearerToken)
	rec := httptest.NewRecorder()

	jwtAuth.Middleware()(echoSubject()).ServeHTTP(rec, req)

	if rec.Body.String() != "from-cookie" {
		t.Errorf("sub = %q, ожидается from-cookie (session первым в порядке)", rec.Body.String())
	}

	// Невалидная cookie при валидном bearer — отказ, без fallback
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: "мусор"})
	req.Header.Set("Authorization", "Bearer "+bearerToken)
	rec = httptest.NewRecorder()

	jwtAuth.Middleware()(echoSubject()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, ожидается 401", rec.Code)
	}
}

func TestJWTAuth_BearerOnly(t *testing.T) {
	tokens, jwtAuth := newTestAuth(t, time.Hour, LookupBearer)

	cookieToken, err := tokens.Issue("from-cookie", "c@example.com", false)
	if err != nil {
		t.Fatalf("Issue() ошибка: %v", err)
	}

	// Cookie игнорируется, если session не в порядке носителей
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: cookieToken})
	rec := httptest.NewRecorder()

	jwtAuth.Middleware()(echoSubject()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, ожидается 401", rec.Code)
	}
}

func TestJWTAuth_Rejects(t *testing.T) {
	_, jwtAuth := newTestAuth(t, time.Hour, LookupSession, LookupBearer)
	expiredTokens := auth.NewTokenIssuer("test-secret", -time.Minute)

	expired, err := expiredTokens.Issue("user-3", "u3@example.com", false)
	if err != nil {
		t.Fatalf("Issue() ошибка: %v", err)
	}

	cases := []struct {
		name  string
		setup func(r *http.Request)
	}{
		{"без токена", func(_ *http.Request) {}},
		{"просроченный токен", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+expired)
		}},
		{"мусор вместо токена", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer not-a-jwt")
		}},
		{"неверная схема", func(r *http.Request) {
			r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tc.setup(req)
			rec := httptest.NewRecorder()

			jwtAuth.Middleware()(echoSubject()).ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, ожидается 401", rec.Code)
			}
		})
	}
}
