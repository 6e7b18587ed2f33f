// token.go — выпуск и проверка bearer-токенов (JWT HS256).
// Токены самоподписанные: секрет задаётся конфигурацией при старте
// и неизменен в течение жизни процесса.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken — токен просрочен, повреждён или подписан другим секретом.
var ErrInvalidToken = errors.New("невалидный или просроченный токен")

// Claims — полезная нагрузка токена Catalog Module.
type Claims struct {
	jwt.RegisteredClaims
	// Email — адрес электронной почты пользователя.
	Email string `json:"email"`
	// IsArtist — является ли пользователь исполнителем.
	IsArtist bool `json:"isArtist"`
}

// TokenIssuer выпускает и проверяет токены на общем секрете.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer создаёт TokenIssuer.
// secret — общий секрет HS256, ttl — время жизни токена.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue выпускает подписанный токен с sub, email и флагом исполнителя.
func (i *TokenIssuer) Issue(userID, email string, isArtist bool) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Email:    email,
		IsArtist: isArtist,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи токена: %w", err)
	}
	return signed, nil
}

// Verify проверяет подпись и срок действия токена.
// Любая причина отказа (подпись, срок, формат) — ErrInvalidToken.
func (i *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
