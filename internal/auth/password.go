// Пакет auth — криптографические примитивы Catalog Module:
// bcrypt-хэширование паролей и выпуск/проверка JWT (HS256).
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost — стоимость bcrypt.
const bcryptCost = 10

// HashPassword возвращает bcrypt-хэш пароля.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("ошибка хэширования пароля: %w", err)
	}
	return string(hash), nil
}

// CheckPassword сравнивает пароль с хэшем.
// Возвращает true при совпадении.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
