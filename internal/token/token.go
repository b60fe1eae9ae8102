// Package token декодирует payload JWT на стороне клиента.
//
// ВАЖНО: подпись токена здесь НЕ проверяется и не может быть проверена —
// секрет известен только серверу. Извлеченные клеймы пригодны только для
// отображения и для проверки срока действия перед обращением к серверу.
// Использовать их как границу авторизации нельзя.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"user-hub/internal/models"
)

// Payload — клеймы, которые мы ожидаем увидеть в токене backend'а.
// Обязателен только субъект и срок действия; roles — опциональный клейм.
type Payload struct {
	Roles                []string `json:"roles,omitempty"`
	jwt.RegisteredClaims          // Встраиваем стандартные поля: Subject, ExpiresAt, IssuedAt и т.д.
}

// Expired сообщает, истек ли срок действия токена на момент now.
// Отсутствующий клейм exp трактуем как «срок неизвестен» — такой токен
// не считается истекшим, решение остается за сервером.
func (p *Payload) Expired(now time.Time) bool {
	if p == nil || p.ExpiresAt == nil {
		return false
	}
	return p.ExpiresAt.Before(now)
}

// DecodePayload разбирает компактный JWT (header.payload.signature) и возвращает
// его payload БЕЗ проверки подписи. Валидация срока действия тоже не выполняется:
// вызывающая сторона проверяет Expired сама, поэтому истекший токен здесь
// декодируется успешно.
func DecodePayload(tokenString string) (*Payload, error) {
	payload := &Payload{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenString, payload); err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, fmt.Errorf("%w: %v", models.ErrTokenMalformed, err)
		}
		return nil, fmt.Errorf("%w: %v", models.ErrTokenInvalid, err)
	}
	return payload, nil
}
