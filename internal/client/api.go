package client

import (
	"context"

	"user-hub/internal/models"
)

// UserHubAPI — контракт backend'а управления пользователями.
// Все аутентифицированные методы принимают bearer-токен явно: токен читается
// из текущего принципала в момент вызова, а не фиксируется при создании клиента,
// поэтому login/logout отражаются на следующем же запросе.
type UserHubAPI interface {
	// SignIn выполняет вход и возвращает принципала вместе с выданным токеном.
	SignIn(ctx context.Context, name, password string) (*models.Principal, error)
	// SignUp регистрирует нового пользователя. Успешная регистрация НЕ означает вход.
	SignUp(ctx context.Context, payload SignUpPayload) (string, error)
	// Me возвращает профиль владельца токена.
	Me(ctx context.Context, token string) (*models.User, error)
	// ListUsers возвращает всех пользователей. Требует роль администратора.
	ListUsers(ctx context.Context, token string) ([]models.User, error)
	// GetUser возвращает пользователя по идентификатору.
	GetUser(ctx context.Context, token string, userID uint64) (*models.User, error)
	// UpdateUser обновляет пользователя по идентификатору. Требует роль администратора.
	UpdateUser(ctx context.Context, token string, userID uint64, payload UserUpdatePayload) error
	// DeleteUser удаляет пользователя по идентификатору. Требует роль администратора.
	DeleteUser(ctx context.Context, token string, userID uint64) error
}

// SignUpPayload определяет тело запроса регистрации.
type SignUpPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserUpdatePayload определяет структуру данных для запроса на обновление пользователя.
// Используем указатели, чтобы можно было передать только изменяемые поля.
type UserUpdatePayload struct {
	Name  *string  `json:"name,omitempty"`
	Email *string  `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"` // Передаем весь слайс, если роли меняются
}
