package models

// User представляет пользователя, каким его возвращает backend
// (профиль текущего пользователя или элемент списка в админке).
type User struct {
	ID    uint64   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}
