package models

// Определяем константы для ролей
const (
	RoleAdmin = "ROLE_ADMIN"
	RoleUser  = "ROLE_USER"
	// Добавьте другие роли здесь, если нужно
)

// AllRoles возвращает слайс всех определенных ролей.
// Этот список используется для генерации мультиселекта на странице редактирования пользователя.
func AllRoles() []string {
	return []string{
		RoleAdmin,
		RoleUser,
	}
}

// HasRole проверяет, есть ли у пользователя указанная роль.
func HasRole(userRoles []string, targetRole string) bool {
	for _, role := range userRoles {
		if role == targetRole {
			return true
		}
	}
	return false
}
