package models

import "encoding/json"

// Principal представляет аутентифицированного пользователя вместе с его bearer-токеном.
// Именно эта структура сериализуется в долговременное хранилище сессии (cookie `user`)
// и восстанавливается при каждом запросе.
type Principal struct {
	ID    uint64   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
	Token string   `json:"token"`
}

// IsAdmin проверяет наличие административной роли у принципала.
func (p *Principal) IsAdmin() bool {
	if p == nil {
		return false
	}
	return HasRole(p.Roles, RoleAdmin)
}

// Marshal сериализует принципала в JSON для записи в хранилище сессии.
func (p *Principal) Marshal() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// UnmarshalPrincipal восстанавливает принципала из сериализованного JSON.
// Возвращает ошибку для поврежденных данных — вызывающая сторона обязана
// очистить слот хранилища, а не оставлять его в неопределенном состоянии.
func UnmarshalPrincipal(raw string) (*Principal, error) {
	var p Principal
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, err
	}
	return &p, nil
}
