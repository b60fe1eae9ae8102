package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-hub/internal/token"
)

// showProfilePage рендерит профиль текущего пользователя.
// Перед рендером профиль обновляется с backend'а; 401/403 означает, что
// токен больше не действителен — store уже снес сессию, уводим на вход.
func (h *WebHandler) showProfilePage(c *gin.Context) {
	store := sessionStore(c)

	profile, err := store.RefreshProfile(c.Request.Context())
	if err != nil && !store.IsAuthenticated() {
		// Сессия снесена внутри RefreshProfile
		redirect(c, "/login")
		return
	}

	principal := store.Principal()
	data := gin.H{
		"PageTitle": "Profile",
		"Principal": principal,
		"IsAdmin":   store.IsAdmin(),
	}

	if profile != nil {
		data["Profile"] = profile
	} else {
		// Деградированный режим: backend недоступен, показываем локальные данные
		data["Degraded"] = true
		h.logger.Warn("Rendering profile in degraded mode", zap.Error(err))
	}

	// Клеймы токена декодируются БЕЗ проверки подписи — только для отображения,
	// никаких решений о доступе на их основе не принимается.
	if payload, decodeErr := token.DecodePayload(principal.Token); decodeErr == nil && payload.ExpiresAt != nil {
		data["TokenExpiresAt"] = payload.ExpiresAt.Format(time.RFC1123)
	}

	c.HTML(http.StatusOK, "profile.html", data)
}
