package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// accessLevel — требование доступа маршрута.
type accessLevel int

const (
	accessPublic accessLevel = iota
	accessAuthenticated
	accessAdmin
)

// requireAccess — route guard. Вычисляется заново на каждой навигации и
// завершается ровно одним терминальным действием: рендером или редиректом.
//
// Дерево решений:
//  1. восстановление сессии не завершено — нейтральная страница загрузки,
//     БЕЗ редиректа (иначе пользователя выбросит на /login до того, как
//     сессия успеет восстановиться);
//  2. маршрут требует аутентификации, а её нет — редирект на /login с
//     запоминанием исходного пути;
//  3. маршрут требует администратора, а роли нет — редирект на /profile;
//  4. иначе — рендер запрошенного представления.
func (h *WebHandler) requireAccess(level accessLevel) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := sessionStore(c)

		if store == nil || !store.InitialLoadComplete() {
			h.logger.Debug("Session restore not complete, rendering loading state",
				zap.String("path", c.Request.URL.Path))
			c.HTML(http.StatusOK, "loading.html", gin.H{"PageTitle": "Loading"})
			c.Abort()
			return
		}

		if level >= accessAuthenticated && !store.IsAuthenticated() {
			from := c.Request.URL.Path
			h.logger.Debug("Unauthenticated access to protected route, redirecting to login",
				zap.String("path", from))
			redirect(c, "/login?from="+url.QueryEscape(from))
			return
		}

		if level >= accessAdmin && !store.IsAdmin() {
			h.logger.Warn("Non-admin user tried to access admin route",
				zap.String("path", c.Request.URL.Path),
				zap.Uint64("userID", store.Principal().ID))
			redirect(c, "/profile")
			return
		}

		c.Next()
	}
}

// safeReturnPath валидирует запомненный путь возврата после входа.
// Разрешаем только локальные абсолютные пути, чтобы не стать open redirect'ом.
func safeReturnPath(from string) string {
	if from == "" || from[0] != '/' {
		return "/profile"
	}
	if len(from) > 1 && from[1] == '/' {
		return "/profile"
	}
	return from
}
