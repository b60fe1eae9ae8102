package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"user-hub/internal/session"
)

// sessionStoreKey — ключ, под которым Store лежит в контексте Gin.
// Потребители объявляют зависимость через sessionStore(c), а не тянутся
// к глобальному изменяемому состоянию.
const sessionStoreKey = "userhub.sessionStore"

// cookieStorage привязывает долговременный слот сессии к cookie запроса/ответа.
// Gin сам URL-кодирует значение, поэтому сериализованный JSON принципала
// хранится в cookie как есть.
type cookieStorage struct {
	c      *gin.Context
	name   string
	maxAge int
	secure bool
}

func (s *cookieStorage) Read() (string, bool) {
	value, err := s.c.Cookie(s.name)
	if err != nil || value == "" {
		return "", false
	}
	return value, true
}

func (s *cookieStorage) Write(value string) {
	s.c.SetCookie(s.name, value, s.maxAge, "/", "", s.secure, true)
}

func (s *cookieStorage) Clear() {
	s.c.SetCookie(s.name, "", -1, "/", "", s.secure, true)
}

// sessionMiddleware восстанавливает сессию из cookie ДО любых guard'ов и
// обработчиков: никакой защищенный контент не рендерится и никакой редирект
// не происходит, пока начальная загрузка сессии не завершена.
func (h *WebHandler) sessionMiddleware(c *gin.Context) {
	storage := &cookieStorage{
		c:      c,
		name:   h.cfg.Session.CookieName,
		maxAge: int(h.cfg.Session.CookieMaxAge.Seconds()),
		secure: h.cfg.Session.CookieSecure,
	}
	store := session.NewStore(h.api, storage, h.logger)
	store.Init(c.Request.Context())

	c.Set(sessionStoreKey, store)
	c.Next()
}

// sessionStore извлекает Store текущего запроса. Возвращает nil, если
// sessionMiddleware не отработал (маршрут сконфигурирован мимо него).
func sessionStore(c *gin.Context) *session.Store {
	value, ok := c.Get(sessionStoreKey)
	if !ok {
		return nil
	}
	store, ok := value.(*session.Store)
	if !ok {
		return nil
	}
	return store
}

// redirect выполняет единственное терминальное действие guard'а — 303 See Other.
func redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
	c.Abort()
}
