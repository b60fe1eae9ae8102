package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует маршруты веб-клиента.
// Каждый маршрут проходит через восстановление сессии, а затем через
// route guard с требованием доступа этого маршрута.
func (h *WebHandler) RegisterRoutes(router *gin.Engine, rateLimit gin.HandlerFunc) {
	router.Use(h.sessionMiddleware)

	// Публичные маршруты
	public := router.Group("", h.requireAccess(accessPublic))
	public.GET("/", func(c *gin.Context) {
		redirect(c, "/profile")
	})
	public.GET("/login", h.showLoginPage)
	public.GET("/register", h.showRegisterPage)
	public.GET("/logout", h.handleLogout)
	if rateLimit != nil {
		public.POST("/login", rateLimit, h.handleLogin)
		public.POST("/register", rateLimit, h.handleRegister)
	} else {
		public.POST("/login", h.handleLogin)
		public.POST("/register", h.handleRegister)
	}

	// Маршруты, требующие аутентификации
	authenticated := router.Group("", h.requireAccess(accessAuthenticated))
	authenticated.GET("/profile", h.showProfilePage)

	// Админ-панель
	admin := router.Group("", h.requireAccess(accessAdmin))
	admin.GET("/users", h.listUsers)
	admin.GET("/users/:user_id/edit", h.showUserEditPage)
	admin.POST("/users/:user_id", h.handleUserUpdate)
	admin.POST("/users/:user_id/delete", h.handleUserDelete)

	router.NoRoute(func(c *gin.Context) {
		c.HTML(http.StatusNotFound, "404.html", gin.H{"PageTitle": "Not Found"})
	})
}
