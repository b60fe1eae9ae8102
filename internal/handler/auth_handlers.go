package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-hub/internal/session"
)

// showLoginPage рендерит форму входа. Уже аутентифицированного пользователя
// сразу уводим на профиль.
func (h *WebHandler) showLoginPage(c *gin.Context) {
	store := sessionStore(c)
	if store != nil && store.IsAuthenticated() {
		redirect(c, "/profile")
		return
	}

	data := gin.H{
		"PageTitle": "Sign In",
		"From":      c.Query("from"),
	}
	if c.Query("registered") != "" {
		data["Notice"] = "Registration successful. Please log in."
	}
	c.HTML(http.StatusOK, "login.html", data)
}

// handleLogin обрабатывает отправку формы входа.
func (h *WebHandler) handleLogin(c *gin.Context) {
	store := sessionStore(c)
	if store == nil {
		c.String(http.StatusInternalServerError, "session is not initialized")
		return
	}

	name := strings.TrimSpace(c.PostForm("name"))
	password := c.PostForm("password")
	from := c.PostForm("from")

	if name == "" || password == "" {
		c.HTML(http.StatusOK, "login.html", gin.H{
			"PageTitle": "Sign In",
			"Name":      name,
			"From":      from,
			"Error":     session.MsgFieldsRequired,
		})
		return
	}

	h.logger.Info("Login attempt", zap.String("name", name))
	if _, err := store.Login(c.Request.Context(), name, password); err != nil {
		loginFailuresTotal.Inc()
		c.HTML(http.StatusOK, "login.html", gin.H{
			"PageTitle": "Sign In",
			"Name":      name,
			"From":      from,
			"Error":     store.Error(),
		})
		return
	}

	loginSuccessesTotal.Inc()
	redirect(c, safeReturnPath(from))
}

// showRegisterPage рендерит форму регистрации.
func (h *WebHandler) showRegisterPage(c *gin.Context) {
	store := sessionStore(c)
	if store != nil && store.IsAuthenticated() {
		redirect(c, "/profile")
		return
	}
	c.HTML(http.StatusOK, "register.html", gin.H{"PageTitle": "Sign Up"})
}

// handleRegister обрабатывает отправку формы регистрации.
// Валидация (совпадение паролей и т.п.) выполняется в session store
// до какого-либо сетевого вызова; регистрация не означает вход.
func (h *WebHandler) handleRegister(c *gin.Context) {
	store := sessionStore(c)
	if store == nil {
		c.String(http.StatusInternalServerError, "session is not initialized")
		return
	}

	input := session.RegisterInput{
		Name:            c.PostForm("name"),
		Email:           c.PostForm("email"),
		Password:        c.PostForm("password"),
		ConfirmPassword: c.PostForm("confirmPassword"),
	}

	h.logger.Info("Registration attempt", zap.String("name", input.Name))
	if _, err := store.Register(c.Request.Context(), input); err != nil {
		c.HTML(http.StatusOK, "register.html", gin.H{
			"PageTitle": "Sign Up",
			"Name":      input.Name,
			"Email":     input.Email,
			"Error":     store.Error(),
		})
		return
	}

	registrationsTotal.Inc()
	redirect(c, "/login?registered=1")
}

// handleLogout сносит сессию и уводит на страницу входа.
// Идемпотентен: выход из уже разлогиненной сессии безопасен.
func (h *WebHandler) handleLogout(c *gin.Context) {
	store := sessionStore(c)
	if store != nil {
		store.Logout()
	}
	h.logger.Info("User logged out")
	redirect(c, "/login")
}
