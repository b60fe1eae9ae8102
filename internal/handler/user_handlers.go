package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"user-hub/internal/client"
	"user-hub/internal/models"
)

// listUsers рендерит таблицу всех пользователей (админ-панель).
func (h *WebHandler) listUsers(c *gin.Context) {
	store := sessionStore(c)
	log := h.logger.With(zap.Uint64("adminUserID", store.Principal().ID))
	log.Info("Admin requested user list")

	users, err := h.api.ListUsers(c.Request.Context(), store.Principal().Token)
	if err != nil {
		if h.teardownOnAuthFailure(c, err) {
			return
		}
		log.Error("Failed to get user list from backend", zap.Error(err))
		c.HTML(http.StatusOK, "users.html", gin.H{
			"PageTitle": "User Management",
			"Users":     []models.User{},
			"Error":     "Failed to load the user list",
		})
		return
	}

	data := gin.H{
		"PageTitle": "User Management",
		"Users":     users,
	}
	if c.Query("updated") != "" {
		data["Notice"] = "User updated"
	}
	if c.Query("deleted") != "" {
		data["Notice"] = "User deleted"
	}
	c.HTML(http.StatusOK, "users.html", data)
}

// showUserEditPage рендерит форму редактирования пользователя.
func (h *WebHandler) showUserEditPage(c *gin.Context) {
	store := sessionStore(c)
	userID, ok := h.parseUserID(c)
	if !ok {
		return
	}

	user, err := h.api.GetUser(c.Request.Context(), store.Principal().Token, userID)
	if err != nil {
		if h.teardownOnAuthFailure(c, err) {
			return
		}
		h.logger.Error("Failed to get user for editing", zap.Uint64("userID", userID), zap.Error(err))
		if errors.Is(err, models.ErrUserNotFound) {
			c.HTML(http.StatusNotFound, "404.html", gin.H{"PageTitle": "Not Found"})
			return
		}
		redirect(c, "/users")
		return
	}

	c.HTML(http.StatusOK, "user_edit.html", gin.H{
		"PageTitle": "Edit User",
		"User":      user,
		"AllRoles":  models.AllRoles(),
	})
}

// handleUserUpdate принимает форму редактирования и отправляет PUT backend'у.
func (h *WebHandler) handleUserUpdate(c *gin.Context) {
	store := sessionStore(c)
	userID, ok := h.parseUserID(c)
	if !ok {
		return
	}
	log := h.logger.With(zap.Uint64("adminUserID", store.Principal().ID), zap.Uint64("targetUserID", userID))

	name := strings.TrimSpace(c.PostForm("name"))
	email := strings.TrimSpace(c.PostForm("email"))
	roles := c.PostFormArray("roles")

	payload := client.UserUpdatePayload{Roles: roles}
	if name != "" {
		payload.Name = &name
	}
	if email != "" {
		payload.Email = &email
	}

	if err := h.api.UpdateUser(c.Request.Context(), store.Principal().Token, userID, payload); err != nil {
		if h.teardownOnAuthFailure(c, err) {
			return
		}
		log.Error("Failed to update user via backend", zap.Error(err))
		c.HTML(http.StatusOK, "user_edit.html", gin.H{
			"PageTitle": "Edit User",
			"User":      &models.User{ID: userID, Name: name, Email: email, Roles: roles},
			"AllRoles":  models.AllRoles(),
			"Error":     "Failed to update the user",
		})
		return
	}

	userUpdatesTotal.Inc()
	log.Info("User updated by admin")
	redirect(c, "/users?updated=1")
}

// handleUserDelete удаляет пользователя и возвращает на список.
func (h *WebHandler) handleUserDelete(c *gin.Context) {
	store := sessionStore(c)
	userID, ok := h.parseUserID(c)
	if !ok {
		return
	}
	log := h.logger.With(zap.Uint64("adminUserID", store.Principal().ID), zap.Uint64("targetUserID", userID))

	if err := h.api.DeleteUser(c.Request.Context(), store.Principal().Token, userID); err != nil {
		if h.teardownOnAuthFailure(c, err) {
			return
		}
		log.Error("Failed to delete user via backend", zap.Error(err))
		redirect(c, "/users")
		return
	}

	userDeletesTotal.Inc()
	log.Info("User deleted by admin")
	redirect(c, "/users?deleted=1")
}

// parseUserID разбирает числовой идентификатор пользователя из пути.
func (h *WebHandler) parseUserID(c *gin.Context) (uint64, bool) {
	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		h.logger.Warn("Invalid user ID in path", zap.String("raw", c.Param("user_id")))
		c.HTML(http.StatusNotFound, "404.html", gin.H{"PageTitle": "Not Found"})
		c.Abort()
		return 0, false
	}
	return userID, true
}

// teardownOnAuthFailure сносит сессию и уводит на вход, если backend отверг
// токен (истек или недействителен). Политика сноса живет в session store,
// здесь только реакция на сигнал 401/403 от клиента.
func (h *WebHandler) teardownOnAuthFailure(c *gin.Context, err error) bool {
	if !errors.Is(err, models.ErrUnauthorized) && !errors.Is(err, models.ErrForbidden) {
		return false
	}
	store := sessionStore(c)
	h.logger.Info("Backend rejected token, logging out", zap.Error(err))
	store.Logout()
	redirect(c, "/login")
	return true
}
