package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"user-hub/internal/models"
)

// apiClient реализует UserHubAPI (интерфейс определен в api.go).
type apiClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewUserHubClient создает новый HTTP-клиент для backend'а управления пользователями.
func NewUserHubClient(baseURL string, timeout time.Duration, logger *zap.Logger) (UserHubAPI, error) {
	// Проверяем baseURL
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL for user backend: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &apiClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout, // Таймаут на весь запрос
		},
		logger: logger.Named("UserHubClient"),
	}, nil
}

// signInRequest - внутренняя структура для тела запроса /auth/signin.
// Контракт закреплен: поле называется `name`, не `username`.
type signInRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// messageResponse - стандартное тело ошибки backend'а: {"message": "..."}.
type messageResponse struct {
	Message string `json:"message"`
}

// SignIn отправляет запрос на вход и возвращает принципала с токеном.
func (c *apiClient) SignIn(ctx context.Context, name, password string) (*models.Principal, error) {
	log := c.logger.With(zap.String("name", name))

	body, status, err := c.do(ctx, http.MethodPost, "/auth/signin", "", signInRequest{Name: name, Password: password})
	if err != nil {
		log.Error("Sign-in request failed", zap.Error(err))
		return nil, err
	}

	if status != http.StatusOK {
		log.Warn("Sign-in rejected by backend", zap.Int("status", status), zap.ByteString("body", body))
		if status == http.StatusUnauthorized || status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", models.ErrInvalidCredentials, errorMessage(body))
		}
		return nil, c.statusError(status, body)
	}

	var principal models.Principal
	if err := json.Unmarshal(body, &principal); err != nil {
		log.Error("Failed to unmarshal sign-in response", zap.ByteString("body", body), zap.Error(err))
		return nil, fmt.Errorf("invalid sign-in response format: %w", err)
	}
	if principal.Token == "" {
		log.Error("Sign-in response is missing a token", zap.ByteString("body", body))
		return nil, fmt.Errorf("%w: sign-in response has no token", models.ErrInternalServer)
	}

	log.Info("Sign-in successful", zap.Uint64("userID", principal.ID), zap.Strings("roles", principal.Roles))
	return &principal, nil
}

// SignUp отправляет запрос на регистрацию. Возвращает сообщение backend'а об успехе.
func (c *apiClient) SignUp(ctx context.Context, payload SignUpPayload) (string, error) {
	log := c.logger.With(zap.String("name", payload.Name))

	body, status, err := c.do(ctx, http.MethodPost, "/auth/signup", "", payload)
	if err != nil {
		log.Error("Sign-up request failed", zap.Error(err))
		return "", err
	}

	if status != http.StatusOK && status != http.StatusCreated {
		log.Warn("Sign-up rejected by backend", zap.Int("status", status), zap.ByteString("body", body))
		if status == http.StatusBadRequest || status == http.StatusConflict {
			return "", fmt.Errorf("%w: %s", models.ErrInvalidInput, errorMessage(body))
		}
		return "", c.statusError(status, body)
	}

	var resp messageResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.Message == "" {
		// Некоторые версии backend'а возвращают созданного пользователя вместо сообщения
		resp.Message = "User registered successfully"
	}
	log.Info("Sign-up successful")
	return resp.Message, nil
}

// Me запрашивает профиль владельца токена.
func (c *apiClient) Me(ctx context.Context, token string) (*models.User, error) {
	body, status, err := c.do(ctx, http.MethodGet, "/users/me", token, nil)
	if err != nil {
		c.logger.Error("Profile request failed", zap.Error(err))
		return nil, err
	}
	if status != http.StatusOK {
		c.logger.Warn("Profile request rejected", zap.Int("status", status), zap.ByteString("body", body))
		return nil, c.statusError(status, body)
	}

	var user models.User
	if err := json.Unmarshal(body, &user); err != nil {
		c.logger.Error("Failed to unmarshal profile response", zap.ByteString("body", body), zap.Error(err))
		return nil, fmt.Errorf("invalid profile response format: %w", err)
	}
	return &user, nil
}

// ListUsers запрашивает список всех пользователей (только для администратора).
func (c *apiClient) ListUsers(ctx context.Context, token string) ([]models.User, error) {
	body, status, err := c.do(ctx, http.MethodGet, "/users/all", token, nil)
	if err != nil {
		c.logger.Error("User list request failed", zap.Error(err))
		return nil, err
	}
	if status != http.StatusOK {
		c.logger.Warn("User list request rejected", zap.Int("status", status), zap.ByteString("body", body))
		return nil, c.statusError(status, body)
	}

	var users []models.User
	if err := json.Unmarshal(body, &users); err != nil {
		c.logger.Error("Failed to unmarshal user list response", zap.ByteString("body", body), zap.Error(err))
		return nil, fmt.Errorf("invalid user list response format: %w", err)
	}
	c.logger.Debug("User list retrieved", zap.Int("userCount", len(users)))
	return users, nil
}

// GetUser запрашивает одного пользователя по идентификатору.
func (c *apiClient) GetUser(ctx context.Context, token string, userID uint64) (*models.User, error) {
	log := c.logger.With(zap.Uint64("userID", userID))

	body, status, err := c.do(ctx, http.MethodGet, "/users/"+strconv.FormatUint(userID, 10), token, nil)
	if err != nil {
		log.Error("User request failed", zap.Error(err))
		return nil, err
	}
	if status != http.StatusOK {
		log.Warn("User request rejected", zap.Int("status", status), zap.ByteString("body", body))
		return nil, c.statusError(status, body)
	}

	var user models.User
	if err := json.Unmarshal(body, &user); err != nil {
		log.Error("Failed to unmarshal user response", zap.ByteString("body", body), zap.Error(err))
		return nil, fmt.Errorf("invalid user response format: %w", err)
	}
	return &user, nil
}

// UpdateUser отправляет PUT с изменяемыми полями пользователя.
func (c *apiClient) UpdateUser(ctx context.Context, token string, userID uint64, payload UserUpdatePayload) error {
	log := c.logger.With(zap.Uint64("userID", userID))

	body, status, err := c.do(ctx, http.MethodPut, "/users/"+strconv.FormatUint(userID, 10), token, payload)
	if err != nil {
		log.Error("User update request failed", zap.Error(err))
		return err
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		log.Warn("User update rejected", zap.Int("status", status), zap.ByteString("body", body))
		return c.statusError(status, body)
	}
	log.Info("User updated via backend")
	return nil
}

// DeleteUser удаляет пользователя по идентификатору.
func (c *apiClient) DeleteUser(ctx context.Context, token string, userID uint64) error {
	log := c.logger.With(zap.Uint64("userID", userID))

	body, status, err := c.do(ctx, http.MethodDelete, "/users/"+strconv.FormatUint(userID, 10), token, nil)
	if err != nil {
		log.Error("User delete request failed", zap.Error(err))
		return err
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		log.Warn("User delete rejected", zap.Int("status", status), zap.ByteString("body", body))
		return c.statusError(status, body)
	}
	log.Info("User deleted via backend")
	return nil
}

// do выполняет один HTTP-запрос к backend'у и возвращает тело и статус ответа.
// Токен подставляется в Authorization: Bearer при каждом вызове, если он непустой.
func (c *apiClient) do(ctx context.Context, method, path, token string, payload interface{}) ([]byte, int, error) {
	fullURL := c.baseURL + path

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("internal error marshalling request: %w", err)
		}
		reqBody = bytes.NewBuffer(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("internal error creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("Sending request to user backend", zap.String("method", method), zap.String("url", fullURL))
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Проверяем ошибки контекста (например, таймаут)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, 0, fmt.Errorf("request to user backend timed out: %w", err)
		}
		return nil, 0, fmt.Errorf("failed to communicate with user backend: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, httpResp.StatusCode, fmt.Errorf("failed to read backend response: %w", err)
	}
	return respBody, httpResp.StatusCode, nil
}

// statusError сопоставляет не-OK статус backend'а с сентинельными ошибками.
// 401/403 обязаны быть различимы через errors.Is — по ним session store
// принимает решение о сносе локальной сессии.
func (c *apiClient) statusError(status int, body []byte) error {
	msg := errorMessage(body)
	switch status {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", models.ErrUnauthorized, msg)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", models.ErrForbidden, msg)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", models.ErrUserNotFound, msg)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", models.ErrBadRequest, msg)
	default:
		return fmt.Errorf("%w: unexpected status %d from user backend: %s", models.ErrInternalServer, status, msg)
	}
}

// errorMessage извлекает человекочитаемое сообщение из тела ошибки backend'а.
func errorMessage(body []byte) string {
	var resp messageResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Message != "" {
		return resp.Message
	}
	if len(body) == 0 {
		return "no error details"
	}
	return string(body)
}
