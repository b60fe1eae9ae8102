package handler

import (
	"go.uber.org/zap"

	"user-hub/internal/client"
	"user-hub/internal/config"
)

// WebHandler обрабатывает HTTP-запросы веб-клиента user-hub.
type WebHandler struct {
	cfg    *config.Config
	logger *zap.Logger
	api    client.UserHubAPI
}

// NewWebHandler создает новый WebHandler.
func NewWebHandler(cfg *config.Config, logger *zap.Logger, api client.UserHubAPI) *WebHandler {
	return &WebHandler{
		cfg:    cfg,
		logger: logger.Named("WebHandler"),
		api:    api,
	}
}
