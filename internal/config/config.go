package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config хранит конфигурацию веб-клиента.
type Config struct {
	Env        string `env:"ENV" env-default:"development"`
	ServerPort string `env:"SERVER_PORT" env-default:"8090"`

	Log       LogConfig
	API       APIConfig
	Session   SessionConfig
	RateLimit RateLimitConfig

	TemplateDir string `env:"TEMPLATE_DIR" env-default:"./web/templates"`
	// Список разрешенных origin'ов через запятую; пусто — CORS middleware не включается
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS"`
}

type LogConfig struct {
	Level    string `env:"LOG_LEVEL" env-default:"info"`
	Encoding string `env:"LOG_ENCODING" env-default:"json"`
}

// APIConfig описывает внешнего коллаборатора — backend управления пользователями.
// Контракт закреплен на абсолютном базовом URL (см. DESIGN.md про варианты /api).
type APIConfig struct {
	BaseURL string        `env:"API_BASE_URL" env-default:"http://localhost:8080/api"`
	Timeout time.Duration `env:"API_TIMEOUT" env-default:"15s"`
}

// SessionConfig описывает cookie, в которой живет сериализованный принципал.
type SessionConfig struct {
	CookieName   string        `env:"SESSION_COOKIE_NAME" env-default:"user"`
	CookieMaxAge time.Duration `env:"SESSION_COOKIE_MAX_AGE" env-default:"24h"`
	CookieSecure bool          `env:"SESSION_COOKIE_SECURE" env-default:"false"`
}

// RateLimitConfig — ограничение частоты для форм входа/регистрации.
type RateLimitConfig struct {
	Rate  time.Duration `env:"RATE_LIMIT_WINDOW" env-default:"1m"`
	Limit uint          `env:"RATE_LIMIT_MAX" env-default:"10"`
}

// LoadConfig загружает конфигурацию из .env файла и переменных окружения.
func LoadConfig() (*Config, error) {
	// .env опционален: в production переменные приходят из окружения
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	return &cfg, nil
}

// GetAllowedOrigins возвращает разобранный список origin'ов для CORS.
func (c *Config) GetAllowedOrigins() []string {
	if strings.TrimSpace(c.CORSAllowedOrigins) == "" {
		return nil
	}
	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
