package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"user-hub/internal/client"
	"user-hub/internal/models"
	"user-hub/internal/token"
)

// Сообщения, которые видит пользователь. Закреплены контрактом UI.
const (
	MsgLoginFailed        = "Login failed"
	MsgRegistrationFailed = "An error occurred during registration"
	MsgPasswordsMismatch  = "Passwords don't match"
	MsgPasswordTooShort   = "Password must be at least 6 characters"
	MsgFieldsRequired     = "All fields are required"
)

// минимальная длина пароля, проверяется до обращения к сети
const minPasswordLength = 6

// Store — единственный источник истины о том, «кто вошел в систему».
// Состояние меняется только дискретными, последовательными действиями
// (Init, Login, Logout, RefreshProfile); конкурентного доступа к одному
// Store нет по построению — он живет в пределах одной сессии.
type Store struct {
	api     client.UserHubAPI
	storage Storage
	logger  *zap.Logger

	principal           *models.Principal
	profile             *models.User
	errMsg              string
	loading             bool
	initialLoadComplete bool
}

// NewStore создает Store поверх долговременного слота и клиента backend'а.
func NewStore(api client.UserHubAPI, storage Storage, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		api:     api,
		storage: storage,
		logger:  logger.Named("SessionStore"),
	}
}

// Init восстанавливает сессию из долговременного слота.
//
// Последовательность закреплена: отсутствующий или поврежденный слот ⇒
// неаутентифицированное состояние (поврежденный дополнительно очищается);
// токен с истекшим сроком ⇒ немедленный снос сессии ДО того, как остальное
// приложение увидит аутентифицированное состояние; валидный токен ⇒
// оптимистично аутентифицированы, профиль запрашивается у backend'а:
// 401/403 сносит сессию, любая другая ошибка оставляет закэшированного
// принципала с пустым профилем. Только после всего этого выставляется
// признак завершения начальной загрузки.
func (s *Store) Init(ctx context.Context) {
	defer func() { s.initialLoadComplete = true }()

	raw, ok := s.storage.Read()
	if !ok || raw == "" {
		s.logger.Debug("No persisted session found")
		return
	}

	principal, err := models.UnmarshalPrincipal(raw)
	if err != nil {
		// Поврежденный JSON трактуем как отсутствие сессии и чистим слот,
		// чтобы не оставлять его в неоднозначном состоянии.
		s.logger.Warn("Persisted session is corrupt, clearing slot", zap.Error(err))
		s.storage.Clear()
		return
	}
	if principal.Token == "" {
		s.logger.Warn("Persisted session has no token, clearing slot")
		s.storage.Clear()
		return
	}

	payload, err := token.DecodePayload(principal.Token)
	if err != nil {
		s.logger.Warn("Persisted token is not decodable, clearing slot", zap.Error(err))
		s.storage.Clear()
		return
	}
	if payload.Expired(time.Now()) {
		s.logger.Info("Persisted token has expired, tearing down session",
			zap.Uint64("userID", principal.ID))
		s.storage.Clear()
		sessionTeardownsTotal.Inc()
		return
	}

	// Токен синтаксически валиден и не истек — оптимистично считаем
	// пользователя аутентифицированным и пробуем обновить профиль.
	s.principal = principal

	profile, err := s.api.Me(ctx, principal.Token)
	if err != nil {
		if isAuthFailure(err) {
			s.logger.Info("Backend rejected persisted token, tearing down session",
				zap.Uint64("userID", principal.ID), zap.Error(err))
			s.teardown()
			return
		}
		// Сеть или сервер недоступны: сохраняем локального принципала,
		// профиль остается пустым (деградированный режим).
		s.logger.Warn("Profile refresh failed, keeping cached principal", zap.Error(err))
		return
	}
	s.profile = profile
	s.logger.Debug("Session restored", zap.Uint64("userID", principal.ID), zap.Strings("roles", principal.Roles))
}

// Login выполняет вход и при успехе сохраняет принципала в памяти и в слоте.
// При ошибке состояние хранилища не меняется, а Error() возвращает
// человекочитаемое сообщение. Флаг загрузки снимается гарантированно.
func (s *Store) Login(ctx context.Context, name, password string) (*models.Principal, error) {
	s.loading = true
	defer func() { s.loading = false }()
	s.errMsg = ""

	principal, err := s.api.SignIn(ctx, name, password)
	if err != nil {
		s.errMsg = loginErrorMessage(err)
		s.logger.Warn("Login failed", zap.String("name", name), zap.Error(err))
		return nil, err
	}

	serialized, err := principal.Marshal()
	if err != nil {
		s.errMsg = MsgLoginFailed
		s.logger.Error("Failed to serialize principal", zap.Error(err))
		return nil, fmt.Errorf("failed to serialize principal: %w", err)
	}

	s.principal = principal
	s.storage.Write(serialized)

	// Профиль подтягиваем с best-effort семантикой: неудача не отменяет вход.
	if profile, profileErr := s.api.Me(ctx, principal.Token); profileErr == nil {
		s.profile = profile
	} else {
		s.logger.Warn("Profile fetch after login failed", zap.Error(profileErr))
	}

	s.logger.Info("Login successful", zap.Uint64("userID", principal.ID), zap.Strings("roles", principal.Roles))
	return principal, nil
}

// RegisterInput — данные формы регистрации до валидации.
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// Register валидирует данные формы и передает их backend'у.
// Ошибки валидации обнаруживаются ДО какого-либо сетевого вызова.
// Успешная регистрация не изменяет сессию: вход остается отдельным шагом.
func (s *Store) Register(ctx context.Context, input RegisterInput) (string, error) {
	s.loading = true
	defer func() { s.loading = false }()
	s.errMsg = ""

	if err := validateRegistration(input); err != nil {
		s.errMsg = err.Error()
		return "", err
	}

	message, err := s.api.SignUp(ctx, client.SignUpPayload{
		Name:     strings.TrimSpace(input.Name),
		Email:    strings.TrimSpace(input.Email),
		Password: input.Password,
	})
	if err != nil {
		s.errMsg = registrationErrorMessage(err)
		s.logger.Warn("Registration failed", zap.String("name", input.Name), zap.Error(err))
		return "", err
	}

	s.logger.Info("Registration successful", zap.String("name", input.Name))
	return message, nil
}

// Logout синхронно очищает слот и состояние в памяти.
// Идемпотентен: повторный вызов для разлогиненной сессии безопасен.
func (s *Store) Logout() {
	s.storage.Clear()
	s.principal = nil
	s.profile = nil
	s.errMsg = ""
}

// RefreshProfile повторно запрашивает профиль текущего принципала.
// 401/403 от backend'а означает недействительный токен — сессия сносится.
// Без принципала возвращает (nil, nil).
func (s *Store) RefreshProfile(ctx context.Context) (*models.User, error) {
	if s.principal == nil {
		return nil, nil
	}

	profile, err := s.api.Me(ctx, s.principal.Token)
	if err != nil {
		if isAuthFailure(err) {
			s.logger.Info("Backend rejected token during profile refresh, logging out",
				zap.Uint64("userID", s.principal.ID), zap.Error(err))
			s.teardown()
			return nil, err
		}
		s.logger.Warn("Profile refresh failed", zap.Error(err))
		return nil, err
	}
	s.profile = profile
	return profile, nil
}

// IsAuthenticated — принципал присутствует.
func (s *Store) IsAuthenticated() bool { return s.principal != nil }

// IsAdmin — роли принципала содержат административный тег.
func (s *Store) IsAdmin() bool { return s.principal.IsAdmin() }

// HasRole проверяет наличие конкретной роли у текущего принципала.
func (s *Store) HasRole(role string) bool {
	if s.principal == nil {
		return false
	}
	return models.HasRole(s.principal.Roles, role)
}

// Principal возвращает текущего принципала (nil, если не аутентифицирован).
func (s *Store) Principal() *models.Principal { return s.principal }

// Profile возвращает последний полученный профиль (может быть nil при
// деградированном режиме, когда backend недоступен).
func (s *Store) Profile() *models.User { return s.profile }

// Error возвращает последнее человекочитаемое сообщение об ошибке.
func (s *Store) Error() string { return s.errMsg }

// Loading — выполняется ли сейчас операция входа/регистрации.
func (s *Store) Loading() bool { return s.loading }

// InitialLoadComplete — завершилось ли восстановление сессии.
// Зависимые компоненты (route guard) не должны ни рендерить защищенное
// содержимое, ни редиректить до этого сигнала.
func (s *Store) InitialLoadComplete() bool { return s.initialLoadComplete }

// teardown сносит локальную сессию после обнаружения недействительного токена.
func (s *Store) teardown() {
	s.storage.Clear()
	s.principal = nil
	s.profile = nil
	sessionTeardownsTotal.Inc()
}

// validateRegistration выполняет клиентскую валидацию формы регистрации.
func validateRegistration(input RegisterInput) error {
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return errors.New(MsgFieldsRequired)
	}
	if input.Password != input.ConfirmPassword {
		return errors.New(MsgPasswordsMismatch)
	}
	if len(input.Password) < minPasswordLength {
		return errors.New(MsgPasswordTooShort)
	}
	return nil
}

// isAuthFailure — признак того, что backend отверг токен (401/403).
func isAuthFailure(err error) bool {
	return errors.Is(err, models.ErrUnauthorized) || errors.Is(err, models.ErrForbidden)
}

// loginErrorMessage переводит ошибку входа в сообщение для пользователя.
func loginErrorMessage(err error) string {
	if errors.Is(err, models.ErrInvalidCredentials) {
		return models.ErrInvalidCredentials.Error()
	}
	return MsgLoginFailed
}

// registrationErrorMessage переводит ошибку регистрации в сообщение для пользователя.
func registrationErrorMessage(err error) string {
	if errors.Is(err, models.ErrInvalidInput) {
		// Сообщение backend'а уже человекочитаемое (например, «Email is already in use»)
		if msg := strings.TrimPrefix(err.Error(), models.ErrInvalidInput.Error()+": "); msg != "" && msg != err.Error() {
			return msg
		}
	}
	return MsgRegistrationFailed
}
