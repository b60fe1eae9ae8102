package handler

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"user-hub/internal/client"
	"user-hub/internal/config"
	"user-hub/internal/models"
)

// fakeAPI — управляемая из теста реализация client.UserHubAPI.
type fakeAPI struct {
	signInFn    func(ctx context.Context, name, password string) (*models.Principal, error)
	meFn        func(ctx context.Context, token string) (*models.User, error)
	listFn      func(ctx context.Context, token string) ([]models.User, error)
	getFn       func(ctx context.Context, token string, userID uint64) (*models.User, error)
	updateFn    func(ctx context.Context, token string, userID uint64, payload client.UserUpdatePayload) error
	deleteFn    func(ctx context.Context, token string, userID uint64) error
	deleteCalls int
}

func (f *fakeAPI) SignIn(ctx context.Context, name, password string) (*models.Principal, error) {
	if f.signInFn == nil {
		return nil, models.ErrInvalidCredentials
	}
	return f.signInFn(ctx, name, password)
}

func (f *fakeAPI) SignUp(ctx context.Context, payload client.SignUpPayload) (string, error) {
	return "User registered successfully", nil
}

func (f *fakeAPI) Me(ctx context.Context, token string) (*models.User, error) {
	if f.meFn == nil {
		return nil, models.ErrInternalServer
	}
	return f.meFn(ctx, token)
}

func (f *fakeAPI) ListUsers(ctx context.Context, token string) ([]models.User, error) {
	if f.listFn == nil {
		return nil, models.ErrInternalServer
	}
	return f.listFn(ctx, token)
}

func (f *fakeAPI) GetUser(ctx context.Context, token string, userID uint64) (*models.User, error) {
	if f.getFn == nil {
		return nil, models.ErrUserNotFound
	}
	return f.getFn(ctx, token, userID)
}

func (f *fakeAPI) UpdateUser(ctx context.Context, token string, userID uint64, payload client.UserUpdatePayload) error {
	if f.updateFn == nil {
		return models.ErrInternalServer
	}
	return f.updateFn(ctx, token, userID, payload)
}

func (f *fakeAPI) DeleteUser(ctx context.Context, token string, userID uint64) error {
	f.deleteCalls++
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(ctx, token, userID)
}

func testConfig() *config.Config {
	return &config.Config{
		Env: "test",
		Session: config.SessionConfig{
			CookieName:   "user",
			CookieMaxAge: time.Hour,
		},
		TemplateDir: "../../web/templates",
	}
}

func newTestRouter(t *testing.T, api client.UserHubAPI) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig()
	router := gin.New()
	router.SetFuncMap(template.FuncMap{"hasRole": models.HasRole})
	router.LoadHTMLGlob(cfg.TemplateDir + "/*.html")

	h := NewWebHandler(cfg, zap.NewNop(), api)
	h.RegisterRoutes(router, nil)
	return router
}

// makeToken выписывает токен с заданным сроком действия.
func makeToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tokenString
}

// sessionCookie собирает cookie с сериализованным принципалом.
func sessionCookie(t *testing.T, p *models.Principal) *http.Cookie {
	t.Helper()
	raw, err := p.Marshal()
	require.NoError(t, err)
	return &http.Cookie{Name: "user", Value: url.QueryEscape(raw), Path: "/"}
}

func doRequest(router *gin.Engine, method, target string, cookie *http.Cookie, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRootRedirectsToProfile(t *testing.T) {
	router := newTestRouter(t, &fakeAPI{})

	w := doRequest(router, http.MethodGet, "/", nil, nil)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/profile", w.Header().Get("Location"))
}

func TestProfileRequiresAuthentication(t *testing.T) {
	router := newTestRouter(t, &fakeAPI{})

	w := doRequest(router, http.MethodGet, "/profile", nil, nil)

	// Незалогиненного уводим на вход, запоминая исходный путь
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login?from=%2Fprofile", w.Header().Get("Location"))
}

func TestAdminRouteRejectsNonAdmin(t *testing.T) {
	tokenString := makeToken(t, time.Now().Add(time.Hour))
	api := &fakeAPI{
		meFn: func(ctx context.Context, token string) (*models.User, error) {
			return &models.User{ID: 1, Name: "alice", Roles: []string{models.RoleUser}}, nil
		},
	}
	router := newTestRouter(t, api)
	cookie := sessionCookie(t, &models.Principal{
		ID: 1, Name: "alice", Roles: []string{models.RoleUser}, Token: tokenString,
	})

	w := doRequest(router, http.MethodGet, "/users", cookie, nil)

	// Ровно один редирект на /profile, без каскада через /login
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/profile", w.Header().Get("Location"))
}

func TestAdminRouteRendersForAdmin(t *testing.T) {
	tokenString := makeToken(t, time.Now().Add(time.Hour))
	api := &fakeAPI{
		meFn: func(ctx context.Context, token string) (*models.User, error) {
			return &models.User{ID: 2, Name: "root", Roles: []string{models.RoleAdmin}}, nil
		},
		listFn: func(ctx context.Context, token string) ([]models.User, error) {
			assert.Equal(t, tokenString, token)
			return []models.User{
				{ID: 1, Name: "alice", Email: "alice@example.com", Roles: []string{models.RoleUser}},
				{ID: 2, Name: "root", Email: "root@example.com", Roles: []string{models.RoleAdmin}},
			}, nil
		},
	}
	router := newTestRouter(t, api)
	cookie := sessionCookie(t, &models.Principal{
		ID: 2, Name: "root", Roles: []string{models.RoleUser, models.RoleAdmin}, Token: tokenString,
	})

	w := doRequest(router, http.MethodGet, "/users", cookie, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "User Management")
	assert.Contains(t, w.Body.String(), "alice@example.com")
}

func TestExpiredSessionRedirectsToLogin(t *testing.T) {
	api := &fakeAPI{}
	router := newTestRouter(t, api)
	cookie := sessionCookie(t, &models.Principal{
		ID: 1, Name: "alice", Token: makeToken(t, time.Now().Add(-time.Minute)),
	})

	w := doRequest(router, http.MethodGet, "/profile", cookie, nil)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login?from=%2Fprofile", w.Header().Get("Location"))

	// Слот сессии должен быть очищен
	var cleared bool
	for _, c := range w.Result().Cookies() {
		if c.Name == "user" && c.Value == "" {
			cleared = true
		}
	}
	assert.True(t, cleared, "expired session cookie must be cleared")
}

func TestGuardRendersLoadingWithoutSessionStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	router := gin.New()
	router.SetFuncMap(template.FuncMap{"hasRole": models.HasRole})
	router.LoadHTMLGlob(cfg.TemplateDir + "/*.html")

	// Маршрут сконфигурирован мимо sessionMiddleware: guard обязан отрисовать
	// нейтральную страницу загрузки, а не редиректить
	h := NewWebHandler(cfg, zap.NewNop(), &fakeAPI{})
	router.GET("/guarded", h.requireAccess(accessAuthenticated), func(c *gin.Context) {
		c.String(http.StatusOK, "content")
	})

	w := doRequest(router, http.MethodGet, "/guarded", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Location"))
	assert.Contains(t, w.Body.String(), "Restoring your session")
	assert.NotContains(t, w.Body.String(), "content")
}

func TestLoginSuccessSetsCookieAndRedirects(t *testing.T) {
	tokenString := makeToken(t, time.Now().Add(time.Hour))
	api := &fakeAPI{
		signInFn: func(ctx context.Context, name, password string) (*models.Principal, error) {
			assert.Equal(t, "alice", name)
			return &models.Principal{ID: 1, Name: "alice", Roles: []string{models.RoleUser}, Token: tokenString}, nil
		},
		meFn: func(ctx context.Context, token string) (*models.User, error) {
			return &models.User{ID: 1, Name: "alice"}, nil
		},
	}
	router := newTestRouter(t, api)

	w := doRequest(router, http.MethodPost, "/login", nil, url.Values{
		"name":     {"alice"},
		"password": {"secret"},
		"from":     {"/users"},
	})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/users", w.Header().Get("Location"))

	var found bool
	for _, c := range w.Result().Cookies() {
		if c.Name == "user" && c.Value != "" {
			found = true
			decoded, err := url.QueryUnescape(c.Value)
			require.NoError(t, err)
			restored, err := models.UnmarshalPrincipal(decoded)
			require.NoError(t, err)
			assert.Equal(t, tokenString, restored.Token)
		}
	}
	assert.True(t, found, "login must persist the principal in the session cookie")
}

func TestLoginOpenRedirectIsNeutralized(t *testing.T) {
	api := &fakeAPI{
		signInFn: func(ctx context.Context, name, password string) (*models.Principal, error) {
			return &models.Principal{ID: 1, Name: "alice", Token: makeToken(t, time.Now().Add(time.Hour))}, nil
		},
		meFn: func(ctx context.Context, token string) (*models.User, error) {
			return &models.User{ID: 1, Name: "alice"}, nil
		},
	}
	router := newTestRouter(t, api)

	for _, from := range []string{"//evil.example.com", "https://evil.example.com", ""} {
		w := doRequest(router, http.MethodPost, "/login", nil, url.Values{
			"name":     {"alice"},
			"password": {"secret"},
			"from":     {from},
		})
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/profile", w.Header().Get("Location"), "from=%q must not leave the site", from)
	}
}

func TestLoginFailureRendersForm(t *testing.T) {
	api := &fakeAPI{
		signInFn: func(ctx context.Context, name, password string) (*models.Principal, error) {
			return nil, fmt.Errorf("%w: bad credentials", models.ErrInvalidCredentials)
		},
	}
	router := newTestRouter(t, api)

	w := doRequest(router, http.MethodPost, "/login", nil, url.Values{
		"name":     {"alice"},
		"password": {"wrong"},
	})

	// Форма рендерится заново с сообщением, редиректа нет
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), models.ErrInvalidCredentials.Error())
}

func TestLoginEmptyFields(t *testing.T) {
	router := newTestRouter(t, &fakeAPI{})

	w := doRequest(router, http.MethodPost, "/login", nil, url.Values{"name": {"alice"}})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "All fields are required")
}

func TestRegisterMismatchRendersError(t *testing.T) {
	router := newTestRouter(t, &fakeAPI{})

	w := doRequest(router, http.MethodPost, "/register", nil, url.Values{
		"name":            {"alice"},
		"email":           {"alice@example.com"},
		"password":        {"secret123"},
		"confirmPassword": {"secret124"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Passwords don&#39;t match")
}

func TestRegisterSuccessRedirectsToLogin(t *testing.T) {
	router := newTestRouter(t, &fakeAPI{})

	w := doRequest(router, http.MethodPost, "/register", nil, url.Values{
		"name":            {"alice"},
		"email":           {"alice@example.com"},
		"password":        {"secret123"},
		"confirmPassword": {"secret123"},
	})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login?registered=1", w.Header().Get("Location"))
}

func TestLogoutClearsCookie(t *testing.T) {
	api := &fakeAPI{
		meFn: func(ctx context.Context, token string) (*models.User, error) {
			return &models.User{ID: 1, Name: "alice"}, nil
		},
	}
	router := newTestRouter(t, api)
	cookie := sessionCookie(t, &models.Principal{
		ID: 1, Name: "alice", Token: makeToken(t, time.Now().Add(time.Hour)),
	})

	w := doRequest(router, http.MethodGet, "/logout", cookie, nil)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	var cleared bool
	for _, c := range w.Result().Cookies() {
		if c.Name == "user" && c.Value == "" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "logout must clear the session cookie")
}

func TestLogoutWithoutSessionIsSafe(t *testing.T) {
	router := newTestRouter(t, &fakeAPI{})

	w := doRequest(router, http.MethodGet, "/logout", nil, nil)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestLoginPageRedirectsAuthenticatedUser(t *testing.T) {
	api := &fakeAPI{
		meFn: func(ctx context.Context, token string) (*models.User, error) {
			return &models.User{ID: 1, Name: "alice"}, nil
		},
	}
	router := newTestRouter(t, api)
	cookie := sessionCookie(t, &models.Principal{
		ID: 1, Name: "alice", Token: makeToken(t, time.Now().Add(time.Hour)),
	})

	w := doRequest(router, http.MethodGet, "/login", cookie, nil)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/profile", w.Header().Get("Location"))
}

func TestDeleteUserAuthFailureTearsDownSession(t *testing.T) {
	tokenString := makeToken(t, time.Now().Add(time.Hour))
	api := &fakeAPI{
		meFn: func(ctx context.Context, token string) (*models.User, error) {
			return &models.User{ID: 2, Name: "root", Roles: []string{models.RoleAdmin}}, nil
		},
		deleteFn: func(ctx context.Context, token string, userID uint64) error {
			return fmt.Errorf("%w: token revoked", models.ErrUnauthorized)
		},
	}
	router := newTestRouter(t, api)
	cookie := sessionCookie(t, &models.Principal{
		ID: 2, Name: "root", Roles: []string{models.RoleAdmin}, Token: tokenString,
	})

	w := doRequest(router, http.MethodPost, "/users/7/delete", cookie, nil)

	// 401 от backend'а означает недействительный токен: локальная сессия
	// сносится, пользователь уходит на вход
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestUnknownRouteRenders404(t *testing.T) {
	router := newTestRouter(t, &fakeAPI{})

	w := doRequest(router, http.MethodGet, "/no-such-page", nil, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSafeReturnPath(t *testing.T) {
	cases := []struct {
		from string
		want string
	}{
		{"/users", "/users"},
		{"/users/7/edit", "/users/7/edit"},
		{"", "/profile"},
		{"profile", "/profile"},
		{"//evil.example.com", "/profile"},
		{"https://evil.example.com", "/profile"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, safeReturnPath(tc.from), "from=%q", tc.from)
	}
}
