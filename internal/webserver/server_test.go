package webserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nijsci/labcatalog/config"
	"github.com/nijsci/labcatalog/internal/app"
	"github.com/nijsci/labcatalog/internal/domain"
)

func newTestApp(t *testing.T, cfg *config.AppConfig) *app.Application {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	a := app.NewApplication(cfg)
	a.OverrideDB(db)
	require.NoError(t, a.MigrateDB(false))
	require.NoError(t, a.Repos().Users.Create(context.Background(),
		&domain.User{ID: 9, Name: "Ops", Email: "ops@example.com", IsActive: true}))
	return a
}

func setupServer(t *testing.T) *config.AppConfig {
	t.Helper()
	cfg := config.DefaultAppConfig()
	cfg.Auth.Secret = "test-secret"
	cfg.Media.LocalDir = t.TempDir()
	Init(newTestApp(t, cfg))

	ApiGET("/whoami", func(c echo.Context) error {
		return c.String(http.StatusOK, CurrentAdmin(c).Email)
	})
	PubGET("/ping", func(c echo.Context) error {
		if CurrentAdmin(c) != nil {
			return c.String(http.StatusOK, "admin")
		}
		return c.String(http.StatusOK, "pong")
	})
	return cfg
}

func TestAdminGuard(t *testing.T) {
	cfg := setupServer(t)
	token, err := IssueToken(cfg.Auth.Secret, &domain.User{ID: 9, Name: "Ops", Email: "ops@example.com"}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)

	req = httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec = httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ops@example.com", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	rec = httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminGuardRejectsForeignAndExpiredTokens(t *testing.T) {
	setupServer(t)
	u := &domain.User{ID: 9, Email: "ops@example.com"}

	forged, err := IssueToken("other-secret", u, time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken("test-secret", u, -time.Minute)
	require.NoError(t, err)

	for _, token := range []string{forged, expired, "garbage"} {
		req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		rec := httptest.NewRecorder()
		Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
}

func TestPlaceholderSecretIsReplaced(t *testing.T) {
	cfg := config.DefaultAppConfig()
	cfg.Media.LocalDir = t.TempDir()
	require.Equal(t, config.DefaultSecret, cfg.Auth.Secret)
	Init(newTestApp(t, cfg))
	ApiGET("/whoami", func(c echo.Context) error {
		return c.String(http.StatusOK, CurrentAdmin(c).Email)
	})
	assert.NotEqual(t, config.DefaultSecret, cfg.Auth.Secret)

	u := &domain.User{ID: 9, Email: "ops@example.com"}
	forged, err := IssueToken(config.DefaultSecret, u, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+forged)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	valid, err := IssueToken(cfg.Auth.Secret, u, time.Hour)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+valid)
	rec = httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminGuardRejectsUnknownUser(t *testing.T) {
	cfg := setupServer(t)
	token, err := IssueToken(cfg.Auth.Secret, &domain.User{ID: 404, Email: "gone@example.com"}, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"UNAUTHORIZED"`)
}

func TestSwaggerDocs(t *testing.T) {
	setupServer(t)

	req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "LabCatalog API")
	assert.Contains(t, body, `"/products/{id}"`)
	assert.Contains(t, body, "BearerAuth")

	req = httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	rec = httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPublicRouteAndNotFound(t *testing.T) {
	setupServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/nothing-here", nil)
	rec = httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"NOT_FOUND"`)
}

func TestSessionCookie(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
	SetSessionCookie(c, "tok", 24*time.Hour, false)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Equal(t, 86400, cookies[0].MaxAge)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookies[0].SameSite)
}
