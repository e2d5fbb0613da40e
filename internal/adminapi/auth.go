package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/nijsci/labcatalog/internal/domain"
	"github.com/nijsci/labcatalog/internal/repository"
	"github.com/nijsci/labcatalog/internal/webserver"
	"github.com/nijsci/labcatalog/pkg/common"
)

func registerAuthRoutes() {
	webserver.PubPOST("/auth/login", login)
	webserver.PubPOST("/auth/logout", logout)
	webserver.ApiGET("/auth/me", currentUser)
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func sessionTTL(hours int) time.Duration {
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

func invalidCredentials(c echo.Context) error {
	return fail(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid credentials", nil)
}

// bootstrapAdmin creates the first account when the user table is empty and
// the configured bootstrap credentials were given.
func bootstrapAdmin(c echo.Context, username, password string) (*domain.User, error) {
	cfg := GetAppContext(c).Config().Auth
	if cfg.BootstrapUser == "" || username != cfg.BootstrapUser || password != cfg.BootstrapPass {
		return nil, nil
	}
	ctx := c.Request().Context()
	count, err := repos(c).Users.Count(ctx)
	if err != nil || count > 0 {
		return nil, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		ID:       common.UUIDint64(),
		Name:     "System Admin",
		Mobile:   "0000000000",
		Email:    username,
		Password: hash,
		IsActive: true,
	}
	u.Normalize()
	if err := repos(c).Users.Create(ctx, u); err != nil {
		return nil, err
	}
	zap.L().Info("bootstrap admin created", zap.String("email", u.Email))
	return u, nil
}

// @Summary admin login
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body object true "{username, password}"
// @Success 200 {object} map[string]interface{}
// @Router /auth/login [post]
func login(c echo.Context) error {
	var req loginRequest
	if err := decodeJSON(c, &req); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body", err.Error())
	}
	req.Username = strings.TrimSpace(req.Username)
	if err := c.Validate(&req); err != nil {
		return handleValidationError(c, err)
	}

	u, err := bootstrapAdmin(c, req.Username, req.Password)
	if err != nil {
		return repoFail(c, err, "", "Failed to create admin")
	}
	if u == nil {
		u, err = repos(c).Users.GetByEmail(c.Request().Context(), strings.ToLower(req.Username))
		if errors.Is(err, repository.ErrNotFound) {
			return invalidCredentials(c)
		}
		if err != nil {
			return repoFail(c, err, "", "Failed to query user")
		}
		if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)) != nil || !u.IsActive {
			return invalidCredentials(c)
		}
	}

	u.LastLogin = time.Now()
	if err := repos(c).Users.Update(c.Request().Context(), u); err != nil {
		zap.L().Warn("update last login failed", zap.Int64("user", u.ID), zap.Error(err))
	}

	cfg := GetAppContext(c).Config().Auth
	ttl := sessionTTL(cfg.SessionHours)
	token, err := webserver.IssueToken(cfg.Secret, u, ttl)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to issue token", err.Error())
	}
	webserver.SetSessionCookie(c, token, ttl, cfg.SecureCookie)
	return ok(c, map[string]string{
		"name":  u.Name,
		"email": u.Email,
		"token": token,
	})
}

// @Summary clear the admin session cookie
// @Tags Auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /auth/logout [post]
func logout(c echo.Context) error {
	webserver.ClearSessionCookie(c, GetAppContext(c).Config().Auth.SecureCookie)
	return message(c, "Logged out", map[string]interface{}{})
}

// @Summary get the signed-in admin
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /auth/me [get]
func currentUser(c echo.Context) error {
	claims := webserver.CurrentAdmin(c)
	return ok(c, map[string]string{
		"id":    claims.Subject,
		"name":  claims.Name,
		"email": claims.Email,
	})
}
