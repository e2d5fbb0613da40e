package webserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/nijsci/labcatalog/internal/domain"
	"github.com/nijsci/labcatalog/internal/repository"
)

// SessionCookie carries the admin JWT for browser clients.
const SessionCookie = "admin_session"

// AdminClaims is the JWT payload of an admin session.
type AdminClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func jwtConfig(secret string) echojwt.Config {
	return echojwt.Config{
		SigningKey:  []byte(secret),
		TokenLookup: "header:Authorization:Bearer ,cookie:" + SessionCookie,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(AdminClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return unauthorized(c)
		},
	}
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]interface{}{
		"success": false,
		"error":   "Unauthorized",
		"code":    "UNAUTHORIZED",
	})
}

// activeAdmin runs after the JWT check and refuses tokens whose account has
// since been deleted or deactivated.
func (s *WebServer) activeAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims := CurrentAdmin(c)
		if claims == nil {
			return unauthorized(c)
		}
		id, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			return unauthorized(c)
		}
		u, err := s.appCtx.Repos().Users.GetByID(c.Request().Context(), id)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				zap.L().Error("load session user failed", zap.Int64("user", id), zap.Error(err))
			}
			return unauthorized(c)
		}
		if !u.IsActive {
			return unauthorized(c)
		}
		return next(c)
	}
}

// IssueToken signs a session token for u valid for ttl.
func IssueToken(secret string, u *domain.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &AdminClaims{
		Name:  u.Name,
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	return token, errors.Wrap(err, "sign token")
}

// CurrentAdmin returns the claims of the authenticated admin, nil on public
// routes.
func CurrentAdmin(c echo.Context) *AdminClaims {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return nil
	}
	claims, _ := token.Claims.(*AdminClaims)
	return claims
}

// SetSessionCookie stores token in the admin session cookie.
func SetSessionCookie(c echo.Context, token string, ttl time.Duration, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearSessionCookie expires the admin session cookie.
func ClearSessionCookie(c echo.Context, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}
