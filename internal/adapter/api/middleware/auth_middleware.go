package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"motomarket/internal/infrastructure/auth"
	"motomarket/pkg/errors"
	"motomarket/pkg/response"
)

// ContextUserID is the echo context key the authenticated user ID is stored
// under.
const ContextUserID = "uid"

type AuthMiddleware struct {
	tokens *auth.TokenManager
}

func NewAuthMiddleware(tokens *auth.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate accepts a Bearer token from the Authorization header or the
// "token" cookie set at login.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString := extractToken(c)
		if tokenString == "" {
			return response.Error(c, errors.Unauthorized("Not authorized to access this route", nil))
		}

		userID, err := m.tokens.Verify(tokenString)
		if err != nil {
			return response.Error(c, errors.Unauthorized("Not authorized to access this route", err))
		}

		c.Set(ContextUserID, userID)
		return next(c)
	}
}

func extractToken(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie("token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// UserID reads the authenticated user set by Authenticate.
func UserID(c echo.Context) string {
	uid, _ := c.Get(ContextUserID).(string)
	return uid
}
