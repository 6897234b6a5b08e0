// Package auth carries the two request gates: bearer-token authentication
// and role-based authorization. The role gate must run after the auth gate,
// which attaches the loaded user to the echo context.
package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/srai007/storefront/internal/logging"
	"github.com/srai007/storefront/internal/models"
	"github.com/srai007/storefront/internal/respond"
	"github.com/srai007/storefront/internal/token"
)

const userContextKey = "user"

type Middleware struct {
	DB     *gorm.DB
	Tokens *token.Manager
}

// UserFrom returns the user attached by RequireAuth.
func UserFrom(c echo.Context) (models.User, bool) {
	user, ok := c.Get(userContextKey).(models.User)
	return user, ok
}

func (m *Middleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		parts := strings.SplitN(header, " ", 2)
		if header == "" || len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return respond.Error(c, http.StatusUnauthorized, "No token, authorization denied")
		}

		userID, err := m.Tokens.Verify(parts[1])
		if err != nil {
			if errors.Is(err, token.ErrExpired) {
				return respond.Error(c, http.StatusUnauthorized, "Token expired")
			}
			return respond.Error(c, http.StatusUnauthorized, "Invalid token")
		}

		// The token is not proactively invalidated on user deletion, so the
		// load doubles as the backstop for deleted accounts.
		var user models.User
		err = m.DB.Select("id", "email", "role", "created_at").First(&user, userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respond.Error(c, http.StatusUnauthorized, "User not found")
		}
		if err != nil {
			logging.FromContext(c.Request().Context()).Error("auth user load failed", "error", err)
			return respond.Error(c, http.StatusInternalServerError, "Server error")
		}

		c.Set(userContextKey, user)
		return next(c)
	}
}

// RequireRole allows the request through only when the attached user's role
// is in the allow-list. Authenticated-but-wrong-role is 403, never 401.
func (m *Middleware) RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := UserFrom(c)
			if !ok {
				return respond.Error(c, http.StatusUnauthorized, "No token, authorization denied")
			}
			for _, role := range roles {
				if user.Role == role {
					return next(c)
				}
			}
			return respond.Error(c, http.StatusForbidden, "Forbidden")
		}
	}
}
