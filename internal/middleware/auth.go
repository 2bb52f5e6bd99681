package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mmudassar1/codesistensy-ecommerce/internal/cookies"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/logging"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/models"
)

const userKey = "user"

type Authenticator interface {
	Authenticate(ctx context.Context, access cookies.Token) (*models.User, error)
}

// RequireAuth loads the user named by the access cookie into the echo context.
func RequireAuth(a Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			l := logging.FromContext(ctx)

			access := cookies.Read(c.Request()).Access
			if !access.Present {
				l.Warn("auth_failed", "status", 401, "reason", "no access token")
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized No access-token provided")
			}

			user, err := a.Authenticate(ctx, access)
			if err != nil {
				l.Warn("auth_failed", "status", 401, "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized access")
			}

			c.Set(userKey, user)
			c.SetRequest(c.Request().WithContext(logging.IntoContext(ctx, l.With("user_id", user.ID))))
			return next(c)
		}
	}
}

// AdminOnly must run after RequireAuth.
func AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := UserFrom(c)
		if user == nil || !user.IsAdmin() {
			logging.FromContext(c.Request().Context()).Warn("admin_check_failed", "status", 403)
			return echo.NewHTTPError(http.StatusForbidden, "Forbidden Access denied - Admin Only")
		}
		return next(c)
	}
}

func UserFrom(c echo.Context) *models.User {
	u, _ := c.Get(userKey).(*models.User)
	return u
}
