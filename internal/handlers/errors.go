package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mmudassar1/codesistensy-ecommerce/internal/service"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/storage"
)

const internalMessage = "Internal server error"

// toHTTP maps service errors to responses. notFound overrides the 404 message.
func toHTTP(err error, notFound string) *echo.HTTPError {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusBadRequest, verr.Reason)
	case errors.Is(err, service.ErrDuplicateEmail):
		return echo.NewHTTPError(http.StatusBadRequest, "user already exists with this email")
	case errors.Is(err, service.ErrCouponExpired):
		return echo.NewHTTPError(http.StatusNotFound, "Coupon expired")
	case errors.Is(err, service.ErrNotFound):
		if notFound == "" {
			notFound = "Not found"
		}
		return echo.NewHTTPError(http.StatusNotFound, notFound)
	case errors.Is(err, service.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, service.ErrInvalidToken):
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired refresh token")
	case errors.Is(err, service.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, service.ErrTokenSuperseded):
		return echo.NewHTTPError(http.StatusForbidden, "Invalid refresh token")
	case errors.Is(err, service.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "Forbidden")
	case errors.Is(err, storage.ErrDisabled):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "image uploads are not configured").SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, internalMessage).SetInternal(err)
	}
}

// ErrorHandler renders every error as {"message": "..."}; internal detail never leaves the process.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	he := &echo.HTTPError{}
	if !errors.As(err, &he) {
		he = echo.NewHTTPError(http.StatusInternalServerError, internalMessage)
	}

	msg, ok := he.Message.(string)
	if !ok || he.Code >= http.StatusInternalServerError && he.Code != http.StatusServiceUnavailable {
		msg = http.StatusText(he.Code)
		if he.Code == http.StatusInternalServerError {
			msg = internalMessage
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(he.Code)
		return
	}
	_ = c.JSON(he.Code, echo.Map{"message": msg})
}
