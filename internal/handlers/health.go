package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mmudassar1/codesistensy-ecommerce/internal/logging"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness unconditionally and readiness by pinging each named dependency.
type HealthHandler struct {
	Checks map[string]Pinger
}

func (h *HealthHandler) Live(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (h *HealthHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	failed := map[string]string{}
	for name, p := range h.Checks {
		if err := p.Ping(ctx); err != nil {
			logging.FromContext(ctx).Warn("readiness_check_failed", "check", name, "error", err)
			failed[name] = "unavailable"
		}
	}
	if len(failed) > 0 {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "checks": failed})
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
