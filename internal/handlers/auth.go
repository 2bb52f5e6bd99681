package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mmudassar1/codesistensy-ecommerce/internal/cookies"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/logging"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/middleware"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/service"
)

type AuthHandler struct {
	Svc     *service.AuthService
	Cookies *cookies.Transport
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "signup")

	var req signupRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("signup_failed", "status", 400, "reason", "bad json", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res, err := h.Svc.Signup(ctx, service.SignupInput{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		return toHTTP(err, "")
	}

	h.Cookies.Write(c.Response(), res.Tokens.AccessToken, res.Tokens.RefreshToken)
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "user created successfully",
		"user":    res.User,
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "login")

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_failed", "status", 400, "reason", "bad json", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return toHTTP(err, "user not found")
	}

	h.Cookies.Write(c.Response(), res.Tokens.AccessToken, res.Tokens.RefreshToken)
	return c.JSON(http.StatusOK, echo.Map{
		"message": "login successful",
		"user":    res.User,
	})
}

// Logout always clears both cookies, even when the session store fails.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	err := h.Svc.Logout(ctx, cookies.Read(c.Request()).Refresh)
	h.Cookies.Clear(c.Response())
	if err != nil {
		return toHTTP(err, "")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Logged out successfully"})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	refresh := cookies.Read(c.Request()).Refresh
	if !refresh.Present {
		return echo.NewHTTPError(http.StatusUnauthorized, "No refresh token provided")
	}

	res, err := h.Svc.Refresh(ctx, refresh)
	if err != nil {
		return toHTTP(err, "")
	}

	h.Cookies.Write(c.Response(), res.Tokens.AccessToken, res.Tokens.RefreshToken)
	return c.JSON(http.StatusOK, echo.Map{"message": "Tokens refreshed successfully"})
}

func (h *AuthHandler) Profile(c echo.Context) error {
	user := middleware.UserFrom(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized access")
	}

	summary, err := h.Svc.Profile(c.Request().Context(), user.ID)
	if err != nil {
		return toHTTP(err, "user not found")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Profile fetched successfully",
		"user":    summary,
	})
}
