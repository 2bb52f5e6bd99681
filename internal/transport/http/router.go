package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/mmudassar1/codesistensy-ecommerce/internal/handlers"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/metrics"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/middleware"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/service"
)

type Deps struct {
	AuthHandler    *handlers.AuthHandler
	ProductHandler *handlers.ProductHandler
	CouponHandler  *handlers.CouponHandler
	CartHandler    *handlers.CartHandler
	HealthHandler  *handlers.HealthHandler

	// Authenticator backs RequireAuth; normally the same AuthService the AuthHandler wraps.
	Authenticator *service.AuthService

	Logger  *slog.Logger
	Metrics metrics.Recorder
	// Gatherer is served on /metrics when set.
	Gatherer prometheus.Gatherer
	// AuthRateLimit is requests per second per client IP on /auth; 0 disables the limiter.
	AuthRateLimit int
}

// New builds an echo instance with the shared middleware chain and every route registered.
func New(d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handlers.ErrorHandler

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(d.Logger, d.Metrics))
	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit("10M"))

	Register(e, d)
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", d.HealthHandler.Live)
	e.GET("/health/ready", d.HealthHandler.Ready)
	if d.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler(d.Gatherer)))
	}

	requireAuth := middleware.RequireAuth(d.Authenticator)

	var authMW []echo.MiddlewareFunc
	if d.AuthRateLimit > 0 {
		authMW = append(authMW, authLimiter(d.AuthRateLimit))
	}
	auth := e.Group("/auth", authMW...)
	auth.POST("/signup", d.AuthHandler.Signup)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/logout", d.AuthHandler.Logout)
	auth.POST("/refresh-token", d.AuthHandler.Refresh)
	auth.GET("/profile", d.AuthHandler.Profile, requireAuth)

	products := e.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/featured", d.ProductHandler.GetFeatured)
	products.GET("/recommendations", d.ProductHandler.GetRecommendations)
	products.GET("/category/:category", d.ProductHandler.GetByCategory)
	products.POST("", d.ProductHandler.CreateProduct, requireAuth, middleware.AdminOnly)
	products.DELETE("/:id", d.ProductHandler.DeleteProduct, requireAuth, middleware.AdminOnly)
	products.PATCH("/:id/featured", d.ProductHandler.ToggleFeatured, requireAuth, middleware.AdminOnly)

	coupons := e.Group("/coupons", requireAuth)
	coupons.GET("", d.CouponHandler.GetCoupon)
	coupons.POST("/validate", d.CouponHandler.ValidateCoupon)

	cart := e.Group("/cart", requireAuth)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddToCart)
	cart.PUT("/:productId", d.CartHandler.UpdateQuantity)
	cart.DELETE("", d.CartHandler.RemoveFromCart)
}

func authLimiter(perSecond int) echo.MiddlewareFunc {
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(perSecond),
			Burst:     perSecond,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "Too many requests, please try again later")
		},
	})
}
