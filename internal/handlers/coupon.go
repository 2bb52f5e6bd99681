package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mmudassar1/codesistensy-ecommerce/internal/service"
)

type CouponHandler struct {
	Svc *service.CouponService
}

type validateCouponRequest struct {
	Code string `json:"code"`
}

func (h *CouponHandler) GetCoupon(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	coupon, err := h.Svc.Active(c.Request().Context(), userID)
	if err != nil {
		return toHTTP(err, "No active coupon found")
	}
	return c.JSON(http.StatusOK, echo.Map{"coupon": coupon})
}

func (h *CouponHandler) ValidateCoupon(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req validateCouponRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	coupon, err := h.Svc.Validate(c.Request().Context(), userID, req.Code)
	if err != nil {
		return toHTTP(err, "Coupon not found")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":  "Coupon is valid",
		"code":     coupon.Code,
		"discount": coupon.Discount,
	})
}
