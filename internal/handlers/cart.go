package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mmudassar1/codesistensy-ecommerce/internal/middleware"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/service"
)

type CartHandler struct {
	Svc *service.CartService
}

type addToCartRequest struct {
	ProductID string `json:"productId"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

func currentUserID(c echo.Context) (uuid.UUID, error) {
	user := middleware.UserFrom(c)
	if user == nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized access")
	}
	return user.ID, nil
}

func (h *CartHandler) GetCart(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	items, err := h.Svc.Items(c.Request().Context(), userID)
	if err != nil {
		return toHTTP(err, "")
	}
	return c.JSON(http.StatusOK, echo.Map{"cart": items})
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req addToCartRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	items, err := h.Svc.Add(c.Request().Context(), userID, productID)
	if err != nil {
		return toHTTP(err, "Product not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Product added to cart", "cart": items})
}

func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	var req updateQuantityRequest
	if err := c.Bind(&req); err != nil || req.Quantity == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "quantity is required")
	}

	items, err := h.Svc.SetQuantity(c.Request().Context(), userID, productID, *req.Quantity)
	if err != nil {
		return toHTTP(err, "Product not in cart")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Cart updated", "cart": items})
}

// RemoveFromCart drops the product named in the body, or the whole cart when none is given.
func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req addToCartRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	var productID *uuid.UUID
	if req.ProductID != "" {
		id, err := uuid.Parse(req.ProductID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
		}
		productID = &id
	}

	items, err := h.Svc.Remove(c.Request().Context(), userID, productID)
	if err != nil {
		return toHTTP(err, "")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Cart updated", "cart": items})
}
