package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mmudassar1/codesistensy-ecommerce/internal/logging"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/service"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/util"
)

type ProductHandler struct {
	Svc *service.ProductService
}

type createProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	Category    string  `json:"category"`
}

func productID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	return id, nil
}

// GetProducts lists everything unless a page or size query parameter asks for paging.
func (h *ProductHandler) GetProducts(c echo.Context) error {
	paginate := c.QueryParam("page") != "" || c.QueryParam("size") != ""
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	res, err := h.Svc.List(c.Request().Context(), page, size, paginate)
	if err != nil {
		return toHTTP(err, "")
	}

	body := echo.Map{"products": res.Items}
	if res.Meta != nil {
		body["meta"] = res.Meta
	}
	return c.JSON(http.StatusOK, body)
}

func (h *ProductHandler) GetFeatured(c echo.Context) error {
	items, err := h.Svc.Featured(c.Request().Context())
	if err != nil {
		return toHTTP(err, "")
	}
	return c.JSON(http.StatusOK, echo.Map{"products": items})
}

func (h *ProductHandler) GetRecommendations(c echo.Context) error {
	items, err := h.Svc.Recommendations(c.Request().Context())
	if err != nil {
		return toHTTP(err, "")
	}
	return c.JSON(http.StatusOK, echo.Map{"products": items})
}

func (h *ProductHandler) GetByCategory(c echo.Context) error {
	items, err := h.Svc.ByCategory(c.Request().Context(), c.Param("category"))
	if err != nil {
		return toHTTP(err, "No products found in this category")
	}
	return c.JSON(http.StatusOK, echo.Map{"products": items})
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()

	var req createProductRequest
	if err := c.Bind(&req); err != nil {
		logging.FromContext(ctx).Warn("create_product_failed", "status", 400, "reason", "bad json", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	p, err := h.Svc.Create(ctx, service.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		Category:    req.Category,
	})
	if err != nil {
		return toHTTP(err, "")
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Product created successfully",
		"product": p,
	})
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := productID(c)
	if err != nil {
		return err
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		return toHTTP(err, "Product not found")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Product deleted successfully"})
}

func (h *ProductHandler) ToggleFeatured(c echo.Context) error {
	id, err := productID(c)
	if err != nil {
		return err
	}
	p, err := h.Svc.ToggleFeatured(c.Request().Context(), id)
	if err != nil {
		return toHTTP(err, "Product not found")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Product updated successfully",
		"product": p,
	})
}
