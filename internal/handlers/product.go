package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/srai007/storefront/internal/catalog"
	"github.com/srai007/storefront/internal/logging"
	"github.com/srai007/storefront/internal/middleware/auth"
	"github.com/srai007/storefront/internal/models"
	"github.com/srai007/storefront/internal/mykafka"
	"github.com/srai007/storefront/internal/respond"
	"github.com/srai007/storefront/internal/search"
)

type ProductHandler struct {
	DB       *gorm.DB
	Producer mykafka.Publisher
	Index    search.Indexer
}

// Pointer fields make presence explicit: a supplied zero (price 0, stock 0)
// is valid, only an omitted field fails the required check.
type createProductRequest struct {
	Name        *string  `json:"name"        validate:"required,max=100"`
	Description *string  `json:"description" validate:"required,max=1000"`
	Price       *float64 `json:"price"       validate:"required,gte=0"`
	Category    *string  `json:"category"    validate:"required"`
	Image       *string  `json:"image"       validate:"required"`
	Stock       *int     `json:"stock"       validate:"required,gte=0"`
}

type updateProductRequest struct {
	Name        *string  `json:"name"        validate:"omitempty,max=100"`
	Description *string  `json:"description" validate:"omitempty,max=1000"`
	Price       *float64 `json:"price"       validate:"omitempty,gte=0"`
	Category    *string  `json:"category"`
	Image       *string  `json:"image"`
	Stock       *int     `json:"stock"       validate:"omitempty,gte=0"`
}

// productValidationMessage maps a validator failure onto the wire message
// the endpoint has always answered with.
func productValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			switch fe.Tag() {
			case "required":
				return "Please provide all required fields"
			case "gte":
				return "Price and stock must be positive numbers"
			case "max":
				if fe.Field() == "Name" {
					return "Name cannot be more than 100 characters"
				}
				return "Description cannot be more than 1000 characters"
			}
		}
	}
	return "Invalid request body"
}

func parseID(c echo.Context) (uint, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

func parseFloat(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseIntDefault(raw string, def int) int {
	if raw == "" {
		return def
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return v
	}
	return def
}

func (h *ProductHandler) indexProduct(c echo.Context, p models.Product) {
	if err := h.Index.IndexProduct(c.Request().Context(), p); err != nil {
		logging.FromContext(c.Request().Context()).Error("product index failed", "id", p.ID, "error", err)
	}
}

func (h *ProductHandler) List(c echo.Context) error {
	q := catalog.Query{
		Category:  c.QueryParam("category"),
		MinPrice:  parseFloat(c.QueryParam("minPrice")),
		MaxPrice:  parseFloat(c.QueryParam("maxPrice")),
		MinRating: parseFloat(c.QueryParam("minRating")),
		Search:    c.QueryParam("search"),
		Sort:      c.QueryParam("sort"),
		Page:      parseIntDefault(c.QueryParam("page"), 1),
		Limit:     parseIntDefault(c.QueryParam("limit"), catalog.DefaultLimit),
	}

	page, err := catalog.Run(h.DB, q)
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("product list failed", "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Server error")
	}

	return c.JSON(http.StatusOK, respond.Page{
		Success:     true,
		Count:       len(page.Items),
		Total:       page.Total,
		TotalPages:  page.TotalPages,
		CurrentPage: page.CurrentPage,
		Data:        page.Items,
	})
}

func (h *ProductHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return respond.Error(c, http.StatusNotFound, "Product not found")
	}

	var product models.Product
	err := h.DB.First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return respond.Error(c, http.StatusNotFound, "Product not found")
	}
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("product load failed", "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Server error")
	}

	return respond.OK(c, http.StatusOK, product)
}

func (h *ProductHandler) Create(c echo.Context) error {
	var req createProductRequest
	if err := c.Bind(&req); err != nil {
		return respond.Error(c, http.StatusBadRequest, "Please provide all required fields")
	}
	if err := validate.Struct(&req); err != nil {
		return respond.Error(c, http.StatusBadRequest, productValidationMessage(err))
	}

	category := strings.ToLower(*req.Category)
	if !models.ValidCategory(category) {
		return respond.Error(c, http.StatusBadRequest, "Invalid category")
	}

	product := models.Product{
		Name:        *req.Name,
		Description: *req.Description,
		Category:    category,
		Price:       *req.Price,
		Image:       *req.Image,
		Stock:       uint(*req.Stock),
		// rating and review count always start at zero, whatever the input
		Rating:     0,
		NumReviews: 0,
	}
	if user, ok := auth.UserFrom(c); ok {
		product.UserID = &user.ID
	}

	if err := h.DB.Create(&product).Error; err != nil {
		logging.FromContext(c.Request().Context()).Error("product create failed", "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Error creating product")
	}

	h.indexProduct(c, product)
	publish(c, h.Producer, "product_events", fmt.Sprint(product.ID), map[string]interface{}{
		"type":      "product_created",
		"productID": product.ID,
		"name":      product.Name,
	})

	return respond.OK(c, http.StatusCreated, product)
}

func (h *ProductHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return respond.Error(c, http.StatusNotFound, "Product not found")
	}

	var req updateProductRequest
	if err := c.Bind(&req); err != nil {
		return respond.Error(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return respond.Error(c, http.StatusBadRequest, productValidationMessage(err))
	}

	var category string
	if req.Category != nil {
		category = strings.ToLower(*req.Category)
		if !models.ValidCategory(category) {
			return respond.Error(c, http.StatusBadRequest, "Invalid category")
		}
	}

	var product models.Product
	err := h.DB.First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return respond.Error(c, http.StatusNotFound, "Product not found")
	}
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("product load failed", "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Server error")
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Category != nil {
		product.Category = category
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Stock != nil {
		product.Stock = uint(*req.Stock)
	}
	if req.Image != nil {
		product.Image = *req.Image
	}

	if err := h.DB.Save(&product).Error; err != nil {
		logging.FromContext(c.Request().Context()).Error("product update failed", "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Server error")
	}

	h.indexProduct(c, product)
	publish(c, h.Producer, "product_events", fmt.Sprint(product.ID), map[string]interface{}{
		"type":      "product_updated",
		"productID": product.ID,
		"name":      product.Name,
	})

	return respond.OK(c, http.StatusOK, product)
}

func (h *ProductHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return respond.Error(c, http.StatusNotFound, "Product not found")
	}

	var product models.Product
	err := h.DB.First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return respond.Error(c, http.StatusNotFound, "Product not found")
	}
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("product load failed", "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Server error")
	}

	if err := h.DB.Delete(&models.Product{}, id).Error; err != nil {
		logging.FromContext(c.Request().Context()).Error("product delete failed", "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Server error")
	}

	if err := h.Index.DeleteProduct(c.Request().Context(), id); err != nil {
		logging.FromContext(c.Request().Context()).Error("product unindex failed", "id", id, "error", err)
	}
	publish(c, h.Producer, "product_events", fmt.Sprint(id), map[string]interface{}{
		"type":      "product_deleted",
		"productID": id,
	})

	return respond.OK(c, http.StatusOK, map[string]interface{}{})
}
