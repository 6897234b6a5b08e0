package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/srai007/storefront/internal/logging"
	"github.com/srai007/storefront/internal/middleware/auth"
	"github.com/srai007/storefront/internal/models"
	"github.com/srai007/storefront/internal/mykafka"
	"github.com/srai007/storefront/internal/respond"
)

// CartHandler owns the per-user cart: one row per (user, product) pair,
// only ever visible to its owner.
type CartHandler struct {
	DB       *gorm.DB
	Producer mykafka.Publisher
}

type addCartItemRequest struct {
	ProductID *uint `json:"product_id" validate:"required"`
	Quantity  uint  `json:"quantity"`
}

func (h *CartHandler) Get(c echo.Context) error {
	user, ok := auth.UserFrom(c)
	if !ok {
		return respond.Error(c, http.StatusUnauthorized, "No token, authorization denied")
	}

	var items []models.CartItem
	if err := h.DB.Where("user_id = ?", user.ID).Find(&items).Error; err != nil {
		logging.FromContext(c.Request().Context()).Error("cart load failed", "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Server error")
	}

	return respond.OK(c, http.StatusOK, items)
}

func (h *CartHandler) AddItem(c echo.Context) error {
	user, ok := auth.UserFrom(c)
	if !ok {
		return respond.Error(c, http.StatusUnauthorized, "No token, authorization denied")
	}

	var req addCartItemRequest
	if err := c.Bind(&req); err != nil {
		return respond.Error(c, http.StatusBadRequest, "Please provide a product id")
	}
	if err := validate.Struct(&req); err != nil {
		return respond.Error(c, http.StatusBadRequest, "Please provide a product id")
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	var product models.Product
	err := h.DB.First(&product, *req.ProductID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return respond.Error(c, http.StatusNotFound, "Product not found")
	}
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("cart product load failed", "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Server error")
	}

	// adding an item already in the cart merges quantities
	var item models.CartItem
	err = h.DB.Where("user_id = ? AND product_id = ?", user.ID, *req.ProductID).First(&item).Error
	switch {
	case err == nil:
		item.Quantity += req.Quantity
		if err := h.DB.Save(&item).Error; err != nil {
			logging.FromContext(c.Request().Context()).Error("cart save failed", "error", err)
			return respond.Error(c, http.StatusInternalServerError, "Server error")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = models.CartItem{UserID: user.ID, ProductID: *req.ProductID, Quantity: req.Quantity}
		if err := h.DB.Create(&item).Error; err != nil {
			logging.FromContext(c.Request().Context()).Error("cart create failed", "error", err)
			return respond.Error(c, http.StatusInternalServerError, "Server error")
		}
	default:
		logging.FromContext(c.Request().Context()).Error("cart lookup failed", "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Server error")
	}

	publish(c, h.Producer, "cart_events", fmt.Sprint(user.ID), map[string]interface{}{
		"type":      "cart_item_added",
		"userID":    user.ID,
		"productID": item.ProductID,
		"quantity":  item.Quantity,
	})

	return respond.OK(c, http.StatusOK, item)
}

// RemoveItem decrements the quantity by one, dropping the row at zero.
func (h *CartHandler) RemoveItem(c echo.Context) error {
	user, ok := auth.UserFrom(c)
	if !ok {
		return respond.Error(c, http.StatusUnauthorized, "No token, authorization denied")
	}

	productID, err := strconv.Atoi(c.Param("productId"))
	if err != nil || productID <= 0 {
		return respond.Error(c, http.StatusNotFound, "Item not found")
	}

	var item models.CartItem
	err = h.DB.Where("user_id = ? AND product_id = ?", user.ID, productID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return respond.Error(c, http.StatusNotFound, "Item not found")
	}
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("cart lookup failed", "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Server error")
	}

	if item.Quantity > 1 {
		item.Quantity--
		if err := h.DB.Save(&item).Error; err != nil {
			logging.FromContext(c.Request().Context()).Error("cart save failed", "error", err)
			return respond.Error(c, http.StatusInternalServerError, "Server error")
		}
	} else {
		if err := h.DB.Delete(&item).Error; err != nil {
			logging.FromContext(c.Request().Context()).Error("cart delete failed", "error", err)
			return respond.Error(c, http.StatusInternalServerError, "Server error")
		}
		item.Quantity = 0
	}

	publish(c, h.Producer, "cart_events", fmt.Sprint(user.ID), map[string]interface{}{
		"type":      "cart_item_removed",
		"userID":    user.ID,
		"productID": item.ProductID,
		"quantity":  item.Quantity,
	})

	return respond.OK(c, http.StatusOK, item)
}

func (h *CartHandler) Clear(c echo.Context) error {
	user, ok := auth.UserFrom(c)
	if !ok {
		return respond.Error(c, http.StatusUnauthorized, "No token, authorization denied")
	}

	if err := h.DB.Where("user_id = ?", user.ID).Delete(&models.CartItem{}).Error; err != nil {
		logging.FromContext(c.Request().Context()).Error("cart clear failed", "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Server error")
	}

	publish(c, h.Producer, "cart_events", fmt.Sprint(user.ID), map[string]interface{}{
		"type":   "cart_cleared",
		"userID": user.ID,
	})

	return respond.OK(c, http.StatusOK, map[string]interface{}{})
}
