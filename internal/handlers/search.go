package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/srai007/storefront/internal/catalog"
	"github.com/srai007/storefront/internal/logging"
	"github.com/srai007/storefront/internal/respond"
	"github.com/srai007/storefront/internal/search"
)

type SearchHandler struct {
	Service search.Searcher
}

// Search serves the fuzzy full-text endpoint backed by the product index.
// The filter/sort listing on /api/products goes to the database instead.
func (h *SearchHandler) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return respond.Error(c, http.StatusBadRequest, "Please provide a search query")
	}

	page, size := catalog.NormalizePage(
		parseIntDefault(c.QueryParam("page"), 1),
		parseIntDefault(c.QueryParam("limit"), catalog.DefaultLimit),
	)
	from := (page - 1) * size

	total, products, err := h.Service.Search(c.Request().Context(), q, from, size)
	if err != nil {
		logging.FromContext(c.Request().Context()).Error("search failed", "error", err)
		return respond.Error(c, http.StatusInternalServerError, "Server error")
	}

	return c.JSON(http.StatusOK, respond.Page{
		Success:     true,
		Count:       len(products),
		Total:       total,
		TotalPages:  int((total + int64(size) - 1) / int64(size)),
		CurrentPage: page,
		Data:        products,
	})
}
