package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/srai007/storefront/internal/handlers"
	"github.com/srai007/storefront/internal/middleware/auth"
	"github.com/srai007/storefront/internal/models"
)

type Deps struct {
	Auth     *handlers.AuthHandler
	Products *handlers.ProductHandler
	Cart     *handlers.CartHandler
	Search   *handlers.SearchHandler
	Gate     *auth.Middleware
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	api := e.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", d.Auth.Register)
	authGroup.POST("/login", d.Auth.Login)
	authGroup.GET("/verify", d.Auth.Verify, d.Gate.RequireAuth)

	adminOnly := []echo.MiddlewareFunc{d.Gate.RequireAuth, d.Gate.RequireRole(models.RoleAdmin)}

	products := api.Group("/products")
	products.GET("", d.Products.List)
	products.GET("/search", d.Search.Search)
	products.GET("/:id", d.Products.Get)
	products.POST("", d.Products.Create, adminOnly...)
	products.PUT("/:id", d.Products.Update, adminOnly...)
	products.DELETE("/:id", d.Products.Delete, adminOnly...)

	cart := api.Group("/cart", d.Gate.RequireAuth)
	cart.GET("", d.Cart.Get)
	cart.POST("", d.Cart.AddItem)
	cart.DELETE("/:productId", d.Cart.RemoveItem)
	cart.DELETE("", d.Cart.Clear)
}
