package routes

import (
	"menu-service/common/middleware"
	"menu-service/controllers"
	"menu-service/services"
	"menu-service/ws"

	"github.com/gin-gonic/gin"
)

// Handlers groups everything RegisterRoutes mounts.
type Handlers struct {
	Health      *controllers.HealthController
	Restaurants *controllers.RestaurantController
	Cart        *controllers.CartController
	CartHub     *ws.CartHub
}

// Options configures per-group middleware.
type Options struct {
	SessionCookieTTL int
	CookieSecure     bool
	AdminToken       string
}

// RegisterRoutes mounts the public API under /api/v1. Routes match the
// escaped path so a cart line id may contain an encoded "/".
func RegisterRoutes(r *gin.Engine, h Handlers, opts Options) {
	r.UseRawPath = true
	r.UnescapePathValues = true

	api := r.Group("/api/v1")

	api.GET("/health", h.Health.Health)

	restaurants := api.Group("/restaurants")
	{
		restaurants.GET("", h.Restaurants.ListRestaurants)
		restaurants.GET("/:id", h.Restaurants.GetRestaurant)
		restaurants.GET("/:id/menu", h.Restaurants.GetMenu)
		restaurants.POST("/cache/invalidate", middleware.AdminToken(opts.AdminToken), h.Restaurants.InvalidateCache)
	}

	cart := api.Group("/cart")
	cart.Use(middleware.NoStore(), middleware.Session(opts.SessionCookieTTL, opts.CookieSecure))
	{
		cart.GET("", h.Cart.GetCart)
		cart.DELETE("", h.Cart.ClearCart)
		cart.POST("/items", h.Cart.AddItem)
		cart.PATCH("/items/:id", h.Cart.UpdateItem)
		cart.DELETE("/items/:id", h.Cart.RemoveItem)
		cart.POST("/open", h.Cart.SetVisibility(services.VisibilityOpen))
		cart.POST("/close", h.Cart.SetVisibility(services.VisibilityClose))
		cart.POST("/toggle", h.Cart.SetVisibility(services.VisibilityToggle))
		cart.POST("/checkout", h.Cart.Checkout)
		if h.CartHub != nil {
			cart.GET("/ws", h.CartHub.HandleWebSocket)
		}
	}
}
