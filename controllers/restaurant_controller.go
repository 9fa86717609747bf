package controllers

import (
	"net/http"

	"menu-service/normalizer"
	"menu-service/services"

	"github.com/gin-gonic/gin"
)

// RestaurantController serves the public catalog.
type RestaurantController struct {
	restaurantService services.RestaurantService
	defaultLang       string
}

// NewRestaurantController creates a new RestaurantController.
func NewRestaurantController(svc services.RestaurantService, defaultLang string) *RestaurantController {
	if defaultLang == "" {
		defaultLang = normalizer.LangAr
	}
	return &RestaurantController{restaurantService: svc, defaultLang: defaultLang}
}

// ListRestaurants handles GET /restaurants?search=&lang=
func (rc *RestaurantController) ListRestaurants(ctx *gin.Context) {
	restaurants, svcErr := rc.restaurantService.ListRestaurants(ctx.Request.Context(), ctx.Query("search"), rc.lang(ctx))
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"restaurants": restaurants, "count": len(restaurants)})
}

// GetRestaurant handles GET /restaurants/:id
func (rc *RestaurantController) GetRestaurant(ctx *gin.Context) {
	data, svcErr := rc.restaurantService.GetRestaurant(ctx.Request.Context(), ctx.Param("id"))
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, data)
}

// GetMenu handles GET /restaurants/:id/menu?lang=&category=
func (rc *RestaurantController) GetMenu(ctx *gin.Context) {
	menu, svcErr := rc.restaurantService.GetMenu(ctx.Request.Context(), ctx.Param("id"), services.MenuQuery{
		Lang:     rc.lang(ctx),
		Category: ctx.Query("category"),
	})
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, menu)
}

// InvalidateCache handles POST /restaurants/cache/invalidate
func (rc *RestaurantController) InvalidateCache(ctx *gin.Context) {
	if svcErr := rc.restaurantService.Invalidate(ctx.Request.Context()); svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "catalog cache invalidated"})
}

func (rc *RestaurantController) lang(ctx *gin.Context) string {
	switch l := ctx.Query("lang"); l {
	case normalizer.LangAr, normalizer.LangEn:
		return l
	default:
		return rc.defaultLang
	}
}
