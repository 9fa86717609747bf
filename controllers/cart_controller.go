package controllers

import (
	"net/http"

	"menu-service/common/middleware"
	"menu-service/services"

	"github.com/gin-gonic/gin"
)

// CartController handles the session cart. The session id is set by
// middleware.Session.
type CartController struct {
	cartService services.CartService
}

// NewCartController creates a new CartController.
func NewCartController(svc services.CartService) *CartController {
	return &CartController{cartService: svc}
}

// GetCart handles GET /cart
func (cc *CartController) GetCart(ctx *gin.Context) {
	cart, svcErr := cc.cartService.GetCart(ctx.Request.Context(), middleware.SessionID(ctx))
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, cart)
}

// AddItem handles POST /cart/items
func (cc *CartController) AddItem(ctx *gin.Context) {
	var req services.AddItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	if req.ItemID == "" && req.Name == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "item_id or name is required"})
		return
	}

	cart, svcErr := cc.cartService.AddItem(ctx.Request.Context(), middleware.SessionID(ctx), req)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, cart)
}

// UpdateItem handles PATCH /cart/items/:id
func (cc *CartController) UpdateItem(ctx *gin.Context) {
	var req services.UpdateItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}
	if req.Quantity == nil && req.Notes == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "quantity or notes is required"})
		return
	}
	if req.Quantity != nil && *req.Quantity < 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "quantity must not be negative"})
		return
	}

	cart, svcErr := cc.cartService.UpdateItem(ctx.Request.Context(), middleware.SessionID(ctx), ctx.Param("id"), req)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, cart)
}

// RemoveItem handles DELETE /cart/items/:id
func (cc *CartController) RemoveItem(ctx *gin.Context) {
	cart, svcErr := cc.cartService.RemoveItem(ctx.Request.Context(), middleware.SessionID(ctx), ctx.Param("id"))
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, cart)
}

// ClearCart handles DELETE /cart
func (cc *CartController) ClearCart(ctx *gin.Context) {
	cart, svcErr := cc.cartService.ClearCart(ctx.Request.Context(), middleware.SessionID(ctx))
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, cart)
}

// SetVisibility returns a handler for POST /cart/open, /cart/close and /cart/toggle.
func (cc *CartController) SetVisibility(action services.VisibilityAction) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		cart, svcErr := cc.cartService.SetVisibility(ctx.Request.Context(), middleware.SessionID(ctx), action)
		if svcErr != nil {
			ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
			return
		}

		ctx.JSON(http.StatusOK, cart)
	}
}

// Checkout handles POST /cart/checkout
func (cc *CartController) Checkout(ctx *gin.Context) {
	var req services.CheckoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	result, svcErr := cc.cartService.Checkout(ctx.Request.Context(), middleware.SessionID(ctx), req)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, result)
}
