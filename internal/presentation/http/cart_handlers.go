package httppresentation

import (
	"net/http"

	appcart "github.com/Zhima-Mochi/minishop-marketplace/internal/application/cart"
	"github.com/gin-gonic/gin"
)

type addToCartRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	// Quantity defaults to one when omitted.
	Quantity int `json:"quantity" binding:"omitempty,min=1"`
}

type updateCartRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

func (h *Handler) handleViewCart(c *gin.Context) {
	view, err := h.cart.View(c.Request.Context(), principal(c).UserID)
	if err != nil {
		h.failure(c, err, "Failed to fetch cart")
		return
	}
	items := make([]cartLineView, 0, len(view.Lines))
	for _, l := range view.Lines {
		items = append(items, toCartLineView(l))
	}
	success(c, http.StatusOK, "", cartView{Items: items, Total: money(view.Total), Count: view.Count})
}

func (h *Handler) handleCartCount(c *gin.Context) {
	n, err := h.cart.Count(c.Request.Context(), principal(c).UserID)
	if err != nil {
		h.failure(c, err, "Failed to get cart count")
		return
	}
	success(c, http.StatusOK, "", gin.H{"count": n})
}

func (h *Handler) handleAddToCart(c *gin.Context) {
	var req addToCartRequest
	if !h.bindJSON(c, &req) {
		return
	}
	line, created, err := h.cart.Add(c.Request.Context(), appcart.AddCommand{
		BuyerID:   principal(c).UserID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		h.failure(c, err, "Failed to add item to cart")
		return
	}
	if created {
		success(c, http.StatusCreated, "Item added to cart", toCartLineView(*line))
		return
	}
	success(c, http.StatusOK, "Cart updated successfully", toCartLineView(*line))
}

func (h *Handler) handleUpdateCartItem(c *gin.Context) {
	var req updateCartRequest
	if !h.bindJSON(c, &req) {
		return
	}
	line, err := h.cart.Update(c.Request.Context(), appcart.UpdateCommand{
		BuyerID:  principal(c).UserID,
		ItemID:   c.Param("id"),
		Quantity: req.Quantity,
	})
	if err != nil {
		h.failure(c, err, "Failed to update cart")
		return
	}
	success(c, http.StatusOK, "Cart updated successfully", toCartLineView(*line))
}

func (h *Handler) handleRemoveCartItem(c *gin.Context) {
	if err := h.cart.Remove(c.Request.Context(), principal(c).UserID, c.Param("id")); err != nil {
		h.failure(c, err, "Failed to remove item")
		return
	}
	success(c, http.StatusOK, "Item removed from cart", nil)
}

func (h *Handler) handleClearCart(c *gin.Context) {
	if err := h.cart.Clear(c.Request.Context(), principal(c).UserID); err != nil {
		h.failure(c, err, "Failed to clear cart")
		return
	}
	success(c, http.StatusOK, "Cart cleared successfully", nil)
}
