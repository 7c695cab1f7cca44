package httppresentation

import (
	"net/http"

	"github.com/Zhima-Mochi/minishop-marketplace/internal/application/checkout"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/apperr"
	"github.com/Zhima-Mochi/minishop-marketplace/internal/domain/order"
	"github.com/gin-gonic/gin"
)

// Field rules for orders live in the checkout use case so the API and other callers agree.
type placeOrderRequest struct {
	Shipping      shippingView `json:"shipping"`
	PaymentMethod string       `json:"payment_method"`
	OrderNotes    string       `json:"order_notes" binding:"max=1000"`
}

type placeOrderView struct {
	Order           orderView `json:"order"`
	RedirectURL     string    `json:"redirect_url,omitempty"`
	RequiresPayment bool      `json:"requires_payment"`
}

type verifyPaymentRequest struct {
	SessionID string `json:"session_id"`
}

type verifyPaymentView struct {
	Status   string            `json:"status"`
	Amount   string            `json:"amount"`
	Metadata map[string]string `json:"metadata"`
}

func (h *Handler) handlePlaceOrder(c *gin.Context) {
	var req placeOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	s := req.Shipping
	res, err := h.checkout.PlaceOrder.Execute(c.Request.Context(), checkout.PlaceOrderCommand{
		BuyerID: principal(c).UserID,
		Shipping: order.Shipping{
			FullName:   s.FullName,
			Phone:      s.Phone,
			Email:      s.Email,
			Address:    s.Address,
			City:       s.City,
			Province:   s.Province,
			PostalCode: s.PostalCode,
		},
		PaymentMethod: req.PaymentMethod,
		Notes:         req.OrderNotes,
	})
	if err != nil {
		msg := "Failed to create order"
		if apperr.KindOf(err) == apperr.KindPaymentSession {
			msg = "Failed to create payment session"
		}
		h.failure(c, err, msg)
		return
	}
	success(c, http.StatusCreated, "Order created successfully", placeOrderView{
		Order:           toOrderView(res.Order),
		RedirectURL:     res.RedirectURL,
		RequiresPayment: res.RequiresPayment,
	})
}

func (h *Handler) handleListOrders(c *gin.Context) {
	orders, err := h.checkout.ListOrders(c.Request.Context(), principal(c).UserID)
	if err != nil {
		h.failure(c, err, "Failed to fetch orders")
		return
	}
	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, toOrderView(o))
	}
	success(c, http.StatusOK, "", views)
}

func (h *Handler) handleGetOrder(c *gin.Context) {
	o, err := h.checkout.GetOrder(c.Request.Context(), principal(c).UserID, c.Param("id"))
	if err != nil {
		h.failure(c, err, "Failed to fetch order")
		return
	}
	success(c, http.StatusOK, "", toOrderView(o))
}

// handleVerifyPayment reports a session that is not paid as a failed verification.
func (h *Handler) handleVerifyPayment(c *gin.Context) {
	var req verifyPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	res, err := h.checkout.VerifyPayment.Execute(c.Request.Context(), checkout.VerifyPaymentCommand{
		SessionID: req.SessionID,
	})
	if err != nil {
		h.failure(c, err, "Payment verification error")
		return
	}
	if !res.Paid {
		c.JSON(http.StatusBadRequest, envelope{Success: false, Message: "Payment verification failed"})
		return
	}
	metadata := res.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	success(c, http.StatusOK, "Payment verified successfully", verifyPaymentView{
		Status:   res.Status,
		Amount:   money(res.Amount),
		Metadata: metadata,
	})
}

func (h *Handler) handleCancelOrder(c *gin.Context) {
	_, err := h.checkout.CancelOrder.Execute(c.Request.Context(), checkout.CancelOrderCommand{
		BuyerID: principal(c).UserID,
		OrderID: c.Param("id"),
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInvalidState {
			c.AbortWithStatusJSON(http.StatusBadRequest, envelope{Success: false, Message: "Only pending orders can be cancelled"})
			return
		}
		h.failure(c, err, "Failed to cancel order")
		return
	}
	success(c, http.StatusOK, "Order cancelled and stock restored", nil)
}
