package controllers

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"room-service/models"
	"room-service/poller"
	"room-service/services"
	"room-service/utils"
)

// ---------------------------
// Payload / DTOs
// ---------------------------

type CreateOrderRequest struct {
	Customer models.CustomerDetails `json:"customer"`
	Items    []services.CartLine    `json:"items"`
}

type StatusPayload struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// ---------------------------
// Controller
// ---------------------------

type OrderController struct {
	OrderSvc   *services.OrderService
	BillingSvc *services.BillingService
	Poller     *poller.Poller
}

func NewOrderController(orders *services.OrderService, billing *services.BillingService, p *poller.Poller) *OrderController {
	return &OrderController{OrderSvc: orders, BillingSvc: billing, Poller: p}
}

// CreateOrder (POST /api/orders)
func (ctrl *OrderController) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid order payload: "+err.Error())
		return
	}

	order, err := ctrl.OrderSvc.Checkout(c.Request.Context(), req.Items, req.Customer)
	if err != nil {
		if services.IsBillingSync(err) {
			// order saved, bill not: tell the guest the order went through
			c.JSON(http.StatusPartialContent, gin.H{
				"success": true,
				"status":  "warning",
				"data":    order,
				"error":   gin.H{"code": "error.billingDeferred", "message": "Order placed. Your room bill will update shortly."},
			})
			return
		}
		respondError(c, err)
		return
	}

	if ctrl.Poller != nil {
		ctrl.Poller.Trigger()
	}
	utils.JSONSuccess(c, http.StatusCreated, order)
}

// GetOrders (GET /api/orders?mobile=) - a guest's order history with payment state
func (ctrl *OrderController) GetOrders(c *gin.Context) {
	mobile := strings.TrimSpace(c.Query("mobile"))
	if mobile == "" {
		utils.JSONFieldError(c, http.StatusBadRequest, "mobile", "mobile is required")
		return
	}
	views, err := ctrl.BillingSvc.OrdersWithPayment(c.Request.Context(), mobile)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, views)
}

// GetOrder (GET /api/orders/:id)
func (ctrl *OrderController) GetOrder(c *gin.Context) {
	order, err := ctrl.OrderSvc.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{
		"order":         order,
		"displayStatus": order.Status.CustomerLabel(),
	})
}

// ListStaffOrders (GET /api/staff/orders) - dashboard view kept fresh by the poller
func (ctrl *OrderController) ListStaffOrders(c *gin.Context) {
	if ctrl.Poller == nil {
		orders, err := ctrl.OrderSvc.ListOrders(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		utils.JSONSuccess(c, http.StatusOK, gin.H{"orders": orders})
		return
	}

	lastPoll, pollErr := ctrl.Poller.Status()
	resp := gin.H{
		"orders":   ctrl.Poller.Orders(),
		"syncedAt": lastPoll,
		"stale":    pollErr != nil,
	}
	utils.JSONSuccess(c, http.StatusOK, resp)
}

// AdvanceStatus (PATCH /api/staff/orders/:id/status)
func (ctrl *OrderController) AdvanceStatus(c *gin.Context) {
	var payload StatusPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONFieldError(c, http.StatusBadRequest, "status", "status is required")
		return
	}
	order, err := ctrl.OrderSvc.AdvanceStatus(c.Request.Context(), c.Param("id"), payload.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	if ctrl.Poller != nil {
		ctrl.Poller.Trigger()
	}
	utils.JSONSuccess(c, http.StatusOK, order)
}

// StreamOrders (GET /api/staff/orders/stream) - server-sent events for new orders
func (ctrl *OrderController) StreamOrders(c *gin.Context) {
	if ctrl.Poller == nil {
		utils.JSONError(c, http.StatusServiceUnavailable, "live updates are not enabled")
		return
	}
	events, stop := ctrl.Poller.Listen()
	defer stop()

	log.Info().Str("client_ip", c.ClientIP()).Msg("dashboard stream opened")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("ready", gin.H{"interval": ctrl.Poller.Interval().String()})

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(ev.Type, ev)
			return true
		}
	})
	log.Info().Str("client_ip", c.ClientIP()).Msg("dashboard stream closed")
}
