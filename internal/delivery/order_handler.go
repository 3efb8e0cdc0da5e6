package delivery

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
	"storefront/internal/usecase"
)

type OrderHandler struct {
	orders usecase.OrderCoordinator
	log    *logrus.Logger
}

func NewOrderHandler(orders usecase.OrderCoordinator, logger *logrus.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		log:    logger,
	}
}

func (h *OrderHandler) RegisterRoutes(router gin.IRouter) {
	orders := router.Group("/orders")
	{
		orders.POST("", h.CreateOrder)
		orders.GET("", h.ListOrders)
		orders.GET("/admin/all", RequireRoles(h.log, usecase.RoleAdmin), h.ListAllOrders)
		orders.GET("/:id", h.GetOrderByID)
		orders.PUT("/:id/pay", h.MarkPaid)
		orders.PUT("/:id/deliver", RequireRoles(h.log, usecase.RoleAdmin), h.MarkDelivered)
		orders.PUT("/:id/status", RequireRoles(h.log, usecase.RoleAdmin), h.SetStatus)
	}
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID := requesterID(c)

	var requestBody struct {
		OrderItems      []domain.OrderItem     `json:"order_items"`
		ShippingAddress domain.ShippingAddress `json:"shipping_address"`
		PaymentMethod   string                 `json:"payment_method"`
	}
	if err := c.ShouldBindJSON(&requestBody); err != nil {
		h.log.Warnf("Failed to bind JSON for create order (user %d): %v", userID, err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), userID, usecase.CreateOrderInput{
		Items:           requestBody.OrderItems,
		ShippingAddress: requestBody.ShippingAddress,
		PaymentMethod:   requestBody.PaymentMethod,
	})
	if err != nil {
		h.log.Warnf("Failed to create order for user %d: %v", userID, err)
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "Order created successfully", order)
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID := requesterID(c)
	limit, offset := pagination(c)

	orders, err := h.orders.ListOrdersByUser(c.Request.Context(), userID, limit, offset)
	if err != nil {
		h.log.Errorf("Failed to list orders for user %d: %v", userID, err)
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Orders retrieved successfully", orders)
}

func (h *OrderHandler) ListAllOrders(c *gin.Context) {
	limit, offset := pagination(c)

	orders, err := h.orders.ListAllOrders(c.Request.Context(), limit, offset)
	if err != nil {
		h.log.Errorf("Failed to list all orders: %v", err)
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Orders retrieved successfully", orders)
}

func (h *OrderHandler) GetOrderByID(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), id, requesterID(c), requesterRole(c))
	if err != nil {
		h.log.Warnf("Failed to get order %d for user %d: %v", id, requesterID(c), err)
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Order retrieved successfully", order)
}

func (h *OrderHandler) MarkPaid(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	var result domain.PaymentResult
	if err := c.ShouldBindJSON(&result); err != nil {
		h.log.Warnf("Failed to bind JSON for pay order %d: %v", id, err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	order, err := h.orders.MarkPaid(c.Request.Context(), id, requesterID(c), result)
	if err != nil {
		h.log.Warnf("Failed to mark order %d paid for user %d: %v", id, requesterID(c), err)
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Order marked as paid", order)
}

func (h *OrderHandler) MarkDelivered(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	order, err := h.orders.MarkDelivered(c.Request.Context(), id)
	if err != nil {
		h.log.Warnf("Failed to mark order %d delivered: %v", id, err)
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Order marked as delivered", order)
}

func (h *OrderHandler) SetStatus(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	var requestBody struct {
		Status *domain.OrderStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&requestBody); err != nil {
		h.log.Warnf("Failed to bind JSON for status update of order %d: %v", id, err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if requestBody.Status == nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: 'status' field is required")
		return
	}

	order, err := h.orders.SetStatus(c.Request.Context(), id, *requestBody.Status)
	if err != nil {
		h.log.Warnf("Failed to set status '%s' on order %d: %v", *requestBody.Status, id, err)
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Order status updated successfully", order)
}

func orderIDParam(c *gin.Context) (int, bool) {
	idStr := c.Param("id")
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		ErrorResponse(c, http.StatusBadRequest, "Invalid order ID format")
		return 0, false
	}
	return id, true
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
