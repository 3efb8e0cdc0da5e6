package delivery

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront/internal/usecase"
)

type CartHandler struct {
	carts usecase.CartStore
	log   *logrus.Logger
}

func NewCartHandler(carts usecase.CartStore, logger *logrus.Logger) *CartHandler {
	return &CartHandler{
		carts: carts,
		log:   logger,
	}
}

func (h *CartHandler) RegisterRoutes(router gin.IRouter) {
	cart := router.Group("/cart")
	{
		cart.GET("", h.GetCart)
		cart.POST("", h.AddItem)
		cart.PUT("/:itemId", h.UpdateItem)
		cart.DELETE("/:itemId", h.RemoveItem)
		cart.DELETE("", h.ClearCart)
	}
}

func (h *CartHandler) GetCart(c *gin.Context) {
	userID := requesterID(c)

	cart, err := h.carts.Get(c.Request.Context(), userID)
	if err != nil {
		h.log.Errorf("Failed to get cart for user %d: %v", userID, err)
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Cart retrieved successfully", cart)
}

func (h *CartHandler) AddItem(c *gin.Context) {
	userID := requesterID(c)

	var requestBody struct {
		ProductID int `json:"product_id"`
		Quantity  int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&requestBody); err != nil {
		h.log.Warnf("Failed to bind JSON for add cart item (user %d): %v", userID, err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if requestBody.ProductID <= 0 || requestBody.Quantity == 0 {
		ErrorResponse(c, http.StatusBadRequest, "Please provide product ID and quantity")
		return
	}

	cart, err := h.carts.AddItem(c.Request.Context(), userID, requestBody.ProductID, requestBody.Quantity)
	if err != nil {
		h.log.Warnf("Failed to add product %d to cart for user %d: %v", requestBody.ProductID, userID, err)
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Item added to cart", cart)
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	userID := requesterID(c)
	itemID := c.Param("itemId")

	var requestBody struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&requestBody); err != nil {
		h.log.Warnf("Failed to bind JSON for update cart item %s (user %d): %v", itemID, userID, err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	cart, err := h.carts.UpdateItem(c.Request.Context(), userID, itemID, requestBody.Quantity)
	if err != nil {
		h.log.Warnf("Failed to update cart item %s for user %d: %v", itemID, userID, err)
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Cart item updated", cart)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID := requesterID(c)
	itemID := c.Param("itemId")

	cart, err := h.carts.RemoveItem(c.Request.Context(), userID, itemID)
	if err != nil {
		h.log.Warnf("Failed to remove cart item %s for user %d: %v", itemID, userID, err)
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Cart item removed", cart)
}

func (h *CartHandler) ClearCart(c *gin.Context) {
	userID := requesterID(c)

	if _, err := h.carts.Clear(c.Request.Context(), userID); err != nil {
		h.log.Errorf("Failed to clear cart for user %d: %v", userID, err)
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Cart cleared successfully", nil)
}
