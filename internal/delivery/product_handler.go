package delivery

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
	"storefront/internal/usecase"
)

type ProductHandler struct {
	products usecase.ProductUseCase
	ledger   usecase.InventoryLedger
	log      *logrus.Logger
}

func NewProductHandler(products usecase.ProductUseCase, ledger usecase.InventoryLedger, logger *logrus.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		ledger:   ledger,
		log:      logger,
	}
}

// RegisterRoutes splits product routes between the public router (reads) and
// the identity-guarded router (mutations and reviews).
func (h *ProductHandler) RegisterRoutes(public, authed gin.IRouter) {
	public.GET("/products/:id", h.GetProduct)

	products := authed.Group("/products")
	{
		products.POST("", RequireRoles(h.log, usecase.RoleVendor, usecase.RoleAdmin), h.CreateProduct)
		products.PUT("/:id", RequireRoles(h.log, usecase.RoleVendor, usecase.RoleAdmin), h.UpdateProduct)
		products.DELETE("/:id", RequireRoles(h.log, usecase.RoleVendor, usecase.RoleAdmin), h.DeleteProduct)
		products.PUT("/:id/stock", RequireRoles(h.log, usecase.RoleAdmin), h.AdjustStock)
		products.POST("/:id/reviews", h.AddReview)
	}
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		return
	}

	product, err := h.products.GetProductByID(c.Request.Context(), id)
	if err != nil {
		h.log.Warnf("Failed to get product %d: %v", id, err)
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Product retrieved successfully", product)
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var product domain.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		h.log.Warnf("Failed to bind JSON for create product: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	created, err := h.products.CreateProduct(c.Request.Context(), requesterID(c), requesterRole(c), &product)
	if err != nil {
		h.log.Warnf("Failed to create product for vendor %d: %v", requesterID(c), err)
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "Product created successfully", created)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		h.log.Warnf("Failed to bind JSON for update product %d: %v", id, err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	updated, err := h.products.UpdateProduct(c.Request.Context(), id, requesterID(c), requesterRole(c), updates)
	if err != nil {
		h.log.Warnf("Failed to update product %d for user %d: %v", id, requesterID(c), err)
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Product updated successfully", updated)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		return
	}

	if err := h.products.DeleteProduct(c.Request.Context(), id, requesterID(c), requesterRole(c)); err != nil {
		h.log.Warnf("Failed to delete product %d for user %d: %v", id, requesterID(c), err)
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Product removed successfully", nil)
}

func (h *ProductHandler) AdjustStock(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		return
	}

	var requestBody struct {
		Delta *int `json:"delta"`
	}
	if err := c.ShouldBindJSON(&requestBody); err != nil {
		h.log.Warnf("Failed to bind JSON for stock adjustment of product %d: %v", id, err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if requestBody.Delta == nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: 'delta' field is required")
		return
	}

	product, err := h.ledger.Adjust(c.Request.Context(), id, *requestBody.Delta)
	if err != nil {
		h.log.Warnf("Failed to adjust stock by %d for product %d: %v", *requestBody.Delta, id, err)
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "Stock adjusted successfully", product)
}

func (h *ProductHandler) AddReview(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		return
	}

	var requestBody struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&requestBody); err != nil {
		h.log.Warnf("Failed to bind JSON for review of product %d: %v", id, err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	authorName := c.GetHeader("X-User-Name")
	_, err := h.products.AddReview(c.Request.Context(), id, requesterID(c), authorName, requestBody.Rating, requestBody.Comment)
	if err != nil {
		h.log.Warnf("Failed to add review for product %d by user %d: %v", id, requesterID(c), err)
		FailFromError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "Review added successfully", nil)
}

func productIDParam(c *gin.Context) (int, bool) {
	idStr := c.Param("id")
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		ErrorResponse(c, http.StatusBadRequest, "Invalid product ID format")
		return 0, false
	}
	return id, true
}
