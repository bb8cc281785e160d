package handler

import (
	"net/http"

	"ledgerdesk/internal/model"
	"ledgerdesk/internal/service"
	"ledgerdesk/internal/websocket"
	"ledgerdesk/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct {
	inventoryService service.InventoryService
	events           EventPublisher
}

func NewInventoryHandler(inventoryService service.InventoryService, events EventPublisher) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService, events: publisherOrNop(events)}
}

func (h *InventoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/products")
	{
		products.GET("", h.GetProducts)
		products.POST("", h.CreateProduct)
		products.POST("/seed", h.SeedProducts)
		products.GET("/:sku", h.GetProduct)
		products.PUT("/:sku", h.UpdateProduct)
		products.DELETE("/:sku", h.DeleteProduct)
		products.POST("/:sku/stock", h.AdjustStock)
	}
}

// AdjustStockRequest carries a signed stock change
type AdjustStockRequest struct {
	Delta int `json:"delta" example:"-3"`
}

// GetProducts handles retrieving a paginated, optionally filtered catalog
// @Summary      Get products
// @Description  Lists catalog products, newest first, filtered by SKU or name
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Param        search  query     string  false  "Case-insensitive match on SKU or name"
// @Success      200    {object}  response.Response{data=pagination.Page[model.Product]}
// @Router       /api/products [get]
func (h *InventoryHandler) GetProducts(c *gin.Context) {
	products := h.inventoryService.SearchProducts(c.Query("search"))
	respond(c, http.StatusOK, pagination.Apply(products, pagination.Parse(c)), nil)
}

// GetProduct returns one product
// @Summary      Get product
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        sku  path      string  true  "Product SKU"
// @Success      200  {object}  response.Response{data=model.Product}
// @Failure      404  {object}  response.Response
// @Router       /api/products/{sku} [get]
func (h *InventoryHandler) GetProduct(c *gin.Context) {
	product, err := h.inventoryService.FindProduct(c.Param("sku"))
	respond(c, http.StatusOK, product, err)
}

// CreateProduct adds a product to the catalog
// @Summary      Create product
// @Description  Adds a product. An omitted SKU is generated.
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      model.ProductDraft  true  "Product"
// @Success      201      {object}  response.Response{data=model.Product}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      503      {object}  response.Response
// @Router       /api/products [post]
func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	var req model.ProductDraft
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	product, err := h.inventoryService.AddProduct(c.Request.Context(), req)
	if respond(c, http.StatusCreated, product, err) {
		h.events.Publish(websocket.EventCatalogUpdated, product)
	}
}

// UpdateProduct replaces every field of a product
// @Summary      Update product
// @Description  Full replace. A different SKU in the body renames the product.
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        sku      path      string              true  "Product SKU"
// @Param        payload  body      model.ProductDraft  true  "Product"
// @Success      200      {object}  response.Response{data=model.Product}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/products/{sku} [put]
func (h *InventoryHandler) UpdateProduct(c *gin.Context) {
	var req model.ProductDraft
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	product, err := h.inventoryService.UpdateProduct(c.Request.Context(), c.Param("sku"), req)
	if respond(c, http.StatusOK, product, err) {
		h.events.Publish(websocket.EventCatalogUpdated, product)
	}
}

// DeleteProduct removes a product
// @Summary      Delete product
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        sku  path      string  true  "Product SKU"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/products/{sku} [delete]
func (h *InventoryHandler) DeleteProduct(c *gin.Context) {
	sku := c.Param("sku")
	err := h.inventoryService.DeleteProduct(c.Request.Context(), sku)
	if respond(c, http.StatusOK, gin.H{"sku": sku}, err) {
		h.events.Publish(websocket.EventCatalogUpdated, gin.H{"deleted": sku})
	}
}

// AdjustStock applies a signed delta under the configured stock policy
// @Summary      Adjust stock
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        sku      path      string              true  "Product SKU"
// @Param        payload  body      AdjustStockRequest  true  "Delta"
// @Success      200      {object}  response.Response{data=model.Product}
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/products/{sku}/stock [post]
func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	var req AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	product, err := h.inventoryService.AdjustStock(c.Request.Context(), c.Param("sku"), req.Delta)
	if respond(c, http.StatusOK, product, err) {
		h.events.Publish(websocket.EventCatalogUpdated, product)
	}
}

// SeedProducts loads the sample catalog into an empty store
// @Summary      Seed sample catalog
// @Description  Adds the starter products when the catalog is empty; seeded is 0 otherwise
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/products/seed [post]
func (h *InventoryHandler) SeedProducts(c *gin.Context) {
	n, err := h.inventoryService.SeedSampleCatalog(c.Request.Context())
	if respond(c, http.StatusOK, gin.H{"seeded": n}, err) && n > 0 {
		h.events.Publish(websocket.EventCatalogUpdated, gin.H{"seeded": n})
	}
}
