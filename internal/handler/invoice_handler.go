package handler

import (
	"net/http"
	"strconv"

	"ledgerdesk/internal/model"
	"ledgerdesk/internal/service"
	"ledgerdesk/internal/websocket"
	"ledgerdesk/pkg/pagination"
	"ledgerdesk/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type InvoiceHandler struct {
	builder service.LedgerBuilder
	events  EventPublisher
}

func NewInvoiceHandler(builder service.LedgerBuilder, events EventPublisher) *InvoiceHandler {
	return &InvoiceHandler{builder: builder, events: publisherOrNop(events)}
}

func (h *InvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	invoice := router.Group("/invoice")
	{
		invoice.GET("", h.GetInvoice)
		invoice.PUT("/header", h.SetHeaderField)
		invoice.GET("/lines/:index/products", h.GetSelectableProducts)
		invoice.PUT("/lines/:index/product", h.BindLineItem)
		invoice.PUT("/lines/:index/quantity", h.SetLineQuantity)
		invoice.PUT("/lines/:index/field", h.SetLineField)
		invoice.POST("/clear", h.ClearInvoice)
		invoice.POST("/save", h.SaveInvoice)
		invoice.POST("/deduct-stock", h.DeductStock)
	}

	records := router.Group("/invoices")
	{
		records.GET("", h.GetInvoices)
		records.GET("/:id", h.GetInvoiceRecord)
	}
}

// FieldRequest sets one named header or line field
type FieldRequest struct {
	Field string `json:"field" binding:"required" example:"customer"`
	Value string `json:"value"`
}

// BindRequest selects a catalog product for a line
type BindRequest struct {
	SKU string `json:"sku" binding:"required" example:"P001"`
}

// QuantityRequest sets a line quantity
type QuantityRequest struct {
	Quantity *decimal.Decimal `json:"quantity" binding:"required" swaggertype:"string" example:"3"`
}

// InvoiceView is the editable invoice plus the SKUs already placed on lines
type InvoiceView struct {
	model.InvoicePreview
	BoundSKUs  []string `json:"boundSKUs"`
	TaxFormula string   `json:"taxFormula"`
}

// BindResult reports whether the SKU matched a product
type BindResult struct {
	Bound   bool        `json:"bound"`
	Invoice InvoiceView `json:"invoice"`
}

func (h *InvoiceHandler) view() InvoiceView {
	return InvoiceView{
		InvoicePreview: h.builder.OpenPreview(),
		BoundSKUs:      h.builder.BoundSKUs(),
		TaxFormula:     h.builder.TaxPipeline().Name(),
	}
}

func lineIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, "line index must be an integer")
		return 0, false
	}
	return index, true
}

// changed answers with the fresh invoice and notifies clients
func (h *InvoiceHandler) changed(c *gin.Context, err error) {
	v := h.view()
	if respond(c, http.StatusOK, v, err) {
		h.events.Publish(websocket.EventInvoiceUpdated, v.Totals)
	}
}

// GetInvoice returns the invoice being edited
// @Summary      Get current invoice
// @Description  Header, line items, totals and the SKUs bound on lines
// @Tags         invoice
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=InvoiceView}
// @Router       /api/invoice [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	respond(c, http.StatusOK, h.view(), nil)
}

// SetHeaderField updates date, customer, address or taxId
// @Summary      Set header field
// @Tags         invoice
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      FieldRequest  true  "Field and value"
// @Success      200      {object}  response.Response{data=InvoiceView}
// @Failure      400      {object}  response.Response
// @Router       /api/invoice/header [put]
func (h *InvoiceHandler) SetHeaderField(c *gin.Context) {
	var req FieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	if err := h.builder.SetHeaderField(req.Field, req.Value); err != nil {
		respond(c, http.StatusOK, nil, err)
		return
	}
	h.changed(c, nil)
}

// GetSelectableProducts lists products that can still go on a line
// @Summary      Selectable products for a line
// @Tags         invoice
// @Security     BearerAuth
// @Produce      json
// @Param        index  path      int  true  "Zero-based line index"
// @Success      200    {object}  response.Response{data=[]model.Product}
// @Failure      400    {object}  response.Response
// @Router       /api/invoice/lines/{index}/products [get]
func (h *InvoiceHandler) GetSelectableProducts(c *gin.Context) {
	index, ok := lineIndex(c)
	if !ok {
		return
	}
	products, err := h.builder.SelectableProducts(index)
	respond(c, http.StatusOK, products, err)
}

// BindLineItem places a catalog product on a line
// @Summary      Bind product to line
// @Description  Copies the product's name, category and price onto the line. An unknown SKU leaves the line as it is.
// @Tags         invoice
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        index    path      int          true  "Zero-based line index"
// @Param        payload  body      BindRequest  true  "SKU"
// @Success      200      {object}  response.Response{data=BindResult}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/invoice/lines/{index}/product [put]
func (h *InvoiceHandler) BindLineItem(c *gin.Context) {
	index, ok := lineIndex(c)
	if !ok {
		return
	}
	var req BindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	bound, err := h.builder.BindLineItem(index, req.SKU)
	if err != nil {
		respond(c, http.StatusOK, nil, err)
		return
	}
	res := BindResult{Bound: bound, Invoice: h.view()}
	respond(c, http.StatusOK, res, nil)
	if bound {
		h.events.Publish(websocket.EventInvoiceUpdated, res.Invoice.Totals)
	}
}

// SetLineQuantity sets a line quantity, bounded by stock for catalog lines
// @Summary      Set line quantity
// @Tags         invoice
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        index    path      int              true  "Zero-based line index"
// @Param        payload  body      QuantityRequest  true  "Quantity"
// @Success      200      {object}  response.Response{data=InvoiceView}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/invoice/lines/{index}/quantity [put]
func (h *InvoiceHandler) SetLineQuantity(c *gin.Context) {
	index, ok := lineIndex(c)
	if !ok {
		return
	}
	var req QuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	if err := h.builder.SetLineQuantity(index, *req.Quantity); err != nil {
		respond(c, http.StatusOK, nil, err)
		return
	}
	h.changed(c, nil)
}

// SetLineField edits unit, description or unitPrice
// @Summary      Set line field
// @Tags         invoice
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        index    path      int           true  "Zero-based line index"
// @Param        payload  body      FieldRequest  true  "Field and value"
// @Success      200      {object}  response.Response{data=InvoiceView}
// @Failure      400      {object}  response.Response
// @Router       /api/invoice/lines/{index}/field [put]
func (h *InvoiceHandler) SetLineField(c *gin.Context) {
	index, ok := lineIndex(c)
	if !ok {
		return
	}
	var req FieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}
	if err := h.builder.SetLineField(index, req.Field, req.Value); err != nil {
		respond(c, http.StatusOK, nil, err)
		return
	}
	h.changed(c, nil)
}

// ClearInvoice resets the invoice to a blank template
// @Summary      Clear invoice
// @Description  Requires confirm=true
// @Tags         invoice
// @Security     BearerAuth
// @Produce      json
// @Param        confirm  query     bool  true  "Must be true"
// @Success      200      {object}  response.Response{data=InvoiceView}
// @Failure      400      {object}  response.Response
// @Router       /api/invoice/clear [post]
func (h *InvoiceHandler) ClearInvoice(c *gin.Context) {
	if confirm, _ := strconv.ParseBool(c.Query("confirm")); !confirm {
		badRequest(c, "clearing the invoice needs confirm=true")
		return
	}
	h.builder.Clear()
	h.changed(c, nil)
}

// SaveInvoice stores a snapshot of the invoice; the form is kept
// @Summary      Save invoice
// @Tags         invoice
// @Security     BearerAuth
// @Produce      json
// @Success      201  {object}  response.Response{data=model.InvoiceRecord}
// @Router       /api/invoice/save [post]
func (h *InvoiceHandler) SaveInvoice(c *gin.Context) {
	record, err := h.builder.SaveRecord(c.Request.Context())
	if respond(c, http.StatusCreated, record, err) {
		h.events.Publish(websocket.EventInvoiceSaved, gin.H{"id": record.ID.String(), "grandTotal": record.Totals.GrandTotal})
	}
}

// DeductStock takes the bound line quantities out of the catalog
// @Summary      Deduct stock for invoice
// @Tags         invoice
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Product}
// @Failure      422  {object}  response.Response
// @Router       /api/invoice/deduct-stock [post]
func (h *InvoiceHandler) DeductStock(c *gin.Context) {
	products, err := h.builder.DeductStock(c.Request.Context())
	if respond(c, http.StatusOK, products, err) {
		h.events.Publish(websocket.EventCatalogUpdated, products)
	}
}

// GetInvoices lists saved invoices, newest first
// @Summary      Saved invoices
// @Tags         invoice
// @Security     BearerAuth
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of items per page (default 20)"
// @Success      200    {object}  response.Response{data=pagination.Page[model.InvoiceRecord]}
// @Router       /api/invoices [get]
func (h *InvoiceHandler) GetInvoices(c *gin.Context) {
	respond(c, http.StatusOK, pagination.Apply(h.builder.ListRecords(), pagination.Parse(c)), nil)
}

// GetInvoiceRecord returns one saved invoice by id
// @Summary      Saved invoice
// @Tags         invoice
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice id"
// @Success      200  {object}  response.Response{data=model.InvoiceRecord}
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetInvoiceRecord(c *gin.Context) {
	id := c.Param("id")
	for _, rec := range h.builder.ListRecords() {
		if rec.ID.String() == id {
			respond(c, http.StatusOK, rec, nil)
			return
		}
	}
	c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "invoice "+id+" not found"))
}
