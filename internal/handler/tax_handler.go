package handler

import (
	"net/http"

	"ledgerdesk/internal/model"
	"ledgerdesk/internal/service"
	"ledgerdesk/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type TaxHandler struct {
	taxService service.TaxService
	events     EventPublisher
}

// TaxRatesRequest swaps the tax formula. An empty formula selects withholding-then-vat.
type TaxRatesRequest struct {
	Formula         string           `json:"formula" example:"withholding-then-vat"`
	WithholdingRate *decimal.Decimal `json:"withholdingRate" binding:"required" swaggertype:"string" example:"0.12"`
	VATRate         *decimal.Decimal `json:"vatRate" binding:"required" swaggertype:"string" example:"0.12"`
}

func NewTaxHandler(taxService service.TaxService, events EventPublisher) *TaxHandler {
	return &TaxHandler{taxService: taxService, events: publisherOrNop(events)}
}

func (h *TaxHandler) RegisterRoutes(router *gin.RouterGroup) {
	tax := router.Group("/tax")
	{
		tax.GET("", h.GetTaxRates)
		tax.PUT("", h.SetTaxRates)
		tax.GET("/history", h.GetTaxHistory)
	}
}

// GetTaxRates returns the formula and rates applied to the invoice
// @Summary      Current tax rates
// @Tags         tax
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=model.TaxRates}
// @Router       /api/tax [get]
func (h *TaxHandler) GetTaxRates(c *gin.Context) {
	respond(c, http.StatusOK, h.taxService.Current(), nil)
}

// GetTaxHistory returns rate changes, newest first
// @Summary      Tax rate history
// @Tags         tax
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.TaxRule}
// @Router       /api/tax/history [get]
func (h *TaxHandler) GetTaxHistory(c *gin.Context) {
	respond(c, http.StatusOK, h.taxService.History(), nil)
}

// SetTaxRates swaps the tax pipeline and recomputes the invoice totals
// @Summary      Set tax rates
// @Tags         tax
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      TaxRatesRequest  true  "Formula and rates"
// @Success      200      {object}  response.Response{data=model.Totals}
// @Failure      400      {object}  response.Response
// @Router       /api/tax [put]
func (h *TaxHandler) SetTaxRates(c *gin.Context) {
	var req TaxRatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	rates := model.TaxRates{Formula: req.Formula, WithholdingRate: *req.WithholdingRate, VATRate: *req.VATRate}
	totals, err := h.taxService.Apply(c.Request.Context(), rates)
	if respond(c, http.StatusOK, totals, err) {
		h.events.Publish(websocket.EventInvoiceUpdated, totals)
	}
}
