package handler

import (
	"net/http"
	"time"

	"ledgerdesk/internal/model"
	"ledgerdesk/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
	now           func() time.Time
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService, now: time.Now}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/reports")
	{
		reports.GET("/sales", h.GetSalesReport)
		reports.GET("/inventory", h.GetInventoryReport)
	}
}

// GetSalesReport aggregates saved invoices by header date
// @Summary      Sales report
// @Description  Saved invoices dated within [from, to]. Defaults to the last 30 days.
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        from  query     string  false  "Start date (YYYY-MM-DD)"
// @Param        to    query     string  false  "End date (YYYY-MM-DD)"
// @Success      200   {object}  response.Response{data=model.SalesReport}
// @Failure      400   {object}  response.Response
// @Router       /api/reports/sales [get]
func (h *ReportHandler) GetSalesReport(c *gin.Context) {
	to := h.now()
	from := to.AddDate(0, 0, -30)

	var err error
	if v := c.Query("from"); v != "" {
		if from, err = time.Parse(model.DateLayout, v); err != nil {
			badRequest(c, "from must be YYYY-MM-DD")
			return
		}
	}
	if v := c.Query("to"); v != "" {
		if to, err = time.Parse(model.DateLayout, v); err != nil {
			badRequest(c, "to must be YYYY-MM-DD")
			return
		}
	}

	report, err := h.reportService.SalesReport(from, to)
	respond(c, http.StatusOK, report, err)
}

// GetInventoryReport returns stock levels, stock value and low-stock SKUs
// @Summary      Inventory report
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=model.InventoryReport}
// @Router       /api/reports/inventory [get]
func (h *ReportHandler) GetInventoryReport(c *gin.Context) {
	respond(c, http.StatusOK, h.reportService.InventoryReport(), nil)
}
