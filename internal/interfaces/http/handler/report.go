package handler

import (
	"github.com/gin-gonic/gin"
	appreport "github.com/retailpos/backend/internal/application/report"
	"github.com/retailpos/backend/internal/domain/report"
)

// ReportHandler serves the financial and sales reports
type ReportHandler struct {
	BaseHandler
	reportService *appreport.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *appreport.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// Overdue godoc
// @ID           getOverdueReport
// @Summary      Overdue installments
// @Description  Open installments past due, with days overdue, grouped totals per customer
// @Tags         reports
// @Produce      json
// @Param        as_of query string false "Reference date (YYYY-MM-DD)"
// @Param        customer_id query string false "Customer ID" format(uuid)
// @Success      200 {object} APIResponse[report.OverdueReport]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reports/overdue [get]
func (h *ReportHandler) Overdue(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var filter appreport.OverdueFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	if filter.CustomerID, ok = h.queryUUID(c, "customer_id"); !ok {
		return
	}

	result, err := h.reportService.Overdue(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// CustomerDebts godoc
// @ID           getCustomerDebtsReport
// @Summary      Customers ranked by outstanding debt
// @Tags         reports
// @Produce      json
// @Param        limit query int false "Maximum customers" default(50)
// @Success      200 {object} APIResponse[appreport.CustomerDebtReport]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reports/customer-debts [get]
func (h *ReportHandler) CustomerDebts(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var filter appreport.CustomerDebtFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	result, err := h.reportService.CustomerDebts(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// SalesSummary godoc
// @ID           getSalesSummaryReport
// @Summary      Sales summary
// @Description  Totals per payment method and per day. Defaults to the current month.
// @Tags         reports
// @Produce      json
// @Param        from query string false "From date (YYYY-MM-DD)"
// @Param        to query string false "To date (YYYY-MM-DD)"
// @Success      200 {object} APIResponse[report.SalesSummary]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reports/sales-summary [get]
func (h *ReportHandler) SalesSummary(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var filter appreport.PeriodFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	result, err := h.reportService.SalesSummary(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Profit godoc
// @ID           getProfitReport
// @Summary      Gross profit
// @Description  Revenue, cost and margin of completed sales with the most profitable products
// @Tags         reports
// @Produce      json
// @Param        from query string false "From date (YYYY-MM-DD)"
// @Param        to query string false "To date (YYYY-MM-DD)"
// @Param        top query int false "Products to rank" default(10)
// @Success      200 {object} APIResponse[report.ProfitReport]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reports/profit [get]
func (h *ReportHandler) Profit(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var filter appreport.ProfitFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	result, err := h.reportService.Profit(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Receivables godoc
// @ID           getReceivablesReport
// @Summary      Receivables summary
// @Description  Outstanding and overdue balances plus what was received and what falls due in the period
// @Tags         reports
// @Produce      json
// @Param        from query string false "From date (YYYY-MM-DD)"
// @Param        to query string false "To date (YYYY-MM-DD)"
// @Success      200 {object} APIResponse[report.ReceivablesSummary]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reports/receivables [get]
func (h *ReportHandler) Receivables(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var filter appreport.PeriodFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	result, err := h.reportService.Receivables(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Dashboard godoc
// @ID           getDashboard
// @Summary      Dashboard
// @Description  Today's sales, open receivables and low-stock count
// @Tags         reports
// @Produce      json
// @Success      200 {object} APIResponse[report.Dashboard]
// @Security     BearerAuth
// @Router       /reports/dashboard [get]
func (h *ReportHandler) Dashboard(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	result, err := h.reportService.Dashboard(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Snapshot godoc
// @ID           getReportSnapshot
// @Summary      Latest report snapshot
// @Description  The report as persisted by the last scheduled refresh
// @Tags         reports
// @Produce      json
// @Param        kind path string true "Snapshot kind" Enums(dashboard, receivables)
// @Success      200 {object} APIResponse[appreport.SnapshotResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reports/snapshots/{kind} [get]
func (h *ReportHandler) Snapshot(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	kind := report.SnapshotKind(c.Param("kind"))
	switch kind {
	case report.SnapshotDashboard, report.SnapshotReceivables:
	default:
		h.BadRequest(c, "Unknown snapshot kind")
		return
	}

	result, err := h.reportService.Snapshot(c.Request.Context(), tenantID, kind)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
