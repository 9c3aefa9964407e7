package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	appbilling "github.com/retailpos/backend/internal/application/billing"
)

// InstallmentHandler handles installments, their payments and PIX charges
type InstallmentHandler struct {
	BaseHandler
	installmentService *appbilling.InstallmentService
	pixService         *appbilling.PixChargeService
}

// NewInstallmentHandler creates a new InstallmentHandler. pixService may be nil
// when PIX is disabled.
func NewInstallmentHandler(installmentService *appbilling.InstallmentService, pixService *appbilling.PixChargeService) *InstallmentHandler {
	return &InstallmentHandler{
		installmentService: installmentService,
		pixService:         pixService,
	}
}

// List godoc
// @ID           listInstallments
// @Summary      List installments
// @Description  Status is derived from the payments on every read
// @Tags         installments
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        order_by query string false "Sort field" Enums(due_date, amount, number, created_at)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Param        customer_id query string false "Customer ID" format(uuid)
// @Param        sale_id query string false "Sale ID" format(uuid)
// @Param        status query string false "Status" Enums(pending, partial, paid, overdue, cancelled)
// @Param        due_from query string false "Due from (YYYY-MM-DD)"
// @Param        due_to query string false "Due to (YYYY-MM-DD)"
// @Param        overdue_only query bool false "Only past-due open installments"
// @Success      200 {object} APIResponse[[]appbilling.InstallmentResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /installments [get]
func (h *InstallmentHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var filter appbilling.InstallmentListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	if filter.CustomerID, ok = h.queryUUID(c, "customer_id"); !ok {
		return
	}
	if filter.SaleID, ok = h.queryUUID(c, "sale_id"); !ok {
		return
	}

	list, total, err := h.installmentService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, list, total, max(filter.Page, 1), filter.PageSize)
}

// GetByID godoc
// @ID           getInstallment
// @Summary      Get installment by ID
// @Description  Includes the payments booked against the installment
// @Tags         installments
// @Produce      json
// @Param        id path string true "Installment ID" format(uuid)
// @Success      200 {object} APIResponse[appbilling.InstallmentResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /installments/{id} [get]
func (h *InstallmentHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	installmentID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	inst, err := h.installmentService.GetByID(c.Request.Context(), tenantID, installmentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inst)
}

// RegisterPayment godoc
// @ID           registerInstallmentPayment
// @Summary      Register a payment
// @Description  Books a payment against one installment. Amounts above the remaining balance are rejected.
// @Tags         installments
// @Accept       json
// @Produce      json
// @Param        id path string true "Installment ID" format(uuid)
// @Param        Idempotency-Key header string false "Retry key"
// @Param        request body appbilling.RegisterPaymentRequest true "Payment"
// @Success      201 {object} APIResponse[appbilling.RegisterPaymentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /installments/{id}/payments [post]
func (h *InstallmentHandler) RegisterPayment(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	installmentID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	var req appbilling.RegisterPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.installmentService.RegisterPayment(c.Request.Context(), tenantID, userID, installmentID, req, c.GetHeader(IdempotencyKeyHeader))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// DeletePayment godoc
// @ID           deletePayment
// @Summary      Delete a payment
// @Description  Removes a payment and returns the installment with its recomputed status
// @Tags         installments
// @Produce      json
// @Param        id path string true "Payment ID" format(uuid)
// @Success      200 {object} APIResponse[appbilling.InstallmentResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/{id} [delete]
func (h *InstallmentHandler) DeletePayment(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	paymentID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	inst, err := h.installmentService.DeletePayment(c.Request.Context(), tenantID, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, inst)
}

// GeneratePix godoc
// @ID           generateInstallmentPix
// @Summary      PIX charge for an installment
// @Description  Returns a static BR Code for the installment's remaining balance, with a QR code image
// @Tags         installments
// @Produce      json
// @Param        id path string true "Installment ID" format(uuid)
// @Success      200 {object} APIResponse[appbilling.PixChargeResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /installments/{id}/pix [post]
func (h *InstallmentHandler) GeneratePix(c *gin.Context) {
	if h.pixService == nil {
		h.Error(c, http.StatusServiceUnavailable, "PIX_DISABLED", "PIX charges are not enabled")
		return
	}
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	installmentID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	charge, err := h.pixService.GenerateCharge(c.Request.Context(), tenantID, installmentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, charge)
}
