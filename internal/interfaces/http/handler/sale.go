package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/application/printing"
	"github.com/retailpos/backend/internal/application/sales"
)

// SaleHandler handles sale-related HTTP requests
type SaleHandler struct {
	BaseHandler
	saleService     *sales.SaleService
	documentService *printing.DocumentService
}

// NewSaleHandler creates a new SaleHandler. documentService may be nil when
// document printing is disabled.
func NewSaleHandler(saleService *sales.SaleService, documentService *printing.DocumentService) *SaleHandler {
	return &SaleHandler{
		saleService:     saleService,
		documentService: documentService,
	}
}

// Create godoc
// @ID           createSale
// @Summary      Register a sale
// @Description  Records a sale, decrements stock and, for installment sales, generates the installment plan
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        request body sales.CreateSaleRequest true "Sale"
// @Success      201 {object} APIResponse[sales.SaleResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales [post]
func (h *SaleHandler) Create(c *gin.Context) {
	tenantID, sellerID, ok := h.identity(c)
	if !ok {
		return
	}

	var req sales.CreateSaleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	sale, err := h.saleService.CreateSale(c.Request.Context(), tenantID, sellerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sale)
}

// GetByID godoc
// @ID           getSale
// @Summary      Get sale by ID
// @Tags         sales
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Success      200 {object} APIResponse[sales.SaleResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/{id} [get]
func (h *SaleHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	saleID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	sale, err := h.saleService.GetSale(c.Request.Context(), tenantID, saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// GetByNumber godoc
// @ID           getSaleByNumber
// @Summary      Get sale by number
// @Tags         sales
// @Produce      json
// @Param        number path string true "Sale number"
// @Success      200 {object} APIResponse[sales.SaleResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/number/{number} [get]
func (h *SaleHandler) GetByNumber(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	sale, err := h.saleService.GetSaleByNumber(c.Request.Context(), tenantID, c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// List godoc
// @ID           listSales
// @Summary      List sales
// @Tags         sales
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        order_by query string false "Sort field" Enums(sold_at, total, sale_number, created_at)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Param        search query string false "Sale number search"
// @Param        customer_id query string false "Customer ID" format(uuid)
// @Param        seller_id query string false "Seller ID" format(uuid)
// @Param        payment_method query string false "Payment method" Enums(cash, debit_card, credit_card, pix, installment)
// @Param        status query string false "Status" Enums(completed, cancelled)
// @Param        from query string false "From date (YYYY-MM-DD)"
// @Param        to query string false "To date (YYYY-MM-DD)"
// @Success      200 {object} APIResponse[[]sales.SaleListResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales [get]
func (h *SaleHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var filter sales.SaleListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	if filter.CustomerID, ok = h.queryUUID(c, "customer_id"); !ok {
		return
	}
	if filter.SellerID, ok = h.queryUUID(c, "seller_id"); !ok {
		return
	}

	list, total, err := h.saleService.ListSales(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, list, total, max(filter.Page, 1), filter.PageSize)
}

// GetInstallments godoc
// @ID           getSaleInstallments
// @Summary      Installments of a sale
// @Tags         sales
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Success      200 {object} APIResponse[[]appbilling.InstallmentResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/{id}/installments [get]
func (h *SaleHandler) GetInstallments(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	saleID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	installments, err := h.saleService.GetSaleInstallments(c.Request.Context(), tenantID, saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, installments)
}

// Cancel godoc
// @ID           cancelSale
// @Summary      Cancel a sale
// @Description  Restocks the items and cancels open installments. Sales with payments cannot be cancelled.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Param        request body sales.CancelSaleRequest true "Reason"
// @Success      200 {object} APIResponse[sales.SaleResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/{id}/cancel [post]
func (h *SaleHandler) Cancel(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	saleID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	var req sales.CancelSaleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	sale, err := h.saleService.CancelSale(c.Request.Context(), tenantID, saleID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// Carne godoc
// @ID           getSaleCarne
// @Summary      Installment booklet
// @Description  Renders the carnê of an installment sale, one slip per installment with its PIX code
// @Tags         sales
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Param        format query string false "Output format" Enums(pdf, html) default(pdf)
// @Success      200 {object} APIResponse[printing.DocumentResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/{id}/carne [get]
func (h *SaleHandler) Carne(c *gin.Context) {
	h.document(c, h.documentService.Carne)
}

// Receipt godoc
// @ID           getSaleReceipt
// @Summary      Sale receipt
// @Tags         sales
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Param        format query string false "Output format" Enums(pdf, html) default(pdf)
// @Success      200 {object} APIResponse[printing.DocumentResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/{id}/receipt [get]
func (h *SaleHandler) Receipt(c *gin.Context) {
	h.document(c, h.documentService.Receipt)
}

type documentFunc func(ctx context.Context, tenantID, saleID uuid.UUID, req printing.DocumentRequest) (*printing.DocumentResponse, error)

func (h *SaleHandler) document(c *gin.Context, render documentFunc) {
	if h.documentService == nil {
		h.Error(c, http.StatusServiceUnavailable, "PRINTING_DISABLED", "Document printing is not enabled")
		return
	}
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	saleID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	var req printing.DocumentRequest
	if !h.bindQuery(c, &req) {
		return
	}

	doc, err := render(c.Request.Context(), tenantID, saleID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}
