package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/retailpos/backend/internal/application/identity"
)

// CompanyHandler serves the caller's own company and the platform company list
type CompanyHandler struct {
	BaseHandler
	companyService *identity.CompanyService
}

// NewCompanyHandler creates a new company handler
func NewCompanyHandler(companyService *identity.CompanyService) *CompanyHandler {
	return &CompanyHandler{companyService: companyService}
}

// CompanyListQuery is bound from the platform company list query string
type CompanyListQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search   string `form:"search"`
}

// Get godoc
// @ID           getCompany
// @Summary      Get own company
// @Tags         company
// @Produce      json
// @Success      200 {object} APIResponse[identity.CompanyResponse]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /company [get]
func (h *CompanyHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	resp, err := h.companyService.Get(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update godoc
// @ID           updateCompany
// @Summary      Update own company
// @Description  Updates the company profile, including the PIX key used on carnê slips
// @Tags         company
// @Accept       json
// @Produce      json
// @Param        request body identity.UpdateCompanyRequest true "Fields to change"
// @Success      200 {object} APIResponse[identity.CompanyResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /company [put]
func (h *CompanyHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var req identity.UpdateCompanyRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.companyService.Update(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List godoc
// @ID           listCompanies
// @Summary      List companies
// @Description  Platform operation guarded by the X-Platform-Key header
// @Tags         platform
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        search query string false "Name search"
// @Param        X-Platform-Key header string true "Platform API key"
// @Success      200 {object} APIResponse[[]identity.CompanyResponse]
// @Failure      403 {object} ErrorResponse
// @Router       /platform/companies [get]
func (h *CompanyHandler) List(c *gin.Context) {
	var q CompanyListQuery
	if !h.bindQuery(c, &q) {
		return
	}

	items, total, err := h.companyService.List(c.Request.Context(), q.Page, q.PageSize, q.Search)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, max(q.Page, 1), q.PageSize)
}

// Deactivate godoc
// @ID           deactivateCompany
// @Summary      Deactivate a company
// @Description  Platform operation. Every user of the company is locked out on the next request.
// @Tags         platform
// @Produce      json
// @Param        id path string true "Company ID" format(uuid)
// @Param        X-Platform-Key header string true "Platform API key"
// @Success      200 {object} APIResponse[MessageData]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /platform/companies/{id}/deactivate [post]
func (h *CompanyHandler) Deactivate(c *gin.Context) {
	companyID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.companyService.Deactivate(c.Request.Context(), companyID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, MessageData{Message: "Company deactivated"})
}
