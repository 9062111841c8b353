package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	billingapp "github.com/openpos/backend/internal/application/billing"
)

// InvoiceReturnHandler handles invoice return API endpoints
type InvoiceReturnHandler struct {
	BaseHandler
	returnService *billingapp.InvoiceReturnService
}

// NewInvoiceReturnHandler creates a new InvoiceReturnHandler
func NewInvoiceReturnHandler(returnService *billingapp.InvoiceReturnService) *InvoiceReturnHandler {
	return &InvoiceReturnHandler{returnService: returnService}
}

// RegisterRoutes registers invoice return routes on the given group
func (h *InvoiceReturnHandler) RegisterRoutes(rg *gin.RouterGroup) {
	returns := rg.Group("/invoice-returns")
	{
		returns.POST("", h.Create)
		returns.GET("", h.List)
		returns.GET("/:id", h.GetByID)
		returns.GET("/number/:return_number", h.GetByReturnNumber)
		returns.PUT("/:id", h.Update)
		returns.DELETE("/:id", h.Delete)
		returns.DELETE("/:id/lines/:line_id", h.RemoveLine)
		returns.POST("/:id/post", h.Post)
	}
}

// Create handles POST /invoice-returns
func (h *InvoiceReturnHandler) Create(c *gin.Context) {
	var req billingapp.CreateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	ret, err := h.returnService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, ret)
}

// GetByID handles GET /invoice-returns/:id
func (h *InvoiceReturnHandler) GetByID(c *gin.Context) {
	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return ID format")
		return
	}

	ret, err := h.returnService.GetByID(c.Request.Context(), returnID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, ret)
}

// GetByReturnNumber handles GET /invoice-returns/number/:return_number
func (h *InvoiceReturnHandler) GetByReturnNumber(c *gin.Context) {
	returnNumber := c.Param("return_number")
	if returnNumber == "" {
		h.BadRequest(c, "Return number is required")
		return
	}

	ret, err := h.returnService.GetByReturnNumber(c.Request.Context(), returnNumber)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, ret)
}

// List handles GET /invoice-returns
func (h *InvoiceReturnHandler) List(c *gin.Context) {
	var filter billingapp.ReturnListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	returns, total, err := h.returnService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, returns, total, filter.Page, filter.PageSize)
}

// Update handles PUT /invoice-returns/:id. A provided line collection
// replaces the draft's lines wholesale.
func (h *InvoiceReturnHandler) Update(c *gin.Context) {
	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return ID format")
		return
	}

	var req billingapp.UpdateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	ret, err := h.returnService.Update(c.Request.Context(), returnID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, ret)
}

// RemoveLine handles DELETE /invoice-returns/:id/lines/:line_id
func (h *InvoiceReturnHandler) RemoveLine(c *gin.Context) {
	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return ID format")
		return
	}

	lineID, err := uuid.Parse(c.Param("line_id"))
	if err != nil {
		h.BadRequest(c, "Invalid line ID format")
		return
	}

	ret, err := h.returnService.RemoveLine(c.Request.Context(), returnID, lineID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, ret)
}

// Post handles POST /invoice-returns/:id/post
func (h *InvoiceReturnHandler) Post(c *gin.Context) {
	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return ID format")
		return
	}

	ret, err := h.returnService.Post(c.Request.Context(), returnID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, ret)
}

// Delete handles DELETE /invoice-returns/:id
func (h *InvoiceReturnHandler) Delete(c *gin.Context) {
	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return ID format")
		return
	}

	if err := h.returnService.Delete(c.Request.Context(), returnID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}
