package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openpos/backend/internal/domain/billing"
)

// Numeric fields transit as strings at the API boundary: quantities,
// prices and discounts arrive as strings (an in-progress form may hold
// partial text) and totals leave as fixed 2-decimal strings. All internal
// computation stays decimal.

// parseAmount coerces a boundary string to a decimal. Malformed, empty
// and negative input all coerce to zero rather than failing.
func parseAmount(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// fixed renders a decimal as a fixed 2-decimal string for responses
func fixed(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// ==================== Invoice DTOs ====================

// CreateInvoiceRequest represents a request to create an invoice
type CreateInvoiceRequest struct {
	InvoiceNumber string                   `json:"invoice_number"` // generated when empty
	CustomerID    uuid.UUID                `json:"customer_id" binding:"required"`
	CustomerName  string                   `json:"customer_name" binding:"required"`
	InvoiceDate   *time.Time               `json:"invoice_date"`
	Remark        string                   `json:"remark"`
	Lines         []CreateInvoiceLineInput `json:"lines" binding:"required,min=1,dive"`
}

// CreateInvoiceLineInput represents a line in the create invoice request
type CreateInvoiceLineInput struct {
	ProductID     uuid.UUID `json:"product_id" binding:"required"`
	ProductName   string    `json:"product_name" binding:"required"`
	ProductSKU    string    `json:"product_sku"`
	UnitID        uuid.UUID `json:"unit_id"`
	UnitName      string    `json:"unit_name"`
	Quantity      string    `json:"quantity" binding:"required"`
	UnitPrice     string    `json:"unit_price" binding:"required"`
	DiscountType  string    `json:"discount_type" binding:"omitempty,discounttype"`
	DiscountValue string    `json:"discount_value"`
}

// InvoiceListFilter represents filter options for the invoice list
type InvoiceListFilter struct {
	Search     string     `form:"search"`
	CustomerID *uuid.UUID `form:"customer_id"`
	Status     *string    `form:"status" binding:"omitempty,oneof=ACTIVE POSTED"`
	StartDate  *time.Time `form:"start_date"`
	EndDate    *time.Time `form:"end_date"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID            uuid.UUID             `json:"id"`
	InvoiceNumber string                `json:"invoice_number"`
	CustomerID    uuid.UUID             `json:"customer_id"`
	CustomerName  string                `json:"customer_name"`
	InvoiceDate   time.Time             `json:"invoice_date"`
	Status        string                `json:"status"`
	Lines         []InvoiceLineResponse `json:"lines"`
	LineCount     int                   `json:"line_count"`
	TotalQuantity string                `json:"total_quantity"`
	TotalPrice    string                `json:"total_price"`
	TotalDiscount string                `json:"total_discount"`
	GrandTotal    string                `json:"grand_total"`
	Remark        string                `json:"remark,omitempty"`
	PostedAt      *time.Time            `json:"posted_at,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	Version       int                   `json:"version"`
}

// InvoiceLineResponse represents an invoice line in API responses
type InvoiceLineResponse struct {
	ID            uuid.UUID `json:"id"`
	ProductID     uuid.UUID `json:"product_id"`
	ProductName   string    `json:"product_name"`
	ProductSKU    string    `json:"product_sku,omitempty"`
	UnitID        uuid.UUID `json:"unit_id"`
	UnitName      string    `json:"unit_name,omitempty"`
	Quantity      string    `json:"quantity"`
	UnitPrice     string    `json:"unit_price"`
	DiscountType  string    `json:"discount_type"`
	DiscountValue string    `json:"discount_value"`
	TotalAmount   string    `json:"total_amount"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// InvoiceListItemResponse represents an invoice in list responses (less detail)
type InvoiceListItemResponse struct {
	ID            uuid.UUID  `json:"id"`
	InvoiceNumber string     `json:"invoice_number"`
	CustomerID    uuid.UUID  `json:"customer_id"`
	CustomerName  string     `json:"customer_name"`
	InvoiceDate   time.Time  `json:"invoice_date"`
	Status        string     `json:"status"`
	LineCount     int        `json:"line_count"`
	GrandTotal    string     `json:"grand_total"`
	PostedAt      *time.Time `json:"posted_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ==================== Invoice Return DTOs ====================

// CreateReturnRequest represents a request to create an invoice return
type CreateReturnRequest struct {
	InvoiceID  uuid.UUID         `json:"invoice_id" binding:"required"`
	ReturnDate *time.Time        `json:"return_date"`
	Remark     string            `json:"remark"`
	Lines      []ReturnLineInput `json:"lines" binding:"required,min=1,dive"`
}

// ReturnLineInput represents a line in a create/update return request.
// Discount fields default to the matched invoice line's values when empty.
type ReturnLineInput struct {
	ProductID     uuid.UUID `json:"product_id" binding:"required"`
	Quantity      string    `json:"quantity" binding:"required"`
	DiscountType  string    `json:"discount_type" binding:"omitempty,discounttype"`
	DiscountValue *string   `json:"discount_value"`
}

// UpdateReturnRequest represents a request to update a return draft.
// When Lines is present the draft's line collection is replaced wholesale.
type UpdateReturnRequest struct {
	ReturnDate *time.Time         `json:"return_date"`
	Remark     *string            `json:"remark"`
	Lines      *[]ReturnLineInput `json:"lines" binding:"omitempty,dive"`
}

// ReturnListFilter represents filter options for the return list
type ReturnListFilter struct {
	Search     string     `form:"search"`
	InvoiceID  *uuid.UUID `form:"invoice_id"`
	CustomerID *uuid.UUID `form:"customer_id"`
	Status     *string    `form:"status" binding:"omitempty,oneof=ACTIVE POSTED"`
	StartDate  *time.Time `form:"start_date"`
	EndDate    *time.Time `form:"end_date"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ReturnResponse represents an invoice return in API responses
type ReturnResponse struct {
	ID            uuid.UUID            `json:"id"`
	ReturnNumber  string               `json:"return_number"`
	InvoiceID     uuid.UUID            `json:"invoice_id"`
	InvoiceNumber string               `json:"invoice_number"`
	CustomerID    uuid.UUID            `json:"customer_id"`
	CustomerName  string               `json:"customer_name"`
	ReturnDate    time.Time            `json:"return_date"`
	Status        string               `json:"status"`
	Lines         []ReturnLineResponse `json:"lines"`
	LineCount     int                  `json:"line_count"`
	TotalQuantity string               `json:"total_quantity"`
	TotalPrice    string               `json:"total_price"`
	TotalDiscount string               `json:"total_discount"`
	GrandTotal    string               `json:"grand_total"`
	Remark        string               `json:"remark,omitempty"`
	PostedAt      *time.Time           `json:"posted_at,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
	Version       int                  `json:"version"`
}

// ReturnLineResponse represents a return line in API responses
type ReturnLineResponse struct {
	ID            uuid.UUID `json:"id"`
	ProductID     uuid.UUID `json:"product_id"`
	ProductName   string    `json:"product_name"`
	ProductSKU    string    `json:"product_sku,omitempty"`
	UnitID        uuid.UUID `json:"unit_id"`
	UnitName      string    `json:"unit_name,omitempty"`
	Quantity      string    `json:"quantity"`
	Price         string    `json:"price"`
	DiscountType  string    `json:"discount_type"`
	DiscountValue string    `json:"discount_value"`
	TotalAmount   string    `json:"total_amount"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ReturnListItemResponse represents a return in list responses (less detail)
type ReturnListItemResponse struct {
	ID            uuid.UUID  `json:"id"`
	ReturnNumber  string     `json:"return_number"`
	InvoiceID     uuid.UUID  `json:"invoice_id"`
	InvoiceNumber string     `json:"invoice_number"`
	CustomerID    uuid.UUID  `json:"customer_id"`
	CustomerName  string     `json:"customer_name"`
	ReturnDate    time.Time  `json:"return_date"`
	Status        string     `json:"status"`
	LineCount     int        `json:"line_count"`
	GrandTotal    string     `json:"grand_total"`
	PostedAt      *time.Time `json:"posted_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ReturnableLineResponse reports, per invoice line, how much of a product
// is still eligible for return. MaxSelectable is the quantity-input ceiling
// (availability plus the edited return's own quantity, when editing).
type ReturnableLineResponse struct {
	ProductID             uuid.UUID `json:"product_id"`
	ProductName           string    `json:"product_name"`
	ProductSKU            string    `json:"product_sku,omitempty"`
	UnitID                uuid.UUID `json:"unit_id"`
	UnitName              string    `json:"unit_name,omitempty"`
	UnitPrice             string    `json:"unit_price"`
	DiscountType          string    `json:"discount_type"`
	DiscountValue         string    `json:"discount_value"`
	OriginalQuantity      string    `json:"original_quantity"`
	ReturnedQuantity      string    `json:"returned_quantity"`
	CurrentReturnQuantity string    `json:"current_return_quantity"`
	AvailableQuantity     string    `json:"available_quantity"`
	MaxSelectable         string    `json:"max_selectable"`
}

// ==================== Converters ====================

// ToInvoiceResponse converts a domain Invoice to a response DTO
func ToInvoiceResponse(inv *billing.Invoice) InvoiceResponse {
	lines := make([]InvoiceLineResponse, len(inv.Lines))
	for i := range inv.Lines {
		lines[i] = ToInvoiceLineResponse(&inv.Lines[i])
	}

	return InvoiceResponse{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		CustomerID:    inv.CustomerID,
		CustomerName:  inv.CustomerName,
		InvoiceDate:   inv.InvoiceDate,
		Status:        string(inv.Status),
		Lines:         lines,
		LineCount:     inv.LineCount(),
		TotalQuantity: fixed(inv.TotalQuantity),
		TotalPrice:    fixed(inv.TotalPrice),
		TotalDiscount: fixed(inv.TotalDiscount),
		GrandTotal:    fixed(inv.GrandTotal),
		Remark:        inv.Remark,
		PostedAt:      inv.PostedAt,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
		Version:       inv.Version,
	}
}

// ToInvoiceLineResponse converts a domain InvoiceLineItem to a response DTO
func ToInvoiceLineResponse(line *billing.InvoiceLineItem) InvoiceLineResponse {
	return InvoiceLineResponse{
		ID:            line.ID,
		ProductID:     line.ProductID,
		ProductName:   line.ProductName,
		ProductSKU:    line.ProductSKU,
		UnitID:        line.UnitID,
		UnitName:      line.UnitName,
		Quantity:      fixed(line.Quantity),
		UnitPrice:     fixed(line.UnitPrice),
		DiscountType:  string(line.DiscountType),
		DiscountValue: fixed(line.DiscountValue),
		TotalAmount:   fixed(line.TotalAmount),
		CreatedAt:     line.CreatedAt,
		UpdatedAt:     line.UpdatedAt,
	}
}

// ToInvoiceListItemResponse converts a domain Invoice to a list response DTO
func ToInvoiceListItemResponse(inv *billing.Invoice) InvoiceListItemResponse {
	return InvoiceListItemResponse{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		CustomerID:    inv.CustomerID,
		CustomerName:  inv.CustomerName,
		InvoiceDate:   inv.InvoiceDate,
		Status:        string(inv.Status),
		LineCount:     inv.LineCount(),
		GrandTotal:    fixed(inv.GrandTotal),
		PostedAt:      inv.PostedAt,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
}

// ToInvoiceListItemResponses converts a slice of domain invoices to list responses
func ToInvoiceListItemResponses(invoices []billing.Invoice) []InvoiceListItemResponse {
	responses := make([]InvoiceListItemResponse, len(invoices))
	for i := range invoices {
		responses[i] = ToInvoiceListItemResponse(&invoices[i])
	}
	return responses
}

// ToReturnResponse converts a domain InvoiceReturn to a response DTO
func ToReturnResponse(ret *billing.InvoiceReturn) ReturnResponse {
	lines := make([]ReturnLineResponse, len(ret.Lines))
	for i := range ret.Lines {
		lines[i] = ToReturnLineResponse(&ret.Lines[i])
	}

	return ReturnResponse{
		ID:            ret.ID,
		ReturnNumber:  ret.ReturnNumber,
		InvoiceID:     ret.InvoiceID,
		InvoiceNumber: ret.InvoiceNumber,
		CustomerID:    ret.CustomerID,
		CustomerName:  ret.CustomerName,
		ReturnDate:    ret.ReturnDate,
		Status:        string(ret.Status),
		Lines:         lines,
		LineCount:     ret.LineCount(),
		TotalQuantity: fixed(ret.TotalQuantity),
		TotalPrice:    fixed(ret.TotalPrice),
		TotalDiscount: fixed(ret.TotalDiscount),
		GrandTotal:    fixed(ret.GrandTotal),
		Remark:        ret.Remark,
		PostedAt:      ret.PostedAt,
		CreatedAt:     ret.CreatedAt,
		UpdatedAt:     ret.UpdatedAt,
		Version:       ret.Version,
	}
}

// ToReturnLineResponse converts a domain InvoiceReturnLine to a response DTO
func ToReturnLineResponse(line *billing.InvoiceReturnLine) ReturnLineResponse {
	return ReturnLineResponse{
		ID:            line.ID,
		ProductID:     line.ProductID,
		ProductName:   line.ProductName,
		ProductSKU:    line.ProductSKU,
		UnitID:        line.UnitID,
		UnitName:      line.UnitName,
		Quantity:      fixed(line.Quantity),
		Price:         fixed(line.Price),
		DiscountType:  string(line.DiscountType),
		DiscountValue: fixed(line.DiscountValue),
		TotalAmount:   fixed(line.TotalAmount),
		CreatedAt:     line.CreatedAt,
		UpdatedAt:     line.UpdatedAt,
	}
}

// ToReturnListItemResponse converts a domain InvoiceReturn to a list response DTO
func ToReturnListItemResponse(ret *billing.InvoiceReturn) ReturnListItemResponse {
	return ReturnListItemResponse{
		ID:            ret.ID,
		ReturnNumber:  ret.ReturnNumber,
		InvoiceID:     ret.InvoiceID,
		InvoiceNumber: ret.InvoiceNumber,
		CustomerID:    ret.CustomerID,
		CustomerName:  ret.CustomerName,
		ReturnDate:    ret.ReturnDate,
		Status:        string(ret.Status),
		LineCount:     ret.LineCount(),
		GrandTotal:    fixed(ret.GrandTotal),
		PostedAt:      ret.PostedAt,
		CreatedAt:     ret.CreatedAt,
		UpdatedAt:     ret.UpdatedAt,
	}
}

// ToReturnListItemResponses converts a slice of domain returns to list responses
func ToReturnListItemResponses(returns []billing.InvoiceReturn) []ReturnListItemResponse {
	responses := make([]ReturnListItemResponse, len(returns))
	for i := range returns {
		responses[i] = ToReturnListItemResponse(&returns[i])
	}
	return responses
}

// ToReturnableLineResponse converts a matched line and its availability to
// a response DTO
func ToReturnableLineResponse(m billing.MatchedLine) ReturnableLineResponse {
	avail := m.Availability()
	return ReturnableLineResponse{
		ProductID:             m.ProductID,
		ProductName:           m.ProductName,
		ProductSKU:            m.ProductSKU,
		UnitID:                m.UnitID,
		UnitName:              m.UnitName,
		UnitPrice:             fixed(m.UnitPrice),
		DiscountType:          string(m.DiscountType),
		DiscountValue:         fixed(m.DiscountValue),
		OriginalQuantity:      fixed(m.OriginalQuantity),
		ReturnedQuantity:      fixed(m.ReturnedQuantity),
		CurrentReturnQuantity: fixed(m.CurrentReturnQuantity),
		AvailableQuantity:     fixed(avail.Available),
		MaxSelectable:         fixed(avail.MaxSelectable),
	}
}

// ToReturnableLineResponses converts matched lines to response DTOs
func ToReturnableLineResponses(matched []billing.MatchedLine) []ReturnableLineResponse {
	responses := make([]ReturnableLineResponse, len(matched))
	for i := range matched {
		responses[i] = ToReturnableLineResponse(matched[i])
	}
	return responses
}
