package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/openpos/backend/internal/domain/billing"
	"github.com/openpos/backend/internal/domain/shared"
)

// InvoiceService handles invoice business operations
type InvoiceService struct {
	invoiceRepo billing.InvoiceRepository
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(invoiceRepo billing.InvoiceRepository) *InvoiceService {
	return &InvoiceService{invoiceRepo: invoiceRepo}
}

// Create creates a new invoice with its lines
func (s *InvoiceService) Create(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	invoiceNumber := req.InvoiceNumber
	if invoiceNumber == "" {
		var err error
		invoiceNumber, err = s.invoiceRepo.GenerateInvoiceNumber(ctx)
		if err != nil {
			return nil, err
		}
	} else {
		exists, err := s.invoiceRepo.ExistsByInvoiceNumber(ctx, invoiceNumber)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError("DUPLICATE_INVOICE_NUMBER", "Invoice number already exists")
		}
	}

	var invoiceDate = timeOrZero(req.InvoiceDate)
	inv, err := billing.NewInvoice(invoiceNumber, req.CustomerID, req.CustomerName, invoiceDate)
	if err != nil {
		return nil, err
	}

	for _, line := range req.Lines {
		discountType := billing.DiscountType(line.DiscountType)
		if line.DiscountType == "" {
			discountType = billing.DiscountTypeFixed
		}
		_, err := inv.AddLine(
			line.ProductID,
			line.ProductName,
			line.ProductSKU,
			line.UnitID,
			line.UnitName,
			parseAmount(line.Quantity),
			parseAmount(line.UnitPrice),
			discountType,
			parseAmount(line.DiscountValue),
		)
		if err != nil {
			return nil, err
		}
	}

	if req.Remark != "" {
		inv.SetRemark(req.Remark)
	}

	if err := s.invoiceRepo.Save(ctx, inv); err != nil {
		return nil, err
	}

	response := ToInvoiceResponse(inv)
	return &response, nil
}

// GetByID retrieves an invoice by ID
func (s *InvoiceService) GetByID(ctx context.Context, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	response := ToInvoiceResponse(inv)
	return &response, nil
}

// GetByInvoiceNumber retrieves an invoice by invoice number
func (s *InvoiceService) GetByInvoiceNumber(ctx context.Context, invoiceNumber string) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByInvoiceNumber(ctx, invoiceNumber)
	if err != nil {
		return nil, err
	}
	response := ToInvoiceResponse(inv)
	return &response, nil
}

// List retrieves invoices with filtering and pagination
func (s *InvoiceService) List(ctx context.Context, filter InvoiceListFilter) ([]InvoiceListItemResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]any),
	}

	if filter.CustomerID != nil {
		domainFilter.Filters["customer_id"] = *filter.CustomerID
	}
	if filter.Status != nil {
		domainFilter.Filters["status"] = *filter.Status
	}
	if filter.StartDate != nil {
		domainFilter.Filters["start_date"] = *filter.StartDate
	}
	if filter.EndDate != nil {
		domainFilter.Filters["end_date"] = *filter.EndDate
	}

	invoices, err := s.invoiceRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.invoiceRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToInvoiceListItemResponses(invoices), total, nil
}

// Post posts an invoice, locking it against further edits
func (s *InvoiceService) Post(ctx context.Context, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	if err := inv.Post(); err != nil {
		return nil, err
	}

	if err := s.invoiceRepo.SaveWithLock(ctx, inv); err != nil {
		return nil, err
	}

	response := ToInvoiceResponse(inv)
	return &response, nil
}

// Delete deletes an invoice (only allowed while ACTIVE)
func (s *InvoiceService) Delete(ctx context.Context, invoiceID uuid.UUID) error {
	inv, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return err
	}

	if !inv.IsActive() {
		return shared.NewDomainError(billing.ErrCodeRecordLocked, "Only active invoices can be deleted")
	}

	return s.invoiceRepo.Delete(ctx, invoiceID)
}
