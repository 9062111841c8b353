package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/openpos/backend/internal/domain/billing"
	"github.com/openpos/backend/internal/domain/shared"
)

// InvoiceReturnService handles invoice return business operations. All
// availability math goes through the reconciliation functions in the
// billing domain: the service only loads the invoice and its prior
// returns and persists the outcome.
type InvoiceReturnService struct {
	returnRepo  billing.InvoiceReturnRepository
	invoiceRepo billing.InvoiceRepository
}

// NewInvoiceReturnService creates a new InvoiceReturnService
func NewInvoiceReturnService(
	returnRepo billing.InvoiceReturnRepository,
	invoiceRepo billing.InvoiceRepository,
) *InvoiceReturnService {
	return &InvoiceReturnService{
		returnRepo:  returnRepo,
		invoiceRepo: invoiceRepo,
	}
}

// matchInvoiceLines loads an invoice's prior returns and reconciles them
// against its lines. excludeReturnID identifies the return being edited;
// pass uuid.Nil when creating a new one.
func (s *InvoiceReturnService) matchInvoiceLines(ctx context.Context, invoice *billing.Invoice, excludeReturnID uuid.UUID) ([]billing.MatchedLine, error) {
	priors, err := s.returnRepo.FindByInvoice(ctx, invoice.ID)
	if err != nil {
		return nil, err
	}
	return billing.MatchLines(invoice.Lines, priors, excludeReturnID), nil
}

// GetReturnableLines reports per-product availability for an invoice.
// When excludeReturnID is non-nil the quantities of that return are added
// back to each line's selection ceiling (the edit case).
func (s *InvoiceReturnService) GetReturnableLines(ctx context.Context, invoiceID uuid.UUID, excludeReturnID uuid.UUID) ([]ReturnableLineResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	matched, err := s.matchInvoiceLines(ctx, invoice, excludeReturnID)
	if err != nil {
		return nil, err
	}

	return ToReturnableLineResponses(matched), nil
}

// applyLineInputs adds request lines to a return draft, validating each
// against its matched ceiling. Discount fields default to the invoice
// line's values when the input leaves them unset.
func applyLineInputs(ret *billing.InvoiceReturn, matched []billing.MatchedLine, inputs []ReturnLineInput) error {
	byProduct := make(map[uuid.UUID]billing.MatchedLine, len(matched))
	for _, m := range matched {
		byProduct[m.ProductID] = m
	}

	for _, input := range inputs {
		m, ok := byProduct[input.ProductID]
		if !ok {
			return shared.NewDomainError("PRODUCT_NOT_ON_INVOICE", "Product is not on the original invoice")
		}

		quantity := parseAmount(input.Quantity)
		if quantity.IsZero() {
			// zero quantity means "not returned"; skip rather than fail
			continue
		}

		discountType := m.DiscountType
		if input.DiscountType != "" {
			discountType = billing.DiscountType(input.DiscountType)
		}
		discountValue := m.DiscountValue
		if input.DiscountValue != nil {
			discountValue = parseAmount(*input.DiscountValue)
		}

		if _, err := ret.AddLine(m, quantity, discountType, discountValue); err != nil {
			return err
		}
	}

	return nil
}

// Create creates a new return draft against an invoice
func (s *InvoiceReturnService) Create(ctx context.Context, req CreateReturnRequest) (*ReturnResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, req.InvoiceID)
	if err != nil {
		return nil, err
	}

	matched, err := s.matchInvoiceLines(ctx, invoice, uuid.Nil)
	if err != nil {
		return nil, err
	}

	returnNumber, err := s.returnRepo.GenerateReturnNumber(ctx)
	if err != nil {
		return nil, err
	}

	ret, err := billing.NewInvoiceReturn(returnNumber, invoice, timeOrZero(req.ReturnDate))
	if err != nil {
		return nil, err
	}

	if err := applyLineInputs(ret, matched, req.Lines); err != nil {
		return nil, err
	}
	if err := billing.ValidateReturnLines(ret.Lines); err != nil {
		return nil, err
	}

	if req.Remark != "" {
		if err := ret.SetRemark(req.Remark); err != nil {
			return nil, err
		}
	}

	if err := s.returnRepo.Save(ctx, ret); err != nil {
		return nil, err
	}

	response := ToReturnResponse(ret)
	return &response, nil
}

// Update updates a return draft. A provided line collection replaces the
// draft's lines wholesale; ceilings are re-derived with this return's own
// persisted quantities added back.
func (s *InvoiceReturnService) Update(ctx context.Context, returnID uuid.UUID, req UpdateReturnRequest) (*ReturnResponse, error) {
	ret, err := s.returnRepo.FindByID(ctx, returnID)
	if err != nil {
		return nil, err
	}

	if !ret.CanModify() {
		return nil, shared.NewDomainError(billing.ErrCodeRecordLocked, "Return can only be modified while active")
	}

	if req.Lines != nil {
		invoice, err := s.invoiceRepo.FindByID(ctx, ret.InvoiceID)
		if err != nil {
			return nil, err
		}

		matched, err := s.matchInvoiceLines(ctx, invoice, ret.ID)
		if err != nil {
			return nil, err
		}

		if err := ret.ClearLines(); err != nil {
			return nil, err
		}
		if err := applyLineInputs(ret, matched, *req.Lines); err != nil {
			return nil, err
		}
		if err := billing.ValidateReturnLines(ret.Lines); err != nil {
			return nil, err
		}
	}

	if req.ReturnDate != nil {
		if err := ret.SetReturnDate(*req.ReturnDate); err != nil {
			return nil, err
		}
	}
	if req.Remark != nil {
		if err := ret.SetRemark(*req.Remark); err != nil {
			return nil, err
		}
	}

	if err := s.returnRepo.SaveWithLock(ctx, ret); err != nil {
		return nil, err
	}

	response := ToReturnResponse(ret)
	return &response, nil
}

// RemoveLine removes a line from a return draft
func (s *InvoiceReturnService) RemoveLine(ctx context.Context, returnID, lineID uuid.UUID) (*ReturnResponse, error) {
	ret, err := s.returnRepo.FindByID(ctx, returnID)
	if err != nil {
		return nil, err
	}

	if err := ret.RemoveLine(lineID); err != nil {
		return nil, err
	}

	if err := s.returnRepo.SaveWithLock(ctx, ret); err != nil {
		return nil, err
	}

	response := ToReturnResponse(ret)
	return &response, nil
}

// GetByID retrieves a return by ID
func (s *InvoiceReturnService) GetByID(ctx context.Context, returnID uuid.UUID) (*ReturnResponse, error) {
	ret, err := s.returnRepo.FindByID(ctx, returnID)
	if err != nil {
		return nil, err
	}
	response := ToReturnResponse(ret)
	return &response, nil
}

// GetByReturnNumber retrieves a return by return number
func (s *InvoiceReturnService) GetByReturnNumber(ctx context.Context, returnNumber string) (*ReturnResponse, error) {
	ret, err := s.returnRepo.FindByReturnNumber(ctx, returnNumber)
	if err != nil {
		return nil, err
	}
	response := ToReturnResponse(ret)
	return &response, nil
}

// List retrieves returns with filtering and pagination
func (s *InvoiceReturnService) List(ctx context.Context, filter ReturnListFilter) ([]ReturnListItemResponse, int64, error) {
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

	if filter.InvoiceID != nil {
		domainFilter.Filters["invoice_id"] = *filter.InvoiceID
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

	returns, err := s.returnRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.returnRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToReturnListItemResponses(returns), total, nil
}

// ListByInvoice retrieves all returns recorded against an invoice
func (s *InvoiceReturnService) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]ReturnListItemResponse, error) {
	returns, err := s.returnRepo.FindByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return ToReturnListItemResponses(returns), nil
}

// Post posts a return, locking it against further edits
func (s *InvoiceReturnService) Post(ctx context.Context, returnID uuid.UUID) (*ReturnResponse, error) {
	ret, err := s.returnRepo.FindByID(ctx, returnID)
	if err != nil {
		return nil, err
	}

	if err := ret.Post(); err != nil {
		return nil, err
	}

	if err := s.returnRepo.SaveWithLock(ctx, ret); err != nil {
		return nil, err
	}

	response := ToReturnResponse(ret)
	return &response, nil
}

// Delete deletes a return (only allowed while ACTIVE)
func (s *InvoiceReturnService) Delete(ctx context.Context, returnID uuid.UUID) error {
	ret, err := s.returnRepo.FindByID(ctx, returnID)
	if err != nil {
		return err
	}

	if !ret.IsActive() {
		return shared.NewDomainError(billing.ErrCodeRecordLocked, "Only active returns can be deleted")
	}

	return s.returnRepo.Delete(ctx, returnID)
}
