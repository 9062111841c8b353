package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/openpos/backend/internal/domain/billing"
	"github.com/openpos/backend/internal/domain/shared"
)

// MockInvoiceReturnRepository is a mock implementation of InvoiceReturnRepository
type MockInvoiceReturnRepository struct {
	mock.Mock
}

func (m *MockInvoiceReturnRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.InvoiceReturn, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.InvoiceReturn), args.Error(1)
}

func (m *MockInvoiceReturnRepository) FindByReturnNumber(ctx context.Context, returnNumber string) (*billing.InvoiceReturn, error) {
	args := m.Called(ctx, returnNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.InvoiceReturn), args.Error(1)
}

func (m *MockInvoiceReturnRepository) FindAll(ctx context.Context, filter shared.Filter) ([]billing.InvoiceReturn, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.InvoiceReturn), args.Error(1)
}

func (m *MockInvoiceReturnRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]billing.InvoiceReturn, error) {
	args := m.Called(ctx, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.InvoiceReturn), args.Error(1)
}

func (m *MockInvoiceReturnRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]billing.InvoiceReturn, error) {
	args := m.Called(ctx, customerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.InvoiceReturn), args.Error(1)
}

func (m *MockInvoiceReturnRepository) Save(ctx context.Context, ret *billing.InvoiceReturn) error {
	args := m.Called(ctx, ret)
	return args.Error(0)
}

func (m *MockInvoiceReturnRepository) SaveWithLock(ctx context.Context, ret *billing.InvoiceReturn) error {
	args := m.Called(ctx, ret)
	return args.Error(0)
}

func (m *MockInvoiceReturnRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockInvoiceReturnRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceReturnRepository) ExistsByReturnNumber(ctx context.Context, returnNumber string) (bool, error) {
	args := m.Called(ctx, returnNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceReturnRepository) GenerateReturnNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// Ensure mock implements the interface
var _ billing.InvoiceReturnRepository = (*MockInvoiceReturnRepository)(nil)

// Helper to create a posted return for an invoice with a given quantity
func createPostedReturn(invoice *billing.Invoice, quantity decimal.Decimal) *billing.InvoiceReturn {
	ret, _ := billing.NewInvoiceReturn("RT-2026-00001", invoice, time.Now())
	matched := billing.MatchLines(invoice.Lines, nil, uuid.Nil)
	_, _ = ret.AddLine(matched[0], quantity, billing.DiscountTypeFixed, decimal.Zero)
	_ = ret.Post()
	return ret
}

func TestInvoiceReturnService_GetReturnableLines(t *testing.T) {
	ctx := context.Background()
	invoiceID := uuid.New()
	productID := uuid.New()

	t.Run("reports full availability with no prior returns", func(t *testing.T) {
		mockReturnRepo := new(MockInvoiceReturnRepository)
		mockInvoiceRepo := new(MockInvoiceRepository)
		service := NewInvoiceReturnService(mockReturnRepo, mockInvoiceRepo)

		invoice := createTestInvoice(invoiceID, productID, decimal.NewFromInt(10), decimal.NewFromInt(100))
		mockInvoiceRepo.On("FindByID", ctx, invoiceID).Return(invoice, nil)
		mockReturnRepo.On("FindByInvoice", ctx, invoiceID).Return([]billing.InvoiceReturn{}, nil)

		lines, err := service.GetReturnableLines(ctx, invoiceID, uuid.Nil)

		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, productID, lines[0].ProductID)
		assert.Equal(t, "10.00", lines[0].OriginalQuantity)
		assert.Equal(t, "0.00", lines[0].ReturnedQuantity)
		assert.Equal(t, "10.00", lines[0].AvailableQuantity)
		assert.Equal(t, "10.00", lines[0].MaxSelectable)
	})

	t.Run("subtracts prior returns from availability", func(t *testing.T) {
		mockReturnRepo := new(MockInvoiceReturnRepository)
		mockInvoiceRepo := new(MockInvoiceRepository)
		service := NewInvoiceReturnService(mockReturnRepo, mockInvoiceRepo)

		invoice := createTestInvoice(invoiceID, productID, decimal.NewFromInt(10), decimal.NewFromInt(100))
		prior := createPostedReturn(invoice, decimal.NewFromInt(4))
		mockInvoiceRepo.On("FindByID", ctx, invoiceID).Return(invoice, nil)
		mockReturnRepo.On("FindByInvoice", ctx, invoiceID).Return([]billing.InvoiceReturn{*prior}, nil)

		lines, err := service.GetReturnableLines(ctx, invoiceID, uuid.Nil)

		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, "4.00", lines[0].ReturnedQuantity)
		assert.Equal(t, "6.00", lines[0].AvailableQuantity)
	})

	t.Run("adds the edited return's quantity back to the ceiling", func(t *testing.T) {
		mockReturnRepo := new(MockInvoiceReturnRepository)
		mockInvoiceRepo := new(MockInvoiceRepository)
		service := NewInvoiceReturnService(mockReturnRepo, mockInvoiceRepo)

		invoice := createTestInvoice(invoiceID, productID, decimal.NewFromInt(10), decimal.NewFromInt(100))
		other := createPostedReturn(invoice, decimal.NewFromInt(4))
		edited := createPostedReturn(invoice, decimal.NewFromInt(3))
		mockInvoiceRepo.On("FindByID", ctx, invoiceID).Return(invoice, nil)
		mockReturnRepo.On("FindByInvoice", ctx, invoiceID).Return([]billing.InvoiceReturn{*other, *edited}, nil)

		lines, err := service.GetReturnableLines(ctx, invoiceID, edited.ID)

		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, "4.00", lines[0].ReturnedQuantity)
		assert.Equal(t, "3.00", lines[0].CurrentReturnQuantity)
		assert.Equal(t, "6.00", lines[0].AvailableQuantity)
		assert.Equal(t, "9.00", lines[0].MaxSelectable)
	})
}

func TestInvoiceReturnService_Create(t *testing.T) {
	ctx := context.Background()
	invoiceID := uuid.New()
	productID := uuid.New()

	t.Run("creates a draft within the availability ceiling", func(t *testing.T) {
		mockReturnRepo := new(MockInvoiceReturnRepository)
		mockInvoiceRepo := new(MockInvoiceRepository)
		service := NewInvoiceReturnService(mockReturnRepo, mockInvoiceRepo)

		invoice := createTestInvoice(invoiceID, productID, decimal.NewFromInt(10), decimal.NewFromInt(100))
		mockInvoiceRepo.On("FindByID", ctx, invoiceID).Return(invoice, nil)
		mockReturnRepo.On("FindByInvoice", ctx, invoiceID).Return([]billing.InvoiceReturn{}, nil)
		mockReturnRepo.On("GenerateReturnNumber", ctx).Return("RT-2026-00001", nil)
		mockReturnRepo.On("Save", ctx, mock.AnythingOfType("*billing.InvoiceReturn")).Return(nil)

		resp, err := service.Create(ctx, CreateReturnRequest{
			InvoiceID: invoiceID,
			Lines:     []ReturnLineInput{{ProductID: productID, Quantity: "10"}},
		})

		require.NoError(t, err)
		assert.Equal(t, "RT-2026-00001", resp.ReturnNumber)
		assert.Equal(t, "ACTIVE", resp.Status)
		assert.Equal(t, "10.00", resp.TotalQuantity)
		assert.Equal(t, "1000.00", resp.TotalPrice)
		assert.Equal(t, "0.00", resp.TotalDiscount)
		assert.Equal(t, "1000.00", resp.GrandTotal)
		mockReturnRepo.AssertExpectations(t)
	})

	t.Run("rejects a quantity above the ceiling", func(t *testing.T) {
		mockReturnRepo := new(MockInvoiceReturnRepository)
		mockInvoiceRepo := new(MockInvoiceRepository)
		service := NewInvoiceReturnService(mockReturnRepo, mockInvoiceRepo)

		invoice := createTestInvoice(invoiceID, productID, decimal.NewFromInt(10), decimal.NewFromInt(100))
		prior := createPostedReturn(invoice, decimal.NewFromInt(4))
		mockInvoiceRepo.On("FindByID", ctx, invoiceID).Return(invoice, nil)
		mockReturnRepo.On("FindByInvoice", ctx, invoiceID).Return([]billing.InvoiceReturn{*prior}, nil)
		mockReturnRepo.On("GenerateReturnNumber", ctx).Return("RT-2026-00002", nil)

		_, err := service.Create(ctx, CreateReturnRequest{
			InvoiceID: invoiceID,
			Lines:     []ReturnLineInput{{ProductID: productID, Quantity: "7"}},
		})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, billing.ErrCodeQuantityExceedsAvailable, domainErr.Code)
		mockReturnRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejects a product that is not on the invoice", func(t *testing.T) {
		mockReturnRepo := new(MockInvoiceReturnRepository)
		mockInvoiceRepo := new(MockInvoiceRepository)
		service := NewInvoiceReturnService(mockReturnRepo, mockInvoiceRepo)

		invoice := createTestInvoice(invoiceID, productID, decimal.NewFromInt(10), decimal.NewFromInt(100))
		mockInvoiceRepo.On("FindByID", ctx, invoiceID).Return(invoice, nil)
		mockReturnRepo.On("FindByInvoice", ctx, invoiceID).Return([]billing.InvoiceReturn{}, nil)
		mockReturnRepo.On("GenerateReturnNumber", ctx).Return("RT-2026-00003", nil)

		_, err := service.Create(ctx, CreateReturnRequest{
			InvoiceID: invoiceID,
			Lines:     []ReturnLineInput{{ProductID: uuid.New(), Quantity: "1"}},
		})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "not on the original invoice")
	})

	t.Run("malformed quantities coerce to zero and leave no qualifying lines", func(t *testing.T) {
		mockReturnRepo := new(MockInvoiceReturnRepository)
		mockInvoiceRepo := new(MockInvoiceRepository)
		service := NewInvoiceReturnService(mockReturnRepo, mockInvoiceRepo)

		invoice := createTestInvoice(invoiceID, productID, decimal.NewFromInt(10), decimal.NewFromInt(100))
		mockInvoiceRepo.On("FindByID", ctx, invoiceID).Return(invoice, nil)
		mockReturnRepo.On("FindByInvoice", ctx, invoiceID).Return([]billing.InvoiceReturn{}, nil)
		mockReturnRepo.On("GenerateReturnNumber", ctx).Return("RT-2026-00004", nil)

		_, err := service.Create(ctx, CreateReturnRequest{
			InvoiceID: invoiceID,
			Lines:     []ReturnLineInput{{ProductID: productID, Quantity: "garbage"}},
		})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, billing.ErrCodeNoLinesSelected, domainErr.Code)
	})

	t.Run("negative quantities clamp to zero and are skipped", func(t *testing.T) {
		mockReturnRepo := new(MockInvoiceReturnRepository)
		mockInvoiceRepo := new(MockInvoiceRepository)
		service := NewInvoiceReturnService(mockReturnRepo, mockInvoiceRepo)

		invoice := createTestInvoice(invoiceID, productID, decimal.NewFromInt(10), decimal.NewFromInt(100))
		mockInvoiceRepo.On("FindByID", ctx, invoiceID).Return(invoice, nil)
		mockReturnRepo.On("FindByInvoice", ctx, invoiceID).Return([]billing.InvoiceReturn{}, nil)
		mockReturnRepo.On("GenerateReturnNumber", ctx).Return("RT-2026-00006", nil)

		_, err := service.Create(ctx, CreateReturnRequest{
			InvoiceID: invoiceID,
			Lines:     []ReturnLineInput{{ProductID: productID, Quantity: "-3"}},
		})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, billing.ErrCodeNoLinesSelected, domainErr.Code)
		mockReturnRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("defaults line discount from the invoice line", func(t *testing.T) {
		mockReturnRepo := new(MockInvoiceReturnRepository)
		mockInvoiceRepo := new(MockInvoiceRepository)
		service := NewInvoiceReturnService(mockReturnRepo, mockInvoiceRepo)

		invoice, _ := billing.NewInvoice("INV-2026-00002", uuid.New(), "Test Customer", time.Now())
		invoice.ID = invoiceID
		_, _ = invoice.AddLine(productID, "Widget", "SKU-001", uuid.New(), "pcs", decimal.NewFromInt(5), decimal.NewFromInt(20), billing.DiscountTypePercentage, decimal.NewFromInt(10))
		_ = invoice.Post()

		mockInvoiceRepo.On("FindByID", ctx, invoiceID).Return(invoice, nil)
		mockReturnRepo.On("FindByInvoice", ctx, invoiceID).Return([]billing.InvoiceReturn{}, nil)
		mockReturnRepo.On("GenerateReturnNumber", ctx).Return("RT-2026-00005", nil)
		mockReturnRepo.On("Save", ctx, mock.AnythingOfType("*billing.InvoiceReturn")).Return(nil)

		resp, err := service.Create(ctx, CreateReturnRequest{
			InvoiceID: invoiceID,
			Lines:     []ReturnLineInput{{ProductID: productID, Quantity: "5"}},
		})

		require.NoError(t, err)
		require.Len(t, resp.Lines, 1)
		assert.Equal(t, "PERCENTAGE", resp.Lines[0].DiscountType)
		assert.Equal(t, "10.00", resp.Lines[0].DiscountValue)
		assert.Equal(t, "90.00", resp.GrandTotal)
	})
}

func TestInvoiceReturnService_Update(t *testing.T) {
	ctx := context.Background()
	invoiceID := uuid.New()
	productID := uuid.New()

	t.Run("replaces lines with the draft's own quantity added back", func(t *testing.T) {
		mockReturnRepo := new(MockInvoiceReturnRepository)
		mockInvoiceRepo := new(MockInvoiceRepository)
		service := NewInvoiceReturnService(mockReturnRepo, mockInvoiceRepo)

		invoice := createTestInvoice(invoiceID, productID, decimal.NewFromInt(10), decimal.NewFromInt(100))
		other := createPostedReturn(invoice, decimal.NewFromInt(4))

		draft, _ := billing.NewInvoiceReturn("RT-2026-00006", invoice, time.Now())
		matched := billing.MatchLines(invoice.Lines, []billing.InvoiceReturn{*other}, uuid.Nil)
		_, _ = draft.AddLine(matched[0], decimal.NewFromInt(3), billing.DiscountTypeFixed, decimal.Zero)

		mockReturnRepo.On("FindByID", ctx, draft.ID).Return(draft, nil)
		mockInvoiceRepo.On("FindByID", ctx, invoiceID).Return(invoice, nil)
		mockReturnRepo.On("FindByInvoice", ctx, invoiceID).Return([]billing.InvoiceReturn{*other, *draft}, nil)
		mockReturnRepo.On("SaveWithLock", ctx, draft).Return(nil)

		lines := []ReturnLineInput{{ProductID: productID, Quantity: "9"}}
		resp, err := service.Update(ctx, draft.ID, UpdateReturnRequest{Lines: &lines})

		require.NoError(t, err)
		assert.Equal(t, "9.00", resp.TotalQuantity)
		mockReturnRepo.AssertExpectations(t)
	})

	t.Run("rejects exceeding the edit ceiling", func(t *testing.T) {
		mockReturnRepo := new(MockInvoiceReturnRepository)
		mockInvoiceRepo := new(MockInvoiceRepository)
		service := NewInvoiceReturnService(mockReturnRepo, mockInvoiceRepo)

		invoice := createTestInvoice(invoiceID, productID, decimal.NewFromInt(10), decimal.NewFromInt(100))
		other := createPostedReturn(invoice, decimal.NewFromInt(4))

		draft, _ := billing.NewInvoiceReturn("RT-2026-00007", invoice, time.Now())
		matched := billing.MatchLines(invoice.Lines, []billing.InvoiceReturn{*other}, uuid.Nil)
		_, _ = draft.AddLine(matched[0], decimal.NewFromInt(3), billing.DiscountTypeFixed, decimal.Zero)

		mockReturnRepo.On("FindByID", ctx, draft.ID).Return(draft, nil)
		mockInvoiceRepo.On("FindByID", ctx, invoiceID).Return(invoice, nil)
		mockReturnRepo.On("FindByInvoice", ctx, invoiceID).Return([]billing.InvoiceReturn{*other, *draft}, nil)

		lines := []ReturnLineInput{{ProductID: productID, Quantity: "10"}}
		_, err := service.Update(ctx, draft.ID, UpdateReturnRequest{Lines: &lines})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, billing.ErrCodeQuantityExceedsAvailable, domainErr.Code)
		mockReturnRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("rejects updating a posted return", func(t *testing.T) {
		mockReturnRepo := new(MockInvoiceReturnRepository)
		mockInvoiceRepo := new(MockInvoiceRepository)
		service := NewInvoiceReturnService(mockReturnRepo, mockInvoiceRepo)

		invoice := createTestInvoice(invoiceID, productID, decimal.NewFromInt(10), decimal.NewFromInt(100))
		posted := createPostedReturn(invoice, decimal.NewFromInt(2))
		mockReturnRepo.On("FindByID", ctx, posted.ID).Return(posted, nil)

		remark := "changed"
		_, err := service.Update(ctx, posted.ID, UpdateReturnRequest{Remark: &remark})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, billing.ErrCodeRecordLocked, domainErr.Code)
	})
}

func TestInvoiceReturnService_Post(t *testing.T) {
	ctx := context.Background()
	invoiceID := uuid.New()
	productID := uuid.New()

	t.Run("posts a draft with lines", func(t *testing.T) {
		mockReturnRepo := new(MockInvoiceReturnRepository)
		mockInvoiceRepo := new(MockInvoiceRepository)
		service := NewInvoiceReturnService(mockReturnRepo, mockInvoiceRepo)

		invoice := createTestInvoice(invoiceID, productID, decimal.NewFromInt(10), decimal.NewFromInt(100))
		draft, _ := billing.NewInvoiceReturn("RT-2026-00008", invoice, time.Now())
		matched := billing.MatchLines(invoice.Lines, nil, uuid.Nil)
		_, _ = draft.AddLine(matched[0], decimal.NewFromInt(2), billing.DiscountTypeFixed, decimal.Zero)

		mockReturnRepo.On("FindByID", ctx, draft.ID).Return(draft, nil)
		mockReturnRepo.On("SaveWithLock", ctx, draft).Return(nil)

		resp, err := service.Post(ctx, draft.ID)

		require.NoError(t, err)
		assert.Equal(t, "POSTED", resp.Status)
		mockReturnRepo.AssertExpectations(t)
	})

	t.Run("rejects posting an empty draft", func(t *testing.T) {
		mockReturnRepo := new(MockInvoiceReturnRepository)
		mockInvoiceRepo := new(MockInvoiceRepository)
		service := NewInvoiceReturnService(mockReturnRepo, mockInvoiceRepo)

		invoice := createTestInvoice(invoiceID, productID, decimal.NewFromInt(10), decimal.NewFromInt(100))
		draft, _ := billing.NewInvoiceReturn("RT-2026-00009", invoice, time.Now())
		mockReturnRepo.On("FindByID", ctx, draft.ID).Return(draft, nil)

		_, err := service.Post(ctx, draft.ID)

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, billing.ErrCodeNoLinesSelected, domainErr.Code)
		mockReturnRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}

func TestInvoiceReturnService_Delete(t *testing.T) {
	ctx := context.Background()
	invoiceID := uuid.New()
	productID := uuid.New()

	t.Run("deletes an active draft", func(t *testing.T) {
		mockReturnRepo := new(MockInvoiceReturnRepository)
		mockInvoiceRepo := new(MockInvoiceRepository)
		service := NewInvoiceReturnService(mockReturnRepo, mockInvoiceRepo)

		invoice := createTestInvoice(invoiceID, productID, decimal.NewFromInt(10), decimal.NewFromInt(100))
		draft, _ := billing.NewInvoiceReturn("RT-2026-00010", invoice, time.Now())

		mockReturnRepo.On("FindByID", ctx, draft.ID).Return(draft, nil)
		mockReturnRepo.On("Delete", ctx, draft.ID).Return(nil)

		require.NoError(t, service.Delete(ctx, draft.ID))
		mockReturnRepo.AssertExpectations(t)
	})

	t.Run("rejects deleting a posted return", func(t *testing.T) {
		mockReturnRepo := new(MockInvoiceReturnRepository)
		mockInvoiceRepo := new(MockInvoiceRepository)
		service := NewInvoiceReturnService(mockReturnRepo, mockInvoiceRepo)

		invoice := createTestInvoice(invoiceID, productID, decimal.NewFromInt(10), decimal.NewFromInt(100))
		posted := createPostedReturn(invoice, decimal.NewFromInt(2))
		mockReturnRepo.On("FindByID", ctx, posted.ID).Return(posted, nil)

		err := service.Delete(ctx, posted.ID)

		require.Error(t, err)
		mockReturnRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}
