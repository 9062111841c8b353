package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/openpos/backend/internal/domain/shared"
)

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByID finds an invoice by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByInvoiceNumber finds an invoice by invoice number
	FindByInvoiceNumber(ctx context.Context, invoiceNumber string) (*Invoice, error)

	// FindAll finds all invoices with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]Invoice, error)

	// FindByCustomer finds invoices for a customer
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]Invoice, error)

	// Save creates or updates an invoice
	Save(ctx context.Context, invoice *Invoice) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, invoice *Invoice) error

	// Delete deletes an invoice
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts invoices with optional filters
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsByInvoiceNumber checks if an invoice number exists
	ExistsByInvoiceNumber(ctx context.Context, invoiceNumber string) (bool, error)

	// GenerateInvoiceNumber generates a unique invoice number
	GenerateInvoiceNumber(ctx context.Context) (string, error)
}

// InvoiceReturnRepository defines the interface for invoice return persistence
type InvoiceReturnRepository interface {
	// FindByID finds a return by ID
	FindByID(ctx context.Context, id uuid.UUID) (*InvoiceReturn, error)

	// FindByReturnNumber finds a return by return number
	FindByReturnNumber(ctx context.Context, returnNumber string) (*InvoiceReturn, error)

	// FindAll finds all returns with filtering
	FindAll(ctx context.Context, filter shared.Filter) ([]InvoiceReturn, error)

	// FindByInvoice finds all returns recorded against an invoice
	FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]InvoiceReturn, error)

	// FindByCustomer finds returns for a customer
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]InvoiceReturn, error)

	// Save creates or updates a return
	Save(ctx context.Context, ret *InvoiceReturn) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, ret *InvoiceReturn) error

	// Delete deletes a return
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts returns with optional filters
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsByReturnNumber checks if a return number exists
	ExistsByReturnNumber(ctx context.Context, returnNumber string) (bool, error)

	// GenerateReturnNumber generates a unique return number
	GenerateReturnNumber(ctx context.Context) (string, error)
}
