package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openpos/backend/internal/domain/shared"
	"github.com/openpos/backend/internal/domain/shared/valueobject"
)

// DiscountType determines how a line's discount value is interpreted
type DiscountType string

const (
	DiscountTypeFixed      DiscountType = "FIXED"      // absolute currency amount
	DiscountTypePercentage DiscountType = "PERCENTAGE" // 0-100 percentage of the subtotal
)

// IsValid checks if the value is a known DiscountType
func (d DiscountType) IsValid() bool {
	return d == DiscountTypeFixed || d == DiscountTypePercentage
}

// String returns the string representation of DiscountType
func (d DiscountType) String() string {
	return string(d)
}

// InvoiceStatus represents the status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusActive InvoiceStatus = "ACTIVE" // editable
	InvoiceStatusPosted InvoiceStatus = "POSTED" // terminal, locked
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	return s == InvoiceStatusActive || s == InvoiceStatusPosted
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	switch s {
	case InvoiceStatusActive:
		return target == InvoiceStatusActive || target == InvoiceStatusPosted
	case InvoiceStatusPosted:
		return false // terminal
	}
	return false
}

// InvoiceLineItem represents one sold product line on an invoice
type InvoiceLineItem struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	InvoiceID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName   string          `gorm:"type:varchar(200);not null"`
	ProductSKU    string          `gorm:"type:varchar(100)"`
	UnitID        uuid.UUID       `gorm:"type:uuid"`
	UnitName      string          `gorm:"type:varchar(50)"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DiscountType  DiscountType    `gorm:"type:varchar(20);not null;default:'FIXED'"`
	DiscountValue decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null"` // derived, recomputed on every change
	CreatedAt     time.Time       `gorm:"not null"`
	UpdatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceLineItem) TableName() string {
	return "invoice_lines"
}

// NewInvoiceLineItem creates a new invoice line item
func NewInvoiceLineItem(
	invoiceID uuid.UUID,
	productID uuid.UUID,
	productName, productSKU string,
	unitID uuid.UUID,
	unitName string,
	quantity, unitPrice decimal.Decimal,
	discountType DiscountType,
	discountValue decimal.Decimal,
) (*InvoiceLineItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if quantity.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}
	if !discountType.IsValid() {
		return nil, shared.NewDomainError("INVALID_DISCOUNT_TYPE", "Discount type must be FIXED or PERCENTAGE")
	}
	if discountValue.IsNegative() {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount value cannot be negative")
	}

	now := time.Now()
	amounts := ComputeLineTotal(quantity, unitPrice, discountType, discountValue)

	return &InvoiceLineItem{
		ID:            uuid.New(),
		InvoiceID:     invoiceID,
		ProductID:     productID,
		ProductName:   productName,
		ProductSKU:    productSKU,
		UnitID:        unitID,
		UnitName:      unitName,
		Quantity:      quantity,
		UnitPrice:     unitPrice,
		DiscountType:  discountType,
		DiscountValue: discountValue,
		TotalAmount:   amounts.Total,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// GetUnitPriceMoney returns the unit price as Money value object
func (i *InvoiceLineItem) GetUnitPriceMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(i.UnitPrice)
}

// GetTotalAmountMoney returns the line total as Money value object
func (i *InvoiceLineItem) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(i.TotalAmount)
}

// Invoice represents a sale document aggregate root. Its line items
// establish the maximum returnable quantity per product.
type Invoice struct {
	shared.BaseAggregateRoot
	InvoiceNumber string            `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerID    uuid.UUID         `gorm:"type:uuid;not null;index"`
	CustomerName  string            `gorm:"type:varchar(200)"`
	InvoiceDate   time.Time         `gorm:"not null;index"`
	Status        InvoiceStatus     `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	Lines         []InvoiceLineItem `gorm:"foreignKey:InvoiceID"`
	TotalQuantity decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	TotalPrice    decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	TotalDiscount decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	GrandTotal    decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	Remark        string            `gorm:"type:varchar(500)"`
	PostedAt      *time.Time        `gorm:"index"`
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// NewInvoice creates a new invoice in ACTIVE status
func NewInvoice(invoiceNumber string, customerID uuid.UUID, customerName string, invoiceDate time.Time) (*Invoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot be empty")
	}
	if len(invoiceNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_INVOICE_NUMBER", "Invoice number cannot exceed 50 characters")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if invoiceDate.IsZero() {
		invoiceDate = time.Now()
	}

	return &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		InvoiceNumber:     invoiceNumber,
		CustomerID:        customerID,
		CustomerName:      customerName,
		InvoiceDate:       invoiceDate,
		Status:            InvoiceStatusActive,
		Lines:             make([]InvoiceLineItem, 0),
		TotalQuantity:     decimal.Zero,
		TotalPrice:        decimal.Zero,
		TotalDiscount:     decimal.Zero,
		GrandTotal:        decimal.Zero,
	}, nil
}

// AddLine adds a product line to the invoice.
// Only allowed while ACTIVE; each product may appear at most once.
func (inv *Invoice) AddLine(
	productID uuid.UUID,
	productName, productSKU string,
	unitID uuid.UUID,
	unitName string,
	quantity, unitPrice decimal.Decimal,
	discountType DiscountType,
	discountValue decimal.Decimal,
) (*InvoiceLineItem, error) {
	if !inv.CanModify() {
		return nil, shared.NewDomainError(ErrCodeRecordLocked, "Cannot add lines to a posted invoice")
	}

	for i := range inv.Lines {
		if inv.Lines[i].ProductID == productID {
			return nil, shared.NewDomainError(ErrCodeDuplicateProduct, "Product already exists on invoice")
		}
	}

	line, err := NewInvoiceLineItem(inv.ID, productID, productName, productSKU, unitID, unitName, quantity, unitPrice, discountType, discountValue)
	if err != nil {
		return nil, err
	}

	inv.Lines = append(inv.Lines, *line)
	inv.recalculateTotals()
	inv.UpdatedAt = time.Now()

	return line, nil
}

// RemoveLine removes a product line from the invoice.
// Only allowed while ACTIVE.
func (inv *Invoice) RemoveLine(lineID uuid.UUID) error {
	if !inv.CanModify() {
		return shared.NewDomainError(ErrCodeRecordLocked, "Cannot remove lines from a posted invoice")
	}

	for idx, line := range inv.Lines {
		if line.ID == lineID {
			inv.Lines = append(inv.Lines[:idx], inv.Lines[idx+1:]...)
			inv.recalculateTotals()
			inv.UpdatedAt = time.Now()
			return nil
		}
	}

	return shared.NewDomainError("LINE_NOT_FOUND", "Invoice line not found")
}

// SetRemark sets the invoice remark
func (inv *Invoice) SetRemark(remark string) {
	inv.Remark = remark
	inv.UpdatedAt = time.Now()
}

// Post locks the invoice. Transitions from ACTIVE to POSTED; a posted
// invoice and its lines are immutable.
func (inv *Invoice) Post() error {
	if !inv.Status.CanTransitionTo(InvoiceStatusPosted) {
		return shared.NewDomainError(ErrCodeRecordLocked, fmt.Sprintf("Cannot post invoice in %s status", inv.Status))
	}
	if len(inv.Lines) == 0 {
		return shared.NewDomainError(ErrCodeNoLinesSelected, "Cannot post an invoice without lines")
	}

	now := time.Now()
	inv.Status = InvoiceStatusPosted
	inv.PostedAt = &now
	inv.UpdatedAt = now

	return nil
}

// recalculateTotals recomputes document totals from the full line collection
func (inv *Invoice) recalculateTotals() {
	lines := make([]TotalLine, 0, len(inv.Lines))
	for i := range inv.Lines {
		lines = append(lines, TotalLine{
			ProductID:     inv.Lines[i].ProductID,
			Quantity:      inv.Lines[i].Quantity,
			UnitPrice:     inv.Lines[i].UnitPrice,
			DiscountType:  inv.Lines[i].DiscountType,
			DiscountValue: inv.Lines[i].DiscountValue,
		})
		amounts := ComputeLineTotal(inv.Lines[i].Quantity, inv.Lines[i].UnitPrice, inv.Lines[i].DiscountType, inv.Lines[i].DiscountValue)
		inv.Lines[i].TotalAmount = amounts.Total
	}

	totals := AggregateTotals(lines)
	inv.TotalQuantity = totals.Quantity
	inv.TotalPrice = totals.Subtotal
	inv.TotalDiscount = totals.Discount
	inv.GrandTotal = totals.GrandTotal
}

// GetGrandTotalMoney returns the grand total as Money
func (inv *Invoice) GetGrandTotalMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(inv.GrandTotal)
}

// LineCount returns the number of lines on the invoice
func (inv *Invoice) LineCount() int {
	return len(inv.Lines)
}

// IsActive returns true if the invoice is still editable
func (inv *Invoice) IsActive() bool {
	return inv.Status == InvoiceStatusActive
}

// IsPosted returns true if the invoice is posted
func (inv *Invoice) IsPosted() bool {
	return inv.Status == InvoiceStatusPosted
}

// CanModify returns true if the invoice can be modified
func (inv *Invoice) CanModify() bool {
	return inv.IsActive()
}

// GetLine returns a line by its ID
func (inv *Invoice) GetLine(lineID uuid.UUID) *InvoiceLineItem {
	for idx := range inv.Lines {
		if inv.Lines[idx].ID == lineID {
			return &inv.Lines[idx]
		}
	}
	return nil
}

// GetLineByProduct returns a line by its product ID
func (inv *Invoice) GetLineByProduct(productID uuid.UUID) *InvoiceLineItem {
	for idx := range inv.Lines {
		if inv.Lines[idx].ProductID == productID {
			return &inv.Lines[idx]
		}
	}
	return nil
}
