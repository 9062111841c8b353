package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openpos/backend/internal/domain/shared"
	"github.com/openpos/backend/internal/domain/shared/valueobject"
)

// ReturnStatus represents the status of an invoice return
type ReturnStatus string

const (
	ReturnStatusActive ReturnStatus = "ACTIVE" // draft, editable
	ReturnStatusPosted ReturnStatus = "POSTED" // terminal, locked
)

// IsValid checks if the status is a valid ReturnStatus
func (s ReturnStatus) IsValid() bool {
	return s == ReturnStatusActive || s == ReturnStatusPosted
}

// String returns the string representation of ReturnStatus
func (s ReturnStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// An active return may be re-saved or posted; a posted return is terminal.
func (s ReturnStatus) CanTransitionTo(target ReturnStatus) bool {
	switch s {
	case ReturnStatusActive:
		return target == ReturnStatusActive || target == ReturnStatusPosted
	case ReturnStatusPosted:
		return false // terminal
	}
	return false
}

// InvoiceReturnLine represents one product's returned quantity within a return
type InvoiceReturnLine struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ReturnID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName   string          `gorm:"type:varchar(200);not null"`
	ProductSKU    string          `gorm:"type:varchar(100)"`
	UnitID        uuid.UUID       `gorm:"type:uuid"`
	UnitName      string          `gorm:"type:varchar(50)"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Price         decimal.Decimal `gorm:"type:decimal(18,4);not null"` // unit price snapshot from the invoice line
	DiscountType  DiscountType    `gorm:"type:varchar(20);not null;default:'FIXED'"`
	DiscountValue decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null"` // derived, recomputed on every change
	CreatedAt     time.Time       `gorm:"not null"`
	UpdatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceReturnLine) TableName() string {
	return "invoice_return_lines"
}

// NewInvoiceReturnLine creates a return line from a matched invoice line.
// The quantity is validated against the line's selection ceiling; the unit
// and price are snapshotted from the invoice line.
func NewInvoiceReturnLine(
	returnID uuid.UUID,
	matched MatchedLine,
	quantity decimal.Decimal,
	discountType DiscountType,
	discountValue decimal.Decimal,
) (*InvoiceReturnLine, error) {
	if matched.ProductID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Return quantity must be positive")
	}
	if err := ValidateLineQuantity(quantity, matched.Availability().MaxSelectable); err != nil {
		return nil, err
	}
	if !discountType.IsValid() {
		return nil, shared.NewDomainError("INVALID_DISCOUNT_TYPE", "Discount type must be FIXED or PERCENTAGE")
	}
	if discountValue.IsNegative() {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount value cannot be negative")
	}

	now := time.Now()
	amounts := ComputeLineTotal(quantity, matched.UnitPrice, discountType, discountValue)

	return &InvoiceReturnLine{
		ID:            uuid.New(),
		ReturnID:      returnID,
		ProductID:     matched.ProductID,
		ProductName:   matched.ProductName,
		ProductSKU:    matched.ProductSKU,
		UnitID:        matched.UnitID,
		UnitName:      matched.UnitName,
		Quantity:      quantity,
		Price:         matched.UnitPrice,
		DiscountType:  discountType,
		DiscountValue: discountValue,
		TotalAmount:   amounts.Total,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// UpdateQuantity updates the return quantity and recomputes the line total.
// The caller supplies the selection ceiling for this line's product.
func (l *InvoiceReturnLine) UpdateQuantity(quantity, maxSelectable decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Return quantity must be positive")
	}
	if err := ValidateLineQuantity(quantity, maxSelectable); err != nil {
		return err
	}

	l.Quantity = quantity
	l.TotalAmount = ComputeLineTotal(quantity, l.Price, l.DiscountType, l.DiscountValue).Total
	l.UpdatedAt = time.Now()

	return nil
}

// UpdateDiscount changes the line's discount and recomputes the total.
// A return line's discount may diverge from the invoice line it came from.
func (l *InvoiceReturnLine) UpdateDiscount(discountType DiscountType, discountValue decimal.Decimal) error {
	if !discountType.IsValid() {
		return shared.NewDomainError("INVALID_DISCOUNT_TYPE", "Discount type must be FIXED or PERCENTAGE")
	}
	if discountValue.IsNegative() {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount value cannot be negative")
	}

	l.DiscountType = discountType
	l.DiscountValue = discountValue
	l.TotalAmount = ComputeLineTotal(l.Quantity, l.Price, discountType, discountValue).Total
	l.UpdatedAt = time.Now()

	return nil
}

// GetTotalAmountMoney returns the line total as Money value object
func (l *InvoiceReturnLine) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(l.TotalAmount)
}

// InvoiceReturn represents a return document aggregate root. It records
// quantities of previously invoiced products returned by the customer and
// keeps its totals reconciled on every mutation.
type InvoiceReturn struct {
	shared.BaseAggregateRoot
	ReturnNumber  string              `gorm:"type:varchar(50);not null;uniqueIndex"`
	InvoiceID     uuid.UUID           `gorm:"type:uuid;not null;index"`
	InvoiceNumber string              `gorm:"type:varchar(50);not null"`
	CustomerID    uuid.UUID           `gorm:"type:uuid;not null;index"`
	CustomerName  string              `gorm:"type:varchar(200)"`
	ReturnDate    time.Time           `gorm:"not null;index"`
	Status        ReturnStatus        `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	Lines         []InvoiceReturnLine `gorm:"foreignKey:ReturnID"`
	TotalQuantity decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	TotalPrice    decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	TotalDiscount decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	GrandTotal    decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Remark        string              `gorm:"type:varchar(500)"`
	PostedAt      *time.Time          `gorm:"index"`
}

// TableName returns the table name for GORM
func (InvoiceReturn) TableName() string {
	return "invoice_returns"
}

// NewInvoiceReturn creates a new return draft against a posted invoice
func NewInvoiceReturn(returnNumber string, invoice *Invoice, returnDate time.Time) (*InvoiceReturn, error) {
	if returnNumber == "" {
		return nil, shared.NewDomainError("INVALID_RETURN_NUMBER", "Return number cannot be empty")
	}
	if len(returnNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_RETURN_NUMBER", "Return number cannot exceed 50 characters")
	}
	if invoice == nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice cannot be nil")
	}
	if !invoice.IsPosted() {
		return nil, shared.NewDomainError("INVALID_INVOICE_STATUS", "Can only create returns for posted invoices")
	}
	if returnDate.IsZero() {
		returnDate = time.Now()
	}

	return &InvoiceReturn{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ReturnNumber:      returnNumber,
		InvoiceID:         invoice.ID,
		InvoiceNumber:     invoice.InvoiceNumber,
		CustomerID:        invoice.CustomerID,
		CustomerName:      invoice.CustomerName,
		ReturnDate:        returnDate,
		Status:            ReturnStatusActive,
		Lines:             make([]InvoiceReturnLine, 0),
		TotalQuantity:     decimal.Zero,
		TotalPrice:        decimal.Zero,
		TotalDiscount:     decimal.Zero,
		GrandTotal:        decimal.Zero,
	}, nil
}

// AddLine adds a product line to the return draft.
// Only allowed while ACTIVE; each product may appear at most once.
func (r *InvoiceReturn) AddLine(
	matched MatchedLine,
	quantity decimal.Decimal,
	discountType DiscountType,
	discountValue decimal.Decimal,
) (*InvoiceReturnLine, error) {
	if !r.CanModify() {
		return nil, shared.NewDomainError(ErrCodeRecordLocked, "Cannot add lines to a posted return")
	}

	for i := range r.Lines {
		if r.Lines[i].ProductID == matched.ProductID {
			return nil, shared.NewDomainError(ErrCodeDuplicateProduct, "Product already exists in return, update quantity instead")
		}
	}

	line, err := NewInvoiceReturnLine(r.ID, matched, quantity, discountType, discountValue)
	if err != nil {
		return nil, err
	}

	r.Lines = append(r.Lines, *line)
	r.recalculateTotals()
	r.UpdatedAt = time.Now()

	return line, nil
}

// UpdateLineQuantity updates the return quantity of an existing line.
// Only allowed while ACTIVE. The caller supplies the selection ceiling
// for this line's product.
func (r *InvoiceReturn) UpdateLineQuantity(lineID uuid.UUID, quantity, maxSelectable decimal.Decimal) error {
	if !r.CanModify() {
		return shared.NewDomainError(ErrCodeRecordLocked, "Cannot update lines in a posted return")
	}

	for idx := range r.Lines {
		if r.Lines[idx].ID == lineID {
			if err := r.Lines[idx].UpdateQuantity(quantity, maxSelectable); err != nil {
				return err
			}
			r.recalculateTotals()
			r.UpdatedAt = time.Now()
			return nil
		}
	}

	return shared.NewDomainError("LINE_NOT_FOUND", "Return line not found")
}

// UpdateLineDiscount changes the discount of an existing line.
// Only allowed while ACTIVE.
func (r *InvoiceReturn) UpdateLineDiscount(lineID uuid.UUID, discountType DiscountType, discountValue decimal.Decimal) error {
	if !r.CanModify() {
		return shared.NewDomainError(ErrCodeRecordLocked, "Cannot update lines in a posted return")
	}

	for idx := range r.Lines {
		if r.Lines[idx].ID == lineID {
			if err := r.Lines[idx].UpdateDiscount(discountType, discountValue); err != nil {
				return err
			}
			r.recalculateTotals()
			r.UpdatedAt = time.Now()
			return nil
		}
	}

	return shared.NewDomainError("LINE_NOT_FOUND", "Return line not found")
}

// RemoveLine removes a line from the return draft.
// Only allowed while ACTIVE.
func (r *InvoiceReturn) RemoveLine(lineID uuid.UUID) error {
	if !r.CanModify() {
		return shared.NewDomainError(ErrCodeRecordLocked, "Cannot remove lines from a posted return")
	}

	for idx, line := range r.Lines {
		if line.ID == lineID {
			r.Lines = append(r.Lines[:idx], r.Lines[idx+1:]...)
			r.recalculateTotals()
			r.UpdatedAt = time.Now()
			return nil
		}
	}

	return shared.NewDomainError("LINE_NOT_FOUND", "Return line not found")
}

// ClearLines removes all lines from the return draft
func (r *InvoiceReturn) ClearLines() error {
	if !r.CanModify() {
		return shared.NewDomainError(ErrCodeRecordLocked, "Cannot clear lines of a posted return")
	}

	r.Lines = make([]InvoiceReturnLine, 0)
	r.recalculateTotals()
	r.UpdatedAt = time.Now()

	return nil
}

// SetReturnDate sets the return date
func (r *InvoiceReturn) SetReturnDate(date time.Time) error {
	if !r.CanModify() {
		return shared.NewDomainError(ErrCodeRecordLocked, "Cannot change a posted return")
	}
	if date.IsZero() {
		return shared.NewDomainError("INVALID_DATE", "Return date cannot be empty")
	}

	r.ReturnDate = date
	r.UpdatedAt = time.Now()

	return nil
}

// SetRemark sets the return remark
func (r *InvoiceReturn) SetRemark(remark string) error {
	if !r.CanModify() {
		return shared.NewDomainError(ErrCodeRecordLocked, "Cannot change a posted return")
	}

	r.Remark = remark
	r.UpdatedAt = time.Now()

	return nil
}

// Post locks the return. Transitions from ACTIVE to POSTED; requires at
// least one qualifying line and no duplicate products.
func (r *InvoiceReturn) Post() error {
	if !r.Status.CanTransitionTo(ReturnStatusPosted) {
		return shared.NewDomainError(ErrCodeRecordLocked, fmt.Sprintf("Cannot post return in %s status", r.Status))
	}
	if err := ValidateReturnLines(r.Lines); err != nil {
		return err
	}

	now := time.Now()
	r.Status = ReturnStatusPosted
	r.PostedAt = &now
	r.UpdatedAt = now

	return nil
}

// recalculateTotals recomputes document totals from the full line collection
func (r *InvoiceReturn) recalculateTotals() {
	lines := make([]TotalLine, 0, len(r.Lines))
	for i := range r.Lines {
		lines = append(lines, TotalLine{
			ProductID:     r.Lines[i].ProductID,
			Quantity:      r.Lines[i].Quantity,
			UnitPrice:     r.Lines[i].Price,
			DiscountType:  r.Lines[i].DiscountType,
			DiscountValue: r.Lines[i].DiscountValue,
		})
	}

	totals := AggregateTotals(lines)
	r.TotalQuantity = totals.Quantity
	r.TotalPrice = totals.Subtotal
	r.TotalDiscount = totals.Discount
	r.GrandTotal = totals.GrandTotal
}

// GetGrandTotalMoney returns the grand total as Money
func (r *InvoiceReturn) GetGrandTotalMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(r.GrandTotal)
}

// LineCount returns the number of lines in the return
func (r *InvoiceReturn) LineCount() int {
	return len(r.Lines)
}

// IsActive returns true if the return is still an editable draft
func (r *InvoiceReturn) IsActive() bool {
	return r.Status == ReturnStatusActive
}

// IsPosted returns true if the return is posted
func (r *InvoiceReturn) IsPosted() bool {
	return r.Status == ReturnStatusPosted
}

// CanModify returns true if the return can be modified
func (r *InvoiceReturn) CanModify() bool {
	return r.IsActive()
}

// GetLine returns a line by its ID
func (r *InvoiceReturn) GetLine(lineID uuid.UUID) *InvoiceReturnLine {
	for idx := range r.Lines {
		if r.Lines[idx].ID == lineID {
			return &r.Lines[idx]
		}
	}
	return nil
}

// GetLineByProduct returns a line by its product ID
func (r *InvoiceReturn) GetLineByProduct(productID uuid.UUID) *InvoiceReturnLine {
	for idx := range r.Lines {
		if r.Lines[idx].ProductID == productID {
			return &r.Lines[idx]
		}
	}
	return nil
}
