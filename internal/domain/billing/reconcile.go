package billing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openpos/backend/internal/domain/shared"
)

// Error codes for return reconciliation
const (
	ErrCodeQuantityExceedsAvailable = "QUANTITY_EXCEEDS_AVAILABLE"
	ErrCodeNoLinesSelected          = "NO_LINES_SELECTED"
	ErrCodeRecordLocked             = "RECORD_LOCKED"
	ErrCodeDuplicateProduct         = "DUPLICATE_PRODUCT"
)

// MatchedLine pairs one invoice line with the quantities already returned
// against it. ReturnedQuantity excludes the return being edited (if any);
// that return's own quantity for the product is carried separately as
// CurrentReturnQuantity so it can be added back to the selection ceiling.
type MatchedLine struct {
	ProductID             uuid.UUID
	ProductName           string
	ProductSKU            string
	UnitID                uuid.UUID
	UnitName              string
	UnitPrice             decimal.Decimal
	DiscountType          DiscountType
	DiscountValue         decimal.Decimal
	OriginalQuantity      decimal.Decimal
	ReturnedQuantity      decimal.Decimal
	CurrentReturnQuantity decimal.Decimal
}

// LineAvailability is the per-product outcome of reconciling an invoice
// line against its prior returns.
type LineAvailability struct {
	Available     decimal.Decimal
	MaxSelectable decimal.Decimal
}

// LineAmounts holds the monetary breakdown of a single line.
type LineAmounts struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// DocumentTotals holds the aggregated figures of a return document.
type DocumentTotals struct {
	Quantity   decimal.Decimal
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	GrandTotal decimal.Decimal
}

// TotalLine is the minimal line shape AggregateTotals operates on.
// Lines with a nil ProductID are placeholders and contribute nothing.
type TotalLine struct {
	ProductID     uuid.UUID
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	DiscountType  DiscountType
	DiscountValue decimal.Decimal
}

// MatchLines pairs each invoice line with the total quantity already
// returned for its product across priorReturns. Returns identified by
// excludeReturnID are left out of the sum; that return's own quantity for
// the product is reported as CurrentReturnQuantity instead. Pass uuid.Nil
// as excludeReturnID when creating a new return.
//
// Prior returns with no line for a product are ignored. A product is
// assumed to appear at most once per invoice; the invoice aggregate
// enforces that.
func MatchLines(invoiceLines []InvoiceLineItem, priorReturns []InvoiceReturn, excludeReturnID uuid.UUID) []MatchedLine {
	matched := make([]MatchedLine, 0, len(invoiceLines))

	for _, line := range invoiceLines {
		returned := decimal.Zero
		current := decimal.Zero

		for ri := range priorReturns {
			ret := &priorReturns[ri]
			for li := range ret.Lines {
				if ret.Lines[li].ProductID != line.ProductID {
					continue
				}
				if excludeReturnID != uuid.Nil && ret.ID == excludeReturnID {
					current = current.Add(ret.Lines[li].Quantity)
				} else {
					returned = returned.Add(ret.Lines[li].Quantity)
				}
			}
		}

		matched = append(matched, MatchedLine{
			ProductID:             line.ProductID,
			ProductName:           line.ProductName,
			ProductSKU:            line.ProductSKU,
			UnitID:                line.UnitID,
			UnitName:              line.UnitName,
			UnitPrice:             line.UnitPrice,
			DiscountType:          line.DiscountType,
			DiscountValue:         line.DiscountValue,
			OriginalQuantity:      line.Quantity,
			ReturnedQuantity:      returned,
			CurrentReturnQuantity: current,
		})
	}

	return matched
}

// Availability derives the remaining returnable quantity for the line.
//
//	available     = max(0, original - returned)
//	maxSelectable = available + currentReturnQuantity
//
// Negative inputs are clamped to zero rather than rejected.
func (m MatchedLine) Availability() LineAvailability {
	original := clampNonNegative(m.OriginalQuantity)
	returned := clampNonNegative(m.ReturnedQuantity)
	current := clampNonNegative(m.CurrentReturnQuantity)

	available := original.Sub(returned)
	if available.IsNegative() {
		available = decimal.Zero
	}

	return LineAvailability{
		Available:     available,
		MaxSelectable: available.Add(current),
	}
}

// ComputeLineTotal computes subtotal, discount amount and total for one
// line. A percentage discount is taken from the subtotal; a fixed discount
// is an absolute amount. The total is floored at zero. No rounding happens
// here; rounding to 2 places is a serialization concern.
func ComputeLineTotal(quantity, unitPrice decimal.Decimal, discountType DiscountType, discountValue decimal.Decimal) LineAmounts {
	quantity = clampNonNegative(quantity)
	unitPrice = clampNonNegative(unitPrice)
	discountValue = clampNonNegative(discountValue)

	subtotal := quantity.Mul(unitPrice)

	var discount decimal.Decimal
	if discountType == DiscountTypePercentage {
		discount = subtotal.Mul(discountValue).Div(decimal.NewFromInt(100))
	} else {
		discount = discountValue
	}

	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return LineAmounts{
		Subtotal: subtotal,
		Discount: discount,
		Total:    total,
	}
}

// AggregateTotals recomputes document totals from the full line collection.
// Lines without a product are skipped. The computation is a full pass every
// time, never an incremental update, so repeated calls over an unchanged
// collection yield identical results.
func AggregateTotals(lines []TotalLine) DocumentTotals {
	totals := DocumentTotals{
		Quantity:   decimal.Zero,
		Subtotal:   decimal.Zero,
		Discount:   decimal.Zero,
		GrandTotal: decimal.Zero,
	}

	for _, line := range lines {
		if line.ProductID == uuid.Nil {
			continue
		}
		amounts := ComputeLineTotal(line.Quantity, line.UnitPrice, line.DiscountType, line.DiscountValue)
		totals.Quantity = totals.Quantity.Add(clampNonNegative(line.Quantity))
		totals.Subtotal = totals.Subtotal.Add(amounts.Subtotal)
		totals.Discount = totals.Discount.Add(amounts.Discount)
		totals.GrandTotal = totals.GrandTotal.Add(amounts.Total)
	}

	return totals
}

// ValidateLineQuantity checks a proposed return quantity against the
// selection ceiling. The ceiling itself is a valid quantity; only
// exceeding it fails. Zero is valid at line level and means "not returned".
func ValidateLineQuantity(proposed, maxSelectable decimal.Decimal) error {
	if clampNonNegative(proposed).GreaterThan(clampNonNegative(maxSelectable)) {
		return shared.NewDomainError(ErrCodeQuantityExceedsAvailable, "Return quantity exceeds available quantity")
	}
	return nil
}

// ValidateReturnLines checks document-level line constraints: at least one
// qualifying line (product set, quantity > 0) and no product selected
// twice. The duplicate check runs over all lines with a product, not just
// qualifying ones, since a zero-quantity duplicate is still a caller error.
func ValidateReturnLines(lines []InvoiceReturnLine) error {
	qualifying := 0
	seen := make(map[uuid.UUID]struct{}, len(lines))

	for i := range lines {
		if lines[i].ProductID == uuid.Nil {
			continue
		}
		if _, dup := seen[lines[i].ProductID]; dup {
			return shared.NewDomainError(ErrCodeDuplicateProduct, "Product appears more than once in the return")
		}
		seen[lines[i].ProductID] = struct{}{}
		if lines[i].Quantity.IsPositive() {
			qualifying++
		}
	}

	if qualifying == 0 {
		return shared.NewDomainError(ErrCodeNoLinesSelected, "Return has no lines with a positive quantity")
	}
	return nil
}

func clampNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
