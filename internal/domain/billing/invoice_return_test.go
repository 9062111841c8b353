package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpos/backend/internal/domain/shared"
)

func createPostedInvoiceForReturn(t *testing.T) *Invoice {
	t.Helper()

	inv, err := NewInvoice("INV-2026-00001", uuid.New(), "Acme Retail", time.Now())
	require.NoError(t, err)

	_, err = inv.AddLine(uuid.New(), "Widget", "WID-001", uuid.New(), "pcs", dec(10), dec(100), DiscountTypeFixed, decimal.Zero)
	require.NoError(t, err)

	require.NoError(t, inv.Post())
	return inv
}

func matchedLineFor(inv *Invoice, priors []InvoiceReturn, excludeID uuid.UUID) MatchedLine {
	return MatchLines(inv.Lines, priors, excludeID)[0]
}

func TestReturnStatusCanTransitionTo(t *testing.T) {
	assert.True(t, ReturnStatusActive.CanTransitionTo(ReturnStatusActive))
	assert.True(t, ReturnStatusActive.CanTransitionTo(ReturnStatusPosted))
	assert.False(t, ReturnStatusPosted.CanTransitionTo(ReturnStatusActive))
	assert.False(t, ReturnStatusPosted.CanTransitionTo(ReturnStatusPosted))
}

func TestNewInvoiceReturn(t *testing.T) {
	t.Run("creates an active draft against a posted invoice", func(t *testing.T) {
		inv := createPostedInvoiceForReturn(t)

		ret, err := NewInvoiceReturn("RT-2026-00001", inv, time.Now())
		require.NoError(t, err)

		assert.Equal(t, ReturnStatusActive, ret.Status)
		assert.Equal(t, inv.ID, ret.InvoiceID)
		assert.Equal(t, inv.InvoiceNumber, ret.InvoiceNumber)
		assert.Equal(t, inv.CustomerID, ret.CustomerID)
		assert.Equal(t, inv.CustomerName, ret.CustomerName)
		assert.True(t, ret.CanModify())
		assert.True(t, ret.GrandTotal.IsZero())
	})

	t.Run("rejects empty return number", func(t *testing.T) {
		inv := createPostedInvoiceForReturn(t)

		_, err := NewInvoiceReturn("", inv, time.Now())
		assert.Error(t, err)
	})

	t.Run("rejects nil invoice", func(t *testing.T) {
		_, err := NewInvoiceReturn("RT-2026-00001", nil, time.Now())
		assert.Error(t, err)
	})

	t.Run("rejects an active invoice", func(t *testing.T) {
		inv, err := NewInvoice("INV-2026-00002", uuid.New(), "Acme Retail", time.Now())
		require.NoError(t, err)

		_, err = NewInvoiceReturn("RT-2026-00002", inv, time.Now())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "posted invoices")
	})
}

func TestInvoiceReturnAddLine(t *testing.T) {
	t.Run("adds a line and recomputes totals", func(t *testing.T) {
		inv := createPostedInvoiceForReturn(t)
		ret, err := NewInvoiceReturn("RT-2026-00001", inv, time.Now())
		require.NoError(t, err)

		matched := matchedLineFor(inv, nil, uuid.Nil)
		line, err := ret.AddLine(matched, dec(10), DiscountTypeFixed, decimal.Zero)
		require.NoError(t, err)

		assert.True(t, line.TotalAmount.Equal(dec(1000)))
		assert.True(t, ret.TotalQuantity.Equal(dec(10)))
		assert.True(t, ret.TotalPrice.Equal(dec(1000)))
		assert.True(t, ret.TotalDiscount.IsZero())
		assert.True(t, ret.GrandTotal.Equal(dec(1000)))
	})

	t.Run("rejects a quantity above the ceiling after prior returns", func(t *testing.T) {
		inv := createPostedInvoiceForReturn(t)
		productID := inv.Lines[0].ProductID
		priors := []InvoiceReturn{returnWithLine(uuid.New(), productID, dec(4))}

		ret, err := NewInvoiceReturn("RT-2026-00002", inv, time.Now())
		require.NoError(t, err)

		matched := matchedLineFor(inv, priors, uuid.Nil)
		assert.True(t, matched.Availability().Available.Equal(dec(6)))

		_, err = ret.AddLine(matched, dec(7), DiscountTypeFixed, decimal.Zero)
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, ErrCodeQuantityExceedsAvailable, domainErr.Code)

		_, err = ret.AddLine(matched, dec(6), DiscountTypeFixed, decimal.Zero)
		assert.NoError(t, err)
	})

	t.Run("rejects a duplicate product", func(t *testing.T) {
		inv := createPostedInvoiceForReturn(t)
		ret, err := NewInvoiceReturn("RT-2026-00003", inv, time.Now())
		require.NoError(t, err)

		matched := matchedLineFor(inv, nil, uuid.Nil)
		_, err = ret.AddLine(matched, dec(2), DiscountTypeFixed, decimal.Zero)
		require.NoError(t, err)

		_, err = ret.AddLine(matched, dec(3), DiscountTypeFixed, decimal.Zero)
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, ErrCodeDuplicateProduct, domainErr.Code)
	})

	t.Run("rejects zero or negative quantity", func(t *testing.T) {
		inv := createPostedInvoiceForReturn(t)
		ret, err := NewInvoiceReturn("RT-2026-00004", inv, time.Now())
		require.NoError(t, err)

		matched := matchedLineFor(inv, nil, uuid.Nil)
		_, err = ret.AddLine(matched, decimal.Zero, DiscountTypeFixed, decimal.Zero)
		assert.Error(t, err)

		_, err = ret.AddLine(matched, dec(-1), DiscountTypeFixed, decimal.Zero)
		assert.Error(t, err)
	})
}

func TestInvoiceReturnEditCeiling(t *testing.T) {
	// Editing a draft that already holds quantity 3, with 4 returned
	// elsewhere, allows up to 6+3=9 but not 10.
	inv := createPostedInvoiceForReturn(t)
	productID := inv.Lines[0].ProductID

	ret, err := NewInvoiceReturn("RT-2026-00005", inv, time.Now())
	require.NoError(t, err)

	priors := []InvoiceReturn{
		returnWithLine(uuid.New(), productID, dec(4)),
		returnWithLine(ret.ID, productID, dec(3)), // this draft's own persisted state
	}

	matched := matchedLineFor(inv, priors, ret.ID)
	avail := matched.Availability()
	assert.True(t, avail.MaxSelectable.Equal(dec(9)))

	line, err := ret.AddLine(matched, dec(3), DiscountTypeFixed, decimal.Zero)
	require.NoError(t, err)

	require.NoError(t, ret.UpdateLineQuantity(line.ID, dec(9), avail.MaxSelectable))
	assert.True(t, ret.TotalQuantity.Equal(dec(9)))

	err = ret.UpdateLineQuantity(line.ID, dec(10), avail.MaxSelectable)
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, ErrCodeQuantityExceedsAvailable, domainErr.Code)
}

func TestInvoiceReturnRemoveLine(t *testing.T) {
	inv := createPostedInvoiceForReturn(t)
	ret, err := NewInvoiceReturn("RT-2026-00006", inv, time.Now())
	require.NoError(t, err)

	matched := matchedLineFor(inv, nil, uuid.Nil)
	line, err := ret.AddLine(matched, dec(5), DiscountTypeFixed, decimal.Zero)
	require.NoError(t, err)

	require.NoError(t, ret.RemoveLine(line.ID))
	assert.Equal(t, 0, ret.LineCount())
	assert.True(t, ret.GrandTotal.IsZero())

	err = ret.RemoveLine(line.ID)
	assert.Error(t, err)
}

func TestInvoiceReturnUpdateLineDiscount(t *testing.T) {
	inv := createPostedInvoiceForReturn(t)
	ret, err := NewInvoiceReturn("RT-2026-00007", inv, time.Now())
	require.NoError(t, err)

	matched := matchedLineFor(inv, nil, uuid.Nil)
	line, err := ret.AddLine(matched, dec(5), DiscountTypeFixed, decimal.Zero)
	require.NoError(t, err)

	// 5 * 100 = 500 subtotal, 10% discount leaves 450
	require.NoError(t, ret.UpdateLineDiscount(line.ID, DiscountTypePercentage, dec(10)))
	assert.True(t, ret.TotalDiscount.Equal(dec(50)))
	assert.True(t, ret.GrandTotal.Equal(dec(450)))

	err = ret.UpdateLineDiscount(line.ID, DiscountType("INVALID"), dec(10))
	assert.Error(t, err)
}

func TestInvoiceReturnPost(t *testing.T) {
	t.Run("posts a draft with qualifying lines", func(t *testing.T) {
		inv := createPostedInvoiceForReturn(t)
		ret, err := NewInvoiceReturn("RT-2026-00008", inv, time.Now())
		require.NoError(t, err)

		matched := matchedLineFor(inv, nil, uuid.Nil)
		_, err = ret.AddLine(matched, dec(2), DiscountTypeFixed, decimal.Zero)
		require.NoError(t, err)

		require.NoError(t, ret.Post())
		assert.True(t, ret.IsPosted())
		assert.NotNil(t, ret.PostedAt)
	})

	t.Run("rejects posting without lines", func(t *testing.T) {
		inv := createPostedInvoiceForReturn(t)
		ret, err := NewInvoiceReturn("RT-2026-00009", inv, time.Now())
		require.NoError(t, err)

		err = ret.Post()
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, ErrCodeNoLinesSelected, domainErr.Code)
	})

	t.Run("posted return is terminal", func(t *testing.T) {
		inv := createPostedInvoiceForReturn(t)
		ret, err := NewInvoiceReturn("RT-2026-00010", inv, time.Now())
		require.NoError(t, err)

		matched := matchedLineFor(inv, nil, uuid.Nil)
		line, err := ret.AddLine(matched, dec(2), DiscountTypeFixed, decimal.Zero)
		require.NoError(t, err)
		require.NoError(t, ret.Post())

		err = ret.Post()
		assert.Error(t, err)

		_, err = ret.AddLine(matched, dec(1), DiscountTypeFixed, decimal.Zero)
		assertLocked(t, err)

		assertLocked(t, ret.UpdateLineQuantity(line.ID, dec(1), dec(10)))
		assertLocked(t, ret.RemoveLine(line.ID))
		assertLocked(t, ret.SetRemark("changed"))
		assertLocked(t, ret.SetReturnDate(time.Now()))
		assertLocked(t, ret.ClearLines())
	})
}

func assertLocked(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, ErrCodeRecordLocked, domainErr.Code)
}
