package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// InvoiceSortFields contains allowed sort fields for invoices
var InvoiceSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"invoice_number": true,
	"invoice_date":   true,
	"customer_id":    true,
	"customer_name":  true,
	"status":         true,
	"grand_total":    true,
	"posted_at":      true,
}

// InvoiceReturnSortFields contains allowed sort fields for invoice returns
var InvoiceReturnSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"return_number":  true,
	"return_date":    true,
	"invoice_id":     true,
	"invoice_number": true,
	"customer_id":    true,
	"customer_name":  true,
	"status":         true,
	"grand_total":    true,
	"posted_at":      true,
}
