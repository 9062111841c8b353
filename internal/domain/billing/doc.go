// Package billing provides the domain model for invoices and invoice returns.
//
// This package implements the invoice bounded context, which is responsible for:
//   - Recording invoices and their line items
//   - Creating and editing returns drafted against an invoice
//   - Reconciling return quantities against what the invoice originally sold
//   - Computing line totals and document totals with discount handling
//
// Key Aggregates:
//   - Invoice: A sale document whose lines cap the returnable quantity per product
//   - InvoiceReturn: A return document referencing one invoice
//
// Reconciliation pairs invoice lines with previously returned quantities by
// product and derives, per line, how much is still available to return. When
// an existing return is being edited, its own persisted quantities are
// excluded from the returned tally and reported separately so the editor can
// raise a quantity back up to its previous value plus whatever else remains.
package billing
