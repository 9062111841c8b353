package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openpos/backend/internal/domain/billing"
	"github.com/openpos/backend/internal/domain/shared"
)

// GormInvoiceReturnRepository implements billing.InvoiceReturnRepository using GORM
type GormInvoiceReturnRepository struct {
	db *gorm.DB
}

// NewGormInvoiceReturnRepository creates a new GormInvoiceReturnRepository
func NewGormInvoiceReturnRepository(db *gorm.DB) *GormInvoiceReturnRepository {
	return &GormInvoiceReturnRepository{db: db}
}

// FindByID finds a return by its ID
func (r *GormInvoiceReturnRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.InvoiceReturn, error) {
	var ret billing.InvoiceReturn
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&ret, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &ret, nil
}

// FindByReturnNumber finds a return by return number
func (r *GormInvoiceReturnRepository) FindByReturnNumber(ctx context.Context, returnNumber string) (*billing.InvoiceReturn, error) {
	var ret billing.InvoiceReturn
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("return_number = ?", returnNumber).
		First(&ret).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &ret, nil
}

// FindAll finds all returns with filtering
func (r *GormInvoiceReturnRepository) FindAll(ctx context.Context, filter shared.Filter) ([]billing.InvoiceReturn, error) {
	var returns []billing.InvoiceReturn
	query := r.applyFilter(r.db.WithContext(ctx).Model(&billing.InvoiceReturn{}), filter)

	if err := query.Find(&returns).Error; err != nil {
		return nil, err
	}
	return returns, nil
}

// FindByInvoice finds all returns recorded against an invoice.
// Lines are preloaded since callers use them for availability arithmetic.
func (r *GormInvoiceReturnRepository) FindByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]billing.InvoiceReturn, error) {
	var returns []billing.InvoiceReturn
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("invoice_id = ?", invoiceID).
		Order("created_at DESC").
		Find(&returns).Error; err != nil {
		return nil, err
	}
	return returns, nil
}

// FindByCustomer finds returns for a customer
func (r *GormInvoiceReturnRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]billing.InvoiceReturn, error) {
	var returns []billing.InvoiceReturn
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&billing.InvoiceReturn{}).Where("customer_id = ?", customerID),
		filter,
	)

	if err := query.Find(&returns).Error; err != nil {
		return nil, err
	}
	return returns, nil
}

// Save creates or updates a return together with its lines
func (r *GormInvoiceReturnRepository) Save(ctx context.Context, ret *billing.InvoiceReturn) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Lines").Save(ret).Error; err != nil {
			return err
		}

		if ret.ID != uuid.Nil {
			currentLineIDs := make([]uuid.UUID, len(ret.Lines))
			for i, line := range ret.Lines {
				currentLineIDs[i] = line.ID
			}

			// Remove lines dropped from the aggregate
			if len(currentLineIDs) > 0 {
				if err := tx.Where("return_id = ? AND id NOT IN ?", ret.ID, currentLineIDs).
					Delete(&billing.InvoiceReturnLine{}).Error; err != nil {
					return err
				}
			} else {
				if err := tx.Where("return_id = ?", ret.ID).
					Delete(&billing.InvoiceReturnLine{}).Error; err != nil {
					return err
				}
			}

			for i := range ret.Lines {
				ret.Lines[i].ReturnID = ret.ID
				if err := tx.Save(&ret.Lines[i]).Error; err != nil {
					return err
				}
			}
		}

		return nil
	})
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormInvoiceReturnRepository) SaveWithLock(ctx context.Context, ret *billing.InvoiceReturn) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		if err := tx.Model(&billing.InvoiceReturn{}).
			Where("id = ?", ret.ID).
			Select("version").
			Scan(&currentVersion).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		if currentVersion != ret.Version {
			return shared.ErrConcurrencyConflict
		}

		ret.Version++
		ret.UpdatedAt = time.Now()

		result := tx.Model(&billing.InvoiceReturn{}).
			Where("id = ? AND version = ?", ret.ID, currentVersion).
			Updates(map[string]any{
				"return_number":  ret.ReturnNumber,
				"invoice_id":     ret.InvoiceID,
				"invoice_number": ret.InvoiceNumber,
				"customer_id":    ret.CustomerID,
				"customer_name":  ret.CustomerName,
				"return_date":    ret.ReturnDate,
				"status":         ret.Status,
				"total_quantity": ret.TotalQuantity,
				"total_price":    ret.TotalPrice,
				"total_discount": ret.TotalDiscount,
				"grand_total":    ret.GrandTotal,
				"remark":         ret.Remark,
				"posted_at":      ret.PostedAt,
				"version":        ret.Version,
				"updated_at":     ret.UpdatedAt,
			})

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		currentLineIDs := make([]uuid.UUID, len(ret.Lines))
		for i, line := range ret.Lines {
			currentLineIDs[i] = line.ID
		}

		if len(currentLineIDs) > 0 {
			if err := tx.Where("return_id = ? AND id NOT IN ?", ret.ID, currentLineIDs).
				Delete(&billing.InvoiceReturnLine{}).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Where("return_id = ?", ret.ID).
				Delete(&billing.InvoiceReturnLine{}).Error; err != nil {
				return err
			}
		}

		for i := range ret.Lines {
			ret.Lines[i].ReturnID = ret.ID
			if err := tx.Save(&ret.Lines[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// Delete deletes a return and its lines
func (r *GormInvoiceReturnRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("return_id = ?", id).Delete(&billing.InvoiceReturnLine{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&billing.InvoiceReturn{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Count counts returns with optional filters
func (r *GormInvoiceReturnRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&billing.InvoiceReturn{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByReturnNumber checks if a return number exists
func (r *GormInvoiceReturnRepository) ExistsByReturnNumber(ctx context.Context, returnNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&billing.InvoiceReturn{}).
		Where("return_number = ?", returnNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GenerateReturnNumber generates a unique return number.
// Format: RT-YYYY-NNNNN (e.g., RT-2026-00001)
func (r *GormInvoiceReturnRepository) GenerateReturnNumber(ctx context.Context) (string, error) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("RT-%d-", year)

	var lastReturn billing.InvoiceReturn
	err := r.db.WithContext(ctx).
		Model(&billing.InvoiceReturn{}).
		Where("return_number LIKE ?", prefix+"%").
		Order("return_number DESC").
		First(&lastReturn).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && lastReturn.ReturnNumber != "" {
		parts := strings.Split(lastReturn.ReturnNumber, "-")
		if len(parts) == 3 {
			var num int64
			if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	returnNumber := fmt.Sprintf("%s%05d", prefix, nextNum)

	exists, err := r.ExistsByReturnNumber(ctx, returnNumber)
	if err != nil {
		return "", err
	}
	if exists {
		for range 100 {
			nextNum++
			returnNumber = fmt.Sprintf("%s%05d", prefix, nextNum)
			exists, err = r.ExistsByReturnNumber(ctx, returnNumber)
			if err != nil {
				return "", err
			}
			if !exists {
				break
			}
		}
	}

	return returnNumber, nil
}

// applyFilter applies filter options to the query
func (r *GormInvoiceReturnRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := ValidateSortField(filter.OrderBy, InvoiceReturnSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormInvoiceReturnRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("return_number ILIKE ? OR customer_name ILIKE ? OR invoice_number ILIKE ?",
			searchPattern, searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		case "invoice_id":
			query = query.Where("invoice_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "start_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("return_date >= ?", t)
			}
		case "end_date":
			if t, ok := value.(time.Time); ok {
				query = query.Where("return_date <= ?", t)
			}
		}
	}

	return query
}

// Ensure GormInvoiceReturnRepository implements InvoiceReturnRepository
var _ billing.InvoiceReturnRepository = (*GormInvoiceReturnRepository)(nil)
