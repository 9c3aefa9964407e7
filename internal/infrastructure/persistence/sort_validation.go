package persistence

import (
	"errors"
	"strings"

	"github.com/retailpos/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder normalizes the sort order to ASC or DESC, defaulting to DESC
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when whitelisted, defaultField otherwise.
// Sort columns are interpolated into SQL, so only whitelisted names pass.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed != "" && allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

var CompanySortFields = map[string]bool{
	"created_at": true,
	"name":       true,
	"trade_name": true,
}

var UserSortFields = map[string]bool{
	"created_at":    true,
	"username":      true,
	"name":          true,
	"role":          true,
	"last_login_at": true,
}

var ProductSortFields = map[string]bool{
	"created_at":     true,
	"updated_at":     true,
	"code":           true,
	"name":           true,
	"unit_price":     true,
	"cost_price":     true,
	"stock_quantity": true,
}

var CustomerSortFields = map[string]bool{
	"created_at":   true,
	"updated_at":   true,
	"name":         true,
	"city":         true,
	"credit_limit": true,
}

var SaleSortFields = map[string]bool{
	"created_at":  true,
	"sold_at":     true,
	"sale_number": true,
	"total":       true,
}

var InstallmentSortFields = map[string]bool{
	"due_date":   true,
	"amount":     true,
	"number":     true,
	"created_at": true,
}

// applyPaging adds ORDER BY, OFFSET and LIMIT for a normalized filter
func applyPaging(q *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	f := filter.Normalize()
	field := ValidateSortField(f.OrderBy, allowed, defaultField)
	q = q.Order(field + " " + ValidateSortOrder(f.OrderDir))
	return q.Offset(f.Offset()).Limit(f.PageSize)
}

// searchPattern builds a case-insensitive LIKE pattern; callers compare against LOWER(column)
func searchPattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}

// translateError maps gorm's not found error to the domain sentinel
func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}
