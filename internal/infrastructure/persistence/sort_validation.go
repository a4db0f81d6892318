package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes the sort direction to ASC or DESC (default).
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when it is whitelisted, else defaultField.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// PackagingSortFields contains allowed sort fields for packaging records
var PackagingSortFields = map[string]bool{
	"created_at":            true,
	"updated_at":            true,
	"name":                  true,
	"buying_price_per_unit": true,
}
