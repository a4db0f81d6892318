package packaging

import (
	"context"

	"github.com/goodsdist/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductPackagingRepository persists packaging records
type ProductPackagingRepository interface {
	// FindByIDForTenant returns the record or shared.ErrNotFound
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ProductPackaging, error)
	// FindAllForTenant lists records ordered by the filter
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ProductPackaging, error)
	// CountForTenant counts records matching the filter's search
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)
	// Save inserts or updates the record. Updates fail with
	// shared.ErrConcurrencyConflict when the stored version moved on.
	Save(ctx context.Context, p *ProductPackaging) error
	// DeleteForTenant removes the record and its layers
	DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error
}
