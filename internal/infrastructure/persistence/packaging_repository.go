package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/goodsdist/backend/internal/domain/packaging"
	"github.com/goodsdist/backend/internal/domain/shared"
	"github.com/goodsdist/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductPackagingRepository implements ProductPackagingRepository using GORM
type GormProductPackagingRepository struct {
	db *gorm.DB
}

// NewGormProductPackagingRepository creates a new GormProductPackagingRepository
func NewGormProductPackagingRepository(db *gorm.DB) *GormProductPackagingRepository {
	return &GormProductPackagingRepository{db: db}
}

func orderedLayers(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// FindByIDForTenant finds a packaging record by ID within a tenant
func (r *GormProductPackagingRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*packaging.ProductPackaging, error) {
	var model models.ProductPackagingModel
	if err := r.db.WithContext(ctx).
		Preload("Layers", orderedLayers).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant lists packaging records for a tenant
func (r *GormProductPackagingRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]packaging.ProductPackaging, error) {
	var rows []models.ProductPackagingModel
	query := r.filtered(ctx, tenantID, filter).Preload("Layers", orderedLayers)

	orderBy := ValidateSortField(filter.OrderBy, PackagingSortFields, "created_at")
	query = query.Order(fmt.Sprintf("%s %s", orderBy, ValidateSortOrder(filter.OrderDir)))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]packaging.ProductPackaging, len(rows))
	for i := range rows {
		records[i] = *rows[i].ToDomain()
	}
	return records, nil
}

// CountForTenant counts packaging records for a tenant
func (r *GormProductPackagingRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.filtered(ctx, tenantID, filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormProductPackagingRepository) filtered(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.ProductPackagingModel{}).
		Where("tenant_id = ?", tenantID)
	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
	}
	return query
}

// Save inserts a new record or updates an existing one with an optimistic
// version check. Layers are replaced wholesale.
func (r *GormProductPackagingRepository) Save(ctx context.Context, p *packaging.ProductPackaging) error {
	model := models.ProductPackagingModelFromDomain(p)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.ProductPackagingModel
		err := tx.Select("version").Where("id = ?", p.ID).First(&current).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(model).Error
		}
		if err != nil {
			return err
		}

		expectedVersion := p.GetVersion() - 1
		if current.Version != expectedVersion {
			return shared.ErrConcurrencyConflict
		}

		result := tx.Model(&models.ProductPackagingModel{}).
			Where("id = ? AND version = ?", p.ID, expectedVersion).
			Updates(map[string]any{
				"name":                  model.Name,
				"buying_price_per_unit": model.BuyingPricePerUnit,
				"auto_calculate":        model.AutoCalculate,
				"version":               model.Version,
				"updated_at":            model.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		if err := tx.Where("packaging_id = ?", p.ID).Delete(&models.PackagingLayerModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear packaging layers: %w", err)
		}
		if len(model.Layers) == 0 {
			return nil
		}
		return tx.Omit(clause.Associations).Create(&model.Layers).Error
	})
}

// DeleteForTenant deletes a packaging record and its layers
func (r *GormProductPackagingRepository) DeleteForTenant(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("tenant_id = ? AND id = ?", tenantID, id).Delete(&models.ProductPackagingModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return tx.Where("packaging_id = ?", id).Delete(&models.PackagingLayerModel{}).Error
	})
}
