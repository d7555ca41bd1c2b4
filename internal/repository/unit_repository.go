package repository

import (
	"context"
	"pathways_backend/internal/model"

	"gorm.io/gorm"
)

// UnitRepository reads the published catalog: units with their questions, modules and paths.
type UnitRepository struct {
	DB    *gorm.DB
	Cache *DefinitionCache
}

func NewUnitRepository(db *gorm.DB, cache *DefinitionCache) *UnitRepository {
	return &UnitRepository{DB: db, Cache: cache}
}

// WithTx returns a repository bound to tx. The definition cache is not consulted inside transactions.
func (r *UnitRepository) WithTx(tx *gorm.DB) *UnitRepository {
	return &UnitRepository{DB: tx}
}

// FindUnit loads a unit definition including questions and answers in published order.
func (r *UnitRepository) FindUnit(ctx context.Context, unitID string) (*model.Unit, error) {
	if unit, ok := r.Cache.Get(ctx, unitID); ok {
		return unit, nil
	}

	var unit model.Unit
	err := r.DB.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("seq asc, id asc")
		}).
		Preload("Questions.Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("seq asc, id asc")
		}).
		Where("id = ?", unitID).
		First(&unit).Error
	if err != nil {
		return nil, err
	}

	r.Cache.Set(ctx, &unit)
	return &unit, nil
}

func (r *UnitRepository) FindModule(ctx context.Context, moduleID string) (*model.Module, error) {
	var m model.Module
	err := r.DB.WithContext(ctx).Where("id = ?", moduleID).First(&m).Error
	return &m, err
}

func (r *UnitRepository) FindPath(ctx context.Context, pathID string) (*model.Path, error) {
	var p model.Path
	err := r.DB.WithContext(ctx).Where("id = ?", pathID).First(&p).Error
	return &p, err
}

// ListModuleUnits returns the module's units in order, without question definitions.
func (r *UnitRepository) ListModuleUnits(ctx context.Context, moduleID string) ([]model.Unit, error) {
	return r.ListUnitsForModules(ctx, []string{moduleID})
}

func (r *UnitRepository) ListUnitsForModules(ctx context.Context, moduleIDs []string) ([]model.Unit, error) {
	var units []model.Unit
	if len(moduleIDs) == 0 {
		return units, nil
	}
	err := r.DB.WithContext(ctx).
		Where("module_id IN ?", moduleIDs).
		Order("seq asc, id asc").
		Find(&units).Error
	return units, err
}

// ListPathModuleIDs returns the ids of the modules signposted on a path, in path order.
func (r *UnitRepository) ListPathModuleIDs(ctx context.Context, pathID string) ([]string, error) {
	var ids []string
	err := r.DB.WithContext(ctx).
		Model(&model.PathModule{}).
		Where("path_id = ?", pathID).
		Order("seq asc").
		Pluck("module_id", &ids).Error
	return ids, err
}

func (r *UnitRepository) PathHasModule(ctx context.Context, pathID, moduleID string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&model.PathModule{}).
		Where("path_id = ? AND module_id = ?", pathID, moduleID).
		Count(&count).Error
	return count > 0, err
}
