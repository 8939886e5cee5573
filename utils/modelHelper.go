package utils

import (
	"context"
	"errors"

	"github.com/dpcompass/compass_backend/config"
	"gorm.io/gorm"
)

/* DB fetching */

// fetch model from db
// (may return RecordNotFound)
func FetchModel[T any](ctx context.Context, id int, associations ...string) (*T, error) {
	return FetchScopedModel[T](ctx, id, nil, associations...)
}

// fetch model from db, restricted by scope
// (may return RecordNotFound)
func FetchScopedModel[T any](ctx context.Context, id int, scope func(*gorm.DB) *gorm.DB, associations ...string) (*T, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	if scope != nil {
		dbCtx = dbCtx.Scopes(scope)
	}
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	if err := dbCtx.First(&result, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

// fetch models matching scope, in the given order
func FetchScopedModels[T any](ctx context.Context, scope func(*gorm.DB) *gorm.DB, order string, associations ...string) ([]*T, error) {
	db := config.GetDB()
	var model T
	dbCtx := db.WithContext(ctx).Model(&model)
	if scope != nil {
		dbCtx = dbCtx.Scopes(scope)
	}
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	if order != "" {
		dbCtx = dbCtx.Order(order)
	}
	var results []*T
	if err := dbCtx.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
