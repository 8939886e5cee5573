package middlewares

import (
	"context"

	"github.com/dpcompass/compass_backend/models"
	"github.com/graph-gophers/dataloader/v7"
	"gorm.io/gorm"
)

type applicationReader struct {
	db *gorm.DB
}

func (r *applicationReader) getApplications(ctx context.Context, ids []int) []*dataloader.Result[*models.Application] {
	var results []models.Application
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&results).Error
	if err != nil {
		return handleError[*models.Application](len(ids), err)
	}
	return generateLoaderResults(results, ids)
}

func GetApplication(ctx context.Context, id int) (*models.Application, error) {
	loaders := For(ctx)
	return loaders.ApplicationLoader.Load(ctx, id)()
}

func GetApplications(ctx context.Context, ids []int) ([]*models.Application, []error) {
	loaders := For(ctx)
	return loaders.ApplicationLoader.LoadMany(ctx, ids)()
}
