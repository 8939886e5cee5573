package middlewares

import (
	"context"

	"github.com/dpcompass/compass_backend/models"
	"github.com/graph-gophers/dataloader/v7"
	"gorm.io/gorm"
)

type auditReader struct {
	db *gorm.DB
}

func (r *auditReader) getAudits(ctx context.Context, ids []int) []*dataloader.Result[*models.Audit] {
	var results []models.Audit
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&results).Error
	if err != nil {
		return handleError[*models.Audit](len(ids), err)
	}
	return generateLoaderResults(results, ids)
}

func GetAudit(ctx context.Context, id int) (*models.Audit, error) {
	loaders := For(ctx)
	return loaders.AuditLoader.Load(ctx, id)()
}

func GetAudits(ctx context.Context, ids []int) ([]*models.Audit, []error) {
	loaders := For(ctx)
	return loaders.AuditLoader.LoadMany(ctx, ids)()
}
