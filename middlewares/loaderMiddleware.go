package middlewares

import (
	"context"
	"reflect"
	"time"

	"github.com/dpcompass/compass_backend/config"
	"github.com/dpcompass/compass_backend/models"
	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"
	"gorm.io/gorm"
)

type ctxKey string

const (
	loadersKey = ctxKey("dataloaders")
)

// Loaders wrap your data loaders to inject via middleware
type Loaders struct {
	UserLoader        *dataloader.Loader[int, *models.User]
	ApplicationLoader *dataloader.Loader[int, *models.Application]
	AuditLoader       *dataloader.Loader[int, *models.Audit]
}

// NewLoaders instantiates data loaders for the middleware
func NewLoaders(conn *gorm.DB) *Loaders {
	userReader := &userReader{db: conn}
	applicationReader := &applicationReader{db: conn}
	auditReader := &auditReader{db: conn}

	return &Loaders{
		UserLoader:        dataloader.NewBatchedLoader(userReader.getUsers, dataloader.WithWait[int, *models.User](time.Millisecond)),
		ApplicationLoader: dataloader.NewBatchedLoader(applicationReader.getApplications, dataloader.WithWait[int, *models.Application](time.Millisecond)),
		AuditLoader:       dataloader.NewBatchedLoader(auditReader.getAudits, dataloader.WithWait[int, *models.Audit](time.Millisecond)),
	}
}

func LoaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := WithLoaders(c.Request.Context(), NewLoaders(config.GetDB()))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}

func For(ctx context.Context) *Loaders {
	return ctx.Value(loadersKey).(*Loaders)
}

// handleError creates array of result with the same error repeated for as many items requested
func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}

// turns results from db into dataloader results
// (T must be a struct)
func generateLoaderResults[T models.Data](results []T, ids []int) []*dataloader.Result[*T] {
	resultMap := make(map[int]T)
	var resultZero T
	resultMap[0] = resultZero.GetDefault(0).(T)
	for _, result := range results {
		resultMap[result.GetId()] = result
	}

	loaderResults := make([]*dataloader.Result[*T], 0, len(ids))
	for _, id := range ids {
		data := resultMap[id]
		if reflect.ValueOf(data).IsZero() {
			data = data.GetDefault(id).(T)
		}
		loaderResults = append(loaderResults, &dataloader.Result[*T]{Data: &data})
	}
	return loaderResults
}
