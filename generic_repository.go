package restblog

import "context"

type GenericRepository[T Document] interface {
	FindById(ctx context.Context, id interface{}) (T, error)
	FindAll(ctx context.Context, options ...interface{}) ([]T, error)
	Save(ctx context.Context, doc T) error
	SaveOrUpdate(ctx context.Context, doc T) error
	UpdateFields(ctx context.Context, id interface{}, fields map[string]interface{}) (T, error)
	Increment(ctx context.Context, id interface{}, field string, delta int64) (T, error)
	Delete(ctx context.Context, id interface{}) error
	DeleteBy(ctx context.Context, field string, value interface{}) (int64, error)
}
