package workflowtask

import "context"

type Repository interface {
	Get(ctx context.Context, date string) (*DateTasks, error)
	Save(ctx context.Context, dt *DateTasks) error
	Delete(ctx context.Context, date string) error
}
