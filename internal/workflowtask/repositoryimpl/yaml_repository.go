package repositoryimpl

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/serviceboard/internal/workflowtask"
	"github.com/kazz187/serviceboard/pkg/cerr"
	"github.com/kazz187/serviceboard/pkg/storage"
)

const workflowTasksPrefix = "workflow_tasks"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(date string) string {
	return fmt.Sprintf("%s/%s.yaml", workflowTasksPrefix, date)
}

func (r *YAMLRepository) Get(ctx context.Context, date string) (*workflowtask.DateTasks, error) {
	data, err := r.storage.Read(ctx, path(date))
	if err != nil {
		return nil, cerr.WrapStorageReadError("workflow_tasks", err)
	}
	var dt workflowtask.DateTasks
	if err := yaml.Unmarshal(data, &dt); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal workflow tasks: %w", err))
	}
	if dt.Tasks == nil {
		dt.Tasks = make(map[string]*workflowtask.Record)
	}
	dt.Date = date
	return &dt, nil
}

func (r *YAMLRepository) Save(ctx context.Context, dt *workflowtask.DateTasks) error {
	data, err := yaml.Marshal(dt)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal workflow tasks: %w", err))
	}
	if err := r.storage.Write(ctx, path(dt.Date), data); err != nil {
		return cerr.WrapStorageWriteError("workflow_tasks", err)
	}
	return nil
}

func (r *YAMLRepository) Delete(ctx context.Context, date string) error {
	if err := r.storage.Delete(ctx, path(date)); err != nil {
		return cerr.WrapStorageDeleteError("workflow_tasks", err)
	}
	return nil
}
