package repositoryimpl

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/serviceboard/internal/sermon"
	"github.com/kazz187/serviceboard/pkg/cerr"
	"github.com/kazz187/serviceboard/pkg/storage"
)

const sermonsPrefix = "sermons"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(date string) string {
	return fmt.Sprintf("%s/%s.yaml", sermonsPrefix, date)
}

func (r *YAMLRepository) Get(ctx context.Context, date string) (*sermon.Sermon, error) {
	data, err := r.storage.Read(ctx, path(date))
	if err != nil {
		return nil, cerr.WrapStorageReadError("sermon", err)
	}
	var s sermon.Sermon
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal sermon: %w", err))
	}
	return &s, nil
}

func (r *YAMLRepository) Save(ctx context.Context, s *sermon.Sermon) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal sermon: %w", err))
	}
	if err := r.storage.Write(ctx, path(s.Date), data); err != nil {
		return cerr.WrapStorageWriteError("sermon", err)
	}
	return nil
}
