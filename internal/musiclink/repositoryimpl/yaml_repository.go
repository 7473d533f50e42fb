package repositoryimpl

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/serviceboard/internal/musiclink"
	"github.com/kazz187/serviceboard/pkg/cerr"
	"github.com/kazz187/serviceboard/pkg/storage"
)

const musicLinksPrefix = "music_links"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(date string) string {
	return fmt.Sprintf("%s/%s.yaml", musicLinksPrefix, date)
}

func (r *YAMLRepository) Get(ctx context.Context, date string) (*musiclink.Set, error) {
	data, err := r.storage.Read(ctx, path(date))
	if err != nil {
		return nil, cerr.WrapStorageReadError("music_links", err)
	}
	var s musiclink.Set
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal music links: %w", err))
	}
	return &s, nil
}

func (r *YAMLRepository) Save(ctx context.Context, s *musiclink.Set) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal music links: %w", err))
	}
	if err := r.storage.Write(ctx, path(s.Date), data); err != nil {
		return cerr.WrapStorageWriteError("music_links", err)
	}
	return nil
}
