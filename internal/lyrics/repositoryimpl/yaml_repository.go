package repositoryimpl

import (
	"context"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/serviceboard/internal/lyrics"
	"github.com/kazz187/serviceboard/pkg/cerr"
	"github.com/kazz187/serviceboard/pkg/storage"
)

const lyricsPrefix = "lyrics"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func dir(date string) string {
	return fmt.Sprintf("%s/%s", lyricsPrefix, date)
}

func path(date, id string) string {
	return fmt.Sprintf("%s/%s.yaml", dir(date), id)
}

func (r *YAMLRepository) Get(ctx context.Context, date, id string) (*lyrics.Lyric, error) {
	data, err := r.storage.Read(ctx, path(date, id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("lyric", err)
	}
	var l lyrics.Lyric
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal lyric: %w", err))
	}
	return &l, nil
}

func (r *YAMLRepository) ListByDate(ctx context.Context, date string) ([]*lyrics.Lyric, error) {
	paths, err := r.storage.List(ctx, dir(date))
	if err != nil {
		return nil, cerr.WrapStorageReadError("lyrics", err)
	}

	sort.Strings(paths)

	var all []*lyrics.Lyric
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		var l lyrics.Lyric
		if err := yaml.Unmarshal(data, &l); err != nil {
			continue
		}
		all = append(all, &l)
	}
	return all, nil
}

func (r *YAMLRepository) Save(ctx context.Context, l *lyrics.Lyric) error {
	data, err := yaml.Marshal(l)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal lyric: %w", err))
	}
	if err := r.storage.Write(ctx, path(l.Date, l.ID), data); err != nil {
		return cerr.WrapStorageWriteError("lyric", err)
	}
	return nil
}
