package musiclink

import "context"

type Repository interface {
	Get(ctx context.Context, date string) (*Set, error)
	Save(ctx context.Context, s *Set) error
}
