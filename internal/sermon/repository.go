package sermon

import "context"

type Repository interface {
	Get(ctx context.Context, date string) (*Sermon, error)
	Save(ctx context.Context, s *Sermon) error
}
