package lyrics

import "context"

type Repository interface {
	Get(ctx context.Context, date, id string) (*Lyric, error)
	ListByDate(ctx context.Context, date string) ([]*Lyric, error)
	Save(ctx context.Context, l *Lyric) error
}
