package lyrics

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"github.com/oklog/ulid/v2"

	"github.com/kazz187/serviceboard/internal/apiv1"
	"github.com/kazz187/serviceboard/internal/catalog"
	"github.com/kazz187/serviceboard/internal/eventbus"
	"github.com/kazz187/serviceboard/pkg/cerr"
)

type Server struct {
	repo     Repository
	eventBus *eventbus.Bus
	now      func() time.Time
}

type Option func(*Server)

// WithEventBus publishes a completion of the lyrics translation task when
// the first lyric of a date gets a finished translation.
func WithEventBus(bus *eventbus.Bus) Option {
	return func(s *Server) {
		s.eventBus = bus
	}
}

func NewServer(repo Repository, opts ...Option) *Server {
	s := &Server{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) GetLyricsByDate(ctx context.Context, req *connect.Request[apiv1.GetLyricsByDateRequest]) (*connect.Response[apiv1.GetLyricsByDateResponse], error) {
	if err := apiv1.ValidateDate(req.Msg.Date); err != nil {
		return nil, cerr.NewError(cerr.InvalidArgument, err.Error(), nil)
	}
	all, err := s.repo.ListByDate(ctx, req.Msg.Date)
	if err != nil {
		return nil, err
	}
	out := make([]apiv1.Lyric, len(all))
	for i, l := range all {
		out[i] = toAPI(l)
	}
	return connect.NewResponse(&apiv1.GetLyricsByDateResponse{Lyrics: out}), nil
}

// UpsertLyric creates the lyric when it has no id and replaces it otherwise.
func (s *Server) UpsertLyric(ctx context.Context, req *connect.Request[apiv1.UpsertLyricRequest]) (*connect.Response[apiv1.UpsertLyricResponse], error) {
	in := req.Msg.Lyric
	if err := apiv1.ValidateDate(in.Date); err != nil {
		return nil, cerr.NewError(cerr.InvalidArgument, err.Error(), nil)
	}
	if in.Title == "" {
		return nil, cerr.NewError(cerr.InvalidArgument, "title is required", nil)
	}
	if in.Translation != nil && !apiv1.ValidTranslationStatus(in.Translation.Status) {
		return nil, cerr.NewError(cerr.InvalidArgument, "invalid translation status: "+in.Translation.Status, nil)
	}

	now := s.now().UTC()
	l := &Lyric{
		ID:        in.ID,
		Date:      in.Date,
		Title:     in.Title,
		Text:      in.Text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if l.ID == "" {
		l.ID = ulid.Make().String()
	} else {
		if _, err := ulid.ParseStrict(l.ID); err != nil {
			return nil, cerr.NewError(cerr.InvalidArgument, "invalid lyric id: "+l.ID, nil)
		}
		existing, err := s.repo.Get(ctx, in.Date, in.ID)
		switch {
		case err == nil:
			l.CreatedAt = existing.CreatedAt
		case !cerr.IsCode(err, cerr.NotFound):
			return nil, err
		}
	}
	if in.Translation != nil {
		l.Translation = &Translation{
			Status:    in.Translation.Status,
			Text:      in.Translation.Text,
			UpdatedAt: now,
		}
	}
	var wasTranslated bool
	if s.eventBus != nil {
		var err error
		if wasTranslated, err = s.translated(ctx, l.Date); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Save(ctx, l); err != nil {
		return nil, err
	}
	if s.eventBus != nil && !wasTranslated && l.Translation != nil && apiv1.TranslationDone(l.Translation.Status) {
		slog.InfoContext(ctx, "lyrics translation finished", "date", l.Date, "lyric_id", l.ID)
		s.eventBus.PublishNew(eventbus.EventTaskStatusChanged, l.Date, string(catalog.TaskTranslateLiturgy), apiv1.StatusCompleted, string(catalog.RoleTranslator))
	}
	return connect.NewResponse(&apiv1.UpsertLyricResponse{Lyric: toAPI(l)}), nil
}

func (s *Server) translated(ctx context.Context, date string) (bool, error) {
	all, err := s.repo.ListByDate(ctx, date)
	if err != nil {
		return false, err
	}
	for _, l := range all {
		if l.Translation != nil && apiv1.TranslationDone(l.Translation.Status) {
			return true, nil
		}
	}
	return false, nil
}

func toAPI(l *Lyric) apiv1.Lyric {
	out := apiv1.Lyric{
		ID:    l.ID,
		Date:  l.Date,
		Title: l.Title,
		Text:  l.Text,
	}
	if l.Translation != nil {
		out.Translation = &apiv1.Translation{
			Status:    l.Translation.Status,
			Text:      l.Translation.Text,
			UpdatedAt: l.Translation.UpdatedAt,
		}
	}
	return out
}
