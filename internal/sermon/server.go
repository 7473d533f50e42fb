package sermon

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"

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

// WithEventBus publishes a completion of the sermon translation task when
// the sermon translation turns finished.
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

// GetSermonByDate answers with an empty response when no sermon exists.
func (s *Server) GetSermonByDate(ctx context.Context, req *connect.Request[apiv1.GetSermonByDateRequest]) (*connect.Response[apiv1.GetSermonByDateResponse], error) {
	if err := apiv1.ValidateDate(req.Msg.Date); err != nil {
		return nil, cerr.NewError(cerr.InvalidArgument, err.Error(), nil)
	}
	sm, err := s.repo.Get(ctx, req.Msg.Date)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return connect.NewResponse(&apiv1.GetSermonByDateResponse{}), nil
		}
		return nil, err
	}
	out := toAPI(sm)
	return connect.NewResponse(&apiv1.GetSermonByDateResponse{Sermon: &out}), nil
}

func (s *Server) UpsertSermon(ctx context.Context, req *connect.Request[apiv1.UpsertSermonRequest]) (*connect.Response[apiv1.UpsertSermonResponse], error) {
	in := req.Msg.Sermon
	if err := apiv1.ValidateDate(in.Date); err != nil {
		return nil, cerr.NewError(cerr.InvalidArgument, err.Error(), nil)
	}
	if in.Translation != nil && !apiv1.ValidTranslationStatus(in.Translation.Status) {
		return nil, cerr.NewError(cerr.InvalidArgument, "invalid translation status: "+in.Translation.Status, nil)
	}

	now := s.now().UTC()
	sm := &Sermon{
		Date:      in.Date,
		Title:     in.Title,
		Text:      in.Text,
		UpdatedAt: now,
	}
	if in.Translation != nil {
		sm.Translation = &Translation{
			Status:    in.Translation.Status,
			Text:      in.Translation.Text,
			UpdatedAt: now,
		}
	}
	var wasTranslated bool
	if s.eventBus != nil {
		prev, err := s.repo.Get(ctx, sm.Date)
		switch {
		case err == nil:
			wasTranslated = prev.Translation != nil && apiv1.TranslationDone(prev.Translation.Status)
		case !cerr.IsCode(err, cerr.NotFound):
			return nil, err
		}
	}
	if err := s.repo.Save(ctx, sm); err != nil {
		return nil, err
	}
	if s.eventBus != nil && !wasTranslated && sm.Translation != nil && apiv1.TranslationDone(sm.Translation.Status) {
		slog.InfoContext(ctx, "sermon translation finished", "date", sm.Date)
		s.eventBus.PublishNew(eventbus.EventTaskStatusChanged, sm.Date, string(catalog.TaskTranslateSermon), apiv1.StatusCompleted, string(catalog.RoleTranslator))
	}
	return connect.NewResponse(&apiv1.UpsertSermonResponse{Sermon: toAPI(sm)}), nil
}

func toAPI(sm *Sermon) apiv1.Sermon {
	out := apiv1.Sermon{
		Date:  sm.Date,
		Title: sm.Title,
		Text:  sm.Text,
	}
	if sm.Translation != nil {
		out.Translation = &apiv1.Translation{
			Status:    sm.Translation.Status,
			Text:      sm.Translation.Text,
			UpdatedAt: sm.Translation.UpdatedAt,
		}
	}
	return out
}
