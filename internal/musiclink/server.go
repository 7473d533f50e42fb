package musiclink

import (
	"context"
	"net/url"
	"time"

	"connectrpc.com/connect"

	"github.com/kazz187/serviceboard/internal/apiv1"
	"github.com/kazz187/serviceboard/pkg/cerr"
)

type Server struct {
	repo Repository
	now  func() time.Time
}

func NewServer(repo Repository) *Server {
	return &Server{repo: repo, now: time.Now}
}

func (s *Server) GetMusicLinks(ctx context.Context, req *connect.Request[apiv1.GetMusicLinksRequest]) (*connect.Response[apiv1.GetMusicLinksResponse], error) {
	if err := apiv1.ValidateDate(req.Msg.Date); err != nil {
		return nil, cerr.NewError(cerr.InvalidArgument, err.Error(), nil)
	}
	set, err := s.repo.Get(ctx, req.Msg.Date)
	if err != nil {
		if cerr.IsCode(err, cerr.NotFound) {
			return connect.NewResponse(&apiv1.GetMusicLinksResponse{MusicLinks: []apiv1.MusicLink{}}), nil
		}
		return nil, err
	}
	out := make([]apiv1.MusicLink, len(set.Links))
	for i, l := range set.Links {
		out[i] = apiv1.MusicLink{Title: l.Title, URL: l.URL}
	}
	return connect.NewResponse(&apiv1.GetMusicLinksResponse{MusicLinks: out}), nil
}

// SetMusicLinks replaces the whole list for the date.
func (s *Server) SetMusicLinks(ctx context.Context, req *connect.Request[apiv1.SetMusicLinksRequest]) (*connect.Response[apiv1.SetMusicLinksResponse], error) {
	if err := apiv1.ValidateDate(req.Msg.Date); err != nil {
		return nil, cerr.NewError(cerr.InvalidArgument, err.Error(), nil)
	}
	links := make([]Link, 0, len(req.Msg.MusicLinks))
	for _, l := range req.Msg.MusicLinks {
		u, err := url.ParseRequestURI(l.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return nil, cerr.NewError(cerr.InvalidArgument, "invalid music link url: "+l.URL, err)
		}
		links = append(links, Link{Title: l.Title, URL: l.URL})
	}
	if err := s.repo.Save(ctx, &Set{
		Date:      req.Msg.Date,
		Links:     links,
		UpdatedAt: s.now().UTC(),
	}); err != nil {
		return nil, err
	}
	return connect.NewResponse(&apiv1.SetMusicLinksResponse{}), nil
}
