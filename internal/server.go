package internal

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kazz187/serviceboard/internal/apiv1"
	"github.com/kazz187/serviceboard/internal/catalog"
	"github.com/kazz187/serviceboard/internal/config"
	"github.com/kazz187/serviceboard/internal/lyrics"
	"github.com/kazz187/serviceboard/internal/musiclink"
	"github.com/kazz187/serviceboard/internal/pushnotification"
	"github.com/kazz187/serviceboard/internal/sermon"
	"github.com/kazz187/serviceboard/internal/workflowtask"
	"github.com/kazz187/serviceboard/pkg/cerr"
	"github.com/kazz187/serviceboard/pkg/clog"
	"github.com/kazz187/serviceboard/pkg/jsoncodec"
	"github.com/kazz187/serviceboard/pkg/telemetry"
)

type Server struct {
	server                 *http.Server
	env                    *config.Env
	catalog                *catalog.Catalog
	workflowTaskServer     *workflowtask.Server
	lyricsServer           *lyrics.Server
	musicLinkServer        *musiclink.Server
	sermonServer           *sermon.Server
	pushNotificationServer *pushnotification.Server
}

func NewServer(
	env *config.Env,
	cat *catalog.Catalog,
	workflowTaskServer *workflowtask.Server,
	lyricsServer *lyrics.Server,
	musicLinkServer *musiclink.Server,
	sermonServer *sermon.Server,
	pushNotificationServer *pushnotification.Server,
) *Server {
	return &Server{
		env:                    env,
		catalog:                cat,
		workflowTaskServer:     workflowTaskServer,
		lyricsServer:           lyricsServer,
		musicLinkServer:        musicLinkServer,
		sermonServer:           sermonServer,
		pushNotificationServer: pushNotificationServer,
	}
}

// Handler builds the complete HTTP handler: connect procedures, the chi /api
// routes, health checks and metrics behind CORS and the API key check.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(
			clog.SlogChiMiddleware(),
			cerr.NewJSONResponseChiMiddleware(),
		)
		r.Get("/catalog", s.getCatalog)
		r.Route("/push", s.pushNotificationServer.Routes)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			cerr.SetNewJSONError(r.Context(), cerr.NotFound, "not found", nil)
		})
	})

	opts := []connect.HandlerOption{
		jsoncodec.Option(),
		connect.WithInterceptors(s.interceptors()...),
	}

	mux := http.NewServeMux()

	mux.Handle("/health", &HealthChecker{})
	mux.Handle("/metrics", telemetry.Handler())
	mux.Handle("/api/", r)
	mux.Handle(grpchealth.NewHandler(grpchealth.NewStaticChecker(
		apiv1.WorkflowServiceName,
		apiv1.LyricsServiceName,
		apiv1.MusicLinkServiceName,
		apiv1.SermonServiceName,
	), connect.WithInterceptors(s.interceptors()...)))

	handleUnary(mux, apiv1.WorkflowServiceGetWorkflowTasksProcedure, s.workflowTaskServer.GetWorkflowTasks, opts)
	handleUnary(mux, apiv1.WorkflowServiceUpdateTaskStatusProcedure, s.workflowTaskServer.UpdateTaskStatus, opts)
	handleUnary(mux, apiv1.WorkflowServiceDeleteWorkflowTaskProcedure, s.workflowTaskServer.DeleteWorkflowTask, opts)
	handleUnary(mux, apiv1.LyricsServiceGetLyricsByDateProcedure, s.lyricsServer.GetLyricsByDate, opts)
	handleUnary(mux, apiv1.LyricsServiceUpsertLyricProcedure, s.lyricsServer.UpsertLyric, opts)
	handleUnary(mux, apiv1.MusicLinkServiceGetMusicLinksProcedure, s.musicLinkServer.GetMusicLinks, opts)
	handleUnary(mux, apiv1.MusicLinkServiceSetMusicLinksProcedure, s.musicLinkServer.SetMusicLinks, opts)
	handleUnary(mux, apiv1.SermonServiceGetSermonByDateProcedure, s.sermonServer.GetSermonByDate, opts)
	handleUnary(mux, apiv1.SermonServiceUpsertSermonProcedure, s.sermonServer.UpsertSermon, opts)

	return cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(s.apiKeyMiddleware(mux))
}

func handleUnary[Req, Res any](
	mux *http.ServeMux,
	procedure string,
	fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error),
	opts []connect.HandlerOption,
) {
	mux.Handle(procedure, connect.NewUnaryHandler(procedure, fn, opts...))
}

// ListenAndServe starts the HTTP server. The provided context is used as the
// base context for all incoming requests via http.Server.BaseContext.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := net.JoinHostPort(s.env.HTTPHost, s.env.HTTPPort)
	slog.Info("starting server", "addr", addr)

	s.server = &http.Server{
		Addr:        addr,
		Handler:     h2c.NewHandler(s.Handler(), &http2.Server{}),
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type HealthChecker struct{}

func (hc *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) getCatalog(_ http.ResponseWriter, r *http.Request) {
	cerr.SetJSONResponse(r.Context(), map[string]any{
		"categories": s.catalog.ListCategories(),
		"aliases":    s.catalog.Aliases,
		"qrCodeTask": s.catalog.QRCodeTask,
	})
}

func (s *Server) interceptors() []connect.Interceptor {
	return []connect.Interceptor{
		clog.NewSlogConnectInterceptor(clog.WithConnectFilter(clog.SkipHealthCheck)),
		cerr.NewConvertConnectErrorInterceptor(),
	}
}

func (s *Server) apiKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip API key check for health and metrics endpoints.
		switch r.URL.Path {
		case "/health", "/metrics", "/grpc.health.v1.Health/Check":
			next.ServeHTTP(w, r)
			return
		}
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			apiKey = r.Header.Get("Authorization")
			if len(apiKey) > 7 && apiKey[:7] == "Bearer " {
				apiKey = apiKey[7:]
			}
		}
		if apiKey != s.env.APIKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
