package pushnotification

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/kazz187/serviceboard/internal/catalog"
	"github.com/kazz187/serviceboard/internal/config"
	"github.com/kazz187/serviceboard/internal/pushsubscription"
	"github.com/kazz187/serviceboard/internal/rolegate"
	"github.com/kazz187/serviceboard/pkg/cerr"
)

type registerRequest struct {
	Role      string `json:"role"`
	Endpoint  string `json:"endpoint"`
	P256dhKey string `json:"p256dhKey"`
	AuthKey   string `json:"authKey"`
}

type unregisterRequest struct {
	Endpoint string `json:"endpoint"`
}

type vapidKeyResponse struct {
	PublicKey string `json:"publicKey"`
}

// Server serves the push subscription routes under /api/push. Responses are
// written by the cerr JSON middleware.
type Server struct {
	vapidEnv *config.VAPIDEnv
	repo     pushsubscription.Repository
	catalog  *catalog.Catalog
	sender   *Sender
}

func NewServer(vapidEnv *config.VAPIDEnv, repo pushsubscription.Repository, cat *catalog.Catalog, sender *Sender) *Server {
	return &Server{
		vapidEnv: vapidEnv,
		repo:     repo,
		catalog:  cat,
		sender:   sender,
	}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/vapid-public-key", s.getVapidPublicKey)
	r.Post("/subscriptions", s.registerPushSubscription)
	r.Delete("/subscriptions", s.unregisterPushSubscription)
	r.Post("/test", s.sendTestNotification)
}

func (s *Server) getVapidPublicKey(_ http.ResponseWriter, r *http.Request) {
	if s.vapidEnv.VAPIDPublicKey == "" {
		cerr.SetNewJSONError(r.Context(), cerr.FailedPrecondition, "VAPID keys not configured", nil)
		return
	}
	cerr.SetJSONResponse(r.Context(), &vapidKeyResponse{PublicKey: s.vapidEnv.VAPIDPublicKey})
}

func (s *Server) registerPushSubscription(_ http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	role := rolegate.Normalize(req.Role)
	switch {
	case req.Endpoint == "":
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "endpoint is required", nil)
		return
	case req.P256dhKey == "":
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "p256dhKey is required", nil)
		return
	case req.AuthKey == "":
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "authKey is required", nil)
		return
	case !s.knownRole(role):
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "unknown role: "+req.Role, nil)
		return
	}

	// Idempotent: an existing endpoint keeps its id and takes the new keys.
	sub := &pushsubscription.Subscription{
		ID:        ulid.Make().String(),
		CreatedAt: time.Now(),
	}
	existing, err := s.repo.FindByEndpoint(ctx, req.Endpoint)
	switch {
	case err == nil:
		sub = existing
	case !cerr.IsCode(err, cerr.NotFound):
		cerr.SetJSONError(ctx, err)
		return
	}
	sub.Role = string(role)
	sub.Endpoint = req.Endpoint
	sub.P256dhKey = req.P256dhKey
	sub.AuthKey = req.AuthKey
	if err := s.repo.Save(ctx, sub); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]string{"id": sub.ID})
}

func (s *Server) unregisterPushSubscription(_ http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req unregisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Endpoint) == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "endpoint is required", nil)
		return
	}
	if err := s.repo.DeleteByEndpoint(ctx, req.Endpoint); err != nil {
		cerr.SetJSONError(ctx, err)
	}
}

func (s *Server) sendTestNotification(_ http.ResponseWriter, r *http.Request) {
	s.sender.SendToAll(r.Context(), &NotificationPayload{
		Title: "Service board test",
		Body:  "Push notifications are working!",
	})
}

func (s *Server) knownRole(role catalog.RoleID) bool {
	if role == "" {
		return false
	}
	for _, c := range s.catalog.ListCategories() {
		if c.OwnerRole == role {
			return true
		}
		for _, t := range c.Subtasks {
			if t.RestrictedToRole == role {
				return true
			}
		}
	}
	return false
}
