package pushnotification

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/sourcegraph/conc/pool"

	"github.com/kazz187/serviceboard/internal/catalog"
	"github.com/kazz187/serviceboard/internal/config"
	"github.com/kazz187/serviceboard/internal/pushsubscription"
	"github.com/kazz187/serviceboard/pkg/telemetry"
)

const (
	// A handoff older than a day is about last week's service.
	notificationTTL    = int((24 * time.Hour) / time.Second)
	maxConcurrentSends = 4
)

type NotificationPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

type sendFunc func(message []byte, s *webpush.Subscription, options *webpush.Options) (*http.Response, error)

// Sender delivers Web Push notifications to the devices registered per role.
type Sender struct {
	vapidEnv *config.VAPIDEnv
	repo     pushsubscription.Repository
	send     sendFunc
}

func NewSender(vapidEnv *config.VAPIDEnv, repo pushsubscription.Repository) *Sender {
	return &Sender{
		vapidEnv: vapidEnv,
		repo:     repo,
		send:     webpush.SendNotification,
	}
}

// SendToRoles delivers payload to every device registered for one of roles.
// Delivery failures are logged and never returned.
func (s *Sender) SendToRoles(ctx context.Context, roles []catalog.RoleID, payload *NotificationPayload) {
	var subs []*pushsubscription.Subscription
	for _, role := range roles {
		byRole, err := s.repo.ListByRole(ctx, string(role))
		if err != nil {
			slog.ErrorContext(ctx, "push notification: failed to list subscriptions", "role", role, "error", err)
			continue
		}
		subs = append(subs, byRole...)
	}
	s.deliver(ctx, subs, payload)
}

func (s *Sender) SendToAll(ctx context.Context, payload *NotificationPayload) {
	subs, err := s.repo.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "push notification: failed to list subscriptions", "error", err)
		return
	}
	s.deliver(ctx, subs, payload)
}

func (s *Sender) deliver(ctx context.Context, subs []*pushsubscription.Subscription, payload *NotificationPayload) {
	if s.vapidEnv.VAPIDPrivateKey == "" || s.vapidEnv.VAPIDPublicKey == "" {
		slog.WarnContext(ctx, "push notification: VAPID keys not configured, skipping", "title", payload.Title)
		return
	}
	if len(subs) == 0 {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "push notification: failed to marshal payload", "error", err)
		return
	}
	p := pool.New().WithMaxGoroutines(maxConcurrentSends)
	for _, sub := range subs {
		sub := sub
		p.Go(func() {
			telemetry.ServerPushSentTotal.WithLabelValues(s.sendOne(ctx, sub, data)).Inc()
		})
	}
	p.Wait()
}

// sendOne returns the metric label for the delivery result. Push services
// answer 404 or 410 for devices that unsubscribed; those are removed.
func (s *Sender) sendOne(ctx context.Context, sub *pushsubscription.Subscription, data []byte) string {
	resp, err := s.send(data, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys:     webpush.Keys{P256dh: sub.P256dhKey, Auth: sub.AuthKey},
	}, &webpush.Options{
		VAPIDPublicKey:  s.vapidEnv.VAPIDPublicKey,
		VAPIDPrivateKey: s.vapidEnv.VAPIDPrivateKey,
		Subscriber:      s.vapidEnv.VAPIDContact,
		TTL:             notificationTTL,
		Urgency:         webpush.UrgencyHigh,
	})
	if err != nil {
		slog.ErrorContext(ctx, "push notification: failed to send", "role", sub.Role, "endpoint", sub.Endpoint, "error", err)
		return "error"
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		slog.InfoContext(ctx, "push notification: subscription expired, removing", "role", sub.Role, "endpoint", sub.Endpoint)
		if err := s.repo.DeleteByEndpoint(ctx, sub.Endpoint); err != nil {
			slog.ErrorContext(ctx, "push notification: failed to delete expired subscription", "id", sub.ID, "error", err)
		}
		return "gone"
	case resp.StatusCode >= 400:
		slog.WarnContext(ctx, "push notification: unexpected status", "role", sub.Role, "endpoint", sub.Endpoint, "status", resp.StatusCode)
		return "error"
	}
	return "ok"
}
