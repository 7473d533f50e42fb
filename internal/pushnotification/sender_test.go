package pushnotification

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/serviceboard/internal/catalog"
	"github.com/kazz187/serviceboard/internal/config"
	"github.com/kazz187/serviceboard/internal/pushsubscription"
	"github.com/kazz187/serviceboard/internal/pushsubscription/repositoryimpl"
	"github.com/kazz187/serviceboard/pkg/cerr"
	"github.com/kazz187/serviceboard/pkg/storage"
)

func newSender(t *testing.T, status map[string]int) (*Sender, pushsubscription.Repository, *[]string) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	repo := repositoryimpl.NewYAMLRepository(store)
	s := NewSender(&config.VAPIDEnv{VAPIDPublicKey: "pub", VAPIDPrivateKey: "priv"}, repo)

	var (
		mu        sync.Mutex
		endpoints []string
	)
	s.send = func(_ []byte, sub *webpush.Subscription, _ *webpush.Options) (*http.Response, error) {
		mu.Lock()
		endpoints = append(endpoints, sub.Endpoint)
		mu.Unlock()
		code, ok := status[sub.Endpoint]
		if !ok {
			return nil, errors.New("unreachable")
		}
		return &http.Response{StatusCode: code, Body: io.NopCloser(strings.NewReader(""))}, nil
	}
	return s, repo, &endpoints
}

func TestSender_SendToRoles(t *testing.T) {
	s, repo, endpoints := newSender(t, map[string]int{
		"https://push.example/pastor": http.StatusCreated,
		"https://push.example/gone":   http.StatusGone,
		"https://push.example/moved":  http.StatusNotFound,
	})
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, &pushsubscription.Subscription{ID: "01A", Role: "pastor", Endpoint: "https://push.example/pastor"}))
	require.NoError(t, repo.Save(ctx, &pushsubscription.Subscription{ID: "01B", Role: "pastor", Endpoint: "https://push.example/gone"}))
	require.NoError(t, repo.Save(ctx, &pushsubscription.Subscription{ID: "01C", Role: "beamer", Endpoint: "https://push.example/beamer"}))
	require.NoError(t, repo.Save(ctx, &pushsubscription.Subscription{ID: "01D", Role: "translator", Endpoint: "https://push.example/moved"}))

	s.SendToRoles(ctx, []catalog.RoleID{catalog.RolePastor, catalog.RoleTranslator}, &NotificationPayload{Title: "Ready"})

	assert.ElementsMatch(t, []string{"https://push.example/pastor", "https://push.example/gone", "https://push.example/moved"}, *endpoints)
	_, err := repo.Get(ctx, "01D")
	assert.True(t, cerr.IsCode(err, cerr.NotFound), "unknown endpoint is removed")
	_, err = repo.Get(ctx, "01B")
	assert.True(t, cerr.IsCode(err, cerr.NotFound), "expired subscription is removed")
	_, err = repo.Get(ctx, "01A")
	assert.NoError(t, err)
}

func TestSender_SkipsWithoutVAPIDKeys(t *testing.T) {
	s, repo, endpoints := newSender(t, nil)
	s.vapidEnv = &config.VAPIDEnv{}
	require.NoError(t, repo.Save(context.Background(), &pushsubscription.Subscription{ID: "01A", Role: "pastor", Endpoint: "https://push.example/a"}))

	s.SendToAll(context.Background(), &NotificationPayload{Title: "x"})
	assert.Empty(t, *endpoints)
}
