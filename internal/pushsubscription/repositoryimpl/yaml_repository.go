package repositoryimpl

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/serviceboard/internal/pushsubscription"
	"github.com/kazz187/serviceboard/pkg/cerr"
	"github.com/kazz187/serviceboard/pkg/storage"
)

// All subscriptions live in one document keyed by endpoint; a church has a
// handful of devices, and the endpoint is what a browser re-registers with.
const subscriptionsPath = "push_subscriptions.yaml"

type document struct {
	Subscriptions map[string]*pushsubscription.Subscription `yaml:"subscriptions"`
}

type YAMLRepository struct {
	storage storage.Storage
	mu      sync.Mutex
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func (r *YAMLRepository) load(ctx context.Context) (*document, error) {
	doc := &document{Subscriptions: map[string]*pushsubscription.Subscription{}}
	data, err := r.storage.Read(ctx, subscriptionsPath)
	if errors.Is(err, storage.ErrNotFound) {
		return doc, nil
	}
	if err != nil {
		return nil, cerr.WrapStorageReadError("push_subscriptions", err)
	}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to unmarshal push subscriptions: %w", err))
	}
	if doc.Subscriptions == nil {
		doc.Subscriptions = map[string]*pushsubscription.Subscription{}
	}
	return doc, nil
}

func (r *YAMLRepository) store(ctx context.Context, doc *document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal push subscriptions: %w", err))
	}
	if err := r.storage.Write(ctx, subscriptionsPath, data); err != nil {
		return cerr.WrapStorageWriteError("push_subscriptions", err)
	}
	return nil
}

// update runs fn on the loaded document under the lock and writes it back
// when fn reports a change.
func (r *YAMLRepository) update(ctx context.Context, fn func(*document) (bool, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, err := r.load(ctx)
	if err != nil {
		return err
	}
	changed, err := fn(doc)
	if err != nil || !changed {
		return err
	}
	return r.store(ctx, doc)
}

// Save creates or replaces the subscription for s.Endpoint. A browser that
// re-registers under another role moves to that role.
func (r *YAMLRepository) Save(ctx context.Context, s *pushsubscription.Subscription) error {
	return r.update(ctx, func(doc *document) (bool, error) {
		doc.Subscriptions[s.Endpoint] = s
		return true, nil
	})
}

func (r *YAMLRepository) snapshot(ctx context.Context, keep func(*pushsubscription.Subscription) bool) ([]*pushsubscription.Subscription, error) {
	r.mu.Lock()
	doc, err := r.load(ctx)
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	var out []*pushsubscription.Subscription
	for _, s := range doc.Subscriptions {
		if keep(s) {
			out = append(out, s)
		}
	}
	slices.SortFunc(out, func(a, b *pushsubscription.Subscription) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*pushsubscription.Subscription, error) {
	subs, err := r.snapshot(ctx, func(s *pushsubscription.Subscription) bool { return s.ID == id })
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, cerr.NewError(cerr.NotFound, "push subscription not found", nil)
	}
	return subs[0], nil
}

func (r *YAMLRepository) List(ctx context.Context) ([]*pushsubscription.Subscription, error) {
	return r.snapshot(ctx, func(*pushsubscription.Subscription) bool { return true })
}

func (r *YAMLRepository) ListByRole(ctx context.Context, role string) ([]*pushsubscription.Subscription, error) {
	return r.snapshot(ctx, func(s *pushsubscription.Subscription) bool { return s.Role == role })
}

func (r *YAMLRepository) FindByEndpoint(ctx context.Context, endpoint string) (*pushsubscription.Subscription, error) {
	subs, err := r.snapshot(ctx, func(s *pushsubscription.Subscription) bool { return s.Endpoint == endpoint })
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, cerr.NewError(cerr.NotFound, "push subscription not found", nil)
	}
	return subs[0], nil
}

func (r *YAMLRepository) Delete(ctx context.Context, id string) error {
	return r.update(ctx, func(doc *document) (bool, error) {
		for endpoint, s := range doc.Subscriptions {
			if s.ID == id {
				delete(doc.Subscriptions, endpoint)
				return true, nil
			}
		}
		return false, cerr.NewError(cerr.NotFound, "push subscription not found", nil)
	})
}

func (r *YAMLRepository) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	return r.update(ctx, func(doc *document) (bool, error) {
		if _, ok := doc.Subscriptions[endpoint]; !ok {
			return false, cerr.NewError(cerr.NotFound, "push subscription not found", nil)
		}
		delete(doc.Subscriptions, endpoint)
		return true, nil
	})
}
