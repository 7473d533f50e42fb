package repositoryimpl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/serviceboard/internal/pushsubscription"
	"github.com/kazz187/serviceboard/pkg/cerr"
	"github.com/kazz187/serviceboard/pkg/storage"
)

func TestYAMLRepository(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	repo := NewYAMLRepository(store)
	ctx := context.Background()

	subs := []*pushsubscription.Subscription{
		{ID: "01A", Role: "pastor", Endpoint: "https://push.example/a", CreatedAt: time.Now()},
		{ID: "01B", Role: "translator", Endpoint: "https://push.example/b", CreatedAt: time.Now()},
		{ID: "01C", Role: "pastor", Endpoint: "https://push.example/c", CreatedAt: time.Now()},
	}
	for _, s := range subs {
		require.NoError(t, repo.Save(ctx, s))
	}

	pastors, err := repo.ListByRole(ctx, "pastor")
	require.NoError(t, err)
	require.Len(t, pastors, 2)
	assert.Equal(t, "01A", pastors[0].ID)
	assert.Equal(t, "01C", pastors[1].ID)

	found, err := repo.FindByEndpoint(ctx, "https://push.example/b")
	require.NoError(t, err)
	assert.Equal(t, "translator", found.Role)

	require.NoError(t, repo.DeleteByEndpoint(ctx, "https://push.example/b"))
	_, err = repo.Get(ctx, "01B")
	assert.True(t, cerr.IsCode(err, cerr.NotFound))

	err = repo.DeleteByEndpoint(ctx, "https://push.example/b")
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestYAMLRepository_SaveReplacesByEndpoint(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	repo := NewYAMLRepository(store)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &pushsubscription.Subscription{ID: "01A", Role: "beamer", Endpoint: "https://push.example/a"}))
	require.NoError(t, repo.Save(ctx, &pushsubscription.Subscription{ID: "01A", Role: "pastor", Endpoint: "https://push.example/a"}))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "pastor", all[0].Role)

	beamers, err := repo.ListByRole(ctx, "beamer")
	require.NoError(t, err)
	assert.Empty(t, beamers)
}

func TestYAMLRepository_EmptyStore(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	repo := NewYAMLRepository(store)

	all, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.True(t, cerr.IsCode(repo.Delete(context.Background(), "01A"), cerr.NotFound))
}
