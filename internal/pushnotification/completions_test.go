package pushnotification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/serviceboard/internal/apiv1"
	"github.com/kazz187/serviceboard/internal/catalog"
	"github.com/kazz187/serviceboard/internal/eventbus"
	"github.com/kazz187/serviceboard/internal/lyrics"
	lyricsrepo "github.com/kazz187/serviceboard/internal/lyrics/repositoryimpl"
	"github.com/kazz187/serviceboard/internal/sermon"
	sermonrepo "github.com/kazz187/serviceboard/internal/sermon/repositoryimpl"
	"github.com/kazz187/serviceboard/pkg/storage"
)

type translationRepos struct {
	lyrics  lyrics.Repository
	sermons sermon.Repository
}

func newTranslationRepos(t *testing.T) translationRepos {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return translationRepos{
		lyrics:  lyricsrepo.NewYAMLRepository(store),
		sermons: sermonrepo.NewYAMLRepository(store),
	}
}

func TestDerivedCompletions_NoEvidence(t *testing.T) {
	repos := newTranslationRepos(t)
	src := NewDerivedCompletions(staticCompletions{catalog.TaskConcept: true}, catalog.Default(), repos.lyrics, repos.sermons)

	done, err := src.Completed(context.Background(), "2025-11-09")
	require.NoError(t, err)
	assert.Equal(t, map[catalog.TaskID]bool{catalog.TaskConcept: true}, done)
}

func TestDerivedCompletions_AddsTranslationEvidence(t *testing.T) {
	ctx := context.Background()
	repos := newTranslationRepos(t)
	at := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repos.lyrics.Save(ctx, &lyrics.Lyric{
		ID:          "01JBX0000000000000000000A1",
		Date:        "2025-11-09",
		Title:       "Amazing Grace",
		Translation: &lyrics.Translation{Status: apiv1.TranslationApproved, UpdatedAt: at},
	}))
	require.NoError(t, repos.sermons.Save(ctx, &sermon.Sermon{
		Date:        "2025-11-09",
		Translation: &sermon.Translation{Status: apiv1.TranslationDraft, UpdatedAt: at},
	}))

	src := NewDerivedCompletions(staticCompletions{}, catalog.Default(), repos.lyrics, repos.sermons)
	done, err := src.Completed(ctx, "2025-11-09")
	require.NoError(t, err)
	assert.True(t, done[catalog.TaskTranslateLiturgy])
	assert.False(t, done[catalog.TaskTranslateSermon])
}

func TestDispatcher_DerivedCompletionUnblocksSlides(t *testing.T) {
	ctx := context.Background()
	repos := newTranslationRepos(t)
	require.NoError(t, repos.lyrics.Save(ctx, &lyrics.Lyric{
		ID:          "01JBX0000000000000000000A1",
		Date:        "2025-11-09",
		Title:       "Amazing Grace",
		Translation: &lyrics.Translation{Status: apiv1.TranslationCompleted},
	}))
	stored := staticCompletions{
		catalog.TaskConcept:         true,
		catalog.TaskPastorReview:    true,
		catalog.TaskSermon:          true,
		catalog.TaskTranslateSermon: true,
	}

	// Stored records alone keep the slides blocked.
	n := &recordingNotifier{}
	NewDispatcher(eventbus.New(), catalog.Default(), stored, n).handleTaskCompleted(ctx, completedEvent("translate-sermon"))
	assert.Empty(t, n.snapshot())

	n = &recordingNotifier{}
	src := NewDerivedCompletions(stored, catalog.Default(), repos.lyrics, repos.sermons)
	NewDispatcher(eventbus.New(), catalog.Default(), src, n).handleTaskCompleted(ctx, completedEvent("translate-sermon"))

	got := n.snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, []catalog.RoleID{catalog.RoleBeamer}, got[0].roles)
	assert.Equal(t, "Ready: Slides", got[0].payload.Title)
}
