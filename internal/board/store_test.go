package board

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/serviceboard/internal/apiv1"
	"github.com/kazz187/serviceboard/internal/catalog"
)

const testDate = "2025-11-09"

func newTestStore() *Store {
	s := NewStore(catalog.Default(), testDate)
	s.now = func() time.Time { return serverNow }
	return s
}

func TestParseStatus(t *testing.T) {
	assert.Equal(t, StatusCompleted, ParseStatus("Completed"))
	assert.Equal(t, StatusActive, ParseStatus("in_progress"))
	assert.Equal(t, StatusActive, ParseStatus("active"))
	assert.Equal(t, StatusPending, ParseStatus("pending"))
	assert.Equal(t, StatusPending, ParseStatus("archived"))
	assert.Equal(t, StatusPending, ParseStatus(""))
}

func TestStore_SetStatusThenGet(t *testing.T) {
	s := newTestStore()

	in, marker, err := s.SetStatus("concept", StatusCompleted, catalog.RoleLiturgy,
		WithDocumentLink("https://doc/x"), WithAssignedTo(catalog.RoleLiturgy))
	require.NoError(t, err)
	assert.Equal(t, Reconciliation{Date: testDate, Tasks: []catalog.TaskID{catalog.TaskConcept}}, marker)
	assert.Equal(t, serverNow, in.UpdatedAt)
	assert.Equal(t, catalog.RoleLiturgy, in.UpdatedBy)

	assert.Equal(t, StatusCompleted, s.GetStatus("concept"))
	got, ok := s.Get("concept")
	require.True(t, ok)
	assert.Equal(t, "https://doc/x", got.DocumentLink)
	assert.Equal(t, catalog.RoleLiturgy, got.AssignedTo)
	assert.True(t, s.Snapshot().Unreconciled(catalog.TaskConcept))
}

func TestStore_GetStatusAlwaysEnumerated(t *testing.T) {
	s := newTestStore()
	_, _, err := s.SetStatus("sermon", StatusActive, catalog.RolePastor)
	require.NoError(t, err)

	ids := []string{"unknown", "", "sermon-translation", "translate-lyrics"}
	for _, def := range catalog.Default().Tasks() {
		ids = append(ids, string(def.ID))
	}
	valid := []Status{StatusPending, StatusActive, StatusCompleted}
	for _, id := range ids {
		assert.Contains(t, valid, s.GetStatus(id), "task %q", id)
	}
}

func TestStore_UnknownTask(t *testing.T) {
	s := newTestStore()
	_, _, err := s.SetStatus("bulletin", StatusCompleted, catalog.RoleLiturgy)
	assert.ErrorIs(t, err, ErrUnknownTask)
	_, err = s.DeleteTask("bulletin")
	assert.ErrorIs(t, err, ErrUnknownTask)
}

func TestStore_AliasSpellingsShareOneRecord(t *testing.T) {
	pairs := [][2]string{
		{"sermon-translation", "translate-sermon"},
		{"translate-sermon", "sermon-translation"},
		{"translate-lyrics", "translate-liturgy"},
		{"translate-liturgy", "translate-lyrics"},
	}
	for _, p := range pairs {
		t.Run(p[0]+"->"+p[1], func(t *testing.T) {
			s := newTestStore()
			_, _, err := s.SetStatus(p[0], StatusCompleted, catalog.RoleTranslator)
			require.NoError(t, err)
			assert.Equal(t, StatusCompleted, s.GetStatus(p[1]))
			assert.Equal(t, StatusCompleted, s.GetStatus(p[0]))
		})
	}
}

func TestStore_DeleteThenRead(t *testing.T) {
	s := newTestStore()
	_, _, err := s.SetStatus("sermon", StatusCompleted, catalog.RolePastor)
	require.NoError(t, err)

	_, err = s.DeleteTask("sermon")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, s.GetStatus("sermon"))
	_, ok := s.Get("sermon")
	assert.False(t, ok, "delete removes the record instead of resetting it")
}

func TestStore_QRCodeFastPath(t *testing.T) {
	s := newTestStore()

	s.SetLocalQR(StatusActive)
	assert.Equal(t, StatusActive, s.GetStatus("qr-code"))
	assert.Equal(t, StatusPending, s.Snapshot().mapStatus(catalog.TaskQRCode))

	_, _, err := s.SetStatus("qr-code", StatusCompleted, catalog.RoleTreasury)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, s.GetStatus("qr-code"))
	assert.Equal(t, StatusCompleted, s.Snapshot().mapStatus(catalog.TaskQRCode))

	_, err = s.DeleteTask("qr-code")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, s.GetStatus("qr-code"))
}

func TestStore_QRCodeReconcilesOnRefresh(t *testing.T) {
	s := newTestStore()
	_, _, err := s.SetStatus("qr-code", StatusCompleted, catalog.RoleTreasury)
	require.NoError(t, err)

	read := &serverRead{ingest: collapseAliases(catalog.Default(), map[string]apiv1.TaskInstanceSnapshot{
		"qr-code": {Status: "completed", UpdatedAt: serverNow, UpdatedBy: "treasury"},
	})}
	s.ApplyServer(read, nil, DefaultDerivedRules())

	snap := s.Snapshot()
	assert.Equal(t, snap.mapStatus(catalog.TaskQRCode), snap.status(catalog.TaskQRCode))
	assert.Equal(t, StatusCompleted, snap.status(catalog.TaskQRCode))
	assert.False(t, snap.Unreconciled(catalog.TaskQRCode))
}

func TestStore_QRCodeLocalValueDropsToServerValue(t *testing.T) {
	s := newTestStore()
	s.SetLocalQR(StatusActive)

	s.ApplyServer(&serverRead{ingest: collapseAliases(catalog.Default(), nil)}, nil, nil)

	snap := s.Snapshot()
	assert.Equal(t, StatusPending, snap.status(catalog.TaskQRCode))
	assert.Equal(t, snap.mapStatus(catalog.TaskQRCode), snap.status(catalog.TaskQRCode))
}

func TestSnapshot_TransitionsDoNotMutateReceiver(t *testing.T) {
	c := catalog.Default()
	before := newSnapshot(c, testDate)
	after, marker := before.withInstance(catalog.TaskSermon, TaskInstance{Status: StatusCompleted, Payload: map[string]any{"k": "v"}})

	assert.Equal(t, StatusPending, before.status(catalog.TaskSermon))
	assert.Equal(t, StatusCompleted, after.status(catalog.TaskSermon))
	assert.Equal(t, []catalog.TaskID{catalog.TaskSermon}, marker.Tasks)

	in, _ := after.Instance(catalog.TaskSermon)
	in.Payload["k"] = "changed"
	again, _ := after.Instance(catalog.TaskSermon)
	assert.Equal(t, "v", again.Payload["k"])
}

func TestSnapshot_FullRefreshKeepsInflightTasks(t *testing.T) {
	s := newTestStore()
	s.begin(catalog.TaskSermon)
	_, _, err := s.SetStatus("sermon", StatusCompleted, catalog.RolePastor)
	require.NoError(t, err)

	s.ApplyServer(&serverRead{ingest: collapseAliases(catalog.Default(), map[string]apiv1.TaskInstanceSnapshot{
		"sermon":  {Status: "pending"},
		"concept": {Status: "completed"},
	})}, nil, nil)

	assert.Equal(t, StatusCompleted, s.GetStatus("sermon"))
	assert.Equal(t, StatusCompleted, s.GetStatus("concept"))
	assert.True(t, s.Snapshot().Unreconciled(catalog.TaskSermon))

	s.end(catalog.TaskSermon)
	s.ApplyServer(&serverRead{ingest: collapseAliases(catalog.Default(), map[string]apiv1.TaskInstanceSnapshot{
		"sermon": {Status: "pending"},
	})}, nil, nil)
	assert.Equal(t, StatusPending, s.GetStatus("sermon"))
	assert.False(t, s.Snapshot().Unreconciled(catalog.TaskSermon))
}

func TestCollapseAliases(t *testing.T) {
	c := catalog.Default()
	early := time.Date(2025, 11, 1, 8, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	t.Run("only deprecated spelling", func(t *testing.T) {
		res := collapseAliases(c, map[string]apiv1.TaskInstanceSnapshot{
			"sermon-translation": {Status: "completed", UpdatedAt: early},
		})
		assert.Equal(t, StatusCompleted, res.tasks[catalog.TaskTranslateSermon].Status)
		assert.Empty(t, res.conflicts)
	})

	t.Run("only canonical spelling", func(t *testing.T) {
		res := collapseAliases(c, map[string]apiv1.TaskInstanceSnapshot{
			"translate-liturgy": {Status: "active", UpdatedAt: early},
		})
		assert.Equal(t, StatusActive, res.tasks[catalog.TaskTranslateLiturgy].Status)
	})

	t.Run("identical spellings are not a conflict", func(t *testing.T) {
		snap := apiv1.TaskInstanceSnapshot{Status: "completed", UpdatedAt: early, UpdatedBy: "Translator"}
		res := collapseAliases(c, map[string]apiv1.TaskInstanceSnapshot{
			"translate-sermon":   snap,
			"sermon-translation": snap,
		})
		assert.Empty(t, res.conflicts)
		assert.Equal(t, catalog.RoleTranslator, res.tasks[catalog.TaskTranslateSermon].UpdatedBy)
	})

	t.Run("latest update wins", func(t *testing.T) {
		res := collapseAliases(c, map[string]apiv1.TaskInstanceSnapshot{
			"translate-sermon":   {Status: "active", UpdatedAt: early},
			"sermon-translation": {Status: "completed", UpdatedAt: late, DocumentLink: "https://doc/t"},
		})
		assert.Equal(t, StatusCompleted, res.tasks[catalog.TaskTranslateSermon].Status)
		require.Len(t, res.conflicts, 1)
		conflict := res.conflicts[0]
		assert.Equal(t, "sermon-translation", conflict.Winner)
		assert.Contains(t, conflict.Diff, "-status: completed")
		assert.Contains(t, conflict.Diff, "+status: active")
		assert.True(t, errors.Is(conflict, ErrInconsistentSnapshot))
	})

	t.Run("canonical wins a tie", func(t *testing.T) {
		res := collapseAliases(c, map[string]apiv1.TaskInstanceSnapshot{
			"translate-lyrics":  {Status: "active", UpdatedAt: early, DocumentLink: "https://doc/old"},
			"translate-liturgy": {Status: "active", UpdatedAt: early, DocumentLink: "https://doc/new"},
		})
		assert.Equal(t, "https://doc/new", res.tasks[catalog.TaskTranslateLiturgy].DocumentLink)
		require.Len(t, res.conflicts, 1)
		assert.Equal(t, "translate-liturgy", res.conflicts[0].Winner)
	})

	t.Run("completion under any spelling holds", func(t *testing.T) {
		res := collapseAliases(c, map[string]apiv1.TaskInstanceSnapshot{
			"translate-lyrics":  {Status: "completed", UpdatedAt: early, DocumentLink: "https://doc/done"},
			"translate-liturgy": {Status: "active", UpdatedAt: late, AssignedTo: "translator"},
		})
		in := res.tasks[catalog.TaskTranslateLiturgy]
		assert.Equal(t, StatusCompleted, in.Status)
		assert.Equal(t, catalog.RoleTranslator, in.AssignedTo)
		assert.Empty(t, in.DocumentLink)
		require.Len(t, res.conflicts, 1)
		assert.Equal(t, "translate-liturgy", res.conflicts[0].Winner)
	})

	t.Run("unknown ids are reported", func(t *testing.T) {
		res := collapseAliases(c, map[string]apiv1.TaskInstanceSnapshot{
			"bulletin": {Status: "completed"},
		})
		assert.Empty(t, res.tasks)
		assert.Equal(t, []string{"bulletin"}, res.unknown)
	})
}

func TestEvidenceFrom(t *testing.T) {
	at := time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC)
	e := EvidenceFrom([]apiv1.Lyric{
		{ID: "1"},
		{ID: "2", Translation: &apiv1.Translation{Status: "draft", UpdatedAt: at.Add(time.Hour)}},
		{ID: "3", Translation: &apiv1.Translation{Status: "Approved", UpdatedAt: at}},
	}, &apiv1.Sermon{Translation: &apiv1.Translation{Status: "completed", UpdatedAt: at}})

	assert.True(t, e.LyricsTranslated)
	assert.Equal(t, at, e.LyricsAt)
	assert.True(t, e.SermonTranslated)

	assert.Equal(t, Evidence{}, EvidenceFrom(nil, nil))
}

func TestApplyDerived_IdempotentAndMonotonic(t *testing.T) {
	c := catalog.Default()
	at := time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC)
	e := Evidence{LyricsTranslated: true, LyricsAt: at}

	s := newSnapshot(c, testDate)
	first, changed := applyDerived(c, s, DefaultDerivedRules(), e)
	assert.Equal(t, []catalog.TaskID{catalog.TaskTranslateLiturgy}, changed)
	in, ok := first.Instance(catalog.TaskTranslateLiturgy)
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, in.Status)
	assert.Equal(t, catalog.RoleTranslator, in.UpdatedBy)
	assert.Equal(t, at, in.UpdatedAt)
	assert.True(t, in.Derived)

	second, changed := applyDerived(c, first, DefaultDerivedRules(), e)
	assert.Empty(t, changed)
	assert.Same(t, first, second)

	third, _ := applyDerived(c, second, DefaultDerivedRules(), Evidence{})
	assert.Equal(t, StatusCompleted, third.status(catalog.TaskTranslateLiturgy))
}

func TestApplyDerived_SkipsExplicitCompletion(t *testing.T) {
	c := catalog.Default()
	s, _ := newSnapshot(c, testDate).withInstance(catalog.TaskTranslateSermon, TaskInstance{
		Status:    StatusCompleted,
		UpdatedBy: catalog.RoleTranslator,
	})
	next, changed := applyDerived(c, s, DefaultDerivedRules(), Evidence{SermonTranslated: true})
	assert.Empty(t, changed)
	in, _ := next.Instance(catalog.TaskTranslateSermon)
	assert.False(t, in.Derived)
}
