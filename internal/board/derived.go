package board

import (
	"time"

	"github.com/kazz187/serviceboard/internal/apiv1"
	"github.com/kazz187/serviceboard/internal/catalog"
)

// Evidence is what the collaborator domains say about translation progress
// for one service date.
type Evidence struct {
	LyricsTranslated bool
	LyricsAt         time.Time
	SermonTranslated bool
	SermonAt         time.Time
}

// DerivedRule completes Task whenever Satisfied reports evidence for it.
type DerivedRule struct {
	Task      catalog.TaskID
	UpdatedBy catalog.RoleID
	Satisfied func(Evidence) (bool, time.Time)
}

// DefaultDerivedRules complete both translation tasks from translation data.
func DefaultDerivedRules() []DerivedRule {
	return []DerivedRule{
		{
			Task:      catalog.TaskTranslateLiturgy,
			UpdatedBy: catalog.RoleTranslator,
			Satisfied: func(e Evidence) (bool, time.Time) { return e.LyricsTranslated, e.LyricsAt },
		},
		{
			Task:      catalog.TaskTranslateSermon,
			UpdatedBy: catalog.RoleTranslator,
			Satisfied: func(e Evidence) (bool, time.Time) { return e.SermonTranslated, e.SermonAt },
		},
	}
}

func translationDone(t *apiv1.Translation) bool {
	return t != nil && apiv1.TranslationDone(t.Status)
}

// EvidenceFrom summarises collaborator data. The timestamps are the latest
// qualifying translation update so derived records are stable across reruns.
func EvidenceFrom(lyrics []apiv1.Lyric, sermon *apiv1.Sermon) Evidence {
	var e Evidence
	for _, l := range lyrics {
		if !translationDone(l.Translation) {
			continue
		}
		e.LyricsTranslated = true
		if l.Translation.UpdatedAt.After(e.LyricsAt) {
			e.LyricsAt = l.Translation.UpdatedAt
		}
	}
	if sermon != nil && translationDone(sermon.Translation) {
		e.SermonTranslated = true
		e.SermonAt = sermon.Translation.UpdatedAt
	}
	return e
}

// applyDerived returns a snapshot with every satisfied rule completed, plus
// the ids that were newly completed. Tasks already Completed are left alone
// and nothing is ever downgraded.
func applyDerived(c *catalog.Catalog, s *Snapshot, rules []DerivedRule, e Evidence) (*Snapshot, []catalog.TaskID) {
	var (
		next    *Snapshot
		changed []catalog.TaskID
	)
	for _, rule := range rules {
		if _, ok := c.Task(string(rule.Task)); !ok {
			continue
		}
		ok, at := rule.Satisfied(e)
		if !ok {
			continue
		}
		if s.mapStatus(rule.Task) == StatusCompleted {
			continue
		}
		if next == nil {
			next = s.clone()
		}
		in := TaskInstance{
			Status:    StatusCompleted,
			UpdatedAt: at,
			UpdatedBy: rule.UpdatedBy,
			Derived:   true,
		}
		if existing, ok := s.tasks[rule.Task]; ok {
			in.DocumentLink = existing.DocumentLink
			in.AssignedTo = existing.AssignedTo
			in.Payload = existing.clone().Payload
		}
		next.derived[rule.Task] = in
		changed = append(changed, rule.Task)
	}
	if next == nil {
		return s, nil
	}
	return next, changed
}
