package pushnotification

import (
	"context"
	"maps"

	"github.com/kazz187/serviceboard/internal/apiv1"
	"github.com/kazz187/serviceboard/internal/board"
	"github.com/kazz187/serviceboard/internal/catalog"
	"github.com/kazz187/serviceboard/internal/lyrics"
	"github.com/kazz187/serviceboard/internal/sermon"
	"github.com/kazz187/serviceboard/pkg/cerr"
)

// DerivedCompletions adds the tasks completed by translation evidence to the
// stored completions, using the same rules the board applies on read.
type DerivedCompletions struct {
	stored  CompletionSource
	catalog *catalog.Catalog
	lyrics  lyrics.Repository
	sermons sermon.Repository
	rules   []board.DerivedRule
}

func NewDerivedCompletions(stored CompletionSource, cat *catalog.Catalog, lyricsRepo lyrics.Repository, sermonRepo sermon.Repository) *DerivedCompletions {
	return &DerivedCompletions{
		stored:  stored,
		catalog: cat,
		lyrics:  lyricsRepo,
		sermons: sermonRepo,
		rules:   board.DefaultDerivedRules(),
	}
}

func (d *DerivedCompletions) Completed(ctx context.Context, date string) (map[catalog.TaskID]bool, error) {
	stored, err := d.stored.Completed(ctx, date)
	if err != nil {
		return nil, err
	}
	done := make(map[catalog.TaskID]bool, len(stored)+len(d.rules))
	maps.Copy(done, stored)
	e, err := d.evidence(ctx, date)
	if err != nil {
		return nil, err
	}
	for _, rule := range d.rules {
		if _, ok := d.catalog.Task(string(rule.Task)); !ok {
			continue
		}
		if ok, _ := rule.Satisfied(e); ok {
			done[rule.Task] = true
		}
	}
	return done, nil
}

func (d *DerivedCompletions) evidence(ctx context.Context, date string) (board.Evidence, error) {
	all, err := d.lyrics.ListByDate(ctx, date)
	if err != nil {
		return board.Evidence{}, err
	}
	lyricsOut := make([]apiv1.Lyric, 0, len(all))
	for _, l := range all {
		out := apiv1.Lyric{ID: l.ID, Date: l.Date}
		if l.Translation != nil {
			out.Translation = &apiv1.Translation{Status: l.Translation.Status, UpdatedAt: l.Translation.UpdatedAt}
		}
		lyricsOut = append(lyricsOut, out)
	}

	var sermonOut *apiv1.Sermon
	sm, err := d.sermons.Get(ctx, date)
	switch {
	case err == nil:
		sermonOut = &apiv1.Sermon{Date: sm.Date}
		if sm.Translation != nil {
			sermonOut.Translation = &apiv1.Translation{Status: sm.Translation.Status, UpdatedAt: sm.Translation.UpdatedAt}
		}
	case !cerr.IsCode(err, cerr.NotFound):
		return board.Evidence{}, err
	}
	return board.EvidenceFrom(lyricsOut, sermonOut), nil
}
