package board

import (
	"context"
	"log/slog"

	"github.com/sourcegraph/conc/pool"

	"github.com/kazz187/serviceboard/internal/apiv1"
	"github.com/kazz187/serviceboard/pkg/panicerr"
	"github.com/kazz187/serviceboard/pkg/telemetry"
)

// serverRead is one authoritative read of a service date. Collaborator
// failures only blank their own part; a task store failure fails the read.
type serverRead struct {
	ingest     ingestResult
	musicLinks []apiv1.MusicLink
	evidence   Evidence
	lyricsOK   bool
	sermonOK   bool
}

// mergeEvidence keeps the previous evidence for any collaborator that could
// not be read, so a flaky collaborator never retracts a derived completion.
func (r *serverRead) mergeEvidence(prev Evidence) Evidence {
	e := prev
	if r.lyricsOK {
		e.LyricsTranslated = r.evidence.LyricsTranslated
		e.LyricsAt = r.evidence.LyricsAt
	}
	if r.sermonOK {
		e.SermonTranslated = r.evidence.SermonTranslated
		e.SermonAt = r.evidence.SermonAt
	}
	return e
}

func (b *Board) read(ctx context.Context, date string) (*serverRead, error) {
	var (
		raw    map[string]apiv1.TaskInstanceSnapshot
		lyrics []apiv1.Lyric
		sermon *apiv1.Sermon
		links  []apiv1.MusicLink
		read   serverRead
	)

	p := pool.New().WithContext(ctx)
	p.Go(panicerr.SafeContext(func(ctx context.Context) error {
		var err error
		raw, err = b.sources.Tasks.GetWorkflowTasks(ctx, date)
		return err
	}))
	if b.sources.Lyrics != nil {
		p.Go(panicerr.SafeContext(func(ctx context.Context) error {
			var err error
			lyrics, err = b.sources.Lyrics.GetLyricsByDate(ctx, date)
			if err != nil {
				slog.Warn("failed to read lyrics", "date", date, "error", err)
				return nil
			}
			read.lyricsOK = true
			return nil
		}))
	}
	if b.sources.Sermons != nil {
		p.Go(panicerr.SafeContext(func(ctx context.Context) error {
			var err error
			sermon, err = b.sources.Sermons.GetSermonByDate(ctx, date)
			if err != nil {
				slog.Warn("failed to read sermon", "date", date, "error", err)
				return nil
			}
			read.sermonOK = true
			return nil
		}))
	}
	if b.sources.MusicLinks != nil {
		p.Go(panicerr.SafeContext(func(ctx context.Context) error {
			var err error
			links, err = b.sources.MusicLinks.GetMusicLinks(ctx, date)
			if err != nil {
				slog.Warn("failed to read music links", "date", date, "error", err)
				links = nil
				return nil
			}
			if links == nil {
				links = []apiv1.MusicLink{}
			}
			return nil
		}))
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	read.ingest = collapseAliases(b.catalog, raw)
	read.musicLinks = links
	read.evidence = EvidenceFrom(lyrics, sermon)
	b.logIngest(date, read.ingest)
	return &read, nil
}

func (b *Board) logIngest(date string, res ingestResult) {
	for _, id := range res.unknown {
		slog.Debug("ignoring unknown task id in snapshot", "date", date, "task_id", id)
	}
	for _, c := range res.conflicts {
		telemetry.BoardAliasConflictsTotal.WithLabelValues(string(c.TaskID)).Inc()
		slog.Warn("alias spellings disagree, resolved by latest update",
			"date", date,
			"task_id", c.TaskID,
			"winner", c.Winner,
			"spellings", c.Spellings,
			"diff", c.Diff,
			"error", c,
		)
	}
}
