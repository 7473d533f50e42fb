package board

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"

	"github.com/kazz187/serviceboard/internal/apiv1"
	"github.com/kazz187/serviceboard/internal/catalog"
)

// Conflict records alias spellings that carried diverging records in one
// server snapshot. The spelling with the latest UpdatedAt won; on equal
// timestamps the canonical spelling wins. The status is Completed when any
// spelling was Completed.
type Conflict struct {
	TaskID    catalog.TaskID
	Winner    string
	Spellings []string
	Diff      string
}

func (c Conflict) Error() string {
	return fmt.Sprintf("alias spellings %s disagree for %s, kept %s", strings.Join(c.Spellings, ","), c.TaskID, c.Winner)
}

func (c Conflict) Unwrap() error {
	return ErrInconsistentSnapshot
}

// ingestResult is a server snapshot collapsed onto canonical task ids.
type ingestResult struct {
	tasks     map[catalog.TaskID]TaskInstance
	conflicts []Conflict
	unknown   []string
}

// collapseAliases folds every spelling of a task onto its canonical id so
// the rest of the board never sees deprecated ids.
func collapseAliases(c *catalog.Catalog, raw map[string]apiv1.TaskInstanceSnapshot) ingestResult {
	res := ingestResult{tasks: make(map[catalog.TaskID]TaskInstance)}

	for key := range raw {
		if _, ok := c.Canonical(key); !ok {
			res.unknown = append(res.unknown, key)
		}
	}

	for _, def := range c.Tasks() {
		var present []string
		for _, spelling := range c.Spellings(def.ID) {
			if _, ok := raw[spelling]; ok {
				present = append(present, spelling)
			}
		}
		if len(present) == 0 {
			continue
		}

		winner := present[0]
		for _, spelling := range present[1:] {
			if raw[spelling].UpdatedAt.After(raw[winner].UpdatedAt) {
				winner = spelling
			}
		}
		in := instanceFromWire(raw[winner])
		// A completion under any spelling holds; the winner only decides
		// the record's metadata.
		for _, spelling := range present {
			if ParseStatus(raw[spelling].Status) == StatusCompleted {
				in.Status = StatusCompleted
			}
		}
		res.tasks[def.ID] = in

		if len(present) > 1 {
			if diff := diffSpellings(raw, winner, present); diff != "" {
				res.conflicts = append(res.conflicts, Conflict{
					TaskID:    def.ID,
					Winner:    winner,
					Spellings: present,
					Diff:      diff,
				})
			}
		}
	}
	return res
}

// diffSpellings returns a unified diff of every losing spelling against the
// winner, or "" when all spellings hold the same record.
func diffSpellings(raw map[string]apiv1.TaskInstanceSnapshot, winner string, spellings []string) string {
	winnerText := instanceYAML(instanceFromWire(raw[winner]))
	var b strings.Builder
	for _, spelling := range spellings {
		if spelling == winner {
			continue
		}
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(winnerText),
			B:        difflib.SplitLines(instanceYAML(instanceFromWire(raw[spelling]))),
			FromFile: winner,
			ToFile:   spelling,
			Context:  1,
		})
		if err != nil {
			slog.Warn("failed to diff alias spellings", "winner", winner, "spelling", spelling, "error", err)
			continue
		}
		b.WriteString(diff)
	}
	return b.String()
}

func instanceYAML(in TaskInstance) string {
	data, err := yaml.Marshal(in)
	if err != nil {
		return fmt.Sprintf("%+v\n", in)
	}
	return string(data)
}
