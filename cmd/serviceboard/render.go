package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/kazz187/serviceboard/internal/board"
	"github.com/kazz187/serviceboard/internal/catalog"
)

var (
	headerColor    = color.New(color.Bold)
	completedColor = color.New(color.FgGreen)
	activeColor    = color.New(color.FgYellow)
	pendingColor   = color.New(color.FgHiBlack)
	warnColor      = color.New(color.FgRed)
)

func statusLabel(s board.Status) string {
	label := fmt.Sprintf("%-9s", s)
	switch s {
	case board.StatusCompleted:
		return completedColor.Sprint(label)
	case board.StatusActive:
		return activeColor.Sprint(label)
	default:
		return pendingColor.Sprint(label)
	}
}

func renderCatalog(w io.Writer, cat *catalog.Catalog) {
	for _, c := range cat.ListCategories() {
		headerColor.Fprintf(w, "%s (%s)\n", c.DisplayName, c.OwnerRole)
		for _, t := range c.Subtasks {
			var notes []string
			if t.RestrictedToRole != "" {
				notes = append(notes, "only "+string(t.RestrictedToRole))
			}
			if len(t.DependsOn) > 0 {
				deps := make([]string, len(t.DependsOn))
				for i, d := range t.DependsOn {
					deps[i] = string(d)
				}
				notes = append(notes, "after "+strings.Join(deps, ", "))
			}
			fmt.Fprintf(w, "  %-18s %s", t.ID, t.DisplayName)
			if len(notes) > 0 {
				fmt.Fprintf(w, " [%s]", strings.Join(notes, "; "))
			}
			fmt.Fprintln(w)
		}
	}
	if len(cat.Aliases) > 0 {
		headerColor.Fprintln(w, "Aliases")
		for alias, canonical := range cat.Aliases {
			fmt.Fprintf(w, "  %s -> %s\n", alias, canonical)
		}
	}
}

func renderView(w io.Writer, v board.View) {
	headerColor.Fprintf(w, "Service %s\n", v.Date)
	for _, c := range v.Categories {
		headerColor.Fprintf(w, "%s (%s)\n", c.Category.DisplayName, c.Category.OwnerRole)
		for _, t := range c.Tasks {
			marker := " "
			if t.CanAct {
				marker = "*"
			}
			fmt.Fprintf(w, " %s %s %-18s %s", marker, statusLabel(t.Status), t.Definition.ID, t.Definition.DisplayName)
			if t.Instance != nil && t.Instance.DocumentLink != "" {
				fmt.Fprintf(w, " <%s>", t.Instance.DocumentLink)
			}
			if t.InFlight {
				fmt.Fprint(w, " (saving)")
			}
			if t.Unreconciled {
				warnColor.Fprint(w, " (not saved)")
			}
			if t.Error != "" {
				warnColor.Fprintf(w, " %s", t.Error)
			}
			fmt.Fprintln(w)
		}
	}
	if len(v.MusicLinks) > 0 {
		headerColor.Fprintln(w, "Music")
		for _, l := range v.MusicLinks {
			fmt.Fprintf(w, "  %s %s\n", l.Title, l.URL)
		}
	}
	if len(v.Conflicts) > 0 {
		warnColor.Fprintf(w, "%d alias conflict(s) resolved, see log\n", len(v.Conflicts))
	}
}
