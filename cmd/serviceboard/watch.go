package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kazz187/serviceboard/internal/board"
)

// viewPrinter redraws the board after every scheduled refresh.
type viewPrinter struct {
	board *board.Board
	role  string
	out   io.Writer
}

func (p *viewPrinter) Refresh(ctx context.Context, trigger board.Trigger) error {
	err := p.board.Refresh(ctx, trigger)
	fmt.Fprintf(p.out, "\n-- %s (%s) --\n", time.Now().Format(time.TimeOnly), trigger)
	renderView(p.out, p.board.View(p.role))
	return err
}

func watch(ctx context.Context, b *board.Board, role string, in io.Reader, out io.Writer, opts ...board.SchedulerOption) error {
	printer := &viewPrinter{board: b, role: role, out: out}
	sched := board.NewScheduler(printer, opts...)
	renderView(out, b.View(role))

	go readKeys(in, sched)
	return sched.Run(ctx)
}

// readKeys maps one command per input line onto scheduler events.
func readKeys(in io.Reader, sched *board.Scheduler) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		switch strings.TrimSpace(scanner.Text()) {
		case "v":
			sched.SetVisible(true)
		case "h":
			sched.SetVisible(false)
		case "f":
			sched.Focus()
		case "r", "":
			sched.RefreshNow()
		case "q":
			sched.Stop()
			return
		}
	}
}
