package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/kazz187/serviceboard/internal/board"
	"github.com/kazz187/serviceboard/internal/catalog"
	"github.com/kazz187/serviceboard/internal/client"
	"github.com/kazz187/serviceboard/internal/config"
	"github.com/kazz187/serviceboard/pkg/clog"
)

type cli struct {
	app *kingpin.Application

	serverURL *string
	apiKey    *string
	role      *string

	catalogCmd *kingpin.CmdClause

	statusCmd  *kingpin.CmdClause
	statusDate *string

	startCmd  *kingpin.CmdClause
	startDate *string
	startTask *string

	submitCmd  *kingpin.CmdClause
	submitDate *string
	submitTask *string
	submitLink *string

	deleteCmd  *kingpin.CmdClause
	deleteDate *string
	deleteTask *string

	uploadQRCmd  *kingpin.CmdClause
	uploadQRDate *string
	uploadQRLink *string

	watchCmd    *kingpin.CmdClause
	watchDate   *string
	watchHidden *bool
}

func newCLI(env *config.ClientEnv) *cli {
	c := &cli{app: kingpin.New("serviceboard", "Production board for weekly church services")}

	c.serverURL = c.app.Flag("server", "Server URL").Default(env.ServerURL).String()
	c.apiKey = c.app.Flag("api-key", "API key").Default(env.APIKey).String()
	c.role = c.app.Flag("role", "Acting role").Short('r').Default(env.Role).String()

	c.catalogCmd = c.app.Command("catalog", "List categories and tasks")

	c.statusCmd = c.app.Command("status", "Show the board for a service date")
	c.statusDate = c.statusCmd.Arg("date", "Service date (YYYY-MM-DD)").Required().String()

	c.startCmd = c.app.Command("start", "Start working on a task")
	c.startDate = c.startCmd.Arg("date", "Service date (YYYY-MM-DD)").Required().String()
	c.startTask = c.startCmd.Arg("task", "Task id").Required().String()

	c.submitCmd = c.app.Command("submit", "Mark a task completed")
	c.submitDate = c.submitCmd.Arg("date", "Service date (YYYY-MM-DD)").Required().String()
	c.submitTask = c.submitCmd.Arg("task", "Task id").Required().String()
	c.submitLink = c.submitCmd.Flag("link", "Document link").String()

	c.deleteCmd = c.app.Command("delete", "Remove a task record")
	c.deleteDate = c.deleteCmd.Arg("date", "Service date (YYYY-MM-DD)").Required().String()
	c.deleteTask = c.deleteCmd.Arg("task", "Task id").Required().String()

	c.uploadQRCmd = c.app.Command("upload-qr", "Upload the offering QR code")
	c.uploadQRDate = c.uploadQRCmd.Arg("date", "Service date (YYYY-MM-DD)").Required().String()
	c.uploadQRLink = c.uploadQRCmd.Arg("link", "Link to the uploaded QR code").Required().String()

	c.watchCmd = c.app.Command("watch", "Keep the board in sync (keys: v visible, h hidden, f focus, r refresh, q quit)")
	c.watchDate = c.watchCmd.Arg("date", "Service date (YYYY-MM-DD)").Required().String()
	c.watchHidden = c.watchCmd.Flag("hidden", "Start in background polling").Bool()

	return c
}

func main() {
	env, err := config.LoadClientEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(
		clog.NewTextHandler(os.Stderr, clog.WithLevel(env.SlogLevel())),
	)))

	c := newCLI(env)
	command := kingpin.MustParse(c.app.Parse(os.Args[1:]))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := c.run(ctx, env, command); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (c *cli) run(ctx context.Context, env *config.ClientEnv, command string) error {
	cat, err := catalog.Load(env.CatalogPath)
	if err != nil {
		return err
	}
	if command == c.catalogCmd.FullCommand() {
		renderCatalog(os.Stdout, cat)
		return nil
	}

	api := client.New(client.Config{
		ServerURL:     *c.serverURL,
		APIKey:        *c.apiKey,
		Timeout:       env.RequestTimeout,
		RetryAttempts: env.RetryAttempts,
	})
	b := board.New(cat, board.Sources{
		Tasks:      api,
		Lyrics:     api,
		MusicLinks: api,
		Sermons:    api,
	})
	d := board.NewDispatcher(b, board.WithQRUploadDelay(env.QRUploadDelay))

	switch command {
	case c.statusCmd.FullCommand():
		if err := b.SelectDate(ctx, *c.statusDate); err != nil {
			return err
		}
		renderView(os.Stdout, b.View(*c.role))
		return nil

	case c.startCmd.FullCommand():
		return c.act(ctx, b, *c.startDate, func(role string) error {
			return d.Start(ctx, role, *c.startTask)
		})

	case c.submitCmd.FullCommand():
		return c.act(ctx, b, *c.submitDate, func(role string) error {
			var opts []board.SetOption
			if *c.submitLink != "" {
				opts = append(opts, board.WithDocumentLink(*c.submitLink))
			}
			return d.Submit(ctx, role, *c.submitTask, opts...)
		})

	case c.deleteCmd.FullCommand():
		return c.act(ctx, b, *c.deleteDate, func(role string) error {
			return d.Delete(ctx, role, *c.deleteTask)
		})

	case c.uploadQRCmd.FullCommand():
		return c.act(ctx, b, *c.uploadQRDate, func(role string) error {
			fmt.Fprintln(os.Stdout, "Uploading QR code...")
			return d.UploadQR(ctx, role, *c.uploadQRLink)
		})

	case c.watchCmd.FullCommand():
		if err := b.SelectDate(ctx, *c.watchDate); err != nil {
			slog.Warn("initial load failed, waiting for the next refresh", "error", err)
		}
		opts := []board.SchedulerOption{board.WithIntervals(env.VisibleInterval, env.HiddenInterval)}
		if *c.watchHidden {
			opts = append(opts, board.WithStartHidden())
		}
		return watch(ctx, b, *c.role, os.Stdin, os.Stdout, opts...)
	}
	return fmt.Errorf("unknown command %q", command)
}

// act loads date, runs fn as the configured role and prints the result.
func (c *cli) act(ctx context.Context, b *board.Board, date string, fn func(role string) error) error {
	if *c.role == "" {
		return fmt.Errorf("a role is required (--role or SERVICEBOARD_ROLE)")
	}
	if err := b.SelectDate(ctx, date); err != nil {
		return err
	}
	start := time.Now()
	if err := fn(*c.role); err != nil {
		return err
	}
	slog.Debug("action completed", "duration", time.Since(start))
	renderView(os.Stdout, b.View(*c.role))
	return nil
}
