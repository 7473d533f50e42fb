package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kazz187/serviceboard/internal/catalog"
	"github.com/kazz187/serviceboard/internal/config"
	"github.com/kazz187/serviceboard/internal/eventbus"
	"github.com/kazz187/serviceboard/internal/lyrics"
	lyricsrepo "github.com/kazz187/serviceboard/internal/lyrics/repositoryimpl"
	"github.com/kazz187/serviceboard/internal/musiclink"
	musiclinkrepo "github.com/kazz187/serviceboard/internal/musiclink/repositoryimpl"
	"github.com/kazz187/serviceboard/internal/pushnotification"
	pushsubrepo "github.com/kazz187/serviceboard/internal/pushsubscription/repositoryimpl"
	"github.com/kazz187/serviceboard/internal/sermon"
	sermonrepo "github.com/kazz187/serviceboard/internal/sermon/repositoryimpl"
	"github.com/kazz187/serviceboard/internal/workflowtask"
	workflowtaskrepo "github.com/kazz187/serviceboard/internal/workflowtask/repositoryimpl"
	"github.com/kazz187/serviceboard/pkg/clog"
	"github.com/kazz187/serviceboard/pkg/storage"

	server "github.com/kazz187/serviceboard/internal"
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	// Setup catalog
	cat, err := catalog.Load(env.CatalogPath)
	if err != nil {
		slog.Error("failed to load catalog", "path", env.CatalogPath, "error", err)
		os.Exit(1)
	}

	// Setup storage
	storageEnv := config.StorageEnvFromEnv(env)
	store, err := storage.Open(context.Background(), storage.Options{
		Type:      storageEnv.Type,
		BaseDir:   storageEnv.BaseDir,
		S3Bucket:  storageEnv.S3Bucket,
		S3Prefix:  storageEnv.S3Prefix,
		S3Region:  storageEnv.S3Region,
		RedisAddr: storageEnv.RedisAddr,
		Prefix:    storageEnv.RedisPrefix,
	})
	if err != nil {
		slog.Error("failed to create storage", "type", storageEnv.Type, "error", err)
		os.Exit(1)
	}

	// Setup event bus
	bus := eventbus.New()

	// Setup repositories
	workflowTaskRepo := workflowtaskrepo.NewYAMLRepository(store)
	lyricsRepo := lyricsrepo.NewYAMLRepository(store)
	musicLinkRepo := musiclinkrepo.NewYAMLRepository(store)
	sermonRepo := sermonrepo.NewYAMLRepository(store)
	pushSubRepo := pushsubrepo.NewYAMLRepository(store)

	// Setup servers
	workflowTaskServer := workflowtask.NewServer(workflowTaskRepo, cat, bus)
	lyricsServer := lyrics.NewServer(lyricsRepo, lyrics.WithEventBus(bus))
	musicLinkServer := musiclink.NewServer(musicLinkRepo)
	sermonServer := sermon.NewServer(sermonRepo, sermon.WithEventBus(bus))

	// Setup push notification
	vapidEnv := config.VAPIDEnvFromEnv(env)
	pushSender := pushnotification.NewSender(vapidEnv, pushSubRepo)
	pushNotificationServer := pushnotification.NewServer(vapidEnv, pushSubRepo, cat, pushSender)
	pushDispatcher := pushnotification.NewDispatcher(bus, cat,
		pushnotification.NewDerivedCompletions(workflowTaskServer, cat, lyricsRepo, sermonRepo), pushSender)

	srv := server.NewServer(
		env,
		cat,
		workflowTaskServer,
		lyricsServer,
		musicLinkServer,
		sermonServer,
		pushNotificationServer,
	)

	// Graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	go pushDispatcher.Start(ctx)

	go func() {
		if err := srv.ListenAndServe(ctx); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
