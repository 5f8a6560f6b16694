package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"unlockbot/app/client/llm"
	"unlockbot/app/client/telegram"
	"unlockbot/app/config"
	"unlockbot/app/service/conversation"
	"unlockbot/app/service/engine"
	"unlockbot/app/service/ledger"
	"unlockbot/app/service/queue"
	"unlockbot/app/service/session"
	"unlockbot/app/service/webhook"
	"unlockbot/app/util/mylog"

	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

func main() {
	di := do.New()
	defer func() {
		if err := di.Shutdown(); err != nil {
			slog.Warn("Shutdown finished with errors", "error", err)
		}
	}()
	defer slog.Info("Waiting for services to finish...")

	mylog.Preinit()

	appCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Config load failed", "error", err)
		os.Exit(1)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		slog.Error("Logging init failed", "error", err)
		os.Exit(1)
	}

	do.Provide(di, telegram.NewClient)
	do.Provide(di, llm.NewClient)
	do.Provide(di, session.New)
	do.Provide(di, ledger.New)
	do.Provide(di, conversation.New)
	do.Provide(di, queue.New)
	do.Provide(di, engine.New)
	do.Provide(di, webhook.New)

	webhookSvc := do.MustInvoke[*webhook.Service](di)
	if err = webhookSvc.Register(do.MustInvoke[*telegram.Client](di)); err != nil {
		slog.Error("Webhook registration failed", "error", err)
	}

	slog.Info("Bot live, waiting for DMs...")

	group, ctx := errgroup.WithContext(appCtx)

	group.Go(func() error {
		return do.MustInvoke[*engine.Service](di).Run(ctx)
	})

	group.Go(func() error {
		do.MustInvoke[*session.Store](di).RunSweepLoop(ctx, cfg.Session.SweepInterval)
		return nil
	})

	group.Go(webhookSvc.Run)

	group.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down...")
		return webhookSvc.Stop()
	})

	if err = group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Service stopped", "error", err)
	}
}
