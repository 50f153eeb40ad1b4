package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/firebase/genkit/go/genkit"

	"qakit/internal/core"
	"qakit/internal/flows"
	"qakit/internal/repository"
	"qakit/internal/server"
)

const shutdownTimeout = 5 * time.Second

func runServe(a *app, args []string) error {
	fs := a.newFlagSet("serve")
	addr := fs.String("addr", a.cfg.Addr, "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	repo := repository.NewRepository(a.cfg.DataDir, repository.WithOwner("server"))
	orch := core.NewOrchestrator(core.NewLocalGenerator(a.engine), repo, a.logger)

	cache, err := server.NewSuiteCache(a.cfg.SuiteCacheSize)
	if err != nil {
		return err
	}
	g := genkit.Init(ctx)
	registered := flows.Register(g, orch, flows.Options{
		Persist:   a.cfg.Persist,
		OnAnalyze: cache.Add,
	})
	handler := server.NewHandler(server.Options{
		Orchestrator:   orch,
		Cache:          cache,
		Logger:         a.logger,
		Persist:        a.cfg.Persist,
		WebhookTimeout: a.cfg.WebhookTimeout,
		Flows:          registered,
		AllowedOrigins: a.cfg.AllowedOrigins,
	})

	srv := server.New(*addr, handler.Routes(), a.logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		a.logger.Info("received signal", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil {
		return err
	}
	a.logger.Info("server stopped")
	return nil
}
