package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"modelfolio/api"
	"modelfolio/internal/app"
	"modelfolio/internal/util"

	_ "github.com/lib/pq"
)

func main() {
	cfg, err := util.LoadConfig()
	if err != nil {
		bootLog := util.NewLogger(util.LogConfig{})
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	log := util.NewLogger(cfg.LogConfig())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start")
	}
	defer a.Close()
	a.PrepareStorage(ctx)

	s, err := a.NewScheduler()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to schedule jobs")
	}
	s.Start()
	defer s.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- api.StartApi(cfg.Port, a.Resolver, log)
	}()

	select {
	case err := <-errCh:
		log.Error().Err(err).Msg("api stopped")
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}
}
