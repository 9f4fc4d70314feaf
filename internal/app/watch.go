package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"pack-grader/internal/service"
)

// Watch runs the periodic model refresh and movement-alert loop.
func (a *App) Watch(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	watcher := service.NewWatcher(
		a.newScheduler(),
		a.newCache(store),
		a.newNotifier(),
		a.Config.Watch.MovementPct,
		a.Logger,
	)

	a.Logger.Info().Msg("starting price watch")
	err = watcher.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("watch terminated with error")
		return err
	}

	a.Logger.Info().Msg("price watch stopped")
	return nil
}
