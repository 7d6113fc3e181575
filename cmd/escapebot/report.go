package main

import (
	"context"
	"fmt"
	"io"

	"github.com/alejandrodnm/escapebot/config"
	"github.com/alejandrodnm/escapebot/internal/adapters/notify"
	"github.com/alejandrodnm/escapebot/internal/adapters/storage"
)

const reportRecentBets = 20

// runReport imprime el informe agregado del historial guardado.
func runReport(ctx context.Context, cfg *config.Config, out io.Writer) error {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	stats, err := store.GetBetStats(ctx)
	if err != nil {
		return err
	}
	recent, err := store.RecentBets(ctx, reportRecentBets)
	if err != nil {
		return err
	}

	notify.NewConsoleWriter(out).PrintReport(stats, recent)
	return nil
}
