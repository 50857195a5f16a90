package app

import (
	"context"
	"os/signal"
	"syscall"

	apperrors "github.com/agbru/bigtensor/internal/errors"
	"github.com/agbru/bigtensor/internal/logging"
	"github.com/agbru/bigtensor/internal/server"
	"github.com/agbru/bigtensor/internal/ui"
)

// runServer serves the HTTP API until SIGINT or SIGTERM.
func (a *Application) runServer(ctx context.Context) int {
	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	security := server.DefaultSecurityConfig()
	security.MaxBodyBytes = a.Config.MaxBodyBytes
	srv := server.New(a.newAdapter(), server.Config{
		Addr:           a.Config.Addr,
		RequestTimeout: a.Config.Timeout,
		Security:       security,
	}, a.logger, server.NewMetricsFromRecorder(a.recorder))

	a.logger.Info("starting server",
		logging.String("addr", a.Config.Addr),
		logging.Int("threshold", a.Config.Threshold),
		logging.Int("workers", a.Config.EffectiveWorkers()))
	if err := srv.Start(ctx); err != nil {
		a.logger.Error("server stopped", err)
		return apperrors.HandleError(err, a.ErrWriter, ui.Colors{})
	}
	return apperrors.ExitSuccess
}
