package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/escapebot/internal/domain"
)

// RefreshBalance consulta el saldo y lo aplica al wallet. Un fallo conserva
// los valores anteriores.
func (e *Engine) RefreshBalance(ctx context.Context) error {
	bal, err := e.balances.FetchBalance(ctx)
	if err != nil {
		return fmt.Errorf("engine.RefreshBalance: %w", err)
	}
	e.observeBalance(bal)
	return nil
}

func (e *Engine) observeBalance(bal domain.Balance) {
	e.mu.Lock()
	first := e.wallet.Starting == nil
	delta := e.wallet.Observe(bal, e.now())
	e.mu.Unlock()

	switch {
	case first && bal.Build != nil:
		slog.Info("engine: starting balance", "build", fmt.Sprintf("%.4f", *bal.Build))
	case delta != 0:
		slog.Info("engine: balance updated",
			"build", fmt.Sprintf("%.4f", *bal.Build),
			"delta", fmt.Sprintf("%+.4f", delta),
		)
	}
}

// RunBalancePoller refresca el saldo cada interval hasta que ctx se cancela.
func (e *Engine) RunBalancePoller(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 4 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := e.RefreshBalance(ctx); err != nil && ctx.Err() == nil {
			slog.Debug("engine: balance poll failed", "err", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if e.Stopped() {
			return nil
		}
	}
}

func (e *Engine) refreshJob() Job {
	return func(ctx context.Context) {
		if err := e.RefreshBalance(ctx); err != nil {
			slog.Debug("engine: balance refresh after result failed", "err", err)
		}
	}
}

// stopCheckJob espera StopCheckDelay y compara el saldo conocido con los
// objetivos de beneficio y pérdida.
func (e *Engine) stopCheckJob() Job {
	return func(ctx context.Context) {
		if d := e.cfg.StopCheckDelay; d > 0 {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
		}
		if reason := e.checkTargets(); reason != "" {
			e.Stop(reason)
		}
	}
}

func (e *Engine) checkTargets() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.wallet.Build == nil {
		return ""
	}
	build := *e.wallet.Build
	if t := e.cfg.ProfitTarget; t != nil && build >= *t {
		return fmt.Sprintf("profit target reached: %.4f >= %.4f", build, *t)
	}
	if t := e.cfg.StopLossTarget; t != nil && build <= *t {
		return fmt.Sprintf("stop-loss reached: %.4f <= %.4f", build, *t)
	}
	return ""
}
