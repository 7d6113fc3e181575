package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/escapebot/internal/domain"
)

// settle liquida la apuesta pendiente del issue y actualiza el staking.
// Devuelve false si no había nada que liquidar. Se llama con mu tomado.
func (e *Engine) settle(issue int64, killed domain.RoomID, at time.Time) (domain.BetRecord, bool) {
	rec, err := e.bets.Settle(issue, killed, at)
	switch {
	case errors.Is(err, domain.ErrNoOutstandingBet):
		slog.Debug("engine: no outstanding bet for issue", "issue", issue)
		return domain.BetRecord{}, false
	case errors.Is(err, domain.ErrAlreadySettled):
		slog.Warn("engine: issue already settled", "issue", issue)
		return domain.BetRecord{}, false
	case err != nil:
		slog.Warn("engine: settlement failed", "issue", issue, "err", err)
		return domain.BetRecord{}, false
	}

	if rec.Result == domain.BetWin {
		e.staking.RecordWin()
	} else {
		e.staking.RecordLoss(rec.Amount)
	}

	slog.Info("engine: BET SETTLED",
		"issue", issue,
		"result", rec.Result,
		"room", rec.Room.Name(),
		"killed", killed.Name(),
		"amount", fmt.Sprintf("%.4f", rec.Amount),
		"next_bet", fmt.Sprintf("%.4f", e.staking.Stake()),
		"win_streak", e.staking.WinStreak,
		"lose_streak", e.staking.LoseStreak,
	)
	return rec, true
}

func (e *Engine) persistSettlementJob(rec domain.BetRecord) Job {
	return func(ctx context.Context) {
		if e.store == nil {
			return
		}
		if err := e.store.SettleBet(ctx, rec); err != nil {
			slog.Warn("engine: error persisting settlement", "issue", rec.Issue, "err", err)
		}
	}
}

func (e *Engine) persistRoundJob(r domain.RoundResult) Job {
	return func(ctx context.Context) {
		if e.store == nil {
			return
		}
		if err := e.store.SaveRound(ctx, r); err != nil {
			slog.Warn("engine: error persisting round", "issue", r.Issue, "err", err)
		}
	}
}

func (e *Engine) persistBet(ctx context.Context, rec domain.BetRecord) {
	if e.store == nil {
		return
	}
	if err := e.store.SaveBet(ctx, rec); err != nil {
		slog.Warn("engine: error persisting bet", "issue", rec.Issue, "err", err)
	}
}
