package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/escapebot/internal/domain"
	"github.com/alejandrodnm/escapebot/internal/domain/strategy"
)

const (
	skipReasonPause     = "pause after loss"
	skipReasonFloor     = "confidence below floor"
	skipReasonProtect   = "streak protection"
	skipReasonScheduled = "scheduled skip"
)

// betTicket captura, en el momento del lock, todo lo que el job de apuesta
// necesita para no volver a leer estado mutable.
type betTicket struct {
	issue      int64
	decision   domain.Decision
	class      strategy.Class
	stake      float64
	winStreak  int
	loseStreak int
}

// lock es el único punto donde una decisión de apuesta se vuelve definitiva
// para un issue. Se llama con mu tomado.
func (e *Engine) lock() []Job {
	if e.stopped.Load() || e.pred.Locked || e.round.Issue == 0 {
		return nil
	}
	issue := e.round.Issue

	if e.staking.ConsumePause(issue) {
		slog.Info("engine: pausing after loss",
			"issue", issue,
			"remaining", e.staking.SkipRoundsRemaining(),
		)
		e.lockSkip(skipReasonPause)
		return nil
	}

	d := e.strategy.Choose(e.tel)
	e.pred.Decision = &d

	loseStreak := e.staking.LoseStreak
	floor := e.cfg.Floors[e.strategy.Class()].For(loseStreak)
	if d.Confidence < floor {
		slog.Info("engine: SKIP low confidence",
			"issue", issue,
			"algo", d.Label,
			"confidence", fmt.Sprintf("%.3f", d.Confidence),
			"floor", fmt.Sprintf("%.2f", floor),
		)
		e.lockSkip(skipReasonFloor)
		return nil
	}

	if loseStreak >= e.cfg.StreakProtectionLosses {
		if risk := domain.RiskFactor(e.tel, d.Room); risk > e.cfg.StreakProtectionRisk {
			slog.Info("engine: SKIP streak protection",
				"issue", issue,
				"room", d.Room.Name(),
				"risk", fmt.Sprintf("%.3f", risk),
				"lose_streak", loseStreak,
			)
			e.lockSkip(skipReasonProtect)
			return nil
		}
	}

	e.pred.Room = d.Room
	e.pred.Locked = true
	e.pred.UI = domain.StatePredicted
	slog.Info("engine: PREDICTION LOCKED",
		"issue", issue,
		"room", d.Room.Label(),
		"algo", d.Label,
		"confidence", fmt.Sprintf("%.3f", d.Confidence),
	)

	if e.cfg.RunMode == RunModeAuto && !e.staking.SkipNextPending() {
		t := betTicket{
			issue:      issue,
			decision:   d,
			class:      e.strategy.Class(),
			stake:      e.staking.Stake(),
			winStreak:  e.staking.WinStreak,
			loseStreak: loseStreak,
		}
		return []Job{func(ctx context.Context) { e.placeBet(ctx, t) }}
	}
	if e.staking.TakeSkipNext() {
		slog.Info("engine: scheduled skip, no bet this round", "issue", issue)
		e.pred.Skipped = true
		e.pred.SkipReason = skipReasonScheduled
	}
	return nil
}

func (e *Engine) lockSkip(reason string) {
	e.pred.Locked = true
	e.pred.Skipped = true
	e.pred.SkipReason = reason
	e.pred.UI = domain.StateAnalyzing
}

// placeBet corre fuera del lock: consulta saldo, calcula el importe y envía
// la apuesta. Si el saldo no está disponible la apuesta se aborta pero el
// lock del issue se mantiene.
func (e *Engine) placeBet(ctx context.Context, t betTicket) {
	if e.Stopped() {
		return
	}

	bal, err := e.balances.FetchBalance(ctx)
	if err != nil || bal.Build == nil {
		slog.Warn("engine: balance unavailable before bet, skipping", "issue", t.issue, "err", err)
		return
	}
	e.observeBalance(bal)

	amount := e.betAmount(t)
	if amount <= 0 {
		slog.Warn("engine: invalid bet amount, skipping", "issue", t.issue, "amount", amount)
		return
	}

	req := domain.BetRequest{
		Issue:     t.issue,
		UserID:    e.cfg.UserID,
		Room:      t.decision.Room,
		Amount:    amount,
		AssetType: e.cfg.AssetType,
	}
	slog.Info("engine: PLACING BET",
		"mode", e.cfg.BetMode,
		"issue", t.issue,
		"room", t.decision.Room.Label(),
		"amount", fmt.Sprintf("%.4f", amount),
		"algo", t.decision.Label,
	)

	receipt, err := e.placer.PlaceBet(ctx, req)
	rec := domain.BetRecord{
		ID:         uuid.New().String(),
		Issue:      t.issue,
		Room:       t.decision.Room,
		Amount:     amount,
		PlacedAt:   e.now(),
		Result:     domain.BetPending,
		Algo:       t.decision.Label,
		Confidence: t.decision.Confidence,
		WinStreak:  t.winStreak,
		LoseStreak: t.loseStreak,
		Accepted:   err == nil && receipt.OK,
		Response:   receipt.Raw,
	}
	if err != nil {
		rec.Response = err.Error()
		slog.Warn("engine: bet failed", "issue", t.issue, "err", err)
	} else if !receipt.OK {
		slog.Warn("engine: bet rejected", "issue", t.issue, "response", receipt.Raw)
	} else {
		slog.Info("engine: BET ACCEPTED", "issue", t.issue, "amount", fmt.Sprintf("%.4f", amount))
	}

	e.mu.Lock()
	addErr := e.bets.Add(rec)
	e.staking.NoteBetPlaced()
	e.mu.Unlock()

	if addErr != nil {
		slog.Warn("engine: bet record dropped", "issue", t.issue, "err", addErr)
		return
	}
	e.persistBet(ctx, rec)
}

// betAmount aplica el boost de las estrategias agresivas, el tope de apuesta
// y el redondeo a 4 decimales.
func (e *Engine) betAmount(t betTicket) float64 {
	amount := t.stake
	if t.class == strategy.ClassAggressive {
		rate := e.cfg.BoostMin + (e.cfg.BoostMax-e.cfg.BoostMin)*e.randf()
		amount *= 1 + rate*t.decision.Confidence
		slog.Debug("engine: confidence boost",
			"confidence", fmt.Sprintf("%.3f", t.decision.Confidence),
			"boost_pct", fmt.Sprintf("%.1f", rate*100),
		)
	}
	if maxBet := e.staking.Config().MaxBet; maxBet > 0 {
		amount = math.Min(amount, maxBet)
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0
	}
	return decimal.NewFromFloat(amount).Round(4).InexactFloat64()
}
