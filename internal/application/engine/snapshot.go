package engine

import (
	"github.com/alejandrodnm/escapebot/internal/domain"
)

const snapshotRecentBets = 10

// Snapshot copia el estado actual para el panel. Nunca devuelve punteros al
// estado interno.
func (e *Engine) Snapshot() domain.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := domain.Snapshot{
		TakenAt:    e.now(),
		Algo:       e.strategy.Name(),
		BetMode:    e.cfg.BetMode,
		RunMode:    e.cfg.RunMode,
		FeedStatus: e.feedStatus,
		Round:      e.round,
		Prediction: e.pred,
		Wallet:     copyWallet(e.wallet),
		Staking: domain.StakingView{
			CurrentBet:          e.staking.Stake(),
			WinStreak:           e.staking.WinStreak,
			LoseStreak:          e.staking.LoseStreak,
			MaxWinStreak:        e.staking.MaxWinStreak,
			MaxLoseStreak:       e.staking.MaxLoseStreak,
			TotalWins:           e.staking.TotalWins,
			TotalLosses:         e.staking.TotalLosses,
			WinRate:             e.staking.WinRate(),
			SkipRoundsRemaining: e.staking.SkipRoundsRemaining(),
			SkipNextPending:     e.staking.SkipNextPending(),
		},
		RecentBets: e.bets.Recent(snapshotRecentBets),
		Stopped:    e.stopped.Load(),
		StopReason: e.stopReason,
	}
	if e.round.Countdown != nil {
		v := *e.round.Countdown
		snap.Round.Countdown = &v
	}
	if e.cfg.ProfitTarget != nil {
		snap.ProfitTarget = domain.Float(*e.cfg.ProfitTarget)
	}
	if e.cfg.StopLossTarget != nil {
		snap.StopLossTarget = domain.Float(*e.cfg.StopLossTarget)
	}
	if e.pred.Decision != nil {
		d := *e.pred.Decision
		snap.Prediction.Decision = &d
	}

	snap.Rooms = make([]domain.RoomView, 0, domain.NumRooms)
	for _, r := range domain.Rooms {
		s := e.tel.Snapshot(r)
		st := e.tel.Stats(r)
		snap.Rooms = append(snap.Rooms, domain.RoomView{
			Room:      r,
			Players:   s.Players,
			Bet:       s.Bet,
			Kills:     st.Kills,
			Survives:  st.Survives,
			Potential: domain.RoomPotential(e.tel, r).Total,
		})
	}
	return snap
}

func copyWallet(w domain.Wallet) domain.Wallet {
	out := domain.Wallet{
		CumulativeProfit: w.CumulativeProfit,
		UpdatedAt:        w.UpdatedAt,
	}
	if w.Build != nil {
		out.Build = domain.Float(*w.Build)
	}
	if w.World != nil {
		out.World = domain.Float(*w.World)
	}
	if w.USDT != nil {
		out.USDT = domain.Float(*w.USDT)
	}
	if w.Starting != nil {
		out.Starting = domain.Float(*w.Starting)
	}
	return out
}
