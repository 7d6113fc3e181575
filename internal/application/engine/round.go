package engine

import (
	"log/slog"

	"github.com/alejandrodnm/escapebot/internal/domain"
)

// onTelemetry actualiza la telemetría y cambia de ronda si el issue es nuevo.
func (e *Engine) onTelemetry(ev domain.Event) {
	applied := e.tel.Apply(ev.Rooms, ev.ReceivedAt)
	if applied < len(ev.Rooms) {
		slog.Debug("engine: telemetry rooms ignored", "received", len(ev.Rooms), "applied", applied)
	}

	if ev.Issue != nil && *ev.Issue != 0 && *ev.Issue != e.round.Issue {
		e.rollover(*ev.Issue, ev)
	}
}

func (e *Engine) rollover(issue int64, ev domain.Event) {
	slog.Debug("engine: new issue", "from", e.round.Issue, "to", issue)
	e.round = domain.RoundContext{
		Issue:      issue,
		RoundIndex: e.round.RoundIndex + 1,
		IssueStart: ev.ReceivedAt,
	}
	e.tel.Countdown = nil
	e.pred = domain.PredictionState{
		UI:            domain.StateAnalyzing,
		AnalysisStart: ev.ReceivedAt,
	}
}

// onCountdown actualiza el countdown. Un evento sin valor mantiene el anterior.
// Al llegar a LockAt sin lock previo se ejecuta el procedimiento de lock.
func (e *Engine) onCountdown(ev domain.Event) []Job {
	if ev.Countdown != nil {
		v := *ev.Countdown
		e.round.Countdown = &v
		e.tel.Countdown = &v
	}
	if e.round.Countdown == nil || e.pred.Locked {
		return nil
	}

	count := *e.round.Countdown
	switch {
	case count <= e.cfg.LockAt:
		return e.lock()
	case count <= e.cfg.FinalCountdownAt:
		e.pred.UI = domain.StateAnalyzing
		e.pred.FinalCountdown = true
		e.pred.AnalysisStart = ev.ReceivedAt
	}
	return nil
}

// onResult registra la sala eliminada, liquida la apuesta del issue y
// programa el refresco de saldo y la comprobación de objetivos.
func (e *Engine) onResult(ev domain.Event) []Job {
	issue := e.round.Issue
	if ev.Issue != nil && *ev.Issue != 0 {
		issue = *ev.Issue
	}

	var jobs []Job
	if ev.KilledRoom != nil {
		killed := *ev.KilledRoom
		switch {
		case !killed.Valid():
			slog.Warn("engine: result with unknown room ignored", "issue", issue, "room", int(killed))
		case !e.markResulted(issue):
			slog.Debug("engine: duplicate result ignored", "issue", issue, "room", int(killed))
		default:
			jobs = append(jobs, e.recordResult(issue, killed, ev)...)
		}
	}

	e.pred.UI = domain.StateResult
	jobs = append(jobs, e.stopCheckJob())
	return jobs
}

func (e *Engine) recordResult(issue int64, killed domain.RoomID, ev domain.Event) []Job {
	e.round.KilledRoom = killed
	e.tel.RecordKill(killed, e.round.RoundIndex)

	slog.Info("engine: ROUND RESULT",
		"issue", issue,
		"killed", killed.Label(),
		"predicted", e.pred.Room.Name(),
		"skipped", e.pred.Skipped,
	)

	jobs := []Job{e.refreshJob()}

	if rec, ok := e.settle(issue, killed, ev.ReceivedAt); ok {
		jobs = append(jobs, e.persistSettlementJob(rec))
	}

	jobs = append(jobs, e.persistRoundJob(domain.RoundResult{
		Issue:      issue,
		RoundIndex: e.round.RoundIndex,
		KilledRoom: killed,
		Predicted:  e.pred.Room,
		Skipped:    e.pred.Skipped,
		SettledAt:  ev.ReceivedAt,
	}))
	return jobs
}
