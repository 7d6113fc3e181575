package engine

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alejandrodnm/escapebot/internal/domain"
	"github.com/alejandrodnm/escapebot/internal/domain/strategy"
	"github.com/alejandrodnm/escapebot/internal/ports"
)

const (
	RunModeAuto  = "auto"
	RunModeWatch = "watch"

	defaultLockAt           = 8
	defaultFinalCountdownAt = 45
	defaultStopCheckDelay   = 1200 * time.Millisecond
	defaultProtectLosses    = 2
	defaultProtectRisk      = 0.5
	defaultBoostMin         = 0.01
	defaultBoostMax         = 0.06
	defaultAssetType        = "BUILD"
)

// Config configura la máquina de estados y la política de apuestas.
type Config struct {
	RunMode   string // auto | watch
	BetMode   string // demo | real, sólo informativo
	UserID    int64
	AssetType string

	LockAt           int // segundos de countdown a partir de los cuales se bloquea la predicción
	FinalCountdownAt int
	HistoryCapacity  int
	BetHistoryCap    int
	StopCheckDelay   time.Duration

	// StreakProtectionLosses/Risk vetan la sala elegida si la racha de
	// derrotas alcanza el umbral y su riesgo lo supera.
	StreakProtectionLosses int
	StreakProtectionRisk   float64

	BoostMin float64
	BoostMax float64

	Floors  map[strategy.Class]strategy.Floors
	Staking domain.StakingConfig

	ProfitTarget   *float64 // parar cuando el saldo principal >= objetivo
	StopLossTarget *float64 // parar cuando el saldo principal <= objetivo
}

func (c *Config) setDefaults() {
	if c.RunMode == "" {
		c.RunMode = RunModeAuto
	}
	if c.AssetType == "" {
		c.AssetType = defaultAssetType
	}
	if c.LockAt <= 0 {
		c.LockAt = defaultLockAt
	}
	if c.FinalCountdownAt <= 0 {
		c.FinalCountdownAt = defaultFinalCountdownAt
	}
	if c.HistoryCapacity <= 0 {
		c.HistoryCapacity = domain.HistoryCapacity
	}
	if c.BetHistoryCap <= 0 {
		c.BetHistoryCap = domain.BetHistoryCapacity
	}
	if c.StopCheckDelay < 0 {
		c.StopCheckDelay = defaultStopCheckDelay
	}
	if c.StreakProtectionLosses <= 0 {
		c.StreakProtectionLosses = defaultProtectLosses
	}
	if c.StreakProtectionRisk <= 0 {
		c.StreakProtectionRisk = defaultProtectRisk
	}
	if c.BoostMax <= 0 {
		c.BoostMin, c.BoostMax = defaultBoostMin, defaultBoostMax
	}
	if c.Floors == nil {
		c.Floors = strategy.DefaultFloors()
	}
}

// Engine es el dueño único del estado del juego: telemetría, ronda actual,
// predicción, staking e historial de apuestas. Los eventos del feed se
// procesan en serie bajo mu; el trabajo bloqueante (apuestas, saldo,
// persistencia) se despacha como jobs que vuelven a tomar mu para aplicar
// su resultado.
type Engine struct {
	cfg      Config
	strategy strategy.Strategy
	balances ports.BalanceProvider
	placer   ports.BetPlacer
	store    ports.Storage // opcional
	jobs     Dispatcher

	mu         sync.Mutex
	tel        *domain.Telemetry
	round      domain.RoundContext
	pred       domain.PredictionState
	staking    *domain.Staking
	bets       *domain.BetHistory
	wallet     domain.Wallet
	resulted   []int64 // últimos issues con resultado aplicado
	feedStatus string
	stopReason string

	stopped atomic.Bool
	onStop  func(reason string)

	now   func() time.Time
	randf func() float64
}

// New crea el motor. store puede ser nil para no persistir.
func New(
	cfg Config,
	strat strategy.Strategy,
	balances ports.BalanceProvider,
	placer ports.BetPlacer,
	store ports.Storage,
	jobs Dispatcher,
) *Engine {
	cfg.setDefaults()
	return &Engine{
		cfg:      cfg,
		strategy: strat,
		balances: balances,
		placer:   placer,
		store:    store,
		jobs:     jobs,
		tel:      domain.NewTelemetry(cfg.HistoryCapacity),
		pred:     domain.PredictionState{UI: domain.StateIdle},
		staking:  domain.NewStaking(cfg.Staking),
		bets:     domain.NewBetHistory(cfg.BetHistoryCap),
		now:      time.Now,
		randf:    rand.Float64,
	}
}

// OnStop registra el callback invocado una sola vez cuando el motor se detiene.
func (e *Engine) OnStop(fn func(reason string)) {
	e.onStop = fn
}

// HandleEvent aplica un evento del feed. Los eventos se procesan en orden de
// llegada; los jobs resultantes se despachan tras liberar el lock.
func (e *Engine) HandleEvent(ctx context.Context, ev domain.Event) {
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = e.now()
	}

	e.mu.Lock()
	var jobs []Job
	switch ev.Kind {
	case domain.EventTelemetry:
		e.onTelemetry(ev)
	case domain.EventCountdown:
		jobs = e.onCountdown(ev)
	case domain.EventResult:
		jobs = e.onResult(ev)
	default:
		slog.Debug("engine: ignoring event", "type", ev.Type)
	}
	e.mu.Unlock()

	for _, job := range jobs {
		e.jobs.Dispatch(ctx, job)
	}
}

// Stop activa el flag global de parada e invoca el callback OnStop.
// Es idempotente: sólo la primera razón queda registrada.
func (e *Engine) Stop(reason string) {
	if !e.stopped.CompareAndSwap(false, true) {
		return
	}
	e.mu.Lock()
	e.stopReason = reason
	e.mu.Unlock()

	slog.Warn("engine: STOPPED", "reason", reason)
	if e.onStop != nil {
		e.onStop(reason)
	}
}

// Stopped devuelve true si el motor ya no debe apostar.
func (e *Engine) Stopped() bool {
	return e.stopped.Load()
}

// SetFeedStatus guarda el estado de la conexión para el panel.
func (e *Engine) SetFeedStatus(status string) {
	e.mu.Lock()
	e.feedStatus = status
	e.mu.Unlock()
}

// Restore reconstruye las estadísticas de salas a partir de rondas persistidas.
func (e *Engine) Restore(rounds []domain.RoundResult) {
	e.mu.Lock()
	defer e.mu.Unlock()

	restored := 0
	for _, r := range rounds {
		if !r.KilledRoom.Valid() || !e.markResulted(r.Issue) {
			continue
		}
		e.tel.RecordKill(r.KilledRoom, 0)
		restored++
	}
	slog.Info("engine: room stats restored", "rounds", restored)
}

const resultedIssues = 64

// markResulted registra el issue como ya resuelto. Devuelve false si ya lo
// estaba. Se llama con mu tomado.
func (e *Engine) markResulted(issue int64) bool {
	if issue == 0 {
		return true
	}
	for _, done := range e.resulted {
		if done == issue {
			return false
		}
	}
	if len(e.resulted) == resultedIssues {
		e.resulted = e.resulted[1:]
	}
	e.resulted = append(e.resulted, issue)
	return true
}
