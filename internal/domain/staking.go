package domain

import "math"

// StakingConfig es la política de apuestas del operador.
type StakingConfig struct {
	BaseBet             float64
	Multiplier          float64
	MaxBet              float64 // 0 = sin límite
	BetRoundsBeforeSkip int     // saltar una ronda tras tantas apuestas (0 = nunca)
	PauseAfterLoss      int     // rondas de pausa tras una derrota (0 = nunca)
}

// Staking sigue las rachas, el importe y las políticas de salto y pausa.
type Staking struct {
	cfg StakingConfig

	CurrentBet    float64
	WinStreak     int
	LoseStreak    int
	MaxWinStreak  int
	MaxLoseStreak int
	TotalWins     int
	TotalLosses   int

	skipRoundsRemaining int
	skipActiveIssue     int64
	roundsSinceSkip     int
	skipNextRound       bool
}

// NewStaking crea un controlador que empieza en la apuesta base.
func NewStaking(cfg StakingConfig) *Staking {
	if cfg.BaseBet <= 0 {
		cfg.BaseBet = 1
	}
	if cfg.Multiplier <= 0 {
		cfg.Multiplier = 2
	}
	return &Staking{cfg: cfg, CurrentBet: cfg.BaseBet}
}

// Config devuelve la política de apuestas.
func (s *Staking) Config() StakingConfig { return s.cfg }

// Stake devuelve el importe de la próxima apuesta.
func (s *Staking) Stake() float64 {
	if s.CurrentBet <= 0 {
		s.CurrentBet = s.cfg.BaseBet
	}
	return s.CurrentBet
}

// RecordWin vuelve a la apuesta base y alarga la racha de victorias.
func (s *Staking) RecordWin() {
	s.CurrentBet = s.cfg.BaseBet
	s.WinStreak++
	s.LoseStreak = 0
	if s.WinStreak > s.MaxWinStreak {
		s.MaxWinStreak = s.WinStreak
	}
	s.TotalWins++
}

// RecordLoss multiplica el importe perdido para la próxima apuesta y alarga la
// racha de derrotas. Un importe no finito vuelve a la base. Si hay pausa
// configurada se arma el contador.
func (s *Staking) RecordLoss(lostAmount float64) {
	next := lostAmount * s.cfg.Multiplier
	if math.IsNaN(next) || math.IsInf(next, 0) || next <= 0 {
		next = s.cfg.BaseBet
	}
	s.CurrentBet = next
	s.LoseStreak++
	s.WinStreak = 0
	if s.LoseStreak > s.MaxLoseStreak {
		s.MaxLoseStreak = s.LoseStreak
	}
	s.TotalLosses++

	if s.cfg.PauseAfterLoss > 0 {
		s.skipRoundsRemaining = s.cfg.PauseAfterLoss
		s.skipActiveIssue = 0
	}
}

// WinRate devuelve el porcentaje de victorias sobre apuestas liquidadas.
func (s *Staking) WinRate() float64 {
	total := s.TotalWins + s.TotalLosses
	if total == 0 {
		return 0
	}
	return float64(s.TotalWins) / float64(total) * 100
}

// SkipRoundsRemaining devuelve las rondas de pausa que quedan.
func (s *Staking) SkipRoundsRemaining() int { return s.skipRoundsRemaining }

// ConsumePause indica si el issue se salta por la pausa tras derrota. El
// contador baja una vez por issue distinto.
func (s *Staking) ConsumePause(issue int64) bool {
	if s.skipRoundsRemaining <= 0 {
		return false
	}
	if s.skipActiveIssue != issue {
		s.skipRoundsRemaining--
		s.skipActiveIssue = issue
	}
	return true
}

// SkipNextPending indica si el salto tras N apuestas está armado.
func (s *Staking) SkipNextPending() bool { return s.skipNextRound }

// TakeSkipNext desarma el salto tras N apuestas y devuelve si estaba armado.
func (s *Staking) TakeSkipNext() bool {
	was := s.skipNextRound
	s.skipNextRound = false
	return was
}

// NoteBetPlaced avanza el contador de apuestas y arma el salto al llegar al
// umbral.
func (s *Staking) NoteBetPlaced() {
	s.roundsSinceSkip++
	if s.cfg.BetRoundsBeforeSkip > 0 && s.roundsSinceSkip >= s.cfg.BetRoundsBeforeSkip {
		s.skipNextRound = true
		s.roundsSinceSkip = 0
	}
}
