package domain

import "time"

// RoomView es una fila de la tabla de salas.
type RoomView struct {
	Room      RoomID
	Players   int
	Bet       float64
	Kills     int
	Survives  int
	Potential float64
}

// StakingView es una copia de los contadores de apuesta para mostrar.
type StakingView struct {
	CurrentBet          float64
	WinStreak           int
	LoseStreak          int
	MaxWinStreak        int
	MaxLoseStreak       int
	TotalWins           int
	TotalLosses         int
	WinRate             float64
	SkipRoundsRemaining int
	SkipNextPending     bool
}

// Snapshot es una copia consistente y de sólo lectura del estado del engine,
// tomada bajo su lock. Los renderers nunca tocan el estado vivo.
type Snapshot struct {
	TakenAt    time.Time
	Algo       string
	BetMode    string
	RunMode    string
	FeedStatus string
	Round      RoundContext
	Prediction PredictionState
	Rooms      []RoomView
	Wallet     Wallet
	Staking    StakingView
	RecentBets []BetRecord
	Stopped    bool
	StopReason string

	ProfitTarget   *float64
	StopLossTarget *float64
}
