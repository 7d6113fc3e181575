package domain

import "time"

// Session es una ejecución del bot, persistida para el informe.
type Session struct {
	ID            string
	StartedAt     time.Time
	EndedAt       *time.Time
	Algo          string
	BetMode       string
	BaseBet       float64
	Multiplier    float64
	StartingBuild *float64
	EndingBuild   *float64
	Profit        float64
	Bets          int
	Wins          int
	Losses        int
	StopReason    string
}
