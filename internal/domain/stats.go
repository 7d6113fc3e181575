package domain

import "time"

// RoundResult es una ronda resuelta tal como se persiste.
type RoundResult struct {
	Issue      int64
	RoundIndex int
	KilledRoom RoomID
	Predicted  RoomID
	Skipped    bool
	SettledAt  time.Time
}

// AlgoStats agrega las apuestas liquidadas de una estrategia.
type AlgoStats struct {
	Algo    string
	Bets    int
	Wins    int
	Losses  int
	Staked  float64
	WinRate float64
}

// BetStats agrega el historial de apuestas persistido.
type BetStats struct {
	StartDate     time.Time
	EndDate       time.Time
	TotalBets     int
	Settled       int
	Wins          int
	Losses        int
	Pending       int
	Rejected      int
	TotalStaked   float64
	WinRate       float64
	MaxWinStreak  int
	MaxLoseStreak int
	Rounds        int
	ByAlgo        []AlgoStats
	KillsByRoom   map[RoomID]int
}
