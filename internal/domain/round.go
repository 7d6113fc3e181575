package domain

import "time"

// UIState es el estado de la ronda actual tal como lo ve el operador.
type UIState string

const (
	StateIdle      UIState = "IDLE"
	StateAnalyzing UIState = "ANALYZING"
	StatePredicted UIState = "PREDICTED"
	StateResult    UIState = "RESULT"
)

// RoundContext describe la ronda en curso. Se reemplaza entera al ver un
// issue nuevo.
type RoundContext struct {
	Issue      int64 // 0 hasta ver el primer issue
	RoundIndex int
	Countdown  *int
	KilledRoom RoomID
	IssueStart time.Time
}

// Decision es la salida de una estrategia.
type Decision struct {
	Room       RoomID
	Label      string
	Confidence float64
}

// PredictionState sigue el bloqueo del issue actual. Como mucho hay un
// bloqueo por issue.
type PredictionState struct {
	Room           RoomID
	Locked         bool
	Skipped        bool
	SkipReason     string
	UI             UIState
	FinalCountdown bool
	AnalysisStart  time.Time
	Decision       *Decision
}
