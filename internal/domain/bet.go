package domain

import "time"

// BetResult es el resultado de liquidar una apuesta.
type BetResult string

const (
	BetPending BetResult = "PENDING"
	BetWin     BetResult = "WIN"
	BetLoss    BetResult = "LOSS"
)

// BetHistoryCapacity es el número de apuestas que se guardan en memoria por defecto.
const BetHistoryCapacity = 500

// BetRequest es lo que se envía al endpoint de apuestas.
type BetRequest struct {
	Issue     int64
	UserID    int64
	Room      RoomID
	Amount    float64
	AssetType string
}

// BetReceipt es la respuesta interpretada del envío de una apuesta.
type BetReceipt struct {
	OK   bool
	Demo bool
	Raw  string
}

// BetRecord es una apuesta enviada. Result pasa de PENDING a WIN o LOSS una
// sola vez.
type BetRecord struct {
	ID         string
	Issue      int64
	Room       RoomID
	Amount     float64
	PlacedAt   time.Time
	Result     BetResult
	Settled    bool
	SettledAt  *time.Time
	KilledRoom RoomID
	Algo       string
	Confidence float64
	WinStreak  int // rachas al colocar la apuesta
	LoseStreak int
	Accepted   bool // el endpoint aceptó la apuesta
	Response   string
}

// BetHistory es una lista acotada de apuestas más el conjunto de issues con
// una apuesta aceptada sin liquidar.
type BetHistory struct {
	records     []*BetRecord
	capacity    int
	outstanding map[int64]bool
}

// NewBetHistory crea un historial vacío con la capacidad dada.
func NewBetHistory(capacity int) *BetHistory {
	if capacity <= 0 {
		capacity = BetHistoryCapacity
	}
	return &BetHistory{
		capacity:    capacity,
		outstanding: make(map[int64]bool),
	}
}

// Add añade una apuesta, descartando la más antigua si está lleno. Las
// apuestas aceptadas marcan su issue como pendiente; una segunda apuesta
// aceptada para un issue pendiente se rechaza con ErrBetOutstanding.
func (h *BetHistory) Add(rec BetRecord) error {
	if rec.Accepted && h.outstanding[rec.Issue] {
		return ErrBetOutstanding
	}
	if rec.Result == "" {
		rec.Result = BetPending
	}
	if len(h.records) >= h.capacity {
		h.records = append(h.records[:0:0], h.records[1:]...)
	}
	h.records = append(h.records, &rec)
	if rec.Accepted {
		h.outstanding[rec.Issue] = true
	}
	return nil
}

// Settle liquida la última apuesta del issue contra la sala eliminada. La
// marca de pendiente se borra sea cual sea el resultado.
func (h *BetHistory) Settle(issue int64, killed RoomID, at time.Time) (BetRecord, error) {
	if !h.outstanding[issue] {
		return BetRecord{}, ErrNoOutstandingBet
	}
	defer delete(h.outstanding, issue)

	rec := h.latest(issue)
	if rec == nil {
		return BetRecord{}, ErrNoOutstandingBet
	}
	if rec.Settled {
		return *rec, ErrAlreadySettled
	}

	rec.Settled = true
	rec.SettledAt = &at
	rec.KilledRoom = killed
	if rec.Room != killed {
		rec.Result = BetWin
	} else {
		rec.Result = BetLoss
	}
	return *rec, nil
}

func (h *BetHistory) latest(issue int64) *BetRecord {
	for i := len(h.records) - 1; i >= 0; i-- {
		if h.records[i].Issue == issue && h.records[i].Accepted {
			return h.records[i]
		}
	}
	return nil
}

// Unsettled cuenta las apuestas aceptadas del issue aún sin liquidar.
func (h *BetHistory) Unsettled(issue int64) int {
	n := 0
	for _, r := range h.records {
		if r.Issue == issue && r.Accepted && !r.Settled {
			n++
		}
	}
	return n
}

// Len devuelve el número de apuestas guardadas.
func (h *BetHistory) Len() int { return len(h.records) }

// Recent devuelve hasta n apuestas, la más reciente primero.
func (h *BetHistory) Recent(n int) []BetRecord {
	if n <= 0 || n > len(h.records) {
		n = len(h.records)
	}
	out := make([]BetRecord, 0, n)
	for i := len(h.records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, *h.records[i])
	}
	return out
}
