package domain

import "time"

// Telemetry guarda las métricas actuales e históricas de cada sala que leen
// las heurísticas. No es seguro para uso concurrente; lo posee el engine.
type Telemetry struct {
	snapshots [NumRooms]RoomSnapshot
	history   [NumRooms]*RoomHistory
	stats     [NumRooms]RoomStats

	// LastKilled es la sala eliminada en la última ronda resuelta.
	LastKilled RoomID
	// Countdown es el último countdown visto en la ronda actual.
	Countdown *int
}

// NewTelemetry crea un almacén vacío con historyCap puntos por sala.
func NewTelemetry(historyCap int) *Telemetry {
	t := &Telemetry{}
	for i := range t.history {
		t.history[i] = NewRoomHistory(historyCap)
	}
	return t
}

// Apply sobrescribe la foto de cada sala reportada y añade un punto al
// histórico. Las salas desconocidas se ignoran. Devuelve cuántos reportes se
// aplicaron.
func (t *Telemetry) Apply(reports []RoomReport, at time.Time) int {
	applied := 0
	for _, rep := range reports {
		if !rep.Room.Valid() {
			continue
		}
		i := rep.Room - 1
		t.snapshots[i] = RoomSnapshot{Players: rep.Players, Bet: rep.Bet}
		t.stats[i].LastPlayers = rep.Players
		t.stats[i].LastBet = rep.Bet
		t.history[i].Append(HistoryPoint{At: at, Players: rep.Players, Bet: rep.Bet})
		applied++
	}
	return applied
}

// RecordKill actualiza las estadísticas de una ronda resuelta: la sala
// eliminada suma una muerte y las demás una supervivencia.
func (t *Telemetry) RecordKill(killed RoomID, round int) {
	for _, r := range Rooms {
		i := r - 1
		if r == killed {
			t.stats[i].Kills++
			t.stats[i].LastKillRound = round
		} else {
			t.stats[i].Survives++
		}
	}
	t.LastKilled = killed
}

// Snapshot devuelve la telemetría actual de una sala.
func (t *Telemetry) Snapshot(r RoomID) RoomSnapshot {
	if !r.Valid() {
		return RoomSnapshot{}
	}
	return t.snapshots[r-1]
}

// History devuelve el histórico de una sala, o uno vacío si no existe.
func (t *Telemetry) History(r RoomID) *RoomHistory {
	if !r.Valid() {
		return NewRoomHistory(1)
	}
	return t.history[r-1]
}

// Stats devuelve las estadísticas acumuladas de una sala.
func (t *Telemetry) Stats(r RoomID) RoomStats {
	if !r.Valid() {
		return RoomStats{}
	}
	return t.stats[r-1]
}

// Totals suma jugadores y apuestas de todas las salas.
func (t *Telemetry) Totals() (players int, bets float64) {
	for _, s := range t.snapshots {
		players += s.Players
		bets += s.Bet
	}
	return players, bets
}
