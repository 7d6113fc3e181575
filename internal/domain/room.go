package domain

import (
	"fmt"
	"time"
)

// RoomID identifica una de las salas fijas del juego. Cero significa "sin sala".
type RoomID int

// NumRooms es el número de salas de cada ronda.
const NumRooms = 8

// HistoryCapacity es el número de puntos de telemetría por sala por defecto.
const HistoryCapacity = 20

// Rooms lista todas las salas en orden ascendente. Las estrategias lo
// recorren en este orden y los empates se resuelven a la sala menor.
var Rooms = []RoomID{1, 2, 3, 4, 5, 6, 7, 8}

var roomNames = map[RoomID]string{
	1: "Warehouse",
	2: "Meeting Room",
	3: "Director's Office",
	4: "Chat Room",
	5: "Surveillance Room",
	6: "Office",
	7: "Finance Room",
	8: "HR Room",
}

// Valid indica si r es una de las salas del juego.
func (r RoomID) Valid() bool {
	return r >= 1 && r <= NumRooms
}

// Name devuelve el nombre visible de la sala.
func (r RoomID) Name() string {
	if n, ok := roomNames[r]; ok {
		return n
	}
	if r == 0 {
		return "-"
	}
	return fmt.Sprintf("Room %d", int(r))
}

// Label devuelve "ROOM_<id> — <nombre>".
func (r RoomID) Label() string {
	return fmt.Sprintf("ROOM_%d — %s", int(r), r.Name())
}

// RoomSnapshot es la última telemetría de una sala en la ronda actual.
type RoomSnapshot struct {
	Players int
	Bet     float64
}

// RoomReport es la entrada de una sala en un evento de telemetría.
type RoomReport struct {
	Room    RoomID
	Players int
	Bet     float64
}

// HistoryPoint es una observación guardada para el análisis de tendencia.
type HistoryPoint struct {
	At      time.Time
	Players int
	Bet     float64
}

// RoomHistory es un buffer circular de capacidad fija.
type RoomHistory struct {
	points []HistoryPoint
	start  int
	size   int
}

// NewRoomHistory crea un histórico vacío de como mucho capacity puntos.
func NewRoomHistory(capacity int) *RoomHistory {
	if capacity <= 0 {
		capacity = HistoryCapacity
	}
	return &RoomHistory{points: make([]HistoryPoint, capacity)}
}

// Append añade un punto, descartando el más antiguo si está lleno.
func (h *RoomHistory) Append(p HistoryPoint) {
	c := len(h.points)
	if h.size < c {
		h.points[(h.start+h.size)%c] = p
		h.size++
		return
	}
	h.points[h.start] = p
	h.start = (h.start + 1) % c
}

// Len devuelve el número de puntos guardados.
func (h *RoomHistory) Len() int { return h.size }

// Points devuelve los puntos, el más antiguo primero.
func (h *RoomHistory) Points() []HistoryPoint {
	out := make([]HistoryPoint, h.size)
	for i := 0; i < h.size; i++ {
		out[i] = h.points[(h.start+i)%len(h.points)]
	}
	return out
}

// Series devuelve las series de jugadores y apuestas, la más antigua primero.
func (h *RoomHistory) Series() (players, bets []float64) {
	players = make([]float64, h.size)
	bets = make([]float64, h.size)
	for i, p := range h.Points() {
		players[i] = float64(p.Players)
		bets[i] = p.Bet
	}
	return players, bets
}

// RoomStats acumula los resultados de eliminación de una sala.
type RoomStats struct {
	Kills         int
	Survives      int
	LastKillRound int // 0 = nunca eliminada
	LastPlayers   int
	LastBet       float64
}

// Games devuelve el número de rondas resueltas contadas para la sala.
func (s RoomStats) Games() int { return s.Kills + s.Survives }
