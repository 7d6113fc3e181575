package domain

import "math"

// Heurísticas de puntuación. Todas las funciones son puras sobre Telemetry y
// acotan su salida.

const (
	survivalFullConfidenceGames = 12.0

	trendMinPoints    = 3
	patternMinPoints  = 4
	momentumMidPoints = 5

	crowdHighShare = 0.25
	crowdLowShare  = 0.05
	smiThreshold   = 0.10

	riskLowPlayers   = 2
	riskHighPlayers  = 50
	riskLateCountSec = 10
	riskDefault      = 0.3
	riskCap          = 0.9
)

// Potential es la evaluación compuesta de una sala.
type Potential struct {
	Total      float64 // acotado a [0.1, 0.95]
	Survival   float64 // supervivencia ponderada por confianza
	Trend      float64
	Crowd      float64
	Risk       float64
	Confidence float64 // confianza de los datos de supervivencia, [0, 1]
}

// SurvivalPotential devuelve la tasa de supervivencia de la sala mezclada con
// el prior 0.5, y la confianza min(1, games/12) usada en la mezcla.
func SurvivalPotential(t *Telemetry, r RoomID) (rate, confidence float64) {
	st := t.Stats(r)
	games := float64(st.Games())
	observed := 0.5
	if games > 0 {
		observed = float64(st.Survives) / games
	}
	confidence = math.Min(1.0, games/survivalFullConfidenceGames)
	rate = 0.5*(1-confidence) + observed*confidence
	return rate, confidence
}

// TrendScore combina momentum, ciclos, ruptura y reversión a la media del
// histórico de la sala. Neutro 0.5 con menos de tres puntos.
func TrendScore(t *Telemetry, r RoomID) float64 {
	h := t.History(r)
	if h.Len() < trendMinPoints {
		return 0.5
	}
	players, bets := h.Series()

	score := 0.5
	score += momentum(players, bets) * 0.3
	score += cycleStrength(players) * 0.2
	score += breakout(players, bets) * 0.25
	score += meanReversion(players) * 0.25
	return clamp(score, 0.1, 0.9)
}

// momentum es el cambio relativo ponderado de jugadores y apuestas en los
// últimos tres puntos y, si los hay, en los últimos cinco.
func momentum(players, bets []float64) float64 {
	if len(players) < trendMinPoints {
		return 0
	}
	pShort := relChange(players[len(players)-3:])
	bShort := relChange(bets[len(bets)-3:])
	pMid, bMid := pShort, bShort
	if len(players) >= momentumMidPoints {
		pMid = relChange(players[len(players)-5:])
		bMid = relChange(bets[len(bets)-5:])
	}
	total := pShort*0.4 + bShort*0.3 + pMid*0.2 + bMid*0.1
	return clamp(total, -0.4, 0.4)
}

// cycleStrength puntúa la regularidad de los mínimos y máximos locales de la
// serie de jugadores.
func cycleStrength(players []float64) float64 {
	if len(players) < patternMinPoints {
		return 0
	}
	var lows, highs []float64
	for i := 1; i < len(players)-1; i++ {
		switch {
		case players[i] < players[i-1] && players[i] < players[i+1]:
			lows = append(lows, players[i])
		case players[i] > players[i-1] && players[i] > players[i+1]:
			highs = append(highs, players[i])
		}
	}
	stability := 0.3
	if len(lows) >= 2 && len(highs) >= 2 {
		low := 1.0 - pstdev(lows)/math.Max(mean(lows), 1)
		high := 1.0 - pstdev(highs)/math.Max(mean(highs), 1)
		stability = (low + high) / 2
	}
	return clamp(stability, 0, 1)
}

// breakout compara los últimos jugadores y apuesta con la media de los puntos previos.
func breakout(players, bets []float64) float64 {
	if len(players) < patternMinPoints {
		return 0
	}
	n := len(players)
	pRatio := players[n-1] / math.Max(mean(players[:n-1]), 1)
	bRatio := bets[n-1] / math.Max(mean(bets[:n-1]), 1)
	switch {
	case pRatio > 1.2 && bRatio > 1.1:
		return 0.8
	case pRatio > 1.1 && bRatio > 1.0:
		return 0.6
	case pRatio < 0.8 && bRatio < 0.9:
		return 0.3
	default:
		return 0.5
	}
}

// meanReversion puntúa la desviación de los últimos jugadores respecto a la
// media histórica.
func meanReversion(players []float64) float64 {
	if len(players) < patternMinPoints {
		return 0.5
	}
	n := len(players)
	avg := mean(players[:n-1])
	if avg == 0 {
		return 0.5
	}
	dev := math.Abs(players[n-1]-avg) / avg
	switch {
	case dev > 0.5:
		return 0.8
	case dev > 0.3:
		return 0.6
	case dev > 0.1:
		return 0.4
	default:
		return 0.2
	}
}

// CrowdBehavior puntúa una sala por su cuota de jugadores y apuestas sobre el
// total. Neutro 0.5 si algún total es cero.
func CrowdBehavior(t *Telemetry, r RoomID) float64 {
	totalPlayers, totalBets := t.Totals()
	if totalPlayers == 0 || totalBets == 0 {
		return 0.5
	}
	s := t.Snapshot(r)
	playerShare := float64(s.Players) / float64(totalPlayers)
	betShare := s.Bet / totalBets
	smi := betShare - playerShare

	effect := 0.5
	switch {
	case playerShare < crowdLowShare:
		effect = 0.7
	case playerShare > crowdHighShare:
		effect = 0.3
	}

	score := 0.5
	switch {
	case smi > smiThreshold:
		score = 0.6 + math.Min(0.3, smi*2)
	case smi < -smiThreshold:
		score = 0.4 + math.Max(-0.2, smi*2)
	}
	return clamp(score*0.7+effect*0.3, 0.1, 0.9)
}

// RiskFactor promedia las contribuciones de riesgo que se activan para la
// sala, 0.3 si ninguna lo hace, con tope 0.9.
func RiskFactor(t *Telemetry, r RoomID) float64 {
	var factors []float64
	if t.LastKilled != 0 && t.LastKilled == r {
		factors = append(factors, 0.7)
	}

	st := t.Stats(r)
	if games := st.Games(); games > 0 {
		killRate := float64(st.Kills) / float64(games)
		switch {
		case killRate > 0.7:
			factors = append(factors, 0.6)
		case killRate > 0.5:
			factors = append(factors, 0.4)
		}
	}

	players := t.Snapshot(r).Players
	switch {
	case players < riskLowPlayers:
		factors = append(factors, 0.8)
	case players > riskHighPlayers:
		factors = append(factors, 0.4)
	}

	if h := t.History(r); h.Len() >= trendMinPoints {
		series, _ := h.Series()
		volatility := pstdev(series) / math.Max(mean(series), 1)
		switch {
		case volatility > 0.6:
			factors = append(factors, 0.5)
		case volatility > 0.3:
			factors = append(factors, 0.3)
		}
	}

	if t.Countdown != nil && *t.Countdown <= riskLateCountSec {
		factors = append(factors, 0.3)
	}

	if len(factors) == 0 {
		return riskDefault
	}
	return math.Min(riskCap, mean(factors))
}

// RoomPotential es la composición ponderada de supervivencia, tendencia,
// multitud y riesgo inverso.
func RoomPotential(t *Telemetry, r RoomID) Potential {
	survival, conf := SurvivalPotential(t, r)
	trend := TrendScore(t, r)
	crowd := CrowdBehavior(t, r)
	risk := RiskFactor(t, r)
	total := survival*0.35 + trend*0.25 + crowd*0.25 + (1-risk)*0.15
	return Potential{
		Total:      clamp(total, 0.1, 0.95),
		Survival:   survival,
		Trend:      trend,
		Crowd:      crowd,
		Risk:       risk,
		Confidence: conf,
	}
}

func relChange(xs []float64) float64 {
	return (xs[len(xs)-1] - xs[0]) / math.Max(mean(xs), 1)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// pstdev es la desviación estándar poblacional.
func pstdev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	ss := 0.0
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)))
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// Clamp acota x a [lo, hi].
func Clamp(x, lo, hi float64) float64 { return clamp(x, lo, hi) }
