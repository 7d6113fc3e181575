package strategy

import (
	"math"

	"github.com/alejandrodnm/escapebot/internal/domain"
)

const (
	vipSeed       = 1234567
	vipFormulas   = 50
	vipConfidence = 0.12
)

// vipWeights es un conjunto de pesos de una fórmula lineal de VIP.
type vipWeights struct {
	players, bet, betPerPlayer, survive, recent, lastKill, noise float64
}

// VIP es la estrategia heredada: un conjunto de 50 fórmulas lineales con
// pesos aleatorios de semilla fija más un ruido pseudoaleatorio determinista.
// Misma telemetría implica misma sala en cualquier ejecución.
type VIP struct {
	formulas []vipWeights
}

// NewVIP genera los pesos a partir de la semilla fija.
func NewVIP() *VIP {
	g := newMT19937(vipSeed)
	formulas := make([]vipWeights, vipFormulas)
	for i := range formulas {
		formulas[i] = vipWeights{
			players:      g.uniform(0.2, 0.8),
			bet:          g.uniform(0.1, 0.6),
			betPerPlayer: g.uniform(0.05, 0.6),
			survive:      g.uniform(0.05, 0.4),
			recent:       g.uniform(0.05, 0.3),
			lastKill:     g.uniform(0.1, 0.6),
			noise:        g.uniform(0.0, 0.08),
		}
	}
	return &VIP{formulas: formulas}
}

func (*VIP) Name() string { return "VIP" }
func (*VIP) Class() Class { return ClassLegacy }

// Choose implementa Strategy con confianza fija.
func (v *VIP) Choose(t *domain.Telemetry) domain.Decision {
	scores := v.Scores(t)
	best, _ := argmax(scores)
	return domain.Decision{Room: best, Label: "VIP", Confidence: vipConfidence}
}

// Scores devuelve la media de las fórmulas para cada sala.
func (v *VIP) Scores(t *domain.Telemetry) map[domain.RoomID]float64 {
	type features struct {
		players, bet, survival float64
	}
	feats := make(map[domain.RoomID]features, domain.NumRooms)
	for _, r := range domain.Rooms {
		snap := t.Snapshot(r)
		survival, _ := domain.SurvivalPotential(t, r)
		feats[r] = features{players: float64(snap.Players), bet: snap.Bet, survival: survival}
	}

	scores := make(map[domain.RoomID]float64, domain.NumRooms)
	for idx, w := range v.formulas {
		for _, r := range domain.Rooms {
			f := feats[r]
			s := w.players * (f.players / 50)
			s += w.bet * (1 / (1 + f.bet/2000))
			s += w.betPerPlayer * (1 / (1 + (f.bet/math.Max(f.players, 1))/1200))
			s += w.survive * f.survival
			s -= w.recent * 0.1
			if t.LastKilled == r {
				s -= w.lastKill * 0.35
			}
			s += (vipNoise(idx, r) - 0.5) * (w.noise * 2)
			scores[r] += s
		}
	}
	for r := range scores {
		scores[r] /= float64(len(v.formulas))
	}
	return scores
}

// vipNoise es el hash trigonométrico de (fórmula, sala) en [0, 1).
func vipNoise(idx int, r domain.RoomID) float64 {
	x := math.Sin(float64((idx+1)*(int(r)+1))*12.9898) * 43758.5453
	return x - math.Floor(x)
}
