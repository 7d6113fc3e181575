package strategy

import (
	"github.com/alejandrodnm/escapebot/internal/domain"
)

// Fusion combina Quantum, Pattern y una puntuación compuesta propia.
// La sala elegida es siempre la mejor de la puntuación compuesta; el acuerdo
// con las subestrategias sólo modifica etiqueta y confianza.
type Fusion struct{}

func (Fusion) Name() string { return "FUSION" }
func (Fusion) Class() Class { return ClassAggressive }

// Choose implementa Strategy.
func (Fusion) Choose(t *domain.Telemetry) domain.Decision {
	q := Quantum{}.Choose(t)
	p := Pattern{}.Choose(t)

	scores := make(map[domain.RoomID]float64, domain.NumRooms)
	for _, r := range domain.Rooms {
		pot := domain.RoomPotential(t, r)
		scores[r] = pot.Total*0.35 + pot.Trend*0.30 + pot.Crowd*0.25 + pot.Survival*0.10
	}
	best, bestScore := argmax(scores)

	d := domain.Decision{Room: best}
	switch {
	case q.Room == best && p.Room == best:
		d.Label = "FUSION-CONSENSUS"
		d.Confidence = (q.Confidence+p.Confidence+bestScore)/3 + 0.15
	case q.Room == best:
		d.Label = "FUSION-HYBRID"
		d.Confidence = (q.Confidence+bestScore)/2 + 0.08
	case p.Room == best:
		d.Label = "FUSION-HYBRID"
		d.Confidence = (p.Confidence+bestScore)/2 + 0.08
	default:
		d.Label = "FUSION-ADVANCED"
		d.Confidence = bestScore * 0.7
	}
	d.Confidence = domain.Clamp(d.Confidence, 0, maxConfidence)
	return d
}
