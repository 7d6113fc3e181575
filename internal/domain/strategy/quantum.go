package strategy

import (
	"math"

	"github.com/alejandrodnm/escapebot/internal/domain"
)

// Quantum elige la sala con mayor potencial compuesto.
type Quantum struct{}

func (Quantum) Name() string { return "QUANTUM" }
func (Quantum) Class() Class { return ClassAnalytical }

// Choose implementa Strategy.
// Confianza = 0.7·best + min(0.25, 3·gap) + 0.1·confianza de datos de la mejor sala.
func (Quantum) Choose(t *domain.Telemetry) domain.Decision {
	scores := make(map[domain.RoomID]float64, domain.NumRooms)
	potentials := make(map[domain.RoomID]domain.Potential, domain.NumRooms)
	for _, r := range domain.Rooms {
		p := domain.RoomPotential(t, r)
		scores[r] = p.Total
		potentials[r] = p
	}

	best, bestScore := argmax(scores)
	gap := bestScore - runnerUp(scores, best)
	conf := bestScore*0.7 + math.Min(0.25, gap*3) + potentials[best].Confidence*0.1

	return domain.Decision{
		Room:       best,
		Label:      "QUANTUM-PRO",
		Confidence: domain.Clamp(conf, 0, maxConfidence),
	}
}
