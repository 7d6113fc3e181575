package strategy

import (
	"math"

	"github.com/alejandrodnm/escapebot/internal/domain"
)

// Predator prioriza supervivencia y salas con masa "segura".
type Predator struct{}

func (Predator) Name() string { return "PREDATOR" }
func (Predator) Class() Class { return ClassAggressive }

// Choose implementa Strategy.
// Confianza = 0.6·best + min(0.3, 4·gap), +0.1 si el riesgo de la sala es
// menor que 0.3 y +0.05 si su puntuación de masa supera 0.6.
func (Predator) Choose(t *domain.Telemetry) domain.Decision {
	scores := make(map[domain.RoomID]float64, domain.NumRooms)
	potentials := make(map[domain.RoomID]domain.Potential, domain.NumRooms)
	for _, r := range domain.Rooms {
		pot := domain.RoomPotential(t, r)
		potentials[r] = pot
		scores[r] = pot.Survival*0.3 + pot.Trend*0.25 + pot.Crowd*0.25 + (1-pot.Risk)*0.2
	}

	best, bestScore := argmax(scores)
	gap := bestScore - runnerUp(scores, best)
	conf := bestScore*0.6 + math.Min(0.3, gap*4)
	if potentials[best].Risk < 0.3 {
		conf += 0.1
	}
	if potentials[best].Crowd > 0.6 {
		conf += 0.05
	}

	return domain.Decision{
		Room:       best,
		Label:      "PREDATOR-INSTINCT",
		Confidence: domain.Clamp(conf, 0, maxConfidence),
	}
}
