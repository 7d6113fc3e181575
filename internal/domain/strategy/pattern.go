package strategy

import (
	"math"

	"github.com/alejandrodnm/escapebot/internal/domain"
)

// Pattern puntúa cada sala por tendencia, comportamiento de la masa y riesgo inverso.
type Pattern struct{}

func (Pattern) Name() string { return "PATTERN" }
func (Pattern) Class() Class { return ClassAnalytical }

// Scores devuelve la puntuación pattern de cada sala.
func (Pattern) Scores(t *domain.Telemetry) map[domain.RoomID]float64 {
	scores := make(map[domain.RoomID]float64, domain.NumRooms)
	for _, r := range domain.Rooms {
		scores[r] = domain.TrendScore(t, r)*0.4 +
			domain.CrowdBehavior(t, r)*0.35 +
			(1-domain.RiskFactor(t, r))*0.25
	}
	return scores
}

// Choose implementa Strategy. La confianza escala con la relación entre la
// mejor puntuación y la media de todas las salas.
func (p Pattern) Choose(t *domain.Telemetry) domain.Decision {
	scores := p.Scores(t)
	best, bestScore := argmax(scores)

	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	avg := sum / float64(len(scores))
	ratio := bestScore / math.Max(avg, 0.1)

	var conf float64
	switch {
	case ratio > 1.3:
		conf = math.Min(0.9, bestScore*0.8+0.2)
	case ratio > 1.1:
		conf = bestScore*0.7 + 0.1
	default:
		conf = bestScore * 0.6
	}

	return domain.Decision{
		Room:       best,
		Label:      "PATTERN-MASTER",
		Confidence: domain.Clamp(conf, 0, maxConfidence),
	}
}
