package strategy

import (
	"strings"

	"github.com/alejandrodnm/escapebot/internal/domain"
)

// Strategy elige la sala en la que apostar a partir de la telemetría actual.
// Las implementaciones son puras: no modifican la telemetría.
type Strategy interface {
	// Name devuelve el identificador único de la estrategia (FUSION, QUANTUM...).
	Name() string

	// Class determina el suelo de confianza y si la apuesta recibe boost.
	Class() Class

	// Choose devuelve la sala elegida, la etiqueta del algoritmo y la confianza.
	Choose(t *domain.Telemetry) domain.Decision
}

// Class agrupa estrategias con la misma política de riesgo.
type Class string

const (
	ClassAggressive Class = "aggressive"
	ClassAnalytical Class = "analytical"
	ClassLegacy     Class = "legacy"
)

// Floors son los suelos mínimos de confianza de una clase según la racha de
// derrotas: Base con menos de 2 derrotas, AtTwo con 2, AtThree con 3 o más.
type Floors struct {
	Base    float64 `yaml:"base"`
	AtTwo   float64 `yaml:"at_two"`
	AtThree float64 `yaml:"at_three"`
}

// For devuelve el suelo aplicable a la racha de derrotas dada.
func (f Floors) For(loseStreak int) float64 {
	switch {
	case loseStreak >= 3:
		return f.AtThree
	case loseStreak == 2:
		return f.AtTwo
	default:
		return f.Base
	}
}

// DefaultFloors devuelve los suelos por defecto de cada clase.
func DefaultFloors() map[Class]Floors {
	return map[Class]Floors{
		ClassAggressive: {Base: 0.50, AtTwo: 0.60, AtThree: 0.70},
		ClassAnalytical: {Base: 0.45, AtTwo: 0.55, AtThree: 0.65},
		ClassLegacy:     {Base: 0.02, AtTwo: 0.05, AtThree: 0.07},
	}
}

// Registry mantiene las estrategias disponibles indexadas por nombre.
type Registry map[string]Strategy

// NewRegistry crea un registry vacío.
func NewRegistry() Registry {
	return make(Registry)
}

// DefaultRegistry devuelve un registry con las cinco estrategias.
// BASIC es un alias de VIP.
func DefaultRegistry() Registry {
	r := NewRegistry()
	r.Register(Fusion{})
	r.Register(Quantum{})
	r.Register(Pattern{})
	r.Register(Predator{})
	vip := NewVIP()
	r.Register(vip)
	r["BASIC"] = vip
	return r
}

// Register añade una estrategia al registry.
func (r Registry) Register(s Strategy) {
	r[strings.ToUpper(s.Name())] = s
}

// Get devuelve la estrategia por nombre, sin distinguir mayúsculas.
func (r Registry) Get(name string) (Strategy, bool) {
	s, ok := r[strings.ToUpper(strings.TrimSpace(name))]
	return s, ok
}

// Resolve devuelve la estrategia por nombre o VIP si el nombre es desconocido.
func (r Registry) Resolve(name string) Strategy {
	if s, ok := r.Get(name); ok {
		return s
	}
	if s, ok := r["VIP"]; ok {
		return s
	}
	return NewVIP()
}

// argmax devuelve la sala de mayor puntuación; los empates se resuelven a favor
// del id más bajo porque domain.Rooms está ordenado.
func argmax(scores map[domain.RoomID]float64) (domain.RoomID, float64) {
	var best domain.RoomID
	bestScore := 0.0
	for _, r := range domain.Rooms {
		s, ok := scores[r]
		if !ok {
			continue
		}
		if best == 0 || s > bestScore {
			best, bestScore = r, s
		}
	}
	return best, bestScore
}

// runnerUp devuelve la segunda mejor puntuación.
func runnerUp(scores map[domain.RoomID]float64, best domain.RoomID) float64 {
	second, found := 0.0, false
	for r, s := range scores {
		if r == best {
			continue
		}
		if !found || s > second {
			second, found = s, true
		}
	}
	return second
}

const maxConfidence = 0.95
