package feed

import (
	"math/rand/v2"
	"time"
)

// backoff calcula esperas de reconexión: la espera es el valor actual más un
// jitter aleatorio, acotada a max; después el valor crece por factor.
type backoff struct {
	base   time.Duration
	max    time.Duration
	factor float64
	jitter time.Duration
	cur    time.Duration
	randf  func() float64
}

func newBackoff(base, maxWait time.Duration, factor float64, jitter time.Duration) *backoff {
	return &backoff{
		base:   base,
		max:    maxWait,
		factor: factor,
		jitter: jitter,
		cur:    base,
		randf:  rand.Float64,
	}
}

// Next devuelve la próxima espera y avanza el backoff.
func (b *backoff) Next() time.Duration {
	wait := min(b.cur+time.Duration(b.randf()*float64(b.jitter)), b.max)
	b.cur = min(time.Duration(float64(b.cur)*b.factor), b.max)
	return wait
}

// Reset vuelve a la espera base tras una sesión correcta.
func (b *backoff) Reset() {
	b.cur = b.base
}
