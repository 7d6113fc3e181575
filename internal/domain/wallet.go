package domain

import "time"

// Balance es una lectura del wallet. Los campos nil no venían en la respuesta.
type Balance struct {
	Build *float64
	World *float64
	USDT  *float64
}

// Wallet guarda los últimos saldos conocidos y el beneficio acumulado a partir
// de las variaciones del saldo principal.
type Wallet struct {
	Build            *float64
	World            *float64
	USDT             *float64
	Starting         *float64
	CumulativeProfit float64
	UpdatedAt        time.Time

	last *float64
}

// Observe fusiona una lectura. Los campos ausentes mantienen su valor previo.
// Devuelve la variación del saldo principal sumada al beneficio.
func (w *Wallet) Observe(b Balance, at time.Time) float64 {
	delta := 0.0
	if b.Build != nil {
		v := *b.Build
		if w.last == nil {
			w.Starting = &v
			w.last = &v
		} else if d := v - *w.last; d != 0 {
			delta = d
			w.CumulativeProfit += d
			w.last = &v
		}
		w.Build = &v
	}
	if b.USDT != nil {
		v := *b.USDT
		w.USDT = &v
	}
	if b.World != nil {
		v := *b.World
		w.World = &v
	}
	w.UpdatedAt = at
	return delta
}

// Known devuelve los saldos actuales como lectura.
func (w *Wallet) Known() Balance {
	return Balance{Build: w.Build, World: w.World, USDT: w.USDT}
}

// Float devuelve un puntero a v.
func Float(v float64) *float64 { return &v }
