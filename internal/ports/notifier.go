package ports

import "github.com/alejandrodnm/escapebot/internal/domain"

// Notifier presenta el estado del motor al operador.
type Notifier interface {
	// Render dibuja el panel completo a partir de una instantánea.
	Render(snap domain.Snapshot) error
}
