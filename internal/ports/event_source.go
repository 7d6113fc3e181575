package ports

import (
	"context"

	"github.com/alejandrodnm/escapebot/internal/domain"
)

// EventHandler procesa un evento decodificado del feed.
type EventHandler func(ctx context.Context, ev domain.Event)

// EventSource entrega los eventos del juego en orden de llegada.
type EventSource interface {
	// Run bloquea hasta que ctx se cancela, reconectando cuando haga falta.
	Run(ctx context.Context, handle EventHandler) error
}
