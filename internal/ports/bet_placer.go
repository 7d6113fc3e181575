package ports

import (
	"context"

	"github.com/alejandrodnm/escapebot/internal/domain"
)

// BetPlacer envía una apuesta al endpoint del juego (o la simula en modo demo).
type BetPlacer interface {
	// PlaceBet envía la apuesta una vez. Un error indica fallo de transporte;
	// un rechazo del servidor se devuelve como BetReceipt con OK=false.
	PlaceBet(ctx context.Context, req domain.BetRequest) (domain.BetReceipt, error)
}
