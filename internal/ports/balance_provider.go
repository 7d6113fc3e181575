package ports

import (
	"context"

	"github.com/alejandrodnm/escapebot/internal/domain"
)

// BalanceProvider consulta los saldos de la cuenta.
type BalanceProvider interface {
	// FetchBalance devuelve los saldos encontrados en la respuesta del wallet.
	// Los campos no encontrados quedan a nil; el error sólo indica fallo de red
	// o respuesta ilegible tras agotar los reintentos.
	FetchBalance(ctx context.Context) (domain.Balance, error)
}
