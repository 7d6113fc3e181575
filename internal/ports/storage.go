package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/escapebot/internal/domain"
)

// Storage persiste apuestas, rondas y sesiones.
type Storage interface {
	// StartSession registra el inicio de una ejecución y devuelve su ID.
	StartSession(ctx context.Context, s domain.Session) error
	// EndSession cierra la sesión con el resumen final.
	EndSession(ctx context.Context, s domain.Session) error

	// SaveBet inserta o reemplaza una apuesta.
	SaveBet(ctx context.Context, rec domain.BetRecord) error
	// SettleBet actualiza el resultado de una apuesta ya guardada.
	SettleBet(ctx context.Context, rec domain.BetRecord) error
	// SaveRound guarda el resultado de una ronda.
	SaveRound(ctx context.Context, r domain.RoundResult) error

	// RecentBets devuelve las últimas n apuestas, la más reciente primero.
	RecentBets(ctx context.Context, n int) ([]domain.BetRecord, error)
	// RecentRounds devuelve las rondas desde since, la más antigua primero.
	RecentRounds(ctx context.Context, since time.Time) ([]domain.RoundResult, error)
	// GetBetStats agrega estadísticas de todas las apuestas guardadas.
	GetBetStats(ctx context.Context) (domain.BetStats, error)

	Close() error
}
