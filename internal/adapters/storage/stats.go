package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alejandrodnm/escapebot/internal/domain"
)

// GetBetStats agrega todo el historial de apuestas guardado.
func (s *SQLiteStorage) GetBetStats(ctx context.Context) (domain.BetStats, error) {
	stats := domain.BetStats{KillsByRoom: make(map[domain.RoomID]int)}

	var first, last sql.NullInt64
	var staked sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN settled = 1 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN result = 'WIN' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN result = 'LOSS' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN accepted = 0 THEN 1 ELSE 0 END), 0),
		       SUM(CASE WHEN accepted = 1 THEN amount ELSE 0 END),
		       MIN(placed_at), MAX(placed_at)
		FROM bets`).Scan(
		&stats.TotalBets, &stats.Settled, &stats.Wins, &stats.Losses, &stats.Rejected,
		&staked, &first, &last,
	)
	if err != nil {
		return stats, fmt.Errorf("storage.GetBetStats: totals: %w", err)
	}
	stats.TotalStaked = staked.Float64
	if first.Valid {
		stats.StartDate = fromMillis(first.Int64)
		stats.EndDate = fromMillis(last.Int64)
	}
	stats.Pending = stats.TotalBets - stats.Settled - stats.Rejected
	if stats.Pending < 0 {
		stats.Pending = 0
	}
	if n := stats.Wins + stats.Losses; n > 0 {
		stats.WinRate = float64(stats.Wins) / float64(n) * 100
	}

	if err := s.fillStreaks(ctx, &stats); err != nil {
		return stats, err
	}
	if err := s.fillByAlgo(ctx, &stats); err != nil {
		return stats, err
	}

	// Rondas y eliminaciones por sala
	rows, err := s.db.QueryContext(ctx,
		`SELECT killed_room, COUNT(*) FROM rounds GROUP BY killed_room`)
	if err != nil {
		return stats, fmt.Errorf("storage.GetBetStats: kills: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var room, n int
		if err := rows.Scan(&room, &n); err != nil {
			return stats, fmt.Errorf("storage.GetBetStats: scan kills: %w", err)
		}
		stats.KillsByRoom[domain.RoomID(room)] = n
		stats.Rounds += n
	}
	return stats, rows.Err()
}

// fillStreaks recorre las apuestas liquidadas en orden para obtener las rachas máximas.
func (s *SQLiteStorage) fillStreaks(ctx context.Context, stats *domain.BetStats) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT result FROM bets
		WHERE settled = 1
		ORDER BY settled_at ASC, placed_at ASC`)
	if err != nil {
		return fmt.Errorf("storage.GetBetStats: streaks: %w", err)
	}
	defer rows.Close()

	var win, lose int
	for rows.Next() {
		var result string
		if err := rows.Scan(&result); err != nil {
			return fmt.Errorf("storage.GetBetStats: scan streak: %w", err)
		}
		switch domain.BetResult(result) {
		case domain.BetWin:
			win++
			lose = 0
		case domain.BetLoss:
			lose++
			win = 0
		}
		stats.MaxWinStreak = max(stats.MaxWinStreak, win)
		stats.MaxLoseStreak = max(stats.MaxLoseStreak, lose)
	}
	return rows.Err()
}

func (s *SQLiteStorage) fillByAlgo(ctx context.Context, stats *domain.BetStats) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT algo,
		       COUNT(*),
		       SUM(CASE WHEN result = 'WIN' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN result = 'LOSS' THEN 1 ELSE 0 END),
		       SUM(amount)
		FROM bets
		WHERE accepted = 1
		GROUP BY algo
		ORDER BY COUNT(*) DESC, algo ASC`)
	if err != nil {
		return fmt.Errorf("storage.GetBetStats: by algo: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a domain.AlgoStats
		if err := rows.Scan(&a.Algo, &a.Bets, &a.Wins, &a.Losses, &a.Staked); err != nil {
			return fmt.Errorf("storage.GetBetStats: scan algo: %w", err)
		}
		if n := a.Wins + a.Losses; n > 0 {
			a.WinRate = float64(a.Wins) / float64(n) * 100
		}
		stats.ByAlgo = append(stats.ByAlgo, a)
	}
	return rows.Err()
}
