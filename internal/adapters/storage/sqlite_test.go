package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/alejandrodnm/escapebot/internal/adapters/storage"
	"github.com/alejandrodnm/escapebot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func makeBet(id string, issue int64, room domain.RoomID, amount float64, at time.Time) domain.BetRecord {
	return domain.BetRecord{
		ID:         id,
		Issue:      issue,
		Room:       room,
		Amount:     amount,
		PlacedAt:   at,
		Result:     domain.BetPending,
		Algo:       "QUANTUM-PRO",
		Confidence: 0.62,
		Accepted:   true,
		Response:   `{"msg":"ok"}`,
	}
}

func settle(rec domain.BetRecord, result domain.BetResult, killed domain.RoomID, at time.Time) domain.BetRecord {
	rec.Result = result
	rec.Settled = true
	rec.SettledAt = &at
	rec.KilledRoom = killed
	return rec
}

func TestSQLiteStorage_SaveAndSettleBet(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()
	now := time.Now().Truncate(time.Millisecond)

	rec := makeBet("b1", 100, 3, 1.5, now)
	require.NoError(t, db.SaveBet(ctx, rec))

	bets, err := db.RecentBets(ctx, 10)
	require.NoError(t, err)
	require.Len(t, bets, 1)
	assert.Equal(t, domain.BetPending, bets[0].Result)
	assert.False(t, bets[0].Settled)
	assert.Nil(t, bets[0].SettledAt)
	assert.Equal(t, domain.RoomID(3), bets[0].Room)
	assert.True(t, bets[0].PlacedAt.Equal(now))

	require.NoError(t, db.SettleBet(ctx, settle(rec, domain.BetWin, 5, now.Add(time.Minute))))

	bets, err = db.RecentBets(ctx, 10)
	require.NoError(t, err)
	require.Len(t, bets, 1)
	assert.Equal(t, domain.BetWin, bets[0].Result)
	assert.True(t, bets[0].Settled)
	require.NotNil(t, bets[0].SettledAt)
	assert.Equal(t, domain.RoomID(5), bets[0].KilledRoom)
	assert.Equal(t, "QUANTUM-PRO", bets[0].Algo)
	assert.InDelta(t, 0.62, bets[0].Confidence, 1e-9)
}

func TestSQLiteStorage_SettleUnsavedBetInserts(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()
	now := time.Now()

	rec := settle(makeBet("late", 7, 1, 2, now), domain.BetLoss, 1, now)
	require.NoError(t, db.SettleBet(ctx, rec))

	bets, err := db.RecentBets(ctx, 5)
	require.NoError(t, err)
	require.Len(t, bets, 1)
	assert.Equal(t, domain.BetLoss, bets[0].Result)
}

func TestSQLiteStorage_RecentBetsOrderAndLimit(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 5; i++ {
		rec := makeBet(string(rune('a'+i)), int64(i+1), 1, 1, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, db.SaveBet(ctx, rec))
	}

	bets, err := db.RecentBets(ctx, 3)
	require.NoError(t, err)
	require.Len(t, bets, 3)
	assert.Equal(t, "e", bets[0].ID)
	assert.Equal(t, "d", bets[1].ID)
	assert.Equal(t, "c", bets[2].ID)
}

func TestSQLiteStorage_SaveRoundIsIdempotent(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()
	now := time.Now()

	r := domain.RoundResult{Issue: 42, RoundIndex: 1, KilledRoom: 4, Predicted: 2, SettledAt: now}
	require.NoError(t, db.SaveRound(ctx, r))
	require.NoError(t, db.SaveRound(ctx, r))

	rounds, err := db.RecentRounds(ctx, now.Add(-time.Minute))
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.Equal(t, domain.RoomID(4), rounds[0].KilledRoom)
	assert.Equal(t, domain.RoomID(2), rounds[0].Predicted)
	assert.False(t, rounds[0].Skipped)
}

func TestSQLiteStorage_RecentRoundsWindow(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, db.SaveRound(ctx, domain.RoundResult{Issue: 1, KilledRoom: 1, SettledAt: now.Add(-2 * time.Hour)}))
	require.NoError(t, db.SaveRound(ctx, domain.RoundResult{Issue: 2, KilledRoom: 2, SettledAt: now.Add(-10 * time.Minute)}))
	require.NoError(t, db.SaveRound(ctx, domain.RoundResult{Issue: 3, KilledRoom: 3, Skipped: true, SettledAt: now}))

	rounds, err := db.RecentRounds(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.Equal(t, int64(2), rounds[0].Issue)
	assert.Equal(t, int64(3), rounds[1].Issue)
	assert.True(t, rounds[1].Skipped)
}

func TestSQLiteStorage_Sessions(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()
	now := time.Now()
	start := 100.0

	sess := domain.Session{
		ID:            "s1",
		StartedAt:     now,
		Algo:          "FUSION",
		BetMode:       "martingale",
		BaseBet:       1,
		Multiplier:    2,
		StartingBuild: &start,
	}
	require.NoError(t, db.StartSession(ctx, sess))
	require.NoError(t, db.SaveBet(ctx, makeBet("b1", 1, 2, 1, now)))

	end := now.Add(time.Hour)
	final := 103.5
	sess.EndedAt = &end
	sess.EndingBuild = &final
	sess.Profit = 3.5
	sess.Bets = 1
	sess.Wins = 1
	sess.StopReason = "profit target reached"
	assert.NoError(t, db.EndSession(ctx, sess))
}

func TestSQLiteStorage_GetBetStats(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	// W L L L W (pending) (rejected)
	results := []domain.BetResult{domain.BetWin, domain.BetLoss, domain.BetLoss, domain.BetLoss, domain.BetWin}
	for i, res := range results {
		at := base.Add(time.Duration(i) * time.Minute)
		rec := makeBet(string(rune('a'+i)), int64(i+1), 1, float64(i+1), at)
		if i == 4 {
			rec.Algo = "PATTERN-MASTER"
		}
		require.NoError(t, db.SaveBet(ctx, rec))
		require.NoError(t, db.SettleBet(ctx, settle(rec, res, 2, at.Add(30*time.Second))))
		require.NoError(t, db.SaveRound(ctx, domain.RoundResult{Issue: int64(i + 1), KilledRoom: domain.RoomID(2 + i%2), SettledAt: at}))
	}
	require.NoError(t, db.SaveBet(ctx, makeBet("pending", 10, 1, 1, base.Add(10*time.Minute))))
	rejected := makeBet("rejected", 11, 1, 1, base.Add(11*time.Minute))
	rejected.Accepted = false
	require.NoError(t, db.SaveBet(ctx, rejected))

	stats, err := db.GetBetStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 7, stats.TotalBets)
	assert.Equal(t, 5, stats.Settled)
	assert.Equal(t, 2, stats.Wins)
	assert.Equal(t, 3, stats.Losses)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.Rejected)
	assert.InDelta(t, 40.0, stats.WinRate, 1e-9)
	assert.InDelta(t, 16.0, stats.TotalStaked, 1e-9) // 1+2+3+4+5 + pending 1
	assert.Equal(t, 1, stats.MaxWinStreak)
	assert.Equal(t, 3, stats.MaxLoseStreak)
	assert.Equal(t, 5, stats.Rounds)
	assert.Equal(t, 3, stats.KillsByRoom[2])
	assert.Equal(t, 2, stats.KillsByRoom[3])

	require.Len(t, stats.ByAlgo, 2)
	assert.Equal(t, "QUANTUM-PRO", stats.ByAlgo[0].Algo)
	assert.Equal(t, 5, stats.ByAlgo[0].Bets)
	assert.Equal(t, 1, stats.ByAlgo[0].Wins)
	assert.Equal(t, "PATTERN-MASTER", stats.ByAlgo[1].Algo)
	assert.InDelta(t, 100.0, stats.ByAlgo[1].WinRate, 1e-9)
}

func TestSQLiteStorage_GetBetStatsEmpty(t *testing.T) {
	db := newStore(t)

	stats, err := db.GetBetStats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalBets)
	assert.Zero(t, stats.WinRate)
	assert.True(t, stats.StartDate.IsZero())
	assert.Empty(t, stats.ByAlgo)
}

func TestSQLiteStorage_PruneOnOpen(t *testing.T) {
	path := t.TempDir() + "/escape.db"
	ctx := context.Background()

	db, err := storage.NewSQLiteStorage(path)
	require.NoError(t, err)
	old := time.Now().Add(-40 * 24 * time.Hour)
	require.NoError(t, db.SaveRound(ctx, domain.RoundResult{Issue: 1, KilledRoom: 1, SettledAt: old}))
	require.NoError(t, db.SaveRound(ctx, domain.RoundResult{Issue: 2, KilledRoom: 2, SettledAt: time.Now()}))
	require.NoError(t, db.Close())

	db, err = storage.NewSQLiteStorage(path)
	require.NoError(t, err)
	defer db.Close()

	rounds, err := db.RecentRounds(ctx, time.Time{})
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.Equal(t, int64(2), rounds[0].Issue)
}
