package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBetHistory_OneOutstandingPerIssue(t *testing.T) {
	h := NewBetHistory(10)
	require.NoError(t, h.Add(BetRecord{Issue: 100, Room: 1, Amount: 1, Accepted: true}))
	assert.ErrorIs(t, h.Add(BetRecord{Issue: 100, Room: 2, Amount: 1, Accepted: true}), ErrBetOutstanding)
	assert.Equal(t, 1, h.Unsettled(100))

	// un envío rechazado no ocupa la marca
	require.NoError(t, h.Add(BetRecord{Issue: 101, Room: 1, Amount: 1}))
	_, err := h.Settle(101, 3, time.Now())
	assert.ErrorIs(t, err, ErrNoOutstandingBet)
	require.NoError(t, h.Add(BetRecord{Issue: 101, Room: 2, Amount: 1, Accepted: true}))
}

func TestBetHistory_SettleWinAndLoss(t *testing.T) {
	h := NewBetHistory(10)
	require.NoError(t, h.Add(BetRecord{Issue: 1, Room: 4, Amount: 1, Accepted: true}))
	require.NoError(t, h.Add(BetRecord{Issue: 2, Room: 5, Amount: 2, Accepted: true}))

	rec, err := h.Settle(1, 3, time.Now())
	require.NoError(t, err)
	assert.Equal(t, BetWin, rec.Result)
	assert.True(t, rec.Settled)

	rec, err = h.Settle(2, 5, time.Now())
	require.NoError(t, err)
	assert.Equal(t, BetLoss, rec.Result)
	assert.Equal(t, RoomID(5), rec.KilledRoom)
}

func TestBetHistory_SettleIsIdempotent(t *testing.T) {
	h := NewBetHistory(10)
	require.NoError(t, h.Add(BetRecord{Issue: 9, Room: 1, Amount: 1, Accepted: true}))

	_, err := h.Settle(9, 2, time.Now())
	require.NoError(t, err)

	_, err = h.Settle(9, 2, time.Now())
	assert.ErrorIs(t, err, ErrNoOutstandingBet)
	assert.Equal(t, 0, h.Unsettled(9))
}

func TestBetHistory_SettleWithoutMarker(t *testing.T) {
	h := NewBetHistory(10)
	_, err := h.Settle(42, 1, time.Now())
	assert.ErrorIs(t, err, ErrNoOutstandingBet)
}

func TestBetHistory_BoundedAndRecent(t *testing.T) {
	h := NewBetHistory(3)
	for i := int64(1); i <= 5; i++ {
		require.NoError(t, h.Add(BetRecord{Issue: i, Room: 1, Amount: float64(i)}))
	}
	assert.Equal(t, 3, h.Len())

	recent := h.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, int64(5), recent[0].Issue)
	assert.Equal(t, int64(4), recent[1].Issue)
	assert.Equal(t, BetPending, recent[0].Result)
}
