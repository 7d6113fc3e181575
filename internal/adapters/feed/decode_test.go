package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/escapebot/internal/domain"
)

var at = time.Unix(1_700_000_000, 0)

func TestDecode_Telemetry(t *testing.T) {
	raw := `{"msg_type":"notify_issue_stat","issue_id":"88120","rooms":[
		{"room_id":1,"user_cnt":12,"total_bet_amount":340.5},
		{"roomId":"2","userCount":3,"totalBet":80},
		{"id":3,"bet":15},
		{"user_cnt":4}
	]}`

	ev, err := Decode([]byte(raw), at)
	require.NoError(t, err)

	assert.Equal(t, domain.EventTelemetry, ev.Kind)
	require.NotNil(t, ev.Issue)
	assert.Equal(t, int64(88120), *ev.Issue)
	assert.Equal(t, at, ev.ReceivedAt)
	assert.Equal(t, []domain.RoomReport{
		{Room: 1, Players: 12, Bet: 340.5},
		{Room: 2, Players: 3, Bet: 80},
		{Room: 3, Players: 0, Bet: 15},
	}, ev.Rooms)
}

func TestDecode_NestedDataString(t *testing.T) {
	raw := `{"type":"push","data":"{\"msg_type\":\"notify_issue_stat\",\"issueId\":77,\"rooms\":[{\"room_id\":5,\"user_cnt\":2,\"total_bet_amount\":10}]}"}`

	ev, err := Decode([]byte(raw), at)
	require.NoError(t, err)

	assert.Equal(t, domain.EventTelemetry, ev.Kind)
	assert.Equal(t, "notify_issue_stat", ev.Type)
	require.NotNil(t, ev.Issue)
	assert.Equal(t, int64(77), *ev.Issue)
	require.Len(t, ev.Rooms, 1)
	assert.Equal(t, domain.RoomID(5), ev.Rooms[0].Room)
}

func TestDecode_NestedDataObject(t *testing.T) {
	raw := `{"msg_type":"issue_stat_update","data":{"issue":"901","rooms":[{"room_id":8,"user_cnt":1,"total_bet_amount":2}]}}`

	ev, err := Decode([]byte(raw), at)
	require.NoError(t, err)

	require.NotNil(t, ev.Issue)
	assert.Equal(t, int64(901), *ev.Issue)
	require.Len(t, ev.Rooms, 1)
	assert.Equal(t, domain.RoomID(8), ev.Rooms[0].Room)
}

func TestDecode_Countdown(t *testing.T) {
	ev, err := Decode([]byte(`{"msg_type":"notify_count_down","countDown":"7"}`), at)
	require.NoError(t, err)
	assert.Equal(t, domain.EventCountdown, ev.Kind)
	require.NotNil(t, ev.Countdown)
	assert.Equal(t, 7, *ev.Countdown)

	ev, err = Decode([]byte(`{"msg_type":"notify_count_down"}`), at)
	require.NoError(t, err)
	assert.Equal(t, domain.EventCountdown, ev.Kind)
	assert.Nil(t, ev.Countdown)
}

func TestDecode_Result(t *testing.T) {
	ev, err := Decode([]byte(`{"msg_type":"notify_result","killed_room_id":4,"issue_id":12}`), at)
	require.NoError(t, err)
	assert.Equal(t, domain.EventResult, ev.Kind)
	require.NotNil(t, ev.KilledRoom)
	assert.Equal(t, domain.RoomID(4), *ev.KilledRoom)

	ev, err = Decode([]byte(`{"msg_type":"game_result","data":{"killed_room":"6"}}`), at)
	require.NoError(t, err)
	require.NotNil(t, ev.KilledRoom)
	assert.Equal(t, domain.RoomID(6), *ev.KilledRoom)
	assert.Nil(t, ev.Issue)
}

func TestDecode_SingleQuotedPseudoJSON(t *testing.T) {
	ev, err := Decode([]byte(`{'msg_type': 'notify_count_down', 'count_down': 30}`), at)
	require.NoError(t, err)
	require.NotNil(t, ev.Countdown)
	assert.Equal(t, 30, *ev.Countdown)
}

func TestDecode_UnknownType(t *testing.T) {
	ev, err := Decode([]byte(`{"msg_type":"heartbeat","issue_id":5}`), at)
	require.NoError(t, err)
	assert.Equal(t, domain.EventUnknown, ev.Kind)
	require.NotNil(t, ev.Issue)
}

func TestDecode_Garbage(t *testing.T) {
	for _, raw := range []string{"", "not json", "[1,2,3]", "null", `"str"`, "{broken"} {
		_, err := Decode([]byte(raw), at)
		assert.ErrorIs(t, err, ErrMalformed, "input %q", raw)
	}
}

func TestBackoff_GrowsAndResets(t *testing.T) {
	b := newBackoff(600*time.Millisecond, 30*time.Second, 1.5, 500*time.Millisecond)
	b.randf = func() float64 { return 0 }

	assert.Equal(t, 600*time.Millisecond, b.Next())
	assert.Equal(t, 900*time.Millisecond, b.Next())
	assert.Equal(t, 1350*time.Millisecond, b.Next())

	for i := 0; i < 20; i++ {
		b.Next()
	}
	assert.Equal(t, 30*time.Second, b.Next())

	b.Reset()
	b.randf = func() float64 { return 1 }
	assert.Equal(t, 1100*time.Millisecond, b.Next())
}
