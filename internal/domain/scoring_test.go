package domain

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func telemetryWith(players []int, bets []float64) *Telemetry {
	t := NewTelemetry(HistoryCapacity)
	reports := make([]RoomReport, len(players))
	for i := range players {
		reports[i] = RoomReport{Room: RoomID(i + 1), Players: players[i], Bet: bets[i]}
	}
	t.Apply(reports, time.Now())
	return t
}

func pushHistory(t *Telemetry, r RoomID, players []int, bets []float64) {
	for i := range players {
		t.Apply([]RoomReport{{Room: r, Players: players[i], Bet: bets[i]}}, time.Now())
	}
}

// --- SurvivalPotential ---

func TestSurvivalPotential_NoGamesIsNeutral(t *testing.T) {
	tel := NewTelemetry(HistoryCapacity)
	for _, r := range Rooms {
		rate, conf := SurvivalPotential(tel, r)
		assert.Equal(t, 0.5, rate)
		assert.Equal(t, 0.0, conf)
	}
}

func TestSurvivalPotential_FullConfidence(t *testing.T) {
	tel := NewTelemetry(HistoryCapacity)
	for i := 0; i < 12; i++ {
		tel.RecordKill(8, i+1)
	}
	rate, conf := SurvivalPotential(tel, 1)
	assert.InDelta(t, 1.0, rate, 1e-9)
	assert.InDelta(t, 1.0, conf, 1e-9)

	rate, _ = SurvivalPotential(tel, 8)
	assert.InDelta(t, 0.0, rate, 1e-9)
}

func TestSurvivalPotential_PartialConfidence(t *testing.T) {
	tel := NewTelemetry(HistoryCapacity)
	// 6 games, room 1 never killed: observed 1.0, confidence 0.5
	for i := 0; i < 6; i++ {
		tel.RecordKill(2, i+1)
	}
	rate, conf := SurvivalPotential(tel, 1)
	assert.InDelta(t, 0.5, conf, 1e-9)
	assert.InDelta(t, 0.75, rate, 1e-9)
}

// --- trend sub-signals ---

func TestTrendScore_NeedsThreePoints(t *testing.T) {
	tel := NewTelemetry(HistoryCapacity)
	pushHistory(tel, 1, []int{10, 40}, []float64{100, 900})
	assert.Equal(t, 0.5, TrendScore(tel, 1))
}

func TestMomentum_Clamped(t *testing.T) {
	m := momentum([]float64{1, 1, 100}, []float64{1, 1, 1000})
	assert.Equal(t, 0.4, m)

	m = momentum([]float64{100, 1, 1}, []float64{1000, 1, 1})
	assert.Equal(t, -0.4, m)
}

func TestMomentum_ShortWindow(t *testing.T) {
	// players: (12-8)/10 = 0.4, bets flat; short used for mid too
	// 0.4*0.4 + 0.4*0.2 = 0.24
	m := momentum([]float64{8, 10, 12}, []float64{50, 50, 50})
	assert.InDelta(t, 0.24, m, 1e-9)
}

func TestCycleStrength(t *testing.T) {
	assert.Equal(t, 0.0, cycleStrength([]float64{1, 2, 3}))
	// monotonic: no lows or highs → flat 0.3
	assert.Equal(t, 0.3, cycleStrength([]float64{1, 2, 3, 4, 5}))
	// perfectly regular oscillation: lows {2,2}, highs {8,8} → 1.0
	assert.InDelta(t, 1.0, cycleStrength([]float64{5, 2, 8, 2, 8, 5}), 1e-9)
}

func TestBreakout_Tiers(t *testing.T) {
	assert.Equal(t, 0.0, breakout([]float64{1, 2, 3}, []float64{1, 2, 3}))
	assert.Equal(t, 0.8, breakout([]float64{10, 10, 10, 20}, []float64{100, 100, 100, 200}))
	assert.Equal(t, 0.6, breakout([]float64{10, 10, 10, 11.5}, []float64{100, 100, 100, 105}))
	assert.Equal(t, 0.3, breakout([]float64{10, 10, 10, 5}, []float64{100, 100, 100, 50}))
	assert.Equal(t, 0.5, breakout([]float64{10, 10, 10, 10}, []float64{100, 100, 100, 100}))
}

func TestMeanReversion_Tiers(t *testing.T) {
	assert.Equal(t, 0.5, meanReversion([]float64{1, 2, 3}))
	assert.Equal(t, 0.5, meanReversion([]float64{0, 0, 0, 10}))
	assert.Equal(t, 0.8, meanReversion([]float64{10, 10, 10, 20}))
	assert.Equal(t, 0.6, meanReversion([]float64{10, 10, 10, 14}))
	assert.Equal(t, 0.4, meanReversion([]float64{10, 10, 10, 12}))
	assert.Equal(t, 0.2, meanReversion([]float64{10, 10, 10, 10}))
}

// --- crowd ---

func TestCrowdBehavior_ZeroTotalsNeutral(t *testing.T) {
	tel := NewTelemetry(HistoryCapacity)
	assert.Equal(t, 0.5, CrowdBehavior(tel, 1))

	tel = telemetryWith([]int{1, 2, 3, 4, 5, 6, 7, 8}, make([]float64, 8))
	assert.Equal(t, 0.5, CrowdBehavior(tel, 3))
}

func TestCrowdBehavior_SmartMoney(t *testing.T) {
	// room 1 has 10% of players and 50% of bets: smi=0.4 → 0.6+0.3, effect 0.5
	tel := telemetryWith(
		[]int{10, 30, 30, 30, 0, 0, 0, 0},
		[]float64{500, 250, 150, 100, 0, 0, 0, 0},
	)
	assert.InDelta(t, 0.9*0.7+0.5*0.3, CrowdBehavior(tel, 1), 1e-9)
	// room 2 holds 30% of players: crowd effect 0.3, smi=-0.05 → 0.5 base
	assert.InDelta(t, 0.5*0.7+0.3*0.3, CrowdBehavior(tel, 2), 1e-9)
	// room 4: 30% players, 10% bets → smi=-0.2 → 0.4-0.2 base
	assert.InDelta(t, 0.2*0.7+0.3*0.3, CrowdBehavior(tel, 4), 1e-9)
}

func TestCrowdBehavior_LowConcentration(t *testing.T) {
	tel := telemetryWith([]int{1, 2, 3, 4, 5, 6, 7, 8}, []float64{100, 100, 100, 100, 100, 100, 100, 100})
	assert.InDelta(t, 0.56, CrowdBehavior(tel, 1), 1e-9)
}

// --- risk ---

func TestRiskFactor_DefaultWhenNothingFires(t *testing.T) {
	tel := telemetryWith([]int{10, 10, 10, 10, 10, 10, 10, 10}, []float64{1, 1, 1, 1, 1, 1, 1, 1})
	assert.Equal(t, 0.3, RiskFactor(tel, 4))
}

func TestRiskFactor_Contributions(t *testing.T) {
	tel := telemetryWith([]int{1, 10, 60, 10, 10, 10, 10, 10}, []float64{1, 1, 1, 1, 1, 1, 1, 1})
	assert.InDelta(t, 0.8, RiskFactor(tel, 1), 1e-9)
	assert.InDelta(t, 0.4, RiskFactor(tel, 3), 1e-9)

	tel.RecordKill(2, 1)
	// last killed 0.7 + kill rate 1.0 → 0.6
	assert.InDelta(t, 0.65, RiskFactor(tel, 2), 1e-9)

	cd := 5
	tel.Countdown = &cd
	assert.InDelta(t, (0.7+0.6+0.3)/3, RiskFactor(tel, 2), 1e-9)
}

func TestRiskFactor_Volatility(t *testing.T) {
	tel := NewTelemetry(HistoryCapacity)
	pushHistory(tel, 5, []int{2, 20, 2}, []float64{1, 1, 1})
	// pstdev/mean of {2,20,2} ≈ 1.06 → 0.5; latest players 2 → no players factor
	assert.InDelta(t, 0.5, RiskFactor(tel, 5), 1e-9)
}

// --- ranges ---

func TestScores_AlwaysWithinRanges(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	check := func(tel *Telemetry) {
		for _, r := range Rooms {
			tr := TrendScore(tel, r)
			assert.GreaterOrEqual(t, tr, 0.1)
			assert.LessOrEqual(t, tr, 0.9)

			cr := CrowdBehavior(tel, r)
			assert.GreaterOrEqual(t, cr, 0.1)
			assert.LessOrEqual(t, cr, 0.9)

			rk := RiskFactor(tel, r)
			assert.GreaterOrEqual(t, rk, 0.0)
			assert.LessOrEqual(t, rk, 0.9)

			p := RoomPotential(tel, r)
			assert.GreaterOrEqual(t, p.Total, 0.1)
			assert.LessOrEqual(t, p.Total, 0.95)
			assert.GreaterOrEqual(t, p.Confidence, 0.0)
			assert.LessOrEqual(t, p.Confidence, 1.0)
		}
	}

	check(NewTelemetry(HistoryCapacity))
	check(telemetryWith(make([]int, 8), make([]float64, 8)))

	for trial := 0; trial < 50; trial++ {
		tel := NewTelemetry(HistoryCapacity)
		for step := 0; step < 1+rng.Intn(30); step++ {
			reports := make([]RoomReport, 0, NumRooms)
			for _, r := range Rooms {
				reports = append(reports, RoomReport{
					Room:    r,
					Players: rng.Intn(120),
					Bet:     rng.Float64() * 50000,
				})
			}
			tel.Apply(reports, time.Now())
			if rng.Intn(3) == 0 {
				tel.RecordKill(Rooms[rng.Intn(NumRooms)], step+1)
			}
		}
		cd := rng.Intn(60)
		tel.Countdown = &cd
		check(tel)
	}
}

func TestRoomPotential_Composite(t *testing.T) {
	tel := telemetryWith([]int{1, 2, 3, 4, 5, 6, 7, 8}, []float64{100, 100, 100, 100, 100, 100, 100, 100})
	p := RoomPotential(tel, 1)
	require.InDelta(t, 0.8, p.Risk, 1e-9)
	assert.InDelta(t, 0.5*0.35+0.5*0.25+0.56*0.25+0.2*0.15, p.Total, 1e-9)
	assert.Equal(t, 0.0, p.Confidence)
}
