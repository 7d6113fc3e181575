package notify

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alejandrodnm/escapebot/internal/domain"
	"github.com/alejandrodnm/escapebot/internal/ports"
	"github.com/olekukonko/tablewriter"
)

const (
	dashboardBets = 5
	clearScreen   = "\033[H\033[2J"
)

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	clear bool
}

var _ ports.Notifier = (*Console)(nil)

// NewConsole crea un notificador que escribe a stdout y limpia la pantalla en
// cada refresco.
func NewConsole() *Console {
	return &Console{out: os.Stdout, clear: true}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// Render imprime el panel completo a partir de una copia del estado.
// Se construye en memoria y se escribe de una vez.
func (c *Console) Render(snap domain.Snapshot) error {
	var sb strings.Builder
	if c.clear {
		sb.WriteString(clearScreen)
	}
	c.printHeader(&sb, snap)
	c.printState(&sb, snap)
	c.printRooms(&sb, snap.Rooms)
	c.printBets(&sb, snap.RecentBets, dashboardBets)

	_, err := io.WriteString(c.out, sb.String())
	return err
}

// printHeader imprime saldos, beneficio, algoritmo y rachas.
func (c *Console) printHeader(w io.Writer, snap domain.Snapshot) {
	mode := strings.ToUpper(snap.BetMode)
	fmt.Fprintf(w, "=== ESCAPE BOT [%s/%s] %s  feed:%s ===\n",
		mode, snap.RunMode, snap.TakenAt.Format("15:04:05"), orDash(snap.FeedStatus))

	wl := snap.Wallet
	fmt.Fprintf(w, "  BUILD %s  WORLD %s  USDT %s  | start %s  profit %s\n",
		amount(wl.Build), amount(wl.World), amount(wl.USDT),
		amount(wl.Starting), signed(wl.CumulativeProfit))

	st := snap.Staking
	fmt.Fprintf(w, "  algo %s  issue %s  W/L %d/%d (%.1f%%)  streak W%d L%d  max W%d L%d  next bet %.4g\n",
		snap.Algo, issueLabel(snap.Round.Issue),
		st.TotalWins, st.TotalLosses, st.WinRate,
		st.WinStreak, st.LoseStreak, st.MaxWinStreak, st.MaxLoseStreak, st.CurrentBet)

	if snap.ProfitTarget != nil || snap.StopLossTarget != nil {
		fmt.Fprintf(w, "  targets: profit %s  stop-loss %s\n",
			amount(snap.ProfitTarget), amount(snap.StopLossTarget))
	}
	if snap.Stopped {
		fmt.Fprintf(w, "  !! STOPPED: %s\n", snap.StopReason)
	}
}

// printState imprime el estado de la ronda y la predicción.
func (c *Console) printState(w io.Writer, snap domain.Snapshot) {
	p := snap.Prediction
	countdown := "-"
	if snap.Round.Countdown != nil {
		countdown = fmt.Sprintf("%ds", *snap.Round.Countdown)
	}

	state := string(p.UI)
	if state == "" {
		state = string(domain.StateIdle)
	}
	if p.FinalCountdown && !p.Locked {
		state += " (final)"
	}
	fmt.Fprintf(w, "\n  [%s] round %d  countdown %s\n", state, snap.Round.RoundIndex, countdown)

	switch {
	case p.Skipped:
		fmt.Fprintf(w, "  >> SKIP: %s\n", p.SkipReason)
	case p.Decision != nil:
		fmt.Fprintf(w, "  >> %s  %s  conf %.0f%%\n",
			p.Decision.Room.Label(), p.Decision.Label, p.Decision.Confidence*100)
	}
	if p.UI == domain.StateResult && snap.Round.KilledRoom.Valid() {
		fmt.Fprintf(w, "  killed: %s\n", snap.Round.KilledRoom.Label())
	}
	if st := snap.Staking; st.SkipRoundsRemaining > 0 || st.SkipNextPending {
		fmt.Fprintf(w, "  pause: %d rounds left  skip next: %t\n", st.SkipRoundsRemaining, st.SkipNextPending)
	}
	fmt.Fprintln(w)
}

// printRooms imprime la tabla de salas.
func (c *Console) printRooms(w io.Writer, rooms []domain.RoomView) {
	table := tablewriter.NewWriter(w)
	table.Header("#", "Room", "Players", "Bet", "Kills", "Survives", "Potential")

	for _, r := range rooms {
		table.Append(
			fmt.Sprintf("%d", int(r.Room)),
			r.Room.Name(),
			fmt.Sprintf("%d", r.Players),
			fmt.Sprintf("%.2f", r.Bet),
			fmt.Sprintf("%d", r.Kills),
			fmt.Sprintf("%d", r.Survives),
			fmt.Sprintf("%.3f", r.Potential),
		)
	}
	table.Render()
}

// printBets imprime las últimas apuestas, la más reciente primero.
func (c *Console) printBets(w io.Writer, bets []domain.BetRecord, n int) {
	if len(bets) == 0 {
		fmt.Fprintln(w, "  no bets yet")
		return
	}
	if len(bets) > n {
		bets = bets[:n]
	}

	table := tablewriter.NewWriter(w)
	table.Header("Time", "Issue", "Room", "Amount", "Algo", "Result", "Killed")
	for _, b := range bets {
		table.Append(
			b.PlacedAt.Format("15:04:05"),
			issueLabel(b.Issue),
			b.Room.Name(),
			fmt.Sprintf("%.4g", b.Amount),
			orDash(b.Algo),
			betResult(b),
			b.KilledRoom.Name(),
		)
	}
	table.Render()
}

// PrintReport imprime el informe agregado del historial guardado.
func (c *Console) PrintReport(stats domain.BetStats, recent []domain.BetRecord) {
	if stats.TotalBets == 0 && stats.Rounds == 0 {
		fmt.Fprintln(c.out, "\n  No betting data yet. Run the bot first.")
		return
	}

	fmt.Fprintf(c.out, "\n")
	fmt.Fprintf(c.out, "========================================================\n")
	fmt.Fprintf(c.out, "  ESCAPE BOT REPORT\n")
	if !stats.StartDate.IsZero() {
		fmt.Fprintf(c.out, "  %s to %s\n",
			stats.StartDate.Format("2006-01-02 15:04"),
			stats.EndDate.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(c.out, "========================================================\n")

	fmt.Fprintf(c.out, "\n  --- TOTALS ---\n")
	fmt.Fprintf(c.out, "  Bets placed:           %d\n", stats.TotalBets)
	fmt.Fprintf(c.out, "  Settled:               %d (W %d / L %d)\n", stats.Settled, stats.Wins, stats.Losses)
	fmt.Fprintf(c.out, "  Pending:               %d\n", stats.Pending)
	fmt.Fprintf(c.out, "  Rejected:              %d\n", stats.Rejected)
	fmt.Fprintf(c.out, "  Total staked:          %.4f\n", stats.TotalStaked)
	fmt.Fprintf(c.out, "  Win rate:              %.1f%%\n", stats.WinRate)
	fmt.Fprintf(c.out, "  Max win streak:        %d\n", stats.MaxWinStreak)
	fmt.Fprintf(c.out, "  Max lose streak:       %d\n", stats.MaxLoseStreak)
	fmt.Fprintf(c.out, "  Rounds observed:       %d\n", stats.Rounds)

	if len(stats.ByAlgo) > 0 {
		fmt.Fprintf(c.out, "\n  --- BY ALGORITHM ---\n")
		table := tablewriter.NewWriter(c.out)
		table.Header("Algo", "Bets", "Wins", "Losses", "Staked", "Win%")
		for _, a := range stats.ByAlgo {
			table.Append(
				orDash(a.Algo),
				fmt.Sprintf("%d", a.Bets),
				fmt.Sprintf("%d", a.Wins),
				fmt.Sprintf("%d", a.Losses),
				fmt.Sprintf("%.4f", a.Staked),
				fmt.Sprintf("%.1f", a.WinRate),
			)
		}
		table.Render()
	}

	if stats.Rounds > 0 {
		fmt.Fprintf(c.out, "\n  --- KILLS BY ROOM ---\n")
		table := tablewriter.NewWriter(c.out)
		table.Header("#", "Room", "Kills", "Kill%")
		for _, r := range domain.Rooms {
			n := stats.KillsByRoom[r]
			table.Append(
				fmt.Sprintf("%d", int(r)),
				r.Name(),
				fmt.Sprintf("%d", n),
				fmt.Sprintf("%.1f", float64(n)/float64(stats.Rounds)*100),
			)
		}
		table.Render()
	}

	if len(recent) > 0 {
		fmt.Fprintf(c.out, "\n  --- RECENT BETS ---\n")
		c.printBets(c.out, recent, len(recent))
	}
	fmt.Fprintln(c.out)
}

// --- helpers ---

func amount(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.4f", *v)
}

func signed(v float64) string {
	return fmt.Sprintf("%+.4f", v)
}

func issueLabel(issue int64) string {
	if issue == 0 {
		return "-"
	}
	return fmt.Sprintf("%d", issue)
}

func betResult(b domain.BetRecord) string {
	if !b.Accepted {
		return "REJECTED"
	}
	return string(b.Result)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
