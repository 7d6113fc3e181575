package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alejandrodnm/escapebot/config"
)

// algoChoices mapea la opción del menú al nombre registrado.
var algoChoices = map[string]string{
	"1": "FUSION",
	"2": "QUANTUM",
	"3": "PATTERN",
	"4": "PREDATOR",
	"5": "VIP",
}

// promptLogin pide el link del juego y extrae userId y secretKey.
// Un link vacío conserva las credenciales ya configuradas.
func promptLogin(in *bufio.Reader, out io.Writer, acct *config.AccountConfig) error {
	fmt.Fprintln(out, "=== LOGIN ===")
	link := ask(in, out, "Paste the game link (with userId & secretKey) > ", "")
	if link == "" {
		if acct.UserID != 0 && acct.SecretKey != "" {
			return nil
		}
		return errors.New("no game link given")
	}

	id, secret, err := config.ParseLoginURL(link)
	if err != nil {
		return fmt.Errorf("invalid game link: %w", err)
	}
	if id != 0 {
		acct.UserID = id
	}
	if secret != "" {
		acct.SecretKey = secret
	}
	fmt.Fprintf(out, "read userId=%d\n", acct.UserID)
	return nil
}

// promptSettings pide los parámetros de la sesión. Cada pregunta ofrece el
// valor actual de cfg; una entrada vacía o inválida lo conserva.
func promptSettings(in *bufio.Reader, out io.Writer, cfg *config.Config) {
	st := &cfg.Staking
	fmt.Fprintln(out, "=== SETTINGS ===")

	st.BaseBet = askFloat(in, out, "BUILD per round", positiveOr(st.BaseBet, 1))
	st.Multiplier = askFloat(in, out, "Multiplier after a loss", positiveOr(st.Multiplier, 2))

	modeDef := "1"
	if st.BetMode == "real" {
		modeDef = "2"
	}
	fmt.Fprintln(out, "Bet mode: 1) DEMO  2) REAL")
	switch ask(in, out, fmt.Sprintf("Choose (1/2) [%s]: ", modeDef), modeDef) {
	case "1":
		st.BetMode = "demo"
	case "2":
		st.BetMode = "real"
	}
	if st.BetMode != "real" {
		st.BetMode = "demo"
	}

	algoDef := algoChoice(cfg.Strategy.Algo)
	fmt.Fprintln(out, "Algorithm: 1) FUSION  2) QUANTUM  3) PATTERN  4) PREDATOR  5) VIP")
	algo, ok := algoChoices[ask(in, out, fmt.Sprintf("Choose (1-5) [%s]: ", algoDef), algoDef)]
	if !ok {
		algo = algoChoices[algoDef]
	}
	cfg.Strategy.Algo = algo

	st.BetRoundsBeforeSkip = askInt(in, out, "Skip one round after N bets (0 = never)", max(st.BetRoundsBeforeSkip, 0))
	st.PauseAfterLoss = askInt(in, out, "Rounds to sit out after a loss", max(st.PauseAfterLoss, 0))
	st.ProfitTarget = askOptionalFloat(in, out, "Stop when BUILD balance reaches", st.ProfitTarget)
	st.StopLossTarget = askOptionalFloat(in, out, "Stop when BUILD balance drops to", st.StopLossTarget)

	runDef := "AUTO"
	if st.RunMode == "watch" {
		runDef = "WATCH"
	}
	switch strings.ToUpper(ask(in, out, fmt.Sprintf("Run mode AUTO or WATCH [%s]: ", runDef), runDef)) {
	case "WATCH":
		st.RunMode = "watch"
	case "AUTO":
		st.RunMode = "auto"
	}
	if st.RunMode != "watch" {
		st.RunMode = "auto"
	}
}

// algoChoice devuelve la opción del menú del algoritmo, "1" si no está en el menú.
func algoChoice(algo string) string {
	for k, v := range algoChoices {
		if strings.EqualFold(v, algo) {
			return k
		}
	}
	return "1"
}

func positiveOr(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}

func ask(in *bufio.Reader, out io.Writer, prompt, def string) string {
	fmt.Fprint(out, prompt)
	line, _ := in.ReadString('\n')
	if line = strings.TrimSpace(line); line == "" {
		return def
	}
	return line
}

func askFloat(in *bufio.Reader, out io.Writer, label string, def float64) float64 {
	s := ask(in, out, fmt.Sprintf("%s [%g]: ", label, def), "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func askInt(in *bufio.Reader, out io.Writer, label string, def int) int {
	s := ask(in, out, fmt.Sprintf("%s [%d]: ", label, def), "")
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return def
	}
	return v
}

// askOptionalFloat conserva cur con una entrada vacía o inválida; "off"
// desactiva el objetivo.
func askOptionalFloat(in *bufio.Reader, out io.Writer, label string, cur *float64) *float64 {
	def := "off"
	if cur != nil {
		def = strconv.FormatFloat(*cur, 'f', -1, 64)
	}
	s := ask(in, out, fmt.Sprintf("%s (off = disabled) [%s]: ", label, def), "")
	if strings.EqualFold(s, "off") {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return cur
	}
	return &v
}
