package escape

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/escapebot/internal/domain"
)

// Claves conocidas del wallet, en orden de prioridad.
var (
	cwalletBuildKeys = []string{"ctoken_contribute", "ctoken", "build", "balance", "amount"}
	dataBuildKeys    = []string{"build", "ctoken", "ctoken_contribute"}
	usdtKeys         = []string{"usdt", "kusdt", "usdt_balance"}
	worldKeys        = []string{"world", "xworld"}

	// Subcadenas para el escaneo recursivo de hojas numéricas.
	buildHints = []string{"ctoken", "build", "contribute", "balance"}
	usdtHints  = []string{"usdt"}
	worldHints = []string{"world", "xworld"}
)

var numberRe = regexp.MustCompile(`-?\d+[\d,]*\.?\d*`)

type walletPayload struct {
	UserID int64  `json:"user_id"`
	Source string `json:"source"`
}

// FetchBalance consulta el wallet. Implementa ports.BalanceProvider.
func (c *Client) FetchBalance(ctx context.Context) (domain.Balance, error) {
	resp, err := c.postJSON(ctx, c.cfg.WalletURL, walletPayload{UserID: c.cfg.UserID, Source: "home"}, c.walletHeaders())
	if err != nil {
		return domain.Balance{}, fmt.Errorf("escape.FetchBalance: %w", err)
	}
	if resp.status >= 400 {
		return domain.Balance{}, fmt.Errorf("escape.FetchBalance: client error %d: %s", resp.status, truncate(resp.body, 200))
	}

	var doc any
	if err := json.Unmarshal(resp.body, &doc); err != nil {
		return domain.Balance{}, fmt.Errorf("escape.FetchBalance: decode: %w", err)
	}
	return ParseBalance(doc), nil
}

func (c *Client) walletHeaders() http.Header {
	h := http.Header{}
	h.Set("accept", "*/*")
	h.Set("accept-language", "vi,en;q=0.9")
	h.Set("cache-control", "no-cache")
	h.Set("country-code", "vn")
	h.Set("origin", "https://xworld.info")
	h.Set("pragma", "no-cache")
	h.Set("referer", "https://xworld.info/")
	h.Set("user-agent", "Mozilla/5.0 (Linux; Android 6.0; Nexus 5) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/137.0.0.0 Mobile Safari/537.36")
	h.Set("user-login", "login_v2")
	h.Set("xb-language", "vi-VN")
	if c.cfg.UserID != 0 {
		h.Set("user-id", strconv.FormatInt(c.cfg.UserID, 10))
	}
	if c.cfg.SecretKey != "" {
		h.Set("user-secret-key", c.cfg.SecretKey)
	}
	return h
}

// ParseBalance extrae los saldos de una respuesta del wallet de forma
// tolerante: primero las claves conocidas y después un escaneo recursivo de
// todas las hojas numéricas. Nunca falla; los saldos no encontrados quedan a nil.
func ParseBalance(doc any) domain.Balance {
	root, ok := doc.(map[string]any)
	if !ok {
		return domain.Balance{}
	}

	var bal domain.Balance
	data := root
	if d, ok := root["data"].(map[string]any); ok {
		data = d
	}
	if cw, ok := data["cwallet"].(map[string]any); ok {
		bal.Build = firstKnown(cw, cwalletBuildKeys)
	}
	if bal.Build == nil {
		bal.Build = firstKnown(data, dataBuildKeys)
	}
	bal.USDT = firstKnown(data, usdtKeys)
	bal.World = firstKnown(data, worldKeys)

	for _, leaf := range numericLeaves(root, "") {
		if bal.Build == nil && containsAny(leaf.path, buildHints) {
			bal.Build = domain.Float(leaf.value)
		}
		if bal.USDT == nil && containsAny(leaf.path, usdtHints) {
			bal.USDT = domain.Float(leaf.value)
		}
		if bal.World == nil && containsAny(leaf.path, worldHints) {
			bal.World = domain.Float(leaf.value)
		}
	}
	return bal
}

func firstKnown(m map[string]any, keys []string) *float64 {
	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			continue
		}
		if n, ok := parseNumber(v); ok {
			return domain.Float(n)
		}
	}
	return nil
}

type leaf struct {
	path  string
	value float64
}

// numericLeaves recorre el documento en orden de claves para que el
// resultado sea determinista.
func numericLeaves(v any, path string) []leaf {
	switch x := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var out []leaf
		for _, k := range keys {
			p := strings.TrimPrefix(path+"."+k, ".")
			out = append(out, numericLeaves(x[k], p)...)
		}
		return out
	case []any:
		var out []leaf
		for i, item := range x {
			out = append(out, numericLeaves(item, fmt.Sprintf("%s[%d]", path, i))...)
		}
		return out
	default:
		if n, ok := parseNumber(x); ok {
			return []leaf{{path: strings.ToLower(path), value: n}}
		}
		return nil
	}
}

// parseNumber acepta números JSON y strings con el primer número que
// contengan ("1,234.5 BUILD" → 1234.5).
func parseNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		tok := numberRe.FindString(x)
		if tok == "" {
			return 0, false
		}
		d, err := decimal.NewFromString(strings.TrimSuffix(strings.ReplaceAll(tok, ",", ""), "."))
		if err != nil {
			return 0, false
		}
		return d.InexactFloat64(), true
	}
	return 0, false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
