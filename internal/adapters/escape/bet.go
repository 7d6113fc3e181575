package escape

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/alejandrodnm/escapebot/internal/domain"
)

// betPayload es el cuerpo de la apuesta. El issue no viaja en el payload: el
// servidor asigna la apuesta a la ronda en curso.
type betPayload struct {
	AssetType string  `json:"asset_type"`
	UserID    int64   `json:"user_id"`
	RoomID    int     `json:"room_id"`
	BetAmount float64 `json:"bet_amount"`
}

// PlaceBet envía la apuesta real. Implementa ports.BetPlacer.
func (c *Client) PlaceBet(ctx context.Context, req domain.BetRequest) (domain.BetReceipt, error) {
	asset := req.AssetType
	if asset == "" {
		asset = c.cfg.AssetType
	}
	userID := req.UserID
	if userID == 0 {
		userID = c.cfg.UserID
	}

	resp, err := c.postJSON(ctx, c.cfg.BetURL, betPayload{
		AssetType: asset,
		UserID:    userID,
		RoomID:    int(req.Room),
		BetAmount: req.Amount,
	}, c.apiHeaders())
	if err != nil {
		return domain.BetReceipt{}, fmt.Errorf("escape.PlaceBet: %w", err)
	}

	return domain.BetReceipt{
		OK:  betAccepted(resp.body),
		Raw: string(resp.body),
	}, nil
}

func (c *Client) apiHeaders() http.Header {
	h := http.Header{}
	h.Set("User-Agent", "Mozilla/5.0")
	h.Set("user-id", strconv.FormatInt(c.cfg.UserID, 10))
	h.Set("user-secret-key", c.cfg.SecretKey)
	return h
}

// betAccepted interpreta la respuesta: éxito si msg=="ok", code==0 o
// status es "ok" o 1.
func betAccepted(body []byte) bool {
	var r struct {
		Msg    any `json:"msg"`
		Code   any `json:"code"`
		Status any `json:"status"`
	}
	if err := json.Unmarshal(body, &r); err != nil {
		return false
	}
	if s, ok := r.Msg.(string); ok && s == "ok" {
		return true
	}
	if n, ok := r.Code.(float64); ok && n == 0 {
		return true
	}
	switch s := r.Status.(type) {
	case string:
		return s == "ok"
	case float64:
		return s == 1
	}
	return false
}

// DemoPlacer simula apuestas sin llamadas de red: espera un retardo
// aleatorio corto y devuelve una respuesta aceptada.
type DemoPlacer struct {
	MinDelay time.Duration
	MaxDelay time.Duration
}

// NewDemoPlacer crea el simulador con el retardo por defecto de 100-300ms.
func NewDemoPlacer() *DemoPlacer {
	return &DemoPlacer{MinDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond}
}

// PlaceBet implementa ports.BetPlacer.
func (d *DemoPlacer) PlaceBet(ctx context.Context, req domain.BetRequest) (domain.BetReceipt, error) {
	delay := d.MinDelay
	if d.MaxDelay > d.MinDelay {
		delay += time.Duration(rand.Int64N(int64(d.MaxDelay - d.MinDelay)))
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return domain.BetReceipt{}, fmt.Errorf("escape.DemoPlacer: %w", ctx.Err())
	case <-t.C:
	}

	raw, err := json.Marshal(map[string]any{
		"msg":    "ok",
		"code":   0,
		"status": "success",
		"demo":   true,
		"data": map[string]any{
			"issue":     req.Issue,
			"room_id":   int(req.Room),
			"amount":    req.Amount,
			"timestamp": time.Now().Unix(),
		},
	})
	if err != nil {
		return domain.BetReceipt{}, fmt.Errorf("escape.DemoPlacer: %w", err)
	}
	return domain.BetReceipt{OK: true, Demo: true, Raw: string(raw)}, nil
}
