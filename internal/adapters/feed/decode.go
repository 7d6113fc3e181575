package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/escapebot/internal/domain"
)

// ErrMalformed indica un mensaje del feed que no es un objeto JSON legible.
var ErrMalformed = errors.New("feed: malformed message")

// Tablas de alias. El orden es la prioridad de búsqueda.
var (
	typeKeys      = []string{"msg_type", "type"}
	issueKeys     = []string{"issue_id", "issueId", "issue", "id"}
	roomIDKeys    = []string{"room_id", "roomId", "id"}
	playersKeys   = []string{"user_cnt", "userCount"}
	betKeys       = []string{"total_bet_amount", "totalBet", "bet"}
	countdownKeys = []string{"count_down", "countDown", "count"}
	killedKeys    = []string{"killed_room", "killed_room_id"}
)

// Familias de mensaje, comprobadas en este orden por subcadena del tipo.
const (
	familyTelemetry = "issue_stat"
	familyCountdown = "count_down"
	familyResult    = "result"
)

// Decode interpreta un mensaje del feed. Los mensajes de tipo desconocido se
// devuelven como EventUnknown (pueden traer issue); sólo un payload que no es
// un objeto JSON devuelve error.
func Decode(raw []byte, receivedAt time.Time) (domain.Event, error) {
	obj, err := parseObject(raw)
	if err != nil {
		return domain.Event{}, err
	}

	// data puede venir como string JSON; su contenido se mezcla sobre el objeto exterior.
	if s, ok := obj["data"].(string); ok {
		if inner, err := parseObject([]byte(s)); err == nil {
			for k, v := range inner {
				obj[k] = v
			}
		}
	}
	nested, _ := obj["data"].(map[string]any)

	ev := domain.Event{
		Type:       firstString(obj, typeKeys),
		ReceivedAt: receivedAt,
	}
	if issue, ok := firstInt(obj, nested, issueKeys); ok {
		ev.Issue = &issue
	}

	switch {
	case strings.Contains(ev.Type, familyTelemetry):
		ev.Kind = domain.EventTelemetry
		ev.Rooms = decodeRooms(obj, nested)
	case strings.Contains(ev.Type, familyCountdown):
		ev.Kind = domain.EventCountdown
		if v, ok := firstInt(obj, nil, countdownKeys); ok {
			c := int(v)
			ev.Countdown = &c
		}
	case strings.Contains(ev.Type, familyResult):
		ev.Kind = domain.EventResult
		if v, ok := firstInt(obj, nested, killedKeys); ok {
			r := domain.RoomID(v)
			ev.KilledRoom = &r
		}
	default:
		ev.Kind = domain.EventUnknown
	}
	return ev, nil
}

// parseObject acepta JSON estricto o pseudo-JSON con comillas simples.
func parseObject(raw []byte) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	obj, err := unmarshalObject(raw)
	if err == nil {
		return obj, nil
	}
	if bytes.ContainsRune(raw, '\'') {
		if obj, err2 := unmarshalObject(bytes.ReplaceAll(raw, []byte("'"), []byte(`"`))); err2 == nil {
			return obj, nil
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
}

func unmarshalObject(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.New("not an object")
	}
	return obj, nil
}

func decodeRooms(obj, nested map[string]any) []domain.RoomReport {
	list, _ := obj["rooms"].([]any)
	if len(list) == 0 && nested != nil {
		list, _ = nested["rooms"].([]any)
	}

	reports := make([]domain.RoomReport, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		id, ok := firstNonZero(m, roomIDKeys)
		if !ok {
			continue
		}
		players, _ := firstNonZero(m, playersKeys)
		bet, _ := firstNonZero(m, betKeys)
		reports = append(reports, domain.RoomReport{
			Room:    domain.RoomID(id),
			Players: int(players),
			Bet:     bet,
		})
	}
	return reports
}

func firstString(m map[string]any, keys []string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			if s := fmt.Sprint(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// firstInt busca la primera clave presente y convertible a entero, primero en
// el objeto plano y luego en el anidado.
func firstInt(flat, nested map[string]any, keys []string) (int64, bool) {
	for _, m := range []map[string]any{flat, nested} {
		if m == nil {
			continue
		}
		for _, k := range keys {
			if v, ok := m[k]; ok {
				if n, ok := toInt(v); ok {
					return n, true
				}
			}
		}
	}
	return 0, false
}

// firstNonZero devuelve el primer alias con valor numérico distinto de cero.
func firstNonZero(m map[string]any, keys []string) (float64, bool) {
	for _, k := range keys {
		if f, ok := toFloat(m[k]); ok && f != 0 {
			return f, true
		}
	}
	return 0, false
}

func toInt(v any) (int64, bool) {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, true
		}
		if f, err := x.Float64(); err == nil && !math.IsInf(f, 0) {
			return int64(f), true
		}
	case float64:
		return int64(x), true
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f, true
		}
	case float64:
		return x, true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
