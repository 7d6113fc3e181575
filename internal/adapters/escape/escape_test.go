package escape

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/escapebot/internal/domain"
)

func newTestClient(srv *httptest.Server) *Client {
	c := NewClient(Config{
		BetURL:     srv.URL + "/bet",
		WalletURL:  srv.URL + "/wallet",
		UserID:     1001,
		SecretKey:  "key",
		RatePerSec: 1000,
		MaxRetries: 2,
	})
	c.wait = func(int) time.Duration { return 0 }
	return c
}

func TestFetchBalance_KnownKeys(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wallet", r.URL.Path)
		assert.Equal(t, "1001", r.Header.Get("user-id"))
		assert.Equal(t, "key", r.Header.Get("user-secret-key"))
		assert.Equal(t, "https://xworld.info", r.Header.Get("origin"))

		var body walletPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(1001), body.UserID)
		assert.Equal(t, "home", body.Source)

		w.Write([]byte(`{"code":0,"data":{"cwallet":{"ctoken_contribute":"1,250.75"},"usdt":3.5,"xworld":"12"}}`))
	}))
	defer srv.Close()

	bal, err := newTestClient(srv).FetchBalance(context.Background())
	require.NoError(t, err)
	require.NotNil(t, bal.Build)
	assert.Equal(t, 1250.75, *bal.Build)
	require.NotNil(t, bal.USDT)
	assert.Equal(t, 3.5, *bal.USDT)
	require.NotNil(t, bal.World)
	assert.Equal(t, 12.0, *bal.World)
}

func TestFetchBalance_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"data":{"build":42}}`))
	}))
	defer srv.Close()

	bal, err := newTestClient(srv).FetchBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 42.0, *bal.Build)
}

func TestFetchBalance_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchBalance(context.Background())
	assert.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchBalance_ClientErrorAndGarbage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("user-secret-key") == "bad" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.FetchBalance(context.Background())
	assert.ErrorContains(t, err, "decode")

	c.cfg.SecretKey = "bad"
	_, err = c.FetchBalance(context.Background())
	assert.ErrorContains(t, err, "401")
}

func TestParseBalance_RecursiveFallback(t *testing.T) {
	var doc any
	require.NoError(t, json.Unmarshal([]byte(`{
		"result": {
			"assets": [
				{"name": "kusdt_wallet", "value": "7.25"},
				{"ctoken_total": 99.5},
				{"xworld_points": 3}
			]
		}
	}`), &doc))

	bal := ParseBalance(doc)
	require.NotNil(t, bal.Build)
	assert.Equal(t, 99.5, *bal.Build)
	require.NotNil(t, bal.World)
	assert.Equal(t, 3.0, *bal.World)
	// "value" de kusdt no lleva la pista en su ruta
	assert.Nil(t, bal.USDT)
}

func TestParseBalance_NeverPanics(t *testing.T) {
	for _, doc := range []any{nil, "x", 1.0, []any{1.0}, map[string]any{"data": "str"}} {
		assert.NotPanics(t, func() { ParseBalance(doc) })
	}
	assert.Equal(t, domain.Balance{}, ParseBalance(map[string]any{"data": map[string]any{"build": "n/a"}}))
}

func TestParseNumber(t *testing.T) {
	cases := map[string]float64{
		"1,234.5 BUILD": 1234.5,
		"-3":            -3,
		"bal: 12.":      12,
		"0.0001":        0.0001,
	}
	for in, want := range cases {
		got, ok := parseNumber(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := parseNumber("none")
	assert.False(t, ok)
}

func TestPlaceBet_PayloadAndAcceptance(t *testing.T) {
	var reply atomic.Value
	reply.Store(`{"msg":"ok"}`)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bet", r.URL.Path)
		assert.Equal(t, "1001", r.Header.Get("user-id"))
		assert.Equal(t, "key", r.Header.Get("user-secret-key"))

		var body betPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, betPayload{AssetType: "BUILD", UserID: 1001, RoomID: 4, BetAmount: 1.5}, body)

		w.Write([]byte(reply.Load().(string)))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	req := domain.BetRequest{Issue: 9, Room: 4, Amount: 1.5}

	for body, ok := range map[string]bool{
		`{"msg":"ok"}`:                   true,
		`{"code":0,"msg":"success"}`:     true,
		`{"status":"ok"}`:                true,
		`{"status":1}`:                   true,
		`{"code":1001,"msg":"no money"}`: false,
		`not json`:                       false,
	} {
		reply.Store(body)
		receipt, err := c.PlaceBet(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, ok, receipt.OK, body)
		assert.Equal(t, body, receipt.Raw)
	}
}

func TestPlaceBet_ClientErrorIsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":400,"msg":"issue closed"}`))
	}))
	defer srv.Close()

	receipt, err := newTestClient(srv).PlaceBet(context.Background(), domain.BetRequest{Room: 1, Amount: 1})
	require.NoError(t, err)
	assert.False(t, receipt.OK)
}

func TestDemoPlacer(t *testing.T) {
	d := &DemoPlacer{MinDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
	receipt, err := d.PlaceBet(context.Background(), domain.BetRequest{Issue: 5, Room: 2, Amount: 1})
	require.NoError(t, err)
	assert.True(t, receipt.OK)
	assert.True(t, receipt.Demo)
	assert.True(t, betAccepted([]byte(receipt.Raw)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	slow := NewDemoPlacer()
	_, err = slow.PlaceBet(ctx, domain.BetRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryWait(t *testing.T) {
	assert.Equal(t, 600*time.Millisecond, retryWait(1))
	assert.Equal(t, 1200*time.Millisecond, retryWait(2))
	assert.Equal(t, 1800*time.Millisecond, retryWait(3))
	assert.Equal(t, 2*time.Second, retryWait(5))
}
