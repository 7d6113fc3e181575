package escape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultBetURL    = "https://api.escapemaster.net/escape_game/bet"
	defaultWalletURL = "https://wallet.3games.io/api/wallet/user_asset"

	defaultRatePerSec = 5
	defaultMaxRetries = 2
	defaultTimeout    = 6 * time.Second
	baseRetryWait     = 600 * time.Millisecond
	maxRetryWait      = 2 * time.Second
	maxBodyBytes      = 1 << 20
)

// Config configura el cliente HTTP del juego y del wallet.
type Config struct {
	BetURL     string
	WalletURL  string
	UserID     int64
	SecretKey  string
	AssetType  string
	RatePerSec float64
	MaxRetries int
	Timeout    time.Duration
}

// Client es el HTTP client del juego con rate limiting y retries.
// Implementa ports.BalanceProvider y ports.BetPlacer.
type Client struct {
	http    *http.Client
	cfg     Config
	limiter *rate.Limiter
	wait    func(attempt int) time.Duration
}

// NewClient crea un Client. Las URLs vacías usan las de producción.
func NewClient(cfg Config) *Client {
	if cfg.BetURL == "" {
		cfg.BetURL = defaultBetURL
	}
	if cfg.WalletURL == "" {
		cfg.WalletURL = defaultWalletURL
	}
	if cfg.AssetType == "" {
		cfg.AssetType = "BUILD"
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = defaultRatePerSec
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), 2),
		wait:    retryWait,
	}
}

// response es una respuesta HTTP ya leída.
type response struct {
	status int
	body   []byte
}

// postJSON hace un POST JSON con rate limiting y retries. Los errores de
// transporte, 429 y 5xx se reintentan; un 4xx se devuelve tal cual para que
// el llamador interprete el cuerpo.
func (c *Client) postJSON(ctx context.Context, url string, body any, headers http.Header) (response, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return response{}, fmt.Errorf("marshal body: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, attempt); err != nil {
				return response{}, err
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return response{}, fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
		if err != nil {
			return response{}, err
		}
		req.Header = headers.Clone()
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			slog.Debug("escape: request failed", "url", url, "attempt", attempt+1, "err", err)
			continue
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read body: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error %d", resp.StatusCode)
			slog.Debug("escape: retryable status", "url", url, "status", resp.StatusCode, "attempt", attempt+1)
			continue
		}
		return response{status: resp.StatusCode, body: data}, nil
	}
	return response{}, fmt.Errorf("request failed after %d retries: %w", c.cfg.MaxRetries, lastErr)
}

// sleep espera el backoff del intento, respetando el contexto.
func (c *Client) sleep(ctx context.Context, attempt int) error {
	t := time.NewTimer(c.wait(attempt))
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// retryWait crece linealmente con el intento, con tope maxRetryWait.
func retryWait(attempt int) time.Duration {
	return min(time.Duration(attempt)*baseRetryWait, maxRetryWait)
}
