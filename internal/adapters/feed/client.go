package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alejandrodnm/escapebot/internal/ports"
)

const (
	defaultPingInterval     = 12 * time.Second
	defaultWatchdogInterval = 600 * time.Millisecond
	defaultResendAfter      = 8 * time.Second
	defaultReconnectAfter   = 30 * time.Second
	defaultBackoffBase      = 600 * time.Millisecond
	defaultBackoffMax       = 30 * time.Second
	defaultBackoffFactor    = 1.5
	defaultBackoffJitter    = 500 * time.Millisecond
	writeWait               = 6 * time.Second
)

// Estados publicados vía OnStatus.
const (
	StatusConnecting   = "connecting"
	StatusConnected    = "connected"
	StatusReconnecting = "reconnecting"
	StatusClosed       = "closed"
)

// Config configura la conexión al feed de tiempo real.
type Config struct {
	URL       string
	UserID    int64
	SecretKey string
	AssetType string

	PingInterval     time.Duration
	WatchdogInterval time.Duration
	ResendAfter      time.Duration // silencio tras el cual se reenvía enter_game
	ReconnectAfter   time.Duration // silencio tras el cual se fuerza la reconexión

	BackoffBase   time.Duration
	BackoffMax    time.Duration
	BackoffFactor float64
	BackoffJitter time.Duration
}

func (c *Config) setDefaults() {
	if c.AssetType == "" {
		c.AssetType = "BUILD"
	}
	if c.PingInterval <= 0 {
		c.PingInterval = defaultPingInterval
	}
	if c.WatchdogInterval <= 0 {
		c.WatchdogInterval = defaultWatchdogInterval
	}
	if c.ResendAfter <= 0 {
		c.ResendAfter = defaultResendAfter
	}
	if c.ReconnectAfter <= 0 {
		c.ReconnectAfter = defaultReconnectAfter
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = defaultBackoffBase
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = defaultBackoffMax
	}
	if c.BackoffFactor <= 1 {
		c.BackoffFactor = defaultBackoffFactor
	}
	if c.BackoffJitter <= 0 {
		c.BackoffJitter = defaultBackoffJitter
	}
}

// enterGame es el mensaje que anuncia la presencia del usuario en el juego.
type enterGame struct {
	MsgType       string `json:"msg_type"`
	AssetType     string `json:"asset_type"`
	UserID        int64  `json:"user_id"`
	UserSecretKey string `json:"user_secret_key"`
}

// Client mantiene la conexión websocket al feed del juego y entrega los
// eventos decodificados en orden de llegada. Implementa ports.EventSource.
type Client struct {
	cfg    Config
	dialer *websocket.Dialer

	lastMsg  atomic.Int64 // unix nanos del último mensaje recibido
	statusFn func(string)
}

var _ ports.EventSource = (*Client)(nil)

// New crea el cliente.
func New(cfg Config) *Client {
	cfg.setDefaults()
	return &Client{
		cfg:    cfg,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// OnStatus registra un callback para los cambios de estado de la conexión.
func (c *Client) OnStatus(fn func(string)) {
	c.statusFn = fn
}

// Run conecta y reconecta hasta que ctx se cancela. Cada mensaje se decodifica
// y se pasa a handle en el mismo goroutine de lectura.
func (c *Client) Run(ctx context.Context, handle ports.EventHandler) error {
	bo := newBackoff(c.cfg.BackoffBase, c.cfg.BackoffMax, c.cfg.BackoffFactor, c.cfg.BackoffJitter)
	defer c.setStatus(StatusClosed)

	for {
		c.setStatus(StatusConnecting)
		started, err := c.session(ctx, handle)
		if ctx.Err() != nil {
			return nil
		}
		if started {
			bo.Reset()
		}

		wait := bo.Next()
		c.setStatus(StatusReconnecting)
		slog.Warn("feed: disconnected, reconnecting", "err", err, "wait", wait.Round(time.Millisecond))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// session ejecuta una conexión completa. started indica si la sesión llegó a
// anunciarse al servidor.
func (c *Client) session(ctx context.Context, handle ports.EventHandler) (started bool, err error) {
	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return false, fmt.Errorf("feed.session: dial: %w", err)
	}
	defer conn.Close()

	var writeMu sync.Mutex
	c.touch()
	if err := c.sendEnterGame(conn, &writeMu); err != nil {
		return false, fmt.Errorf("feed.session: enter game: %w", err)
	}
	c.setStatus(StatusConnected)
	slog.Info("feed: connected", "url", c.cfg.URL)

	sessCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-sessCtx.Done()
		conn.Close()
	}()
	go c.keepalive(sessCtx, conn, &writeMu)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return true, fmt.Errorf("feed.session: read: %w", err)
		}
		c.touch()
		c.dispatch(ctx, msg, handle)
	}
}

// keepalive envía pings periódicos y vigila el silencio del feed: reenvía
// enter_game tras ResendAfter y cierra la conexión tras ReconnectAfter.
func (c *Client) keepalive(ctx context.Context, conn *websocket.Conn, writeMu *sync.Mutex) {
	ping := time.NewTicker(c.cfg.PingInterval)
	defer ping.Stop()
	watchdog := time.NewTicker(c.cfg.WatchdogInterval)
	defer watchdog.Stop()

	var lastResend time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				slog.Debug("feed: ping failed", "err", err)
			}
		case now := <-watchdog.C:
			idle := now.Sub(time.Unix(0, c.lastMsg.Load()))
			switch {
			case idle > c.cfg.ReconnectAfter:
				slog.Warn("feed: no messages, forcing reconnect", "idle", idle.Round(time.Second))
				conn.Close()
				return
			case idle > c.cfg.ResendAfter && now.Sub(lastResend) > c.cfg.ResendAfter:
				slog.Debug("feed: no messages, re-sending enter game", "idle", idle.Round(time.Millisecond))
				if err := c.sendEnterGame(conn, writeMu); err != nil {
					slog.Debug("feed: enter game resend failed", "err", err)
				}
				lastResend = now
			}
		}
	}
}

func (c *Client) sendEnterGame(conn *websocket.Conn, writeMu *sync.Mutex) error {
	b, err := json.Marshal(enterGame{
		MsgType:       "handle_enter_game",
		AssetType:     c.cfg.AssetType,
		UserID:        c.cfg.UserID,
		UserSecretKey: c.cfg.SecretKey,
	})
	if err != nil {
		return err
	}
	writeMu.Lock()
	defer writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, b)
}

// dispatch decodifica y entrega un mensaje. Ningún mensaje puede tumbar el
// bucle de lectura.
func (c *Client) dispatch(ctx context.Context, raw []byte, handle ports.EventHandler) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("feed: handler panicked", "panic", r)
		}
	}()

	ev, err := Decode(raw, time.Now())
	if err != nil {
		slog.Debug("feed: dropping message", "err", err, "raw", truncate(raw, 200))
		return
	}
	handle(ctx, ev)
}

func (c *Client) touch() {
	c.lastMsg.Store(time.Now().UnixNano())
}

func (c *Client) setStatus(s string) {
	if c.statusFn != nil {
		c.statusFn(s)
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
