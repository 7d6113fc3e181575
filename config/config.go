package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/escapebot/internal/domain/strategy"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del bot.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Account  AccountConfig  `yaml:"account"`
	Staking  StakingConfig  `yaml:"staking"`
	Strategy StrategyConfig `yaml:"strategy"`
	Feed     FeedConfig     `yaml:"feed"`
	Balance  BalanceConfig  `yaml:"balance"`
	Engine   EngineConfig   `yaml:"engine"`
	Storage  StorageConfig  `yaml:"storage"`
	UI       UIConfig       `yaml:"ui"`
	Log      LogConfig      `yaml:"log"`
}

// APIConfig contiene los endpoints del juego y del wallet.
type APIConfig struct {
	WSURL      string  `yaml:"ws_url"`
	BetURL     string  `yaml:"bet_url"`
	WalletURL  string  `yaml:"wallet_url"`
	RatePerSec float64 `yaml:"rate_per_sec"`
}

// AccountConfig identifica al jugador. Si falta user_id se intenta leer del
// login_url (el link del juego con userId y secretKey en la query).
type AccountConfig struct {
	UserID    int64  `yaml:"user_id"`
	SecretKey string `yaml:"secret_key"`
	LoginURL  string `yaml:"login_url"`
	AssetType string `yaml:"asset_type"`
}

// StakingConfig controla el tamaño de las apuestas y las pausas.
type StakingConfig struct {
	BaseBet             float64  `yaml:"base_bet"`
	Multiplier          float64  `yaml:"multiplier"`
	MaxBet              float64  `yaml:"max_bet"`  // 0 = sin límite
	BetMode             string   `yaml:"bet_mode"` // demo | real
	RunMode             string   `yaml:"run_mode"` // auto | watch
	BetRoundsBeforeSkip int      `yaml:"bet_rounds_before_skip"`
	PauseAfterLoss      int      `yaml:"pause_after_loss"`
	ProfitTarget        *float64 `yaml:"profit_target"`
	StopLossTarget      *float64 `yaml:"stop_loss_target"`
}

// StrategyConfig elige el algoritmo y sus suelos de confianza.
type StrategyConfig struct {
	Algo                   string                             `yaml:"algo"`
	Floors                 map[strategy.Class]strategy.Floors `yaml:"floors"`
	StreakProtectionLosses int                                `yaml:"streak_protection_losses"`
	StreakProtectionRisk   float64                            `yaml:"streak_protection_risk"`
	BoostMin               float64                            `yaml:"boost_min"`
	BoostMax               float64                            `yaml:"boost_max"`
}

// FeedConfig controla la conexión websocket y la reconexión.
type FeedConfig struct {
	PingIntervalSeconds   int     `yaml:"ping_interval_seconds"`
	WatchdogMillis        int     `yaml:"watchdog_millis"`
	ResendAfterSeconds    int     `yaml:"resend_after_seconds"`
	ReconnectAfterSeconds int     `yaml:"reconnect_after_seconds"`
	BackoffBaseMillis     int     `yaml:"backoff_base_millis"`
	BackoffMaxSeconds     int     `yaml:"backoff_max_seconds"`
	BackoffFactor         float64 `yaml:"backoff_factor"`
	BackoffJitterMillis   int     `yaml:"backoff_jitter_millis"`
}

// BalanceConfig controla el polling del wallet.
type BalanceConfig struct {
	PollSeconds    int `yaml:"poll_seconds"`
	Retries        int `yaml:"retries"`
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// EngineConfig controla la máquina de estados de rondas.
type EngineConfig struct {
	LockAt             int `yaml:"lock_at"`
	FinalCountdownAt   int `yaml:"final_countdown_at"`
	HistoryCapacity    int `yaml:"history_capacity"`
	BetHistoryCapacity int `yaml:"bet_history_capacity"`
	StopCheckMillis    int `yaml:"stop_check_millis"`
	Workers            int `yaml:"workers"`
	QueueSize          int `yaml:"queue_size"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN          string `yaml:"dsn"`           // ruta al archivo SQLite, o ":memory:"
	RestoreHours int    `yaml:"restore_hours"` // rondas recientes a recargar al arrancar
}

// UIConfig controla el panel de consola.
type UIConfig struct {
	RefreshMillis int    `yaml:"refresh_millis"`
	StopFile      string `yaml:"stop_file"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
	File   string `yaml:"file"`   // vacío = stdout
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := cfg.Account.resolveLogin(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// ParseLoginURL extrae userId y secretKey de la query del link del juego.
func ParseLoginURL(link string) (userID int64, secret string, err error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return 0, "", fmt.Errorf("config.ParseLoginURL: %w", err)
	}
	q := u.Query()
	if v := q.Get("userId"); v != "" {
		userID, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, "", fmt.Errorf("config.ParseLoginURL: userId %q: %w", v, err)
		}
	}
	secret = q.Get("secretKey")
	if userID == 0 && secret == "" {
		return 0, "", fmt.Errorf("config.ParseLoginURL: no userId or secretKey in %q", link)
	}
	return userID, secret, nil
}

func (a *AccountConfig) resolveLogin() error {
	if a.LoginURL == "" || (a.UserID != 0 && a.SecretKey != "") {
		return nil
	}
	id, secret, err := ParseLoginURL(a.LoginURL)
	if err != nil {
		return err
	}
	if a.UserID == 0 {
		a.UserID = id
	}
	if a.SecretKey == "" {
		a.SecretKey = secret
	}
	return nil
}

// Durations derivadas.

func (c *Config) BalanceInterval() time.Duration {
	return time.Duration(c.Balance.PollSeconds) * time.Second
}

func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.UI.RefreshMillis) * time.Millisecond
}

func (c *Config) StopCheckDelay() time.Duration {
	return time.Duration(c.Engine.StopCheckMillis) * time.Millisecond
}

func (c *Config) RestoreWindow() time.Duration {
	return time.Duration(c.Storage.RestoreHours) * time.Hour
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("ESCAPE_USER_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Account.UserID = id
		}
	}
	if v := os.Getenv("ESCAPE_SECRET_KEY"); v != "" {
		cfg.Account.SecretKey = v
	}
	if v := os.Getenv("ESCAPE_LOGIN_URL"); v != "" {
		cfg.Account.LoginURL = v
	}
	if v := os.Getenv("ESCAPE_BET_MODE"); v != "" {
		cfg.Staking.BetMode = v
	}
	if v := os.Getenv("ESCAPE_ALGO"); v != "" {
		cfg.Strategy.Algo = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.API.WSURL == "" {
		cfg.API.WSURL = "wss://api.escapemaster.net/escape_master/ws"
	}
	if cfg.API.BetURL == "" {
		cfg.API.BetURL = "https://api.escapemaster.net/escape_game/bet"
	}
	if cfg.API.WalletURL == "" {
		cfg.API.WalletURL = "https://wallet.3games.io/api/wallet/user_asset"
	}
	if cfg.API.RatePerSec <= 0 {
		cfg.API.RatePerSec = 5
	}
	if cfg.Account.AssetType == "" {
		cfg.Account.AssetType = "BUILD"
	}

	if cfg.Staking.BaseBet <= 0 {
		cfg.Staking.BaseBet = 1
	}
	if cfg.Staking.Multiplier <= 0 {
		cfg.Staking.Multiplier = 2
	}
	cfg.Staking.BetMode = strings.ToLower(strings.TrimSpace(cfg.Staking.BetMode))
	if cfg.Staking.BetMode != "real" {
		cfg.Staking.BetMode = "demo"
	}
	cfg.Staking.RunMode = strings.ToLower(strings.TrimSpace(cfg.Staking.RunMode))
	if cfg.Staking.RunMode != "watch" {
		cfg.Staking.RunMode = "auto"
	}

	if cfg.Strategy.Algo == "" {
		cfg.Strategy.Algo = "FUSION"
	}
	floors := strategy.DefaultFloors()
	for class, f := range cfg.Strategy.Floors {
		floors[class] = f
	}
	cfg.Strategy.Floors = floors
	if cfg.Strategy.StreakProtectionLosses <= 0 {
		cfg.Strategy.StreakProtectionLosses = 2
	}
	if cfg.Strategy.StreakProtectionRisk <= 0 {
		cfg.Strategy.StreakProtectionRisk = 0.5
	}
	if cfg.Strategy.BoostMin <= 0 {
		cfg.Strategy.BoostMin = 0.01
	}
	if cfg.Strategy.BoostMax < cfg.Strategy.BoostMin {
		cfg.Strategy.BoostMax = 0.06
	}

	if cfg.Feed.PingIntervalSeconds <= 0 {
		cfg.Feed.PingIntervalSeconds = 12
	}
	if cfg.Feed.WatchdogMillis <= 0 {
		cfg.Feed.WatchdogMillis = 600
	}
	if cfg.Feed.ResendAfterSeconds <= 0 {
		cfg.Feed.ResendAfterSeconds = 8
	}
	if cfg.Feed.ReconnectAfterSeconds <= 0 {
		cfg.Feed.ReconnectAfterSeconds = 30
	}
	if cfg.Feed.BackoffBaseMillis <= 0 {
		cfg.Feed.BackoffBaseMillis = 600
	}
	if cfg.Feed.BackoffMaxSeconds <= 0 {
		cfg.Feed.BackoffMaxSeconds = 30
	}
	if cfg.Feed.BackoffFactor <= 1 {
		cfg.Feed.BackoffFactor = 1.5
	}
	if cfg.Feed.BackoffJitterMillis <= 0 {
		cfg.Feed.BackoffJitterMillis = 500
	}

	if cfg.Balance.PollSeconds <= 0 {
		cfg.Balance.PollSeconds = 4
	}
	if cfg.Balance.Retries <= 0 {
		cfg.Balance.Retries = 2
	}
	if cfg.Balance.TimeoutSeconds <= 0 {
		cfg.Balance.TimeoutSeconds = 6
	}

	if cfg.Engine.LockAt <= 0 {
		cfg.Engine.LockAt = 8
	}
	if cfg.Engine.FinalCountdownAt <= 0 {
		cfg.Engine.FinalCountdownAt = 45
	}
	if cfg.Engine.HistoryCapacity <= 0 {
		cfg.Engine.HistoryCapacity = 20
	}
	if cfg.Engine.BetHistoryCapacity <= 0 {
		cfg.Engine.BetHistoryCapacity = 500
	}
	if cfg.Engine.StopCheckMillis <= 0 {
		cfg.Engine.StopCheckMillis = 1200
	}
	if cfg.Engine.Workers <= 0 {
		cfg.Engine.Workers = 4
	}
	if cfg.Engine.QueueSize <= 0 {
		cfg.Engine.QueueSize = 64
	}

	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "escapebot.db"
	}
	if cfg.Storage.RestoreHours <= 0 {
		cfg.Storage.RestoreHours = 6
	}
	if cfg.UI.RefreshMillis <= 0 {
		cfg.UI.RefreshMillis = 1000
	}
	if cfg.UI.StopFile == "" {
		cfg.UI.StopFile = "STOP"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
