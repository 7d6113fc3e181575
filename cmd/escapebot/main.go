package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/escapebot/config"
	"github.com/alejandrodnm/escapebot/internal/adapters/escape"
	"github.com/alejandrodnm/escapebot/internal/adapters/feed"
	"github.com/alejandrodnm/escapebot/internal/adapters/notify"
	"github.com/alejandrodnm/escapebot/internal/adapters/storage"
	"github.com/alejandrodnm/escapebot/internal/application/engine"
	"github.com/alejandrodnm/escapebot/internal/domain"
	"github.com/alejandrodnm/escapebot/internal/domain/strategy"
	"github.com/alejandrodnm/escapebot/internal/ports"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	interactive := flag.Bool("interactive", false, "prompt for the game link and session settings")
	report := flag.Bool("report", false, "print the betting report from storage and exit")
	noUI := flag.Bool("no-ui", false, "disable the console dashboard")
	demo := flag.Bool("demo", false, "force demo bets (nothing is sent to the game)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	closeLog := setupLogger(cfg.Log, *noUI)
	defer closeLog()

	if *report {
		if err := runReport(context.Background(), cfg, os.Stdout); err != nil {
			slog.Error("report failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if *interactive {
		in := bufio.NewReader(os.Stdin)
		if err := promptLogin(in, os.Stdout, &cfg.Account); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		promptSettings(in, os.Stdout, cfg)
	}
	if *demo {
		cfg.Staking.BetMode = "demo"
	}
	if cfg.Account.UserID == 0 || cfg.Account.SecretKey == "" {
		slog.Error("missing credentials: set account.user_id/secret_key, ESCAPE_USER_ID/ESCAPE_SECRET_KEY or use -interactive")
		os.Exit(1)
	}

	slog.Info("escapebot starting",
		"config", *configPath,
		"user_id", cfg.Account.UserID,
		"algo", cfg.Strategy.Algo,
		"bet_mode", cfg.Staking.BetMode,
		"run_mode", cfg.Staking.RunMode,
		"base_bet", cfg.Staking.BaseBet,
		"multiplier", cfg.Staking.Multiplier,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, !*noUI); err != nil {
		slog.Error("escapebot exited with error", "err", err)
		os.Exit(1)
	}
	slog.Info("escapebot stopped cleanly")
}

// run conecta todos los componentes y bloquea hasta que ctx se cancela o el
// motor se detiene por objetivo o stop-loss.
func run(ctx context.Context, cfg *config.Config, ui bool) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	client := escape.NewClient(escape.Config{
		BetURL:     cfg.API.BetURL,
		WalletURL:  cfg.API.WalletURL,
		UserID:     cfg.Account.UserID,
		SecretKey:  cfg.Account.SecretKey,
		AssetType:  cfg.Account.AssetType,
		RatePerSec: cfg.API.RatePerSec,
		MaxRetries: cfg.Balance.Retries,
		Timeout:    time.Duration(cfg.Balance.TimeoutSeconds) * time.Second,
	})
	var placer ports.BetPlacer = client
	if cfg.Staking.BetMode != "real" {
		placer = escape.NewDemoPlacer()
	}

	strat := strategy.DefaultRegistry().Resolve(cfg.Strategy.Algo)
	pool := engine.NewPool(cfg.Engine.Workers, cfg.Engine.QueueSize)
	eng := engine.New(engineConfig(cfg), strat, client, placer, store, pool)
	eng.OnStop(func(string) { cancel() })

	rounds, err := store.RecentRounds(ctx, time.Now().Add(-cfg.RestoreWindow()))
	if err != nil {
		slog.Warn("could not restore room stats", "err", err)
	}
	eng.Restore(rounds)

	if err := eng.RefreshBalance(ctx); err != nil {
		slog.Warn("initial balance unavailable", "err", err)
	}

	snap := eng.Snapshot()
	sess := domain.Session{
		ID:            uuid.NewString(),
		StartedAt:     time.Now(),
		Algo:          strat.Name(),
		BetMode:       cfg.Staking.BetMode,
		BaseBet:       cfg.Staking.BaseBet,
		Multiplier:    cfg.Staking.Multiplier,
		StartingBuild: snap.Wallet.Starting,
	}
	if err := store.StartSession(ctx, sess); err != nil {
		slog.Warn("could not record session start", "err", err)
	}

	source := feed.New(feed.Config{
		URL:              cfg.API.WSURL,
		UserID:           cfg.Account.UserID,
		SecretKey:        cfg.Account.SecretKey,
		AssetType:        cfg.Account.AssetType,
		PingInterval:     time.Duration(cfg.Feed.PingIntervalSeconds) * time.Second,
		WatchdogInterval: time.Duration(cfg.Feed.WatchdogMillis) * time.Millisecond,
		ResendAfter:      time.Duration(cfg.Feed.ResendAfterSeconds) * time.Second,
		ReconnectAfter:   time.Duration(cfg.Feed.ReconnectAfterSeconds) * time.Second,
		BackoffBase:      time.Duration(cfg.Feed.BackoffBaseMillis) * time.Millisecond,
		BackoffMax:       time.Duration(cfg.Feed.BackoffMaxSeconds) * time.Second,
		BackoffFactor:    cfg.Feed.BackoffFactor,
		BackoffJitter:    time.Duration(cfg.Feed.BackoffJitterMillis) * time.Millisecond,
	})
	source.OnStatus(eng.SetFeedStatus)

	var notifier ports.Notifier
	if ui {
		notifier = notify.NewConsole()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return pool.Run(gctx) })
	g.Go(func() error { return source.Run(gctx, eng.HandleEvent) })
	g.Go(func() error { return eng.RunBalancePoller(gctx, cfg.BalanceInterval()) })
	g.Go(func() error { return renderLoop(gctx, eng, notifier, cfg.RefreshInterval(), cfg.UI.StopFile) })
	err = g.Wait()

	endSession(store, eng, sess)
	return err
}

// renderLoop refresca el panel y vigila el archivo de parada.
func renderLoop(ctx context.Context, eng *engine.Engine, notifier ports.Notifier, every time.Duration, stopFile string) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if stopFile != "" {
			if _, err := os.Stat(stopFile); err == nil {
				slog.Info("stop file detected, shutting down", "file", stopFile)
				os.Remove(stopFile)
				eng.Stop("stop file detected")
			}
		}
		if notifier != nil {
			if err := notifier.Render(eng.Snapshot()); err != nil {
				slog.Warn("render failed", "err", err)
			}
		}
	}
}

// endSession guarda el resumen de la sesión con un contexto propio: el de
// la ejecución ya está cancelado.
func endSession(store ports.Storage, eng *engine.Engine, sess domain.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	snap := eng.Snapshot()
	now := time.Now()
	sess.EndedAt = &now
	if sess.StartingBuild == nil {
		sess.StartingBuild = snap.Wallet.Starting
	}
	sess.EndingBuild = snap.Wallet.Build
	sess.Profit = snap.Wallet.CumulativeProfit
	sess.Wins = snap.Staking.TotalWins
	sess.Losses = snap.Staking.TotalLosses
	sess.Bets = sess.Wins + sess.Losses
	sess.StopReason = snap.StopReason
	if sess.StopReason == "" {
		sess.StopReason = "interrupted"
	}

	if err := store.EndSession(ctx, sess); err != nil {
		slog.Warn("could not record session end", "err", err)
	}
	slog.Info("session finished",
		"profit", sess.Profit,
		"wins", sess.Wins,
		"losses", sess.Losses,
		"reason", sess.StopReason,
	)
}

func engineConfig(cfg *config.Config) engine.Config {
	return engine.Config{
		RunMode:                cfg.Staking.RunMode,
		BetMode:                cfg.Staking.BetMode,
		UserID:                 cfg.Account.UserID,
		AssetType:              cfg.Account.AssetType,
		LockAt:                 cfg.Engine.LockAt,
		FinalCountdownAt:       cfg.Engine.FinalCountdownAt,
		HistoryCapacity:        cfg.Engine.HistoryCapacity,
		BetHistoryCap:          cfg.Engine.BetHistoryCapacity,
		StopCheckDelay:         cfg.StopCheckDelay(),
		StreakProtectionLosses: cfg.Strategy.StreakProtectionLosses,
		StreakProtectionRisk:   cfg.Strategy.StreakProtectionRisk,
		BoostMin:               cfg.Strategy.BoostMin,
		BoostMax:               cfg.Strategy.BoostMax,
		Floors:                 cfg.Strategy.Floors,
		Staking: domain.StakingConfig{
			BaseBet:             cfg.Staking.BaseBet,
			Multiplier:          cfg.Staking.Multiplier,
			MaxBet:              cfg.Staking.MaxBet,
			BetRoundsBeforeSkip: cfg.Staking.BetRoundsBeforeSkip,
			PauseAfterLoss:      cfg.Staking.PauseAfterLoss,
		},
		ProfitTarget:   cfg.Staking.ProfitTarget,
		StopLossTarget: cfg.Staking.StopLossTarget,
	}
}

// setupLogger configura slog. Con el panel activo y sin archivo configurado
// los logs van a stderr para no pisar el dashboard.
func setupLogger(cfg config.LogConfig, noUI bool) func() {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var out io.Writer = os.Stdout
	if !noUI {
		out = os.Stderr
	}
	closeFn := func() {}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			out = f
			closeFn = func() { f.Close() }
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	slog.SetDefault(slog.New(handler))
	return closeFn
}
