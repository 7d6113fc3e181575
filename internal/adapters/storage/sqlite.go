package storage

// sqlite.go — persistencia de apuestas, rondas y sesiones.
//
// Estrategia:
//   - `bets`: una fila por apuesta enviada (UPSERT por id); se actualiza al liquidar.
//   - `rounds`: una fila por issue con la sala eliminada. Alimenta las
//     estadísticas de salas al arrancar.
//   - `sessions`: una fila por ejecución con el resumen final.
//   - Cache en memoria de issues ya guardados: un resultado repetido del feed
//     no genera escrituras.
//   - Prune automático al arrancar: rondas > 30d, apuestas y sesiones > 90d.
//
// Los instantes se guardan como unix milisegundos (INTEGER).

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/alejandrodnm/escapebot/internal/domain"
	"github.com/alejandrodnm/escapebot/internal/ports"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id             TEXT PRIMARY KEY,
    started_at     INTEGER NOT NULL,
    ended_at       INTEGER,
    algo           TEXT    NOT NULL DEFAULT '',
    bet_mode       TEXT    NOT NULL DEFAULT '',
    base_bet       REAL    NOT NULL DEFAULT 0,
    multiplier     REAL    NOT NULL DEFAULT 0,
    starting_build REAL,
    ending_build   REAL,
    profit         REAL    NOT NULL DEFAULT 0,
    bets           INTEGER NOT NULL DEFAULT 0,
    wins           INTEGER NOT NULL DEFAULT 0,
    losses         INTEGER NOT NULL DEFAULT 0,
    stop_reason    TEXT    NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS bets (
    id          TEXT PRIMARY KEY,
    session_id  TEXT    NOT NULL DEFAULT '',
    issue       INTEGER NOT NULL,
    room        INTEGER NOT NULL,
    amount      REAL    NOT NULL,
    placed_at   INTEGER NOT NULL,
    result      TEXT    NOT NULL,
    settled     INTEGER NOT NULL DEFAULT 0,
    settled_at  INTEGER,
    killed_room INTEGER NOT NULL DEFAULT 0,
    algo        TEXT    NOT NULL DEFAULT '',
    confidence  REAL    NOT NULL DEFAULT 0,
    win_streak  INTEGER NOT NULL DEFAULT 0,
    lose_streak INTEGER NOT NULL DEFAULT 0,
    accepted    INTEGER NOT NULL DEFAULT 0,
    response    TEXT    NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS rounds (
    issue       INTEGER PRIMARY KEY,
    round_index INTEGER NOT NULL DEFAULT 0,
    killed_room INTEGER NOT NULL,
    predicted   INTEGER NOT NULL DEFAULT 0,
    skipped     INTEGER NOT NULL DEFAULT 0,
    settled_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bets_placed   ON bets(placed_at DESC);
CREATE INDEX IF NOT EXISTS idx_bets_issue    ON bets(issue);
CREATE INDEX IF NOT EXISTS idx_rounds_settled ON rounds(settled_at);
`

const (
	retentionRounds = 30 * 24 * time.Hour
	retentionBets   = 90 * 24 * time.Hour
	warmRounds      = 1000
)

// SQLiteStorage implementa ports.Storage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db      *sql.DB
	mu      sync.Mutex
	session string
	rounds  map[int64]bool // issues ya guardados
}

var _ ports.Storage = (*SQLiteStorage)(nil)

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema, limpia datos antiguos y precarga la cache.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{
		db:     db,
		rounds: make(map[int64]bool),
	}
	s.pruneOld(context.Background())
	s.warmCache(context.Background())
	return s, nil
}

// StartSession inserta la sesión y la asocia a las apuestas siguientes.
func (s *SQLiteStorage) StartSession(ctx context.Context, sess domain.Session) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, started_at, algo, bet_mode, base_bet, multiplier, starting_build)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, millis(sess.StartedAt), sess.Algo, sess.BetMode, sess.BaseBet, sess.Multiplier, sess.StartingBuild,
	); err != nil {
		return fmt.Errorf("storage.StartSession: %w", err)
	}
	s.mu.Lock()
	s.session = sess.ID
	s.mu.Unlock()
	return nil
}

// EndSession guarda el resumen final de la sesión.
func (s *SQLiteStorage) EndSession(ctx context.Context, sess domain.Session) error {
	var ended *int64
	if sess.EndedAt != nil {
		v := millis(*sess.EndedAt)
		ended = &v
	}
	if _, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET
			ended_at = ?, starting_build = COALESCE(?, starting_build), ending_build = ?,
			profit = ?, bets = ?, wins = ?, losses = ?, stop_reason = ?
		WHERE id = ?`,
		ended, sess.StartingBuild, sess.EndingBuild,
		sess.Profit, sess.Bets, sess.Wins, sess.Losses, sess.StopReason, sess.ID,
	); err != nil {
		return fmt.Errorf("storage.EndSession: %w", err)
	}
	return nil
}

// SaveBet hace upsert de una apuesta.
func (s *SQLiteStorage) SaveBet(ctx context.Context, rec domain.BetRecord) error {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO bets
			(id, session_id, issue, room, amount, placed_at, result, settled, settled_at,
			 killed_room, algo, confidence, win_streak, lose_streak, accepted, response)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			result      = excluded.result,
			settled     = excluded.settled,
			settled_at  = excluded.settled_at,
			killed_room = excluded.killed_room,
			accepted    = excluded.accepted,
			response    = excluded.response`,
		rec.ID, session, rec.Issue, int(rec.Room), rec.Amount, millis(rec.PlacedAt),
		string(rec.Result), boolInt(rec.Settled), nullMillis(rec.SettledAt),
		int(rec.KilledRoom), rec.Algo, rec.Confidence, rec.WinStreak, rec.LoseStreak,
		boolInt(rec.Accepted), rec.Response,
	); err != nil {
		return fmt.Errorf("storage.SaveBet: %s: %w", rec.ID, err)
	}
	return nil
}

// SettleBet actualiza el resultado de una apuesta guardada.
func (s *SQLiteStorage) SettleBet(ctx context.Context, rec domain.BetRecord) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE bets SET result = ?, settled = ?, settled_at = ?, killed_room = ?
		WHERE id = ?`,
		string(rec.Result), boolInt(rec.Settled), nullMillis(rec.SettledAt), int(rec.KilledRoom), rec.ID,
	)
	if err != nil {
		return fmt.Errorf("storage.SettleBet: %s: %w", rec.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// la apuesta no llegó a guardarse (p.ej. liquidada antes del insert)
		return s.SaveBet(ctx, rec)
	}
	return nil
}

// SaveRound guarda el resultado de un issue una sola vez.
func (s *SQLiteStorage) SaveRound(ctx context.Context, r domain.RoundResult) error {
	s.mu.Lock()
	if s.rounds[r.Issue] {
		s.mu.Unlock()
		return nil
	}
	s.rounds[r.Issue] = true
	s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO rounds (issue, round_index, killed_room, predicted, skipped, settled_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.Issue, r.RoundIndex, int(r.KilledRoom), int(r.Predicted), boolInt(r.Skipped), millis(r.SettledAt),
	); err != nil {
		s.mu.Lock()
		delete(s.rounds, r.Issue)
		s.mu.Unlock()
		return fmt.Errorf("storage.SaveRound: issue %d: %w", r.Issue, err)
	}
	return nil
}

// RecentBets devuelve las últimas n apuestas, la más reciente primero.
func (s *SQLiteStorage) RecentBets(ctx context.Context, n int) ([]domain.BetRecord, error) {
	if n <= 0 {
		n = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, issue, room, amount, placed_at, result, settled, settled_at,
		       killed_room, algo, confidence, win_streak, lose_streak, accepted, response
		FROM bets
		ORDER BY placed_at DESC
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentBets: query: %w", err)
	}
	defer rows.Close()

	var out []domain.BetRecord
	for rows.Next() {
		var (
			rec               domain.BetRecord
			room, killed      int
			placed            int64
			settledAt         sql.NullInt64
			result            string
			settled, accepted int
		)
		if err := rows.Scan(
			&rec.ID, &rec.Issue, &room, &rec.Amount, &placed, &result, &settled, &settledAt,
			&killed, &rec.Algo, &rec.Confidence, &rec.WinStreak, &rec.LoseStreak, &accepted, &rec.Response,
		); err != nil {
			return nil, fmt.Errorf("storage.RecentBets: scan row: %w", err)
		}
		rec.Room = domain.RoomID(room)
		rec.KilledRoom = domain.RoomID(killed)
		rec.PlacedAt = fromMillis(placed)
		rec.Result = domain.BetResult(result)
		rec.Settled = settled == 1
		rec.Accepted = accepted == 1
		if settledAt.Valid {
			t := fromMillis(settledAt.Int64)
			rec.SettledAt = &t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RecentRounds devuelve las rondas liquidadas desde since, la más antigua primero.
func (s *SQLiteStorage) RecentRounds(ctx context.Context, since time.Time) ([]domain.RoundResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT issue, round_index, killed_room, predicted, skipped, settled_at
		FROM rounds
		WHERE settled_at >= ?
		ORDER BY settled_at ASC, issue ASC`, millis(since))
	if err != nil {
		return nil, fmt.Errorf("storage.RecentRounds: query: %w", err)
	}
	defer rows.Close()

	var out []domain.RoundResult
	for rows.Next() {
		var r domain.RoundResult
		var killed, predicted, skipped int
		var at int64
		if err := rows.Scan(&r.Issue, &r.RoundIndex, &killed, &predicted, &skipped, &at); err != nil {
			return nil, fmt.Errorf("storage.RecentRounds: scan row: %w", err)
		}
		r.KilledRoom = domain.RoomID(killed)
		r.Predicted = domain.RoomID(predicted)
		r.Skipped = skipped == 1
		r.SettledAt = fromMillis(at)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

// pruneOld elimina datos antiguos para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	now := time.Now()
	s.db.ExecContext(ctx, `DELETE FROM rounds WHERE settled_at < ?`, millis(now.Add(-retentionRounds)))
	s.db.ExecContext(ctx, `DELETE FROM bets WHERE placed_at < ?`, millis(now.Add(-retentionBets)))
	s.db.ExecContext(ctx, `DELETE FROM sessions WHERE started_at < ?`, millis(now.Add(-retentionBets)))
}

// warmCache precarga los issues recientes para no reescribir rondas repetidas
// tras un reinicio.
func (s *SQLiteStorage) warmCache(ctx context.Context) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT issue FROM rounds ORDER BY settled_at DESC LIMIT ?`, warmRounds,
	)
	if err != nil {
		return
	}
	defer rows.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	for rows.Next() {
		var issue int64
		if rows.Scan(&issue) == nil {
			s.rounds[issue] = true
		}
	}
}

func millis(t time.Time) int64 {
	return t.UnixMilli()
}

func nullMillis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
