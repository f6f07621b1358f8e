// SQLite implementation of the Store interface.
//
// Counter updates are single UPDATE statements (or short transactions),
// so increments are atomic and never lose concurrent writes. Period
// buckets pair each count with the period key it was written under;
// the UPDATE resets a bucket whose key is stale before incrementing,
// and reads treat stale buckets as zero.
//
// Sessions are stored as one row per chat with a JSON snapshot, an
// explicit serialization of the session record, keyed by chat_id with
// a primary-key uniqueness constraint providing insert-if-absent.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/wordseekbot/wordseek/internal/game"
)

// SQLite is a Store backed by a *sql.DB opened with the sqlite3 driver.
type SQLite struct {
	db *sql.DB
}

// NewSQLite wraps db and applies the schema migrations.
func NewSQLite(db *sql.DB) (*SQLite, error) {
	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS games (
			chat_id INTEGER PRIMARY KEY,
			state TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS scores (
			player_id INTEGER NOT NULL,
			chat_id INTEGER NOT NULL,
			today INTEGER NOT NULL DEFAULT 0,
			day_key TEXT NOT NULL DEFAULT '',
			week INTEGER NOT NULL DEFAULT 0,
			week_key TEXT NOT NULL DEFAULT '',
			month INTEGER NOT NULL DEFAULT 0,
			month_key TEXT NOT NULL DEFAULT '',
			all_time INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (player_id, chat_id)
		)`,
		`CREATE TABLE IF NOT EXISTS stats (
			player_id INTEGER PRIMARY KEY,
			games_played INTEGER NOT NULL DEFAULT 0,
			wins INTEGER NOT NULL DEFAULT 0,
			total_guesses INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS achievements (
			player_id INTEGER NOT NULL,
			achievement TEXT NOT NULL,
			unlocked_at TEXT NOT NULL,
			PRIMARY KEY (player_id, achievement)
		)`,
		`CREATE TABLE IF NOT EXISTS bot_stats (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			games_started INTEGER NOT NULL DEFAULT 0,
			guesses_made INTEGER NOT NULL DEFAULT 0,
			last_updated TEXT NOT NULL
		)`,
		`INSERT OR IGNORE INTO bot_stats (id, games_started, guesses_made, last_updated)
			VALUES (1, 0, 0, '')`,
		`CREATE INDEX IF NOT EXISTS idx_scores_chat ON scores(chat_id)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// ------------------------------ sessions -----------------------------------

func (s *SQLite) InsertGame(ctx context.Context, g *game.Session) error {
	snap, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO games (chat_id, state, created_at) VALUES (?,?,?)`,
		g.ChatID, string(snap), g.CreatedAt.UTC().Format(time.RFC3339))
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return ErrSessionExists
	}
	return err
}

func (s *SQLite) SaveGame(ctx context.Context, g *game.Session) error {
	snap, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE games SET state=? WHERE chat_id=?`, string(snap), g.ChatID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *SQLite) DeleteGame(ctx context.Context, chatID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM games WHERE chat_id=?`, chatID)
	return err
}

func (s *SQLite) LoadGame(ctx context.Context, chatID int64) (*game.Session, error) {
	var snap string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM games WHERE chat_id=?`, chatID).Scan(&snap)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var g game.Session
	if err := json.Unmarshal([]byte(snap), &g); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &g, nil
}

// ----------------------------- score ledger --------------------------------

// bumpCounters increments all four buckets of one ledger row, resetting
// any bucket whose stored period key is stale.
func bumpCounters(ctx context.Context, tx *sql.Tx, playerID, chatID int64, now time.Time) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO scores (player_id, chat_id) VALUES (?,?)`,
		playerID, chatID); err != nil {
		return err
	}
	dk, wk, mk := dayKey(now), weekKey(now), monthKey(now)
	_, err := tx.ExecContext(ctx, `
		UPDATE scores SET
			today    = CASE WHEN day_key   = ? THEN today + 1 ELSE 1 END,
			day_key  = ?,
			week     = CASE WHEN week_key  = ? THEN week  + 1 ELSE 1 END,
			week_key = ?,
			month    = CASE WHEN month_key = ? THEN month + 1 ELSE 1 END,
			month_key = ?,
			all_time = all_time + 1
		WHERE player_id=? AND chat_id=?`,
		dk, dk, wk, wk, mk, mk, playerID, chatID)
	return err
}

func (s *SQLite) RecordWin(ctx context.Context, playerID, chatID int64, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := bumpCounters(ctx, tx, playerID, chatID, now); err != nil {
		return fmt.Errorf("chat counters: %w", err)
	}
	if err := bumpCounters(ctx, tx, playerID, globalChatID, now); err != nil {
		return fmt.Errorf("global counters: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO stats (player_id) VALUES (?)`, playerID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE stats SET wins = wins + 1 WHERE player_id=?`, playerID); err != nil {
		return err
	}
	return tx.Commit()
}

// periodColumn maps a period to its count and key columns. The period
// is an enum, never user text, so interpolation is safe.
func periodColumn(p Period) (col, keyCol string) {
	switch p {
	case PeriodToday:
		return "today", "day_key"
	case PeriodWeek:
		return "week", "week_key"
	case PeriodMonth:
		return "month", "month_key"
	default:
		return "all_time", ""
	}
}

// liveCount builds a SELECT expression that reads a bucket as zero when
// its period key is stale.
func liveCount(p Period, now time.Time) (expr string, args []any) {
	col, keyCol := periodColumn(p)
	if keyCol == "" {
		return col, nil
	}
	return fmt.Sprintf("CASE WHEN %s = ? THEN %s ELSE 0 END", keyCol, col),
		[]any{periodKey(p, now)}
}

func (s *SQLite) Score(ctx context.Context, playerID, chatID int64, scope Scope, period Period, now time.Time) (int, error) {
	if scope == ScopeGlobal {
		chatID = globalChatID
	}
	expr, args := liveCount(period, now)
	args = append(args, playerID, chatID)
	var score int
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM scores WHERE player_id=? AND chat_id=?`, expr),
		args...).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return score, err
}

func (s *SQLite) RankedPage(ctx context.Context, scope Scope, chatID int64, period Period, now time.Time, offset, limit int) ([]Entry, error) {
	if scope == ScopeGlobal {
		chatID = globalChatID
	}
	expr, kargs := liveCount(period, now)
	// rowid preserves ledger insertion order, keeping ties stable
	// across repeated queries.
	q := fmt.Sprintf(`
		SELECT player_id, %s AS score FROM scores
		WHERE chat_id = ? AND %s > 0
		ORDER BY score DESC, rowid ASC
		LIMIT ? OFFSET ?`, expr, expr)
	args := append(append([]any{}, kargs...), chatID)
	args = append(args, kargs...)
	args = append(args, limit, offset)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.PlayerID, &e.Score); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLite) CountRanked(ctx context.Context, scope Scope, chatID int64, period Period, now time.Time) (int, error) {
	if scope == ScopeGlobal {
		chatID = globalChatID
	}
	expr, kargs := liveCount(period, now)
	q := fmt.Sprintf(`SELECT COUNT(1) FROM scores WHERE chat_id = ? AND %s > 0`, expr)
	args := append([]any{chatID}, kargs...)
	var n int
	err := s.db.QueryRowContext(ctx, q, args...).Scan(&n)
	return n, err
}

// ------------------------- stats & achievements ----------------------------

func (s *SQLite) RecordGuesses(ctx context.Context, playerID int64, n int, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO stats (player_id) VALUES (?)`, playerID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE stats SET total_guesses = total_guesses + ? WHERE player_id=?`,
		n, playerID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE bot_stats SET guesses_made = guesses_made + ?, last_updated = ? WHERE id=1`,
		n, now.UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) RecordGamePlayed(ctx context.Context, playerID int64) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO stats (player_id) VALUES (?)`, playerID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE stats SET games_played = games_played + 1 WHERE player_id=?`, playerID)
	return err
}

func (s *SQLite) PlayerStats(ctx context.Context, playerID int64) (PlayerStats, error) {
	ps := PlayerStats{PlayerID: playerID}
	err := s.db.QueryRowContext(ctx,
		`SELECT games_played, wins, total_guesses FROM stats WHERE player_id=?`,
		playerID).Scan(&ps.GamesPlayed, &ps.Wins, &ps.TotalGuesses)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return ps, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT achievement FROM achievements WHERE player_id=? ORDER BY unlocked_at ASC, rowid ASC`,
		playerID)
	if err != nil {
		return ps, err
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return ps, err
		}
		ps.Achievements = append(ps.Achievements, id)
	}
	return ps, rows.Err()
}

func (s *SQLite) UnlockAchievement(ctx context.Context, playerID int64, id string, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO achievements (player_id, achievement, unlocked_at) VALUES (?,?,?)`,
		playerID, id, now.UTC().Format(time.RFC3339))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ------------------------------ bot stats ----------------------------------

func (s *SQLite) RecordGameStarted(ctx context.Context, now time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE bot_stats SET games_started = games_started + 1, last_updated = ? WHERE id=1`,
		now.UTC().Format(time.RFC3339))
	return err
}

func (s *SQLite) BotStats(ctx context.Context) (BotStats, error) {
	var b BotStats
	var updated string
	err := s.db.QueryRowContext(ctx,
		`SELECT games_started, guesses_made, last_updated FROM bot_stats WHERE id=1`).
		Scan(&b.GamesStarted, &b.GuessesMade, &updated)
	if err != nil {
		return b, err
	}
	if updated != "" {
		if t, perr := time.Parse(time.RFC3339, updated); perr == nil {
			b.LastUpdated = t
		}
	}
	return b, nil
}

var _ Store = (*SQLite)(nil)
var _ Store = (*Memory)(nil)
