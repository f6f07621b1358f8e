// Persistence contracts for game sessions, the score ledger, player
// stats, and the process-wide bot aggregate.
//
// Implementations must provide atomic counter increments (no
// read-modify-write races) and insert-if-absent semantics for the
// one-session-per-chat constraint. Period buckets are windowed by the
// wall clock at write time: each bucket remembers the period key it
// was written under and resets when a write arrives in a new period,
// so counts never leak across day/week/month rollovers.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wordseekbot/wordseek/internal/game"
)

// Infrastructure errors, distinct from the game-logic taxonomy.
var (
	ErrSessionExists   = errors.New("session already stored for chat")
	ErrSessionNotFound = errors.New("session not found")
)

// Period selects a score ledger bucket.
type Period string

const (
	PeriodToday   Period = "today"
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodAllTime Period = "all_time"
)

// ParsePeriod validates a period string; "all" and the empty string
// mean all-time.
func ParsePeriod(s string) (Period, bool) {
	switch s {
	case "", "all", "all_time":
		return PeriodAllTime, true
	case "today":
		return PeriodToday, true
	case "week":
		return PeriodWeek, true
	case "month":
		return PeriodMonth, true
	}
	return "", false
}

// Scope selects per-chat ("group") or cross-chat ("global") counters.
type Scope string

const (
	ScopeGroup  Scope = "group"
	ScopeGlobal Scope = "global"
)

// ParseScope validates a scope string; the empty string means group.
func ParseScope(s string) (Scope, bool) {
	switch s {
	case "", "group":
		return ScopeGroup, true
	case "global":
		return ScopeGlobal, true
	}
	return "", false
}

// Entry is one ranked ledger row.
type Entry struct {
	PlayerID int64
	Score    int
}

// PlayerStats is a per-player stats snapshot.
type PlayerStats struct {
	PlayerID     int64
	GamesPlayed  int
	Wins         int
	TotalGuesses int
	Achievements []string
}

// BotStats is the single process-wide usage aggregate.
type BotStats struct {
	GamesStarted int64
	GuessesMade  int64
	LastUpdated  time.Time
}

// Store is the durable backing for all game records. Each method is
// atomic on its own; RecordWin covers both ledger scopes and the
// player's win counter in one transaction.
type Store interface {
	// Sessions. InsertGame fails with ErrSessionExists when the chat
	// already has one; SaveGame fails with ErrSessionNotFound when it
	// does not. There is no upsert path.
	InsertGame(ctx context.Context, s *game.Session) error
	SaveGame(ctx context.Context, s *game.Session) error
	DeleteGame(ctx context.Context, chatID int64) error
	LoadGame(ctx context.Context, chatID int64) (*game.Session, error)

	// Score ledger. RecordWin increments all four period buckets for
	// the chat-scoped and the global counters plus the player's wins.
	RecordWin(ctx context.Context, playerID, chatID int64, now time.Time) error
	Score(ctx context.Context, playerID, chatID int64, scope Scope, period Period, now time.Time) (int, error)
	RankedPage(ctx context.Context, scope Scope, chatID int64, period Period, now time.Time, offset, limit int) ([]Entry, error)
	CountRanked(ctx context.Context, scope Scope, chatID int64, period Period, now time.Time) (int, error)

	// Player stats and achievements.
	RecordGuesses(ctx context.Context, playerID int64, n int, now time.Time) error
	RecordGamePlayed(ctx context.Context, playerID int64) error
	PlayerStats(ctx context.Context, playerID int64) (PlayerStats, error)
	// UnlockAchievement reports whether the id was newly added.
	UnlockAchievement(ctx context.Context, playerID int64, id string, now time.Time) (bool, error)

	// Bot aggregate.
	RecordGameStarted(ctx context.Context, now time.Time) error
	BotStats(ctx context.Context) (BotStats, error)
}

// globalChatID is the sentinel chat for global-scope ledger rows.
const globalChatID int64 = 0

// Period keys: the identity of the current day/ISO week/month in UTC.
// A bucket whose stored key differs from the current one is stale and
// resets on the next write, and reads as zero.

func dayKey(t time.Time) string { return t.UTC().Format("2006-01-02") }

func weekKey(t time.Time) string {
	y, w := t.UTC().ISOWeek()
	return fmt.Sprintf("%04d-W%02d", y, w)
}

func monthKey(t time.Time) string { return t.UTC().Format("2006-01") }

func periodKey(p Period, t time.Time) string {
	switch p {
	case PeriodToday:
		return dayKey(t)
	case PeriodWeek:
		return weekKey(t)
	case PeriodMonth:
		return monthKey(t)
	}
	return ""
}
