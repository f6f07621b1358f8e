// Score ledger: the single writer for win counters, player stats, and
// the bot-wide aggregate. Period-bucket membership is derived from the
// wall clock at every write, never from a cached boundary, so the
// ledger stays correct across midnight/week/month rollovers in a
// long-running process.
package score

import (
	"context"
	"fmt"
	"time"

	"github.com/wordseekbot/wordseek/internal/game"
	"github.com/wordseekbot/wordseek/internal/store"
)

// Ledger wraps the durable store with scoring semantics.
type Ledger struct {
	store store.Store
	now   func() time.Time
}

// NewLedger constructs a Ledger. A nil clock uses time.Now.
func NewLedger(st store.Store, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{store: st, now: now}
}

// RecordWin credits a win to the player: all four period buckets for
// both the chat-scoped and global counters plus the player's win
// count, in one atomic store write. Mode and team are accepted for
// symmetry with the session outcome; competitive mode scores like
// standard, and team credit is carried on the session itself.
func (l *Ledger) RecordWin(ctx context.Context, playerID, chatID int64, _ game.Mode, _ string) error {
	if err := l.store.RecordWin(ctx, playerID, chatID, l.now()); err != nil {
		return fmt.Errorf("record win: %w", err)
	}
	return nil
}

// RecordGuess adds n to the player's total guesses and the bot-wide
// guess aggregate.
func (l *Ledger) RecordGuess(ctx context.Context, playerID int64, n int) error {
	if err := l.store.RecordGuesses(ctx, playerID, n, l.now()); err != nil {
		return fmt.Errorf("record guess: %w", err)
	}
	return nil
}

// RecordParticipation bumps the player's games-played count; the
// registry calls it once per session, on the player's first guess.
func (l *Ledger) RecordParticipation(ctx context.Context, playerID int64) error {
	if err := l.store.RecordGamePlayed(ctx, playerID); err != nil {
		return fmt.Errorf("record participation: %w", err)
	}
	return nil
}

// RecordGameStarted bumps the bot-wide games-started aggregate.
func (l *Ledger) RecordGameStarted(ctx context.Context) error {
	return l.store.RecordGameStarted(ctx, l.now())
}

// Score reads a single player's count for a scope and period.
func (l *Ledger) Score(ctx context.Context, playerID, chatID int64, scope store.Scope, period store.Period) (int, error) {
	return l.store.Score(ctx, playerID, chatID, scope, period, l.now())
}

// Stats reads the player's stats snapshot.
func (l *Ledger) Stats(ctx context.Context, playerID int64) (store.PlayerStats, error) {
	return l.store.PlayerStats(ctx, playerID)
}
