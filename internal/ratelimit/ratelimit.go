// Per-player guess cooldown, independent of chat and game state.
//
// The gate arms only when a guess is allowed: the allowed guess starts
// the window, and further guesses from the same player are rejected
// until it elapses. When a shared redis store is configured the window
// lives there (SET NX with TTL), giving cross-instance consistency; if
// redis is unreachable the limiter degrades to an in-process map with
// identical per-instance semantics. That degradation costs capacity,
// not correctness, so it is logged and survived rather than surfaced
// to the player.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DefaultWindow is the stock cooldown between guesses from one player.
const DefaultWindow = 2 * time.Second

// Limiter is a per-player cooldown gate.
type Limiter struct {
	window time.Duration
	rdb    redis.Cmdable // nil means local-only
	now    func() time.Time

	mu   sync.Mutex
	last map[int64]time.Time
}

// New constructs a Limiter. A nil client or a nil clock fall back to
// local-only limiting and time.Now respectively; window <= 0 uses
// DefaultWindow.
func New(client redis.Cmdable, window time.Duration, now func() time.Time) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if now == nil {
		now = time.Now
	}
	return &Limiter{
		window: window,
		rdb:    client,
		now:    now,
		last:   make(map[int64]time.Time),
	}
}

// Allow reports whether the player may guess now. A true result arms
// the gate for the cooldown window.
func (l *Limiter) Allow(ctx context.Context, playerID int64) bool {
	if l.rdb != nil {
		ok, err := l.rdb.SetNX(ctx, key(playerID), 1, l.window).Result()
		if err == nil {
			return ok
		}
		log.Warn().Err(err).Int64("player", playerID).
			Msg("rate limit store unavailable, using local limiter")
	}
	return l.allowLocal(playerID)
}

func (l *Limiter) allowLocal(playerID int64) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if armed, ok := l.last[playerID]; ok && now.Sub(armed) < l.window {
		return false
	}
	l.last[playerID] = now
	return true
}

func key(playerID int64) string {
	return fmt.Sprintf("wordseek:guess:%d", playerID)
}
