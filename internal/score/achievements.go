package score

import (
	"context"

	"github.com/wordseekbot/wordseek/internal/store"
)

// Achievement pairs a stable id with a display name and a predicate
// over a player's stats snapshot. Predicates are pure; unlocking is
// idempotent because the store records the id at most once.
type Achievement struct {
	ID       string
	Name     string
	Unlocked func(store.PlayerStats) bool
}

// Registered achievements, evaluated in order.
var achievements = []Achievement{
	{ID: "first_win", Name: "First Win", Unlocked: func(s store.PlayerStats) bool { return s.Wins >= 1 }},
	{ID: "ten_wins", Name: "Deca-Winner", Unlocked: func(s store.PlayerStats) bool { return s.Wins >= 10 }},
	{ID: "hundred_guesses", Name: "Guess Master", Unlocked: func(s store.PlayerStats) bool { return s.TotalGuesses >= 100 }},
}

// AchievementName resolves an achievement id to its display name; ids
// unknown to this build (from older data) pass through unchanged.
func AchievementName(id string) string {
	for _, a := range achievements {
		if a.ID == id {
			return a.Name
		}
	}
	return id
}

// CheckAchievements evaluates every registered predicate against the
// player's current stats and unlocks the ones that newly hold,
// returning their display names. A second call right after returns
// nothing.
func (l *Ledger) CheckAchievements(ctx context.Context, playerID int64) ([]string, error) {
	stats, err := l.store.PlayerStats(ctx, playerID)
	if err != nil {
		return nil, err
	}
	var unlocked []string
	for _, a := range achievements {
		if !a.Unlocked(stats) {
			continue
		}
		fresh, err := l.store.UnlockAchievement(ctx, playerID, a.ID, l.now())
		if err != nil {
			return unlocked, err
		}
		if fresh {
			unlocked = append(unlocked, a.Name)
		}
	}
	return unlocked, nil
}
