package score

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/wordseekbot/wordseek/internal/game"
	"github.com/wordseekbot/wordseek/internal/store"
)

var ctx = context.Background()

func fixedClock() func() time.Time {
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func TestRecordWinCreditsBothScopes(t *testing.T) {
	st := store.NewMemory()
	l := NewLedger(st, fixedClock())

	if err := l.RecordWin(ctx, 1, 42, game.ModeStandard, ""); err != nil {
		t.Fatal(err)
	}

	group, err := l.Score(ctx, 1, 42, store.ScopeGroup, store.PeriodToday)
	if err != nil || group != 1 {
		t.Fatalf("group score = (%d, %v), want 1", group, err)
	}
	global, err := l.Score(ctx, 1, 0, store.ScopeGlobal, store.PeriodToday)
	if err != nil || global != 1 {
		t.Fatalf("global score = (%d, %v), want 1", global, err)
	}
}

func TestCompetitiveAndTeamScoreLikeStandard(t *testing.T) {
	st := store.NewMemory()
	l := NewLedger(st, fixedClock())

	if err := l.RecordWin(ctx, 1, 42, game.ModeCompetitive, ""); err != nil {
		t.Fatal(err)
	}
	if err := l.RecordWin(ctx, 1, 42, game.ModeTeam, game.Team2); err != nil {
		t.Fatal(err)
	}

	n, err := l.Score(ctx, 1, 42, store.ScopeGroup, store.PeriodAllTime)
	if err != nil || n != 2 {
		t.Fatalf("score = (%d, %v), want 2 regardless of mode", n, err)
	}
}

func TestCheckAchievementsFirstWin(t *testing.T) {
	st := store.NewMemory()
	l := NewLedger(st, fixedClock())

	if err := l.RecordWin(ctx, 1, 42, game.ModeStandard, ""); err != nil {
		t.Fatal(err)
	}
	got, err := l.CheckAchievements(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"First Win"}) {
		t.Fatalf("unlocked = %v, want [First Win]", got)
	}

	// Idempotent: nothing new without further progress.
	got, err = l.CheckAchievements(ctx, 1)
	if err != nil || len(got) != 0 {
		t.Fatalf("repeat check = (%v, %v), want empty", got, err)
	}
}

func TestCheckAchievementsThresholds(t *testing.T) {
	st := store.NewMemory()
	l := NewLedger(st, fixedClock())

	for i := 0; i < 10; i++ {
		if err := l.RecordWin(ctx, 1, 42, game.ModeStandard, ""); err != nil {
			t.Fatal(err)
		}
	}
	if err := l.RecordGuess(ctx, 1, 100); err != nil {
		t.Fatal(err)
	}

	got, err := l.CheckAchievements(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"First Win", "Deca-Winner", "Guess Master"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unlocked = %v, want %v", got, want)
	}
}

func TestAchievementName(t *testing.T) {
	if got := AchievementName("first_win"); got != "First Win" {
		t.Fatalf("AchievementName = %q", got)
	}
	// Unknown ids from older data pass through.
	if got := AchievementName("legacy_badge"); got != "legacy_badge" {
		t.Fatalf("AchievementName(legacy) = %q", got)
	}
}

func TestParticipationAndGuessStats(t *testing.T) {
	st := store.NewMemory()
	l := NewLedger(st, fixedClock())

	if err := l.RecordParticipation(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if err := l.RecordGuess(ctx, 1, 3); err != nil {
		t.Fatal(err)
	}

	stats, err := l.Stats(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if stats.GamesPlayed != 1 || stats.TotalGuesses != 3 {
		t.Fatalf("stats = %+v", stats)
	}
}
