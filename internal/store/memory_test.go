package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wordseekbot/wordseek/internal/game"
)

var ctx = context.Background()

func testSession(chatID int64) *game.Session {
	return game.NewSession(chatID, "apple", game.DefaultSettings(), time.Unix(1000, 0))
}

func TestMemorySessionLifecycle(t *testing.T) {
	m := NewMemory()
	s := testSession(42)

	if err := m.InsertGame(ctx, s); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := m.InsertGame(ctx, s); !errors.Is(err, ErrSessionExists) {
		t.Fatalf("duplicate insert: %v, want ErrSessionExists", err)
	}

	loaded, err := m.LoadGame(ctx, 42)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Word != "apple" || loaded.ChatID != 42 {
		t.Fatalf("loaded = %+v", loaded)
	}
	// Stored copy is isolated from caller mutation.
	loaded.State = game.StateWon
	again, _ := m.LoadGame(ctx, 42)
	if again.State != game.StateActive {
		t.Fatal("mutation of loaded session leaked into store")
	}

	s.State = game.StateWon
	if err := m.SaveGame(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := m.SaveGame(ctx, testSession(7)); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("save unknown chat: %v, want ErrSessionNotFound", err)
	}

	if err := m.DeleteGame(ctx, 42); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.LoadGame(ctx, 42); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("load after delete: %v, want ErrSessionNotFound", err)
	}
	// Deleting an absent session is not an error.
	if err := m.DeleteGame(ctx, 42); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestMemoryRecordWinScopes(t *testing.T) {
	m := NewMemory()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	if err := m.RecordWin(ctx, 1, 42, now); err != nil {
		t.Fatal(err)
	}
	if err := m.RecordWin(ctx, 1, 99, now); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		chatID int64
		scope  Scope
		want   int
	}{
		{"group chat 42", 42, ScopeGroup, 1},
		{"group chat 99", 99, ScopeGroup, 1},
		{"group other chat", 7, ScopeGroup, 0},
		{"global sums chats", 0, ScopeGlobal, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Score(ctx, 1, tt.chatID, tt.scope, PeriodAllTime, now)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Fatalf("score = %d, want %d", got, tt.want)
			}
		})
	}

	stats, _ := m.PlayerStats(ctx, 1)
	if stats.Wins != 2 {
		t.Fatalf("wins = %d, want 2", stats.Wins)
	}
}

func TestMemoryPeriodRollover(t *testing.T) {
	m := NewMemory()
	day1 := time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC) // Tuesday
	day2 := day1.Add(24 * time.Hour)                      // Wednesday, same ISO week
	nextMonth := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

	if err := m.RecordWin(ctx, 1, 42, day1); err != nil {
		t.Fatal(err)
	}

	read := func(p Period, now time.Time) int {
		t.Helper()
		n, err := m.Score(ctx, 1, 42, ScopeGroup, p, now)
		if err != nil {
			t.Fatal(err)
		}
		return n
	}

	if got := read(PeriodToday, day1); got != 1 {
		t.Fatalf("today on day1 = %d, want 1", got)
	}
	if got := read(PeriodToday, day2); got != 0 {
		t.Fatalf("today on day2 = %d, want 0 after rollover", got)
	}
	if got := read(PeriodWeek, day2); got != 1 {
		t.Fatalf("week on day2 = %d, want 1 (same ISO week)", got)
	}
	if got := read(PeriodMonth, nextMonth); got != 0 {
		t.Fatalf("month next month = %d, want 0", got)
	}
	if got := read(PeriodAllTime, nextMonth); got != 1 {
		t.Fatalf("all_time = %d, want 1; never resets", got)
	}

	// A write after the boundary restarts the stale bucket at 1.
	if err := m.RecordWin(ctx, 1, 42, day2); err != nil {
		t.Fatal(err)
	}
	if got := read(PeriodToday, day2); got != 1 {
		t.Fatalf("today after day2 win = %d, want 1", got)
	}
	if got := read(PeriodWeek, day2); got != 2 {
		t.Fatalf("week after day2 win = %d, want 2", got)
	}
	if got := read(PeriodAllTime, day2); got != 2 {
		t.Fatalf("all_time after day2 win = %d, want 2", got)
	}
}

func TestMemoryRankedOrderAndPaging(t *testing.T) {
	m := NewMemory()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// player 1: 3 wins, players 2 and 3: 1 win each (2 recorded first).
	for i := 0; i < 3; i++ {
		if err := m.RecordWin(ctx, 1, 42, now); err != nil {
			t.Fatal(err)
		}
	}
	if err := m.RecordWin(ctx, 2, 42, now); err != nil {
		t.Fatal(err)
	}
	if err := m.RecordWin(ctx, 3, 42, now); err != nil {
		t.Fatal(err)
	}

	page, err := m.RankedPage(ctx, ScopeGroup, 42, PeriodAllTime, now, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	wantOrder := []int64{1, 2, 3}
	if len(page) != 3 {
		t.Fatalf("entries = %d, want 3", len(page))
	}
	for i, want := range wantOrder {
		if page[i].PlayerID != want {
			t.Fatalf("entry %d player = %d, want %d (ties keep first-seen order)", i, page[i].PlayerID, want)
		}
	}
	if page[0].Score != 3 || page[1].Score != 1 {
		t.Fatalf("scores = %d,%d, want 3,1", page[0].Score, page[1].Score)
	}

	page, err = m.RankedPage(ctx, ScopeGroup, 42, PeriodAllTime, now, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].PlayerID != 3 {
		t.Fatalf("offset page = %+v, want single entry for player 3", page)
	}

	page, _ = m.RankedPage(ctx, ScopeGroup, 42, PeriodAllTime, now, 10, 5)
	if len(page) != 0 {
		t.Fatalf("out-of-range page = %+v, want empty", page)
	}

	total, err := m.CountRanked(ctx, ScopeGroup, 42, PeriodAllTime, now)
	if err != nil || total != 3 {
		t.Fatalf("CountRanked = (%d, %v), want 3", total, err)
	}

	// Zero entries are excluded: a different period with no activity.
	later := now.Add(48 * time.Hour)
	total, _ = m.CountRanked(ctx, ScopeGroup, 42, PeriodToday, later)
	if total != 0 {
		t.Fatalf("stale period CountRanked = %d, want 0", total)
	}
}

func TestMemoryAchievementsUnlockOnce(t *testing.T) {
	m := NewMemory()
	now := time.Unix(1000, 0)

	fresh, err := m.UnlockAchievement(ctx, 1, "first_win", now)
	if err != nil || !fresh {
		t.Fatalf("first unlock = (%v, %v), want (true, nil)", fresh, err)
	}
	fresh, err = m.UnlockAchievement(ctx, 1, "first_win", now)
	if err != nil || fresh {
		t.Fatalf("repeat unlock = (%v, %v), want (false, nil)", fresh, err)
	}

	stats, _ := m.PlayerStats(ctx, 1)
	if len(stats.Achievements) != 1 || stats.Achievements[0] != "first_win" {
		t.Fatalf("achievements = %v, want [first_win]", stats.Achievements)
	}
}

func TestMemoryBotStats(t *testing.T) {
	m := NewMemory()
	now := time.Unix(1000, 0)

	for i := 0; i < 3; i++ {
		if err := m.RecordGameStarted(ctx, now); err != nil {
			t.Fatal(err)
		}
	}
	if err := m.RecordGuesses(ctx, 1, 4, now); err != nil {
		t.Fatal(err)
	}

	bot, err := m.BotStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if bot.GamesStarted != 3 || bot.GuessesMade != 4 {
		t.Fatalf("bot stats = %+v", bot)
	}

	stats, _ := m.PlayerStats(ctx, 1)
	if stats.TotalGuesses != 4 {
		t.Fatalf("total guesses = %d, want 4", stats.TotalGuesses)
	}
}

func TestMemoryConcurrentWins(t *testing.T) {
	m := NewMemory()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.RecordWin(ctx, 1, 42, now); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	got, err := m.Score(ctx, 1, 42, ScopeGroup, PeriodAllTime, now)
	if err != nil {
		t.Fatal(err)
	}
	if got != n {
		t.Fatalf("score after %d concurrent wins = %d", n, got)
	}
	got, _ = m.Score(ctx, 1, 0, ScopeGlobal, PeriodAllTime, now)
	if got != n {
		t.Fatalf("global score = %d, want %d", got, n)
	}
}

func TestPeriodKeys(t *testing.T) {
	// Jan 1 2027 falls in ISO week 53 of 2026.
	t1 := time.Date(2027, 1, 1, 10, 0, 0, 0, time.UTC)
	if got := weekKey(t1); got != "2026-W53" {
		t.Fatalf("weekKey = %q, want 2026-W53", got)
	}
	if got := dayKey(t1); got != "2027-01-01" {
		t.Fatalf("dayKey = %q", got)
	}
	if got := monthKey(t1); got != "2027-01" {
		t.Fatalf("monthKey = %q", got)
	}

	// Keys are computed in UTC regardless of the input location.
	offset := time.FixedZone("UTC+10", 10*3600)
	late := time.Date(2026, 3, 11, 8, 0, 0, 0, offset) // 2026-03-10 22:00 UTC
	if got := dayKey(late); got != "2026-03-10" {
		t.Fatalf("dayKey in UTC+10 = %q, want 2026-03-10", got)
	}
}

func TestParsePeriodAndScope(t *testing.T) {
	if p, ok := ParsePeriod("all"); !ok || p != PeriodAllTime {
		t.Fatalf(`ParsePeriod("all") = (%q, %v)`, p, ok)
	}
	if _, ok := ParsePeriod("fortnight"); ok {
		t.Fatal("unknown period accepted")
	}
	if s, ok := ParseScope("global"); !ok || s != ScopeGlobal {
		t.Fatalf(`ParseScope("global") = (%q, %v)`, s, ok)
	}
	if _, ok := ParseScope("universe"); ok {
		t.Fatal("unknown scope accepted")
	}
}
