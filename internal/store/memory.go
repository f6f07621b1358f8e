// In-memory implementation of the Store interface, used by tests and
// as a fallback when no database is configured. State is lost on
// restart. Concurrency-safe via a single mutex; every method is atomic
// with respect to the others, which is what the ledger needs.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wordseekbot/wordseek/internal/game"
)

type scoreKey struct {
	playerID int64
	chatID   int64
}

// counter is one windowed ledger row. Each period bucket carries the
// key of the period it was last written in.
type counter struct {
	today, week, month, allTime int
	dayKey, weekKey, monthKey   string
}

func (c *counter) bump(now time.Time) {
	if c.dayKey != dayKey(now) {
		c.today = 0
		c.dayKey = dayKey(now)
	}
	if c.weekKey != weekKey(now) {
		c.week = 0
		c.weekKey = weekKey(now)
	}
	if c.monthKey != monthKey(now) {
		c.month = 0
		c.monthKey = monthKey(now)
	}
	c.today++
	c.week++
	c.month++
	c.allTime++
}

// value reads a bucket, treating counts written under an older period
// key as zero.
func (c *counter) value(p Period, now time.Time) int {
	switch p {
	case PeriodToday:
		if c.dayKey != dayKey(now) {
			return 0
		}
		return c.today
	case PeriodWeek:
		if c.weekKey != weekKey(now) {
			return 0
		}
		return c.week
	case PeriodMonth:
		if c.monthKey != monthKey(now) {
			return 0
		}
		return c.month
	default:
		return c.allTime
	}
}

type playerRecord struct {
	gamesPlayed  int
	wins         int
	totalGuesses int
	achievements []string
	unlocked     map[string]struct{}
}

// Memory is a map-backed Store.
type Memory struct {
	mu     sync.Mutex
	games  map[int64]*game.Session
	scores map[scoreKey]*counter
	order  []scoreKey // ledger row insertion order, for stable ties
	stats  map[int64]*playerRecord
	bot    BotStats
}

// NewMemory constructs an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{
		games:  make(map[int64]*game.Session),
		scores: make(map[scoreKey]*counter),
		stats:  make(map[int64]*playerRecord),
	}
}

func (m *Memory) InsertGame(_ context.Context, s *game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.games[s.ChatID]; exists {
		return ErrSessionExists
	}
	m.games[s.ChatID] = s.Clone()
	return nil
}

func (m *Memory) SaveGame(_ context.Context, s *game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.games[s.ChatID]; !exists {
		return ErrSessionNotFound
	}
	m.games[s.ChatID] = s.Clone()
	return nil
}

func (m *Memory) DeleteGame(_ context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.games, chatID)
	return nil
}

func (m *Memory) LoadGame(_ context.Context, chatID int64) (*game.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.games[chatID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (m *Memory) counterFor(playerID, chatID int64) *counter {
	key := scoreKey{playerID, chatID}
	c, ok := m.scores[key]
	if !ok {
		c = &counter{}
		m.scores[key] = c
		m.order = append(m.order, key)
	}
	return c
}

func (m *Memory) playerFor(playerID int64) *playerRecord {
	p, ok := m.stats[playerID]
	if !ok {
		p = &playerRecord{unlocked: make(map[string]struct{})}
		m.stats[playerID] = p
	}
	return p
}

func (m *Memory) RecordWin(_ context.Context, playerID, chatID int64, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counterFor(playerID, chatID).bump(now)
	m.counterFor(playerID, globalChatID).bump(now)
	m.playerFor(playerID).wins++
	return nil
}

func (m *Memory) Score(_ context.Context, playerID, chatID int64, scope Scope, period Period, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := scoreKey{playerID, chatID}
	if scope == ScopeGlobal {
		key.chatID = globalChatID
	}
	c, ok := m.scores[key]
	if !ok {
		return 0, nil
	}
	return c.value(period, now), nil
}

func (m *Memory) ranked(scope Scope, chatID int64, period Period, now time.Time) []Entry {
	if scope == ScopeGlobal {
		chatID = globalChatID
	}
	var out []Entry
	for _, key := range m.order {
		if key.chatID != chatID {
			continue
		}
		if v := m.scores[key].value(period, now); v > 0 {
			out = append(out, Entry{PlayerID: key.playerID, Score: v})
		}
	}
	// Stable: equal scores keep ledger insertion order.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

func (m *Memory) RankedPage(_ context.Context, scope Scope, chatID int64, period Period, now time.Time, offset, limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.ranked(scope, chatID, period, now)
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *Memory) CountRanked(_ context.Context, scope Scope, chatID int64, period Period, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ranked(scope, chatID, period, now)), nil
}

func (m *Memory) RecordGuesses(_ context.Context, playerID int64, n int, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playerFor(playerID).totalGuesses += n
	m.bot.GuessesMade += int64(n)
	m.bot.LastUpdated = now
	return nil
}

func (m *Memory) RecordGamePlayed(_ context.Context, playerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playerFor(playerID).gamesPlayed++
	return nil
}

func (m *Memory) PlayerStats(_ context.Context, playerID int64) (PlayerStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.stats[playerID]
	if !ok {
		return PlayerStats{PlayerID: playerID}, nil
	}
	return PlayerStats{
		PlayerID:     playerID,
		GamesPlayed:  p.gamesPlayed,
		Wins:         p.wins,
		TotalGuesses: p.totalGuesses,
		Achievements: append([]string(nil), p.achievements...),
	}, nil
}

func (m *Memory) UnlockAchievement(_ context.Context, playerID int64, id string, _ time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.playerFor(playerID)
	if _, done := p.unlocked[id]; done {
		return false, nil
	}
	p.unlocked[id] = struct{}{}
	p.achievements = append(p.achievements, id)
	return true, nil
}

func (m *Memory) RecordGameStarted(_ context.Context, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bot.GamesStarted++
	m.bot.LastUpdated = now
	return nil
}

func (m *Memory) BotStats(_ context.Context) (BotStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bot, nil
}
