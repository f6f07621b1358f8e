// Leaderboard aggregation over the score ledger: filters entries with
// a positive count for the requested scope and period, sorts them
// descending, and serves fixed-size pages with global rank numbers.
// Ties keep ledger insertion order, so repeated queries over an
// unchanged ledger return a consistent ordering.
package leaderboard

import (
	"context"
	"time"

	"github.com/wordseekbot/wordseek/internal/store"
)

// DefaultPageSize matches the five-row pages shown in chat.
const DefaultPageSize = 5

// Entry is one ranked row with its global rank across all pages.
type Entry struct {
	Rank     int
	PlayerID int64
	Score    int
}

// Page is one leaderboard slice. An empty Entries with no error means
// "no scores yet", a valid outcome.
type Page struct {
	Entries []Entry
	HasPrev bool
	HasNext bool
}

// Aggregator ranks ledger entries by scope and period.
type Aggregator struct {
	store    store.Store
	pageSize int
	now      func() time.Time
}

// New constructs an Aggregator. pageSize <= 0 uses DefaultPageSize and
// a nil clock uses time.Now.
func New(st store.Store, pageSize int, now func() time.Time) *Aggregator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if now == nil {
		now = time.Now
	}
	return &Aggregator{store: st, pageSize: pageSize, now: now}
}

// Query returns the requested page (1-based; values below 1 are
// treated as page 1). Ranks are global: 1 + (page-1)*pageSize + offset
// within the page.
func (a *Aggregator) Query(ctx context.Context, scope store.Scope, chatID int64, period store.Period, page int) (Page, error) {
	if page < 1 {
		page = 1
	}
	now := a.now()
	offset := (page - 1) * a.pageSize

	rows, err := a.store.RankedPage(ctx, scope, chatID, period, now, offset, a.pageSize)
	if err != nil {
		return Page{}, err
	}
	total, err := a.store.CountRanked(ctx, scope, chatID, period, now)
	if err != nil {
		return Page{}, err
	}

	p := Page{
		HasPrev: page > 1,
		HasNext: total > page*a.pageSize,
	}
	for i, row := range rows {
		p.Entries = append(p.Entries, Entry{
			Rank:     offset + i + 1,
			PlayerID: row.PlayerID,
			Score:    row.Score,
		})
	}
	return p, nil
}
