package words

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultAPIBase = "https://api.datamuse.com/words"

// API fetches word lists from a Datamuse-style endpoint and caches
// them per length. Guesses are validated against everything fetched
// so far. Fetch failures surface as errors so a caller can fall back.
type API struct {
	base   string
	max    int
	client *http.Client

	mu    sync.RWMutex
	byLen map[int][]string
	set   map[string]struct{}
}

// NewAPI constructs an API source. An empty base uses the Datamuse
// endpoint; a nil client gets a 10s timeout default.
func NewAPI(base string, client *http.Client) *API {
	if base == "" {
		base = defaultAPIBase
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &API{
		base:   base,
		max:    1000,
		client: client,
		byLen:  make(map[int][]string),
		set:    make(map[string]struct{}),
	}
}

// WordsOfLength returns the cached list for length, fetching it from
// the remote service on first use.
func (a *API) WordsOfLength(ctx context.Context, length int) ([]string, error) {
	a.mu.RLock()
	cached, ok := a.byLen[length]
	a.mu.RUnlock()
	if ok {
		return cached, nil
	}

	fetched, err := a.fetch(ctx, length)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.byLen[length] = fetched
	for _, w := range fetched {
		a.set[w] = struct{}{}
	}
	a.mu.Unlock()

	log.Info().Int("length", length).Int("count", len(fetched)).Msg("fetched word list")
	return fetched, nil
}

// IsValid reports membership among all words fetched so far.
func (a *API) IsValid(word string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.set[strings.ToLower(word)]
	return ok
}

func (a *API) fetch(ctx context.Context, length int) ([]string, error) {
	q := url.Values{}
	q.Set("sp", strings.Repeat("?", length))
	q.Set("max", fmt.Sprint(a.max))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.base+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch words: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch words: unexpected status %d", resp.StatusCode)
	}

	var payload []struct {
		Word string `json:"word"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode words: %w", err)
	}

	out := make([]string, 0, len(payload))
	seen := make(map[string]struct{}, len(payload))
	for _, p := range payload {
		w := strings.ToLower(p.Word)
		if len(w) != length || !isAlpha(w) {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out, nil
}
