// Session state machine for one chat's active game.
// Responsibilities:
//   - Hold the target word, settings, roster, guess log, teams, bans.
//   - Validate and score guesses (length, alphabetic, ban, word list).
//   - Track state transitions: active → won/exhausted/timed_out/ended.
//
// EvaluateGuess and Apply are split so the caller can compute the full
// outcome, persist it, and only then mutate state; a failed persistence
// write leaves the session untouched and the guess retryable. The
// session itself is not goroutine-safe; the registry serializes all
// mutation per chat.
package game

import (
	"strings"
	"time"
)

// Session is the state for a single chat-scoped game.
type Session struct {
	ChatID    int64                         `json:"chatId"`
	Word      string                        `json:"word"` // target; revealed only on resolution
	Settings  Settings                      `json:"settings"`
	Guesses   []Guess                       `json:"guesses"`
	Players   map[int64]struct{}            `json:"players"`
	Teams     map[string]map[int64]struct{} `json:"teams,omitempty"` // team mode only
	Banned    map[int64]struct{}            `json:"banned,omitempty"`
	CreatedAt time.Time                     `json:"createdAt"`
	State     State                         `json:"state"`
	Winner    int64                         `json:"winner,omitempty"`
	WinTeam   string                        `json:"winTeam,omitempty"`
}

// NewSession constructs an active session around a drawn target word.
func NewSession(chatID int64, word string, settings Settings, now time.Time) *Session {
	s := &Session{
		ChatID:    chatID,
		Word:      strings.ToLower(word),
		Settings:  settings,
		Guesses:   []Guess{},
		Players:   make(map[int64]struct{}),
		Banned:    make(map[int64]struct{}),
		CreatedAt: now,
		State:     StateActive,
	}
	if settings.Mode == ModeTeam {
		s.Teams = map[string]map[int64]struct{}{
			Team1: {},
			Team2: {},
		}
	}
	return s
}

// Outcome is the computed result of a guess, produced by EvaluateGuess
// and applied by Apply. It carries everything the caller needs for
// scoring and message rendering.
type Outcome struct {
	PlayerID  int64
	Word      string // normalized guess text
	Hint      []Mark
	Win       bool
	Team      string // team this guess joins, team mode only
	NewPlayer bool   // first guess by this player in this session
	Remaining int    // guesses left after this one
	At        time.Time
}

// EvaluateGuess validates and scores a guess without mutating the
// session. Validation order: length, alphabetic, ban, word list.
func (s *Session) EvaluateGuess(playerID int64, text string, dict Dictionary, now time.Time) (*Outcome, error) {
	if s.State.Resolved() {
		return nil, ErrNoGameInProgress
	}
	guess := strings.ToLower(strings.TrimSpace(text))
	// The target length wins over a mid-game length change: the drawn
	// word is fixed, so a guess that cannot be scored against it is
	// invalid even if it matches the updated setting.
	if len(guess) != s.Settings.WordLength || len(guess) != len(s.Word) {
		return nil, ErrInvalidLength
	}
	if !isAlpha(guess) {
		return nil, ErrNotAlphabetic
	}
	if _, banned := s.Banned[playerID]; banned {
		return nil, ErrPlayerBanned
	}
	if !dict.IsValid(guess) {
		return nil, ErrNotAWord
	}

	o := &Outcome{
		PlayerID:  playerID,
		Word:      guess,
		Hint:      Hint(guess, s.Word),
		Win:       guess == s.Word,
		Remaining: s.Settings.MaxGuesses - len(s.Guesses) - 1,
		At:        now,
	}
	if _, known := s.Players[playerID]; !known {
		o.NewPlayer = true
	}
	if s.Settings.Mode == ModeTeam {
		// Teams rotate by total guess count, not by player identity, so
		// a player's team can flip between consecutive guesses. This
		// mirrors the long-standing behavior and is deliberate.
		if len(s.Guesses)%2 == 0 {
			o.Team = Team1
		} else {
			o.Team = Team2
		}
	}
	return o, nil
}

// Apply commits a previously evaluated outcome: appends to the guess
// log, updates the roster and teams, and performs the state transition
// (won on a correct guess, exhausted when the last allowed guess was
// not a win).
func (s *Session) Apply(o *Outcome) {
	s.Guesses = append(s.Guesses, Guess{PlayerID: o.PlayerID, Word: o.Word, At: o.At})
	s.Players[o.PlayerID] = struct{}{}
	if o.Team != "" && s.Teams != nil {
		s.Teams[o.Team][o.PlayerID] = struct{}{}
	}
	switch {
	case o.Win:
		s.State = StateWon
		s.Winner = o.PlayerID
		s.WinTeam = o.Team
	case len(s.Guesses) >= s.Settings.MaxGuesses:
		s.State = StateExhausted
	}
}

// EndByAdmin terminates the game unconditionally and reveals the word.
func (s *Session) EndByAdmin() (string, error) {
	if s.State.Resolved() {
		return "", ErrNoGameInProgress
	}
	s.State = StateEnded
	return s.Word, nil
}

// Expire marks an active session as timed out and reveals the word.
func (s *Session) Expire() (string, error) {
	if s.State.Resolved() {
		return "", ErrNoGameInProgress
	}
	s.State = StateTimedOut
	return s.Word, nil
}

// UpdateSetting validates and merges a single settings key. Past
// guesses are never re-validated or resized.
func (s *Session) UpdateSetting(key, value string) error {
	if s.State.Resolved() {
		return ErrNoGameInProgress
	}
	return s.Settings.Set(key, value)
}

// Ban excludes a player from guessing for the rest of the session.
func (s *Session) Ban(playerID int64) {
	s.Banned[playerID] = struct{}{}
}

// Kick removes a player from the roster and team membership. Unlike a
// ban it does not block future guesses.
func (s *Session) Kick(playerID int64) {
	delete(s.Players, playerID)
	for _, team := range s.Teams {
		delete(team, playerID)
	}
}

// Remaining reports the number of guesses left.
func (s *Session) Remaining() int {
	return s.Settings.MaxGuesses - len(s.Guesses)
}

// Clone returns a deep copy. The registry applies outcomes to a clone,
// persists it, and swaps it in only when the write succeeds.
func (s *Session) Clone() *Session {
	c := *s
	c.Guesses = append([]Guess(nil), s.Guesses...)
	c.Players = copySet(s.Players)
	c.Banned = copySet(s.Banned)
	if s.Teams != nil {
		c.Teams = make(map[string]map[int64]struct{}, len(s.Teams))
		for name, members := range s.Teams {
			c.Teams[name] = copySet(members)
		}
	}
	return &c
}

func copySet(in map[int64]struct{}) map[int64]struct{} {
	out := make(map[int64]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}
