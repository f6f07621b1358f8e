// Core type definitions for the word-guessing game engine.
// Defines:
//   - Mark: per-letter result of a guess (correct/present/absent).
//   - State: lifecycle state of a session.
//   - Mode, Theme, Settings: per-game configuration.

package game

import "time"

// Mark represents the evaluation result for a single letter in a guess.
type Mark string

const (
	MarkCorrect Mark = "correct" // letter is in the right position
	MarkPresent Mark = "present" // letter is in the word, wrong position
	MarkAbsent  Mark = "absent"  // letter is not in the word
)

// State is the lifecycle state of a session. StateActive is the initial
// state; every other state is terminal and triggers session destruction.
type State string

const (
	StateActive    State = "active"
	StateWon       State = "won"
	StateExhausted State = "exhausted"
	StateTimedOut  State = "timed_out"
	StateEnded     State = "ended" // ended by an admin
)

// Resolved reports whether the state is terminal.
func (s State) Resolved() bool { return s != StateActive }

// Mode selects the game variant.
type Mode string

const (
	ModeStandard    Mode = "standard"
	ModeTeam        Mode = "team"
	ModeCompetitive Mode = "competitive" // reserved; scores like standard
)

// ParseMode validates a mode string. The empty string means standard.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case "":
		return ModeStandard, true
	case ModeStandard, ModeTeam, ModeCompetitive:
		return Mode(s), true
	}
	return "", false
}

// Theme styles outgoing messages. The core only stores it; rendering is
// the transport's concern.
type Theme string

const (
	ThemeDefault Theme = "default"
	ThemeDark    Theme = "dark"
	ThemeLight   Theme = "light"
)

// Settings hold the per-game configuration. Mutable during a game by an
// admin; changing them never re-validates guesses already made.
type Settings struct {
	MaxGuesses int   `json:"maxGuesses"`
	WordLength int   `json:"wordLength"`
	Timeout    int   `json:"timeoutSeconds"`
	Theme      Theme `json:"theme"`
	Mode       Mode  `json:"mode"`
}

// DefaultSettings returns the stock configuration for a new game.
func DefaultSettings() Settings {
	return Settings{
		MaxGuesses: 30,
		WordLength: 5,
		Timeout:    3600,
		Theme:      ThemeDefault,
		Mode:       ModeStandard,
	}
}

// TimeoutDuration converts the timeout setting to a duration.
func (s Settings) TimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

// Set validates and applies a single settings key. Keys match the
// /settings command vocabulary: max_guesses, length, timeout, theme.
// Numeric values must be positive integers.
func (s *Settings) Set(key, value string) error {
	switch key {
	case "max_guesses":
		n, ok := positiveInt(value)
		if !ok {
			return ErrInvalidSetting
		}
		s.MaxGuesses = n
	case "length":
		n, ok := positiveInt(value)
		if !ok {
			return ErrInvalidSetting
		}
		s.WordLength = n
	case "timeout":
		n, ok := positiveInt(value)
		if !ok {
			return ErrInvalidSetting
		}
		s.Timeout = n
	case "theme":
		switch Theme(value) {
		case ThemeDefault, ThemeDark, ThemeLight:
			s.Theme = Theme(value)
		default:
			return ErrInvalidSetting
		}
	default:
		return ErrInvalidSetting
	}
	return nil
}

func positiveInt(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
		if n > 1<<30 {
			return 0, false
		}
	}
	if n <= 0 {
		return 0, false
	}
	return n, true
}

// Guess is one entry in a session's append-only guess log.
type Guess struct {
	PlayerID int64     `json:"playerId"`
	Word     string    `json:"word"`
	At       time.Time `json:"at"`
}

// Dictionary answers membership checks for guesses. The words package
// provides the production implementation.
type Dictionary interface {
	IsValid(word string) bool
}

// Team bucket names used in team mode.
const (
	Team1 = "team1"
	Team2 = "team2"
)
