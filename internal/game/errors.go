package game

import "errors"

// Game-logic errors. All of these are expected, recoverable conditions
// that the dispatch layer turns into user-facing replies; none of them
// corrupt session or ledger state.
var (
	ErrAlreadyInProgress = errors.New("a game is already in progress")
	ErrNoGameInProgress  = errors.New("no game in progress")
	ErrInvalidLength     = errors.New("guess has the wrong length")
	ErrNotAlphabetic     = errors.New("guess must contain only letters")
	ErrNotAWord          = errors.New("not in word list")
	ErrPlayerBanned      = errors.New("player is banned from this game")
	ErrInvalidSetting    = errors.New("invalid setting or value")
	ErrUnauthorized      = errors.New("admin only")
	ErrNoWordsAvailable  = errors.New("no words available")
	ErrRateLimited       = errors.New("rate limited")
)
