// Session registry: owns the set of live game sessions keyed by chat,
// enforces one-session-per-chat, and drives the deferred reminder and
// timeout events.
//
// Concurrency model: a global mutex guards only the chat → entry map;
// each entry carries its own mutex serializing every mutating
// operation on that chat's session. Store writes that decide a guess
// outcome happen under the entry lock (persist, then swap in the
// mutated clone); event delivery never does. Deferred events are
// fire-and-check: timers are never cancelled, they just re-read the
// session's state at fire time and do nothing when it has already
// resolved.
package registry

import (
	"context"
	crand "crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wordseekbot/wordseek/internal/game"
	"github.com/wordseekbot/wordseek/internal/score"
	"github.com/wordseekbot/wordseek/internal/store"
	"github.com/wordseekbot/wordseek/internal/words"
)

// Gate is the rate-limit check applied to every guess.
type Gate interface {
	Allow(ctx context.Context, playerID int64) bool
}

// EventSink receives scheduler-driven events. Implementations render
// and deliver them; the registry only reports what happened.
type EventSink interface {
	GameReminder(chatID int64, remaining int)
	GameTimedOut(chatID int64, word string)
}

type nopSink struct{}

func (nopSink) GameReminder(int64, int)    {}
func (nopSink) GameTimedOut(int64, string) {}

// Config wires a Registry's collaborators. Now and Schedule default to
// the real clock and time.AfterFunc; Sink defaults to a no-op.
type Config struct {
	Store    store.Store
	Source   words.Source
	Ledger   *score.Ledger
	Limiter  Gate
	Sink     EventSink
	Now      func() time.Time
	Schedule func(d time.Duration, fn func())
}

// Registry owns all live sessions.
type Registry struct {
	mu       sync.Mutex
	sessions map[int64]*entry

	store    store.Store
	source   words.Source
	ledger   *score.Ledger
	limiter  Gate
	sink     EventSink
	now      func() time.Time
	schedule func(d time.Duration, fn func())
}

// entry holds one chat's session behind its own lock. sess is nil
// while creation is still in flight.
type entry struct {
	mu   sync.Mutex
	sess *game.Session
}

// New constructs a Registry from cfg.
func New(cfg Config) *Registry {
	r := &Registry{
		sessions: make(map[int64]*entry),
		store:    cfg.Store,
		source:   cfg.Source,
		ledger:   cfg.Ledger,
		limiter:  cfg.Limiter,
		sink:     cfg.Sink,
		now:      cfg.Now,
		schedule: cfg.Schedule,
	}
	if r.sink == nil {
		r.sink = nopSink{}
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.schedule == nil {
		r.schedule = func(d time.Duration, fn func()) { time.AfterFunc(d, fn) }
	}
	return r
}

// GuessResult is what a successful guess produces.
type GuessResult struct {
	Outcome      *game.Outcome
	State        game.State
	Word         string   // revealed only when the session resolved
	Achievements []string // newly unlocked, win only
}

// StartGame creates a session for the chat and schedules its reminder
// and timeout events. Fails with game.ErrAlreadyInProgress when the
// chat already has a live session and game.ErrNoWordsAvailable when
// the word source has nothing of the configured length.
func (r *Registry) StartGame(ctx context.Context, chatID int64, mode game.Mode) (game.Settings, error) {
	settings := game.DefaultSettings()
	settings.Mode = mode

	// Reserve the chat slot before any I/O so a concurrent start sees
	// AlreadyInProgress immediately.
	r.mu.Lock()
	if _, exists := r.sessions[chatID]; exists {
		r.mu.Unlock()
		return game.Settings{}, game.ErrAlreadyInProgress
	}
	e := &entry{}
	e.mu.Lock()
	r.sessions[chatID] = e
	r.mu.Unlock()

	sess, err := r.createSession(ctx, chatID, settings)
	if err != nil {
		e.mu.Unlock()
		r.evict(chatID, e)
		return game.Settings{}, err
	}
	e.sess = sess
	e.mu.Unlock()

	timeout := settings.TimeoutDuration()
	r.schedule(timeout/2, func() { r.fireReminder(e) })
	r.schedule(timeout, func() { r.fireTimeout(chatID, e) })

	if err := r.ledger.RecordGameStarted(ctx); err != nil {
		log.Warn().Err(err).Int64("chat", chatID).Msg("record game started")
	}
	log.Info().Int64("chat", chatID).Str("mode", string(mode)).Msg("game started")
	return settings, nil
}

func (r *Registry) createSession(ctx context.Context, chatID int64, settings game.Settings) (*game.Session, error) {
	list, err := r.source.WordsOfLength(ctx, settings.WordLength)
	if err != nil {
		return nil, fmt.Errorf("word source: %w", err)
	}
	if len(list) == 0 {
		return nil, game.ErrNoWordsAvailable
	}
	sess := game.NewSession(chatID, list[randIndex(len(list))], settings, r.now())

	if err := r.store.InsertGame(ctx, sess); err != nil {
		if errors.Is(err, store.ErrSessionExists) {
			// Leftover row from an unclean eviction; replace it.
			if derr := r.store.DeleteGame(ctx, chatID); derr == nil {
				err = r.store.InsertGame(ctx, sess)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("persist session: %w", err)
		}
	}
	return sess, nil
}

// SubmitGuess runs the full guess pipeline: rate limit, session
// validation, scoring, persistence, and win accounting. The computed
// outcome is applied to a clone and swapped in only after the
// decisive store write succeeds, so a failed write leaves the session
// unchanged and the guess retryable.
func (r *Registry) SubmitGuess(ctx context.Context, chatID, playerID int64, text string) (*GuessResult, error) {
	if !r.limiter.Allow(ctx, playerID) {
		return nil, game.ErrRateLimited
	}

	e := r.lookup(chatID)
	if e == nil {
		return nil, game.ErrNoGameInProgress
	}
	e.mu.Lock()
	sess := e.sess
	if sess == nil || sess.State.Resolved() {
		e.mu.Unlock()
		return nil, game.ErrNoGameInProgress
	}

	outcome, err := sess.EvaluateGuess(playerID, text, r.source, r.now())
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}
	next := sess.Clone()
	next.Apply(outcome)

	res := &GuessResult{Outcome: outcome, State: next.State}
	switch next.State {
	case game.StateWon:
		// The ledger write is the authoritative commit for a win.
		if err := r.ledger.RecordWin(ctx, playerID, chatID, next.Settings.Mode, outcome.Team); err != nil {
			e.mu.Unlock()
			return nil, err
		}
		e.sess = next
		res.Word = next.Word
		if err := r.store.DeleteGame(ctx, chatID); err != nil {
			log.Warn().Err(err).Int64("chat", chatID).Msg("delete resolved session")
		}
	case game.StateExhausted:
		e.sess = next
		res.Word = next.Word
		if err := r.store.DeleteGame(ctx, chatID); err != nil {
			log.Warn().Err(err).Int64("chat", chatID).Msg("delete resolved session")
		}
	default:
		if err := r.store.SaveGame(ctx, next); err != nil {
			e.mu.Unlock()
			return nil, fmt.Errorf("persist guess: %w", err)
		}
		e.sess = next
	}

	// Usage counters are best-effort and never fail a guess.
	if outcome.NewPlayer {
		if err := r.ledger.RecordParticipation(ctx, playerID); err != nil {
			log.Warn().Err(err).Int64("player", playerID).Msg("record participation")
		}
	}
	if err := r.ledger.RecordGuess(ctx, playerID, 1); err != nil {
		log.Warn().Err(err).Int64("player", playerID).Msg("record guess")
	}
	if next.State == game.StateWon {
		names, err := r.ledger.CheckAchievements(ctx, playerID)
		if err != nil {
			log.Warn().Err(err).Int64("player", playerID).Msg("check achievements")
		}
		res.Achievements = names
	}
	e.mu.Unlock()

	if next.State.Resolved() {
		r.evict(chatID, e)
	}
	return res, nil
}

// EndGame terminates the chat's session on an admin's request and
// returns the target word.
func (r *Registry) EndGame(ctx context.Context, chatID int64) (string, error) {
	e := r.lookup(chatID)
	if e == nil {
		return "", game.ErrNoGameInProgress
	}
	e.mu.Lock()
	if e.sess == nil || e.sess.State.Resolved() {
		e.mu.Unlock()
		return "", game.ErrNoGameInProgress
	}
	next := e.sess.Clone()
	word, err := next.EndByAdmin()
	if err != nil {
		e.mu.Unlock()
		return "", err
	}
	if derr := r.store.DeleteGame(ctx, chatID); derr != nil {
		log.Warn().Err(derr).Int64("chat", chatID).Msg("delete ended session")
	}
	e.sess = next
	e.mu.Unlock()
	r.evict(chatID, e)
	return word, nil
}

// UpdateSettings validates and merges one settings key into the live
// session. Past guesses are unaffected.
func (r *Registry) UpdateSettings(ctx context.Context, chatID int64, key, value string) (game.Settings, error) {
	var out game.Settings
	err := r.mutate(ctx, chatID, func(next *game.Session) error {
		if err := next.UpdateSetting(key, value); err != nil {
			return err
		}
		out = next.Settings
		return nil
	})
	return out, err
}

// Ban excludes a player from guessing for the session's lifetime.
func (r *Registry) Ban(ctx context.Context, chatID, playerID int64) error {
	return r.mutate(ctx, chatID, func(next *game.Session) error {
		next.Ban(playerID)
		return nil
	})
}

// Kick removes a player from the roster and teams without blocking
// future guesses.
func (r *Registry) Kick(ctx context.Context, chatID, playerID int64) error {
	return r.mutate(ctx, chatID, func(next *game.Session) error {
		next.Kick(playerID)
		return nil
	})
}

// mutate applies fn to a clone of the chat's live session, persists
// it, and swaps it in.
func (r *Registry) mutate(ctx context.Context, chatID int64, fn func(*game.Session) error) error {
	e := r.lookup(chatID)
	if e == nil {
		return game.ErrNoGameInProgress
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil || e.sess.State.Resolved() {
		return game.ErrNoGameInProgress
	}
	next := e.sess.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := r.store.SaveGame(ctx, next); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	e.sess = next
	return nil
}

// Settings reports the live session's settings.
func (r *Registry) Settings(chatID int64) (game.Settings, bool) {
	e := r.lookup(chatID)
	if e == nil {
		return game.Settings{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil || e.sess.State.Resolved() {
		return game.Settings{}, false
	}
	return e.sess.Settings, true
}

// Active reports whether the chat currently has a live session.
func (r *Registry) Active(chatID int64) bool {
	e := r.lookup(chatID)
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess != nil && !e.sess.State.Resolved()
}

// ------------------------- deferred lifecycle ------------------------------

func (r *Registry) fireReminder(e *entry) {
	e.mu.Lock()
	sess := e.sess
	if sess == nil || sess.State.Resolved() {
		e.mu.Unlock()
		return
	}
	chatID, remaining := sess.ChatID, sess.Remaining()
	e.mu.Unlock()
	r.sink.GameReminder(chatID, remaining)
}

func (r *Registry) fireTimeout(chatID int64, e *entry) {
	e.mu.Lock()
	sess := e.sess
	if sess == nil || sess.State.Resolved() {
		e.mu.Unlock()
		return
	}
	word, _ := sess.Expire()
	if err := r.store.DeleteGame(context.Background(), chatID); err != nil {
		log.Warn().Err(err).Int64("chat", chatID).Msg("delete timed out session")
	}
	e.mu.Unlock()
	r.evict(chatID, e)
	log.Info().Int64("chat", chatID).Msg("game timed out")
	r.sink.GameTimedOut(chatID, word)
}

// ------------------------------ internals ----------------------------------

func (r *Registry) lookup(chatID int64) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[chatID]
}

// evict drops the entry if it is still the chat's current one.
func (r *Registry) evict(chatID int64, e *entry) {
	r.mu.Lock()
	if cur, ok := r.sessions[chatID]; ok && cur == e {
		delete(r.sessions, chatID)
	}
	r.mu.Unlock()
}

// randIndex picks a uniform index with crypto/rand entropy.
func randIndex(n int) int {
	v, err := crand.Int(crand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}
