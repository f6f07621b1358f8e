// Outbound event vocabulary. The core never renders display strings;
// it hands the transport (chatID, kind, payload) tuples and the
// transport renders them in the user's locale.
package dispatch

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Kind identifies what an outbound event means.
type Kind string

const (
	KindGameStarted       Kind = "game_started"
	KindAlreadyInProgress Kind = "game_in_progress"
	KindNoGame            Kind = "no_game"
	KindNoWords           Kind = "no_words"
	KindGuessResult       Kind = "guess_result"
	KindWin               Kind = "win"
	KindGameOver          Kind = "game_over"
	KindGameEnded         Kind = "game_ended"
	KindReminder          Kind = "reminder"
	KindInvalidLength     Kind = "invalid_length"
	KindNotAlphabetic     Kind = "not_alphabetic"
	KindNotAWord          Kind = "not_a_word"
	KindPlayerBanned      Kind = "player_banned"
	KindRateLimited       Kind = "rate_limited"
	KindSettingsUpdated   Kind = "settings_updated"
	KindInvalidSetting    Kind = "invalid_setting"
	KindBanApplied        Kind = "ban_applied"
	KindKickApplied       Kind = "kick_applied"
	KindAdminOnly         Kind = "admin_only"
	KindLeaderboard       Kind = "leaderboard"
	KindNoScores          Kind = "no_scores"
	KindMyScore           Kind = "myscore"
	KindProfile           Kind = "profile"
	KindAchievements      Kind = "achievements"
	KindBotStats          Kind = "bot_stats"
	KindHelp              Kind = "help"
	KindUsage             Kind = "usage"
)

// Reply is one outbound event for the transport to render and send.
type Reply struct {
	ChatID int64          `json:"chatId"`
	Kind   Kind           `json:"kind"`
	Data   map[string]any `json:"data,omitempty"`
}

// Transport delivers replies to end users. Implementations own
// rendering, localization, and platform delivery.
type Transport interface {
	Send(ctx context.Context, r Reply) error
}

// Announcer adapts a Transport to the registry's event sink for
// scheduler-driven reminder and timeout events.
type Announcer struct {
	transport Transport
}

// NewAnnouncer wraps t.
func NewAnnouncer(t Transport) *Announcer { return &Announcer{transport: t} }

func (a *Announcer) GameReminder(chatID int64, remaining int) {
	a.send(Reply{ChatID: chatID, Kind: KindReminder, Data: map[string]any{"remaining": remaining}})
}

func (a *Announcer) GameTimedOut(chatID int64, word string) {
	a.send(Reply{ChatID: chatID, Kind: KindGameEnded, Data: map[string]any{"word": word}})
}

func (a *Announcer) send(r Reply) {
	if err := a.transport.Send(context.Background(), r); err != nil {
		log.Warn().Err(err).Int64("chat", r.ChatID).Str("kind", string(r.Kind)).Msg("send event")
	}
}

// LogTransport is a stand-in Transport that logs outbound events; the
// production chat transport replaces it at wiring time.
type LogTransport struct{}

func (LogTransport) Send(_ context.Context, r Reply) error {
	log.Info().Int64("chat", r.ChatID).Str("kind", string(r.Kind)).Interface("data", r.Data).Msg("outbound")
	return nil
}
