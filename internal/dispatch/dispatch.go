// Inbound message routing: parses chat text into core operations,
// enforces authorization tiers, and maps the game-logic error taxonomy
// to outbound reply kinds. Every rejected guess or command yields a
// specific reply; nothing is silently dropped except text in chats
// with no running game and commands this bot does not know.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/wordseekbot/wordseek/internal/game"
	"github.com/wordseekbot/wordseek/internal/leaderboard"
	"github.com/wordseekbot/wordseek/internal/registry"
	"github.com/wordseekbot/wordseek/internal/score"
	"github.com/wordseekbot/wordseek/internal/store"
)

// Inbound is one normalized chat event. The transport reports the
// issuing actor and whether the chat platform considers them an admin.
type Inbound struct {
	ChatID   int64  `json:"chatId"`
	PlayerID int64  `json:"playerId"`
	Text     string `json:"text"`
	IsAdmin  bool   `json:"isAdmin"`
}

// Dispatcher routes inbound events into the game core.
type Dispatcher struct {
	registry  *registry.Registry
	ledger    *score.Ledger
	boards    *leaderboard.Aggregator
	store     store.Store
	botAdmins map[int64]struct{}
}

// New constructs a Dispatcher. botAdmins may view /stats.
func New(reg *registry.Registry, ledger *score.Ledger, boards *leaderboard.Aggregator, st store.Store, botAdmins []int64) *Dispatcher {
	admins := make(map[int64]struct{}, len(botAdmins))
	for _, id := range botAdmins {
		admins[id] = struct{}{}
	}
	return &Dispatcher{registry: reg, ledger: ledger, boards: boards, store: st, botAdmins: admins}
}

// Handle processes one inbound event. A nil reply with nil error means
// the event is deliberately ignored. A non-nil error is an
// infrastructure failure, never a game-logic rejection.
func (d *Dispatcher) Handle(ctx context.Context, in Inbound) (*Reply, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, nil
	}
	if !strings.HasPrefix(text, "/") {
		return d.handleGuess(ctx, in, text)
	}

	fields := strings.Fields(text)
	cmd := strings.TrimPrefix(fields[0], "/")
	// Group chats address commands as /cmd@botname.
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		cmd = cmd[:at]
	}
	args := fields[1:]

	switch cmd {
	case "new":
		return d.handleNew(ctx, in, args)
	case "end":
		return d.handleEnd(ctx, in)
	case "settings":
		return d.handleSettings(ctx, in, args)
	case "ban":
		return d.handleBanKick(ctx, in, args, true)
	case "kick":
		return d.handleBanKick(ctx, in, args, false)
	case "leaderboard":
		return d.handleLeaderboard(ctx, in, args)
	case "myscore":
		return d.handleMyScore(ctx, in, args)
	case "profile":
		return d.handleProfile(ctx, in)
	case "achievements":
		return d.handleAchievements(ctx, in)
	case "stats":
		return d.handleBotStats(ctx, in)
	case "help", "start":
		return d.reply(in, KindHelp, map[string]any{
			"length":     game.DefaultSettings().WordLength,
			"maxGuesses": game.DefaultSettings().MaxGuesses,
		}), nil
	}
	return nil, nil
}

func (d *Dispatcher) handleGuess(ctx context.Context, in Inbound, text string) (*Reply, error) {
	res, err := d.registry.SubmitGuess(ctx, in.ChatID, in.PlayerID, text)
	if err != nil {
		switch {
		case errors.Is(err, game.ErrNoGameInProgress):
			// Ordinary chatter in a chat with no game.
			return nil, nil
		case errors.Is(err, game.ErrRateLimited):
			return d.reply(in, KindRateLimited, nil), nil
		case errors.Is(err, game.ErrInvalidLength):
			return d.reply(in, KindInvalidLength, map[string]any{"length": d.wordLength(in.ChatID)}), nil
		case errors.Is(err, game.ErrNotAlphabetic):
			return d.reply(in, KindNotAlphabetic, nil), nil
		case errors.Is(err, game.ErrNotAWord):
			return d.reply(in, KindNotAWord, nil), nil
		case errors.Is(err, game.ErrPlayerBanned):
			return d.reply(in, KindPlayerBanned, nil), nil
		}
		return nil, err
	}

	switch res.State {
	case game.StateWon:
		data := map[string]any{
			"player": res.Outcome.PlayerID,
			"word":   res.Word,
		}
		if res.Outcome.Team != "" {
			data["team"] = res.Outcome.Team
		}
		if len(res.Achievements) > 0 {
			data["achievements"] = res.Achievements
		}
		return d.reply(in, KindWin, data), nil
	case game.StateExhausted:
		return d.reply(in, KindGameOver, map[string]any{"word": res.Word}), nil
	default:
		return d.reply(in, KindGuessResult, map[string]any{
			"guess":     res.Outcome.Word,
			"hint":      res.Outcome.Hint,
			"remaining": res.Outcome.Remaining,
		}), nil
	}
}

func (d *Dispatcher) handleNew(ctx context.Context, in Inbound, args []string) (*Reply, error) {
	modeArg := ""
	if len(args) > 0 {
		modeArg = args[0]
	}
	mode, ok := game.ParseMode(modeArg)
	if !ok {
		return d.usage(in, "/new [standard|team|competitive]"), nil
	}
	settings, err := d.registry.StartGame(ctx, in.ChatID, mode)
	if err != nil {
		switch {
		case errors.Is(err, game.ErrAlreadyInProgress):
			return d.reply(in, KindAlreadyInProgress, nil), nil
		case errors.Is(err, game.ErrNoWordsAvailable):
			return d.reply(in, KindNoWords, nil), nil
		}
		return nil, err
	}
	return d.reply(in, KindGameStarted, map[string]any{
		"length":     settings.WordLength,
		"maxGuesses": settings.MaxGuesses,
		"mode":       settings.Mode,
	}), nil
}

// requireAdmin guards commands reserved for chat admins.
func requireAdmin(in Inbound) error {
	if !in.IsAdmin {
		return game.ErrUnauthorized
	}
	return nil
}

// requireBotAdmin guards operator-only commands.
func (d *Dispatcher) requireBotAdmin(playerID int64) error {
	if _, ok := d.botAdmins[playerID]; !ok {
		return game.ErrUnauthorized
	}
	return nil
}

func (d *Dispatcher) handleEnd(ctx context.Context, in Inbound) (*Reply, error) {
	if err := requireAdmin(in); errors.Is(err, game.ErrUnauthorized) {
		return d.reply(in, KindAdminOnly, nil), nil
	}
	word, err := d.registry.EndGame(ctx, in.ChatID)
	if err != nil {
		if errors.Is(err, game.ErrNoGameInProgress) {
			return d.reply(in, KindNoGame, nil), nil
		}
		return nil, err
	}
	return d.reply(in, KindGameEnded, map[string]any{"word": word}), nil
}

func (d *Dispatcher) handleSettings(ctx context.Context, in Inbound, args []string) (*Reply, error) {
	if err := requireAdmin(in); errors.Is(err, game.ErrUnauthorized) {
		return d.reply(in, KindAdminOnly, nil), nil
	}
	if len(args) != 2 {
		return d.usage(in, "/settings [max_guesses|length|timeout|theme] [value]"), nil
	}
	settings, err := d.registry.UpdateSettings(ctx, in.ChatID, args[0], args[1])
	if err != nil {
		switch {
		case errors.Is(err, game.ErrInvalidSetting):
			return d.reply(in, KindInvalidSetting, nil), nil
		case errors.Is(err, game.ErrNoGameInProgress):
			return d.reply(in, KindNoGame, nil), nil
		}
		return nil, err
	}
	return d.reply(in, KindSettingsUpdated, map[string]any{"settings": settings}), nil
}

func (d *Dispatcher) handleBanKick(ctx context.Context, in Inbound, args []string, ban bool) (*Reply, error) {
	if err := requireAdmin(in); errors.Is(err, game.ErrUnauthorized) {
		return d.reply(in, KindAdminOnly, nil), nil
	}
	usage := "/kick [user_id]"
	if ban {
		usage = "/ban [user_id]"
	}
	if len(args) != 1 {
		return d.usage(in, usage), nil
	}
	target, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || target <= 0 {
		return d.usage(in, usage), nil
	}

	var kind Kind
	if ban {
		err = d.registry.Ban(ctx, in.ChatID, target)
		kind = KindBanApplied
	} else {
		err = d.registry.Kick(ctx, in.ChatID, target)
		kind = KindKickApplied
	}
	if err != nil {
		if errors.Is(err, game.ErrNoGameInProgress) {
			return d.reply(in, KindNoGame, nil), nil
		}
		return nil, err
	}
	return d.reply(in, kind, map[string]any{"player": target}), nil
}

func (d *Dispatcher) handleLeaderboard(ctx context.Context, in Inbound, args []string) (*Reply, error) {
	scope, period, page, ok := parseBoardArgs(args)
	if !ok {
		return d.usage(in, "/leaderboard [group|global] [today|week|month|all]"), nil
	}
	board, err := d.boards.Query(ctx, scope, in.ChatID, period, page)
	if err != nil {
		return nil, err
	}
	if len(board.Entries) == 0 {
		return d.reply(in, KindNoScores, nil), nil
	}
	entries := make([]map[string]any, 0, len(board.Entries))
	for _, e := range board.Entries {
		entries = append(entries, map[string]any{"rank": e.Rank, "player": e.PlayerID, "score": e.Score})
	}
	return d.reply(in, KindLeaderboard, map[string]any{
		"scope":   scope,
		"period":  period,
		"page":    page,
		"entries": entries,
		"hasPrev": board.HasPrev,
		"hasNext": board.HasNext,
	}), nil
}

func parseBoardArgs(args []string) (store.Scope, store.Period, int, bool) {
	scopeArg, periodArg := "", ""
	page := 1
	if len(args) > 0 {
		scopeArg = args[0]
	}
	if len(args) > 1 {
		periodArg = args[1]
	}
	if len(args) > 2 {
		n, err := strconv.Atoi(args[2])
		if err != nil || n < 1 {
			return "", "", 0, false
		}
		page = n
	}
	if len(args) > 3 {
		return "", "", 0, false
	}
	scope, ok := store.ParseScope(scopeArg)
	if !ok {
		return "", "", 0, false
	}
	period, ok := store.ParsePeriod(periodArg)
	if !ok {
		return "", "", 0, false
	}
	return scope, period, page, true
}

func (d *Dispatcher) handleMyScore(ctx context.Context, in Inbound, args []string) (*Reply, error) {
	scope, period, _, ok := parseBoardArgs(args)
	if !ok {
		return d.usage(in, "/myscore [group|global] [today|week|month|all]"), nil
	}
	n, err := d.ledger.Score(ctx, in.PlayerID, in.ChatID, scope, period)
	if err != nil {
		return nil, err
	}
	return d.reply(in, KindMyScore, map[string]any{
		"scope":  scope,
		"period": period,
		"score":  n,
	}), nil
}

func (d *Dispatcher) handleProfile(ctx context.Context, in Inbound) (*Reply, error) {
	stats, err := d.ledger.Stats(ctx, in.PlayerID)
	if err != nil {
		return nil, err
	}
	avg := 0.0
	if stats.GamesPlayed > 0 {
		avg = float64(stats.TotalGuesses) / float64(stats.GamesPlayed)
	}
	return d.reply(in, KindProfile, map[string]any{
		"gamesPlayed":  stats.GamesPlayed,
		"wins":         stats.Wins,
		"avgGuesses":   fmt.Sprintf("%.2f", avg),
		"achievements": len(stats.Achievements),
	}), nil
}

func (d *Dispatcher) handleAchievements(ctx context.Context, in Inbound) (*Reply, error) {
	stats, err := d.ledger.Stats(ctx, in.PlayerID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(stats.Achievements))
	for _, id := range stats.Achievements {
		names = append(names, score.AchievementName(id))
	}
	return d.reply(in, KindAchievements, map[string]any{"achievements": names}), nil
}

func (d *Dispatcher) handleBotStats(ctx context.Context, in Inbound) (*Reply, error) {
	if err := d.requireBotAdmin(in.PlayerID); errors.Is(err, game.ErrUnauthorized) {
		return d.reply(in, KindAdminOnly, nil), nil
	}
	stats, err := d.store.BotStats(ctx)
	if err != nil {
		return nil, err
	}
	return d.reply(in, KindBotStats, map[string]any{
		"gamesStarted": stats.GamesStarted,
		"guessesMade":  stats.GuessesMade,
	}), nil
}

// wordLength reports the live session's configured length for error
// payloads, falling back to the default when none is active.
func (d *Dispatcher) wordLength(chatID int64) int {
	if s, ok := d.registry.Settings(chatID); ok {
		return s.WordLength
	}
	return game.DefaultSettings().WordLength
}

func (d *Dispatcher) reply(in Inbound, kind Kind, data map[string]any) *Reply {
	log.Debug().Int64("chat", in.ChatID).Str("kind", string(kind)).Msg("reply")
	return &Reply{ChatID: in.ChatID, Kind: kind, Data: data}
}

func (d *Dispatcher) usage(in Inbound, text string) *Reply {
	return d.reply(in, KindUsage, map[string]any{"usage": text})
}
