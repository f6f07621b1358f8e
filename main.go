package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wordseekbot/wordseek/internal/dashboard"
	"github.com/wordseekbot/wordseek/internal/dispatch"
	"github.com/wordseekbot/wordseek/internal/leaderboard"
	"github.com/wordseekbot/wordseek/internal/ratelimit"
	"github.com/wordseekbot/wordseek/internal/registry"
	"github.com/wordseekbot/wordseek/internal/score"
	"github.com/wordseekbot/wordseek/internal/store"
	"github.com/wordseekbot/wordseek/internal/words"
)

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := openDB(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	defer db.Close()

	st, err := store.NewSQLite(db)
	if err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	source := wordSource(cfg)

	var rdb redis.Cmdable
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		log.Info().Str("addr", cfg.RedisAddr).Msg("redis rate limiting enabled")
	}
	limiter := ratelimit.New(rdb, cfg.RateWindow, time.Now)

	ledger := score.NewLedger(st, time.Now)
	boards := leaderboard.New(st, leaderboard.DefaultPageSize, time.Now)

	transport := dispatch.LogTransport{}
	reg := registry.New(registry.Config{
		Store:   st,
		Source:  source,
		Ledger:  ledger,
		Limiter: limiter,
		Sink:    dispatch.NewAnnouncer(transport),
	})
	dispatcher := dispatch.New(reg, ledger, boards, st, cfg.BotAdmins)

	srv := dashboard.New(dashboard.Config{
		AdminUser:     cfg.AdminUser,
		AdminPassHash: cfg.AdminPassHash,
		JWTSecret:     cfg.JWTSecret,
	}, st, boards, dispatcher)

	errs := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting wordseek")
		errs <- srv.Start(":" + cfg.Port)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errs:
		log.Fatal().Err(err).Msg("server exited")
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}
}

// wordSource builds the puzzle word source chain: an explicit file wins,
// then the word API backed by the built-in list, then the built-in list
// alone.
func wordSource(cfg config) words.Source {
	if cfg.WordsFile != "" {
		list, err := words.LoadFile(cfg.WordsFile)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.WordsFile).Msg("load word list")
		}
		log.Info().Str("path", cfg.WordsFile).Int("words", list.Len()).Msg("word list loaded")
		return list
	}
	if cfg.WordsAPI != "" {
		return words.WithFallback(words.NewAPI(cfg.WordsAPI, nil), words.Static())
	}
	return words.WithFallback(words.NewAPI("", nil), words.Static())
}
