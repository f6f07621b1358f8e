// Admin analytics dashboard for the bot.
// Responsibilities:
//   - Router + middleware (JSON, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/healthz", POST /api/login.
//   - Gated endpoints (require JWT): GET /api/stats, GET /api/leaderboard,
//     POST /api/message (manual injection of a chat event, for smoke
//     checks against a live process).
//
// Auth is a single admin credential: username plus a bcrypt password
// hash supplied via configuration. Login issues an HS256 JWT.
package dashboard

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/wordseekbot/wordseek/internal/dispatch"
	"github.com/wordseekbot/wordseek/internal/leaderboard"
	"github.com/wordseekbot/wordseek/internal/store"
)

// Config carries the dashboard's credentials and token policy.
type Config struct {
	AdminUser     string
	AdminPassHash string // bcrypt hash of the admin password
	JWTSecret     string
	TokenTTL      time.Duration
}

// Server bundles the router with the read models it exposes.
type Server struct {
	r          *chi.Mux
	cfg        Config
	store      store.Store
	boards     *leaderboard.Aggregator
	dispatcher *dispatch.Dispatcher
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg Config, st store.Store, boards *leaderboard.Aggregator, d *dispatch.Dispatcher) *Server {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	s := &Server{r: chi.NewRouter(), cfg: cfg, store: st, boards: boards, dispatcher: d}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(jsonContentType)

	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"wordseek","endpoints":["/healthz","POST /api/login","GET /api/stats","GET /api/leaderboard","POST /api/message"]}`))
	})
	s.r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	s.r.Post("/api/login", s.handleLogin)
	s.r.With(s.requireAuth()).Get("/api/stats", s.handleStats)
	s.r.With(s.requireAuth()).Get("/api/leaderboard", s.handleLeaderboard)
	s.r.With(s.requireAuth()).Post("/api/message", s.handleMessage)

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// requireAuth enforces a valid admin JWT.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r)
			if tokenStr == "" {
				http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
				return
			}
			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
				return []byte(s.cfg.JWTSecret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			if sub, _ := claims["sub"].(string); sub != s.cfg.AdminUser {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts a bearer token from the Authorization header.
func bearerToken(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	return ""
}

// -------------------------------- auth -------------------------------------

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleLogin verifies the admin credential and issues a JWT.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	if body.Username != s.cfg.AdminUser || !checkPassword(s.cfg.AdminPassHash, body.Password) {
		http.Error(w, `{"error":"Invalid username or password"}`, http.StatusUnauthorized)
		return
	}
	tok, exp, err := s.signJWT(body.Username)
	if err != nil {
		log.Error().Err(err).Msg("sign token")
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"token": tok, "expiresAt": exp.UTC().Format(time.RFC3339)})
}

// signJWT creates an HS256 JWT for the admin user.
func (s *Server) signJWT(username string) (string, time.Time, error) {
	exp := time.Now().Add(s.cfg.TokenTTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": username,
		"exp": exp.Unix(),
		"iat": time.Now().Unix(),
	})
	ss, err := t.SignedString([]byte(s.cfg.JWTSecret))
	return ss, exp, err
}

// checkPassword is a bcrypt verifier.
func checkPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// ------------------------------ read models --------------------------------

// handleStats returns the process-wide usage aggregate.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.BotStats(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("load bot stats")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"gamesStarted": stats.GamesStarted,
		"guessesMade":  stats.GuessesMade,
		"lastUpdated":  stats.LastUpdated.UTC().Format(time.RFC3339),
	})
}

// handleLeaderboard serves one page of a board. Query params: scope
// (group|global), period (today|week|month|all), chat (required for
// group scope), page (1-based).
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	scope, ok := store.ParseScope(q.Get("scope"))
	if !ok {
		http.Error(w, `{"error":"bad_scope"}`, http.StatusBadRequest)
		return
	}
	period, ok := store.ParsePeriod(q.Get("period"))
	if !ok {
		http.Error(w, `{"error":"bad_period"}`, http.StatusBadRequest)
		return
	}
	var chatID int64
	if scope == store.ScopeGroup {
		n, err := strconv.ParseInt(q.Get("chat"), 10, 64)
		if err != nil || n == 0 {
			http.Error(w, `{"error":"bad_chat"}`, http.StatusBadRequest)
			return
		}
		chatID = n
	}
	page := 1
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, `{"error":"bad_page"}`, http.StatusBadRequest)
			return
		}
		page = n
	}

	board, err := s.boards.Query(r.Context(), scope, chatID, period, page)
	if err != nil {
		log.Error().Err(err).Msg("query leaderboard")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"scope":   scope,
		"period":  period,
		"page":    page,
		"entries": board.Entries,
		"hasPrev": board.HasPrev,
		"hasNext": board.HasNext,
	})
}

// handleMessage injects one chat event into the dispatcher and returns
// the reply the bot would send. Intended for manual smoke checks.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var in dispatch.Inbound
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	if in.ChatID == 0 || in.PlayerID == 0 {
		http.Error(w, `{"error":"missing_ids"}`, http.StatusBadRequest)
		return
	}
	reply, err := s.dispatcher.Handle(r.Context(), in)
	if err != nil {
		log.Error().Err(err).Int64("chat", in.ChatID).Msg("dispatch message")
		http.Error(w, `{"error":"dispatch_failed"}`, http.StatusInternalServerError)
		return
	}
	if reply == nil {
		_ = json.NewEncoder(w).Encode(map[string]any{"reply": nil})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"reply": reply})
}
